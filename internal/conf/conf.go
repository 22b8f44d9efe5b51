package conf

import (
	"encoding/json"
	"fmt"
	"time"
)

// Bootstrap 配置根节点，由 kratos config 从 configs/config.yaml 扫描得到
type Bootstrap struct {
	Server   *Server   `json:"server"`
	Data     *Data     `json:"data"`
	Recharge *Recharge `json:"recharge"`
}

// Server 传输层配置
type Server struct {
	Http *Server_HTTP `json:"http"`
}

// Server_HTTP HTTP 服务配置
type Server_HTTP struct {
	Network string    `json:"network"`
	Addr    string    `json:"addr"`
	Timeout *Duration `json:"timeout"`
}

// Data 存储与中间件配置
type Data struct {
	Database *Data_Database `json:"database"`
	Redis    *Data_Redis    `json:"redis"`
	Rocketmq *Data_RocketMQ `json:"rocketmq"`
}

// Data_Database 数据库配置，driver 支持 mysql 与 sqlite
type Data_Database struct {
	Driver      string `json:"driver"`
	Source      string `json:"source"`
	AutoMigrate bool   `json:"auto_migrate"`
}

// Data_Redis Redis 配置，Addr 为空时不启用（锁退化为进程内锁，支付索引不缓存）
type Data_Redis struct {
	Addr         string    `json:"addr"`
	Password     string    `json:"password"`
	Db           int       `json:"db"`
	ReadTimeout  *Duration `json:"read_timeout"`
	WriteTimeout *Duration `json:"write_timeout"`
}

// Data_RocketMQ 通知队列配置
type Data_RocketMQ struct {
	Enabled     bool     `json:"enabled"`
	NameServers []string `json:"name_servers"`
	GroupName   string   `json:"group_name"`
	Topic       string   `json:"topic"`
	RetryTimes  int32    `json:"retry_times"`
}

// Recharge 业务配置
type Recharge struct {
	LockExpiry      *Duration           `json:"lock_expiry"`
	PaymentIndexTtl *Duration           `json:"payment_index_ttl"`
	Psp             *Recharge_PSP       `json:"psp"`
	Messaging       *Recharge_Messaging `json:"messaging"`
	Reconcile       *Recharge_Reconcile `json:"reconcile"`
}

// Recharge_PSP Mercado Pago 配置
type Recharge_PSP struct {
	BaseUrl       string    `json:"base_url"`
	Timeout       *Duration `json:"timeout"`
	PixExpiration *Duration `json:"pix_expiration"`
}

// Recharge_Messaging WhatsApp 网关配置
type Recharge_Messaging struct {
	BaseUrl string    `json:"base_url"`
	Timeout *Duration `json:"timeout"`
}

// Recharge_Reconcile 待支付订单补偿任务配置
type Recharge_Reconcile struct {
	Cron      string    `json:"cron"`
	MinAge    *Duration `json:"min_age"`
	BatchSize int32     `json:"batch_size"`
}

// Duration 支持 "5s"、"1m30s" 这类字符串，也支持以秒为单位的数字
type Duration struct {
	time.Duration
}

// AsDuration 返回 time.Duration，nil 时为 0
func (d *Duration) AsDuration() time.Duration {
	if d == nil {
		return 0
	}
	return d.Duration
}

// UnmarshalJSON 实现 json.Unmarshaler
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value * float64(time.Second))
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
}

// MarshalJSON 实现 json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}
