package conf

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "string", input: `"5s"`, want: 5 * time.Second},
		{name: "compound", input: `"1m30s"`, want: 90 * time.Second},
		{name: "seconds as number", input: `2`, want: 2 * time.Second},
		{name: "fractional seconds", input: `0.5`, want: 500 * time.Millisecond},
		{name: "bad string", input: `"soon"`, wantErr: true},
		{name: "bool", input: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.AsDuration())
		})
	}
}

func TestBootstrapScan(t *testing.T) {
	raw := `{
		"server": {"http": {"addr": "0.0.0.0:8000", "timeout": "3s"}},
		"data": {"redis": {"addr": "127.0.0.1:6379", "read_timeout": "200ms"}},
		"recharge": {"lock_expiry": "10s", "reconcile": {"cron": "0 */5 * * * *", "batch_size": 50}}
	}`

	var bc Bootstrap
	require.NoError(t, json.Unmarshal([]byte(raw), &bc))

	assert.Equal(t, "0.0.0.0:8000", bc.Server.Http.Addr)
	assert.Equal(t, 3*time.Second, bc.Server.Http.Timeout.AsDuration())
	assert.Equal(t, 200*time.Millisecond, bc.Data.Redis.ReadTimeout.AsDuration())
	assert.Nil(t, bc.Data.Redis.WriteTimeout)
	assert.Equal(t, time.Duration(0), bc.Data.Redis.WriteTimeout.AsDuration())
	assert.Equal(t, 10*time.Second, bc.Recharge.LockExpiry.AsDuration())
	assert.Equal(t, int32(50), bc.Recharge.Reconcile.BatchSize)
}
