package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xaenox/deskbot/internal/storage"
	"github.com/xaenox/deskbot/pkg/config"
)

func TestOpenStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	tests := []struct {
		name    string
		cfg     config.Config
		want    any
		wantErr bool
	}{
		{
			name: "memory",
			cfg:  config.Config{Database: config.DatabaseConfig{Driver: config.DriverMemory}},
			want: &storage.MemoryStorage{},
		},
		{
			name: "redis",
			cfg: config.Config{
				Database: config.DatabaseConfig{Driver: config.DriverRedis},
				Redis:    config.RedisConfig{Addr: mr.Addr(), KeyPrefix: "t"},
			},
			want: &storage.RedisStorage{},
		},
		{
			name:    "redis unreachable",
			cfg:     config.Config{Database: config.DatabaseConfig{Driver: config.DriverRedis}, Redis: config.RedisConfig{Addr: "127.0.0.1:1"}},
			wantErr: true,
		},
		{
			name:    "unknown driver",
			cfg:     config.Config{Database: config.DatabaseConfig{Driver: "sqlite"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := OpenStorage(ctx, &tt.cfg, logger)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer store.Close()
			assert.IsType(t, tt.want, store)
		})
	}
}

func TestNewServices(t *testing.T) {
	cfg := &config.Config{Reminders: config.RemindersConfig{Timezone: "Asia/Tokyo", DefaultNotifyBefore: 5}}
	store := storage.NewMemoryStorage()

	svcs, err := NewServices(cfg, store, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", svcs.Location.String())

	r, err := svcs.Reminders.CreateFromText(context.Background(), 1, "remind me to stretch tomorrow at 7am")
	require.NoError(t, err)
	assert.Equal(t, 5, r.NotifyBefore)
	assert.Equal(t, 7, r.DueDate.In(svcs.Location).Hour())
	assert.True(t, r.DueDate.After(time.Now()))

	_, err = NewServices(&config.Config{Reminders: config.RemindersConfig{Timezone: "Nowhere/City"}}, store, zaptest.NewLogger(t))
	assert.Error(t, err)
}
