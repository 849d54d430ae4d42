package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestDecode_Defaults(t *testing.T) {
	req := require.New(t)
	v := viper.New()
	setDefaults(v)

	cfg, err := decode(v)
	req.NoError(err)
	req.Equal(2020, cfg.Port)
	req.Equal(":2020", cfg.Addr())
	req.Equal(54*time.Second, cfg.PingPeriod)
	req.Equal(5*time.Second, cfg.ShutdownTimeout)
	req.Equal(256, cfg.SendBuffer)
	req.False(cfg.CookieSecure)
	req.Equal(7*24*time.Hour, cfg.SessionMaxAge)
	req.Equal(zerolog.InfoLevel, cfg.Level())
}

func TestDecode_FileOverridesDefaults(t *testing.T) {
	req := require.New(t)
	file := filepath.Join(t.TempDir(), "config.test.yaml")
	req.NoError(os.WriteFile(file, []byte("port: 3030\nlog_level: debug\nhost: 127.0.0.1\n"), 0o600))

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(file)
	setDefaults(v)
	req.NoError(v.ReadInConfig())

	cfg, err := decode(v)
	req.NoError(err)
	req.Equal("127.0.0.1:3030", cfg.Addr())
	req.Equal(zerolog.DebugLevel, cfg.Level())
}

func TestDecode_RejectsBadPort(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("port", 0)

	_, err := decode(v)
	require.Error(t, err)
}
