package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Viper implements Config on top of spf13/viper. Environment variables
// override file values: "app.server.http.port" reads APP_SERVER_HTTP_PORT.
type Viper struct {
	v *viper.Viper
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// NewViper reads the file at path and reloads it whenever it changes.
func NewViper(path string) (*Viper, error) {
	v := newViper()

	base := filepath.Base(path)
	v.AddConfigPath(filepath.Dir(path))
	v.SetConfigName(strings.TrimSuffix(base, filepath.Ext(base)))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		slog.Info("config file changed", "path", e.Name, "op", e.Op.String())
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

// NewViperFromBytes reads an in-memory document of the given type (yaml, json, toml).
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config type is required")
	}

	v := newViper()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

func (c *Viper) GetInt(key string) int       { return c.v.GetInt(key) }
func (c *Viper) GetInt32(key string) int32   { return c.v.GetInt32(key) }
func (c *Viper) GetInt64(key string) int64   { return c.v.GetInt64(key) }
func (c *Viper) GetUint(key string) uint     { return c.v.GetUint(key) }
func (c *Viper) GetUint16(key string) uint16 { return c.v.GetUint16(key) }
func (c *Viper) GetUint32(key string) uint32 { return c.v.GetUint32(key) }
func (c *Viper) GetUint64(key string) uint64 { return c.v.GetUint64(key) }

func (c *Viper) GetFloat32(key string) float32 { return float32(c.v.GetFloat64(key)) }
func (c *Viper) GetFloat64(key string) float64 { return c.v.GetFloat64(key) }

func (c *Viper) GetBool(key string) bool     { return c.v.GetBool(key) }
func (c *Viper) GetString(key string) string { return c.v.GetString(key) }

func (c *Viper) unit(key string, d time.Duration) time.Duration {
	return time.Duration(c.v.GetInt64(key)) * d
}

func (c *Viper) GetSecond(key string) time.Duration { return c.unit(key, time.Second) }
func (c *Viper) GetMinute(key string) time.Duration { return c.unit(key, time.Minute) }
func (c *Viper) GetHour(key string) time.Duration   { return c.unit(key, time.Hour) }
func (c *Viper) GetDay(key string) time.Duration    { return c.unit(key, 24*time.Hour) }

func (c *Viper) GetBinary(key string) []byte {
	data, err := base64.StdEncoding.DecodeString(c.v.GetString(key))
	if err != nil {
		return nil
	}
	return data
}

func (c *Viper) GetArray(key string) []string {
	parts := strings.Split(c.v.GetString(key), ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Viper) GetMap(key string) map[string]string {
	m := make(map[string]string)
	for _, pair := range c.GetArray(key) {
		if k, v, ok := strings.Cut(pair, ":"); ok {
			m[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return m
}

// Close satisfies io.Closer; the file watcher lives for the process.
func (c *Viper) Close() error { return nil }
