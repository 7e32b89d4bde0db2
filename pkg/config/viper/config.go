package viper

import (
	"context"
	"time"

	"github.com/spf13/viper"

	"github.com/code-payments/code-custody/pkg/config"
	"github.com/code-payments/code-custody/pkg/config/wrapper"
)

type conf struct {
	v   *viper.Viper
	key string
}

// NewConfig returns a config that reads key from v on every Get, so values
// reloaded by viper are picked up without rebuilding the config.
func NewConfig(v *viper.Viper, key string) config.Config {
	return &conf{
		v:   v,
		key: key,
	}
}

// Get implements Config.Get
func (c *conf) Get(ctx context.Context) (interface{}, error) {
	if !c.v.IsSet(c.key) {
		return nil, config.ErrNoValue
	}

	val := c.v.GetString(c.key)
	if len(val) == 0 {
		return nil, config.ErrNoValue
	}

	return []byte(val), nil
}

// Shutdown implements Config.Shutdown
func (c *conf) Shutdown() {
}

// NewUint64Config creates a viper-based uint64 config
func NewUint64Config(v *viper.Viper, key string, defaultValue uint64) config.Uint64 {
	return wrapper.NewUint64Config(NewConfig(v, key), defaultValue)
}

// NewStringConfig creates a viper-based string config
func NewStringConfig(v *viper.Viper, key string, defaultValue string) config.String {
	return wrapper.NewStringConfig(NewConfig(v, key), defaultValue)
}

// NewBoolConfig creates a viper-based bool config
func NewBoolConfig(v *viper.Viper, key string, defaultValue bool) config.Bool {
	return wrapper.NewBoolConfig(NewConfig(v, key), defaultValue)
}

// NewDurationConfig creates a viper-based duration config
func NewDurationConfig(v *viper.Viper, key string, defaultValue time.Duration) config.Duration {
	return wrapper.NewDurationConfig(NewConfig(v, key), defaultValue)
}
