package app

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the application specific configuration found under the "app" key.
// It is passed to App.Init and decoded by the application.
type Config map[string]interface{}

// BaseConfig contains the process level configuration shared by every
// long lived command.
type BaseConfig struct {
	LogLevel string `mapstructure:"log_level"`

	AppName string `mapstructure:"app_name"`

	DebugListenAddress string `mapstructure:"debug_listen_address"`

	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`

	EnablePprof  bool `mapstructure:"enable_pprof"`
	EnableExpvar bool `mapstructure:"enable_expvar"`

	// Ballast for improving Go GC performance. Capacity is limited to 50% of
	// the total memory.
	EnableBallast   bool    `mapstructure:"enable_ballast"`
	BallastCapacity float32 `mapstructure:"ballast_capacity"`

	// Periodically terminate the process so a supervisor restarts it
	EnableRestartCron   bool   `mapstructure:"enable_restart_cron"`
	RestartCronSchedule string `mapstructure:"restart_cron_schedule"`

	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`

	AppConfig Config `mapstructure:"app"`
}

var defaultConfig = BaseConfig{
	LogLevel: "info",

	AppName: "exchange-booth",

	DebugListenAddress: "localhost:8123",

	ShutdownGracePeriod: 30 * time.Second,

	EnablePprof:  false,
	EnableExpvar: false,

	EnableBallast:   false,
	BallastCapacity: 0.333,

	EnableRestartCron:   false,
	RestartCronSchedule: "0 5 * * *",
}

// DefaultConfig returns a copy of the defaults applied before viper values.
func DefaultConfig() BaseConfig {
	return defaultConfig
}

func init() {
	_ = viper.BindEnv("log_level", "LOG_LEVEL")

	_ = viper.BindEnv("app_name", "APP_NAME")

	_ = viper.BindEnv("debug_listen_address", "DEBUG_LISTEN_ADDRESS")

	_ = viper.BindEnv("shutdown_grace_period", "SHUTDOWN_GRACE_PERIOD")

	_ = viper.BindEnv("enable_pprof", "ENABLE_PPROF")
	_ = viper.BindEnv("enable_expvar", "ENABLE_EXPVAR")

	_ = viper.BindEnv("enable_ballast", "ENABLE_BALLAST")
	_ = viper.BindEnv("ballast_capacity", "BALLAST_CAPACITY")

	_ = viper.BindEnv("enable_restart_cron", "ENABLE_RESTART_CRON")
	_ = viper.BindEnv("restart_cron_schedule", "RESTART_CRON_SCHEDULE")

	_ = viper.BindEnv("new_relic_license_key", "NEW_RELIC_LICENSE_KEY")
}
