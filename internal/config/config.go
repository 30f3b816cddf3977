package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string         `yaml:"env" env-default:"prod"`
	Instruments InstrumentsRef `yaml:"instruments"`
	Web         WebConfig      `yaml:"web"`
	Poll        PollConfig     `yaml:"poll"`
	Archive     ArchiveConfig  `yaml:"archive"`
	Log         LogConfig      `yaml:"log"`
}

type InstrumentsRef struct {
	ConfigPath string `yaml:"config_path" env-required:"true"`
}

type WebConfig struct {
	Address      string        `yaml:"address" env-default:":60000"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env-default:"5s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"10s"`
}

type PollConfig struct {
	// Interval between successful polls; FailedInterval is used after a
	// poll fails, so an unreachable instrument is probed less often.
	Interval           time.Duration `yaml:"interval" env-default:"3s"`
	FailedInterval     time.Duration `yaml:"failed_interval" env-default:"60s"`
	Timeout            time.Duration `yaml:"timeout" env-default:"10s"`
	RetriesBetweenLogs int           `yaml:"retries_between_logs" env-default:"60"`
}

type ArchiveConfig struct {
	Enabled bool          `yaml:"enabled" env-default:"true"`
	Path    string        `yaml:"path" env-default:"/var/lib/dataweb/archive.db"`
	MaxAge  time.Duration `yaml:"max_age" env-default:"24h"`
}

type LogConfig struct {
	Level  string `yaml:"level" env-default:"info"`
	Format string `yaml:"format" env-default:"json"`
}

func MustLoad(configPath string) *Config {
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}

	if configPath == "" {
		configPath = "config/config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file not found: " + configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("failed to read config: " + err.Error())
	}

	return &cfg
}
