package config

import (
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// InstrumentsConfig lists the instruments whose status pages this
// service polls and serves. Kept in its own file so the instrument
// fleet can change without touching the service config.
type InstrumentsConfig struct {
	Instruments []InstrumentConfig `yaml:"instruments"`
}

type InstrumentConfig struct {
	// Name is the instrument name used in URLs and in the upstream
	// Instrument= query parameter, e.g. "LARMOR".
	Name string `yaml:"name"`
	// Host of the instrument's status endpoint. NDX hosts are
	// conventionally "NDX"+name but non-NDX hosts exist, so it is
	// always explicit.
	Host string `yaml:"host"`
	Port int    `yaml:"port" env-default:"60000"`
}

func MustLoadInstruments(configPath string) *InstrumentsConfig {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("instruments config file not found: " + configPath)
	}

	var cfg InstrumentsConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("failed to read instruments config: " + err.Error())
	}

	if len(cfg.Instruments) == 0 {
		panic("instruments config is empty: " + configPath)
	}

	for i := range cfg.Instruments {
		if cfg.Instruments[i].Port == 0 {
			cfg.Instruments[i].Port = 60000
		}
		if cfg.Instruments[i].Name == "" || cfg.Instruments[i].Host == "" {
			panic("instrument entries need both name and host: " + configPath)
		}
	}

	return &cfg
}
