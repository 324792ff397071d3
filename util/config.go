package util

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const Name = "chirp"
const ConfigFileName = "config.yaml"

// ErrMissingConfig is returned when the store connection parameters are absent.
var ErrMissingConfig = errors.New("missing required configuration")

//go:embed config_default.yaml
var embeddedConfig []byte

type AppConfig struct {
	Conf struct {
		Database struct {
			Driver string
			Dsn    string
		}
		Host          string
		SshPort       int    `yaml:"sshPort"`
		HttpPort      int    `yaml:"httpPort"`
		WithWeb       bool   `yaml:"withWeb"`
		LogFile       string `yaml:"logFile"`
		RepairFollows bool   `yaml:"repairFollows"`
	}
}

func ReadConf() (*AppConfig, error) {

	c := &AppConfig{}

	// .env is optional, a missing file is not an error
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("could not load .env", "err", err)
	}

	configPath := ResolveFilePath(ConfigFileName)

	buf, err := os.ReadFile(configPath)
	if err != nil {
		log.Info("config file not found, using embedded defaults", "path", configPath)
		buf = embeddedConfig

		configDir, dirErr := GetConfigDir()
		if dirErr == nil {
			userConfigPath := filepath.Join(configDir, ConfigFileName)
			if writeErr := os.WriteFile(userConfigPath, embeddedConfig, 0644); writeErr != nil {
				log.Warn("could not write default config", "path", userConfigPath, "err", writeErr)
			} else {
				log.Info("created default config file", "path", userConfigPath)
			}
		}
	}

	if err = yaml.Unmarshal(buf, c); err != nil {
		return nil, fmt.Errorf("in config file: %w", err)
	}

	applyEnv(c)

	return c, nil
}

func applyEnv(c *AppConfig) {
	if v := os.Getenv("CHIRP_DB_DRIVER"); v != "" {
		c.Conf.Database.Driver = v
	}

	if v := os.Getenv("CHIRP_DB_DSN"); v != "" {
		c.Conf.Database.Dsn = v
	}

	if v := os.Getenv("CHIRP_HOST"); v != "" {
		c.Conf.Host = v
	}

	if v := os.Getenv("CHIRP_SSHPORT"); v != "" {
		if port, err := strconv.Atoi(v); err != nil {
			log.Warn("ignoring CHIRP_SSHPORT", "value", v, "err", err)
		} else {
			c.Conf.SshPort = port
		}
	}

	if v := os.Getenv("CHIRP_HTTPPORT"); v != "" {
		if port, err := strconv.Atoi(v); err != nil {
			log.Warn("ignoring CHIRP_HTTPPORT", "value", v, "err", err)
		} else {
			c.Conf.HttpPort = port
		}
	}

	if v := os.Getenv("CHIRP_WITH_WEB"); v == "true" {
		c.Conf.WithWeb = true
	}

	if v := os.Getenv("CHIRP_LOG_FILE"); v != "" {
		c.Conf.LogFile = v
	}

	if v := os.Getenv("CHIRP_REPAIR_FOLLOWS"); v != "" {
		c.Conf.RepairFollows = v == "true"
	}
}

// Validate checks the parameters needed to reach the store.
func (c *AppConfig) Validate() error {
	switch c.Conf.Database.Driver {
	case "":
		return fmt.Errorf("%w: database.driver", ErrMissingConfig)
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: unknown database.driver %q", ErrMissingConfig, c.Conf.Database.Driver)
	}
	if c.Conf.Database.Dsn == "" {
		return fmt.Errorf("%w: database.dsn", ErrMissingConfig)
	}
	return nil
}
