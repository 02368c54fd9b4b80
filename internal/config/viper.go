package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ConfigFilename is the name of the config file (without extension)
const ConfigFilename = "config"

// ConfigType is the config file format
const ConfigType = "yaml"

// InitViper sets up viper: config file search paths, env vars, and defaults.
// Reading the config file is non-fatal if none exists.
func InitViper() error {
	viper.SetConfigName(ConfigFilename)
	viper.SetConfigType(ConfigType)

	// Set config search paths (order matters)
	// User config (highest priority)
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(filepath.Join(userConfigDir, "qtools"))
	}

	// Home directory fallback
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".qtools"))
	}

	// System-wide config (lower priority)
	viper.AddConfigPath("/etc/qtools")

	// Current directory (for development)
	viper.AddConfigPath(".")

	// Environment variables
	viper.SetEnvPrefix("QTOOLS")
	viper.AutomaticEnv()

	// Set defaults (lowest priority)
	setDefaults()

	// Read config file (non-fatal if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; built-in defaults apply
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// setDefaults sets default values for all config keys
func setDefaults() {
	viper.SetDefault("scheduler_bin", "")
	viper.SetDefault("scheduler_type", "")
	viper.SetDefault("submit_job", true)

	// Job parameter defaults
	viper.SetDefault("defaults.walltime", "00:30:00")
	viper.SetDefault("defaults.nodes", 1)
	viper.SetDefault("defaults.ppn", 1)
	viper.SetDefault("defaults.queue", "home")
	viper.SetDefault("defaults.account", "yeo-group")
}

// LoadFromViper copies viper values into the Global config
func LoadFromViper() {
	Global.SchedulerBin = viper.GetString("scheduler_bin")
	Global.SchedulerType = viper.GetString("scheduler_type")
	Global.SubmitJob = viper.GetBool("submit_job")

	Global.Walltime = viper.GetString("defaults.walltime")
	Global.Nodes = viper.GetInt("defaults.nodes")
	Global.Ppn = viper.GetInt("defaults.ppn")
	Global.Queue = viper.GetString("defaults.queue")
	Global.Account = viper.GetString("defaults.account")
}

// GetUserConfigPath returns the path where a user config file would be written
func GetUserConfigPath() (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userConfigDir, "qtools", ConfigFilename+"."+ConfigType), nil
}
