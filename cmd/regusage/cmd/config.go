package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"

	"github.com/google/go-containerregistry/pkg/logs"
	"github.com/macvmio/regusage/pkg/appconfig"
	"github.com/spf13/viper"
)

var flagConfigFile string

var TheAppConfig appconfig.Config

// configSource names the config file read by initConfig, empty when none was found.
var configSource string

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return path.Join(home, ".regusage"), nil
}

func initConfig() error {
	viper.SetDefault("workers", 8)
	viper.SetDefault("sort", "name")
	viper.SetDefault("output", "table")
	if flagConfigFile != "" {
		viper.SetConfigFile(flagConfigFile)
	} else {
		dir, err := defaultConfigDir()
		if err != nil {
			return err
		}
		viper.AddConfigPath(dir)
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("REGUSAGE")
	viper.AutomaticEnv()

	configSource = ""
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading viper config '%v': %w", viper.ConfigFileUsed(), err)
		}
	} else {
		configSource = viper.ConfigFileUsed()
	}
	if err := viper.Unmarshal(&TheAppConfig); err != nil {
		return fmt.Errorf("error unmarshalling viper config '%v': %w", viper.ConfigFileUsed(), err)
	}
	return nil
}

func logConfigSource() {
	if configSource == "" {
		logs.Debug.Printf("no config file found, using flags and defaults")
		return
	}
	logs.Debug.Printf("using config file: %s", configSource)
}

// saveConfig writes contexts back to the config file in use, creating
// $HOME/.regusage/config.yaml when there is none yet.
func saveConfig() error {
	viper.Set("contexts", TheAppConfig.Contexts)
	viper.Set("current_context", TheAppConfig.CurrentContext)
	target := viper.ConfigFileUsed()
	if target == "" {
		dir, err := defaultConfigDir()
		if err != nil {
			return err
		}
		target = path.Join(dir, "config.yaml")
	}
	if err := os.MkdirAll(path.Dir(target), 0o700); err != nil {
		return fmt.Errorf("unable to create config directory for '%v': %w", target, err)
	}
	if err := viper.WriteConfigAs(target); err != nil {
		return fmt.Errorf("error writing config '%v': %w", target, err)
	}
	return nil
}
