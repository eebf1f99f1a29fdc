// Package configloader builds rotating sink configurations from YAML documents, files
// and environment variables, and pushes threshold changes of a watched file into a live sink.
package configloader

import (
	"bytes"
	"strings"

	"github.com/hyp3rd/ewrap"
	"github.com/spf13/viper"

	"github.com/hyp3rd/hyperrotate"
)

// DefaultEnvPrefix prefixes the environment overrides read by FromFile.
const DefaultEnvPrefix = "HYPERROTATE"

// FromEnv loads configuration sourced from environment variables using the provided prefix.
// Environment keys are normalized by uppercasing and replacing dots with underscores, so
// queue.buffer_size is read from PREFIX_QUEUE_BUFFER_SIZE.
func FromEnv(prefix string) (*hyperrotate.Config, error) {
	viperInstance := viper.New()

	err := bindEnvironment(viperInstance, normalizePrefix(prefix))
	if err != nil {
		return nil, err
	}

	return fromViper(viperInstance)
}

// FromYAML loads configuration from a YAML document provided as bytes.
func FromYAML(data []byte) (*hyperrotate.Config, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigType("yaml")

	err := viperInstance.ReadConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ewrap.Wrap(err, "failed to read YAML configuration")
	}

	return fromViper(viperInstance)
}

// FromFile loads configuration from a file and merges environment overrides using
// DefaultEnvPrefix.
func FromFile(path string) (*hyperrotate.Config, error) {
	viperInstance := viper.New()

	err := bindEnvironment(viperInstance, DefaultEnvPrefix)
	if err != nil {
		return nil, err
	}

	viperInstance.SetConfigFile(path)

	err = viperInstance.ReadInConfig()
	if err != nil {
		return nil, ewrap.Wrap(err, "failed to read configuration file").
			WithMetadata("path", path)
	}

	return fromViper(viperInstance)
}

func fromViper(viperInstance *viper.Viper) (*hyperrotate.Config, error) {
	// Promote bound environment values so Unmarshal sees them as nested keys.
	for _, key := range allKeys() {
		if viperInstance.IsSet(key) {
			viperInstance.Set(key, viperInstance.Get(key))
		}
	}

	var raw rawConfig

	err := viperInstance.Unmarshal(&raw)
	if err != nil {
		return nil, ewrap.Wrap(err, "failed to decode configuration")
	}

	return applyRaw(raw)
}

func bindEnvironment(viperInstance *viper.Viper, prefix string) error {
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.SetEnvPrefix(prefix)
	viperInstance.AutomaticEnv()

	errorGroup := ewrap.NewErrorGroup()

	for _, key := range allKeys() {
		err := viperInstance.BindEnv(key)
		if err != nil {
			errorGroup.Add(ewrap.Wrap(err, "failed to bind environment key").
				WithMetadata("key", key).
				WithMetadata("prefix", prefix))
		}
	}

	if errorGroup.HasErrors() {
		return errorGroup
	}

	return nil
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return DefaultEnvPrefix
	}

	prefix = strings.TrimSuffix(prefix, "_")
	prefix = strings.ReplaceAll(prefix, "-", "_")

	return strings.ToUpper(prefix)
}
