package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Manifest declares the hosting requirements of the deployed functions.
type Manifest struct {
	App      string       `mapstructure:"app" yaml:"app" validate:"required"`
	Image    ImageSpec    `mapstructure:"image" yaml:"image"`
	Generate FunctionSpec `mapstructure:"generate_response" yaml:"generate_response"`
	Health   FunctionSpec `mapstructure:"health_check" yaml:"health_check"`
}

type ImageSpec struct {
	Base     string   `mapstructure:"base" yaml:"base" validate:"required"`
	Packages []string `mapstructure:"packages" yaml:"packages"`
}

type FunctionSpec struct {
	GPU     string        `mapstructure:"gpu" yaml:"gpu,omitempty"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	MinWarm int           `mapstructure:"min_warm" yaml:"min_warm" validate:"gte=0"`
}

func setManifestDefaults(v *viper.Viper) {
	v.SetDefault("app", "georgian-chatbot")
	v.SetDefault("image.base", "debian-slim")
	v.SetDefault("image.packages", []string{"transformers", "torch", "accelerate", "sentencepiece", "protobuf", "requests"})
	v.SetDefault("generate_response.gpu", "A10G")
	v.SetDefault("generate_response.timeout", "300s")
	v.SetDefault("generate_response.min_warm", 1)
	v.SetDefault("health_check.timeout", "60s")
	v.SetDefault("health_check.min_warm", 1)
}

// DefaultManifest returns the built-in manifest. Files and environment
// variables are ignored.
func DefaultManifest() *Manifest {
	v := viper.New()
	setManifestDefaults(v)
	m, err := decodeManifest(v)
	if err != nil {
		panic(fmt.Sprintf("default manifest: %v", err))
	}
	return m
}

func newManifestViper() *viper.Viper {
	v := viper.New()
	setManifestDefaults(v)
	v.SetEnvPrefix("GEORGIANCHAT_DEPLOY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadManifest reads the manifest at path, layered over defaults and
// GEORGIANCHAT_DEPLOY_* environment variables. A missing file is not an error.
func LoadManifest(path string) (*Manifest, error) {
	v := newManifestViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("reading manifest: %w", err)
			}
		}
	}
	return decodeManifest(v)
}

func decodeManifest(v *viper.Viper) (*Manifest, error) {
	var m Manifest
	if err := v.Unmarshal(&m); err != nil {
		return nil, fmt.Errorf("unmarshalling manifest: %w", err)
	}
	if err := validate.Struct(&m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}
