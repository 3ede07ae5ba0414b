package config

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance used across the module.
var validate *validator.Validate

// checkpointPattern accepts hub ids ("org/name") and local tags ("name:tag").
var checkpointPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*(/[A-Za-z0-9._-]+)?(:[A-Za-z0-9._-]+)?$`)

func init() {
	validate = validator.New()

	if err := validate.RegisterValidation("checkpoint", validateCheckpoint); err != nil {
		panic(fmt.Sprintf("failed to register checkpoint validator: %v", err))
	}
}

func validateCheckpoint(fl validator.FieldLevel) bool {
	return checkpointPattern.MatchString(fl.Field().String())
}

// Validate checks s against its `validate` struct tags.
func Validate(s any) error {
	return validate.Struct(s)
}

// Validate reports the first set of invalid fields in the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
