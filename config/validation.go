package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gaborage/logbricks/logger"
)

var levelNames = []string{"VERBOSE", "DEBUG", "INFO", "WARNING", "ERROR", "ASSERT"}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// registration only fails for an empty tag or nil func
	_ = v.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		_, err := logger.ParseLevel(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks s and returns one *ConfigError per violated rule, joined.
func Validate(s *Settings, envPrefix string) error {
	err := newValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	errs := make([]error, 0, len(validationErrors))
	for _, fe := range validationErrors {
		errs = append(errs, fieldError(fe, envPrefix))
	}
	return errors.Join(errs...)
}

func fieldError(fe validator.FieldError, envPrefix string) *ConfigError {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	switch fe.Tag() {
	case "required", "required_if":
		env := envPrefix + strings.ToUpper(strings.ReplaceAll(field, ".", "_"))
		return NewMissingFieldError(field, env)
	case "oneof":
		return NewInvalidFieldError(field, fmt.Sprintf("invalid value %q", fe.Value()), strings.Fields(fe.Param()))
	case "loglevel":
		return NewInvalidFieldError(field, fmt.Sprintf("invalid log level %q", fe.Value()), levelNames)
	case "gt", "gte", "lte":
		return NewInvalidFieldError(field, fmt.Sprintf("must be %s %s, got %v", comparison(fe.Tag()), fe.Param(), fe.Value()), nil)
	case "startswith":
		return NewInvalidFieldError(field, fmt.Sprintf("must start with %q", fe.Param()), nil)
	default:
		return NewInvalidFieldError(field, fmt.Sprintf("failed %s validation", fe.Tag()), nil)
	}
}

func comparison(tag string) string {
	switch tag {
	case "gt":
		return "greater than"
	case "gte":
		return "at least"
	default:
		return "at most"
	}
}
