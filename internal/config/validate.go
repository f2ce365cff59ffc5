package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// configValidate is the validator instance for configuration structs.
var configValidate = validator.New()

// Validate checks cfg against its validate tags. All failing fields are
// reported in one error.
func Validate(cfg *Config) error {
	err := configValidate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port, got %q", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s=%s (value %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
}
