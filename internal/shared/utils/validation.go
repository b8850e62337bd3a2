package utils

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sbn-software/samsync/internal/shared/errors"
)

// samParamPattern matches namespaced catalog parameters such as sbn.migrate.
var samParamPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*\.[A-Za-z0-9_.]+$`)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Fields are reported by their config key, not the Go field name.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	_ = validate.RegisterValidation("samparam", func(fl validator.FieldLevel) bool {
		return samParamPattern.MatchString(fl.Field().String())
	})
}

// ValidateStruct validates a config section and returns a validation error
// listing every offending key.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewValidationError("Validation failed", err.Error())
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, fieldErrorMessage(fe))
	}
	return errors.NewValidationError("Validation failed", strings.Join(messages, "; "))
}

// keyPath turns a validator namespace (CatalogConfig.samweb.base_url) into
// the dotted config key below the section (samweb.base_url).
func keyPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldErrorMessage(fe validator.FieldError) string {
	key := keyPath(fe)
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", key)
	case "required_if":
		return fmt.Sprintf("%s is required when %s", key, param)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", key)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", key, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", key, param)
	case "samparam":
		return fmt.Sprintf("%s must be a namespaced parameter like sbn.migrate, got %q", key, fe.Value())
	default:
		return fmt.Sprintf("%s failed validation for '%s'", key, fe.Tag())
	}
}
