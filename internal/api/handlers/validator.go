package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/speaax/delve-companion/internal/droprates"
)

// Validator wraps the validator instance
type Validator struct {
	validate *validator.Validate
}

var (
	validate     *Validator
	validateOnce sync.Once
)

// gameModePattern matches world type keys such as STANDARD or
// FRESH_START_WORLD_MEMBERS.
var gameModePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

// GetValidator returns the shared validator instance.
func GetValidator() *Validator {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("floor", validateFloor)
		_ = v.RegisterValidation("gamemode", validateGameMode)
		validate = &Validator{validate: v}
	})
	return validate
}

// ValidateStruct validates a struct using tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// FormatValidationError formats validation errors into a map of field to
// message, keeping struct names out of responses.
func FormatValidationError(err error) map[string]string {
	if err == nil {
		return nil
	}

	errs := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errs["error"] = "Invalid request format"
		return errs
	}

	for _, e := range validationErrors {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			errs[field] = "This field is required"
		case "floor":
			errs[field] = "Must be 1-8 or 8+"
		case "gamemode":
			errs[field] = "Must be letters, digits and underscores"
		case "min":
			errs[field] = fmt.Sprintf("Must be at least %s", e.Param())
		case "max":
			errs[field] = fmt.Sprintf("Must be at most %s", e.Param())
		case "gt":
			errs[field] = fmt.Sprintf("Must be greater than %s", e.Param())
		default:
			errs[field] = "Invalid value"
		}
	}

	return errs
}

func validateFloor(fl validator.FieldLevel) bool {
	_, err := droprates.ParseFloor(fl.Field().String())
	return err == nil
}

// Empty modes are allowed; the tracker defaults them.
func validateGameMode(fl validator.FieldLevel) bool {
	mode := fl.Field().String()
	return mode == "" || gameModePattern.MatchString(mode)
}
