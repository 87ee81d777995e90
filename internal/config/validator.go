package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers rbacguard-specific validation rules.
// Must be called before validating Config.
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("csv_path", validateCSVPath); err != nil {
		return fmt.Errorf("failed to register csv_path validator: %w", err)
	}
	return nil
}

// validateCSVPath validates that a non-empty policy file path ends in
// ".csv", matching what fileadapter.Adapter actually reads and writes.
func validateCSVPath(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	if path == "" {
		return true
	}
	return strings.HasSuffix(path, ".csv")
}

// Validate validates the Config using struct tags and cross-field rules.
// Returns an error describing every violated field.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := RegisterCustomValidators(v); err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	if err := c.validatePolicySource(); err != nil {
		return err
	}
	if err := c.validateModelSource(); err != nil {
		return err
	}

	return nil
}

// validatePolicySource ensures file_path is set when the file adapter is
// selected.
func (c *Config) validatePolicySource() error {
	if c.Policy.Source == "file" && c.Policy.FilePath == "" {
		return errors.New("policy: file_path is required when source is \"file\"")
	}
	return nil
}

// validateModelSource ensures at least one of model.path / model.inline is
// set. Both may be set; Inline then takes precedence.
func (c *Config) validateModelSource() error {
	if c.Model.Path == "" && c.Model.Inline == "" {
		return errors.New("model: one of path or inline is required")
	}
	return nil
}

// formatValidationErrors converts validator.ValidationErrors to
// user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

// formatSingleValidationError creates a user-friendly message for a single
// validation error.
func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, tag)
	}
}
