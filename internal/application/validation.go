package application

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"owlsync/internal/domain"
)

var validate = validator.New()

// ValidateStruct runs tag validation and converts the first failure into
// a ConfigurationError
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return &ConfigurationError{Field: "config", Message: err.Error()}
	}

	fe := validationErrors[0]
	msg := fmt.Sprintf("failed validation: %s", fe.Tag())
	if fe.Param() != "" {
		msg = fmt.Sprintf("failed validation: %s=%s", fe.Tag(), fe.Param())
	}
	return &ConfigurationError{
		Field:   formatFieldName(fe.Namespace()),
		Message: msg,
	}
}

// ValidateScanConfig checks that a scan can run: a known platform, at least
// one enabled format, an existing scope directory when set, and at least one
// directory for every enabled format otherwise.
func ValidateScanConfig(cfg domain.ScanConfig) error {
	if err := ValidateStruct(cfg); err != nil {
		return err
	}

	if len(cfg.EnabledFormats()) == 0 {
		return &ConfigurationError{
			Field:   "formats",
			Message: ErrNoFormatsEnabled.Error(),
		}
	}

	if cfg.DirectoryScope != "" {
		if strings.TrimSpace(cfg.DirectoryScope) == "" {
			return &ConfigurationError{Field: "directoryScope", Message: "directory scope is blank"}
		}
		info, err := os.Stat(cfg.DirectoryScope)
		if err != nil {
			return &ConfigurationError{
				Field:   "directoryScope",
				Message: fmt.Sprintf("cannot access %s: %v", cfg.DirectoryScope, err),
			}
		}
		if !info.IsDir() {
			return &ConfigurationError{
				Field:   "directoryScope",
				Message: fmt.Sprintf("%s is not a directory", cfg.DirectoryScope),
			}
		}
		return nil
	}

	for _, f := range cfg.EnabledFormats() {
		if len(cfg.Formats[f].Directories()) == 0 {
			return &ConfigurationError{
				Field:   f.String() + ".directory",
				Message: fmt.Sprintf("%s is enabled but has no directory", f.DisplayName()),
			}
		}
	}

	return nil
}

// formatFieldName turns a validator namespace ("ScanConfig.Platform") into
// a readable field name ("platform")
func formatFieldName(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}
	if namespace == "" {
		return "config"
	}
	return strings.ToLower(namespace[:1]) + namespace[1:]
}
