// conf/validate.go

package conf

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	// Validate Tinybeans client settings
	if err := validateTinybeansSettings(&settings.Tinybeans); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// Validate Upload settings
	if err := validateUploadSettings(&settings.Upload); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// Validate Export settings
	if err := validateExportSettings(&settings.Export); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// If there are any errors, return the ValidationError
	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// validateTinybeansSettings validates the API client settings
func validateTinybeansSettings(settings *TinybeansSettings) error {
	var errs []string

	// Check the API base is a well-formed absolute URL
	if settings.APIBase == "" {
		errs = append(errs, "Tinybeans API base must not be empty")
	} else {
		parsed, err := url.Parse(settings.APIBase)
		if err != nil || !parsed.IsAbs() {
			errs = append(errs, fmt.Sprintf("Tinybeans API base is not a valid absolute URL: %s", settings.APIBase))
		}
		// Path resolution against the base requires the trailing slash
		if !strings.HasSuffix(settings.APIBase, "/") {
			settings.APIBase += "/"
		}
	}

	// Check if fetch size is positive
	if settings.FetchSize <= 0 {
		errs = append(errs, "Tinybeans fetch size must be greater than 0")
	}

	// Check if timeout is non-negative
	if settings.Timeout < 0 {
		errs = append(errs, "Tinybeans timeout must be non-negative")
	}

	// If there are any errors, return them as a single error
	if len(errs) > 0 {
		return fmt.Errorf("Tinybeans settings errors: %v", errs)
	}

	return nil
}

// validateUploadSettings validates the media upload settings
func validateUploadSettings(settings *UploadSettings) error {
	if settings.Bucket == "" {
		return errors.New("Upload bucket must not be empty")
	}

	if settings.CognitoRegion == "" {
		return errors.New("Upload Cognito region must not be empty")
	}

	if settings.S3Region == "" {
		return errors.New("Upload S3 region must not be empty")
	}

	// Part size below 5 MB is rejected by multipart uploads
	if settings.PartSizeMB < 5 {
		return fmt.Errorf("Upload part size must be at least 5 MB, got %d", settings.PartSizeMB)
	}

	return nil
}

// validateExportSettings validates the archive exporter settings
func validateExportSettings(settings *ExportSettings) error {
	if settings.Path == "" {
		return errors.New("Export path must not be empty")
	}

	if settings.Database == "" {
		return errors.New("Export database file name must not be empty")
	}

	return nil
}
