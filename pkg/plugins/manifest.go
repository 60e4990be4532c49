package plugins

import (
	"fmt"
	"regexp"
)

var (
	semverRegex = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)(-[a-zA-Z0-9.-]+)?(\+[a-zA-Z0-9.-]+)?$`)

	// nameRegex restricts names to what protoc accepts in --NAME_out.
	nameRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)
)

// Manifest describes an in-process generator
type Manifest struct {
	Name        string `yaml:"name" json:"name"`               // protoc plugin name, used as --<name>_out
	Version     string `yaml:"version" json:"version"`         // Semver
	Description string `yaml:"description" json:"description"` // Short description
}

// ValidationError represents a manifest validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateManifest performs basic validation on a generator manifest
func ValidateManifest(manifest *Manifest) []ValidationError {
	var errors []ValidationError

	if manifest == nil {
		return []ValidationError{{Field: "manifest", Message: "Manifest is required"}}
	}

	if manifest.Name == "" {
		errors = append(errors, ValidationError{
			Field:   "name",
			Message: "Plugin name is required",
		})
	} else if !nameRegex.MatchString(manifest.Name) {
		errors = append(errors, ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("Invalid plugin name: %s (lowercase letters, digits, '_' and '-')", manifest.Name),
		})
	}

	if manifest.Version == "" {
		errors = append(errors, ValidationError{
			Field:   "version",
			Message: "Version is required",
		})
	} else if !isValidSemver(manifest.Version) {
		errors = append(errors, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("Invalid semver format: %s", manifest.Version),
		})
	}

	return errors
}

// isValidSemver checks if a version string follows semantic versioning
func isValidSemver(version string) bool {
	return semverRegex.MatchString(version)
}
