package nn

import (
	"errors"
	"fmt"
)

// ErrConfig is the sentinel matched by every *ConfigError.
var ErrConfig = errors.New("invalid configuration")

// ConfigError reports structural misconfiguration detected at
// construction time: task count mismatches, rank < 1, conflicting legacy
// options, duplicate parameter names.
type ConfigError struct {
	Component string // Component being configured (e.g., "multitask mean")
	Field     string // Offending option or parameter name
	Reason    string // Additional details
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Component, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Component, e.Reason)
}

// Is makes errors.Is(err, ErrConfig) succeed for any *ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
