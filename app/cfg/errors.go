package cfg

import "fmt"

// ConfigurationError reports an invalid or missing required input. It is
// fatal: callers surface it immediately without retrying.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}
