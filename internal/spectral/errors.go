package spectral

import "fmt"

// InvalidParameterError reports a windowing configuration that cannot be
// applied to the given trace and sampling rate.
type InvalidParameterError struct {
	Param  string
	Value  float64
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s (%g): %s", e.Param, e.Value, e.Reason)
}

func invalid(param string, value float64, format string, args ...any) error {
	return &InvalidParameterError{Param: param, Value: value, Reason: fmt.Sprintf(format, args...)}
}
