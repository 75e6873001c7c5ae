package processing

import "fmt"

// MissingInputError is returned when a record needed to compute a
// spectrogram does not exist
type MissingInputError struct {
	Input string
	Key   string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing %s for %s", e.Input, e.Key)
}
