package reports

import (
	"errors"
	"fmt"
)

// ErrInvalidFilter is wrapped by every malformed report filter.
var ErrInvalidFilter = errors.New("reports: invalid filter")

func invalidFilter(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidFilter, field, fmt.Sprintf(format, args...))
}
