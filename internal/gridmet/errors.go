package gridmet

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedVariable  = errors.New("unsupported variable")
	ErrUnsupportedTimeUnit  = errors.New("unsupported time unit")
	ErrUnsupportedStatistic = errors.New("unsupported statistic")
	ErrInvalidStartDate     = errors.New("invalid start date")
	ErrInvalidWindowLength  = errors.New("invalid window length")
)

// Kind tags the validation check a request failed.
type Kind string

const (
	KindUnsupportedVariable  Kind = "unsupported_variable"
	KindUnsupportedTimeUnit  Kind = "unsupported_time_unit"
	KindUnsupportedStatistic Kind = "unsupported_statistic"
	KindInvalidStartDate     Kind = "invalid_start_date"
	KindInvalidWindowLength  Kind = "invalid_window_length"
)

// ValidationError reports a rejected request. Options holds the accepted
// values for Field when the field is drawn from a fixed catalog.
type ValidationError struct {
	Kind    Kind     `json:"kind"`
	Field   string   `json:"field"`
	Value   string   `json:"value"`
	Options []string `json:"options,omitempty"`
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindUnsupportedVariable:
		return "Valid variable options are " + strings.Join(e.Options, ", ")
	case KindUnsupportedTimeUnit:
		return "Valid time_unit options are " + strings.Join(e.Options, ", ")
	case KindUnsupportedStatistic:
		return "Valid summary statistic options are mean and sum."
	case KindInvalidWindowLength:
		return fmt.Sprintf("window length must be non-negative and within range, got %s", e.Value)
	default:
		return fmt.Sprintf("%s: %s is not a calendar date", e.Field, e.Value)
	}
}

// Unwrap maps the kind to its sentinel so callers can use errors.Is.
func (e *ValidationError) Unwrap() error {
	switch e.Kind {
	case KindUnsupportedVariable:
		return ErrUnsupportedVariable
	case KindUnsupportedTimeUnit:
		return ErrUnsupportedTimeUnit
	case KindUnsupportedStatistic:
		return ErrUnsupportedStatistic
	case KindInvalidWindowLength:
		return ErrInvalidWindowLength
	default:
		return ErrInvalidStartDate
	}
}
