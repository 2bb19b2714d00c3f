package agents

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrMalformedResponse   = errors.New("malformed response")
	ErrUnknownSelection    = errors.New("unknown selection")
	ErrInvalidConstruction = errors.New("invalid construction")
	ErrInvalidNode         = errors.New("invalid node")
	ErrTreeSealed          = errors.New("tree is sealed")
	ErrMaxIterations       = errors.New("maximum number of iterations reached")
)

// MalformedResponseError is returned when the completion content is not a
// JSON object or misses required fields.
type MalformedResponseError struct {
	Content string
	Reason  string
	Cause   error
}

func (e *MalformedResponseError) Error() string {
	msg := "malformed response: " + e.Reason
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *MalformedResponseError) Unwrap() error {
	return ErrMalformedResponse
}

// UnknownSelectionError is returned when the selected key matches none of the candidates.
type UnknownSelectionError struct {
	Key        string
	Candidates []string
}

func (e *UnknownSelectionError) Error() string {
	return fmt.Sprintf("unknown selection %q, expected one of [%s]", e.Key, strings.Join(e.Candidates, ", "))
}

func (e *UnknownSelectionError) Unwrap() error {
	return ErrUnknownSelection
}

type InvalidConstructionError struct {
	Key    string
	Reason string
}

func (e *InvalidConstructionError) Error() string {
	if e.Key == "" {
		return "invalid construction: " + e.Reason
	}
	return fmt.Sprintf("invalid construction of %q: %s", e.Key, e.Reason)
}

func (e *InvalidConstructionError) Unwrap() error {
	return ErrInvalidConstruction
}

// IsDecisionError reports whether err is a failure of the decision protocol
// itself, as opposed to a failure of the completion call.
func IsDecisionError(err error) bool {
	return errors.Is(err, ErrMalformedResponse) || errors.Is(err, ErrUnknownSelection)
}
