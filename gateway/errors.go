package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/go-seller-client/internal/errors"
)

// Kind is the category a failed request is classified into.
type Kind string

const (
	KindUnauthorized       Kind = "unauthorized"        // 401, the session is torn down
	KindForbidden          Kind = "forbidden"           // 403, e.g. seller awaiting approval
	KindNetworkUnreachable Kind = "network_unreachable" // no response received
	KindServerRejected     Kind = "server_rejected"     // any other non-2xx
)

const (
	NetworkMessage  = "Network issue. Please check your connection."
	FallbackMessage = "Request failed"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNetworkUnreachable = errors.New("network unreachable")
	ErrServerRejected     = errors.New("server rejected request")

	ErrResponseTooLarge = errors.New("response body too large")
)

var kindSentinels = map[Kind]error{
	KindUnauthorized:       ErrUnauthorized,
	KindForbidden:          ErrForbidden,
	KindNetworkUnreachable: ErrNetworkUnreachable,
	KindServerRejected:     ErrServerRejected,
}

// ClassifiedError is the only error type Do returns for a dispatched request.
// Message is safe to show to the user as-is.
type ClassifiedError struct {
	Kind    Kind
	Status  int // 0 when no response was received
	Message string
	Method  string
	Path    string
	Err     error // transport error, nil when the server answered
}

func (e *ClassifiedError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind, so callers can write
// errors.Is(err, gateway.ErrUnauthorized).
func (e *ClassifiedError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// AsClassified returns the ClassifiedError in err's chain, if any.
func AsClassified(err error) (*ClassifiedError, bool) {
	var cerr *ClassifiedError
	if apperrors.As(err, &cerr) {
		return cerr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or "" when err was not classified.
func KindOf(err error) Kind {
	if cerr, ok := AsClassified(err); ok {
		return cerr.Kind
	}
	return ""
}

func networkError(method, path string, err error) *ClassifiedError {
	return &ClassifiedError{
		Kind:    KindNetworkUnreachable,
		Message: NetworkMessage,
		Method:  method,
		Path:    path,
		Err:     err,
	}
}

func classifyResponse(method, path string, status int, body []byte) *ClassifiedError {
	kind := KindServerRejected
	switch status {
	case http.StatusUnauthorized:
		kind = KindUnauthorized
	case http.StatusForbidden:
		kind = KindForbidden
	}
	return &ClassifiedError{
		Kind:    kind,
		Status:  status,
		Message: responseMessage(body),
		Method:  method,
		Path:    path,
	}
}

// responseMessage picks the first of the "message" and "error" fields that is
// a non-empty string.
func responseMessage(body []byte) string {
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return FallbackMessage
	}
	for _, key := range []string{"message", "error"} {
		if s, ok := fields[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return FallbackMessage
}
