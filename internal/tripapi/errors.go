package tripapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Fixed user-facing messages for failures that carry no server payload.
const (
	MsgSessionExpired = "Session expired. Please login again."
	MsgNetwork        = "Network error. Please check your connection."
	MsgRequest        = "Request error. Please try again."
)

// Kind classifies how a call failed.
type Kind int

const (
	// KindServer means the backend answered with a non-2xx status.
	KindServer Kind = iota
	// KindSessionExpired means the backend answered 401.
	KindSessionExpired
	// KindNetwork means no response was received.
	KindNetwork
	// KindRequest means the request could not be built or sent.
	KindRequest
)

func (k Kind) String() string {
	switch k {
	case KindSessionExpired:
		return "session_expired"
	case KindNetwork:
		return "network"
	case KindRequest:
		return "request"
	default:
		return "server"
	}
}

// Sentinels usable with errors.Is.
var (
	ErrSessionExpired = errors.New(MsgSessionExpired)
	ErrNetwork        = errors.New(MsgNetwork)
	ErrRequest        = errors.New(MsgRequest)
)

// Error is the only error type returned by Client methods.
type Error struct {
	Kind   Kind
	Status int
	// Detail is the human readable message.
	Detail string
	// Body is the server's error payload, byte for byte. Empty unless Kind is KindServer.
	Body []byte
	// cause is the underlying transport or encoding error, if any.
	cause error
}

func (e *Error) Error() string {
	return e.Detail
}

// Unwrap exposes the sentinel for the kind and the underlying cause.
func (e *Error) Unwrap() []error {
	var errs []error
	switch e.Kind {
	case KindSessionExpired:
		errs = append(errs, ErrSessionExpired)
	case KindNetwork:
		errs = append(errs, ErrNetwork)
	case KindRequest:
		errs = append(errs, ErrRequest)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

// Payload decodes the server body into a generic value. For errors without a
// server body it returns the normalized {"detail": ...} shape.
func (e *Error) Payload() any {
	if e.Kind == KindServer && len(e.Body) > 0 {
		var v any
		if err := json.Unmarshal(e.Body, &v); err == nil {
			return v
		}
		return string(e.Body)
	}
	return map[string]any{"detail": e.Detail}
}

// JSON renders the error the way callers see it: the server body verbatim, or
// the normalized {"detail": ...} object.
func (e *Error) JSON() []byte {
	if e.Kind == KindServer && len(e.Body) > 0 {
		return e.Body
	}
	b, _ := json.Marshal(map[string]string{"detail": e.Detail})
	return b
}

// NotFound reports a 404 from the backend.
func (e *Error) NotFound() bool {
	return e.Kind == KindServer && e.Status == http.StatusNotFound
}

func sessionExpired() *Error {
	return &Error{Kind: KindSessionExpired, Status: http.StatusUnauthorized, Detail: MsgSessionExpired}
}

func networkError(cause error) *Error {
	return &Error{Kind: KindNetwork, Detail: MsgNetwork, cause: cause}
}

func requestError(cause error) *Error {
	return &Error{Kind: KindRequest, Detail: MsgRequest, cause: cause}
}

// ServerError builds a KindServer error from a status and raw body. Adapters
// that are not HTTP based use it to speak the same contract.
func ServerError(status int, body []byte) *Error {
	return &Error{
		Kind:   KindServer,
		Status: status,
		Detail: detailFromBody(status, body),
		Body:   body,
	}
}

// DetailError builds a KindServer error with a {"detail": msg} body.
func DetailError(status int, msg string) *Error {
	body, _ := json.Marshal(map[string]string{"detail": msg})
	return ServerError(status, body)
}

// SessionExpired returns the 401 error.
func SessionExpired() *Error {
	return sessionExpired()
}

// detailFromBody extracts a message from a backend error body: "detail"
// first, then field errors ("email: User with this email does not exist."),
// then non_field_errors, then the status text.
func detailFromBody(status int, body []byte) string {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err == nil {
		if d, ok := obj["detail"].(string); ok && d != "" {
			return d
		}
		if msg := flatten(obj["non_field_errors"]); msg != "" {
			return msg
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var parts []string
		for _, k := range keys {
			if k == "non_field_errors" {
				continue
			}
			if msg := flatten(obj[k]); msg != "" {
				parts = append(parts, k+": "+msg)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}
	var list []any
	if err := json.Unmarshal(body, &list); err == nil {
		if msg := flatten(list); msg != "" {
			return msg
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}

func flatten(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		var parts []string
		for _, item := range t {
			if s := flatten(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

// AsError unwraps err into an *Error.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}
