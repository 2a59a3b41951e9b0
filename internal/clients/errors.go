package clients

import (
	"fmt"
	"net/http"

	"neowatch/internal/models"
)

type FetchErrorKind string

const (
	FetchNetwork    FetchErrorKind = "network"
	FetchTimeout    FetchErrorKind = "timeout"
	FetchHTTPStatus FetchErrorKind = "http_status"
	FetchMalformed  FetchErrorKind = "malformed_response"
)

// FetchError описывает неудачную загрузку одного окна фида.
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int
	Window     models.DateWindow
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchHTTPStatus:
		return fmt.Sprintf("NEO feed %s: API returned status %d", e.Window, e.StatusCode)
	default:
		if e.Err == nil {
			return fmt.Sprintf("NEO feed %s: %s", e.Window, e.Kind)
		}
		return fmt.Sprintf("NEO feed %s: %s: %v", e.Window, e.Kind, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) IsRateLimited() bool {
	return e.Kind == FetchHTTPStatus && e.StatusCode == http.StatusTooManyRequests
}
