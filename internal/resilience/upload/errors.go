package upload

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// Kind identifies the failure category of an upload or outbound request.
type Kind string

const (
	// KindCORS is a cross-origin policy rejection. Retrying cannot fix it.
	KindCORS Kind = "cors"
	// KindNetwork is a transient connectivity failure.
	KindNetwork Kind = "network"
	// KindTimeout is a per-attempt deadline expiry.
	KindTimeout Kind = "timeout"
	// KindServer is an HTTP 5xx response.
	KindServer Kind = "server"
	// KindClient is an HTTP 4xx response.
	KindClient Kind = "client"
	// KindAborted is a caller-initiated cancellation.
	KindAborted Kind = "aborted"
	// KindUnknown is any failure that does not match a known category.
	KindUnknown Kind = "unknown"
)

// Error is the classified form of a request failure. It is the only error
// type surfaced by WithRetry and RobustUpload; raw transport errors never
// reach callers directly.
type Error struct {
	Kind       Kind
	Message    string
	Retriable  bool
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// retriableClientStatuses lists the 4xx statuses that indicate genuine
// transience: request timeout, resource locked, rate limited. Every other
// 4xx is a caller-side defect that retrying cannot fix.
var retriableClientStatuses = map[int]bool{
	http.StatusRequestTimeout:  true,
	http.StatusLocked:          true,
	http.StatusTooManyRequests: true,
}

// Classify converts a raw failure into an *Error with a retriability verdict.
// It is a pure function of its inputs: the same (err, resp) pair always
// produces the same kind and verdict.
//
// When resp is non-nil the HTTP status dominates: 5xx is a retriable server
// fault, 4xx is a client fault retriable only for 408/423/429. Without a
// response the error itself is inspected: cancellations, deadline expiries,
// and known transport failures each map to their own kind. Anything
// unrecognized is classified unknown and optimistically retried.
func Classify(err error, resp *http.Response) *Error {
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindAborted, Message: "request aborted", Retriable: true, Cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: "request timed out", Retriable: true, Cause: err}
	}

	if resp != nil {
		if resp.StatusCode >= 500 {
			return &Error{
				Kind:       KindServer,
				Message:    errMessage(err, "server error"),
				Retriable:  true,
				StatusCode: resp.StatusCode,
				Cause:      err,
			}
		}
		if resp.StatusCode >= 400 {
			return &Error{
				Kind:       KindClient,
				Message:    errMessage(err, "request rejected"),
				Retriable:  retriableClientStatuses[resp.StatusCode],
				StatusCode: resp.StatusCode,
				Cause:      err,
			}
		}
	}

	if err != nil {
		msg := strings.ToLower(err.Error())

		// A cross-origin rejection surfaces as a failed request with no
		// response. It is a policy problem, not a transient fault.
		if strings.Contains(msg, "cors") || strings.Contains(msg, "cross-origin") {
			return &Error{Kind: KindCORS, Message: err.Error(), Retriable: false, Cause: err}
		}

		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return &Error{Kind: KindTimeout, Message: err.Error(), Retriable: true, Cause: err}
		}
		if errors.Is(err, syscall.ECONNREFUSED) ||
			errors.Is(err, syscall.ECONNRESET) ||
			errors.Is(err, syscall.ENETUNREACH) ||
			errors.As(err, &netErr) {
			return &Error{Kind: KindNetwork, Message: err.Error(), Retriable: true, Cause: err}
		}
		if strings.Contains(msg, "network") || strings.Contains(msg, "connection") {
			return &Error{Kind: KindNetwork, Message: err.Error(), Retriable: true, Cause: err}
		}
	}

	return &Error{Kind: KindUnknown, Message: errMessage(err, "unknown error"), Retriable: true, Cause: err}
}

func errMessage(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}

// FormatError maps a classified error to a short, non-technical message
// suitable for end users. Pure, no side effects.
func FormatError(err *Error) string {
	if err == nil {
		return "Something went wrong. Please try again."
	}

	switch err.StatusCode {
	case http.StatusRequestEntityTooLarge:
		return "This file is too large to upload."
	case http.StatusTooManyRequests:
		return "You're doing that too often. Wait a moment and try again."
	}

	switch err.Kind {
	case KindCORS:
		return "The upload was blocked by a security policy. Please contact support."
	case KindNetwork:
		return "Network problem. Check your connection and try again."
	case KindTimeout:
		return "The upload timed out. Please try again."
	case KindAborted:
		return "The upload was cancelled."
	case KindServer:
		return "The server had a problem. Please try again shortly."
	case KindClient:
		return "The upload was rejected. Check the file and try again."
	default:
		return "Something went wrong. Please try again."
	}
}
