package upload

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func respWithStatus(code int) *http.Response {
	return &http.Response{StatusCode: code}
}

func TestClassify_HTTPStatuses(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantKind      Kind
		wantRetriable bool
	}{
		{"server error 500", 500, KindServer, true},
		{"server error 503", 503, KindServer, true},
		{"not found 404", 404, KindClient, false},
		{"bad request 400", 400, KindClient, false},
		{"request timeout 408", 408, KindClient, true},
		{"locked 423", 423, KindClient, true},
		{"rate limited 429", 429, KindClient, true},
		{"payload too large 413", 413, KindClient, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(fmt.Errorf("status %d", tt.status), respWithStatus(tt.status))
			if got.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", got.Kind, tt.wantKind)
			}
			if got.Retriable != tt.wantRetriable {
				t.Errorf("retriable = %v, want %v", got.Retriable, tt.wantRetriable)
			}
			if got.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", got.StatusCode, tt.status)
			}
		})
	}
}

func TestClassify_Cancellation(t *testing.T) {
	got := Classify(context.Canceled, nil)
	if got.Kind != KindAborted {
		t.Errorf("kind = %q, want %q", got.Kind, KindAborted)
	}
	if !got.Retriable {
		t.Error("aborted should be retriable")
	}

	got = Classify(fmt.Errorf("doing thing: %w", context.DeadlineExceeded), nil)
	if got.Kind != KindTimeout {
		t.Errorf("kind = %q, want %q", got.Kind, KindTimeout)
	}
	if !got.Retriable {
		t.Error("timeout should be retriable")
	}
}

func TestClassify_CORSNotRetriable(t *testing.T) {
	got := Classify(errors.New("request blocked by CORS policy"), nil)
	if got.Kind != KindCORS {
		t.Errorf("kind = %q, want %q", got.Kind, KindCORS)
	}
	if got.Retriable {
		t.Error("cors failures must not be retried")
	}
}

func TestClassify_NetworkRetriable(t *testing.T) {
	got := Classify(errors.New("network is unreachable"), nil)
	if got.Kind != KindNetwork {
		t.Errorf("kind = %q, want %q", got.Kind, KindNetwork)
	}
	if !got.Retriable {
		t.Error("network failures should be retried")
	}
}

func TestClassify_UnknownOptimisticDefault(t *testing.T) {
	got := Classify(errors.New("something odd happened"), nil)
	if got.Kind != KindUnknown {
		t.Errorf("kind = %q, want %q", got.Kind, KindUnknown)
	}
	if !got.Retriable {
		t.Error("unknown failures default to retriable")
	}
}

func TestClassify_Pure(t *testing.T) {
	err := errors.New("network down")
	a := Classify(err, nil)
	b := Classify(err, nil)
	if a.Kind != b.Kind || a.Retriable != b.Retriable {
		t.Errorf("classification not stable: %+v vs %+v", a, b)
	}
}

func TestClassify_PassesThroughClassified(t *testing.T) {
	orig := &Error{Kind: KindClient, Message: "rejected", Retriable: false, StatusCode: 422}
	got := Classify(fmt.Errorf("wrapped: %w", orig), nil)
	if got != orig {
		t.Error("expected already-classified error to pass through unchanged")
	}
}

func TestFormatError(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"nil", nil, "Something went wrong. Please try again."},
		{"too large", &Error{Kind: KindClient, StatusCode: 413}, "This file is too large to upload."},
		{"rate limited", &Error{Kind: KindClient, StatusCode: 429}, "You're doing that too often. Wait a moment and try again."},
		{"cors", &Error{Kind: KindCORS}, "The upload was blocked by a security policy. Please contact support."},
		{"network", &Error{Kind: KindNetwork}, "Network problem. Check your connection and try again."},
		{"timeout", &Error{Kind: KindTimeout}, "The upload timed out. Please try again."},
		{"aborted", &Error{Kind: KindAborted}, "The upload was cancelled."},
		{"server", &Error{Kind: KindServer, StatusCode: 502}, "The server had a problem. Please try again shortly."},
		{"client", &Error{Kind: KindClient, StatusCode: 404}, "The upload was rejected. Check the file and try again."},
		{"unknown", &Error{Kind: KindUnknown}, "Something went wrong. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatError(tt.err); got != tt.want {
				t.Errorf("FormatError() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	e := Classify(fmt.Errorf("outer: %w", cause), respWithStatus(500))
	if !errors.Is(e, cause) {
		t.Error("expected classified error to wrap its cause")
	}
}
