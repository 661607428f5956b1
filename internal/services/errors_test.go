package services_test

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"testing"

	"veracity/internal/services"
)

type statusError struct {
	status int
}

func (e *statusError) Error() string   { return "status error" }
func (e *statusError) HTTPStatus() int { return e.status }

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransient, "verifier", "submit", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"verifier", "submit", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestClassifySentinels(t *testing.T) {
	permanent := []error{
		services.Wrap(services.ErrMalformed, "verifier", "result", "bad payload", nil),
		services.Wrap(services.ErrValidation, "orchestrator", "submit", "duplicate", nil),
		services.Wrap(services.ErrConfiguration, "config", "load", "missing key", nil),
		services.Wrap(services.ErrNotFound, "store", "article", "missing", nil),
	}
	for _, err := range permanent {
		if class := services.Classify(err); class != services.ClassPermanent {
			t.Fatalf("expected permanent for %v, got %s", err, class)
		}
	}

	transient := []error{
		services.Wrap(services.ErrTimeout, "verifier", "status", "slow", nil),
		services.Wrap(services.ErrTransient, "verifier", "status", "flaky", nil),
		context.DeadlineExceeded,
	}
	for _, err := range transient {
		if class := services.Classify(err); class != services.ClassTransient {
			t.Fatalf("expected transient for %v, got %s", err, class)
		}
	}
}

func TestClassifyHTTPStatus(t *testing.T) {
	cases := []struct {
		status int
		want   services.Class
	}{
		{408, services.ClassTransient},
		{429, services.ClassTransient},
		{500, services.ClassTransient},
		{502, services.ClassTransient},
		{503, services.ClassTransient},
		{400, services.ClassPermanent},
		{401, services.ClassPermanent},
		{404, services.ClassPermanent},
		{422, services.ClassPermanent},
	}
	for _, tc := range cases {
		err := &statusError{status: tc.status}
		if got := services.Classify(err); got != tc.want {
			t.Fatalf("status %d: expected %s, got %s", tc.status, tc.want, got)
		}
	}
}

func TestClassifyNetworkErrors(t *testing.T) {
	refused := &url.Error{Op: "Get", URL: "http://127.0.0.1:1/status", Err: errors.New("connection refused")}
	if class := services.Classify(refused); class != services.ClassTransient {
		t.Fatalf("expected transient for url error, got %s", class)
	}

	var timeout net.Error = &net.DNSError{Err: "timeout", IsTimeout: true}
	if class := services.Classify(timeout); class != services.ClassTransient {
		t.Fatalf("expected transient for net error, got %s", class)
	}

	if class := services.Classify(errors.New("mystery")); class != services.ClassTransient {
		t.Fatalf("expected transient default, got %s", class)
	}
}
