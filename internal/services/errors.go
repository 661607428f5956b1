package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrMalformed     = errors.New("malformed response")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes job context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Class partitions failures into the two retry policies the poller knows.
type Class int

const (
	// ClassTransient failures are worth retrying: the external service is
	// slow and occasionally flaky, so network blips and rate limits should
	// wait out the poll budget.
	ClassTransient Class = iota
	// ClassPermanent failures cannot succeed on retry and must terminate
	// the job immediately without consuming the poll budget.
	ClassPermanent
)

func (c Class) String() string {
	if c == ClassPermanent {
		return "permanent"
	}
	return "transient"
}

// HTTPStatusCarrier allows errors to expose the HTTP status that produced
// them without this package importing every client implementation.
type HTTPStatusCarrier interface {
	HTTPStatus() int
}

// Classify maps a raw failure to a retry class.
//
// Transient: connection and timeout errors, HTTP 408/429, HTTP 5xx.
// Permanent: all other HTTP 4xx responses, malformed response bodies, and
// errors tagged with ErrValidation, ErrConfiguration, or ErrNotFound.
func Classify(err error) Class {
	if err == nil {
		return ClassTransient
	}

	switch {
	case errors.Is(err, ErrMalformed),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrConfiguration),
		errors.Is(err, ErrNotFound):
		return ClassPermanent
	case errors.Is(err, ErrTimeout),
		errors.Is(err, ErrTransient),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return ClassTransient
	}

	var carrier HTTPStatusCarrier
	if errors.As(err, &carrier) {
		status := carrier.HTTPStatus()
		switch {
		case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
			return ClassTransient
		case status >= http.StatusInternalServerError:
			return ClassTransient
		case status >= http.StatusBadRequest:
			return ClassPermanent
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassTransient
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ClassTransient
	}

	// Unrecognized transport failures get the benefit of the doubt; the
	// poll deadline still bounds how long they are retried.
	return ClassTransient
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
