package errutil

import (
	"context"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/oprisk/pkg/utils/logging"
)

// Handle logs the error with its goerr context and reports it to Sentry when
// a Sentry client is configured. The error is returned unchanged.
func Handle(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}

	log(ctx, err, msg)
	capture(ctx, err)

	return err
}

// HandleHTTP logs the error and writes an HTTP error response. Only 5xx
// errors are reported to Sentry; the message of a 5xx is not exposed.
func HandleHTTP(ctx context.Context, w http.ResponseWriter, err error, statusCode int) {
	if err == nil {
		return
	}

	log(ctx, err, "HTTP error", "status", statusCode)

	if statusCode >= http.StatusInternalServerError {
		capture(ctx, err)
		http.Error(w, http.StatusText(statusCode), statusCode)
		return
	}

	http.Error(w, err.Error(), statusCode)
}

func log(ctx context.Context, err error, msg string, args ...any) {
	logger := logging.From(ctx)

	var ge *goerr.Error
	if errors.As(err, &ge) {
		args = append(args,
			"error", err.Error(),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	} else {
		args = append(args, "error", err.Error())
	}

	logger.Error(msg, args...)
}

func capture(ctx context.Context, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	if hub.Client() == nil {
		return
	}
	hub.CaptureException(err)
}
