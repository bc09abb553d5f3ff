package common

import (
	"context"
	"time"

	"github.com/schoolhub/school-directory-service/internal/observability"
)

// Instrument wraps a tool action so every invocation records a run counter
// and a duration histogram, tagged with the tool and subcommand names.
func Instrument(tool, command string, fn func(context.Context) ([]string, error)) func(context.Context) ([]string, error) {
	return func(ctx context.Context) ([]string, error) {
		start := time.Now()
		details, err := fn(ctx)
		status := "success"
		if err != nil {
			status = "failure"
		}
		observability.RecordToolCommandRun(ctx, tool, command, status)
		observability.RecordToolCommandDuration(ctx, tool, command, status, time.Since(start))
		return details, err
	}
}
