// Package status persists RenderResult records for polling callers.
package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storyreel/types"
)

var (
	// ErrNotFound means no RenderResult exists under the id.
	ErrNotFound = errors.New("render result not found")

	// ErrTerminal means the record already reached completed or failed;
	// a re-run creates a new RenderResult instead.
	ErrTerminal = errors.New("render result is terminal")
)

// Store tracks the lifecycle of render orchestrations.
type Store interface {
	Create(ctx context.Context, res *types.RenderResult) error
	Get(ctx context.Context, id string) (*types.RenderResult, error)

	// Advance moves the record forward in the lifecycle; regressions and
	// updates to terminal records are rejected.
	Advance(ctx context.Context, id string, next types.RenderStatus) error

	// Complete marks the record completed with its artifact location.
	Complete(ctx context.Context, id, artifactURL string) error

	// Fail absorbs the record into the failed state with a diagnostic.
	Fail(ctx context.Context, id, detail string) error
}

// applyAdvance enforces monotonic lifecycle progression on a loaded record.
func applyAdvance(res *types.RenderResult, next types.RenderStatus) error {
	if res.Status.Terminal() {
		return ErrTerminal
	}
	nextRank, ok := next.Rank()
	if !ok {
		return fmt.Errorf("cannot advance to %q", next)
	}
	curRank, _ := res.Status.Rank()
	if nextRank <= curRank {
		return fmt.Errorf("cannot regress from %q to %q", res.Status, next)
	}
	res.Status = next
	res.UpdatedAt = time.Now().UTC()
	return nil
}

func applyFail(res *types.RenderResult, detail string) error {
	if res.Status.Terminal() {
		return ErrTerminal
	}
	res.Status = types.StatusFailed
	res.ErrorDetail = detail
	res.UpdatedAt = time.Now().UTC()
	return nil
}
