package ports

import (
	"context"
	"time"

	"github.com/bft-labs/guardian/internal/domain"
)

// AccessProvider manages account membership on the external media service.
type AccessProvider interface {
	// ListUsers returns every account currently shared with the server,
	// including identity fields and the join timestamp when known.
	ListUsers(ctx context.Context) ([]domain.UserFact, error)

	// ListActiveUsers returns the ids of accounts that currently hold
	// access. Used to detect departures and rejoins.
	ListActiveUsers(ctx context.Context) ([]string, error)

	// RemoveUser revokes the account's access. A user that no longer
	// exists is treated as already removed and returns nil.
	RemoveUser(ctx context.Context, id string) error
}

// ActivityProvider reports viewing activity from the tracking service.
type ActivityProvider interface {
	// ListUsers returns the identities the tracking service knows about.
	// Used to detect access accounts the tracker cannot match; such a
	// mismatch is permanent for the user, not a reason to retry.
	ListUsers(ctx context.Context) ([]domain.UserFact, error)

	// LastActivityOf returns the most recent activity timestamp for the
	// user, or nil when no activity has ever been recorded.
	LastActivityOf(ctx context.Context, id string) (*time.Time, error)

	// DeleteUser purges the user's history after a removal. Best-effort
	// cleanup; failure does not undo the removal.
	DeleteUser(ctx context.Context, id string) error
}

// Notifier delivers a single notification.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// AlertChannel posts operational alerts (joins, warnings, removals) to a
// side channel such as a chat webhook. Implementations must never
// surface failures beyond a log line.
type AlertChannel interface {
	Post(ctx context.Context, message string) error
}
