package storage

import (
	"context"
	"errors"
	"strings"

	logx "github.com/garpil124/menfes/pkg/logx"
)

// Store is the persistence API shared by the queue, the fan-out engine and
// the statistics aggregator.
type Store interface {
	// CreateSubmission persists a new submission and returns its assigned id.
	// Ids are strictly increasing and never reused, even across restarts.
	CreateSubmission(ctx context.Context, s Submission) (int64, error)
	GetSubmission(ctx context.Context, id int64) (Submission, error)
	ListPending(ctx context.Context) ([]Submission, error)

	// AddDestination and RemoveDestination are idempotent.
	AddDestination(ctx context.Context, chatID int64) error
	RemoveDestination(ctx context.Context, chatID int64) error
	// ListDestinations returns destinations in registration order.
	ListDestinations(ctx context.Context) ([]int64, error)

	// RetireAndRecord deletes the submission and appends one delivery event
	// for the given day in a single transaction. It returns ErrNotFound when
	// the submission was already retired, in which case no event is appended.
	RetireAndRecord(ctx context.Context, id int64, day string) error

	CountDeliveries(ctx context.Context) (int64, error)
	DeliveriesByDay(ctx context.Context) ([]DayCount, error)

	Close() error
}

// Open initializes the SQLite store at cfg.Path.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("storage path is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return openSQLite(cfg, log)
}
