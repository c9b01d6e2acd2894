package storage

import (
	"errors"
	"time"
)

// Time layouts used across the store. Submissions carry a local-time minute
// stamp; delivery events carry the local day only.
const (
	TimestampLayout = "2006-01-02 15:04"
	DayLayout       = "2006-01-02"
)

// ErrNotFound is returned when a submission reference does not match a
// pending row. A second approval of an already-retired submission surfaces
// as ErrNotFound, never as a duplicate broadcast.
var ErrNotFound = errors.New("submission not found")

// Config configures the SQLite store.
type Config struct {
	Path        string
	BusyTimeout time.Duration // 0 means default
}

// Kind is the submission modality.
type Kind string

const (
	KindText  Kind = "text"
	KindPhoto Kind = "photo"
	KindVideo Kind = "video"
)

// Valid reports whether k is one of the recognized modalities.
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindPhoto, KindVideo:
		return true
	}
	return false
}

// Submission is a queued confession awaiting moderation.
// It exists in the store from creation until retirement on approval;
// there is no rejected or edited state.
type Submission struct {
	ID          int64
	AuthorID    int64
	Kind        Kind
	MediaRef    string // platform file reference; empty for text
	Body        string // message text, or caption when media is attached
	SubmittedAt string // local time, minute precision ("2006-01-02 15:04")
}

// DayCount is one point of the per-day delivery series.
type DayCount struct {
	Day   string // "2006-01-02", local time zone
	Count int64
}
