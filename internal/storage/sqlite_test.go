package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	logx "github.com/garpil124/menfes/pkg/logx"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	st, err := Open(Config{Path: filepath.Join(t.TempDir(), "menfes.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSubmissionIDsStrictlyIncrease(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	var last int64
	for i := 0; i < 5; i++ {
		id, err := st.CreateSubmission(ctx, Submission{
			AuthorID: 100, Kind: KindText, Body: "hello", SubmittedAt: "2024-01-01 10:00",
		})
		if err != nil {
			t.Fatalf("CreateSubmission: %v", err)
		}
		if id <= last {
			t.Fatalf("id %d not greater than previous %d", id, last)
		}
		last = id
	}
}

func TestGetSubmissionRoundTrip(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	want := Submission{
		AuthorID:    42,
		Kind:        KindPhoto,
		MediaRef:    "file-abc",
		Body:        "caption",
		SubmittedAt: "2024-01-01 10:00",
	}
	id, err := st.CreateSubmission(ctx, want)
	if err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}

	got, err := st.GetSubmission(ctx, id)
	if err != nil {
		t.Fatalf("GetSubmission: %v", err)
	}
	want.ID = id
	if got != want {
		t.Fatalf("GetSubmission = %+v, want %+v", got, want)
	}

	if _, err := st.GetSubmission(ctx, id+1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing id error = %v, want ErrNotFound", err)
	}
}

func TestListPendingOrderedByID(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	for _, body := range []string{"a", "b", "c"} {
		if _, err := st.CreateSubmission(ctx, Submission{AuthorID: 1, Kind: KindText, Body: body, SubmittedAt: "2024-01-01 10:00"}); err != nil {
			t.Fatalf("CreateSubmission: %v", err)
		}
	}

	pending, err := st.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("len(pending) = %d, want 3", len(pending))
	}
	for i := 1; i < len(pending); i++ {
		if pending[i].ID <= pending[i-1].ID {
			t.Fatalf("pending not ordered by id: %v", pending)
		}
	}
}

func TestDestinationRegistrationIdempotent(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	for _, id := range []int64{-100, -200, -100, -100} {
		if err := st.AddDestination(ctx, id); err != nil {
			t.Fatalf("AddDestination(%d): %v", id, err)
		}
	}

	got, err := st.ListDestinations(ctx)
	if err != nil {
		t.Fatalf("ListDestinations: %v", err)
	}
	want := []int64{-100, -200}
	if len(got) != len(want) {
		t.Fatalf("ListDestinations = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ListDestinations = %v, want %v (registration order)", got, want)
		}
	}

	if err := st.RemoveDestination(ctx, -100); err != nil {
		t.Fatalf("RemoveDestination: %v", err)
	}
	// Removing twice is a no-op.
	if err := st.RemoveDestination(ctx, -100); err != nil {
		t.Fatalf("RemoveDestination (again): %v", err)
	}
	got, err = st.ListDestinations(ctx)
	if err != nil {
		t.Fatalf("ListDestinations: %v", err)
	}
	if len(got) != 1 || got[0] != -200 {
		t.Fatalf("ListDestinations after remove = %v, want [-200]", got)
	}
}

func TestRetireAndRecord(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	id, err := st.CreateSubmission(ctx, Submission{AuthorID: 1, Kind: KindText, Body: "x", SubmittedAt: "2024-01-01 10:00"})
	if err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}

	if err := st.RetireAndRecord(ctx, id, "2024-01-01"); err != nil {
		t.Fatalf("RetireAndRecord: %v", err)
	}

	if _, err := st.GetSubmission(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("retired submission still retrievable (err=%v)", err)
	}

	n, err := st.CountDeliveries(ctx)
	if err != nil {
		t.Fatalf("CountDeliveries: %v", err)
	}
	if n != 1 {
		t.Fatalf("CountDeliveries = %d, want 1", n)
	}

	// Second retirement must not append another delivery event.
	if err := st.RetireAndRecord(ctx, id, "2024-01-01"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second RetireAndRecord error = %v, want ErrNotFound", err)
	}
	n, _ = st.CountDeliveries(ctx)
	if n != 1 {
		t.Fatalf("CountDeliveries after duplicate retire = %d, want 1", n)
	}
}

func TestDeliveriesByDayGroupsAndSorts(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	days := []string{"2024-01-02", "2024-01-01", "2024-01-02", "2024-01-03"}
	for _, day := range days {
		id, err := st.CreateSubmission(ctx, Submission{AuthorID: 1, Kind: KindText, Body: "x", SubmittedAt: day + " 09:00"})
		if err != nil {
			t.Fatalf("CreateSubmission: %v", err)
		}
		if err := st.RetireAndRecord(ctx, id, day); err != nil {
			t.Fatalf("RetireAndRecord: %v", err)
		}
	}

	series, err := st.DeliveriesByDay(ctx)
	if err != nil {
		t.Fatalf("DeliveriesByDay: %v", err)
	}
	want := []DayCount{
		{Day: "2024-01-01", Count: 1},
		{Day: "2024-01-02", Count: 2},
		{Day: "2024-01-03", Count: 1},
	}
	if len(series) != len(want) {
		t.Fatalf("DeliveriesByDay = %v, want %v", series, want)
	}
	var sum int64
	for i := range want {
		if series[i] != want[i] {
			t.Fatalf("DeliveriesByDay[%d] = %v, want %v", i, series[i], want[i])
		}
		sum += series[i].Count
	}

	total, err := st.CountDeliveries(ctx)
	if err != nil {
		t.Fatalf("CountDeliveries: %v", err)
	}
	if sum != total {
		t.Fatalf("series sum %d != total %d", sum, total)
	}
}
