package report

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/garpil124/menfes/internal/stats"
	"github.com/garpil124/menfes/internal/storage"
	logx "github.com/garpil124/menfes/pkg/logx"
)

func TestRenderSummary(t *testing.T) {
	t.Parallel()

	st, err := storage.Open(storage.Config{Path: filepath.Join(t.TempDir(), "menfes.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	for _, day := range []string{"2024-05-01", "2024-05-02", "2024-05-02"} {
		id, err := st.CreateSubmission(ctx, storage.Submission{
			AuthorID: 1, Kind: storage.KindText, Body: "x", SubmittedAt: day + " 08:00",
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		if err := st.RetireAndRecord(ctx, id, day); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	r := New(Config{Enabled: true}, stats.New(st), nil, func() []int64 { return nil }, time.UTC, logx.Nop())
	r.now = func() time.Time { return time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC) }

	text, err := r.Render(ctx)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{"LAPORAN MENFES", "2024-05-02", "<code>2</code>", "<code>3</code>"} {
		if !strings.Contains(text, want) {
			t.Fatalf("summary %q missing %q", text, want)
		}
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	t.Parallel()

	r := New(Config{Enabled: true, Spec: "not a cron spec"}, nil, nil, func() []int64 { return nil }, time.UTC, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := r.Start(ctx); err == nil {
		t.Fatal("expected spec parse error")
	}
}

func TestStartDisabledReturnsImmediately(t *testing.T) {
	t.Parallel()

	r := New(Config{Enabled: false}, nil, nil, func() []int64 { return nil }, time.UTC, logx.Nop())

	done := make(chan error, 1)
	go func() { done <- r.Start(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("disabled reporter blocked")
	}
}
