package stats

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/garpil124/menfes/internal/storage"
	logx "github.com/garpil124/menfes/pkg/logx"
)

func openSeededStore(t *testing.T, days ...string) storage.Store {
	t.Helper()
	st, err := storage.Open(storage.Config{Path: filepath.Join(t.TempDir(), "menfes.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	for _, day := range days {
		id, err := st.CreateSubmission(ctx, storage.Submission{
			AuthorID: 1, Kind: storage.KindText, Body: "x", SubmittedAt: day + " 10:00",
		})
		if err != nil {
			t.Fatalf("seed submission: %v", err)
		}
		if err := st.RetireAndRecord(ctx, id, day); err != nil {
			t.Fatalf("seed delivery: %v", err)
		}
	}
	return st
}

func TestTotalAndSeries(t *testing.T) {
	t.Parallel()

	// out of order on purpose; the series must come back ascending
	st := openSeededStore(t, "2024-05-03", "2024-05-01", "2024-05-01")
	s := New(st)

	total, err := s.Total(context.Background())
	if err != nil {
		t.Fatalf("Total: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}

	series, err := s.SeriesByDay(context.Background())
	if err != nil {
		t.Fatalf("SeriesByDay: %v", err)
	}
	want := []storage.DayCount{
		{Day: "2024-05-01", Count: 2},
		{Day: "2024-05-03", Count: 1},
	}
	if len(series) != len(want) {
		t.Fatalf("series = %+v", series)
	}
	for i := range want {
		if series[i] != want[i] {
			t.Fatalf("series[%d] = %+v, want %+v", i, series[i], want[i])
		}
	}
}

func TestRenderChart(t *testing.T) {
	t.Parallel()

	png, err := RenderChart([]storage.DayCount{
		{Day: "2024-05-01", Count: 2},
		{Day: "2024-05-02", Count: 5},
		{Day: "2024-05-04", Count: 1},
	})
	if err != nil {
		t.Fatalf("RenderChart: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatalf("output is not a PNG (first bytes %x)", png[:min(8, len(png))])
	}
}

func TestRenderChartSingleDay(t *testing.T) {
	t.Parallel()

	png, err := RenderChart([]storage.DayCount{{Day: "2024-05-01", Count: 1}})
	if err != nil {
		t.Fatalf("RenderChart: %v", err)
	}
	if len(png) == 0 {
		t.Fatal("empty PNG")
	}
}

func TestRenderChartNoData(t *testing.T) {
	t.Parallel()

	if _, err := RenderChart(nil); !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}
