package queue

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/garpil124/menfes/internal/storage"
	"github.com/garpil124/menfes/internal/transport"
	logx "github.com/garpil124/menfes/pkg/logx"
)

type sentText struct {
	chat int64
	text string
	opt  *transport.SendOptions
}

type fakeGateway struct {
	mu      sync.Mutex
	texts   []sentText
	sendErr error
}

func (g *fakeGateway) Start(ctx context.Context, out chan<- transport.Update) error { return nil }
func (g *fakeGateway) Stop(ctx context.Context) error                               { return nil }

func (g *fakeGateway) SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sendErr != nil {
		return transport.MessageRef{}, g.sendErr
	}
	g.texts = append(g.texts, sentText{chat: to.ChatID, text: text, opt: opt})
	return transport.MessageRef{ChatID: to.ChatID, MessageID: len(g.texts)}, nil
}

func (g *fakeGateway) SendPhoto(ctx context.Context, to transport.ChatTarget, media transport.Media, caption string, opt *transport.SendOptions) (transport.MessageRef, error) {
	return transport.MessageRef{}, nil
}

func (g *fakeGateway) SendVideo(ctx context.Context, to transport.ChatTarget, media transport.Media, caption string, opt *transport.SendOptions) (transport.MessageRef, error) {
	return transport.MessageRef{}, nil
}

func (g *fakeGateway) Pin(ctx context.Context, ref transport.MessageRef) error         { return nil }
func (g *fakeGateway) UnpinAll(ctx context.Context, to transport.ChatTarget) error     { return nil }
func (g *fakeGateway) AnswerCallback(ctx context.Context, id string, text string) error { return nil }

func (g *fakeGateway) sent() []sentText {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]sentText, len(g.texts))
	copy(out, g.texts)
	return out
}

func openTestStore(t *testing.T) storage.Store {
	t.Helper()
	st, err := storage.Open(storage.Config{Path: filepath.Join(t.TempDir(), "menfes.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSubmitPersistsAndNotifies(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	gw := &fakeGateway{}
	owners := func() []int64 { return []int64{100, 200} }
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}

	q := New(st, gw, owners, jakarta, logx.Nop())
	q.now = func() time.Time {
		return time.Date(2024, 5, 1, 1, 30, 0, 0, time.UTC) // 08:30 in Jakarta
	}

	id, err := q.Submit(context.Background(), Inbound{
		AuthorID: 555,
		Kind:     storage.KindText,
		Body:     "halo dunia",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id <= 0 {
		t.Fatalf("id = %d, want > 0", id)
	}

	sub, err := st.GetSubmission(context.Background(), id)
	if err != nil {
		t.Fatalf("GetSubmission: %v", err)
	}
	if sub.AuthorID != 555 || sub.Kind != storage.KindText || sub.Body != "halo dunia" {
		t.Fatalf("stored submission = %+v", sub)
	}
	if sub.SubmittedAt != "2024-05-01 08:30" {
		t.Fatalf("SubmittedAt = %q, want local Jakarta time", sub.SubmittedAt)
	}

	sent := gw.sent()
	if len(sent) != 2 {
		t.Fatalf("notified %d owners, want 2", len(sent))
	}
	for i, want := range []int64{100, 200} {
		if sent[i].chat != want {
			t.Fatalf("notify %d went to %d, want %d", i, sent[i].chat, want)
		}
		if !strings.Contains(sent[i].text, "MENFES BARU") || !strings.Contains(sent[i].text, "halo dunia") {
			t.Fatalf("preview = %q", sent[i].text)
		}
		wantData := fmt.Sprintf("menfes:approve:%d", id)
		if markup := fmt.Sprintf("%+v", sent[i].opt.ReplyMarkupAdapter); !strings.Contains(markup, wantData) {
			t.Fatalf("markup %q missing callback %q", markup, wantData)
		}
	}
}

func TestSubmitValidation(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	gw := &fakeGateway{}
	q := New(st, gw, func() []int64 { return []int64{1} }, time.UTC, logx.Nop())

	cases := []struct {
		name string
		in   Inbound
	}{
		{"unknown kind", Inbound{AuthorID: 1, Kind: "sticker", Body: "x"}},
		{"blank text", Inbound{AuthorID: 1, Kind: storage.KindText, Body: "  \n "}},
		{"photo without ref", Inbound{AuthorID: 1, Kind: storage.KindPhoto, Body: "caption"}},
		{"video without ref", Inbound{AuthorID: 1, Kind: storage.KindVideo}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := q.Submit(context.Background(), tc.in); !errors.Is(err, ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
		})
	}

	pending, err := st.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("rejected submissions were persisted: %+v", pending)
	}
	if len(gw.sent()) != 0 {
		t.Fatal("rejected submission notified the moderator")
	}
}

func TestSubmitSucceedsWhenNotifyFails(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	gw := &fakeGateway{sendErr: errors.New("telegram down")}
	q := New(st, gw, func() []int64 { return []int64{1} }, time.UTC, logx.Nop())

	id, err := q.Submit(context.Background(), Inbound{
		AuthorID: 7,
		Kind:     storage.KindPhoto,
		MediaRef: "file-abc",
		Body:     "caption",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := st.GetSubmission(context.Background(), id); err != nil {
		t.Fatalf("submission not persisted: %v", err)
	}
}
