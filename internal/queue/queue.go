// Package queue implements submission intake: validate, persist with a
// durable id, and notify the moderators with an approval button.
package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/garpil124/menfes/internal/storage"
	"github.com/garpil124/menfes/internal/transport"
	logx "github.com/garpil124/menfes/pkg/logx"
	"github.com/garpil124/menfes/pkg/tgui"
)

// ErrInvalid rejects malformed submissions (unknown kind, media without a
// file reference, blank text).
var ErrInvalid = errors.New("invalid submission")

// CallbackNS is the namespace used in approval callback data
// ("menfes:approve:<id>").
const (
	CallbackNS      = "menfes"
	CallbackApprove = "approve"
)

const previewBodyLimit = 500

// Inbound is a raw submission from a private chat.
type Inbound struct {
	AuthorID int64
	Kind     storage.Kind
	MediaRef string // platform file reference for photo/video
	Body     string // text, or caption for media
}

// Queue accepts submissions and fans a moderation preview out to the owners.
type Queue struct {
	store  storage.Store
	gw     transport.Gateway
	owners func() []int64
	loc    *time.Location
	log    logx.Logger
	now    func() time.Time
}

// New builds a Queue. owners is called per submission so a config reload
// takes effect without restart.
func New(store storage.Store, gw transport.Gateway, owners func() []int64, loc *time.Location, log logx.Logger) *Queue {
	if log.IsZero() {
		log = logx.Nop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Queue{
		store:  store,
		gw:     gw,
		owners: owners,
		loc:    loc,
		log:    log,
		now:    time.Now,
	}
}

// Submit validates and persists in, then notifies every owner with a preview
// and an inline approve button. The returned id is assigned by the store and
// never reused. Moderator notification is best-effort: a notify failure is
// logged but does not fail the submission.
func (q *Queue) Submit(ctx context.Context, in Inbound) (int64, error) {
	if err := validate(in); err != nil {
		return 0, err
	}

	sub := storage.Submission{
		AuthorID:    in.AuthorID,
		Kind:        in.Kind,
		MediaRef:    in.MediaRef,
		Body:        in.Body,
		SubmittedAt: q.now().In(q.loc).Format(storage.TimestampLayout),
	}
	id, err := q.store.CreateSubmission(ctx, sub)
	if err != nil {
		return 0, fmt.Errorf("persist submission: %w", err)
	}

	q.notifyOwners(ctx, id, sub)
	return id, nil
}

func validate(in Inbound) error {
	if !in.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalid, in.Kind)
	}
	switch in.Kind {
	case storage.KindText:
		if strings.TrimSpace(in.Body) == "" {
			return fmt.Errorf("%w: empty text", ErrInvalid)
		}
	default:
		if in.MediaRef == "" {
			return fmt.Errorf("%w: %s without file reference", ErrInvalid, in.Kind)
		}
	}
	return nil
}

func (q *Queue) notifyOwners(ctx context.Context, id int64, sub storage.Submission) {
	preview := renderPreview(id, sub)
	markup := tgui.NewInline().
		Row(tgui.Btn("✅ APPROVE", tgui.Data(CallbackNS, CallbackApprove, strconv.FormatInt(id, 10)))).
		Markup()
	opt := &transport.SendOptions{ParseMode: "HTML", ReplyMarkupAdapter: markup}

	for _, owner := range q.owners() {
		if _, err := q.gw.SendText(ctx, transport.ChatTarget{ChatID: owner}, preview, opt); err != nil {
			q.log.Warn("moderator notify failed",
				logx.Int64("owner", owner),
				logx.Int64("submission", id),
				logx.Err(err))
		}
	}
}

func renderPreview(id int64, sub storage.Submission) string {
	head := tgui.JoinH("\n",
		"📥 "+tgui.B("MENFES BARU"),
		"ID: "+tgui.Code(strconv.FormatInt(id, 10)),
		"Dari: "+tgui.Code(strconv.FormatInt(sub.AuthorID, 10)),
		"Waktu: "+tgui.Esc(sub.SubmittedAt),
	)
	parts := []tgui.H{head}
	if sub.Kind != storage.KindText {
		parts = append(parts, tgui.I("["+string(sub.Kind)+"]"))
	}
	if body := strings.TrimSpace(sub.Body); body != "" {
		parts = append(parts, tgui.Quote(tgui.TruncRunes(body, previewBodyLimit)))
	}
	return string(tgui.JoinH("\n\n", parts...))
}
