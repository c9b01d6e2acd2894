// Package broadcast implements the approval fan-out: render the canonical
// template, deliver to every registered destination with pin handling, then
// retire the submission and record the delivery.
package broadcast

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/garpil124/menfes/internal/storage"
	"github.com/garpil124/menfes/internal/transport"
	logx "github.com/garpil124/menfes/pkg/logx"
)

type Config struct {
	RatePerSec  int           // global send rate; default 20
	SendTimeout time.Duration // per-destination budget; default 30s
}

const (
	defaultRatePerSec  = 20
	defaultSendTimeout = 30 * time.Second
)

// Report summarizes one fan-out. Sent and Failed partition the destination
// snapshot; a destination never appears in both.
type Report struct {
	SubmissionID int64
	Sent         []int64
	Failed       []int64
	Day          string // delivery day recorded with the retirement
}

type Engine struct {
	store       storage.Store
	gw          transport.Gateway
	loc         *time.Location
	log         logx.Logger
	limiter     *rate.Limiter
	sendTimeout time.Duration
	locks       keyedMutex
	now         func() time.Time
}

func New(cfg Config, store storage.Store, gw transport.Gateway, loc *time.Location, log logx.Logger) *Engine {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = defaultRatePerSec
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	if loc == nil {
		loc = time.UTC
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Engine{
		store:       store,
		gw:          gw,
		loc:         loc,
		log:         log,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		sendTimeout: cfg.SendTimeout,
		now:         time.Now,
	}
}

// Approve broadcasts submission id to every destination and retires it.
// Concurrent approvals of the same id serialize; the loser observes the
// retirement and gets storage.ErrNotFound, so a submission is broadcast at
// most once. A send failure isolates to its destination: the loop continues
// and the failure lands in Report.Failed. Retirement and the delivery event
// happen unconditionally after the loop, even when every send failed.
func (e *Engine) Approve(ctx context.Context, id int64) (Report, error) {
	unlock := e.locks.lock(id)
	defer unlock()

	sub, err := e.store.GetSubmission(ctx, id)
	if err != nil {
		return Report{SubmissionID: id}, fmt.Errorf("load submission %d: %w", id, err)
	}

	dests, err := e.store.ListDestinations(ctx)
	if err != nil {
		return Report{SubmissionID: id}, fmt.Errorf("list destinations: %w", err)
	}

	text := e.render(sub)
	rep := Report{SubmissionID: id}
	for _, chatID := range dests {
		if err := e.deliver(ctx, chatID, sub, text); err != nil {
			e.log.Warn("broadcast delivery failed",
				logx.Int64("submission", id),
				logx.Int64("chat", chatID),
				logx.Err(err))
			rep.Failed = append(rep.Failed, chatID)
			continue
		}
		rep.Sent = append(rep.Sent, chatID)
	}

	rep.Day = e.now().In(e.loc).Format(storage.DayLayout)
	if err := e.store.RetireAndRecord(ctx, id, rep.Day); err != nil {
		return rep, fmt.Errorf("retire submission %d: %w", id, err)
	}

	e.log.Info("broadcast complete",
		logx.Int64("submission", id),
		logx.Int("sent", len(rep.Sent)),
		logx.Int("failed", len(rep.Failed)))
	return rep, nil
}

// deliver handles one destination within its own timeout: unpin-all and pin
// are best-effort (the bot may lack pin rights), the send itself decides
// success.
func (e *Engine) deliver(ctx context.Context, chatID int64, sub storage.Submission, text string) error {
	sctx, cancel := context.WithTimeout(ctx, e.sendTimeout)
	defer cancel()

	to := transport.ChatTarget{ChatID: chatID}
	if err := e.gw.UnpinAll(sctx, to); err != nil {
		e.log.Debug("unpin-all failed", logx.Int64("chat", chatID), logx.Err(err))
	}

	if err := e.limiter.Wait(sctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var (
		ref transport.MessageRef
		err error
	)
	switch sub.Kind {
	case storage.KindPhoto:
		ref, err = e.gw.SendPhoto(sctx, to, transport.Media{FileID: sub.MediaRef}, text, nil)
	case storage.KindVideo:
		ref, err = e.gw.SendVideo(sctx, to, transport.Media{FileID: sub.MediaRef}, text, nil)
	default:
		ref, err = e.gw.SendText(sctx, to, text, nil)
	}
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}

	if err := e.gw.Pin(sctx, ref); err != nil {
		e.log.Debug("pin failed", logx.Int64("chat", chatID), logx.Err(err))
	}
	return nil
}
