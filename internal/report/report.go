// Package report sends the moderators a scheduled delivery-statistics
// summary.
package report

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/garpil124/menfes/internal/stats"
	"github.com/garpil124/menfes/internal/storage"
	"github.com/garpil124/menfes/internal/transport"
	logx "github.com/garpil124/menfes/pkg/logx"
	"github.com/garpil124/menfes/pkg/tgui"
)

// DefaultSpec schedules the summary daily at 09:00 local time.
const DefaultSpec = "0 9 * * *"

type Config struct {
	Enabled bool
	Spec    string // 5-field cron spec; DefaultSpec when empty
}

type Reporter struct {
	cfg    Config
	stats  *stats.Service
	gw     transport.Gateway
	owners func() []int64
	loc    *time.Location
	log    logx.Logger

	parser cron.Parser
	c      *cron.Cron
	now    func() time.Time
}

func New(cfg Config, st *stats.Service, gw transport.Gateway, owners func() []int64, loc *time.Location, log logx.Logger) *Reporter {
	if cfg.Spec == "" {
		cfg.Spec = DefaultSpec
	}
	if loc == nil {
		loc = time.UTC
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Reporter{
		cfg:    cfg,
		stats:  st,
		gw:     gw,
		owners: owners,
		loc:    loc,
		log:    log,
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		now:    time.Now,
	}
}

// Start registers the cron entry and runs the scheduler until ctx is done.
// It returns immediately when the reporter is disabled.
func (r *Reporter) Start(ctx context.Context) error {
	if !r.cfg.Enabled {
		return nil
	}

	r.c = cron.New(cron.WithParser(r.parser), cron.WithLocation(r.loc))
	_, err := r.c.AddFunc(r.cfg.Spec, func() { r.send(ctx) })
	if err != nil {
		return fmt.Errorf("report spec %q: %w", r.cfg.Spec, err)
	}
	r.c.Start()
	r.log.Info("daily report scheduled", logx.String("spec", r.cfg.Spec))

	<-ctx.Done()
	stop := r.c.Stop()
	<-stop.Done()
	return nil
}

func (r *Reporter) send(ctx context.Context) {
	sctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	text, err := r.Render(sctx)
	if err != nil {
		r.log.Warn("daily report build failed", logx.Err(err))
		return
	}

	opt := &transport.SendOptions{ParseMode: "HTML"}
	for _, owner := range r.owners() {
		if _, err := r.gw.SendText(sctx, transport.ChatTarget{ChatID: owner}, text, opt); err != nil {
			r.log.Warn("daily report send failed", logx.Int64("owner", owner), logx.Err(err))
		}
	}
}

// Render builds the summary: today's deliveries and the all-time total.
func (r *Reporter) Render(ctx context.Context) (string, error) {
	total, err := r.stats.Total(ctx)
	if err != nil {
		return "", err
	}
	series, err := r.stats.SeriesByDay(ctx)
	if err != nil {
		return "", err
	}

	today := r.now().In(r.loc).Format(storage.DayLayout)
	var todayCount int64
	for _, dc := range series {
		if dc.Day == today {
			todayCount = dc.Count
			break
		}
	}

	head := tgui.JoinH("\n",
		"📊 "+tgui.B("LAPORAN MENFES"),
		tgui.Esc(today),
	)
	counts := tgui.JoinH("\n",
		"Hari ini: "+tgui.Code(strconv.FormatInt(todayCount, 10)),
		"Total: "+tgui.Code(strconv.FormatInt(total, 10)),
	)
	return string(head) + "\n\n" + string(counts), nil
}
