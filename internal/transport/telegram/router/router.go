// Package router dispatches normalized updates to registered command,
// callback and intake handlers through a bounded worker pool.
package router

import (
	"context"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	rtsup "github.com/garpil124/menfes/internal/runtime/supervisor"
	kit "github.com/garpil124/menfes/internal/transport"
	logx "github.com/garpil124/menfes/pkg/logx"
)

type Access int

const (
	AccessEveryone Access = iota
	AccessOwnerOnly
)

type Command struct {
	Name        string // command word without the leading slash
	Description string
	Access      Access
	// GroupOnly commands refuse to run in private chats (destination
	// management happens inside the target group).
	GroupOnly bool
	Timeout   time.Duration
	Handle    HandlerFunc
}

type CallbackHandlerFunc func(ctx context.Context, req *Request, payload string) error

// CallbackRoute handles inline-button callbacks with data "ns:action:payload".
// Default access is owner-only.
type CallbackRoute struct {
	NS      string
	Action  string
	Access  Access
	Timeout time.Duration
	Handle  CallbackHandlerFunc
}

type Request struct {
	Update  kit.Update
	Chat    kit.ChatTarget
	FromID  int64
	Command string
	Args    []string
	Payload string
	ReqID   string

	Gateway kit.Gateway
	Logger  logx.Logger
	Owners  []int64
}

type Router struct {
	mu        sync.RWMutex
	commands  map[string]Command
	callbacks map[string]map[string]CallbackRoute
	intake    HandlerFunc
	owners    []int64

	gw  kit.Gateway
	log logx.Logger

	runMu   sync.Mutex
	running bool
	jobs    chan func()
}

func New(gw kit.Gateway, owners []int64, log logx.Logger) *Router {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Router{
		commands:  map[string]Command{},
		callbacks: map[string]map[string]CallbackRoute{},
		owners:    append([]int64(nil), owners...),
		gw:        gw,
		log:       log,
		jobs:      make(chan func(), 256),
	}
}

// SetOwners swaps the owner list used for access checks. Safe during
// hot-reload.
func (r *Router) SetOwners(owners []int64) {
	cp := append([]int64(nil), owners...)
	r.mu.Lock()
	r.owners = cp
	r.mu.Unlock()
}

func (r *Router) ownersSnapshot() []int64 {
	r.mu.RLock()
	cp := append([]int64(nil), r.owners...)
	r.mu.RUnlock()
	return cp
}

// Register installs the command and callback tables, replacing any previous
// registration, and publishes the Telegram command menu best-effort.
func (r *Router) Register(ctx context.Context, cmds []Command, cbs []CallbackRoute) {
	commands := make(map[string]Command, len(cmds))
	for _, c := range cmds {
		name := strings.TrimSpace(strings.TrimPrefix(c.Name, "/"))
		if name == "" || c.Handle == nil {
			continue
		}
		c.Name = name
		commands[name] = c
	}

	callbacks := map[string]map[string]CallbackRoute{}
	for _, cb := range cbs {
		ns := strings.TrimSpace(cb.NS)
		action := strings.TrimSpace(cb.Action)
		if ns == "" || action == "" || cb.Handle == nil {
			continue
		}
		if callbacks[ns] == nil {
			callbacks[ns] = map[string]CallbackRoute{}
		}
		callbacks[ns][action] = cb
	}

	r.mu.Lock()
	r.commands = commands
	r.callbacks = callbacks
	r.mu.Unlock()

	r.publishMenu(ctx, cmds)
}

// SetIntake installs the handler for non-command private messages
// (submissions).
func (r *Router) SetIntake(h HandlerFunc) {
	r.mu.Lock()
	r.intake = h
	r.mu.Unlock()
}

// DispatchLoop consumes updates until ctx is done or the channel closes.
// Handlers run on a bounded worker pool; a full queue answers "busy" instead
// of blocking the pump.
func (r *Router) DispatchLoop(ctx context.Context, updates <-chan kit.Update) error {
	workers := runtime.NumCPU()
	if workers < 2 {
		workers = 2
	}

	sup := rtsup.NewSupervisor(ctx,
		rtsup.WithLogger(r.log.With(logx.String("comp", "router"))),
		rtsup.WithCancelOnError(false),
	)
	r.setRunning(true)
	r.log.Info("dispatcher started", logx.Int("workers", workers))

	var closeOnce sync.Once
	closeJobs := func() {
		closeOnce.Do(func() {
			r.setRunning(false)
			close(r.jobs)
		})
	}

	for i := 0; i < workers; i++ {
		idx := i
		sup.GoRestart("router.worker."+strconv.Itoa(idx), func(c context.Context) error {
			for {
				select {
				case <-c.Done():
					return nil
				case job, ok := <-r.jobs:
					if !ok {
						return nil
					}
					if job == nil {
						continue
					}
					func() {
						defer func() {
							if rec := recover(); rec != nil {
								r.log.Error("panic in dispatch job",
									logx.Int("worker", idx),
									logx.Any("panic", rec),
									logx.String("stack", string(debug.Stack())))
							}
						}()
						job()
					}()
				}
			}
		},
			rtsup.WithRestartBackoff(200*time.Millisecond, 5*time.Second),
			rtsup.WithStopOnCleanExit(true),
		)
	}

	defer func() {
		closeJobs()
		wctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_ = sup.Wait(wctx)
		cancel()
		r.log.Info("dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			r.route(ctx, up)
		}
	}
}

func (r *Router) setRunning(v bool) {
	r.runMu.Lock()
	r.running = v
	r.runMu.Unlock()
}

// tryEnqueue never blocks and survives the jobs channel being closed during
// shutdown.
func (r *Router) tryEnqueue(fn func()) (ok bool) {
	if fn == nil {
		return false
	}
	defer func() {
		if rec := recover(); rec != nil {
			ok = false
		}
	}()
	select {
	case r.jobs <- fn:
		return true
	default:
		return false
	}
}

func (r *Router) route(ctx context.Context, up kit.Update) {
	switch up.Kind {
	case kit.UpdateMessage:
		r.routeMessage(ctx, up)
	case kit.UpdateCallback:
		r.routeCallback(ctx, up)
	}
}

func (r *Router) routeMessage(ctx context.Context, up kit.Update) {
	msg := up.Message
	if msg == nil {
		return
	}

	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		r.routeIntake(ctx, up)
		return
	}

	parts := strings.Fields(text)
	word := strings.TrimPrefix(parts[0], "/")
	if i := strings.IndexByte(word, '@'); i >= 0 {
		word = word[:i]
	}
	args := parts[1:]

	r.mu.RLock()
	cmd, ok := r.commands[word]
	r.mu.RUnlock()
	if !ok {
		// unknown commands in groups stay silent; in private, point at /start
		if msg.IsPrivate {
			_, _ = r.gw.SendText(ctx, kit.ChatTarget{ChatID: msg.ChatID}, "Perintah tidak dikenal. Coba /start", nil)
		}
		return
	}

	owners := r.ownersSnapshot()
	chat := kit.ChatTarget{ChatID: msg.ChatID}
	if cmd.Access == AccessOwnerOnly && !isOwner(msg.FromID, owners) {
		return
	}
	if cmd.GroupOnly && !msg.IsGroup {
		_, _ = r.gw.SendText(ctx, chat, "Gunakan di dalam grup.", nil)
		return
	}

	rid := newReqID()
	req := &Request{
		Update:  up,
		Chat:    chat,
		FromID:  msg.FromID,
		Command: cmd.Name,
		Args:    args,
		ReqID:   rid,
		Gateway: r.gw,
		Logger: r.log.With(
			logx.String("rid", rid),
			logx.Int64("chat_id", msg.ChatID),
			logx.Int64("from_id", msg.FromID),
			logx.String("cmd", cmd.Name),
		),
		Owners: owners,
	}

	final := Chain(cmd.Handle,
		MWPanicRecover(r.log),
		MWRequestLog(r.log),
		MWTimeout(cmd.Timeout),
	)
	if !r.tryEnqueue(func() { _ = final(ctx, req) }) {
		_, _ = r.gw.SendText(ctx, chat, "Sibuk, coba lagi.", nil)
	}
}

// routeIntake forwards non-command private messages to the submission
// handler. Group chatter is ignored.
func (r *Router) routeIntake(ctx context.Context, up kit.Update) {
	msg := up.Message
	if !msg.IsPrivate {
		return
	}

	r.mu.RLock()
	intake := r.intake
	r.mu.RUnlock()
	if intake == nil {
		return
	}

	rid := newReqID()
	req := &Request{
		Update:  up,
		Chat:    kit.ChatTarget{ChatID: msg.ChatID},
		FromID:  msg.FromID,
		Command: "intake",
		ReqID:   rid,
		Gateway: r.gw,
		Logger: r.log.With(
			logx.String("rid", rid),
			logx.Int64("chat_id", msg.ChatID),
			logx.Int64("from_id", msg.FromID),
			logx.String("cmd", "intake"),
		),
		Owners: r.ownersSnapshot(),
	}

	final := Chain(intake,
		MWPanicRecover(r.log),
		MWRequestLog(r.log),
		MWTimeout(30*time.Second),
	)
	if !r.tryEnqueue(func() { _ = final(ctx, req) }) {
		_, _ = r.gw.SendText(ctx, req.Chat, "Sibuk, coba lagi.", nil)
	}
}

func (r *Router) routeCallback(ctx context.Context, up kit.Update) {
	cb := up.Callback
	if cb == nil {
		return
	}

	parts := strings.SplitN(strings.TrimSpace(cb.Data), ":", 3)
	if len(parts) < 2 {
		return
	}
	ns, action := parts[0], parts[1]
	payload := ""
	if len(parts) == 3 {
		payload = parts[2]
	}

	r.mu.RLock()
	route, ok := r.callbacks[ns][action]
	r.mu.RUnlock()
	if !ok {
		return
	}

	owners := r.ownersSnapshot()
	if route.Access == AccessOwnerOnly && !isOwner(cb.FromID, owners) {
		_ = r.gw.AnswerCallback(ctx, cb.ID, "forbidden")
		return
	}

	rid := newReqID()
	req := &Request{
		Update:  up,
		Chat:    kit.ChatTarget{ChatID: cb.ChatID},
		FromID:  cb.FromID,
		Command: "cb:" + ns + ":" + action,
		Payload: payload,
		ReqID:   rid,
		Gateway: r.gw,
		Logger: r.log.With(
			logx.String("rid", rid),
			logx.Int64("chat_id", cb.ChatID),
			logx.Int64("from_id", cb.FromID),
			logx.String("cmd", "cb:"+ns+":"+action),
		),
		Owners: owners,
	}

	h := func(c context.Context, rq *Request) error { return route.Handle(c, rq, payload) }
	final := Chain(h,
		MWPanicRecover(r.log),
		MWRequestLog(r.log),
		MWTimeout(route.Timeout),
	)
	if !r.tryEnqueue(func() { _ = final(ctx, req) }) {
		_ = r.gw.AnswerCallback(ctx, cb.ID, "busy")
	}
}

func isOwner(id int64, owners []int64) bool {
	for _, o := range owners {
		if o == id {
			return true
		}
	}
	return false
}
