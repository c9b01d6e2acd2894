// Package handlers implements the bot's command surface, the submission
// intake, and the approval callback.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/garpil124/menfes/internal/broadcast"
	"github.com/garpil124/menfes/internal/queue"
	"github.com/garpil124/menfes/internal/stats"
	"github.com/garpil124/menfes/internal/storage"
	"github.com/garpil124/menfes/internal/transport"
	"github.com/garpil124/menfes/internal/transport/telegram/router"
	logx "github.com/garpil124/menfes/pkg/logx"
	"github.com/garpil124/menfes/pkg/tgui"
)

const helpUser = `📨 CARA MENFES:
Kirim teks / foto / video ke bot.
Pesan akan dikirim setelah owner approve.`

const helpOwner = `👑 PANEL OWNER

/addgroup → Tambah grup (jalankan di dalam grup)
/delgroup → Hapus grup
/groups → List grup
/pending → Lihat antrian
/stats → Total menfes
/graph → Grafik statistik`

// Deps bundles everything the handlers need.
type Deps struct {
	Store  storage.Store
	Queue  *queue.Queue
	Engine *broadcast.Engine
	Stats  *stats.Service
	Log    logx.Logger
}

// Commands returns the full command table.
func Commands(d Deps) []router.Command {
	return []router.Command{
		{
			Name:        "start",
			Description: "bantuan",
			Handle:      d.start,
		},
		{
			Name:        "addgroup",
			Description: "tambah grup tujuan",
			Access:      router.AccessOwnerOnly,
			GroupOnly:   true,
			Handle:      d.addGroup,
		},
		{
			Name:        "delgroup",
			Description: "hapus grup tujuan",
			Access:      router.AccessOwnerOnly,
			GroupOnly:   true,
			Handle:      d.delGroup,
		},
		{
			Name:        "groups",
			Description: "list grup tujuan",
			Access:      router.AccessOwnerOnly,
			Handle:      d.listGroups,
		},
		{
			Name:        "pending",
			Description: "lihat antrian menfes",
			Access:      router.AccessOwnerOnly,
			Handle:      d.pending,
		},
		{
			Name:        "stats",
			Description: "total menfes terkirim",
			Access:      router.AccessOwnerOnly,
			Handle:      d.statsTotal,
		},
		{
			Name:        "graph",
			Description: "grafik statistik",
			Access:      router.AccessOwnerOnly,
			Handle:      d.graph,
		},
	}
}

// Callbacks returns the inline-button routes.
func Callbacks(d Deps) []router.CallbackRoute {
	return []router.CallbackRoute{
		{
			NS:     queue.CallbackNS,
			Action: queue.CallbackApprove,
			Access: router.AccessOwnerOnly,
			Handle: d.approve,
		},
	}
}

func (d Deps) start(ctx context.Context, req *router.Request) error {
	text := helpUser
	for _, o := range req.Owners {
		if o == req.FromID {
			text = helpOwner
			break
		}
	}
	_, err := req.Gateway.SendText(ctx, req.Chat, text, nil)
	return err
}

func (d Deps) addGroup(ctx context.Context, req *router.Request) error {
	if err := d.Store.AddDestination(ctx, req.Chat.ChatID); err != nil {
		return fmt.Errorf("add destination: %w", err)
	}
	_, err := req.Gateway.SendText(ctx, req.Chat, "✅ Grup ditambahkan.", nil)
	return err
}

func (d Deps) delGroup(ctx context.Context, req *router.Request) error {
	if err := d.Store.RemoveDestination(ctx, req.Chat.ChatID); err != nil {
		return fmt.Errorf("remove destination: %w", err)
	}
	_, err := req.Gateway.SendText(ctx, req.Chat, "❌ Grup dihapus.", nil)
	return err
}

func (d Deps) listGroups(ctx context.Context, req *router.Request) error {
	chats, err := d.Store.ListDestinations(ctx)
	if err != nil {
		return fmt.Errorf("list destinations: %w", err)
	}
	if len(chats) == 0 {
		_, err = req.Gateway.SendText(ctx, req.Chat, "Belum ada grup.", nil)
		return err
	}

	lines := make([]string, 0, len(chats)+1)
	lines = append(lines, "📌 LIST GRUP:")
	for _, c := range chats {
		lines = append(lines, strconv.FormatInt(c, 10))
	}
	_, err = req.Gateway.SendText(ctx, req.Chat, strings.Join(lines, "\n"), nil)
	return err
}

func (d Deps) pending(ctx context.Context, req *router.Request) error {
	subs, err := d.Store.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("list pending: %w", err)
	}
	if len(subs) == 0 {
		_, err = req.Gateway.SendText(ctx, req.Chat, "Antrian kosong.", nil)
		return err
	}

	parts := make([]tgui.H, 0, len(subs)+1)
	parts = append(parts, "🗂 "+tgui.B("ANTRIAN MENFES"))
	for _, s := range subs {
		head := tgui.JoinH(" ",
			tgui.Code("#"+strconv.FormatInt(s.ID, 10)),
			tgui.I("["+string(s.Kind)+"]"),
			tgui.Esc(s.SubmittedAt),
		)
		entry := head + "\ndari " + tgui.Code(strconv.FormatInt(s.AuthorID, 10))
		if body := strings.TrimSpace(s.Body); body != "" {
			entry += "\n" + tgui.Quote(tgui.TruncRunes(body, 120))
		}
		parts = append(parts, entry)
	}
	_, err = req.Gateway.SendText(ctx, req.Chat, string(tgui.JoinH("\n\n", parts...)),
		&transport.SendOptions{ParseMode: "HTML"})
	return err
}

func (d Deps) statsTotal(ctx context.Context, req *router.Request) error {
	total, err := d.Stats.Total(ctx)
	if err != nil {
		return err
	}
	_, err = req.Gateway.SendText(ctx, req.Chat,
		fmt.Sprintf("📊 Total menfes terkirim: %d", total), nil)
	return err
}

func (d Deps) graph(ctx context.Context, req *router.Request) error {
	series, err := d.Stats.SeriesByDay(ctx)
	if err != nil {
		return err
	}
	png, err := stats.RenderChart(series)
	if errors.Is(err, stats.ErrNoData) {
		_, err = req.Gateway.SendText(ctx, req.Chat, "Belum ada data.", nil)
		return err
	}
	if err != nil {
		return err
	}
	_, err = req.Gateway.SendPhoto(ctx, req.Chat,
		transport.Media{Bytes: png, Name: "grafik.png"}, "Statistik Menfes", nil)
	return err
}
