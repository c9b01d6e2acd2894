package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/garpil124/menfes/internal/broadcast"
	"github.com/garpil124/menfes/internal/queue"
	"github.com/garpil124/menfes/internal/storage"
	"github.com/garpil124/menfes/internal/transport/telegram/router"
	logx "github.com/garpil124/menfes/pkg/logx"
)

// Intake returns the handler for non-command private messages: every text,
// photo or video from a regular user becomes a queued submission. Messages
// from owners are ignored so the moderator can talk to the bot without
// confessing by accident.
func Intake(d Deps) router.HandlerFunc {
	return func(ctx context.Context, req *router.Request) error {
		msg := req.Update.Message
		if msg == nil {
			return nil
		}
		for _, o := range req.Owners {
			if o == req.FromID {
				return nil
			}
		}

		in := queue.Inbound{AuthorID: msg.FromID, Body: msg.Text}
		switch {
		case msg.PhotoID != "":
			in.Kind = storage.KindPhoto
			in.MediaRef = msg.PhotoID
		case msg.VideoID != "":
			in.Kind = storage.KindVideo
			in.MediaRef = msg.VideoID
		default:
			in.Kind = storage.KindText
		}

		id, err := d.Queue.Submit(ctx, in)
		if errors.Is(err, queue.ErrInvalid) {
			// unsupported content (e.g. a sticker caption-only update); stay quiet
			return nil
		}
		if err != nil {
			return fmt.Errorf("submit: %w", err)
		}

		d.Log.Info("submission queued", logx.Int64("id", id), logx.Int64("author", msg.FromID))
		_, err = req.Gateway.SendText(ctx, req.Chat, "✅ Menfes terkirim. Tunggu approve.", nil)
		return err
	}
}

// approve handles the moderator pressing the APPROVE button.
func (d Deps) approve(ctx context.Context, req *router.Request, payload string) error {
	id, err := strconv.ParseInt(strings.TrimSpace(payload), 10, 64)
	if err != nil {
		return d.answer(ctx, req, "Tidak ditemukan")
	}

	rep, err := d.Engine.Approve(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return d.answer(ctx, req, "Tidak ditemukan")
	}
	if err != nil {
		_ = d.answer(ctx, req, "Gagal")
		return err
	}

	_ = d.answer(ctx, req, "Approved")
	_, err = req.Gateway.SendText(ctx, req.Chat, broadcastSummary(rep), nil)
	return err
}

func (d Deps) answer(ctx context.Context, req *router.Request, text string) error {
	if req.Update.Callback == nil {
		return nil
	}
	return req.Gateway.AnswerCallback(ctx, req.Update.Callback.ID, text)
}

// broadcastSummary tells the moderator what happened, naming the chats that
// did not get the message.
func broadcastSummary(rep broadcast.Report) string {
	if len(rep.Failed) == 0 {
		return "✅ Berhasil dikirim ke semua grup & dipin."
	}

	lines := []string{
		fmt.Sprintf("⚠️ Terkirim ke %d grup, gagal di %d:", len(rep.Sent), len(rep.Failed)),
	}
	for _, chat := range rep.Failed {
		lines = append(lines, strconv.FormatInt(chat, 10))
	}
	return strings.Join(lines, "\n")
}
