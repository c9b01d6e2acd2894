package transport

import "context"

type UpdateKind string

const (
	UpdateMessage  UpdateKind = "message"
	UpdateCallback UpdateKind = "callback"
)

type Update struct {
	Kind     UpdateKind
	Message  *Message
	Callback *Callback
}

// Message is an inbound chat message normalized across modalities.
// Text carries the plain text for text messages and the caption for media.
type Message struct {
	ID           int
	ChatID       int64
	FromID       int64
	FromUsername string
	Text         string
	PhotoID      string // platform file reference when a photo is attached
	VideoID      string // platform file reference when a video is attached
	IsGroup      bool
	IsPrivate    bool
}

type Callback struct {
	ID        string
	FromID    int64
	ChatID    int64
	MessageID int
	Data      string
}

type ChatTarget struct {
	ChatID int64
}

type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Media references content to send: either an opaque platform file reference
// (re-sending something a user uploaded) or raw bytes (e.g. a rendered chart).
type Media struct {
	FileID string
	Bytes  []byte
	Name   string
}

type SendOptions struct {
	ParseMode          string
	DisablePreview     bool
	ReplyMarkupAdapter any // adapter-specific markup (Telegram: *telebot.ReplyMarkup)
}

// Gateway abstracts the chat platform. Every call is a blocking network
// operation and honors ctx cancellation.
type Gateway interface {
	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error

	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
	SendPhoto(ctx context.Context, to ChatTarget, media Media, caption string, opt *SendOptions) (MessageRef, error)
	SendVideo(ctx context.Context, to ChatTarget, media Media, caption string, opt *SendOptions) (MessageRef, error)

	// Pin pins an already-sent message. UnpinAll clears every pin in a chat.
	// Both may fail for permission reasons; callers treat them as best-effort.
	Pin(ctx context.Context, ref MessageRef) error
	UnpinAll(ctx context.Context, to ChatTarget) error

	AnswerCallback(ctx context.Context, callbackID string, text string) error
}

// BotCommand represents a single bot command menu entry.
type BotCommand struct {
	Command     string
	Description string
}

// CommandMenuUpdater is an optional interface that adapters can implement
// to publish platform-specific bot command menus.
type CommandMenuUpdater interface {
	UpdateMenuCommands(ctx context.Context, cmds []BotCommand) error
}
