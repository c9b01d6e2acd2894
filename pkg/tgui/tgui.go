// Package tgui provides small Telegram UI helpers: inline keyboard building,
// callback data packing ("ns:action:payload"), and HTML-safe text rendering
// for ParseMode="HTML".
package tgui

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Inline builds inline keyboards (ReplyMarkup) row by row.
type Inline struct {
	rm   *tele.ReplyMarkup
	rows []tele.Row
}

func NewInline() *Inline {
	return &Inline{rm: &tele.ReplyMarkup{}}
}

// Row appends one row of buttons.
func (i *Inline) Row(btn ...tele.Btn) *Inline {
	i.rows = append(i.rows, i.rm.Row(btn...))
	i.rm.Inline(i.rows...)
	return i
}

// Markup returns the assembled reply markup.
func (i *Inline) Markup() *tele.ReplyMarkup { return i.rm }

// Btn creates a callback button with raw callback_data. Build the data with
// Data() so routing stays consistent.
func Btn(text, data string) tele.Btn {
	return tele.Btn{Text: text, Data: data}
}

// Data formats inline callback data as "ns:action" or "ns:action:payload".
// Payload is carried verbatim; it must not contain ':' unless the consumer
// splits with SplitData (which keeps the payload tail intact).
func Data(ns, action, payload string) string {
	ns = strings.TrimSpace(ns)
	action = strings.TrimSpace(action)
	if payload == "" {
		return ns + ":" + action
	}
	return ns + ":" + action + ":" + payload
}

// SplitData is the inverse of Data. Payload keeps any embedded ':'.
func SplitData(data string) (ns, action, payload string) {
	parts := strings.SplitN(data, ":", 3)
	switch len(parts) {
	case 3:
		return parts[0], parts[1], parts[2]
	case 2:
		return parts[0], parts[1], ""
	default:
		return data, "", ""
	}
}
