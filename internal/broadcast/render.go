package broadcast

import (
	"strings"

	"github.com/garpil124/menfes/internal/storage"
)

const broadcastHeader = "💌 𝙈𝙀𝙉𝙁𝙀𝙎 𝘽𝘼𝙍𝙐"

// render produces the canonical broadcast text: decorative header, the body,
// and a footer stamping the submission's local time with the zone
// abbreviation (e.g. "WIB" for Asia/Jakarta). Sent as plain text so user
// content needs no escaping.
func (e *Engine) render(sub storage.Submission) string {
	abbrev, _ := e.now().In(e.loc).Zone()

	var b strings.Builder
	b.WriteString(broadcastHeader)
	b.WriteString("\n\n")
	if body := strings.TrimSpace(sub.Body); body != "" {
		b.WriteString(body)
		b.WriteString("\n\n")
	}
	b.WriteString("🕒 ")
	b.WriteString(sub.SubmittedAt)
	if abbrev != "" {
		b.WriteString(" ")
		b.WriteString(abbrev)
	}
	return b.String()
}
