package config

type Config struct {
	Telegram TelegramConfig `json:"telegram"`

	// Timezone is the IANA zone used for submission timestamps, delivery
	// days and the daily report schedule (e.g. "Asia/Jakarta").
	Timezone string `json:"timezone,omitempty"`

	Logging   LoggingConfig    `json:"logging"`
	Storage   StorageConfig    `json:"storage"`
	Broadcast *BroadcastConfig `json:"broadcast,omitempty"`
	Report    *ReportConfig    `json:"report,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// OwnerUserIDs lists moderator user ids. Only these users may approve
	// submissions and manage destinations.
	OwnerUserIDs []int64 `json:"owner_user_ids"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig controls the SQLite persistence layer.
//
// Example:
//
//	"storage": { "path": "./menfes.db" }
type StorageConfig struct {
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string
}

// BroadcastConfig tunes the fan-out engine.
//
// Defaults (when fields are omitted/zero):
//   - rate_per_sec: 20 (Telegram flood-control headroom)
//   - send_timeout: "30s" per destination
type BroadcastConfig struct {
	RatePerSec  int    `json:"rate_per_sec,omitempty"`
	SendTimeout string `json:"send_timeout,omitempty"`
}

// ReportConfig controls the scheduled delivery-statistics summary sent to
// the moderator.
type ReportConfig struct {
	Enabled bool `json:"enabled"`
	// Cron is a standard 5-field cron spec evaluated in Timezone.
	// Default "0 9 * * *" (daily at 09:00).
	Cron string `json:"cron,omitempty"`
}
