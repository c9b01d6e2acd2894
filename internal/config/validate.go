package config

import (
	"fmt"
	"time"
)

// Validate checks the fields the bot cannot run without. Duration and cron
// fields are checked where they are consumed.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if len(c.Telegram.OwnerUserIDs) == 0 {
		return fmt.Errorf("telegram.owner_user_ids must list at least one moderator")
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	if c.Telegram.PollTimeout != "" {
		if _, err := ParseDurationField("telegram.poll_timeout", c.Telegram.PollTimeout); err != nil {
			return err
		}
	}
	if c.Storage.BusyTimeout != "" {
		if _, err := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
			return err
		}
	}
	if c.Broadcast != nil && c.Broadcast.SendTimeout != "" {
		if _, err := ParseDurationField("broadcast.send_timeout", c.Broadcast.SendTimeout); err != nil {
			return err
		}
	}
	return nil
}

// Location resolves Timezone, defaulting to Asia/Jakarta when unset.
func (c *Config) Location() (*time.Location, error) {
	tz := c.Timezone
	if tz == "" {
		tz = "Asia/Jakarta"
	}
	return time.LoadLocation(tz)
}
