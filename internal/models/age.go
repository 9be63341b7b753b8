package models

import (
	"time"

	"github.com/dustin/go-humanize"
)

// JustNow labels anything created within the last minute.
const JustNow = "just now"

// Age renders how long ago t happened relative to now, e.g. "3 hours ago".
func Age(t, now time.Time) string {
	if now.Sub(t) < time.Minute {
		return JustNow
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
