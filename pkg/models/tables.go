// Package models holds the records the moderation core reads and writes.
package models

import (
	"fmt"
)

// Table (or collection) names in the rule store
const (
	TableBlockedWords = "blocked_words"
	TableUserWarns    = "user_warns"
	TableSystemLogs   = "system_logs"
)

// Column names shared by more than one table
const (
	ColGuildID   = "guild_id"
	ColUserID    = "user_id"
	ColCreatedAt = "created_at"
)

// WarnRatio formats a warn count as "count/threshold"
func WarnRatio(count int) string {
	return fmt.Sprintf("%d/%d", count, WarnThreshold)
}
