package models

import "time"

// WarnThreshold is the number of warnings shown as the escalation ceiling.
// Nothing happens automatically when it is reached.
const WarnThreshold = 3

// WarnRecord representa el contador de advertencias de un usuario en un servidor
type WarnRecord struct {
	UserID         string    `bson:"user_id" json:"user_id" gorm:"column:user_id;not null;uniqueIndex:idx_user_warns_scope"`
	GuildID        string    `bson:"guild_id,omitempty" json:"guild_id,omitempty" gorm:"column:guild_id;uniqueIndex:idx_user_warns_scope"`
	WarnCount      int       `bson:"warn_count" json:"warn_count" gorm:"column:warn_count;not null;default:0"`
	LastWarnReason string    `bson:"last_warn_reason" json:"last_warn_reason" gorm:"column:last_warn_reason"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at" gorm:"column:updated_at"`
}

// TableName fija el nombre de la tabla para gorm
func (WarnRecord) TableName() string { return TableUserWarns }

// Ratio renders the count against the threshold, e.g. "2/3"
func (w WarnRecord) Ratio() string {
	return WarnRatio(w.WarnCount)
}
