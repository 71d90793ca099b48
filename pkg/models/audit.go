package models

import "time"

// AuditEvent is the kind of an audit log entry
type AuditEvent string

const (
	AuditEventFilter    AuditEvent = "FILTER"
	AuditEventWarn      AuditEvent = "WARN"
	AuditEventIsolation AuditEvent = "ISOLATION"
	AuditEventInfo      AuditEvent = "INFO"
)

// OperatorAutoMod identifies entries written by the message scanner
const OperatorAutoMod = "AUTO_MOD"

// AuditLogEntry es una entrada del registro de auditoría (solo se agrega, nunca se edita)
type AuditLogEntry struct {
	ID        string     `bson:"id" json:"id" gorm:"column:id;primaryKey"`
	Event     AuditEvent `bson:"event" json:"event" gorm:"column:event;not null;index"`
	Details   string     `bson:"details" json:"details" gorm:"column:details"`
	Operator  string     `bson:"operator" json:"operator" gorm:"column:operator"`
	GuildID   string     `bson:"guild_id,omitempty" json:"guild_id,omitempty" gorm:"column:guild_id;index"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at" gorm:"column:created_at;index"`
}

// TableName fija el nombre de la tabla para gorm
func (AuditLogEntry) TableName() string { return TableSystemLogs }
