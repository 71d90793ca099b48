package models

// BlockedWord es una palabra bloqueada, global o limitada a un servidor.
// GuildID vacío significa alcance global.
type BlockedWord struct {
	Word    string `bson:"word" json:"word" gorm:"column:word;not null;uniqueIndex:idx_blocked_words_scope"`
	GuildID string `bson:"guild_id,omitempty" json:"guild_id,omitempty" gorm:"column:guild_id;uniqueIndex:idx_blocked_words_scope"`
}

// TableName fija el nombre de la tabla para gorm
func (BlockedWord) TableName() string { return TableBlockedWords }

// IsGlobal reports whether the word applies to every guild
func (b BlockedWord) IsGlobal() bool {
	return b.GuildID == ""
}

// AppliesTo reports whether the word is enforced in guildID
func (b BlockedWord) AppliesTo(guildID string) bool {
	return b.GuildID == "" || b.GuildID == guildID
}
