package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/NucleoBotGo/pkg/errors"
	"github.com/PancyStudios/NucleoBotGo/pkg/logger"
	"github.com/PancyStudios/NucleoBotGo/pkg/models"
	"github.com/bwmarrin/discordgo"
)

const (
	// DefaultNoticeTTL is how long the filter notice stays in the channel
	DefaultNoticeTTL = 5 * time.Second
	// auditContentLimit caps the offending content copied into the audit entry
	auditContentLimit = 100
)

// MessageActions is the part of the platform the scanner needs
type MessageActions interface {
	DeleteMessage(channelID, messageID string) error
	SendMessage(channelID, content string) (*discordgo.Message, error)
	Channel(channelID string) (*discordgo.Channel, error)
}

// ScanResult describes what the scanner did with a message
type ScanResult struct {
	Matched bool
	Word    string
	Deleted bool
}

// Scanner checks inbound guild messages against the block-list
type Scanner struct {
	filter    *WordFilter
	audit     *AuditSink
	platform  MessageActions
	noticeTTL time.Duration
	afterFunc func(time.Duration, func())
}

// NewScanner creates a scanner; notices expire after DefaultNoticeTTL
func NewScanner(filter *WordFilter, audit *AuditSink, platform MessageActions) *Scanner {
	return &Scanner{
		filter:    filter,
		audit:     audit,
		platform:  platform,
		noticeTTL: DefaultNoticeTTL,
		afterFunc: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
}

// Scan evaluates one message. Bot messages and DMs are ignored.
func (s *Scanner) Scan(ctx context.Context, m *discordgo.Message) ScanResult {
	if m == nil || m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return ScanResult{}
	}

	word, hit := s.filter.Match(ctx, m.GuildID, m.Content)
	if !hit {
		return ScanResult{}
	}
	result := ScanResult{Matched: true, Word: word}

	if err := s.platform.DeleteMessage(m.ChannelID, m.ID); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo borrar el mensaje %s: %v", m.ID, err), "AutoMod")
	} else {
		result.Deleted = true
	}

	s.notify(m)

	details := fmt.Sprintf("MSG_DEL: %s en %s | %q", m.Author.String(), s.channelLabel(m.ChannelID), truncate(m.Content, auditContentLimit))
	s.audit.Record(ctx, models.AuditEventFilter, details, models.OperatorAutoMod, m.GuildID)

	logger.Info(fmt.Sprintf("Mensaje de %s filtrado por '%s'", m.Author.String(), word), "AutoMod")
	return result
}

// notify posts a notice mentioning the author and removes it after noticeTTL
func (s *Scanner) notify(m *discordgo.Message) {
	notice, err := s.platform.SendMessage(m.ChannelID, fmt.Sprintf("%s <@%s>, tu mensaje contenía una palabra bloqueada.", EmojiAlertRed, m.Author.ID))
	if err != nil || notice == nil {
		return
	}
	s.afterFunc(s.noticeTTL, func() {
		defer errors.RecoverMiddleware()()
		_ = s.platform.DeleteMessage(m.ChannelID, notice.ID)
	})
}

func (s *Scanner) channelLabel(channelID string) string {
	if ch, err := s.platform.Channel(channelID); err == nil && ch != nil && ch.Name != "" {
		return "#" + ch.Name
	}
	return "<#" + channelID + ">"
}

// truncate cuts s to at most n characters
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
