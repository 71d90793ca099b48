// Package discord provides the event handler for managing Discord events.
package discord

import (
	"sync"

	"github.com/PancyStudios/NucleoBotGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// EventHandler manages event registration on the session
type EventHandler struct {
	client *ExtendedClient
	events []interface{}
	mu     sync.RWMutex
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(client *ExtendedClient) *EventHandler {
	return &EventHandler{
		client: client,
		events: make([]interface{}, 0),
	}
}

// RegisterEvent adds an event handler to the Discord session. discordgo only
// recognizes unnamed func types, so the typed helpers below convert first.
func (eh *EventHandler) RegisterEvent(handler interface{}) {
	eh.client.Session.AddHandler(handler)
	eh.mu.Lock()
	eh.events = append(eh.events, handler)
	eh.mu.Unlock()
}

// Count returns the number of registered handlers
func (eh *EventHandler) Count() int {
	eh.mu.RLock()
	defer eh.mu.RUnlock()
	return len(eh.events)
}

// ReadyHandler is called when the bot is ready
type ReadyHandler func(s *discordgo.Session, r *discordgo.Ready)

// GuildCreateHandler is called when the bot joins a guild
type GuildCreateHandler func(s *discordgo.Session, g *discordgo.GuildCreate)

// GuildDeleteHandler is called when the bot leaves a guild
type GuildDeleteHandler func(s *discordgo.Session, g *discordgo.GuildDelete)

// MessageCreateHandler is called when a message is created
type MessageCreateHandler func(s *discordgo.Session, m *discordgo.MessageCreate)

// DisconnectHandler is called when the gateway connection drops
type DisconnectHandler func(s *discordgo.Session, d *discordgo.Disconnect)

// ResumedHandler is called when the gateway session resumes
type ResumedHandler func(s *discordgo.Session, r *discordgo.Resumed)

// OnReady registers a ready event handler
func (eh *EventHandler) OnReady(handler ReadyHandler) {
	eh.RegisterEvent((func(*discordgo.Session, *discordgo.Ready))(handler))
	logger.Debug("Evento 'Ready' registrado", "EventHandler")
}

// OnGuildCreate registers a guild create event handler
func (eh *EventHandler) OnGuildCreate(handler GuildCreateHandler) {
	eh.RegisterEvent((func(*discordgo.Session, *discordgo.GuildCreate))(handler))
	logger.Debug("Evento 'GuildCreate' registrado", "EventHandler")
}

// OnGuildDelete registers a guild delete event handler
func (eh *EventHandler) OnGuildDelete(handler GuildDeleteHandler) {
	eh.RegisterEvent((func(*discordgo.Session, *discordgo.GuildDelete))(handler))
	logger.Debug("Evento 'GuildDelete' registrado", "EventHandler")
}

// OnMessageCreate registers a message create event handler
func (eh *EventHandler) OnMessageCreate(handler MessageCreateHandler) {
	eh.RegisterEvent((func(*discordgo.Session, *discordgo.MessageCreate))(handler))
	logger.Debug("Evento 'MessageCreate' registrado", "EventHandler")
}

// OnDisconnect registers a gateway disconnect handler
func (eh *EventHandler) OnDisconnect(handler DisconnectHandler) {
	eh.RegisterEvent((func(*discordgo.Session, *discordgo.Disconnect))(handler))
	logger.Debug("Evento 'Disconnect' registrado", "EventHandler")
}

// OnResumed registers a gateway resume handler
func (eh *EventHandler) OnResumed(handler ResumedHandler) {
	eh.RegisterEvent((func(*discordgo.Session, *discordgo.Resumed))(handler))
	logger.Debug("Evento 'Resumed' registrado", "EventHandler")
}
