package discord

import (
	"context"
	"errors"
	"testing"

	"github.com/PancyStudios/NucleoBotGo/pkg/discord/discordtest"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Platform = (*discordtest.Platform)(nil)

var (
	owner = &discordgo.User{ID: "owner-1", Username: "root"}
	mod   = &discordgo.User{ID: "mod-1", Username: "mod"}
)

type dispatchFixture struct {
	platform   *discordtest.Platform
	commands   *CommandCollection
	dispatcher *Dispatcher
	panics     []interface{}
	runs       int
}

func newDispatchFixture(t *testing.T) *dispatchFixture {
	t.Helper()
	fx := &dispatchFixture{
		platform: discordtest.NewPlatform(),
		commands: NewCommandCollection(),
	}
	fx.platform.AddGuild(&discordgo.Guild{ID: "g1", Name: "Nucleo", OwnerID: owner.ID})
	fx.dispatcher = NewDispatcher(fx.commands, fx.platform)
	fx.dispatcher.panics = func(origin string, r interface{}) {
		assert.Equal(t, "command", origin)
		fx.panics = append(fx.panics, r)
	}
	return fx
}

func (fx *dispatchFixture) register(cmd *Command) {
	fx.commands.Set(cmd.Name, cmd)
}

func (fx *dispatchFixture) dispatch(i *discordgo.InteractionCreate) Outcome {
	return fx.dispatcher.Dispatch(context.Background(), nil, i)
}

func TestDispatch_UnknownCommandIgnored(t *testing.T) {
	fx := newDispatchFixture(t)

	outcome := fx.dispatch(discordtest.Command("nope", "g1", mod, 0).Build())

	assert.Equal(t, OutcomeIgnored, outcome)
	assert.Empty(t, fx.platform.Responses)
}

func TestDispatch_NonCommandInteractionIgnored(t *testing.T) {
	fx := newDispatchFixture(t)
	i := discordtest.Command("info", "g1", mod, 0).Build()
	i.Type = discordgo.InteractionMessageComponent

	assert.Equal(t, OutcomeIgnored, fx.dispatch(i))
}

func TestDispatch_PermissionDenied(t *testing.T) {
	fx := newDispatchFixture(t)
	fx.register(NewCommand("nuke-chat", "Purga", "mod", func(ctx *CommandContext) error {
		fx.runs++
		return nil
	}).WithCapability(CapabilityManageMessages).AsDeferred().AsPrivate())

	outcome := fx.dispatch(discordtest.Command("nuke-chat", "g1", mod, discordgo.PermissionSendMessages).Build())

	assert.Equal(t, OutcomeDenied, outcome)
	assert.Equal(t, 0, fx.runs, "handler never runs on denial")
	require.Len(t, fx.platform.Responses, 1)
	resp := fx.platform.Responses[0]
	assert.Equal(t, "respond", resp.Kind, "denial is immediate, not deferred")
	assert.True(t, resp.Ephemeral)
	assert.Equal(t, msgNoPermission, resp.Content)
}

func TestDispatch_OwnerOnly(t *testing.T) {
	fx := newDispatchFixture(t)
	fx.register(NewCommand("system-isolation", "Aislamiento", "security", func(ctx *CommandContext) error {
		fx.runs++
		return ctx.Reply("ok")
	}).WithCapability(CapabilityGuildOwner).AsDeferred())

	// administrators are not owners
	outcome := fx.dispatch(discordtest.Command("system-isolation", "g1", mod, discordgo.PermissionAdministrator).Build())
	assert.Equal(t, OutcomeDenied, outcome)
	resp, _ := fx.platform.LastResponse()
	assert.Equal(t, msgOwnerRequired, resp.Content)

	outcome = fx.dispatch(discordtest.Command("system-isolation", "g1", owner, 0).Build())
	assert.Equal(t, OutcomeReplied, outcome)
	assert.Equal(t, 1, fx.runs)
}

func TestDispatch_AdministratorPassesAnyPermission(t *testing.T) {
	fx := newDispatchFixture(t)
	fx.register(NewCommand("lock-channel", "Bloqueo", "mod", func(ctx *CommandContext) error {
		return ctx.Reply("**CANAL**: CERRADO")
	}).WithCapability(CapabilityManageChannels))

	outcome := fx.dispatch(discordtest.Command("lock-channel", "g1", mod, discordgo.PermissionAdministrator).Build())
	assert.Equal(t, OutcomeReplied, outcome)
}

func TestDispatch_GatedCommandInDMDenied(t *testing.T) {
	fx := newDispatchFixture(t)
	fx.register(NewCommand("warn", "Warn", "mod", func(ctx *CommandContext) error {
		fx.runs++
		return nil
	}).WithCapability(CapabilityModerateMembers))

	assert.Equal(t, OutcomeDenied, fx.dispatch(discordtest.Command("warn", "", mod, 0).Build()))
	assert.Equal(t, 0, fx.runs)
}

func TestDispatch_DeferFailureStillAnswers(t *testing.T) {
	fx := newDispatchFixture(t)
	fx.register(NewCommand("nuke-chat", "Purga", "mod", func(ctx *CommandContext) error {
		fx.runs++
		return nil
	}).WithCapability(CapabilityManageMessages).AsDeferred())
	fx.platform.Errs["Defer"] = errors.New("429 Too Many Requests")

	outcome := fx.dispatch(discordtest.Command("nuke-chat", "g1", mod, discordgo.PermissionManageMessages).Build())

	assert.Equal(t, OutcomeFailed, outcome)
	assert.Equal(t, 0, fx.runs, "handler never runs without an acknowledgment")
	require.Len(t, fx.platform.Responses, 1)
	resp := fx.platform.Responses[0]
	assert.Equal(t, "respond", resp.Kind)
	assert.True(t, resp.Ephemeral)
	assert.Contains(t, resp.Content, "429 Too Many Requests")
}

func TestDispatch_DeferFailureFallsBackToFollowup(t *testing.T) {
	fx := newDispatchFixture(t)
	fx.register(NewCommand("nuke-chat", "Purga", "mod", func(ctx *CommandContext) error {
		return nil
	}).WithCapability(CapabilityManageMessages).AsDeferred())
	fx.platform.Errs["Respond"] = errors.New("Interaction has already been acknowledged")

	outcome := fx.dispatch(discordtest.Command("nuke-chat", "g1", mod, discordgo.PermissionManageMessages).Build())

	assert.Equal(t, OutcomeFailed, outcome)
	require.Len(t, fx.platform.Responses, 1)
	resp := fx.platform.Responses[0]
	assert.Equal(t, "followup", resp.Kind)
	assert.True(t, resp.Ephemeral)
	assert.Contains(t, resp.Content, "already been acknowledged")
}

func TestDispatch_DeferredReplyEditsAcknowledgment(t *testing.T) {
	fx := newDispatchFixture(t)
	fx.register(NewCommand("block-word", "Bloquea", "mod", func(ctx *CommandContext) error {
		return ctx.Reply(`**[DB_UPDATE]**: "spam" bloqueada.`)
	}).WithCapability(CapabilityManageMessages).AsDeferred().AsPrivate())

	outcome := fx.dispatch(discordtest.Command("block-word", "g1", mod, discordgo.PermissionManageMessages).Build())

	assert.Equal(t, OutcomeReplied, outcome)
	require.Len(t, fx.platform.Responses, 2)
	assert.Equal(t, "defer", fx.platform.Responses[0].Kind)
	assert.True(t, fx.platform.Responses[0].Ephemeral)
	assert.Equal(t, "edit", fx.platform.Responses[1].Kind)
	assert.Contains(t, fx.platform.Responses[1].Content, "bloqueada")
}

func TestDispatch_HandlerErrorBecomesPrivateReply(t *testing.T) {
	fx := newDispatchFixture(t)
	fx.register(NewCommand("lock-channel", "Bloqueo", "mod", func(ctx *CommandContext) error {
		return errors.New("Missing Permissions")
	}).WithCapability(CapabilityManageChannels).AsDeferred())

	outcome := fx.dispatch(discordtest.Command("lock-channel", "g1", mod, discordgo.PermissionManageChannels).Build())

	assert.Equal(t, OutcomeFailed, outcome)
	assert.Equal(t, 1, fx.platform.DeletedResponses, "the public acknowledgment is removed")
	resp, _ := fx.platform.LastResponse()
	assert.Equal(t, "followup", resp.Kind)
	assert.True(t, resp.Ephemeral)
	assert.Equal(t, "❌ Error interno: Missing Permissions", resp.Content)
	assert.Len(t, fx.platform.Answers(), 1, "exactly one visible answer")
}

func TestDispatch_PanicIsContained(t *testing.T) {
	fx := newDispatchFixture(t)
	fx.register(NewCommand("info", "Manual", "utils", func(ctx *CommandContext) error {
		var m map[string]int
		m["boom"]++
		return nil
	}))

	var outcome Outcome
	assert.NotPanics(t, func() {
		outcome = fx.dispatch(discordtest.Command("info", "g1", mod, 0).Build())
	})

	assert.Equal(t, OutcomeFailed, outcome)
	assert.Len(t, fx.panics, 1)
	resp, _ := fx.platform.LastResponse()
	assert.True(t, resp.Ephemeral)
	assert.Contains(t, resp.Content, "❌ Error interno:")
}

func TestDispatch_SilentHandlerGetsCompletionReply(t *testing.T) {
	fx := newDispatchFixture(t)
	fx.register(NewCommand("warns", "Consulta", "mod", func(ctx *CommandContext) error {
		return nil
	}).WithCapability(CapabilityModerateMembers).AsDeferred().AsPrivate())

	outcome := fx.dispatch(discordtest.Command("warns", "g1", mod, discordgo.PermissionModerateMembers).Build())

	assert.Equal(t, OutcomeReplied, outcome)
	resp, _ := fx.platform.LastResponse()
	assert.Equal(t, msgCompleted, resp.Content)
	assert.True(t, resp.Ephemeral)
}

func TestDispatch_ErrorAfterReplyUsesFollowup(t *testing.T) {
	fx := newDispatchFixture(t)
	fx.register(NewCommand("info", "Manual", "utils", func(ctx *CommandContext) error {
		if err := ctx.Reply("hola"); err != nil {
			return err
		}
		return errors.New("tarde")
	}))

	outcome := fx.dispatch(discordtest.Command("info", "g1", mod, 0).Build())

	assert.Equal(t, OutcomeFailed, outcome)
	answers := fx.platform.Answers()
	require.Len(t, answers, 2)
	assert.Equal(t, "respond", answers[0].Kind)
	assert.False(t, answers[0].Ephemeral)
	assert.Equal(t, "followup", answers[1].Kind)
	assert.True(t, answers[1].Ephemeral)
}

func TestCommandContext_Options(t *testing.T) {
	fx := newDispatchFixture(t)
	target := &discordgo.User{ID: "u9", Username: "target"}
	channel := &discordgo.Channel{ID: "c9", Name: "anuncios"}

	var gotUser *discordgo.User
	var gotChannel *discordgo.Channel
	var gotText string
	var gotCount int64
	var gotFlag bool
	fx.register(NewCommand("probe", "Opciones", "test", func(ctx *CommandContext) error {
		gotUser = ctx.GetUserOption("user")
		gotChannel = ctx.GetChannelOption("canal")
		gotText = ctx.GetStringOption("texto")
		gotCount = ctx.GetIntOption("cant")
		gotFlag = ctx.GetBoolOption("servidor")
		return ctx.Reply("ok")
	}))

	i := discordtest.Command("probe", "g1", mod, 0).
		User("user", target).
		Channel("canal", channel).
		String("texto", "hola").
		Int("cant", 42).
		Bool("servidor", true).
		Build()
	fx.dispatch(i)

	assert.Equal(t, "target", gotUser.Username, "users come from resolved data")
	assert.Equal(t, "anuncios", gotChannel.Name)
	assert.Equal(t, "hola", gotText)
	assert.Equal(t, int64(42), gotCount)
	assert.True(t, gotFlag)
}
