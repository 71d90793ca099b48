package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/NucleoBotGo/pkg/errors"
	"github.com/PancyStudios/NucleoBotGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// Outcome is the final state of one command interaction
type Outcome string

const (
	OutcomeIgnored Outcome = "ignored"
	OutcomeDenied  Outcome = "denied"
	OutcomeReplied Outcome = "replied"
	OutcomeFailed  Outcome = "failed"
)

const (
	msgOwnerRequired = "❌ Acceso denegado: Se requiere privilegios ROOT."
	msgNoPermission  = "❌ No tienes permisos."
	msgInternalError = "❌ Error interno: %s"
	msgCompleted     = "✅ Operación completada."
)

// Dispatcher routes application command interactions to registered commands.
// It checks the invoker's capability, acknowledges deferred commands, and
// turns handler errors and panics into a single private reply.
type Dispatcher struct {
	commands *CommandCollection
	platform Platform
	client   *ExtendedClient
	panics   func(origin string, recovered interface{})
}

// NewDispatcher creates a dispatcher over the command registry
func NewDispatcher(commands *CommandCollection, platform Platform) *Dispatcher {
	return &Dispatcher{
		commands: commands,
		platform: platform,
		panics:   errors.ReportPanic,
	}
}

// Handle is the discordgo handler for InteractionCreate events
func (d *Dispatcher) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	d.Dispatch(context.Background(), s, i)
}

// Dispatch runs one interaction through the dispatch state machine and
// returns its final state
func (d *Dispatcher) Dispatch(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) Outcome {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionApplicationCommand {
		return OutcomeIgnored
	}

	name := i.ApplicationCommandData().Name
	cmd, ok := d.commands.Get(name)
	if !ok {
		logger.Debug("Comando desconocido ignorado: "+name, "Dispatcher")
		commandsHandled.WithLabelValues("unknown", string(OutcomeIgnored)).Inc()
		return OutcomeIgnored
	}

	cctx := &CommandContext{
		Context:     ctx,
		Session:     s,
		Interaction: i,
		Client:      d.client,
		Platform:    d.platform,
		command:     cmd,
	}

	outcome := d.run(cmd, cctx)
	commandsHandled.WithLabelValues(cmd.Name, string(outcome)).Inc()
	return outcome
}

func (d *Dispatcher) run(cmd *Command, cctx *CommandContext) Outcome {
	if denial := d.authorize(cmd, cctx); denial != "" {
		user := cctx.User()
		if user != nil {
			logger.Warn(fmt.Sprintf("%s sin capacidad %s para /%s", user.String(), cmd.Capability, cmd.Name), "Dispatcher")
		}
		if err := cctx.private(&discordgo.InteractionResponseData{Content: denial}); err != nil {
			logger.Error("No se pudo responder la denegación: "+err.Error(), "Dispatcher")
		}
		return OutcomeDenied
	}

	if cmd.Timing == Deferred {
		if err := cctx.Defer(); err != nil {
			logger.Error(fmt.Sprintf("No se pudo diferir /%s: %v", cmd.Name, err), "Dispatcher")
			d.reportDeferFailure(cctx, err)
			return OutcomeFailed
		}
	}

	start := time.Now()
	err := d.invoke(cmd, cctx)
	commandDuration.WithLabelValues(cmd.Name).Observe(time.Since(start).Seconds())

	if err != nil {
		logger.Error(fmt.Sprintf("Error ejecutando /%s: %v", cmd.Name, err), "Dispatcher")
		if rerr := cctx.private(&discordgo.InteractionResponseData{Content: fmt.Sprintf(msgInternalError, err.Error())}); rerr != nil {
			logger.Error("No se pudo informar el error: "+rerr.Error(), "Dispatcher")
		}
		return OutcomeFailed
	}

	if !cctx.Replied() {
		if rerr := cctx.Reply(msgCompleted); rerr != nil {
			logger.Error("No se pudo enviar la respuesta final: "+rerr.Error(), "Dispatcher")
			return OutcomeFailed
		}
	}
	return OutcomeReplied
}

// reportDeferFailure tells the user the command did not run. The
// acknowledgment may or may not have reached Discord, so an immediate reply
// is tried first and a followup second.
func (d *Dispatcher) reportDeferFailure(cctx *CommandContext, cause error) {
	content := fmt.Sprintf(msgInternalError, cause.Error())
	err := cctx.private(&discordgo.InteractionResponseData{Content: content})
	if err == nil {
		return
	}
	if ferr := cctx.followup(&discordgo.InteractionResponseData{Content: content, Flags: discordgo.MessageFlagsEphemeral}); ferr != nil {
		logger.Error(fmt.Sprintf("No se pudo informar el fallo al usuario: %v; %v", err, ferr), "Dispatcher")
	}
}

// invoke runs the handler, converting a panic into an error
func (d *Dispatcher) invoke(cmd *Command, cctx *CommandContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.panics("command", r)
			err = fmt.Errorf("%v", r)
		}
	}()
	return cmd.Run(cctx)
}

// authorize returns the denial message, or "" when the invoker may run cmd
func (d *Dispatcher) authorize(cmd *Command, cctx *CommandContext) string {
	if cmd.Capability == CapabilityNone {
		return ""
	}

	denial := msgNoPermission
	if cmd.Capability == CapabilityGuildOwner {
		denial = msgOwnerRequired
	}

	member := cctx.Interaction.Member
	if cctx.Interaction.GuildID == "" || member == nil || member.User == nil {
		return denial
	}

	if cmd.Capability == CapabilityGuildOwner {
		guild, err := d.platform.Guild(cctx.Interaction.GuildID)
		if err != nil {
			logger.Warn("No se pudo obtener el servidor: "+err.Error(), "Dispatcher")
			return denial
		}
		if guild.OwnerID != member.User.ID {
			return denial
		}
		return ""
	}

	perms := member.Permissions
	if perms&discordgo.PermissionAdministrator != 0 {
		return ""
	}
	if perms&cmd.Capability.Permission() == 0 {
		return denial
	}
	return ""
}
