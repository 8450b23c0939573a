package games

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/dwarflabs/dwarfbot/pkg/discord/audit"
	"github.com/dwarflabs/dwarfbot/pkg/discord/commands/core"
	"github.com/dwarflabs/dwarfbot/pkg/gameroles"
	"github.com/dwarflabs/dwarfbot/pkg/storage"
)

// InfoCommands implements /check and /logs: registry health reports and
// the per-guild log channel configuration.
type InfoCommands struct {
	service   *gameroles.Service
	actions   *audit.ActionLogger
	audit     *storage.AuditStore
	responder *core.ResponseManager
	embeds    core.EmbedBuilder
}

// NewInfoCommands creates the handler set.
func NewInfoCommands(service *gameroles.Service, actions *audit.ActionLogger, auditStore *storage.AuditStore) *InfoCommands {
	return &InfoCommands{service: service, actions: actions, audit: auditStore}
}

// RegisterCommands registers /check and /logs.
func (ic *InfoCommands) RegisterCommands(router *core.CommandRouter) {
	ic.responder = router.GetResponder()

	check := core.NewGroupCommand("check",
		"Verify that registered games still match the server",
		router.GetPermissionChecker())
	check.AddSubCommand(core.NewSimpleSubCommand(
		"channels", "List games whose channel no longer exists",
		nil, ic.handleCheckChannels, true, true,
	))
	check.AddSubCommand(core.NewSimpleSubCommand(
		"roles", "List games whose role is missing or gone",
		nil, ic.handleCheckRoles, true, true,
	))
	router.RegisterCommand(check)

	logs := core.NewGroupCommand("logs",
		"Configure where moderator actions are logged",
		router.GetPermissionChecker())
	logs.AddSubCommand(core.NewSimpleSubCommand(
		"set", "Set the channel that receives action logs",
		[]*discordgo.ApplicationCommandOption{
			{
				Type:         discordgo.ApplicationCommandOptionChannel,
				Name:         "channel",
				Description:  "Channel to receive action logs",
				Required:     true,
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
			},
		},
		ic.handleLogsSet, true, true,
	))
	logs.AddSubCommand(core.NewSimpleSubCommand(
		"show", "Show the logging configuration and recent actions",
		nil, ic.handleLogsShow, true, true,
	))
	router.RegisterCommand(logs)
}

func (ic *InfoCommands) handleCheckChannels(ctx *core.Context) error {
	records := ic.service.Channels.GameRecords(ctx.GuildID)
	if len(records) == 0 {
		return ic.responder.WithConfig(core.ResponseConfig{Ephemeral: true}).
			Info(ctx.Interaction, "No games are registered for this server.")
	}

	// One channel fetch per record; acknowledge before the scan.
	if err := ic.responder.DeferResponse(ctx.Interaction, false); err != nil {
		return err
	}

	var stale []string
	for _, rec := range records {
		if _, err := ctx.Session.Channel(rec.ChannelID); err != nil {
			stale = append(stale, fmt.Sprintf("**%s** (`%s`)", rec.Name, rec.ChannelID))
		}
	}

	if len(stale) == 0 {
		return ic.responder.EditResponse(ctx.Interaction,
			fmt.Sprintf("✅ All %d game channel(s) still exist.", len(records)))
	}
	embed := ic.embeds.Warning("Stale game channels",
		fmt.Sprintf("%d of %d registered channels no longer exist:\n%s",
			len(stale), len(records), strings.Join(stale, "\n")))
	return ic.responder.EditComplex(ctx.Interaction, "", []*discordgo.MessageEmbed{embed}, nil)
}

func (ic *InfoCommands) handleCheckRoles(ctx *core.Context) error {
	records := ic.service.Channels.GameRecords(ctx.GuildID)
	if len(records) == 0 {
		return ic.responder.WithConfig(core.ResponseConfig{Ephemeral: true}).
			Info(ctx.Interaction, "No games are registered for this server.")
	}

	if err := ic.responder.DeferResponse(ctx.Interaction, false); err != nil {
		return err
	}

	roles, err := ctx.Session.GuildRoles(ctx.GuildID)
	if err != nil {
		ctx.Logger.Error("Role listing failed", "error", err)
		return core.NewCommandError("Could not fetch the server's roles", true)
	}
	existing := make(map[string]bool, len(roles))
	for _, r := range roles {
		existing[r.ID] = true
	}

	var problems []string
	for _, rec := range records {
		switch {
		case rec.RoleID == "":
			problems = append(problems, fmt.Sprintf("**%s** has no role attached", rec.Name))
		case !existing[rec.RoleID]:
			problems = append(problems, fmt.Sprintf("**%s** points at a deleted role (`%s`)", rec.Name, rec.RoleID))
		}
	}

	if len(problems) == 0 {
		return ic.responder.EditResponse(ctx.Interaction,
			fmt.Sprintf("✅ All %d game role(s) are intact.", len(records)))
	}
	embed := ic.embeds.Warning("Game role problems",
		strings.Join(problems, "\n"))
	return ic.responder.EditComplex(ctx.Interaction, "", []*discordgo.MessageEmbed{embed}, nil)
}

func (ic *InfoCommands) handleLogsSet(ctx *core.Context) error {
	opts := core.NewOptionExtractor(core.GetSubCommandOptions(ctx.Interaction))
	channelID := opts.ChannelID("channel")
	if channelID == "" {
		return core.NewCommandError("Option 'channel' is required", true)
	}

	if err := ic.service.Guilds.SetLogChannel(ctx.GuildID, channelID); err != nil {
		return commandErrorFrom(err)
	}

	ic.actions.LogAction(ctx.GuildID, ctx.UserID, audit.ActionLogChannelSet, "<#"+channelID+">", "")

	return ic.responder.Success(ctx.Interaction,
		fmt.Sprintf("Moderator actions will be logged to <#%s>.", channelID))
}

func (ic *InfoCommands) handleLogsShow(ctx *core.Context) error {
	settings := ic.service.Guilds.Settings(ctx.GuildID)

	var b strings.Builder
	if settings.LocalLogChannelID != "" {
		fmt.Fprintf(&b, "Log channel: <#%s>\n", settings.LocalLogChannelID)
	} else {
		b.WriteString("Log channel: not configured\n")
	}
	if settings.RoleSelectionChannelID != "" {
		fmt.Fprintf(&b, "Selection channel: <#%s>\n", settings.RoleSelectionChannelID)
	} else {
		b.WriteString("Selection channel: not configured\n")
	}

	if ic.audit != nil {
		entries, err := ic.audit.Recent(ctx.GuildID, 5)
		if err != nil {
			ctx.Logger.Warn("Audit history lookup failed", "error", err)
		} else if len(entries) > 0 {
			b.WriteString("\nRecent actions:\n")
			for _, e := range entries {
				fmt.Fprintf(&b, "`%s` %s by <@%s>\n",
					e.CreatedAt.Format("2006-01-02 15:04"), e.Action, e.UserID)
			}
		}
	}

	embed := ic.embeds.Info("Logging configuration", b.String())
	return ic.responder.WithConfig(core.ResponseConfig{Ephemeral: true}).
		Custom(ctx.Interaction, "", []*discordgo.MessageEmbed{embed})
}
