// Package games implements the slash commands, buttons and modals of the
// game channel/role bot.
package games

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dwarflabs/dwarfbot/pkg/discord/audit"
	"github.com/dwarflabs/dwarfbot/pkg/discord/commands/core"
	"github.com/dwarflabs/dwarfbot/pkg/gameroles"
	"github.com/dwarflabs/dwarfbot/pkg/names"
)

const (
	customIDDetectConfirm = "detect_confirm"
	customIDDetectCancel  = "detect_cancel"
	customIDTakeRole      = "assign-role-"

	detectConfirmTTL  = 60 * time.Second
	takeRoleButtonTTL = 15 * time.Second
)

// GameCommands implements /create, /delete and /detect plus their
// component interactions.
type GameCommands struct {
	service   *gameroles.Service
	actions   *audit.ActionLogger
	pending   *gameroles.ConfirmRegistry
	responder *core.ResponseManager
	embeds    core.EmbedBuilder
}

// NewGameCommands creates the handler set.
func NewGameCommands(service *gameroles.Service, actions *audit.ActionLogger, pending *gameroles.ConfirmRegistry) *GameCommands {
	return &GameCommands{
		service: service,
		actions: actions,
		pending: pending,
	}
}

// RegisterCommands registers the commands and component handlers.
func (gc *GameCommands) RegisterCommands(router *core.CommandRouter) {
	gc.responder = router.GetResponder()

	router.RegisterCommand(core.NewSimpleCommand(
		"create",
		"Create a game: a private text channel, a role, and their pairing",
		[]*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "name",
				Description: "Name of the game",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "color",
				Description: "Role color as hex, e.g. #5865F2",
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "emoji",
				Description: "Emoji shown in the selection menu",
			},
		},
		gc.handleCreate, true, true,
	))

	router.RegisterCommand(core.NewSimpleCommand(
		"delete",
		"Delete a game: its channel, role and pairing",
		[]*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "name",
				Description: "Name of the game to delete",
				Required:    true,
			},
		},
		gc.handleDelete, true, true,
	))

	router.RegisterCommand(core.NewSimpleCommand(
		"detect",
		"Detect channel/role pairs that look like untracked games",
		[]*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "preview",
				Description: "Preview matches before applying (default true)",
			},
		},
		gc.handleDetect, true, true,
	))

	router.RegisterComponent(customIDDetectConfirm, gc.handleDetectButton)
	router.RegisterComponent(customIDDetectCancel, gc.handleDetectButton)
	router.RegisterComponent(customIDTakeRole, gc.handleTakeRoleButton)
}

func (gc *GameCommands) handleCreate(ctx *core.Context) error {
	opts := core.NewOptionExtractor(ctx.Interaction.ApplicationCommandData().Options)

	rawName, err := opts.StringRequired("name")
	if err != nil {
		return err
	}
	cleanName := names.ExtractCleanName(rawName)
	if cleanName == "" {
		return core.NewCommandError("The game name has no usable characters", true)
	}
	emoji := opts.String("emoji")
	if emoji == "" {
		emoji = names.ExtractEmoji(rawName)
	}

	color, err := parseHexColor(opts.String("color"))
	if err != nil {
		return core.NewCommandError("Invalid color, use hex like #5865F2", true)
	}

	// Role and channel creation plus the menu refresh take several REST
	// round-trips. Acknowledge before starting.
	if err := gc.responder.DeferResponse(ctx.Interaction, false); err != nil {
		return err
	}

	mentionable := true
	role, err := ctx.Session.GuildRoleCreate(ctx.GuildID, &discordgo.RoleParams{
		Name:        cleanName,
		Color:       &color,
		Mentionable: &mentionable,
	})
	if err != nil {
		ctx.Logger.Error("Role creation failed", "name", cleanName, "error", err)
		return core.NewCommandError("Could not create the role", true)
	}

	channelName := names.ToKebabKey(cleanName)
	if emoji != "" {
		channelName = emoji + "・" + channelName
	}
	channel, err := ctx.Session.GuildChannelCreateComplex(ctx.GuildID, discordgo.GuildChannelCreateData{
		Name: channelName,
		Type: discordgo.ChannelTypeGuildText,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			{
				ID:   ctx.GuildID, // @everyone
				Type: discordgo.PermissionOverwriteTypeRole,
				Deny: discordgo.PermissionViewChannel,
			},
			{
				ID:    role.ID,
				Type:  discordgo.PermissionOverwriteTypeRole,
				Allow: discordgo.PermissionViewChannel,
			},
		},
	})
	if err != nil {
		ctx.Logger.Error("Channel creation failed", "name", channelName, "error", err)
		if delErr := ctx.Session.GuildRoleDelete(ctx.GuildID, role.ID); delErr != nil {
			ctx.Logger.Warn("Rollback of created role failed", "roleID", role.ID, "error", delErr)
		}
		return core.NewCommandError("Could not create the channel", true)
	}

	rec, err := gc.service.CreateAssociation(ctx.GuildID, channel.ID, role.ID, cleanName, emoji)
	if err != nil {
		return commandErrorFrom(err)
	}

	gc.actions.LogAction(ctx.GuildID, ctx.UserID, audit.ActionGameCreated, rec.Name,
		fmt.Sprintf("Channel <#%s> paired with <@&%s>", channel.ID, role.ID))

	embed := gc.embeds.Success("Game created",
		fmt.Sprintf("**%s**\nChannel: <#%s>\nRole: <@&%s>", rec.Name, channel.ID, role.ID))

	button := discordgo.Button{
		Label:    "Take the " + rec.Name + " role",
		Style:    discordgo.PrimaryButton,
		CustomID: customIDTakeRole + role.ID,
	}
	if err := gc.responder.EditComplex(ctx.Interaction, "",
		[]*discordgo.MessageEmbed{embed},
		[]discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{button}},
		}); err != nil {
		return err
	}

	// The take-role shortcut is only offered briefly after creation.
	interaction := ctx.Interaction.Interaction
	session := ctx.Session
	time.AfterFunc(takeRoleButtonTTL, func() {
		empty := []discordgo.MessageComponent{}
		if _, err := session.InteractionResponseEdit(interaction, &discordgo.WebhookEdit{
			Components: &empty,
		}); err != nil {
			ctx.Logger.Warn("Failed to retire take-role button", "error", err)
		}
	})
	return nil
}

func (gc *GameCommands) handleDelete(ctx *core.Context) error {
	opts := core.NewOptionExtractor(ctx.Interaction.ApplicationCommandData().Options)

	name, err := opts.StringRequired("name")
	if err != nil {
		return err
	}
	key := names.ToKebabKey(names.ExtractCleanName(name))
	rec, ok := gc.service.Channels.ByKey(ctx.GuildID, key)
	if !ok {
		return core.NewCommandError(fmt.Sprintf("No game named '%s' is registered", name), true)
	}

	// Store delete, menu refresh and channel/role removal all hit the API.
	if err := gc.responder.DeferResponse(ctx.Interaction, false); err != nil {
		return err
	}

	if err := gc.service.DeleteAssociation(ctx.GuildID, rec.ChannelID); err != nil {
		return commandErrorFrom(err)
	}

	if _, err := ctx.Session.ChannelDelete(rec.ChannelID); err != nil {
		ctx.Logger.Warn("Game channel deletion failed", "channelID", rec.ChannelID, "error", err)
	}
	if rec.RoleID != "" {
		if err := ctx.Session.GuildRoleDelete(ctx.GuildID, rec.RoleID); err != nil {
			ctx.Logger.Warn("Game role deletion failed", "roleID", rec.RoleID, "error", err)
		}
	}

	gc.actions.LogAction(ctx.GuildID, ctx.UserID, audit.ActionGameDeleted, rec.Name,
		fmt.Sprintf("Removed channel `%s` and role `%s`", rec.ChannelID, rec.RoleID))

	embed := gc.embeds.Success("Game deleted",
		fmt.Sprintf("**%s** and its channel and role were removed.", rec.Name))
	return gc.responder.EditComplex(ctx.Interaction, "", []*discordgo.MessageEmbed{embed}, nil)
}

func (gc *GameCommands) handleDetect(ctx *core.Context) error {
	opts := core.NewOptionExtractor(ctx.Interaction.ApplicationCommandData().Options)
	preview := true
	if opts.HasOption("preview") {
		preview = opts.Bool("preview")
	}

	// Scanning the guild and applying matches both walk the REST API.
	if err := gc.responder.DeferResponse(ctx.Interaction, false); err != nil {
		return err
	}

	report, err := gc.service.Detect(ctx.GuildID)
	if err != nil {
		ctx.Logger.Error("Detection failed", "error", err)
		return core.NewCommandError("Could not scan the server for matches", true)
	}

	if len(report.Matches) == 0 {
		message := "ℹ️ No new channel/role pairs were found."
		if len(report.AlreadyTracked) > 0 {
			message += fmt.Sprintf(" %d pair(s) are already registered.", len(report.AlreadyTracked))
		}
		return gc.responder.EditResponse(ctx.Interaction, message)
	}

	if !preview {
		added, err := gc.service.ApplyMatches(ctx.GuildID, report.Matches)
		if err != nil {
			return commandErrorFrom(err)
		}
		gc.actions.LogAction(ctx.GuildID, ctx.UserID, audit.ActionGamesDetected, "",
			fmt.Sprintf("Registered %d detected game(s) without preview", added))
		return gc.responder.EditResponse(ctx.Interaction,
			fmt.Sprintf("✅ Registered %d detected game(s).", added))
	}

	embed := buildDetectEmbed(gc.embeds, report)
	if err := gc.responder.EditComplex(ctx.Interaction, "",
		[]*discordgo.MessageEmbed{embed},
		[]discordgo.MessageComponent{detectButtonsRow(false)}); err != nil {
		return err
	}

	reply, err := ctx.Session.InteractionResponse(ctx.Interaction.Interaction)
	if err != nil {
		ctx.Logger.Error("Could not resolve detection reply", "error", err)
		return nil
	}

	session := ctx.Session
	channelID := reply.ChannelID
	messageID := reply.ID
	pending := gameroles.NewPendingDetect(ctx.GuildID, ctx.UserID, report.Matches, detectConfirmTTL, func() {
		gc.pending.Remove(messageID)
		disabled := []discordgo.MessageComponent{detectButtonsRow(true)}
		if _, err := session.ChannelMessageEditComplex(&discordgo.MessageEdit{
			Channel:    channelID,
			ID:         messageID,
			Content:    strPtr("⏳ Detection proposal expired."),
			Components: &disabled,
		}); err != nil {
			ctx.Logger.Warn("Failed to mark detection as expired", "messageID", messageID, "error", err)
		}
	})
	gc.pending.Put(messageID, pending)
	return nil
}

func (gc *GameCommands) handleDetectButton(ctx *core.Context, customID string) error {
	messageID := ctx.Interaction.Message.ID
	pending, ok := gc.pending.Get(messageID)
	if !ok {
		return core.NewCommandError("This detection proposal is no longer active", true)
	}
	if pending.UserID != ctx.UserID {
		return core.NewCommandError("Only the moderator who ran /detect can decide this proposal", true)
	}

	if customID == customIDDetectCancel {
		if !pending.Cancel() {
			return core.NewCommandError("This detection proposal is no longer active", true)
		}
		gc.pending.Remove(messageID)
		return gc.responder.UpdateMessage(ctx.Interaction, "❌ Detection cancelled, nothing was registered.",
			nil, []discordgo.MessageComponent{})
	}

	matches, ok := pending.Confirm()
	if !ok {
		return core.NewCommandError("This detection proposal is no longer active", true)
	}
	gc.pending.Remove(messageID)

	added, err := gc.service.ApplyMatches(pending.GuildID, matches)
	if err != nil {
		return commandErrorFrom(err)
	}

	gc.actions.LogAction(pending.GuildID, ctx.UserID, audit.ActionGamesDetected, "",
		fmt.Sprintf("Registered %d detected game(s)", added))

	return gc.responder.UpdateMessage(ctx.Interaction,
		fmt.Sprintf("✅ Registered %d detected game(s).", added),
		nil, []discordgo.MessageComponent{})
}

func (gc *GameCommands) handleTakeRoleButton(ctx *core.Context, customID string) error {
	roleID := strings.TrimPrefix(customID, customIDTakeRole)
	if roleID == "" {
		return core.NewCommandError("This button is no longer valid", true)
	}

	if err := ctx.Session.GuildMemberRoleAdd(ctx.GuildID, ctx.UserID, roleID); err != nil {
		ctx.Logger.Error("Take-role grant failed", "roleID", roleID, "error", err)
		return core.NewCommandError("Could not grant the role", true)
	}
	return gc.responder.WithConfig(core.ResponseConfig{Ephemeral: true}).
		Success(ctx.Interaction, fmt.Sprintf("You now have the <@&%s> role.", roleID))
}

func detectButtonsRow(disabled bool) discordgo.ActionsRow {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Confirm",
				Style:    discordgo.SuccessButton,
				CustomID: customIDDetectConfirm,
				Disabled: disabled,
			},
			discordgo.Button{
				Label:    "Cancel",
				Style:    discordgo.DangerButton,
				CustomID: customIDDetectCancel,
				Disabled: disabled,
			},
		},
	}
}

func buildDetectEmbed(embeds core.EmbedBuilder, report gameroles.DetectReport) *discordgo.MessageEmbed {
	var b strings.Builder
	for _, m := range report.Matches {
		emoji := m.Emoji
		if emoji == "" {
			emoji = gameroles.DefaultEmoji
		}
		fmt.Fprintf(&b, "%s **%s** — <#%s> + <@&%s>\n", emoji, m.CleanName, m.Channel.ID, m.Role.ID)
	}
	if len(report.AlreadyTracked) > 0 {
		fmt.Fprintf(&b, "\n%d pair(s) already registered were skipped.", len(report.AlreadyTracked))
	}

	embed := embeds.Info(
		fmt.Sprintf("Detected %d possible game(s)", len(report.Matches)),
		b.String())
	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: "Confirm to register these pairings. This proposal expires in 60 seconds.",
	}
	return embed
}

// commandErrorFrom converts engine errors into the message shown to the
// moderator, keeping validation details intact.
func commandErrorFrom(err error) error {
	if err == nil {
		return nil
	}
	return core.NewCommandError(err.Error(), true)
}

func parseHexColor(input string) (int, error) {
	if input == "" {
		return 0x2ECC71, nil
	}
	cleaned := strings.TrimPrefix(strings.TrimSpace(input), "#")
	value, err := strconv.ParseInt(cleaned, 16, 32)
	if err != nil || value < 0 || value > 0xFFFFFF {
		return 0, fmt.Errorf("invalid hex color %q", input)
	}
	return int(value), nil
}

func strPtr(s string) *string { return &s }
