package games

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/dwarflabs/dwarfbot/pkg/discord/audit"
	"github.com/dwarflabs/dwarfbot/pkg/discord/commands/core"
	"github.com/dwarflabs/dwarfbot/pkg/gameroles"
	"github.com/dwarflabs/dwarfbot/pkg/names"
)

const (
	customIDEditModal = "edit_assoc_"

	modalFieldName  = "game_name"
	modalFieldEmoji = "game_emoji"
	modalFieldColor = "game_color"
)

// MenuCommands implements the /role_channel group: the selection-menu
// channel lifecycle, manual association and the modal edit flow.
type MenuCommands struct {
	service   *gameroles.Service
	actions   *audit.ActionLogger
	responder *core.ResponseManager
	embeds    core.EmbedBuilder
}

// NewMenuCommands creates the handler set.
func NewMenuCommands(service *gameroles.Service, actions *audit.ActionLogger) *MenuCommands {
	return &MenuCommands{service: service, actions: actions}
}

// RegisterCommands registers the /role_channel group and its modal.
func (mc *MenuCommands) RegisterCommands(router *core.CommandRouter) {
	mc.responder = router.GetResponder()

	group := core.NewGroupCommand("role_channel",
		"Manage the role-selection channel and game associations",
		router.GetPermissionChecker())

	group.AddSubCommand(core.NewSimpleSubCommand(
		"create", "Register a channel as the role-selection channel",
		[]*discordgo.ApplicationCommandOption{
			{
				Type:         discordgo.ApplicationCommandOptionChannel,
				Name:         "channel",
				Description:  "Channel that will host the selection menu",
				Required:     true,
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "name",
				Description: "Display name for the selection channel entry",
			},
		},
		mc.handleCreate, true, true,
	))
	group.AddSubCommand(core.NewSimpleSubCommand(
		"delete", "Unregister the role-selection channel",
		nil,
		mc.handleDelete, true, true,
	))
	group.AddSubCommand(core.NewSimpleSubCommand(
		"update", "Force a refresh of the selection menu",
		nil,
		mc.handleUpdate, true, true,
	))
	group.AddSubCommand(core.NewSimpleSubCommand(
		"edit", "Edit a game's name, emoji and role color",
		[]*discordgo.ApplicationCommandOption{
			{
				Type:         discordgo.ApplicationCommandOptionChannel,
				Name:         "channel",
				Description:  "Channel of the game to edit",
				Required:     true,
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
			},
		},
		mc.handleEdit, true, true,
	))
	group.AddSubCommand(core.NewSimpleSubCommand(
		"associate", "Pair an existing channel and role as a game",
		[]*discordgo.ApplicationCommandOption{
			{
				Type:         discordgo.ApplicationCommandOptionChannel,
				Name:         "channel",
				Description:  "Existing game channel",
				Required:     true,
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
			},
			{
				Type:        discordgo.ApplicationCommandOptionRole,
				Name:        "role",
				Description: "Existing game role",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "name",
				Description: "Display name (defaults to the channel name)",
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "emoji",
				Description: "Emoji shown in the selection menu",
			},
		},
		mc.handleAssociate, true, true,
	))

	router.RegisterCommand(group)
	router.RegisterModal(customIDEditModal, mc.handleEditModal)
}

func (mc *MenuCommands) handleCreate(ctx *core.Context) error {
	opts := core.NewOptionExtractor(core.GetSubCommandOptions(ctx.Interaction))

	channelID := opts.ChannelID("channel")
	if channelID == "" {
		return core.NewCommandError("Option 'channel' is required", true)
	}
	name := opts.String("name")
	if name == "" {
		name = "Role selection"
	}

	// Publishing the menu clears and reposts messages; acknowledge first.
	if err := mc.responder.DeferResponse(ctx.Interaction, false); err != nil {
		return err
	}

	if err := mc.service.RegisterMenuChannel(ctx.GuildID, channelID, name); err != nil {
		return commandErrorFrom(err)
	}

	outcome, err := mc.service.SyncMenu(ctx.GuildID)
	if err != nil {
		ctx.Logger.Error("Initial menu publish failed", "channelID", channelID, "error", err)
	}

	mc.actions.LogAction(ctx.GuildID, ctx.UserID, audit.ActionMenuRegistered, "<#"+channelID+">", "")

	embed := mc.embeds.Success("Selection channel registered",
		fmt.Sprintf("<#%s> now hosts the game selection menu (%s).", channelID, outcome))
	return mc.responder.EditComplex(ctx.Interaction, "", []*discordgo.MessageEmbed{embed}, nil)
}

func (mc *MenuCommands) handleDelete(ctx *core.Context) error {
	rec, ok := mc.service.Channels.MenuRecord(ctx.GuildID)
	if !ok {
		return core.NewCommandError("No role-selection channel is registered for this server", true)
	}

	if err := mc.service.DeleteMenuChannel(ctx.GuildID, rec.ChannelID); err != nil {
		return commandErrorFrom(err)
	}

	mc.actions.LogAction(ctx.GuildID, ctx.UserID, audit.ActionMenuDeleted, "<#"+rec.ChannelID+">", "")

	return mc.responder.WithConfig(core.ResponseConfig{WithEmbed: true, Title: "Selection channel removed"}).
		Success(ctx.Interaction,
			fmt.Sprintf("<#%s> is no longer the role-selection channel. The published menu was left in place.", rec.ChannelID))
}

func (mc *MenuCommands) handleUpdate(ctx *core.Context) error {
	if err := mc.responder.DeferResponse(ctx.Interaction, false); err != nil {
		return err
	}

	outcome, err := mc.service.SyncMenu(ctx.GuildID)
	if err != nil {
		ctx.Logger.Error("Forced menu refresh failed", "outcome", outcome.String(), "error", err)
		return core.NewCommandError("The selection menu could not be refreshed", true)
	}

	switch outcome {
	case gameroles.SyncNotApplicable:
		return core.NewCommandError("No role-selection channel is registered for this server", true)
	case gameroles.SyncStaleReference:
		return mc.responder.EditResponse(ctx.Interaction,
			"⚠️ The registered selection channel no longer exists. Register a new one with /role_channel create.")
	default:
		return mc.responder.EditResponse(ctx.Interaction,
			fmt.Sprintf("✅ Selection menu refreshed (%s).", outcome))
	}
}

func (mc *MenuCommands) handleEdit(ctx *core.Context) error {
	opts := core.NewOptionExtractor(core.GetSubCommandOptions(ctx.Interaction))

	channelID := opts.ChannelID("channel")
	rec, ok := mc.service.Channels.ByChannelID(ctx.GuildID, channelID)
	if !ok {
		return core.NewCommandError("That channel is not a registered game", true)
	}
	if rec.IsMenu() {
		return core.NewCommandError("The selection channel itself cannot be edited this way", true)
	}

	return mc.responder.ShowModal(ctx.Interaction, customIDEditModal+channelID,
		"Edit "+rec.Name,
		[]discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:  modalFieldName,
					Label:     "Game name",
					Style:     discordgo.TextInputShort,
					Value:     rec.Name,
					Required:  true,
					MaxLength: 100,
				},
			}},
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:  modalFieldEmoji,
					Label:     "Emoji",
					Style:     discordgo.TextInputShort,
					Value:     rec.Emoji,
					Required:  false,
					MaxLength: 8,
				},
			}},
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:    modalFieldColor,
					Label:       "Role color (hex)",
					Style:       discordgo.TextInputShort,
					Placeholder: "#5865F2",
					Required:    false,
					MaxLength:   7,
				},
			}},
		})
}

func (mc *MenuCommands) handleEditModal(ctx *core.Context, customID string) error {
	channelID := strings.TrimPrefix(customID, customIDEditModal)
	data := ctx.Interaction.ModalSubmitData()

	newName := core.ModalInputValue(data, modalFieldName)
	newEmoji := core.ModalInputValue(data, modalFieldEmoji)
	colorInput := core.ModalInputValue(data, modalFieldColor)

	// The edit cascades into a menu refresh plus channel and role renames.
	if err := mc.responder.DeferResponse(ctx.Interaction, true); err != nil {
		return err
	}

	rec, err := mc.service.EditAssociation(ctx.GuildID, channelID, newName, newEmoji)
	if err != nil {
		return commandErrorFrom(err)
	}

	// Keep the Discord side in step with the stored record.
	channelName := names.ToKebabKey(rec.Name)
	if rec.Emoji != "" && rec.Emoji != gameroles.DefaultEmoji {
		channelName = rec.Emoji + "・" + channelName
	}
	if _, err := ctx.Session.ChannelEdit(channelID, &discordgo.ChannelEdit{Name: channelName}); err != nil {
		ctx.Logger.Warn("Channel rename failed", "channelID", channelID, "error", err)
	}
	if rec.RoleID != "" {
		params := &discordgo.RoleParams{Name: rec.Name}
		if colorInput != "" {
			if color, err := parseHexColor(colorInput); err == nil {
				params.Color = &color
			}
		}
		if _, err := ctx.Session.GuildRoleEdit(ctx.GuildID, rec.RoleID, params); err != nil {
			ctx.Logger.Warn("Role update failed", "roleID", rec.RoleID, "error", err)
		}
	}

	mc.actions.LogAction(ctx.GuildID, ctx.UserID, audit.ActionGameUpdated, rec.Name,
		fmt.Sprintf("Edited via modal, channel <#%s>", channelID))

	return mc.responder.EditResponse(ctx.Interaction,
		fmt.Sprintf("✅ **%s** was updated.", rec.Name))
}

func (mc *MenuCommands) handleAssociate(ctx *core.Context) error {
	opts := core.NewOptionExtractor(core.GetSubCommandOptions(ctx.Interaction))

	channelID := opts.ChannelID("channel")
	roleID := opts.RoleID("role")
	if channelID == "" || roleID == "" {
		return core.NewCommandError("Both 'channel' and 'role' are required", true)
	}

	// Channel resolution plus the menu refresh can be slow.
	if err := mc.responder.DeferResponse(ctx.Interaction, false); err != nil {
		return err
	}

	name := opts.String("name")
	if name == "" {
		ch, err := ctx.Session.Channel(channelID)
		if err != nil {
			return core.NewCommandError("Could not resolve the channel", true)
		}
		name = ch.Name
	}
	emoji := opts.String("emoji")
	if emoji == "" {
		emoji = names.ExtractEmoji(name)
	}

	rec, err := mc.service.CreateAssociation(ctx.GuildID, channelID, roleID, name, emoji)
	if err != nil {
		return commandErrorFrom(err)
	}

	mc.actions.LogAction(ctx.GuildID, ctx.UserID, audit.ActionGameCreated, rec.Name,
		fmt.Sprintf("Manually associated <#%s> with <@&%s>", channelID, roleID))

	embed := mc.embeds.Success("Game associated",
		fmt.Sprintf("**%s**: <#%s> is now paired with <@&%s>.", rec.Name, channelID, roleID))
	return mc.responder.EditComplex(ctx.Interaction, "", []*discordgo.MessageEmbed{embed}, nil)
}
