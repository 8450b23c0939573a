package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dwarflabs/dwarfbot/pkg/theme"
)

// OptionExtractor simplifies reading slash command options.
type OptionExtractor struct {
	options []*discordgo.ApplicationCommandInteractionDataOption
}

// NewOptionExtractor creates an extractor over the given options.
func NewOptionExtractor(options []*discordgo.ApplicationCommandInteractionDataOption) *OptionExtractor {
	return &OptionExtractor{options: options}
}

// String extracts a string option by name.
func (e *OptionExtractor) String(name string) string {
	for _, opt := range e.options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return strings.TrimSpace(opt.StringValue())
		}
	}
	return ""
}

// StringRequired extracts a required string option.
func (e *OptionExtractor) StringRequired(name string) (string, error) {
	value := e.String(name)
	if value == "" {
		return "", NewCommandError(fmt.Sprintf("Option '%s' is required", name), true)
	}
	return value, nil
}

// ChannelID extracts a channel option by name.
func (e *OptionExtractor) ChannelID(name string) string {
	for _, opt := range e.options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionChannel {
			if v, ok := opt.Value.(string); ok {
				return v
			}
		}
	}
	return ""
}

// RoleID extracts a role option by name.
func (e *OptionExtractor) RoleID(name string) string {
	for _, opt := range e.options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionRole {
			if v, ok := opt.Value.(string); ok {
				return v
			}
		}
	}
	return ""
}

// Bool extracts a boolean option by name.
func (e *OptionExtractor) Bool(name string) bool {
	for _, opt := range e.options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionBoolean {
			return opt.BoolValue()
		}
	}
	return false
}

// Int extracts an integer option by name.
func (e *OptionExtractor) Int(name string) int64 {
	for _, opt := range e.options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionInteger {
			return opt.IntValue()
		}
	}
	return 0
}

// HasOption checks whether an option was supplied.
func (e *OptionExtractor) HasOption(name string) bool {
	for _, opt := range e.options {
		if opt.Name == name {
			return true
		}
	}
	return false
}

// PermissionChecker gates management commands. A member qualifies when
// they hold both Manage Channels and Manage Roles, or Administrator.
type PermissionChecker struct {
	session *discordgo.Session
}

const managementPermissions = discordgo.PermissionManageChannels | discordgo.PermissionManageRoles

func NewPermissionChecker(session *discordgo.Session) *PermissionChecker {
	return &PermissionChecker{session: session}
}

// HasPermission checks whether the invoking member may use management
// commands. The interaction carries the member's computed permissions.
func (pc *PermissionChecker) HasPermission(i *discordgo.InteractionCreate) bool {
	if i.GuildID == "" || i.Member == nil {
		return false
	}
	perms := i.Member.Permissions
	if perms&discordgo.PermissionAdministrator != 0 {
		return true
	}
	return perms&managementPermissions == managementPermissions
}

// EmbedBuilder builds the standard embeds used across replies.
type EmbedBuilder struct{}

// Success creates a success embed.
func (EmbedBuilder) Success(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       theme.Success(),
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

// Error creates an error embed.
func (EmbedBuilder) Error(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       theme.Error(),
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

// Info creates an informational embed.
func (EmbedBuilder) Info(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       theme.Info(),
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

// Warning creates a warning embed.
func (EmbedBuilder) Warning(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       theme.Warning(),
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

// GetSubCommandName returns the invoked subcommand name, if any.
func GetSubCommandName(i *discordgo.InteractionCreate) string {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return ""
	}
	if options[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		return options[0].Name
	}
	return ""
}

// GetSubCommandOptions returns the options of the invoked subcommand.
func GetSubCommandOptions(i *discordgo.InteractionCreate) []*discordgo.ApplicationCommandInteractionDataOption {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 || options[0].Type != discordgo.ApplicationCommandOptionSubCommand {
		return nil
	}
	return options[0].Options
}

// ModalInputValue reads a text-input value out of a modal submission.
func ModalInputValue(data discordgo.ModalSubmitInteractionData, customID string) string {
	for _, row := range data.Components {
		actionsRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range actionsRow.Components {
			if input, ok := c.(*discordgo.TextInput); ok && input.CustomID == customID {
				return strings.TrimSpace(input.Value)
			}
		}
	}
	return ""
}

// CompareCommands compares two commands for semantic equality, used to
// skip redundant registration calls on startup.
func CompareCommands(a, b *discordgo.ApplicationCommand) bool {
	ca := struct {
		Name        string                                `json:"name"`
		Description string                                `json:"description"`
		Options     []*discordgo.ApplicationCommandOption `json:"options"`
	}{a.Name, a.Description, a.Options}
	cb := struct {
		Name        string                                `json:"name"`
		Description string                                `json:"description"`
		Options     []*discordgo.ApplicationCommandOption `json:"options"`
	}{b.Name, b.Description, b.Options}
	ba, _ := json.Marshal(ca)
	bb, _ := json.Marshal(cb)
	return string(ba) == string(bb)
}
