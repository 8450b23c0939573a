// Package platform adapts a discordgo session to the capability contract
// consumed by the game-role engine.
package platform

import (
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/dwarflabs/dwarfbot/pkg/errutil"
	"github.com/dwarflabs/dwarfbot/pkg/gameroles"
	"github.com/dwarflabs/dwarfbot/pkg/theme"
)

const introMessage = "Select the games you play below to receive the matching roles. " +
	"Your selection replaces any game roles you held before, so picking nothing clears them all."

// DiscordPlatform implements gameroles.Platform on top of discordgo.
type DiscordPlatform struct {
	session *discordgo.Session
}

// New wraps a connected session.
func New(s *discordgo.Session) *DiscordPlatform {
	return &DiscordPlatform{session: s}
}

// isNotFound reports whether err is a Discord 404 response.
func isNotFound(err error) bool {
	if restErr, ok := err.(*discordgo.RESTError); ok && restErr.Response != nil {
		return restErr.Response.StatusCode == http.StatusNotFound
	}
	return false
}

// Channel resolves a channel by id. A deleted channel yields a
// NotFoundError so callers can distinguish stale references from outages.
func (p *DiscordPlatform) Channel(channelID string) (gameroles.Channel, error) {
	ch, err := p.session.Channel(channelID)
	if err != nil {
		if isNotFound(err) {
			return gameroles.Channel{}, errutil.NewNotFoundError("channel", channelID)
		}
		return gameroles.Channel{}, errutil.NewPlatformError("fetch_channel", err)
	}
	return gameroles.Channel{ID: ch.ID, Name: ch.Name}, nil
}

// GuildTextChannels lists the guild's plain text channels.
func (p *DiscordPlatform) GuildTextChannels(guildID string) ([]gameroles.Channel, error) {
	channels, err := p.session.GuildChannels(guildID)
	if err != nil {
		return nil, errutil.NewPlatformError("fetch_guild_channels", err)
	}
	var out []gameroles.Channel
	for _, ch := range channels {
		if ch.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		out = append(out, gameroles.Channel{ID: ch.ID, Name: ch.Name})
	}
	return out, nil
}

// GuildRoles lists the guild's roles. The @everyone role shares the guild
// id and is excluded.
func (p *DiscordPlatform) GuildRoles(guildID string) ([]gameroles.Role, error) {
	roles, err := p.session.GuildRoles(guildID)
	if err != nil {
		return nil, errutil.NewPlatformError("fetch_guild_roles", err)
	}
	var out []gameroles.Role
	for _, r := range roles {
		if r.ID == guildID {
			continue
		}
		out = append(out, gameroles.Role{ID: r.ID, Name: r.Name, Managed: r.Managed})
	}
	return out, nil
}

// RecentMessages returns up to limit of the channel's newest messages,
// flagging the one that carries the role-selection dropdown.
func (p *DiscordPlatform) RecentMessages(channelID string, limit int) ([]gameroles.Message, error) {
	messages, err := p.session.ChannelMessages(channelID, limit, "", "", "")
	if err != nil {
		return nil, errutil.NewPlatformError("fetch_messages", err)
	}
	out := make([]gameroles.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, gameroles.Message{
			ID:            m.ID,
			HasSelectMenu: hasRoleSelectMenu(m.Components),
		})
	}
	return out, nil
}

func hasRoleSelectMenu(components []discordgo.MessageComponent) bool {
	for _, c := range components {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if menu, ok := inner.(*discordgo.SelectMenu); ok && menu.CustomID == gameroles.CustomIDSelectMenu {
				return true
			}
		}
	}
	return false
}

// SendIntro posts the explainer embed preceding the dropdown.
func (p *DiscordPlatform) SendIntro(channelID string) error {
	_, err := p.session.ChannelMessageSendEmbed(channelID, &discordgo.MessageEmbed{
		Title:       "Game Roles",
		Description: introMessage,
		Color:       theme.Info(),
	})
	if err != nil {
		return errutil.NewPlatformError("send_intro", err)
	}
	return nil
}

// SendMenu posts a fresh message carrying the dropdown.
func (p *DiscordPlatform) SendMenu(channelID string, options []gameroles.MenuOption) error {
	_, err := p.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Components: []discordgo.MessageComponent{buildMenuRow(options)},
	})
	if err != nil {
		return errutil.NewPlatformError("send_menu", err)
	}
	return nil
}

// EditMenu swaps the dropdown component of an existing message in place.
func (p *DiscordPlatform) EditMenu(channelID, messageID string, options []gameroles.MenuOption) error {
	components := []discordgo.MessageComponent{buildMenuRow(options)}
	_, err := p.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Components: &components,
	})
	if err != nil {
		if isNotFound(err) {
			return errutil.NewNotFoundError("message", messageID)
		}
		return errutil.NewPlatformError("edit_menu", err)
	}
	return nil
}

// DeleteMessage removes one message from a channel.
func (p *DiscordPlatform) DeleteMessage(channelID, messageID string) error {
	if err := p.session.ChannelMessageDelete(channelID, messageID); err != nil {
		if isNotFound(err) {
			return nil
		}
		return errutil.NewPlatformError("delete_message", err)
	}
	return nil
}

// MemberRoleIDs returns the ids of the roles a member currently holds.
func (p *DiscordPlatform) MemberRoleIDs(guildID, userID string) ([]string, error) {
	member, err := p.session.GuildMember(guildID, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, errutil.NewNotFoundError("member", userID)
		}
		return nil, errutil.NewPlatformError("fetch_member", err)
	}
	return member.Roles, nil
}

// AddMemberRole grants a role to a member.
func (p *DiscordPlatform) AddMemberRole(guildID, userID, roleID string) error {
	if err := p.session.GuildMemberRoleAdd(guildID, userID, roleID); err != nil {
		return errutil.NewPlatformError("add_member_role", err)
	}
	return nil
}

// RemoveMemberRole revokes a role from a member.
func (p *DiscordPlatform) RemoveMemberRole(guildID, userID, roleID string) error {
	if err := p.session.GuildMemberRoleRemove(guildID, userID, roleID); err != nil {
		return errutil.NewPlatformError("remove_member_role", err)
	}
	return nil
}

func buildMenuRow(options []gameroles.MenuOption) discordgo.ActionsRow {
	selectOptions := make([]discordgo.SelectMenuOption, 0, len(options))
	for _, opt := range options {
		option := discordgo.SelectMenuOption{
			Label: opt.Label,
			Value: opt.Value,
		}
		if opt.Emoji != "" {
			option.Emoji = &discordgo.ComponentEmoji{Name: opt.Emoji}
		}
		selectOptions = append(selectOptions, option)
	}

	placeholderOnly := len(options) == 1 && options[0].Value == gameroles.PlaceholderValue

	minValues := 0
	menu := discordgo.SelectMenu{
		CustomID:    gameroles.CustomIDSelectMenu,
		Placeholder: "Select the games you play",
		MinValues:   &minValues,
		MaxValues:   len(selectOptions),
		Options:     selectOptions,
		Disabled:    placeholderOnly,
	}

	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{menu},
	}
}
