// Package audit records moderator actions: an embed in the guild's log
// channel, a mirror to the operator's master webhook and a row in the
// audit database.
package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dwarflabs/dwarfbot/pkg/log"
	"github.com/dwarflabs/dwarfbot/pkg/storage"
	"github.com/dwarflabs/dwarfbot/pkg/store"
	"github.com/dwarflabs/dwarfbot/pkg/theme"
)

// Action names recorded by the bot.
const (
	ActionGameCreated     = "game_created"
	ActionGameDeleted     = "game_deleted"
	ActionGameUpdated     = "game_updated"
	ActionGamesDetected   = "games_detected"
	ActionMenuRegistered  = "menu_registered"
	ActionMenuDeleted     = "menu_deleted"
	ActionLogChannelSet   = "log_channel_set"
	ActionRolesReconciled = "roles_reconciled"
)

// ActionLogger fans one moderator action out to every configured sink.
// Sink failures are logged and never propagate to the command handler.
type ActionLogger struct {
	session *discordgo.Session
	guilds  *store.GuildStore
	audit   *storage.AuditStore

	masterWebhookID    string
	masterWebhookToken string
	masterChannelID    string
}

// NewActionLogger creates an action logger. webhookURL and
// masterChannelID may be empty; the corresponding sink is skipped.
func NewActionLogger(session *discordgo.Session, guilds *store.GuildStore, audit *storage.AuditStore, webhookURL, masterChannelID string) *ActionLogger {
	id, token := parseWebhookURL(webhookURL)
	return &ActionLogger{
		session:            session,
		guilds:             guilds,
		audit:              audit,
		masterWebhookID:    id,
		masterWebhookToken: token,
		masterChannelID:    masterChannelID,
	}
}

// parseWebhookURL splits a Discord webhook URL into its id and token.
func parseWebhookURL(url string) (id, token string) {
	const marker = "/webhooks/"
	idx := strings.Index(url, marker)
	if idx < 0 {
		return "", ""
	}
	parts := strings.Split(strings.Trim(url[idx+len(marker):], "/"), "/")
	if len(parts) < 2 {
		return "", ""
	}
	return parts[0], parts[1]
}

// LogAction records one action. subject is the thing acted on (a game
// name, a channel), detail the free-form remainder.
func (al *ActionLogger) LogAction(guildID, userID, action, subject, detail string) {
	embed := al.buildEmbed(guildID, userID, action, subject, detail)

	al.sendToGuildLog(guildID, embed)
	al.sendToMaster(embed)

	if al.audit != nil {
		if err := al.audit.Append(storage.AuditEntry{
			GuildID: guildID,
			UserID:  userID,
			Action:  action,
			Subject: subject,
			Detail:  detail,
		}); err != nil {
			log.ErrorLoggerRaw().Error("Failed to persist audit entry",
				"guildID", guildID, "action", action, "error", err)
		}
	}
}

func (al *ActionLogger) buildEmbed(guildID, userID, action, subject, detail string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     titleForAction(action),
		Color:     colorForAction(action),
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Moderator", Value: formatUserLabel(userID), Inline: true},
			{Name: "Guild", Value: "`" + guildID + "`", Inline: true},
		},
	}
	if subject != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Subject", Value: subject, Inline: false,
		})
	}
	if detail != "" {
		embed.Description = detail
	}
	return embed
}

func (al *ActionLogger) sendToGuildLog(guildID string, embed *discordgo.MessageEmbed) {
	settings := al.guilds.Settings(guildID)
	if settings.LocalLogChannelID == "" {
		return
	}
	if _, err := al.session.ChannelMessageSendEmbed(settings.LocalLogChannelID, embed); err != nil {
		log.DiscordLogger().Warn("Failed to send guild log message",
			"guildID", guildID, "channelID", settings.LocalLogChannelID, "error", err)
	}
}

func (al *ActionLogger) sendToMaster(embed *discordgo.MessageEmbed) {
	if al.masterWebhookID != "" {
		_, err := al.session.WebhookExecute(al.masterWebhookID, al.masterWebhookToken, false, &discordgo.WebhookParams{
			Embeds: []*discordgo.MessageEmbed{embed},
		})
		if err == nil {
			return
		}
		log.DiscordLogger().Warn("Master webhook delivery failed", "error", err)
	}
	if al.masterChannelID != "" {
		if _, err := al.session.ChannelMessageSendEmbed(al.masterChannelID, embed); err != nil {
			log.DiscordLogger().Warn("Master channel delivery failed",
				"channelID", al.masterChannelID, "error", err)
		}
	}
}

func titleForAction(action string) string {
	switch action {
	case ActionGameCreated:
		return "Game created"
	case ActionGameDeleted:
		return "Game deleted"
	case ActionGameUpdated:
		return "Game updated"
	case ActionGamesDetected:
		return "Games detected"
	case ActionMenuRegistered:
		return "Selection channel registered"
	case ActionMenuDeleted:
		return "Selection channel removed"
	case ActionLogChannelSet:
		return "Log channel configured"
	case ActionRolesReconciled:
		return "Member roles updated"
	default:
		return action
	}
}

func colorForAction(action string) int {
	switch action {
	case ActionGameDeleted, ActionMenuDeleted:
		return theme.Warning()
	case ActionRolesReconciled:
		return theme.Info()
	default:
		return theme.Success()
	}
}

func formatUserLabel(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "Unknown"
	}
	return fmt.Sprintf("<@%s> (`%s`)", userID, userID)
}
