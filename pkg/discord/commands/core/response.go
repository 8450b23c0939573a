package core

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dwarflabs/dwarfbot/pkg/theme"
)

// ResponseType classifies the interaction reply being sent.
type ResponseType int

const (
	ResponseSuccess ResponseType = iota
	ResponseError
	ResponseWarning
	ResponseInfo
)

// ResponseConfig configures the next reply.
type ResponseConfig struct {
	Ephemeral bool
	Title     string
	Color     int
	WithEmbed bool
	Timestamp bool
}

// ResponseManager sends every interaction reply the bot produces.
type ResponseManager struct {
	session *discordgo.Session
	config  ResponseConfig
}

// NewResponseManager creates a response manager for a session.
func NewResponseManager(session *discordgo.Session) *ResponseManager {
	return &ResponseManager{session: session}
}

// WithConfig returns a manager carrying config for the next reply.
func (rm *ResponseManager) WithConfig(config ResponseConfig) *ResponseManager {
	return &ResponseManager{session: rm.session, config: config}
}

// Success sends a success reply.
func (rm *ResponseManager) Success(i *discordgo.InteractionCreate, message string) error {
	return rm.sendResponse(i, message, ResponseSuccess)
}

// Error sends an error reply.
func (rm *ResponseManager) Error(i *discordgo.InteractionCreate, message string) error {
	return rm.sendResponse(i, message, ResponseError)
}

// Warning sends a warning reply.
func (rm *ResponseManager) Warning(i *discordgo.InteractionCreate, message string) error {
	return rm.sendResponse(i, message, ResponseWarning)
}

// Info sends an informational reply.
func (rm *ResponseManager) Info(i *discordgo.InteractionCreate, message string) error {
	return rm.sendResponse(i, message, ResponseInfo)
}

// Custom sends a reply with caller-built content and embeds.
func (rm *ResponseManager) Custom(i *discordgo.InteractionCreate, content string, embeds []*discordgo.MessageEmbed) error {
	var flags discordgo.MessageFlags
	if rm.config.Ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	return rm.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Embeds:     embeds,
			Flags:      flags,
		},
	})
}

func (rm *ResponseManager) sendResponse(i *discordgo.InteractionCreate, message string, responseType ResponseType) error {
	if rm.config.WithEmbed {
		return rm.sendEmbedResponse(i, message, responseType)
	}
	return rm.sendTextResponse(i, message, responseType)
}

func (rm *ResponseManager) sendTextResponse(i *discordgo.InteractionCreate, message string, responseType ResponseType) error {
	var flags discordgo.MessageFlags
	if rm.config.Ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	return rm.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    rm.formatTextMessage(message, responseType),
			Flags:      flags,
		},
	})
}

func (rm *ResponseManager) sendEmbedResponse(i *discordgo.InteractionCreate, message string, responseType ResponseType) error {
	embed := rm.createEmbed(message, responseType)

	var flags discordgo.MessageFlags
	if rm.config.Ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	return rm.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Flags:      flags,
		},
	})
}

func (rm *ResponseManager) formatTextMessage(message string, responseType ResponseType) string {
	switch responseType {
	case ResponseSuccess:
		return "✅ " + message
	case ResponseError:
		return "❌ " + message
	case ResponseWarning:
		return "⚠️ " + message
	case ResponseInfo:
		return "ℹ️ " + message
	default:
		return message
	}
}

func (rm *ResponseManager) createEmbed(message string, responseType ResponseType) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Description: message,
		Color:       rm.getColorForType(responseType),
	}

	if rm.config.Title != "" {
		embed.Title = rm.config.Title
	} else {
		embed.Title = rm.getTitleForType(responseType)
	}

	if rm.config.Timestamp {
		embed.Timestamp = time.Now().Format(time.RFC3339)
	}

	return embed
}

func (rm *ResponseManager) getColorForType(responseType ResponseType) int {
	if rm.config.Color != 0 {
		return rm.config.Color
	}

	switch responseType {
	case ResponseSuccess:
		return theme.Success()
	case ResponseError:
		return theme.Error()
	case ResponseWarning:
		return theme.Warning()
	case ResponseInfo:
		return theme.Info()
	default:
		return theme.Muted()
	}
}

func (rm *ResponseManager) getTitleForType(responseType ResponseType) string {
	switch responseType {
	case ResponseSuccess:
		return "Success"
	case ResponseError:
		return "Error"
	case ResponseWarning:
		return "Warning"
	case ResponseInfo:
		return "Information"
	default:
		return ""
	}
}

// DeferResponse acknowledges the interaction for longer processing.
func (rm *ResponseManager) DeferResponse(i *discordgo.InteractionCreate, ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	return rm.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: flags,
		},
	})
}

// EditResponse edits an already-sent reply.
func (rm *ResponseManager) EditResponse(i *discordgo.InteractionCreate, content string) error {
	_, err := rm.session.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
	return err
}

// EditComplex edits an already-sent reply with embeds and components.
func (rm *ResponseManager) EditComplex(i *discordgo.InteractionCreate, content string, embeds []*discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	edit := &discordgo.WebhookEdit{Content: &content}
	if embeds != nil {
		edit.Embeds = &embeds
	}
	if components != nil {
		edit.Components = &components
	}
	_, err := rm.session.InteractionResponseEdit(i.Interaction, edit)
	return err
}

// UpdateMessage replaces the message a component interaction came from.
func (rm *ResponseManager) UpdateMessage(i *discordgo.InteractionCreate, content string, embeds []*discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	return rm.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Embeds:     embeds,
			Components: components,
		},
	})
}

// ShowModal opens a modal form in response to the interaction.
func (rm *ResponseManager) ShowModal(i *discordgo.InteractionCreate, customID, title string, components []discordgo.MessageComponent) error {
	return rm.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   customID,
			Title:      title,
			Components: components,
		},
	})
}

