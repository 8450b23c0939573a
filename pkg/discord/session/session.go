package session

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/dwarflabs/dwarfbot/pkg/errutil"
	"github.com/dwarflabs/dwarfbot/pkg/log"
)

// NewDiscordSession creates and opens a Discord gateway session with the
// intents the bot needs: guild structure and member role updates.
func NewDiscordSession(token string) (*discordgo.Session, error) {
	if token == "" {
		return nil, fmt.Errorf("discord bot token is empty")
	}

	var s *discordgo.Session
	if err := errutil.HandleDiscordError("create_session", func() error {
		var sessionErr error
		s, sessionErr = discordgo.New("Bot " + token)
		return sessionErr
	}); err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	log.DiscordLogger().Info("Connecting to Discord...")
	if err := errutil.HandleDiscordError("connect", func() error {
		return s.Open()
	}); err != nil {
		return nil, fmt.Errorf("failed to connect to Discord: %w", err)
	}
	log.DiscordLogger().Info("Connected to Discord")

	return s, nil
}
