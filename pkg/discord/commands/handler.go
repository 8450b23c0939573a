// Package commands wires the bot's slash commands, buttons and modals
// onto a session.
package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/dwarflabs/dwarfbot/pkg/discord/audit"
	"github.com/dwarflabs/dwarfbot/pkg/discord/commands/core"
	"github.com/dwarflabs/dwarfbot/pkg/discord/commands/games"
	"github.com/dwarflabs/dwarfbot/pkg/gameroles"
	"github.com/dwarflabs/dwarfbot/pkg/log"
	"github.com/dwarflabs/dwarfbot/pkg/storage"
)

// CommandHandler coordinates registration of all bot commands.
type CommandHandler struct {
	session        *discordgo.Session
	service        *gameroles.Service
	actions        *audit.ActionLogger
	auditStore     *storage.AuditStore
	commandManager *core.CommandManager
	pending        *gameroles.ConfirmRegistry
}

// NewCommandHandler creates a CommandHandler.
func NewCommandHandler(
	session *discordgo.Session,
	service *gameroles.Service,
	actions *audit.ActionLogger,
	auditStore *storage.AuditStore,
) *CommandHandler {
	return &CommandHandler{
		session:    session,
		service:    service,
		actions:    actions,
		auditStore: auditStore,
		pending:    gameroles.NewConfirmRegistry(),
	}
}

// SetupCommands registers every command with the router and synchronizes
// them with Discord.
func (ch *CommandHandler) SetupCommands() error {
	log.ApplicationLogger().Info("Setting up bot commands...")

	ch.commandManager = core.NewCommandManager(ch.session)
	router := ch.commandManager.GetRouter()

	games.NewGameCommands(ch.service, ch.actions, ch.pending).RegisterCommands(router)
	games.NewMenuCommands(ch.service, ch.actions).RegisterCommands(router)
	games.NewInfoCommands(ch.service, ch.actions, ch.auditStore).RegisterCommands(router)
	games.NewSelectionHandler(ch.service, ch.actions).Register(router)

	if err := ch.commandManager.SetupCommands(); err != nil {
		return fmt.Errorf("failed to setup commands: %w", err)
	}

	log.ApplicationLogger().Info("Bot commands setup completed successfully")
	return nil
}

// GetCommandManager returns the command manager, for tests or extensions.
func (ch *CommandHandler) GetCommandManager() *core.CommandManager {
	return ch.commandManager
}
