package core

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/dwarflabs/dwarfbot/pkg/log"
)

// CommandRouter routes interactions to the registered handlers.
type CommandRouter struct {
	registry    *CommandRegistry
	responder   *ResponseManager
	permChecker *PermissionChecker

	componentHandlers map[string]ComponentHandler // keyed by custom id prefix
	modalHandlers     map[string]ModalHandler
}

// NewCommandRouter creates a router bound to a session.
func NewCommandRouter(session *discordgo.Session) *CommandRouter {
	return &CommandRouter{
		registry:          NewCommandRegistry(),
		responder:         NewResponseManager(session),
		permChecker:       NewPermissionChecker(session),
		componentHandlers: make(map[string]ComponentHandler),
		modalHandlers:     make(map[string]ModalHandler),
	}
}

// RegisterCommand registers a slash command.
func (cr *CommandRouter) RegisterCommand(cmd Command) {
	cr.registry.Register(cmd)
}

// RegisterComponent registers a handler for button or select-menu custom
// ids starting with prefix.
func (cr *CommandRouter) RegisterComponent(prefix string, handler ComponentHandler) {
	cr.componentHandlers[prefix] = handler
}

// RegisterModal registers a handler for modal custom ids starting with
// prefix.
func (cr *CommandRouter) RegisterModal(prefix string, handler ModalHandler) {
	cr.modalHandlers[prefix] = handler
}

// HandleInteraction routes an incoming interaction to its handler.
func (cr *CommandRouter) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		cr.handleSlashCommand(s, i)
	case discordgo.InteractionMessageComponent:
		cr.handleComponent(s, i)
	case discordgo.InteractionModalSubmit:
		cr.handleModal(s, i)
	}
}

func (cr *CommandRouter) buildContext(s *discordgo.Session, i *discordgo.InteractionCreate) *Context {
	userID := ""
	if i.Member != nil && i.Member.User != nil {
		userID = i.Member.User.ID
	} else if i.User != nil {
		userID = i.User.ID
	}

	return &Context{
		Session:     s,
		Interaction: i,
		Logger:      log.DiscordLogger().With("guildID", i.GuildID, "userID", userID),
		GuildID:     i.GuildID,
		UserID:      userID,
	}
}

func (cr *CommandRouter) handleSlashCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := cr.buildContext(s, i)
	commandName := i.ApplicationCommandData().Name

	cmd, exists := cr.registry.GetCommand(commandName)
	if !exists {
		ctx.Logger.Error("Command not found", "command", commandName)
		cr.responder.Error(i, "Command not found")
		return
	}

	if cmd.RequiresGuild() && ctx.GuildID == "" {
		cr.responder.Error(i, "This command can only be used in a server")
		return
	}

	if cmd.RequiresPermissions() && !cr.permChecker.HasPermission(i) {
		ctx.Logger.Warn("User without permission tried to use command", "command", commandName)
		cr.responder.WithConfig(ResponseConfig{Ephemeral: true}).
			Error(i, "You do not have permission to use this command")
		return
	}

	ctx.Logger.Info("Executing command", "command", commandName)
	if err := cmd.Handle(ctx); err != nil {
		cr.replyError(ctx, err, "command", commandName)
	}
}

func (cr *CommandRouter) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := cr.buildContext(s, i)
	customID := i.MessageComponentData().CustomID

	handler, ok := cr.lookupComponent(customID)
	if !ok {
		ctx.Logger.Warn("No handler for component", "customID", customID)
		return
	}

	if err := handler(ctx, customID); err != nil {
		cr.replyError(ctx, err, "component", customID)
	}
}

func (cr *CommandRouter) handleModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := cr.buildContext(s, i)
	customID := i.ModalSubmitData().CustomID

	for prefix, handler := range cr.modalHandlers {
		if strings.HasPrefix(customID, prefix) {
			if err := handler(ctx, customID); err != nil {
				cr.replyError(ctx, err, "modal", customID)
			}
			return
		}
	}
	ctx.Logger.Warn("No handler for modal", "customID", customID)
}

func (cr *CommandRouter) lookupComponent(customID string) (ComponentHandler, bool) {
	for prefix, handler := range cr.componentHandlers {
		if strings.HasPrefix(customID, prefix) {
			return handler, true
		}
	}
	return nil, false
}

func (cr *CommandRouter) replyError(ctx *Context, err error, kind, name string) {
	ctx.Logger.Error("Interaction handler failed", kind, name, "error", err)

	message := "An error occurred while executing this action"
	ephemeral := true
	if cmdErr, ok := err.(*CommandError); ok {
		message = cmdErr.Message
		ephemeral = cmdErr.Ephemeral
	}

	respondErr := cr.responder.WithConfig(ResponseConfig{Ephemeral: ephemeral}).
		Error(ctx.Interaction, message)
	if respondErr == nil {
		return
	}
	// The initial response was already sent, usually a deferral; edit it
	// instead of responding again.
	if editErr := cr.responder.EditResponse(ctx.Interaction, "❌ "+message); editErr != nil {
		ctx.Logger.Error("Could not deliver the error reply", "error", editErr)
	}
}

// GetResponder returns the router's response manager.
func (cr *CommandRouter) GetResponder() *ResponseManager {
	return cr.responder
}

// GetPermissionChecker returns the permission checker.
func (cr *CommandRouter) GetPermissionChecker() *PermissionChecker {
	return cr.permChecker
}

// CommandManager owns the command lifecycle against the Discord API.
type CommandManager struct {
	session *discordgo.Session
	router  *CommandRouter
}

// NewCommandManager creates a manager with a fresh router.
func NewCommandManager(session *discordgo.Session) *CommandManager {
	return &CommandManager{
		session: session,
		router:  NewCommandRouter(session),
	}
}

// GetRouter returns the command router.
func (cm *CommandManager) GetRouter() *CommandRouter {
	return cm.router
}

// SetupCommands registers the interaction handler and synchronizes the
// registered commands with Discord incrementally: unchanged commands are
// skipped, changed ones edited, new ones created and orphans removed.
func (cm *CommandManager) SetupCommands() error {
	cm.session.AddHandler(cm.router.HandleInteraction)

	registered, err := cm.session.ApplicationCommands(cm.session.State.User.ID, "")
	if err != nil {
		return fmt.Errorf("failed to fetch registered commands: %w", err)
	}

	regByName := make(map[string]*discordgo.ApplicationCommand, len(registered))
	for _, rc := range registered {
		regByName[rc.Name] = rc
	}

	codeCommands := cm.router.registry.GetAllCommands()
	logger := log.ApplicationLogger()

	created, updated, unchanged := 0, 0, 0
	for name, cmd := range codeCommands {
		desired := &discordgo.ApplicationCommand{
			Name:        cmd.Name(),
			Description: cmd.Description(),
			Options:     cmd.Options(),
		}

		if existing, ok := regByName[name]; ok {
			if CompareCommands(existing, desired) {
				unchanged++
				continue
			}
			if _, err := cm.session.ApplicationCommandEdit(cm.session.State.User.ID, "", existing.ID, desired); err != nil {
				return fmt.Errorf("error updating command '%s': %w", name, err)
			}
			logger.Info("Command updated", "command", name)
			updated++
		} else {
			if _, err := cm.session.ApplicationCommandCreate(cm.session.State.User.ID, "", desired); err != nil {
				return fmt.Errorf("error creating command '%s': %w", name, err)
			}
			logger.Info("Command created", "command", name)
			created++
		}
	}

	deleted := 0
	for _, rc := range registered {
		if _, exists := codeCommands[rc.Name]; !exists {
			if err := cm.session.ApplicationCommandDelete(cm.session.State.User.ID, "", rc.ID); err != nil {
				logger.Warn("Error removing orphan command", "command", rc.Name, "error", err)
				continue
			}
			logger.Info("Orphan command removed", "command", rc.Name)
			deleted++
		}
	}

	logger.Info("Command synchronization completed",
		"created", created, "updated", updated, "deleted", deleted,
		"unchanged", unchanged, "total", len(codeCommands))

	return nil
}

// GroupCommand is a command made of subcommands.
type GroupCommand struct {
	name        string
	description string
	subcommands map[string]SubCommand
	checker     *PermissionChecker
}

// NewGroupCommand creates an empty group command.
func NewGroupCommand(name, description string, checker *PermissionChecker) *GroupCommand {
	return &GroupCommand{
		name:        name,
		description: description,
		subcommands: make(map[string]SubCommand),
		checker:     checker,
	}
}

// AddSubCommand adds a subcommand to the group.
func (gc *GroupCommand) AddSubCommand(subcmd SubCommand) {
	gc.subcommands[subcmd.Name()] = subcmd
}

func (gc *GroupCommand) Name() string        { return gc.name }
func (gc *GroupCommand) Description() string { return gc.description }

// Options builds the command options from the subcommands.
func (gc *GroupCommand) Options() []*discordgo.ApplicationCommandOption {
	options := make([]*discordgo.ApplicationCommandOption, 0, len(gc.subcommands))
	for _, subcmd := range gc.subcommands {
		options = append(options, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        subcmd.Name(),
			Description: subcmd.Description(),
			Options:     subcmd.Options(),
		})
	}
	return options
}

func (gc *GroupCommand) RequiresGuild() bool {
	for _, subcmd := range gc.subcommands {
		if subcmd.RequiresGuild() {
			return true
		}
	}
	return false
}

func (gc *GroupCommand) RequiresPermissions() bool {
	for _, subcmd := range gc.subcommands {
		if subcmd.RequiresPermissions() {
			return true
		}
	}
	return false
}

// Handle routes to the invoked subcommand.
func (gc *GroupCommand) Handle(ctx *Context) error {
	subCommandName := GetSubCommandName(ctx.Interaction)
	if subCommandName == "" {
		return NewCommandError("No subcommand specified", true)
	}

	subcmd, exists := gc.subcommands[subCommandName]
	if !exists {
		return NewCommandError("Unknown subcommand", true)
	}

	if subcmd.RequiresGuild() && ctx.GuildID == "" {
		return NewCommandError("This subcommand can only be used in a server", true)
	}
	if subcmd.RequiresPermissions() && !gc.checker.HasPermission(ctx.Interaction) {
		return NewCommandError("You don't have permission to use this subcommand", true)
	}

	return subcmd.Handle(ctx)
}

// SimpleCommand implements Command with a handler function.
type SimpleCommand struct {
	name                string
	description         string
	options             []*discordgo.ApplicationCommandOption
	handler             func(ctx *Context) error
	requiresGuild       bool
	requiresPermissions bool
}

// NewSimpleCommand creates a plain command.
func NewSimpleCommand(
	name, description string,
	options []*discordgo.ApplicationCommandOption,
	handler func(ctx *Context) error,
	requiresGuild, requiresPermissions bool,
) *SimpleCommand {
	return &SimpleCommand{
		name:                name,
		description:         description,
		options:             options,
		handler:             handler,
		requiresGuild:       requiresGuild,
		requiresPermissions: requiresPermissions,
	}
}

func (sc *SimpleCommand) Name() string        { return sc.name }
func (sc *SimpleCommand) Description() string { return sc.description }
func (sc *SimpleCommand) Options() []*discordgo.ApplicationCommandOption {
	return sc.options
}
func (sc *SimpleCommand) Handle(ctx *Context) error { return sc.handler(ctx) }
func (sc *SimpleCommand) RequiresGuild() bool       { return sc.requiresGuild }
func (sc *SimpleCommand) RequiresPermissions() bool { return sc.requiresPermissions }

// SimpleSubCommand implements SubCommand with a handler function.
type SimpleSubCommand struct {
	name                string
	description         string
	options             []*discordgo.ApplicationCommandOption
	handler             func(ctx *Context) error
	requiresGuild       bool
	requiresPermissions bool
}

// NewSimpleSubCommand creates a plain subcommand.
func NewSimpleSubCommand(
	name, description string,
	options []*discordgo.ApplicationCommandOption,
	handler func(ctx *Context) error,
	requiresGuild, requiresPermissions bool,
) *SimpleSubCommand {
	return &SimpleSubCommand{
		name:                name,
		description:         description,
		options:             options,
		handler:             handler,
		requiresGuild:       requiresGuild,
		requiresPermissions: requiresPermissions,
	}
}

func (sc *SimpleSubCommand) Name() string        { return sc.name }
func (sc *SimpleSubCommand) Description() string { return sc.description }
func (sc *SimpleSubCommand) Options() []*discordgo.ApplicationCommandOption {
	return sc.options
}
func (sc *SimpleSubCommand) Handle(ctx *Context) error { return sc.handler(ctx) }
func (sc *SimpleSubCommand) RequiresGuild() bool       { return sc.requiresGuild }
func (sc *SimpleSubCommand) RequiresPermissions() bool { return sc.requiresPermissions }
