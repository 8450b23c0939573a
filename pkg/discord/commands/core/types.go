package core

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// Command represents a top-level slash command.
type Command interface {
	Name() string
	Description() string
	Options() []*discordgo.ApplicationCommandOption
	Handle(ctx *Context) error
	RequiresGuild() bool
	RequiresPermissions() bool
}

// SubCommand represents one subcommand inside a group command.
type SubCommand interface {
	Name() string
	Description() string
	Options() []*discordgo.ApplicationCommandOption
	Handle(ctx *Context) error
	RequiresGuild() bool
	RequiresPermissions() bool
}

// Context is the unified execution context handed to command handlers.
type Context struct {
	Session     *discordgo.Session
	Interaction *discordgo.InteractionCreate
	Logger      *slog.Logger
	GuildID     string
	UserID      string
}

// ComponentHandler handles a button or select-menu interaction. The
// router dispatches on the custom id prefix, so one handler can own a
// family of ids such as "take_role_<roleID>".
type ComponentHandler func(ctx *Context, customID string) error

// ModalHandler handles a modal submission, dispatched the same way.
type ModalHandler func(ctx *Context, customID string) error

// CommandRegistry stores the commands known to the bot.
type CommandRegistry struct {
	commands map[string]Command
}

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{commands: make(map[string]Command)}
}

// Register adds a command to the registry.
func (r *CommandRegistry) Register(cmd Command) {
	r.commands[cmd.Name()] = cmd
}

// GetCommand returns a command by name.
func (r *CommandRegistry) GetCommand(name string) (Command, bool) {
	cmd, exists := r.commands[name]
	return cmd, exists
}

// GetAllCommands returns every registered command keyed by name.
func (r *CommandRegistry) GetAllCommands() map[string]Command {
	return r.commands
}

// CommandError is a handler failure carrying the message shown to the
// user. Ephemeral errors are only visible to the invoker.
type CommandError struct {
	Message   string
	Ephemeral bool
}

func (e *CommandError) Error() string {
	return e.Message
}

// NewCommandError creates a CommandError.
func NewCommandError(message string, ephemeral bool) *CommandError {
	return &CommandError{Message: message, Ephemeral: ephemeral}
}
