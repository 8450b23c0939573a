package gameroles

// CustomIDSelectMenu is the well-known control id carried by the
// role-selection dropdown. Finding a recent message with this component is
// how the synchronizer locates its anchor message.
const CustomIDSelectMenu = "select_game_roles"

// PlaceholderValue is the single disabled option emitted when no games
// exist, so the dropdown component is always constructible.
const PlaceholderValue = "no-games"

// DefaultEmoji is used when neither channel nor role carries one.
const DefaultEmoji = "🟩"

// Channel is the slice of a guild text channel the engine needs.
type Channel struct {
	ID   string
	Name string
}

// Role is the slice of a guild role the engine needs. Managed roles
// (bot/integration roles) are never matched or reconciled onto members.
type Role struct {
	ID      string
	Name    string
	Managed bool
}

// Message is a recent message in the menu channel. HasSelectMenu is true
// when the message carries the dropdown with CustomIDSelectMenu.
type Message struct {
	ID            string
	HasSelectMenu bool
}

// MenuOption is one selectable entry of the dropdown.
type MenuOption struct {
	Label string
	Value string
	Emoji string
}

// Platform is the capability contract the engine consumes from the chat
// platform. Every call may fail with a PlatformError; resolution calls
// return a NotFoundError when the id no longer exists.
type Platform interface {
	// Channel resolves a channel by id.
	Channel(channelID string) (Channel, error)
	// GuildTextChannels lists the guild's text channels.
	GuildTextChannels(guildID string) ([]Channel, error)
	// GuildRoles lists the guild's roles, @everyone excluded.
	GuildRoles(guildID string) ([]Role, error)

	// RecentMessages returns up to limit of the newest messages in a
	// channel, newest first.
	RecentMessages(channelID string, limit int) ([]Message, error)
	// SendIntro posts the explanation message preceding the dropdown.
	SendIntro(channelID string) error
	// SendMenu posts a new message carrying the dropdown.
	SendMenu(channelID string, options []MenuOption) error
	// EditMenu replaces the dropdown component of an existing message.
	EditMenu(channelID, messageID string, options []MenuOption) error
	// DeleteMessage removes one message.
	DeleteMessage(channelID, messageID string) error

	// MemberRoleIDs returns the ids of the roles a member currently holds.
	MemberRoleIDs(guildID, userID string) ([]string, error)
	// AddMemberRole grants a role to a member.
	AddMemberRole(guildID, userID, roleID string) error
	// RemoveMemberRole revokes a role from a member.
	RemoveMemberRole(guildID, userID, roleID string) error
}
