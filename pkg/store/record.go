package store

// TypeRoleSelection tags the record describing a guild's role-selection
// menu channel. Menu records pair no role and never appear in the
// dropdown.
const TypeRoleSelection = "role_selection"

// AssociationRecord is the stored pairing of one text channel and one role
// under a display name. Records are keyed by channel id in channels.json;
// field names match the on-disk format.
type AssociationRecord struct {
	Name           string `json:"name"`
	NameSimplified string `json:"nameSimplified"`
	ChannelID      string `json:"idChannel"`
	RoleID         string `json:"idRole,omitempty"`
	Emoji          string `json:"emoji,omitempty"`
	Type           string `json:"type,omitempty"`
	GuildID        string `json:"guildId,omitempty"`

	// Legacy tag for menu records, replaced by Type at load time and
	// dropped on the next save.
	SelectChannel bool `json:"selectChannel,omitempty"`
}

// IsMenu reports whether the record designates the role-selection channel.
func (r *AssociationRecord) IsMenu() bool {
	return r.Type == TypeRoleSelection
}

// normalize rewrites legacy fields into the current shape. Returns true
// when the record changed.
func (r *AssociationRecord) normalize() bool {
	changed := false
	if r.SelectChannel {
		if r.Type == "" {
			r.Type = TypeRoleSelection
		}
		r.SelectChannel = false
		changed = true
	}
	return changed
}

// GuildSettings holds the per-guild configuration stored in guilds.json.
type GuildSettings struct {
	LocalLogChannelID      string `json:"localLogChannelId,omitempty"`
	RoleSelectionChannelID string `json:"roleSelectionChannelId,omitempty"`
}
