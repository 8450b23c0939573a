package gameroles

import (
	"github.com/dwarflabs/dwarfbot/pkg/log"
	"github.com/dwarflabs/dwarfbot/pkg/store"
)

// ReconcileSummary reports the effect of one dropdown submission.
type ReconcileSummary struct {
	Added   []string // role names granted
	Removed []string // role names revoked
	Missing []string // selection keys that could not be applied
}

// Empty reports whether the reconciliation changed or flagged anything.
func (s ReconcileSummary) Empty() bool {
	return len(s.Added) == 0 && len(s.Removed) == 0 && len(s.Missing) == 0
}

// RoleReconciler makes a member's role set match their dropdown selection
// exactly, touching only roles tracked by a game record. A submission is a
// full replace: unselecting a game revokes its role.
type RoleReconciler struct {
	platform Platform
	channels *store.ChannelStore
}

// NewRoleReconciler creates a reconciler over the given platform and
// association store.
func NewRoleReconciler(platform Platform, channels *store.ChannelStore) *RoleReconciler {
	return &RoleReconciler{platform: platform, channels: channels}
}

// ReconcileMemberRoles applies the selection. Stale keys and vanished
// roles are reported under Missing, never treated as fatal. The add/remove
// loop is not atomic; a failure mid-way leaves a partial set that the next
// submission repairs.
func (r *RoleReconciler) ReconcileMemberRoles(guildID, userID string, selectedKeys []string) (ReconcileSummary, error) {
	var summary ReconcileSummary

	guildRoles, err := r.platform.GuildRoles(guildID)
	if err != nil {
		return summary, err
	}
	roleByID := make(map[string]Role, len(guildRoles))
	for _, role := range guildRoles {
		roleByID[role.ID] = role
	}

	memberRoleIDs, err := r.platform.MemberRoleIDs(guildID, userID)
	if err != nil {
		return summary, err
	}
	held := make(map[string]bool, len(memberRoleIDs))
	for _, id := range memberRoleIDs {
		held[id] = true
	}

	managed := make(map[string]bool)
	for _, rec := range r.channels.GameRecords(guildID) {
		if rec.RoleID != "" {
			managed[rec.RoleID] = true
		}
	}

	// Resolve the selection to role ids; grant what is not yet held.
	selected := make(map[string]bool)
	for _, key := range selectedKeys {
		if key == PlaceholderValue {
			continue
		}
		rec, ok := r.channels.ByKey(guildID, key)
		if !ok || rec.IsMenu() || rec.RoleID == "" {
			summary.Missing = append(summary.Missing, key)
			continue
		}
		role, exists := roleByID[rec.RoleID]
		if !exists {
			summary.Missing = append(summary.Missing, key)
			continue
		}
		selected[rec.RoleID] = true
		if held[rec.RoleID] {
			continue
		}
		if err := r.platform.AddMemberRole(guildID, userID, rec.RoleID); err != nil {
			log.DiscordLogger().Warn("Could not grant role",
				"guildID", guildID, "userID", userID, "roleID", rec.RoleID, "error", err)
			summary.Missing = append(summary.Missing, key)
			continue
		}
		summary.Added = append(summary.Added, role.Name)
	}

	// Revoke managed roles the member holds but did not select.
	for roleID := range managed {
		if !held[roleID] || selected[roleID] {
			continue
		}
		role, exists := roleByID[roleID]
		if !exists {
			log.DiscordLogger().Warn("Tracked role missing from guild",
				"guildID", guildID, "roleID", roleID)
			continue
		}
		if err := r.platform.RemoveMemberRole(guildID, userID, roleID); err != nil {
			log.DiscordLogger().Warn("Could not revoke role",
				"guildID", guildID, "userID", userID, "roleID", roleID, "error", err)
			continue
		}
		summary.Removed = append(summary.Removed, role.Name)
	}

	return summary, nil
}
