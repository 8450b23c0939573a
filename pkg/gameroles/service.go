package gameroles

import (
	"github.com/dwarflabs/dwarfbot/pkg/errutil"
	"github.com/dwarflabs/dwarfbot/pkg/log"
	"github.com/dwarflabs/dwarfbot/pkg/names"
	"github.com/dwarflabs/dwarfbot/pkg/store"
)

// Service is the surface the command front-end talks to: it owns the
// stores, the matcher snapshot assembly, the menu synchronizer and the
// role reconciler. Every mutation persists synchronously and refreshes the
// menu when one is published.
type Service struct {
	Channels *store.ChannelStore
	Guilds   *store.GuildStore

	platform   Platform
	menu       *MenuSynchronizer
	reconciler *RoleReconciler
}

// NewService wires the engine together.
func NewService(platform Platform, channels *store.ChannelStore, guilds *store.GuildStore) *Service {
	return &Service{
		Channels:   channels,
		Guilds:     guilds,
		platform:   platform,
		menu:       NewMenuSynchronizer(platform, channels),
		reconciler: NewRoleReconciler(platform, channels),
	}
}

// CreateAssociation registers a new game record pairing channelID and
// roleID under displayName. Rejected with a ValidationError when the name,
// channel or role is already taken; the store is untouched on rejection.
func (s *Service) CreateAssociation(guildID, channelID, roleID, displayName, emoji string) (store.AssociationRecord, error) {
	displayName = names.ExtractCleanName(displayName)
	if displayName == "" {
		return store.AssociationRecord{}, errutil.NewValidationError("name", "display name is empty")
	}
	key := names.ToKebabKey(displayName)
	if key == "" {
		return store.AssociationRecord{}, errutil.NewValidationError("name", "display name has no usable characters")
	}
	if emoji == "" {
		emoji = DefaultEmoji
	}

	rec := store.AssociationRecord{
		Name:           displayName,
		NameSimplified: key,
		ChannelID:      channelID,
		RoleID:         roleID,
		Emoji:          emoji,
		GuildID:        guildID,
	}
	if err := s.Channels.Create(rec); err != nil {
		return store.AssociationRecord{}, err
	}
	s.refreshMenu(guildID)
	return rec, nil
}

// DeleteAssociation removes the record for channelID.
func (s *Service) DeleteAssociation(guildID, channelID string) error {
	if err := s.Channels.Delete(guildID, channelID); err != nil {
		return err
	}
	s.refreshMenu(guildID)
	return nil
}

// EditAssociation updates the display name and emoji of an existing
// record.
func (s *Service) EditAssociation(guildID, channelID, displayName, emoji string) (store.AssociationRecord, error) {
	rec, ok := s.Channels.ByChannelID(guildID, channelID)
	if !ok {
		return store.AssociationRecord{}, errutil.NewNotFoundError("association", channelID)
	}
	if displayName != "" {
		rec.Name = displayName
		rec.NameSimplified = names.ToKebabKey(displayName)
	}
	if emoji != "" {
		rec.Emoji = emoji
	}
	if err := s.Channels.Update(rec); err != nil {
		return store.AssociationRecord{}, err
	}
	s.refreshMenu(guildID)
	return rec, nil
}

// Detect assembles a guild snapshot from the platform and runs the
// matcher. Read-only.
func (s *Service) Detect(guildID string) (DetectReport, error) {
	channels, err := s.platform.GuildTextChannels(guildID)
	if err != nil {
		return DetectReport{}, err
	}
	roles, err := s.platform.GuildRoles(guildID)
	if err != nil {
		return DetectReport{}, err
	}
	return DetectMatches(channels, roles, s.Channels.GuildRecords(guildID)), nil
}

// ApplyMatches turns each proposed match into one game record. Each match
// is applied all-or-nothing; a match rejected by a store invariant is
// skipped and logged, the rest still land. Returns the number of records
// added.
func (s *Service) ApplyMatches(guildID string, matches []Match) (int, error) {
	added := 0
	for _, match := range matches {
		rec := store.AssociationRecord{
			Name:           match.CleanName,
			NameSimplified: names.ToKebabKey(match.CleanName),
			ChannelID:      match.Channel.ID,
			RoleID:         match.Role.ID,
			Emoji:          match.Emoji,
			GuildID:        guildID,
		}
		if err := s.Channels.Create(rec); err != nil {
			log.ApplicationLogger().Warn("Skipping detected match",
				"guildID", guildID, "channelID", match.Channel.ID, "error", err)
			continue
		}
		added++
	}
	if added > 0 {
		s.refreshMenu(guildID)
	}
	return added, nil
}

// RegisterMenuChannel records channelID as the guild's role-selection
// channel and mirrors it into the guild settings. At most one menu record
// may exist per guild.
func (s *Service) RegisterMenuChannel(guildID, channelID, name string) error {
	rec := store.AssociationRecord{
		Name:           name,
		NameSimplified: names.ToKebabKey(name),
		ChannelID:      channelID,
		Type:           store.TypeRoleSelection,
		Emoji:          "📋",
		GuildID:        guildID,
	}
	if err := s.Channels.Create(rec); err != nil {
		return err
	}
	if err := s.Guilds.SetMenuChannel(guildID, channelID); err != nil {
		return err
	}
	return nil
}

// DeleteMenuChannel removes the guild's menu record and clears the mirror.
func (s *Service) DeleteMenuChannel(guildID, channelID string) error {
	if err := s.Channels.Delete(guildID, channelID); err != nil {
		return err
	}
	return s.Guilds.ClearMenuChannel(guildID, channelID)
}

// SyncMenu refreshes the published dropdown.
func (s *Service) SyncMenu(guildID string) (SyncOutcome, error) {
	return s.menu.SyncMenu(guildID)
}

// ReconcileMemberRoles applies a member's dropdown selection.
func (s *Service) ReconcileMemberRoles(guildID, userID string, selectedKeys []string) (ReconcileSummary, error) {
	return s.reconciler.ReconcileMemberRoles(guildID, userID, selectedKeys)
}

// BackfillGuildIDs runs the one-time migration stamping guild ids onto
// legacy records, resolving through the guild settings mirror first and
// falling back to the operator-supplied default guild id.
func (s *Service) BackfillGuildIDs(defaultGuildID string) (migrated, unresolved int, err error) {
	return s.Channels.BackfillGuildIDs(func(channelID string) string {
		if gid := s.Guilds.GuildForMenuChannel(channelID); gid != "" {
			return gid
		}
		return defaultGuildID
	})
}

// refreshMenu is the best-effort menu refresh after a store mutation.
// Failures are logged; the mutation itself already succeeded.
func (s *Service) refreshMenu(guildID string) {
	outcome, err := s.menu.SyncMenu(guildID)
	if err != nil {
		log.DiscordLogger().Warn("Menu refresh failed",
			"guildID", guildID, "outcome", outcome.String(), "error", err)
		return
	}
	if outcome == SyncEdited || outcome == SyncRebuilt {
		log.DiscordLogger().Info("Selection menu refreshed",
			"guildID", guildID, "outcome", outcome.String())
	}
}
