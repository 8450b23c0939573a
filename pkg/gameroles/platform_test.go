package gameroles

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/dwarflabs/dwarfbot/pkg/errutil"
	"github.com/dwarflabs/dwarfbot/pkg/store"
)

// fakePlatform scripts platform behavior and records every call.
type fakePlatform struct {
	channelsByID map[string]Channel
	textChannels []Channel
	roles        []Role
	messages     []Message
	memberRoles  []string

	recentErr error
	editErr   error
	sendErr   error
	addErr    error
	removeErr error

	calls         []string
	deleted       []string
	added         []string
	removed       []string
	sentOptions   []MenuOption
	editedOptions []MenuOption
	introSent     int
}

func (f *fakePlatform) Channel(channelID string) (Channel, error) {
	f.calls = append(f.calls, "Channel")
	ch, ok := f.channelsByID[channelID]
	if !ok {
		return Channel{}, errutil.NewNotFoundError("channel", channelID)
	}
	return ch, nil
}

func (f *fakePlatform) GuildTextChannels(guildID string) ([]Channel, error) {
	f.calls = append(f.calls, "GuildTextChannels")
	return f.textChannels, nil
}

func (f *fakePlatform) GuildRoles(guildID string) ([]Role, error) {
	f.calls = append(f.calls, "GuildRoles")
	return f.roles, nil
}

func (f *fakePlatform) RecentMessages(channelID string, limit int) ([]Message, error) {
	f.calls = append(f.calls, "RecentMessages")
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	if len(f.messages) > limit {
		return f.messages[:limit], nil
	}
	return f.messages, nil
}

func (f *fakePlatform) SendIntro(channelID string) error {
	f.calls = append(f.calls, "SendIntro")
	f.introSent++
	return nil
}

func (f *fakePlatform) SendMenu(channelID string, options []MenuOption) error {
	f.calls = append(f.calls, "SendMenu")
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sentOptions = options
	return nil
}

func (f *fakePlatform) EditMenu(channelID, messageID string, options []MenuOption) error {
	f.calls = append(f.calls, "EditMenu")
	if f.editErr != nil {
		return f.editErr
	}
	f.editedOptions = options
	return nil
}

func (f *fakePlatform) DeleteMessage(channelID, messageID string) error {
	f.calls = append(f.calls, "DeleteMessage")
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakePlatform) MemberRoleIDs(guildID, userID string) ([]string, error) {
	f.calls = append(f.calls, "MemberRoleIDs")
	return f.memberRoles, nil
}

func (f *fakePlatform) AddMemberRole(guildID, userID, roleID string) error {
	f.calls = append(f.calls, "AddMemberRole")
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, roleID)
	return nil
}

func (f *fakePlatform) RemoveMemberRole(guildID, userID, roleID string) error {
	f.calls = append(f.calls, "RemoveMemberRole")
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, roleID)
	return nil
}

var errScripted = errors.New("scripted failure")

func newTestChannelStore(t *testing.T) *store.ChannelStore {
	t.Helper()
	s := store.NewChannelStore(filepath.Join(t.TempDir(), "channels.json"))
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func mustCreate(t *testing.T, s *store.ChannelStore, rec store.AssociationRecord) {
	t.Helper()
	if err := s.Create(rec); err != nil {
		t.Fatalf("Create %s: %v", rec.ChannelID, err)
	}
}

func gameRec(guildID, channelID, roleID, name, key, emoji string) store.AssociationRecord {
	return store.AssociationRecord{
		Name:           name,
		NameSimplified: key,
		ChannelID:      channelID,
		RoleID:         roleID,
		Emoji:          emoji,
		GuildID:        guildID,
	}
}

func menuRec(guildID, channelID string) store.AssociationRecord {
	return store.AssociationRecord{
		Name:           "Role selection",
		NameSimplified: "role-selection",
		ChannelID:      channelID,
		Type:           store.TypeRoleSelection,
		GuildID:        guildID,
	}
}
