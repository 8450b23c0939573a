package store

import (
	"sync"

	"github.com/dwarflabs/dwarfbot/pkg/errutil"
	"github.com/dwarflabs/dwarfbot/pkg/util"
)

// GuildStore persists the per-guild settings in guilds.json: the log
// channel and the mirror of the role-selection channel id.
type GuildStore struct {
	mu       sync.Mutex
	jm       *util.JSONManager
	settings map[string]*GuildSettings
}

// NewGuildStore creates a store backed by the file at path.
func NewGuildStore(path string) *GuildStore {
	return &GuildStore{
		jm:       util.NewJSONManager(path),
		settings: make(map[string]*GuildSettings),
	}
}

// Load reads the file. A missing file leaves the store empty.
func (s *GuildStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	loaded := make(map[string]*GuildSettings)
	if err := s.jm.Load(&loaded); err != nil {
		return errutil.HandleStoreError("read", s.jm.Path(), func() error { return err })
	}
	for id, gs := range loaded {
		if gs == nil {
			delete(loaded, id)
		}
	}
	s.settings = loaded
	return nil
}

func (s *GuildStore) saveLocked() error {
	return errutil.HandleStoreError("write", s.jm.Path(), func() error {
		return s.jm.Save(s.settings)
	})
}

// Settings returns a copy of the guild's settings.
func (s *GuildStore) Settings(guildID string) GuildSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gs, ok := s.settings[guildID]; ok {
		return *gs
	}
	return GuildSettings{}
}

func (s *GuildStore) mutate(guildID string, fn func(*GuildSettings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.settings[guildID]
	if !ok {
		gs = &GuildSettings{}
		s.settings[guildID] = gs
	}
	fn(gs)
	if *gs == (GuildSettings{}) {
		delete(s.settings, guildID)
	}
	return s.saveLocked()
}

// SetLogChannel records the guild's log channel id.
func (s *GuildStore) SetLogChannel(guildID, channelID string) error {
	return s.mutate(guildID, func(gs *GuildSettings) { gs.LocalLogChannelID = channelID })
}

// SetMenuChannel records the guild's role-selection channel id.
func (s *GuildStore) SetMenuChannel(guildID, channelID string) error {
	return s.mutate(guildID, func(gs *GuildSettings) { gs.RoleSelectionChannelID = channelID })
}

// ClearMenuChannel removes the mirror when it still points at channelID.
func (s *GuildStore) ClearMenuChannel(guildID, channelID string) error {
	return s.mutate(guildID, func(gs *GuildSettings) {
		if gs.RoleSelectionChannelID == channelID {
			gs.RoleSelectionChannelID = ""
		}
	})
}

// GuildForMenuChannel returns the guild whose settings point at the given
// role-selection channel id, for backfilling legacy records.
func (s *GuildStore) GuildForMenuChannel(channelID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for guildID, gs := range s.settings {
		if gs.RoleSelectionChannelID == channelID {
			return guildID
		}
	}
	return ""
}
