package store

import (
	"path/filepath"
	"testing"
)

func newTestGuildStore(t *testing.T) *GuildStore {
	t.Helper()
	s := NewGuildStore(filepath.Join(t.TempDir(), "guilds.json"))
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func TestGuildStoreSettings(t *testing.T) {
	t.Parallel()
	s := newTestGuildStore(t)

	if got := s.Settings("g1"); got != (GuildSettings{}) {
		t.Fatalf("expected zero settings, got %+v", got)
	}

	if err := s.SetLogChannel("g1", "log1"); err != nil {
		t.Fatalf("SetLogChannel: %v", err)
	}
	if err := s.SetMenuChannel("g1", "menu1"); err != nil {
		t.Fatalf("SetMenuChannel: %v", err)
	}

	got := s.Settings("g1")
	if got.LocalLogChannelID != "log1" || got.RoleSelectionChannelID != "menu1" {
		t.Fatalf("unexpected settings: %+v", got)
	}
}

func TestGuildStoreClearMenuChannel(t *testing.T) {
	t.Parallel()
	s := newTestGuildStore(t)

	if err := s.SetMenuChannel("g1", "menu1"); err != nil {
		t.Fatalf("SetMenuChannel: %v", err)
	}

	// Clearing with a different channel id must be a no-op.
	if err := s.ClearMenuChannel("g1", "other"); err != nil {
		t.Fatalf("ClearMenuChannel: %v", err)
	}
	if got := s.Settings("g1"); got.RoleSelectionChannelID != "menu1" {
		t.Fatalf("mismatched clear must not apply, got %+v", got)
	}

	if err := s.ClearMenuChannel("g1", "menu1"); err != nil {
		t.Fatalf("ClearMenuChannel: %v", err)
	}
	if got := s.Settings("g1"); got.RoleSelectionChannelID != "" {
		t.Fatalf("expected cleared menu channel, got %+v", got)
	}
}

func TestGuildStoreGuildForMenuChannel(t *testing.T) {
	t.Parallel()
	s := newTestGuildStore(t)

	if err := s.SetMenuChannel("g1", "menu1"); err != nil {
		t.Fatalf("SetMenuChannel: %v", err)
	}
	if got := s.GuildForMenuChannel("menu1"); got != "g1" {
		t.Fatalf("GuildForMenuChannel = %q, want g1", got)
	}
	if got := s.GuildForMenuChannel("unknown"); got != "" {
		t.Fatalf("expected empty for unknown channel, got %q", got)
	}
}

func TestGuildStorePersistenceRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "guilds.json")

	s := NewGuildStore(path)
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.SetLogChannel("g1", "log1"); err != nil {
		t.Fatalf("SetLogChannel: %v", err)
	}

	reopened := NewGuildStore(path)
	if err := reopened.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reopened.Settings("g1"); got.LocalLogChannelID != "log1" {
		t.Fatalf("settings did not survive reload: %+v", got)
	}
}
