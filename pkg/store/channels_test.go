package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dwarflabs/dwarfbot/pkg/errutil"
)

func newTestChannelStore(t *testing.T) *ChannelStore {
	t.Helper()
	s := NewChannelStore(filepath.Join(t.TempDir(), "channels.json"))
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func gameRecord(guildID, channelID, roleID, name, key string) AssociationRecord {
	return AssociationRecord{
		Name:           name,
		NameSimplified: key,
		ChannelID:      channelID,
		RoleID:         roleID,
		Emoji:          "🔫",
		GuildID:        guildID,
	}
}

func TestChannelStoreCreateAndLookup(t *testing.T) {
	t.Parallel()
	s := newTestChannelStore(t)

	rec := gameRecord("g1", "c1", "r1", "Valorant", "valorant")
	if err := s.Create(rec); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, ok := s.ByChannelID("g1", "c1")
	if !ok || got.Name != "Valorant" {
		t.Fatalf("ByChannelID: ok=%v rec=%+v", ok, got)
	}
	if _, ok := s.ByChannelID("other-guild", "c1"); ok {
		t.Fatal("lookup must be guild-scoped")
	}
	if got, ok := s.ByKey("g1", "valorant"); !ok || got.ChannelID != "c1" {
		t.Fatalf("ByKey: ok=%v rec=%+v", ok, got)
	}
	if got, ok := s.ByRoleID("g1", "r1"); !ok || got.ChannelID != "c1" {
		t.Fatalf("ByRoleID: ok=%v rec=%+v", ok, got)
	}
}

func TestChannelStoreUniquenessRejections(t *testing.T) {
	t.Parallel()
	s := newTestChannelStore(t)

	if err := s.Create(gameRecord("g1", "c1", "r1", "Valorant", "valorant")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	cases := []struct {
		name string
		rec  AssociationRecord
	}{
		{"duplicate channel", gameRecord("g1", "c1", "r2", "Other", "other")},
		{"duplicate role", gameRecord("g1", "c2", "r1", "Other", "other")},
		{"duplicate name", gameRecord("g1", "c2", "r2", "Valorant", "valorant")},
	}
	for _, tc := range cases {
		err := s.Create(tc.rec)
		if !errutil.IsValidation(err) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}

	// Rejections must leave the store untouched.
	if records := s.GuildRecords("g1"); len(records) != 1 {
		t.Fatalf("expected 1 record after rejections, got %d", len(records))
	}

	// The same name in another guild is fine.
	if err := s.Create(gameRecord("g2", "c9", "r9", "Valorant", "valorant")); err != nil {
		t.Fatalf("cross-guild create: %v", err)
	}
}

func TestChannelStoreSingleMenuRecord(t *testing.T) {
	t.Parallel()
	s := newTestChannelStore(t)

	menu := AssociationRecord{
		Name:           "Role selection",
		NameSimplified: "role-selection",
		ChannelID:      "menu1",
		Type:           TypeRoleSelection,
		GuildID:        "g1",
	}
	if err := s.Create(menu); err != nil {
		t.Fatalf("Create menu: %v", err)
	}

	second := menu
	second.ChannelID = "menu2"
	if err := s.Create(second); !errutil.IsValidation(err) {
		t.Fatalf("expected second menu record rejected, got %v", err)
	}

	got, ok := s.MenuRecord("g1")
	if !ok || got.ChannelID != "menu1" {
		t.Fatalf("MenuRecord: ok=%v rec=%+v", ok, got)
	}
	if _, ok := s.MenuRecord("g2"); ok {
		t.Fatal("menu record must be guild-scoped")
	}
}

func TestChannelStoreUpdateAndDelete(t *testing.T) {
	t.Parallel()
	s := newTestChannelStore(t)

	if err := s.Create(gameRecord("g1", "c1", "r1", "Valorant", "valorant")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(gameRecord("g1", "c2", "r2", "Minecraft", "minecraft")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	renamed := gameRecord("g1", "c1", "r1", "Valorant 2", "valorant-2")
	if err := s.Update(renamed); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got, _ := s.ByChannelID("g1", "c1"); got.NameSimplified != "valorant-2" {
		t.Fatalf("rename not applied: %+v", got)
	}

	conflict := gameRecord("g1", "c1", "r1", "Minecraft", "minecraft")
	if err := s.Update(conflict); !errutil.IsValidation(err) {
		t.Fatalf("expected name conflict on update, got %v", err)
	}

	if err := s.Update(gameRecord("g1", "missing", "", "X", "x")); !errutil.IsNotFound(err) {
		t.Fatal("expected not-found on unknown channel")
	}

	if err := s.Delete("g1", "c2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete("g1", "c2"); !errutil.IsNotFound(err) {
		t.Fatal("expected not-found on second delete")
	}
	if err := s.Delete("other-guild", "c1"); !errutil.IsNotFound(err) {
		t.Fatal("delete must be guild-scoped")
	}
}

func TestChannelStorePersistenceRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "channels.json")

	s := NewChannelStore(path)
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Create(gameRecord("g1", "c1", "r1", "Valorant", "valorant")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	reopened := NewChannelStore(path)
	if err := reopened.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, ok := reopened.ByChannelID("g1", "c1")
	if !ok || got.RoleID != "r1" || got.Emoji != "🔫" {
		t.Fatalf("record did not survive reload: ok=%v rec=%+v", ok, got)
	}
}

func TestChannelStoreLegacyNormalizationOnLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "channels.json")

	legacy := `{
  "menu1": {
    "name": "Role selection",
    "nameSimplified": "role-selection",
    "idChannel": "menu1",
    "guildId": "g1",
    "selectChannel": true
  }
}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatalf("write legacy file: %v", err)
	}

	s := NewChannelStore(path)
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	rec, ok := s.MenuRecord("g1")
	if !ok || rec.Type != TypeRoleSelection || rec.SelectChannel {
		t.Fatalf("legacy tag not normalized: ok=%v rec=%+v", ok, rec)
	}

	// Load rewrites the file; a second load must not see the legacy tag.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) == legacy {
		t.Fatal("normalized file was not rewritten")
	}
}

func TestChannelStoreBackfillGuildIDs(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "channels.json")

	raw := `{
  "c1": {"name": "Valorant", "nameSimplified": "valorant", "idChannel": "c1", "idRole": "r1"},
  "c2": {"name": "Minecraft", "nameSimplified": "minecraft", "idChannel": "c2", "idRole": "r2"},
  "c3": {"name": "Tagged", "nameSimplified": "tagged", "idChannel": "c3", "guildId": "g2"}
}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	s := NewChannelStore(path)
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	migrated, unresolved, err := s.BackfillGuildIDs(func(channelID string) string {
		if channelID == "c1" {
			return "g1"
		}
		return ""
	})
	if err != nil {
		t.Fatalf("BackfillGuildIDs: %v", err)
	}
	if migrated != 1 || unresolved != 1 {
		t.Fatalf("migrated=%d unresolved=%d, want 1 and 1", migrated, unresolved)
	}

	if _, ok := s.ByChannelID("g1", "c1"); !ok {
		t.Fatal("backfilled record not resolvable under its guild")
	}
	if _, ok := s.ByChannelID("g2", "c3"); !ok {
		t.Fatal("pre-tagged record must be untouched")
	}
}
