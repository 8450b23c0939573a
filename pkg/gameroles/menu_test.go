package gameroles

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dwarflabs/dwarfbot/pkg/store"
)

func TestSyncMenuNotApplicable(t *testing.T) {
	t.Parallel()
	channels := newTestChannelStore(t)
	mustCreate(t, channels, gameRec("g1", "c1", "r1", "Valorant", "valorant", "🔫"))
	platform := &fakePlatform{}

	sync := NewMenuSynchronizer(platform, channels)
	outcome, err := sync.SyncMenu("g1")
	if err != nil {
		t.Fatalf("SyncMenu: %v", err)
	}
	if outcome != SyncNotApplicable {
		t.Fatalf("outcome = %s, want not applicable", outcome)
	}
	if len(platform.calls) != 0 {
		t.Fatalf("expected zero platform calls, got %v", platform.calls)
	}
}

func TestSyncMenuStaleReference(t *testing.T) {
	t.Parallel()
	channels := newTestChannelStore(t)
	mustCreate(t, channels, menuRec("g1", "menu1"))
	platform := &fakePlatform{channelsByID: map[string]Channel{}} // menu1 gone

	sync := NewMenuSynchronizer(platform, channels)
	outcome, err := sync.SyncMenu("g1")
	if err != nil {
		t.Fatalf("SyncMenu: %v", err)
	}
	if outcome != SyncStaleReference {
		t.Fatalf("outcome = %s, want stale reference", outcome)
	}
	// The record is reported stale, never pruned.
	if _, ok := channels.MenuRecord("g1"); !ok {
		t.Fatal("stale menu record was pruned")
	}
}

func TestSyncMenuEditsInPlace(t *testing.T) {
	t.Parallel()
	channels := newTestChannelStore(t)
	mustCreate(t, channels, menuRec("g1", "menu1"))
	mustCreate(t, channels, gameRec("g1", "c1", "r1", "Valorant", "valorant", "🔫"))
	platform := &fakePlatform{
		channelsByID: map[string]Channel{"menu1": {ID: "menu1", Name: "select-roles"}},
		messages: []Message{
			{ID: "m3"},
			{ID: "m2", HasSelectMenu: true},
			{ID: "m1"},
		},
	}

	sync := NewMenuSynchronizer(platform, channels)
	outcome, err := sync.SyncMenu("g1")
	if err != nil {
		t.Fatalf("SyncMenu: %v", err)
	}
	if outcome != SyncEdited {
		t.Fatalf("outcome = %s, want edited", outcome)
	}
	if len(platform.editedOptions) != 1 || platform.editedOptions[0].Value != "valorant" {
		t.Fatalf("unexpected options: %+v", platform.editedOptions)
	}
	if len(platform.deleted) != 0 {
		t.Fatalf("in-place edit must not delete messages, deleted %v", platform.deleted)
	}

	// A second pass with unchanged state edits again; it never rebuilds.
	outcome, err = sync.SyncMenu("g1")
	if err != nil || outcome != SyncEdited {
		t.Fatalf("second pass: outcome=%s err=%v", outcome, err)
	}
}

func TestSyncMenuRebuildsWhenEditFails(t *testing.T) {
	t.Parallel()
	channels := newTestChannelStore(t)
	mustCreate(t, channels, menuRec("g1", "menu1"))
	mustCreate(t, channels, gameRec("g1", "c1", "r1", "Valorant", "valorant", "🔫"))
	platform := &fakePlatform{
		channelsByID: map[string]Channel{"menu1": {ID: "menu1"}},
		messages: []Message{
			{ID: "m2", HasSelectMenu: true},
			{ID: "m1"},
		},
		editErr: errScripted,
	}

	sync := NewMenuSynchronizer(platform, channels)
	outcome, err := sync.SyncMenu("g1")
	if err != nil {
		t.Fatalf("SyncMenu: %v", err)
	}
	if outcome != SyncRebuilt {
		t.Fatalf("outcome = %s, want rebuilt", outcome)
	}
	if len(platform.deleted) != 2 {
		t.Fatalf("expected fetched window cleared, deleted %v", platform.deleted)
	}
	if platform.introSent != 1 {
		t.Fatalf("expected intro posted once, got %d", platform.introSent)
	}
	if len(platform.sentOptions) != 1 {
		t.Fatalf("expected fresh menu posted, got %+v", platform.sentOptions)
	}
}

func TestSyncMenuRebuildsWithoutAnchor(t *testing.T) {
	t.Parallel()
	channels := newTestChannelStore(t)
	mustCreate(t, channels, menuRec("g1", "menu1"))
	platform := &fakePlatform{
		channelsByID: map[string]Channel{"menu1": {ID: "menu1"}},
		messages:     []Message{{ID: "m1"}},
	}

	sync := NewMenuSynchronizer(platform, channels)
	outcome, err := sync.SyncMenu("g1")
	if err != nil {
		t.Fatalf("SyncMenu: %v", err)
	}
	if outcome != SyncRebuilt {
		t.Fatalf("outcome = %s, want rebuilt", outcome)
	}
}

func TestSyncMenuFailsWhenSendFails(t *testing.T) {
	t.Parallel()
	channels := newTestChannelStore(t)
	mustCreate(t, channels, menuRec("g1", "menu1"))
	platform := &fakePlatform{
		channelsByID: map[string]Channel{"menu1": {ID: "menu1"}},
		sendErr:      errScripted,
	}

	sync := NewMenuSynchronizer(platform, channels)
	outcome, err := sync.SyncMenu("g1")
	if err == nil {
		t.Fatal("expected error when posting fails")
	}
	if outcome != SyncFailed {
		t.Fatalf("outcome = %s, want failed", outcome)
	}
}

func TestGenerateOptionsExcludesMenuRecord(t *testing.T) {
	t.Parallel()
	records := []store.AssociationRecord{
		menuRec("g1", "menu1"),
		gameRec("g1", "c1", "r1", "Valorant", "valorant", "🔫"),
	}

	options := GenerateOptions(records)
	if len(options) != 1 {
		t.Fatalf("expected 1 option, got %d", len(options))
	}
	if options[0].Label != "Valorant" || options[0].Value != "valorant" || options[0].Emoji != "🔫" {
		t.Fatalf("unexpected option: %+v", options[0])
	}
}

func TestGenerateOptionsPlaceholderWhenEmpty(t *testing.T) {
	t.Parallel()
	options := GenerateOptions([]store.AssociationRecord{menuRec("g1", "menu1")})
	if len(options) != 1 {
		t.Fatalf("expected the placeholder option, got %d", len(options))
	}
	if options[0].Value != PlaceholderValue {
		t.Fatalf("placeholder value = %q", options[0].Value)
	}
}

func TestGenerateOptionsTruncatesAndCaps(t *testing.T) {
	t.Parallel()

	var records []store.AssociationRecord
	long := strings.Repeat("x", 40)
	records = append(records, gameRec("g1", "c0", "r0", long, strings.Repeat("y", 120), ""))
	for i := 1; i <= 30; i++ {
		records = append(records, gameRec("g1",
			fmt.Sprintf("c%d", i), fmt.Sprintf("r%d", i),
			fmt.Sprintf("Game %d", i), fmt.Sprintf("game-%d", i), "🟦"))
	}

	options := GenerateOptions(records)
	if len(options) != 25 {
		t.Fatalf("expected 25 options, got %d", len(options))
	}
	if len([]rune(options[0].Label)) != 25 {
		t.Fatalf("label not truncated: %d runes", len([]rune(options[0].Label)))
	}
	if len([]rune(options[0].Value)) != 100 {
		t.Fatalf("value not truncated: %d runes", len([]rune(options[0].Value)))
	}
}

func TestGenerateOptionsEmojiFallbackFromLabel(t *testing.T) {
	t.Parallel()
	rec := gameRec("g1", "c1", "r1", "🔫・Valorant", "valorant", "")
	options := GenerateOptions([]store.AssociationRecord{rec})
	if options[0].Emoji != "🔫" {
		t.Fatalf("expected emoji recovered from label, got %q", options[0].Emoji)
	}
}
