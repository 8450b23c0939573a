package gameroles

import (
	"github.com/dwarflabs/dwarfbot/pkg/errutil"
	"github.com/dwarflabs/dwarfbot/pkg/log"
	"github.com/dwarflabs/dwarfbot/pkg/names"
	"github.com/dwarflabs/dwarfbot/pkg/store"
)

// Discord component limits.
const (
	maxOptionLabel = 25
	maxOptionValue = 100
	maxMenuOptions = 25
)

// How many recent messages of the menu channel are inspected when looking
// for the anchor message, and cleared on a full rebuild.
const menuLookback = 10

// SyncOutcome classifies the result of one SyncMenu pass.
type SyncOutcome int

const (
	// SyncNotApplicable: the guild has no role-selection channel record.
	SyncNotApplicable SyncOutcome = iota
	// SyncStaleReference: the recorded menu channel no longer exists. The
	// record is left in place; pruning is the caller's decision.
	SyncStaleReference
	// SyncEdited: the existing anchor message was updated in place.
	SyncEdited
	// SyncRebuilt: the channel window was cleared and the menu reposted.
	SyncRebuilt
	// SyncFailed: neither the edit nor the rebuild could be completed.
	SyncFailed
)

func (o SyncOutcome) String() string {
	switch o {
	case SyncNotApplicable:
		return "not applicable"
	case SyncStaleReference:
		return "stale reference"
	case SyncEdited:
		return "edited"
	case SyncRebuilt:
		return "rebuilt"
	case SyncFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MenuSynchronizer keeps a guild's role-selection channel showing exactly
// one accurate dropdown of the current game records. Editing the existing
// anchor message in place is preferred; clearing the recent window and
// reposting is the fallback, since it destroys message history.
type MenuSynchronizer struct {
	platform Platform
	channels *store.ChannelStore
}

// NewMenuSynchronizer creates a synchronizer over the given platform and
// association store.
func NewMenuSynchronizer(platform Platform, channels *store.ChannelStore) *MenuSynchronizer {
	return &MenuSynchronizer{platform: platform, channels: channels}
}

// SyncMenu refreshes the guild's dropdown. Platform failures on individual
// steps are logged and skipped rather than aborting the pass; only a
// failed in-place edit escalates, into the full rebuild.
func (m *MenuSynchronizer) SyncMenu(guildID string) (SyncOutcome, error) {
	menuRec, ok := m.channels.MenuRecord(guildID)
	if !ok {
		return SyncNotApplicable, nil
	}

	if _, err := m.platform.Channel(menuRec.ChannelID); err != nil {
		if errutil.IsNotFound(err) {
			log.DiscordLogger().Warn("Menu channel no longer exists",
				"guildID", guildID, "channelID", menuRec.ChannelID)
			return SyncStaleReference, nil
		}
		return SyncFailed, err
	}

	options := GenerateOptions(m.channels.GuildRecords(guildID))

	messages, err := m.platform.RecentMessages(menuRec.ChannelID, menuLookback)
	if err != nil {
		log.DiscordLogger().Warn("Could not fetch menu channel messages",
			"guildID", guildID, "channelID", menuRec.ChannelID, "error", err)
		messages = nil
	}

	var anchor *Message
	for i := range messages {
		if messages[i].HasSelectMenu {
			anchor = &messages[i]
			break
		}
	}

	if anchor != nil {
		if err := m.platform.EditMenu(menuRec.ChannelID, anchor.ID, options); err == nil {
			return SyncEdited, nil
		} else {
			log.DiscordLogger().Warn("In-place menu edit failed, rebuilding",
				"guildID", guildID, "messageID", anchor.ID, "error", err)
		}
	}

	return m.rebuild(guildID, menuRec.ChannelID, messages, options)
}

// rebuild clears the fetched window and reposts the intro plus a fresh
// dropdown.
func (m *MenuSynchronizer) rebuild(guildID, channelID string, messages []Message, options []MenuOption) (SyncOutcome, error) {
	for _, msg := range messages {
		if err := m.platform.DeleteMessage(channelID, msg.ID); err != nil {
			log.DiscordLogger().Warn("Could not delete message during menu rebuild",
				"guildID", guildID, "messageID", msg.ID, "error", err)
		}
	}
	if err := m.platform.SendIntro(channelID); err != nil {
		log.DiscordLogger().Warn("Could not post menu intro",
			"guildID", guildID, "channelID", channelID, "error", err)
	}
	if err := m.platform.SendMenu(channelID, options); err != nil {
		return SyncFailed, err
	}
	return SyncRebuilt, nil
}

// GenerateOptions builds the dropdown options from the guild's records.
// Menu records are excluded; labels and values are truncated to the
// platform limits; the option value is the record's nameSimplified so
// channel and role renames never break resolution. Records beyond the
// 25-option ceiling are silently omitted.
func GenerateOptions(records []store.AssociationRecord) []MenuOption {
	var options []MenuOption
	for _, rec := range records {
		if rec.IsMenu() {
			continue
		}
		emoji := rec.Emoji
		if emoji == "" {
			// Legacy records may carry the emoji only inside the label.
			emoji = names.ExtractEmoji(rec.Name)
		}
		options = append(options, MenuOption{
			Label: truncate(rec.Name, maxOptionLabel),
			Value: truncate(rec.NameSimplified, maxOptionValue),
			Emoji: emoji,
		})
		if len(options) == maxMenuOptions {
			break
		}
	}

	if len(options) == 0 {
		options = []MenuOption{{
			Label: "No game available",
			Value: PlaceholderValue,
		}}
	}
	return options
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
