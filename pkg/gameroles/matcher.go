package gameroles

import (
	"github.com/dwarflabs/dwarfbot/pkg/names"
	"github.com/dwarflabs/dwarfbot/pkg/store"
)

// Match is a proposed pairing of one untracked channel with one untracked
// role whose names collapse to the same comparison key.
type Match struct {
	Channel   Channel
	Role      Role
	CleanName string
	Emoji     string
}

// TrackedPair reports a channel that was already present in the store when
// detection ran, for display purposes.
type TrackedPair struct {
	Channel Channel
	RoleID  string
	Name    string
}

// DetectReport is the outcome of one detection pass.
type DetectReport struct {
	Matches        []Match
	AlreadyTracked []TrackedPair
}

// DetectMatches correlates untracked channels and roles by normalized
// name. It is a pure function over the given snapshot: it performs no
// writes and no platform calls. Matching is first-wins in iteration order
// on both sides, and a channel or role consumed by one match can never be
// claimed again in the same run. Names whose comparison key is empty never
// match, so all-symbol names cannot mass-match each other.
func DetectMatches(channels []Channel, roles []Role, records []store.AssociationRecord) DetectReport {
	usedChannelIDs := make(map[string]bool)
	usedRoleIDs := make(map[string]bool)
	recordByChannel := make(map[string]store.AssociationRecord)

	for _, rec := range records {
		if rec.ChannelID != "" {
			usedChannelIDs[rec.ChannelID] = true
			recordByChannel[rec.ChannelID] = rec
		}
		if rec.RoleID != "" {
			usedRoleIDs[rec.RoleID] = true
		}
	}

	var report DetectReport
	for _, ch := range channels {
		if usedChannelIDs[ch.ID] {
			if rec, ok := recordByChannel[ch.ID]; ok {
				report.AlreadyTracked = append(report.AlreadyTracked, TrackedPair{
					Channel: ch,
					RoleID:  rec.RoleID,
					Name:    rec.Name,
				})
			}
			continue
		}

		channelKey := names.NormalizeForComparison(ch.Name)
		if channelKey == "" {
			continue
		}

		for _, role := range roles {
			if role.Managed || usedRoleIDs[role.ID] {
				continue
			}
			if names.NormalizeForComparison(role.Name) != channelKey {
				continue
			}

			cleanName := names.ExtractCleanName(ch.Name)
			if cleanName == "" {
				cleanName = names.ExtractCleanName(role.Name)
			}
			emoji := names.ExtractEmoji(ch.Name)
			if emoji == "" {
				emoji = names.ExtractEmoji(role.Name)
			}
			if emoji == "" {
				emoji = DefaultEmoji
			}

			report.Matches = append(report.Matches, Match{
				Channel:   ch,
				Role:      role,
				CleanName: cleanName,
				Emoji:     emoji,
			})
			usedChannelIDs[ch.ID] = true
			usedRoleIDs[role.ID] = true
			break
		}
	}

	return report
}
