package store

import (
	"sort"
	"sync"

	"github.com/dwarflabs/dwarfbot/pkg/errutil"
	"github.com/dwarflabs/dwarfbot/pkg/log"
	"github.com/dwarflabs/dwarfbot/pkg/util"
)

// ChannelStore is the association store: the durable mapping from channel
// id to AssociationRecord, loaded into memory and persisted in full on
// every write. The file on disk is the source of truth across restarts; a
// single mutex serializes every read-modify-write so concurrent handlers
// cannot lose updates.
type ChannelStore struct {
	mu      sync.Mutex
	jm      *util.JSONManager
	records map[string]*AssociationRecord
}

// NewChannelStore creates a store backed by the file at path.
func NewChannelStore(path string) *ChannelStore {
	return &ChannelStore{
		jm:      util.NewJSONManager(path),
		records: make(map[string]*AssociationRecord),
	}
}

// Load reads the file and normalizes legacy records. When normalization
// changed anything the file is rewritten immediately so the legacy shape
// disappears after one run.
func (s *ChannelStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := make(map[string]*AssociationRecord)
	if err := s.jm.Load(&loaded); err != nil {
		return errutil.HandleStoreError("read", s.jm.Path(), func() error { return err })
	}

	migrated := 0
	for id, rec := range loaded {
		if rec == nil {
			delete(loaded, id)
			continue
		}
		if rec.ChannelID == "" {
			rec.ChannelID = id
		}
		if rec.normalize() {
			migrated++
		}
	}
	s.records = loaded

	if migrated > 0 {
		log.ApplicationLogger().Info("Normalized legacy association records", "count", migrated)
		return s.saveLocked()
	}
	return nil
}

func (s *ChannelStore) saveLocked() error {
	return errutil.HandleStoreError("write", s.jm.Path(), func() error {
		return s.jm.Save(s.records)
	})
}

// guildRecordsLocked returns records for a guild sorted by channel id for
// deterministic iteration.
func (s *ChannelStore) guildRecordsLocked(guildID string) []*AssociationRecord {
	out := make([]*AssociationRecord, 0, len(s.records))
	for _, rec := range s.records {
		if rec.GuildID == guildID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChannelID < out[j].ChannelID })
	return out
}

// GuildRecords returns copies of every record scoped to the guild,
// including the menu record.
func (s *ChannelStore) GuildRecords(guildID string) []AssociationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.guildRecordsLocked(guildID)
	out := make([]AssociationRecord, len(recs))
	for i, rec := range recs {
		out[i] = *rec
	}
	return out
}

// GameRecords returns copies of the guild's game records (menu record
// excluded), sorted by channel id.
func (s *ChannelStore) GameRecords(guildID string) []AssociationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []AssociationRecord
	for _, rec := range s.guildRecordsLocked(guildID) {
		if !rec.IsMenu() {
			out = append(out, *rec)
		}
	}
	return out
}

// ByChannelID returns the guild's record for a channel id.
func (s *ChannelStore) ByChannelID(guildID, channelID string) (AssociationRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[channelID]
	if !ok || rec.GuildID != guildID {
		return AssociationRecord{}, false
	}
	return *rec, true
}

// ByKey returns the guild's record whose nameSimplified equals key.
func (s *ChannelStore) ByKey(guildID, key string) (AssociationRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.guildRecordsLocked(guildID) {
		if rec.NameSimplified == key {
			return *rec, true
		}
	}
	return AssociationRecord{}, false
}

// ByRoleID returns the guild's record pairing the given role.
func (s *ChannelStore) ByRoleID(guildID, roleID string) (AssociationRecord, bool) {
	if roleID == "" {
		return AssociationRecord{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.guildRecordsLocked(guildID) {
		if rec.RoleID == roleID {
			return *rec, true
		}
	}
	return AssociationRecord{}, false
}

// MenuRecord returns the guild's role-selection record, if any.
func (s *ChannelStore) MenuRecord(guildID string) (AssociationRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.guildRecordsLocked(guildID) {
		if rec.IsMenu() {
			return *rec, true
		}
	}
	return AssociationRecord{}, false
}

// Create inserts a new record after checking every uniqueness invariant:
// one record per channel, one per role, one nameSimplified per guild among
// game records, and at most one menu record per guild. The store is left
// untouched on rejection.
func (s *ChannelStore) Create(rec AssociationRecord) error {
	if rec.ChannelID == "" {
		return errutil.NewValidationError("idChannel", "missing channel id")
	}
	if rec.GuildID == "" {
		return errutil.NewValidationError("guildId", "missing guild id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ChannelID]; exists {
		return errutil.NewValidationError("idChannel", "channel is already associated")
	}
	for _, other := range s.guildRecordsLocked(rec.GuildID) {
		if rec.RoleID != "" && other.RoleID == rec.RoleID {
			return errutil.NewValidationError("idRole", "role is already associated")
		}
		if !rec.IsMenu() && !other.IsMenu() && other.NameSimplified == rec.NameSimplified {
			return errutil.NewValidationError("name", "a game with this name already exists")
		}
		if rec.IsMenu() && other.IsMenu() {
			return errutil.NewValidationError("type", "a role-selection channel already exists")
		}
	}

	clone := rec
	s.records[rec.ChannelID] = &clone
	return s.saveLocked()
}

// Update replaces the stored record for rec.ChannelID. The nameSimplified
// uniqueness check still applies against other game records.
func (s *ChannelStore) Update(rec AssociationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[rec.ChannelID]
	if !ok || existing.GuildID != rec.GuildID {
		return errutil.NewNotFoundError("association", rec.ChannelID)
	}
	for _, other := range s.guildRecordsLocked(rec.GuildID) {
		if other.ChannelID == rec.ChannelID {
			continue
		}
		if !rec.IsMenu() && !other.IsMenu() && other.NameSimplified == rec.NameSimplified {
			return errutil.NewValidationError("name", "a game with this name already exists")
		}
	}

	clone := rec
	s.records[rec.ChannelID] = &clone
	return s.saveLocked()
}

// Delete removes the guild's record for a channel id.
func (s *ChannelStore) Delete(guildID, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[channelID]
	if !ok || rec.GuildID != guildID {
		return errutil.NewNotFoundError("association", channelID)
	}
	delete(s.records, channelID)
	return s.saveLocked()
}

// BackfillGuildIDs stamps a guild id onto legacy records that lack one.
// resolve maps a channel id to its owning guild (or ""); records that
// still cannot be resolved are left as-is and counted. The file is saved
// when anything changed.
func (s *ChannelStore) BackfillGuildIDs(resolve func(channelID string) string) (migrated, unresolved int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, rec := range s.records {
		if rec.GuildID != "" {
			continue
		}
		if gid := resolve(id); gid != "" {
			rec.GuildID = gid
			migrated++
		} else {
			unresolved++
		}
	}
	if migrated > 0 {
		err = s.saveLocked()
	}
	return migrated, unresolved, err
}
