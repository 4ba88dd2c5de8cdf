package store

import (
	"encoding/json"
	"log/slog"

	"discipline-tracker-go/models"
)

// Local cache keys. Renaming any of them orphans data already on disk.
const (
	StudentsKey          = "shraddha-student-roster"
	DisciplineRecordsKey = "shraddha-discipline-records"
	FitnessRecordsKey    = "shraddha-fitness-records"
	RestrictionsKey      = "shraddha-restrictions"
	DutyRosterKey        = "shraddha-duty-roster"
)

func emptyList[T any]() []T {
	return []T{}
}

// load fills every collection from the cache, falling back to its default
// when the key is missing, unreadable or holds malformed JSON, and writes the
// result straight back.
func (s *Store) load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state{
		students:     loadCollection(s.cache, s.logger, StudentsKey, models.DefaultStudents),
		records:      loadCollection(s.cache, s.logger, DisciplineRecordsKey, emptyList[models.DisciplineRecord]),
		fitness:      loadCollection(s.cache, s.logger, FitnessRecordsKey, emptyList[models.FitnessRecord]),
		restrictions: loadCollection(s.cache, s.logger, RestrictionsKey, emptyList[models.Restriction]),
		duty:         loadCollection(s.cache, s.logger, DutyRosterKey, models.InitialDutyRoster),
	}
	s.mirrorLocked()
}

func loadCollection[T any](cache Cache, logger *slog.Logger, key string, fallback func() []T) []T {
	raw, found, err := cache.Get(key)
	if err != nil {
		logger.Warn("Could not read cached collection, using default", "key", key, "error", err)
		return fallback()
	}
	if !found || raw == "" {
		return fallback()
	}

	var list []T
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		logger.Warn("Malformed cached collection, using default", "key", key, "error", err)
		return fallback()
	}
	return nonNil(list)
}

// mirrorLocked writes all five collections, one key at a time. A failed key
// is logged and the others are still written. Callers hold s.mu.
func (s *Store) mirrorLocked() {
	saveCollection(s.cache, s.logger, StudentsKey, s.state.students)
	saveCollection(s.cache, s.logger, DisciplineRecordsKey, s.state.records)
	saveCollection(s.cache, s.logger, FitnessRecordsKey, s.state.fitness)
	saveCollection(s.cache, s.logger, RestrictionsKey, s.state.restrictions)
	saveCollection(s.cache, s.logger, DutyRosterKey, s.state.duty)
}

func saveCollection[T any](cache Cache, logger *slog.Logger, key string, list []T) {
	data, err := json.Marshal(nonNil(list))
	if err != nil {
		logger.Error("Could not encode collection for the local cache", "key", key, "error", err)
		return
	}
	if err := cache.Set(key, string(data)); err != nil {
		logger.Error("Could not write collection to the local cache", "key", key, "error", err)
	}
}
