package store

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"discipline-tracker-go/db"
	"discipline-tracker-go/models"
)

// Start subscribes to the five remote collections. Every snapshot replaces
// the matching in-memory collection wholesale. It does nothing in local mode.
func (s *Store) Start(ctx context.Context) error {
	if s.remote == nil {
		return nil
	}

	subscriptions := []struct {
		query db.Query
		apply func(db.Snapshot)
	}{
		{db.Query{Collection: StudentsCollection}, s.applyStudents},
		{db.Query{Collection: DisciplineRecordsCollection, OrderBy: "date", Desc: true}, s.applyDisciplineRecords},
		{db.Query{Collection: FitnessRecordsCollection}, s.applyFitnessRecords},
		{db.Query{Collection: RestrictionsCollection}, s.applyRestrictions},
		{db.Query{Collection: DutyRosterCollection}, s.applyDutyRoster},
	}

	for _, sub := range subscriptions {
		unsubscribe, err := s.remote.Subscribe(ctx, sub.query, sub.apply)
		if err != nil {
			s.Close()
			return err
		}
		s.subMu.Lock()
		s.unsubscribe = append(s.unsubscribe, unsubscribe)
		s.subMu.Unlock()
	}
	s.logger.Info("Subscribed to remote collections", "count", len(subscriptions))
	return nil
}

// Close tears down every subscription. Later calls are no-ops.
func (s *Store) Close() {
	s.subMu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.subMu.Unlock()

	for i := len(unsubscribe) - 1; i >= 0; i-- {
		unsubscribe[i]()
	}
}

// An empty students, fitness or duty roster snapshot means "no data yet" and
// keeps local state. Empty discipline and restriction snapshots do clear it.
// TODO: confirm with the school office whether a remotely cleared roster
// should wipe local state too; until then both behaviors are kept as is.

func (s *Store) applyStudents(snap db.Snapshot) {
	list := decodeSnapshot[models.Student](snap, s.logger, nil)
	if s.recordSnapshot(snap, len(list) == 0) {
		return
	}
	s.update(func(st *state) {
		st.students = list
	})
}

func (s *Store) applyDisciplineRecords(snap db.Snapshot) {
	list := decodeSnapshot(snap, s.logger, func(rec *models.DisciplineRecord, id string) {
		rec.ID = id
	})
	s.recordSnapshot(snap, false)
	s.update(func(st *state) {
		st.records = list
	})
}

func (s *Store) applyFitnessRecords(snap db.Snapshot) {
	list := decodeSnapshot[models.FitnessRecord](snap, s.logger, nil)
	if s.recordSnapshot(snap, len(list) == 0) {
		return
	}
	s.update(func(st *state) {
		st.fitness = list
	})
}

func (s *Store) applyRestrictions(snap db.Snapshot) {
	list := decodeSnapshot[models.Restriction](snap, s.logger, nil)
	s.recordSnapshot(snap, false)
	s.update(func(st *state) {
		st.restrictions = list
	})
}

func (s *Store) applyDutyRoster(snap db.Snapshot) {
	list := decodeSnapshot[models.DutyAssignment](snap, s.logger, nil)
	if s.recordSnapshot(snap, len(list) == 0) {
		return
	}
	s.update(func(st *state) {
		st.duty = list
	})
}

// recordSnapshot counts a received snapshot and returns ignored unchanged
func (s *Store) recordSnapshot(snap db.Snapshot, ignored bool) bool {
	s.snapshotsCnt.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("collection", snap.Collection),
		attribute.Bool("ignored", ignored),
	))
	s.logger.Debug("Remote snapshot", "collection", snap.Collection, "docs", len(snap.Docs), "ignored", ignored)
	return ignored
}

// decodeSnapshot decodes every document of snap. Documents that do not decode
// are logged and left out. withID, when set, lets the document key override a
// field of the decoded value.
func decodeSnapshot[T any](snap db.Snapshot, logger *slog.Logger, withID func(*T, string)) []T {
	list := make([]T, 0, len(snap.Docs))
	for _, doc := range snap.Docs {
		var v T
		if err := json.Unmarshal(doc.Data, &v); err != nil {
			logger.Warn("Skipping malformed remote document", "collection", snap.Collection, "id", doc.ID, "error", err)
			continue
		}
		if withID != nil {
			withID(&v, doc.ID)
		}
		list = append(list, v)
	}
	return list
}
