package store

import (
	"context"
	"slices"

	"discipline-tracker-go/models"
)

// AddDisciplineRecord stamps the record with today's UTC calendar day and the
// session user, whatever the caller sent, and stores it through the backend. In cloud
// mode the returned record is not in DisciplineRecords until the next snapshot.
func (s *Store) AddDisciplineRecord(ctx context.Context, in models.NewDisciplineRecord) (models.DisciplineRecord, error) {
	sess := s.sessions.Current()
	if !sess.LoggedIn() {
		return models.DisciplineRecord{}, ErrNoSession
	}

	rec := models.DisciplineRecord{
		StudentName:    in.StudentName,
		Grade:          in.Grade,
		Date:           s.now().UTC().Format(models.DateLayout),
		InfractionType: in.InfractionType,
		Notes:          in.Notes,
		EnteredBy:      sess.User,
	}
	err := s.run(ctx, "add_discipline_record", func(ctx context.Context) error {
		return s.backend.AddDisciplineRecord(ctx, &rec)
	})
	if err != nil {
		return models.DisciplineRecord{}, err
	}
	return rec, nil
}

// SaveRestriction creates the restriction or replaces the one with the same ID
func (s *Store) SaveRestriction(ctx context.Context, r models.Restriction) error {
	return s.run(ctx, "save_restriction", func(ctx context.Context) error {
		return s.backend.SaveRestriction(ctx, r)
	})
}

// DeleteRestriction removes a restriction; an unknown ID is a no-op
func (s *Store) DeleteRestriction(ctx context.Context, id string) error {
	return s.run(ctx, "delete_restriction", func(ctx context.Context) error {
		return s.backend.DeleteRestriction(ctx, id)
	})
}

// ImportStudents replaces the roster, then pushes it to the backend
func (s *Store) ImportStudents(ctx context.Context, students []models.Student) error {
	students = nonNil(slices.Clone(students))
	s.update(func(st *state) {
		st.students = students
	})
	return s.run(ctx, "import_students", func(ctx context.Context) error {
		return s.backend.SyncStudents(ctx, slices.Clone(students))
	})
}

// ClearStudents empties the roster. It only touches the in-memory roster and
// the cache, in either mode.
func (s *Store) ClearStudents(confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	s.update(func(st *state) {
		st.students = []models.Student{}
	})
	return nil
}

// UpdateDutyRoster replaces the roster, then pushes it to the backend
func (s *Store) UpdateDutyRoster(ctx context.Context, roster []models.DutyAssignment) error {
	roster = nonNil(slices.Clone(roster))
	s.update(func(st *state) {
		st.duty = roster
	})
	return s.run(ctx, "update_duty_roster", func(ctx context.Context) error {
		return s.backend.SyncDutyRoster(ctx, slices.Clone(roster))
	})
}

// UpdateFitnessRecords replaces the fitness collection. Fitness records are
// never pushed to the remote store.
func (s *Store) UpdateFitnessRecords(records []models.FitnessRecord) {
	records = nonNil(slices.Clone(records))
	s.update(func(st *state) {
		st.fitness = records
	})
}

// Restore replaces every collection present in b and leaves the nil ones
// untouched. Nothing is pushed to the remote store.
func (s *Store) Restore(b models.Backup) {
	s.update(func(st *state) {
		if b.Students != nil {
			st.students = slices.Clone(b.Students)
		}
		if b.DisciplineRecords != nil {
			st.records = slices.Clone(b.DisciplineRecords)
		}
		if b.FitnessRecords != nil {
			st.fitness = slices.Clone(b.FitnessRecords)
		}
		if b.Restrictions != nil {
			st.restrictions = slices.Clone(b.Restrictions)
		}
		if b.DutyRoster != nil {
			st.duty = slices.Clone(b.DutyRoster)
		}
	})
}
