package store

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"discipline-tracker-go/db"
	"discipline-tracker-go/models"
)

// Remote collection names
const (
	StudentsCollection          = "students"
	DisciplineRecordsCollection = "discipline_records"
	FitnessRecordsCollection    = "fitness_records"
	RestrictionsCollection      = "restrictions"
	DutyRosterCollection        = "duty_roster"
)

// RemoteStore is the durable live store used in cloud mode
type RemoteStore interface {
	Add(ctx context.Context, collection string, doc any) (string, error)
	Upsert(ctx context.Context, collection, id string, doc any) error
	UpsertAll(ctx context.Context, collection string, docs map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Subscribe(ctx context.Context, q db.Query, fn func(db.Snapshot)) (func(), error)
}

// Backend is where mutations become authoritative. The local cache mirrors
// the in-memory collections whichever backend is in use.
type Backend interface {
	Mode() string
	// AddDisciplineRecord stores rec and sets its ID
	AddDisciplineRecord(ctx context.Context, rec *models.DisciplineRecord) error
	SaveRestriction(ctx context.Context, r models.Restriction) error
	DeleteRestriction(ctx context.Context, id string) error
	// SyncStudents and SyncDutyRoster run after the in-memory collection has
	// already been replaced
	SyncStudents(ctx context.Context, students []models.Student) error
	SyncDutyRoster(ctx context.Context, roster []models.DutyAssignment) error
}

// localBackend applies mutations straight to the in-memory collections
type localBackend struct {
	store *Store
}

func (b *localBackend) Mode() string {
	return "local"
}

func (b *localBackend) AddDisciplineRecord(_ context.Context, rec *models.DisciplineRecord) error {
	rec.ID = "dr-" + uuid.NewString()
	rec.IsNew = true
	b.store.update(func(st *state) {
		st.records = append([]models.DisciplineRecord{*rec}, st.records...)
	})
	return nil
}

func (b *localBackend) SaveRestriction(_ context.Context, r models.Restriction) error {
	b.store.update(func(st *state) {
		st.restrictions = append(withoutRestriction(st.restrictions, r.ID), r)
	})
	return nil
}

func (b *localBackend) DeleteRestriction(_ context.Context, id string) error {
	b.store.update(func(st *state) {
		st.restrictions = withoutRestriction(st.restrictions, id)
	})
	return nil
}

func (b *localBackend) SyncStudents(context.Context, []models.Student) error {
	return nil
}

func (b *localBackend) SyncDutyRoster(context.Context, []models.DutyAssignment) error {
	return nil
}

func withoutRestriction(list []models.Restriction, id string) []models.Restriction {
	return slices.DeleteFunc(slices.Clone(list), func(r models.Restriction) bool {
		return r.ID == id
	})
}

// remoteBackend writes to the remote store only. The in-memory collections
// catch up when the store's subscription delivers the next snapshot.
type remoteBackend struct {
	remote RemoteStore
}

func (b *remoteBackend) Mode() string {
	return "cloud"
}

func (b *remoteBackend) AddDisciplineRecord(ctx context.Context, rec *models.DisciplineRecord) error {
	id, err := b.remote.Add(ctx, DisciplineRecordsCollection, rec)
	if err != nil {
		return remoteWriteError(err)
	}
	rec.ID = id
	return nil
}

func (b *remoteBackend) SaveRestriction(ctx context.Context, r models.Restriction) error {
	if err := b.remote.Upsert(ctx, RestrictionsCollection, r.ID, r); err != nil {
		return remoteWriteError(err)
	}
	return nil
}

func (b *remoteBackend) DeleteRestriction(ctx context.Context, id string) error {
	if err := b.remote.Delete(ctx, RestrictionsCollection, id); err != nil {
		return remoteWriteError(err)
	}
	return nil
}

// SyncStudents pushes the whole roster in one write. Students missing from
// the roster are not deleted remotely.
func (b *remoteBackend) SyncStudents(ctx context.Context, students []models.Student) error {
	docs := make(map[string]any, len(students))
	for _, st := range students {
		docs[st.ID] = st
	}
	if err := b.remote.UpsertAll(ctx, StudentsCollection, docs); err != nil {
		return remoteWriteError(err)
	}
	return nil
}

// SyncDutyRoster upserts each assignment on its own, stopping at the first
// failure. Assignments dropped from the roster stay in the remote store.
func (b *remoteBackend) SyncDutyRoster(ctx context.Context, roster []models.DutyAssignment) error {
	for _, a := range roster {
		if err := b.remote.Upsert(ctx, DutyRosterCollection, a.ID, a); err != nil {
			return remoteWriteError(err)
		}
	}
	return nil
}
