package store

import (
	"sort"
	"strings"
	"time"

	"discipline-tracker-go/models"
)

// WatchlistEntry sums up the infractions of one student
type WatchlistEntry struct {
	StudentName string                        `json:"studentName"`
	Grade       string                        `json:"grade"`
	Total       int                           `json:"total"`
	ByType      map[models.InfractionType]int `json:"byType"`
	LastDate    string                        `json:"lastDate"`
	Restricted  bool                          `json:"restricted"` // An active restriction matches name, class and section
}

// ActiveRestrictions returns the restrictions in force on now's calendar day
func (s *Store) ActiveRestrictions(now time.Time) []models.Restriction {
	active := []models.Restriction{}
	for _, r := range s.Restrictions() {
		if r.Active(now) {
			active = append(active, r)
		}
	}
	return active
}

// Watchlist groups discipline records by student name and grade, most
// infractions first. Neither records nor restrictions refer to a student ID,
// so a restriction applies to records with the same name and a grade equal
// to its class followed by its section.
func (s *Store) Watchlist(now time.Time) []WatchlistEntry {
	restricted := map[string]bool{}
	for _, r := range s.ActiveRestrictions(now) {
		restricted[studentKey(r.StudentName, r.StudentClass+r.StudentSection)] = true
	}

	entries := map[string]*WatchlistEntry{}
	for _, rec := range s.DisciplineRecords() {
		key := studentKey(rec.StudentName, rec.Grade)
		e, ok := entries[key]
		if !ok {
			e = &WatchlistEntry{
				StudentName: rec.StudentName,
				Grade:       rec.Grade,
				ByType:      map[models.InfractionType]int{},
				Restricted:  restricted[key],
			}
			entries[key] = e
		}
		e.Total++
		e.ByType[rec.InfractionType]++
		if rec.Date > e.LastDate {
			e.LastDate = rec.Date
		}
	}

	list := make([]WatchlistEntry, 0, len(entries))
	for _, e := range entries {
		list = append(list, *e)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Total != list[j].Total {
			return list[i].Total > list[j].Total
		}
		if list[i].StudentName != list[j].StudentName {
			return list[i].StudentName < list[j].StudentName
		}
		return list[i].Grade < list[j].Grade
	})
	return list
}

func studentKey(name, grade string) string {
	return normalizeName(name) + "|" + normalizeGrade(grade)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// normalizeGrade folds "4 B", "4-b" and "4B" together
func normalizeGrade(grade string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '/' {
			return -1
		}
		return r
	}, grade))
}
