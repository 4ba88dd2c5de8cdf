package models

import "time"

// DateLayout is the calendar-day format used by every date field
const DateLayout = "2006-01-02"

// InfractionType is the category of a discipline record
type InfractionType string

const (
	InfractionHairCut   InfractionType = "Hair Cut"
	InfractionUniform   InfractionType = "Uniform"
	InfractionLateComer InfractionType = "Late Comer"
	InfractionIDCard    InfractionType = "ID Card"
	InfractionOther     InfractionType = "Other"
)

// InfractionTypes lists the categories in display order
var InfractionTypes = []InfractionType{
	InfractionHairCut,
	InfractionUniform,
	InfractionLateComer,
	InfractionIDCard,
	InfractionOther,
}

// Student represents an entry of the master roster
type Student struct {
	ID           string `json:"id"`                     // Unique student ID
	Name         string `json:"name"`                   // Student name
	Class        string `json:"class"`                  // Class, e.g. "3"
	Section      string `json:"section"`                // Section, e.g. "A"
	EnrollmentNo string `json:"enrollmentNo,omitempty"` // School enrollment number
}

// DisciplineRecord is a single infraction entry
type DisciplineRecord struct {
	ID             string         `json:"id"`
	StudentName    string         `json:"studentName"` // Denormalized, not a Student.ID reference
	Grade          string         `json:"grade"`       // Class and section, e.g. "3A"
	Date           string         `json:"date"`        // Calendar day, DateLayout
	InfractionType InfractionType `json:"infractionType"`
	Notes          string         `json:"notes"`
	EnteredBy      string         `json:"enteredBy"`       // Session user that created the record
	IsNew          bool           `json:"isNew,omitempty"` // UI highlight, set on local adds only
}

// NewDisciplineRecord is the caller-supplied part of a discipline record.
// Date, EnteredBy and ID are always stamped by the store.
type NewDisciplineRecord struct {
	StudentName    string         `json:"studentName" binding:"required"`
	Grade          string         `json:"grade"`
	InfractionType InfractionType `json:"infractionType" binding:"required"`
	Notes          string         `json:"notes"`
}

// Restriction is a temporary behavioral restriction on a student
type Restriction struct {
	ID             string `json:"id"`
	StudentName    string `json:"studentName"`
	StudentClass   string `json:"studentClass"`
	StudentSection string `json:"studentSection"`
	StartDate      string `json:"startDate"` // DateLayout
	EndDate        string `json:"endDate"`   // DateLayout
	Reason         string `json:"reason"`
	AssignedBy     string `json:"assignedBy"`
}

// Active reports whether now falls within the restriction's start and end
// days, both inclusive. Restrictions never expire on their own; callers derive
// the status from the dates. Unparseable dates are treated as inactive.
func (r Restriction) Active(now time.Time) bool {
	start, err := time.ParseInLocation(DateLayout, r.StartDate, now.Location())
	if err != nil {
		return false
	}
	end, err := time.ParseInLocation(DateLayout, r.EndDate, now.Location())
	if err != nil {
		return false
	}
	today, _ := time.ParseInLocation(DateLayout, now.Format(DateLayout), now.Location())
	return !today.Before(start) && !today.After(end)
}

// FitnessMetrics is one evaluation pass of the physical fitness test
type FitnessMetrics struct {
	Height        float64 `json:"height"`
	Weight        float64 `json:"weight"`
	BMI           float64 `json:"bmi"`
	Speed50m      float64 `json:"speed50m"`
	Endurance600m float64 `json:"endurance600m"`
	Strength      float64 `json:"strength"`
	Flexibility   float64 `json:"flexibility"`
	CurlsUp       float64 `json:"curlsUp"`
	GameSkill1    float64 `json:"gameSkill1"`
	GameSkill2    float64 `json:"gameSkill2"`
	Discipline    float64 `json:"discipline"`
	Total         float64 `json:"total"`
	Grade         string  `json:"grade"`
	Remark        string  `json:"remark"`
}

// FitnessRecord holds the baseline and optional final evaluation of a student
type FitnessRecord struct {
	RollNo   int             `json:"rollNo"` // Document key in the remote store
	Name     string          `json:"name"`
	Class    string          `json:"class"`
	Section  string          `json:"section"`
	Baseline FitnessMetrics  `json:"baseline"`
	Final    *FitnessMetrics `json:"final,omitempty"`
}

// DutyDay is a school weekday
type DutyDay string

const (
	Monday    DutyDay = "Monday"
	Tuesday   DutyDay = "Tuesday"
	Wednesday DutyDay = "Wednesday"
	Thursday  DutyDay = "Thursday"
	Friday    DutyDay = "Friday"
)

// DutyType is the kind of supervision duty
type DutyType string

const (
	DutySnack     DutyType = "Snack"
	DutyLunch     DutyType = "Lunch"
	DutyDispersal DutyType = "Dispersal"
)

// DutyAssignment is one slot of the weekly staff duty roster
type DutyAssignment struct {
	ID          string   `json:"id"`
	Day         DutyDay  `json:"day"`
	Type        DutyType `json:"type"`
	Location    string   `json:"location"`
	TeacherName string   `json:"teacherName"`
	PhoneNumber string   `json:"phoneNumber,omitempty"`
}

// Backup is a full export of every collection. On restore a nil collection
// is left untouched.
type Backup struct {
	Students          []Student          `json:"students"`
	DisciplineRecords []DisciplineRecord `json:"disciplineRecords"`
	FitnessRecords    []FitnessRecord    `json:"fitnessRecords"`
	Restrictions      []Restriction      `json:"restrictions"`
	DutyRoster        []DutyAssignment   `json:"dutyRoster"`
}
