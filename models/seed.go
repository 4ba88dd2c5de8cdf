package models

// DefaultStudents is the roster used when nothing has been stored yet
func DefaultStudents() []Student {
	return []Student{
		{ID: "std-1", Name: "Senora L", Class: "3", Section: "A", EnrollmentNo: "SCAK002226"},
		{ID: "std-2", Name: "Aditya Kumar", Class: "4", Section: "B", EnrollmentNo: "SCAK002227"},
	}
}

// InitialDutyRoster is the duty roster used when nothing has been stored yet
func InitialDutyRoster() []DutyAssignment {
	return []DutyAssignment{
		{ID: "mon-snack", Day: Monday, Type: DutySnack, Location: "Main Courtyard", TeacherName: "Ms. Priya"},
		{ID: "mon-lunch", Day: Monday, Type: DutyLunch, Location: "Dining Hall", TeacherName: "Mr. Rahul"},
		{ID: "mon-dispersal", Day: Monday, Type: DutyDispersal, Location: "Main Gate", TeacherName: "Ms. Anita"},
		{ID: "tue-snack", Day: Tuesday, Type: DutySnack, Location: "Main Courtyard", TeacherName: "Mr. Suresh"},
		{ID: "tue-lunch", Day: Tuesday, Type: DutyLunch, Location: "Dining Hall", TeacherName: "Ms. Kavita"},
		{ID: "tue-dispersal", Day: Tuesday, Type: DutyDispersal, Location: "Main Gate", TeacherName: "Mr. Deepak"},
		{ID: "wed-snack", Day: Wednesday, Type: DutySnack, Location: "Main Courtyard", TeacherName: "Ms. Meena"},
		{ID: "wed-lunch", Day: Wednesday, Type: DutyLunch, Location: "Dining Hall", TeacherName: "Mr. Arjun"},
		{ID: "wed-dispersal", Day: Wednesday, Type: DutyDispersal, Location: "Main Gate", TeacherName: "Ms. Sunita"},
		{ID: "thu-snack", Day: Thursday, Type: DutySnack, Location: "Main Courtyard", TeacherName: "Mr. Vikram"},
		{ID: "thu-lunch", Day: Thursday, Type: DutyLunch, Location: "Dining Hall", TeacherName: "Ms. Rekha"},
		{ID: "thu-dispersal", Day: Thursday, Type: DutyDispersal, Location: "Main Gate", TeacherName: "Mr. Manoj"},
		{ID: "fri-snack", Day: Friday, Type: DutySnack, Location: "Main Courtyard", TeacherName: "Ms. Pooja"},
		{ID: "fri-lunch", Day: Friday, Type: DutyLunch, Location: "Dining Hall", TeacherName: "Mr. Sanjay"},
		{ID: "fri-dispersal", Day: Friday, Type: DutyDispersal, Location: "Main Gate", TeacherName: "Ms. Lata"},
	}
}
