// Package roster reads student rosters from and writes discipline reports to
// Excel workbooks.
package roster

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"discipline-tracker-go/models"
)

const reportSheet = "Discipline"

var reportHeader = []interface{}{"Date", "Student", "Grade", "Infraction", "Notes", "Entered By"}

// ParseStudents reads the first sheet of an Excel workbook. Row 1 is a header;
// columns are Enrollment No, Name, Class, Section. Rows without a name are
// skipped. The enrollment number doubles as the student ID when present; a
// repeated enrollment number gets a fresh ID so that no row is lost.
func ParseStudents(file io.Reader) ([]models.Student, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		log.Printf("Error opening Excel reader: %v", err)
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Error closing excel file: %v", err)
		}
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("excel file does not contain any sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		log.Printf("Error getting rows from sheet '%s': %v", sheetName, err)
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}

	students := []models.Student{}
	seen := map[string]bool{}
	for i, row := range rows {
		if i == 0 {
			continue // Skip header row
		}

		enrollmentNo := cell(row, 0)
		name := cell(row, 1)
		if name == "" {
			log.Printf("Skipping row %d due to missing Name (Enrollment No: '%s')", i+1, enrollmentNo)
			continue
		}

		id := enrollmentNo
		if seen[id] {
			log.Printf("Row %d repeats enrollment number '%s', assigning a new ID", i+1, enrollmentNo)
			id = ""
		}
		if id == "" {
			id = "std-" + uuid.NewString()
		}
		seen[id] = true
		students = append(students, models.Student{
			ID:           id,
			Name:         name,
			Class:        cell(row, 2),
			Section:      cell(row, 3),
			EnrollmentNo: enrollmentNo,
		})
	}

	log.Printf("Parsed %d students from sheet %s", len(students), sheetName)
	return students, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

// WriteDisciplineReport writes records as a single-sheet workbook to w
func WriteDisciplineReport(w io.Writer, records []models.DisciplineRecord) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Error closing excel file: %v", err)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), reportSheet); err != nil {
		return fmt.Errorf("failed to name report sheet: %w", err)
	}
	if err := f.SetSheetRow(reportSheet, "A1", &reportHeader); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}

	for i, rec := range records {
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{rec.Date, rec.StudentName, rec.Grade, string(rec.InfractionType), rec.Notes, rec.EnteredBy}
		if err := f.SetSheetRow(reportSheet, axis, &row); err != nil {
			return fmt.Errorf("failed to write report row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
