package models

import "gorm.io/gorm"

const (
	AttendancePresent = "present"
	AttendanceLeave   = "leave"
)

// Attendance is one student's mark for one day. Absence is not stored;
// a student with no record for a date is reported absent.
type Attendance struct {
	gorm.Model
	Date      string `gorm:"index;not null;uniqueIndex:idx_attendance_student_date"`
	StudentID uint   `gorm:"not null;uniqueIndex:idx_attendance_student_date"`
	Status    string `gorm:"default:present"` // present, leave

	StudentName string
	ClassName   string
	RollNumber  string
	GRNumber    string

	Session *string `gorm:"index"`
}
