package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ExamResultSet groups one exam's results for one class, e.g.
// ("Class 5", "Mid Term 2025"). Student rows are upserted one by one as
// staff enter marks.
type ExamResultSet struct {
	gorm.Model
	ClassName          string                      `gorm:"index;not null"`
	ExamTitle          string                      `gorm:"index;not null"`
	Subjects           datatypes.JSONSlice[string]
	MaxMarksPerSubject int
	MinPassPercentage  int `gorm:"default:40"`
	MinMarksPerSubject *int
	Students           []ExamStudentResult `gorm:"constraint:OnDelete:CASCADE"`

	Session *string `gorm:"index"`
}

type ExamStudentResult struct {
	gorm.Model
	ExamResultSetID uint `gorm:"index;not null"`
	StudentID       uint `gorm:"index;not null"`

	// denormalized at entry time, like the quiz attempt snapshot
	StudentName string
	FatherName  string
	RollNumber  string
	GRNumber    string

	Marks      datatypes.JSONSlice[int]
	Percentage int
	Grade      string // A+, A, B, C, D, F
	Remarks    string // Pass, Fail
}
