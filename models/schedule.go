package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SchedulePeriod struct {
	Subject string `json:"subject"`
	Time    string `json:"time"`
}

type ScheduleDay struct {
	Day     string           `json:"day"`
	Periods []SchedulePeriod `json:"periods"`
}

// Schedule is the weekly timetable for one class. Days are stored as one
// JSON column because they are always read and written as a unit.
type Schedule struct {
	gorm.Model
	ClassName string                           `gorm:"uniqueIndex;not null"`
	Days      datatypes.JSONSlice[ScheduleDay]

	Session *string `gorm:"index"`
}
