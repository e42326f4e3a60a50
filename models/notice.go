package models

import "gorm.io/gorm"

const (
	TargetAll     = "all"
	TargetClass   = "class"
	TargetStudent = "student"
)

type Notice struct {
	gorm.Model
	Title      string `gorm:"not null"`
	Content    string `gorm:"not null"`
	TargetType string `gorm:"not null"` // all, class, student
	ClassName  string
	StudentID  *uint
	Student    *Student

	Session *string `gorm:"index"`
}
