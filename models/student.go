package models

import "gorm.io/gorm"

type Student struct {
	gorm.Model
	FullName           string `gorm:"not null"`
	FatherName         string
	FatherCnic         string
	DOB                string
	RollNumber         string
	GRNumber           string `gorm:"index"`
	Gender             string // male, female
	Nationality        string
	CnicOrBform        string
	AdmissionFor       string `gorm:"index"` // class label, e.g. "KG", "1" .. "10"
	Email              string
	PhoneNumber        string
	WhatsappNumber     string
	Address            string
	MedicalCondition   string
	FormerEducation    string
	PreviousInstitute  string
	LastExamPercentage string
	GuardianName       string
	GuardianContact    string
	GuardianCnic       string
	GuardianRelation   string
	PhotoURL           string
	IssueDate          string
	ExpiryDate         string

	// Session is nil for records created before session partitioning
	// existed; session.Scope treats those as the legacy default.
	Session *string `gorm:"index"`
}
