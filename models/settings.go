package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ClassFee struct {
	ClassName string  `json:"className"`
	Amount    float64 `json:"amount"`
}

type OfficeHours struct {
	Day   string `json:"day"`
	Open  string `json:"open"`
	Close string `json:"close"`
}

// SchoolSettings is a singleton: school-wide contact details, the issue
// and expiry dates printed on student ID cards, and the fee per class.
// There is only ever one row.
type SchoolSettings struct {
	gorm.Model
	CardIssueDate  string
	CardExpiryDate string
	ClassFees      datatypes.JSONSlice[ClassFee]
	SchoolAddress  string
	PhoneNumber    string
	Email          string
	OfficeHours    datatypes.JSONSlice[OfficeHours]
}
