package models

import "gorm.io/gorm"

const (
	FeeStatusPaid    = "paid"
	FeeStatusPartial = "partial"
	FeeStatusUnpaid  = "unpaid"

	FeeTypeMonthly   = "monthly"
	FeeTypeAdmission = "admission"
)

// FeeMonths are the accepted values for Fee.Month; "admission" is the
// pseudo-month used by one-off admission fees.
var FeeMonths = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
	"admission",
}

type Fee struct {
	gorm.Model
	StudentID     uint    `gorm:"index;not null"`
	Student       Student
	ClassName     string
	Month         string `gorm:"index"`
	Year          int    `gorm:"index"`
	Status        string `gorm:"default:paid"` // paid, partial, unpaid
	FeeType       string `gorm:"default:monthly"`
	AmountPaid    float64
	PaidDate      string
	ReceiptNumber string
	BookNumber    string
	Notes         string

	Session *string `gorm:"index"`
}

func ValidFeeMonth(month string) bool {
	for _, m := range FeeMonths {
		if m == month {
			return true
		}
	}
	return false
}
