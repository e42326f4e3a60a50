package models

import "gorm.io/gorm"

// SessionMeta is a marker row per academic session so that sessions with
// no data yet still show up in listings and can be renamed or deleted.
type SessionMeta struct {
	gorm.Model
	SessionName string `gorm:"uniqueIndex;not null"`
	CreatedBy   string
}
