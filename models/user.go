package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the owner of cash flow records.
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Username       string    `gorm:"size:255;not null;uniqueIndex" json:"username"`
	Name           string    `gorm:"size:255" json:"name"`
	HashedPassword []byte    `gorm:"not null" json:"-"`
}

// BeforeCreate assigns a random id when the caller did not set one.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
