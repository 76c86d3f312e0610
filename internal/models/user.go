package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the directory record owned by the account service. This service
// only reads it to verify doctors and to snapshot patient identity.
type User struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	FullName string `gorm:"size:150;not null" json:"full_name"`
	Email    string `gorm:"size:150;uniqueIndex;not null" json:"email"`
	Phone    string `gorm:"size:30" json:"phone"`
	Role     string `gorm:"size:20;not null;default:'patient'" json:"role"`

	// Department is meaningful for doctors only.
	Department string `gorm:"size:100" json:"department"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
