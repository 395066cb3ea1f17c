// internal/models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Name         string     `json:"name" gorm:"size:100;not null"`
	Email        string     `json:"email" gorm:"size:255;not null"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	Role         UserRole   `json:"role" gorm:"type:varchar(20);not null;default:'user'"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`

	// Relationships
	Profile      *Profile      `json:"profile,omitempty" gorm:"foreignKey:UserID"`
	Stores       []Store       `json:"stores,omitempty" gorm:"foreignKey:UserID"`
	Transactions []Transaction `json:"transactions,omitempty" gorm:"foreignKey:UserID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

type Profile struct {
	BaseModel
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	Gender    *Gender   `json:"gender,omitempty" gorm:"type:varchar(10)"`
	Address   *string   `json:"address,omitempty" gorm:"type:text"`
	Bio       *string   `json:"bio,omitempty" gorm:"size:500"`
	AvatarURL *string   `json:"avatarUrl,omitempty" gorm:"size:500"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
