package models

import (
	"errors"
	"strings"
	"time"

	"github.com/yukikurage/study-group-api/internal/constants"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrPasswordMissing is returned by the save hook when neither a plaintext
// password nor a stored hash is present.
var ErrPasswordMissing = errors.New("user password is required")

type User struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	Username     string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	FullName     string    `gorm:"type:varchar(255)" json:"full_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Password is the plaintext set on registration. It is hashed into
	// PasswordHash by BeforeSave and never persisted.
	Password string `gorm:"-" json:"-"`

	// Relations
	Memberships  []GroupMember `gorm:"foreignKey:UserID" json:"-"`
	CreatedTasks []Task        `gorm:"foreignKey:CreatorID" json:"-"`
}

// NormalizeEmail lower-cases and trims an address so uniqueness is
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// BeforeSave hashes a pending plaintext password with a per-record salt.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	u.Username = strings.TrimSpace(u.Username)

	if u.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), constants.BcryptCost)
		if err != nil {
			return err
		}
		u.PasswordHash = string(hashed)
		u.Password = ""
	}

	if u.PasswordHash == "" {
		return ErrPasswordMissing
	}
	return nil
}

// CheckPassword compares a candidate password with the stored hash.
func (u *User) CheckPassword(candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(candidate)) == nil
}
