package domain

import (
	"strings"
	"time"
)

// User represents a registered user and the cars they own.
type User struct {
	ID        int64      `json:"id"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email"`
	Birthday  time.Time  `json:"birthday"`
	Login     string     `json:"login"`
	Password  string     `json:"-"` // Plaintext password, only set transiently on create/update
	Phone     string     `json:"phone"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin"`
	PhotoURL  string     `json:"photoUrl,omitempty"`

	// HashedPassword is the stored bcrypt hash. Never exposed.
	HashedPassword string `json:"-"`

	// TotalUsage is derived: the sum of the usage counters of all owned
	// cars. Recomputed whenever an owned car's usage or ownership changes.
	TotalUsage int `json:"totalUsageCount"`

	Cars []Car `json:"cars"`
}

// ValidateForCreate checks required fields and formats for a new user.
// Empty values count as missing; format violations count as invalid.
func (u *User) ValidateForCreate() error {
	if u.Email == "" || u.Phone == "" || u.LastName == "" || u.FirstName == "" ||
		u.Birthday.IsZero() || u.Password == "" || u.Login == "" {
		return ErrUserMissingFields
	}
	if !u.validFormat(true) {
		return ErrUserInvalidFields
	}
	return nil
}

// ValidateForUpdate checks required fields and formats for an update patch.
// The password is not re-checked: an empty password means "keep current".
func (u *User) ValidateForUpdate() error {
	if u.Email == "" || u.Phone == "" || u.LastName == "" || u.FirstName == "" ||
		u.Birthday.IsZero() {
		return ErrUserMissingFields
	}
	if !u.validFormat(false) {
		return ErrUserInvalidFields
	}
	return nil
}

func (u *User) validFormat(checkPassword bool) bool {
	if !strings.Contains(u.Email, "@") {
		return false
	}
	if len(u.Login) < 3 {
		return false
	}
	if checkPassword && len(u.Password) < 6 {
		return false
	}
	return true
}

// RecalculateTotalUsage re-derives TotalUsage from the attached car list.
func (u *User) RecalculateTotalUsage() {
	total := 0
	for _, c := range u.Cars {
		total += c.UsageCount
	}
	u.TotalUsage = total
}
