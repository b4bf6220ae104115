package domain

import (
	"errors"
	"testing"
	"time"
)

func validUser() *User {
	return &User{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Birthday:  time.Date(1990, 12, 10, 0, 0, 0, 0, time.UTC),
		Login:     "ada",
		Password:  "secret1",
		Phone:     "+5511999990000",
	}
}

func TestUserValidateForCreate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(u *User)
		wantErr error
	}{
		{"valid", func(u *User) {}, nil},
		{"missing email", func(u *User) { u.Email = "" }, ErrUserMissingFields},
		{"missing phone", func(u *User) { u.Phone = "" }, ErrUserMissingFields},
		{"missing last name", func(u *User) { u.LastName = "" }, ErrUserMissingFields},
		{"missing first name", func(u *User) { u.FirstName = "" }, ErrUserMissingFields},
		{"missing birthday", func(u *User) { u.Birthday = time.Time{} }, ErrUserMissingFields},
		{"missing password", func(u *User) { u.Password = "" }, ErrUserMissingFields},
		{"missing login", func(u *User) { u.Login = "" }, ErrUserMissingFields},
		{"email without at sign", func(u *User) { u.Email = "ada.example.com" }, ErrUserInvalidFields},
		{"login too short", func(u *User) { u.Login = "ad" }, ErrUserInvalidFields},
		{"password too short", func(u *User) { u.Password = "12345" }, ErrUserInvalidFields},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := validUser()
			tt.mutate(u)
			err := u.ValidateForCreate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateForCreate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUserValidateForUpdateSkipsPassword(t *testing.T) {
	u := validUser()
	u.Password = ""
	if err := u.ValidateForUpdate(); err != nil {
		t.Errorf("ValidateForUpdate() with empty password = %v, want nil", err)
	}

	u.Password = "123"
	if err := u.ValidateForUpdate(); err != nil {
		t.Errorf("ValidateForUpdate() ignores password length, got %v", err)
	}
}

func TestUserValidateForUpdateMissing(t *testing.T) {
	u := validUser()
	u.Email = ""
	if err := u.ValidateForUpdate(); !errors.Is(err, ErrUserMissingFields) {
		t.Errorf("ValidateForUpdate() = %v, want %v", err, ErrUserMissingFields)
	}
}

func TestRecalculateTotalUsage(t *testing.T) {
	u := validUser()
	u.Cars = []Car{
		{UsageCount: 2},
		{UsageCount: 5},
		{UsageCount: 0},
	}
	u.RecalculateTotalUsage()
	if u.TotalUsage != 7 {
		t.Errorf("TotalUsage = %d, want 7", u.TotalUsage)
	}

	u.Cars = nil
	u.RecalculateTotalUsage()
	if u.TotalUsage != 0 {
		t.Errorf("TotalUsage with no cars = %d, want 0", u.TotalUsage)
	}
}
