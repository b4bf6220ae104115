package api

import (
	"time"

	"github.com/openmotors/car-users-api/internal/domain"
)

// Common request/response structures

// SigninRequest defines the payload for the token issuance endpoint.
type SigninRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// TokenResponse defines the successful signin response.
type TokenResponse struct {
	Token string `json:"token"`
}

// SaveCarRequest is a car entry in a create or update payload. ID is zero
// for new cars and set when an update payload references an existing car.
type SaveCarRequest struct {
	ID           int64  `json:"id"`
	Year         int    `json:"year"`
	LicensePlate string `json:"licensePlate"`
	Model        string `json:"model"`
	Color        string `json:"color"`
}

// SaveUserRequest defines the payload for user create and update. Password
// is required on create and optional on update; an omitted Cars list on
// update leaves the car set untouched.
type SaveUserRequest struct {
	FirstName string           `json:"firstName"`
	LastName  string           `json:"lastName"`
	Email     string           `json:"email"`
	Birthday  time.Time        `json:"birthday"`
	Login     string           `json:"login"`
	Password  string           `json:"password"`
	Phone     string           `json:"phone"`
	Cars      []SaveCarRequest `json:"cars"`
}

// ToDomain converts the request payload to a domain user.
func (r SaveUserRequest) ToDomain() *domain.User {
	user := &domain.User{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Birthday:  r.Birthday,
		Login:     r.Login,
		Password:  r.Password,
		Phone:     r.Phone,
	}
	for _, c := range r.Cars {
		user.Cars = append(user.Cars, *c.ToDomain())
	}
	return user
}

// ToDomain converts the request payload to a domain car.
func (r SaveCarRequest) ToDomain() *domain.Car {
	return &domain.Car{
		ID:           r.ID,
		Year:         r.Year,
		LicensePlate: r.LicensePlate,
		Model:        r.Model,
		Color:        r.Color,
	}
}
