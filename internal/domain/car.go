package domain

import "strings"

// Car represents a car owned by a user. A car with OwnerID == 0 is an
// orphan; orphans are only allowed transiently before creation completes.
type Car struct {
	ID           int64  `json:"id"`
	Year         int    `json:"year"`
	LicensePlate string `json:"licensePlate"`
	Model        string `json:"model"`
	Color        string `json:"color"`
	OwnerID      int64  `json:"-"`

	// UsageCount starts at zero and is monotonically non-decreasing.
	UsageCount int    `json:"usageCount"`
	PhotoURL   string `json:"photoUrl,omitempty"`
}

// Validate checks required fields and formats. Zero values count as
// missing; format violations count as invalid. License plates are compared
// exactly elsewhere: case and punctuation variants are distinct plates.
func (c *Car) Validate() error {
	if c.LicensePlate == "" || c.Model == "" || c.Year == 0 {
		return ErrCarMissingFields
	}
	if len(c.LicensePlate) < 5 || strings.TrimSpace(c.Model) == "" || c.Year <= 1900 {
		return ErrCarInvalidFields
	}
	return nil
}
