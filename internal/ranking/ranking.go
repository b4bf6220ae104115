// Package ranking computes usage-based orderings for cars and users.
// Both orderings are pure: inputs are copied, never mutated.
package ranking

import (
	"sort"

	"github.com/openmotors/car-users-api/internal/domain"
)

// CarsByUsage orders cars by usage count descending, ties broken by model
// ascending. The sort is stable, so equal composite keys keep their
// relative input order.
func CarsByUsage(cars []domain.Car) []domain.Car {
	ordered := make([]domain.Car, len(cars))
	copy(ordered, cars)

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].UsageCount != ordered[j].UsageCount {
			return ordered[i].UsageCount > ordered[j].UsageCount
		}
		return ordered[i].Model < ordered[j].Model
	})

	return ordered
}

// UsersByUsage orders users by aggregate usage descending, ties broken by
// login ascending.
func UsersByUsage(users []domain.User) []domain.User {
	ordered := make([]domain.User, len(users))
	copy(ordered, users)

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].TotalUsage != ordered[j].TotalUsage {
			return ordered[i].TotalUsage > ordered[j].TotalUsage
		}
		return ordered[i].Login < ordered[j].Login
	})

	return ordered
}
