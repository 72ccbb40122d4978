package moodtheme

import (
	"fmt"

	"judolog/internal/apperr"
)

// Suggest picks a theme for a daily check-in. energy and stress are optional.
func Suggest(mood int, energy, stress *int) (Theme, error) {
	if err := checkLevel("mood", &mood); err != nil {
		return Theme{}, err
	}
	if err := checkLevel("energy", energy); err != nil {
		return Theme{}, err
	}
	if err := checkLevel("stress", stress); err != nil {
		return Theme{}, err
	}
	return ByMood(AdjustedMood(mood, energy, stress)), nil
}

// AdjustedMood applies the energy rule, then the stress rule, clamped to 1..5.
func AdjustedMood(mood int, energy, stress *int) int {
	adjusted := mood
	switch {
	case energy != nil && *energy <= 2 && mood > 3:
		adjusted--
	case energy != nil && *energy >= 4 && mood < 4:
		adjusted++
	}
	adjusted = clamp(adjusted)
	if stress != nil && *stress >= 4 {
		adjusted = clamp(adjusted - 1)
	}
	return adjusted
}

func clamp(v int) int {
	if v < MinLevel {
		return MinLevel
	}
	if v > MaxLevel {
		return MaxLevel
	}
	return v
}

func checkLevel(field string, v *int) error {
	if v == nil {
		return nil
	}
	if *v < MinLevel || *v > MaxLevel {
		return apperr.Invalid(field, fmt.Sprintf("must be between %d and %d, got %d", MinLevel, MaxLevel, *v))
	}
	return nil
}
