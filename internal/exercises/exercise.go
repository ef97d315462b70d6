package exercises

import (
	"slices"
	"strings"
	"time"
)

var MuscleGroup = struct {
	Biceps    string
	Triceps   string
	Back      string
	Legs      string
	Chest     string
	Shoulders string
	Core      string
	Other     string
}{
	Biceps:    "biceps",
	Triceps:   "triceps",
	Back:      "back",
	Legs:      "legs",
	Chest:     "chest",
	Shoulders: "shoulders",
	Core:      "core",
	Other:     "other",
}

var MuscleGroups = []string{
	MuscleGroup.Biceps,
	MuscleGroup.Triceps,
	MuscleGroup.Back,
	MuscleGroup.Legs,
	MuscleGroup.Chest,
	MuscleGroup.Shoulders,
	MuscleGroup.Core,
	MuscleGroup.Other,
}

func IsMuscleGroup(group string) bool {
	return slices.Contains(MuscleGroups, group)
}

// ExerciseType is an entry of a trainer's exercise library.
type ExerciseType struct {
	ID          string    `json:"id"`
	MuscleGroup string    `json:"muscleGroup"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Equipment   []string  `json:"equipment"`
	CreatedAt   time.Time `json:"createdAt"`
}

// normalize lowercases the muscle group and cleans up the equipment list.
func (e *ExerciseType) normalize() {
	e.MuscleGroup = strings.ToLower(strings.TrimSpace(e.MuscleGroup))
	e.Name = strings.TrimSpace(e.Name)
	e.Equipment = cleanList(e.Equipment)
}

func cleanList(list []string) []string {
	cleaned := make([]string, 0, len(list))
	for _, item := range list {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" || slices.Contains(cleaned, item) {
			continue
		}
		cleaned = append(cleaned, item)
	}
	return cleaned
}
