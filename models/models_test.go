package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBMI(t *testing.T) {
	assert.Equal(t, 22.9, BMI(70, 175))
	assert.Equal(t, 0.0, BMI(70, 0))
	assert.Equal(t, 0.0, BMI(0, 180))
}

func TestClientAge(t *testing.T) {
	birth := time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC)
	c := &Client{BirthDate: &birth}

	assert.Equal(t, 33, c.Age(time.Date(2024, time.June, 14, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 34, c.Age(time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, (&Client{}).Age(time.Now()))
}

func TestAppointmentOverlaps(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	a := &Appointment{Date: start, DurationMinutes: 60}

	assert.Equal(t, start.Add(time.Hour), a.End())
	assert.True(t, a.Overlaps(start.Add(30*time.Minute), start.Add(90*time.Minute)))
	assert.False(t, a.Overlaps(start.Add(time.Hour), start.Add(2*time.Hour)))
	assert.False(t, a.Overlaps(start.Add(-time.Hour), start))
}

func TestNewProgress(t *testing.T) {
	client := &Client{ID: primitive.NewObjectID(), TargetWeight: 70}
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ms := []Measurement{
		{Date: day, Weight: 82.4, BodyFat: 25},
		{Date: day.AddDate(0, 0, 7), Weight: 81.1},
		{Date: day.AddDate(0, 0, 14), Weight: 80.0, BodyFat: 23.8},
	}

	p := NewProgress(client, ms)

	assert.Len(t, p.Points, 3)
	assert.Equal(t, -2.4, p.WeightChange)
	assert.Equal(t, -1.2, p.BodyFatDelta)
	assert.Equal(t, -10.0, p.ToTarget)
}

func TestNewProgress_BMIFollowsHeight(t *testing.T) {
	ms := []Measurement{{Weight: 70, BMI: 0}, {Weight: 72, BMI: 21.0}}

	p := NewProgress(&Client{Height: 175}, ms)
	assert.Equal(t, 22.9, p.Points[0].BMI)
	assert.Equal(t, 23.5, p.Points[1].BMI)

	p = NewProgress(&Client{}, ms)
	assert.Equal(t, 21.0, p.Points[1].BMI)
}

func TestNewProgress_Empty(t *testing.T) {
	p := NewProgress(&Client{}, nil)
	assert.Empty(t, p.Points)
	assert.Zero(t, p.WeightChange)
}

func TestDietPlanMealCalories(t *testing.T) {
	p := &DietPlan{Meals: []Meal{
		{Name: "Breakfast", Foods: []Food{{Name: "Oats", Calories: 300}, {Name: "Milk", Calories: 120}}},
		{Name: "Lunch", Foods: []Food{{Name: "Rice", Calories: 400}}},
	}}
	assert.Equal(t, 820, p.MealCalories())
}

func TestNewReferenceCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := NewReferenceCode()
		require.NoError(t, err)
		require.Len(t, code, ReferenceCodeLength)
		for _, r := range code {
			assert.Contains(t, ReferenceCodeAlphabet, string(r))
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45)
}
