package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Food struct {
	Name     string  `bson:"name" json:"name"`
	Quantity float64 `bson:"quantity,omitempty" json:"quantity,omitempty"`
	Unit     string  `bson:"unit,omitempty" json:"unit,omitempty"`
	Calories int     `bson:"calories,omitempty" json:"calories,omitempty"`
}

type Meal struct {
	Name  string `bson:"name" json:"name"`
	Time  string `bson:"time,omitempty" json:"time,omitempty"`
	Foods []Food `bson:"foods,omitempty" json:"foods,omitempty"`
	Notes string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Calories sums the calories of the meal's foods.
func (m Meal) Calories() int {
	total := 0
	for _, f := range m.Foods {
		total += f.Calories
	}
	return total
}

type Macros struct {
	Protein float64 `bson:"protein" json:"protein"`
	Carbs   float64 `bson:"carbs" json:"carbs"`
	Fat     float64 `bson:"fat" json:"fat"`
}

type DietPlan struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"user_id" json:"userId"`
	ClientID      primitive.ObjectID `bson:"client_id" json:"clientId"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	StartDate     time.Time          `bson:"start_date" json:"startDate"`
	EndDate       *time.Time         `bson:"end_date,omitempty" json:"endDate,omitempty"`
	DailyCalories int                `bson:"daily_calories,omitempty" json:"dailyCalories,omitempty"`
	Macros        *Macros            `bson:"macros,omitempty" json:"macros,omitempty"`
	Meals         []Meal             `bson:"meals,omitempty" json:"meals,omitempty"`
	IsActive      bool               `bson:"is_active" json:"isActive"`
	AttachmentURL string             `bson:"attachment_url,omitempty" json:"attachmentUrl,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

// MealCalories sums calories over all meals.
func (p *DietPlan) MealCalories() int {
	total := 0
	for _, m := range p.Meals {
		total += m.Calories()
	}
	return total
}
