package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Measurement is a body composition snapshot of a client.
type Measurement struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"user_id" json:"userId"`
	ClientID   primitive.ObjectID `bson:"client_id" json:"clientId"`
	Date       time.Time          `bson:"date" json:"date"`
	Weight     float64            `bson:"weight" json:"weight"`
	BodyFat    float64            `bson:"body_fat,omitempty" json:"bodyFat,omitempty"`
	MuscleMass float64            `bson:"muscle_mass,omitempty" json:"muscleMass,omitempty"`
	Water      float64            `bson:"water,omitempty" json:"water,omitempty"`
	Waist      float64            `bson:"waist,omitempty" json:"waist,omitempty"`
	Hip        float64            `bson:"hip,omitempty" json:"hip,omitempty"`
	Chest      float64            `bson:"chest,omitempty" json:"chest,omitempty"`
	Arm        float64            `bson:"arm,omitempty" json:"arm,omitempty"`
	Thigh      float64            `bson:"thigh,omitempty" json:"thigh,omitempty"`
	BMI        float64            `bson:"bmi,omitempty" json:"bmi,omitempty"`
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Photos     []string           `bson:"photos,omitempty" json:"photos,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updatedAt"`
}

// BMI returns weight(kg) / height(m)^2 rounded to one decimal. Zero when
// either input is missing.
func BMI(weightKg, heightCm float64) float64 {
	if weightKg <= 0 || heightCm <= 0 {
		return 0
	}
	m := heightCm / 100
	return math.Round(weightKg/(m*m)*10) / 10
}

// ProgressPoint is one entry of a client's progress series.
type ProgressPoint struct {
	Date    time.Time `json:"date"`
	Weight  float64   `json:"weight"`
	BodyFat float64   `json:"bodyFat,omitempty"`
	BMI     float64   `json:"bmi,omitempty"`
}

// Progress summarises a client's measurements in date order.
type Progress struct {
	ClientID     primitive.ObjectID `json:"clientId"`
	Points       []ProgressPoint    `json:"points"`
	WeightChange float64            `json:"weightChange"`
	BodyFatDelta float64            `json:"bodyFatChange"`
	TargetWeight float64            `json:"targetWeight,omitempty"`
	ToTarget     float64            `json:"toTarget,omitempty"`
}

// NewProgress builds a Progress from measurements sorted by date ascending.
// BMI follows the client's current height when one is set.
func NewProgress(client *Client, ms []Measurement) Progress {
	p := Progress{
		ClientID:     client.ID,
		Points:       make([]ProgressPoint, 0, len(ms)),
		TargetWeight: client.TargetWeight,
	}
	for _, m := range ms {
		bmi := m.BMI
		if client.Height > 0 {
			bmi = BMI(m.Weight, client.Height)
		}
		p.Points = append(p.Points, ProgressPoint{Date: m.Date, Weight: m.Weight, BodyFat: m.BodyFat, BMI: bmi})
	}
	if len(ms) == 0 {
		return p
	}
	first, last := ms[0], ms[len(ms)-1]
	p.WeightChange = round1(last.Weight - first.Weight)
	if first.BodyFat > 0 && last.BodyFat > 0 {
		p.BodyFatDelta = round1(last.BodyFat - first.BodyFat)
	}
	if client.TargetWeight > 0 {
		p.ToTarget = round1(client.TargetWeight - last.Weight)
	}
	return p
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
