package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	AppointmentInPerson = "in_person"
	AppointmentOnline   = "online"

	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

type Appointment struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"user_id" json:"userId"`
	ClientID        primitive.ObjectID `bson:"client_id" json:"clientId"`
	Date            time.Time          `bson:"date" json:"date"`
	DurationMinutes int                `bson:"duration_minutes" json:"durationMinutes"`
	Type            string             `bson:"type" json:"type"`
	Status          string             `bson:"status" json:"status"`
	Location        string             `bson:"location,omitempty" json:"location,omitempty"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	ReminderSent    bool               `bson:"reminder_sent" json:"reminderSent"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updatedAt"`
}

// End is the instant the appointment finishes.
func (a *Appointment) End() time.Time {
	return a.Date.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Overlaps reports whether the two appointments share any instant.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.Date.Before(end) && start.Before(a.End())
}
