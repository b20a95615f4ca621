package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity types recorded in a coach's feed.
const (
	ActivityNote              = "note"
	ActivityClientCreated     = "client_created"
	ActivityClientUpdated     = "client_updated"
	ActivityClientDeleted     = "client_deleted"
	ActivityTelegramLinked    = "telegram_linked"
	ActivityTelegramUnlinked  = "telegram_unlinked"
	ActivityMeasurementAdded  = "measurement_added"
	ActivityMeasurementEdited = "measurement_updated"
	ActivityMeasurementGone   = "measurement_deleted"
	ActivityPlanCreated       = "diet_plan_created"
	ActivityPlanUpdated       = "diet_plan_updated"
	ActivityPlanActivated     = "diet_plan_activated"
	ActivityPlanDeleted       = "diet_plan_deleted"
	ActivityAppointmentBooked = "appointment_created"
	ActivityAppointmentEdited = "appointment_updated"
	ActivityAppointmentDone   = "appointment_completed"
	ActivityAppointmentCancel = "appointment_cancelled"
	ActivityAppointmentGone   = "appointment_deleted"
)

type Activity struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID  `bson:"user_id" json:"userId"`
	ClientID    *primitive.ObjectID `bson:"client_id,omitempty" json:"clientId,omitempty"`
	Type        string              `bson:"type" json:"type"`
	Description string              `bson:"description" json:"description"`
	RefID       *primitive.ObjectID `bson:"ref_id,omitempty" json:"refId,omitempty"`
	CreatedAt   time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updatedAt"`
}
