package services

import (
	"net/http"
	"time"

	"dietcoach/models"
	"dietcoach/notify"
	"dietcoach/repository"
	"dietcoach/validation"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultAppointmentMinutes = 60

var appointmentStatuses = map[string]bool{
	models.StatusScheduled: true,
	models.StatusCompleted: true,
	models.StatusCancelled: true,
}

func (a *API) ListAppointments(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	clientID, ok := queryObjectID(c, "clientId")
	if !ok {
		return
	}
	status := c.Query("status")
	if status != "" && !appointmentStatuses[status] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}
	from, ok := a.queryDate(c, "from", false)
	if !ok {
		return
	}
	to, ok := a.queryDate(c, "to", true)
	if !ok {
		return
	}
	appointments, err := a.Appointments.ListAppointments(c.Request.Context(), userID, repository.AppointmentFilter{
		ClientID: clientID,
		Status:   status,
		From:     from,
		To:       to,
	})
	if err != nil {
		fail(c, err, "Appointment", "fetch appointments")
		return
	}
	c.JSON(http.StatusOK, appointments)
}

// checkOverlap writes 409 when appt collides with another scheduled
// appointment of the same coach.
func (a *API) checkOverlap(c *gin.Context, appt *models.Appointment) bool {
	clash, err := a.Appointments.Overlapping(c.Request.Context(), appt.UserID, appt.Date, appt.End(), appt.ID)
	if err != nil {
		fail(c, err, "Appointment", "check schedule")
		return false
	}
	if len(clash) > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error":         "Appointment overlaps with an existing appointment",
			"conflictsWith": clash[0].ID,
		})
		return false
	}
	return true
}

func (a *API) CreateAppointment(c *gin.Context) {
	var in validation.AppointmentInput
	if !validation.BindJSON(c, &in) {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	clientID, _ := primitive.ObjectIDFromHex(in.ClientID)
	client, ok := a.ownedClient(c, userID, clientID)
	if !ok {
		return
	}

	appt := &models.Appointment{
		UserID:          userID,
		ClientID:        client.ID,
		Date:            in.Date.UTC(),
		DurationMinutes: in.DurationMinutes,
		Type:            in.Type,
		Status:          models.StatusScheduled,
		Location:        in.Location,
		Notes:           in.Notes,
	}
	if appt.DurationMinutes == 0 {
		appt.DurationMinutes = defaultAppointmentMinutes
	}
	if appt.Type == "" {
		appt.Type = models.AppointmentInPerson
	}
	if !a.checkOverlap(c, appt) {
		return
	}

	ctx := c.Request.Context()
	if err := a.Appointments.CreateAppointment(ctx, appt); err != nil {
		fail(c, err, "Appointment", "create appointment")
		return
	}
	a.notify(ctx, client, notify.AppointmentBooked(appt, a.loc()))
	a.record(ctx, userID, &client.ID, models.ActivityAppointmentBooked,
		"Booked "+client.Name+" for "+appt.Date.In(a.loc()).Format(time.DateTime), &appt.ID)
	c.JSON(http.StatusCreated, appt)
}

func (a *API) GetAppointment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	appt, err := a.Appointments.GetAppointment(c.Request.Context(), userID, id)
	if err != nil {
		fail(c, err, "Appointment", "load appointment")
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (a *API) UpdateAppointment(c *gin.Context) {
	var in validation.AppointmentPatch
	if !validation.BindJSON(c, &in) {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	appt, err := a.Appointments.GetAppointment(ctx, userID, id)
	if err != nil {
		fail(c, err, "Appointment", "load appointment")
		return
	}
	client, ok := a.ownedClient(c, userID, appt.ClientID)
	if !ok {
		return
	}
	prevStatus := appt.Status

	if in.Date != nil && !in.Date.Equal(appt.Date) {
		appt.Date = in.Date.UTC()
		appt.ReminderSent = false
	}
	if in.DurationMinutes != nil {
		appt.DurationMinutes = *in.DurationMinutes
	}
	if in.Type != nil {
		appt.Type = *in.Type
	}
	if in.Status != nil {
		appt.Status = *in.Status
	}
	if in.Location != nil {
		appt.Location = *in.Location
	}
	if in.Notes != nil {
		appt.Notes = *in.Notes
	}
	if appt.Status == models.StatusScheduled && !a.checkOverlap(c, appt) {
		return
	}

	if err := a.Appointments.UpdateAppointment(ctx, appt); err != nil {
		fail(c, err, "Appointment", "update appointment")
		return
	}
	switch {
	case appt.Status == models.StatusCancelled && prevStatus != models.StatusCancelled:
		a.notify(ctx, client, notify.AppointmentCancelled(appt, a.loc()))
	case appt.Status == models.StatusScheduled:
		a.notify(ctx, client, notify.AppointmentChanged(appt, a.loc()))
	}
	a.record(ctx, userID, &client.ID, models.ActivityAppointmentEdited, "Updated appointment with "+client.Name, &appt.ID)
	c.JSON(http.StatusOK, appt)
}

func (a *API) DeleteAppointment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	appt, err := a.Appointments.GetAppointment(ctx, userID, id)
	if err != nil {
		fail(c, err, "Appointment", "load appointment")
		return
	}
	if err := a.Appointments.DeleteAppointment(ctx, userID, id); err != nil {
		fail(c, err, "Appointment", "delete appointment")
		return
	}
	a.record(ctx, userID, &appt.ClientID, models.ActivityAppointmentGone, "Deleted an appointment", nil)
	c.JSON(http.StatusOK, gin.H{"message": "Appointment deleted"})
}

func (a *API) CancelAppointment(c *gin.Context) {
	a.transition(c, models.StatusCancelled)
}

func (a *API) CompleteAppointment(c *gin.Context) {
	a.transition(c, models.StatusCompleted)
}

// transition moves a scheduled appointment to status.
func (a *API) transition(c *gin.Context, status string) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	appt, err := a.Appointments.GetAppointment(ctx, userID, id)
	if err != nil {
		fail(c, err, "Appointment", "load appointment")
		return
	}
	if appt.Status != models.StatusScheduled {
		c.JSON(http.StatusConflict, gin.H{"error": "Appointment is already " + appt.Status})
		return
	}
	client, ok := a.ownedClient(c, userID, appt.ClientID)
	if !ok {
		return
	}

	appt.Status = status
	if err := a.Appointments.UpdateAppointment(ctx, appt); err != nil {
		fail(c, err, "Appointment", "update appointment")
		return
	}

	if status == models.StatusCancelled {
		a.notify(ctx, client, notify.AppointmentCancelled(appt, a.loc()))
		a.record(ctx, userID, &client.ID, models.ActivityAppointmentCancel, "Cancelled appointment with "+client.Name, &appt.ID)
	} else {
		a.record(ctx, userID, &client.ID, models.ActivityAppointmentDone, "Completed appointment with "+client.Name, &appt.ID)
	}
	c.JSON(http.StatusOK, appt)
}
