package services

import (
	"fmt"
	"net/http"

	"dietcoach/models"
	"dietcoach/repository"
	"dietcoach/validation"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (a *API) ListMeasurements(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	clientID, ok := queryObjectID(c, "clientId")
	if !ok {
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
	ms, err := a.Measurements.ListMeasurements(c.Request.Context(), userID, repository.MeasurementFilter{
		ClientID: clientID,
		From:     from,
		To:       to,
	})
	if err != nil {
		fail(c, err, "Measurement", "fetch measurements")
		return
	}
	c.JSON(http.StatusOK, ms)
}

func (a *API) CreateMeasurement(c *gin.Context) {
	var in validation.MeasurementInput
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

	m := &models.Measurement{
		UserID:     userID,
		ClientID:   client.ID,
		Date:       a.now(),
		Weight:     in.Weight,
		BodyFat:    in.BodyFat,
		MuscleMass: in.MuscleMass,
		Water:      in.Water,
		Waist:      in.Waist,
		Hip:        in.Hip,
		Chest:      in.Chest,
		Arm:        in.Arm,
		Thigh:      in.Thigh,
		Notes:      in.Notes,
		Photos:     in.Photos,
	}
	if in.Date != nil {
		m.Date = in.Date.UTC()
	}
	m.BMI = models.BMI(m.Weight, client.Height)

	ctx := c.Request.Context()
	if err := a.Measurements.CreateMeasurement(ctx, m); err != nil {
		fail(c, err, "Measurement", "create measurement")
		return
	}
	a.record(ctx, userID, &client.ID, models.ActivityMeasurementAdded,
		fmt.Sprintf("Recorded %.1f kg for %s", m.Weight, client.Name), &m.ID)
	c.JSON(http.StatusCreated, m)
}

func (a *API) GetMeasurement(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	m, err := a.Measurements.GetMeasurement(c.Request.Context(), userID, id)
	if err != nil {
		fail(c, err, "Measurement", "load measurement")
		return
	}
	c.JSON(http.StatusOK, m)
}

func (a *API) UpdateMeasurement(c *gin.Context) {
	var in validation.MeasurementPatch
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
	m, err := a.Measurements.GetMeasurement(ctx, userID, id)
	if err != nil {
		fail(c, err, "Measurement", "load measurement")
		return
	}
	client, ok := a.ownedClient(c, userID, m.ClientID)
	if !ok {
		return
	}

	if in.Date != nil {
		m.Date = in.Date.UTC()
	}
	setFloat(&m.Weight, in.Weight)
	setFloat(&m.BodyFat, in.BodyFat)
	setFloat(&m.MuscleMass, in.MuscleMass)
	setFloat(&m.Water, in.Water)
	setFloat(&m.Waist, in.Waist)
	setFloat(&m.Hip, in.Hip)
	setFloat(&m.Chest, in.Chest)
	setFloat(&m.Arm, in.Arm)
	setFloat(&m.Thigh, in.Thigh)
	if in.Notes != nil {
		m.Notes = *in.Notes
	}
	if in.Photos != nil {
		m.Photos = in.Photos
	}
	m.BMI = models.BMI(m.Weight, client.Height)

	if err := a.Measurements.UpdateMeasurement(ctx, m); err != nil {
		fail(c, err, "Measurement", "update measurement")
		return
	}
	a.record(ctx, userID, &client.ID, models.ActivityMeasurementEdited, "Updated a measurement of "+client.Name, &m.ID)
	c.JSON(http.StatusOK, m)
}

func (a *API) DeleteMeasurement(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	m, err := a.Measurements.GetMeasurement(ctx, userID, id)
	if err != nil {
		fail(c, err, "Measurement", "load measurement")
		return
	}
	if err := a.Measurements.DeleteMeasurement(ctx, userID, id); err != nil {
		fail(c, err, "Measurement", "delete measurement")
		return
	}
	a.record(ctx, userID, &m.ClientID, models.ActivityMeasurementGone, "Deleted a measurement", nil)
	c.JSON(http.StatusOK, gin.H{"message": "Measurement deleted"})
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
