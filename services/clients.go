package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"dietcoach/models"
	"dietcoach/repository"
	"dietcoach/validation"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const referenceCodeAttempts = 5

func (a *API) ListClients(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	active, ok := queryBool(c, "active")
	if !ok {
		return
	}
	clients, err := a.Clients.ListClients(c.Request.Context(), userID, repository.ClientFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Active: active,
	})
	if err != nil {
		fail(c, err, "Client", "fetch clients")
		return
	}
	c.JSON(http.StatusOK, clients)
}

// saveWithNewCode assigns a fresh reference code and persists the client with
// save, retrying when the code is already taken.
func saveWithNewCode(ctx context.Context, client *models.Client, save func(context.Context, *models.Client) error) error {
	var err error
	for i := 0; i < referenceCodeAttempts; i++ {
		client.ReferenceCode, err = models.NewReferenceCode()
		if err != nil {
			return err
		}
		err = save(ctx, client)
		if !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
		zap.L().Debug("reference code collision, retrying")
	}
	return err
}

func (a *API) CreateClient(c *gin.Context) {
	var in validation.ClientInput
	if !validation.BindJSON(c, &in) {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		validation.Abort(c, validation.Issue{Field: "name", Message: "Required"})
		return
	}

	client := &models.Client{
		UserID:       userID,
		Name:         name,
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:        strings.TrimSpace(in.Phone),
		Gender:       in.Gender,
		BirthDate:    in.BirthDate,
		Height:       in.Height,
		TargetWeight: in.TargetWeight,
		Goal:         in.Goal,
		Notes:        in.Notes,
		AvatarURL:    in.AvatarURL,
		IsActive:     in.IsActive == nil || *in.IsActive,
	}
	ctx := c.Request.Context()
	if err := saveWithNewCode(ctx, client, a.Clients.CreateClient); err != nil {
		fail(c, err, "Client", "create client")
		return
	}

	a.record(ctx, userID, &client.ID, models.ActivityClientCreated, "New client "+client.Name, &client.ID)
	c.JSON(http.StatusCreated, client)
}

func (a *API) GetClient(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	client, ok := a.ownedClient(c, userID, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, client)
}

func (a *API) UpdateClient(c *gin.Context) {
	var in validation.ClientPatch
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
	client, ok := a.ownedClient(c, userID, id)
	if !ok {
		return
	}

	if in.Name != nil {
		if client.Name = trimmed(in.Name); client.Name == "" {
			validation.Abort(c, validation.Issue{Field: "name", Message: "Required"})
			return
		}
	}
	if in.Email != nil {
		client.Email = strings.ToLower(trimmed(in.Email))
	}
	if in.Phone != nil {
		client.Phone = trimmed(in.Phone)
	}
	if in.Gender != nil {
		client.Gender = *in.Gender
	}
	if in.BirthDate != nil {
		client.BirthDate = in.BirthDate
	}
	heightChanged := in.Height != nil && *in.Height != client.Height
	if in.Height != nil {
		client.Height = *in.Height
	}
	if in.TargetWeight != nil {
		client.TargetWeight = *in.TargetWeight
	}
	if in.Goal != nil {
		client.Goal = *in.Goal
	}
	if in.Notes != nil {
		client.Notes = *in.Notes
	}
	if in.AvatarURL != nil {
		client.AvatarURL = *in.AvatarURL
	}
	if in.IsActive != nil {
		client.IsActive = *in.IsActive
	}

	ctx := c.Request.Context()
	if err := a.Clients.UpdateClient(ctx, client); err != nil {
		fail(c, err, "Client", "update client")
		return
	}
	if heightChanged {
		a.refreshBMI(ctx, userID, client)
	}
	a.record(ctx, userID, &client.ID, models.ActivityClientUpdated, "Updated client "+client.Name, &client.ID)
	c.JSON(http.StatusOK, client)
}

// DeleteClient removes the client together with its measurements, diet
// plans, appointments and activities.
func (a *API) DeleteClient(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	client, ok := a.ownedClient(c, userID, id)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if _, err := a.Measurements.DeleteClientMeasurements(ctx, userID, id); err != nil {
		fail(c, err, "Client", "delete client measurements")
		return
	}
	if _, err := a.DietPlans.DeleteClientDietPlans(ctx, userID, id); err != nil {
		fail(c, err, "Client", "delete client diet plans")
		return
	}
	if _, err := a.Appointments.DeleteClientAppointments(ctx, userID, id); err != nil {
		fail(c, err, "Client", "delete client appointments")
		return
	}
	if _, err := a.Activities.DeleteClientActivities(ctx, userID, id); err != nil {
		fail(c, err, "Client", "delete client activities")
		return
	}
	if err := a.Clients.DeleteClient(ctx, userID, id); err != nil {
		fail(c, err, "Client", "delete client")
		return
	}

	a.record(ctx, userID, nil, models.ActivityClientDeleted, "Removed client "+client.Name, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Client deleted"})
}

// RegenerateReferenceCode issues a new code and disconnects Telegram.
func (a *API) RegenerateReferenceCode(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	client, ok := a.ownedClient(c, userID, id)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	wasLinked := client.TelegramLinked()
	client.TelegramChatID = 0
	client.TelegramLinkedAt = nil
	if err := saveWithNewCode(ctx, client, a.Clients.UpdateClient); err != nil {
		fail(c, err, "Client", "regenerate reference code")
		return
	}
	if wasLinked {
		a.record(ctx, userID, &client.ID, models.ActivityTelegramUnlinked, client.Name+" disconnected from Telegram", &client.ID)
	}
	c.JSON(http.StatusOK, client)
}

func (a *API) UnlinkTelegram(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	client, ok := a.ownedClient(c, userID, id)
	if !ok {
		return
	}
	if !client.TelegramLinked() {
		c.JSON(http.StatusOK, client)
		return
	}
	ctx := c.Request.Context()

	if err := a.Clients.SetTelegramChat(ctx, client.ID, 0); err != nil {
		fail(c, err, "Client", "unlink telegram")
		return
	}
	client.TelegramChatID = 0
	client.TelegramLinkedAt = nil
	a.record(ctx, userID, &client.ID, models.ActivityTelegramUnlinked, client.Name+" disconnected from Telegram", &client.ID)
	c.JSON(http.StatusOK, client)
}

func (a *API) UploadClientAvatar(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	client, ok := a.ownedClient(c, userID, id)
	if !ok {
		return
	}
	obj, ok := a.storeUpload(c)
	if !ok {
		return
	}

	client.AvatarURL = obj.URL
	if err := a.Clients.UpdateClient(c.Request.Context(), client); err != nil {
		fail(c, err, "Client", "update client")
		return
	}
	c.JSON(http.StatusOK, client)
}

// refreshBMI rewrites the stored BMI of the client's measurements after a
// height change. Failures are logged; progress derives BMI from the height anyway.
func (a *API) refreshBMI(ctx context.Context, userID primitive.ObjectID, client *models.Client) {
	ms, err := a.Measurements.ListMeasurements(ctx, userID, repository.MeasurementFilter{ClientID: &client.ID})
	if err != nil {
		zap.L().Warn("refresh bmi: list measurements failed", zap.String("client_id", client.ID.Hex()), zap.Error(err))
		return
	}
	for i := range ms {
		m := &ms[i]
		bmi := models.BMI(m.Weight, client.Height)
		if bmi == m.BMI {
			continue
		}
		m.BMI = bmi
		if err := a.Measurements.UpdateMeasurement(ctx, m); err != nil {
			zap.L().Warn("refresh bmi: update measurement failed", zap.String("measurement_id", m.ID.Hex()), zap.Error(err))
		}
	}
}

func (a *API) ClientProgress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	client, ok := a.ownedClient(c, userID, id)
	if !ok {
		return
	}
	ms, err := a.Measurements.ListMeasurements(c.Request.Context(), userID, repository.MeasurementFilter{
		ClientID:  &client.ID,
		Ascending: true,
	})
	if err != nil {
		fail(c, err, "Measurement", "fetch measurements")
		return
	}
	c.JSON(http.StatusOK, models.NewProgress(client, ms))
}
