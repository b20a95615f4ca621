// Package services holds the HTTP handlers of the coaching resources.
package services

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dietcoach/auth"
	"dietcoach/models"
	"dietcoach/notify"
	"dietcoach/repository"
	"dietcoach/storage"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// API serves every authenticated resource route except /auth.
type API struct {
	Clients      repository.ClientRepository
	Measurements repository.MeasurementRepository
	DietPlans    repository.DietPlanRepository
	Appointments repository.AppointmentRepository
	Activities   repository.ActivityRepository

	Notifier notify.Notifier
	// Uploader is nil when no image host is configured.
	Uploader       storage.Uploader
	MaxUploadBytes int64

	Location *time.Location
	Now      func() time.Time
}

func (a *API) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now().UTC()
}

func (a *API) loc() *time.Location {
	if a.Location != nil {
		return a.Location
	}
	return time.UTC
}

func currentUser(c *gin.Context) (primitive.ObjectID, bool) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return userID, ok
}

func paramID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return primitive.NilObjectID, false
	}
	return id, true
}

func queryObjectID(c *gin.Context, key string) (*primitive.ObjectID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + key})
		return nil, false
	}
	return &id, true
}

// queryDate accepts RFC3339 timestamps and plain YYYY-MM-DD dates. Plain
// dates are local midnight; with endOfDay set they mean the following
// midnight so that the named day is included in an exclusive range.
func (a *API) queryDate(c *gin.Context, key string, endOfDay bool) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, true
	}
	if t, err := time.ParseInLocation(time.DateOnly, raw, a.loc()); err == nil {
		if endOfDay {
			t = t.AddDate(0, 0, 1)
		}
		return &t, true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + key + " date"})
	return nil, false
}

func queryBool(c *gin.Context, key string) (*bool, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + key})
		return nil, false
	}
	return &v, true
}

func queryLimit(c *gin.Context, def, max int64) (int64, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 1 || n > max {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return 0, false
	}
	return n, true
}

// fail maps repository errors to responses. resource names the 404, action
// the 500.
func fail(c *gin.Context, err error, resource, action string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": resource + " not found"})
	case errors.Is(err, repository.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": resource + " already exists"})
	default:
		zap.L().Error("request failed", zap.String("action", action), zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}

// ownedClient loads a client of userID, writing 404 when it does not exist.
func (a *API) ownedClient(c *gin.Context, userID, clientID primitive.ObjectID) (*models.Client, bool) {
	client, err := a.Clients.GetClient(c.Request.Context(), userID, clientID)
	if err != nil {
		fail(c, err, "Client", "load client")
		return nil, false
	}
	return client, true
}

// record appends to the activity feed. Failures are logged only.
func (a *API) record(ctx context.Context, userID primitive.ObjectID, clientID *primitive.ObjectID, kind, description string, ref *primitive.ObjectID) {
	act := &models.Activity{
		UserID:      userID,
		ClientID:    clientID,
		Type:        kind,
		Description: description,
		RefID:       ref,
	}
	if err := a.Activities.CreateActivity(ctx, act); err != nil {
		zap.L().Warn("record activity failed", zap.String("type", kind), zap.Error(err))
	}
}

func (a *API) notify(ctx context.Context, client *models.Client, text string) {
	if a.Notifier == nil {
		return
	}
	if err := a.Notifier.NotifyClient(ctx, client, text); err != nil {
		zap.L().Warn("client notification failed", zap.String("client_id", client.ID.Hex()), zap.Error(err))
	}
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
