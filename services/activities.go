package services

import (
	"net/http"
	"strings"

	"dietcoach/models"
	"dietcoach/repository"
	"dietcoach/validation"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxActivityLimit = 200

func (a *API) ListActivities(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	clientID, ok := queryObjectID(c, "clientId")
	if !ok {
		return
	}
	limit, ok := queryLimit(c, repository.DefaultActivityLimit, maxActivityLimit)
	if !ok {
		return
	}
	acts, err := a.Activities.ListActivities(c.Request.Context(), userID, repository.ActivityFilter{
		ClientID: clientID,
		Limit:    limit,
	})
	if err != nil {
		fail(c, err, "Activity", "fetch activities")
		return
	}
	c.JSON(http.StatusOK, acts)
}

// CreateActivity adds a manual note to the feed, optionally about a client.
func (a *API) CreateActivity(c *gin.Context) {
	var in validation.ActivityInput
	if !validation.BindJSON(c, &in) {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		validation.Abort(c, validation.Issue{Field: "description", Message: "Required"})
		return
	}

	act := &models.Activity{UserID: userID, Type: models.ActivityNote, Description: description}
	if in.ClientID != "" {
		clientID, _ := primitive.ObjectIDFromHex(in.ClientID)
		client, ok := a.ownedClient(c, userID, clientID)
		if !ok {
			return
		}
		act.ClientID = &client.ID
	}

	if err := a.Activities.CreateActivity(c.Request.Context(), act); err != nil {
		fail(c, err, "Activity", "create activity")
		return
	}
	c.JSON(http.StatusCreated, act)
}

func (a *API) DeleteActivity(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := a.Activities.DeleteActivity(c.Request.Context(), userID, id); err != nil {
		fail(c, err, "Activity", "delete activity")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Activity deleted"})
}
