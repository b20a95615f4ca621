package services

import (
	"net/http"
	"strings"
	"time"

	"dietcoach/models"
	"dietcoach/notify"
	"dietcoach/repository"
	"dietcoach/validation"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func toMeals(in []validation.MealInput) []models.Meal {
	if in == nil {
		return nil
	}
	meals := make([]models.Meal, 0, len(in))
	for _, m := range in {
		meal := models.Meal{Name: strings.TrimSpace(m.Name), Time: m.Time, Notes: m.Notes}
		for _, f := range m.Foods {
			meal.Foods = append(meal.Foods, models.Food{
				Name:     strings.TrimSpace(f.Name),
				Quantity: f.Quantity,
				Unit:     f.Unit,
				Calories: f.Calories,
			})
		}
		meals = append(meals, meal)
	}
	return meals
}

func toMacros(in *validation.MacrosInput) *models.Macros {
	if in == nil {
		return nil
	}
	return &models.Macros{Protein: in.Protein, Carbs: in.Carbs, Fat: in.Fat}
}

func validPeriod(c *gin.Context, start time.Time, end *time.Time) bool {
	if end != nil && end.Before(start) {
		validation.Abort(c, validation.Issue{Field: "endDate", Message: "End date must be on or after start date"})
		return false
	}
	return true
}

func (a *API) ListDietPlans(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	clientID, ok := queryObjectID(c, "clientId")
	if !ok {
		return
	}
	active, ok := queryBool(c, "active")
	if !ok {
		return
	}
	plans, err := a.DietPlans.ListDietPlans(c.Request.Context(), userID, repository.DietPlanFilter{
		ClientID: clientID,
		Active:   active,
	})
	if err != nil {
		fail(c, err, "Diet plan", "fetch diet plans")
		return
	}
	c.JSON(http.StatusOK, plans)
}

// CreateDietPlan stores a plan; new plans are active unless isActive is
// false, and an active plan replaces the client's current one.
func (a *API) CreateDietPlan(c *gin.Context) {
	var in validation.DietPlanInput
	if !validation.BindJSON(c, &in) {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if !validPeriod(c, in.StartDate, in.EndDate) {
		return
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		validation.Abort(c, validation.Issue{Field: "title", Message: "Required"})
		return
	}
	clientID, _ := primitive.ObjectIDFromHex(in.ClientID)
	client, ok := a.ownedClient(c, userID, clientID)
	if !ok {
		return
	}

	plan := &models.DietPlan{
		UserID:        userID,
		ClientID:      client.ID,
		Title:         title,
		Description:   in.Description,
		StartDate:     in.StartDate.UTC(),
		EndDate:       in.EndDate,
		DailyCalories: in.DailyCalories,
		Macros:        toMacros(in.Macros),
		Meals:         toMeals(in.Meals),
		IsActive:      in.IsActive == nil || *in.IsActive,
		AttachmentURL: in.AttachmentURL,
	}
	ctx := c.Request.Context()
	if err := a.DietPlans.CreateDietPlan(ctx, plan); err != nil {
		fail(c, err, "Diet plan", "create diet plan")
		return
	}
	if plan.IsActive {
		if err := a.DietPlans.DeactivateOthers(ctx, userID, client.ID, plan.ID); err != nil {
			fail(c, err, "Diet plan", "deactivate previous diet plans")
			return
		}
		a.notify(ctx, client, notify.PlanAssigned(plan))
	}

	a.record(ctx, userID, &client.ID, models.ActivityPlanCreated, "Created diet plan "+plan.Title+" for "+client.Name, &plan.ID)
	c.JSON(http.StatusCreated, plan)
}

func (a *API) GetDietPlan(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	plan, err := a.DietPlans.GetDietPlan(c.Request.Context(), userID, id)
	if err != nil {
		fail(c, err, "Diet plan", "load diet plan")
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (a *API) UpdateDietPlan(c *gin.Context) {
	var in validation.DietPlanPatch
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
	plan, err := a.DietPlans.GetDietPlan(ctx, userID, id)
	if err != nil {
		fail(c, err, "Diet plan", "load diet plan")
		return
	}

	if in.Title != nil {
		if plan.Title = trimmed(in.Title); plan.Title == "" {
			validation.Abort(c, validation.Issue{Field: "title", Message: "Required"})
			return
		}
	}
	if in.Description != nil {
		plan.Description = *in.Description
	}
	if in.StartDate != nil {
		plan.StartDate = in.StartDate.UTC()
	}
	if in.EndDate != nil {
		plan.EndDate = in.EndDate
	}
	if in.DailyCalories != nil {
		plan.DailyCalories = *in.DailyCalories
	}
	if in.Macros != nil {
		plan.Macros = toMacros(in.Macros)
	}
	if in.Meals != nil {
		plan.Meals = toMeals(in.Meals)
	}
	if in.AttachmentURL != nil {
		plan.AttachmentURL = *in.AttachmentURL
	}
	activated := in.IsActive != nil && *in.IsActive && !plan.IsActive
	if in.IsActive != nil {
		plan.IsActive = *in.IsActive
	}
	if !validPeriod(c, plan.StartDate, plan.EndDate) {
		return
	}

	var client *models.Client
	if activated {
		if client, ok = a.ownedClient(c, userID, plan.ClientID); !ok {
			return
		}
	}
	if err := a.DietPlans.UpdateDietPlan(ctx, plan); err != nil {
		fail(c, err, "Diet plan", "update diet plan")
		return
	}
	if plan.IsActive && in.IsActive != nil {
		if err := a.DietPlans.DeactivateOthers(ctx, userID, plan.ClientID, plan.ID); err != nil {
			fail(c, err, "Diet plan", "deactivate previous diet plans")
			return
		}
	}
	if activated {
		a.notify(ctx, client, notify.PlanAssigned(plan))
	}
	a.record(ctx, userID, &plan.ClientID, models.ActivityPlanUpdated, "Updated diet plan "+plan.Title, &plan.ID)
	c.JSON(http.StatusOK, plan)
}

func (a *API) DeleteDietPlan(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	plan, err := a.DietPlans.GetDietPlan(ctx, userID, id)
	if err != nil {
		fail(c, err, "Diet plan", "load diet plan")
		return
	}
	if err := a.DietPlans.DeleteDietPlan(ctx, userID, id); err != nil {
		fail(c, err, "Diet plan", "delete diet plan")
		return
	}
	a.record(ctx, userID, &plan.ClientID, models.ActivityPlanDeleted, "Deleted diet plan "+plan.Title, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Diet plan deleted"})
}

// ActivateDietPlan makes the plan the client's only active plan.
func (a *API) ActivateDietPlan(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	plan, err := a.DietPlans.GetDietPlan(ctx, userID, id)
	if err != nil {
		fail(c, err, "Diet plan", "load diet plan")
		return
	}
	client, ok := a.ownedClient(c, userID, plan.ClientID)
	if !ok {
		return
	}

	if !plan.IsActive {
		plan.IsActive = true
		if err := a.DietPlans.UpdateDietPlan(ctx, plan); err != nil {
			fail(c, err, "Diet plan", "activate diet plan")
			return
		}
	}
	if err := a.DietPlans.DeactivateOthers(ctx, userID, plan.ClientID, plan.ID); err != nil {
		fail(c, err, "Diet plan", "deactivate previous diet plans")
		return
	}

	a.notify(ctx, client, notify.PlanAssigned(plan))
	a.record(ctx, userID, &client.ID, models.ActivityPlanActivated, "Activated diet plan "+plan.Title+" for "+client.Name, &plan.ID)
	c.JSON(http.StatusOK, plan)
}
