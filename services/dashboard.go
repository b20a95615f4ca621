package services

import (
	"net/http"
	"time"

	"dietcoach/models"
	"dietcoach/repository"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const (
	dashboardUpcoming   = 5
	dashboardActivities = 10
)

type DashboardStats struct {
	TotalClients    int64 `json:"totalClients"`
	ActiveClients   int64 `json:"activeClients"`
	ActiveDietPlans int64 `json:"activeDietPlans"`
	TodayCount      int   `json:"todayAppointments"`
}

type Dashboard struct {
	Stats            DashboardStats       `json:"stats"`
	Today            []models.Appointment `json:"today"`
	Upcoming         []models.Appointment `json:"upcoming"`
	RecentActivities []models.Activity    `json:"recentActivities"`
}

// Dashboard gathers the coach's overview in parallel.
func (a *API) Dashboard(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	now := a.now()
	local := now.In(a.loc())
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, a.loc())
	dayEnd := dayStart.AddDate(0, 0, 1)
	active := true

	var d Dashboard
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) {
		d.Stats.TotalClients, err = a.Clients.CountClients(ctx, userID, nil)
		return err
	})
	g.Go(func() (err error) {
		d.Stats.ActiveClients, err = a.Clients.CountClients(ctx, userID, &active)
		return err
	})
	g.Go(func() (err error) {
		d.Stats.ActiveDietPlans, err = a.DietPlans.CountActiveDietPlans(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		d.Today, err = a.Appointments.ListAppointments(ctx, userID, repository.AppointmentFilter{
			Status: models.StatusScheduled,
			From:   &dayStart,
			To:     &dayEnd,
		})
		return err
	})
	g.Go(func() (err error) {
		d.Upcoming, err = a.Appointments.ListAppointments(ctx, userID, repository.AppointmentFilter{
			Status: models.StatusScheduled,
			From:   &now,
			Limit:  dashboardUpcoming,
		})
		return err
	})
	g.Go(func() (err error) {
		d.RecentActivities, err = a.Activities.ListActivities(ctx, userID, repository.ActivityFilter{Limit: dashboardActivities})
		return err
	})
	if err := g.Wait(); err != nil {
		fail(c, err, "Dashboard", "load dashboard")
		return
	}

	d.Stats.TodayCount = len(d.Today)
	c.JSON(http.StatusOK, d)
}
