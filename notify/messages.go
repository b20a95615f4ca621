package notify

import (
	"fmt"
	"strings"
	"time"

	"dietcoach/models"
)

const timeLayout = "Mon 02 Jan 2006, 15:04"

func typeLabel(t string) string {
	if t == models.AppointmentOnline {
		return "Online"
	}
	return "In person"
}

// FormatAppointment describes an appointment in loc.
func FormatAppointment(a *models.Appointment, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d min), %s", a.Date.In(loc).Format(timeLayout), a.DurationMinutes, typeLabel(a.Type))
	if a.Location != "" {
		fmt.Fprintf(&b, " at %s", a.Location)
	}
	return b.String()
}

func AppointmentBooked(a *models.Appointment, loc *time.Location) string {
	return "New appointment: " + FormatAppointment(a, loc)
}

func AppointmentChanged(a *models.Appointment, loc *time.Location) string {
	return "Appointment updated: " + FormatAppointment(a, loc)
}

func AppointmentCancelled(a *models.Appointment, loc *time.Location) string {
	return "Appointment cancelled: " + a.Date.In(loc).Format(timeLayout)
}

func AppointmentReminder(a *models.Appointment, loc *time.Location) string {
	return "Reminder: " + FormatAppointment(a, loc)
}

// FormatPlan summarises a diet plan for a chat message.
func FormatPlan(p *models.DietPlan) string {
	var b strings.Builder
	b.WriteString(p.Title)
	if p.DailyCalories > 0 {
		fmt.Fprintf(&b, "\nDaily calories: %d kcal", p.DailyCalories)
	}
	if p.Macros != nil {
		fmt.Fprintf(&b, "\nProtein %gg, carbs %gg, fat %gg", p.Macros.Protein, p.Macros.Carbs, p.Macros.Fat)
	}
	for _, m := range p.Meals {
		b.WriteString("\n")
		if m.Time != "" {
			b.WriteString(m.Time + " ")
		}
		b.WriteString(m.Name)
		if kcal := m.Calories(); kcal > 0 {
			fmt.Fprintf(&b, " (%d kcal)", kcal)
		}
		names := make([]string, 0, len(m.Foods))
		for _, f := range m.Foods {
			names = append(names, f.Name)
		}
		if len(names) > 0 {
			b.WriteString(": " + strings.Join(names, ", "))
		}
	}
	return b.String()
}

func PlanAssigned(p *models.DietPlan) string {
	return "Your coach assigned a new diet plan.\n\n" + FormatPlan(p)
}
