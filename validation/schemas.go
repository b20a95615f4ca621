package validation

import "time"

type RegisterInput struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ProfileInput struct {
	Name      *string `json:"name" binding:"omitempty,min=2,max=100"`
	Phone     *string `json:"phone" binding:"omitempty,max=30"`
	Bio       *string `json:"bio" binding:"omitempty,max=1000"`
	AvatarURL *string `json:"avatarUrl" binding:"omitempty,url"`
}

type PasswordInput struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,max=72"`
}

type ClientInput struct {
	Name         string     `json:"name" binding:"required,min=1,max=100"`
	Email        string     `json:"email" binding:"omitempty,email"`
	Phone        string     `json:"phone" binding:"omitempty,max=30"`
	Gender       string     `json:"gender" binding:"omitempty,oneof=male female other"`
	BirthDate    *time.Time `json:"birthDate"`
	Height       float64    `json:"height" binding:"omitempty,gt=0,lte=300"`
	TargetWeight float64    `json:"targetWeight" binding:"omitempty,gt=0,lte=500"`
	Goal         string     `json:"goal" binding:"omitempty,max=500"`
	Notes        string     `json:"notes" binding:"omitempty,max=2000"`
	AvatarURL    string     `json:"avatarUrl" binding:"omitempty,url"`
	IsActive     *bool      `json:"isActive"`
}

type ClientPatch struct {
	Name         *string    `json:"name" binding:"omitempty,min=1,max=100"`
	Email        *string    `json:"email" binding:"omitempty,email"`
	Phone        *string    `json:"phone" binding:"omitempty,max=30"`
	Gender       *string    `json:"gender" binding:"omitempty,oneof=male female other"`
	BirthDate    *time.Time `json:"birthDate"`
	Height       *float64   `json:"height" binding:"omitempty,gt=0,lte=300"`
	TargetWeight *float64   `json:"targetWeight" binding:"omitempty,gt=0,lte=500"`
	Goal         *string    `json:"goal" binding:"omitempty,max=500"`
	Notes        *string    `json:"notes" binding:"omitempty,max=2000"`
	AvatarURL    *string    `json:"avatarUrl" binding:"omitempty,url"`
	IsActive     *bool      `json:"isActive"`
}

type MeasurementInput struct {
	ClientID   string     `json:"clientId" binding:"required,objectid"`
	Date       *time.Time `json:"date"`
	Weight     float64    `json:"weight" binding:"required,gt=0,lte=500"`
	BodyFat    float64    `json:"bodyFat" binding:"omitempty,gte=0,lte=100"`
	MuscleMass float64    `json:"muscleMass" binding:"omitempty,gte=0,lte=300"`
	Water      float64    `json:"water" binding:"omitempty,gte=0,lte=100"`
	Waist      float64    `json:"waist" binding:"omitempty,gte=0,lte=300"`
	Hip        float64    `json:"hip" binding:"omitempty,gte=0,lte=300"`
	Chest      float64    `json:"chest" binding:"omitempty,gte=0,lte=300"`
	Arm        float64    `json:"arm" binding:"omitempty,gte=0,lte=100"`
	Thigh      float64    `json:"thigh" binding:"omitempty,gte=0,lte=150"`
	Notes      string     `json:"notes" binding:"omitempty,max=2000"`
	Photos     []string   `json:"photos" binding:"omitempty,max=10,dive,url"`
}

type MeasurementPatch struct {
	Date       *time.Time `json:"date"`
	Weight     *float64   `json:"weight" binding:"omitempty,gt=0,lte=500"`
	BodyFat    *float64   `json:"bodyFat" binding:"omitempty,gte=0,lte=100"`
	MuscleMass *float64   `json:"muscleMass" binding:"omitempty,gte=0,lte=300"`
	Water      *float64   `json:"water" binding:"omitempty,gte=0,lte=100"`
	Waist      *float64   `json:"waist" binding:"omitempty,gte=0,lte=300"`
	Hip        *float64   `json:"hip" binding:"omitempty,gte=0,lte=300"`
	Chest      *float64   `json:"chest" binding:"omitempty,gte=0,lte=300"`
	Arm        *float64   `json:"arm" binding:"omitempty,gte=0,lte=100"`
	Thigh      *float64   `json:"thigh" binding:"omitempty,gte=0,lte=150"`
	Notes      *string    `json:"notes" binding:"omitempty,max=2000"`
	Photos     []string   `json:"photos" binding:"omitempty,max=10,dive,url"`
}

type FoodInput struct {
	Name     string  `json:"name" binding:"required,max=100"`
	Quantity float64 `json:"quantity" binding:"gte=0"`
	Unit     string  `json:"unit" binding:"omitempty,max=20"`
	Calories int     `json:"calories" binding:"gte=0,lte=10000"`
}

type MealInput struct {
	Name  string      `json:"name" binding:"required,max=100"`
	Time  string      `json:"time" binding:"omitempty,hhmm"`
	Foods []FoodInput `json:"foods" binding:"omitempty,max=50,dive"`
	Notes string      `json:"notes" binding:"omitempty,max=1000"`
}

type MacrosInput struct {
	Protein float64 `json:"protein" binding:"gte=0,lte=1000"`
	Carbs   float64 `json:"carbs" binding:"gte=0,lte=1000"`
	Fat     float64 `json:"fat" binding:"gte=0,lte=1000"`
}

type DietPlanInput struct {
	ClientID      string       `json:"clientId" binding:"required,objectid"`
	Title         string       `json:"title" binding:"required,min=1,max=200"`
	Description   string       `json:"description" binding:"omitempty,max=5000"`
	StartDate     time.Time    `json:"startDate" binding:"required"`
	EndDate       *time.Time   `json:"endDate"`
	DailyCalories int          `json:"dailyCalories" binding:"omitempty,gte=0,lte=10000"`
	Macros        *MacrosInput `json:"macros"`
	Meals         []MealInput  `json:"meals" binding:"omitempty,max=20,dive"`
	IsActive      *bool        `json:"isActive"`
	AttachmentURL string       `json:"attachmentUrl" binding:"omitempty,url"`
}

type DietPlanPatch struct {
	Title         *string      `json:"title" binding:"omitempty,min=1,max=200"`
	Description   *string      `json:"description" binding:"omitempty,max=5000"`
	StartDate     *time.Time   `json:"startDate"`
	EndDate       *time.Time   `json:"endDate"`
	DailyCalories *int         `json:"dailyCalories" binding:"omitempty,gte=0,lte=10000"`
	Macros        *MacrosInput `json:"macros"`
	Meals         []MealInput  `json:"meals" binding:"omitempty,max=20,dive"`
	AttachmentURL *string      `json:"attachmentUrl" binding:"omitempty,url"`
	IsActive      *bool        `json:"isActive"`
}

type AppointmentInput struct {
	ClientID        string    `json:"clientId" binding:"required,objectid"`
	Date            time.Time `json:"date" binding:"required"`
	DurationMinutes int       `json:"durationMinutes" binding:"omitempty,min=5,max=480"`
	Type            string    `json:"type" binding:"omitempty,oneof=in_person online"`
	Location        string    `json:"location" binding:"omitempty,max=300"`
	Notes           string    `json:"notes" binding:"omitempty,max=2000"`
}

type AppointmentPatch struct {
	Date            *time.Time `json:"date"`
	DurationMinutes *int       `json:"durationMinutes" binding:"omitempty,min=5,max=480"`
	Type            *string    `json:"type" binding:"omitempty,oneof=in_person online"`
	Status          *string    `json:"status" binding:"omitempty,oneof=scheduled completed cancelled"`
	Location        *string    `json:"location" binding:"omitempty,max=300"`
	Notes           *string    `json:"notes" binding:"omitempty,max=2000"`
}

type ActivityInput struct {
	ClientID    string `json:"clientId" binding:"omitempty,objectid"`
	Description string `json:"description" binding:"required,min=1,max=1000"`
}

type DeleteUploadInput struct {
	Key string `json:"key" binding:"required,max=500"`
}
