package models

import (
	"crypto/rand"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Client is a person coached by a User.
type Client struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID           primitive.ObjectID `bson:"user_id" json:"userId"`
	Name             string             `bson:"name" json:"name"`
	Email            string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone            string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Gender           string             `bson:"gender,omitempty" json:"gender,omitempty"`
	BirthDate        *time.Time         `bson:"birth_date,omitempty" json:"birthDate,omitempty"`
	Height           float64            `bson:"height,omitempty" json:"height,omitempty"`
	TargetWeight     float64            `bson:"target_weight,omitempty" json:"targetWeight,omitempty"`
	Goal             string             `bson:"goal,omitempty" json:"goal,omitempty"`
	Notes            string             `bson:"notes,omitempty" json:"notes,omitempty"`
	AvatarURL        string             `bson:"avatar_url,omitempty" json:"avatarUrl,omitempty"`
	IsActive         bool               `bson:"is_active" json:"isActive"`
	ReferenceCode    string             `bson:"reference_code" json:"referenceCode"`
	TelegramChatID   int64              `bson:"telegram_chat_id,omitempty" json:"telegramChatId,omitempty"`
	TelegramLinkedAt *time.Time         `bson:"telegram_linked_at,omitempty" json:"telegramLinkedAt,omitempty"`
	CreatedAt        time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updatedAt"`
}

// TelegramLinked reports whether the client has connected a Telegram chat.
func (c *Client) TelegramLinked() bool {
	return c.TelegramChatID != 0
}

// Age in whole years at the given instant, or 0 when the birth date is unknown.
func (c *Client) Age(now time.Time) int {
	if c.BirthDate == nil {
		return 0
	}
	b := c.BirthDate.UTC()
	now = now.UTC()
	age := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// Reference codes avoid characters that are easily confused (0/O, 1/I/L).
const (
	ReferenceCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	ReferenceCodeLength   = 8
)

// NewReferenceCode returns a random code drawn from ReferenceCodeAlphabet.
func NewReferenceCode() (string, error) {
	buf := make([]byte, ReferenceCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = ReferenceCodeAlphabet[int(b)%len(ReferenceCodeAlphabet)]
	}
	return string(buf), nil
}
