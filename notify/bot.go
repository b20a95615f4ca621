package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	"dietcoach/models"
	"dietcoach/repository"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	helpText = "Commands:\n" +
		"/start CODE - connect with your coach using your reference code\n" +
		"/next - your next appointment\n" +
		"/plan - your active diet plan\n" +
		"/stop - stop receiving messages\n" +
		"/help - this message"
	askCodeText   = "Send me the reference code your coach gave you, for example /start AB12CD34."
	unknownCode   = "That reference code was not recognised. Check it with your coach and try again."
	notLinkedText = "This chat is not connected yet. " + askCodeText
	failureText   = "Something went wrong, please try again later."
)

// Bot answers client chats and links them to clients through reference codes.
type Bot struct {
	Clients      repository.ClientRepository
	Appointments repository.AppointmentRepository
	DietPlans    repository.DietPlanRepository
	Activities   repository.ActivityRepository

	Sender   Sender
	Location *time.Location
	Now      func() time.Time
}

// Run replies to incoming messages until ctx is done or updates is closed.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Chat == nil {
				continue
			}
			reply := b.Respond(ctx, update.Message.Chat.ID, update.Message.Text)
			if reply == "" {
				continue
			}
			msg := tgbotapi.NewMessage(update.Message.Chat.ID, reply)
			if _, err := b.Sender.Send(msg); err != nil {
				zap.L().Warn("telegram reply failed", zap.Int64("chat_id", update.Message.Chat.ID), zap.Error(err))
			}
		}
	}
}

func (b *Bot) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Bot) loc() *time.Location {
	if b.Location != nil {
		return b.Location
	}
	return time.UTC
}

// parseCommand splits "/cmd@bot args" into cmd and args. cmd is empty for
// plain text.
func parseCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	cmd, args, _ := strings.Cut(text[1:], " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd), strings.TrimSpace(args)
}

func looksLikeCode(s string) bool {
	if len(s) != models.ReferenceCodeLength {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// Respond returns the reply for a message received in chatID.
func (b *Bot) Respond(ctx context.Context, chatID int64, text string) string {
	cmd, args := parseCommand(text)

	linked, err := b.Clients.GetClientByChatID(ctx, chatID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		zap.L().Error("lookup chat failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return failureText
	}
	if errors.Is(err, repository.ErrNotFound) {
		linked = nil
	}

	switch cmd {
	case "start":
		if args != "" {
			return b.link(ctx, chatID, linked, args)
		}
		if linked != nil {
			return "Hi " + linked.Name + ", you are connected. " + "Send /help to see what I can do."
		}
		return "Welcome! " + askCodeText
	case "help":
		return helpText
	case "stop":
		if linked == nil {
			return notLinkedText
		}
		return b.unlink(ctx, linked)
	case "next":
		if linked == nil {
			return notLinkedText
		}
		return b.nextAppointment(ctx, linked)
	case "plan":
		if linked == nil {
			return notLinkedText
		}
		return b.activePlan(ctx, linked)
	case "":
		if code := strings.ToUpper(args); looksLikeCode(code) {
			return b.link(ctx, chatID, linked, code)
		}
		if linked == nil {
			return notLinkedText
		}
		return helpText
	default:
		return "Unknown command.\n\n" + helpText
	}
}

func (b *Bot) link(ctx context.Context, chatID int64, current *models.Client, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	client, err := b.Clients.GetClientByReferenceCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return unknownCode
	}
	if err != nil {
		zap.L().Error("lookup reference code failed", zap.Error(err))
		return failureText
	}
	if current != nil && current.ID == client.ID {
		return "You are already connected, " + client.Name + "."
	}
	if current != nil {
		if err := b.Clients.SetTelegramChat(ctx, current.ID, 0); err != nil {
			zap.L().Error("unlink previous client failed", zap.Error(err))
			return failureText
		}
	}
	if err := b.Clients.SetTelegramChat(ctx, client.ID, chatID); err != nil {
		zap.L().Error("link telegram chat failed", zap.Error(err))
		return failureText
	}
	b.record(ctx, client, models.ActivityTelegramLinked, client.Name+" connected Telegram")
	zap.L().Info("telegram chat linked", zap.String("client_id", client.ID.Hex()))
	return "Connected! Hi " + client.Name + ", you will receive updates from your coach here.\n\n" + helpText
}

func (b *Bot) unlink(ctx context.Context, client *models.Client) string {
	if err := b.Clients.SetTelegramChat(ctx, client.ID, 0); err != nil {
		zap.L().Error("unlink telegram chat failed", zap.Error(err))
		return failureText
	}
	b.record(ctx, client, models.ActivityTelegramUnlinked, client.Name+" disconnected Telegram")
	return "Disconnected. Send /start with your code to connect again."
}

func (b *Bot) nextAppointment(ctx context.Context, client *models.Client) string {
	a, err := b.Appointments.NextAppointment(ctx, client.UserID, client.ID, b.now())
	if errors.Is(err, repository.ErrNotFound) {
		return "You have no upcoming appointments."
	}
	if err != nil {
		zap.L().Error("next appointment failed", zap.Error(err))
		return failureText
	}
	return "Next appointment: " + FormatAppointment(a, b.loc())
}

func (b *Bot) activePlan(ctx context.Context, client *models.Client) string {
	p, err := b.DietPlans.ActiveDietPlan(ctx, client.UserID, client.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return "You have no active diet plan yet."
	}
	if err != nil {
		zap.L().Error("active plan failed", zap.Error(err))
		return failureText
	}
	return FormatPlan(p)
}

func (b *Bot) record(ctx context.Context, client *models.Client, kind, description string) {
	if b.Activities == nil {
		return
	}
	clientID := client.ID
	a := &models.Activity{
		UserID:      client.UserID,
		ClientID:    &clientID,
		Type:        kind,
		Description: description,
	}
	if err := b.Activities.CreateActivity(ctx, a); err != nil {
		zap.L().Warn("record activity failed", zap.Error(err))
	}
}
