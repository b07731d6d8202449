// Package telegram is the chat-ops front end of the complaint desk. Linked
// users run the same complaint operations as over HTTP by sending commands.
package telegram

import (
	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/localization"
	"complaintdesk/backend/internal/models"
	"complaintdesk/backend/internal/storage"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxListed caps how many complaints one reply lists.
const maxListed = 20

// Sender is the part of the Bot API the service writes through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// UserDirectory resolves a Telegram account to a desk user.
type UserDirectory interface {
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
}

// BotService receives Telegram updates and maps commands onto complaint operations.
type BotService struct {
	BotAPI     *tgbotapi.BotAPI
	Sender     Sender
	Users      UserDirectory
	Complaints *complaint.Service
	Localizer  *localization.Localizer
}

// NewBotService authorizes against the Bot API with token.
func NewBotService(token string, users UserDirectory, complaints *complaint.Service, localizer *localization.Localizer) (*BotService, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	bot.Debug = false
	slog.Info("telegram bot authorized", "account", bot.Self.UserName)

	return &BotService{
		BotAPI:     bot,
		Sender:     bot,
		Users:      users,
		Complaints: complaints,
		Localizer:  localizer,
	}, nil
}

// Run long-polls for updates until ctx is cancelled.
func (s *BotService) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.BotAPI.GetUpdatesChan(u)
	defer s.BotAPI.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			s.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate answers a single update. Only messages are handled.
func (s *BotService) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		return
	}
	telegramID := msg.Chat.ID
	lang := localization.DefaultLanguage
	if msg.From != nil {
		telegramID = msg.From.ID
		if msg.From.LanguageCode != "" {
			lang = msg.From.LanguageCode
		}
	}

	user, err := s.Users.GetUserByTelegramID(ctx, telegramID)
	if errors.Is(err, storage.ErrNotFound) {
		s.reply(msg.Chat.ID, s.Localizer.Format(lang, "start_unlinked", telegramID))
		return
	}
	if err != nil {
		slog.Error("telegram user lookup failed", "telegram_id", telegramID, "err", err)
		s.reply(msg.Chat.ID, s.Localizer.GetString(lang, "error_internal"))
		return
	}

	if !msg.IsCommand() {
		s.reply(msg.Chat.ID, s.Localizer.GetString(lang, "unknown_command"))
		return
	}
	slog.Debug("telegram command", "command", msg.Command(), "user_id", user.ID)
	s.reply(msg.Chat.ID, s.runCommand(ctx, lang, user.Principal(), msg.Command(), strings.TrimSpace(msg.CommandArguments())))
}

func (s *BotService) runCommand(ctx context.Context, lang string, p models.Principal, command, args string) string {
	switch command {
	case "start":
		return s.Localizer.Format(lang, "start_linked", p.Name, p.Role)
	case "help":
		return s.help(lang, p.Role)
	case "mine":
		list, err := s.Complaints.ListByStudent(ctx, p, p.UserID)
		return s.listOrError(lang, list, err)
	case "assigned":
		list, err := s.Complaints.ListByTeacher(ctx, p, p.UserID)
		return s.listOrError(lang, list, err)
	case "pending":
		list, err := s.Complaints.ListPending(ctx, p)
		return s.listOrError(lang, list, err)
	case "resolve":
		id, response, _ := strings.Cut(args, " ")
		if id == "" || strings.TrimSpace(response) == "" {
			return s.Localizer.GetString(lang, "usage_resolve")
		}
		c, err := s.Complaints.Resolve(ctx, p, id, response)
		if err != nil {
			return s.errorText(lang, err)
		}
		return s.Localizer.Format(lang, "resolved_ok", c.Title)
	case "fcfs":
		c, err := s.Complaints.AssignFCFS(ctx, p)
		return s.assignedOrError(lang, c, err)
	case "assign":
		fields := strings.Fields(args)
		if len(fields) != 2 {
			return s.Localizer.GetString(lang, "usage_assign")
		}
		c, err := s.Complaints.AssignManual(ctx, p, fields[0], fields[1])
		return s.assignedOrError(lang, c, err)
	case "stats":
		sum, err := s.Complaints.Summary(ctx, p)
		if err != nil {
			return s.errorText(lang, err)
		}
		return s.Localizer.Format(lang, "stats", sum.Total, sum.Pending, sum.Assigned, sum.Resolved,
			sum.MeanTimeToAssign.Round(time.Second), sum.MeanTimeToResolve.Round(time.Second))
	}
	return s.Localizer.GetString(lang, "unknown_command")
}

func (s *BotService) help(lang string, role models.Role) string {
	switch role {
	case models.RoleTeacher:
		return s.Localizer.GetString(lang, "help_teacher")
	case models.RoleAdmin:
		return s.Localizer.GetString(lang, "help_admin")
	}
	return s.Localizer.GetString(lang, "help_student")
}

func (s *BotService) listOrError(lang string, list []models.Complaint, err error) string {
	if err != nil {
		return s.errorText(lang, err)
	}
	if len(list) == 0 {
		return s.Localizer.GetString(lang, "list_empty")
	}
	lines := make([]string, 0, maxListed+1)
	for i, c := range list {
		if i == maxListed {
			lines = append(lines, s.Localizer.Format(lang, "list_more", len(list)-maxListed))
			break
		}
		lines = append(lines, s.Localizer.Format(lang, "complaint_line", c.ID, c.Status, c.Title))
	}
	return strings.Join(lines, "\n")
}

func (s *BotService) assignedOrError(lang string, c *models.Complaint, err error) string {
	if err != nil {
		return s.errorText(lang, err)
	}
	teacher := ""
	if c.AssignedTeacherName != nil {
		teacher = *c.AssignedTeacherName
	}
	return s.Localizer.Format(lang, "assigned_ok", c.Title, teacher)
}

func (s *BotService) errorText(lang string, err error) string {
	kind := complaint.KindOf(err)
	switch kind {
	case complaint.KindValidation:
		return s.Localizer.Format(lang, "error_validation", err.Error())
	case complaint.KindInternal:
		slog.Error("telegram command failed", "err", err)
	}
	return s.Localizer.GetString(lang, "error_"+kind)
}

func (s *BotService) reply(chatID int64, text string) {
	if _, err := s.Sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		slog.Warn("telegram send failed", "chat_id", chatID, "err", err)
	}
}
