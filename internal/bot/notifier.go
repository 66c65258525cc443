package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-planner/internal/model"
	"todo-planner/internal/recurrence"
	"todo-planner/internal/reminder"
)

var errNoChat = errors.New("user has no telegram chat")

// NotifyReminder sends a due reminder with a button that completes the todo
// (or today's occurrence of a recurring one).
func (b *Bot) NotifyReminder(_ context.Context, user model.User, todo model.Todo, due reminder.Due) error {
	if user.TelegramID == nil {
		return errNoChat
	}
	day := recurrence.FormatDay(due.At, b.loc)
	msg := tgbotapi.NewMessage(*user.TelegramID, formatReminder(todo, due, b.loc))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = reminderKeyboard(todo, day)
	_, err := b.api.Send(msg)
	return err
}

// SendDigest delivers a prepared daily digest.
func (b *Bot) SendDigest(_ context.Context, user model.User, text string) error {
	if user.TelegramID == nil {
		return errNoChat
	}
	return b.sendText(*user.TelegramID, text)
}

func formatReminder(todo model.Todo, due reminder.Due, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔔 <b>Напоминание</b> · %s\n", due.At.In(loc).Format("15:04")))
	sb.WriteString(escape(normalizeTitle(todo.Text)))
	if due.Kind == reminder.KindRecurring && todo.Recurrence != nil {
		sb.WriteString(fmt.Sprintf("\n🔄 %s", describePattern(*todo.Recurrence)))
	}
	return sb.String()
}
