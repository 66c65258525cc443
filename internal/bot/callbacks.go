package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-planner/internal/model"
	"todo-planner/internal/service"
)

const (
	cbCompletePrefix   = "done:"
	cbDeletePrefix     = "del:"
	cbOccurrencePrefix = "occ:"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}

	data := cb.Data
	chatID := cb.Message.Chat.ID

	switch {
	case strings.HasPrefix(data, cbOccurrencePrefix):
		b.log.Info("callback occurrence", "telegram_id", cb.From.ID, "data", data)
		todoID, day, completed, err := parseOccurrenceData(data)
		if err != nil {
			b.ack(cb, "")
			return nil
		}
		user, err := b.ensureUser(ctx, cb.From)
		if err != nil {
			b.ack(cb, "")
			return err
		}
		todo, err := b.todos.Get(ctx, user.ID, todoID)
		if err != nil {
			b.ack(cb, "Задача не найдена")
			return nil
		}
		b.ack(cb, "")
		return b.sendText(chatID, b.updateOccurrence(ctx, user.ID, *todo, day, completed))
	case strings.HasPrefix(data, cbCompletePrefix):
		b.log.Info("callback complete request", "telegram_id", cb.From.ID, "todo_id", strings.TrimPrefix(data, cbCompletePrefix))
		b.ack(cb, "")
		return b.withTodo(ctx, chatID, cb.From, strings.TrimPrefix(data, cbCompletePrefix), func(todo model.Todo) error {
			return b.askCompleteConfirmation(chatID, cb.From, todo)
		})
	case strings.HasPrefix(data, cbDeletePrefix):
		b.log.Info("callback delete request", "telegram_id", cb.From.ID, "todo_id", strings.TrimPrefix(data, cbDeletePrefix))
		b.ack(cb, "")
		return b.withTodo(ctx, chatID, cb.From, strings.TrimPrefix(data, cbDeletePrefix), func(todo model.Todo) error {
			return b.askDeleteConfirmation(chatID, cb.From, todo)
		})
	default:
		b.ack(cb, "")
		return nil
	}
}

func (b *Bot) withTodo(ctx context.Context, chatID int64, from *tgbotapi.User, todoID string, fn func(model.Todo) error) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	todo, err := b.todos.Get(ctx, user.ID, todoID)
	if err != nil {
		if errors.Is(err, service.ErrTodoNotFound) {
			return b.sendText(chatID, "Задача не найдена.")
		}
		return err
	}
	return fn(*todo)
}

func (b *Bot) askCompleteConfirmation(chatID int64, from *tgbotapi.User, todo model.Todo) error {
	if todo.IsRecurring() {
		return b.sendText(chatID, "Повторяющиеся задачи отмечаются по дням: /today или /done.")
	}
	if todo.Completed {
		return b.sendText(chatID, "Задача уже выполнена.")
	}
	text := fmt.Sprintf("Отметить задачу «%s» (%s) как выполненную?", escape(normalizeTitle(todo.Text)), shortID(todo.ID))
	b.setConfirmation(from.ID, confirmationRequest{todoID: todo.ID, action: actionComplete})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) askDeleteConfirmation(chatID int64, from *tgbotapi.User, todo model.Todo) error {
	text := fmt.Sprintf("Удалить задачу «%s» (%s)?", escape(normalizeTitle(todo.Text)), shortID(todo.ID))
	if todo.IsRecurring() {
		text += "\nВместе с ней пропадёт вся история отметок."
	}
	b.setConfirmation(from.ID, confirmationRequest{todoID: todo.ID, action: actionDelete})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		if req.action == actionDelete {
			return b.deleteTodoAndRefresh(ctx, msg.Chat.ID, msg.From, req.todoID)
		}
		return b.completeTodoAndRefresh(ctx, msg.Chat.ID, msg.From, req.todoID)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendTextWithRemove(msg.Chat.ID, "Хорошо, ничего не меняю.")
	default:
		prompt := "Подтверди или отмени выполнение задачи."
		if req.action == actionDelete {
			prompt = "Подтверди или отмени удаление задачи."
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, prompt, confirmKeyboard())
	}
}

func (b *Bot) completeTodoAndRefresh(ctx context.Context, chatID int64, from *tgbotapi.User, todoID string) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	todo, err := b.todos.SetCompleted(ctx, user.ID, todoID, true, b.now())
	switch {
	case errors.Is(err, service.ErrTodoNotFound):
		return b.sendTextWithRemove(chatID, "Задача не найдена или уже удалена.")
	case err != nil:
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}

	b.log.Info("todo completed", "todo_id", todo.ID, "user_id", user.ID)
	if err := b.sendTextWithRemove(chatID, fmt.Sprintf("✅ Задача «%s» выполнена.", escape(normalizeTitle(todo.Text)))); err != nil {
		return err
	}
	return b.sendTodoList(ctx, chatID, user)
}

func (b *Bot) deleteTodoAndRefresh(ctx context.Context, chatID int64, from *tgbotapi.User, todoID string) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	todo, err := b.todos.Get(ctx, user.ID, todoID)
	if err == nil {
		err = b.todos.Delete(ctx, user.ID, todoID)
	}
	switch {
	case errors.Is(err, service.ErrTodoNotFound):
		return b.sendTextWithRemove(chatID, "Задача не найдена или уже удалена.")
	case err != nil:
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}

	b.log.Info("todo deleted", "todo_id", todo.ID, "user_id", user.ID)
	if err := b.sendTextWithRemove(chatID, fmt.Sprintf("🗑 Задача «%s» удалена.", escape(normalizeTitle(todo.Text)))); err != nil {
		return err
	}
	return b.sendTodoList(ctx, chatID, user)
}
