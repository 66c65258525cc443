package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-planner/internal/model"
	"todo-planner/internal/recurrence"
	"todo-planner/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageText
	stageFolder
	stageDueDate
	stageRepeat
	stageWeekdays
	stageNotifyAt
)

type conversationState struct {
	stage conversationStage
	input service.TodoInput
}

func (b *Bot) startNewTodoConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	b.log.Info("start new todo conversation", "telegram_id", msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageText})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 Создаём новую задачу.\n<b>Шаг 1:</b> что нужно сделать?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageText:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Текст задачи не может быть пустым.", cancelKeyboard())
		}
		state.input.Text = text
		state.stage = stageFolder
		return b.sendWithReplyMarkup(msg.Chat.ID, "📂 В какую папку положить? Выбери или отправь свою (можно «Пропустить»).", folderKeyboard())
	case stageFolder:
		if !isSkipInput(text) {
			state.input.Folder = text
		}
		state.stage = stageDueDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ Срок в формате <code>2025-11-30</code> или <code>30.11.2025</code> (или «Пропустить»).", skipKeyboard())
	case stageDueDate:
		if !isSkipInput(text) {
			due, err := parseUserDate(text, b.loc)
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Не могу распознать дату. Используй <code>2025-11-30</code> или «Пропустить».", skipKeyboard())
			}
			state.input.DueDate = &due
		}
		state.stage = stageRepeat
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔁 Повторять задачу?", repeatKeyboard())
	case stageRepeat:
		return b.handleRepeatChoice(ctx, msg, state, text)
	case stageWeekdays:
		days, err := parseWeekdays(text)
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Перечисли дни через запятую, например <code>пн, ср, пт</code>.", cancelKeyboard())
		}
		state.input.Recurrence.DaysOfWeek = days
		state.stage = stageNotifyAt
		return b.sendWithReplyMarkup(msg.Chat.ID, notifyPrompt, skipKeyboard())
	case stageNotifyAt:
		if !isSkipInput(text) {
			if _, _, err := recurrence.ParseClock(text); err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Время нужно в формате <code>08:30</code> или «Пропустить».", skipKeyboard())
			}
			state.input.Recurrence.NotifyAt = text
		}
		return b.finishTodoCreation(ctx, msg, state.input)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Диалог сброшен. Попробуй ещё раз через /new.")
	}
}

const notifyPrompt = "🔔 Во сколько напоминать? Формат <code>08:30</code> (или «Пропустить»)."

func (b *Bot) handleRepeatChoice(ctx context.Context, msg *tgbotapi.Message, state *conversationState, text string) error {
	anchor := recurrence.DayOf(b.now(), b.loc)
	if state.input.DueDate != nil {
		anchor = recurrence.DayOf(*state.input.DueDate, b.loc)
	}

	switch strings.ToLower(text) {
	case strings.ToLower(btnRepeatNone), "нет", "no", "-":
		return b.finishTodoCreation(ctx, msg, state.input)
	case strings.ToLower(btnRepeatDaily):
		state.input.Recurrence = &model.RecurrencePattern{Type: model.RecurDaily}
	case strings.ToLower(btnRepeatWeekdays):
		state.input.Recurrence = &model.RecurrencePattern{Type: model.RecurCustom, DaysOfWeek: []int{1, 2, 3, 4, 5}}
	case strings.ToLower(btnRepeatWeekly):
		state.input.Recurrence = &model.RecurrencePattern{Type: model.RecurWeekly}
		state.stage = stageWeekdays
		return b.sendWithReplyMarkup(msg.Chat.ID, "📆 По каким дням? Например <code>пн, ср, пт</code>.", cancelKeyboard())
	case strings.ToLower(btnRepeatMonthly):
		state.input.Recurrence = &model.RecurrencePattern{Type: model.RecurMonthly, DayOfMonth: anchor.Day()}
	case strings.ToLower(btnRepeatYearly):
		state.input.Recurrence = &model.RecurrencePattern{Type: model.RecurYearly, DayOfMonth: anchor.Day(), MonthOfYear: int(anchor.Month())}
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Выбери вариант на клавиатуре.", repeatKeyboard())
	}
	state.stage = stageNotifyAt
	return b.sendWithReplyMarkup(msg.Chat.ID, notifyPrompt, skipKeyboard())
}

func (b *Bot) finishTodoCreation(ctx context.Context, msg *tgbotapi.Message, input service.TodoInput) error {
	defer b.clearConversation(msg.From.ID)

	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	todo, err := b.todos.Create(ctx, user.ID, input)
	if err != nil {
		return b.sendTextWithRemove(msg.Chat.ID, fmt.Sprintf("Не удалось сохранить задачу: %s", escape(err.Error())))
	}

	b.log.Info("todo created", "todo_id", todo.ID, "user_id", user.ID, "recurring", todo.IsRecurring())

	var summary strings.Builder
	summary.WriteString("✅ <b>Задача сохранена</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> <code>%s</code>\n", shortID(todo.ID)))
	summary.WriteString(fmt.Sprintf("• <b>Текст:</b> %s\n", escape(normalizeTitle(todo.Text))))
	if input.Folder != "" {
		summary.WriteString(fmt.Sprintf("• <b>Папка:</b> %s\n", escape(input.Folder)))
	}
	if todo.DueDate != nil {
		summary.WriteString(fmt.Sprintf("• <b>Срок:</b> %s\n", todo.DueDate.In(b.loc).Format("02.01.2006")))
	}
	if todo.Recurrence != nil {
		summary.WriteString(fmt.Sprintf("• <b>Повтор:</b> %s\n", describePattern(*todo.Recurrence)))
	}

	if err := b.sendTextWithRemove(msg.Chat.ID, strings.TrimSpace(summary.String())); err != nil {
		return err
	}
	return b.sendTodoList(ctx, msg.Chat.ID, user)
}
