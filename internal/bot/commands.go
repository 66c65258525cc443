package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-planner/internal/export"
	"todo-planner/internal/model"
	"todo-planner/internal/recurrence"
	"todo-planner/internal/service"
)

const (
	defaultHistoryDays = 7
	defaultStatsDays   = 30
	maxRangeDays       = 366
	maxHistoryButtons  = 20
)

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "друг"
	}

	text := fmt.Sprintf(
		"👋 Привет, %s!\n<b>Я планировщик задач: помогу с разовыми и повторяющимися делами.</b>\n\n%s",
		escape(name), commandList,
	)
	return b.sendText(msg.Chat.ID, text)
}

const commandList = "Команды:\n" +
	"• /new — добавить задачу пошагово\n" +
	"• /todos — открытые задачи и повторы\n" +
	"• /today — что запланировано на сегодня\n" +
	"• /history [дни] — повторы за прошлые дни\n" +
	"• /stats [дни] — статистика выполнения\n" +
	"• /done &lt;id&gt; [дата] — отметить выполненной\n" +
	"• /undo &lt;id&gt; [дата] — снять отметку\n" +
	"• /delete &lt;id&gt; — удалить задачу\n" +
	"• /digest — ежедневный отчёт прямо сейчас\n" +
	"• /export — выгрузить задачи в календарь (.ics)\n" +
	"• /cancel — отменить текущий ввод"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Подсказки</b>\n" + commandList + "\n\n" +
		"<b>id</b> — первые символы номера задачи, например <code>/done 3f2a</code>.\n" +
		"<b>дата</b> — <code>2025-06-14</code> или <code>14.06.2025</code>, по умолчанию сегодня."
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleListTodos(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	return b.sendTodoList(ctx, msg.Chat.ID, user)
}

func (b *Bot) sendTodoList(ctx context.Context, chatID int64, user *model.User) error {
	todos, err := b.todos.List(ctx, user.ID)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось получить задачи: %s", escape(err.Error())))
	}

	folderNames := make(map[uint]string)
	if b.folders != nil {
		folders, err := b.folders.ListByUser(ctx, user.ID)
		if err != nil {
			b.log.Warn("list folders", "user_id", user.ID, "error", err)
		}
		for _, f := range folders {
			folderNames[f.ID] = f.Name
		}
	}

	type folderGroup struct {
		name  string
		todos []model.Todo
	}
	groups := make(map[string]*folderGroup)
	var order []string
	for _, todo := range todos {
		if !todo.IsRecurring() && todo.Completed {
			continue
		}
		key, display := folderKey(todo.FolderID, folderNames)
		group, ok := groups[key]
		if !ok {
			group = &folderGroup{name: display}
			groups[key] = group
			order = append(order, key)
		}
		group.todos = append(group.todos, todo)
	}

	if len(groups) == 0 {
		return b.sendText(chatID, "У тебя нет открытых задач. Добавь новую через /new.")
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i] == noFolderKey {
			return false
		}
		if order[j] == noFolderKey {
			return true
		}
		return groups[order[i]].name < groups[order[j]].name
	})

	now := b.now()
	var builder strings.Builder
	builder.WriteString("📋 <b>Задачи</b>\n")
	builder.WriteString("Кнопки ниже закрывают разовые задачи и удаляют ненужные.\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, key := range order {
		section := groups[key]
		sort.SliceStable(section.todos, func(i, j int) bool {
			return lessByDue(section.todos[i], section.todos[j])
		})

		builder.WriteString(fmt.Sprintf("<b>%s</b>\n", section.name))
		for _, todo := range section.todos {
			var row []tgbotapi.InlineKeyboardButton
			if todo.IsRecurring() {
				builder.WriteString(formatRecurringTodo(todo))
			} else {
				builder.WriteString(formatTodo(todo, now, b.loc))
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("✅ %s", shortTitle(todo.Text, 24)), cbCompletePrefix+todo.ID))
			}
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+todo.ID))
			buttons = append(buttons, row)
		}
		builder.WriteByte('\n')
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleToday(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	today := recurrence.DayOf(b.now(), b.loc)
	occs, err := b.schedule.Occurrences(ctx, user.ID, service.DateRange{Start: today, End: today})
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось получить расписание: %s", escape(err.Error())))
	}
	if len(occs) == 0 {
		return b.sendText(msg.Chat.ID, "♻️ На сегодня повторяющихся задач нет.")
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("♻️ <b>Сегодня, %s</b>\n\n", today.Format("02.01.2006")))
	for _, occ := range occs {
		builder.WriteString(formatOccurrenceLine(occ))
	}
	return b.sendWithReplyMarkup(msg.Chat.ID, strings.TrimSpace(builder.String()), occurrenceKeyboard(occs))
}

func (b *Bot) handleHistory(ctx context.Context, msg *tgbotapi.Message) error {
	days, err := parseDays(msg.CommandArguments(), defaultHistoryDays)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Укажи число дней от 1 до %d, например /history 14", maxRangeDays))
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	today := recurrence.DayOf(b.now(), b.loc)
	r := service.DateRange{Start: recurrence.AddDays(today, -days, b.loc), End: recurrence.AddDays(today, -1, b.loc)}
	occs, err := b.schedule.Occurrences(ctx, user.ID, r)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось получить историю: %s", escape(err.Error())))
	}
	if len(occs) == 0 {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("📜 За последние %d дн. повторяющихся задач не было.", days))
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📜 <b>История за %d дн.</b>\n", days))
	builder.WriteString("Кнопки переключают отметку за прошедший день.\n")
	current := ""
	for _, occ := range occs {
		if occ.ScheduledDate != current {
			current = occ.ScheduledDate
			builder.WriteString(fmt.Sprintf("\n<b>%s</b>\n", displayDay(current)))
		}
		builder.WriteString(formatOccurrenceLine(occ))
	}
	if len(occs) > maxHistoryButtons {
		occs = occs[:maxHistoryButtons]
	}
	return b.sendWithReplyMarkup(msg.Chat.ID, strings.TrimSpace(builder.String()), occurrenceKeyboard(occs))
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) error {
	days := defaultStatsDays
	if msg.IsCommand() {
		parsed, err := parseDays(msg.CommandArguments(), defaultStatsDays)
		if err != nil {
			return b.sendText(msg.Chat.ID, fmt.Sprintf("Укажи число дней от 1 до %d, например /stats 7", maxRangeDays))
		}
		days = parsed
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	today := recurrence.DayOf(b.now(), b.loc)
	data, err := b.schedule.Analytics(ctx, user.ID, service.DateRange{Start: recurrence.AddDays(today, -(days - 1), b.loc), End: today})
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось посчитать статистику: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, formatStats(data, days))
}

// handleSetCompletion serves /done and /undo. Regular todos flip their own
// flag; recurring todos resolve the occurrence on the given day.
func (b *Bot) handleSetCompletion(ctx context.Context, msg *tgbotapi.Message, completed bool) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 || len(args) > 2 {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Укажи задачу: /%s 3f2a [2025-06-14]", msg.Command()))
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	todo, err := b.findTodo(ctx, user.ID, args[0])
	if err != nil {
		return b.sendText(msg.Chat.ID, describeLookupError(err))
	}

	if !todo.IsRecurring() {
		if len(args) == 2 {
			return b.sendText(msg.Chat.ID, "Дата нужна только для повторяющихся задач.")
		}
		if _, err := b.todos.SetCompleted(ctx, user.ID, todo.ID, completed, b.now()); err != nil {
			return b.sendText(msg.Chat.ID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
		}
		if completed {
			return b.sendText(msg.Chat.ID, fmt.Sprintf("✅ Задача «%s» выполнена.", escape(normalizeTitle(todo.Text))))
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("↩️ Задача «%s» снова открыта.", escape(normalizeTitle(todo.Text))))
	}

	day := recurrence.FormatDay(b.now(), b.loc)
	if len(args) == 2 {
		parsed, err := parseUserDate(args[1], b.loc)
		if err != nil {
			return b.sendText(msg.Chat.ID, "Не могу распознать дату. Используй <code>2025-06-14</code> или <code>14.06.2025</code>.")
		}
		day = recurrence.FormatDay(parsed, b.loc)
	}
	return b.sendText(msg.Chat.ID, b.updateOccurrence(ctx, user.ID, *todo, day, completed))
}

// updateOccurrence writes one occurrence and returns the reply text.
func (b *Bot) updateOccurrence(ctx context.Context, userID uint, todo model.Todo, day string, completed bool) string {
	result, err := b.schedule.UpdatePastCompletion(ctx, service.CompletionUpdate{
		UserID:    userID,
		TodoID:    todo.ID,
		Date:      day,
		Completed: completed,
	})
	if err != nil {
		b.log.Warn("update occurrence", "user_id", userID, "todo_id", todo.ID, "date", day, "error", err)
		if errors.Is(err, service.ErrTodoNotFound) {
			return "Задача не найдена или уже удалена."
		}
		return fmt.Sprintf("Не удалось сохранить отметку: %s", escape(err.Error()))
	}

	title := escape(normalizeTitle(todo.Text))
	when := displayDay(day)
	if !b.schedule.Engine().IsOccurrence(todo, dayFromKey(day, b.loc)) {
		when += " (вне расписания)"
	}
	switch result.Status {
	case model.StatusCompleted:
		return fmt.Sprintf("✅ «%s» выполнена за %s.", title, when)
	case model.StatusMissed:
		return fmt.Sprintf("❌ Отметка «%s» за %s снята, день считается пропущенным.", title, when)
	default:
		return fmt.Sprintf("⬜ Отметка «%s» за %s снята.", title, when)
	}
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	ref := strings.TrimSpace(msg.CommandArguments())
	if ref == "" {
		return b.sendText(msg.Chat.ID, "Укажи задачу: /delete 3f2a")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	todo, err := b.findTodo(ctx, user.ID, ref)
	if err != nil {
		return b.sendText(msg.Chat.ID, describeLookupError(err))
	}
	return b.askDeleteConfirmation(msg.Chat.ID, msg.From, *todo)
}

func (b *Bot) handleDigest(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	text, err := b.reminders.DailyDigest(ctx, *user, b.now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось сформировать отчёт: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleExport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	todos, err := b.todos.List(ctx, user.ID)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось получить задачи: %s", escape(err.Error())))
	}
	data, err := export.Marshal(todos, b.now(), b.loc)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось выгрузить задачи: %s", escape(err.Error())))
	}
	doc := tgbotapi.NewDocument(msg.Chat.ID, tgbotapi.FileBytes{Name: "todos.ics", Bytes: data})
	doc.Caption = fmt.Sprintf("📤 Задач в файле: %d", len(todos))
	_, err = b.api.Send(doc)
	return err
}

// findTodo resolves a short id typed by the user.
func (b *Bot) findTodo(ctx context.Context, userID uint, ref string) (*model.Todo, error) {
	todos, err := b.todos.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	todo, err := matchTodo(todos, ref)
	if err != nil {
		return nil, err
	}
	return &todo, nil
}
