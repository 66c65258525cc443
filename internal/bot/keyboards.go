package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-planner/internal/model"
)

const (
	btnSkip           = "⏭️ Пропустить"
	btnConfirm        = "✅ Подтвердить"
	btnCancel         = "↩️ Отмена"
	btnCancelDialog   = "⏪ Отменить ввод"
	btnRepeatNone     = "Без повтора"
	btnRepeatDaily    = "Каждый день"
	btnRepeatWeekdays = "По будням"
	btnRepeatWeekly   = "По дням недели"
	btnRepeatMonthly  = "Каждый месяц"
	btnRepeatYearly   = "Каждый год"
	menuLabelNewTodo  = "➕ Новая задача"
	menuLabelTodos    = "📋 Задачи"
	menuLabelToday    = "♻️ Сегодня"
	menuLabelStats    = "📈 Статистика"
	menuLabelHelp     = "ℹ️ Помощь"
)

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTodo),
			tgbotapi.NewKeyboardButton(menuLabelTodos),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelToday),
			tgbotapi.NewKeyboardButton(menuLabelStats),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func folderKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Работа"),
			tgbotapi.NewKeyboardButton("Дом"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Покупки"),
			tgbotapi.NewKeyboardButton("Здоровье"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func repeatKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnRepeatNone),
			tgbotapi.NewKeyboardButton(btnRepeatDaily),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnRepeatWeekdays),
			tgbotapi.NewKeyboardButton(btnRepeatWeekly),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnRepeatMonthly),
			tgbotapi.NewKeyboardButton(btnRepeatYearly),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

// occurrenceKeyboard offers one toggle per occurrence: done for open ones,
// undo for completed ones.
func occurrenceKeyboard(occs []model.Occurrence) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(occs))
	for _, occ := range occs {
		label := fmt.Sprintf("✅ %s · %s", shortTitle(occ.TodoText, 20), displayDayShort(occ.ScheduledDate))
		completed := true
		if occ.Status == model.StatusCompleted {
			label = fmt.Sprintf("↩️ %s · %s", shortTitle(occ.TodoText, 20), displayDayShort(occ.ScheduledDate))
			completed = false
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, occurrenceData(occ.TodoID, occ.ScheduledDate, completed)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func reminderKeyboard(todo model.Todo, day string) tgbotapi.InlineKeyboardMarkup {
	data := cbCompletePrefix + todo.ID
	if todo.IsRecurring() {
		data = occurrenceData(todo.ID, day, true)
	}
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Готово", data),
	))
}
