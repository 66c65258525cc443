package bot

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"
	"unicode"

	"todo-planner/internal/model"
	"todo-planner/internal/recurrence"
)

const (
	noFolder      = "Без папки"
	noFolderKey   = "__no_folder__"
	iconDefault   = "🟢"
	iconDue       = "⏳"
	iconOverdue   = "⚠️"
	iconRecurring = "♻️"
	shortIDLen    = 8
)

var (
	errNoTodo        = errors.New("no todo matches")
	errAmbiguousTodo = errors.New("several todos match")
)

var weekdayNames = map[string]int{
	"вс": 0, "воскресенье": 0, "sun": 0,
	"пн": 1, "понедельник": 1, "mon": 1,
	"вт": 2, "вторник": 2, "tue": 2,
	"ср": 3, "среда": 3, "wed": 3,
	"чт": 4, "четверг": 4, "thu": 4,
	"пт": 5, "пятница": 5, "fri": 5,
	"сб": 6, "суббота": 6, "sat": 6,
}

var weekdayShort = [7]string{"вс", "пн", "вт", "ср", "чт", "пт", "сб"}

func escape(s string) string {
	return html.EscapeString(s)
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

// matchTodo finds the todo whose id starts with ref.
func matchTodo(todos []model.Todo, ref string) (model.Todo, error) {
	ref = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ref), "#"))
	if ref == "" {
		return model.Todo{}, errNoTodo
	}
	var found []model.Todo
	for _, todo := range todos {
		if todo.ID == ref {
			return todo, nil
		}
		if strings.HasPrefix(strings.ToLower(todo.ID), ref) {
			found = append(found, todo)
		}
	}
	switch len(found) {
	case 0:
		return model.Todo{}, errNoTodo
	case 1:
		return found[0], nil
	default:
		return model.Todo{}, errAmbiguousTodo
	}
}

func describeLookupError(err error) string {
	switch {
	case errors.Is(err, errNoTodo):
		return "Задача не найдена. Номер есть в /todos."
	case errors.Is(err, errAmbiguousTodo):
		return "Под этот номер подходит несколько задач, добавь ещё символов."
	default:
		return fmt.Sprintf("Ошибка: %s", escape(err.Error()))
	}
}

// parseUserDate accepts YYYY-MM-DD and DD.MM.YYYY.
func parseUserDate(text string, loc *time.Location) (time.Time, error) {
	text = strings.TrimSpace(text)
	if t, err := time.Parse("02.01.2006", text); err == nil {
		y, m, d := t.Date()
		return recurrence.StartOfDay(y, m, d, loc), nil
	}
	return recurrence.ParseDate(text, loc)
}

func dayFromKey(key string, loc *time.Location) time.Time {
	t, _ := recurrence.ParseDate(key, loc)
	return t
}

func displayDay(key string) string {
	t, err := time.Parse(model.DayLayout, key)
	if err != nil {
		return key
	}
	return fmt.Sprintf("%s, %s", t.Format("02.01.2006"), weekdayShort[t.Weekday()])
}

func displayDayShort(key string) string {
	t, err := time.Parse(model.DayLayout, key)
	if err != nil {
		return key
	}
	return t.Format("02.01")
}

// parseDays reads an optional day count argument.
func parseDays(arg string, fallback int) (int, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > maxRangeDays {
		return 0, fmt.Errorf("invalid day count %q", arg)
	}
	return n, nil
}

// parseWeekdays reads "пн, ср" or "1 3" into sorted unique weekday numbers
// (0 = Sunday).
func parseWeekdays(text string) ([]int, error) {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})
	if len(fields) == 0 {
		return nil, errors.New("no weekdays")
	}
	var seen [7]bool
	for _, f := range fields {
		day, ok := weekdayNames[f]
		if !ok {
			n, err := strconv.Atoi(f)
			if err != nil || n < 0 || n > 7 {
				return nil, fmt.Errorf("unknown weekday %q", f)
			}
			day = n % 7
		}
		seen[day] = true
	}
	var days []int
	for d, ok := range seen {
		if ok {
			days = append(days, d)
		}
	}
	return days, nil
}

// occurrenceData encodes an occurrence toggle; todo ids are uuids, which keeps
// it under Telegram's 64-byte limit.
func occurrenceData(todoID, day string, completed bool) string {
	flag := "0"
	if completed {
		flag = "1"
	}
	return cbOccurrencePrefix + todoID + ":" + day + ":" + flag
}

func parseOccurrenceData(data string) (todoID, day string, completed bool, err error) {
	parts := strings.Split(strings.TrimPrefix(data, cbOccurrencePrefix), ":")
	if len(parts) != 3 || parts[0] == "" {
		return "", "", false, fmt.Errorf("malformed occurrence data %q", data)
	}
	if _, err := time.Parse(model.DayLayout, parts[1]); err != nil {
		return "", "", false, fmt.Errorf("malformed occurrence date %q", parts[1])
	}
	switch parts[2] {
	case "1":
		completed = true
	case "0":
	default:
		return "", "", false, fmt.Errorf("malformed occurrence flag %q", parts[2])
	}
	return parts[0], parts[1], completed, nil
}

func describePattern(p model.RecurrencePattern) string {
	every := p.Every()
	var desc string
	switch p.Type {
	case model.RecurDaily:
		desc = "каждый день"
		if every > 1 {
			desc = fmt.Sprintf("раз в %d дн.", every)
		}
	case model.RecurWeekly, model.RecurCustom:
		names := make([]string, 0, len(p.DaysOfWeek))
		for _, d := range p.DaysOfWeek {
			if d >= 0 && d < len(weekdayShort) {
				names = append(names, weekdayShort[d])
			}
		}
		if len(names) == 0 {
			desc = "каждую неделю"
		} else {
			desc = "по дням: " + strings.Join(names, ", ")
		}
		if every > 1 {
			desc += fmt.Sprintf(" (раз в %d нед.)", every)
		}
	case model.RecurMonthly:
		desc = "каждый месяц"
		if p.DayOfMonth != 0 {
			desc = fmt.Sprintf("каждый месяц %d числа", p.DayOfMonth)
		}
		if every > 1 {
			desc += fmt.Sprintf(" (раз в %d мес.)", every)
		}
	case model.RecurYearly:
		desc = "каждый год"
		if p.DayOfMonth != 0 && p.MonthOfYear != 0 {
			desc = fmt.Sprintf("каждый год %02d.%02d", p.DayOfMonth, p.MonthOfYear)
		}
	default:
		desc = string(p.Type)
	}
	if p.NotifyAt != "" {
		desc += ", напоминание в " + p.NotifyAt
	}
	if p.EndDate != "" {
		desc += ", до " + p.EndDate
	}
	return desc
}

func formatTodo(todo model.Todo, now time.Time, loc *time.Location) string {
	var b strings.Builder
	icon := iconDefault
	if todo.DueDate != nil {
		d := todo.DueDate.In(loc)
		if now.After(d) {
			icon = iconOverdue
		} else if d.Sub(now) <= 48*time.Hour {
			icon = iconDue
		}
	}
	b.WriteString(fmt.Sprintf("%s <code>%s</code> %s\n", icon, shortID(todo.ID), escape(normalizeTitle(todo.Text))))
	if todo.DueDate != nil {
		d := todo.DueDate.In(loc)
		if now.After(d) {
			b.WriteString(fmt.Sprintf("   ⏰ Срок: %s, <b>просрочено</b>\n", d.Format("02.01.2006")))
		} else {
			daysLeft := recurrence.DaysBetween(recurrence.DayOf(now, loc), recurrence.DayOf(d, loc))
			b.WriteString(fmt.Sprintf("   ⏰ Срок: %s · осталось %d дн.\n", d.Format("02.01.2006"), daysLeft))
		}
	}
	if todo.ReminderAt != nil {
		b.WriteString(fmt.Sprintf("   🔔 %s\n", todo.ReminderAt.In(loc).Format("02.01.2006 15:04")))
	}
	return b.String()
}

func formatRecurringTodo(todo model.Todo) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <code>%s</code> %s\n", iconRecurring, shortID(todo.ID), escape(normalizeTitle(todo.Text))))
	b.WriteString(fmt.Sprintf("   🔄 %s\n", describePattern(*todo.Recurrence)))
	return b.String()
}

func formatOccurrenceLine(occ model.Occurrence) string {
	icon := "⬜"
	switch occ.Status {
	case model.StatusCompleted:
		icon = "✅"
	case model.StatusMissed:
		icon = "❌"
	}
	return fmt.Sprintf("%s %s <code>%s</code>\n", icon, escape(normalizeTitle(occ.TodoText)), shortID(occ.TodoID))
}

// formatStats renders analytics with a bar per day for the last week of the
// range.
func formatStats(data model.AnalyticsData, days int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>Статистика за %d дн.</b>\n\n", days))
	b.WriteString(fmt.Sprintf("✅ Разовые задачи: %d\n", data.TotalRegularCompleted))
	b.WriteString(fmt.Sprintf("♻️ Повторы выполнены: %d\n", data.TotalRecurringCompleted))
	b.WriteString(fmt.Sprintf("❌ Повторы пропущены: %d\n", data.TotalRecurringMissed))
	b.WriteString(fmt.Sprintf("🎯 Выполнение: %d%%\n", data.CompletionRate))
	b.WriteString(fmt.Sprintf("🔥 Серия: %d дн.\n", data.CurrentStreak))

	recent := data.DailyBreakdown
	if len(recent) > 7 {
		recent = recent[len(recent)-7:]
	}
	if len(recent) > 0 {
		b.WriteString("\n<b>Последние дни</b>\n")
		for _, day := range recent {
			b.WriteString(fmt.Sprintf("<code>%s</code> %s%s\n",
				displayDayShort(day.Date),
				strings.Repeat("🟩", min(day.Completed(), 10)),
				strings.Repeat("🟥", min(day.RecurringMissed, 10)),
			))
		}
	}
	return strings.TrimSpace(b.String())
}

func lessByDue(a, b model.Todo) bool {
	switch {
	case a.DueDate != nil && b.DueDate != nil:
		if !a.DueDate.Equal(*b.DueDate) {
			return a.DueDate.Before(*b.DueDate)
		}
	case a.DueDate != nil:
		return true
	case b.DueDate != nil:
		return false
	}
	if a.IsRecurring() != b.IsRecurring() {
		return !a.IsRecurring()
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func folderKey(folderID *uint, names map[uint]string) (string, string) {
	if folderID == nil {
		return noFolderKey, folderLabel(noFolder)
	}
	name := strings.TrimSpace(names[*folderID])
	if name == "" {
		return noFolderKey, folderLabel(noFolder)
	}
	return strings.ToLower(name), folderLabel(name)
}

func folderLabel(name string) string {
	base := strings.TrimSpace(name)
	var icon string
	switch strings.ToLower(base) {
	case "работа":
		icon = "💼"
	case "дом":
		icon = "🏠"
	case "покупки":
		icon = "🛒"
	case "здоровье":
		icon = "🩺"
	case strings.ToLower(noFolder):
		icon = "📁"
	default:
		icon = "🏷️"
	}
	return fmt.Sprintf("%s %s", icon, escape(normalizeTitle(base)))
}

func shortTitle(title string, maxLen int) string {
	clean := normalizeTitle(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "пропустить" || value == "skip"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "подтвердить" || value == "да"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "отмена"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "отменить ввод"
}
