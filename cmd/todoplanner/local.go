package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"todo-planner/internal/cache"
	"todo-planner/internal/config"
	"todo-planner/internal/engine"
	"todo-planner/internal/export"
	"todo-planner/internal/localstore"
	"todo-planner/internal/model"
	"todo-planner/internal/recurrence"
	"todo-planner/internal/service"
	"todo-planner/pkg/logger"
)

// localUserID owns everything in a local JSON store.
const localUserID uint = 1

// localApp wires the services over the local JSON store for one command.
type localApp struct {
	cfg      config.Config
	store    *localstore.Store
	todos    *service.TodoService
	schedule *service.ScheduleService
}

func openLocal(cmd *cobra.Command) (*localApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if path, _ := cmd.Flags().GetString("store"); path != "" {
		cfg.StorePath = path
	}

	log, err := logger.NewWithWriter(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	store, err := localstore.Open(cfg.StorePath)
	if err != nil {
		return nil, err
	}
	schedule := service.NewScheduleService(store, store, engine.New(cfg.Location), cache.DefaultConfig, log)
	return &localApp{
		cfg:      cfg,
		store:    store,
		todos:    service.NewTodoService(store, schedule),
		schedule: schedule,
	}, nil
}

func (a *localApp) Close() {
	a.schedule.Close()
}

// dateRange reads --from/--to; the default is the last 30 days.
func (a *localApp) dateRange(cmd *cobra.Command) (service.DateRange, error) {
	loc := a.cfg.Location
	end := recurrence.DayOf(time.Now(), loc)
	if raw, _ := cmd.Flags().GetString("to"); raw != "" {
		parsed, err := recurrence.ParseDate(raw, loc)
		if err != nil {
			return service.DateRange{}, err
		}
		end = parsed
	}
	start := recurrence.AddDays(end, -29, loc)
	if raw, _ := cmd.Flags().GetString("from"); raw != "" {
		parsed, err := recurrence.ParseDate(raw, loc)
		if err != nil {
			return service.DateRange{}, err
		}
		start = parsed
	}
	if start.After(end) {
		return service.DateRange{}, fmt.Errorf("--from %s is after --to %s",
			recurrence.FormatDay(start, loc), recurrence.FormatDay(end, loc))
	}
	return service.DateRange{Start: start, End: end}, nil
}

func addLocalFlags(cmd *cobra.Command) {
	cmd.Flags().String("store", "", "Path to the local JSON store (default STORE_PATH)")
}

func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "First day, YYYY-MM-DD")
	cmd.Flags().String("to", "", "Last day, YYYY-MM-DD (default today)")
	cmd.Flags().BoolP("json", "j", false, "Output as JSON")
}

func addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Add a todo to the local store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openLocal(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			input := service.TodoInput{Text: strings.Join(args, " ")}
			input.Folder, _ = cmd.Flags().GetString("folder")
			if raw, _ := cmd.Flags().GetString("due"); raw != "" {
				due, err := recurrence.ParseDate(raw, app.cfg.Location)
				if err != nil {
					return err
				}
				input.DueDate = &due
			}
			if repeat, _ := cmd.Flags().GetString("repeat"); repeat != "" {
				p, err := patternFromFlags(cmd, model.RecurrenceType(repeat))
				if err != nil {
					return err
				}
				input.Recurrence = &p
			}

			todo, err := app.todos.Create(cmd.Context(), localUserID, input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s %s\n", todo.ID, todo.Text)
			return nil
		},
	}
	addLocalFlags(cmd)
	cmd.Flags().String("folder", "", "Folder name")
	cmd.Flags().String("due", "", "Due date, YYYY-MM-DD")
	cmd.Flags().String("repeat", "", "Recurrence: daily, weekly, monthly, yearly or custom")
	cmd.Flags().Int("every", 0, "Interval between periods")
	cmd.Flags().IntSlice("days", nil, "Weekdays for weekly/custom, 0 = Sunday")
	cmd.Flags().Int("day-of-month", 0, "Day of month for monthly/yearly")
	cmd.Flags().Int("month", 0, "Month for yearly")
	cmd.Flags().String("until", "", "Last day, YYYY-MM-DD")
	cmd.Flags().String("notify", "", "Reminder time, HH:MM")
	return cmd
}

func patternFromFlags(cmd *cobra.Command, kind model.RecurrenceType) (model.RecurrencePattern, error) {
	p := model.RecurrencePattern{Type: kind}
	p.Interval, _ = cmd.Flags().GetInt("every")
	p.DaysOfWeek, _ = cmd.Flags().GetIntSlice("days")
	p.DayOfMonth, _ = cmd.Flags().GetInt("day-of-month")
	p.MonthOfYear, _ = cmd.Flags().GetInt("month")
	p.EndDate, _ = cmd.Flags().GetString("until")
	p.NotifyAt, _ = cmd.Flags().GetString("notify")
	return p, recurrence.Validate(p)
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todos in the local store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openLocal(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			todos, err := app.todos.List(cmd.Context(), localUserID)
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), todos)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTEXT\tDUE\tSTATE")
			for _, todo := range todos {
				due := "-"
				if todo.DueDate != nil {
					due = recurrence.FormatDay(*todo.DueDate, app.cfg.Location)
				}
				state := "open"
				switch {
				case todo.IsRecurring():
					state = string(todo.Recurrence.Type)
				case todo.Completed:
					state = "done"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", todo.ID, todo.Text, due, state)
			}
			return w.Flush()
		},
	}
	addLocalFlags(cmd)
	cmd.Flags().BoolP("json", "j", false, "Output as JSON")
	return cmd
}

func occurrencesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "occurrences",
		Short: "List recurring occurrences in a date range, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openLocal(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			r, err := app.dateRange(cmd)
			if err != nil {
				return err
			}
			occs, err := app.schedule.Occurrences(cmd.Context(), localUserID, r)
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), occs)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tSTATUS\tTODO")
			for _, occ := range occs {
				fmt.Fprintf(w, "%s\t%s\t%s\n", occ.ScheduledDate, occ.Status, occ.TodoText)
			}
			return w.Flush()
		},
	}
	addLocalFlags(cmd)
	addRangeFlags(cmd)
	return cmd
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show completion analytics for a date range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openLocal(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			r, err := app.dateRange(cmd)
			if err != nil {
				return err
			}
			data, err := app.schedule.Analytics(cmd.Context(), localUserID, r)
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), data)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Regular completed:   %d\n", data.TotalRegularCompleted)
			fmt.Fprintf(out, "Recurring completed: %d\n", data.TotalRecurringCompleted)
			fmt.Fprintf(out, "Recurring missed:    %d\n", data.TotalRecurringMissed)
			fmt.Fprintf(out, "Completion rate:     %d%%\n", data.CompletionRate)
			fmt.Fprintf(out, "Current streak:      %d\n", data.CurrentStreak)
			if len(data.DailyBreakdown) > 0 {
				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "\nDATE\tREGULAR\tRECURRING\tMISSED")
				for _, d := range data.DailyBreakdown {
					fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", d.Date, d.RegularCompleted, d.RecurringCompleted, d.RecurringMissed)
				}
				return w.Flush()
			}
			return nil
		},
	}
	addLocalFlags(cmd)
	addRangeFlags(cmd)
	return cmd
}

func doneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "done [todo-id]",
		Short: "Complete a todo, or one occurrence of a recurring todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openLocal(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			undo, _ := cmd.Flags().GetBool("undo")
			todo, err := app.todos.Get(cmd.Context(), localUserID, args[0])
			if err != nil {
				return err
			}
			if !todo.IsRecurring() {
				if _, err := app.todos.SetCompleted(cmd.Context(), localUserID, todo.ID, !undo, time.Now()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s completed=%s\n", todo.ID, strconv.FormatBool(!undo))
				return nil
			}

			day, _ := cmd.Flags().GetString("date")
			if day == "" {
				day = recurrence.FormatDay(time.Now(), app.cfg.Location)
			}
			result, err := app.schedule.UpdatePastCompletion(cmd.Context(), service.CompletionUpdate{
				UserID:    localUserID,
				TodoID:    todo.ID,
				Date:      day,
				Completed: !undo,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", todo.ID, result.Record.ScheduledDate, result.Status)
			return nil
		},
	}
	addLocalFlags(cmd)
	cmd.Flags().String("date", "", "Occurrence day for recurring todos, YYYY-MM-DD (default today)")
	cmd.Flags().Bool("undo", false, "Clear the completion instead")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export local todos as an iCalendar file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openLocal(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			todos, err := app.todos.List(cmd.Context(), localUserID)
			if err != nil {
				return err
			}
			data, err := export.Marshal(todos, time.Now(), app.cfg.Location)
			if err != nil {
				return err
			}
			path, _ := cmd.Flags().GetString("output")
			if path == "" || path == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d todos to %s\n", len(todos), path)
			return nil
		},
	}
	addLocalFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
