package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/query"
	"github.com/Joseda-hg/lazytodo/internal/reminder"
	"github.com/Joseda-hg/lazytodo/internal/store"
)

type taskFlags struct {
	title       string
	description string
	category    string
	priority    string
	due         string
}

func (f *taskFlags) register(cmd *cobra.Command, withTitle bool) {
	if withTitle {
		cmd.Flags().StringVarP(&f.title, "title", "t", "", "task title")
	}
	cmd.Flags().StringVarP(&f.description, "desc", "d", "", "task description")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "work, personal, shopping, health or other")
	cmd.Flags().StringVarP(&f.priority, "priority", "p", "", "low, medium or high")
	cmd.Flags().StringVar(&f.due, "due", "", "due date (YYYY-MM-DD or YYYY-MM-DDTHH:MM)")
}

// withApp opens the app for a one-shot command, logging to stderr.
func withApp(cmd *cobra.Command, opts *options, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close(ctx)
	return fn(ctx, a)
}

func addCmd(opts *options) *cobra.Command {
	flags := &taskFlags{}
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			due, err := model.ParseDue(flags.due, time.Local)
			if err != nil {
				return err
			}
			input := model.TaskInput{
				Title:       strings.Join(args, " "),
				Description: flags.description,
				Category:    model.Category(flags.category),
				Priority:    model.Priority(flags.priority),
				DueDate:     due,
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				task, err := a.store.Create(ctx, input)
				if task.ID != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s\n", task.ID, task.Title)
				}
				return err
			})
		},
	}
	flags.register(cmd, false)
	return cmd
}

func listCmd(opts *options) *cobra.Command {
	var filter model.Filter
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks in display order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(_ context.Context, a *app) error {
				tasks := query.Project(a.store.Snapshot(), filter)
				out := cmd.OutOrStdout()
				if asJSON {
					encoder := json.NewEncoder(out)
					encoder.SetIndent("", "  ")
					return encoder.Encode(tasks)
				}
				if len(tasks) == 0 {
					fmt.Fprintln(out, "No tasks")
					return nil
				}
				now := time.Now()
				for _, task := range tasks {
					fmt.Fprintln(out, formatTaskLine(task, now))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&filter.Category, "category", "c", model.CategoryAll, "category filter")
	cmd.Flags().StringVarP(&filter.Query, "search", "s", "", "search title and description")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print tasks as JSON")
	return cmd
}

func editCmd(opts *options) *cobra.Command {
	flags := &taskFlags{}
	var clearDue bool
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				id, err := resolveID(a.store, args[0])
				if err != nil {
					return err
				}
				current, err := a.store.Get(id)
				if err != nil {
					return err
				}

				input := model.TaskInput{
					Title:       current.Title,
					Description: current.Description,
					Category:    current.Category,
					Priority:    current.Priority,
					DueDate:     current.DueDate,
				}
				changed := cmd.Flags().Changed
				if changed("title") {
					input.Title = flags.title
				}
				if changed("desc") {
					input.Description = flags.description
				}
				if changed("category") {
					input.Category = model.Category(flags.category)
				}
				if changed("priority") {
					input.Priority = model.Priority(flags.priority)
				}
				if changed("due") {
					due, err := model.ParseDue(flags.due, time.Local)
					if err != nil {
						return err
					}
					input.DueDate = due
				}
				if clearDue {
					input.DueDate = nil
				}

				task, err := a.store.Update(ctx, id, input)
				if task.ID != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %s\n", task.ID, task.Title)
				}
				return err
			})
		},
	}
	flags.register(cmd, true)
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")
	return cmd
}

func doneCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a task between done and open",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				id, err := resolveID(a.store, args[0])
				if err != nil {
					return err
				}
				task, err := a.store.ToggleComplete(ctx, id)
				if task.ID != "" {
					state := "Reopened"
					if task.Completed {
						state = "Completed"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", state, task.Title)
				}
				return err
			})
		},
	}
}

func rmCmd(opts *options) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				id, err := resolveID(a.store, args[0])
				if err != nil {
					return err
				}
				task, err := a.store.Get(id)
				if err != nil {
					return err
				}
				if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete %q? [y/N] ", task.Title)) {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
					return nil
				}
				if err := a.store.Delete(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", task.Title)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking")
	return cmd
}

func moveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <target-id>",
		Short: "Move a task to the position of another task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				source, err := resolveID(a.store, args[0])
				if err != nil {
					return err
				}
				target, err := resolveID(a.store, args[1])
				if err != nil {
					return err
				}
				return a.store.Reorder(ctx, source, target)
			})
		},
	}
}

func remindCmd(opts *options) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Check due dates and print reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				sink := reminder.SinkFunc(func(_ context.Context, event reminder.Event) {
					fmt.Fprintln(out, event.Message())
				})
				engine := reminder.New(a.store, sink,
					reminder.WithInterval(a.cfg.ReminderInterval),
					reminder.WithHorizon(a.cfg.DueSoonHorizon),
					reminder.WithLogger(a.logger),
				)

				if watch {
					err := engine.Run(ctx)
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}

				events, err := engine.Tick(ctx)
				if len(events) == 0 && err == nil {
					fmt.Fprintln(out, "No reminders")
				}
				return err
			})
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep checking until interrupted")
	return cmd
}

func statsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show completion statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(_ context.Context, a *app) error {
				stats := query.ComputeStats(a.store.Snapshot())
				fmt.Fprintf(cmd.OutOrStdout(), "Total: %d  Completed: %d  Progress: %d%%\n", stats.Total, stats.Completed, stats.Progress)
				return nil
			})
		},
	}
}

func historyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show the change history of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				id := model.TaskID(args[0])
				if resolved, err := resolveID(a.store, args[0]); err == nil {
					id = resolved
				}
				entries, err := a.history.List(ctx, id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No history")
					return nil
				}
				for _, entry := range entries {
					fmt.Fprintf(out, "%-14s %s\n", humanize.Time(entry.CreatedAt), entry.Details)
				}
				return nil
			})
		},
	}
}

// resolveID accepts a full task ID or an unambiguous prefix of one.
func resolveID(st *store.Store, value string) (model.TaskID, error) {
	value = strings.TrimSpace(value)
	if _, err := st.Get(model.TaskID(value)); err == nil {
		return model.TaskID(value), nil
	}

	var matches []model.TaskID
	for _, task := range st.Snapshot() {
		if value != "" && strings.HasPrefix(string(task.ID), value) {
			matches = append(matches, task.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", &store.NotFoundError{ID: model.TaskID(value)}
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id prefix %q matches %d tasks", value, len(matches))
	}
}

func formatTaskLine(task model.Task, now time.Time) string {
	check := "[ ]"
	if task.Completed {
		check = "[x]"
	}
	line := fmt.Sprintf("%s %s %-8s %-6s %s", task.ID, check, task.Category, task.Priority, task.Title)
	if task.DueDate != nil {
		line += " (" + query.DueLabel(*task.DueDate, now) + ")"
	}
	return line
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
