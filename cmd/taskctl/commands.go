package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/example/task-tracker/client"
	"github.com/example/task-tracker/client/tasklist"
	"github.com/spf13/cobra"
)

const defaultAPI = "http://localhost:3000/tasks"

type options struct {
	api     string
	timeout time.Duration
	direct  bool
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:          "taskctl",
		Short:        "Manage tasks in a task tracker",
		SilenceUsage: true,
	}

	api := os.Getenv("TASKCTL_API")
	if api == "" {
		api = defaultAPI
	}
	rootCmd.PersistentFlags().StringVar(&opts.api, "api", api, "task collection URL (env TASKCTL_API)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")
	rootCmd.PersistentFlags().BoolVar(&opts.direct, "direct", false, "send PUT and DELETE instead of tunnelling through POST")

	rootCmd.AddCommand(
		newListCommand(opts),
		newShowCommand(opts),
		newAddCommand(opts),
		newEditCommand(opts),
		newDoneCommand(opts),
		newDeleteCommand(opts),
	)

	return rootCmd
}

// session wires a model to the API for one command invocation.
type session struct {
	client *client.Client
	model  *tasklist.Model
	ctx    context.Context
	cancel context.CancelFunc
}

func (o *options) session(cmd *cobra.Command) *session {
	var clientOpts []client.Option
	if o.direct {
		clientOpts = append(clientOpts, client.WithDirectMethods())
	}
	c := client.New(o.api, clientOpts...)
	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	return &session{
		client: c,
		model:  tasklist.New(c, &printer{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}),
		ctx:    ctx,
		cancel: cancel,
	}
}

// printer reports model notifications on the command's output streams.
type printer struct {
	out    io.Writer
	errOut io.Writer
}

func (p *printer) Success(message string) {
	fmt.Fprintln(p.out, message)
}

func (p *printer) Failure(title, message string) {
	fmt.Fprintf(p.errOut, "%s: %s\n", title, message)
}

func newListCommand(opts *options) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		Short:   "List tasks, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := opts.session(cmd)
			defer s.cancel()

			if err := s.model.Load(s.ctx); err != nil {
				return err
			}

			var tasks []client.Task
			for _, t := range s.model.Tasks() {
				if status == "" || string(t.Status) == status {
					tasks = append(tasks, t)
				}
			}
			printTasks(cmd.OutOrStdout(), tasks)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only show tasks with this status")
	return cmd
}

func newShowCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Args:  cobra.ExactArgs(1),
		Short: "Show one task",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s := opts.session(cmd)
			defer s.cancel()

			t, err := s.client.Get(s.ctx, id)
			if err != nil {
				return err
			}
			printTasks(cmd.OutOrStdout(), []client.Task{t})
			return nil
		},
	}
}

func newAddCommand(opts *options) *cobra.Command {
	var due, status string

	cmd := &cobra.Command{
		Use:   "add NAME...",
		Args:  cobra.MinimumNArgs(1),
		Short: "Add a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := client.Draft{
				Name:   strings.Join(args, " "),
				Status: client.Status(status),
			}
			if due != "" {
				t, err := parseDue(due)
				if err != nil {
					return err
				}
				d.DueDate = &t
			}

			s := opts.session(cmd)
			defer s.cancel()
			return s.model.Add(s.ctx, d)
		},
	}

	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD or YYYY-MM-DD HH:MM)")
	cmd.Flags().StringVar(&status, "status", "", "initial status (pending, in-progress, completed)")
	return cmd
}

func newEditCommand(opts *options) *cobra.Command {
	var (
		name, due, status string
		clearDue          bool
	)

	cmd := &cobra.Command{
		Use:   "edit ID",
		Args:  cobra.ExactArgs(1),
		Short: "Change a task's name, due date or status",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var ch client.Changes
			if cmd.Flags().Changed("name") {
				ch.Name = &name
			}
			if cmd.Flags().Changed("status") {
				st := client.Status(status)
				ch.Status = &st
			}
			switch {
			case clearDue:
				ch.DueDateSet = true
			case due != "":
				t, err := parseDue(due)
				if err != nil {
					return err
				}
				ch.DueDate, ch.DueDateSet = &t, true
			}

			return editTask(cmd, opts, id, ch)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&due, "due", "", "new due date (YYYY-MM-DD or YYYY-MM-DD HH:MM)")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")
	cmd.Flags().StringVar(&status, "status", "", "new status (pending, in-progress, completed)")
	cmd.MarkFlagsMutuallyExclusive("due", "clear-due")
	return cmd
}

func newDoneCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "done ID",
		Args:  cobra.ExactArgs(1),
		Short: "Mark a task completed",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status := client.StatusCompleted
			return editTask(cmd, opts, id, client.Changes{Status: &status})
		},
	}
}

func editTask(cmd *cobra.Command, opts *options, id int64, ch client.Changes) error {
	s := opts.session(cmd)
	defer s.cancel()

	if err := s.model.Load(s.ctx); err != nil {
		return err
	}
	if err := s.model.BeginEdit(id); err != nil {
		return fmt.Errorf("task %d: %w", id, err)
	}
	return s.model.SaveEdit(s.ctx, ch)
}

func newDeleteCommand(opts *options) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		Short:   "Delete a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s := opts.session(cmd)
			defer s.cancel()

			if err := s.model.Load(s.ctx); err != nil {
				return err
			}
			if err := s.model.RequestDelete(id); err != nil {
				return fmt.Errorf("task %d: %w", id, err)
			}

			if !yes {
				t, _ := s.model.PendingDelete()
				fmt.Fprintf(cmd.OutOrStdout(), "Delete %q? [y/N] ", t.Name)
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
					s.model.CancelDelete()
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}
			return s.model.ConfirmDelete(s.ctx)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func printTasks(w io.Writer, tasks []client.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tDUE\tCREATED")
	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			t.ID, t.Name, t.Status, due, t.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", raw)
	}
	return id, nil
}

// parseDue reads a due date in local time.
func parseDue(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid due date %q: use YYYY-MM-DD or YYYY-MM-DD HH:MM", raw)
}
