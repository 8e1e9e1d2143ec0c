package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"go-todo-slack/internal/client"
	"go-todo-slack/internal/models"
)

const defaultServer = "http://localhost:5000"

func newRootCmd(getenv func(string) string) *cobra.Command {
	server := getenv("TODO_SERVER")
	if server == "" {
		server = defaultServer
	}

	rootCmd := &cobra.Command{
		Use:           "todoctl",
		Short:         "Command line client for the todo API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&server, "server", server, "API base URL (env TODO_SERVER)")

	newBoard := func() *client.Board { return client.NewBoard(client.New(server)) }

	rootCmd.AddCommand(
		listCmd(newBoard),
		addCmd(newBoard),
		completeCmd(newBoard, "done", true),
		completeCmd(newBoard, "undone", false),
		editCmd(newBoard),
		removeCmd(newBoard),
		summaryCmd(newBoard),
	)
	return rootCmd
}

func listCmd(newBoard func() *client.Board) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List todos, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			board := newBoard()
			if err := board.Refresh(cmd.Context()); err != nil {
				return err
			}
			todos := board.Todos()
			if len(todos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No todos yet.")
				return nil
			}
			for _, t := range todos {
				printTodo(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
}

func addCmd(newBoard func() *client.Board) *cobra.Command {
	return &cobra.Command{
		Use:   "add <text>",
		Short: "Create a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			todo, err := newBoard().Add(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			printTodo(cmd.OutOrStdout(), *todo)
			return nil
		},
	}
}

func completeCmd(newBoard func() *client.Board, use string, completed bool) *cobra.Command {
	short := "Mark a todo as complete"
	if !completed {
		short = "Mark a todo as incomplete"
	}
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			todo, err := newBoard().SetCompleted(cmd.Context(), id, completed)
			if err != nil {
				return err
			}
			printTodo(cmd.OutOrStdout(), *todo)
			return nil
		},
	}
}

func editCmd(newBoard func() *client.Board) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <text>",
		Short: "Change the text of a todo",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			todo, err := newBoard().Edit(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			printTodo(cmd.OutOrStdout(), *todo)
			return nil
		},
	}
}

func removeCmd(newBoard func() *client.Board) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			todo, err := newBoard().Remove(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted #%d %s\n", todo.ID, todo.Text)
			return nil
		},
	}
}

func summaryCmd(newBoard func() *client.Board) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Ask the server for an AI summary of the todo list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := newBoard().Summary(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid todo id %q", raw)
	}
	return id, nil
}

func printTodo(w io.Writer, t models.Todo) {
	mark := " "
	if t.Completed {
		mark = "x"
	}
	fmt.Fprintf(w, "[%s] #%d %s (%s)\n", mark, t.ID, t.Text, t.CreatedAt.Local().Format("2006-01-02 15:04"))
}
