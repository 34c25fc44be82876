package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"go-gin-blog/internal/domain"
	"go-gin-blog/internal/repo"
)

var (
	listQuery  string
	listOffset int
	listLimit  int
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage blog users",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.Close()
		return listUsers(cmd.Context(), cmd.OutOrStdout(), repo.NewUserRepo(e.db), listQuery, listOffset, listLimit)
	},
}

var usersSetRoleCmd = &cobra.Command{
	Use:   "set-role <email> <role>",
	Short: "Change a user's role (user|admin)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.Close()
		return setRole(cmd.Context(), cmd.OutOrStdout(), repo.NewUserRepo(e.db), args[0], args[1])
	},
}

var usersSetPasswordCmd = &cobra.Command{
	Use:   "set-password <email> <password>",
	Short: "Reset a user's password",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.Close()
		return setPassword(cmd.Context(), cmd.OutOrStdout(), repo.NewUserRepo(e.db), args[0], args[1])
	},
}

func init() {
	usersListCmd.Flags().StringVarP(&listQuery, "query", "q", "", "filter by name or email")
	usersListCmd.Flags().IntVar(&listOffset, "offset", 0, "rows to skip")
	usersListCmd.Flags().IntVar(&listLimit, "limit", 50, "max rows")
	usersCmd.AddCommand(usersListCmd, usersSetRoleCmd, usersSetPasswordCmd)
}

var errNoUser = errors.New("user not found")

func listUsers(ctx context.Context, w io.Writer, users domain.UserRepository, q string, offset, limit int) error {
	if limit <= 0 {
		limit = 50
	}
	list, total, err := users.List(ctx, offset, limit, q)
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"ID", "Name", "Email", "Role", "Created"})
	for _, u := range list {
		t.AppendRow(table.Row{u.ID, u.Name, u.Email, u.Role, u.CreatedAt.Format("2006-01-02 15:04")})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", total})
	t.Render()
	return nil
}

func findByEmail(ctx context.Context, users domain.UserRepository, email string) (*domain.User, error) {
	u, err := users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: %s", errNoUser, email)
	}
	return u, nil
}

func setRole(ctx context.Context, w io.Writer, users domain.UserRepository, email, role string) error {
	u, err := findByEmail(ctx, users, email)
	if err != nil {
		return err
	}
	if _, err := users.Update(ctx, u.ID, domain.UserPatch{Role: &role}); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s is now %s\n", u.Email, role)
	return nil
}

func setPassword(ctx context.Context, w io.Writer, users domain.UserRepository, email, password string) error {
	u, err := findByEmail(ctx, users, email)
	if err != nil {
		return err
	}
	if err := users.SetPassword(ctx, u.ID, password); err != nil {
		return err
	}
	fmt.Fprintf(w, "password updated for %s\n", u.Email)
	return nil
}
