package main

import (
	"complaintdesk/backend/internal/models"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newRootCmd(open func(ctx context.Context) (*app, error)) *cobra.Command {
	var a *app
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Complaint desk administration",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opened, err := open(cmd.Context())
			if err != nil {
				return err
			}
			a = opened
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a != nil && a.close != nil {
				a.close()
			}
		},
	}
	get := func() *app { return a }

	root.AddCommand(
		newCreateUserCmd(get),
		newLinkTelegramCmd(get),
		newListPendingCmd(get),
		newAssignFCFSCmd(get),
	)
	return root
}

func newCreateUserCmd(get func() *app) *cobra.Command {
	var email, password, name, role string
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a teacher, admin or student account",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := models.ParseRole(role)
			if err != nil {
				return err
			}
			user, err := get().auth.CreateUser(cmd.Context(), email, password, name, r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(models.RoleTeacher), "student, teacher or admin")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newLinkTelegramCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "link-telegram <email> <telegram_id>",
		Short: "Link an account to a Telegram user for the chat-ops bot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			telegramID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid telegram id %q", args[1])
			}
			ctx := cmd.Context()
			user, err := get().store.GetUserByEmail(ctx, args[0])
			if err != nil {
				return fmt.Errorf("find %s: %w", args[0], err)
			}
			if err := get().store.SetUserTelegramID(ctx, user.ID, telegramID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "linked %s to telegram %d\n", user.Email, telegramID)
			return nil
		},
	}
}

func newListPendingCmd(get func() *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list-pending",
		Short: "List pending complaints, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := get().complaints.ListPending(cmd.Context(), cliAdmin)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			return printComplaints(cmd.OutOrStdout(), list)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newAssignFCFSCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "assign-fcfs",
		Short: "Assign the oldest pending complaint to the first teacher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := get().complaints.AssignFCFS(cmd.Context(), cliAdmin)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "assigned %s %q to %s\n", c.ID, c.Title, *c.AssignedTeacherName)
			return nil
		},
	}
}

func printComplaints(w io.Writer, list []models.Complaint) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSTUDENT\tTITLE")
	for _, c := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.CreatedAt.Format(time.RFC3339), c.StudentName, c.Title)
	}
	return tw.Flush()
}
