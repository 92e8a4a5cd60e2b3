package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/stationcall/internal/models"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Directory user commands",
	}

	cmd.AddCommand(newUserAddCmd())
	cmd.AddCommand(newUserListCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var (
		configPath string
		username   string
		email      string
		role       string
		inactive   bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a directory user",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			user := models.User{
				Username:  username,
				Email:     email,
				Role:      role,
				IsActive:  !inactive,
				CreatedAt: time.Now(),
			}
			if err := gormDB.Create(&user).Error; err != nil {
				return fmt.Errorf("add user %q: %w", username, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added user %s\n", username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "stationcall.yaml", "path to Stationcall config file")
	cmd.Flags().StringVar(&username, "username", "", "username (required)")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&role, "role", "", "directory role")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "create the user as inactive")
	cmd.MarkFlagRequired("username")
	return cmd
}

func newUserListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List directory users",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			var users []models.User
			if err := gormDB.Order("username ASC").Find(&users).Error; err != nil {
				return fmt.Errorf("list users: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(users) == 0 {
				fmt.Fprintln(out, "No users")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "USERNAME\tEMAIL\tROLE\tACTIVE")
			for _, u := range users {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", u.Username, u.Email, u.Role, u.IsActive)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "stationcall.yaml", "path to Stationcall config file")
	return cmd
}
