package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/stationcall/internal/models"
)

func newGroupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Audience group commands",
	}

	cmd.AddCommand(newGroupCreateCmd())
	cmd.AddCommand(newGroupAddMemberCmd())
	cmd.AddCommand(newGroupListCmd())
	return cmd
}

func newGroupCreateCmd() *cobra.Command {
	var (
		configPath string
		name       string
		filters    map[string]string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an audience group",
		Long:  "Creates a group. Filters are attribute=value pairs; only role, isActive and username are consulted at resolve time.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			group := models.Group{Name: name, IsActive: true, CreatedAt: time.Now()}
			if len(filters) > 0 {
				data, err := json.Marshal(filters)
				if err != nil {
					return fmt.Errorf("encode filters: %w", err)
				}
				group.Filters = string(data)
			}

			if err := gormDB.Create(&group).Error; err != nil {
				return fmt.Errorf("create group %q: %w", name, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created group %d (%s)\n", group.ID, group.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "stationcall.yaml", "path to Stationcall config file")
	cmd.Flags().StringVar(&name, "name", "", "group name (required)")
	cmd.Flags().StringToStringVar(&filters, "filter", nil, "dynamic filter attribute=value (repeatable)")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newGroupAddMemberCmd() *cobra.Command {
	var (
		configPath string
		groupID    uint
		username   string
	)

	cmd := &cobra.Command{
		Use:   "add-member",
		Short: "Add a manual member to a group",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			member := models.GroupMember{
				GroupID:  groupID,
				Username: username,
				JoinedAt: time.Now(),
			}
			if err := gormDB.Create(&member).Error; err != nil {
				return fmt.Errorf("add member %q to group %d: %w", username, groupID, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added %s to group %d\n", username, groupID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "stationcall.yaml", "path to Stationcall config file")
	cmd.Flags().UintVar(&groupID, "group", 0, "group ID (required)")
	cmd.Flags().StringVar(&username, "username", "", "member username (required)")
	cmd.MarkFlagRequired("group")
	cmd.MarkFlagRequired("username")
	return cmd
}

func newGroupListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			var groups []models.Group
			if err := gormDB.Preload("Members").Order("name ASC").Find(&groups).Error; err != nil {
				return fmt.Errorf("list groups: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(groups) == 0 {
				fmt.Fprintln(out, "No groups")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tACTIVE\tMEMBERS\tFILTERS")
			for _, g := range groups {
				filters := g.Filters
				if filters == "" {
					filters = "-"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
					g.ID, g.Name, strconv.FormatBool(g.IsActive), len(g.Members), filters)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "stationcall.yaml", "path to Stationcall config file")
	return cmd
}
