package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/stationcall/internal/dispatch"
	"github.com/zulandar/stationcall/internal/models"
)

func newMessageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "message",
		Short: "Message commands",
	}

	cmd.AddCommand(newMessageCreateCmd())
	cmd.AddCommand(newMessageListCmd())
	cmd.AddCommand(newMessageSendCmd())
	return cmd
}

func newMessageCreateCmd() *cobra.Command {
	var (
		configPath string
		title      string
		body       string
		ch         string
		groupID    uint
		recipients []string
		scheduleAt string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a message",
		Long:  "Creates a message in draft state, or scheduled state when --schedule-at is a future instant.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			var scheduledAt *time.Time
			if scheduleAt != "" {
				t, err := time.Parse(time.RFC3339, scheduleAt)
				if err != nil {
					return fmt.Errorf("parse --schedule-at: %w", err)
				}
				scheduledAt = &t
			}

			msg, err := models.NewMessage(title, body, ch, recipients, scheduledAt)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("group") {
				msg.TargetGroupID = &groupID
			}

			if err := gormDB.Create(msg).Error; err != nil {
				return fmt.Errorf("create message: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created message %s (%s)\n", msg.ID, msg.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "stationcall.yaml", "path to Stationcall config file")
	cmd.Flags().StringVar(&title, "title", "", "message title (required)")
	cmd.Flags().StringVar(&body, "body", "", "message body (required)")
	cmd.Flags().StringVar(&ch, "channel", models.ChannelEmail, "delivery channel (email, in-app, sms)")
	cmd.Flags().UintVar(&groupID, "group", 0, "target group ID")
	cmd.Flags().StringSliceVar(&recipients, "recipient", nil, "explicit recipient username (repeatable)")
	cmd.Flags().StringVar(&scheduleAt, "schedule-at", "", "RFC3339 instant to send at")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("body")
	return cmd
}

func newMessageListCmd() *cobra.Command {
	var (
		configPath string
		status     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			q := gormDB.Order("created_at DESC")
			if status != "" {
				q = q.Where("status = ?", status)
			}
			var msgs []models.Message
			if err := q.Find(&msgs).Error; err != nil {
				return fmt.Errorf("list messages: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(msgs) == 0 {
				fmt.Fprintln(out, "No messages")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tCHANNEL\tSTATUS\tSCHEDULED\tRECIPIENTS")
			for _, m := range msgs {
				scheduled := "-"
				if m.ScheduledAt != nil {
					scheduled = m.ScheduledAt.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
					m.ID, m.Title, m.Channel, m.Status, scheduled, m.Report.RecipientsCount)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "stationcall.yaml", "path to Stationcall config file")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (draft, scheduled, sent, failed)")
	return cmd
}

func newMessageSendCmd() *cobra.Command {
	var (
		configPath string
		actor      string
	)

	cmd := &cobra.Command{
		Use:   "send <message-id>",
		Short: "Send a message now",
		Long:  "Resolves the message's audience and dispatches it immediately, regardless of its schedule.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			orch := &dispatch.Orchestrator{DB: gormDB, Transport: transportFromConfig(cfg)}
			result, err := orch.Send(args[0], actor, "")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.AlreadySent {
				fmt.Fprintf(out, "Message %s was already dispatched (%d recipients)\n", args[0], result.RecipientsCount)
				return nil
			}
			fmt.Fprintf(out, "Sent message %s to %d recipients\n", args[0], result.RecipientsCount)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "stationcall.yaml", "path to Stationcall config file")
	cmd.Flags().StringVar(&actor, "actor", "operator", "audit actor for this send")
	return cmd
}
