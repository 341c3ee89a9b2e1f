package commands

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/scoutpool/scoutpool/internal/api"
	"github.com/scoutpool/scoutpool/internal/notify"
	"github.com/scoutpool/scoutpool/internal/printer"
	"github.com/scoutpool/scoutpool/internal/realtime"
	"github.com/scoutpool/scoutpool/internal/session"
)

var (
	markAllRead bool
	watchFeed   bool
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Show your notifications",
	Long: `Show your notification history and unread count.

Use --read to mark every unread notification as read, or --watch to stay
connected and print notifications as they arrive (Ctrl+C to stop).`,
	RunE: runNotifications,
}

func init() {
	notificationsCmd.Flags().BoolVar(&markAllRead, "read", false, "Mark all notifications as read")
	notificationsCmd.Flags().BoolVar(&watchFeed, "watch", false, "Stay connected and print live notifications")
	rootCmd.AddCommand(notificationsCmd)
}

func printNotification(n api.Notification) {
	marker := " "
	if !n.IsRead {
		marker = "*"
	}
	printer.Info("%s %-6d %s\n", marker, n.ID, n.Message)
}

func runNotifications(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store := session.NewStore(client, logger)
	store.Initialize(ctx)
	if store.UserID() == 0 {
		return printer.Error("Not logged in", "Run scoutpool login first.")
	}

	rt, err := realtime.Dial(ctx, cfg.WSURL, logger)
	if err != nil {
		return printer.Error("Could not reach the realtime gateway", err.Error())
	}
	defer rt.Close()

	feed := notify.New(client, rt, logger)
	feed.Open(ctx, store.UserID())
	defer feed.Close()

	notifications := feed.Notifications()
	if len(notifications) == 0 {
		printer.Println("No notifications.")
	}
	for _, n := range notifications {
		printNotification(n)
	}
	printer.Info("\n%d unread\n", feed.UnreadCount())

	if markAllRead {
		if err := feed.MarkAllAsRead(ctx); err != nil {
			return printer.Error("Could not mark notifications read", err.Error())
		}
		printer.Success("All notifications marked read\n")
	}

	if !watchFeed {
		return nil
	}

	printer.Println("Watching for notifications, Ctrl+C to stop...")
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	for {
		select {
		case n := <-feed.Updates():
			printNotification(n)
		case <-interrupt:
			return nil
		}
	}
}
