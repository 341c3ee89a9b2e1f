package commands

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scoutpool/scoutpool/internal/chat"
	"github.com/scoutpool/scoutpool/internal/printer"
	"github.com/scoutpool/scoutpool/internal/realtime"
	"github.com/scoutpool/scoutpool/internal/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat <carpool-id>",
	Short: "Open a carpool's live chat",
	Long: `Open the live chat transcript for one carpool.

The last 10 messages are shown; type /more to reveal older ones, /quit to
leave. Anything else is sent as a message. Messages appear when the server
echoes them back, not on send.`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func renderTranscript(msgs []chat.Entry) {
	for _, e := range msgs {
		if e.NewDay {
			printer.DateSeparator(e.Message.Timestamp.Local().Format("Mon 2 Jan 2006"))
		}
		printer.ChatLine(
			e.Message.Timestamp.Local().Format("15:04"),
			e.Message.SenderName,
			e.Message.Content,
		)
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	carpoolID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return printer.Error("Invalid carpool id", args[0])
	}

	store := session.NewStore(client, logger)
	guard := session.NewGuard(store, session.RedirectorFunc(func(string) {}), logger)
	if !guard.Require(ctx, "parent", "leader", "admin") {
		return printer.Error("Not authorized", "Log in first.")
	}

	rt, err := realtime.Dial(ctx, cfg.WSURL, logger)
	if err != nil {
		return printer.Error("Could not reach the realtime gateway", err.Error())
	}
	defer rt.Close()

	channel := chat.NewChannel(client, rt, store.UserID(), store.FullName(), logger)
	if err := channel.Open(ctx, carpoolID); err != nil {
		return printer.Error("Could not open chat", err.Error())
	}
	defer channel.Close()

	renderTranscript(chat.Transcript(channel.Visible()))
	if channel.HasMore() {
		printer.Info("(type /more for older messages)\n")
	}

	// Live echo printer.
	go func() {
		for msg := range channel.Updates() {
			printer.ChatLine(
				msg.Timestamp.Local().Format("15:04"),
				msg.SenderName,
				msg.Content,
			)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit":
			return nil
		case "/more":
			revealed := channel.ShowMore()
			if revealed == 0 {
				printer.Println("No older messages.")
				continue
			}
			renderTranscript(chat.Transcript(channel.Visible()))
		default:
			if err := channel.Send(line); err != nil {
				printer.Warning("not sent: %v\n", err)
			}
		}
	}
	return scanner.Err()
}
