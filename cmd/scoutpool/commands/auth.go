package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scoutpool/scoutpool/internal/printer"
	"github.com/scoutpool/scoutpool/internal/session"
)

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Log in to the carpool service",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and clear the saved session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the authenticated user and roles",
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	email := args[0]

	fmt.Print("Password: ")
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	password = strings.TrimRight(password, "\r\n")

	if err := client.Login(ctx, email, password); err != nil {
		return printer.Error("Login failed", err.Error())
	}
	if err := client.SaveSession(); err != nil {
		printer.Warning("session not persisted: %v\n", err)
	}

	printer.Success("Logged in as %s\n", email)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Server-side invalidation first, then the local session is cleared
	// wholesale regardless of the outcome.
	if err := client.Logout(ctx); err != nil {
		logger.Warn().Err(err).Msg("server logout failed")
	}
	if err := client.ClearSession(); err != nil {
		return printer.Error("Could not clear local session", err.Error())
	}

	printer.Success("Logged out\n")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store := session.NewStore(client, logger)
	store.Initialize(ctx)

	if store.UserID() == 0 {
		printer.Println("Not logged in.")
		return nil
	}

	printer.Info("%s (id %d)\n", store.FullName(), store.UserID())
	printer.Info("Roles: %s\n", strings.Join(store.Roles(), ", "))
	return nil
}
