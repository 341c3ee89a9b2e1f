package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/scoutpool/scoutpool/internal/api"
	"github.com/scoutpool/scoutpool/internal/printer"
	"github.com/scoutpool/scoutpool/internal/session"
)

var activitiesAll bool

var activitiesCmd = &cobra.Command{
	Use:   "activities",
	Short: "List upcoming activities",
	Long: `List upcoming activities for your children's scout levels.

Use --all to list every upcoming activity regardless of level (leaders).`,
	RunE: runActivities,
}

func init() {
	activitiesCmd.Flags().BoolVar(&activitiesAll, "all", false, "List activities for all scout levels")
	rootCmd.AddCommand(activitiesCmd)
}

func runActivities(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store := session.NewStore(client, logger)
	guard := session.NewGuard(store, session.RedirectorFunc(func(string) {}), logger)

	allowed := []string{"parent", "leader", "admin"}
	if activitiesAll {
		allowed = []string{"leader", "admin"}
	}
	if !guard.Require(ctx, allowed...) {
		return printer.Error("Not authorized", "Log in with an account that can view activities.")
	}

	var (
		activities []api.Activity
		err        error
	)
	if activitiesAll {
		activities, err = client.AllActivities(ctx)
	} else {
		activities, err = client.ActivitiesByRole(ctx)
	}
	if err != nil {
		return printer.Error("Could not fetch activities", err.Error())
	}

	if len(activities) == 0 {
		printer.Println("No upcoming activities.")
		return nil
	}

	for _, a := range activities {
		printer.Info("%-6d %-16s %-20s %s\n",
			a.ActivityID,
			a.DtStart.Format("2006-01-02 15:04"),
			a.Location,
			a.Summary)
	}
	return nil
}
