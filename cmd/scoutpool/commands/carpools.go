package commands

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/scoutpool/scoutpool/internal/api"
	"github.com/scoutpool/scoutpool/internal/printer"
	"github.com/scoutpool/scoutpool/internal/session"
)

var (
	createCarID     int64
	createSeats     int
	createAddress   string
	createPostcode  string
	createCity      string
	createType      string
	joinChildID     int64
	joinSelf        bool
	leaveChildID    int64
	leaveUserID     int64
)

var carpoolsCmd = &cobra.Command{
	Use:   "carpools",
	Short: "Manage carpools for an activity",
}

var carpoolsListCmd = &cobra.Command{
	Use:   "list <activity-id>",
	Short: "List carpools for an activity",
	Args:  cobra.ExactArgs(1),
	RunE:  runCarpoolsList,
}

var carpoolsCreateCmd = &cobra.Command{
	Use:   "create <activity-id>",
	Short: "Offer a carpool for an activity",
	Args:  cobra.ExactArgs(1),
	RunE:  runCarpoolsCreate,
}

var carpoolsJoinCmd = &cobra.Command{
	Use:   "join <carpool-id>",
	Short: "Add a passenger to a carpool",
	Args:  cobra.ExactArgs(1),
	RunE:  runCarpoolsJoin,
}

var carpoolsLeaveCmd = &cobra.Command{
	Use:   "leave <carpool-id>",
	Short: "Remove a passenger from a carpool",
	Args:  cobra.ExactArgs(1),
	RunE:  runCarpoolsLeave,
}

var carpoolsPassengersCmd = &cobra.Command{
	Use:   "passengers <carpool-id>",
	Short: "Show a carpool's passenger list",
	Args:  cobra.ExactArgs(1),
	RunE:  runCarpoolsPassengers,
}

func init() {
	carpoolsCreateCmd.Flags().Int64Var(&createCarID, "car", 0, "Car id to drive with")
	carpoolsCreateCmd.Flags().IntVar(&createSeats, "seats", 0, "Available seats")
	carpoolsCreateCmd.Flags().StringVar(&createAddress, "from", "", "Departure address")
	carpoolsCreateCmd.Flags().StringVar(&createPostcode, "postcode", "", "Departure postcode")
	carpoolsCreateCmd.Flags().StringVar(&createCity, "city", "", "Departure city")
	carpoolsCreateCmd.Flags().StringVar(&createType, "type", "drop-off", "Carpool type (drop-off or pick-up)")

	carpoolsJoinCmd.Flags().Int64Var(&joinChildID, "child", 0, "Child id to add as passenger")
	carpoolsJoinCmd.Flags().BoolVar(&joinSelf, "self", false, "Add yourself as passenger")

	carpoolsLeaveCmd.Flags().Int64Var(&leaveChildID, "child", 0, "Child id to remove")
	carpoolsLeaveCmd.Flags().Int64Var(&leaveUserID, "user", 0, "User id to remove")

	carpoolsCmd.AddCommand(carpoolsListCmd)
	carpoolsCmd.AddCommand(carpoolsCreateCmd)
	carpoolsCmd.AddCommand(carpoolsJoinCmd)
	carpoolsCmd.AddCommand(carpoolsLeaveCmd)
	carpoolsCmd.AddCommand(carpoolsPassengersCmd)
	rootCmd.AddCommand(carpoolsCmd)
}

func requireParent(ctx context.Context) bool {
	store := session.NewStore(client, logger)
	guard := session.NewGuard(store, session.RedirectorFunc(func(string) {}), logger)
	return guard.Require(ctx, "parent", "leader", "admin")
}

func runCarpoolsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	activityID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return printer.Error("Invalid activity id", args[0])
	}
	if !requireParent(ctx) {
		return printer.Error("Not authorized", "Log in first.")
	}

	carpools, err := client.ListCarpools(ctx, activityID)
	if err != nil {
		return printer.Error("Could not fetch carpools", err.Error())
	}
	if len(carpools) == 0 {
		printer.Println("No carpools for this activity yet.")
		return nil
	}

	for _, cp := range carpools {
		printer.Info("%-6d %-10s %d seats  %s, %s (%s)\n",
			cp.ID, cp.CarpoolType, cp.AvailableSeats,
			cp.DepartureAddress, cp.DepartureCity, cp.CarModelName)
	}
	return nil
}

func runCarpoolsCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	activityID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return printer.Error("Invalid activity id", args[0])
	}
	if !requireParent(ctx) {
		return printer.Error("Not authorized", "Log in first.")
	}
	if createCarID == 0 || createSeats == 0 || createAddress == "" || createCity == "" || createPostcode == "" {
		return printer.Error("Missing fields", "car, seats, from, postcode and city are all required.")
	}

	err = client.CreateCarpool(ctx, api.CreateCarpoolRequest{
		CarID:             createCarID,
		ActivityID:        activityID,
		AvailableSeats:    createSeats,
		DepartureAddress:  createAddress,
		DeparturePostcode: createPostcode,
		DepartureCity:     createCity,
		CarpoolType:       createType,
	})
	if err != nil {
		return printer.Error("Could not create carpool", err.Error())
	}
	printer.Success("Carpool created\n")
	return nil
}

func runCarpoolsJoin(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	carpoolID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return printer.Error("Invalid carpool id", args[0])
	}
	if !requireParent(ctx) {
		return printer.Error("Not authorized", "Log in first.")
	}

	childID := joinChildID
	if childID == 0 && !joinSelf {
		// Resolve which child rides along, the same way the dashboard does:
		// a single eligible child is picked automatically, several require
		// an explicit choice.
		check, err := client.CheckChildrenForCarpool(ctx, carpoolID)
		if err != nil {
			return printer.Error("No eligible child for this carpool", err.Error())
		}
		if check.Multiple {
			printer.Println("Several of your children match this carpool's level:")
			for _, child := range check.Children {
				printer.Info("  %-6d %s\n", child.ChildID, child.Name)
			}
			return printer.Error("Child is ambiguous", "Re-run with --child <id>.")
		}
		childID = check.ChildID
	}

	err = client.AddPassenger(ctx, api.AddPassengerRequest{
		CarpoolID: carpoolID,
		ChildID:   childID,
		AddSelf:   joinSelf,
	})
	if err != nil {
		return printer.Error("Could not join carpool", err.Error())
	}
	printer.Success("Passenger added\n")
	return nil
}

func runCarpoolsLeave(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	carpoolID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return printer.Error("Invalid carpool id", args[0])
	}
	if !requireParent(ctx) {
		return printer.Error("Not authorized", "Log in first.")
	}

	err = client.RemovePassenger(ctx, api.RemovePassengerRequest{
		CarpoolID: carpoolID,
		ChildID:   leaveChildID,
		UserID:    leaveUserID,
	})
	if err != nil {
		return printer.Error("Could not leave carpool", err.Error())
	}
	printer.Success("Passenger removed\n")
	return nil
}

func runCarpoolsPassengers(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	carpoolID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return printer.Error("Invalid carpool id", args[0])
	}
	if !requireParent(ctx) {
		return printer.Error("Not authorized", "Log in first.")
	}

	passengers, err := client.Passengers(ctx, carpoolID)
	if err != nil {
		return printer.Error("Could not fetch passengers", err.Error())
	}
	if len(passengers) == 0 {
		printer.Println("No passengers yet.")
		return nil
	}

	for _, p := range passengers {
		printer.Info("%-8s %s", p.Type, p.Name)
		for _, parent := range p.Parents {
			printer.Info("  (parent: %s)", parent.ParentName)
		}
		printer.Info("\n")
	}
	return nil
}
