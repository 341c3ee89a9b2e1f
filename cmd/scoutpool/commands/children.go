package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/scoutpool/scoutpool/internal/api"
	"github.com/scoutpool/scoutpool/internal/printer"
)

var (
	addChildMembership string
	addChildFirstName  string
	addChildLastName   string
	addChildPhone      string
	addChildRole       string
)

var childrenCmd = &cobra.Command{
	Use:   "children",
	Short: "Manage your registered children",
}

var childrenAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a child",
	RunE:  runChildrenAdd,
}

func init() {
	childrenAddCmd.Flags().StringVar(&addChildMembership, "membership", "", "Scout membership number")
	childrenAddCmd.Flags().StringVar(&addChildFirstName, "first-name", "", "First name")
	childrenAddCmd.Flags().StringVar(&addChildLastName, "last-name", "", "Last name")
	childrenAddCmd.Flags().StringVar(&addChildPhone, "phone", "", "Phone number")
	childrenAddCmd.Flags().StringVar(&addChildRole, "level", "kutar", "Scout level")

	childrenCmd.AddCommand(childrenAddCmd)
	rootCmd.AddCommand(childrenCmd)
}

func runChildrenAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if !requireParent(ctx) {
		return printer.Error("Not authorized", "Log in first.")
	}
	if addChildMembership == "" || addChildFirstName == "" || addChildLastName == "" {
		return printer.Error("Missing fields", "membership, first-name and last-name are all required.")
	}

	err := client.AddChild(ctx, api.AddChildRequest{
		MembershipNumber: addChildMembership,
		FirstName:        addChildFirstName,
		LastName:         addChildLastName,
		Phone:            addChildPhone,
		Role:             addChildRole,
	})
	if err != nil {
		return printer.Error("Could not add child", err.Error())
	}
	printer.Success("Child added\n")
	return nil
}
