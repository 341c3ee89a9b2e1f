package commands

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/scoutpool/scoutpool/internal/api"
	"github.com/scoutpool/scoutpool/internal/printer"
)

var (
	addCarReg   string
	addCarFuel  string
	addCarModel string
)

var carsCmd = &cobra.Command{
	Use:   "cars",
	Short: "Manage your registered vehicles",
}

var carsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your vehicles",
	RunE:  runCarsList,
}

var carsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a vehicle",
	RunE:  runCarsAdd,
}

var carsRemoveCmd = &cobra.Command{
	Use:   "remove <car-id>",
	Short: "Remove a vehicle",
	Args:  cobra.ExactArgs(1),
	RunE:  runCarsRemove,
}

func init() {
	carsAddCmd.Flags().StringVar(&addCarReg, "reg", "", "Registration number")
	carsAddCmd.Flags().StringVar(&addCarFuel, "fuel", "", "Fuel type")
	carsAddCmd.Flags().StringVar(&addCarModel, "model", "", "Model name")

	carsCmd.AddCommand(carsListCmd)
	carsCmd.AddCommand(carsAddCmd)
	carsCmd.AddCommand(carsRemoveCmd)
	rootCmd.AddCommand(carsCmd)
}

func runCarsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if !requireParent(ctx) {
		return printer.Error("Not authorized", "Log in first.")
	}

	cars, err := client.Cars(ctx)
	if err != nil {
		return printer.Error("Could not fetch cars", err.Error())
	}
	if len(cars) == 0 {
		printer.Println("No cars registered.")
		return nil
	}

	for _, car := range cars {
		printer.Info("%-6d %-10s %-10s %s\n", car.CarID, car.RegNumber, car.FuelType, car.ModelName)
	}
	return nil
}

func runCarsAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if !requireParent(ctx) {
		return printer.Error("Not authorized", "Log in first.")
	}
	if addCarReg == "" || addCarFuel == "" || addCarModel == "" {
		return printer.Error("Missing fields", "reg, fuel and model are all required.")
	}

	err := client.AddCar(ctx, api.AddCarRequest{
		RegNumber: addCarReg,
		FuelType:  addCarFuel,
		ModelName: addCarModel,
	})
	if err != nil {
		return printer.Error("Could not add car", err.Error())
	}
	printer.Success("Car added\n")
	return nil
}

func runCarsRemove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	carID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return printer.Error("Invalid car id", args[0])
	}
	if !requireParent(ctx) {
		return printer.Error("Not authorized", "Log in first.")
	}

	if err := client.DeleteCar(ctx, carID); err != nil {
		return printer.Error("Could not remove car", err.Error())
	}
	printer.Success("Car removed\n")
	return nil
}
