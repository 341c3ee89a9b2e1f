package api

import (
	"context"
	"fmt"
)

// AddCarRequest is the request body for registering a vehicle.
type AddCarRequest struct {
	RegNumber string `json:"reg_number"`
	FuelType  string `json:"fuel_type"`
	ModelName string `json:"model_name"`
}

// AddCar registers a vehicle for the authenticated user.
func (c *Client) AddCar(ctx context.Context, req AddCarRequest) error {
	return c.post(ctx, "/api/protected/add-car", req, nil)
}

// Cars returns the authenticated user's registered vehicles.
func (c *Client) Cars(ctx context.Context) ([]Car, error) {
	var resp struct {
		Cars []Car `json:"cars"`
	}
	if err := c.get(ctx, "/api/protected/get-cars", &resp); err != nil {
		return nil, err
	}
	return resp.Cars, nil
}

// DeleteCar removes one of the user's vehicles.
func (c *Client) DeleteCar(ctx context.Context, carID int64) error {
	return c.delete(ctx, fmt.Sprintf("/api/protected/delete-car/%d", carID), nil)
}
