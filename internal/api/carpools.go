package api

import (
	"context"
	"fmt"
)

// CreateCarpoolRequest is the request body for creating a carpool.
type CreateCarpoolRequest struct {
	CarID             int64  `json:"car_id"`
	ActivityID        int64  `json:"activity_id"`
	AvailableSeats    int    `json:"available_seats"`
	DepartureAddress  string `json:"departure_address"`
	DeparturePostcode string `json:"departure_postcode"`
	DepartureCity     string `json:"departure_city"`
	CarpoolType       string `json:"carpool_type"`
}

// CreateCarpool registers a new carpool for an activity. The authenticated
// user becomes the driver.
func (c *Client) CreateCarpool(ctx context.Context, req CreateCarpoolRequest) error {
	return c.post(ctx, "/api/carpool/create", req, nil)
}

// ListCarpools returns all carpools for one activity, including each
// carpool's passenger list.
func (c *Client) ListCarpools(ctx context.Context, activityID int64) ([]Carpool, error) {
	var resp struct {
		Carpools []Carpool `json:"carpools"`
	}
	if err := c.get(ctx, fmt.Sprintf("/api/carpool/list?activity_id=%d", activityID), &resp); err != nil {
		return nil, err
	}
	return resp.Carpools, nil
}

// AddPassengerRequest is the request body for joining a carpool. Exactly one
// of ChildID or AddSelf should be set.
type AddPassengerRequest struct {
	CarpoolID int64 `json:"carpool_id"`
	ChildID   int64 `json:"child_id,omitempty"`
	AddSelf   bool  `json:"add_self,omitempty"`
}

// AddPassenger adds a child (or the user themselves) to a carpool's
// passenger list, consuming one seat.
func (c *Client) AddPassenger(ctx context.Context, req AddPassengerRequest) error {
	return c.post(ctx, "/api/carpool/add-passenger", req, nil)
}

// RemovePassengerRequest is the request body for leaving a carpool.
type RemovePassengerRequest struct {
	CarpoolID int64 `json:"carpool_id"`
	ChildID   int64 `json:"child_id,omitempty"`
	UserID    int64 `json:"user_id,omitempty"`
}

// RemovePassenger removes a passenger from a carpool, freeing the seat.
func (c *Client) RemovePassenger(ctx context.Context, req RemovePassengerRequest) error {
	return c.delete(ctx, "/api/carpool/remove-passenger", req)
}

// Passengers returns the passenger list for one carpool.
func (c *Client) Passengers(ctx context.Context, carpoolID int64) ([]Passenger, error) {
	var resp struct {
		Passengers []Passenger `json:"passengers"`
	}
	if err := c.get(ctx, fmt.Sprintf("/api/carpool/%d/passengers", carpoolID), &resp); err != nil {
		return nil, err
	}
	return resp.Passengers, nil
}

// DeleteCarpool removes a carpool. Only the driver may delete it.
func (c *Client) DeleteCarpool(ctx context.Context, carpoolID int64) error {
	return c.delete(ctx, fmt.Sprintf("/api/carpool/%d/delete", carpoolID), nil)
}
