package api

import "context"

// activitiesResponse wraps the events list both activity endpoints return.
type activitiesResponse struct {
	Events []Activity `json:"events"`
}

// ActivitiesByRole returns upcoming activities matching the roles of the
// user's registered children.
func (c *Client) ActivitiesByRole(ctx context.Context) ([]Activity, error) {
	var resp activitiesResponse
	if err := c.get(ctx, "/api/protected/activity/by_role", &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// AllActivities returns every upcoming activity regardless of role.
func (c *Client) AllActivities(ctx context.Context) ([]Activity, error) {
	var resp activitiesResponse
	if err := c.get(ctx, "/api/protected/activity/all", &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}
