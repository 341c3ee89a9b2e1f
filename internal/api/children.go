package api

import (
	"context"
	"fmt"
)

// AddChildRequest is the request body for registering a child.
type AddChildRequest struct {
	MembershipNumber string `json:"membership_number"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Phone            string `json:"phone,omitempty"`
	Role             string `json:"role"`
}

// AddChild registers a child under the authenticated parent.
func (c *Client) AddChild(ctx context.Context, req AddChildRequest) error {
	return c.post(ctx, "/api/protected/add-child", req, nil)
}

// ChildOption is one selectable child in a carpool's eligibility check.
type ChildOption struct {
	ChildID int64  `json:"child_id"`
	Name    string `json:"name"`
}

// ChildCheck is the result of the same-role-children eligibility check for
// one carpool. When Multiple is false ChildID identifies the single eligible
// child; when true the caller must pick one of Children.
type ChildCheck struct {
	Multiple bool          `json:"multiple"`
	ChildID  int64         `json:"child_id,omitempty"`
	Children []ChildOption `json:"children,omitempty"`
}

// CheckChildrenForCarpool resolves which of the parent's children are
// eligible for a carpool's activity level. A 404 means no eligible child.
func (c *Client) CheckChildrenForCarpool(ctx context.Context, carpoolID int64) (*ChildCheck, error) {
	var check ChildCheck
	if err := c.get(ctx, fmt.Sprintf("/api/carpool/check-multiple-children?carpool_id=%d", carpoolID), &check); err != nil {
		return nil, err
	}
	return &check, nil
}
