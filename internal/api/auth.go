package api

import (
	"context"
	"net/http"
)

// LoginRequest is the request body for logging in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates against the backend. On success the session cookie is
// retained in the client's cookie jar.
func (c *Client) Login(ctx context.Context, email, password string) error {
	return c.post(ctx, "/api/login", LoginRequest{Email: email, Password: password}, nil)
}

// Register creates a new account. Registration does not log the user in;
// accounts must be accepted by an admin before first login.
func (c *Client) Register(ctx context.Context, email, password string) error {
	return c.post(ctx, "/api/register", LoginRequest{Email: email, Password: password}, nil)
}

// Logout invalidates the server session. The caller is responsible for
// clearing the local session store afterwards.
func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "/api/logout", nil, nil)
}

// CurrentUser fetches the authenticated user's identity and roles.
// Returns an *Error with status 401 when unauthenticated.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.get(ctx, "/api/protected/user", &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Authenticated reports whether the cookie jar currently holds a session
// cookie for the backend.
func (c *Client) Authenticated() bool {
	req, err := http.NewRequest(http.MethodGet, c.BaseURL+"/", nil)
	if err != nil {
		return false
	}
	for _, cookie := range c.HTTPClient.Jar.Cookies(req.URL) {
		if cookie.Name == sessionCookieName {
			return true
		}
	}
	return false
}
