package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// sessionCookieName is the HttpOnly cookie the backend issues on login.
const sessionCookieName = "jwt_token"

// storedSession is the on-disk shape of a persisted session cookie.
type storedSession struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Expires time.Time `json:"expires,omitempty"`
}

// SaveSession persists the current session cookie to the config dir so that
// separate invocations stay logged in.
func (c *Client) SaveSession() error {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return err
	}

	var session *storedSession
	for _, cookie := range c.HTTPClient.Jar.Cookies(base) {
		if cookie.Name == sessionCookieName {
			session = &storedSession{Name: cookie.Name, Value: cookie.Value, Expires: cookie.Expires}
			break
		}
	}
	if session == nil {
		// Nothing to save; treat a logged-out client as an empty session file.
		return os.RemoveAll(filepath.Join(c.ConfigDir, "session.json"))
	}

	if err := os.MkdirAll(c.ConfigDir, 0700); err != nil {
		return err
	}

	data, _ := json.MarshalIndent(session, "", "  ")
	return os.WriteFile(filepath.Join(c.ConfigDir, "session.json"), data, 0600)
}

// LoadSession restores a previously persisted session cookie into the
// cookie jar. A missing session file is not an error.
func (c *Client) LoadSession() error {
	data, err := os.ReadFile(filepath.Join(c.ConfigDir, "session.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var session storedSession
	if err := json.Unmarshal(data, &session); err != nil {
		return err
	}

	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return err
	}

	c.HTTPClient.Jar.SetCookies(base, []*http.Cookie{{
		Name:    session.Name,
		Value:   session.Value,
		Expires: session.Expires,
	}})
	return nil
}

// ClearSession removes the persisted session cookie and empties the jar's
// copy for the backend host.
func (c *Client) ClearSession() error {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return err
	}
	c.HTTPClient.Jar.SetCookies(base, []*http.Cookie{{
		Name:   sessionCookieName,
		Value:  "",
		MaxAge: -1,
	}})
	return os.RemoveAll(filepath.Join(c.ConfigDir, "session.json"))
}
