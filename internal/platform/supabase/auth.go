package supabase

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// GoTrue admin helpers. They require the privileged client.

const authPrefix = "/auth/v1"

// User is the subset of a GoTrue user record this service consumes.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	AppMetadata  map[string]any `json:"app_metadata"`
}

type userList struct {
	Users []User `json:"users"`
}

// AdminGetUser fetches one user by id.
func (c *Client) AdminGetUser(ctx context.Context, id string) (User, error) {
	var u User
	err := c.do(ctx, request{method: http.MethodGet, path: authPrefix + "/admin/users/" + url.PathEscape(id)}, &u)
	return u, err
}

// AdminListUsers returns one page of users. Pages are 1-based.
func (c *Client) AdminListUsers(ctx context.Context, page, perPage int) ([]User, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	var out userList
	if err := c.do(ctx, request{method: http.MethodGet, path: authPrefix + "/admin/users", query: q}, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// InviteUserByEmail creates a user and sends an invite whose link lands on redirectTo.
func (c *Client) InviteUserByEmail(ctx context.Context, email string, data map[string]any, redirectTo string) (User, error) {
	var q url.Values
	if redirectTo != "" {
		q = url.Values{}
		q.Set("redirect_to", redirectTo)
	}
	body := map[string]any{"email": email, "data": data}
	var u User
	err := c.do(ctx, request{method: http.MethodPost, path: authPrefix + "/invite", query: q, body: body}, &u)
	return u, err
}

// AdminDeleteUser permanently deletes a user.
func (c *Client) AdminDeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: authPrefix + "/admin/users/" + url.PathEscape(id)}, nil)
}
