package supabase

import (
	"context"
	"net/http"
	"net/url"
)

// PostgREST helpers. Filters use PostgREST syntax, e.g. query.Set("organization_id", "eq.org1").

const restPrefix = "/rest/v1/"

// Select reads rows from table into out (a pointer to a slice).
func (c *Client) Select(ctx context.Context, table string, query url.Values, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: restPrefix + table, query: query}, out)
}

// Insert writes row into table and decodes the inserted representation into out.
func (c *Client) Insert(ctx context.Context, table string, row any, out any) error {
	h := http.Header{}
	h.Set("Prefer", "return=representation")
	return c.do(ctx, request{method: http.MethodPost, path: restPrefix + table, headers: h, body: row}, out)
}

// Delete removes matching rows and decodes the deleted representation into out.
func (c *Client) Delete(ctx context.Context, table string, query url.Values, out any) error {
	h := http.Header{}
	h.Set("Prefer", "return=representation")
	return c.do(ctx, request{method: http.MethodDelete, path: restPrefix + table, query: query, headers: h}, out)
}

// Eq renders a PostgREST equality filter value.
func Eq(v string) string { return "eq." + v }

// ILike renders a case-insensitive PostgREST pattern filter value.
func ILike(v string) string { return "ilike." + v }
