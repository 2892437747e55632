package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alecgard/socialsync/internal/social"
)

// ListPosts returns all posts, optionally filtered by status.
func (c *Client) ListPosts(ctx context.Context, status social.PostStatus) ([]social.Post, error) {
	cl := call{method: http.MethodGet, route: routePosts}
	if status != "" {
		cl.query = url.Values{"status": {string(status)}}
	}
	var env postsEnvelope
	if err := c.do(ctx, cl, &env); err != nil {
		return nil, err
	}
	return nonNil(env.Posts), nil
}

func (c *Client) GetPost(ctx context.Context, id social.ID) (*social.Post, error) {
	var env postEnvelope
	cl := call{method: http.MethodGet, route: routePost, vars: map[string]string{"id": id.String()}}
	if err := c.do(ctx, cl, &env); err != nil {
		return nil, err
	}
	return env.Post, nil
}

func (c *Client) CreatePost(ctx context.Context, p *social.Post) (*social.Post, error) {
	var env postEnvelope
	if err := c.do(ctx, call{method: http.MethodPost, route: routePosts, body: p}, &env); err != nil {
		return nil, err
	}
	return env.Post, nil
}

func (c *Client) UpdatePost(ctx context.Context, id social.ID, p *social.Post) (*social.Post, error) {
	var env postEnvelope
	cl := call{method: http.MethodPut, route: routePost, vars: map[string]string{"id": id.String()}, body: p}
	if err := c.do(ctx, cl, &env); err != nil {
		return nil, err
	}
	return env.Post, nil
}

func (c *Client) DeletePost(ctx context.Context, id social.ID) error {
	return c.do(ctx, call{method: http.MethodDelete, route: routePost, vars: map[string]string{"id": id.String()}}, nil)
}

// CalendarPosts returns the posts scheduled in the given month.
func (c *Client) CalendarPosts(ctx context.Context, year int, month time.Month) ([]social.Post, error) {
	cl := call{
		method: http.MethodGet,
		route:  routeCalendar,
		vars: map[string]string{
			"year":  strconv.Itoa(year),
			"month": strconv.Itoa(int(month)),
		},
	}
	var env postsEnvelope
	if err := c.do(ctx, cl, &env); err != nil {
		return nil, err
	}
	return nonNil(env.Posts), nil
}
