package dataservice

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/alecgard/socialsync/internal/social"
)

// DashboardStats are the headline counts shown on the dashboard.
type DashboardStats struct {
	TotalPosts     int `json:"totalPosts"`
	ScheduledPosts int `json:"scheduledPosts"`
	PublishedPosts int `json:"publishedPosts"`
	DraftPosts     int `json:"draftPosts"`
}

// Dashboard is the dashboard's data: all posts, drafts and derived counts.
type Dashboard struct {
	Posts  []social.Post  `json:"posts"`
	Drafts []social.Post  `json:"drafts"`
	Stats  DashboardStats `json:"stats"`
}

// Dashboard loads posts and drafts concurrently.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		posts, err := s.Posts(gctx, "")
		d.Posts = posts
		return err
	})
	g.Go(func() error {
		drafts, err := s.Drafts(gctx)
		d.Drafts = drafts
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.Stats = computeStats(d.Posts, d.Drafts)
	return &d, nil
}

func computeStats(posts, drafts []social.Post) DashboardStats {
	st := DashboardStats{TotalPosts: len(posts), DraftPosts: len(drafts)}
	for _, p := range posts {
		switch p.Status {
		case social.StatusScheduled:
			st.ScheduledPosts++
		case social.StatusPublished:
			st.PublishedPosts++
		}
	}
	return st
}
