package dataservice

import (
	"context"
	"fmt"
	"time"

	"github.com/alecgard/socialsync/internal/apiclient"
	"github.com/alecgard/socialsync/internal/social"
)

// Event types recorded for post changes.
const (
	EventPostCreated = "post_created"
	EventPostUpdated = "post_updated"
	EventPostDeleted = "post_deleted"
)

// localPosts returns the fallback store for a post operation when the
// backend is unreachable, or ErrBackendUnavailable.
func (s *Service) localPosts(ctx context.Context) (PostStore, bool, error) {
	if s.ensureInitialized(ctx) {
		return nil, false, nil
	}
	local := s.policy.LocalPosts()
	if local == nil {
		return nil, false, ErrBackendUnavailable
	}
	return local, true, nil
}

// fallbackOnNetwork returns the local store when the request never reached
// the backend and the policy allows falling back. It marks the backend
// unreachable. Malformed responses, cancellations and local throttling
// are returned to the caller instead.
func (s *Service) fallbackOnNetwork(op string, err error) (PostStore, bool) {
	local := s.policy.LocalPosts()
	if local == nil || !apiclient.IsUnreachable(err) {
		return nil, false
	}
	s.markUnreachable(op, err)
	return local, true
}

// Posts lists posts, optionally filtered by status.
func (s *Service) Posts(ctx context.Context, status social.PostStatus) ([]social.Post, error) {
	const op = "posts.list"
	local, offline, err := s.localPosts(ctx)
	if err != nil {
		return nil, err
	}
	if offline {
		s.fellBack(op)
		return filterStatus(local.Posts(), status), nil
	}

	posts, err := s.api.ListPosts(ctx, status)
	if err != nil {
		if local, ok := s.fallbackOnNetwork(op, err); ok {
			s.fellBack(op)
			return filterStatus(local.Posts(), status), nil
		}
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

// Drafts lists posts with status draft.
func (s *Service) Drafts(ctx context.Context) ([]social.Post, error) {
	return s.Posts(ctx, social.StatusDraft)
}

// Post returns one post.
func (s *Service) Post(ctx context.Context, id social.ID) (*social.Post, error) {
	const op = "posts.get"
	local, offline, err := s.localPosts(ctx)
	if err != nil {
		return nil, err
	}
	if offline {
		s.fellBack(op)
		return findPost(local.Posts(), id)
	}

	p, err := s.api.GetPost(ctx, id)
	if err != nil {
		if local, ok := s.fallbackOnNetwork(op, err); ok {
			s.fellBack(op)
			return findPost(local.Posts(), id)
		}
		if apiclient.IsNotFound(err) {
			return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting post: %w", err)
	}
	return p, nil
}

// SavePost validates p with the given status and creates it (empty id) or
// updates it. Saves of the same post are serialized.
func (s *Service) SavePost(ctx context.Context, p social.Post, status social.PostStatus) (*social.Post, error) {
	const op = "posts.save"
	if status != "" {
		p.Status = status
	}
	if p.Status == "" {
		p.Status = social.StatusDraft
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if !p.ID.IsZero() {
		unlock := s.locks.Lock("post:" + p.ID.String())
		defer unlock()
	}

	local, offline, err := s.localPosts(ctx)
	if err != nil {
		return nil, err
	}
	if offline {
		s.fellBack(op)
		return s.saveLocal(local, p)
	}

	var saved *social.Post
	created := p.ID.IsZero()
	if created {
		saved, err = s.api.CreatePost(ctx, &p)
	} else {
		saved, err = s.api.UpdatePost(ctx, p.ID, &p)
	}
	if err != nil {
		if local, ok := s.fallbackOnNetwork(op, err); ok {
			s.fellBack(op)
			return s.saveLocal(local, p)
		}
		return nil, fmt.Errorf("saving post: %w", err)
	}

	kind := EventPostUpdated
	if created {
		kind = EventPostCreated
	}
	s.record(kind, saved)
	return saved, nil
}

// saveLocal writes p to the fallback store. Local changes are never sent
// upstream, so no analytics event is recorded for them.
func (s *Service) saveLocal(local PostStore, p social.Post) (*social.Post, error) {
	stamp := s.now().UTC().Format(time.RFC3339)
	if p.ID.IsZero() {
		p.ID = s.ids.Next()
	}
	if p.CreatedAt == "" {
		p.CreatedAt = stamp
	}

	err := local.UpdatePosts(func(posts []social.Post) ([]social.Post, error) {
		for i := range posts {
			if posts[i].ID == p.ID {
				p.UpdatedAt = stamp
				posts[i] = p
				return posts, nil
			}
		}
		return append(posts, p), nil
	})
	if err != nil {
		return nil, fmt.Errorf("saving post locally: %w", err)
	}
	return &p, nil
}

// DeletePost removes a post.
func (s *Service) DeletePost(ctx context.Context, id social.ID) error {
	const op = "posts.delete"
	unlock := s.locks.Lock("post:" + id.String())
	defer unlock()

	local, offline, err := s.localPosts(ctx)
	if err != nil {
		return err
	}
	if offline {
		s.fellBack(op)
		return s.deleteLocal(local, id)
	}

	if err := s.api.DeletePost(ctx, id); err != nil {
		if local, ok := s.fallbackOnNetwork(op, err); ok {
			s.fellBack(op)
			return s.deleteLocal(local, id)
		}
		if apiclient.IsNotFound(err) {
			return fmt.Errorf("post %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("deleting post: %w", err)
	}
	s.record(EventPostDeleted, &social.Post{ID: id})
	return nil
}

func (s *Service) deleteLocal(local PostStore, id social.ID) error {
	err := local.UpdatePosts(func(posts []social.Post) ([]social.Post, error) {
		kept := posts[:0]
		for _, p := range posts {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		return kept, nil
	})
	if err != nil {
		return fmt.Errorf("deleting post locally: %w", err)
	}
	return nil
}

// CalendarPosts lists posts scheduled in the given month.
func (s *Service) CalendarPosts(ctx context.Context, year int, month time.Month) ([]social.Post, error) {
	const op = "posts.calendar"
	local, offline, err := s.localPosts(ctx)
	if err != nil {
		return nil, err
	}
	if offline {
		s.fellBack(op)
		return filterMonth(local.Posts(), year, month), nil
	}

	posts, err := s.api.CalendarPosts(ctx, year, month)
	if err != nil {
		if local, ok := s.fallbackOnNetwork(op, err); ok {
			s.fellBack(op)
			return filterMonth(local.Posts(), year, month), nil
		}
		return nil, fmt.Errorf("listing calendar posts: %w", err)
	}
	return posts, nil
}

func (s *Service) record(kind string, p *social.Post) {
	if s.recorder == nil || p == nil {
		return
	}
	s.recorder.Record(social.AnalyticsEvent{
		Type:      kind,
		PostID:    p.ID,
		Platforms: p.Platforms,
		Timestamp: s.now().UTC(),
	})
}

func filterStatus(posts []social.Post, status social.PostStatus) []social.Post {
	out := make([]social.Post, 0, len(posts))
	for _, p := range posts {
		if status == "" || p.Status == status {
			out = append(out, p)
		}
	}
	return out
}

func filterMonth(posts []social.Post, year int, month time.Month) []social.Post {
	out := make([]social.Post, 0)
	for _, p := range posts {
		if p.InMonth(year, month) {
			out = append(out, p)
		}
	}
	return out
}

func findPost(posts []social.Post, id social.ID) (*social.Post, error) {
	for i := range posts {
		if posts[i].ID == id {
			return &posts[i], nil
		}
	}
	return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
}
