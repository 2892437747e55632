package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/alecgard/socialsync/internal/social"
	"github.com/alecgard/socialsync/internal/ui"
)

// Callback requests allowed per second, and the burst above that.
const (
	callbackRate  = 5
	callbackBurst = 10
)

// Deliverer receives callback messages. *Bridge implements it.
type Deliverer interface {
	Deliver(msg CallbackMessage) error
}

// CallbackServer is the loopback listener providers redirect to. Requests
// whose Host does not match the redirect origin are refused.
type CallbackServer struct {
	bridge Deliverer
	host   string
	router chi.Router
	logger *slog.Logger
	limit  *rate.Limiter
}

// NewCallbackServer creates a listener for redirects to redirectBase.
func NewCallbackServer(bridge Deliverer, redirectBase string) (*CallbackServer, error) {
	u, err := url.Parse(redirectBase)
	if err != nil {
		return nil, fmt.Errorf("parsing redirect base: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("redirect base %q has no host", redirectBase)
	}

	s := &CallbackServer{
		bridge: bridge,
		host:   u.Host,
		router: chi.NewRouter(),
		logger: slog.Default(),
		limit:  rate.NewLimiter(callbackRate, callbackBurst),
	}
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.sameOrigin)
	s.router.Use(s.throttle)
	s.router.Get("/oauth/callback/{platform}", s.handleCallback)
	return s, nil
}

// SetLogger replaces the listener's logger.
func (s *CallbackServer) SetLogger(l *slog.Logger) {
	s.logger = l
}

// SetRateLimit replaces the request throttle.
func (s *CallbackServer) SetRateLimit(r rate.Limit, burst int) {
	s.limit.SetLimit(r)
	s.limit.SetBurst(burst)
}

// Mount exposes an extra handler, such as /metrics, on the listener.
func (s *CallbackServer) Mount(pattern string, h http.Handler) {
	s.router.Handle(pattern, h)
}

// Handler returns the listener's router.
func (s *CallbackServer) Handler() http.Handler {
	return s.router
}

func (s *CallbackServer) sameOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Host != s.host {
			s.logger.Warn("ignoring request from another origin", "host", r.Host, "path", r.URL.Path)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *CallbackServer) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limit.Allow() {
			s.logger.Warn("throttling callback listener", "path", r.URL.Path)
			w.Header().Set("Retry-After", "1")
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	platform := social.Platform(chi.URLParam(r, "platform"))
	if !platform.Valid() {
		ui.RenderCallback(w, http.StatusNotFound, ui.CallbackPage{
			Title:   "Unknown platform",
			Message: fmt.Sprintf("%q is not a supported platform.", platform),
		})
		return
	}

	q := r.URL.Query()
	msg := CallbackMessage{
		Platform:         platform,
		State:            q.Get("state"),
		Code:             q.Get("code"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	}

	if err := s.bridge.Deliver(msg); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrUnknownState) {
			status = http.StatusBadRequest
		}
		ui.RenderCallback(w, status, ui.CallbackPage{
			Platform: string(platform),
			Title:    "Link expired",
			Message:  "This authorization is no longer pending. Start the connection again.",
		})
		return
	}

	page := ui.CallbackPage{
		Platform: string(platform),
		Success:  true,
		Title:    "Authorization received",
		Message:  "Finishing the connection in SocialSync.",
	}
	if msg.Error != "" {
		page.Success = false
		page.Title = "Authorization denied"
		page.Message = msg.Error
	}
	ui.RenderCallback(w, http.StatusOK, page)
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *CallbackServer) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener.
func (s *CallbackServer) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("callback listener starting", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
