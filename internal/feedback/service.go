package feedback

import (
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/ashureev/peakchat/internal/domain"
)

// ErrNotFinalized is returned for a session that has not ended yet.
var ErrNotFinalized = errors.New("session is not finalized")

// Scorer produces feedback for a finalized session.
type Scorer interface {
	Generate(ctx context.Context, s *domain.Session) domain.FeedbackResult
}

// Service memoises feedback per session ID so each finalized session is
// scored at most once while its entry lives.
type Service struct {
	scorer Scorer
	cache  *cache.Cache
	group  singleflight.Group
}

// NewService creates a Service whose entries expire after ttl.
func NewService(scorer Scorer, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		scorer: scorer,
		cache:  cache.New(ttl, ttl/2),
	}
}

// Feedback returns the feedback for s, generating it on first request.
// Concurrent requests for the same session share one generation.
func (s *Service) Feedback(ctx context.Context, sess *domain.Session) (domain.FeedbackResult, error) {
	if sess == nil || !sess.Finalized() {
		return domain.FeedbackResult{}, ErrNotFinalized
	}
	if cached, ok := s.cache.Get(sess.ID); ok {
		return cached.(domain.FeedbackResult), nil
	}

	v, _, _ := s.group.Do(sess.ID, func() (any, error) {
		if cached, ok := s.cache.Get(sess.ID); ok {
			return cached, nil
		}
		result := s.scorer.Generate(context.WithoutCancel(ctx), sess)
		s.cache.SetDefault(sess.ID, result)
		return result, nil
	})
	return v.(domain.FeedbackResult), nil
}

// Forget drops the memoised feedback for a session.
func (s *Service) Forget(sessionID string) {
	s.cache.Delete(sessionID)
}
