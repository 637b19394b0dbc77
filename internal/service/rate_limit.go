package service

import (
	"context"
	"time"

	"order_chat/internal/repository"
	"order_chat/pkg/logger"
)

type RateLimitService interface {
	// Allow counts one hit for key and reports whether it is within limit
	// for the current window. A store failure is logged and the hit is
	// allowed.
	Allow(ctx context.Context, key string) (allowed bool, remaining int)
	Limit() int
}

type rateLimitService struct {
	rateLimitRepo repository.RateLimitRepository
	limit         int
	window        time.Duration
	log           logger.Logger
}

func NewRateLimitService(rateLimitRepo repository.RateLimitRepository, limit int, window time.Duration, log logger.Logger) RateLimitService {
	return &rateLimitService{
		rateLimitRepo: rateLimitRepo,
		limit:         limit,
		window:        window,
		log:           log,
	}
}

func (s *rateLimitService) Limit() int {
	return s.limit
}

func (s *rateLimitService) Allow(ctx context.Context, key string) (bool, int) {
	allowed, err := s.rateLimitRepo.CheckLimit(ctx, key, s.limit)
	if err != nil {
		s.log.Error("Rate limit check failed", "error", err, "key", key)
		return true, s.limit
	}
	if !allowed {
		return false, 0
	}

	count, err := s.rateLimitRepo.Increment(ctx, key, s.window)
	if err != nil {
		s.log.Error("Rate limit increment failed", "error", err, "key", key)
		return true, s.limit
	}

	remaining := s.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return true, remaining
}
