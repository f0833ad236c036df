package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/havenmind/agent-service/internal/core/cache"
	"github.com/havenmind/agent-service/internal/core/store"
	"github.com/havenmind/agent-service/internal/domain/models"
	"github.com/havenmind/agent-service/internal/services/contextbuilder"
	"github.com/havenmind/agent-service/internal/services/providers"
)

const profileSampleSize = 50

// ProfileRefresher periodically regenerates long-lived user profile
// summaries. It runs outside the per-request state machine and never
// blocks an in-flight message; refreshes are rate-limited per user by a
// minimum interval.
type ProfileRefresher struct {
	provider    providers.CompletionClient
	profiles    store.ProfilesCollection
	messages    store.MessagesCollection
	cache       cache.Client
	interval    time.Duration
	minInterval time.Duration

	mu      sync.Mutex
	pending map[string]struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

// NewProfileRefresher creates a profile refresher. interval is how often
// the refresher wakes up; minInterval is the per-user rolling window.
func NewProfileRefresher(
	provider providers.CompletionClient,
	profiles store.ProfilesCollection,
	messages store.MessagesCollection,
	cacheClient cache.Client,
	interval, minInterval time.Duration,
) *ProfileRefresher {
	return &ProfileRefresher{
		provider:    provider,
		profiles:    profiles,
		messages:    messages,
		cache:       cacheClient,
		interval:    interval,
		minInterval: minInterval,
		pending:     make(map[string]struct{}),
	}
}

// RecordActivity marks a user as a candidate for the next refresh pass.
func (r *ProfileRefresher) RecordActivity(userID string) {
	r.mu.Lock()
	r.pending[userID] = struct{}{}
	r.mu.Unlock()
}

// Start launches the background refresh loop.
func (r *ProfileRefresher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.refreshPending(ctx)
			}
		}
	}()
}

// Stop stops the refresh loop and waits for it to exit.
func (r *ProfileRefresher) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}

// refreshPending drains the pending set and refreshes each user that is
// outside the minimum interval.
func (r *ProfileRefresher) refreshPending(ctx context.Context) {
	r.mu.Lock()
	users := make([]string, 0, len(r.pending))
	for userID := range r.pending {
		users = append(users, userID)
	}
	r.pending = make(map[string]struct{})
	r.mu.Unlock()

	for _, userID := range users {
		if err := r.refreshUser(ctx, userID); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("profile refresh failed")
		}
	}
}

// refreshUser regenerates one user's profile summary unless it was
// refreshed within the minimum interval. A cache gate absorbs most skips
// cheaply; the stored UpdatedAt timestamp is the authoritative check.
func (r *ProfileRefresher) refreshUser(ctx context.Context, userID string) error {
	gateKey := fmt.Sprintf("profile:refreshed:%s", userID)
	if gate, err := r.cache.Get(ctx, gateKey); err == nil && gate != nil {
		return nil
	}

	profile, err := r.profiles.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	if profile != nil && time.Since(profile.UpdatedAt) < r.minInterval {
		return nil
	}

	msgs, err := r.messages.ListByUser(ctx, userID, profileSampleSize)
	if err != nil {
		return fmt.Errorf("failed to load messages: %w", err)
	}
	if len(msgs) == 0 {
		return nil
	}

	var b strings.Builder
	var combined strings.Builder
	for _, msg := range msgs {
		if msg.Sender != models.SenderUser {
			continue
		}
		b.WriteString(msg.Content)
		b.WriteString("\n")
		combined.WriteString(msg.Content)
		combined.WriteString(" ")
	}
	if b.Len() == 0 {
		return nil
	}

	summary, err := r.provider.Complete(ctx, &providers.CompletionRequest{
		SystemPrompt: profilePrompt,
		UserMessage:  b.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to summarize profile: %w", err)
	}

	updated := &models.UserProfile{
		UserID:    userID,
		Summary:   strings.TrimSpace(summary),
		Topics:    contextbuilder.DeriveTopics(combined.String()),
		UpdatedAt: time.Now().UTC(),
	}
	if err := r.profiles.Upsert(ctx, updated); err != nil {
		return fmt.Errorf("failed to store profile: %w", err)
	}

	if err := r.cache.Set(ctx, gateKey, []byte("1"), r.minInterval); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to set profile refresh gate")
	}

	log.Info().Str("user_id", userID).Msg("user profile refreshed")
	return nil
}
