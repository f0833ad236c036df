package pipeline_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenmind/agent-service/internal/core/store"
	"github.com/havenmind/agent-service/internal/core/vectorstore"
	domainerrors "github.com/havenmind/agent-service/internal/domain/errors"
	"github.com/havenmind/agent-service/internal/domain/models"
	rediscache "github.com/havenmind/agent-service/internal/infrastructure/cache/redis"
	"github.com/havenmind/agent-service/internal/services/contextbuilder"
	"github.com/havenmind/agent-service/internal/services/moderation"
	"github.com/havenmind/agent-service/internal/services/pipeline"
	"github.com/havenmind/agent-service/internal/services/providers"
	"github.com/havenmind/agent-service/internal/services/safety"
	"github.com/havenmind/agent-service/internal/services/sanitize"
)

// memConversations is an in-memory store.ConversationsCollection.
type memConversations struct {
	mu    sync.Mutex
	items map[string]*models.Conversation
}

func newMemConversations() *memConversations {
	return &memConversations{items: make(map[string]*models.Conversation)}
}

func (c *memConversations) Add(_ context.Context, conversation *models.Conversation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[conversation.ID] = conversation
	return nil
}

func (c *memConversations) Get(_ context.Context, id string) (*models.Conversation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items[id], nil
}

func (c *memConversations) ListByUser(_ context.Context, userID string, since time.Time, limit int64) ([]*models.Conversation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var result []*models.Conversation
	for _, conv := range c.items {
		if conv.UserID == userID && !conv.CreatedAt.Before(since) {
			result = append(result, conv)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if int64(len(result)) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (c *memConversations) MostRecentByUser(ctx context.Context, userID string) (*models.Conversation, error) {
	all, _ := c.ListByUser(ctx, userID, time.Time{}, 1)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (c *memConversations) UpdateTitle(_ context.Context, id, title string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conv, ok := c.items[id]; ok {
		conv.Title = title
	}
	return nil
}

// memMessages is an in-memory store.MessagesCollection.
type memMessages struct {
	mu            sync.Mutex
	items         []*models.Message
	conversations *memConversations
	failAdd       bool
}

func newMemMessages(conversations *memConversations) *memMessages {
	return &memMessages{conversations: conversations}
}

func (m *memMessages) Add(_ context.Context, message *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAdd {
		return errors.New("write failed")
	}
	m.items = append(m.items, message)
	return nil
}

func (m *memMessages) List(_ context.Context, opts *store.ListMessagesOptions) ([]*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Message
	for _, msg := range m.items {
		if msg.ConversationID == opts.ConversationID {
			result = append(result, msg)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if opts.OrderBy == store.SortOrderDesc {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	if opts.Limit > 0 && int64(len(result)) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (m *memMessages) ListByUser(ctx context.Context, userID string, limit int64) ([]*models.Message, error) {
	convs, _ := m.conversations.ListByUser(ctx, userID, time.Time{}, 1000)
	ids := make(map[string]bool, len(convs))
	for _, conv := range convs {
		ids[conv.ID] = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Message
	for _, msg := range m.items {
		if ids[msg.ConversationID] {
			result = append(result, msg)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if int64(len(result)) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *memMessages) CountByConversation(_ context.Context, conversationID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, msg := range m.items {
		if msg.ConversationID == conversationID {
			count++
		}
	}
	return count, nil
}

// stubVectors is a no-result vectorstore.Client.
type stubVectors struct{}

func (stubVectors) Upsert(context.Context, string, *models.EmbeddingRecord) error { return nil }
func (stubVectors) QueryNear(context.Context, []float32, int, *vectorstore.QueryFilter) ([]vectorstore.Match, error) {
	return nil, nil
}
func (stubVectors) Ping(context.Context) error { return nil }
func (stubVectors) Close() error               { return nil }

// stubEmbedder returns a fixed vector.
type stubEmbedder struct{}

func (stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

// fakeProvider implements providers.CompletionClient with scripted output.
type fakeProvider struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (p *fakeProvider) Complete(_ context.Context, _ *providers.CompletionRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.reply, p.err
}

func (p *fakeProvider) Close() error { return nil }

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// fakeClassifier scores texts via a lookup function.
type fakeClassifier struct {
	scoresFor func(text string) map[string]float64
}

func (f *fakeClassifier) Classify(_ context.Context, text string) (*moderation.Classification, error) {
	scores := map[string]float64{}
	if f.scoresFor != nil {
		scores = f.scoresFor(text)
	}
	return &moderation.Classification{Flagged: len(scores) > 0, Scores: scores}, nil
}

type fixture struct {
	orchestrator  *pipeline.Orchestrator
	provider      *fakeProvider
	messages      *memMessages
	conversations *memConversations
}

func setup(t *testing.T, provider *fakeProvider, classifier moderation.Classifier) *fixture {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	cacheClient, err := rediscache.NewClient(rediscache.Config{Host: mr.Host(), Port: mr.Port()})
	require.NoError(t, err)
	t.Cleanup(func() {
		cacheClient.Close()
		mr.Close()
	})

	conversations := newMemConversations()
	messages := newMemMessages(conversations)
	assembler := contextbuilder.NewAssembler(conversations, messages, stubVectors{}, stubEmbedder{}, cacheClient, time.Minute)

	orchestrator := pipeline.NewOrchestrator(pipeline.Deps{
		Sanitizer: sanitize.NewSanitizer(4000),
		Moderator: moderation.NewModerator(classifier, moderation.Config{
			Thresholds: map[string]float64{
				"harassment": 0.7,
				"hate":       0.8,
				"self-harm":  0.3,
			},
		}),
		Detector:      safety.NewDetector("US"),
		Assembler:     assembler,
		Generator:     pipeline.NewGenerator(provider),
		Conversations: conversations,
		Messages:      messages,
		TokenBudget:   8000,
	})

	return &fixture{
		orchestrator:  orchestrator,
		provider:      provider,
		messages:      messages,
		conversations: conversations,
	}
}

func cleanClassifier() moderation.Classifier {
	return &fakeClassifier{}
}

func TestProcessMessage_HappyPath(t *testing.T) {
	provider := &fakeProvider{reply: "That sounds really hard. Tell me more?"}
	f := setup(t, provider, cleanClassifier())

	msg, err := f.orchestrator.ProcessMessage(context.Background(), "user-1", "rough day at work", "")

	require.NoError(t, err)
	assert.Equal(t, models.SenderAgent, msg.Sender)
	assert.Equal(t, "That sounds really hard. Tell me more?", msg.Content)
	assert.NotEmpty(t, msg.ConversationID)
}

func TestProcessMessage_RoundTripHistory(t *testing.T) {
	provider := &fakeProvider{reply: "I'm listening."}
	f := setup(t, provider, cleanClassifier())

	sent, err := f.orchestrator.ProcessMessage(context.Background(), "user-1", "my first message", "")
	require.NoError(t, err)

	history, err := f.orchestrator.GetHistory(context.Background(), "user-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Newest first: agent reply, then the user message.
	assert.Equal(t, sent.Content, history[0].Content)
	assert.Equal(t, models.SenderAgent, history[0].Sender)
	assert.Equal(t, "my first message", history[1].Content)
	assert.Equal(t, models.SenderUser, history[1].Sender)
}

func TestProcessMessage_EmptyInputRejectedBeforeProvider(t *testing.T) {
	provider := &fakeProvider{reply: "unused"}
	f := setup(t, provider, cleanClassifier())

	_, err := f.orchestrator.ProcessMessage(context.Background(), "user-1", "", "")

	require.Error(t, err)
	assert.True(t, domainerrors.IsValidationError(err))
	assert.Zero(t, provider.callCount())

	history, err := f.orchestrator.GetHistory(context.Background(), "user-1", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestProcessMessage_CrisisResponseIncludesResources(t *testing.T) {
	provider := &fakeProvider{reply: "I'm so glad you told me. I'm right here with you."}
	f := setup(t, provider, cleanClassifier())

	msg, err := f.orchestrator.ProcessMessage(context.Background(), "user-1", "I want to kill myself", "")

	require.NoError(t, err)
	assert.Contains(t, msg.Content, "988")
	assert.Contains(t, msg.Content, "I'm so glad you told me. I'm right here with you.")
}

func TestProcessMessage_BlockedInputGetsSafeAlternative(t *testing.T) {
	provider := &fakeProvider{reply: "unused"}
	classifier := &fakeClassifier{scoresFor: func(text string) map[string]float64 {
		if text == "abusive rant" {
			return map[string]float64{"harassment": 0.95}
		}
		return nil
	}}
	f := setup(t, provider, classifier)

	msg, err := f.orchestrator.ProcessMessage(context.Background(), "user-1", "abusive rant", "")

	require.NoError(t, err)
	assert.Equal(t, moderation.SafeAlternative("harassment"), msg.Content)
	assert.Zero(t, provider.callCount())

	// Only the agent's safe alternative is persisted, never the blocked text.
	history, err := f.orchestrator.GetHistory(context.Background(), "user-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.SenderAgent, history[0].Sender)
}

func TestProcessMessage_BlockedOutputReplacedBeforePersisting(t *testing.T) {
	rude := "a rude generated reply"
	provider := &fakeProvider{reply: rude}
	classifier := &fakeClassifier{scoresFor: func(text string) map[string]float64 {
		if text == rude {
			return map[string]float64{"harassment": 0.95}
		}
		return nil
	}}
	f := setup(t, provider, classifier)

	msg, err := f.orchestrator.ProcessMessage(context.Background(), "user-1", "tell me something", "")

	require.NoError(t, err)
	assert.Equal(t, moderation.SafeAlternative("harassment"), msg.Content)

	history, err := f.orchestrator.GetHistory(context.Background(), "user-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.NotEqual(t, rude, history[0].Content)
}

func TestProcessMessage_ProviderErrorStillPersistsFallback(t *testing.T) {
	provider := &fakeProvider{err: errors.New("provider unreachable")}
	f := setup(t, provider, cleanClassifier())

	msg, err := f.orchestrator.ProcessMessage(context.Background(), "user-1", "are you there?", "")

	require.NoError(t, err)
	assert.NotEmpty(t, msg.Content)
	assert.Contains(t, msg.Content, "here")

	history, err := f.orchestrator.GetHistory(context.Background(), "user-1", 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestProcessMessage_PersistenceFailureIsFatal(t *testing.T) {
	provider := &fakeProvider{reply: "hello"}
	f := setup(t, provider, cleanClassifier())
	f.messages.failAdd = true

	_, err := f.orchestrator.ProcessMessage(context.Background(), "user-1", "hello there", "")

	require.Error(t, err)
	domainErr, ok := domainerrors.GetDomainError(err)
	require.True(t, ok)
	assert.Equal(t, domainerrors.ErrCodeInternal, domainErr.Code)
}

func TestProcessMessage_ReusesMostRecentConversation(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	f := setup(t, provider, cleanClassifier())

	first, err := f.orchestrator.ProcessMessage(context.Background(), "user-1", "message one", "")
	require.NoError(t, err)
	second, err := f.orchestrator.ProcessMessage(context.Background(), "user-1", "message two", "")
	require.NoError(t, err)

	assert.Equal(t, first.ConversationID, second.ConversationID)
}

func TestProcessMessage_UnknownConversationRejected(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	f := setup(t, provider, cleanClassifier())

	_, err := f.orchestrator.ProcessMessage(context.Background(), "user-1", "hello", "no-such-conversation")

	require.Error(t, err)
	assert.True(t, domainerrors.IsNotFound(err))
}

func TestProcessMessage_OtherUsersConversationRejected(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	f := setup(t, provider, cleanClassifier())

	other := models.NewConversation("user-2", "")
	require.NoError(t, f.conversations.Add(context.Background(), other))

	_, err := f.orchestrator.ProcessMessage(context.Background(), "user-1", "hello", other.ID)

	require.Error(t, err)
	assert.True(t, domainerrors.IsNotFound(err))
}
