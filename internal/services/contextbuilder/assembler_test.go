package contextbuilder_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/havenmind/agent-service/internal/core/cache"
	"github.com/havenmind/agent-service/internal/core/store"
	"github.com/havenmind/agent-service/internal/core/vectorstore"
	"github.com/havenmind/agent-service/internal/domain/models"
	rediscache "github.com/havenmind/agent-service/internal/infrastructure/cache/redis"
	"github.com/havenmind/agent-service/internal/services/contextbuilder"
)

// mockConversations is a mock implementation of store.ConversationsCollection.
type mockConversations struct {
	mock.Mock
}

func (m *mockConversations) Add(ctx context.Context, conversation *models.Conversation) error {
	args := m.Called(ctx, conversation)
	return args.Error(0)
}

func (m *mockConversations) Get(ctx context.Context, id string) (*models.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *mockConversations) ListByUser(ctx context.Context, userID string, since time.Time, limit int64) ([]*models.Conversation, error) {
	args := m.Called(ctx, userID, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Conversation), args.Error(1)
}

func (m *mockConversations) MostRecentByUser(ctx context.Context, userID string) (*models.Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *mockConversations) UpdateTitle(ctx context.Context, id, title string) error {
	args := m.Called(ctx, id, title)
	return args.Error(0)
}

// mockMessages is a mock implementation of store.MessagesCollection.
type mockMessages struct {
	mock.Mock
}

func (m *mockMessages) Add(ctx context.Context, message *models.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *mockMessages) List(ctx context.Context, opts *store.ListMessagesOptions) ([]*models.Message, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

func (m *mockMessages) ListByUser(ctx context.Context, userID string, limit int64) ([]*models.Message, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

func (m *mockMessages) CountByConversation(ctx context.Context, conversationID string) (int64, error) {
	args := m.Called(ctx, conversationID)
	return args.Get(0).(int64), args.Error(1)
}

// mockVectors is a mock implementation of vectorstore.Client.
type mockVectors struct {
	mock.Mock
}

func (m *mockVectors) Upsert(ctx context.Context, id string, record *models.EmbeddingRecord) error {
	args := m.Called(ctx, id, record)
	return args.Error(0)
}

func (m *mockVectors) QueryNear(ctx context.Context, vector []float32, limit int, filter *vectorstore.QueryFilter) ([]vectorstore.Match, error) {
	args := m.Called(ctx, vector, limit, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]vectorstore.Match), args.Error(1)
}

func (m *mockVectors) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockVectors) Close() error {
	args := m.Called()
	return args.Error(0)
}

// mockEmbedder is a mock implementation of embeddings.Embedder.
type mockEmbedder struct {
	mock.Mock
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func setupCache(t *testing.T) cache.Client {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := rediscache.NewClient(rediscache.Config{
		Host: mr.Host(),
		Port: mr.Port(),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client
}

func userTurn(conversationID, text string) []*models.Message {
	return []*models.Message{
		models.NewMessage(conversationID, models.SenderUser, text),
	}
}

func TestBuild_BudgetNeverExceeded(t *testing.T) {
	conversations := new(mockConversations)
	messages := new(mockMessages)
	vectors := new(mockVectors)
	embedder := new(mockEmbedder)

	past := models.NewConversation("user-1", "Old chat")
	conversations.On("ListByUser", mock.Anything, "user-1", mock.Anything, mock.Anything).
		Return([]*models.Conversation{past}, nil)
	messages.On("List", mock.Anything, mock.Anything).
		Return([]*models.Message{
			models.NewMessage(past.ID, models.SenderUser, "I could not sleep and work was stressful"),
		}, nil)
	messages.On("CountByConversation", mock.Anything, past.ID).Return(int64(6), nil)
	embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.1, 0.2}, nil)
	vectors.On("QueryNear", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]vectorstore.Match{
			{Record: models.EmbeddingRecord{ConversationID: past.ID, Speaker: "USER", TextChunk: "work keeps me up at night"}, Distance: 0.2},
		}, nil)

	assembler := contextbuilder.NewAssembler(conversations, messages, vectors, embedder, setupCache(t), time.Minute)

	for _, budget := range []int{10, 100, 8000} {
		bundle := assembler.Build(context.Background(), userTurn("conv-1", "feeling anxious again"), "user-1", "conv-1", budget)
		require.NotNil(t, bundle)
		assert.LessOrEqual(t, bundle.TokenUsage.Used, bundle.TokenUsage.Budget, "budget %d", budget)
		assembler.Invalidate(context.Background(), "user-1", "conv-1")
	}
}

func TestBuild_SecondCallHitsCache(t *testing.T) {
	conversations := new(mockConversations)
	messages := new(mockMessages)
	vectors := new(mockVectors)
	embedder := new(mockEmbedder)

	conversations.On("ListByUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]*models.Conversation{}, nil)
	embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.5}, nil)
	vectors.On("QueryNear", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]vectorstore.Match{}, nil)

	assembler := contextbuilder.NewAssembler(conversations, messages, vectors, embedder, setupCache(t), time.Minute)

	turn := userTurn("conv-1", "hello there")
	first := assembler.Build(context.Background(), turn, "user-1", "conv-1", 1000)
	second := assembler.Build(context.Background(), turn, "user-1", "conv-1", 1000)

	assert.Equal(t, first, second)
	vectors.AssertNumberOfCalls(t, "QueryNear", 1)
}

func TestBuild_InvalidateForcesRebuild(t *testing.T) {
	conversations := new(mockConversations)
	messages := new(mockMessages)
	vectors := new(mockVectors)
	embedder := new(mockEmbedder)

	conversations.On("ListByUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]*models.Conversation{}, nil)
	embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.5}, nil)
	vectors.On("QueryNear", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]vectorstore.Match{}, nil)

	assembler := contextbuilder.NewAssembler(conversations, messages, vectors, embedder, setupCache(t), time.Minute)

	turn := userTurn("conv-1", "hello there")
	assembler.Build(context.Background(), turn, "user-1", "conv-1", 1000)
	assembler.Invalidate(context.Background(), "user-1", "conv-1")
	assembler.Build(context.Background(), turn, "user-1", "conv-1", 1000)

	vectors.AssertNumberOfCalls(t, "QueryNear", 2)
}

func TestBuild_FiltersLowSimilarityMoments(t *testing.T) {
	conversations := new(mockConversations)
	messages := new(mockMessages)
	vectors := new(mockVectors)
	embedder := new(mockEmbedder)

	conversations.On("ListByUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]*models.Conversation{}, nil)
	embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.5}, nil)
	vectors.On("QueryNear", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]vectorstore.Match{
			// similarity 0.9
			{Record: models.EmbeddingRecord{TextChunk: "close match"}, Distance: 0.2},
			// similarity 0.5, below the threshold
			{Record: models.EmbeddingRecord{TextChunk: "weak match"}, Distance: 1.0},
		}, nil)

	assembler := contextbuilder.NewAssembler(conversations, messages, vectors, embedder, setupCache(t), time.Minute)

	bundle := assembler.Build(context.Background(), userTurn("conv-1", "how it goes"), "user-1", "conv-1", 1000)

	require.Len(t, bundle.SimilarMoments, 1)
	assert.Equal(t, "close match", bundle.SimilarMoments[0].TextChunk)
	assert.InDelta(t, 0.9, bundle.SimilarMoments[0].Similarity, 0.001)
}

func TestBuild_DerivesTopicsFromPastConversations(t *testing.T) {
	conversations := new(mockConversations)
	messages := new(mockMessages)
	vectors := new(mockVectors)
	embedder := new(mockEmbedder)

	past := models.NewConversation("user-1", "Rough week")
	conversations.On("ListByUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]*models.Conversation{past}, nil)
	messages.On("List", mock.Anything, mock.Anything).
		Return([]*models.Message{
			models.NewMessage(past.ID, models.SenderUser, "my boss at work makes me so anxious I can't sleep"),
		}, nil)
	messages.On("CountByConversation", mock.Anything, past.ID).Return(int64(2), nil)
	embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.5}, nil)
	vectors.On("QueryNear", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]vectorstore.Match{}, nil)

	assembler := contextbuilder.NewAssembler(conversations, messages, vectors, embedder, setupCache(t), time.Minute)

	bundle := assembler.Build(context.Background(), userTurn("conv-1", "hi"), "user-1", "conv-1", 8000)

	require.Len(t, bundle.RecentHistory, 1)
	assert.ElementsMatch(t, []string{"anxiety", "sleep", "work"}, bundle.RecentHistory[0].Topics)
	assert.Equal(t, 2, bundle.RecentHistory[0].MessageCount)
}

func TestBuild_ExcludesCurrentConversationFromHistory(t *testing.T) {
	conversations := new(mockConversations)
	messages := new(mockMessages)
	vectors := new(mockVectors)
	embedder := new(mockEmbedder)

	current := models.NewConversation("user-1", "")
	conversations.On("ListByUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]*models.Conversation{current}, nil)
	embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.5}, nil)
	vectors.On("QueryNear", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]vectorstore.Match{}, nil)

	assembler := contextbuilder.NewAssembler(conversations, messages, vectors, embedder, setupCache(t), time.Minute)

	bundle := assembler.Build(context.Background(), userTurn(current.ID, "hi"), "user-1", current.ID, 8000)

	assert.Empty(t, bundle.RecentHistory)
}

func TestBuild_InternalFailureReturnsEmptyBundle(t *testing.T) {
	conversations := new(mockConversations)
	messages := new(mockMessages)
	vectors := new(mockVectors)
	embedder := new(mockEmbedder)

	conversations.On("ListByUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("store unavailable"))
	embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.5}, nil)
	vectors.On("QueryNear", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]vectorstore.Match{}, nil)

	assembler := contextbuilder.NewAssembler(conversations, messages, vectors, embedder, setupCache(t), time.Minute)

	bundle := assembler.Build(context.Background(), userTurn("conv-1", "hi"), "user-1", "conv-1", 500)

	require.NotNil(t, bundle)
	assert.Zero(t, bundle.TokenUsage.Used)
	assert.Empty(t, bundle.CurrentSessionText)
	assert.Empty(t, bundle.RecentHistory)
	assert.Empty(t, bundle.SimilarMoments)
	assert.Equal(t, 500, bundle.TokenUsage.Budget)
}

func TestDeriveTopics_Deterministic(t *testing.T) {
	topics := contextbuilder.DeriveTopics("work stress and work anxiety, can't sleep")

	assert.Equal(t, []string{"anxiety", "stress", "sleep", "work"}, topics)
}
