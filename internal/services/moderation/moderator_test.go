package moderation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/havenmind/agent-service/internal/domain/models"
	"github.com/havenmind/agent-service/internal/services/moderation"
)

// mockClassifier is a mock implementation of moderation.Classifier.
type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Classify(ctx context.Context, text string) (*moderation.Classification, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*moderation.Classification), args.Error(1)
}

func newModerator(classifier moderation.Classifier, strict bool) *moderation.Moderator {
	return moderation.NewModerator(classifier, moderation.Config{
		Thresholds: map[string]float64{
			"hate":          0.8,
			"harassment":    0.7,
			"self-harm":     0.3,
			"sexual":        0.7,
			"sexual/minors": 0.1,
			"violence":      0.7,
		},
		StrictMode: strict,
	})
}

func classify(scores map[string]float64) *moderation.Classification {
	return &moderation.Classification{Flagged: len(scores) > 0, Scores: scores}
}

func TestModerateInput_CleanText(t *testing.T) {
	classifier := new(mockClassifier)
	classifier.On("Classify", mock.Anything, mock.Anything).
		Return(classify(map[string]float64{"harassment": 0.05}), nil)

	result := newModerator(classifier, false).ModerateInput(context.Background(), "hello")

	assert.Equal(t, models.ActionAllow, result.Action)
	assert.False(t, result.Blocked())
}

func TestModerateInput_ScoreJustOverThresholdWarns(t *testing.T) {
	classifier := new(mockClassifier)
	classifier.On("Classify", mock.Anything, mock.Anything).
		Return(classify(map[string]float64{"harassment": 0.75}), nil)

	result := newModerator(classifier, false).ModerateInput(context.Background(), "text")

	assert.Equal(t, models.ActionWarn, result.Action)
	assert.Equal(t, "harassment", result.Reason)
}

func TestModerateInput_ScoreOverBlockMarginBlocks(t *testing.T) {
	classifier := new(mockClassifier)
	// threshold 0.7 + margin 0.2 + epsilon
	classifier.On("Classify", mock.Anything, mock.Anything).
		Return(classify(map[string]float64{"harassment": 0.91}), nil)

	result := newModerator(classifier, false).ModerateInput(context.Background(), "text")

	assert.Equal(t, models.ActionBlock, result.Action)
}

func TestModerateInput_ScoreWithinBlockMarginOnlyWarns(t *testing.T) {
	classifier := new(mockClassifier)
	classifier.On("Classify", mock.Anything, mock.Anything).
		Return(classify(map[string]float64{"harassment": 0.89}), nil)

	result := newModerator(classifier, false).ModerateInput(context.Background(), "text")

	assert.Equal(t, models.ActionWarn, result.Action)
}

func TestModerateInput_ZeroToleranceBlocksAtThreshold(t *testing.T) {
	classifier := new(mockClassifier)
	classifier.On("Classify", mock.Anything, mock.Anything).
		Return(classify(map[string]float64{"sexual/minors": 0.15}), nil)

	result := newModerator(classifier, false).ModerateInput(context.Background(), "text")

	assert.Equal(t, models.ActionBlock, result.Action)
	assert.Equal(t, "sexual/minors", result.Reason)
}

func TestModerateInput_SelfHarmDisclosureAllowed(t *testing.T) {
	classifier := new(mockClassifier)
	// Well over the self-harm threshold; handling belongs to crisis
	// detection, not moderation.
	classifier.On("Classify", mock.Anything, mock.Anything).
		Return(classify(map[string]float64{"self-harm": 0.85}), nil)

	result := newModerator(classifier, false).ModerateInput(context.Background(), "text")

	assert.Equal(t, models.ActionAllow, result.Action)
}

func TestModerateInput_ClassifierDownFailsOpen(t *testing.T) {
	classifier := new(mockClassifier)
	classifier.On("Classify", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	result := newModerator(classifier, false).ModerateInput(context.Background(), "text")

	assert.Equal(t, models.ActionAllow, result.Action)
}

func TestModerateInput_ClassifierDownStrictFailsClosed(t *testing.T) {
	classifier := new(mockClassifier)
	classifier.On("Classify", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	result := newModerator(classifier, true).ModerateInput(context.Background(), "text")

	assert.Equal(t, models.ActionBlock, result.Action)
}

func TestModerateOutput_AnyScoreOverThresholdBlocks(t *testing.T) {
	classifier := new(mockClassifier)
	// The same score that only warns on input blocks on output.
	classifier.On("Classify", mock.Anything, mock.Anything).
		Return(classify(map[string]float64{"harassment": 0.75}), nil)

	result := newModerator(classifier, false).ModerateOutput(context.Background(), "text")

	assert.Equal(t, models.ActionBlock, result.Action)
}

func TestModerateOutput_CleanTextAllowed(t *testing.T) {
	classifier := new(mockClassifier)
	classifier.On("Classify", mock.Anything, mock.Anything).
		Return(classify(map[string]float64{"harassment": 0.1, "violence": 0.2}), nil)

	result := newModerator(classifier, false).ModerateOutput(context.Background(), "text")

	assert.Equal(t, models.ActionAllow, result.Action)
}

func TestModerateOutput_ClassifierDownAlwaysBlocks(t *testing.T) {
	classifier := new(mockClassifier)
	classifier.On("Classify", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	result := newModerator(classifier, false).ModerateOutput(context.Background(), "text")

	assert.Equal(t, models.ActionBlock, result.Action)
}

func TestSafeAlternative_NonEmptyForAllReasons(t *testing.T) {
	for _, reason := range []string{"harassment", "hate", "violence", "sexual", "something-else"} {
		assert.NotEmpty(t, moderation.SafeAlternative(reason))
	}
}
