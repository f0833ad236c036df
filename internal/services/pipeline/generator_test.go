package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/havenmind/agent-service/internal/domain/models"
	"github.com/havenmind/agent-service/internal/services/pipeline"
	"github.com/havenmind/agent-service/internal/services/safety"
)

func TestGenerate_ReturnsProviderReply(t *testing.T) {
	provider := &fakeProvider{reply: "That sounds exhausting."}
	g := pipeline.NewGenerator(provider)

	text := g.Generate(context.Background(), models.EmptyContextBundle(1000), models.CrisisAssessment{}, "long day")

	assert.Equal(t, "That sounds exhausting.", text)
}

func TestGenerate_CrisisPrependsResourceBlock(t *testing.T) {
	provider := &fakeProvider{reply: "I'm here with you."}
	g := pipeline.NewGenerator(provider)

	assessment := models.CrisisAssessment{
		Level:                models.CrisisCritical,
		RequiresIntervention: true,
		Resources:            safety.ResourcesForRegion("US"),
	}
	text := g.Generate(context.Background(), models.EmptyContextBundle(1000), assessment, "help")

	block := safety.FormatResourceBlock(assessment.Resources)
	assert.Equal(t, block+"\n\nI'm here with you.", text)
}

func TestGenerate_ProviderErrorFallsBack(t *testing.T) {
	provider := &fakeProvider{err: errors.New("unreachable")}
	g := pipeline.NewGenerator(provider)

	text := g.Generate(context.Background(), models.EmptyContextBundle(1000), models.CrisisAssessment{}, "hi")

	assert.NotEmpty(t, text)
	assert.NotContains(t, text, "unreachable")
}

func TestGenerate_CrisisWithProviderErrorStillHasResources(t *testing.T) {
	provider := &fakeProvider{err: errors.New("unreachable")}
	g := pipeline.NewGenerator(provider)

	assessment := models.CrisisAssessment{
		Level:                models.CrisisHigh,
		RequiresIntervention: true,
		Resources:            safety.ResourcesForRegion("US"),
	}
	text := g.Generate(context.Background(), models.EmptyContextBundle(1000), assessment, "help")

	assert.Contains(t, text, "988")
}

func TestGenerate_EmptyProviderReplyFallsBack(t *testing.T) {
	provider := &fakeProvider{reply: ""}
	g := pipeline.NewGenerator(provider)

	text := g.Generate(context.Background(), models.EmptyContextBundle(1000), models.CrisisAssessment{}, "hi")

	assert.NotEmpty(t, text)
}
