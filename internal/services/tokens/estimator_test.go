package tokens_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/havenmind/agent-service/internal/services/tokens"
)

func TestEstimate_EmptyText(t *testing.T) {
	e := tokens.NewEstimator()

	assert.Equal(t, 0, e.Estimate(""))
	assert.Equal(t, 0, e.Estimate("   \n  "))
}

func TestEstimate_WordRatio(t *testing.T) {
	e := tokens.NewEstimator()

	// 40 words / 1.33 words-per-token = 30 tokens.
	text := strings.TrimSpace(strings.Repeat("word ", 40))
	assert.Equal(t, 30, e.Estimate(text))
}

func TestEstimate_MonotoneInLength(t *testing.T) {
	e := tokens.NewEstimator()

	short := e.Estimate(strings.Repeat("word ", 10))
	long := e.Estimate(strings.Repeat("word ", 100))

	assert.Less(t, short, long)
}
