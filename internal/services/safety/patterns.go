package safety

import (
	"regexp"

	"github.com/havenmind/agent-service/internal/domain/models"
)

// tier is one severity band of risk patterns. Tiers are data: adding a
// pattern or a tier never changes detection control flow.
type tier struct {
	level          models.CrisisLevel
	baseConfidence float64
	patterns       []*regexp.Regexp
}

// Tiers are evaluated highest first, but every tier is always checked so
// the assessment can report all matched signals.
var tiers = []tier{
	{
		level:          models.CrisisCritical,
		baseConfidence: 0.95,
		patterns: compile(
			`(?i)\bkill(ing)? myself\b`,
			`(?i)\bend(ing)? my (own )?life\b`,
			`(?i)\bcommit(ting)? suicide\b`,
			`(?i)\bi (want|plan|am going) to die\b`,
			`(?i)\btake my (own )?life\b`,
			`(?i)\b(pills|rope|gun|bridge|jump(ing)?) .{0,30}\b(end it|kill|die)\b`,
			`(?i)\bsay(ing)? goodbye forever\b`,
			`(?i)\bthis is (my )?goodbye\b`,
			`(?i)\bwon'?t be (here|around) (much longer|tomorrow)\b`,
		),
	},
	{
		level:          models.CrisisHigh,
		baseConfidence: 0.85,
		patterns: compile(
			`(?i)\bhurt(ing)? myself\b`,
			`(?i)\bself[- ]harm\b`,
			`(?i)\bcut(ting)? myself\b`,
			`(?i)\bwish i (was|were) dead\b`,
			`(?i)\bbetter off without me\b`,
			`(?i)\bdon'?t want to (live|be alive|wake up)\b`,
			`(?i)\bno reason to (live|go on)\b`,
			`(?i)\bwish i could disappear\b`,
		),
	},
	{
		level:          models.CrisisMedium,
		baseConfidence: 0.70,
		patterns: compile(
			`(?i)\bhopeless\b`,
			`(?i)\bworthless\b`,
			`(?i)\bno point (in|to) anything\b`,
			`(?i)\bnothing matters\b`,
			`(?i)\bcan'?t go on\b`,
			`(?i)\beverything is (pointless|meaningless)\b`,
			`(?i)\bgiving up\b`,
			`(?i)\bburden to everyone\b`,
		),
	},
	{
		level:          models.CrisisLow,
		baseConfidence: 0.60,
		patterns: compile(
			`(?i)\b(so|really|very) (sad|down|low)\b`,
			`(?i)\boverwhelmed\b`,
			`(?i)\bcan'?t (cope|handle (this|it))\b`,
			`(?i)\bfalling apart\b`,
			`(?i)\bcrying (all the time|every day)\b`,
			`(?i)\bexhausted by everything\b`,
		),
	},
}

func compile(exprs ...string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		patterns[i] = regexp.MustCompile(expr)
	}
	return patterns
}
