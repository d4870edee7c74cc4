package adaptive

import (
	"math/rand"
	"time"
)

// Policy decides the difficulty tier and topic of the next question. It is
// pure with respect to session state: everything it needs arrives as
// arguments, so the decision procedure is directly unit-testable.
type Policy struct {
	config *Config
	rand   *rand.Rand
}

// practiceSet is the weighted tier set for practice mode; intermediate is
// weighted twice.
var practiceSet = [4]Tier{TierBeginner, TierIntermediate, TierIntermediate, TierAdvanced}

// Cumulative thresholds for the timed-mode draw: 20% beginner, 60%
// intermediate, 20% advanced.
const (
	timedBeginnerCutoff = 0.2
	timedAdvancedCutoff = 0.8
)

// NewPolicy creates a policy. A nil config uses the defaults.
func NewPolicy(config *Config) *Policy {
	if config == nil {
		config = DefaultConfig()
	}
	return &Policy{
		config: config,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NextTier selects the difficulty tier for the next question given the
// answered history, the session mode and the tier of the most recent
// question.
func (p *Policy) NextTier(history []Outcome, mode Mode, current Tier) Tier {
	switch mode {
	case ModePractice:
		return practiceSet[p.rand.Intn(len(practiceSet))]
	case ModeTimed:
		u := p.rand.Float64()
		if u < timedBeginnerCutoff {
			return TierBeginner
		}
		if u < timedAdvancedCutoff {
			return TierIntermediate
		}
		return TierAdvanced
	case ModeAdaptive:
		return p.adaptiveTier(history, current)
	}
	return TierIntermediate
}

// adaptiveTier recomputes cumulative accuracy over the entire answered
// history and moves one step at most, clamped at the tier bounds.
func (p *Policy) adaptiveTier(history []Outcome, current Tier) Tier {
	answered := len(history)
	if answered < p.config.WarmupQuestions {
		return TierIntermediate
	}
	if !current.Valid() {
		current = TierIntermediate
	}

	correct := 0
	for _, o := range history {
		if o.Correct {
			correct++
		}
	}
	accuracy := float64(correct) / float64(answered)

	if accuracy >= p.config.RaiseThreshold {
		return current.up()
	}
	if accuracy < p.config.DropThreshold {
		return current.down()
	}
	return current
}

// PickTopic returns the session's focus topic when set, otherwise a uniform
// random draw from the clinical reference list.
func (p *Policy) PickTopic(focus string) string {
	if focus != "" {
		return focus
	}
	return ReferenceTopics[p.rand.Intn(len(ReferenceTopics))]
}
