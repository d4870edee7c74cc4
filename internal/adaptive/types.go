package adaptive

// Tier is the difficulty level of a generated question, totally ordered
// beginner < intermediate < advanced.
type Tier string

const (
	TierBeginner     Tier = "beginner"
	TierIntermediate Tier = "intermediate"
	TierAdvanced     Tier = "advanced"
)

var tierRank = map[Tier]int{
	TierBeginner:     0,
	TierIntermediate: 1,
	TierAdvanced:     2,
}

func (t Tier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}

// Rank returns the tier's position in the order, intermediate for unknown
// values.
func (t Tier) Rank() int {
	if r, ok := tierRank[t]; ok {
		return r
	}
	return tierRank[TierIntermediate]
}

func (t Tier) up() Tier {
	switch t {
	case TierBeginner:
		return TierIntermediate
	case TierIntermediate:
		return TierAdvanced
	}
	return TierAdvanced
}

func (t Tier) down() Tier {
	switch t {
	case TierAdvanced:
		return TierIntermediate
	case TierIntermediate:
		return TierBeginner
	}
	return TierBeginner
}

// Mode is the exam session mode.
type Mode string

const (
	ModePractice Mode = "practice"
	ModeAdaptive Mode = "adaptive"
	ModeTimed    Mode = "timed"
)

func (m Mode) Valid() bool {
	switch m {
	case ModePractice, ModeAdaptive, ModeTimed:
		return true
	}
	return false
}

// Outcome is one answered question as the policy sees it.
type Outcome struct {
	Correct bool
}

// Config holds the adaptive policy thresholds.
type Config struct {
	// WarmupQuestions is how many answered questions are required before
	// the policy starts adjusting the tier.
	WarmupQuestions int
	// RaiseThreshold is the cumulative accuracy at or above which the tier
	// steps up.
	RaiseThreshold float64
	// DropThreshold is the cumulative accuracy below which the tier steps
	// down.
	DropThreshold float64
}

func DefaultConfig() *Config {
	return &Config{
		WarmupQuestions: 3,
		RaiseThreshold:  0.70,
		DropThreshold:   0.50,
	}
}

// ReferenceTopics is the fixed list of clinical topics a question is drawn
// from when a session has no focus topic.
var ReferenceTopics = []string{
	"sepsis",
	"pneumonia",
	"heart failure",
	"diabetes",
	"hypertension",
	"stroke",
	"copd",
	"myocardial infarction",
	"asthma",
	"renal failure",
}
