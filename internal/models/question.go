package models

// SkillTag links a generated question to a skill in the ontology of the
// question generation service.
type SkillTag struct {
	SkillID   string `json:"skill_id"`
	SkillName string `json:"skill_name,omitempty"`
}

// QuestionData is the inner question document produced by the generation
// service: the stem, its options and the answer key with rationale.
type QuestionData struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Rationale     string   `json:"rationale"`
}

// GeneratedQuestion is the response envelope of the question generation
// service. Difficulty comes back normalized and may differ in spelling from
// the requested tier.
type GeneratedQuestion struct {
	Topic        string       `json:"topic"`
	Difficulty   string       `json:"difficulty"`
	QuestionType string       `json:"question_type"`
	SkillTags    []SkillTag   `json:"skill_tags"`
	Data         QuestionData `json:"data"`
}
