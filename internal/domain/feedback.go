package domain

// FeedbackResult is the structured rubric evaluation of one finalized
// session. The validate tags express the presence rules a model response
// must satisfy to be accepted.
type FeedbackResult struct {
	Summary          FeedbackSummary   `json:"summary"`
	Rubric           []RubricItem      `json:"rubric" validate:"required,dive"`
	SentenceAnalysis *SentenceAnalysis `json:"sentenceAnalysis" validate:"required"`
	DetailedFeedback string            `json:"detailedFeedback" validate:"required"`
}

// FeedbackSummary lists the counselor's strengths and improvement points.
type FeedbackSummary struct {
	Strengths    []string `json:"strengths" validate:"required"`
	Improvements []string `json:"improvements" validate:"required"`
}

// RubricItem scores one rubric category.
type RubricItem struct {
	Category string   `json:"category"`
	Score    float64  `json:"score" validate:"gte=0,ltefield=MaxScore"`
	MaxScore float64  `json:"maxScore"`
	Feedback string   `json:"feedback"`
	Evidence []string `json:"evidence"`
}

// SentenceAnalysis picks out counselor sentences that worked and ones that
// need rework.
type SentenceAnalysis struct {
	EffectiveSentences []EffectiveSentence `json:"effectiveSentences"`
	ImprovementNeeded  []SentenceRevision  `json:"improvementNeeded"`
}

// EffectiveSentence is a counselor sentence with the reason it worked.
type EffectiveSentence struct {
	Sentence    string `json:"sentence"`
	Explanation string `json:"explanation"`
}

// SentenceRevision is a counselor sentence with a suggested improvement.
type SentenceRevision struct {
	Sentence   string `json:"sentence"`
	Suggestion string `json:"suggestion"`
}
