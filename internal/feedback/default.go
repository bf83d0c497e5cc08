// Package feedback turns a finalized session into rubric feedback.
package feedback

import (
	"github.com/ashureev/peakchat/internal/domain"
)

// Rubric category names.
const (
	CategoryExpertise    = "상담자 전문성"
	CategoryRelationship = "치료적 관계 형성"
	CategoryGoals        = "목표 지향적 개입"
)

// MaxCategoryScore is the top score for every rubric category.
const MaxCategoryScore = 3

var defaultEvidence = []string{
	"대화 내용에서 발견된 구체적인 근거1",
	"대화 내용에서 발견된 구체적인 근거2",
}

// Default returns the fixed result shown whenever generation fails. Each
// call returns an independent copy with identical contents.
func Default() domain.FeedbackResult {
	return domain.FeedbackResult{
		Summary: domain.FeedbackSummary{
			Strengths: []string{
				"기본적인 상담 구조화 시도",
				"경청하는 태도 유지",
				"상담 진행 노력",
			},
			Improvements: []string{
				"더 구체적인 질문하기",
				"공감 표현 강화",
				"명확한 목표 설정",
			},
		},
		Rubric: []domain.RubricItem{
			{
				Category: CategoryExpertise,
				Score:    2,
				MaxScore: MaxCategoryScore,
				Feedback: "기본적인 상담 기술을 보여주었으나, 더 깊이 있는 전문적 개입이 필요합니다.",
				Evidence: append([]string(nil), defaultEvidence...),
			},
			{
				Category: CategoryRelationship,
				Score:    2,
				MaxScore: MaxCategoryScore,
				Feedback: "기본적인 라포는 형성되었으나, 더 깊은 신뢰 관계 구축이 필요합니다.",
				Evidence: append([]string(nil), defaultEvidence...),
			},
			{
				Category: CategoryGoals,
				Score:    2,
				MaxScore: MaxCategoryScore,
				Feedback: "목표 설정은 시도되었으나, 더 구체적인 행동 계획이 필요합니다.",
				Evidence: append([]string(nil), defaultEvidence...),
			},
		},
		SentenceAnalysis: &domain.SentenceAnalysis{
			EffectiveSentences: []domain.EffectiveSentence{
				{
					Sentence:    "말씀하신 내용이 많이 힘드셨을 것 같네요",
					Explanation: "기본적인 공감 표현을 적절히 사용",
				},
			},
			ImprovementNeeded: []domain.SentenceRevision{
				{
					Sentence:   "그렇군요",
					Suggestion: "단순 호응이 아닌 구체적인 공감 표현으로 대체 필요",
				},
			},
		},
		DetailedFeedback: "이번 상담 세션에서는 기본적인 상담 구조와 진행이 시도되었습니다. " +
			"하지만 효과적인 상담을 위해서는 구체적인 질문과 명확한 목표 설정이 필요합니다. " +
			"전문성 향상과 깊이 있는 개입을 위한 지속적인 노력이 요구됩니다.",
	}
}
