package feedback

import (
	"fmt"
	"strings"
	"time"

	"github.com/ashureev/peakchat/internal/domain"
)

// SystemMessage instructs the feedback model to answer with bare JSON.
const SystemMessage = "상담 세션 피드백을 제공하는 AI입니다. 유효한 JSON 객체로만 응답하며 설명이나 마크다운 형식은 포함하지 않습니다."

// Transcript speaker labels.
const (
	LabelCounselor = "상담사"
	LabelClient    = "내담자"
)

// BuildPrompt renders the evaluation prompt for s. It is a pure function of
// the session contents; system turns are left out of the transcript.
func BuildPrompt(s *domain.Session) string {
	var b strings.Builder
	b.WriteString(promptIntro)

	b.WriteString("상담 내용:\n")
	lines := make([]string, 0, len(s.Turns))
	for _, turn := range s.Transcript() {
		label := LabelClient
		if turn.Role == domain.RoleUser {
			label = LabelCounselor
		}
		lines = append(lines, label+": "+turn.Content)
	}
	b.WriteString(strings.Join(lines, "\n"))

	b.WriteString("\n\n세션 정보:\n")
	fmt.Fprintf(&b, "- 시작 시간: %s\n", formatLocalTime(s.Metrics.StartTime))
	endTime := "-"
	if s.Metrics.EndTime != nil {
		endTime = formatLocalTime(*s.Metrics.EndTime)
	}
	fmt.Fprintf(&b, "- 종료 시간: %s\n", endTime)
	fmt.Fprintf(&b, "- 총 응답 수: %d\n\n", s.Metrics.ResponseCount)

	b.WriteString(promptSchema)
	return b.String()
}

// formatLocalTime renders t the way a ko-KR locale prints a date and time,
// for example "2024. 5. 1. 오후 3:04:05".
func formatLocalTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	t = t.Local()
	meridiem := "오전"
	hour := t.Hour()
	if hour >= 12 {
		meridiem = "오후"
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d. %d. %d. %s %d:%02d:%02d",
		t.Year(), int(t.Month()), t.Day(), meridiem, hour, t.Minute(), t.Second())
}

const promptIntro = `아래 상담 내용을 평가하고, 상담 세션의 효과성과 상담자의 개입 방식에 대해 분석한 뒤, JSON 형식으로 응답해주세요.

목표:
1. 상담자의 강점과 개선점을 명확히 식별
2. 각 평가 항목에 대한 점수와 구체적인 이유 제공
3. 상담 세션 전반에 대한 상세 피드백 제공

평가 기준:
1. 상담자 전문성 (3점 만점)
   - 전문적이고 명확한 개입을 보여주었는가?
   - 적절한 상담 기법과 전략을 사용하였는가?
   - 내담자의 문제를 정확히 파악하고 있는가?

2. 치료적 관계 형성 (3점 만점)
   - 상담자와 내담자 간의 신뢰 관계가 형성되었는가?
   - 공감적 이해와 경청이 효과적으로 이루어졌는가?
   - 내담자가 안전하게 자신을 표현할 수 있는 환경을 조성하였는가?

3. 목표 지향적 개입 (3점 만점)
   - 구체적인 상담 목표가 설정되었는가?
   - 실천 가능한 행동 계획이 제시되었는가?
   - 내담자의 변화를 위한 명확한 방향성이 제시되었는가?

분석 요청 사항:
- 상담자의 경청 태도, 공감 표현, 목표 설정 및 구체적 조언 여부를 평가
- 내담자의 반응과 피드백에 대한 상담자의 대처 방식 분석
- 상담 세션의 구조화와 대화 흐름에 대한 전반적인 평가

추가 분석 요청 사항:
1. 상담사가 효과적으로 사용한 구체적인 문장들을 식별하고 그 이유를 설명
2. 개선이 필요한 문장들을 식별하고 구체적인 개선 제안 제시

`

const promptSchema = `다음 JSON 형식으로 응답해주세요:
{
  "summary": {
    "strengths": ["강점1", "강점2", "강점3"],
    "improvements": ["개선점1", "개선점2", "개선점3"]
  },
  "rubric": [
    {
      "category": "상담자 전문성",
      "score": 2,
      "maxScore": 3,
      "feedback": "구체적인 피드백 내용",
      "evidence": [
        "대화 내용에서 발견된 구체적인 근거1",
        "대화 내용에서 발견된 구체적인 근거2"
      ]
    },
    {
      "category": "치료적 관계 형성",
      "score": 2,
      "maxScore": 3,
      "feedback": "구체적인 피드백 내용",
      "evidence": [
        "대화 내용에서 발견된 구체적인 근거1",
        "대화 내용에서 발견된 구체적인 근거2"
      ]
    },
    {
      "category": "목표 지향적 개입",
      "score": 2,
      "maxScore": 3,
      "feedback": "구체적인 피드백 내용",
      "evidence": [
        "대화 내용에서 발견된 구체적인 근거1",
        "대화 내용에서 발견된 구체적인 근거2"
      ]
    }
  ],
  "sentenceAnalysis": {
    "effectiveSentences": [
      {
        "sentence": "상담사가 사용한 좋은 문장",
        "explanation": "해당 문장이 효과적인 이유 설명"
      }
    ],
    "improvementNeeded": [
      {
        "sentence": "상담사가 사용한 반드시 개선이 필요한 문장",
        "suggestion": "구체적인 개선 제안"
      }
    ]
  },
  "detailedFeedback": "세션 전반에 대한 상세 피드백 내용"
}

위 내용을 바탕으로 JSON 형식으로만 응답해주세요.`
