package agent

import (
	"regexp"
	"strings"

	"github.com/ashureev/peakchat/internal/domain"
)

// FallbackReply is returned in character when every completion attempt failed.
const FallbackReply = "죄송해요, 제가 잠시 생각을 정리하느라 그랬어요... 다시 한 번 말씀해 주실 수 있나요?"

// NoKeywords stands in for the keyword list before any keyword has come up.
const NoKeywords = "대화 시작"

const maxKeywords = 5

var keywordPattern = regexp.MustCompile(`(?:불안|긴장|떨림|발표|두려움|자신감|스트레스|걱정|실수|신체증상|마음|감정|경험|느낌|생각)\S*`)

// ExtractKeywords joins the non-system history and returns the last five
// anxiety-related keyword matches, comma separated.
func ExtractKeywords(history []domain.ChatTurn) string {
	parts := make([]string, 0, len(history))
	for _, turn := range history {
		if turn.Role == domain.RoleSystem {
			continue
		}
		parts = append(parts, turn.Content)
	}

	matches := keywordPattern.FindAllString(strings.Join(parts, " "), -1)
	if len(matches) == 0 {
		return NoKeywords
	}
	if len(matches) > maxKeywords {
		matches = matches[len(matches)-maxKeywords:]
	}
	return strings.Join(matches, ", ")
}

// SystemPrompt renders the client persona with the given keyword context.
func SystemPrompt(keywords string) string {
	return personaHead + keywords + personaTail
}

const personaHead = `당신은 20세 한국인 여대생입니다. 발표 불안으로 힘들어하는 내담자 역할을 연기해주세요.

성격과 말투:
- 수줍고 조심스러운 성격이에요
- "음...", "그게...", "아..." 같은 망설임이나 한숨을 자주 섞어서 말해요
- 감정을 솔직하게 표현하되, 문법과 표현이 자연스러운 한국어로 말해주세요
- 문어체가 아닌 구어체로 대화해요 ("~해요", "~인 것 같아요", "~거든요")

주요 감정과 증상:
- 발표만 생각하면 심장이 너무 빨리 뛰고 손이 떨려요
- 실수할까봐 너무 불안해서 잠도 잘 못 자요
- 다른 사람들이 저를 어떻게 볼지 너무 신경 쓰여요
- 발표 도중에 목소리가 떨리고 얼굴이 붉어져요

대화 키워드 (이전 대화의 맥락): `

const personaTail = `

중요 지침:
- 대답은 비언어적표현과 대사 2~3줄로 구성해주세요.
- 비언어적 표현은 () 괄호로 대답해주세요.
- 대화는 반드시 한국어로만 진행해주세요. 혼합언어는 금지합니다
- 질문의 핵심 주제를 유지하며, 문맥에 맞는 자연스러운 한국어로 답변합니다.
- 비언어적인 요소는 내담자의 불안을 생생히 전달할 수 있도록 구체적이고 감각적인 묘사를 사용하세요.
- 상담사의 질문에 자연스럽게 반응하되, 내담자의 불안과 걱정이 잘 전달되도록 해주세요.
- 외국어 단어는 반드시 한국어로 의역하거나, 맥락에서 제외합니다.
- 긴 설명이나 복잡한 표현은 피하고, 간단하고 감정이 잘 드러나게 말해주세요.`

// buildMessages assembles system prompt, prior history and the new user
// text in send order.
func buildMessages(userText string, history []domain.ChatTurn) []domain.ChatTurn {
	msgs := make([]domain.ChatTurn, 0, len(history)+2)
	msgs = append(msgs, domain.ChatTurn{Role: domain.RoleSystem, Content: SystemPrompt(ExtractKeywords(history))})
	for _, turn := range history {
		if turn.Role == domain.RoleSystem {
			continue
		}
		msgs = append(msgs, turn)
	}
	return append(msgs, domain.ChatTurn{Role: domain.RoleUser, Content: userText})
}
