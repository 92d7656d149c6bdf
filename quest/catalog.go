package quest

import (
	"fmt"
	"regexp"
	"strings"
)

// Template is a parameterized quest blueprint.
//
// Text fields may contain placeholders of the form {like|fallback},
// {platform|fallback} or {goal|fallback}. They expand to the profile's first
// liked item, first platform or goal text, or to fallback when that is empty.
type Template struct {
	Title      string `json:"title"`
	Unlock     string `json:"unlock_condition"`
	Completion string `json:"completion_condition"`
	Reward     string `json:"reward"`
}

// Catalog holds exactly QuestsPerSet templates for every stage.
// It is read-only after construction.
type Catalog struct {
	templates map[Stage][]Template
}

var placeholderRe = regexp.MustCompile(`\{(like|platform|goal)\|([^}]*)\}`)

// NewCatalog validates and copies the given templates.
func NewCatalog(templates map[Stage][]Template) (*Catalog, error) {
	c := &Catalog{templates: make(map[Stage][]Template, len(Stages))}
	for _, st := range Stages {
		ts := templates[st]
		if len(ts) != QuestsPerSet {
			return nil, fmt.Errorf("catalog: stage %s has %d templates, want %d", st, len(ts), QuestsPerSet)
		}
		c.templates[st] = append([]Template(nil), ts...)
	}
	for st := range templates {
		if !st.Valid() {
			return nil, fmt.Errorf("catalog: unknown stage %q", st)
		}
	}
	return c, nil
}

// Templates returns a copy of the templates for a stage.
func (c *Catalog) Templates(st Stage) []Template {
	return append([]Template(nil), c.templates[st]...)
}

// Instantiate builds the base quests for a stage. Ids are quest_<stage>_<n>
// with n starting at 1.
func (c *Catalog) Instantiate(st Stage, p Profile) []Quest {
	ts := c.templates[st]
	out := make([]Quest, 0, len(ts))
	for i, t := range ts {
		out = append(out, Quest{
			ID:                  fmt.Sprintf("quest_%s_%d", st, i+1),
			Title:               expand(t.Title, p),
			UnlockCondition:     expand(t.Unlock, p),
			CompletionCondition: expand(t.Completion, p),
			Reward:              expand(t.Reward, p),
		})
	}
	return out
}

func expand(text string, p Profile) string {
	if !strings.Contains(text, "{") {
		return text
	}
	return placeholderRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := placeholderRe.FindStringSubmatch(m)
		var v string
		switch sub[1] {
		case "like":
			v = first(p.Interests.Likes)
		case "platform":
			v = first(p.DigitalBehavior.Platforms)
		case "goal":
			v = p.Interests.Goals
		}
		if v == "" {
			return sub[2]
		}
		return v
	})
}

func first(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[0]
}

// DefaultCatalog returns the built-in quest templates.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultTemplates())
	if err != nil {
		panic(err)
	}
	return c
}

func defaultTemplates() map[Stage][]Template {
	return map[Stage][]Template{
		StagePrecontemplation: {
			{Title: "좋아하는 콘텐츠 감상하기", Unlock: "즉시 시작 가능", Completion: "{like|관심 콘텐츠} 관련 영상/음악 30분 감상", Reward: "성취감 포인트 +10"},
			{Title: "창문 근처에서 시간 보내기", Unlock: "첫 번째 퀘스트 완료 후", Completion: "창문 근처에서 5분간 밖을 바라보며 휴식", Reward: "자연광 보너스 +15"},
			{Title: "온라인 소통 시도하기", Unlock: "두 번째 퀘스트 완료 후", Completion: "{platform|온라인 플랫폼}에서 긍정적인 댓글 1개 작성", Reward: "소통 경험치 +20"},
		},
		StageContemplation: {
			{Title: "실내 가벼운 운동하기", Unlock: "컨디션이 좋은 날", Completion: "스트레칭이나 간단한 운동 10분 실시", Reward: "체력 회복 +15"},
			{Title: "관심사 탐구하기", Unlock: "즉시 시작 가능", Completion: "{goal|관심 있는 활동} 관련 정보 1시간 탐색", Reward: "지식 경험치 +25"},
			{Title: "짧은 외출 계획 세우기", Unlock: "앞선 퀘스트 완료 후", Completion: "가까운 거리 외출 계획을 구체적으로 작성하기", Reward: "계획 수립 보너스 +30"},
		},
		StagePreparation: {
			{Title: "집 앞 짧은 산책", Unlock: "날씨가 좋은 날", Completion: "집 앞에서 10분간 신선한 공기 마시기", Reward: "체력 회복 +20"},
			{Title: "필수 용품 구매하기", Unlock: "컨디션 양호한 날", Completion: "가까운 편의점이나 마트에서 필요한 물건 구매", Reward: "실생활 적응 +35"},
			{Title: "온라인 친구와 소통하기", Unlock: "즉시 시작 가능", Completion: "온라인 친구와 30분 이상 대화하기", Reward: "사회성 경험치 +40"},
		},
		StageAction: {
			{Title: "새로운 장소 탐험하기", Unlock: "컨디션이 좋은 날", Completion: "평소 가지 않던 근처 장소 1곳 방문하기", Reward: "탐험 경험치 +45"},
			{Title: "취미 활동 실천하기", Unlock: "즉시 시작 가능", Completion: "{like|관심사} 관련 실제 활동 2시간 진행", Reward: "창작 포인트 +50"},
			{Title: "카페나 도서관 이용하기", Unlock: "앞선 퀘스트들 완료 후", Completion: "공공장소에서 1시간 이상 머물며 활동하기", Reward: "사회 적응 +55"},
		},
		StageMaintenance: {
			{Title: "정기적인 외출 루틴 만들기", Unlock: "매주 실행", Completion: "일주일에 3회 이상 외출하기", Reward: "루틴 마스터 +60"},
			{Title: "새로운 사람과 대화하기", Unlock: "사회적 준비 완료 시", Completion: "모르는 사람과 5분 이상 자연스러운 대화", Reward: "사회성 마스터 +70"},
			{Title: "목표 활동 도전하기", Unlock: "자신감 충분할 때", Completion: "{goal|목표 활동}에 실제로 도전해보기", Reward: "성취 마스터 +100"},
		},
	}
}
