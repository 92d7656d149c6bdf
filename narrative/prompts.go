package narrative

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/kasuganosora/hikiquest/server/quest"
)

func questSystemPrompt(userName string) string {
	if userName == "" {
		userName = "사용자"
	}
	return fmt.Sprintf(`너는 '히키코모리 회복 지원 앱'의 스마트 퀘스트 설계자야.
지금 너는 데이터베이스에서 %[1]s의 문진 정보를 불러온 상태야.
아래 3단계에 따라 분석하고 사용자 맞춤형 퀘스트를 설계해줘.
분석 과정은 사용자에게 보여주지 마.

1단계: 변화 단계 분류
문진 데이터를 분석해서 변화 단계 모델 중 어디에 해당하는지 판단해줘.
(무관심기 / 숙고기 / 준비기 / 행동기 / 유지기 중 하나)

2단계: 퀘스트 3개 설계
- 무리한 외출이나 과도한 사회 활동은 피할 것
- 사용자의 관심사와 디지털 습관을 반영할 것
- 작고 실현 가능한 행동부터 시작해 작은 성공 경험을 줄 것
각 퀘스트는 제목, 해금 조건, 달성 조건, 보상(예: 경험치 +20)을 가져야 해.

3단계: JSON 정리
최종 결과는 반드시 아래 형식의 JSON 하나로만 출력해줘.

{
  "name": "%[1]s",
  "stage": "변화 단계 (예: 준비기)",
  "quests": [
    {
      "title": "퀘스트 제목",
      "unlock_condition": "해금 조건",
      "completion_condition": "달성 조건",
      "reward": "보상"
    }
  ]
}`, userName)
}

const assessmentSystemPrompt = `너는 '히키코모리 회복 지원 앱'의 따뜻한 상담사야.
사용자는 회복 여정을 위한 문진에 한 문항씩 답하고 있어.
말투는 친근하고 부담 주지 않게 해. 진단이나 평가는 하지 마.`

var questUserTmpl = template.Must(template.New("quest_user").Funcs(template.FuncMap{
	"join": func(xs []string) string { return strings.Join(xs, ", ") },
	"inc":  func(i int) int { return i + 1 },
	"yesno": func(b bool) string {
		if b {
			return "있음"
		}
		return "없음"
	},
}).Parse(`{{.P.Name}}님의 문진 정보:

[기본 정보]
- 이름: {{.P.Name}}
- 나이: {{.P.Age}}세
- 성별: {{.P.Gender}}
- 거주 형태: {{.P.Residence.LivingSituation}}
- 거주 환경: {{.P.Residence.Environment}}

[은둔 상태]
- 시작 시점: {{.P.HikikomoriStatus.StartDate}}
- 일일 방밖 활동: {{.P.HikikomoriStatus.AvgOutTimePerDay}}
- 최근 한달 외출: {{.P.HikikomoriStatus.OutingsLastMonth}}회
- 주요 외출지: {{join .P.HikikomoriStatus.UsualDestinations}}

[심리/정서 상태]
- 외출 불안감: {{.P.MentalState.AnxietyLevel}}/5
- 사회적 부담감: {{.P.MentalState.SocialDiscomfort}}
- 정서적 어려움: {{join .P.MentalState.EmotionalIssues}}
- 자기효능감: {{.P.MentalState.SelfEfficacy}}

[디지털 사용]
- 일일 사용시간: {{.P.DigitalBehavior.DailyScreenTime}}
- 주요 플랫폼: {{join .P.DigitalBehavior.Platforms}}
- 온라인 관계: {{.P.DigitalBehavior.OnlineConnections}}

[관심사]
- 좋아하는 것: {{join .P.Interests.Likes}}
- 목표/희망: {{.P.Interests.Goals}}
- 싫어하는 것: {{join .P.Interests.Dislikes}}

[건강 상태]
- 만성질환: {{.P.Health.ChronicConditions}}
- 생활습관: {{.P.Health.Lifestyle}}
- 신체능력: {{.P.Health.PhysicalAbility}}
- 복용약물: {{.P.Health.Medication}}

[과거 경험]
- 외출 시도 경험: {{yesno .P.PastExperiences.TriedToGoOut}}
- 동기 요인: {{join .P.PastExperiences.Motivators}}
- 실패 요인: {{join .P.PastExperiences.FailReasons}}

{{if .History}}[이전 퀘스트 히스토리]
{{range $i, $h := .History}}{{inc $i}}차 퀘스트 ({{$h.Stage}}): {{$h.Completed}}/{{$h.Total}} 완료
  - 퀘스트 목록: {{$h.Titles}}
{{end}}{{else}}[이전 퀘스트 기록] 없음 (첫 퀘스트 생성)
{{end}}
위 데이터를 바탕으로 3단계 분석을 진행하고 맞춤형 퀘스트를 설계해줘!`))

type historyLine struct {
	Stage     string
	Completed int
	Total     int
	Titles    string
}

func questUserPrompt(p quest.Profile, history []quest.QuestSet) (string, error) {
	lines := make([]historyLine, 0, len(history))
	for _, set := range history {
		titles := make([]string, 0, len(set.Quests))
		for _, q := range set.Quests {
			state := "미완료"
			if q.Completed {
				state = "완료"
			}
			titles = append(titles, fmt.Sprintf("%s (%s)", q.Title, state))
		}
		lines = append(lines, historyLine{
			Stage:     set.Stage.Label(),
			Completed: set.CompletedCount(),
			Total:     len(set.Quests),
			Titles:    strings.Join(titles, ", "),
		})
	}
	var b strings.Builder
	err := questUserTmpl.Execute(&b, struct {
		P       quest.Profile
		History []historyLine
	}{P: p, History: lines})
	return b.String(), err
}

func completionPrompt(q quest.Quest, completed, total int) string {
	return fmt.Sprintf(`사용자가 퀘스트를 완료했어:
- 완료한 퀘스트: %s
- 획득 보상: %s
- 전체 진행률: %d/%d

축하 메시지와 격려의 말을 해줘! 게임적 요소를 활용해서 재미있게!`, q.Title, q.Reward, completed, total)
}

func feedbackPrompt(category, question, answer string, percent int) string {
	return fmt.Sprintf(`현재 문진 상황:
- 카테고리: %s
- 질문: %s
- 사용자 응답: %s
- 진행률: %d%%

사용자의 응답에 대해 따뜻한 피드백을 1-2문장으로 제공해줘.`, category, question, answer, percent)
}
