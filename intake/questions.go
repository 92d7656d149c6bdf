// Package intake runs the guided self-report questionnaire that fills a
// quest.Profile one answer at a time.
package intake

// Question is one intake prompt. Key names the profile field it fills.
type Question struct {
	Category string `json:"category"`
	Question string `json:"question"`
	Key      string `json:"key"`
}

var questions = []Question{
	{Category: "기본 프로파일", Question: "안녕하세요! 먼저 성함을 알려주세요. (정확히 이름 석 자만 입력해주세요!)", Key: "name"},
	{Category: "기본 프로파일", Question: "나이를 알려주세요. (정확히 숫자만 입력해주세요!)", Key: "age"},
	{Category: "기본 프로파일", Question: "성별을 알려주세요. (예: 남성/여성)", Key: "gender"},
	{Category: "기본 프로파일", Question: "현재 어떤 형태로 거주하고 계신가요? (예: 1인 가구, 가족과 거주 등)", Key: "livingSituation"},
	{Category: "기본 프로파일", Question: "거주지 유형을 알려주세요. (예: 도시/시골, 고층아파트/주택 등)", Key: "environment"},

	{Category: "은둔 상태", Question: "은둔 생활을 시작하신 시점이 언제인지 알려주세요. (예: 2022년 5월부터 등)", Key: "startDate"},
	{Category: "은둔 상태", Question: "하루 평균 방 밖에서 활동하는 시간은 얼마나 되나요?", Key: "avgOutTimePerDay"},
	{Category: "은둔 상태", Question: "최근 한 달간 외출하신 횟수를 알려주세요.", Key: "outingsLastMonth"},
	{Category: "은둔 상태", Question: "외출하실 때 주로 어디에 가시나요? (예: 편의점, 병원, 아예 안 감 등)", Key: "usualDestinations"},

	{Category: "심리/정서", Question: "외출에 대한 불안감은 1~5점 중 어느 정도인가요? (1: 전혀 없음, 5: 매우 심함)", Key: "anxietyLevel"},
	{Category: "심리/정서", Question: "타인과 대화나 접촉에 대한 부담감이 있나요? 있다면 어떤 상황이 특히 부담스러운지 알려주세요.", Key: "socialDiscomfort"},
	{Category: "심리/정서", Question: "최근 한 달간 우울, 불면, 불안 등의 정서적 어려움을 경험하셨나요?", Key: "emotionalIssues"},
	{Category: "심리/정서", Question: "자기효능감(내가 할 수 있다는 느낌)이나 자존감은 어떤 편인가요?", Key: "selfEfficacy"},

	{Category: "디지털 사용", Question: "하루에 스마트폰이나 PC를 얼마나 사용하시나요?", Key: "dailyScreenTime"},
	{Category: "디지털 사용", Question: "자주 사용하는 앱이나 플랫폼은 무엇인가요?", Key: "platforms"},
	{Category: "디지털 사용", Question: "온라인에서 관계를 맺고 있는 사람이 있나요? (예: 게임 친구, 커뮤니티 친구 등)", Key: "onlineConnections"},

	{Category: "흥미/관심사", Question: "요즘 좋아하는 콘텐츠가 있다면 알려주세요. (예: 장르, 게임, 음악 등)", Key: "likes"},
	{Category: "흥미/관심사", Question: "막연하게라도 하고 싶은 일이 있나요?", Key: "goals"},
	{Category: "흥미/관심사", Question: "싫어하거나 피하는 활동, 장소, 사람 유형이 있다면 알려주세요.", Key: "dislikes"},

	{Category: "건강/체력", Question: "만성질환이 있으신가요?", Key: "chronicConditions"},
	{Category: "건강/체력", Question: "수면과 식사 습관은 어떤 편인가요?", Key: "lifestyle"},
	{Category: "건강/체력", Question: "간단한 산책이나 가벼운 활동은 가능한가요?", Key: "physicalAbility"},
	{Category: "건강/체력", Question: "현재 복용 중인 약이 있나요?", Key: "medication"},

	{Category: "과거 경험", Question: "이전에 외출을 시도해본 적이 있나요?", Key: "triedToGoOut"},
	{Category: "과거 경험", Question: "어떤 계기로 나간 적이 있나요?", Key: "motivators"},
	{Category: "과거 경험", Question: "시도했지만 실패하거나 중단한 이유가 있다면 말씀해주세요.", Key: "failReasons"},
}

// Questions returns the ordered questionnaire.
func Questions() []Question {
	return append([]Question(nil), questions...)
}

// Total is the number of questions.
func Total() int { return len(questions) }
