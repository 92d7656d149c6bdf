package narrative

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validJSON = `{
  "name": "지민",
  "stage": "준비기",
  "quests": [
    {"title": "아침 햇빛 쬐기", "unlock_condition": "즉시 시작 가능", "completion_condition": "베란다에서 5분", "reward": "경험치 +10"},
    {"title": "편의점 다녀오기", "unlock_condition": "첫 퀘스트 완료 후", "completion_condition": "음료 1개 구매", "reward": "경험치 +20"},
    {"title": "게임 커뮤니티 글쓰기", "unlock_condition": "즉시 시작 가능", "completion_condition": "후기 1개 작성", "reward": "경험치 +15"}
  ]
}`

func TestParseDesign_JSONFence(t *testing.T) {
	out := "분석을 마쳤어요.\n```json\n" + validJSON + "\n```\n화이팅!"
	d, err := ParseDesign(out)
	require.NoError(t, err)
	assert.Equal(t, "준비기", d.Stage)
	require.Len(t, d.Quests, 3)
	assert.Equal(t, "아침 햇빛 쬐기", d.Quests[0].Title)
	assert.Equal(t, "경험치 +20", d.Quests[1].Reward)
	for _, q := range d.Quests {
		assert.False(t, q.Completed)
		assert.Empty(t, q.ID)
	}
}

func TestParseDesign_PlainFence(t *testing.T) {
	d, err := ParseDesign("```\n" + validJSON + "\n```")
	require.NoError(t, err)
	assert.Len(t, d.Quests, 3)
}

func TestParseDesign_BareObjectInProse(t *testing.T) {
	// The lazy first-brace candidate is truncated; the nested candidate wins.
	d, err := ParseDesign("결과는 다음과 같습니다: " + validJSON + " 감사합니다.")
	require.NoError(t, err)
	assert.Len(t, d.Quests, 3)
	assert.Equal(t, "게임 커뮤니티 글쓰기", d.Quests[2].Title)
}

func TestParseDesign_RepairsTrailingCommaAndQuotes(t *testing.T) {
	broken := "```json\n{'stage': 'action', 'quests': [" +
		"{'title': 'a b', 'unlock_condition': 'u', 'completion_condition': 'c', 'reward': '+1'}," +
		"{'title': 'c d', 'unlock_condition': 'u', 'completion_condition': 'c', 'reward': 5}," +
		"{'title': 'e f', 'unlock_condition': 'u', 'completion_condition': 'c', 'reward': '+3'},]}\n```"
	d, err := ParseDesign(broken)
	require.NoError(t, err)
	assert.Equal(t, "action", d.Stage)
	assert.Equal(t, "5", d.Quests[1].Reward, "numeric reward is accepted as text")
}

func TestParseDesign_TruncatesExtraQuests(t *testing.T) {
	out := `{"stage":"유지기","quests":[
	{"title":"1","unlock_condition":"u","completion_condition":"c","reward":"r"},
	{"title":"2","unlock_condition":"u","completion_condition":"c","reward":"r"},
	{"title":"3","unlock_condition":"u","completion_condition":"c","reward":"r"},
	{"title":"4","unlock_condition":"u","completion_condition":"c","reward":"r"}]}`
	d, err := ParseDesign(out)
	require.NoError(t, err)
	require.Len(t, d.Quests, 3)
	assert.Equal(t, "3", d.Quests[2].Title)
}

func TestParseDesign_NoPayload(t *testing.T) {
	_, err := ParseDesign("오늘은 퀘스트를 만들 수 없어요.")
	assert.ErrorIs(t, err, ErrNoPayload)

	_, err = ParseDesign(`{"hello": "world"}`)
	assert.ErrorIs(t, err, ErrNoPayload, "objects without quests or stage are ignored")
}

func TestParseDesign_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty quests":   `{"stage":"준비기","quests":[]}`,
		"too few":        `{"stage":"준비기","quests":[{"title":"a","unlock_condition":"u","completion_condition":"c","reward":"r"}]}`,
		"missing reward": `{"quests":[{"title":"a","unlock_condition":"u","completion_condition":"c"},{"title":"b","unlock_condition":"u","completion_condition":"c","reward":"r"},{"title":"c","unlock_condition":"u","completion_condition":"c","reward":"r"}]}`,
		"blank title":    `{"quests":[{"title":"  ","unlock_condition":"u","completion_condition":"c","reward":"r"},{"title":"b","unlock_condition":"u","completion_condition":"c","reward":"r"},{"title":"c","unlock_condition":"u","completion_condition":"c","reward":"r"}]}`,
		"quests object":  `{"stage":"준비기","quests":{"title":"a"}}`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDesign(in)
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

func TestValidate_ReportsFirstMissingFieldInOrder(t *testing.T) {
	p := payload{Quests: []payloadQuest{
		{UnlockCondition: "u", CompletionCondition: "c"},
		{Title: "b", UnlockCondition: "u", CompletionCondition: "c", Reward: "r"},
		{Title: "c", UnlockCondition: "u", CompletionCondition: "c", Reward: "r"},
	}}
	for i := 0; i < 20; i++ {
		_, err := validate(p)
		require.Error(t, err)
		assert.Equal(t, "quest 0: missing title", err.Error())
	}

	p.Quests[0].Title = "a"
	_, err := validate(p)
	assert.EqualError(t, err, "quest 0: missing reward")
}

func TestCandidates_Order(t *testing.T) {
	out := "```json\n{\"stage\":\"a\"}\n```\n" + `{"stage":"b"}`
	c := Candidates(out)
	require.NotEmpty(t, c)
	assert.Equal(t, `{"stage":"a"}`, c[0])
	assert.Contains(t, c, `{"stage":"b"}`)
}
