package quest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedSet(titles ...string) QuestSet {
	set := QuestSet{Stage: StagePrecontemplation}
	for _, t := range titles {
		set.Quests = append(set.Quests, Quest{Title: t, Completed: true})
	}
	return set
}

func TestGenerate_EmptyHistoryReturnsTemplates(t *testing.T) {
	p := baseProfile()
	p.MentalState.AnxietyLevel = 5
	st := Classify(p)
	require.Equal(t, StagePrecontemplation, st)

	qs := NewEngine(nil).Generate(p, st, nil)
	require.Len(t, qs, 3)
	assert.Equal(t, "좋아하는 콘텐츠 감상하기", qs[0].Title)
	assert.Equal(t, "창문 근처에서 시간 보내기", qs[1].Title)
	assert.Equal(t, "온라인 소통 시도하기", qs[2].Title)
	for i, q := range qs {
		assert.False(t, q.Completed)
		assert.Nil(t, q.CompletedAt)
		assert.Equal(t, "quest_precontemplation_"+string(rune('1'+i)), q.ID)
	}
	assert.Equal(t, "관심 콘텐츠 관련 영상/음악 30분 감상", qs[0].CompletionCondition)
	assert.Equal(t, "온라인 플랫폼에서 긍정적인 댓글 1개 작성", qs[2].CompletionCondition)
}

func TestGenerate_AlwaysThree(t *testing.T) {
	e := NewEngine(nil)
	for _, st := range Stages {
		assert.Len(t, e.Generate(baseProfile(), st, nil), 3, st)
		assert.Len(t, e.Generate(baseProfile(), st, []QuestSet{completedSet("x")}), 3, st)
	}
}

func TestGenerate_Interpolation(t *testing.T) {
	p := baseProfile()
	p.Interests.Likes = []string{"힙합", "게임"}
	p.Interests.Goals = "유튜브 콘텐츠 제작"
	p.DigitalBehavior.Platforms = []string{"디스코드"}
	e := NewEngine(nil)

	pre := e.Generate(p, StagePrecontemplation, nil)
	assert.Equal(t, "힙합 관련 영상/음악 30분 감상", pre[0].CompletionCondition)
	assert.Equal(t, "디스코드에서 긍정적인 댓글 1개 작성", pre[2].CompletionCondition)

	con := e.Generate(p, StageContemplation, nil)
	assert.Equal(t, "유튜브 콘텐츠 제작 관련 정보 1시간 탐색", con[1].CompletionCondition)

	act := e.Generate(p, StageAction, nil)
	assert.Equal(t, "힙합 관련 실제 활동 2시간 진행", act[1].CompletionCondition)

	mnt := e.Generate(baseProfile(), StageMaintenance, nil)
	assert.Equal(t, "목표 활동에 실제로 도전해보기", mnt[2].CompletionCondition)
}

func TestGenerate_EscalatesCompletedFamily(t *testing.T) {
	history := []QuestSet{completedSet("좋아하는 콘텐츠 감상하기")}
	qs := NewEngine(nil).Generate(baseProfile(), StagePrecontemplation, history)

	assert.Equal(t, "좋아하는 콘텐츠 감상하기 (향상된 버전)", qs[0].Title)
	assert.Equal(t, "관심 콘텐츠 관련 영상/음악 45분 감상", qs[0].CompletionCondition)
	assert.Equal(t, "성취감 포인트 +11", qs[0].Reward, "ceil(10*1.1)")

	// Untouched families.
	assert.Equal(t, "창문 근처에서 시간 보내기", qs[1].Title)
	assert.Equal(t, "자연광 보너스 +15", qs[1].Reward)
	assert.Equal(t, "온라인 소통 시도하기", qs[2].Title)
}

func TestGenerate_IncompleteHistoryDoesNotEscalate(t *testing.T) {
	history := []QuestSet{{Quests: []Quest{{Title: "좋아하는 콘텐츠 감상하기"}}}}
	qs := NewEngine(nil).Generate(baseProfile(), StagePrecontemplation, history)
	assert.Equal(t, "좋아하는 콘텐츠 감상하기", qs[0].Title)
}

func TestGenerate_TokenMatchIsFirstWordOnly(t *testing.T) {
	// "온라인" is the first word of both a precontemplation and a preparation title.
	history := []QuestSet{completedSet("온라인 소통 시도하기")}
	qs := NewEngine(nil).Generate(baseProfile(), StagePreparation, history)
	assert.Equal(t, "온라인 친구와 소통하기 (향상된 버전)", qs[2].Title)
	assert.Equal(t, "온라인 친구와 45분 이상 대화하기", qs[2].CompletionCondition)
	assert.Equal(t, "사회성 경험치 +44", qs[2].Reward)
	assert.Equal(t, "집 앞 짧은 산책", qs[0].Title)
}

func TestScaleMinutes(t *testing.T) {
	assert.Equal(t, "집 앞에서 15분간 신선한 공기 마시기", scaleMinutes("집 앞에서 10분간 신선한 공기 마시기"))
	assert.Equal(t, "11분 걷기", scaleMinutes("7분 걷기"))
	assert.Equal(t, "3분 그리고 6분", scaleMinutes("2분 그리고 4분"))
	assert.Equal(t, "일주일에 3회 이상 외출하기 (더 적극적으로)", scaleMinutes("일주일에 3회 이상 외출하기"))
}

func TestMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, Multiplier(0))
	assert.Equal(t, 1.1, Multiplier(1))
	assert.Equal(t, 1.5, Multiplier(5))
	for _, n := range []int{10, 11, 50, 1000} {
		assert.Equal(t, 2.0, Multiplier(n), n)
	}
}

func TestEscalatedReward(t *testing.T) {
	// +N becomes ceil(N*multiplier) and never shrinks.
	for total := 0; total <= 25; total++ {
		for _, n := range []int{1, 7, 10, 15, 33, 100} {
			got := ceilTenths(n, multiplierTenths(total))
			assert.GreaterOrEqual(t, got, n)
		}
	}
	assert.Equal(t, "성취 마스터 +200", scaleNumbers(pointsRe, "성취 마스터 +100", "+", "", multiplierTenths(12)))
	assert.Equal(t, "체력 회복 +17", scaleNumbers(pointsRe, "체력 회복 +15", "+", "", multiplierTenths(1)), "ceil(16.5)")
	assert.Equal(t, "보상 +4 그리고 +10", scaleNumbers(pointsRe, "보상 +3 그리고 +7", "+", "", multiplierTenths(3)))
}

func TestGenerate_MultiplierFromTotalAcrossSets(t *testing.T) {
	history := []QuestSet{
		completedSet("집 앞 짧은 산책", "a", "b"),
		completedSet("c", "d", "e", "f", "g", "h", "i", "j"),
	}
	qs := NewEngine(nil).Generate(baseProfile(), StagePreparation, history)
	assert.Equal(t, "집 앞 짧은 산책 (향상된 버전)", qs[0].Title)
	assert.Equal(t, "집 앞에서 15분간 신선한 공기 마시기", qs[0].CompletionCondition)
	assert.Equal(t, "체력 회복 +40", qs[0].Reward, "11 completed caps at 2x")
}

func TestGenerate_DoesNotMutateHistory(t *testing.T) {
	history := []QuestSet{completedSet("좋아하는 콘텐츠 감상하기")}
	_ = NewEngine(nil).Generate(baseProfile(), StagePrecontemplation, history)
	assert.Equal(t, "좋아하는 콘텐츠 감상하기", history[0].Quests[0].Title)
}

func TestNewCatalog_Validation(t *testing.T) {
	_, err := NewCatalog(map[Stage][]Template{StageAction: {{Title: "x"}}})
	assert.Error(t, err)

	templates := defaultTemplates()
	templates["bogus"] = []Template{{}, {}, {}}
	_, err = NewCatalog(templates)
	assert.Error(t, err)

	c, err := NewCatalog(defaultTemplates())
	require.NoError(t, err)
	ts := c.Templates(StageAction)
	ts[0].Title = "changed"
	assert.Equal(t, "새로운 장소 탐험하기", c.Templates(StageAction)[0].Title, "catalog is read-only")
}

func TestAggregate(t *testing.T) {
	empty := Aggregate(nil)
	assert.Empty(t, empty.CompletedTokens)
	assert.Equal(t, 0, empty.TotalCompleted)

	sets := []QuestSet{
		completedSet("좋아하는 콘텐츠 감상하기", "좋아하는 음악 듣기"),
		{Quests: []Quest{{Title: "창문 근처에서", Completed: false}, {Title: "  온라인  소통", Completed: true}}},
	}
	sum := Aggregate(sets)
	assert.Equal(t, 3, sum.TotalCompleted)
	assert.True(t, sum.Has("좋아하는"))
	assert.True(t, sum.Has("온라인"))
	assert.False(t, sum.Has("창문"))
	assert.Equal(t, sum, Aggregate(sets), "idempotent")

	reversed := []QuestSet{sets[1], sets[0]}
	assert.Equal(t, sum, Aggregate(reversed), "order independent")
}

func TestQuestSetClone_IsDeep(t *testing.T) {
	set := completedSet("a")
	cp := set.Clone()
	cp.Quests[0].Completed = false
	assert.True(t, set.Quests[0].Completed)
}
