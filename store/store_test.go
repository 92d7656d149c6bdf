package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/kasuganosora/hikiquest/server/quest"
	"github.com/kasuganosora/hikiquest/server/store"
	"github.com/kasuganosora/hikiquest/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProfile() quest.Profile {
	p := quest.Profile{Name: "지민", Age: 27}
	p.MentalState.AnxietyLevel = 5
	p.Interests.Likes = []string{"게임"}
	return p
}

func TestProfileStore_GetPut(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.NewProfileStore(db)
	ctx := context.Background()

	_, err := s.Get(ctx, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Put(ctx, 1, sampleProfile()))
	got, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "지민", got.Name)
	assert.Equal(t, []string{"게임"}, got.Interests.Likes)
	assert.NotNil(t, got.PastExperiences.FailReasons, "lists are normalized")

	// Replace.
	p := sampleProfile()
	p.Age = 28
	require.NoError(t, s.Put(ctx, 1, p))
	got, err = s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 28, got.Age)

	counts, err := s.CountByStage(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"precontemplation": 1}, counts)
}

func newSet(accountID int64, titles ...string) quest.QuestSet {
	set := quest.QuestSet{AccountID: accountID, Stage: quest.StagePreparation, Source: quest.SourceFallback}
	for i, title := range titles {
		set.Quests = append(set.Quests, quest.Quest{ID: "q" + string(rune('1'+i)), Title: title, Reward: "+10"})
	}
	return set
}

func TestQuestSetStore_PutLatestAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.NewQuestSetStore(db)
	ctx := context.Background()

	_, err := s.Latest(ctx, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)

	first := newSet(1, "a", "b", "c")
	first.CreatedAt = time.Now().Add(-time.Hour)
	saved1, err := s.Put(ctx, first)
	require.NoError(t, err)
	assert.NotZero(t, saved1.ID)

	saved2, err := s.Put(ctx, newSet(1, "d", "e", "f"))
	require.NoError(t, err)
	_, err = s.Put(ctx, newSet(2, "x", "y", "z"))
	require.NoError(t, err)

	latest, err := s.Latest(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, saved2.ID, latest.ID)
	assert.Equal(t, "d", latest.Quests[0].Title)

	all, err := s.All(ctx, 1)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, saved2.ID, all[0].ID, "newest first")
	assert.Equal(t, saved1.ID, all[1].ID)

	none, err := s.All(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestQuestSetStore_PutCopiesQuests(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.NewQuestSetStore(db)
	ctx := context.Background()

	set := newSet(1, "a", "b", "c")
	saved, err := s.Put(ctx, set)
	require.NoError(t, err)

	set.Quests[0].Completed = true
	assert.False(t, saved.Quests[0].Completed)

	latest, _ := s.Latest(ctx, 1)
	assert.False(t, latest.Quests[0].Completed)
}

func TestQuestSetStore_UpdateCompletion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.NewQuestSetStore(db)
	ctx := context.Background()

	older, err := s.Put(ctx, newSet(1, "a", "b", "c"))
	require.NoError(t, err)
	saved, err := s.Put(ctx, newSet(1, "d", "e", "f"))
	require.NoError(t, err)

	updated, err := s.UpdateCompletion(ctx, saved.ID, "q2", true)
	require.NoError(t, err)
	assert.True(t, updated.Quests[1].Completed)
	require.NotNil(t, updated.Quests[1].CompletedAt)
	assert.False(t, updated.Quests[0].Completed)

	_, err = s.UpdateCompletion(ctx, saved.ID, "q2", true)
	assert.ErrorIs(t, err, store.ErrAlreadyCompleted)

	_, err = s.UpdateCompletion(ctx, saved.ID, "q2", false)
	assert.ErrorIs(t, err, store.ErrCompletionReversal)

	_, err = s.UpdateCompletion(ctx, saved.ID, "missing", true)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.UpdateCompletion(ctx, 999, "q1", true)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// A superseded set is no longer writable.
	_, err = s.UpdateCompletion(ctx, older.ID, "q1", true)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Other records keep their own copy.
	all, err := s.All(ctx, 1)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, older.ID, all[1].ID)
	assert.Equal(t, 0, all[1].CompletedCount())
	assert.Equal(t, 1, all[0].CompletedCount())

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Stats{Sets: 2, CompletedQuests: 1}, st)
}
