package quest

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/kasuganosora/hikiquest/server/audit"
	"github.com/kasuganosora/hikiquest/server/metrics"
	"github.com/kasuganosora/hikiquest/server/plugin/hook"
	"go.uber.org/zap"
)

// ProfileStore loads and saves account profiles.
type ProfileStore interface {
	Get(ctx context.Context, accountID int64) (Profile, error)
	Put(ctx context.Context, accountID int64, p Profile) error
}

// SetStore is the append-only quest set log.
type SetStore interface {
	Put(ctx context.Context, set QuestSet) (QuestSet, error)
	Latest(ctx context.Context, accountID int64) (QuestSet, error)
	All(ctx context.Context, accountID int64) ([]QuestSet, error)
	UpdateCompletion(ctx context.Context, setID int64, questID string, completed bool) (QuestSet, error)
}

// Design is a quest list proposed by a Narrator. Stage is the narrator's
// free-text stage name and may not parse.
type Design struct {
	Stage  string
	Quests []Quest
}

// Narrator is the optional text-generation collaborator.
type Narrator interface {
	Healthy() bool
	DesignQuests(ctx context.Context, p Profile, history []QuestSet) (Design, error)
	Congratulate(ctx context.Context, q Quest, completed, total int) (string, error)
}

// Locker serializes generation per account. SetNX semantics; Get is used to
// release only a lock that is still ours.
type Locker interface {
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// ErrBusy is returned when a generation for the same account is in flight.
var ErrBusy = errors.New("quest generation already in progress")

// Options configures a Service. Only Profiles and Sets are required.
type Options struct {
	Engine   *Engine
	Profiles ProfileStore
	Sets     SetStore
	Narrator Narrator
	Timeout  time.Duration
	Locker   Locker
	Hooks    *hook.HookCenter
	Audit    *audit.Service
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// Service runs the generation flow around the deterministic engine:
// the narrator is tried first and any failure falls back to Engine.Generate.
type Service struct {
	engine   *Engine
	profiles ProfileStore
	sets     SetStore
	narrator Narrator
	timeout  time.Duration
	locker   Locker
	hooks    *hook.HookCenter
	audit    *audit.Service
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a quest Service.
func NewService(opts Options) *Service {
	if opts.Engine == nil {
		opts.Engine = NewEngine(nil)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		engine:   opts.Engine,
		profiles: opts.Profiles,
		sets:     opts.Sets,
		narrator: opts.Narrator,
		timeout:  opts.Timeout,
		locker:   opts.Locker,
		hooks:    opts.Hooks,
		audit:    opts.Audit,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		now:      time.Now,
	}
}

// Meta carries request context for audit records.
type Meta struct {
	TraceID string
	IP      string
}

// Generated is the result of a generation run.
type Generated struct {
	Set         QuestSet `json:"quest_set"`
	Stage       Stage    `json:"stage"`
	StageLabel  string   `json:"stage_label"`
	StageReason string   `json:"stage_reason"`
	Source      string   `json:"source"`
}

// Assessment is the locally classified stage of a profile.
type Assessment struct {
	Stage       Stage  `json:"stage"`
	StageLabel  string `json:"stage_label"`
	StageReason string `json:"stage_reason"`
}

// Assess classifies the account's stored profile.
func (svc *Service) Assess(ctx context.Context, accountID int64) (Assessment, error) {
	p, err := svc.profiles.Get(ctx, accountID)
	if err != nil {
		return Assessment{}, err
	}
	return assess(p), nil
}

func assess(p Profile) Assessment {
	st := Classify(p)
	return Assessment{Stage: st, StageLabel: st.Label(), StageReason: StageReason(p, st)}
}

func lockKey(accountID int64) string {
	return "lock:generate:" + strconv.FormatInt(accountID, 10)
}

// unlock deletes key only while it still holds token. A lock that expired and
// was taken by another request is left alone.
func (svc *Service) unlock(ctx context.Context, key, token string) {
	held, err := svc.locker.Get(ctx, key)
	if err != nil || held != token {
		return
	}
	if err := svc.locker.Del(ctx, key); err != nil {
		svc.logger.Warn("release generate lock failed", zap.String("key", key), zap.Error(err))
	}
}

// Generate creates and stores a new quest set for the account.
func (svc *Service) Generate(ctx context.Context, accountID int64, meta Meta) (Generated, error) {
	start := svc.now()
	if svc.locker != nil {
		token := uuid.NewString()
		ok, err := svc.locker.SetNX(ctx, lockKey(accountID), token, svc.timeout+10*time.Second)
		if err != nil {
			return Generated{}, fmt.Errorf("generate lock: %w", err)
		}
		if !ok {
			return Generated{}, ErrBusy
		}
		defer svc.unlock(context.WithoutCancel(ctx), lockKey(accountID), token)
	}

	p, err := svc.profiles.Get(ctx, accountID)
	if err != nil {
		return Generated{}, err
	}
	p.Normalize()
	history, err := svc.sets.All(ctx, accountID)
	if err != nil {
		return Generated{}, err
	}

	local := assess(p)
	stage := local.Stage
	source := SourceFallback
	quests, narrStage, ok := svc.tryNarrator(ctx, accountID, p, history)
	if ok {
		source = SourceNarrative
		if parsed, valid := ParseStage(narrStage); valid {
			stage = parsed
		}
	} else {
		quests = svc.engine.Generate(p, local.Stage, history)
	}

	set, err := svc.sets.Put(ctx, QuestSet{
		AccountID: accountID,
		UserName:  p.Name,
		Stage:     stage,
		Source:    source,
		Quests:    quests,
		CreatedAt: svc.now(),
	})
	if err != nil {
		return Generated{}, err
	}

	svc.metrics.Generation(source, string(stage))
	svc.trigger(ctx, &hook.Event{
		Name:      hook.AfterQuestGenerate,
		AccountID: accountID,
		Stage:     string(stage),
		Data:      set,
	})
	svc.audit.Log(audit.AuditEntry{
		TraceID:    meta.TraceID,
		AccountID:  &accountID,
		Action:     audit.ActionQuestGenerate,
		Target:     "set:" + strconv.FormatInt(set.ID, 10),
		Request:    map[string]interface{}{"history": len(history), "local_stage": local.Stage},
		Response:   map[string]interface{}{"stage": stage, "source": source},
		IP:         meta.IP,
		DurationMs: int(svc.now().Sub(start).Milliseconds()),
	})
	svc.logger.Info("quest set generated",
		zap.Int64("account_id", accountID),
		zap.Int64("set_id", set.ID),
		zap.String("stage", string(stage)),
		zap.String("source", source))

	reason := local.StageReason
	if stage != local.Stage {
		reason = StageReason(p, stage)
	}
	return Generated{
		Set:         set,
		Stage:       stage,
		StageLabel:  stage.Label(),
		StageReason: reason,
		Source:      source,
	}, nil
}

// tryNarrator asks the narrator for quests. It never returns an error: every
// failure is logged and reported as ok=false so the caller falls back.
func (svc *Service) tryNarrator(ctx context.Context, accountID int64, p Profile, history []QuestSet) ([]Quest, string, bool) {
	if svc.narrator == nil || !svc.narrator.Healthy() {
		return nil, "", false
	}
	nctx, cancel := context.WithTimeout(ctx, svc.timeout)
	defer cancel()

	start := svc.now()
	design, err := svc.narrator.DesignQuests(nctx, p.Clone(), cloneSets(history))
	svc.metrics.NarrativeLatency(svc.now().Sub(start))
	if err == nil && len(design.Quests) < QuestsPerSet {
		err = fmt.Errorf("narrator returned %d quests", len(design.Quests))
	}
	if err != nil {
		reason := failureReason(err)
		svc.metrics.NarrativeFailure(reason)
		svc.logger.Warn("narrative generation failed, using local engine",
			zap.Int64("account_id", accountID),
			zap.String("reason", reason),
			zap.Error(err))
		return nil, "", false
	}

	quests := make([]Quest, QuestsPerSet)
	for i := range quests {
		q := design.Quests[i]
		quests[i] = Quest{
			ID:                  "quest_" + uuid.NewString(),
			Title:               q.Title,
			UnlockCondition:     q.UnlockCondition,
			CompletionCondition: q.CompletionCondition,
			Reward:              q.Reward,
		}
	}
	return quests, design.Stage, true
}

// reasoner is implemented by collaborator errors that carry a metric label.
type reasoner interface{ Reason() string }

func failureReason(err error) string {
	var r reasoner
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &r):
		return r.Reason()
	default:
		return "invalid_payload"
	}
}

func cloneSets(in []QuestSet) []QuestSet {
	out := make([]QuestSet, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}

// Completion is the result of completing a quest.
type Completion struct {
	Set          QuestSet `json:"quest_set"`
	Quest        Quest    `json:"quest"`
	Message      string   `json:"message"`
	Completed    int      `json:"completed"`
	Total        int      `json:"total"`
	AllCompleted bool     `json:"all_completed"`
}

// Complete marks a quest of the account's latest set as done. Quests of older
// sets are not addressable and yield ErrNotFound.
func (svc *Service) Complete(ctx context.Context, accountID int64, questID string, meta Meta) (Completion, error) {
	start := svc.now()
	latest, err := svc.sets.Latest(ctx, accountID)
	if err != nil {
		return Completion{}, err
	}
	if latest.Find(questID) < 0 {
		return Completion{}, ErrNotFound
	}
	set, err := svc.sets.UpdateCompletion(ctx, latest.ID, questID, true)
	if err != nil {
		return Completion{}, err
	}
	q := set.Quests[set.Find(questID)]
	done, total := set.CompletedCount(), len(set.Quests)

	msg := svc.congratulate(ctx, q, done, total)

	svc.metrics.Completion(string(set.Stage))
	svc.trigger(ctx, &hook.Event{
		Name:      hook.OnQuestComplete,
		AccountID: accountID,
		Stage:     string(set.Stage),
		QuestID:   questID,
		Data:      map[string]interface{}{"title": q.Title, "reward": q.Reward, "completed": done, "total": total},
	})
	svc.audit.Log(audit.AuditEntry{
		TraceID:    meta.TraceID,
		AccountID:  &accountID,
		Action:     audit.ActionQuestComplete,
		Target:     questID,
		Response:   map[string]int{"completed": done, "total": total},
		IP:         meta.IP,
		DurationMs: int(svc.now().Sub(start).Milliseconds()),
	})

	return Completion{
		Set:          set,
		Quest:        q,
		Message:      msg,
		Completed:    done,
		Total:        total,
		AllCompleted: done == total,
	}, nil
}

var encouragements = []string{
	"정말 대단해요! 한 걸음 더 나아가셨습니다! 💪",
	"완료하신 것을 보니 정말 뿌듯합니다! ✨",
	"훌륭합니다! 꾸준히 실천하고 계시는군요! 🌟",
}

func (svc *Service) congratulate(ctx context.Context, q Quest, done, total int) string {
	if svc.narrator != nil && svc.narrator.Healthy() {
		nctx, cancel := context.WithTimeout(ctx, svc.timeout)
		defer cancel()
		msg, err := svc.narrator.Congratulate(nctx, q, done, total)
		if err == nil && msg != "" {
			return msg
		}
		if err != nil {
			svc.metrics.NarrativeFailure(failureReason(err))
			svc.logger.Warn("narrative congratulation failed", zap.String("quest_id", q.ID), zap.Error(err))
		}
	}
	return LocalCongratulation(q, done, total)
}

// LocalCongratulation builds the congratulation text used without a narrator.
func LocalCongratulation(q Quest, done, total int) string {
	msg := fmt.Sprintf("🎉 축하합니다! \"%s\" 완료하셨네요!\n%s\n획득 보상: %s (진행률 %d/%d)",
		q.Title, encouragements[rand.IntN(len(encouragements))], q.Reward, done, total)
	if done == total {
		msg += "\n모든 퀘스트를 완료하셨네요! 새로운 도전을 원하시면 새 퀘스트를 요청해주세요!"
	}
	return msg
}

// Status is the progress of the latest quest set.
type Status struct {
	Set        QuestSet `json:"quest_set"`
	StageLabel string   `json:"stage_label"`
	Completed  int      `json:"completed"`
	Total      int      `json:"total"`
	Percent    int      `json:"percent"`
}

// Latest returns the account's newest quest set.
func (svc *Service) Latest(ctx context.Context, accountID int64) (QuestSet, error) {
	return svc.sets.Latest(ctx, accountID)
}

// Status reports progress on the latest set.
func (svc *Service) Status(ctx context.Context, accountID int64) (Status, error) {
	set, err := svc.sets.Latest(ctx, accountID)
	if err != nil {
		return Status{}, err
	}
	done, total := set.CompletedCount(), len(set.Quests)
	pct := 0
	if total > 0 {
		pct = (done*100 + total/2) / total
	}
	return Status{Set: set, StageLabel: set.Stage.Label(), Completed: done, Total: total, Percent: pct}, nil
}

// History is every quest set of an account, newest first.
type History struct {
	Sets           []QuestSet `json:"quest_sets"`
	TotalCompleted int        `json:"total_completed"`
	Multiplier     float64    `json:"multiplier"`
}

// History returns all quest sets with aggregate counts.
func (svc *Service) History(ctx context.Context, accountID int64) (History, error) {
	sets, err := svc.sets.All(ctx, accountID)
	if err != nil {
		return History{}, err
	}
	sum := Aggregate(sets)
	return History{Sets: sets, TotalCompleted: sum.TotalCompleted, Multiplier: Multiplier(sum.TotalCompleted)}, nil
}

// SaveProfile normalizes and stores a profile, then announces it.
func (svc *Service) SaveProfile(ctx context.Context, accountID int64, p Profile, meta Meta) (Assessment, error) {
	p.Normalize()
	if err := svc.profiles.Put(ctx, accountID, p); err != nil {
		return Assessment{}, err
	}
	a := assess(p)
	svc.trigger(ctx, &hook.Event{
		Name:      hook.OnProfileSaved,
		AccountID: accountID,
		Stage:     string(a.Stage),
	})
	svc.audit.Log(audit.AuditEntry{
		TraceID:   meta.TraceID,
		AccountID: &accountID,
		Action:    audit.ActionProfileSave,
		Response:  a,
		IP:        meta.IP,
	})
	return a, nil
}

// Profile returns the stored profile.
func (svc *Service) Profile(ctx context.Context, accountID int64) (Profile, error) {
	return svc.profiles.Get(ctx, accountID)
}

func (svc *Service) trigger(ctx context.Context, ev *hook.Event) {
	if err := svc.hooks.Trigger(ctx, ev); err != nil && !errors.Is(err, hook.ErrInterrupt) {
		svc.logger.Warn("hook failed", zap.String("event", ev.Name), zap.Error(err))
	}
}
