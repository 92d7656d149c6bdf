package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/kasuganosora/hikiquest/server/audit"
	"github.com/kasuganosora/hikiquest/server/cache"
	"github.com/kasuganosora/hikiquest/server/metrics"
	"github.com/kasuganosora/hikiquest/server/quest"
	"go.uber.org/zap"
)

var (
	// ErrNoSession is returned when the account has no intake in progress.
	ErrNoSession = errors.New("intake: no session")
	// ErrFinished is returned when answering after the last question.
	ErrFinished = errors.New("intake: already finished")
)

const (
	defaultSessionTTL = 2 * time.Hour
	feedbackTimeout   = 10 * time.Second
)

var encouragements = []string{
	"답변해주셔서 감사합니다! 😊",
	"잘하고 계세요! 👍",
	"소중한 정보네요!",
	"계속해서 차근차근 진행해볼게요.",
	"훌륭합니다! 🌟",
}

// Feedbacker produces a short reaction to an answer.
type Feedbacker interface {
	Healthy() bool
	Feedback(ctx context.Context, category, question, answer string, percent int) (string, error)
}

// ProfileSaver stores the finished profile and returns its assessment.
type ProfileSaver interface {
	SaveProfile(ctx context.Context, accountID int64, p quest.Profile, meta quest.Meta) (quest.Assessment, error)
}

// Session is the persisted state of one account's intake.
type Session struct {
	Index     int           `json:"index"`
	Profile   quest.Profile `json:"profile"`
	StartedAt time.Time     `json:"started_at"`
}

// Done reports whether every question has been answered.
func (s Session) Done() bool { return s.Index >= len(questions) }

// Step is the outcome of Start or Answer.
type Step struct {
	Feedback   string            `json:"feedback,omitempty"`
	Question   *Question         `json:"question,omitempty"`
	Index      int               `json:"index"`
	Total      int               `json:"total"`
	Percent    int               `json:"percent"`
	Done       bool              `json:"done"`
	Assessment *quest.Assessment `json:"assessment,omitempty"`
}

// Service drives intake sessions stored in the cache.
type Service struct {
	cache    cache.Cache
	saver    ProfileSaver
	feedback Feedbacker
	ttl      time.Duration
	audit    *audit.Service
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// Options configures a Service. Feedback, Audit and Metrics are optional.
type Options struct {
	Cache    cache.Cache
	Saver    ProfileSaver
	Feedback Feedbacker
	TTL      time.Duration
	Audit    *audit.Service
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// NewService creates an intake Service.
func NewService(opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = defaultSessionTTL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		cache:    opts.Cache,
		saver:    opts.Saver,
		feedback: opts.Feedback,
		ttl:      opts.TTL,
		audit:    opts.Audit,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}
}

func sessionKey(accountID int64) string {
	return "intake:" + strconv.FormatInt(accountID, 10)
}

// Start begins a fresh intake, discarding any previous one, and returns the
// first question.
func (svc *Service) Start(ctx context.Context, accountID int64) (Step, error) {
	s := Session{StartedAt: time.Now()}
	s.Profile.MentalState.AnxietyLevel = quest.MinAnxiety
	s.Profile.Normalize()
	if err := svc.save(ctx, accountID, s); err != nil {
		return Step{}, err
	}
	return stepAt(s.Index), nil
}

// Current returns the session in progress.
func (svc *Service) Current(ctx context.Context, accountID int64) (Session, error) {
	raw, err := svc.cache.Get(ctx, sessionKey(accountID))
	if err != nil {
		if cache.IsNotFound(err) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("load intake session: %w", err)
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Session{}, fmt.Errorf("decode intake session: %w", err)
	}
	return s, nil
}

// Answer records the answer to the current question. After the last
// question the profile is saved and the step carries its assessment.
func (svc *Service) Answer(ctx context.Context, accountID int64, answer string, meta quest.Meta) (Step, error) {
	s, err := svc.Current(ctx, accountID)
	if err != nil {
		return Step{}, err
	}
	if s.Done() {
		return Step{}, ErrFinished
	}
	q := questions[s.Index]
	if err := Apply(&s.Profile, q.Key, answer); err != nil {
		return Step{}, err
	}
	s.Index++
	svc.metrics.IntakeAnswer()

	if s.Done() {
		return svc.finish(ctx, accountID, s, meta)
	}
	if err := svc.save(ctx, accountID, s); err != nil {
		return Step{}, err
	}
	step := stepAt(s.Index)
	step.Feedback = svc.react(ctx, q, answer, percent(s.Index))
	return step, nil
}

func (svc *Service) finish(ctx context.Context, accountID int64, s Session, meta quest.Meta) (Step, error) {
	s.Profile.Normalize()
	a, err := svc.saver.SaveProfile(ctx, accountID, s.Profile, meta)
	if err != nil {
		return Step{}, err
	}
	if err := svc.save(ctx, accountID, s); err != nil {
		svc.logger.Warn("failed to mark intake finished", zap.Int64("account_id", accountID), zap.Error(err))
	}
	svc.audit.Log(audit.AuditEntry{
		TraceID:    meta.TraceID,
		AccountID:  &accountID,
		Action:     audit.ActionIntakeComplete,
		Response:   a,
		IP:         meta.IP,
		DurationMs: int(time.Since(s.StartedAt).Milliseconds()),
	})
	svc.logger.Info("intake completed",
		zap.Int64("account_id", accountID),
		zap.String("stage", string(a.Stage)))
	return Step{
		Index:      s.Index,
		Total:      len(questions),
		Percent:    100,
		Done:       true,
		Assessment: &a,
	}, nil
}

func (svc *Service) react(ctx context.Context, q Question, answer string, pct int) string {
	if svc.feedback != nil && svc.feedback.Healthy() {
		fctx, cancel := context.WithTimeout(ctx, feedbackTimeout)
		defer cancel()
		msg, err := svc.feedback.Feedback(fctx, q.Category, q.Question, answer, pct)
		if err == nil && msg != "" {
			return msg
		}
		svc.logger.Warn("intake feedback failed", zap.String("key", q.Key), zap.Error(err))
	}
	return encouragements[rand.IntN(len(encouragements))]
}

func (svc *Service) save(ctx context.Context, accountID int64, s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := svc.cache.Set(ctx, sessionKey(accountID), string(data), svc.ttl); err != nil {
		return fmt.Errorf("save intake session: %w", err)
	}
	return nil
}

func stepAt(index int) Step {
	q := questions[index]
	return Step{Question: &q, Index: index, Total: len(questions), Percent: percent(index)}
}

func percent(answered int) int {
	return answered * 100 / len(questions)
}
