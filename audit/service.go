package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/kasuganosora/hikiquest/server/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Actions recorded by the service layer.
const (
	ActionLogin          = "login"
	ActionProfileSave    = "profile_save"
	ActionQuestGenerate  = "quest_generate"
	ActionQuestComplete  = "quest_complete"
	ActionAccountBan     = "account_ban"
	ActionIntakeComplete = "intake_complete"
)

// AuditEntry holds one audit event to be logged.
type AuditEntry struct {
	TraceID    string
	AccountID  *int64
	Action     string
	Target     string
	Request    interface{}
	Response   interface{}
	Error      string
	IP         string
	DurationMs int
}

// Service logs audit entries asynchronously in batches.
// A nil *Service discards entries.
type Service struct {
	db     *gorm.DB
	ch     chan *model.AuditLog
	stopCh chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
	logger *zap.Logger
}

// New creates a new audit Service and starts its background worker.
func New(db *gorm.DB, logger *zap.Logger) *Service {
	svc := &Service{
		db:     db,
		ch:     make(chan *model.AuditLog, 1024),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

func toJSON(v interface{}) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

// Log enqueues an audit entry for async DB write. Entries are dropped with a
// warning when the queue is full or the service has stopped.
func (svc *Service) Log(entry AuditEntry) {
	if svc == nil {
		return
	}
	record := &model.AuditLog{
		TraceID:    entry.TraceID,
		AccountID:  entry.AccountID,
		Action:     entry.Action,
		Target:     entry.Target,
		Request:    toJSON(entry.Request),
		Response:   toJSON(entry.Response),
		Error:      entry.Error,
		IP:         entry.IP,
		DurationMs: entry.DurationMs,
	}
	select {
	case <-svc.stopCh:
		svc.logger.Warn("audit stopped, dropping entry", zap.String("action", entry.Action))
		return
	default:
	}
	select {
	case svc.ch <- record:
	default:
		svc.logger.Warn("audit channel full, dropping entry",
			zap.String("action", entry.Action))
	}
}

// Recent returns the newest audit rows for an account, newest first.
func (svc *Service) Recent(ctx context.Context, accountID int64, limit int) ([]model.AuditLog, error) {
	if svc == nil {
		return []model.AuditLog{}, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []model.AuditLog
	err := svc.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// Stop flushes remaining entries and shuts down the worker.
// It blocks until the worker goroutine has finished.
func (svc *Service) Stop(_ context.Context) {
	if svc == nil {
		return
	}
	svc.once.Do(func() { close(svc.stopCh) })
	svc.wg.Wait()
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	batch := make([]*model.AuditLog, 0, 100)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("audit batch write failed", zap.Error(err), zap.Int("rows", len(batch)))
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-svc.ch:
			batch = append(batch, entry)
			if len(batch) >= 100 {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			for {
				select {
				case entry := <-svc.ch:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}
