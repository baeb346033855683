package queue

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/pkg/logger"
)

const keepFailed = 100

// FailedJob is a job that exhausted its attempts.
type FailedJob struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	JobType  string    `gorm:"size:255;not null;index" json:"job_type"`
	Payload  string    `gorm:"type:text;not null" json:"payload"`
	Error    string    `gorm:"type:text" json:"error"`
	FailedAt time.Time `gorm:"not null" json:"failed_at"`
}

func (FailedJob) TableName() string { return "wellness_failed_jobs" }

// UseDB persists failed jobs to db. The table comes from the migrations.
func (m *Manager) UseDB(db *gorm.DB) {
	m.mu.Lock()
	m.db = db
	m.mu.Unlock()
}

func (m *Manager) recordFailure(ctx context.Context, env envelope, cause error) {
	f := FailedJob{JobType: env.Type, Payload: string(env.Payload), FailedAt: time.Now().UTC()}
	if cause != nil {
		f.Error = cause.Error()
	}
	logger.Error("queue: job exhausted attempts", "type", env.Type, "error", f.Error)

	m.mu.Lock()
	m.failed = append(m.failed, f)
	if len(m.failed) > keepFailed {
		m.failed = m.failed[len(m.failed)-keepFailed:]
	}
	db := m.db
	m.mu.Unlock()

	if db == nil {
		return
	}
	if err := db.WithContext(context.WithoutCancel(ctx)).Create(&f).Error; err != nil {
		logger.Error("queue: persist failed job", "type", env.Type, "error", err)
	}
}

// Failed lists the most recent failures, newest first. It reads the
// database when one is configured.
func (m *Manager) Failed(ctx context.Context, limit int) ([]FailedJob, error) {
	if limit <= 0 {
		limit = 20
	}
	m.mu.RLock()
	db := m.db
	mem := append([]FailedJob(nil), m.failed...)
	m.mu.RUnlock()

	if db != nil {
		var out []FailedJob
		err := db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&out).Error
		return out, err
	}
	out := make([]FailedJob, 0, limit)
	for i := len(mem) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, mem[i])
	}
	return out, nil
}
