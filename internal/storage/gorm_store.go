package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dujiao-next/storefront/internal/logger"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultPollInterval = time.Second

// localEntry 本地存储表
// Revision 在命名空间内单调递增，用于其它进程轮询变更
type localEntry struct {
	Namespace string    `gorm:"primaryKey;size:64"`
	Key       string    `gorm:"column:entry_key;primaryKey;size:64"`
	Value     string    `gorm:"type:text"`
	Deleted   bool      `gorm:"not null;default:false"`
	Writer    string    `gorm:"size:64"`
	Revision  int64     `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"index"`
}

// TableName 指定表名
func (localEntry) TableName() string {
	return "local_storage"
}

// GormStore 基于 GORM（SQLite/Postgres）的持久化存储
// 多个进程共享同一数据库文件时，通过轮询 Revision 感知彼此写入
type GormStore struct {
	db           *gorm.DB
	namespace    string
	contextID    string
	pollInterval time.Duration
}

// NewGormStore 创建 GORM 存储并迁移表结构
func NewGormStore(db *gorm.DB, namespace string, pollInterval time.Duration) (*GormStore, error) {
	if db == nil {
		return nil, errors.New("storage db is nil")
	}
	if err := db.AutoMigrate(&localEntry{}); err != nil {
		return nil, err
	}
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &GormStore{
		db:           db,
		namespace:    normalizeNamespace(namespace),
		contextID:    newContextID(),
		pollInterval: pollInterval,
	}, nil
}

// Get 读取
func (s *GormStore) Get(ctx context.Context, key string) (string, bool, error) {
	normalized, err := normalizeKey(key)
	if err != nil {
		return "", false, err
	}
	var row localEntry
	err = s.db.WithContext(ctx).
		Where("namespace = ? AND entry_key = ? AND deleted = ?", s.namespace, normalized, false).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.Value, true, nil
}

// Set 写入
func (s *GormStore) Set(ctx context.Context, key, value string) error {
	normalized, err := normalizeKey(key)
	if err != nil {
		return err
	}
	return s.write(ctx, normalized, value, false)
}

// Remove 删除（标记删除，以便其它进程感知）
func (s *GormStore) Remove(ctx context.Context, key string) error {
	normalized, err := normalizeKey(key)
	if err != nil {
		return err
	}
	return s.write(ctx, normalized, "", true)
}

func (s *GormStore) write(ctx context.Context, key, value string, deleted bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current int64
		if err := tx.Model(&localEntry{}).
			Where("namespace = ?", s.namespace).
			Select("COALESCE(MAX(revision), 0)").
			Scan(&current).Error; err != nil {
			return err
		}
		row := localEntry{
			Namespace: s.namespace,
			Key:       key,
			Value:     value,
			Deleted:   deleted,
			Writer:    s.contextID,
			Revision:  current + 1,
			UpdatedAt: time.Now(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "namespace"}, {Name: "entry_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "deleted", "writer", "revision", "updated_at"}),
		}).Create(&row).Error
	})
}

func (s *GormStore) latestRevision() int64 {
	var current int64
	if err := s.db.Model(&localEntry{}).
		Where("namespace = ?", s.namespace).
		Select("COALESCE(MAX(revision), 0)").
		Scan(&current).Error; err != nil {
		logger.Warnw("storage_latest_revision_failed", "namespace", s.namespace, "error", err)
	}
	return current
}

// Watch 轮询其它进程的写入
func (s *GormStore) Watch(fn func(key string)) func() {
	if fn == nil {
		return func() {}
	}
	done := make(chan struct{})
	last := s.latestRevision()
	go func() {
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				last = s.poll(last, fn)
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

func (s *GormStore) poll(last int64, fn func(key string)) int64 {
	var rows []localEntry
	if err := s.db.
		Where("namespace = ? AND revision > ?", s.namespace, last).
		Order("revision asc").
		Find(&rows).Error; err != nil {
		logger.Warnw("storage_poll_failed", "namespace", s.namespace, "error", err)
		return last
	}
	for _, row := range rows {
		if row.Revision > last {
			last = row.Revision
		}
		if row.Writer == s.contextID {
			continue
		}
		fn(row.Key)
	}
	return last
}
