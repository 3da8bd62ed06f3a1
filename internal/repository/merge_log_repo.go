package repository

import (
	"context"

	"HubAdmin/internal/model"

	"gorm.io/gorm"
)

// MergeLogFilter 合并日志查询条件
type MergeLogFilter struct {
	Kind   model.EntityKind // 可选
	KeepID uint64           // 可选
}

// MergeLogRepository 合并日志查询
type MergeLogRepository interface {
	// List 按时间倒序分页
	List(ctx context.Context, filter MergeLogFilter, page, pageSize int) ([]*model.MergeLog, int64, error)
	GetByUUID(ctx context.Context, mergeUUID string) (*model.MergeLog, error)
}

type mergeLogRepository struct {
	db *gorm.DB
}

func NewMergeLogRepository(db *gorm.DB) MergeLogRepository {
	return &mergeLogRepository{db: db}
}

func (r *mergeLogRepository) List(ctx context.Context, filter MergeLogFilter, page, pageSize int) ([]*model.MergeLog, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	db := r.db.WithContext(ctx).Model(&model.MergeLog{})
	if filter.Kind != "" {
		db = db.Where("kind = ?", filter.Kind)
	}
	if filter.KeepID != 0 {
		db = db.Where("keep_id = ?", filter.KeepID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []*model.MergeLog
	if err := db.
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func (r *mergeLogRepository) GetByUUID(ctx context.Context, mergeUUID string) (*model.MergeLog, error) {
	var log model.MergeLog
	if err := r.db.WithContext(ctx).Where("merge_uuid = ?", mergeUUID).First(&log).Error; err != nil {
		return nil, err
	}
	return &log, nil
}
