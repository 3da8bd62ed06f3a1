package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"HubAdmin/internal/model"
	"HubAdmin/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MergeRecord 展示给操作人的合并记录
type MergeRecord struct {
	MergeUUID        string           `json:"merge_uuid"`
	Kind             model.EntityKind `json:"kind"`
	KeepID           uint64           `json:"keep_id"`
	RemoveID         uint64           `json:"remove_id"`
	OperatorID       string           `json:"operator_id"`
	ResultsMoved     int64            `json:"results_moved"`
	ResultsDropped   int64            `json:"results_dropped"`
	RidersMoved      int64            `json:"riders_moved,omitempty"`
	FieldsBackfilled []string         `json:"fields_backfilled"`
	Removed          json.RawMessage  `json:"removed,omitempty"`
	CreatedAt        int64            `json:"created_at"` // 毫秒时间戳
}

// MergeHistory 合并记录分页
type MergeHistory struct {
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Total    int64         `json:"total"`
	Items    []MergeRecord `json:"items"`
}

// HistoryService 合并审计日志查询
type HistoryService struct {
	repo   repository.MergeLogRepository
	logger *logrus.Logger
}

func NewHistoryService(repo repository.MergeLogRepository, logger *logrus.Logger) *HistoryService {
	return &HistoryService{repo: repo, logger: logger}
}

// List 按时间倒序分页查询合并记录。kind 为空、keepID 为 0 时不过滤。
func (s *HistoryService) List(ctx context.Context, kind model.EntityKind, keepID uint64, page, pageSize int) (*MergeHistory, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	logs, total, err := s.repo.List(ctx, repository.MergeLogFilter{Kind: kind, KeepID: keepID}, page, pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]MergeRecord, 0, len(logs))
	for _, l := range logs {
		items = append(items, s.toRecord(l))
	}
	return &MergeHistory{Page: page, PageSize: pageSize, Total: total, Items: items}, nil
}

// Get 按 merge_uuid 查询单条合并记录
func (s *HistoryService) Get(ctx context.Context, mergeUUID string) (*MergeRecord, error) {
	mergeUUID = strings.TrimSpace(mergeUUID)
	if mergeUUID == "" {
		return nil, validationf("merge_uuid is required")
	}
	l, err := s.repo.GetByUUID(ctx, mergeUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Kind: "merge", Ref: mergeUUID}
		}
		return nil, err
	}
	rec := s.toRecord(l)
	return &rec, nil
}

func (s *HistoryService) toRecord(l *model.MergeLog) MergeRecord {
	rec := MergeRecord{
		MergeUUID:        l.MergeUUID,
		Kind:             l.Kind,
		KeepID:           l.KeepID,
		RemoveID:         l.RemoveID,
		OperatorID:       l.OperatorID,
		ResultsMoved:     l.ResultsMoved,
		ResultsDropped:   l.ResultsDropped,
		RidersMoved:      l.RidersMoved,
		FieldsBackfilled: []string{},
		CreatedAt:        l.CreatedAt.UnixMilli(),
	}
	if len(l.FieldsBackfilled) > 0 {
		if err := json.Unmarshal(l.FieldsBackfilled, &rec.FieldsBackfilled); err != nil {
			s.logger.WithError(err).WithField("merge_uuid", l.MergeUUID).Warn("merge log 中 fields_backfilled 格式错误")
		}
	}
	if len(l.Removed) > 0 {
		rec.Removed = json.RawMessage(l.Removed)
	}
	return rec
}
