package model

import (
	"time"

	"gorm.io/datatypes"
)

// MergeLog 合并审计记录，在同一事务内、删除之前写入
type MergeLog struct {
	ID                   uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	MergeUUID            string         `gorm:"column:merge_uuid;type:varchar(64);uniqueIndex;not null"`
	Kind                 EntityKind     `gorm:"column:kind;type:varchar(16);not null;index"`
	KeepID               uint64         `gorm:"column:keep_id;type:bigint;not null;index"`
	RemoveID             uint64         `gorm:"column:remove_id;type:bigint;not null"`
	OperatorID           string         `gorm:"column:operator_id;type:varchar(64);not null"`
	Removed              datatypes.JSON `gorm:"column:removed;type:jsonb"`           // 被删除记录的快照
	FieldsBackfilled     datatypes.JSON `gorm:"column:fields_backfilled;type:jsonb"` // 回填到 keep 的字段名
	ResultsMoved         int64          `gorm:"column:results_moved;default:0"`
	ResultsDropped       int64          `gorm:"column:results_dropped;default:0"`
	MembershipsMoved     int64          `gorm:"column:memberships_moved;default:0"`
	MembershipsDropped   int64          `gorm:"column:memberships_dropped;default:0"`
	RegistrationsMoved   int64          `gorm:"column:registrations_moved;default:0"`
	RegistrationsDropped int64          `gorm:"column:registrations_dropped;default:0"`
	RidersMoved          int64          `gorm:"column:riders_moved;default:0"`
	CreatedAt            time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (MergeLog) TableName() string { return "merge_logs" }
