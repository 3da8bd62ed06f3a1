package repository

import (
	"context"
	"fmt"

	"HubAdmin/internal/model"

	"gorm.io/gorm"
)

// Moved 单张从属表的迁移结果：改挂的行数，以及因 keep 已有同等记录而删除的行数
type Moved struct {
	Moved   int64
	Dropped int64
}

// ClubRepoint 从一个俱乐部改挂到另一个俱乐部的行数
type ClubRepoint struct {
	Riders      int64
	Results     int64
	Memberships int64
}

// MergeRepository 合并的写操作。除 RunInTx 外，其他方法应在 RunInTx 回调拿到的 repo 上调用。
type MergeRepository interface {
	// RunInTx 在一个事务内执行 fn，出错或 panic 都会回滚
	RunInTx(ctx context.Context, fn func(repo MergeRepository) error) error

	GetRider(ctx context.Context, id uint64) (*model.Rider, error)
	GetClub(ctx context.Context, id uint64) (*model.Club, error)

	// MoveResults 改挂成绩；keep 已有同一赛事成绩时删除 remove 的那条
	MoveResults(ctx context.Context, keepID, removeID uint64) (Moved, error)
	// MoveMemberships 改挂赛季会籍，同赛季的行删除
	MoveMemberships(ctx context.Context, keepID, removeID uint64) (Moved, error)
	// MoveRegistrations 改挂报名记录，同赛事的行删除
	MoveRegistrations(ctx context.Context, keepID, removeID uint64) (Moved, error)
	UpdateRider(ctx context.Context, id uint64, fields map[string]interface{}) error
	DeleteRider(ctx context.Context, id uint64) error

	RepointClub(ctx context.Context, keepID, removeID uint64) (ClubRepoint, error)
	UpdateClub(ctx context.Context, id uint64, fields map[string]interface{}) error
	DeleteClub(ctx context.Context, id uint64) error

	CreateLog(ctx context.Context, log *model.MergeLog) error
}

type mergeRepository struct {
	db *gorm.DB
}

func NewMergeRepository(db *gorm.DB) MergeRepository {
	return &mergeRepository{db: db}
}

func (r *mergeRepository) RunInTx(ctx context.Context, fn func(repo MergeRepository) error) (err error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("开启事务失败: %w", tx.Error)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			err = fmt.Errorf("合并中断: %v", p)
		}
	}()

	if err := fn(&mergeRepository{db: tx}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

func (r *mergeRepository) GetRider(ctx context.Context, id uint64) (*model.Rider, error) {
	var rider model.Rider
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rider).Error; err != nil {
		return nil, err
	}
	return &rider, nil
}

func (r *mergeRepository) GetClub(ctx context.Context, id uint64) (*model.Club, error) {
	var club model.Club
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&club).Error; err != nil {
		return nil, err
	}
	return &club, nil
}

func (r *mergeRepository) MoveResults(ctx context.Context, keepID, removeID uint64) (Moved, error) {
	return r.moveRiderRows(ctx, &model.Result{}, "event_id", keepID, removeID)
}

func (r *mergeRepository) MoveMemberships(ctx context.Context, keepID, removeID uint64) (Moved, error) {
	return r.moveRiderRows(ctx, &model.ClubSeasonMembership{}, "season", keepID, removeID)
}

func (r *mergeRepository) MoveRegistrations(ctx context.Context, keepID, removeID uint64) (Moved, error) {
	return r.moveRiderRows(ctx, &model.EventRegistration{}, "event_id", keepID, removeID)
}

// moveRiderRows 先删除 keep 已有相同 column 值的 remove 行，再改挂其余行。
// 先删后改，update 不会触发 (rider_id, column) 唯一索引。
func (r *mergeRepository) moveRiderRows(ctx context.Context, table interface{}, column string, keepID, removeID uint64) (Moved, error) {
	var out Moved
	db := r.db.WithContext(ctx)

	keepValues := db.Model(table).Select(column).Where("rider_id = ?", keepID)
	res := db.Where("rider_id = ? AND "+column+" IN (?)", removeID, keepValues).Delete(table)
	if res.Error != nil {
		return out, res.Error
	}
	out.Dropped = res.RowsAffected

	res = db.Model(table).Where("rider_id = ?", removeID).Update("rider_id", keepID)
	if res.Error != nil {
		return out, res.Error
	}
	out.Moved = res.RowsAffected
	return out, nil
}

func (r *mergeRepository) UpdateRider(ctx context.Context, id uint64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.Rider{}).Where("id = ?", id).Updates(fields).Error
}

func (r *mergeRepository) DeleteRider(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Rider{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *mergeRepository) RepointClub(ctx context.Context, keepID, removeID uint64) (ClubRepoint, error) {
	var out ClubRepoint
	db := r.db.WithContext(ctx)

	res := db.Model(&model.Rider{}).Where("club_id = ?", removeID).Update("club_id", keepID)
	if res.Error != nil {
		return out, res.Error
	}
	out.Riders = res.RowsAffected

	res = db.Model(&model.Result{}).Where("club_id = ?", removeID).Update("club_id", keepID)
	if res.Error != nil {
		return out, res.Error
	}
	out.Results = res.RowsAffected

	res = db.Model(&model.ClubSeasonMembership{}).Where("club_id = ?", removeID).Update("club_id", keepID)
	if res.Error != nil {
		return out, res.Error
	}
	out.Memberships = res.RowsAffected
	return out, nil
}

func (r *mergeRepository) UpdateClub(ctx context.Context, id uint64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.Club{}).Where("id = ?", id).Updates(fields).Error
}

func (r *mergeRepository) DeleteClub(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Club{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *mergeRepository) CreateLog(ctx context.Context, log *model.MergeLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}
