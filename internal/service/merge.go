package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"HubAdmin/internal/metrics"
	"HubAdmin/internal/model"
	"HubAdmin/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// MergeOutcome 一次合并的变更
type MergeOutcome struct {
	MergeUUID            string           `json:"merge_uuid"`
	Kind                 model.EntityKind `json:"kind"`
	KeepID               uint64           `json:"keep_id"`
	RemoveID             uint64           `json:"remove_id"`
	ResultsMoved         int64            `json:"results_moved"`
	ResultsDropped       int64            `json:"results_dropped"`
	MembershipsMoved     int64            `json:"memberships_moved"`
	MembershipsDropped   int64            `json:"memberships_dropped"`
	RegistrationsMoved   int64            `json:"registrations_moved"`
	RegistrationsDropped int64            `json:"registrations_dropped"`
	RidersMoved          int64            `json:"riders_moved,omitempty"`
	FieldsBackfilled     []string         `json:"fields_backfilled"`
}

// MergeService 把一个车手/俱乐部合并到另一个。每次合并一个事务：
// 改挂从属数据、回填 keep 的空字段、写审计记录，最后删除 remove。
type MergeService struct {
	repo    repository.MergeRepository
	metrics *metrics.Recorder
	logger  *logrus.Logger
}

func NewMergeService(repo repository.MergeRepository, rec *metrics.Recorder, logger *logrus.Logger) *MergeService {
	return &MergeService{repo: repo, metrics: rec, logger: logger}
}

// Merge 按 kind 分发
func (s *MergeService) Merge(ctx context.Context, op OperatorContext, kind model.EntityKind, keepID, removeID uint64) (*MergeOutcome, error) {
	switch kind {
	case model.KindRider:
		return s.MergeRiders(ctx, op, keepID, removeID)
	case model.KindClub:
		return s.MergeClubs(ctx, op, keepID, removeID)
	default:
		return nil, validationf("unknown entity kind %q", kind)
	}
}

// MergeRiders 把 removeID 的全部数据迁到 keepID 并删除 removeID。
// 对同一 removeID 再次调用返回 NotFoundError。
func (s *MergeService) MergeRiders(ctx context.Context, op OperatorContext, keepID, removeID uint64) (*MergeOutcome, error) {
	if err := validatePair(op, keepID, removeID); err != nil {
		return nil, err
	}

	out := &MergeOutcome{MergeUUID: uuid.NewString(), Kind: model.KindRider, KeepID: keepID, RemoveID: removeID}
	err := s.repo.RunInTx(ctx, func(tx repository.MergeRepository) error {
		keep, err := tx.GetRider(ctx, keepID)
		if err != nil {
			return notFound(err, model.KindRider, keepID)
		}
		remove, err := tx.GetRider(ctx, removeID)
		if err != nil {
			return notFound(err, model.KindRider, removeID)
		}

		results, err := tx.MoveResults(ctx, keepID, removeID)
		if err != nil {
			return fmt.Errorf("迁移成绩失败: %w", err)
		}
		memberships, err := tx.MoveMemberships(ctx, keepID, removeID)
		if err != nil {
			return fmt.Errorf("迁移会籍失败: %w", err)
		}
		registrations, err := tx.MoveRegistrations(ctx, keepID, removeID)
		if err != nil {
			return fmt.Errorf("迁移报名失败: %w", err)
		}
		out.ResultsMoved, out.ResultsDropped = results.Moved, results.Dropped
		out.MembershipsMoved, out.MembershipsDropped = memberships.Moved, memberships.Dropped
		out.RegistrationsMoved, out.RegistrationsDropped = registrations.Moved, registrations.Dropped

		fields, names := riderBackfill(keep, remove)
		if err := tx.UpdateRider(ctx, keepID, fields); err != nil {
			return fmt.Errorf("回填车手失败: %w, keep_id: %d", err, keepID)
		}
		out.FieldsBackfilled = names

		if err := tx.CreateLog(ctx, s.logEntry(op, out, remove)); err != nil {
			return fmt.Errorf("写入合并日志失败: %w", err)
		}
		if err := tx.DeleteRider(ctx, removeID); err != nil {
			return notFound(err, model.KindRider, removeID)
		}
		return nil
	})
	return s.finish(op, out, err)
}

// MergeClubs 把车手、成绩、会籍从 removeID 改挂到 keepID 并删除 removeID
func (s *MergeService) MergeClubs(ctx context.Context, op OperatorContext, keepID, removeID uint64) (*MergeOutcome, error) {
	if err := validatePair(op, keepID, removeID); err != nil {
		return nil, err
	}

	out := &MergeOutcome{MergeUUID: uuid.NewString(), Kind: model.KindClub, KeepID: keepID, RemoveID: removeID}
	err := s.repo.RunInTx(ctx, func(tx repository.MergeRepository) error {
		keep, err := tx.GetClub(ctx, keepID)
		if err != nil {
			return notFound(err, model.KindClub, keepID)
		}
		remove, err := tx.GetClub(ctx, removeID)
		if err != nil {
			return notFound(err, model.KindClub, removeID)
		}

		moved, err := tx.RepointClub(ctx, keepID, removeID)
		if err != nil {
			return fmt.Errorf("改挂俱乐部失败: %w, remove_id: %d", err, removeID)
		}
		out.RidersMoved = moved.Riders
		out.ResultsMoved = moved.Results
		out.MembershipsMoved = moved.Memberships

		fields, names := clubBackfill(keep, remove)
		if err := tx.UpdateClub(ctx, keepID, fields); err != nil {
			return fmt.Errorf("回填俱乐部失败: %w, keep_id: %d", err, keepID)
		}
		out.FieldsBackfilled = names

		if err := tx.CreateLog(ctx, s.logEntry(op, out, remove)); err != nil {
			return fmt.Errorf("写入合并日志失败: %w", err)
		}
		if err := tx.DeleteClub(ctx, removeID); err != nil {
			return notFound(err, model.KindClub, removeID)
		}
		return nil
	})
	return s.finish(op, out, err)
}

func validatePair(op OperatorContext, keepID, removeID uint64) error {
	if err := op.validate(); err != nil {
		return err
	}
	if keepID == 0 || removeID == 0 {
		return validationf("keep_id and remove_id are required")
	}
	if keepID == removeID {
		return validationf("keep_id and remove_id must differ (both %d)", keepID)
	}
	return nil
}

func (s *MergeService) finish(op OperatorContext, out *MergeOutcome, err error) (*MergeOutcome, error) {
	entry := s.logger.WithFields(logrus.Fields{
		"kind":      out.Kind,
		"keep_id":   out.KeepID,
		"remove_id": out.RemoveID,
		"operator":  op.ID,
	})
	if err != nil {
		err = classifyStoreError(err)
		outcome := metrics.OutcomeFailed
		if IsNotFound(err) {
			outcome = metrics.OutcomeNotFound
		}
		s.metrics.RecordMerge(string(out.Kind), outcome, 0, 0)
		entry.WithError(err).Warn("合并已回滚")
		return nil, err
	}

	s.metrics.RecordMerge(string(out.Kind), metrics.OutcomeMerged, out.ResultsMoved, out.ResultsDropped)
	entry.WithFields(logrus.Fields{
		"merge_uuid":      out.MergeUUID,
		"results_moved":   out.ResultsMoved,
		"results_dropped": out.ResultsDropped,
		"riders_moved":    out.RidersMoved,
		"backfilled":      strings.Join(out.FieldsBackfilled, ","),
	}).Info("合并完成")
	return out, nil
}

func (s *MergeService) logEntry(op OperatorContext, out *MergeOutcome, removed interface{}) *model.MergeLog {
	snapshot, err := json.Marshal(removed)
	if err != nil {
		s.logger.WithError(err).WithField("remove_id", out.RemoveID).Warn("生成删除快照失败")
		snapshot = []byte("null")
	}
	fields, _ := json.Marshal(out.FieldsBackfilled)
	return &model.MergeLog{
		MergeUUID:            out.MergeUUID,
		Kind:                 out.Kind,
		KeepID:               out.KeepID,
		RemoveID:             out.RemoveID,
		OperatorID:           op.ID,
		Removed:              datatypes.JSON(snapshot),
		FieldsBackfilled:     datatypes.JSON(fields),
		ResultsMoved:         out.ResultsMoved,
		ResultsDropped:       out.ResultsDropped,
		MembershipsMoved:     out.MembershipsMoved,
		MembershipsDropped:   out.MembershipsDropped,
		RegistrationsMoved:   out.RegistrationsMoved,
		RegistrationsDropped: out.RegistrationsDropped,
		RidersMoved:          out.RidersMoved,
	}
}

// riderBackfill 按固定顺序返回需从 remove 复制到 keep 的字段，仅在 keep 为空时复制
func riderBackfill(keep, remove *model.Rider) (map[string]interface{}, []string) {
	fields := make(map[string]interface{})
	names := []string{}
	set := func(column string, value interface{}) {
		fields[column] = value
		names = append(names, column)
	}

	if keep.BirthYear == nil && remove.BirthYear != nil {
		set("birth_year", *remove.BirthYear)
	}
	if keep.ClubID == nil && remove.ClubID != nil {
		set("club_id", *remove.ClubID)
	}
	for _, f := range []struct {
		column       string
		keep, remove *string
	}{
		{"nationality", keep.Nationality, remove.Nationality},
		{"gender", keep.Gender, remove.Gender},
		{"email", keep.Email, remove.Email},
		{"phone", keep.Phone, remove.Phone},
		// UCI ID 优先
		{"uci_id", keep.UCIID, remove.UCIID},
		{"license_number", keep.LicenseNumber, remove.LicenseNumber},
	} {
		if isEmpty(f.keep) && !isEmpty(f.remove) {
			set(f.column, strings.TrimSpace(*f.remove))
		}
	}
	return fields, names
}

func clubBackfill(keep, remove *model.Club) (map[string]interface{}, []string) {
	fields := make(map[string]interface{})
	names := []string{}
	for _, f := range []struct {
		column       string
		keep, remove *string
	}{
		{"short_name", keep.ShortName, remove.ShortName},
		{"city", keep.City, remove.City},
		{"region", keep.Region, remove.Region},
	} {
		if isEmpty(f.keep) && !isEmpty(f.remove) {
			fields[f.column] = strings.TrimSpace(*f.remove)
			names = append(names, f.column)
		}
	}
	return fields, names
}

func isEmpty(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
