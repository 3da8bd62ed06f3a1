package service

import (
	"context"
	"math"
	"strings"
	"time"

	"HubAdmin/internal/classify"
	"HubAdmin/internal/config"
	"HubAdmin/internal/grouping"
	"HubAdmin/internal/metrics"
	"HubAdmin/internal/model"
	"HubAdmin/internal/repository"
	"HubAdmin/internal/similarity"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ParseKind 解析路由中的实体类型，单复数均可
func ParseKind(raw string) (model.EntityKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "rider", "riders":
		return model.KindRider, nil
	case "club", "clubs":
		return model.KindClub, nil
	default:
		return "", validationf("unknown entity kind %q", raw)
	}
}

// NewRiderGrouper 依次为 license、姓氏+出生年份、排序窗口
func NewRiderGrouper(cfg config.DedupeConfig) *grouping.Grouper {
	return grouping.NewGrouper(cfg.MaxGroups,
		grouping.NewLicenseKey(cfg.LicenseMinLength, cfg.RiderThreshold),
		grouping.NewAttributeKey(cfg.GivenNameMinScore, cfg.RiderThreshold),
		grouping.NewNameWindow(cfg.WindowSize, cfg.WindowMinScore, cfg.RiderThreshold),
	)
}

// NewClubGrouper 依次为规范化名称相同、排序窗口、包含匹配
func NewClubGrouper(cfg config.DedupeConfig) *grouping.Grouper {
	return grouping.NewGrouper(cfg.MaxGroups,
		grouping.NewExactName(cfg.ClubThreshold),
		grouping.NewNameWindow(cfg.WindowSize, cfg.WindowMinScore, cfg.ClubWindowThreshold),
		grouping.NewContainment(cfg.ContainmentPrefixMin, cfg.ContainmentMinScore, cfg.ClubThreshold),
	)
}

// KeepSummary 分组的保留记录
type KeepSummary struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	ResultCount int64   `json:"result_count"`
	ClubID      *uint64 `json:"club_id,omitempty"`
	ClubName    string  `json:"club_name,omitempty"`
	BirthYear   *int    `json:"birth_year,omitempty"`
}

// MemberSummary 非保留成员。Ratio 为编辑距离原始比例，百分数保留一位小数。
type MemberSummary struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	ResultCount int64   `json:"result_count"`
	Score       int     `json:"score"`
	Ratio       float64 `json:"ratio"`
}

// GroupReport 单个分组的分类结果。分类失败时 Error 有值、Keep 为 nil。
type GroupReport struct {
	Strategy  string          `json:"strategy"`
	Threshold int             `json:"threshold"`
	MemberIDs []uint64        `json:"member_ids"`
	Keep      *KeepSummary    `json:"keep,omitempty"`
	Safe      []MemberSummary `json:"safe"`
	Conflicts []MemberSummary `json:"conflicts"`
	Error     string          `json:"error,omitempty"`
}

// Report 一次无副作用分析的结果
type Report struct {
	Kind          model.EntityKind `json:"kind"`
	Candidates    int              `json:"candidates"`
	Groups        []GroupReport    `json:"groups"`
	SafeCount     int              `json:"safe_count"`
	ConflictCount int              `json:"conflict_count"`
	Truncated     bool             `json:"truncated"`
}

// BatchFailure 未能合并的决策
type BatchFailure struct {
	Decision model.MergeDecision `json:"decision"`
	Error    string              `json:"error"`
}

// BatchResult 一批 ApplySafe 的结果，单条失败不会中断整批
type BatchResult struct {
	RunID            string           `json:"run_id"`
	Kind             model.EntityKind `json:"kind"`
	Succeeded        []MergeOutcome   `json:"succeeded"`
	Failed           []BatchFailure   `json:"failed"`
	Merged           int              `json:"merged"`
	ResultsMoved     int64            `json:"results_moved"`
	ResultsDropped   int64            `json:"results_dropped"`
	SkippedConflicts int              `json:"skipped_conflicts"`
	// NextOffset 下一批的 offset。已合并的不会出现在下次分析中，
	// 只有下次仍会出现的失败项才推进 offset。
	NextOffset int  `json:"next_offset"`
	Remaining  int  `json:"remaining"`
	Done       bool `json:"done"`
}

// DuplicateService 查找重复的车手和俱乐部，并执行 safe 合并
type DuplicateService struct {
	candidates repository.CandidateRepository
	merges     *MergeService
	classifier *classify.Classifier
	groupers   map[model.EntityKind]*grouping.Grouper
	batchSize  int
	metrics    *metrics.Recorder
	logger     *logrus.Logger
}

func NewDuplicateService(candidates repository.CandidateRepository, merges *MergeService, cfg config.DedupeConfig, rec *metrics.Recorder, logger *logrus.Logger) *DuplicateService {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = config.DefaultDedupe().BatchSize
	}
	return &DuplicateService{
		candidates: candidates,
		merges:     merges,
		classifier: classify.NewClassifier(cfg.RiderThreshold, cfg.ClubThreshold),
		groupers: map[model.EntityKind]*grouping.Grouper{
			model.KindRider: NewRiderGrouper(cfg),
			model.KindClub:  NewClubGrouper(cfg),
		},
		batchSize: batchSize,
		metrics:   rec,
		logger:    logger,
	}
}

// Preview 分组并分类，不写库。分类失败的分组带错误信息上报，不影响其他分组。
func (s *DuplicateService) Preview(ctx context.Context, kind model.EntityKind) (*Report, error) {
	report, _, err := s.analyze(ctx, kind)
	return report, err
}

// ApplySafe 重新分析后合并 safe 决策中的 [offset, offset+limit)，每条一个事务。
// conflict 永不自动合并。
func (s *DuplicateService) ApplySafe(ctx context.Context, op OperatorContext, kind model.EntityKind, offset, limit int) (*BatchResult, error) {
	if err := op.validate(); err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, validationf("offset must not be negative")
	}
	if limit <= 0 {
		limit = s.batchSize
	}

	report, classes, err := s.analyze(ctx, kind)
	if err != nil {
		return nil, err
	}

	var safe []model.MergeDecision
	for _, c := range classes {
		for _, d := range c.Decisions() {
			if d.Disposition == model.DispositionSafe {
				safe = append(safe, d)
			}
		}
	}

	res := &BatchResult{
		RunID:            uuid.NewString(),
		Kind:             kind,
		Succeeded:        []MergeOutcome{},
		Failed:           []BatchFailure{},
		SkippedConflicts: report.ConflictCount,
		NextOffset:       offset,
	}
	log := s.logger.WithFields(logrus.Fields{"run_id": res.RunID, "kind": kind, "operator": op.ID})

	end := min(len(safe), offset+limit)
	processed := 0
	for i := offset; i < end; i++ {
		if ctx.Err() != nil {
			log.WithError(ctx.Err()).Warn("批量合并被中断")
			break
		}
		processed++
		d := safe[i]
		out, err := s.merges.Merge(ctx, op, kind, d.KeepID, d.RemoveID)
		if err != nil {
			res.Failed = append(res.Failed, BatchFailure{Decision: d, Error: err.Error()})
			if !IsNotFound(err) {
				res.NextOffset++
			}
			s.metrics.RecordBatchFailure(string(kind))
			log.WithError(err).WithFields(logrus.Fields{"keep_id": d.KeepID, "remove_id": d.RemoveID}).Warn("批量合并单条失败，继续")
			continue
		}
		res.Succeeded = append(res.Succeeded, *out)
		res.Merged++
		res.ResultsMoved += out.ResultsMoved
		res.ResultsDropped += out.ResultsDropped
	}

	res.Remaining = max(0, len(safe)-offset-processed)
	res.Done = res.Remaining == 0
	log.WithFields(logrus.Fields{
		"merged":            res.Merged,
		"failed":            len(res.Failed),
		"results_moved":     res.ResultsMoved,
		"results_dropped":   res.ResultsDropped,
		"skipped_conflicts": res.SkippedConflicts,
		"remaining":         res.Remaining,
	}).Info("批量合并完成")
	return res, nil
}

func (s *DuplicateService) analyze(ctx context.Context, kind model.EntityKind) (*Report, []model.Classification, error) {
	grouper, ok := s.groupers[kind]
	if !ok {
		return nil, nil, validationf("unknown entity kind %q", kind)
	}
	start := time.Now()

	var (
		candidates []model.Candidate
		err        error
	)
	if kind == model.KindRider {
		candidates, err = s.candidates.RiderCandidates(ctx)
	} else {
		candidates, err = s.candidates.ClubCandidates(ctx)
	}
	if err != nil {
		return nil, nil, err
	}

	grouped := grouper.Group(candidates)
	report := &Report{
		Kind:       kind,
		Candidates: len(candidates),
		Groups:     make([]GroupReport, 0, len(grouped.Groups)),
		Truncated:  grouped.Truncated,
	}
	var classes []model.Classification
	plan := make(removalPlan)
	for _, g := range grouped.Groups {
		c, err := s.classifier.Classify(g)
		if err != nil {
			s.logger.WithError(err).WithField("members", g.IDs()).Warn("分组分类失败")
			report.Groups = append(report.Groups, GroupReport{
				Strategy:  g.Strategy,
				Threshold: s.classifier.Threshold(g),
				MemberIDs: g.IDs(),
				Safe:      []MemberSummary{},
				Conflicts: []MemberSummary{},
				Error:     err.Error(),
			})
			continue
		}
		c, ok := plan.claim(c)
		if !ok {
			s.logger.WithFields(logrus.Fields{"strategy": g.Strategy, "members": g.IDs()}).Debug("分组成员已被前面的分组覆盖，跳过")
			continue
		}
		classes = append(classes, c)
		report.Groups = append(report.Groups, groupReport(g, c))
		report.SafeCount += len(c.Safe)
		report.ConflictCount += len(c.Conflicts)
	}

	took := time.Since(start)
	s.metrics.ObserveAnalysis(string(kind), took, len(report.Groups))
	s.logger.WithFields(logrus.Fields{
		"kind":       kind,
		"candidates": report.Candidates,
		"groups":     len(report.Groups),
		"safe":       report.SafeCount,
		"conflicts":  report.ConflictCount,
		"truncated":  report.Truncated,
		"took":       took.String(),
	}).Info("查重分析完成")
	return report, classes, nil
}

// removalPlan 记录本轮分析中已经有决策的 remove id。
// 同一条记录只会作为 remove 出现一次，SafeCount/ConflictCount 因此是精确值。
type removalPlan map[uint64]model.Disposition

// claim 去掉已被前面分组认领的成员。若 keep 本身已被安排 safe 合并到别处，
// 整组推迟到下一轮（合并完成后重新分析时会再次出现）。
func (p removalPlan) claim(c model.Classification) (model.Classification, bool) {
	if p[c.Keep.ID] == model.DispositionSafe {
		return c, false
	}
	c.Safe = p.unclaimed(c.Safe)
	c.Conflicts = p.unclaimed(c.Conflicts)
	return c, len(c.Safe)+len(c.Conflicts) > 0
}

func (p removalPlan) unclaimed(members []model.ScoredMember) []model.ScoredMember {
	out := make([]model.ScoredMember, 0, len(members))
	for _, m := range members {
		if _, ok := p[m.ID]; ok {
			continue
		}
		p[m.ID] = m.Disposition
		out = append(out, m)
	}
	return out
}

func groupReport(g model.CandidateGroup, c model.Classification) GroupReport {
	return GroupReport{
		Strategy:  c.Strategy,
		Threshold: c.Threshold,
		MemberIDs: g.IDs(),
		Keep: &KeepSummary{
			ID:          c.Keep.ID,
			Name:        c.Keep.Name,
			ResultCount: c.Keep.ResultCount,
			ClubID:      c.Keep.ClubID,
			ClubName:    c.Keep.ClubName,
			BirthYear:   c.Keep.BirthYear,
		},
		Safe:      memberSummaries(c.Keep, c.Safe),
		Conflicts: memberSummaries(c.Keep, c.Conflicts),
	}
}

func memberSummaries(keep model.Candidate, members []model.ScoredMember) []MemberSummary {
	out := make([]MemberSummary, 0, len(members))
	for _, m := range members {
		out = append(out, MemberSummary{
			ID:          m.ID,
			Name:        m.Name,
			ResultCount: m.ResultCount,
			Score:       m.Score,
			Ratio:       math.Round(similarity.Ratio(keep.Key, m.Key)*1000) / 10,
		})
	}
	return out
}
