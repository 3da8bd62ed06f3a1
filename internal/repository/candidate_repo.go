package repository

import (
	"context"
	"strings"

	"HubAdmin/internal/model"
	"HubAdmin/internal/normalize"

	"gorm.io/gorm"
)

const loadBatchSize = 1000

// CandidateRepository 以候选形式加载车手和俱乐部，只读
type CandidateRepository interface {
	// RiderCandidates 全部车手，附成绩数与俱乐部名称
	RiderCandidates(ctx context.Context) ([]model.Candidate, error)
	// ClubCandidates 全部俱乐部，附其名下成绩数
	ClubCandidates(ctx context.Context) ([]model.Candidate, error)
}

type candidateRepository struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) CandidateRepository {
	return &candidateRepository{db: db}
}

// ownerCount results 按 owner GROUP BY 计数的一行
type ownerCount struct {
	OwnerID uint64
	N       int64
}

func (r *candidateRepository) RiderCandidates(ctx context.Context) ([]model.Candidate, error) {
	counts, err := r.resultCounts(ctx, "rider_id")
	if err != nil {
		return nil, err
	}
	clubNames, err := r.clubNames(ctx)
	if err != nil {
		return nil, err
	}

	var out []model.Candidate
	var batch []*model.Rider
	res := r.db.WithContext(ctx).Model(&model.Rider{}).
		FindInBatches(&batch, loadBatchSize, func(tx *gorm.DB, _ int) error {
			for _, rider := range batch {
				clubName := ""
				if rider.ClubID != nil {
					clubName = clubNames[*rider.ClubID]
				}
				out = append(out, RiderCandidate(rider, counts[rider.ID], clubName))
			}
			return nil
		})
	if res.Error != nil {
		return nil, res.Error
	}
	return out, nil
}

func (r *candidateRepository) ClubCandidates(ctx context.Context) ([]model.Candidate, error) {
	counts, err := r.resultCounts(ctx, "club_id")
	if err != nil {
		return nil, err
	}

	var clubs []*model.Club
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&clubs).Error; err != nil {
		return nil, err
	}
	out := make([]model.Candidate, 0, len(clubs))
	for _, c := range clubs {
		out = append(out, ClubCandidate(c, counts[c.ID]))
	}
	return out, nil
}

// resultCounts 按 column（rider_id 或 club_id）统计成绩数
func (r *candidateRepository) resultCounts(ctx context.Context, column string) (map[uint64]int64, error) {
	var rows []ownerCount
	if err := r.db.WithContext(ctx).Model(&model.Result{}).
		Select(column + " AS owner_id, COUNT(*) AS n").
		Where(column + " IS NOT NULL").
		Group(column).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[uint64]int64, len(rows))
	for _, row := range rows {
		counts[row.OwnerID] = row.N
	}
	return counts, nil
}

func (r *candidateRepository) clubNames(ctx context.Context) (map[uint64]string, error) {
	var clubs []*model.Club
	if err := r.db.WithContext(ctx).Select("id", "name").Find(&clubs).Error; err != nil {
		return nil, err
	}
	names := make(map[uint64]string, len(clubs))
	for _, c := range clubs {
		names[c.ID] = c.Name
	}
	return names, nil
}

// RiderCandidate Rider 转为候选视图
func RiderCandidate(r *model.Rider, resultCount int64, clubName string) model.Candidate {
	c := model.Candidate{
		Kind:         model.KindRider,
		ID:           r.ID,
		Name:         r.FullName(),
		Key:          normalize.Person(r.FullName()),
		GivenName:    normalize.Person(r.FirstName),
		FamilyName:   normalize.Person(r.LastName),
		BirthYear:    r.BirthYear,
		ClubID:       r.ClubID,
		ClubName:     clubName,
		ResultCount:  resultCount,
		Completeness: r.Completeness(),
	}
	for _, id := range []*string{r.UCIID, r.LicenseNumber} {
		if id != nil && strings.TrimSpace(*id) != "" {
			c.ExternalIDs = append(c.ExternalIDs, strings.TrimSpace(*id))
		}
	}
	return c
}

// ClubCandidate Club 转为候选视图
func ClubCandidate(c *model.Club, resultCount int64) model.Candidate {
	return model.Candidate{
		Kind:         model.KindClub,
		ID:           c.ID,
		Name:         strings.TrimSpace(c.Name),
		Key:          normalize.Organization(c.Name),
		ResultCount:  resultCount,
		Completeness: c.Completeness(),
	}
}
