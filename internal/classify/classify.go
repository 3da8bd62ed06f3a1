// Package classify 在候选分组中选出保留记录，并把其余成员标记为 safe 或 conflict。
package classify

import (
	"fmt"
	"sort"

	"HubAdmin/internal/model"
	"HubAdmin/internal/similarity"
)

// 各实体类型的默认阈值，配置缺省值也引用这里
const (
	DefaultRiderThreshold = 70
	DefaultClubThreshold  = 75
)

// Classifier 保存按实体类型区分的兜底阈值。分组自带策略阈值时优先使用分组的。
type Classifier struct {
	thresholds map[model.EntityKind]int
	score      func(a, b string) int
}

// Option 配置 Classifier
type Option func(*Classifier)

// WithScorer 替换相似度函数，nil 时保持默认
func WithScorer(score func(a, b string) int) Option {
	return func(c *Classifier) {
		if score != nil {
			c.score = score
		}
	}
}

// NewClassifier 阈值 <= 0 时使用默认值
func NewClassifier(riderThreshold, clubThreshold int, opts ...Option) *Classifier {
	if riderThreshold <= 0 {
		riderThreshold = DefaultRiderThreshold
	}
	if clubThreshold <= 0 {
		clubThreshold = DefaultClubThreshold
	}
	c := &Classifier{
		thresholds: map[model.EntityKind]int{
			model.KindRider: riderThreshold,
			model.KindClub:  clubThreshold,
		},
		score: similarity.Similarity,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Threshold 返回 group 使用的阈值
func (c *Classifier) Threshold(group model.CandidateGroup) int {
	if group.Threshold > 0 {
		return group.Threshold
	}
	if len(group.Members) == 0 {
		return DefaultRiderThreshold
	}
	return c.thresholds[group.Members[0].Kind]
}

// Classify 不修改 group。打分出错只影响当前分组。
func (c *Classifier) Classify(group model.CandidateGroup) (out model.Classification, err error) {
	if len(group.Members) < 2 {
		return out, fmt.Errorf("分组成员数为 %d，至少需要 2", len(group.Members))
	}
	defer func() {
		if r := recover(); r != nil {
			out = model.Classification{}
			err = fmt.Errorf("分组分类失败: %v, members: %v", r, group.IDs())
		}
	}()

	members := make([]model.Candidate, len(group.Members))
	copy(members, group.Members)
	SortForKeep(members)

	out.Strategy = group.Strategy
	out.Threshold = c.Threshold(group)
	out.Keep = members[0]

	for _, m := range members[1:] {
		score := c.score(out.Keep.Key, m.Key)
		sm := model.ScoredMember{Candidate: m, Score: score}
		if score >= out.Threshold {
			sm.Disposition = model.DispositionSafe
			out.Safe = append(out.Safe, sm)
		} else {
			sm.Disposition = model.DispositionConflict
			out.Conflicts = append(out.Conflicts, sm)
		}
	}
	return out, nil
}

// SortForKeep 排序后第一个即保留记录：成绩最多、其次资料最完整、最后 id 最小
func SortForKeep(members []model.Candidate) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if a.ResultCount != b.ResultCount {
			return a.ResultCount > b.ResultCount
		}
		if a.Completeness != b.Completeness {
			return a.Completeness > b.Completeness
		}
		return a.ID < b.ID
	})
}
