package grouping

import (
	"HubAdmin/internal/model"
)

// Grouper 按顺序执行各策略，每对候选最多上报一次。
//
// 输出上限为 MaxGroups，超出部分本轮不上报，Result.Truncated 提示先合并再重跑。
type Grouper struct {
	strategies []Strategy
	maxGroups  int
}

// Result 一次分组的结果
type Result struct {
	Groups    []model.CandidateGroup
	Truncated bool
}

// NewGrouper maxGroups <= 0 表示不设上限
func NewGrouper(maxGroups int, strategies ...Strategy) *Grouper {
	return &Grouper{strategies: strategies, maxGroups: maxGroups}
}

// Group 对 candidates 执行全部策略。组内所有成对都已被前面的分组上报时丢弃该组；
// 部分重叠的成员在 service 层按 remove id 去重。
func (g *Grouper) Group(candidates []model.Candidate) Result {
	var res Result
	covered := make(map[[2]uint64]bool)

	for _, s := range g.strategies {
		for _, members := range s.Groups(candidates) {
			if len(members) < 2 {
				continue
			}
			sortByID(members)
			if !markPairs(covered, members) {
				continue
			}
			if g.maxGroups > 0 && len(res.Groups) >= g.maxGroups {
				res.Truncated = true
				return res
			}
			res.Groups = append(res.Groups, model.CandidateGroup{
				Strategy:  s.Name(),
				Threshold: s.Threshold(),
				Members:   members,
			})
		}
	}
	return res
}

// markPairs 记录组内所有成对，返回是否有新的成对
func markPairs(covered map[[2]uint64]bool, members []model.Candidate) bool {
	fresh := false
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			key := pairKey(members[i].ID, members[j].ID)
			if !covered[key] {
				covered[key] = true
				fresh = true
			}
		}
	}
	return fresh
}

func pairKey(a, b uint64) [2]uint64 {
	if a > b {
		a, b = b, a
	}
	return [2]uint64{a, b}
}
