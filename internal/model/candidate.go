package model

// EntityKind 候选来自哪张表
type EntityKind string

const (
	KindRider EntityKind = "rider"
	KindClub  EntityKind = "club"
)

// Disposition 非保留成员的处理结论
type Disposition string

const (
	DispositionSafe     Disposition = "safe"
	DispositionConflict Disposition = "conflict"
)

// Candidate 分组和分类使用的 Rider/Club 扁平视图，在 repository 层构造，不落库
type Candidate struct {
	Kind         EntityKind
	ID           uint64
	Name         string // 展示名称
	Key          string // 用于比较的规范化名称
	GivenName    string // 仅车手，已规范化
	FamilyName   string // 仅车手，已规范化
	BirthYear    *int
	ClubID       *uint64
	ClubName     string
	ExternalIDs  []string // 清洗后的强标识（车手）
	ResultCount  int64
	Completeness int
}

// CandidateGroup 共享匹配 key 的两个及以上候选
type CandidateGroup struct {
	Strategy  string
	Threshold int // 该组的 safe/conflict 分界，0 表示使用分类器默认值
	Members   []Candidate
}

// IDs 按组内顺序返回成员 id
func (g CandidateGroup) IDs() []uint64 {
	ids := make([]uint64, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.ID
	}
	return ids
}

// ScoredMember 非保留成员及其与 keep 的相似度
type ScoredMember struct {
	Candidate
	Score       int
	Disposition Disposition
}

// Classification 单个分组的分类结果
type Classification struct {
	Strategy  string
	Threshold int
	Keep      Candidate
	Safe      []ScoredMember
	Conflicts []ScoredMember
}

// Decisions 展开为 (keep, remove) 决策
func (c Classification) Decisions() []MergeDecision {
	out := make([]MergeDecision, 0, len(c.Safe)+len(c.Conflicts))
	for _, m := range c.Safe {
		out = append(out, MergeDecision{Kind: c.Keep.Kind, KeepID: c.Keep.ID, RemoveID: m.ID, Score: m.Score, Disposition: DispositionSafe})
	}
	for _, m := range c.Conflicts {
		out = append(out, MergeDecision{Kind: c.Keep.Kind, KeepID: c.Keep.ID, RemoveID: m.ID, Score: m.Score, Disposition: DispositionConflict})
	}
	return out
}

// MergeDecision 一条 (keep, remove) 决策
type MergeDecision struct {
	Kind        EntityKind  `json:"kind"`
	KeepID      uint64      `json:"keep_id"`
	RemoveID    uint64      `json:"remove_id"`
	Score       int         `json:"score"`
	Disposition Disposition `json:"disposition"`
}
