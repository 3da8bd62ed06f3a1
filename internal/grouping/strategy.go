// Package grouping 在车手和俱乐部中查找疑似重复分组
package grouping

import (
	"sort"

	"HubAdmin/internal/model"
)

// Strategy 判定候选可能为同一实体的一种方式。
// Groups 返回成员数 >= 2 的集合，顺序无关。
type Strategy interface {
	Name() string
	// Threshold 该策略找到的分组在分类时使用的 safe/conflict 分界
	Threshold() int
	Groups(candidates []model.Candidate) [][]model.Candidate
}

// bucket 按字符串 key 收集候选，按 key 顺序返回成员数 >= 2 的桶
type bucket struct {
	keys    []string
	members map[string][]model.Candidate
	seen    map[string]map[uint64]bool
}

func newBucket() *bucket {
	return &bucket{
		members: make(map[string][]model.Candidate),
		seen:    make(map[string]map[uint64]bool),
	}
}

func (b *bucket) add(key string, c model.Candidate) {
	if key == "" {
		return
	}
	ids, ok := b.seen[key]
	if !ok {
		ids = make(map[uint64]bool)
		b.seen[key] = ids
		b.keys = append(b.keys, key)
	}
	if ids[c.ID] {
		return
	}
	ids[c.ID] = true
	b.members[key] = append(b.members[key], c)
}

func (b *bucket) groups() [][]model.Candidate {
	sort.Strings(b.keys)
	var out [][]model.Candidate
	for _, k := range b.keys {
		if len(b.members[k]) >= 2 {
			out = append(out, b.members[k])
		}
	}
	return out
}
