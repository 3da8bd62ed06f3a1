package grouping

import (
	"sort"

	"HubAdmin/internal/model"
)

// components 把匹配上的成对记录合并成连通分组（并查集）
type components struct {
	parent map[uint64]uint64
	byID   map[uint64]model.Candidate
}

func newComponents() *components {
	return &components{
		parent: make(map[uint64]uint64),
		byID:   make(map[uint64]model.Candidate),
	}
}

func (c *components) find(id uint64) uint64 {
	for c.parent[id] != id {
		c.parent[id] = c.parent[c.parent[id]]
		id = c.parent[id]
	}
	return id
}

func (c *components) add(x model.Candidate) {
	if _, ok := c.parent[x.ID]; !ok {
		c.parent[x.ID] = x.ID
		c.byID[x.ID] = x
	}
}

func (c *components) union(a, b model.Candidate) {
	c.add(a)
	c.add(b)
	ra, rb := c.find(a.ID), c.find(b.ID)
	if ra == rb {
		return
	}
	if ra < rb {
		c.parent[rb] = ra
	} else {
		c.parent[ra] = rb
	}
}

// groups 返回成员数 >= 2 的分组，组内与组间均按 id 排序
func (c *components) groups() [][]model.Candidate {
	byRoot := make(map[uint64][]model.Candidate)
	for id := range c.parent {
		root := c.find(id)
		byRoot[root] = append(byRoot[root], c.byID[id])
	}
	roots := make([]uint64, 0, len(byRoot))
	for r, members := range byRoot {
		if len(members) >= 2 {
			roots = append(roots, r)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })

	out := make([][]model.Candidate, 0, len(roots))
	for _, r := range roots {
		members := byRoot[r]
		sortByID(members)
		out = append(out, members)
	}
	return out
}

func sortByID(members []model.Candidate) {
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
}
