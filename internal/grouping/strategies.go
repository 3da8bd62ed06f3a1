package grouping

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"HubAdmin/internal/model"
	"HubAdmin/internal/normalize"
	"HubAdmin/internal/similarity"
)

// 策略名称，也会展示给操作人
const (
	StrategyLicenseKey   = "license_key"
	StrategyAttributeKey = "attribute_key"
	StrategyNameWindow   = "name_window"
	StrategyExactName    = "exact_name"
	StrategyContainment  = "containment"
)

// CleanLicense 去掉空格和连字符并转大写
func CleanLicense(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if r == ' ' || r == '-' || r == '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LicenseKey 按 license 分组，不看姓名。姓名不一致交给分类阶段处理。
type LicenseKey struct {
	MinLength int
	threshold int
}

func NewLicenseKey(minLength, threshold int) *LicenseKey {
	return &LicenseKey{MinLength: minLength, threshold: threshold}
}

func (s *LicenseKey) Name() string   { return StrategyLicenseKey }
func (s *LicenseKey) Threshold() int { return s.threshold }

func (s *LicenseKey) Groups(candidates []model.Candidate) [][]model.Candidate {
	b := newBucket()
	for _, c := range candidates {
		for _, id := range c.ExternalIDs {
			key := CleanLicense(id)
			if utf8.RuneCountInString(key) < s.MinLength {
				continue
			}
			b.add(key, c)
		}
	}
	return b.groups()
}

// AttributeKey 姓氏与出生年份相同、名字相似度 >= GivenMinScore 的车手分为一组。
// 姓氏比较时合并连续重复字母，"Andersson" 与 "Anderson" 落在同一个桶。
type AttributeKey struct {
	GivenMinScore int
	threshold     int
}

func NewAttributeKey(givenMinScore, threshold int) *AttributeKey {
	return &AttributeKey{GivenMinScore: givenMinScore, threshold: threshold}
}

func (s *AttributeKey) Name() string   { return StrategyAttributeKey }
func (s *AttributeKey) Threshold() int { return s.threshold }

func (s *AttributeKey) Groups(candidates []model.Candidate) [][]model.Candidate {
	b := newBucket()
	for _, c := range candidates {
		if c.BirthYear == nil || c.FamilyName == "" {
			continue
		}
		b.add(fmt.Sprintf("%s|%d", FamilyKey(c.FamilyName), *c.BirthYear), c)
	}

	comps := newComponents()
	for _, members := range b.groups() {
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				if similarity.Similarity(members[i].GivenName, members[j].GivenName) >= s.GivenMinScore {
					comps.union(members[i], members[j])
				}
			}
		}
	}
	return comps.groups()
}

// FamilyKey 折叠姓氏并合并连续重复字母
func FamilyKey(name string) string {
	var b strings.Builder
	prev := rune(-1)
	for _, r := range normalize.Fold(name) {
		if r == prev {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// NameWindow 按规范化名称排序，每条只与后面 Window 条比较，扫描接近线性。
type NameWindow struct {
	Window    int
	MinScore  int
	threshold int
}

func NewNameWindow(window, minScore, threshold int) *NameWindow {
	return &NameWindow{Window: window, MinScore: minScore, threshold: threshold}
}

func (s *NameWindow) Name() string   { return StrategyNameWindow }
func (s *NameWindow) Threshold() int { return s.threshold }

func (s *NameWindow) Groups(candidates []model.Candidate) [][]model.Candidate {
	sorted := withKeys(candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Key == sorted[j].Key {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].Key < sorted[j].Key
	})

	comps := newComponents()
	for i := range sorted {
		end := min(len(sorted), i+1+s.Window)
		for j := i + 1; j < end; j++ {
			if similarity.Similarity(sorted[i].Key, sorted[j].Key) >= s.MinScore {
				comps.union(sorted[i], sorted[j])
			}
		}
	}
	return comps.groups()
}

// ExactName 规范化名称完全相同的分为一组
type ExactName struct {
	threshold int
}

func NewExactName(threshold int) *ExactName { return &ExactName{threshold: threshold} }

func (s *ExactName) Name() string   { return StrategyExactName }
func (s *ExactName) Threshold() int { return s.threshold }

func (s *ExactName) Groups(candidates []model.Candidate) [][]model.Candidate {
	b := newBucket()
	for _, c := range candidates {
		b.add(c.Key, c)
	}
	out := b.groups()
	for _, g := range out {
		sortByID(g)
	}
	return out
}

// Containment 一方规范化名称是另一方前缀（双方长度都 >= PrefixMin），
// 或相似度 >= MinScore 时成对。O(n²)，只用于数据量小的俱乐部表。
type Containment struct {
	PrefixMin int
	MinScore  int
	threshold int
}

func NewContainment(prefixMin, minScore, threshold int) *Containment {
	return &Containment{PrefixMin: prefixMin, MinScore: minScore, threshold: threshold}
}

func (s *Containment) Name() string   { return StrategyContainment }
func (s *Containment) Threshold() int { return s.threshold }

func (s *Containment) Groups(candidates []model.Candidate) [][]model.Candidate {
	keyed := withKeys(candidates)
	comps := newComponents()
	for i := 0; i < len(keyed); i++ {
		for j := i + 1; j < len(keyed); j++ {
			if s.match(keyed[i].Key, keyed[j].Key) {
				comps.union(keyed[i], keyed[j])
			}
		}
	}
	return comps.groups()
}

func (s *Containment) match(a, b string) bool {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la >= s.PrefixMin && lb >= s.PrefixMin && (strings.HasPrefix(a, b) || strings.HasPrefix(b, a)) {
		return true
	}
	return similarity.Similarity(a, b) >= s.MinScore
}

// withKeys 去掉 key 为空的候选
func withKeys(candidates []model.Candidate) []model.Candidate {
	out := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Key != "" {
			out = append(out, c)
		}
	}
	return out
}
