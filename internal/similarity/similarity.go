// Package similarity 两个名称的相似度打分，范围 0..100
package similarity

import (
	"math"
	"strings"
	"unicode/utf8"

	"HubAdmin/internal/normalize"

	"github.com/agnivade/levenshtein"
)

const (
	// MaxRunes 限制编辑距离的计算量
	MaxRunes = 255
	// StructuralFloor 首尾词一致时的最低分，即使整体距离较大
	StructuralFloor = 70
	// tokenMinContained 允许包含匹配的最短词长
	tokenMinContained = 3
)

// Similarity 折叠后相同返回 100，任一为空返回 0，
// 否则返回四舍五入的 Levenshtein 比例；首尾词一致时不低于 StructuralFloor。对 a、b 对称。
func Similarity(a, b string) int {
	fa, fb := prepare(a), prepare(b)
	if fa == "" || fb == "" {
		return 0
	}
	if fa == fb {
		return 100
	}

	score := int(math.Round(ratio(fa, fb) * 100))
	if score < StructuralFloor && structuralMatch(fa, fb) {
		score = StructuralFloor
	}
	return clamp(score)
}

// Ratio 折叠后的 1 - distance/maxLen，范围 [0,1]
func Ratio(a, b string) float64 {
	fa, fb := prepare(a), prepare(b)
	if fa == "" && fb == "" {
		return 1
	}
	if fa == "" || fb == "" {
		return 0
	}
	return ratio(fa, fb)
}

func prepare(s string) string {
	return truncate(normalize.Fold(s), MaxRunes)
}

func ratio(a, b string) float64 {
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
}

// structuralMatch 比较首尾词（正序或交叉），中间名和"姓 名"顺序也能匹配
func structuralMatch(a, b string) bool {
	ta, tb := strings.Fields(a), strings.Fields(b)
	if len(ta) < 2 || len(tb) < 2 {
		return false
	}
	firstA, lastA := ta[0], ta[len(ta)-1]
	firstB, lastB := tb[0], tb[len(tb)-1]

	if tokensMatch(firstA, firstB) && tokensMatch(lastA, lastB) {
		return true
	}
	return tokensMatch(firstA, lastB) && tokensMatch(lastA, firstB)
}

// tokensMatch 单个词的短距离/包含判断
func tokensMatch(a, b string) bool {
	if a == b {
		return true
	}
	short, long := a, b
	if utf8.RuneCountInString(short) > utf8.RuneCountInString(long) {
		short, long = long, short
	}
	shortLen := utf8.RuneCountInString(short)
	if shortLen >= tokenMinContained && strings.Contains(long, short) {
		return true
	}
	return levenshtein.ComputeDistance(a, b) <= tokenDistanceLimit(shortLen)
}

// tokenDistanceLimit 允许的拼写错误数随词长增加
func tokenDistanceLimit(n int) int {
	switch {
	case n >= 6:
		return 2
	case n >= 3:
		return 1
	default:
		return 0
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
