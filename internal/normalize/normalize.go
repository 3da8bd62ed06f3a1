// Package normalize 把车手姓名和俱乐部名称转换成可比较的 key。
package normalize

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// 长度 >= compoundQualifierMin 的修饰词也会从复合词末尾去掉（"fixcykelklubb" -> "fix"）
	compoundQualifierMin = 8
	// 去掉复合后缀或结尾 "s" 后至少保留的长度
	minStemLen = 3
)

// organizationQualifiers 俱乐部名称里不带身份信息的通用词。
// 使用折叠后的 ASCII 形式，按长度从长到短排序。
var organizationQualifiers = sortLongestFirst([]string{
	"mountainbikeklubb",
	"idrottsforeningen",
	"idrottsforening",
	"idrottssallskap",
	"cykelforeningen",
	"cykelsallskapet",
	"cykelforening",
	"cykelsallskap",
	"idrottsklubb",
	"cykelklubben",
	"sportklubben",
	"cyclingclub",
	"cykelklubb",
	"sportklubb",
	"mtbklubb",
	"klubben",
	"klubb",
	"club",
	"mtb",
	"ck",
	"cf",
	"cs",
	"ik",
	"if",
	"sk",
	"ok",
})

func sortLongestFirst(in []string) []string {
	sort.SliceStable(in, func(i, j int) bool {
		return utf8.RuneCountInString(in[i]) > utf8.RuneCountInString(in[j])
	})
	return in
}

// Person 去首尾空白、大小写折叠、合并空白。保留瑞典字母，不删除任何词。
// 空白输入返回 ""，调用方应视为不可匹配。
func Person(raw string) string {
	return strings.Join(strings.Fields(cases.Fold().String(raw)), " ")
}

// Organization 大小写折叠、去掉通用修饰词、去掉变音符号（å, ä -> a, ö -> o, é -> e）、
// 去掉非字母数字字符以及结尾的单个 "s"（"ss" 结尾不动，Glass/Kiss 保持原样）。
// 反复执行直到结果不再变化，因此结果是不动点。
func Organization(raw string) string {
	s := cases.Fold().String(raw)
	for {
		next := organizationPass(s)
		if next == s {
			return s
		}
		s = next
	}
}

func organizationPass(s string) string {
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return ""
	}

	kept := stripQualifiers(tokens)
	if len(kept) == 0 {
		// 全部由修饰词组成的名称（"Cykelklubben"）保留原词
		kept = tokens
	}

	var b strings.Builder
	for _, t := range kept {
		b.WriteString(alphanumeric(StripDiacritics(t)))
	}
	out := b.String()

	if strings.HasSuffix(out, "s") && !strings.HasSuffix(out, "ss") && utf8.RuneCountInString(out) > minStemLen {
		out = strings.TrimSuffix(out, "s")
	}
	return out
}

func stripQualifiers(tokens []string) []string {
	kept := make([]string, 0, len(tokens))
	for _, t := range tokens {
		key := alphanumeric(StripDiacritics(t))
		if key == "" {
			continue
		}
		if stem, ok := stripQualifier(key); ok {
			if stem != "" {
				kept = append(kept, stem)
			}
			continue
		}
		kept = append(kept, t)
	}
	return kept
}

// stripQualifier key 本身是修饰词时返回 ("", true)；
// 以长修饰词结尾的复合词返回剩余部分。
func stripQualifier(key string) (string, bool) {
	for _, q := range organizationQualifiers {
		if key == q {
			return "", true
		}
	}
	for _, q := range organizationQualifiers {
		if utf8.RuneCountInString(q) < compoundQualifierMin {
			break
		}
		if stem := strings.TrimSuffix(key, q); stem != key && utf8.RuneCountInString(stem) >= minStemLen {
			return stem, true
		}
	}
	return "", false
}

// Fold 打分时使用的形式：大小写折叠、去变音符号、合并空白。
func Fold(raw string) string {
	return strings.Join(strings.Fields(StripDiacritics(cases.Fold().String(raw))), " ")
}

// StripDiacritics NFD 分解后去掉组合符号
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func alphanumeric(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
