package parsers

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

var (
	// 個別の除外指定 例: ２～４丁目「３丁目を除く」 / 2-4ﾁｮｳﾒ<3ﾁｮｳﾒｦﾉｿﾞｸ>
	entryExceptForRe     = regexp.MustCompile(`「(.*)を除く」$`)
	entryExceptForKanaRe = regexp.MustCompile(`<(.*)ｦﾉｿﾞｸ>$`)

	// Shift-JIS の 0x8160 は変換表によって「～」(U+FF5E) または「〜」(U+301C) になる
	numberRangeRe     = regexp.MustCompile(`([０-９]+)[～〜]([０-９]+)`)
	numberRangeKanaRe = regexp.MustCompile(`([0-9]+)-([0-9]+)`)

	exactRangeRe      = regexp.MustCompile(`^([０-９]+)[～〜]([０-９]+)$`)
	exactRangeKanaRe  = regexp.MustCompile(`^([0-9]+)-([0-9]+)$`)
	exactNumberRe     = regexp.MustCompile(`^[０-９]+$`)
	exactNumberKanaRe = regexp.MustCompile(`^[0-9]+$`)
)

const (
	listSeparator      = "、"
	listSeparatorsKana = "､，,"
)

// sublocalityEntry は町域の括弧書きから取り出した小地域1件です。
type sublocalityEntry struct {
	name string
	kana string

	exceptFor     string
	exceptForKana string
}

// newSublocalityEntry は name/kana 末尾の「…を除く」を除外指定として分離します。
func newSublocalityEntry(name, kana string) sublocalityEntry {
	e := sublocalityEntry{name: name, kana: kana}

	cm := entryExceptForRe.FindStringSubmatchIndex(name)
	km := entryExceptForKanaRe.FindStringSubmatchIndex(kana)
	if cm != nil && km != nil {
		e.exceptFor = name[cm[2]:cm[3]]
		e.exceptForKana = kana[km[2]:km[3]]
		e.name = name[:cm[0]]
		e.kana = kana[:km[0]]
	}
	return e
}

// populate は「１～３丁目」のような範囲を1件ずつに展開します。
// 範囲でなければ自身のみを返します。
func (e sublocalityEntry) populate() []sublocalityEntry {
	cm := numberRangeRe.FindStringSubmatchIndex(e.name)
	km := numberRangeKanaRe.FindStringSubmatchIndex(e.kana)
	if cm == nil || km == nil {
		return []sublocalityEntry{e}
	}

	c1 := parseFullWidth(e.name[cm[2]:cm[3]])
	c2 := parseFullWidth(e.name[cm[4]:cm[5]])
	k1 := parseHalfWidth(e.kana[km[2]:km[3]])
	k2 := parseHalfWidth(e.kana[km[4]:km[5]])
	if c1 != k1 || c2 != k2 || c1 >= c2 {
		return []sublocalityEntry{e}
	}

	pc, sc := e.name[:cm[0]], e.name[cm[1]:]
	pk, sk := e.kana[:km[0]], e.kana[km[1]:]

	excluded := e.exclusions(pc, sc, pk, sk)

	// 除外を数値として解釈できた場合は除外指定を引き継がない
	ef, efk := e.exceptFor, e.exceptForKana
	if excluded != nil {
		ef, efk = "", ""
	}

	entries := make([]sublocalityEntry, 0, c2-c1+1)
	for i := c1; i <= c2; i++ {
		if excluded.contains(i) {
			continue
		}
		entries = append(entries, sublocalityEntry{
			name:          pc + formatFullWidth(i) + sc,
			kana:          pk + strconv.Itoa(i) + sk,
			exceptFor:     ef,
			exceptForKana: efk,
		})
	}
	return entries
}

// exclusions は除外指定を範囲と同じ接頭辞・接尾辞の数値リストとして解釈します。
// 一部でも解釈できなければ nil を返します。
func (e sublocalityEntry) exclusions(pc, sc, pk, sk string) numberSpans {
	if e.exceptFor == "" || e.exceptForKana == "" {
		return nil
	}
	ec, ok := trimAffixes(e.exceptFor, pc, sc)
	if !ok {
		return nil
	}
	ek, ok := trimAffixes(e.exceptForKana, pk, sk)
	if !ok {
		return nil
	}

	ecs := splitList(ec, listSeparator, 0, 0)
	eks := splitList(ek, listSeparatorsKana, 0, 0)
	if len(ecs) != len(eks) {
		return nil
	}

	spans := make(numberSpans, 0, len(ecs))
	for i := range ecs {
		s, ok := parseExclusion(ecs[i], eks[i])
		if !ok {
			return nil
		}
		spans = append(spans, s)
	}
	return spans
}

// parseExclusion は「２～３」/「2-3」または「２」/「2」を解釈します。
func parseExclusion(c, k string) (numberSpan, bool) {
	if cm := exactRangeRe.FindStringSubmatch(c); cm != nil {
		km := exactRangeKanaRe.FindStringSubmatch(k)
		if km == nil {
			return numberSpan{}, false
		}
		c1, c2 := parseFullWidth(cm[1]), parseFullWidth(cm[2])
		k1, k2 := parseHalfWidth(km[1]), parseHalfWidth(km[2])
		if c1 != k1 || c2 != k2 || c1 >= c2 {
			return numberSpan{}, false
		}
		return numberSpan{lo: c1, hi: c2}, true
	}

	if exactNumberRe.MatchString(c) && exactNumberKanaRe.MatchString(k) {
		n := parseFullWidth(c)
		if n != parseHalfWidth(k) {
			return numberSpan{}, false
		}
		return numberSpan{lo: n, hi: n}, true
	}
	return numberSpan{}, false
}

func trimAffixes(s, prefix, suffix string) (string, bool) {
	if len(s) < len(prefix)+len(suffix) ||
		!strings.HasPrefix(s, prefix) || !strings.HasSuffix(s, suffix) {
		return "", false
	}
	return s[len(prefix) : len(s)-len(suffix)], true
}

// splitList は seps のいずれかの文字で s を分割します。
// opening から closing までの間にある区切り文字では分割しません。
func splitList(s, seps string, opening, closing rune) []string {
	var parts []string
	depth := 0
	start := 0
	for i, c := range s {
		switch {
		case opening != 0 && c == opening:
			depth++
		case closing != 0 && c == closing && depth > 0:
			depth--
		case depth == 0 && strings.ContainsRune(seps, c):
			parts = append(parts, s[start:i])
			start = i + len(string(c))
		}
	}
	return append(parts, s[start:])
}

type numberSpan struct {
	lo, hi int
}

type numberSpans []numberSpan

func (s numberSpans) contains(v int) bool {
	for _, sp := range s {
		if sp.lo <= v && v <= sp.hi {
			return true
		}
	}
	return false
}

// parseFullWidth は全角数字の列を整数に変換します。
func parseFullWidth(s string) int {
	return parseDigits(s, '０')
}

// parseHalfWidth は半角数字の列を整数に変換します。
func parseHalfWidth(s string) int {
	return parseDigits(s, '0')
}

func parseDigits(s string, zero rune) int {
	v := 0
	for _, c := range s {
		v = v*10 + int(c-zero)
	}
	return v
}

// formatFullWidth は整数を全角数字で表します。
func formatFullWidth(n int) string {
	return width.Widen.String(strconv.Itoa(n))
}
