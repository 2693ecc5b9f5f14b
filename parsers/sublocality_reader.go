package parsers

import (
	"io"
	"regexp"
	"strings"

	"kenall/model"
)

var (
	parenRe     = regexp.MustCompile(`（(.*)）$`)
	parenKanaRe = regexp.MustCompile(`\((.*)\)$`)
)

const (
	exceptForSuffix     = "を除く"
	exceptForKanaSuffix = "ｦﾉｿﾞｸ"
)

// SublocalityReader は町域の括弧書きを小地域ごとのレコードに展開します。
//
//	大字（１丁目、２丁目）   → 大字 / １丁目, 大字 / ２丁目
//	大字（１～３丁目）       → 大字 / １丁目, ２丁目, ３丁目
//	大字（１丁目を除く）     → 大字 (除外: １丁目)
//
// 1つの物理行から複数のレコードを返すことがあります。
type SublocalityReader struct {
	base *LocalityReader

	rec     model.SublocalityRecord
	entries []sublocalityEntry
	index   int
}

// NewSublocalityReader は r を読む SublocalityReader を作成します。
func NewSublocalityReader(r io.Reader, opts ...Option) *SublocalityReader {
	return &SublocalityReader{base: NewLocalityReader(r, opts...)}
}

// Next は次の小地域に進みます。展開済みの小地域が残っていればそれを先に返します。
func (s *SublocalityReader) Next() (bool, error) {
	if s.nextEntry() {
		return true, nil
	}

	ok, err := s.base.Next()
	if !ok || err != nil {
		return false, err
	}

	s.rec = model.SublocalityRecord{PostalRecord: s.base.Record()}
	s.expand()
	return true, nil
}

// Record は現在のレコードの町域部分を返します。町域名は括弧書きを除いたものです。
func (s *SublocalityReader) Record() model.PostalRecord { return s.rec.PostalRecord }

// Sublocality は小地域と除外指定を含む現在のレコードを返します。
func (s *SublocalityReader) Sublocality() model.SublocalityRecord { return s.rec }

// LineNumber は直近に読み込んだ物理行の番号を返します。
func (s *SublocalityReader) LineNumber() int { return s.base.LineNumber() }

// Close はリーダーを閉じます。
func (s *SublocalityReader) Close() error {
	s.entries = nil
	s.index = 0
	return s.base.Close()
}

func (s *SublocalityReader) expand() {
	p := &s.rec
	if p.Locality == "" || p.LocalityKana == "" {
		return
	}

	cm := parenRe.FindStringSubmatchIndex(p.Locality)
	km := parenKanaRe.FindStringSubmatchIndex(p.LocalityKana)
	if cm == nil || km == nil {
		return
	}

	cv := p.Locality[cm[2]:cm[3]]
	kv := p.LocalityKana[km[2]:km[3]]

	if strings.HasSuffix(cv, exceptForSuffix) && strings.HasSuffix(kv, exceptForKanaSuffix) {
		// 町域全体に対する除外指定。小地域には分割しない
		s.rec.ExceptFor = strings.TrimSuffix(cv, exceptForSuffix)
		s.rec.ExceptForKana = strings.TrimSuffix(kv, exceptForKanaSuffix)
	} else {
		cs := splitList(cv, listSeparator, '「', '」')
		ks := splitList(kv, listSeparatorsKana, '<', '>')

		s.entries = s.entries[:0]
		s.index = 0
		if len(cs) == len(ks) {
			for i := range cs {
				s.entries = append(s.entries, newSublocalityEntry(cs[i], ks[i]).populate()...)
			}
		} else {
			s.entries = append(s.entries, newSublocalityEntry(cv, kv).populate()...)
		}
		s.nextEntry()
	}

	s.rec.Locality = p.Locality[:cm[0]]
	s.rec.LocalityKana = p.LocalityKana[:km[0]]
}

// nextEntry は展開済みの次の小地域を現在のレコードに設定します。
func (s *SublocalityReader) nextEntry() bool {
	if s.index < len(s.entries) {
		e := s.entries[s.index]
		s.rec.Sublocality = e.name
		s.rec.SublocalityKana = e.kana
		s.rec.ExceptFor = e.exceptFor
		s.rec.ExceptForKana = e.exceptForKana
		s.index++
		return true
	}

	s.entries = s.entries[:0]
	s.index = 0
	s.rec.Sublocality = ""
	s.rec.SublocalityKana = ""
	return false
}
