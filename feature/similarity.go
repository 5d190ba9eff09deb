package feature

import (
	"strings"

	"github.com/kljensen/snowball"
)

// Scorer 计算查询词与商品标题之间的词面相似度：
// 按空白切词、小写化，对 token 集合求 Jaccard 相似度（|交集| / |并集|）。
// 纯函数、无状态、确定性，取值范围 [0, 1]。
//
// 可选开启词干归一（snowball），让 "shoes" 与 "shoe" 算同一个 token；
// 默认关闭，保持与离线构建完全一致的口径。
type Scorer struct {
	stem     bool
	language string
}

type ScorerOption func(*Scorer)

// WithStemming 开启 snowball 词干归一，language 为空时默认 english。
func WithStemming(language string) ScorerOption {
	return func(s *Scorer) {
		s.stem = true
		if language != "" {
			s.language = language
		}
	}
}

func NewScorer(opts ...ScorerOption) *Scorer {
	s := &Scorer{language: "english"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score 返回 a 与 b 的 Jaccard 相似度。任一输入为空返回 0。
func (s *Scorer) Score(a, b string) float64 {
	setA := s.tokenSet(a)
	setB := s.tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

func (s *Scorer) tokenSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, tok := range fields {
		if s.stem {
			// 词干化失败时保留原 token
			if stemmed, err := snowball.Stem(tok, s.language, true); err == nil {
				tok = stemmed
			}
		}
		set[tok] = struct{}{}
	}
	return set
}

var defaultScorer = NewScorer()

// Similarity 是默认口径（不做词干归一）的便捷入口，
// 离线构建与在线冷启动兜底都用它，保证两侧特征可比。
func Similarity(query, title string) float64 {
	return defaultScorer.Score(query, title)
}
