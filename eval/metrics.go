// Package eval 是离线评估：在特征库上回放排序，产出 NDCG@10 / MRR / CTR@10。
// 评估的是 Ranker 的输出顺序——排序质量就是被测对象。
package eval

import (
	"math"
	"sort"
)

// scoredLabel 把打分与真值绑定，按分数降序、同分保持原序。
type scoredLabel struct {
	score float64
	label float64
}

func sortByScore(labels []float64, scores []float64) []scoredLabel {
	pairs := make([]scoredLabel, len(labels))
	for i := range labels {
		pairs[i] = scoredLabel{score: scores[i], label: labels[i]}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].score > pairs[j].score
	})
	return pairs
}

// NDCGAtK 计算 NDCG@k：DCG 按 (2^label - 1) / log2(i+2) 折损，除以理想序 DCG。
// 无正样本时返回 0。
func NDCGAtK(labels []float64, scores []float64, k int) float64 {
	if len(labels) == 0 || sum(labels) == 0 {
		return 0.0
	}

	pairs := sortByScore(labels, scores)
	if k > len(pairs) {
		k = len(pairs)
	}
	dcg := 0.0
	for i := 0; i < k; i++ {
		dcg += (math.Pow(2, pairs[i].label) - 1) / math.Log2(float64(i)+2)
	}

	ideal := append([]float64(nil), labels...)
	sort.Sort(sort.Reverse(sort.Float64Slice(ideal)))
	if k > len(ideal) {
		k = len(ideal)
	}
	idcg := 0.0
	for i := 0; i < k; i++ {
		idcg += (math.Pow(2, ideal[i]) - 1) / math.Log2(float64(i)+2)
	}
	if idcg == 0 {
		return 0.0
	}
	return dcg / idcg
}

// MRR 计算倒数排名：1/rank，rank 是按分数降序后第一个正样本的位置。
// 无正样本时返回 0。
func MRR(labels []float64, scores []float64) float64 {
	if len(labels) == 0 || sum(labels) == 0 {
		return 0.0
	}
	for rank, p := range sortByScore(labels, scores) {
		if p.label > 0 {
			return 1.0 / float64(rank+1)
		}
	}
	return 0.0
}

// CTRAtK 计算前 k 位的正样本占比。
func CTRAtK(labels []float64, scores []float64, k int) float64 {
	if len(labels) == 0 {
		return 0.0
	}
	pairs := sortByScore(labels, scores)
	if k > len(pairs) {
		k = len(pairs)
	}
	if k == 0 {
		return 0.0
	}
	hits := 0.0
	for i := 0; i < k; i++ {
		hits += pairs[i].label
	}
	return hits / float64(k)
}

func sum(vals []float64) float64 {
	s := 0.0
	for _, v := range vals {
		s += v
	}
	return s
}
