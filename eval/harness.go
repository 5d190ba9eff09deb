package eval

import (
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-json"

	"github.com/rushteam/searchop/core"
	"github.com/rushteam/searchop/feature"
	"github.com/rushteam/searchop/model"
)

// 真值口径：没有人工标注时，用 pair 级转化率做相关性代理。
// query_ctr > 0.1 或 query_purchase_rate > 0.05 视为正样本。
const (
	relevanceCTRThreshold      = 0.1
	relevancePurchaseThreshold = 0.05
)

// RelevanceLabel 返回一行的二值相关性标签（训练与评估共用口径）。
func RelevanceLabel(r *feature.Row) float64 {
	if r.QueryCTR > relevanceCTRThreshold || r.QueryPurchaseRate > relevancePurchaseThreshold {
		return 1.0
	}
	return 0.0
}

// Report 是一次离线评估的产出物。
type Report struct {
	ModelVersion string  `json:"model_version"`
	NDCG10       float64 `json:"ndcg_at_10"`
	MRR          float64 `json:"mrr"`
	CTR10        float64 `json:"ctr_at_10"`
	NumQueries   int     `json:"num_queries"`
	NumPairs     int     `json:"num_pairs"`
}

// Harness 在特征库快照上回放模型打分并汇总指标。
type Harness struct {
	// K 是 NDCG/CTR 的截断位，<= 0 时取 10。
	K int

	// MaxCandidates 限制每个 query 的候选数，<= 0 不限制。
	MaxCandidates int
}

// Evaluate 对快照里的每个 query 组一次候选、打分、算指标，最后对 query 求平均。
// 全负（无正样本）的 query 各指标计 0，照常进入平均值，不跳过。
// 快照里没有任何 query 时返回 eval 模块的 NOT_FOUND 错误。
func (h *Harness) Evaluate(snapshot *feature.Snapshot, artifact *model.Artifact) (*Report, error) {
	k := h.K
	if k <= 0 {
		k = 10
	}

	byQuery := make(map[string][]*feature.Row)
	for _, r := range snapshot.Rows() {
		byQuery[r.Query] = append(byQuery[r.Query], r)
	}
	queries := make([]string, 0, len(byQuery))
	for q := range byQuery {
		queries = append(queries, q)
	}
	sort.Strings(queries)

	var (
		sumNDCG, sumMRR, sumCTR float64
		numQueries, numPairs    int
	)
	for _, q := range queries {
		rows := byQuery[q]
		if h.MaxCandidates > 0 && len(rows) > h.MaxCandidates {
			rows = rows[:h.MaxCandidates]
		}

		labels := make([]float64, len(rows))
		scores := make([]float64, len(rows))
		for i, r := range rows {
			labels[i] = RelevanceLabel(r)
			score, err := artifact.Model.Predict(project(r.Features(), artifact.FeatureCols))
			if err != nil {
				return nil, fmt.Errorf("predict query %q product %d: %w", q, r.ProductID, err)
			}
			scores[i] = score
		}

		// 全负 query 各指标为 0，按 0 计入平均
		sumNDCG += NDCGAtK(labels, scores, k)
		sumMRR += MRR(labels, scores)
		sumCTR += CTRAtK(labels, scores, k)
		numQueries++
		numPairs += len(rows)
	}

	if numQueries == 0 {
		return nil, core.NewDomainError(core.ModuleEval, core.ErrorCodeNotFound,
			"eval: snapshot has no queries")
	}

	n := float64(numQueries)
	return &Report{
		ModelVersion: artifact.Version,
		NDCG10:       sumNDCG / n,
		MRR:          sumMRR / n,
		CTR10:        sumCTR / n,
		NumQueries:   numQueries,
		NumPairs:     numPairs,
	}, nil
}

// project 把特征行投影到模型期望的列（缺失补 0，多余忽略）。
func project(features map[string]float64, cols []string) map[string]float64 {
	if len(cols) == 0 {
		return features
	}
	out := make(map[string]float64, len(cols))
	for _, c := range cols {
		out[c] = features[c]
	}
	return out
}

// WriteReport 把评估报告落盘为 JSON。
func WriteReport(path string, report *Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
