package rank

import (
	"context"
	"sort"

	"github.com/rushteam/searchop/core"
	"github.com/rushteam/searchop/model"
	"github.com/rushteam/searchop/pipeline"
	"github.com/rushteam/searchop/pkg/utils"
)

// ModelNode 是使用 RankModel 的排序 Node（不限定模型类型，LR/GBDT 均可）。
// - 只向模型投喂 FeatureCols 列出的列：多余特征忽略，缺失列补 0，
//   特征库 schema 与训练时漂移不会导致打分失败
// - 写入 labels：rank_model
// - 更新 item.Score 并按分数降序稳定排序：同分保持请求原序
// - 不增删候选：输出条数恒等于输入条数
type ModelNode struct {
	Model model.RankModel

	// FeatureCols 是模型训练时的特征列清单（来自制品）。
	// 为空时直接投喂 item 的全部特征。
	FeatureCols []string
}

func (n *ModelNode) Name() string        { return "rank.model" }
func (n *ModelNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *ModelNode) Process(
	_ context.Context,
	_ *core.RankContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Model == nil || len(items) == 0 {
		return items, nil
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		score, err := n.Model.Predict(n.modelInput(it))
		if err != nil {
			return nil, err
		}
		it.Score = score
		it.PutLabel("rank_model", utils.Label{Value: n.Model.Name(), Source: "rank"})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		return items[i].Score > items[j].Score
	})
	return items, nil
}

// modelInput 把 item 特征投影到模型期望的列上。
func (n *ModelNode) modelInput(it *core.Item) map[string]float64 {
	if len(n.FeatureCols) == 0 {
		return it.Features
	}
	input := make(map[string]float64, len(n.FeatureCols))
	for _, col := range n.FeatureCols {
		input[col] = it.Features[col] // 缺失列取零值
	}
	return input
}
