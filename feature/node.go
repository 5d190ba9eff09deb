package feature

import (
	"context"

	"github.com/rushteam/searchop/core"
	"github.com/rushteam/searchop/pipeline"
	"github.com/rushteam/searchop/pkg/conv"
	"github.com/rushteam/searchop/pkg/utils"
)

// ResolveNode 是特征解析 Node：把 Resolver 产出的特征行写进 item.Features，
// 供下游排序节点消费。
// - 写入 labels：feature_source = store / fallback
// - rctx.Params 中的数值参数以 realtime_ 前缀并入特征（模型训练过这些列才会生效）
// - 不增删候选，只补特征
type ResolveNode struct {
	Resolver *Resolver
}

func (n *ResolveNode) Name() string        { return "feature.resolve" }
func (n *ResolveNode) Kind() pipeline.Kind { return pipeline.KindResolve }

func (n *ResolveNode) Process(
	_ context.Context,
	rctx *core.RankContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Resolver == nil || len(items) == 0 {
		return items, nil
	}

	rows := n.Resolver.Resolve(rctx, items)
	realtime := conv.MapToFloat64(rctx.Params)
	for i, it := range items {
		if it == nil || rows[i] == nil {
			continue
		}
		if it.Features == nil {
			it.Features = make(map[string]float64)
		}
		for k, v := range rows[i].Features() {
			it.Features[k] = v
		}
		for k, v := range realtime {
			it.Features["realtime_"+k] = v
		}
		it.PutLabel("feature_source", utils.Label{
			Value:  n.rowSource(it.ID, rows[i]),
			Source: "resolve",
		})
	}
	return items, nil
}

// rowSource 判断行来自快照还是兜底合成（指针比对快照中该商品的行）。
func (n *ResolveNode) rowSource(productID int64, row *Row) string {
	for _, sr := range n.Resolver.Snapshot.ByProduct(productID) {
		if sr == row {
			return "store"
		}
	}
	return "fallback"
}
