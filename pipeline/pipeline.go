package pipeline

import (
	"context"

	"github.com/rushteam/searchop/core"
)

// Pipeline 是打分链路的核心抽象：把排序逻辑拆成可组合的 Node 链
// （Resolve → Filter → Rank → ReRank）。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RankContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
