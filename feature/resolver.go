package feature

import (
	"github.com/rushteam/searchop/core"
)

// Resolver 是在线特征解析器：打分时为每个候选商品产出恰好一行特征。
//
// 解析规则（按优先级）：
//  1. 按 product_id 命中快照中的行
//  2. 命中行里若存在 query 与本次请求（小写化后）完全一致的子集，
//     只用该子集——query 级特征更精确
//  3. 没有 query 一致的行时，退回用仅按 product_id 命中的行：这是历史上
//     其他 query 下算出的特征，属于刻意的近似（陈旧性换覆盖率），不是错误
//  4. 经过上述筛选仍然无行的商品（冷启动、或被 query 子集排除），合成默认行:
//     计数/率全 0，相似度用请求里带的标题现算，price/rating 取请求载荷
//
// 无论快照命中情况如何，返回行数恒等于候选数，且所有数值字段有值。
// 快照整体缺失（nil）时全部候选走第 4 步兜底。
//
// Resolver 只读快照，多请求并发调用安全。
type Resolver struct {
	Snapshot *Snapshot
	Scorer   *Scorer // 冷启动相似度口径，nil 时用默认 Scorer
}

// Resolve 为每个候选解析一行特征，返回顺序与 items 一致。
func (rs *Resolver) Resolve(rctx *core.RankContext, items []*core.Item) []*Row {
	query := rctx.NormalizedQuery()
	scorer := rs.Scorer
	if scorer == nil {
		scorer = defaultScorer
	}

	// 第一遍：按 product_id 捞行，并确认是否存在 query 精确命中
	matched := make([][]*Row, len(items))
	queryHit := false
	for i, it := range items {
		if it == nil {
			continue
		}
		rows := rs.Snapshot.ByProduct(it.ID)
		matched[i] = rows
		if !queryHit {
			for _, r := range rows {
				if r.Query == query {
					queryHit = true
					break
				}
			}
		}
	}

	out := make([]*Row, len(items))
	for i, it := range items {
		if it == nil {
			continue
		}
		rows := matched[i]
		if queryHit {
			// 存在 query 级特征时只认 query 级特征
			filtered := rows[:0:0]
			for _, r := range rows {
				if r.Query == query {
					filtered = append(filtered, r)
				}
			}
			rows = filtered
		}
		if len(rows) > 0 {
			// 重复行取首行（构建阶段已按 (query, product_id) 排序）
			out[i] = rows[0]
			continue
		}
		out[i] = rs.defaultRow(query, it, scorer)
	}
	return out
}

// defaultRow 为快照未覆盖的商品合成兜底行。
func (rs *Resolver) defaultRow(query string, it *core.Item, scorer *Scorer) *Row {
	title := it.Title
	if title == "" {
		title = it.MetaString("title")
	}
	return &Row{
		Query:           query,
		ProductID:       it.ID,
		Title:           title,
		Price:           it.MetaFloat("price"),
		Rating:          it.MetaFloat("rating"),
		TfidfSimilarity: scorer.Score(query, title),
	}
}
