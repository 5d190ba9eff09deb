package feature

import (
	"context"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/searchop/core"
)

// Builder 把聚合结果、商品目录、原始事件 join 成一张特征库表。
//
// 构建流程：
//  1. Aggregator 产出商品级统计
//  2. 事件按 (小写化 query, product_id) 归并出 pair 级计数，
//     query_ctr / query_purchase_rate 用同样的加一平滑，分母是 pair 自己的曝光数
//  3. pair 行按 product_id 左 join 商品目录与商品级统计；目录中不存在的商品直接丢行
//  4. 每行计算 query 与标题的词面相似度
//
// 给定相同输入输出确定（行按 (query, product_id) 排序），可幂等重建。
type Builder struct {
	Aggregator Aggregator
	Scorer     *Scorer

	// Parallelism 控制相似度计算的并发度，<= 0 时取 GOMAXPROCS。
	Parallelism int
}

type pairKey struct {
	query     string
	productID int64
}

type pairStats struct {
	views     int64
	clicks    int64
	purchases int64
}

// Build 全量重建特征库。不存在增量语义：每次 pipeline 运行都整表重算。
func (b *Builder) Build(ctx context.Context, catalog []*core.Product, events []*core.Event) ([]*Row, error) {
	productStats := b.Aggregator.Aggregate(catalog, events)

	products := make(map[int64]*core.Product, len(catalog))
	for _, p := range catalog {
		if p != nil {
			products[p.ProductID] = p
		}
	}

	pairs := make(map[pairKey]*pairStats)
	for _, ev := range events {
		if ev == nil {
			continue
		}
		// query 小写归一后作键，与在线侧 RankContext.NormalizedQuery 同口径；
		// 大小写混杂的日志会归并进同一行
		key := pairKey{query: strings.ToLower(strings.TrimSpace(ev.Query)), productID: ev.ProductID}
		ps, ok := pairs[key]
		if !ok {
			ps = &pairStats{}
			pairs[key] = ps
		}
		ps.views++
		if ev.Clicked {
			ps.clicks++
		}
		if ev.Purchased {
			ps.purchases++
		}
	}

	rows := make([]*Row, 0, len(pairs))
	for key, ps := range pairs {
		p, ok := products[key.productID]
		if !ok {
			// 事件引用了目录外的商品，没有可 join 的行
			continue
		}
		gs := productStats[key.productID]

		denom := float64(ps.views + 1)
		rows = append(rows, &Row{
			Query:       key.query,
			ProductID:   key.productID,
			Title:       p.Title,
			Description: p.Description,
			Category:    p.Category,
			Price:       p.Price,
			Brand:       p.Brand,
			Rating:      p.Rating,
			Tags:        p.Tags,

			TotalViews:        gs.TotalViews,
			TotalClicks:       gs.TotalClicks,
			TotalAddToCart:    gs.TotalAddToCart,
			TotalPurchases:    gs.TotalPurchases,
			CTR:               gs.CTR,
			ATCRate:           gs.ATCRate,
			PurchaseRate:      gs.PurchaseRate,
			RecentViews7d:     gs.RecentViews7d,
			RecentPurchases7d: gs.RecentPurchases7d,
			Popularity:        gs.Popularity,

			QueryProductViews:     ps.views,
			QueryProductClicks:    ps.clicks,
			QueryProductPurchases: ps.purchases,
			QueryCTR:              float64(ps.clicks) / denom,
			QueryPurchaseRate:     float64(ps.purchases) / denom,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Query != rows[j].Query {
			return rows[i].Query < rows[j].Query
		}
		return rows[i].ProductID < rows[j].ProductID
	})

	if err := b.fillSimilarity(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// fillSimilarity 并发计算每行的 tfidf_similarity。
// 行数可达 query 数 × 商品数量级，分片并发摊开计算。
func (b *Builder) fillSimilarity(ctx context.Context, rows []*Row) error {
	scorer := b.Scorer
	if scorer == nil {
		scorer = defaultScorer
	}

	workers := b.Parallelism
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if len(rows) < workers {
		workers = len(rows)
	}
	if workers <= 1 {
		for _, r := range rows {
			r.TfidfSimilarity = scorer.Score(r.Query, r.Title)
		}
		return nil
	}

	eg, _ := errgroup.WithContext(ctx)
	chunk := (len(rows) + workers - 1) / workers
	for start := 0; start < len(rows); start += chunk {
		end := start + chunk
		if end > len(rows) {
			end = len(rows)
		}
		part := rows[start:end]
		eg.Go(func() error {
			for _, r := range part {
				r.TfidfSimilarity = scorer.Score(r.Query, r.Title)
			}
			return nil
		})
	}
	return eg.Wait()
}
