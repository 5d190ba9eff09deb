package feature

import (
	"time"

	"github.com/rushteam/searchop/core"
)

// RecencyWindow 是近期行为特征的回看窗口。
const RecencyWindow = 7 * 24 * time.Hour

// ProductStats 是单个商品的全局聚合统计：
// 总量计数、平滑后的转化率、近 7 天计数、归一化热度。
// 目录中的每个商品都有一行，零事件商品全部补 0。
type ProductStats struct {
	TotalViews        int64
	TotalClicks       int64
	TotalAddToCart    int64
	TotalPurchases    int64
	CTR               float64
	ATCRate           float64
	PurchaseRate      float64
	RecentViews7d     int64
	RecentPurchases7d int64
	Popularity        float64
}

// Aggregator 把原始事件集归并为商品级统计。
//
// 口径说明：
//   - total_views 按事件条数计（任何事件都先算一次曝光），clicked/add_to_cart/purchased
//     按标志位求和；漏斗破损的事件（如 purchased=true 但 clicked=false）原样计数，不校验不修复
//   - 转化率用加一平滑：rate = n / (total_views + 1)，零曝光商品自然得 0
//   - popularity = total_views / max(total_views)，全局无曝光时全部为 0
type Aggregator struct {
	// Now 是近期窗口的锚点时间，零值表示取 time.Now()。
	// 离线回放/测试用固定锚点可保证结果可复现。
	Now time.Time
}

// Aggregate 对全量目录 + 全量事件做一次完整聚合。
// 返回值保证目录中每个 product_id 都有一条记录。
func (a *Aggregator) Aggregate(catalog []*core.Product, events []*core.Event) map[int64]*ProductStats {
	anchor := a.Now
	if anchor.IsZero() {
		anchor = time.Now()
	}
	recentSince := anchor.Add(-RecencyWindow)

	stats := make(map[int64]*ProductStats, len(catalog))
	for _, p := range catalog {
		if p == nil {
			continue
		}
		stats[p.ProductID] = &ProductStats{}
	}

	for _, ev := range events {
		if ev == nil {
			continue
		}
		s, ok := stats[ev.ProductID]
		if !ok {
			// 目录之外的商品不参与商品级特征
			continue
		}
		s.TotalViews++
		if ev.Clicked {
			s.TotalClicks++
		}
		if ev.AddToCart {
			s.TotalAddToCart++
		}
		if ev.Purchased {
			s.TotalPurchases++
		}
		if !ev.Timestamp.Before(recentSince) {
			s.RecentViews7d++
			if ev.Purchased {
				s.RecentPurchases7d++
			}
		}
	}

	var maxViews int64
	for _, s := range stats {
		if s.TotalViews > maxViews {
			maxViews = s.TotalViews
		}
	}

	for _, s := range stats {
		denom := float64(s.TotalViews + 1)
		s.CTR = float64(s.TotalClicks) / denom
		s.ATCRate = float64(s.TotalAddToCart) / denom
		s.PurchaseRate = float64(s.TotalPurchases) / denom
		if maxViews > 0 {
			s.Popularity = float64(s.TotalViews) / float64(maxViews)
		}
	}
	return stats
}
