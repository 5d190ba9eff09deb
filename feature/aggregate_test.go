package feature

import (
	"math"
	"testing"
	"time"

	"github.com/rushteam/searchop/core"
)

var aggAnchor = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func catalogOf(ids ...int64) []*core.Product {
	catalog := make([]*core.Product, 0, len(ids))
	for _, id := range ids {
		catalog = append(catalog, &core.Product{ProductID: id, Title: "Product", Price: 10, Rating: 4})
	}
	return catalog
}

func TestAggregator_SmoothedRates(t *testing.T) {
	events := []*core.Event{
		{ProductID: 1, Query: "q", EventType: core.EventView, Timestamp: aggAnchor},
		{ProductID: 1, Query: "q", EventType: core.EventClick, Clicked: true, Timestamp: aggAnchor},
		{ProductID: 1, Query: "q", EventType: core.EventPurchase, Clicked: true, AddToCart: true, Purchased: true, Timestamp: aggAnchor},
	}
	agg := Aggregator{Now: aggAnchor}
	stats := agg.Aggregate(catalogOf(1), events)

	s := stats[1]
	if s.TotalViews != 3 {
		t.Fatalf("TotalViews = %d, want 3", s.TotalViews)
	}
	// 加一平滑：分母 = views + 1 = 4
	if want := 2.0 / 4.0; s.CTR != want {
		t.Errorf("CTR = %v, want %v", s.CTR, want)
	}
	if want := 1.0 / 4.0; s.ATCRate != want {
		t.Errorf("ATCRate = %v, want %v", s.ATCRate, want)
	}
	if want := 1.0 / 4.0; s.PurchaseRate != want {
		t.Errorf("PurchaseRate = %v, want %v", s.PurchaseRate, want)
	}
}

func TestAggregator_RateBounds(t *testing.T) {
	// 各种事件组合下 rate 始终在 [0, 1]
	events := []*core.Event{
		{ProductID: 1, Clicked: true, AddToCart: true, Purchased: true, Timestamp: aggAnchor},
		{ProductID: 1, Clicked: true, Timestamp: aggAnchor},
		{ProductID: 2, Timestamp: aggAnchor},
	}
	agg := Aggregator{Now: aggAnchor}
	for id, s := range agg.Aggregate(catalogOf(1, 2, 3), events) {
		for name, rate := range map[string]float64{"ctr": s.CTR, "atc_rate": s.ATCRate, "purchase_rate": s.PurchaseRate} {
			if rate < 0 || rate > 1 {
				t.Errorf("product %d %s = %v, out of [0,1]", id, name, rate)
			}
		}
	}
}

func TestAggregator_Completeness(t *testing.T) {
	// 目录中每个商品都有一行，零事件商品全 0
	agg := Aggregator{Now: aggAnchor}
	stats := agg.Aggregate(catalogOf(1, 2, 3), []*core.Event{
		{ProductID: 2, Clicked: true, Timestamp: aggAnchor},
	})

	if len(stats) != 3 {
		t.Fatalf("len(stats) = %d, want 3", len(stats))
	}
	for _, id := range []int64{1, 3} {
		s, ok := stats[id]
		if !ok {
			t.Fatalf("product %d missing from stats", id)
		}
		if s.TotalViews != 0 || s.CTR != 0 || s.Popularity != 0 || s.RecentViews7d != 0 {
			t.Errorf("product %d: zero-event stats not all zero: %+v", id, s)
		}
	}
}

func TestAggregator_PopularityZeroGuard(t *testing.T) {
	agg := Aggregator{Now: aggAnchor}
	stats := agg.Aggregate(catalogOf(1, 2), nil)
	for id, s := range stats {
		if s.Popularity != 0 {
			t.Errorf("product %d popularity = %v, want 0 with no events at all", id, s.Popularity)
		}
	}
}

func TestAggregator_PopularityNormalized(t *testing.T) {
	events := []*core.Event{
		{ProductID: 1, Timestamp: aggAnchor},
		{ProductID: 1, Timestamp: aggAnchor},
		{ProductID: 1, Timestamp: aggAnchor},
		{ProductID: 1, Timestamp: aggAnchor},
		{ProductID: 2, Timestamp: aggAnchor},
	}
	agg := Aggregator{Now: aggAnchor}
	stats := agg.Aggregate(catalogOf(1, 2), events)

	if stats[1].Popularity != 1.0 {
		t.Errorf("max-view product popularity = %v, want 1.0", stats[1].Popularity)
	}
	if math.Abs(stats[2].Popularity-0.25) > 1e-9 {
		t.Errorf("popularity = %v, want 0.25", stats[2].Popularity)
	}
}

func TestAggregator_RecencyWindow(t *testing.T) {
	events := []*core.Event{
		// 窗口内：2 天前
		{ProductID: 1, Purchased: true, Clicked: true, AddToCart: true, Timestamp: aggAnchor.Add(-2 * 24 * time.Hour)},
		// 恰好在边界上：7 天前算窗口内
		{ProductID: 1, Timestamp: aggAnchor.Add(-RecencyWindow)},
		// 窗口外：8 天前
		{ProductID: 1, Purchased: true, Clicked: true, AddToCart: true, Timestamp: aggAnchor.Add(-8 * 24 * time.Hour)},
	}
	agg := Aggregator{Now: aggAnchor}
	s := agg.Aggregate(catalogOf(1), events)[1]

	if s.RecentViews7d != 2 {
		t.Errorf("RecentViews7d = %d, want 2", s.RecentViews7d)
	}
	if s.RecentPurchases7d != 1 {
		t.Errorf("RecentPurchases7d = %d, want 1", s.RecentPurchases7d)
	}
	// 总量不受窗口影响
	if s.TotalViews != 3 || s.TotalPurchases != 2 {
		t.Errorf("totals = views %d purchases %d, want 3/2", s.TotalViews, s.TotalPurchases)
	}
}

func TestAggregator_FunnelViolationTolerance(t *testing.T) {
	// 漏斗破损事件（purchased 但未 clicked）照常计数，不抛错不修复
	events := []*core.Event{
		{ProductID: 1, Purchased: true, Timestamp: aggAnchor},
	}
	agg := Aggregator{Now: aggAnchor}
	s := agg.Aggregate(catalogOf(1), events)[1]

	if s.TotalPurchases != 1 {
		t.Errorf("TotalPurchases = %d, want 1", s.TotalPurchases)
	}
	if s.TotalClicks != 0 {
		t.Errorf("TotalClicks = %d, want 0 (flags counted as given)", s.TotalClicks)
	}
}

func TestAggregator_UnknownProductSkipped(t *testing.T) {
	agg := Aggregator{Now: aggAnchor}
	stats := agg.Aggregate(catalogOf(1), []*core.Event{
		{ProductID: 99, Clicked: true, Timestamp: aggAnchor},
	})
	if _, ok := stats[99]; ok {
		t.Error("event for product outside catalog must not create a stats row")
	}
	if stats[1].TotalViews != 0 {
		t.Errorf("catalog product picked up foreign event: views = %d", stats[1].TotalViews)
	}
}
