package datagen

import (
	"strings"
	"testing"
	"time"

	"github.com/rushteam/searchop/core"
)

var genNow = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func TestCatalog_Shape(t *testing.T) {
	catalog := Catalog(Options{Products: 50, Seed: 7, Now: genNow})
	if len(catalog) != 50 {
		t.Fatalf("len(catalog) = %d, want 50", len(catalog))
	}

	seen := make(map[int64]bool, len(catalog))
	for _, p := range catalog {
		if p.ProductID < 1 {
			t.Errorf("product_id = %d, want >= 1", p.ProductID)
		}
		if seen[p.ProductID] {
			t.Errorf("duplicate product_id %d", p.ProductID)
		}
		seen[p.ProductID] = true

		if p.Title == "" || p.Category == "" || p.Brand == "" {
			t.Errorf("product %d has empty attributes: %+v", p.ProductID, p)
		}
		if p.Price <= 0 {
			t.Errorf("product %d price = %v, want > 0", p.ProductID, p.Price)
		}
		if p.Rating < 0 || p.Rating > 5 {
			t.Errorf("product %d rating = %v, out of [0,5]", p.ProductID, p.Rating)
		}
	}
}

func TestCatalog_Deterministic(t *testing.T) {
	opts := Options{Products: 20, Seed: 42, Now: genNow}
	a := Catalog(opts)
	b := Catalog(opts)
	for i := range a {
		if *a[i] != *b[i] {
			t.Fatalf("catalog differs at %d with same seed", i)
		}
	}
}

func TestEvents_FunnelCoherence(t *testing.T) {
	catalog := Catalog(Options{Products: 30, Seed: 1, Now: genNow})
	events := Events(catalog, Options{Products: 30, Users: 10, Events: 500, Seed: 1, Now: genNow})

	if len(events) != 500 {
		t.Fatalf("len(events) = %d, want 500", len(events))
	}
	ids := make(map[int64]bool, len(catalog))
	for _, p := range catalog {
		ids[p.ProductID] = true
	}
	eventIDs := make(map[string]bool, len(events))
	for i, ev := range events {
		// 生成侧漏斗自洽
		if ev.Purchased && !ev.AddToCart {
			t.Errorf("event %d: purchased without add_to_cart", i)
		}
		if ev.AddToCart && !ev.Clicked {
			t.Errorf("event %d: add_to_cart without click", i)
		}
		if !ids[ev.ProductID] {
			t.Errorf("event %d references unknown product %d", i, ev.ProductID)
		}
		if ev.EventID == "" || eventIDs[ev.EventID] {
			t.Errorf("event %d: event_id empty or duplicated", i)
		}
		eventIDs[ev.EventID] = true
		if ev.Query == "" {
			t.Errorf("event %d: empty query", i)
		}
		switch ev.EventType {
		case core.EventView, core.EventClick, core.EventAddToCart, core.EventPurchase:
		default:
			t.Errorf("event %d: unknown type %q", i, ev.EventType)
		}
	}
}

func TestEvents_QueriesLowercase(t *testing.T) {
	catalog := Catalog(Options{Products: 50, Seed: 9, Now: genNow})
	events := Events(catalog, Options{Products: 50, Events: 2000, Seed: 9, Now: genNow})

	// 事件 query 全小写：特征库按小写 query 建键，在线查询同样小写化，
	// 品牌派生的 query（如 "sephora beauty"）必须在生成侧就归一
	for i, ev := range events {
		if ev.Query != strings.ToLower(ev.Query) {
			t.Fatalf("event %d query = %q, want lowercase", i, ev.Query)
		}
	}
}

func TestEvents_TimestampsWithinWindow(t *testing.T) {
	catalog := Catalog(Options{Products: 10, Seed: 3, Now: genNow})
	events := Events(catalog, Options{Products: 10, Events: 200, DaysBack: 30, Seed: 3, Now: genNow})

	earliest := genNow.AddDate(0, 0, -30)
	// 日内小时偏移最多加 23h
	latest := genNow.Add(24 * time.Hour)
	for i, ev := range events {
		if ev.Timestamp.Before(earliest) || ev.Timestamp.After(latest) {
			t.Errorf("event %d timestamp %v outside [%v, %v]", i, ev.Timestamp, earliest, latest)
		}
	}
}

func TestRepairFunnel(t *testing.T) {
	events := []*core.Event{
		{Purchased: true},                                 // 需要补 atc + click
		{AddToCart: true},                                 // 需要补 click
		{Purchased: true, AddToCart: true, Clicked: true}, // 已自洽
		{Clicked: true},
		nil,
	}
	repaired := RepairFunnel(events)
	if repaired != 2 {
		t.Errorf("repaired = %d, want 2", repaired)
	}
	for i, ev := range events {
		if ev == nil {
			continue
		}
		if ev.Purchased && !ev.AddToCart {
			t.Errorf("event %d: purchased without add_to_cart after repair", i)
		}
		if ev.AddToCart && !ev.Clicked {
			t.Errorf("event %d: add_to_cart without click after repair", i)
		}
	}
}

func TestEvents_DeterministicModuloEventID(t *testing.T) {
	catalog := Catalog(Options{Products: 10, Seed: 5, Now: genNow})
	opts := Options{Products: 10, Events: 100, Seed: 5, Now: genNow}
	a := Events(catalog, opts)
	b := Events(catalog, opts)
	for i := range a {
		// event_id 是 uuid，其余字段可复现
		a[i].EventID, b[i].EventID = "", ""
		if *a[i] != *b[i] {
			t.Fatalf("events differ at %d with same seed:\n  %+v\n  %+v", i, a[i], b[i])
		}
	}
}
