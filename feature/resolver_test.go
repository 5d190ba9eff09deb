package feature

import (
	"testing"

	"github.com/rushteam/searchop/core"
)

func itemWithMeta(id int64, title string, price, rating float64) *core.Item {
	it := core.NewItem(id)
	it.Title = title
	it.Meta["price"] = price
	it.Meta["rating"] = rating
	return it
}

func testSnapshot() *Snapshot {
	return NewSnapshot([]*Row{
		{Query: "boots", ProductID: 1, Title: "Running Shoes", CTR: 0.1, QueryCTR: 0.05, Price: 100},
		{Query: "shoes", ProductID: 1, Title: "Running Shoes", CTR: 0.1, QueryCTR: 0.5, Price: 100},
		{Query: "shoes", ProductID: 2, Title: "Trail Shoes", CTR: 0.2, QueryCTR: 0.3, Price: 50},
	})
}

func TestResolver_Completeness(t *testing.T) {
	// 命中与否，返回行数恒等于候选数，顺序与输入一致
	rs := &Resolver{Snapshot: testSnapshot()}
	items := []*core.Item{
		itemWithMeta(1, "Running Shoes", 100, 4.5),
		itemWithMeta(99, "Brand New Thing", 10, 3.0), // 冷启动
		itemWithMeta(2, "Trail Shoes", 50, 4.0),
	}
	rows := rs.Resolve(&core.RankContext{Query: "shoes"}, items)

	if len(rows) != len(items) {
		t.Fatalf("len(rows) = %d, want %d", len(rows), len(items))
	}
	for i, it := range items {
		if rows[i] == nil {
			t.Fatalf("row %d is nil", i)
		}
		if rows[i].ProductID != it.ID {
			t.Errorf("row %d product_id = %d, want %d (order preserved)", i, rows[i].ProductID, it.ID)
		}
	}
}

func TestResolver_PrefersQuerySpecificRows(t *testing.T) {
	rs := &Resolver{Snapshot: testSnapshot()}
	rows := rs.Resolve(&core.RankContext{Query: "shoes"}, []*core.Item{
		itemWithMeta(1, "Running Shoes", 100, 4.5),
	})

	if rows[0].Query != "shoes" {
		t.Errorf("row query = %q, want query-specific row", rows[0].Query)
	}
	if rows[0].QueryCTR != 0.5 {
		t.Errorf("query_ctr = %v, want 0.5 from the shoes row", rows[0].QueryCTR)
	}
}

func TestResolver_QueryNormalization(t *testing.T) {
	rs := &Resolver{Snapshot: testSnapshot()}
	rows := rs.Resolve(&core.RankContext{Query: "  SHOES "}, []*core.Item{
		itemWithMeta(1, "Running Shoes", 100, 4.5),
	})
	if rows[0].Query != "shoes" {
		t.Errorf("normalized query lookup failed: got row for %q", rows[0].Query)
	}
}

func TestResolver_FallbackToOtherQueryRow(t *testing.T) {
	// query 无一致行时，退回按 product_id 命中的历史行（刻意的近似）
	rs := &Resolver{Snapshot: testSnapshot()}
	rows := rs.Resolve(&core.RankContext{Query: "sandals"}, []*core.Item{
		itemWithMeta(1, "Running Shoes", 100, 4.5),
	})
	if rows[0].Query != "boots" {
		t.Errorf("row query = %q, want first product-level row (boots)", rows[0].Query)
	}
	if rows[0].CTR != 0.1 {
		t.Errorf("ctr = %v, want product-level 0.1", rows[0].CTR)
	}
}

func TestResolver_ColdStartDefaultRow(t *testing.T) {
	rs := &Resolver{Snapshot: testSnapshot()}
	rows := rs.Resolve(&core.RankContext{Query: "running shoes"}, []*core.Item{
		itemWithMeta(99, "Nike Running Shoes", 120, 4.8),
	})

	r := rows[0]
	if r.ProductID != 99 {
		t.Fatalf("product_id = %d, want 99", r.ProductID)
	}
	if r.TotalViews != 0 || r.CTR != 0 || r.QueryCTR != 0 {
		t.Errorf("cold-start counts must be zero: %+v", r)
	}
	if r.Price != 120 || r.Rating != 4.8 {
		t.Errorf("payload attributes not carried: price=%v rating=%v", r.Price, r.Rating)
	}
	// {running, shoes} ⊂ {nike, running, shoes} → 2/3
	if want := 2.0 / 3.0; r.TfidfSimilarity < want-1e-9 || r.TfidfSimilarity > want+1e-9 {
		t.Errorf("tfidf_similarity = %v, want %v (computed live)", r.TfidfSimilarity, want)
	}
}

func TestResolver_QuerySubsetExcludesStaleRows(t *testing.T) {
	// query 命中存在时，只按 query 子集取行：商品 3 只有别的 query 的行，
	// 被子集排除后走兜底合成，而不是用陈旧行
	snapshot := NewSnapshot([]*Row{
		{Query: "shoes", ProductID: 1, QueryCTR: 0.5},
		{Query: "boots", ProductID: 3, QueryCTR: 0.9},
	})
	rs := &Resolver{Snapshot: snapshot}
	rows := rs.Resolve(&core.RankContext{Query: "shoes"}, []*core.Item{
		itemWithMeta(1, "Running Shoes", 100, 4.5),
		itemWithMeta(3, "Leather Boots", 80, 4.2),
	})

	if rows[0].QueryCTR != 0.5 {
		t.Errorf("product 1 query_ctr = %v, want 0.5", rows[0].QueryCTR)
	}
	if rows[1].Query != "shoes" || rows[1].QueryCTR != 0 {
		t.Errorf("product 3 should get a synthesized row, got %+v", rows[1])
	}
}

func TestResolver_NilSnapshot(t *testing.T) {
	rs := &Resolver{}
	rows := rs.Resolve(&core.RankContext{Query: "shoes"}, []*core.Item{
		itemWithMeta(1, "Running Shoes", 100, 4.5),
	})
	if len(rows) != 1 || rows[0] == nil {
		t.Fatal("nil snapshot must still resolve every candidate via fallback")
	}
	if rows[0].TfidfSimilarity == 0 {
		t.Error("fallback similarity should be computed from the payload title")
	}
}

func TestResolver_EmptyCandidates(t *testing.T) {
	rs := &Resolver{Snapshot: testSnapshot()}
	rows := rs.Resolve(&core.RankContext{Query: "shoes"}, nil)
	if len(rows) != 0 {
		t.Errorf("len(rows) = %d, want 0", len(rows))
	}
}
