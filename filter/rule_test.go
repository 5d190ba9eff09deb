package filter

import (
	"context"
	"testing"

	"github.com/rushteam/searchop/core"
)

func ratedItem(id int64, rating float64, category string) *core.Item {
	it := core.NewItem(id)
	it.Features["rating"] = rating
	it.Meta["category"] = category
	return it
}

func TestRuleFilter_ShouldFilter(t *testing.T) {
	tests := []struct {
		name string
		expr string
		item *core.Item
		rctx *core.RankContext
		want bool
	}{
		{
			name: "empty expr never filters",
			expr: "",
			item: ratedItem(1, 1.0, "adult"),
			rctx: &core.RankContext{},
			want: false,
		},
		{
			name: "low rating filtered",
			expr: `item.features.rating < 2.0`,
			item: ratedItem(1, 1.5, "footwear"),
			rctx: &core.RankContext{},
			want: true,
		},
		{
			name: "good rating kept",
			expr: `item.features.rating < 2.0`,
			item: ratedItem(1, 4.5, "footwear"),
			rctx: &core.RankContext{},
			want: false,
		},
		{
			name: "scene rule",
			expr: `item.meta.category == "adult" && rctx.scene == "homepage"`,
			item: ratedItem(1, 4.0, "adult"),
			rctx: &core.RankContext{Scene: "homepage"},
			want: true,
		},
		{
			name: "scene rule miss",
			expr: `item.meta.category == "adult" && rctx.scene == "homepage"`,
			item: ratedItem(1, 4.0, "adult"),
			rctx: &core.RankContext{Scene: "search"},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &RuleFilter{Expr: tt.expr}
			got, err := f.ShouldFilter(context.Background(), tt.rctx, tt.item)
			if err != nil {
				t.Fatalf("ShouldFilter() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldFilter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRuleFilter_BadExpr(t *testing.T) {
	f := &RuleFilter{Expr: "this is not CEL ((("}
	_, err := f.ShouldFilter(context.Background(), &core.RankContext{}, core.NewItem(1))
	if err == nil {
		t.Fatal("invalid expression must surface an error")
	}
}

func TestFilterNode_RemovesMatched(t *testing.T) {
	node := &FilterNode{Filters: []Filter{
		&RuleFilter{Expr: `item.features.rating < 2.0`},
	}}
	items := []*core.Item{
		ratedItem(1, 4.5, "a"),
		ratedItem(2, 1.0, "a"),
		ratedItem(3, 3.0, "a"),
	}
	out, err := node.Process(context.Background(), &core.RankContext{}, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	for _, it := range out {
		if it.ID == 2 {
			t.Error("low-rated item survived the filter")
		}
	}
}
