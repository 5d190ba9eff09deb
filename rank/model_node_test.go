package rank

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/searchop/core"
)

// stubModel 按固定特征取分，测试不依赖真实模型。
type stubModel struct {
	scoreBy string
	err     error
}

func (m *stubModel) Name() string { return "stub" }

func (m *stubModel) Predict(features map[string]float64) (float64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return features[m.scoreBy], nil
}

func itemWithFeature(id int64, key string, val float64) *core.Item {
	it := core.NewItem(id)
	it.Features[key] = val
	return it
}

func TestModelNode_OrdersByScoreDesc(t *testing.T) {
	node := &ModelNode{Model: &stubModel{scoreBy: "ctr"}, FeatureCols: []string{"ctr"}}
	items := []*core.Item{
		itemWithFeature(1, "ctr", 0.1),
		itemWithFeature(2, "ctr", 0.9),
		itemWithFeature(3, "ctr", 0.5),
	}

	out, err := node.Process(context.Background(), &core.RankContext{}, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	wantOrder := []int64{2, 3, 1}
	for i, id := range wantOrder {
		if out[i].ID != id {
			t.Errorf("position %d = product %d, want %d", i, out[i].ID, id)
		}
	}
}

func TestModelNode_TiesKeepInputOrder(t *testing.T) {
	node := &ModelNode{Model: &stubModel{scoreBy: "ctr"}}
	items := []*core.Item{
		itemWithFeature(7, "ctr", 0.5),
		itemWithFeature(3, "ctr", 0.5),
		itemWithFeature(9, "ctr", 0.5),
	}

	out, err := node.Process(context.Background(), &core.RankContext{}, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	for i, id := range []int64{7, 3, 9} {
		if out[i].ID != id {
			t.Errorf("position %d = product %d, want input order preserved", i, out[i].ID)
		}
	}
}

func TestModelNode_LengthInvariant(t *testing.T) {
	node := &ModelNode{Model: &stubModel{scoreBy: "ctr"}}
	for _, n := range []int{0, 1, 5} {
		items := make([]*core.Item, 0, n)
		for i := 0; i < n; i++ {
			items = append(items, itemWithFeature(int64(i+1), "ctr", float64(i)))
		}
		out, err := node.Process(context.Background(), &core.RankContext{}, items)
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		if len(out) != n {
			t.Errorf("len(out) = %d, want %d", len(out), n)
		}
	}
}

func TestModelNode_ProjectsFeatureCols(t *testing.T) {
	// 模型只看 FeatureCols：缺失列补 0，多余特征忽略
	probe := make(map[int64]map[string]float64)
	node := &ModelNode{
		Model:       &probeModel{seen: probe},
		FeatureCols: []string{"ctr", "brand_new_col"},
	}

	it := itemWithFeature(1, "ctr", 0.5)
	it.Features["extra"] = 99

	if _, err := node.Process(context.Background(), &core.RankContext{}, []*core.Item{it}); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	seen := probe[1]
	if seen["ctr"] != 0.5 {
		t.Errorf("ctr = %v, want 0.5", seen["ctr"])
	}
	if v, ok := seen["brand_new_col"]; !ok || v != 0 {
		t.Errorf("missing col = %v (present=%v), want zero-filled", v, ok)
	}
	if _, ok := seen["extra"]; ok {
		t.Error("extra feature must not reach the model")
	}
}

// probeModel 记录每次 Predict 收到的输入。
type probeModel struct {
	seen map[int64]map[string]float64
	next int64
}

func (m *probeModel) Name() string { return "probe" }

func (m *probeModel) Predict(features map[string]float64) (float64, error) {
	m.next++
	m.seen[m.next] = features
	return 0, nil
}

func TestModelNode_PredictErrorPropagates(t *testing.T) {
	wantErr := errors.New("boom")
	node := &ModelNode{Model: &stubModel{err: wantErr}}
	_, err := node.Process(context.Background(), &core.RankContext{}, []*core.Item{core.NewItem(1)})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestModelNode_WritesRankLabel(t *testing.T) {
	node := &ModelNode{Model: &stubModel{scoreBy: "ctr"}}
	items := []*core.Item{itemWithFeature(1, "ctr", 0.5)}
	out, err := node.Process(context.Background(), &core.RankContext{}, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if lbl, ok := out[0].Labels["rank_model"]; !ok || lbl.Value != "stub" {
		t.Errorf("rank_model label = %+v, want stub", lbl)
	}
}
