package eval

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNDCGAtK(t *testing.T) {
	tests := []struct {
		name   string
		labels []float64
		scores []float64
		k      int
		want   float64
	}{
		{
			name:   "perfect order",
			labels: []float64{1, 1, 0, 0},
			scores: []float64{0.9, 0.8, 0.2, 0.1},
			k:      10,
			want:   1.0,
		},
		{
			// 排序把正样本放到第 2 位：dcg = 1/log2(3)，idcg = 1/log2(2) = 1
			name:   "relevant at rank 2",
			labels: []float64{1, 0},
			scores: []float64{0.1, 0.9},
			k:      10,
			want:   1.0 / math.Log2(3),
		},
		{
			name:   "no positives",
			labels: []float64{0, 0, 0},
			scores: []float64{0.9, 0.5, 0.1},
			k:      10,
			want:   0.0,
		},
		{
			name:   "empty input",
			labels: nil,
			scores: nil,
			k:      10,
			want:   0.0,
		},
		{
			// k=1 截断：正样本在第 2 位被截掉，dcg=0
			name:   "truncation drops relevant",
			labels: []float64{1, 0},
			scores: []float64{0.1, 0.9},
			k:      1,
			want:   0.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NDCGAtK(tt.labels, tt.scores, tt.k)
			if !almostEqual(got, tt.want) {
				t.Errorf("NDCGAtK() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMRR(t *testing.T) {
	tests := []struct {
		name   string
		labels []float64
		scores []float64
		want   float64
	}{
		{name: "first is relevant", labels: []float64{1, 0, 0}, scores: []float64{0.9, 0.5, 0.1}, want: 1.0},
		{name: "third is relevant", labels: []float64{1, 0, 0}, scores: []float64{0.1, 0.9, 0.5}, want: 1.0 / 3.0},
		{name: "no positives", labels: []float64{0, 0}, scores: []float64{0.9, 0.1}, want: 0.0},
		{name: "empty", labels: nil, scores: nil, want: 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MRR(tt.labels, tt.scores)
			if !almostEqual(got, tt.want) {
				t.Errorf("MRR() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCTRAtK(t *testing.T) {
	tests := []struct {
		name   string
		labels []float64
		scores []float64
		k      int
		want   float64
	}{
		{name: "half relevant in top 2", labels: []float64{1, 0, 1, 0}, scores: []float64{0.9, 0.8, 0.2, 0.1}, k: 2, want: 0.5},
		{name: "k larger than list", labels: []float64{1, 0}, scores: []float64{0.9, 0.1}, k: 10, want: 0.5},
		{name: "empty", labels: nil, scores: nil, k: 10, want: 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CTRAtK(tt.labels, tt.scores, tt.k)
			if !almostEqual(got, tt.want) {
				t.Errorf("CTRAtK() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMetrics_TiesKeepOriginalOrder(t *testing.T) {
	// 同分时稳定排序：标签顺序即原顺序
	labels := []float64{1, 0, 0}
	scores := []float64{0.5, 0.5, 0.5}
	if got := MRR(labels, scores); got != 1.0 {
		t.Errorf("MRR with ties = %v, want 1.0", got)
	}
}
