package feature

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/rushteam/searchop/core"
)

// ErrSnapshotNotFound 表示特征库快照缺失。
// 服务启动时遇到它应当直接失败，而不是带着空数据上线。
var ErrSnapshotNotFound = core.NewDomainError(core.ModuleFeature, core.ErrorCodeNotFound, "feature: snapshot not found")

// Snapshot 是加载进内存的特征库：只读、不可变，
// 可被多个请求协程无锁并发读（见 Resolver）。
type Snapshot struct {
	rows      []*Row
	byProduct map[int64][]*Row
}

// NewSnapshot 从行集构建快照并建 product_id 索引。
// 行的相对顺序保留（解析阶段"首行优先"依赖构建时的确定性排序）。
func NewSnapshot(rows []*Row) *Snapshot {
	byProduct := make(map[int64][]*Row)
	for _, r := range rows {
		if r == nil {
			continue
		}
		byProduct[r.ProductID] = append(byProduct[r.ProductID], r)
	}
	return &Snapshot{rows: rows, byProduct: byProduct}
}

// Len 返回快照行数。
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rows)
}

// Rows 返回全部行（调用方不得修改）。
func (s *Snapshot) Rows() []*Row {
	if s == nil {
		return nil
	}
	return s.rows
}

// ByProduct 返回指定商品的全部行（可能属于不同 query），不存在返回 nil。
func (s *Snapshot) ByProduct(productID int64) []*Row {
	if s == nil {
		return nil
	}
	return s.byProduct[productID]
}

// LoadSnapshotFile 从 CSV 文件加载快照。文件缺失返回 ErrSnapshotNotFound。
func LoadSnapshotFile(path string) (*Snapshot, error) {
	rows, err := ReadRowsFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("load snapshot %s: %w", path, err)
	}
	return NewSnapshot(rows), nil
}

// SaveToStore 把整个特征库序列化为一个 JSON blob 写入 KV 存储。
// 快照是整表重建的单元，不做逐行写入。
func SaveToStore(ctx context.Context, st core.Store, key string, rows []*Row) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return st.Set(ctx, key, data)
}

// LoadFromStore 从 KV 存储读回快照。key 不存在返回 ErrSnapshotNotFound。
func LoadFromStore(ctx context.Context, st core.Store, key string) (*Snapshot, error) {
	data, err := st.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("load snapshot from %s: %w", st.Name(), err)
	}
	var rows []*Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return NewSnapshot(rows), nil
}
