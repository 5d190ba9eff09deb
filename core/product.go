package core

import "time"

// Product 是商品目录条目，入库后不可变。
// ProductID 唯一且 >= 1；Price > 0；Rating 取值 [0, 5]。
type Product struct {
	ProductID   int64
	Title       string
	Description string
	Category    string
	Price       float64
	Brand       string
	Rating      float64
	Tags        string // 逗号分隔
}

// EventType 是用户行为类型，按漏斗从浅到深：view → click → add_to_cart → purchase。
type EventType string

const (
	EventView      EventType = "view"
	EventClick     EventType = "click"
	EventAddToCart EventType = "add_to_cart"
	EventPurchase  EventType = "purchase"
)

// Event 是一条原始点击流事件。
//
// 漏斗约束 purchased ⇒ add_to_cart ⇒ clicked 是 best-effort：
// 上游数据可能在修复前就进入聚合，下游聚合逻辑按标志位原样计数，不做校验或重推导。
type Event struct {
	EventID   string
	UserID    string
	ProductID int64
	Query     string // 自由文本搜索词
	EventType EventType
	Clicked   bool
	AddToCart bool
	Purchased bool
	Timestamp time.Time
}
