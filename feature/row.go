package feature

// Row 是特征库中的一行：一个 (query, product_id) 对的全部特征，
// 商品全局特征已经 join 进来。离线构建产出、在线解析消费。
type Row struct {
	// 标识列
	Query     string `json:"query"`
	ProductID int64  `json:"product_id"`
	UserID    string `json:"user_id"` // 结构保留位，构建时通常为空

	// 商品目录列
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Brand       string  `json:"brand"`
	Rating      float64 `json:"rating"`
	Tags        string  `json:"tags"`

	// 商品全局聚合特征
	TotalViews        int64   `json:"total_views"`
	TotalClicks       int64   `json:"total_clicks"`
	TotalAddToCart    int64   `json:"total_add_to_cart"`
	TotalPurchases    int64   `json:"total_purchases"`
	CTR               float64 `json:"ctr"`
	ATCRate           float64 `json:"atc_rate"`
	PurchaseRate      float64 `json:"purchase_rate"`
	RecentViews7d     int64   `json:"recent_views_7d"`
	RecentPurchases7d int64   `json:"recent_purchases_7d"`
	Popularity        float64 `json:"popularity"`

	// (query, product) 对特征
	QueryProductViews     int64   `json:"query_product_views"`
	QueryProductClicks    int64   `json:"query_product_clicks"`
	QueryProductPurchases int64   `json:"query_product_purchases"`
	QueryCTR              float64 `json:"query_ctr"`
	QueryPurchaseRate     float64 `json:"query_purchase_rate"`
	TfidfSimilarity       float64 `json:"tfidf_similarity"`
}

// Columns 是特征库的规范列序，持久化与投影都以此为准。
var Columns = []string{
	"query", "product_id", "user_id",
	"title", "description", "category", "price", "brand", "rating", "tags",
	"total_views", "total_clicks", "total_add_to_cart", "total_purchases",
	"ctr", "atc_rate", "purchase_rate",
	"recent_views_7d", "recent_purchases_7d", "popularity",
	"query_product_views", "query_product_clicks", "query_product_purchases",
	"query_ctr", "query_purchase_rate", "tfidf_similarity",
}

// ModelColumns 是模型训练/打分使用的数值特征列（不含标识列和文本列）。
// 模型制品中自带训练时的列清单，这里只是构建新制品时的默认值。
var ModelColumns = []string{
	"ctr", "atc_rate", "purchase_rate",
	"recent_views_7d", "recent_purchases_7d", "popularity",
	"query_ctr", "query_purchase_rate", "tfidf_similarity",
	"price", "rating",
}

// Features 返回本行的数值特征 map。
// 所有字段都有值（缺失在构建阶段已补 0），下游可以放心做数值运算。
func (r *Row) Features() map[string]float64 {
	return map[string]float64{
		"price":                   r.Price,
		"rating":                  r.Rating,
		"total_views":             float64(r.TotalViews),
		"total_clicks":            float64(r.TotalClicks),
		"total_add_to_cart":       float64(r.TotalAddToCart),
		"total_purchases":         float64(r.TotalPurchases),
		"ctr":                     r.CTR,
		"atc_rate":                r.ATCRate,
		"purchase_rate":           r.PurchaseRate,
		"recent_views_7d":         float64(r.RecentViews7d),
		"recent_purchases_7d":     float64(r.RecentPurchases7d),
		"popularity":              r.Popularity,
		"query_product_views":     float64(r.QueryProductViews),
		"query_product_clicks":    float64(r.QueryProductClicks),
		"query_product_purchases": float64(r.QueryProductPurchases),
		"query_ctr":               r.QueryCTR,
		"query_purchase_rate":     r.QueryPurchaseRate,
		"tfidf_similarity":        r.TfidfSimilarity,
	}
}
