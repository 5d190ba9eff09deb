package api

// RankRequest 是在线排序请求。校验在边界完成（validator tag），
// 进入 Pipeline 的输入默认已合法。
type RankRequest struct {
	Query    string    `json:"query" validate:"required,min=1"`
	UserID   string    `json:"user_id" validate:"required"`
	Scene    string    `json:"scene"`
	Products []Product `json:"products" validate:"required,min=1,dive"`
}

// Product 是请求携带的候选商品。price/rating 进入兜底特征合成，
// 其余字段透传方便调试。
type Product struct {
	ID          int64   `json:"id" validate:"required,gte=1"`
	Title       string  `json:"title" validate:"required"`
	Price       float64 `json:"price" validate:"gte=0"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	Brand       string  `json:"brand,omitempty"`
	Rating      float64 `json:"rating" validate:"gte=0,lte=5"`
}

// RankedProduct 是排序后的单个结果，score ∈ (0, 1)。
type RankedProduct struct {
	ID    int64   `json:"id"`
	Score float64 `json:"score"`
	Title string  `json:"title"`
}

// RankResponse 按最优在前返回全部候选。
type RankResponse struct {
	Query          string          `json:"query"`
	ModelVersion   string          `json:"model_version"`
	RankedProducts []RankedProduct `json:"ranked_products"`
}

type HealthResponse struct {
	Status       string `json:"status"`
	ModelVersion string `json:"model_version"`
	FeatureRows  int    `json:"feature_rows"`
}

type errorResponse struct {
	Error string `json:"error"`
}
