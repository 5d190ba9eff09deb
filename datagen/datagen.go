// Package datagen 生成演示用的商品目录与点击流事件。
// 目录/事件的形状贴近真实电商：类目偏好、长尾曝光、漏斗衰减。
// 随机数走注入的 seed，除 event_id（uuid）外给定 seed 输出可复现。
package datagen

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rushteam/searchop/core"
)

var categories = []string{
	"footwear", "apparel", "electronics", "accessories", "sports",
	"home", "books", "toys", "beauty", "automotive",
}

var brands = map[string][]string{
	"footwear":    {"Nike", "Adidas", "Puma", "Reebok", "New Balance"},
	"apparel":     {"Zara", "H&M", "Uniqlo", "Levi's", "Gap"},
	"electronics": {"Apple", "Samsung", "Sony", "LG", "Canon"},
	"accessories": {"Fossil", "Michael Kors", "Coach", "Kate Spade"},
	"sports":      {"Under Armour", "Nike", "Adidas", "Wilson", "Spalding"},
	"home":        {"IKEA", "Target", "Home Depot", "Wayfair"},
	"books":       {"Penguin", "HarperCollins", "Random House"},
	"toys":        {"LEGO", "Hasbro", "Mattel", "Fisher-Price"},
	"beauty":      {"L'Oreal", "Maybelline", "MAC", "Sephora"},
	"automotive":  {"3M", "Bosch", "Michelin", "Goodyear"},
}

var productTitles = map[string][]string{
	"footwear":    {"Running Shoes", "Sneakers", "Boots", "Sandals", "Slippers"},
	"apparel":     {"T-Shirt", "Jeans", "Hoodie", "Jacket", "Dress"},
	"electronics": {"Smartphone", "Laptop", "Headphones", "Camera", "Tablet"},
	"accessories": {"Watch", "Bag", "Wallet", "Sunglasses", "Belt"},
	"sports":      {"Basketball", "Tennis Racket", "Yoga Mat", "Dumbbells", "Bike"},
	"home":        {"Lamp", "Chair", "Table", "Rug", "Curtains"},
	"books":       {"Novel", "Biography", "Cookbook", "Textbook", "Comic"},
	"toys":        {"Action Figure", "Board Game", "Puzzle", "Doll", "RC Car"},
	"beauty":      {"Lipstick", "Foundation", "Mascara", "Perfume", "Moisturizer"},
	"automotive":  {"Tire", "Battery", "Oil Filter", "Brake Pad", "Air Freshener"},
}

var searchQueries = []string{
	"running shoes", "black hoodie", "laptop", "wireless headphones",
	"smartphone", "jeans", "watch", "backpack", "camera", "tablet",
	"sneakers", "jacket", "dress", "shirt", "boots", "sunglasses",
	"basketball", "yoga mat", "bike", "lamp", "chair", "novel",
	"action figure", "lipstick", "tire", "battery",
}

var tagPool = []string{
	"popular", "new", "sale", "premium", "eco-friendly",
	"bestseller", "limited", "trending", "classic", "modern",
}

// Options 控制生成规模。零值字段取默认。
type Options struct {
	Products int   // 默认 1000
	Users    int   // 默认 500
	Events   int   // 默认 50000
	DaysBack int   // 事件时间回看天数，默认 30
	Seed     int64 // 默认 42
	Now      time.Time
}

func (o *Options) defaults() {
	if o.Products <= 0 {
		o.Products = 1000
	}
	if o.Users <= 0 {
		o.Users = 500
	}
	if o.Events <= 0 {
		o.Events = 50000
	}
	if o.DaysBack <= 0 {
		o.DaysBack = 30
	}
	if o.Seed == 0 {
		o.Seed = 42
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
}

// Catalog 生成商品目录。product_id 从 1 连续编号。
func Catalog(opts Options) []*core.Product {
	opts.defaults()
	rng := rand.New(rand.NewSource(opts.Seed))

	products := make([]*core.Product, 0, opts.Products)
	for id := int64(1); id <= int64(opts.Products); id++ {
		category := categories[rng.Intn(len(categories))]
		brand := pick(rng, brands[category])
		titleBase := pick(rng, productTitles[category])
		title := fmt.Sprintf("%s %s %d", brand, titleBase, id%100)

		// 价格取对数正态：大多数便宜、少量昂贵
		mean := 3.0
		if category == "electronics" || category == "apparel" {
			mean = 4.0
		}
		price := round2(math.Exp(rng.NormFloat64()*0.8 + mean))

		// 评分偏高分：大多数商品 3.5~5
		rating := round1(3.0 + rng.Float64()*2.0)

		nTags := 2 + rng.Intn(3)
		tags := ""
		for i, idx := range rng.Perm(len(tagPool))[:nTags] {
			if i > 0 {
				tags += ","
			}
			tags += tagPool[idx]
		}

		products = append(products, &core.Product{
			ProductID:   id,
			Title:       title,
			Description: fmt.Sprintf("High-quality %s from %s. Perfect for everyday use.", titleBase, brand),
			Category:    category,
			Price:       price,
			Brand:       brand,
			Rating:      rating,
			Tags:        tags,
		})
	}
	return products
}

// Events 生成点击流。
//
// 形状：
//   - 每个用户有 1~3 个偏好类目，偏好类目的商品更容易被点击
//   - 70% 的 query 与商品相关（品牌首词/类目），其余随机
//   - 漏斗按 60/25/10/5 衰减：view → click → add_to_cart → purchase
//
// 生成的事件漏斗自洽（purchased ⇒ add_to_cart ⇒ clicked）；
// 聚合侧不依赖这一点，脏数据同样能聚合（见 feature.Aggregator）。
func Events(catalog []*core.Product, opts Options) []*core.Event {
	opts.defaults()
	rng := rand.New(rand.NewSource(opts.Seed))

	userPrefs := make(map[string][]string, opts.Users)
	for u := 1; u <= opts.Users; u++ {
		n := 1 + rng.Intn(3)
		prefs := make([]string, 0, n)
		for _, idx := range rng.Perm(len(categories))[:n] {
			prefs = append(prefs, categories[idx])
		}
		userPrefs[fmt.Sprintf("u-%d", u)] = prefs
	}

	start := opts.Now.AddDate(0, 0, -opts.DaysBack)
	events := make([]*core.Event, 0, opts.Events)
	for i := 0; i < opts.Events; i++ {
		userID := fmt.Sprintf("u-%d", 1+rng.Intn(opts.Users))
		p := catalog[rng.Intn(len(catalog))]
		likesCategory := contains(userPrefs[userID], p.Category)

		query := pick(rng, searchQueries)
		if rng.Float64() < 0.7 && rng.Float64() < 0.5 {
			// query 贴着商品属性造：品牌首词小写，偶尔拼上类目。
			// 事件里的 query 一律小写，与特征库/在线查询的键口径一致
			query = strings.ToLower(firstWord(p.Title))
			if rng.Float64() < 0.5 {
				query += " " + p.Category
			}
		}

		// 指数分布的时间偏移，近期事件更密
		daysAgo := rng.ExpFloat64() * float64(opts.DaysBack) / 3
		if daysAgo > float64(opts.DaysBack) {
			daysAgo = float64(opts.DaysBack)
		}
		ts := start.Add(time.Duration(daysAgo*24) * time.Hour).
			Add(time.Duration(rng.Intn(24)) * time.Hour)

		// 漏斗衰减；偏好类目在点击档位有加成
		r := rng.Float64()
		if likesCategory {
			r += 0.1
		}
		ev := &core.Event{
			EventID:   uuid.NewString(),
			UserID:    userID,
			ProductID: p.ProductID,
			Query:     query,
			Timestamp: ts,
		}
		switch {
		case r < 0.60:
			ev.EventType = core.EventView
		case r < 0.85:
			ev.EventType = core.EventClick
			ev.Clicked = true
		case r < 0.95:
			ev.EventType = core.EventAddToCart
			ev.Clicked = true
			ev.AddToCart = true
		default:
			ev.EventType = core.EventPurchase
			ev.Clicked = true
			ev.AddToCart = true
			ev.Purchased = true
		}
		events = append(events, ev)
	}
	return events
}

// RepairFunnel 原地修复漏斗标志位：purchased ⇒ add_to_cart ⇒ clicked。
// 生成器自身产出的事件已经自洽，这里兜的是外部日志接入的场景；
// 返回修复的事件条数。下游聚合不依赖修复，脏数据同样能聚合。
func RepairFunnel(events []*core.Event) int {
	repaired := 0
	for _, ev := range events {
		if ev == nil {
			continue
		}
		fixed := false
		if ev.Purchased && !ev.AddToCart {
			ev.AddToCart = true
			fixed = true
		}
		if ev.AddToCart && !ev.Clicked {
			ev.Clicked = true
			fixed = true
		}
		if fixed {
			repaired++
		}
	}
	return repaired
}

func pick(rng *rand.Rand, vals []string) string {
	if len(vals) == 0 {
		return "Generic"
	}
	return vals[rng.Intn(len(vals))]
}

func contains(vals []string, target string) bool {
	for _, v := range vals {
		if v == target {
			return true
		}
	}
	return false
}

func firstWord(s string) string {
	for i, r := range s {
		if r == ' ' {
			return s[:i]
		}
	}
	return s
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
