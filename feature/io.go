package feature

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rushteam/searchop/core"
)

// 离线 pipeline 的文件边界统一在这里：
// catalog.csv / events.csv 是追加型输入，feature_store.csv 是整表重建的输出。

const timestampLayout = time.RFC3339

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteRows 按规范列序把特征库写成 CSV。
func WriteRows(w io.Writer, rows []*Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Query,
			strconv.FormatInt(r.ProductID, 10),
			r.UserID,
			r.Title,
			r.Description,
			r.Category,
			formatFloat(r.Price),
			r.Brand,
			formatFloat(r.Rating),
			r.Tags,
			strconv.FormatInt(r.TotalViews, 10),
			strconv.FormatInt(r.TotalClicks, 10),
			strconv.FormatInt(r.TotalAddToCart, 10),
			strconv.FormatInt(r.TotalPurchases, 10),
			formatFloat(r.CTR),
			formatFloat(r.ATCRate),
			formatFloat(r.PurchaseRate),
			strconv.FormatInt(r.RecentViews7d, 10),
			strconv.FormatInt(r.RecentPurchases7d, 10),
			formatFloat(r.Popularity),
			strconv.FormatInt(r.QueryProductViews, 10),
			strconv.FormatInt(r.QueryProductClicks, 10),
			strconv.FormatInt(r.QueryProductPurchases, 10),
			formatFloat(r.QueryCTR),
			formatFloat(r.QueryPurchaseRate),
			formatFloat(r.TfidfSimilarity),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadRows 从 CSV 读回特征库。
// 列按表头名对位，允许缺列（上游数据不全时 schema 优雅降级，缺列补 0），
// 未知列忽略。
func ReadRows(r io.Reader) ([]*Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}

	cell := func(record []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}
	cellFloat := func(record []string, col string) float64 {
		v, _ := strconv.ParseFloat(cell(record, col), 64)
		return v
	}
	cellInt := func(record []string, col string) int64 {
		s := cell(record, col)
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return v
		}
		// 兼容浮点写法的计数列
		v, _ := strconv.ParseFloat(s, 64)
		return int64(v)
	}

	var rows []*Row
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		rows = append(rows, &Row{
			Query:       cell(record, "query"),
			ProductID:   cellInt(record, "product_id"),
			UserID:      cell(record, "user_id"),
			Title:       cell(record, "title"),
			Description: cell(record, "description"),
			Category:    cell(record, "category"),
			Price:       cellFloat(record, "price"),
			Brand:       cell(record, "brand"),
			Rating:      cellFloat(record, "rating"),
			Tags:        cell(record, "tags"),

			TotalViews:        cellInt(record, "total_views"),
			TotalClicks:       cellInt(record, "total_clicks"),
			TotalAddToCart:    cellInt(record, "total_add_to_cart"),
			TotalPurchases:    cellInt(record, "total_purchases"),
			CTR:               cellFloat(record, "ctr"),
			ATCRate:           cellFloat(record, "atc_rate"),
			PurchaseRate:      cellFloat(record, "purchase_rate"),
			RecentViews7d:     cellInt(record, "recent_views_7d"),
			RecentPurchases7d: cellInt(record, "recent_purchases_7d"),
			Popularity:        cellFloat(record, "popularity"),

			QueryProductViews:     cellInt(record, "query_product_views"),
			QueryProductClicks:    cellInt(record, "query_product_clicks"),
			QueryProductPurchases: cellInt(record, "query_product_purchases"),
			QueryCTR:              cellFloat(record, "query_ctr"),
			QueryPurchaseRate:     cellFloat(record, "query_purchase_rate"),
			TfidfSimilarity:       cellFloat(record, "tfidf_similarity"),
		})
	}
	return rows, nil
}

// WriteRowsFile 把特征库写到文件（整表覆盖）。
func WriteRowsFile(path string, rows []*Row) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteRows(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadRowsFile 从文件读回特征库。
func ReadRowsFile(path string) ([]*Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadRows(f)
}

// WriteCatalog 把商品目录写成 CSV。
func WriteCatalog(w io.Writer, catalog []*core.Product) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"product_id", "title", "description", "category", "price", "brand", "rating", "tags",
	}); err != nil {
		return err
	}
	for _, p := range catalog {
		record := []string{
			strconv.FormatInt(p.ProductID, 10),
			p.Title,
			p.Description,
			p.Category,
			formatFloat(p.Price),
			p.Brand,
			formatFloat(p.Rating),
			p.Tags,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCatalog 从 CSV 读商品目录。
func ReadCatalog(r io.Reader) ([]*core.Product, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	idx := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		idx[name] = i
	}
	cell := func(record []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	catalog := make([]*core.Product, 0, len(records)-1)
	for _, record := range records[1:] {
		id, err := strconv.ParseInt(cell(record, "product_id"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse product_id %q: %w", cell(record, "product_id"), err)
		}
		price, _ := strconv.ParseFloat(cell(record, "price"), 64)
		rating, _ := strconv.ParseFloat(cell(record, "rating"), 64)
		catalog = append(catalog, &core.Product{
			ProductID:   id,
			Title:       cell(record, "title"),
			Description: cell(record, "description"),
			Category:    cell(record, "category"),
			Price:       price,
			Brand:       cell(record, "brand"),
			Rating:      rating,
			Tags:        cell(record, "tags"),
		})
	}
	return catalog, nil
}

// WriteEvents 把点击流事件写成 CSV。
func WriteEvents(w io.Writer, events []*core.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"event_id", "user_id", "product_id", "query", "event_type",
		"clicked", "add_to_cart", "purchased", "timestamp",
	}); err != nil {
		return err
	}
	for _, ev := range events {
		record := []string{
			ev.EventID,
			ev.UserID,
			strconv.FormatInt(ev.ProductID, 10),
			ev.Query,
			string(ev.EventType),
			strconv.FormatBool(ev.Clicked),
			strconv.FormatBool(ev.AddToCart),
			strconv.FormatBool(ev.Purchased),
			ev.Timestamp.Format(timestampLayout),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadEvents 从 CSV 读点击流事件。
func ReadEvents(r io.Reader) ([]*core.Event, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	idx := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		idx[name] = i
	}
	cell := func(record []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	events := make([]*core.Event, 0, len(records)-1)
	for _, record := range records[1:] {
		productID, err := strconv.ParseInt(cell(record, "product_id"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse product_id %q: %w", cell(record, "product_id"), err)
		}
		ts, err := time.Parse(timestampLayout, cell(record, "timestamp"))
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", cell(record, "timestamp"), err)
		}
		clicked, _ := strconv.ParseBool(cell(record, "clicked"))
		addToCart, _ := strconv.ParseBool(cell(record, "add_to_cart"))
		purchased, _ := strconv.ParseBool(cell(record, "purchased"))
		events = append(events, &core.Event{
			EventID:   cell(record, "event_id"),
			UserID:    cell(record, "user_id"),
			ProductID: productID,
			Query:     cell(record, "query"),
			EventType: core.EventType(cell(record, "event_type")),
			Clicked:   clicked,
			AddToCart: addToCart,
			Purchased: purchased,
			Timestamp: ts,
		})
	}
	return events, nil
}

// ReadCatalogFile / ReadEventsFile 是文件版便捷入口。

func ReadCatalogFile(path string) ([]*core.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCatalog(f)
}

func ReadEventsFile(path string) ([]*core.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadEvents(f)
}

func WriteCatalogFile(path string, catalog []*core.Product) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCatalog(f, catalog); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func WriteEventsFile(path string, events []*core.Event) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteEvents(f, events); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
