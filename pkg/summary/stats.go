package summary

import "sort"

// ProductSales is one product's revenue across the selected range.
type ProductSales struct {
	Product string  `json:"product"`
	Sales   float64 `json:"sales"`
}

// HourSales is one bucket's revenue across all products.
type HourSales struct {
	Bucket string  `json:"bucket"`
	Label  string  `json:"label"` // "YYYY/MM/DD HH"
	Sales  float64 `json:"sales"`
}

// Stats are the headline numbers the dashboard shows for a date range.
type Stats struct {
	TotalSales     float64 `json:"total_sales"`
	UniqueProducts int     `json:"unique_products"`
	TopProduct     string  `json:"top_product"`
	TopSales       float64 `json:"top_sales"`
	Rows           int     `json:"rows"`
}

// Compute derives Stats from rows. Top product ties break towards the
// lexically smaller name so the answer is stable.
func Compute(rows []Row) Stats {
	stats := Stats{Rows: len(rows)}
	for _, row := range rows {
		stats.TotalSales += row.Total
	}
	products := ByProduct(rows)
	stats.UniqueProducts = len(products)
	if len(products) > 0 {
		stats.TopProduct = products[0].Product
		stats.TopSales = products[0].Sales
	}
	return stats
}

// ByProduct aggregates rows per product, highest sales first.
func ByProduct(rows []Row) []ProductSales {
	perProduct := make(map[string]float64)
	for _, row := range rows {
		perProduct[row.Product] += row.Total
	}
	out := make([]ProductSales, 0, len(perProduct))
	for product, sales := range perProduct {
		out = append(out, ProductSales{Product: product, Sales: sales})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sales != out[j].Sales {
			return out[i].Sales > out[j].Sales
		}
		return out[i].Product < out[j].Product
	})
	return out
}

// ByHour aggregates rows per bucket, chronological.
func ByHour(rows []Row) []HourSales {
	perBucket := make(map[string]float64)
	labels := make(map[string]string)
	for _, row := range rows {
		key := string(row.Bucket)
		perBucket[key] += row.Total
		labels[key] = row.DateTime
	}
	out := make([]HourSales, 0, len(perBucket))
	for b, sales := range perBucket {
		out = append(out, HourSales{Bucket: b, Label: labels[b], Sales: sales})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bucket < out[j].Bucket })
	return out
}
