package analytics

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Insight keys.
const (
	InsightPrice          = "price"
	InsightDiscount       = "discount"
	InsightStock          = "stock"
	InsightScatter        = "scatter"
	InsightDistribution   = "distribution"
	InsightAvailability   = "availability"
	InsightRecommendation = "recommendation"
)

// Insight is a narrative panel rendered next to a chart.
type Insight struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

const (
	scatterInsightText = "Higher discounts don’t always reduce selling price. " +
		"Premium product categories still maintain higher pricing despite discounts."
	distributionInsightText = "Categories with more products indicate stronger " +
		"inventory focus or higher demand segments."
	availabilityInsightText = "A higher proportion of in-stock products suggests " +
		"healthy inventory levels, while frequent stock-outs may impact customer satisfaction."
	// RecommendationCaption accompanies the discount recommendation panel.
	RecommendationCaption = "This shows average discount patterns in the dataset. " +
		"Helps understand competitive pricing trends."
)

var printer = message.NewPrinter(language.English)

// PriceInsight describes the average selling price of a category.
func PriceInsight(category string, avgPrice float64) Insight {
	return Insight{
		Key:   InsightPrice,
		Title: "Insight",
		Text:  printer.Sprintf("Average selling price in %s is around ₹%.0f, indicating its pricing level relative to other categories.", category, avgPrice),
	}
}

// DiscountInsight describes the average discount of a category.
func DiscountInsight(category string, avgDiscount float64) Insight {
	return Insight{
		Key:   InsightDiscount,
		Title: "Insight",
		Text:  printer.Sprintf("Products in %s have an average discount of about %.1f%%, showing promotional activity in this segment.", category, avgDiscount),
	}
}

// StockInsightText describes the in-stock share of a category.
func StockInsightText(category string, pct float64) Insight {
	return Insight{
		Key:   InsightStock,
		Title: "Stock Insight",
		Text:  printer.Sprintf("About %.1f%% of items in %s are currently in stock.", pct, category),
	}
}

// RecommendationInsight states the typical discount of a category.
func RecommendationInsight(rec CategoryValue) Insight {
	return Insight{
		Key:   InsightRecommendation,
		Title: "Recommended Discount Range",
		Text:  printer.Sprintf("Typical discount in %s: ~%.1f%%", rec.Category, rec.Value),
	}
}

func staticInsights() []Insight {
	return []Insight{
		{Key: InsightScatter, Title: "Insight", Text: scatterInsightText},
		{Key: InsightDistribution, Title: "Insight", Text: distributionInsightText},
		{Key: InsightAvailability, Title: "Insight", Text: availabilityInsightText},
	}
}

// FormatNumber renders v with English digit grouping and the given decimals.
func FormatNumber(v float64, decimals int) string {
	switch {
	case decimals <= 0:
		return printer.Sprintf("%.0f", v)
	case decimals == 1:
		return printer.Sprintf("%.1f", v)
	default:
		return printer.Sprintf("%.2f", v)
	}
}
