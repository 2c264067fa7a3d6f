package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ProductID is an opaque product identifier. The catalog API may send it as a
// JSON string or a JSON number; both decode to the same textual form.
type ProductID string

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (id *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty product id")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid product id: %w", err)
		}
		*id = ProductID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product id must be a string or a number, got %s", data)
	}
	*id = ProductID(n.String())
	return nil
}

// Product represents a product in the store.
type Product struct {
	ID    ProductID `json:"id"`
	Name  string    `json:"name"`
	Price float64   `json:"price"`
}

// FormatPrice renders a price the way the storefront shows it: "$" followed
// by the shortest form of the value that reads back to the same number
// (9.99 -> "$9.99", 10 -> "$10", 1e21 -> "$1e+21").
func FormatPrice(price float64) string {
	return "$" + formatNumber(price)
}

// formatNumber switches to exponent notation outside [1e-6, 1e21), the same
// thresholds browsers use when printing a number.
func formatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	abs := math.Abs(v)
	if abs >= 1e21 || abs < 1e-6 {
		mantissa, exp, _ := strings.Cut(strconv.FormatFloat(v, 'e', -1, 64), "e")
		return mantissa + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SampleProducts returns the bundled catalog used by the mock source and to
// seed empty repositories. Every call returns a fresh slice.
func SampleProducts() []Product {
	return []Product{
		{ID: "1", Name: "Widget", Price: 9.99},
		{ID: "2", Name: "Gadget", Price: 24.5},
		{ID: "3", Name: "Gizmo", Price: 14},
		{ID: "4", Name: "Doohickey", Price: 4.25},
	}
}
