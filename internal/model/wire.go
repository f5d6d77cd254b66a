package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Amount is a decimal backend value. The backend serializes decimals either
// as JSON numbers or as strings, both are accepted.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("amount %q: %w", data, err)
	}
	*a = Amount(v)
	return nil
}

func (a Amount) Float64() float64 {
	return float64(a)
}

// Time accepts RFC 3339 timestamps and the zone-less ISO form the backend
// produces for naive datetimes (treated as UTC).
type Time struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for _, layout := range timeLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unsupported timestamp %q", s)
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// Discounted reports whether the product carries an active discount.
func (p Product) Discounted() bool {
	return p.DiscountPercent > 0
}

// DisplayPrice is the price shown to the buyer. When the backend already
// reports the pre-discount price, Price is the discounted one.
func (p Product) DisplayPrice() float64 {
	if !p.Discounted() || p.OriginalPrice != nil {
		return p.Price.Float64()
	}
	return math.Round(p.Price.Float64() * (1 - float64(p.DiscountPercent)/100))
}

// StruckPrice is the pre-discount price shown crossed out next to a discount.
func (p Product) StruckPrice() float64 {
	if p.OriginalPrice != nil && *p.OriginalPrice != 0 {
		return p.OriginalPrice.Float64()
	}
	return p.Price.Float64()
}

func (p Product) InStock() bool {
	return p.Quantity > 0
}

func (p Product) LowStock() bool {
	return p.Quantity < LowStockThreshold
}
