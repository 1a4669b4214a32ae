package analytics

import (
	"context"
	"encoding/json"
)

// Card is one summary counter.
type Card struct {
	Key         string
	Title       string
	Value       float64
	Known       bool
	Description string
}

type counter struct {
	key      string // field in the /analytics payload
	kind     string
	title    string
	describe func(float64) string
}

var counters = []counter{
	{"todos", "todos", "Todos", func(v float64) string {
		switch {
		case v > 10000:
			return "Very high activity"
		case v > 1000:
			return "High activity"
		case v > 100:
			return "Moderate activity"
		}
		return "Low activity"
	}},
	{"users", "users", "Users", func(v float64) string {
		switch {
		case v > 100000:
			return "Large userbase"
		case v > 10000:
			return "Growing userbase"
		case v > 1000:
			return "Active users"
		}
		return "Small userbase"
	}},
	{"positions", "positions", "Positions", func(v float64) string {
		switch {
		case v > 10000:
			return "Many positions"
		case v > 1000:
			return "Healthy positions"
		}
		return "Few positions"
	}},
	{"total", "data", "Data", func(v float64) string {
		switch {
		case v > 1000:
			return "High data volume"
		case v > 100:
			return "Moderate data"
		}
		return "Low data"
	}},
}

// NoData describes a counter the payload did not carry.
const NoData = "No data"

// Summarize reads the summary counters from an /analytics payload. Only
// JSON numbers count; anything else is reported as unknown.
func Summarize(v any) []Card {
	rec, _ := v.(map[string]any)
	cards := make([]Card, 0, len(counters))
	for _, c := range counters {
		card := Card{Key: c.kind, Title: c.title, Description: NoData}
		if f, ok := jsonNumber(rec[c.key]); ok {
			card.Value = f
			card.Known = true
			card.Description = c.describe(f)
		}
		cards = append(cards, card)
	}
	return cards
}

func jsonNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	}
	return 0, false
}

// Summary fetches the counters from the chain's first payload.
func (c *Chain) Summary(ctx context.Context) ([]Card, error) {
	v, err := c.Payload(ctx)
	if err != nil {
		return nil, err
	}
	return Summarize(v), nil
}
