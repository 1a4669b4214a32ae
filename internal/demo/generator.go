// Package demo provides a synthetic analytics source: sixty days of visitor
// metrics, generated in process or served over HTTP.
package demo

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Days is how many daily records a payload carries.
const Days = 60

// Point is one day of synthetic metrics.
type Point struct {
	Date     string `json:"date"`
	Desktop  int    `json:"desktop"`
	Mobile   int    `json:"mobile"`
	Referral int    `json:"referral"`
	Organic  int    `json:"organic"`
}

// Generator produces the series ending today.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// NewGenerator returns a Generator seeded from the runtime.
func NewGenerator() *Generator {
	return &Generator{rnd: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), now: time.Now}
}

// NewSeeded returns a deterministic Generator with a fixed clock.
func NewSeeded(seed uint64, now time.Time) *Generator {
	return &Generator{
		rnd: rand.New(rand.NewPCG(seed, seed)),
		now: func() time.Time { return now },
	}
}

// between returns an integer in [lo, lo+span).
func (g *Generator) between(lo, span int) int {
	return lo + g.rnd.IntN(span)
}

// Generate returns Days points, oldest first, the last one dated today (UTC).
func (g *Generator) Generate() []Point {
	g.mu.Lock()
	defer g.mu.Unlock()

	today := g.now().UTC()
	out := make([]Point, 0, Days)
	for i := Days - 1; i >= 0; i-- {
		out = append(out, Point{
			Date:     today.AddDate(0, 0, -i).Format("2006-01-02"),
			Desktop:  g.between(200, 300),
			Mobile:   g.between(100, 350),
			Referral: g.between(10, 80),
			Organic:  g.between(50, 200),
		})
	}
	return out
}

// Payload is the wire shape of the analytics route.
type Payload struct {
	Timeseries []Point `json:"timeseries"`
}

// Payload wraps a fresh series.
func (g *Generator) Payload() Payload {
	return Payload{Timeseries: g.Generate()}
}
