// Package generator synthesizes retail operations events with randomized but
// internally consistent content.
package generator

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/gyaneshwarpardhi/retailtwin/internal/event"
)

// Generator produces one Event per call. It is safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	rng     *rand.Rand
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
	last    time.Time
	vocab   Vocabulary
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes the generated sequence reproducible.
func WithSeed(seed int64) Option {
	return func(g *Generator) { g.rng = rand.New(rand.NewSource(seed)) }
}

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithVocabulary replaces the name pools. Empty pools keep their defaults.
func WithVocabulary(v Vocabulary) Option {
	return func(g *Generator) { g.vocab = v.merged() }
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		now:   time.Now,
		vocab: DefaultVocabulary(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.entropy = ulid.Monotonic(g.rng, 0)
	return g
}

// Generate returns a fully populated event stamped with the current time.
func (g *Generator) Generate() *event.Event {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := g.now()
	if ts.Before(g.last) {
		ts = g.last
	}
	id, ts := g.nextID(ts)
	g.last = ts

	cats := event.Categories()
	sevs := event.Severities()
	ev := &event.Event{
		ID:        id,
		Timestamp: ts,
		Category:  cats[g.rng.Intn(len(cats))],
		Severity:  sevs[g.rng.Intn(len(sevs))],
		Source:    g.pick(g.vocab.Sources),
	}
	ev.Message, ev.Details = g.fill(ev.Category)
	return ev
}

// nextID returns a ULID strictly greater than every previous one. Monotonic
// entropy only overflows after ~2^80 ids in one millisecond; on overflow the
// timestamp moves one millisecond forward.
func (g *Generator) nextID(ts time.Time) (string, time.Time) {
	for {
		id, err := ulid.New(ulid.Timestamp(ts), g.entropy)
		if err == nil {
			return id.String(), ts
		}
		ts = ts.Add(time.Millisecond)
	}
}

func (g *Generator) fill(c event.Category) (string, map[string]interface{}) {
	switch c {
	case event.Sales:
		return g.sale()
	case event.Inventory:
		return g.inventory()
	case event.Customer:
		return g.customer()
	case event.SupplyChain:
		return g.shipment()
	case event.Payment:
		return g.payment()
	case event.Promotion:
		return g.promotion()
	case event.Staff:
		return g.staffShift()
	default:
		return g.system()
	}
}

func (g *Generator) sale() (string, map[string]interface{}) {
	n := 1 + g.rng.Intn(3)
	items := make([]event.LineItem, 0, n)
	total := decimal.Zero
	for i := 0; i < n; i++ {
		li := event.LineItem{
			Name:     g.pick(g.vocab.Products),
			Quantity: 1 + g.rng.Intn(3),
			Price:    g.money(20, 500),
		}
		total = total.Add(li.Subtotal())
		items = append(items, li)
	}
	channel, location := "in-store", g.pick(storeLocations)
	if g.rng.Float64() > 0.7 {
		channel, location = "online", "Online"
	}
	return fmt.Sprintf("New %s sale", channel), map[string]interface{}{
		"customer": g.pick(g.vocab.Customers),
		"items":    items,
		"total":    total,
		"payment":  g.pick(paymentMethods),
		"staff":    g.pick(g.vocab.Staff),
		"location": location,
	}
}

func (g *Generator) inventory() (string, map[string]interface{}) {
	product := g.pick(g.vocab.Products)
	action, msg := "Restocked", "Inventory restocked for "+product
	if g.rng.Intn(2) == 0 {
		action, msg = "Alert", "Inventory low for "+product
	}
	return msg, map[string]interface{}{
		"product":   product,
		"sku":       fmt.Sprintf("SKU-%05d", 10000+g.rng.Intn(90000)),
		"quantity":  g.rng.Intn(51),
		"threshold": 5 + g.rng.Intn(16),
		"action":    action,
		"warehouse": g.pick(warehouses),
	}
}

func (g *Generator) customer() (string, map[string]interface{}) {
	name := g.pick(g.vocab.Customers)
	action, verb := "Purchase", "made purchase"
	if g.rng.Intn(2) == 0 {
		action, verb = "Return", "returned item"
	}
	return name + " " + verb, map[string]interface{}{
		"customer":    name,
		"loyaltyTier": g.pick(loyaltyTiers),
		"action":      action,
		"value":       g.money(20, 320),
		"staff":       g.pick(g.vocab.Staff),
	}
}

func (g *Generator) shipment() (string, map[string]interface{}) {
	status := g.pick(shipmentStatuses)
	eta := fmt.Sprintf("%d days", 1+g.rng.Intn(3))
	switch status {
	case "Delayed":
		eta = "Delayed"
	case "Received":
		eta = "Arrived"
	}
	return "Shipment " + strings.ToLower(status), map[string]interface{}{
		"trackingId": fmt.Sprintf("TRK-%06d", 100000+g.rng.Intn(900000)),
		"carrier":    g.pick(carriers),
		"items":      10 + g.rng.Intn(100),
		"status":     status,
		"eta":        eta,
	}
}

func (g *Generator) payment() (string, map[string]interface{}) {
	order := fmt.Sprintf("#%d", 1000+g.rng.Intn(9000))
	outcome := "processed"
	if g.rng.Intn(2) == 0 {
		outcome = "declined"
	}
	return fmt.Sprintf("Payment %s for order %s", outcome, order), map[string]interface{}{
		"order":     order,
		"amount":    g.money(50, 500),
		"method":    g.pick(cardMethods),
		"last4":     fmt.Sprintf("%04d", 1000+g.rng.Intn(9000)),
		"processor": g.pick(processors),
	}
}

func (g *Generator) promotion() (string, map[string]interface{}) {
	msg := "Promotion applied"
	if g.rng.Intn(2) == 0 {
		msg = "Coupon redeemed"
	}
	customer := "Guest"
	if g.rng.Float64() > 0.3 {
		customer = g.pick(g.vocab.Customers)
	}
	return msg, map[string]interface{}{
		"code":     fmt.Sprintf("DISC%d", 10+g.rng.Intn(90)),
		"discount": fmt.Sprintf("%d%%", 5+g.rng.Intn(25)),
		"product":  g.pick(g.vocab.Products),
		"customer": customer,
		"savings":  g.money(5, 55),
	}
}

func (g *Generator) staffShift() (string, map[string]interface{}) {
	name := g.pick(g.vocab.Staff)
	verb := "shift started"
	var sales interface{}
	if g.rng.Intn(2) == 0 {
		verb = "made sale"
		sales = g.money(100, 1000)
	}
	return name + " " + verb, map[string]interface{}{
		"staff":       name,
		"role":        g.pick(staffRoles),
		"hours":       fmt.Sprintf("%d hours", 4+g.rng.Intn(6)),
		"sales":       sales,
		"performance": g.pick(performance),
	}
}

func (g *Generator) system() (string, map[string]interface{}) {
	system := g.pick(systemNames)
	kind := "update"
	if g.rng.Intn(2) == 0 {
		kind = "alert"
	}
	return system + " " + kind, map[string]interface{}{
		"system": system,
		"status": g.pick(systemStatuses),
		"action": g.pick(systemActions),
	}
}

// money returns a dollar amount in [lo, hi] with cent precision.
func (g *Generator) money(lo, hi int) decimal.Decimal {
	cents := int64(lo*100) + g.rng.Int63n(int64((hi-lo)*100)+1)
	return decimal.New(cents, -2)
}

func (g *Generator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}
