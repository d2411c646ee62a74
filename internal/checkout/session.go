// Package checkout orchestrates one shopper's cart: it prices lines,
// resolves the delivery distance in the background when the destination
// changes, gates checkout until that resolution completes and hands the
// final total to the payment gateway.
package checkout

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/souk/internal/billing"
	"github.com/dukerupert/souk/internal/distance"
	"github.com/dukerupert/souk/internal/domain"
	"github.com/dukerupert/souk/internal/order"
	"github.com/dukerupert/souk/internal/pricing"
	"github.com/dukerupert/souk/internal/shipping"
	"github.com/dukerupert/souk/internal/telemetry"
	"github.com/shopspring/decimal"
)

const (
	// DefaultDebounce is the quiet period after a destination change before
	// distance resolution starts.
	DefaultDebounce = 300 * time.Millisecond

	// DefaultCurrency is the ISO 4217 currency of every cart.
	DefaultCurrency = "NGN"
)

// DistanceResolver resolves delivery distances. *distance.Resolver
// implements it.
type DistanceResolver interface {
	Resolve(ctx context.Context, q distance.Query) domain.ResolvedDistance
}

// Config holds the collaborators shared by every session.
type Config struct {
	Resolver  DistanceResolver
	Gateway   billing.Gateway
	Submitter order.Submitter
	Promos    *pricing.PromoBook

	Tariff         shipping.TariffConfig
	TaxRatePercent decimal.Decimal
	Currency       string

	// DefaultOrigin is used when no line carries a product location.
	DefaultOrigin string

	// Debounce overrides DefaultDebounce. A negative value disables it.
	Debounce time.Duration

	Logger *slog.Logger
	Now    func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Promos == nil {
		c.Promos = pricing.NewPromoBook(pricing.DefaultPromotions())
	}
	if c.Currency == "" {
		c.Currency = DefaultCurrency
	}
	if c.Debounce == 0 {
		c.Debounce = DefaultDebounce
	} else if c.Debounce < 0 {
		c.Debounce = 0
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Session is one shopper's cart and checkout state. All methods are safe
// for concurrent use. Mutations return immediately; distance resolution
// runs in the background.
type Session struct {
	id     string
	cfg    Config
	pricer Pricer
	logger *slog.Logger

	// ctx parents every resolution and is cancelled by Close.
	ctx       context.Context
	cancelAll context.CancelFunc

	mu             sync.Mutex
	lines          []domain.CartLine
	originOverride string
	origin         string // origin of the current generation
	promo          pricing.PromoState
	gate           *Gate
	changed        chan struct{}
	timer          *time.Timer
	cancelResolve  context.CancelFunc
	lastActive     time.Time
	closed         bool

	// payments holds every payment created and not yet confirmed, each
	// with the cart it was created for. latestPayment is the newest one.
	payments      map[string]*pendingPayment
	latestPayment string
	confirming    map[string]struct{}
	orders        map[string]*orderResult
}

// NewSession creates a session. cfg.Resolver must be set.
func NewSession(id string, cfg Config) *Session {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:         id,
		cfg:        cfg,
		pricer:     Pricer{Tariff: cfg.Tariff, TaxRatePercent: cfg.TaxRatePercent},
		logger:     cfg.Logger.With("component", "checkout", "session_id", id),
		ctx:        ctx,
		cancelAll:  cancel,
		gate:       NewGate(),
		changed:    make(chan struct{}),
		lastActive: cfg.Now(),
		payments:   make(map[string]*pendingPayment),
		confirming: make(map[string]struct{}),
		orders:     make(map[string]*orderResult),
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// =============================================================================
// CART LINES
// =============================================================================

// SetLines replaces the cart lines. Lines are validated but not priced;
// pricing errors surface from Quote and ProceedToCheckout.
func (s *Session) SetLines(lines []domain.CartLine) error {
	for _, line := range lines {
		if err := line.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = append([]domain.CartLine(nil), lines...)
	s.touch()
	s.originChanged()
	cartUpdated("set_lines")
	return nil
}

// UpdateQuantity changes the quantity of one line.
func (s *Session) UpdateQuantity(lineID string, quantity int) error {
	if quantity < 1 {
		return domain.ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.lineIndex(lineID)
	if i < 0 {
		return domain.ErrCartLineNotFound
	}
	s.lines[i].Quantity = quantity
	s.touch()
	cartUpdated("update_quantity")
	return nil
}

// RemoveLine drops one line from the cart.
func (s *Session) RemoveLine(lineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.lineIndex(lineID)
	if i < 0 {
		return domain.ErrCartLineNotFound
	}
	s.lines = append(s.lines[:i:i], s.lines[i+1:]...)
	s.touch()
	s.originChanged()
	cartUpdated("remove_line")
	return nil
}

// Lines returns a copy of the cart lines.
func (s *Session) Lines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CartLine(nil), s.lines...)
}

func (s *Session) lineIndex(lineID string) int {
	for i, l := range s.lines {
		if l.ID == lineID {
			return i
		}
	}
	return -1
}

// =============================================================================
// PROMOTIONS
// =============================================================================

// ApplyPromoCode activates a promo code. Re-applying the active code is a
// no-op; another valid code replaces it. An unknown code returns
// pricing.ErrInvalidPromoCode and leaves the cart unchanged.
func (s *Session) ApplyPromoCode(code string) (pricing.Promotion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	changed, err := s.promo.Apply(s.cfg.Promos, code)
	if err != nil {
		if telemetry.Business != nil {
			telemetry.Business.PromoRejected.Inc()
		}
		s.logger.Info("promo code rejected", "code", code)
		return pricing.Promotion{}, err
	}

	active, _ := s.promo.Active()
	if changed && telemetry.Business != nil {
		telemetry.Business.PromoApplied.WithLabelValues(active.Code).Inc()
	}
	return active, nil
}

// RemovePromoCode clears the active promotion.
func (s *Session) RemovePromoCode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promo.Clear()
	s.touch()
}

// =============================================================================
// DESTINATION AND ORIGIN
// =============================================================================

// SelectAddress selects the delivery address and schedules distance
// resolution for it. Any earlier resolution still in flight is cancelled
// and its result dropped. Selecting the address already selected changes
// nothing.
func (s *Session) SelectAddress(addr domain.Address) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	prev := s.gate.Generation()
	gen := s.gate.SelectAddress(addr)
	if gen == prev {
		return gen
	}
	s.origin = s.effectiveOrigin()
	s.schedule(gen)
	return gen
}

// ClearAddress deselects the delivery address.
func (s *Session) ClearAddress() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	s.stopResolution()
	s.gate.ClearAddress()
	s.notify()
}

// SetOrigin overrides the origin derived from the cart lines. An empty
// origin restores the derived one.
func (s *Session) SetOrigin(origin string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	s.originOverride = strings.TrimSpace(origin)
	s.originChanged()
}

func (s *Session) effectiveOrigin() string {
	return OriginFor(s.lines, s.originOverride, s.cfg.DefaultOrigin)
}

// OriginFor picks the delivery origin: the override, else the first line
// with a product location, else fallback.
func OriginFor(lines []domain.CartLine, override, fallback string) string {
	if o := strings.TrimSpace(override); o != "" {
		return o
	}
	for _, l := range lines {
		if loc := strings.TrimSpace(l.Product.Location); loc != "" {
			return loc
		}
	}
	return fallback
}

// originChanged re-triggers resolution when the origin of the selected
// destination changed. Quantity edits never get here.
func (s *Session) originChanged() {
	origin := s.effectiveOrigin()
	if origin == s.origin {
		return
	}
	s.origin = origin
	if gen := s.gate.Retrigger(); gen != 0 {
		s.schedule(gen)
	}
}

// schedule starts resolution for gen after the debounce period. Callers
// hold s.mu.
func (s *Session) schedule(gen uint64) {
	s.stopResolution()
	s.notify()
	if s.closed {
		return
	}
	if s.cfg.Debounce == 0 {
		go s.resolve(gen)
		return
	}
	s.timer = time.AfterFunc(s.cfg.Debounce, func() { s.resolve(gen) })
}

// stopResolution cancels the pending timer and any in-flight resolution.
func (s *Session) stopResolution() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancelResolve != nil {
		s.cancelResolve()
		s.cancelResolve = nil
	}
}

func (s *Session) resolve(gen uint64) {
	s.mu.Lock()
	addr, ok := s.gate.Address()
	if !ok || s.closed || gen != s.gate.Generation() {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancelResolve = cancel
	q := distance.Query{SessionID: s.id, Origin: s.origin, Destination: addr}
	s.mu.Unlock()
	defer cancel()

	d := s.cfg.Resolver.Resolve(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.gate.Complete(gen, d) {
		s.logger.Debug("stale distance dropped", "generation", gen, "current", s.gate.Generation())
		return
	}
	s.cancelResolve = nil
	s.notify()

	s.logger.Info("delivery distance resolved",
		"generation", gen,
		"source", d.Source,
		"km", d.Kilometers,
	)
	if telemetry.Business != nil {
		fee := shipping.Calculate(d.Kilometers, shipping.TotalWeight(s.lines), s.cfg.Tariff)
		telemetry.Business.DeliveryFee.WithLabelValues(string(d.Source)).Observe(fee.Total.InexactFloat64())
	}
}

// notify wakes AwaitDistance callers. Callers hold s.mu.
func (s *Session) notify() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// AwaitDistance blocks until the distance resolution for the selected
// address completes, then returns it.
func (s *Session) AwaitDistance(ctx context.Context) (domain.ResolvedDistance, error) {
	for {
		s.mu.Lock()
		state := s.gate.State()
		d := s.gate.Distance()
		ch := s.changed
		s.mu.Unlock()

		switch state {
		case StateNoAddress:
			return domain.Unresolved(), ErrNoAddressSelected
		case StateDistanceResolved:
			return d, nil
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return domain.Unresolved(), ctx.Err()
		}
	}
}

// =============================================================================
// QUOTE
// =============================================================================

// Quote is a point-in-time view of the session, recomputed on every read.
type Quote struct {
	SessionID  string `json:"session_id"`
	State      State  `json:"state"`
	ReadyToPay bool   `json:"ready_to_pay"`

	// Blocked explains why checkout cannot proceed, empty when ReadyToPay.
	Blocked string `json:"blocked,omitempty"`

	Lines     []domain.CartLine       `json:"-"`
	Address   *domain.Address         `json:"address,omitempty"`
	Origin    string                  `json:"origin,omitempty"`
	Distance  domain.ResolvedDistance `json:"distance"`
	Promotion *pricing.Promotion      `json:"promotion,omitempty"`
	Pricing
}

// Quote prices the cart as it stands. It fails with
// pricing.ErrInvalidPriceData when a line has no valid price.
func (s *Session) Quote() (Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quote()
}

func (s *Session) quote() (Quote, error) {
	q := Quote{
		SessionID:  s.id,
		State:      s.gate.State(),
		ReadyToPay: s.gate.ReadyToPay(),
		Lines:      append([]domain.CartLine(nil), s.lines...),
		Origin:     s.origin,
		Distance:   s.gate.Distance(),
	}
	if err := s.gate.Proceed(); err != nil {
		q.Blocked = domain.ErrorMessage(err)
	}
	if addr, ok := s.gate.Address(); ok {
		q.Address = &addr
	}
	if p, ok := s.promo.Active(); ok {
		q.Promotion = &p
	}

	var d *domain.ResolvedDistance
	if q.ReadyToPay {
		d = &q.Distance
	}
	p, err := s.pricer.Price(s.lines, d, &s.promo)
	if err != nil {
		return Quote{}, err
	}
	q.Pricing = p
	return q, nil
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// LastActive returns the time of the last shopper interaction.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Close stops background resolution. The session must not be used after.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopResolution()
	s.cancelAll()
}

func (s *Session) touch() {
	s.lastActive = s.cfg.Now()
}

func cartUpdated(action string) {
	if telemetry.Business != nil {
		telemetry.Business.CartUpdated.WithLabelValues(action).Inc()
	}
}
