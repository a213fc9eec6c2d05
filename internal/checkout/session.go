// Package checkout drives one storefront checkout: plan and add-on selection,
// email capture, PIX creation through the backend and payment polling.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"privacy-checkout/internal/amount"
	"privacy-checkout/internal/catalog"
	"privacy-checkout/internal/dto"
	"privacy-checkout/internal/model"
	"privacy-checkout/internal/pix"
	"privacy-checkout/internal/schedule"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultThankYouURL  = "/obrigado"
)

var (
	ErrInvalidEmail      = errors.New("invalid email")
	ErrUnknownPlan       = errors.New("unknown plan")
	ErrUnknownBump       = errors.New("unknown order bump")
	ErrInvalidTransition = errors.New("invalid checkout transition")
	ErrAbandoned         = errors.New("checkout abandoned")
	ErrPaymentFailed     = errors.New("payment failed")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Contact details sent with every charge. The gateway bills a synthetic
// customer; only the email is the buyer's.
const (
	contactName     = "Cliente Privacy"
	contactDocument = "11144477735"
	contactPhone    = "11999999999"
)

// ValidationError is shown inline next to the email field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidEmail
}

// Navigator leaves the checkout once payment is confirmed.
type Navigator interface {
	Navigate(url string)
}

type NavigatorFunc func(url string)

func (f NavigatorFunc) Navigate(url string) { f(url) }

type Config struct {
	API       API
	Catalog   *catalog.Catalog
	Store     AttributionStore
	Navigator Navigator
	Logger    echo.Logger

	PollInterval time.Duration
	ThankYouURL  string
	Now          func() time.Time
}

type Session struct {
	api          API
	catalog      *catalog.Catalog
	store        AttributionStore
	navigator    Navigator
	logger       echo.Logger
	pollInterval time.Duration
	thankYouURL  string
	now          func() time.Time

	mu            sync.Mutex
	state         State
	gen           uint64 // bumped whenever in-flight work must be discarded
	plan          *catalog.Plan
	bumps         map[string]bool
	email         string
	tracking      model.UTM
	transactionID string
	pixPayload    string
	lastErr       error
	poller        *schedule.Task
	navigated     bool
}

func NewSession(cfg Config) *Session {
	s := &Session{
		api:          cfg.API,
		catalog:      cfg.Catalog,
		store:        cfg.Store,
		navigator:    cfg.Navigator,
		logger:       cfg.Logger,
		pollInterval: cfg.PollInterval,
		thankYouURL:  cfg.ThankYouURL,
		now:          cfg.Now,
		bumps:        make(map[string]bool),
	}
	if s.catalog == nil {
		s.catalog = catalog.Default()
	}
	if s.pollInterval <= 0 {
		s.pollInterval = DefaultPollInterval
	}
	if s.thankYouURL == "" {
		s.thankYouURL = DefaultThankYouURL
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.navigator == nil {
		s.navigator = NavigatorFunc(func(string) {})
	}
	return s
}

// SelectPlan opens the order for plan, dropping any previous charge and email.
// Add-on choices survive.
func (s *Session) SelectPlan(name string) error {
	plan, ok := s.catalog.Plan(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPlan, name)
	}

	s.mu.Lock()
	if s.state == Creating || s.state == Paid {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: select plan while %s", ErrInvalidTransition, state)
	}
	poller := s.resetLocked()
	s.plan = &plan
	s.email = ""
	s.state = PlanSelected
	s.mu.Unlock()

	stopPoller(poller)
	return nil
}

func (s *Session) ToggleBump(id string) error {
	if _, ok := s.catalog.Bump(id); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBump, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.editable() {
		return fmt.Errorf("%w: toggle bump while %s", ErrInvalidTransition, s.state)
	}
	s.bumps[id] = !s.bumps[id]
	return nil
}

// SetEmail records the email as typed. A non-empty malformed value is kept but
// reported so the field can show an inline error.
func (s *Session) SetEmail(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.editable() {
		return fmt.Errorf("%w: set email while %s", ErrInvalidTransition, s.state)
	}
	s.email = email
	s.state = AwaitingEmail

	if trimmed := strings.TrimSpace(email); trimmed != "" && !ValidEmail(trimmed) {
		return &ValidationError{Message: "Email inválido"}
	}
	return nil
}

// SetTracking overrides the stored attribution with a live tracker reading.
func (s *Session) SetTracking(utm model.UTM) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracking = utm
}

func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Total is the plan price plus every selected add-on, in reais.
func (s *Session) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalLocked()
}

func (s *Session) TotalCents() int64 {
	return amount.Cents(s.Total())
}

func (s *Session) totalLocked() decimal.Decimal {
	if s.plan == nil {
		return decimal.Zero
	}
	total := s.plan.Price
	for _, b := range s.selectedBumpsLocked() {
		total = total.Add(b.Price)
	}
	return total
}

// selectedBumpsLocked keeps catalog order.
func (s *Session) selectedBumpsLocked() []catalog.OrderBump {
	var out []catalog.OrderBump
	for _, b := range s.catalog.OrderBumps {
		if s.bumps[b.ID] {
			out = append(out, b)
		}
	}
	return out
}

// Submit creates the PIX charge. Validation failures return a *ValidationError
// without touching the network. On success polling starts; on any other
// failure the session moves to Failed until Acknowledge.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if !s.state.editable() || s.plan == nil {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: submit while %s", ErrInvalidTransition, state)
	}

	email := strings.TrimSpace(s.email)
	if email == "" {
		s.mu.Unlock()
		return &ValidationError{Message: "Por favor, insira seu email para continuar"}
	}
	if !ValidEmail(email) {
		s.mu.Unlock()
		return &ValidationError{Message: "Por favor, insira um email válido"}
	}

	s.state = Creating
	s.lastErr = nil
	gen := s.gen
	tracking := s.tracking
	req := s.buildRequestLocked(email)
	s.mu.Unlock()

	utm, err := ResolveAttribution(ctx, s.store, tracking)
	if err != nil {
		s.logf("[checkout] attribution unavailable: %v", err)
	}
	req.UTMData = utmData(utm)

	raw, err := s.api.CreatePix(ctx, req)
	var payload, transactionID string
	if err == nil {
		payload, transactionID, err = s.readTransaction(raw)
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return ErrAbandoned
	}
	if err != nil {
		s.state = Failed
		s.lastErr = err
		s.mu.Unlock()
		return fmt.Errorf("create pix: %w", err)
	}

	s.transactionID = transactionID
	s.pixPayload = payload
	s.state = AwaitingPayment
	s.poller = schedule.Repeat(context.Background(), s.pollInterval, s.pollFunc(gen, transactionID))
	s.mu.Unlock()

	return nil
}

func (s *Session) buildRequestLocked(email string) *dto.CreatePixRequest {
	ms := s.now().UnixMilli()
	bumps := s.selectedBumpsLocked()

	description := "Privacy - " + s.plan.Name
	if len(bumps) > 0 {
		description += fmt.Sprintf(" + %d extras", len(bumps))
	}

	items := []dto.Item{{
		Title:       "Privacy - " + s.plan.Name,
		UnitPrice:   amount.Cents(s.plan.Price),
		Quantity:    1,
		ExternalRef: fmt.Sprintf("privacy_main_%d", ms),
	}}
	for _, b := range bumps {
		items = append(items, dto.Item{
			Title:       b.Name,
			UnitPrice:   amount.Cents(b.Price),
			Quantity:    1,
			ExternalRef: fmt.Sprintf("privacy_bump_%s_%d", b.ID, ms),
		})
	}

	return &dto.CreatePixRequest{
		Amount:        amount.Cents(s.totalLocked()),
		Description:   description,
		PaymentMethod: "PIX",
		Customer: &dto.Customer{
			Name:     contactName,
			Email:    email,
			Document: contactDocument,
			Phone:    contactPhone,
		},
		Items: items,
	}
}

func (s *Session) readTransaction(raw []byte) (payload, transactionID string, err error) {
	obj, err := pix.Decode(raw)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", pix.ErrPixPayloadMissing, err)
	}
	payload, err = pix.Payload(obj)
	if err != nil {
		return "", "", err
	}

	transactionID = pix.TransactionID(obj)
	if transactionID == "" {
		transactionID = fmt.Sprintf("privacy_%d", s.now().UnixMilli())
	}
	return payload, transactionID, nil
}

func utmData(utm model.UTM) map[string]any {
	if utm.IsEmpty() {
		return nil
	}
	out := make(map[string]any)
	for _, k := range model.UTMKeys {
		if v := utm.Get(k); v != "" {
			out[k] = v
		}
	}
	return out
}

// pollFunc checks the charge until it settles. Errors are logged and the next
// tick tries again.
func (s *Session) pollFunc(gen uint64, transactionID string) func(ctx context.Context) bool {
	return func(ctx context.Context) bool {
		status, err := s.api.CheckPaymentStatus(ctx, transactionID)
		if err != nil {
			if ctx.Err() == nil {
				s.logf("[checkout] status check for %s failed: %v", transactionID, err)
			}
			return true
		}

		s.mu.Lock()
		if s.gen != gen || s.state != AwaitingPayment {
			s.mu.Unlock()
			return false
		}

		switch status {
		case model.PaymentStatusPaid:
			s.state = Paid
			s.poller = nil
			navigate := !s.navigated
			s.navigated = true
			s.mu.Unlock()

			if navigate {
				s.navigator.Navigate(s.thankYouURL)
			}
			return false
		case model.PaymentStatusFailed:
			s.state = Failed
			s.lastErr = ErrPaymentFailed
			s.poller = nil
			s.mu.Unlock()
			return false
		default:
			s.mu.Unlock()
			return true
		}
	}
}

// Acknowledge dismisses a failure and returns to email entry, keeping the
// email and selections.
func (s *Session) Acknowledge() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Failed {
		return fmt.Errorf("%w: acknowledge while %s", ErrInvalidTransition, s.state)
	}
	s.state = AwaitingEmail
	s.lastErr = nil
	s.transactionID = ""
	s.pixPayload = ""
	return nil
}

// Close ends the session's lifetime: polling stops and any in-flight creation
// is discarded. A paid session stays paid.
func (s *Session) Close() {
	s.mu.Lock()
	poller := s.resetLocked()
	if s.state != Paid {
		s.state = Idle
		s.plan = nil
	}
	s.mu.Unlock()

	stopPoller(poller)
}

// resetLocked invalidates in-flight work and returns the poller to stop once
// the lock is released.
func (s *Session) resetLocked() *schedule.Task {
	poller := s.poller
	s.poller = nil
	s.gen++
	s.transactionID = ""
	s.pixPayload = ""
	s.lastErr = nil
	return poller
}

func stopPoller(t *schedule.Task) {
	if t != nil {
		t.Wait()
	}
}

func (s *Session) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Warnf(format, args...)
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Plan() (catalog.Plan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.plan == nil {
		return catalog.Plan{}, false
	}
	return *s.plan, true
}

func (s *Session) SelectedBumps() []catalog.OrderBump {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedBumpsLocked()
}

func (s *Session) Email() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email
}

func (s *Session) TransactionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transactionID
}

// PixPayload is the copy-paste code.
func (s *Session) PixPayload() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pixPayload
}

func (s *Session) QRCodeURL() string {
	return pix.QRCodeURL(s.PixPayload())
}

// Err is the failure behind the Failed state.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
