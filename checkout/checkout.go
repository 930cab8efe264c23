// Package checkout turns the cart into a backend order and drives payment.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"food-storefront/backend"
	"food-storefront/models"
	"food-storefront/notify"
	"food-storefront/store"
)

type Method string

const (
	MethodCash   Method = "cash"
	MethodVisa   Method = "visa"
	MethodMomo   Method = "momo"
	MethodVnpay  Method = "vnpay"
	MethodStripe Method = "stripe"
)

// DefaultDeliveryFee applies to any order with a positive subtotal.
var DefaultDeliveryFee = decimal.NewFromInt(2)

type Backend interface {
	CreateOrder(ctx context.Context, token string, req backend.CreateOrderRequest) (string, error)
	ConfirmPayment(ctx context.Context, token string, p backend.PaymentConfirmation) error
	PayStripe(ctx context.Context, token string, req backend.PaymentRequest) (*backend.StripeInit, error)
	PayMomo(ctx context.Context, token string, req backend.PaymentRequest) (*backend.MomoInit, error)
	PayVnpay(ctx context.Context, token string, req backend.PaymentRequest) (*backend.VnpayInit, error)
	Verifier
}

// Cart is the store surface checkout needs.
type Cart interface {
	Snapshot() store.Snapshot
	Token() string
	ResetCart()
}

type AddressCache interface {
	DeliveryAddress() (models.Address, bool, error)
	SaveDeliveryAddress(addr models.Address) error
}

// PendingOrders remembers the order awaiting a payment redirect.
type PendingOrders interface {
	PendingOrder() (string, error)
	SetPendingOrder(orderID string) error
	ClearPendingOrder() error
}

type Request struct {
	Address models.Address `json:"address"`
	Method  Method         `json:"paymentMethod" validate:"required,oneof=cash visa momo vnpay stripe"`
	Card    *backend.Card  `json:"card,omitempty" validate:"-"`
}

type Quote struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Total       decimal.Decimal `json:"total"`
}

// Result is a placed order. RedirectURL is set when the customer has to
// finish paying with an external provider.
type Result struct {
	Quote
	OrderID     string `json:"orderId"`
	Method      Method `json:"paymentMethod"`
	Confirmed   bool   `json:"confirmed"`
	RedirectURL string `json:"redirectUrl,omitempty"`
	QRCodeURL   string `json:"qrCodeUrl,omitempty"`
	Deeplink    string `json:"deeplink,omitempty"`
	Message     string `json:"message"`
}

type Option func(*Service)

func WithDeliveryFee(fee decimal.Decimal) Option {
	return func(s *Service) { s.fee = fee }
}

func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithLogger(log *logrus.Logger) Option {
	return func(s *Service) { s.log = log.WithField("component", "checkout") }
}

type Service struct {
	backend   Backend
	cart      Cart
	addresses AddressCache
	pending   PendingOrders
	notifier  notify.Notifier
	log       *logrus.Entry
	validate  *validator.Validate
	fee       decimal.Decimal
	now       func() time.Time
}

func NewService(b Backend, cart Cart, addresses AddressCache, pending PendingOrders, opts ...Option) *Service {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	s := &Service{
		backend:   b,
		cart:      cart,
		addresses: addresses,
		pending:   pending,
		notifier:  notify.Discard{},
		log:       logrus.StandardLogger().WithField("component", "checkout"),
		validate:  v,
		fee:       DefaultDeliveryFee,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QuoteFor prices a cart snapshot. The delivery fee only applies to a
// non-empty cart.
func (s *Service) QuoteFor(snap store.Snapshot) Quote {
	subtotal := snap.Total()
	fee := decimal.Zero
	if subtotal.IsPositive() {
		fee = s.fee
	}
	return Quote{Subtotal: subtotal, DeliveryFee: fee, Total: subtotal.Add(fee)}
}

// SavedAddress returns the address used for the last checkout, if any.
func (s *Service) SavedAddress() (models.Address, bool) {
	addr, ok, err := s.addresses.DeliveryAddress()
	if err != nil {
		s.log.WithError(err).Warn("read cached address")
		return models.Address{}, false
	}
	return addr, ok
}

// PlaceOrder validates the cart and form, creates the order and starts
// payment. Validation failures never reach the backend.
func (s *Service) PlaceOrder(ctx context.Context, req Request) (*Result, error) {
	res, err := s.placeOrder(ctx, req)
	if err != nil {
		var v *ValidationError
		if errors.As(err, &v) {
			s.notifier.Error(v.Message)
		}
		return nil, err
	}
	s.notifier.Success(res.Message)
	return res, nil
}

func (s *Service) placeOrder(ctx context.Context, req Request) (*Result, error) {
	token := s.cart.Token()
	if token == "" {
		return nil, invalid("session", "Please login first")
	}

	snap := s.cart.Snapshot()
	lines, branchID, err := orderLines(snap)
	if err != nil {
		return nil, err
	}
	if err := s.validateRequest(&req); err != nil {
		return nil, err
	}

	if err := s.addresses.SaveDeliveryAddress(req.Address); err != nil {
		s.log.WithError(err).Warn("cache delivery address")
	}

	quote := s.QuoteFor(snap)
	orderID, err := s.backend.CreateOrder(ctx, token, backend.CreateOrderRequest{
		BranchID: branchID,
		Items:    lines,
		Address:  req.Address,
	})
	if err != nil {
		s.fail(err, "Unable to create order")
		return nil, fmt.Errorf("place order: %w", err)
	}

	log := s.log.WithFields(logrus.Fields{"order": orderID, "method": req.Method})
	log.Info("order created")

	res := &Result{OrderID: orderID, Method: req.Method, Quote: quote}
	switch req.Method {
	case MethodCash:
		err = s.confirmCash(ctx, token, res)
	case MethodVisa:
		err = s.confirmVisa(ctx, token, req.Card, res)
	default:
		err = s.redirect(ctx, token, req.Method, res)
	}
	if err != nil {
		return nil, err
	}
	if res.Confirmed {
		s.cart.ResetCart()
		log.Info("payment confirmed")
	}
	return res, nil
}

// orderLines collects resolvable cart entries and the single branch serving
// them.
func orderLines(snap store.Snapshot) ([]backend.OrderLine, string, error) {
	cartLines := snap.CartLines()
	if len(cartLines) == 0 {
		return nil, "", invalid("cart", "Your cart is empty")
	}

	lines := make([]backend.OrderLine, 0, len(cartLines))
	branches := map[string]bool{}
	for _, l := range cartLines {
		lines = append(lines, backend.OrderLine{VariantID: l.VariantID, Quantity: l.Quantity})
		if l.BranchID != "" {
			branches[l.BranchID] = true
		}
	}

	switch len(branches) {
	case 0:
		return nil, "", invalid("branch", "Unable to determine serving branch")
	case 1:
		for id := range branches {
			return lines, id, nil
		}
	}
	return nil, "", invalid("branch", "Please group cart items by branch before checkout")
}

func (s *Service) validateRequest(req *Request) error {
	if req.Method == "" {
		req.Method = MethodCash
	}
	req.Method = Method(strings.ToLower(strings.TrimSpace(string(req.Method))))
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) || len(verrs) == 0 {
			return invalid("", "Invalid checkout request")
		}
		fe := verrs[0]
		if fe.Field() == "paymentMethod" {
			return invalid("paymentMethod", fmt.Sprintf("Unsupported payment method %q", req.Method))
		}
		return invalid(fe.Field(), "Please fill in all delivery details")
	}

	if req.Method == MethodVisa {
		if req.Card == nil {
			return invalid("card", "Please fill in all card details")
		}
		card := backend.Card{
			Name:   strings.TrimSpace(req.Card.Name),
			Number: strings.TrimSpace(req.Card.Number),
			Expiry: strings.TrimSpace(req.Card.Expiry),
			CVC:    strings.TrimSpace(req.Card.CVC),
		}
		if err := s.validate.Struct(card); err != nil {
			return invalid("card", "Please fill in all card details")
		}
		req.Card = &card
	}
	return nil
}

func (s *Service) confirmCash(ctx context.Context, token string, res *Result) error {
	err := s.backend.ConfirmPayment(ctx, token, backend.PaymentConfirmation{
		OrderID:       res.OrderID,
		Provider:      string(MethodCash),
		TransactionID: fmt.Sprintf("cash-%d", s.now().UnixMilli()),
		Amount:        res.Total,
	})
	if err != nil {
		s.fail(err, "Unable to confirm payment")
		return fmt.Errorf("confirm cash payment: %w", err)
	}
	res.Confirmed = true
	res.Message = "Order confirmed - cash on delivery"
	return nil
}

func (s *Service) confirmVisa(ctx context.Context, token string, card *backend.Card, res *Result) error {
	init, err := s.backend.PayStripe(ctx, token, backend.PaymentRequest{OrderID: res.OrderID, Amount: res.Total, Card: card})
	if err != nil {
		s.fail(err, "Unable to initiate payment")
		return fmt.Errorf("init card payment: %w", err)
	}
	err = s.backend.ConfirmPayment(ctx, token, backend.PaymentConfirmation{
		OrderID:       res.OrderID,
		Provider:      string(MethodVisa),
		TransactionID: init.ClientSecret,
		Amount:        res.Total,
	})
	if err != nil {
		s.fail(err, "Payment confirmation failed")
		return fmt.Errorf("confirm card payment: %w", err)
	}
	res.Confirmed = true
	res.Message = "Payment simulated successfully"
	return nil
}

// redirect starts a hosted payment and remembers the order until the
// provider sends the customer back.
func (s *Service) redirect(ctx context.Context, token string, method Method, res *Result) error {
	req := backend.PaymentRequest{OrderID: res.OrderID, Amount: res.Total}

	var provider string
	switch method {
	case MethodStripe:
		init, err := s.backend.PayStripe(ctx, token, req)
		if err != nil {
			s.fail(err, "Unable to initiate payment")
			return fmt.Errorf("init stripe payment: %w", err)
		}
		provider, res.RedirectURL = "Stripe", init.CheckoutURL
	case MethodMomo:
		init, err := s.backend.PayMomo(ctx, token, req)
		if err != nil {
			s.fail(err, "Unable to initiate payment")
			return fmt.Errorf("init momo payment: %w", err)
		}
		provider, res.RedirectURL = "MoMo", init.PayURL
		res.QRCodeURL, res.Deeplink = init.QRCodeURL, init.Deeplink
		if res.RedirectURL == "" {
			res.RedirectURL = init.Deeplink
		}
	case MethodVnpay:
		init, err := s.backend.PayVnpay(ctx, token, req)
		if err != nil {
			s.fail(err, "Unable to initiate payment")
			return fmt.Errorf("init vnpay payment: %w", err)
		}
		provider, res.RedirectURL = "VNPAY", init.PaymentURL
	default:
		return invalid("paymentMethod", fmt.Sprintf("Unsupported payment method %q", method))
	}

	if res.RedirectURL == "" {
		err := &backend.RejectedError{Op: "init " + string(method) + " payment", Message: "Payment link is missing"}
		s.fail(err, "Unable to initiate payment")
		return err
	}
	if err := s.pending.SetPendingOrder(res.OrderID); err != nil {
		s.log.WithError(err).Warn("remember pending order")
	}
	res.Message = "Redirecting to " + provider
	return nil
}

func (s *Service) fail(err error, fallback string) {
	s.log.WithError(err).Warn(fallback)
	if errors.Is(err, backend.ErrUnreachable) {
		s.notifier.Error("Unable to complete checkout")
		return
	}
	s.notifier.Error(remoteMessage(err, fallback))
}
