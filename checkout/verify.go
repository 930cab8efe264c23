package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/sirupsen/logrus"

	"food-storefront/backend"
)

type Verifier interface {
	VerifyVnpay(ctx context.Context, query url.Values) error
	VerifyStripe(ctx context.Context, sessionID, orderID string) error
	VerifyMomo(ctx context.Context, orderID, requestID string) error
	VerifyLegacy(ctx context.Context, success, orderID string) error
}

// Verification is the outcome of a payment-provider redirect.
type Verification struct {
	Provider string `json:"provider"`
	OrderID  string `json:"orderId,omitempty"`
	Success  bool   `json:"success"`
	Message  string `json:"message"`
}

// Verify confirms a payment from the query string a provider redirected the
// customer back with. A provider refusal is reported in the Verification;
// the error is only set when the query is unusable or the backend could not
// be reached.
func (s *Service) Verify(ctx context.Context, params url.Values) (*Verification, error) {
	orderID := params.Get("orderId")
	provider := params.Get("provider")
	sessionID := params.Get("session_id")
	if sessionID == "" {
		sessionID = params.Get("sessionId")
	}

	var (
		v   *Verification
		err error
	)
	switch {
	case params.Get("vnp_ResponseCode") != "":
		v = &Verification{Provider: "vnpay", OrderID: params.Get("vnp_TxnRef")}
		err = s.backend.VerifyVnpay(ctx, params)
	case (provider == "stripe" || sessionID != "") && s.orderOrPending(&orderID):
		if sessionID == "" {
			return nil, s.reject(invalid("session_id", "Stripe payment session not found"))
		}
		v = &Verification{Provider: "stripe", OrderID: orderID}
		err = s.backend.VerifyStripe(ctx, sessionID, orderID)
	case provider == "momo" && s.orderOrPending(&orderID):
		v = &Verification{Provider: "momo", OrderID: orderID}
		err = s.backend.VerifyMomo(ctx, orderID, params.Get("requestId"))
	case params.Has("success") && orderID != "":
		v = &Verification{Provider: "legacy", OrderID: orderID}
		err = s.backend.VerifyLegacy(ctx, params.Get("success"), orderID)
	default:
		return nil, s.reject(invalid("", "Payment session not found"))
	}

	if clearErr := s.pending.ClearPendingOrder(); clearErr != nil {
		s.log.WithError(clearErr).Warn("clear pending order")
	}

	if err != nil && !backend.IsRejected(err) {
		s.log.WithError(err).Warn("payment verification failed")
		s.notifier.Error("Unable to verify payment")
		return nil, fmt.Errorf("verify %s payment: %w", v.Provider, err)
	}

	v.Success = err == nil
	if v.Success {
		s.cart.ResetCart()
		v.Message = successMessage(v.Provider)
		s.notifier.Success(v.Message)
	} else {
		v.Message = remoteMessage(err, failureMessage(v.Provider))
		s.notifier.Error(v.Message)
	}
	s.log.WithFields(logrus.Fields{"provider": v.Provider, "order": v.OrderID, "success": v.Success}).Info("payment verified")
	return v, nil
}

// orderOrPending fills an empty order id from the pending order remembered
// at redirect time.
func (s *Service) orderOrPending(orderID *string) bool {
	if *orderID != "" {
		return true
	}
	pending, err := s.pending.PendingOrder()
	if err != nil {
		s.log.WithError(err).Warn("read pending order")
		return false
	}
	*orderID = pending
	return pending != ""
}

func (s *Service) reject(err error) error {
	var v *ValidationError
	if errors.As(err, &v) {
		s.notifier.Error(v.Message)
	}
	return err
}

func successMessage(provider string) string {
	switch provider {
	case "vnpay":
		return "VNPAY payment successful"
	case "stripe":
		return "Stripe payment successful"
	case "momo":
		return "MoMo payment successful"
	}
	return "Order Placed Successfully"
}

func failureMessage(provider string) string {
	switch provider {
	case "vnpay":
		return "VNPAY payment failed"
	case "stripe":
		return "Stripe payment failed"
	case "momo":
		return "MoMo payment failed"
	}
	return "Something went wrong"
}
