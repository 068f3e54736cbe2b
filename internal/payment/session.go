package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/DaudDevs/conect-voucher-market/internal/cart"
)

type Step string

const (
	StepForm        Step = "form"
	StepQRISPending Step = "qris"
	StepDone        Step = "done"
)

var (
	ErrPaymentInProgress = errors.New("a payment submission is already in progress")
	ErrPaymentPending    = errors.New("a payment is already pending confirmation")
	ErrNoActivePayment   = errors.New("no payment is pending confirmation")
)

// SuccessFunc is invoked exactly once when the user confirms the QRIS
// payment. Its error is surfaced to the caller but the session still ends.
type SuccessFunc func(ctx context.Context, paymentID string) error

// Session drives one checkout payment through the form → qris-pending → done
// sequence. The processing flag rejects overlapping submissions from repeated
// user interaction; it is cleared on every exit path.
type Session struct {
	mu         sync.Mutex
	step       Step
	processing bool
	paymentID  string
	qrisURL    string
	lastErr    string

	initiator Initiator
	onSuccess SuccessFunc
}

func NewSession(initiator Initiator, onSuccess SuccessFunc) *Session {
	return &Session{
		step:      StepForm,
		initiator: initiator,
		onSuccess: onSuccess,
	}
}

func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Session) PaymentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paymentID
}

func (s *Session) QRISURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.qrisURL
}

// Err returns the last failure message, empty when the last action succeeded.
func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// SubmitForm asks the initiator for a payment. On success the session moves
// to qris-pending; on any failure it stays on the form with the error
// recorded, ready for another attempt.
func (s *Session) SubmitForm(ctx context.Context, items []cart.Line, userID string) error {
	s.mu.Lock()
	if s.step != StepForm {
		s.mu.Unlock()
		return ErrPaymentPending
	}
	if s.processing {
		s.mu.Unlock()
		return ErrPaymentInProgress
	}
	s.processing = true
	s.lastErr = ""
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.processing = false
		s.mu.Unlock()
	}()

	result, err := s.initiator.CreatePayment(ctx, InitiationRequest{Items: items, UserID: userID})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err.Error()
		return fmt.Errorf("initiating payment: %w", err)
	}
	if !result.Success {
		msg := result.Message
		if msg == "" {
			msg = "Failed to process payment"
		}
		s.lastErr = msg
		return errors.New(msg)
	}

	s.paymentID = result.PaymentID
	s.qrisURL = result.QRISURL
	s.step = StepQRISPending
	return nil
}

// ConfirmPayment treats the pending payment as confirmed and invokes the
// success callback with the payment id. There is no verification round-trip
// against the initiator: confirmation cannot fail here, which stands in for a
// real provider status check.
func (s *Session) ConfirmPayment(ctx context.Context) error {
	s.mu.Lock()
	if s.step != StepQRISPending {
		s.mu.Unlock()
		return ErrNoActivePayment
	}
	if s.processing {
		s.mu.Unlock()
		return ErrPaymentInProgress
	}
	s.processing = true
	paymentID := s.paymentID
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.processing = false
		s.mu.Unlock()
	}()

	err := s.onSuccess(ctx, paymentID)

	s.mu.Lock()
	s.step = StepDone
	if err != nil {
		s.lastErr = err.Error()
	}
	s.mu.Unlock()
	return err
}

// CancelToForm abandons the pending QRIS payment and returns to the form,
// discarding the payment reference.
func (s *Session) CancelToForm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepQRISPending {
		return
	}
	s.step = StepForm
	s.paymentID = ""
	s.qrisURL = ""
}
