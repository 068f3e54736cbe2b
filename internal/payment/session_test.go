package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DaudDevs/conect-voucher-market/internal/cart"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockInitiator struct {
	m      sync.Mutex
	result InitiationResult
	err    error
	block  chan struct{}
	calls  int
}

func (m *mockInitiator) CreatePayment(context.Context, InitiationRequest) (InitiationResult, error) {
	m.m.Lock()
	m.calls++
	block := m.block
	m.m.Unlock()
	if block != nil {
		<-block
	}
	return m.result, m.err
}

func okInitiator() *mockInitiator {
	return &mockInitiator{result: InitiationResult{
		Success:   true,
		PaymentID: "pay-123",
		QRISURL:   "https://example.com/qris.svg",
	}}
}

func items() []cart.Line {
	return []cart.Line{{ID: "a", Price: 100000, Quantity: 1}}
}

func noopSuccess(context.Context, string) error { return nil }

func TestSubmitFormSuccessMovesToQRISPending(t *testing.T) {
	s := NewSession(okInitiator(), noopSuccess)

	require.NoError(t, s.SubmitForm(context.Background(), items(), "user-1"))

	assert.Equal(t, StepQRISPending, s.Step())
	assert.Equal(t, "pay-123", s.PaymentID())
	assert.Equal(t, "https://example.com/qris.svg", s.QRISURL())
	assert.Empty(t, s.Err())
}

func TestSubmitFormFailureStaysOnFormWithError(t *testing.T) {
	initiator := &mockInitiator{result: InitiationResult{Success: false, Message: "Invalid items provided"}}
	s := NewSession(initiator, noopSuccess)

	err := s.SubmitForm(context.Background(), nil, "user-1")

	require.Error(t, err)
	assert.Equal(t, StepForm, s.Step())
	assert.Equal(t, "Invalid items provided", s.Err())
	assert.Empty(t, s.PaymentID())
}

func TestSubmitFormInitiatorErrorStaysOnForm(t *testing.T) {
	initiator := &mockInitiator{err: errors.New("connection refused")}
	s := NewSession(initiator, noopSuccess)

	err := s.SubmitForm(context.Background(), items(), "user-1")

	require.Error(t, err)
	assert.Equal(t, StepForm, s.Step())
	assert.Contains(t, s.Err(), "connection refused")
}

func TestSubmitFormRejectsConcurrentSubmission(t *testing.T) {
	initiator := okInitiator()
	initiator.block = make(chan struct{})
	s := NewSession(initiator, noopSuccess)

	done := make(chan error, 1)
	go func() {
		done <- s.SubmitForm(context.Background(), items(), "user-1")
	}()

	// Wait for the first submission to be in flight.
	require.Eventually(t, func() bool {
		initiator.m.Lock()
		defer initiator.m.Unlock()
		return initiator.calls == 1
	}, time.Second, time.Millisecond)

	err := s.SubmitForm(context.Background(), items(), "user-1")
	assert.ErrorIs(t, err, ErrPaymentInProgress)

	close(initiator.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, initiator.calls)
}

func TestSubmitFormRejectedWhilePaymentPending(t *testing.T) {
	initiator := okInitiator()
	s := NewSession(initiator, noopSuccess)
	require.NoError(t, s.SubmitForm(context.Background(), items(), "user-1"))

	err := s.SubmitForm(context.Background(), items(), "user-1")

	assert.ErrorIs(t, err, ErrPaymentPending)
	assert.Equal(t, StepQRISPending, s.Step())
	assert.Equal(t, "pay-123", s.PaymentID())
	assert.Equal(t, 1, initiator.calls)
}

func TestConfirmPaymentAlwaysSucceedsWithPaymentID(t *testing.T) {
	var confirmedID string
	s := NewSession(okInitiator(), func(_ context.Context, paymentID string) error {
		confirmedID = paymentID
		return nil
	})
	require.NoError(t, s.SubmitForm(context.Background(), items(), "user-1"))

	require.NoError(t, s.ConfirmPayment(context.Background()))

	assert.Equal(t, "pay-123", confirmedID)
	assert.Equal(t, StepDone, s.Step())
}

func TestConfirmPaymentSurfacesCallbackError(t *testing.T) {
	s := NewSession(okInitiator(), func(context.Context, string) error {
		return errors.New("order insert failed")
	})
	require.NoError(t, s.SubmitForm(context.Background(), items(), "user-1"))

	err := s.ConfirmPayment(context.Background())

	require.Error(t, err)
	assert.Equal(t, StepDone, s.Step())
	assert.Contains(t, s.Err(), "order insert failed")
}

func TestConfirmPaymentWithoutPendingPayment(t *testing.T) {
	s := NewSession(okInitiator(), noopSuccess)
	err := s.ConfirmPayment(context.Background())
	assert.ErrorIs(t, err, ErrNoActivePayment)
}

func TestCancelToFormDiscardsPaymentReference(t *testing.T) {
	s := NewSession(okInitiator(), noopSuccess)
	require.NoError(t, s.SubmitForm(context.Background(), items(), "user-1"))

	s.CancelToForm()

	assert.Equal(t, StepForm, s.Step())
	assert.Empty(t, s.PaymentID())
	assert.Empty(t, s.QRISURL())
}

func TestSimulatedQRIS(t *testing.T) {
	initiator := NewSimulatedQRIS()

	result, err := initiator.CreatePayment(context.Background(), InitiationRequest{
		Items: []cart.Line{
			{ID: "a", Price: 100000, Discount: 0, Quantity: 2},
			{ID: "b", Price: 200000, Discount: 15, Quantity: 1},
		},
		UserID: "user-1",
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.NotEmpty(t, result.PaymentID)
	assert.NotEmpty(t, result.QRISURL)
	assert.Equal(t, int64(370000), result.Total)
}

func TestSimulatedQRISRejectsEmptyItems(t *testing.T) {
	initiator := NewSimulatedQRIS()

	result, err := initiator.CreatePayment(context.Background(), InitiationRequest{UserID: "user-1"})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Message)
}
