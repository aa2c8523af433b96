package checkout

import (
	"testing"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func allOptions() []model.PaymentOption {
	return []model.PaymentOption{
		{Method: model.PaymentCashOnDelivery, Enabled: true},
		{Method: model.PaymentWalletTransferA, Enabled: true, WalletAddress: "09-111-222"},
		{Method: model.PaymentWalletTransferB, Enabled: false},
	}
}

func validDetails() Details {
	return Details{
		BuyerHandle:       "@buyer",
		ShippingAddress:   "12 Market Street",
		TransactionNumber: "123456",
	}
}

func selected(t *testing.T, method model.PaymentMethod) State {
	t.Helper()
	s, err := Apply(NewState("store-1"), SelectPayment{
		Method:  method,
		Options: allOptions(),
		Window:  15 * time.Minute,
		At:      t0,
	})
	require.NoError(t, err)
	return s
}

func reviewing(t *testing.T) State {
	t.Helper()
	s := selected(t, model.PaymentWalletTransferA)
	s, err := Apply(s, EditDetails{Details: validDetails()})
	require.NoError(t, err)
	s, err = Apply(s, RequestReview{At: t0.Add(time.Minute)})
	require.NoError(t, err)
	return s
}

func TestApply_SelectPaymentStartsWindow(t *testing.T) {
	s := selected(t, model.PaymentWalletTransferA)

	assert.Equal(t, PhaseAwaitingConfirmation, s.Phase)
	assert.Equal(t, model.PaymentWalletTransferA, s.Payment)
	assert.Equal(t, t0.Add(15*time.Minute), s.WindowEndsAt)
	assert.True(t, s.CanConfirm(t0))
	assert.Equal(t, 15*time.Minute, s.Remaining(t0))
}

func TestApply_DisabledPaymentRejected(t *testing.T) {
	initial := NewState("store-1")

	s, err := Apply(initial, SelectPayment{
		Method:  model.PaymentWalletTransferB,
		Options: allOptions(),
		Window:  15 * time.Minute,
		At:      t0,
	})

	assert.ErrorIs(t, err, ErrPaymentUnavailable)
	assert.Equal(t, PhaseSelectingPayment, s.Phase)
	assert.Empty(t, s.Payment)
	assert.False(t, s.PaymentSelected())
	assert.Contains(t, s.Errors, FieldPayment)
	assert.Nil(t, initial.Errors)
}

func TestApply_UnknownPaymentRejected(t *testing.T) {
	s, err := Apply(NewState("store-1"), SelectPayment{
		Method:  model.PaymentMethod("card"),
		Options: allOptions(),
		At:      t0,
	})

	assert.ErrorIs(t, err, ErrPaymentUnavailable)
	assert.Empty(t, s.Payment)
}

func TestApply_DisabledPaymentKeepsPreviousChoice(t *testing.T) {
	s := selected(t, model.PaymentCashOnDelivery)

	s, err := Apply(s, SelectPayment{Method: model.PaymentWalletTransferB, Options: allOptions(), At: t0})

	assert.ErrorIs(t, err, ErrPaymentUnavailable)
	assert.Equal(t, model.PaymentCashOnDelivery, s.Payment)
	assert.Equal(t, PhaseAwaitingConfirmation, s.Phase)
}

func TestApply_BlankAddressNeverSubmits(t *testing.T) {
	s := selected(t, model.PaymentCashOnDelivery)
	s, err := Apply(s, EditDetails{Details: Details{BuyerHandle: "@buyer", ShippingAddress: "   "}})
	require.NoError(t, err)

	s, err = Apply(s, RequestReview{At: t0})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "is required", verr.Fields[FieldShippingAddress])
	assert.Equal(t, PhaseAwaitingConfirmation, s.Phase)
	assert.Equal(t, "is required", s.Errors[FieldShippingAddress])

	_, err = Apply(s, ConfirmOrder{At: t0})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestApply_WalletRequiresSixDigitReference(t *testing.T) {
	cases := map[string]string{
		"missing":   "",
		"too short": "12345",
		"letters":   "12a456",
		"signed":    "-12345",
		"too long":  "1234567",
	}
	for name, ref := range cases {
		t.Run(name, func(t *testing.T) {
			s := selected(t, model.PaymentWalletTransferA)
			d := validDetails()
			d.TransactionNumber = ref
			s, _ = Apply(s, EditDetails{Details: d})

			s, err := Apply(s, RequestReview{At: t0})

			assert.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, s.Errors, FieldTransactionNumber)
			assert.Equal(t, PhaseAwaitingConfirmation, s.Phase)
		})
	}
}

func TestApply_CashIgnoresReference(t *testing.T) {
	s := selected(t, model.PaymentCashOnDelivery)
	d := validDetails()
	d.TransactionNumber = "abc"
	s, _ = Apply(s, EditDetails{Details: d})

	s, err := Apply(s, RequestReview{At: t0})

	require.NoError(t, err)
	assert.Equal(t, PhaseReviewing, s.Phase)
	assert.Empty(t, s.Details.TransactionNumber)
}

func TestApply_EditClearsFieldErrors(t *testing.T) {
	s := selected(t, model.PaymentCashOnDelivery)
	s, _ = Apply(s, RequestReview{At: t0})
	require.NotEmpty(t, s.Errors)

	s, err := Apply(s, EditDetails{Details: validDetails()})

	require.NoError(t, err)
	assert.Empty(t, s.Errors)
}

func TestApply_ReviewCanBeCancelled(t *testing.T) {
	s := reviewing(t)
	assert.Equal(t, PhaseReviewing, s.Phase)

	s, err := Apply(s, CancelReview{})

	require.NoError(t, err)
	assert.Equal(t, PhaseAwaitingConfirmation, s.Phase)
	assert.Equal(t, validDetails(), s.Details)
	assert.Equal(t, model.PaymentWalletTransferA, s.Payment)
}

func TestApply_SingleClickDoesNotSubmit(t *testing.T) {
	s := selected(t, model.PaymentCashOnDelivery)
	s, _ = Apply(s, EditDetails{Details: validDetails()})

	_, err := Apply(s, ConfirmOrder{At: t0})

	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, PhaseAwaitingConfirmation, terr.From)
	assert.Equal(t, "confirm_order", terr.Event)
}

func TestApply_ConfirmAndSucceed(t *testing.T) {
	s := reviewing(t)

	s, err := Apply(s, ConfirmOrder{At: t0.Add(2 * time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, PhaseSubmitting, s.Phase)

	_, err = Apply(s, ConfirmOrder{At: t0.Add(2 * time.Minute)})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	order := model.OrderIntent{StoreID: "store-1", TotalAmount: decimal.NewFromInt(300)}
	s, err = Apply(s, OrderSent{
		Order:      order,
		Delivered:  false,
		Attempts:   3,
		RedirectTo: "/stores/store-1",
		RedirectAt: t0.Add(3 * time.Minute),
	})
	require.NoError(t, err)
	assert.Equal(t, PhaseSucceeded, s.Phase)
	assert.True(t, s.Terminal())
	assert.Empty(t, s.Errors)
	assert.Equal(t, 3, s.Notification.Attempts)
	assert.Equal(t, "/stores/store-1", s.RedirectTo)
	require.NotNil(t, s.Order)
	assert.True(t, s.Order.TotalAmount.Equal(decimal.NewFromInt(300)))

	_, err = Apply(s, SelectPayment{Method: model.PaymentCashOnDelivery, Options: allOptions(), At: t0})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	s, err = Apply(s, Navigate{})
	require.NoError(t, err)
	assert.True(t, s.Navigated)
	s, err = Apply(s, Navigate{})
	require.NoError(t, err)
	assert.True(t, s.Navigated)
}

func TestApply_FailedIsRecoverable(t *testing.T) {
	s := reviewing(t)
	s, _ = Apply(s, ConfirmOrder{At: t0.Add(2 * time.Minute)})

	s, err := Apply(s, SubmitFailed{Reason: "order has no items"})
	require.NoError(t, err)
	assert.Equal(t, PhaseFailed, s.Phase)
	assert.Equal(t, "order has no items", s.Errors[FieldOrder])

	s, err = Apply(s, Recover{})
	require.NoError(t, err)
	assert.Equal(t, PhaseAwaitingConfirmation, s.Phase)
	assert.Empty(t, s.FailReason)
	assert.Equal(t, validDetails(), s.Details)
}

func TestApply_WindowExpiryDisablesConfirm(t *testing.T) {
	s := selected(t, model.PaymentWalletTransferA)
	s, _ = Apply(s, EditDetails{Details: validDetails()})

	expiry := t0.Add(15 * time.Minute)
	s, err := Apply(s, WindowElapsed{At: expiry})
	require.NoError(t, err)
	assert.True(t, s.Expired)
	assert.False(t, s.CanConfirm(expiry))
	assert.Zero(t, s.Remaining(expiry))

	s, err = Apply(s, RequestReview{At: expiry})
	assert.ErrorIs(t, err, ErrWindowExpired)
	assert.Equal(t, PhaseAwaitingConfirmation, s.Phase)
	assert.Contains(t, s.Errors, FieldWindow)

	s, err = Apply(s, SelectPayment{
		Method:  model.PaymentWalletTransferA,
		Options: allOptions(),
		Window:  15 * time.Minute,
		At:      expiry,
	})
	require.NoError(t, err)
	assert.False(t, s.Expired)
	assert.Equal(t, 15*time.Minute, s.Remaining(expiry))
	assert.True(t, s.CanConfirm(expiry))
	assert.Empty(t, s.Errors)
}

func TestApply_WindowExpiryClosesReview(t *testing.T) {
	s := reviewing(t)

	s, err := Apply(s, WindowElapsed{At: t0.Add(15 * time.Minute)})

	require.NoError(t, err)
	assert.Equal(t, PhaseAwaitingConfirmation, s.Phase)
	assert.True(t, s.Expired)
}

func TestApply_ConfirmAfterDeadlineRejected(t *testing.T) {
	s := reviewing(t)

	s, err := Apply(s, ConfirmOrder{At: t0.Add(16 * time.Minute)})

	assert.ErrorIs(t, err, ErrWindowExpired)
	assert.Equal(t, PhaseAwaitingConfirmation, s.Phase)
	assert.True(t, s.Expired)
}

func TestApply_EarlyOrStaleWindowTickIgnored(t *testing.T) {
	s := selected(t, model.PaymentCashOnDelivery)

	next, err := Apply(s, WindowElapsed{At: t0.Add(time.Minute)})
	require.NoError(t, err)
	assert.False(t, next.Expired)

	initial := NewState("store-1")
	next, err = Apply(initial, WindowElapsed{At: t0})
	require.NoError(t, err)
	assert.Equal(t, initial, next)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	s := selected(t, model.PaymentCashOnDelivery)
	s, _ = Apply(s, RequestReview{At: t0})
	require.NotEmpty(t, s.Errors)
	before := len(s.Errors)

	_, _ = Apply(s, EditDetails{Details: validDetails()})

	assert.Len(t, s.Errors, before)
}
