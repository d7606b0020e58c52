package payment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja-rental/service-rental/internal/common/apperror"
)

func mustPay(t *testing.T, bookingID uuid.UUID, amount int64) *Payment {
	t.Helper()
	p, err := NewPayment(uuid.Nil, bookingID, uuid.New(), amount, "cash", nil, "downpayment")
	require.NoError(t, err)
	return p
}

func TestSummarize(t *testing.T) {
	bookingID := uuid.New()
	payments := []*Payment{
		NewPlaceholder(bookingID, uuid.New()),
		mustPay(t, bookingID, 1500),
		mustPay(t, bookingID, 2000),
	}

	s := Summarize(5000, payments)
	assert.Equal(t, int64(3500), s.TotalPaid)
	assert.Equal(t, int64(1500), s.Balance)
	assert.Equal(t, StatusUnpaid, s.Status)
	assert.Equal(t, 3, s.Entries)
	assert.Equal(t, RemainingBalance(5000, payments), s.Balance)
}

func TestSummarize_PaidIffBalanceNotPositive(t *testing.T) {
	bookingID := uuid.New()

	exact := Summarize(3000, []*Payment{mustPay(t, bookingID, 3000)})
	assert.Equal(t, int64(0), exact.Balance)
	assert.Equal(t, StatusPaid, exact.Status)

	over := Summarize(3000, []*Payment{mustPay(t, bookingID, 3500)})
	assert.Equal(t, int64(-500), over.Balance)
	assert.Equal(t, StatusPaid, over.Status)

	empty := Summarize(3000, nil)
	assert.Equal(t, int64(3000), empty.Balance)
	assert.Equal(t, StatusUnpaid, empty.Status)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, StatusPaid, StatusFor(0))
	assert.Equal(t, StatusPaid, StatusFor(-1))
	assert.Equal(t, StatusUnpaid, StatusFor(1))
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusPaid, ParseStatus("Paid"))
	assert.Equal(t, StatusUnpaid, ParseStatus("Unpaid"))
	assert.Equal(t, StatusUnpaid, ParseStatus(""))
}

func TestHasPlaceholder(t *testing.T) {
	bookingID := uuid.New()
	assert.False(t, HasPlaceholder([]*Payment{mustPay(t, bookingID, 100)}))
	assert.True(t, HasPlaceholder([]*Payment{NewPlaceholder(bookingID, uuid.New())}))
}

func TestNewPayment_Validation(t *testing.T) {
	_, err := NewPayment(uuid.Nil, uuid.New(), uuid.New(), 0, "", nil, "")
	assert.Equal(t, apperror.KindInvalidArgument, apperror.KindOf(err))

	_, err = NewPayment(uuid.Nil, uuid.Nil, uuid.New(), 100, "", nil, "")
	assert.Equal(t, apperror.KindInvalidArgument, apperror.KindOf(err))

	p, err := NewPayment(uuid.Nil, uuid.New(), uuid.New(), 100, "gcash", nil, "")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, p.ID())
	assert.NotNil(t, p.PaidDate())
	assert.False(t, p.IsPlaceholder())
}
