package payment

// Status mirrors whether anything is still owed on a booking.
type Status string

const (
	StatusUnpaid Status = "Unpaid"
	StatusPaid   Status = "Paid"
)

// ParseStatus converts a persisted value, treating anything unknown as unpaid.
func ParseStatus(s string) Status {
	if Status(s) == StatusPaid {
		return StatusPaid
	}
	return StatusUnpaid
}

// StatusFor returns Paid iff balance <= 0.
func StatusFor(balance int64) Status {
	if balance <= 0 {
		return StatusPaid
	}
	return StatusUnpaid
}

// Summary is the ledger fold for one booking.
type Summary struct {
	TotalPaid int64  `json:"total_paid"`
	Balance   int64  `json:"remaining_balance"`
	Status    Status `json:"payment_status"`
	Entries   int    `json:"entries"`
}

// TotalPaid sums the recorded payment amounts.
func TotalPaid(payments []*Payment) int64 {
	var total int64
	for _, p := range payments {
		total += p.Amount()
	}
	return total
}

// RemainingBalance is totalAmount minus everything paid so far.
func RemainingBalance(totalAmount int64, payments []*Payment) int64 {
	return totalAmount - TotalPaid(payments)
}

// Summarize folds a booking's payments against its total amount.
func Summarize(totalAmount int64, payments []*Payment) Summary {
	paid := TotalPaid(payments)
	balance := totalAmount - paid
	return Summary{
		TotalPaid: paid,
		Balance:   balance,
		Status:    StatusFor(balance),
		Entries:   len(payments),
	}
}

// HasPlaceholder reports whether the booking-time zero entry exists.
func HasPlaceholder(payments []*Payment) bool {
	for _, p := range payments {
		if p.IsPlaceholder() {
			return true
		}
	}
	return false
}
