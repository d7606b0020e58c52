package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/ja-rental/service-rental/internal/common/apperror"
	"github.com/ja-rental/service-rental/internal/domain/payment"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Booking is the aggregate root for the rental booking domain.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	customerID    uuid.UUID
	vehicleID     uuid.UUID
	driverID      *uuid.UUID
	purpose       string

	startDate   time.Time
	endDate     time.Time
	pickupTime  time.Time
	dropoffTime time.Time
	locations   Locations
	selfDrive   bool
	delivery    bool

	status         BookingStatus
	pending        PendingRequest
	paymentTrigger bool

	totalAmount   int64
	balance       int64
	paymentStatus payment.Status

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBookingParams holds the canonical inputs for a new booking.
type NewBookingParams struct {
	CustomerID  uuid.UUID
	VehicleID   uuid.UUID
	DriverID    *uuid.UUID
	Purpose     string
	StartDate   time.Time
	EndDate     time.Time
	PickupTime  time.Time
	DropoffTime time.Time
	Locations   Locations
	SelfDrive   bool
	Delivery    bool
	TotalAmount int64
}

// State is the full persisted state of a booking, used to rebuild it.
type State struct {
	ID             uuid.UUID
	BookingNumber  string
	CustomerID     uuid.UUID
	VehicleID      uuid.UUID
	DriverID       *uuid.UUID
	Purpose        string
	StartDate      time.Time
	EndDate        time.Time
	PickupTime     time.Time
	DropoffTime    time.Time
	Locations      Locations
	SelfDrive      bool
	Delivery       bool
	Status         BookingStatus
	Pending        PendingRequest
	PaymentTrigger bool
	TotalAmount    int64
	Balance        int64
	PaymentStatus  payment.Status
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// generateBookingNumber creates a booking number in the format "BK-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "BK-" + string(result), nil
}

// NewBooking creates a Pending, unpaid booking whose balance equals its total.
func NewBooking(p NewBookingParams) (*Booking, error) {
	if p.CustomerID == uuid.Nil {
		return nil, apperror.NewValidationError("customer ID is required")
	}
	if p.VehicleID == uuid.Nil {
		return nil, apperror.NewValidationError("vehicle ID is required")
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return nil, apperror.NewValidationError("start and end dates are required")
	}
	if !p.EndDate.After(p.StartDate) {
		return nil, apperror.NewValidationError("end date must be after start date")
	}
	if p.TotalAmount < 0 {
		return nil, apperror.NewValidationError("total amount cannot be negative")
	}
	if p.SelfDrive {
		p.DriverID = nil
	}
	if p.Purpose == "" {
		p.Purpose = "Not specified"
	}
	if p.PickupTime.IsZero() {
		p.PickupTime = p.StartDate
	}
	if p.DropoffTime.IsZero() {
		p.DropoffTime = p.EndDate
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:            uuid.New(),
		bookingNumber: bookingNumber,
		customerID:    p.CustomerID,
		vehicleID:     p.VehicleID,
		driverID:      p.DriverID,
		purpose:       p.Purpose,
		startDate:     p.StartDate,
		endDate:       p.EndDate,
		pickupTime:    p.PickupTime,
		dropoffTime:   p.DropoffTime,
		locations:     p.Locations,
		selfDrive:     p.SelfDrive,
		delivery:      p.Delivery,
		status:        StatusPending,
		pending:       NoPendingRequest(),
		totalAmount:   p.TotalAmount,
		balance:       p.TotalAmount,
		paymentStatus: payment.StatusFor(p.TotalAmount),
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(s State) *Booking {
	return &Booking{
		id:             s.ID,
		bookingNumber:  s.BookingNumber,
		customerID:     s.CustomerID,
		vehicleID:      s.VehicleID,
		driverID:       s.DriverID,
		purpose:        s.Purpose,
		startDate:      s.StartDate,
		endDate:        s.EndDate,
		pickupTime:     s.PickupTime,
		dropoffTime:    s.DropoffTime,
		locations:      s.Locations,
		selfDrive:      s.SelfDrive,
		delivery:       s.Delivery,
		status:         s.Status,
		pending:        s.Pending,
		paymentTrigger: s.PaymentTrigger,
		totalAmount:    s.TotalAmount,
		balance:        s.Balance,
		paymentStatus:  s.PaymentStatus,
		version:        s.Version,
		createdAt:      s.CreatedAt,
		updatedAt:      s.UpdatedAt,
	}
}

// Snapshot returns the full state for persistence.
func (b *Booking) Snapshot() State {
	return State{
		ID:             b.id,
		BookingNumber:  b.bookingNumber,
		CustomerID:     b.customerID,
		VehicleID:      b.vehicleID,
		DriverID:       b.driverID,
		Purpose:        b.purpose,
		StartDate:      b.startDate,
		EndDate:        b.endDate,
		PickupTime:     b.pickupTime,
		DropoffTime:    b.dropoffTime,
		Locations:      b.locations,
		SelfDrive:      b.selfDrive,
		Delivery:       b.delivery,
		Status:         b.status,
		Pending:        b.pending,
		PaymentTrigger: b.paymentTrigger,
		TotalAmount:    b.totalAmount,
		Balance:        b.balance,
		PaymentStatus:  b.paymentStatus,
		Version:        b.version,
		CreatedAt:      b.createdAt,
		UpdatedAt:      b.updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// CustomerID returns the owning customer's ID.
func (b *Booking) CustomerID() uuid.UUID { return b.customerID }

// VehicleID returns the booked vehicle's ID.
func (b *Booking) VehicleID() uuid.UUID { return b.vehicleID }

// DriverID returns the assigned chauffeur, or nil for self-drive.
func (b *Booking) DriverID() *uuid.UUID { return b.driverID }

// Purpose returns the stated purpose of the rental.
func (b *Booking) Purpose() string { return b.purpose }

// StartDate returns the authoritative start of the rental window.
func (b *Booking) StartDate() time.Time { return b.startDate }

// EndDate returns the authoritative end of the rental window.
func (b *Booking) EndDate() time.Time { return b.endDate }

// PickupTime returns when the customer collects the vehicle.
func (b *Booking) PickupTime() time.Time { return b.pickupTime }

// DropoffTime returns when the customer returns the vehicle.
func (b *Booking) DropoffTime() time.Time { return b.dropoffTime }

// Locations returns the hand-over locations.
func (b *Booking) Locations() Locations { return b.locations }

// SelfDrive reports whether the customer drives the vehicle.
func (b *Booking) SelfDrive() bool { return b.selfDrive }

// Delivery reports whether the vehicle is delivered rather than collected at the office.
func (b *Booking) Delivery() bool { return b.delivery }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// Pending returns the outstanding customer request.
func (b *Booking) Pending() PendingRequest { return b.pending }

// PaymentTrigger reports whether a verified payment is waiting to be applied.
func (b *Booking) PaymentTrigger() bool { return b.paymentTrigger }

// TotalAmount returns the amount charged for the rental.
func (b *Booking) TotalAmount() int64 { return b.totalAmount }

// Balance returns the amount still owed.
func (b *Booking) Balance() int64 { return b.balance }

// PaymentStatus returns Paid iff the balance is settled.
func (b *Booking) PaymentStatus() payment.Status { return b.paymentStatus }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// IsOwnedBy checks if the booking belongs to the given customer.
func (b *Booking) IsOwnedBy(customerID uuid.UUID) bool {
	return b.customerID == customerID
}

// HoldsVehicle reports whether this booking keeps its vehicle unavailable.
func (b *Booking) HoldsVehicle() bool {
	return !b.status.IsTerminal()
}

// --- Ledger ---

// ApplyLedger re-derives balance and payment status from the recorded payments.
// It returns true when the stored values drifted.
func (b *Booking) ApplyLedger(summary payment.Summary) bool {
	balance := b.totalAmount - summary.TotalPaid
	status := payment.StatusFor(balance)
	if balance == b.balance && status == b.paymentStatus {
		return false
	}
	b.balance = balance
	b.paymentStatus = status
	b.touch()
	return true
}

// --- Cancellation ---

// RequestCancellation records the owner's request; the status is left for staff to resolve.
func (b *Booking) RequestCancellation(actorID uuid.UUID) error {
	if !b.IsOwnedBy(actorID) {
		return apperror.NewForbiddenError("you can only cancel your own bookings")
	}
	if b.status == StatusCancelled {
		return apperror.NewInvalidStateErrorf("ALREADY_CANCELLED", "booking is already cancelled")
	}
	if b.pending.IsCancellation() {
		return apperror.NewInvalidStateErrorf("CANCELLATION_PENDING", "cancellation request already pending admin approval")
	}
	if b.status == StatusInProgress {
		return apperror.NewInvalidStateErrorf("BOOKING_IN_PROGRESS", "cannot cancel an ongoing booking")
	}
	if b.status == StatusCompleted {
		return apperror.NewInvalidStateErrorf("BOOKING_COMPLETED", "cannot cancel a completed booking")
	}
	if !b.pending.IsNone() {
		return apperror.NewInvalidStateErrorf("REQUEST_PENDING", "another request is pending admin approval")
	}
	b.pending = CancellationPending()
	b.touch()
	return nil
}

// ConfirmCancellation approves a pending cancellation.
func (b *Booking) ConfirmCancellation() error {
	if !b.pending.IsCancellation() {
		return apperror.NewInvalidStateErrorf("NO_PENDING_CANCELLATION", "no cancellation request found for this booking")
	}
	if b.status == StatusCancelled {
		return apperror.NewInvalidStateErrorf("ALREADY_CANCELLED", "booking is already cancelled")
	}
	return b.cancel()
}

// RejectCancellation drops a pending cancellation and leaves everything else untouched.
func (b *Booking) RejectCancellation() error {
	if !b.pending.IsCancellation() {
		return apperror.NewInvalidStateErrorf("NO_PENDING_CANCELLATION", "no cancellation request found for this booking")
	}
	b.pending = NoPendingRequest()
	b.touch()
	return nil
}

// AdminCancel cancels without a prior customer request.
func (b *Booking) AdminCancel() error {
	switch b.status {
	case StatusCancelled:
		return apperror.NewInvalidStateErrorf("ALREADY_CANCELLED", "booking is already cancelled")
	case StatusInProgress:
		return apperror.NewInvalidStateErrorf("BOOKING_IN_PROGRESS", "cannot cancel an in-progress booking; return the vehicle first")
	case StatusCompleted:
		return apperror.NewInvalidStateErrorf("BOOKING_COMPLETED", "cannot cancel a completed booking")
	}
	return b.cancel()
}

func (b *Booking) cancel() error {
	if !b.status.CanBeCancelled() {
		return apperror.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	b.status = StatusCancelled
	b.pending = NoPendingRequest()
	b.touch()
	return nil
}

// --- Extension ---

// RequestExtension proposes a later end date and charges the extra days up front.
// The authoritative end date is unchanged until staff approve.
func (b *Booking) RequestExtension(actorID uuid.UUID, newEndDate time.Time, dailyRate int64) (int64, error) {
	if err := b.CanRequestExtension(actorID); err != nil {
		return 0, err
	}
	if !newEndDate.After(b.endDate) {
		return 0, apperror.NewValidationError("new end date must be after the current end date")
	}
	if dailyRate < 0 {
		return 0, apperror.NewValidationError("daily rate cannot be negative")
	}

	_, cost := ExtensionCost(b.endDate, newEndDate, dailyRate)
	b.pending = ExtensionPending(newEndDate)
	b.totalAmount += cost
	b.balance += cost
	b.paymentStatus = payment.StatusFor(b.balance)
	b.touch()
	return cost, nil
}

// CanRequestExtension checks ownership, status and pending request without
// looking at the proposed date.
func (b *Booking) CanRequestExtension(actorID uuid.UUID) error {
	if !b.IsOwnedBy(actorID) {
		return apperror.NewForbiddenError("you can only extend your own bookings")
	}
	if b.status != StatusInProgress {
		return apperror.NewInvalidStateErrorf("NOT_IN_PROGRESS", "only in-progress bookings can be extended (current status: %s)", b.status)
	}
	if b.pending.IsExtension() {
		return apperror.NewInvalidStateErrorf("EXTENSION_PENDING", "extension request already pending admin approval")
	}
	if !b.pending.IsNone() {
		return apperror.NewInvalidStateErrorf("REQUEST_PENDING", "another request is pending admin approval")
	}
	return nil
}

// ConfirmExtension moves the end date to the proposed date. Money was already
// charged at request time. It returns the old and new end dates.
func (b *Booking) ConfirmExtension() (time.Time, time.Time, error) {
	proposed := b.pending.ProposedEndDate()
	if !b.pending.IsExtension() || proposed == nil {
		return time.Time{}, time.Time{}, apperror.NewInvalidStateErrorf("NO_PENDING_EXTENSION", "no pending extension request for this booking")
	}
	oldEnd := b.endDate
	b.endDate = *proposed
	if b.dropoffTime.Before(b.endDate) {
		b.dropoffTime = b.dropoffTime.Add(b.endDate.Sub(oldEnd))
	}
	b.pending = NoPendingRequest()
	b.touch()
	return oldEnd, b.endDate, nil
}

// RejectExtension reverses the charge applied at request time. The amount is
// re-derived from the proposed and current end dates rather than stored.
func (b *Booking) RejectExtension(dailyRate int64) (int64, error) {
	proposed := b.pending.ProposedEndDate()
	if !b.pending.IsExtension() || proposed == nil {
		return 0, apperror.NewInvalidStateErrorf("NO_PENDING_EXTENSION", "no pending extension request for this booking")
	}
	_, cost := ExtensionCost(b.endDate, *proposed, dailyRate)
	b.totalAmount -= cost
	b.balance -= cost
	b.paymentStatus = payment.StatusFor(b.balance)
	b.pending = NoPendingRequest()
	b.touch()
	return cost, nil
}

// --- Payment confirmation ---

// SignalPaymentReceived sets or clears the trigger an operator raises once
// money has verifiably changed hands.
func (b *Booking) SignalPaymentReceived(received bool) error {
	if received && !b.status.AcceptsPayments() {
		return apperror.NewInvalidStateErrorf("PAYMENT_NOT_ACCEPTED", "cannot signal payment on a %s booking", b.status)
	}
	b.paymentTrigger = received
	b.touch()
	return nil
}

// ApplyConfirmation consumes the payment trigger. A Pending booking whose
// cumulative payments reach threshold becomes Confirmed. It returns true when
// the status advanced.
func (b *Booking) ApplyConfirmation(totalPaid, threshold int64) (bool, error) {
	if !b.paymentTrigger {
		return false, apperror.NewInvalidStateErrorf("NO_PAYMENT_TRIGGER", "payment has not been signalled as received")
	}
	if !b.status.AcceptsPayments() {
		return false, apperror.NewInvalidStateErrorf("INVALID_CONFIRMATION_STATE",
			"cannot confirm booking with status %q; expected Pending, Confirmed or In Progress", b.status)
	}

	advanced := false
	if b.status == StatusPending && totalPaid >= threshold {
		b.status = StatusConfirmed
		advanced = true
	}
	b.paymentTrigger = false
	if b.balance <= 0 {
		b.paymentStatus = payment.StatusPaid
	}
	b.touch()
	return advanced, nil
}

// --- Release / return ---

// StartRental hands the vehicle over: Confirmed → In Progress.
func (b *Booking) StartRental() error {
	if !b.status.CanTransitionTo(StatusInProgress) {
		return apperror.NewInvalidStateError(string(b.status), string(StatusInProgress))
	}
	if b.pending.IsCancellation() {
		return apperror.NewInvalidStateErrorf("CANCELLATION_PENDING", "resolve the pending cancellation before releasing the vehicle")
	}
	b.status = StatusInProgress
	b.touch()
	return nil
}

// CompleteRental records the vehicle's return: In Progress → Completed.
func (b *Booking) CompleteRental() error {
	if !b.status.CanTransitionTo(StatusCompleted) {
		return apperror.NewInvalidStateError(string(b.status), string(StatusCompleted))
	}
	if b.pending.IsExtension() {
		return apperror.NewInvalidStateErrorf("EXTENSION_PENDING", "resolve the pending extension before completing the booking")
	}
	b.status = StatusCompleted
	b.touch()
	return nil
}

// --- Customer edits ---

// DetailsUpdate holds the fields a customer may change while the booking is Pending.
// Nil fields are left unchanged.
type DetailsUpdate struct {
	Purpose     *string
	StartDate   *time.Time
	EndDate     *time.Time
	PickupTime  *time.Time
	DropoffTime *time.Time
	Locations   *Locations
	SelfDrive   *bool
	DriverID    *uuid.UUID
	TotalAmount *int64
}

// UpdateDetails applies a customer's edit to their own Pending booking. When the
// total changes, balance is re-derived from totalPaid in the same update.
func (b *Booking) UpdateDetails(actorID uuid.UUID, u DetailsUpdate, totalPaid int64) error {
	if !b.IsOwnedBy(actorID) {
		return apperror.NewForbiddenError("you can only update your own bookings")
	}
	if b.status != StatusPending {
		return apperror.NewInvalidStateErrorf("NOT_PENDING", "only pending bookings can be updated (current status: %s)", b.status)
	}

	start, end := b.startDate, b.endDate
	if u.StartDate != nil {
		start = *u.StartDate
	}
	if u.EndDate != nil {
		end = *u.EndDate
	}
	if !end.After(start) {
		return apperror.NewValidationError("end date must be after start date")
	}
	if u.TotalAmount != nil && *u.TotalAmount < 0 {
		return apperror.NewValidationError("total amount cannot be negative")
	}

	if u.Purpose != nil {
		b.purpose = *u.Purpose
	}
	b.startDate, b.endDate = start, end
	if u.PickupTime != nil {
		b.pickupTime = *u.PickupTime
	}
	if u.DropoffTime != nil {
		b.dropoffTime = *u.DropoffTime
	}
	if u.Locations != nil {
		b.locations = *u.Locations
	}
	if u.SelfDrive != nil {
		b.selfDrive = *u.SelfDrive
	}
	if b.selfDrive {
		b.driverID = nil
	} else if u.DriverID != nil {
		id := *u.DriverID
		b.driverID = &id
	}
	if u.TotalAmount != nil {
		b.totalAmount = *u.TotalAmount
	}
	b.balance = b.totalAmount - totalPaid
	b.paymentStatus = payment.StatusFor(b.balance)
	b.touch()
	return nil
}

// --- Administrative correction ---

// AdminPatch is a raw field-level correction. Nil fields are left unchanged.
type AdminPatch struct {
	Status         *BookingStatus
	StartDate      *time.Time
	EndDate        *time.Time
	TotalAmount    *int64
	Balance        *int64
	PaymentStatus  *payment.Status
	PaymentTrigger *bool
	ClearPending   bool
	Purpose        *string
}

// ApplyAdminPatch writes fields directly. It is the unsafe escape hatch for
// manual correction: it bypasses every transition and ledger invariant, and no
// workflow calls it.
func (b *Booking) ApplyAdminPatch(p AdminPatch) error {
	if p.Status != nil && !p.Status.IsValid() {
		return apperror.NewValidationError(fmt.Sprintf("invalid booking status: %s", *p.Status))
	}
	if p.Status != nil {
		b.status = *p.Status
	}
	if p.StartDate != nil {
		b.startDate = *p.StartDate
	}
	if p.EndDate != nil {
		b.endDate = *p.EndDate
	}
	if p.TotalAmount != nil {
		b.totalAmount = *p.TotalAmount
	}
	if p.Balance != nil {
		b.balance = *p.Balance
	}
	if p.PaymentStatus != nil {
		b.paymentStatus = *p.PaymentStatus
	}
	if p.PaymentTrigger != nil {
		b.paymentTrigger = *p.PaymentTrigger
	}
	if p.ClearPending {
		b.pending = NoPendingRequest()
	}
	if p.Purpose != nil {
		b.purpose = *p.Purpose
	}
	b.touch()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}

func (b *Booking) touch() {
	b.updatedAt = time.Now().UTC()
}
