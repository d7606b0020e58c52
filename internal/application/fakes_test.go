package application

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ja-rental/service-rental/internal/common/apperror"
	"github.com/ja-rental/service-rental/internal/common/kafka"
	bookingDomain "github.com/ja-rental/service-rental/internal/domain/booking"
	"github.com/ja-rental/service-rental/internal/domain/history"
	"github.com/ja-rental/service-rental/internal/domain/payment"
	vehicleDomain "github.com/ja-rental/service-rental/internal/domain/vehicle"
)

var errStoreDown = errors.New("store unavailable")

type memBookingRepo struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]bookingDomain.State
	order    []uuid.UUID
	updates  int
	conflict func(attempt int) bool
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{rows: make(map[uuid.UUID]bookingDomain.State)}
}

func (r *memBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return nil, apperror.NewNotFoundError("Booking", id.String())
	}
	return bookingDomain.ReconstructBooking(s), nil
}

func (r *memBookingRepo) FindByNumber(_ context.Context, number string) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.rows {
		if s.BookingNumber == number {
			return bookingDomain.ReconstructBooking(s), nil
		}
	}
	return nil, apperror.NewNotFoundError("Booking", number)
}

func (r *memBookingRepo) FindByCustomerID(_ context.Context, customerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*bookingDomain.Booking
	for _, id := range r.order {
		if s, ok := r.rows[id]; ok && s.CustomerID == customerID {
			all = append(all, bookingDomain.ReconstructBooking(s))
		}
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *memBookingRepo) ListAll(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*bookingDomain.Booking
	for _, id := range r.order {
		if s, ok := r.rows[id]; ok {
			all = append(all, bookingDomain.ReconstructBooking(s))
		}
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *memBookingRepo) ListByStatus(_ context.Context, statuses ...bookingDomain.BookingStatus) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, id := range r.order {
		s, ok := r.rows[id]
		if !ok {
			continue
		}
		for _, st := range statuses {
			if s.Status == st {
				out = append(out, bookingDomain.ReconstructBooking(s))
				break
			}
		}
	}
	return out, nil
}

func (r *memBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, s := range r.rows {
		counts[string(s.Status)]++
	}
	return counts, nil
}

func (r *memBookingRepo) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[bk.ID()] = bk.Snapshot()
	r.order = append(r.order, bk.ID())
	return nil
}

func (r *memBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	cur, ok := r.rows[bk.ID()]
	if !ok {
		return apperror.NewNotFoundError("Booking", bk.ID().String())
	}
	if r.conflict != nil && r.conflict(r.updates) {
		// Simulate a concurrent writer bumping the row first.
		cur.Version++
		r.rows[bk.ID()] = cur
		return apperror.NewConflictError("booking was modified by another transaction")
	}
	if cur.Version != bk.Version()-1 {
		return apperror.NewConflictError("booking was modified by another transaction")
	}
	r.rows[bk.ID()] = bk.Snapshot()
	return nil
}

func (r *memBookingRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return apperror.NewNotFoundError("Booking", id.String())
	}
	delete(r.rows, id)
	return nil
}

func (r *memBookingRepo) put(s bookingDomain.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[s.ID]; !ok {
		r.order = append(r.order, s.ID)
	}
	r.rows[s.ID] = s
}

func paginate(all []*bookingDomain.Booking, page, limit int) []*bookingDomain.Booking {
	start := (page - 1) * limit
	if start >= len(all) {
		return nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

type memPaymentRepo struct {
	mu   sync.Mutex
	rows []*payment.Payment
}

func (r *memPaymentRepo) Append(_ context.Context, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.ID() == p.ID() {
			return apperror.NewConflictError("payment already recorded")
		}
	}
	r.rows = append(r.rows, p)
	return nil
}

func (r *memPaymentRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.ID() == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *memPaymentRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*payment.Payment
	for _, p := range r.rows {
		if p.BookingID() == bookingID {
			out = append(out, p)
		}
	}
	return out, nil
}

// drop removes a booking's entries; the port has no delete.
func (r *memPaymentRepo) drop(bookingID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.rows[:0]
	for _, p := range r.rows {
		if p.BookingID() != bookingID {
			kept = append(kept, p)
		}
	}
	r.rows = kept
}

type memVehicleRepo struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]*vehicleDomain.Vehicle
	failFlag bool
}

func newMemVehicleRepo() *memVehicleRepo {
	return &memVehicleRepo{rows: make(map[uuid.UUID]*vehicleDomain.Vehicle)}
}

func (r *memVehicleRepo) FindByID(_ context.Context, id uuid.UUID) (*vehicleDomain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.rows[id]
	if !ok {
		return nil, apperror.NewNotFoundError("Vehicle", id.String())
	}
	return v, nil
}

func (r *memVehicleRepo) List(_ context.Context, onlyAvailable bool) ([]*vehicleDomain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*vehicleDomain.Vehicle
	for _, v := range r.rows {
		if onlyAvailable && !v.IsAvailable() {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlateNumber() < out[j].PlateNumber() })
	return out, nil
}

func (r *memVehicleRepo) Save(_ context.Context, v *vehicleDomain.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[v.ID()] = v
	return nil
}

func (r *memVehicleRepo) Update(_ context.Context, v *vehicleDomain.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[v.ID()]; !ok {
		return apperror.NewNotFoundError("Vehicle", v.ID().String())
	}
	r.rows[v.ID()] = v
	return nil
}

func (r *memVehicleRepo) SetAvailability(_ context.Context, id uuid.UUID, availability vehicleDomain.Availability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFlag {
		return errStoreDown
	}
	v, ok := r.rows[id]
	if !ok {
		return apperror.NewNotFoundError("Vehicle", id.String())
	}
	r.rows[id] = vehicleDomain.Reconstruct(v.ID(), v.PlateNumber(), v.Brand(), v.Model(), v.DailyRate(),
		availability, v.Version()+1, v.CreatedAt(), v.UpdatedAt())
	return nil
}

func (r *memVehicleRepo) availability(id uuid.UUID) vehicleDomain.Availability {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id].Availability()
}

type memHistoryRepo struct {
	mu           sync.Mutex
	extensions   []*history.ExtensionRecord
	transactions []*history.TransactionRecord
	fail         bool
}

func (r *memHistoryRepo) AppendExtension(_ context.Context, rec *history.ExtensionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errStoreDown
	}
	r.extensions = append(r.extensions, rec)
	return nil
}

func (r *memHistoryRepo) AppendTransaction(_ context.Context, rec *history.TransactionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errStoreDown
	}
	r.transactions = append(r.transactions, rec)
	return nil
}

func (r *memHistoryRepo) ListExtensions(_ context.Context, bookingID uuid.UUID) ([]*history.ExtensionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*history.ExtensionRecord
	for _, e := range r.extensions {
		if e.BookingID() == bookingID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memHistoryRepo) ListTransactions(_ context.Context, bookingID uuid.UUID) ([]*history.TransactionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*history.TransactionRecord
	for _, t := range r.transactions {
		if t.BookingID() == bookingID {
			out = append(out, t)
		}
	}
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}
