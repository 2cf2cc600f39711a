package medical

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pawcare/vetclinic_backend/internal/repo"
	"github.com/pawcare/vetclinic_backend/internal/service/appointment"
	"github.com/pawcare/vetclinic_backend/internal/service/notification"
	"github.com/pawcare/vetclinic_backend/pkg/observability"
	"github.com/pawcare/vetclinic_backend/pkg/validate"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type ProductUse struct {
	ProductID int64 `json:"product_id" validate:"required"`
	Quantity  int   `json:"quantity" validate:"gt=0"`
}

// PetRecordInput is the clinical data for one pet. A record with every
// field blank is skipped; otherwise weight, symptoms and diagnosis are
// required.
type PetRecordInput struct {
	PetID      uuid.UUID    `json:"pet_id" validate:"required"`
	Weight     string       `json:"weight"`
	Symptoms   string       `json:"symptoms" validate:"max=2000"`
	Diagnosis  string       `json:"diagnosis" validate:"max=2000"`
	Treatment  string       `json:"treatment" validate:"max=2000"`
	LabTestIDs []int64      `json:"lab_test_ids"`
	Products   []ProductUse `json:"products" validate:"dive"`
}

func (r PetRecordInput) blank() bool {
	return strings.TrimSpace(r.Weight) == "" &&
		strings.TrimSpace(r.Symptoms) == "" &&
		strings.TrimSpace(r.Diagnosis) == "" &&
		strings.TrimSpace(r.Treatment) == "" &&
		len(r.LabTestIDs) == 0 &&
		len(r.Products) == 0
}

type CompleteRequest struct {
	AppointmentID uuid.UUID        `json:"appointment_id" validate:"required"`
	Records       []PetRecordInput `json:"records" validate:"dive"`
}

type CompleteResult struct {
	Appointment   *repo.Appointment     `json:"appointment"`
	Records       []repo.MedicalRecord  `json:"records"`
	Usage         []repo.InventoryUsage `json:"inventory_usage"`
	TotalTestCost decimal.Decimal       `json:"total_test_cost"`
}

const (
	LineLabTest = "lab_test"
	LineProduct = "product"
)

type BillLine struct {
	Kind      string          `json:"kind"`
	PetID     uuid.UUID       `json:"pet_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}

type Bill struct {
	AppointmentID uuid.UUID       `json:"appointment_id"`
	Lines         []BillLine      `json:"lines"`
	LabTestTotal  decimal.Decimal `json:"lab_test_total"`
	ProductTotal  decimal.Decimal `json:"product_total"`
	Total         decimal.Decimal `json:"total"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// Complete moves a confirmed appointment to completed and writes its
	// medical records and inventory usage in the same transaction.
	Complete(ctx context.Context, actor appointment.Actor, req CompleteRequest) (*CompleteResult, error)

	ListByAppointment(ctx context.Context, actor appointment.Actor, appointmentID uuid.UUID) ([]repo.MedicalRecord, error)
	ListByPet(ctx context.Context, actor appointment.Actor, petID uuid.UUID) ([]repo.MedicalRecord, error)
	VaccinationHistory(ctx context.Context, actor appointment.Actor, petID uuid.UUID) ([]repo.Vaccination, error)
	Bill(ctx context.Context, actor appointment.Actor, appointmentID uuid.UUID) (*Bill, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type medicalService struct {
	store    repo.Store
	notifier appointment.Notifier
}

func New(store repo.Store, notifier appointment.Notifier) Service {
	return &medicalService{store: store, notifier: notifier}
}

// record is a validated, non-blank input ready to be written.
type record struct {
	index int
	input PetRecordInput
	// weight is parsed once during validation
	weight decimal.Decimal
}

func (s *medicalService) Complete(ctx context.Context, actor appointment.Actor, req CompleteRequest) (*CompleteResult, error) {
	if !actor.Role.IsStaff() {
		return nil, appointment.ErrForbidden
	}

	errs := validate.Errors{}
	if err := validate.Struct(req); err != nil {
		ve, ok := validate.As(err)
		if !ok {
			return nil, err
		}
		errs = ve
	}
	records := checkRecords(errs, req.Records)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	var written int
	err := s.store.WithTx(ctx, func(q repo.Queries) error {
		a, err := q.GetAppointment(ctx, req.AppointmentID)
		if err != nil {
			if repo.IsNotFound(err) {
				return ErrNotFound
			}
			return fmt.Errorf("get appointment: %w", err)
		}
		if err := appointment.CheckTransition(appointment.ActionComplete, actor.Role, a.Status); err != nil {
			return err
		}

		tests, products, err := resolveCatalog(ctx, q, a, records)
		if err != nil {
			return err
		}

		if err := q.TransitionAppointment(ctx, a.ID, []repo.AppointmentStatus{a.Status}, repo.StatusCompleted); err != nil {
			if errors.Is(err, repo.ErrStaleState) {
				return fmt.Errorf("%w: appointment changed concurrently", appointment.ErrInvalidTransition)
			}
			return fmt.Errorf("complete appointment: %w", err)
		}

		for _, r := range records {
			if err := writeRecord(ctx, q, a.ID, r, tests, products); err != nil {
				return err
			}
			written++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res, err := s.result(ctx, req.AppointmentID)
	if err != nil {
		return nil, err
	}

	observability.AppointmentTransitions.WithLabelValues(string(appointment.ActionComplete)).Inc()
	observability.MedicalRecordsWritten.Add(float64(written))
	s.publish(ctx, res.Appointment, len(res.Records))
	return res, nil
}

// checkRecords applies the per-pet all-or-nothing rule and returns the
// records that carry data.
func checkRecords(errs validate.Errors, inputs []PetRecordInput) []record {
	var out []record
	seen := map[uuid.UUID]bool{}

	for i, in := range inputs {
		prefix := fmt.Sprintf("records.%d.", i)
		if in.PetID != uuid.Nil {
			if seen[in.PetID] {
				errs.Add(prefix+"pet_id", "is listed more than once")
			}
			seen[in.PetID] = true
		}
		if in.blank() {
			continue
		}

		r := record{index: i, input: in}
		r.input.LabTestIDs = uniqueIDs(in.LabTestIDs)
		if w := strings.TrimSpace(in.Weight); w == "" {
			errs.Add(prefix+"weight", "is required")
		} else if d, err := decimal.NewFromString(w); err != nil || !d.IsPositive() {
			errs.Add(prefix+"weight", "must be a positive number")
		} else {
			r.weight = d
		}
		if strings.TrimSpace(in.Symptoms) == "" {
			errs.Add(prefix+"symptoms", "is required")
		}
		if strings.TrimSpace(in.Diagnosis) == "" {
			errs.Add(prefix+"diagnosis", "is required")
		}
		out = append(out, r)
	}
	return out
}

// uniqueIDs drops repeated lab test ids, keeping first-seen order.
func uniqueIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return ids
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// resolveCatalog checks pets against the appointment and loads the priced
// lab tests and products the records reference.
func resolveCatalog(ctx context.Context, q repo.Queries, a *repo.Appointment, records []record) (map[int64]repo.LabTest, map[int64]repo.Product, error) {
	var testIDs, productIDs []int64
	for _, r := range records {
		testIDs = append(testIDs, r.input.LabTestIDs...)
		for _, p := range r.input.Products {
			productIDs = append(productIDs, p.ProductID)
		}
	}

	tests := map[int64]repo.LabTest{}
	if len(testIDs) > 0 {
		found, err := q.GetLabTests(ctx, testIDs)
		if err != nil {
			return nil, nil, fmt.Errorf("get lab tests: %w", err)
		}
		for _, t := range found {
			tests[t.ID] = t
		}
	}
	products := map[int64]repo.Product{}
	if len(productIDs) > 0 {
		found, err := q.GetProducts(ctx, productIDs)
		if err != nil {
			return nil, nil, fmt.Errorf("get products: %w", err)
		}
		for _, p := range found {
			products[p.ID] = p
		}
	}

	errs := validate.Errors{}
	for _, r := range records {
		prefix := fmt.Sprintf("records.%d.", r.index)
		if !a.HasPet(r.input.PetID) {
			errs.Add(prefix+"pet_id", "is not booked on this appointment")
		}
		for _, id := range r.input.LabTestIDs {
			if _, ok := tests[id]; !ok {
				errs.Add(prefix+"lab_test_ids", fmt.Sprintf("unknown lab test %d", id))
			}
		}
		for j, p := range r.input.Products {
			if _, ok := products[p.ProductID]; !ok {
				errs.Add(fmt.Sprintf("%sproducts.%d.product_id", prefix, j), "unknown product")
			}
		}
	}
	if err := errs.Err(); err != nil {
		return nil, nil, err
	}
	return tests, products, nil
}

// writeRecord snapshots catalog prices into the record and usage rows. Client
// supplied prices never reach this point.
func writeRecord(ctx context.Context, q repo.Queries, appointmentID uuid.UUID, r record, tests map[int64]repo.LabTest, products map[int64]repo.Product) error {
	lines := make([]repo.TestLine, 0, len(r.input.LabTestIDs))
	cost := decimal.Zero
	for _, id := range r.input.LabTestIDs {
		t := tests[id]
		lines = append(lines, repo.TestLine{LabTestID: t.ID, Name: t.Name, Price: t.Price})
		cost = cost.Add(t.Price)
	}

	rec := &repo.MedicalRecord{
		AppointmentID: appointmentID,
		PetID:         r.input.PetID,
		Weight:        r.weight,
		Symptoms:      strings.TrimSpace(r.input.Symptoms),
		Diagnosis:     strings.TrimSpace(r.input.Diagnosis),
		Treatment:     strings.TrimSpace(r.input.Treatment),
		Tests:         lines,
		TestCost:      cost,
	}
	if err := q.CreateMedicalRecord(ctx, rec); err != nil {
		return fmt.Errorf("create medical record: %w", err)
	}

	for _, use := range r.input.Products {
		p := products[use.ProductID]
		err := q.ConsumeProduct(ctx, &repo.InventoryUsage{
			AppointmentID: appointmentID,
			PetID:         r.input.PetID,
			ProductID:     p.ID,
			Quantity:      use.Quantity,
			UnitPrice:     p.Price,
		})
		switch {
		case errors.Is(err, repo.ErrInsufficientStock):
			return fmt.Errorf("%w: %s", ErrInsufficientStock, p.Name)
		case err != nil:
			return fmt.Errorf("consume product: %w", err)
		}
	}
	return nil
}

func (s *medicalService) result(ctx context.Context, appointmentID uuid.UUID) (*CompleteResult, error) {
	a, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	records, err := s.store.ListMedicalRecords(ctx, repo.MedicalRecordFilter{AppointmentID: &appointmentID})
	if err != nil {
		return nil, fmt.Errorf("list medical records: %w", err)
	}
	usage, err := s.store.ListInventoryUsage(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("list inventory usage: %w", err)
	}

	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.TestCost)
	}
	return &CompleteResult{
		Appointment:   a,
		Records:       records,
		Usage:         usage,
		TotalTestCost: total,
	}, nil
}

func (s *medicalService) publish(ctx context.Context, a *repo.Appointment, records int) {
	if s.notifier == nil {
		return
	}

	name := "a customer"
	if a.Customer != nil && a.Customer.FullName() != "" {
		name = a.Customer.FullName()
	}
	id := a.ID
	evt := notification.Event{
		Type:          notification.EventAppointmentCompleted,
		Message:       fmt.Sprintf("Appointment for %s on %s at %s was completed", name, a.Date, a.Time),
		AppointmentID: &id,
		Data: map[string]any{
			"appointment_date": a.Date,
			"appointment_time": a.Time,
			"status":           string(a.Status),
			"records":          records,
		},
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.notifier.Publish(pctx, evt); err != nil {
		slog.WarnContext(ctx, "failed to publish completion event", "appointment_id", a.ID, "error", err)
	}
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

func (s *medicalService) ListByAppointment(ctx context.Context, actor appointment.Actor, appointmentID uuid.UUID) ([]repo.MedicalRecord, error) {
	a, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if !actor.Role.IsStaff() && a.CustomerID != actor.UserID {
		return nil, ErrForbidden
	}

	records, err := s.store.ListMedicalRecords(ctx, repo.MedicalRecordFilter{AppointmentID: &appointmentID})
	if err != nil {
		return nil, fmt.Errorf("list medical records: %w", err)
	}
	return records, nil
}

func (s *medicalService) ListByPet(ctx context.Context, actor appointment.Actor, petID uuid.UUID) ([]repo.MedicalRecord, error) {
	if err := s.checkPet(ctx, actor, petID); err != nil {
		return nil, err
	}
	records, err := s.store.ListMedicalRecords(ctx, repo.MedicalRecordFilter{PetID: &petID})
	if err != nil {
		return nil, fmt.Errorf("list medical records: %w", err)
	}
	return records, nil
}

func (s *medicalService) VaccinationHistory(ctx context.Context, actor appointment.Actor, petID uuid.UUID) ([]repo.Vaccination, error) {
	if err := s.checkPet(ctx, actor, petID); err != nil {
		return nil, err
	}
	vs, err := s.store.ListVaccinations(ctx, petID)
	if err != nil {
		return nil, fmt.Errorf("list vaccinations: %w", err)
	}
	return vs, nil
}

func (s *medicalService) checkPet(ctx context.Context, actor appointment.Actor, petID uuid.UUID) error {
	pet, err := s.store.GetPet(ctx, petID)
	if err != nil {
		if repo.IsNotFound(err) {
			return ErrPetNotFound
		}
		return fmt.Errorf("get pet: %w", err)
	}
	if !actor.Role.IsStaff() && pet.OwnerID != actor.UserID {
		return ErrForbidden
	}
	return nil
}

func (s *medicalService) Bill(ctx context.Context, actor appointment.Actor, appointmentID uuid.UUID) (*Bill, error) {
	if !actor.Role.IsStaff() {
		return nil, appointment.ErrForbidden
	}
	if _, err := s.store.GetAppointment(ctx, appointmentID); err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}

	records, err := s.store.ListMedicalRecords(ctx, repo.MedicalRecordFilter{AppointmentID: &appointmentID})
	if err != nil {
		return nil, fmt.Errorf("list medical records: %w", err)
	}
	usage, err := s.store.ListInventoryUsage(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("list inventory usage: %w", err)
	}

	b := &Bill{
		AppointmentID: appointmentID,
		Lines:         []BillLine{},
		LabTestTotal:  decimal.Zero,
		ProductTotal:  decimal.Zero,
	}
	for _, r := range records {
		for _, t := range r.Tests {
			b.Lines = append(b.Lines, BillLine{
				Kind:      LineLabTest,
				PetID:     r.PetID,
				Name:      t.Name,
				Quantity:  1,
				UnitPrice: t.Price,
				Amount:    t.Price,
			})
			b.LabTestTotal = b.LabTestTotal.Add(t.Price)
		}
	}
	for _, u := range usage {
		amount := u.UnitPrice.Mul(decimal.NewFromInt(int64(u.Quantity)))
		b.Lines = append(b.Lines, BillLine{
			Kind:      LineProduct,
			PetID:     u.PetID,
			Name:      u.ProductName,
			Quantity:  u.Quantity,
			UnitPrice: u.UnitPrice,
			Amount:    amount,
		})
		b.ProductTotal = b.ProductTotal.Add(amount)
	}
	b.Total = b.LabTestTotal.Add(b.ProductTotal)
	return b, nil
}
