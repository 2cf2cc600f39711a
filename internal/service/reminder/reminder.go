// Package reminder sends appointment reminders to customers over SMS and
// e-mail. Delivery is synchronous and never retried.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pawcare/vetclinic_backend/internal/repo"
	"github.com/pawcare/vetclinic_backend/internal/service/appointment"
	"github.com/pawcare/vetclinic_backend/pkg/email"
	"github.com/pawcare/vetclinic_backend/pkg/observability"
)

const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"
)

// SMSSender is satisfied by *sms.Client.
type SMSSender interface {
	IsEnabled() bool
	SendReminder(ctx context.Context, phoneNumber, name, date, time string) error
}

// EmailSender is satisfied by *email.Client.
type EmailSender interface {
	IsEnabled() bool
	ClinicName() string
	Send(ctx context.Context, m email.Message) error
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Result lists the channels a reminder went out on.
type Result struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Channels      []string  `json:"channels"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	SendAppointmentReminder(ctx context.Context, actor appointment.Actor, appointmentID uuid.UUID) (*Result, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type reminderService struct {
	store repo.Queries
	sms   SMSSender
	mail  EmailSender
}

func New(store repo.Queries, sms SMSSender, mail EmailSender) Service {
	return &reminderService{store: store, sms: sms, mail: mail}
}

func (s *reminderService) SendAppointmentReminder(ctx context.Context, actor appointment.Actor, appointmentID uuid.UUID) (*Result, error) {
	if !actor.Role.IsStaff() {
		return nil, appointment.ErrForbidden
	}

	a, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if a.Status != repo.StatusPending && a.Status != repo.StatusConfirmed {
		return nil, ErrNotRemindable
	}

	customer := a.Customer
	if customer == nil {
		if customer, err = s.store.GetUser(ctx, a.CustomerID); err != nil {
			return nil, fmt.Errorf("get customer: %w", err)
		}
	}

	useSMS := s.sms != nil && s.sms.IsEnabled() && customer.Phone != ""
	useEmail := s.mail != nil && s.mail.IsEnabled() && customer.Email != nil && *customer.Email != ""
	if !useSMS && !useEmail {
		return nil, ErrNoChannel
	}

	log := slog.With("appointment_id", a.ID, "customer_id", customer.ID)
	res := &Result{AppointmentID: a.ID, Channels: []string{}}
	var errs []error

	if useSMS {
		err := s.sms.SendReminder(ctx, customer.Phone, customer.FullName(), a.Date, a.Time)
		if err != nil {
			log.ErrorContext(ctx, "sms reminder failed", "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", ChannelSMS, err))
		} else {
			res.Channels = append(res.Channels, ChannelSMS)
		}
		observability.RemindersSent.WithLabelValues(ChannelSMS, outcome(err)).Inc()
	}

	if useEmail {
		msg := email.BuildAppointmentReminderEmail(email.ReminderEmailData{
			Email:      *customer.Email,
			Name:       customer.FullName(),
			Date:       a.Date,
			Time:       a.Time,
			Pets:       petNames(a),
			Services:   serviceNames(a),
			ClinicName: s.mail.ClinicName(),
		})
		err := s.mail.Send(ctx, msg)
		if err != nil {
			log.ErrorContext(ctx, "email reminder failed", "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", ChannelEmail, err))
		} else {
			res.Channels = append(res.Channels, ChannelEmail)
		}
		observability.RemindersSent.WithLabelValues(ChannelEmail, outcome(err)).Inc()
	}

	if len(errs) > 0 {
		return res, fmt.Errorf("%w: %w", ErrDelivery, errors.Join(errs...))
	}
	log.InfoContext(ctx, "reminder sent", "channels", res.Channels)
	return res, nil
}

func outcome(err error) string {
	if err != nil {
		return "failed"
	}
	return "sent"
}

func petNames(a *repo.Appointment) []string {
	out := make([]string, 0, len(a.Pets))
	for _, p := range a.Pets {
		out = append(out, p.Name)
	}
	return out
}

func serviceNames(a *repo.Appointment) []string {
	out := make([]string, 0, len(a.Services))
	for _, sv := range a.Services {
		out = append(out, sv.Name)
	}
	return out
}
