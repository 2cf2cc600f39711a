package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Domain counters, served from the default registry alongside the OTel
// exporter's HTTP metrics.
var (
	AppointmentsBooked = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vetclinic",
		Name:      "appointments_booked_total",
		Help:      "Appointments created, by channel (online, walk_in).",
	}, []string{"channel"})

	BookingRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vetclinic",
		Name:      "booking_rejections_total",
		Help:      "Create or reschedule requests refused by scheduling rules, by reason.",
	}, []string{"reason"})

	AppointmentTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vetclinic",
		Name:      "appointment_transitions_total",
		Help:      "Applied appointment lifecycle actions.",
	}, []string{"action"})

	MedicalRecordsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vetclinic",
		Name:      "medical_records_written_total",
		Help:      "Medical records stored on completion.",
	})

	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vetclinic",
		Name:      "notifications_published_total",
		Help:      "Relay events published, by type.",
	}, []string{"type"})

	NotificationPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vetclinic",
		Name:      "notification_publish_failures_total",
		Help:      "Relay publishes that failed.",
	})

	RemindersSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vetclinic",
		Name:      "reminders_sent_total",
		Help:      "Customer reminders, by channel and outcome.",
	}, []string{"channel", "outcome"})
)
