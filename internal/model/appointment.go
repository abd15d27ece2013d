package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending             AppointmentStatus = "pending"
	AppointmentStatusConfirmed           AppointmentStatus = "confirmed"
	AppointmentStatusPostponed           AppointmentStatus = "postponed"
	AppointmentStatusCancelled           AppointmentStatus = "cancelled"
	AppointmentStatusRescheduledByClient AppointmentStatus = "rescheduled_by_client"
	AppointmentStatusCompleted           AppointmentStatus = "completed"
)

type AttentionType string

const (
	AttentionInClinic  AttentionType = "in_clinic"
	AttentionHomeVisit AttentionType = "home_visit"
)

// Clinic working hours and slot rules. Minutes are measured from midnight.
const (
	OpeningMinute    = 8 * 60  // 08:00
	ClosingMinute    = 19 * 60 // 19:00
	LunchStartMinute = 13 * 60 // 13:00
	LunchEndMinute   = 14 * 60 // 14:00

	DefaultServiceDuration = 40
	MaxPostponements       = 2
)

// ServiceDurations maps a service name to its slot length in minutes.
var ServiceDurations = map[string]int{
	"Consulta veterinaria general":    40,
	"Vacunación y control preventivo": 40,
	"Peluquería y cuidado estético":   60,
	"Atención de emergencias":         40,
	"Odontología veterinaria":         50,
	"Visita a domicilio":              60,
}

// DurationFor returns the slot length in minutes for a service name.
func DurationFor(service string) int {
	if d, ok := ServiceDurations[service]; ok {
		return d
	}
	return DefaultServiceDuration
}

// AttentionFor derives the attention type from the service name: anything
// mentioning "domicilio" is a home visit.
func AttentionFor(service string) AttentionType {
	if strings.Contains(strings.ToLower(service), "domicilio") {
		return AttentionHomeVisit
	}
	return AttentionInClinic
}

// Appointment is a scheduled visit. Date is stored as "2006-01-02" and
// StartTime as "15:04" so slot comparisons stay exact.
type Appointment struct {
	Base
	ClientID            uuid.UUID         `json:"client_id" db:"client_id"`
	PetID               uuid.UUID         `json:"pet_id" db:"pet_id"`
	MedicID             *uuid.UUID        `json:"medic_id" db:"medic_id"`
	Service             string            `json:"service" db:"service"`
	Date                string            `json:"date" db:"date"`
	StartTime           string            `json:"start_time" db:"start_time"`
	DurationMinutes     int               `json:"duration_minutes" db:"duration_minutes"`
	AttentionType       AttentionType     `json:"attention_type" db:"attention_type"`
	Address             *string           `json:"address" db:"address"`
	Reason              *string           `json:"reason" db:"reason"`
	Status              AppointmentStatus `json:"status" db:"status"`
	Postponements       int               `json:"postponements" db:"postponements"`
	RescheduledByClient bool              `json:"rescheduled_by_client" db:"rescheduled_by_client"`
	Reminders           int               `json:"reminders" db:"reminders"`
	ReminderSentAt      *time.Time        `json:"reminder_sent_at" db:"reminder_sent_at"`

	ClientName string `json:"client_name,omitempty" db:"client_name"`
	PetName    string `json:"pet_name,omitempty" db:"pet_name"`
}

// EndMinute returns the appointment end as minutes from midnight.
func (a *Appointment) EndMinute() int {
	return MinuteOf(a.StartTime) + a.DurationMinutes
}

// MinuteOf converts a "15:04" clock string to minutes from midnight.
// Malformed input yields -1, which never matches a valid slot.
func MinuteOf(clock string) int {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return -1
	}
	return t.Hour()*60 + t.Minute()
}

type ScheduleAppointmentRequest struct {
	PetID     uuid.UUID `json:"pet_id" binding:"required"`
	Service   string    `json:"service" binding:"required"`
	Date      string    `json:"date" binding:"required,dateformat"`
	StartTime string    `json:"start_time" binding:"required,clockformat"`
	Address   *string   `json:"address"`
	Reason    *string   `json:"reason"`
}

type RescheduleRequest struct {
	Date      string `json:"date" binding:"required,dateformat"`
	StartTime string `json:"start_time" binding:"required,clockformat"`
}

type AvailabilityRequest struct {
	Date      string `form:"date" binding:"required,dateformat"`
	StartTime string `form:"start_time" binding:"required,clockformat"`
}

// CancelOutcome tags what a cancellation did: client cancellations remove
// the row, staff cancellations flip its status.
type CancelOutcome string

const (
	CancelOutcomeDeleted       CancelOutcome = "deleted"
	CancelOutcomeStatusChanged CancelOutcome = "status_changed"
)
