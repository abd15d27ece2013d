package model

import "github.com/google/uuid"

type NotificationType string

const (
	NotificationAppointmentCreated     NotificationType = "appointment_created"
	NotificationAppointmentConfirmed   NotificationType = "appointment_confirmed"
	NotificationAppointmentPostponed   NotificationType = "appointment_postponed"
	NotificationAppointmentCancelled   NotificationType = "appointment_cancelled"
	NotificationAppointmentRescheduled NotificationType = "appointment_rescheduled"
	NotificationAppointmentReminder    NotificationType = "appointment_reminder"
	NotificationDoseReminder24h        NotificationType = "dose_reminder_24h"
	NotificationDoseReminder1h         NotificationType = "dose_reminder_1h"
	NotificationLowStock               NotificationType = "low_stock"
)

// Notification targets either a single user or a whole role.
type Notification struct {
	Base
	UserID    *uuid.UUID       `json:"user_id" db:"user_id"`
	Role      *UserRole        `json:"role" db:"role"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	RelatedID *uuid.UUID       `json:"related_id" db:"related_id"`
	Read      bool             `json:"read" db:"read"`
}
