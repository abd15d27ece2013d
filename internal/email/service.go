package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/VictorRomo99/veterinaria-pro/config"
	"github.com/VictorRomo99/veterinaria-pro/internal/model"
)

type Service interface {
	SendWelcome(ctx context.Context, to, name string) error
	SendAppointmentConfirmation(ctx context.Context, to string, appt *model.Appointment) error
	SendAppointmentReminder(ctx context.Context, to string, appt *model.Appointment) error
	SendAppointmentPostponed(ctx context.Context, to string, appt *model.Appointment) error
	SendAppointmentCancelled(ctx context.Context, to string, appt *model.Appointment) error
	SendDoseReminder(ctx context.Context, to, petName, doseNote string) error
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPService(cfg config.SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) send(to, subject, html string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

func (s *smtpService) SendWelcome(_ context.Context, to, name string) error {
	body := buildHTML("¡Bienvenido!",
		fmt.Sprintf("Hola %s, tu cuenta ha sido creada. Ya puedes agendar citas para tus mascotas.", name))
	return s.send(to, "Bienvenido a la clínica", body)
}

func (s *smtpService) SendAppointmentConfirmation(_ context.Context, to string, appt *model.Appointment) error {
	body := buildHTML("Cita registrada",
		fmt.Sprintf("Tu cita de %s para %s quedó registrada el %s a las %s.",
			appt.Service, appt.PetName, appt.Date, appt.StartTime))
	return s.send(to, "Cita registrada", body)
}

func (s *smtpService) SendAppointmentReminder(_ context.Context, to string, appt *model.Appointment) error {
	body := buildHTML("Recordatorio de cita",
		fmt.Sprintf("Te recordamos la cita de %s para %s mañana %s a las %s.",
			appt.Service, appt.PetName, appt.Date, appt.StartTime))
	return s.send(to, "Recordatorio de cita", body)
}

func (s *smtpService) SendAppointmentPostponed(_ context.Context, to string, appt *model.Appointment) error {
	body := buildHTML("Cita reprogramada",
		fmt.Sprintf("Tu cita de %s fue reprogramada al %s a las %s.",
			appt.Service, appt.Date, appt.StartTime))
	return s.send(to, "Cita reprogramada", body)
}

func (s *smtpService) SendAppointmentCancelled(_ context.Context, to string, appt *model.Appointment) error {
	body := buildHTML("Cita cancelada",
		fmt.Sprintf("Tu cita de %s del %s a las %s fue cancelada.",
			appt.Service, appt.Date, appt.StartTime))
	return s.send(to, "Cita cancelada", body)
}

func (s *smtpService) SendDoseReminder(_ context.Context, to, petName, doseNote string) error {
	body := buildHTML("Dosis pendiente",
		fmt.Sprintf("%s tiene una dosis próxima: %s. Agenda una cita para aplicarla.", petName, doseNote))
	return s.send(to, "Dosis pendiente para "+petName, body)
}

// buildHTML wraps a message in the clinic's email layout.
func buildHTML(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background: #f4f6f8; padding: 24px;">
  <div style="max-width: 560px; margin: auto; background: #ffffff; border-radius: 8px; padding: 32px;">
    <h2 style="color: #2b6cb0; margin-top: 0;">%s</h2>
    <p style="color: #333333; line-height: 1.6;">%s</p>
    <hr style="border: none; border-top: 1px solid #e2e8f0;">
    <p style="color: #999999; font-size: 12px;">Este es un mensaje automático, por favor no respondas a este correo.</p>
  </div>
</body>
</html>`, title, message)
}

// NopService discards every email. The worker uses it when SMTP is not
// configured.
type NopService struct{}

func (NopService) SendWelcome(context.Context, string, string) error { return nil }
func (NopService) SendAppointmentConfirmation(context.Context, string, *model.Appointment) error {
	return nil
}
func (NopService) SendAppointmentReminder(context.Context, string, *model.Appointment) error {
	return nil
}
func (NopService) SendAppointmentPostponed(context.Context, string, *model.Appointment) error {
	return nil
}
func (NopService) SendAppointmentCancelled(context.Context, string, *model.Appointment) error {
	return nil
}
func (NopService) SendDoseReminder(context.Context, string, string, string) error { return nil }
