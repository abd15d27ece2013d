package worker

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	"github.com/VictorRomo99/veterinaria-pro/internal/service/appointment"
	"github.com/VictorRomo99/veterinaria-pro/internal/service/notification"
)

type fakeAppointmentRepo struct {
	appointments map[uuid.UUID]*model.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (r *fakeAppointmentRepo) Create(_ context.Context, appt *model.Appointment) error {
	appt.ID = uuid.New()
	clone := *appt
	r.appointments[appt.ID] = &clone
	return nil
}

func (r *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	appt, ok := r.appointments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *appt
	return &clone, nil
}

func (r *fakeAppointmentRepo) Update(_ context.Context, appt *model.Appointment) error {
	clone := *appt
	r.appointments[appt.ID] = &clone
	return nil
}

func (r *fakeAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.appointments, id)
	return nil
}

func (r *fakeAppointmentRepo) ExistsAt(_ context.Context, _, _ string, _ *uuid.UUID) (bool, error) {
	return false, nil
}

func (r *fakeAppointmentRepo) ListActiveByDate(_ context.Context, _ string) ([]*model.Appointment, error) {
	return nil, nil
}

func (r *fakeAppointmentRepo) ListByClient(_ context.Context, _ uuid.UUID) ([]*model.Appointment, error) {
	return nil, nil
}

func (r *fakeAppointmentRepo) ListByDateRange(_ context.Context, _, _ string, _ *model.AppointmentStatus) ([]*model.Appointment, error) {
	return nil, nil
}

func (r *fakeAppointmentRepo) ListForReminder(_ context.Context, date string) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, appt := range r.appointments {
		if appt.Date == date && appt.ReminderSentAt == nil && appt.Status != model.AppointmentStatusCancelled {
			clone := *appt
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) MarkReminderSent(_ context.Context, id uuid.UUID, at time.Time) error {
	if appt, ok := r.appointments[id]; ok {
		appt.ReminderSentAt = &at
		appt.Reminders++
	}
	return nil
}

func (r *fakeAppointmentRepo) CountByStatus(_ context.Context, _, _ string) (map[model.AppointmentStatus]int, error) {
	return nil, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	user.ID = uuid.New()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, _ string) (*model.User, error) {
	return nil, sql.ErrNoRows
}

func (r *fakeUserRepo) GetByDNI(_ context.Context, _ string) (*model.User, error) {
	return nil, sql.ErrNoRows
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) UpdateLoginAttempts(_ context.Context, _ uuid.UUID, _ int, _ time.Time) error {
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, _ uuid.UUID, _ time.Time) error {
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, _ *model.UserRole, _ model.Pagination) ([]*model.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) ListByRole(_ context.Context, _ model.UserRole) ([]*model.User, error) {
	return nil, nil
}

type fakeRecordRepo struct {
	records []*model.ClinicalRecord
}

func (r *fakeRecordRepo) Create(_ context.Context, rec *model.ClinicalRecord) error {
	rec.ID = uuid.New()
	clone := *rec
	r.records = append(r.records, &clone)
	return nil
}

func (r *fakeRecordRepo) Get(_ context.Context, id uuid.UUID) (*model.ClinicalRecord, error) {
	for _, rec := range r.records {
		if rec.ID == id {
			clone := *rec
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeRecordRepo) ListByPet(_ context.Context, _ uuid.UUID) ([]*model.ClinicalRecord, error) {
	return nil, nil
}

func (r *fakeRecordRepo) ListDueDoses(_ context.Context, from, to time.Time) ([]*model.ClinicalRecord, error) {
	var out []*model.ClinicalRecord
	for _, rec := range r.records {
		if rec.NextDoseAt == nil {
			continue
		}
		if !rec.NextDoseAt.Before(from) && rec.NextDoseAt.Before(to) {
			clone := *rec
			out = append(out, &clone)
		}
	}
	return out, nil
}

type fakeNotificationRepo struct {
	notifications []*model.Notification
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	n.ID = uuid.New()
	clone := *n
	r.notifications = append(r.notifications, &clone)
	return nil
}

func (r *fakeNotificationRepo) Exists(_ context.Context, typ model.NotificationType, relatedID uuid.UUID) (bool, error) {
	for _, n := range r.notifications {
		if n.Type == typ && n.RelatedID != nil && *n.RelatedID == relatedID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeNotificationRepo) ListForUser(_ context.Context, _ uuid.UUID, _ model.UserRole, _ bool) ([]*model.Notification, error) {
	return nil, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, _, _ uuid.UUID) error { return nil }

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, _ uuid.UUID, _ model.UserRole) error {
	return nil
}

func (r *fakeNotificationRepo) countByType(typ model.NotificationType) int {
	count := 0
	for _, n := range r.notifications {
		if n.Type == typ {
			count++
		}
	}
	return count
}

// recordingEmail counts sends per kind.
type recordingEmail struct {
	mu                   sync.Mutex
	appointmentReminders int
	doseReminders        int
}

func (e *recordingEmail) SendWelcome(context.Context, string, string) error { return nil }

func (e *recordingEmail) SendAppointmentConfirmation(context.Context, string, *model.Appointment) error {
	return nil
}

func (e *recordingEmail) SendAppointmentReminder(context.Context, string, *model.Appointment) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.appointmentReminders++
	return nil
}

func (e *recordingEmail) SendAppointmentPostponed(context.Context, string, *model.Appointment) error {
	return nil
}

func (e *recordingEmail) SendAppointmentCancelled(context.Context, string, *model.Appointment) error {
	return nil
}

func (e *recordingEmail) SendDoseReminder(context.Context, string, string, string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.doseReminders++
	return nil
}

type workerFixture struct {
	worker  *ReminderWorker
	appts   *fakeAppointmentRepo
	records *fakeRecordRepo
	notifs  *fakeNotificationRepo
	email   *recordingEmail
	ownerID uuid.UUID
	now     time.Time
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()

	appts := newFakeAppointmentRepo()
	users := newFakeUserRepo()
	records := &fakeRecordRepo{}
	notifs := &fakeNotificationRepo{}
	emailRec := &recordingEmail{}

	owner := &model.User{
		FirstName: "Carmen",
		LastName:  "Ríos",
		Email:     "carmen@example.com",
		Role:      model.UserRoleClient,
		Status:    model.UserStatusActive,
	}
	require.NoError(t, users.Create(context.Background(), owner))

	notifSvc := notification.NewService(notifs, nil, zerolog.Nop())

	now := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	apptSvc := appointment.NewService(appts, nil, users, nil, notifSvc, emailRec, zerolog.Nop())
	apptSvc.WithClock(clock)

	w := NewReminderWorker(apptSvc, records, users, notifSvc, emailRec, zerolog.Nop(), ReminderConfig{}).
		WithClock(clock)

	return &workerFixture{
		worker:  w,
		appts:   appts,
		records: records,
		notifs:  notifs,
		email:   emailRec,
		ownerID: owner.ID,
		now:     now,
	}
}

func (f *workerFixture) addDoseRecord(t *testing.T, dueIn time.Duration) *model.ClinicalRecord {
	t.Helper()
	due := f.now.Add(dueIn)
	rec := &model.ClinicalRecord{
		PetID:      uuid.New(),
		MedicID:    uuid.New(),
		Diagnosis:  "control",
		NextDoseAt: &due,
		PetName:    "Rocky",
		OwnerID:    f.ownerID,
	}
	require.NoError(t, f.records.Create(context.Background(), rec))
	return rec
}

func TestSweepSendsAppointmentRemindersOnce(t *testing.T) {
	f := newWorkerFixture(t)

	appt := &model.Appointment{
		ClientID:  f.ownerID,
		PetID:     uuid.New(),
		Service:   "Consulta veterinaria general",
		Date:      "2024-06-04", // tomorrow
		StartTime: "10:00",
		Status:    model.AppointmentStatusConfirmed,
	}
	require.NoError(t, f.appts.Create(context.Background(), appt))

	f.worker.Sweep(context.Background())
	assert.Equal(t, 1, f.email.appointmentReminders)

	stored, err := f.appts.Get(context.Background(), appt.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ReminderSentAt)

	// The marked row is skipped on the next pass.
	f.worker.Sweep(context.Background())
	assert.Equal(t, 1, f.email.appointmentReminders)
}

func TestSweepIgnoresAppointmentsOnOtherDates(t *testing.T) {
	f := newWorkerFixture(t)

	today := &model.Appointment{
		ClientID: f.ownerID, PetID: uuid.New(),
		Service: "Consulta veterinaria general",
		Date:    "2024-06-03", StartTime: "16:00",
		Status: model.AppointmentStatusConfirmed,
	}
	require.NoError(t, f.appts.Create(context.Background(), today))

	f.worker.Sweep(context.Background())
	assert.Equal(t, 0, f.email.appointmentReminders)
}

func TestSweepDoseReminderIsIdempotent(t *testing.T) {
	f := newWorkerFixture(t)

	f.addDoseRecord(t, 3*time.Hour)

	f.worker.Sweep(context.Background())
	f.worker.Sweep(context.Background())

	assert.Equal(t, 1, f.notifs.countByType(model.NotificationDoseReminder24h))
	assert.Equal(t, 1, f.email.doseReminders)
}

// A dose inside the next hour matches both windows and generates the 24h and
// the 1h reminder independently.
func TestSweepDoseInsideBothWindows(t *testing.T) {
	f := newWorkerFixture(t)

	f.addDoseRecord(t, 30*time.Minute)

	f.worker.Sweep(context.Background())

	assert.Equal(t, 1, f.notifs.countByType(model.NotificationDoseReminder24h))
	assert.Equal(t, 1, f.notifs.countByType(model.NotificationDoseReminder1h))
	assert.Equal(t, 2, f.email.doseReminders)
}

func TestSweepSkipsDosesOutsideWindow(t *testing.T) {
	f := newWorkerFixture(t)

	f.addDoseRecord(t, 48*time.Hour)
	f.addDoseRecord(t, -time.Hour) // already past due

	f.worker.Sweep(context.Background())

	assert.Equal(t, 0, f.notifs.countByType(model.NotificationDoseReminder24h))
	assert.Equal(t, 0, f.notifs.countByType(model.NotificationDoseReminder1h))
}
