package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VictorRomo99/veterinaria-pro/internal/email"
	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	"github.com/VictorRomo99/veterinaria-pro/internal/repository"
	"github.com/VictorRomo99/veterinaria-pro/pkg/errors"
)

// serialTx mimics the serializable booking transaction: invocations run one
// at a time against the shared fake repository.
type serialTx struct {
	mu   sync.Mutex
	repo *fakeAppointmentRepo
}

func (p *serialTx) InTx(_ context.Context, fn func(repo repository.AppointmentRepository) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fn(p.repo)
}

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
		return nil, assert.AnError
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

func (r *fakeAppointmentRepo) ExistsAt(_ context.Context, date, startTime string, exclude *uuid.UUID) (bool, error) {
	for _, appt := range r.appointments {
		if exclude != nil && appt.ID == *exclude {
			continue
		}
		if appt.Status == model.AppointmentStatusCancelled {
			continue
		}
		if appt.Date == date && appt.StartTime == startTime {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAppointmentRepo) ListActiveByDate(_ context.Context, date string) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, appt := range r.appointments {
		if appt.Date == date && appt.Status != model.AppointmentStatusCancelled {
			clone := *appt
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) ListByClient(_ context.Context, clientID uuid.UUID) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, appt := range r.appointments {
		if appt.ClientID == clientID {
			clone := *appt
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) ListByDateRange(_ context.Context, from, to string, status *model.AppointmentStatus) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, appt := range r.appointments {
		if appt.Date >= from && appt.Date <= to {
			if status != nil && appt.Status != *status {
				continue
			}
			clone := *appt
			out = append(out, &clone)
		}
	}
	return out, nil
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

func (r *fakeAppointmentRepo) CountByStatus(_ context.Context, from, to string) (map[model.AppointmentStatus]int, error) {
	counts := make(map[model.AppointmentStatus]int)
	for _, appt := range r.appointments {
		if appt.Date >= from && appt.Date <= to {
			counts[appt.Status]++
		}
	}
	return counts, nil
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
		return nil, assert.AnError
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, assert.AnError
}

func (r *fakeUserRepo) GetByDNI(_ context.Context, dni string) (*model.User, error) {
	for _, user := range r.users {
		if user.DNI == dni {
			return user, nil
		}
	}
	return nil, assert.AnError
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) UpdateLoginAttempts(_ context.Context, id uuid.UUID, attempts int, at time.Time) error {
	if user, ok := r.users[id]; ok {
		user.LoginAttempts = attempts
		user.LastLoginAttempt = at
	}
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	if user, ok := r.users[id]; ok {
		user.LastLoginAt = &at
		user.LoginAttempts = 0
	}
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, role *model.UserRole, _ model.Pagination) ([]*model.User, error) {
	var out []*model.User
	for _, user := range r.users {
		if role == nil || user.Role == *role {
			out = append(out, user)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListByRole(_ context.Context, role model.UserRole) ([]*model.User, error) {
	return r.List(context.Background(), &role, model.Pagination{})
}

type fakePetRepo struct {
	pets map[uuid.UUID]*model.Pet
}

func newFakePetRepo() *fakePetRepo {
	return &fakePetRepo{pets: make(map[uuid.UUID]*model.Pet)}
}

func (r *fakePetRepo) Create(_ context.Context, pet *model.Pet) error {
	pet.ID = uuid.New()
	r.pets[pet.ID] = pet
	return nil
}

func (r *fakePetRepo) Get(_ context.Context, id uuid.UUID) (*model.Pet, error) {
	pet, ok := r.pets[id]
	if !ok {
		return nil, assert.AnError
	}
	return pet, nil
}

func (r *fakePetRepo) Update(_ context.Context, pet *model.Pet) error {
	r.pets[pet.ID] = pet
	return nil
}

func (r *fakePetRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*model.Pet, error) {
	var out []*model.Pet
	for _, pet := range r.pets {
		if pet.OwnerID == ownerID {
			out = append(out, pet)
		}
	}
	return out, nil
}

func (r *fakePetRepo) List(_ context.Context, _ model.Pagination) ([]*model.Pet, error) {
	var out []*model.Pet
	for _, pet := range r.pets {
		out = append(out, pet)
	}
	return out, nil
}

// testFixture wires a service over in-memory repositories with one client
// and their pet ready to book.
type testFixture struct {
	svc      *Service
	appts    *fakeAppointmentRepo
	clientID uuid.UUID
	petID    uuid.UUID
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()

	users := newFakeUserRepo()
	pets := newFakePetRepo()
	appts := newFakeAppointmentRepo()

	client := &model.User{
		FirstName: "Lucía",
		LastName:  "Paredes",
		Email:     "lucia@example.com",
		Role:      model.UserRoleClient,
		Status:    model.UserStatusActive,
	}
	require.NoError(t, users.Create(context.Background(), client))

	pet := &model.Pet{OwnerID: client.ID, Name: "Rocky", Species: "perro"}
	require.NoError(t, pets.Create(context.Background(), pet))

	svc := NewService(appts, &serialTx{repo: appts}, users, pets, nil, email.NopService{}, zerolog.Nop())
	svc.WithClock(func() time.Time {
		return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	})

	return &testFixture{svc: svc, appts: appts, clientID: client.ID, petID: pet.ID}
}

func (f *testFixture) schedule(t *testing.T, date, start, service string) *model.Appointment {
	t.Helper()
	appt, err := f.svc.Schedule(context.Background(), f.clientID, &model.ScheduleAppointmentRequest{
		PetID:     f.petID,
		Service:   service,
		Date:      date,
		StartTime: start,
	})
	require.NoError(t, err)
	return appt
}

func TestScheduleRejectsSunday(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Schedule(context.Background(), f.clientID, &model.ScheduleAppointmentRequest{
		PetID:     f.petID,
		Service:   "Consulta veterinaria general",
		Date:      "2024-06-02", // Sunday
		StartTime: "10:00",
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindRuleViolation))
}

func TestScheduleRejectsOutsideWorkingHours(t *testing.T) {
	f := newFixture(t)

	for _, start := range []string{"07:30", "19:00", "20:15"} {
		_, err := f.svc.Schedule(context.Background(), f.clientID, &model.ScheduleAppointmentRequest{
			PetID:     f.petID,
			Service:   "Consulta veterinaria general",
			Date:      "2024-06-03",
			StartTime: start,
		})
		require.Error(t, err, "start %s should be rejected", start)
		assert.True(t, errors.IsKind(err, errors.KindRuleViolation))
	}
}

func TestScheduleRejectsLunchBreak(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Schedule(context.Background(), f.clientID, &model.ScheduleAppointmentRequest{
		PetID:     f.petID,
		Service:   "Consulta veterinaria general",
		Date:      "2024-06-03",
		StartTime: "13:20",
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindRuleViolation))
}

func TestScheduleRejectsStraddlingLunch(t *testing.T) {
	f := newFixture(t)

	// Grooming runs 60 minutes: 12:30 + 60 crosses into the break.
	_, err := f.svc.Schedule(context.Background(), f.clientID, &model.ScheduleAppointmentRequest{
		PetID:     f.petID,
		Service:   "Peluquería y cuidado estético",
		Date:      "2024-06-03",
		StartTime: "12:30",
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindRuleViolation))
}

func TestScheduleRejectsIntervalOverlap(t *testing.T) {
	f := newFixture(t)

	f.schedule(t, "2024-06-03", "09:00", "Consulta veterinaria general")

	// 09:30 starts inside the 09:00-09:40 visit.
	_, err := f.svc.Schedule(context.Background(), f.clientID, &model.ScheduleAppointmentRequest{
		PetID:     f.petID,
		Service:   "Consulta veterinaria general",
		Date:      "2024-06-03",
		StartTime: "09:30",
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConflict))

	// 09:40 starts exactly when the first ends, no overlap.
	f.schedule(t, "2024-06-03", "09:40", "Consulta veterinaria general")
}

func TestScheduleSerializesConcurrentBookings(t *testing.T) {
	f := newFixture(t)

	// Both slots overlap the 09:00-09:40 interval; whichever transaction
	// runs second must see the first insert and report a conflict.
	starts := []string{"09:00", "09:30"}
	errs := make([]error, len(starts))
	var wg sync.WaitGroup
	for i := range starts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Schedule(context.Background(), f.clientID, &model.ScheduleAppointmentRequest{
				PetID:     f.petID,
				Service:   "Consulta veterinaria general",
				Date:      "2024-06-03",
				StartTime: starts[i],
			})
		}(i)
	}
	wg.Wait()

	var booked, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			booked++
		case errors.IsKind(err, errors.KindConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, booked)
	assert.Equal(t, 1, conflicts)
	assert.Len(t, f.appts.appointments, 1)
}

func TestScheduleAppliesServiceDuration(t *testing.T) {
	f := newFixture(t)

	appt := f.schedule(t, "2024-06-03", "10:00", "Odontología veterinaria")
	assert.Equal(t, 50, appt.DurationMinutes)

	unknown := f.schedule(t, "2024-06-04", "10:00", "Algo nuevo")
	assert.Equal(t, model.DefaultServiceDuration, unknown.DurationMinutes)
}

func TestScheduleHomeVisitRequiresAddress(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Schedule(context.Background(), f.clientID, &model.ScheduleAppointmentRequest{
		PetID:     f.petID,
		Service:   "Visita a domicilio",
		Date:      "2024-06-03",
		StartTime: "10:00",
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
}

func TestScheduleDerivesAttentionFromService(t *testing.T) {
	f := newFixture(t)

	addr := "Av. Larco 742, Miraflores"
	appt, err := f.svc.Schedule(context.Background(), f.clientID, &model.ScheduleAppointmentRequest{
		PetID:     f.petID,
		Service:   "Visita a domicilio",
		Date:      "2024-06-03",
		StartTime: "10:00",
		Address:   &addr,
	})
	require.NoError(t, err)
	assert.Equal(t, model.AttentionHomeVisit, appt.AttentionType)

	clinic := f.schedule(t, "2024-06-04", "10:00", "Consulta veterinaria general")
	assert.Equal(t, model.AttentionInClinic, clinic.AttentionType)
}

func TestSendReminderBumpsCount(t *testing.T) {
	f := newFixture(t)
	appt := f.schedule(t, "2024-06-03", "09:00", "Consulta veterinaria general")

	first, err := f.svc.SendReminder(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Reminders)
	require.NotNil(t, first.ReminderSentAt)

	second, err := f.svc.SendReminder(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Reminders)
}

// Availability probes the exact slot only; a start time nested inside an
// existing visit still reads as free, and booking is where it gets caught.
func TestCheckAvailabilityProbesExactSlotOnly(t *testing.T) {
	f := newFixture(t)

	f.schedule(t, "2024-06-03", "09:00", "Consulta veterinaria general")

	free, err := f.svc.CheckAvailability(context.Background(), "2024-06-03", "09:00")
	require.NoError(t, err)
	assert.False(t, free)

	free, err = f.svc.CheckAvailability(context.Background(), "2024-06-03", "09:30")
	require.NoError(t, err)
	assert.True(t, free, "exact probe ignores interval overlap")

	// The probe reads the ledger only; calendar rules are Schedule's job,
	// so a Sunday query answers free instead of erroring.
	free, err = f.svc.CheckAvailability(context.Background(), "2024-06-02", "10:00")
	require.NoError(t, err)
	assert.True(t, free)
}

func TestStaffRescheduleCapsPostponements(t *testing.T) {
	f := newFixture(t)

	appt := f.schedule(t, "2024-06-03", "09:00", "Consulta veterinaria general")

	_, err := f.svc.StaffReschedule(context.Background(), appt.ID, &model.RescheduleRequest{
		Date: "2024-06-04", StartTime: "09:00",
	})
	require.NoError(t, err)

	_, err = f.svc.StaffReschedule(context.Background(), appt.ID, &model.RescheduleRequest{
		Date: "2024-06-05", StartTime: "09:00",
	})
	require.NoError(t, err)

	_, err = f.svc.StaffReschedule(context.Background(), appt.ID, &model.RescheduleRequest{
		Date: "2024-06-06", StartTime: "09:00",
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindLimitExceeded))
}

func TestClientRescheduleIsOneShot(t *testing.T) {
	f := newFixture(t)

	appt := f.schedule(t, "2024-06-03", "09:00", "Consulta veterinaria general")

	moved, err := f.svc.ClientReschedule(context.Background(), f.clientID, appt.ID, &model.RescheduleRequest{
		Date: "2024-06-04", StartTime: "10:00",
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusRescheduledByClient, moved.Status)
	assert.True(t, moved.RescheduledByClient)

	_, err = f.svc.ClientReschedule(context.Background(), f.clientID, appt.ID, &model.RescheduleRequest{
		Date: "2024-06-05", StartTime: "10:00",
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindLimitExceeded))
}

func TestRescheduleProbesExactTargetSlot(t *testing.T) {
	f := newFixture(t)

	f.schedule(t, "2024-06-03", "09:00", "Consulta veterinaria general")
	appt := f.schedule(t, "2024-06-03", "11:00", "Consulta veterinaria general")

	// Exact collision with the 09:00 slot is rejected.
	_, err := f.svc.StaffReschedule(context.Background(), appt.ID, &model.RescheduleRequest{
		Date: "2024-06-03", StartTime: "09:00",
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConflict))

	// 09:30 overlaps the 09:00-09:40 interval but the reschedule path only
	// probes the exact slot, so it is accepted.
	moved, err := f.svc.StaffReschedule(context.Background(), appt.ID, &model.RescheduleRequest{
		Date: "2024-06-03", StartTime: "09:30",
	})
	require.NoError(t, err)
	assert.Equal(t, "09:30", moved.StartTime)
	assert.Equal(t, model.AppointmentStatusPostponed, moved.Status)
	assert.Equal(t, 1, moved.Postponements)
}

func TestStaffCancelKeepsRow(t *testing.T) {
	f := newFixture(t)

	appt := f.schedule(t, "2024-06-03", "09:00", "Consulta veterinaria general")

	outcome, err := f.svc.StaffCancel(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CancelOutcomeStatusChanged, outcome)

	stored, err := f.svc.Get(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, stored.Status)
}

func TestClientCancelDeletesRow(t *testing.T) {
	f := newFixture(t)

	appt := f.schedule(t, "2024-06-03", "09:00", "Consulta veterinaria general")

	outcome, err := f.svc.ClientCancel(context.Background(), f.clientID, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CancelOutcomeDeleted, outcome)

	_, err = f.svc.Get(context.Background(), appt.ID)
	require.Error(t, err)
}

func TestClientCannotTouchOthersAppointments(t *testing.T) {
	f := newFixture(t)

	appt := f.schedule(t, "2024-06-03", "09:00", "Consulta veterinaria general")

	stranger := uuid.New()
	_, err := f.svc.ClientCancel(context.Background(), stranger, appt.ID)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindForbidden))

	_, err = f.svc.ClientReschedule(context.Background(), stranger, appt.ID, &model.RescheduleRequest{
		Date: "2024-06-04", StartTime: "10:00",
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindForbidden))
}

func TestCancelledSlotIsReusable(t *testing.T) {
	f := newFixture(t)

	appt := f.schedule(t, "2024-06-03", "09:00", "Consulta veterinaria general")
	_, err := f.svc.StaffCancel(context.Background(), appt.ID)
	require.NoError(t, err)

	// The cancelled row no longer blocks the slot.
	f.schedule(t, "2024-06-03", "09:00", "Consulta veterinaria general")
}
