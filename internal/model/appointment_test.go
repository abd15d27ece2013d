package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinuteOf(t *testing.T) {
	assert.Equal(t, 480, MinuteOf("08:00"))
	assert.Equal(t, 1139, MinuteOf("18:59"))
	assert.Equal(t, 0, MinuteOf("00:00"))

	assert.Equal(t, -1, MinuteOf(""))
	assert.Equal(t, -1, MinuteOf("8am"))
	assert.Equal(t, -1, MinuteOf("25:00"))
}

func TestDurationFor(t *testing.T) {
	assert.Equal(t, 60, DurationFor("Peluquería y cuidado estético"))
	assert.Equal(t, 50, DurationFor("Odontología veterinaria"))
	assert.Equal(t, 60, DurationFor("Visita a domicilio"))
	assert.Equal(t, DefaultServiceDuration, DurationFor("Consulta veterinaria general"))
	assert.Equal(t, DefaultServiceDuration, DurationFor("algo desconocido"))
}

func TestEndMinute(t *testing.T) {
	appt := &Appointment{StartTime: "09:00", DurationMinutes: 50}
	assert.Equal(t, 590, appt.EndMinute())
}
