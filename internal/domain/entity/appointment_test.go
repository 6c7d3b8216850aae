package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppointmentStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to AppointmentStatus
		allowed  bool
	}{
		{AppointmentStatusScheduled, AppointmentStatusApproved, true},
		{AppointmentStatusScheduled, AppointmentStatusRejected, true},
		{AppointmentStatusScheduled, AppointmentStatusCancelled, true},
		{AppointmentStatusApproved, AppointmentStatusCancelled, true},
		{AppointmentStatusRejected, AppointmentStatusApproved, true},
		{AppointmentStatusApproved, AppointmentStatusScheduled, false},
		{AppointmentStatusCancelled, AppointmentStatusApproved, false},
		{AppointmentStatusCancelled, AppointmentStatusScheduled, false},
		{AppointmentStatusCancelled, AppointmentStatusCancelled, true},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestAppointmentStatusActive(t *testing.T) {
	assert.True(t, AppointmentStatusScheduled.IsActive())
	assert.True(t, AppointmentStatusRejected.IsActive())
	assert.False(t, AppointmentStatusCancelled.IsActive())
	assert.False(t, AppointmentStatus("pending").IsValid())
}

func TestSlotSet(t *testing.T) {
	key := SlotKey{Date: NewDate(2025, 6, 2), Time: NewClockTime(10, 0)}
	set := NewSlotSet(key)

	assert.True(t, set.Has(key))
	assert.False(t, set.Has(SlotKey{Date: key.Date, Time: NewClockTime(10, 30)}))

	var empty SlotSet
	assert.False(t, empty.Has(key))
}
