package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amount(v float64) *float64 { return &v }

func TestBooking_TermType(t *testing.T) {
	cases := []struct {
		name    string
		booking Booking
		want    string
	}{
		{"first term only", Booking{Term1: amount(500)}, "Term 1"},
		{"second term only", Booking{Term2: amount(2000)}, "Term 2"},
		{"third term only", Booking{Term3: amount(10)}, "Term 3"},
		{"two terms", Booking{Term1: amount(500), Term2: amount(300)}, "Multiple Terms"},
		{"no terms", Booking{}, "N/A"},
		{"zero term is absent", Booking{Term1: amount(0)}, "N/A"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.booking.TermType())
		})
	}
}

func TestBooking_ReceivedAndPending(t *testing.T) {
	b := Booking{TotalAmount: 1000, Term1: amount(0.1), Term3: amount(0.2)}
	assert.Equal(t, "0.3", b.Received().String())
	assert.Equal(t, "999.7", b.Pending().String())

	over := Booking{TotalAmount: 100, Term1: amount(150)}
	assert.Equal(t, "-50", over.Pending().String())

	empty := Booking{TotalAmount: 42}
	assert.True(t, empty.Received().IsZero())
	assert.Equal(t, "42", empty.Pending().String())
}

func TestServices_UnmarshalJSON(t *testing.T) {
	var b Booking

	require.NoError(t, json.Unmarshal([]byte(`{"services":["GST Registration","MSME Certificate"]}`), &b))
	assert.Equal(t, Services{"GST Registration", "MSME Certificate"}, b.Services)

	b = Booking{}
	require.NoError(t, json.Unmarshal([]byte(`{"services":"PMEGP, CGTMSE"}`), &b))
	assert.Equal(t, Services{"PMEGP, CGTMSE"}, b.Services)

	b = Booking{}
	require.NoError(t, json.Unmarshal([]byte(`{"services":null}`), &b))
	assert.Nil(t, b.Services)

	b = Booking{}
	assert.Error(t, json.Unmarshal([]byte(`{"services":12}`), &b))
}

func TestIsBookingID(t *testing.T) {
	assert.True(t, IsBookingID(NewBookingID()))
	assert.True(t, IsBookingID("65F1A2B3C4D5E6F708192A3B"))
	assert.False(t, IsBookingID("65f1a2b3c4d5e6f708192a3"))
	assert.False(t, IsBookingID("Acme Industries Pvt Ltd!"))
}

func TestUserRole_Privileges(t *testing.T) {
	for _, r := range []UserRole{RoleAdmin, RoleSeniorAdmin, RoleDev, RoleSrDev} {
		assert.True(t, r.IsPrivileged(), string(r))
	}
	assert.False(t, RoleBDM.IsPrivileged())
	assert.False(t, RoleHR.IsPrivileged())

	assert.True(t, RoleSrDev.CanExport())
	assert.False(t, RoleAdmin.CanExport())
	assert.False(t, RoleDev.CanExport())

	assert.True(t, RoleSeniorAdmin.Valid())
	assert.False(t, UserRole("Admin").Valid())
}

func TestParseBookingStatus(t *testing.T) {
	s, err := ParseBookingStatus(" In Progress ")
	require.NoError(t, err)
	assert.Equal(t, BookingInProgress, s)

	s, err = ParseBookingStatus("completed")
	require.NoError(t, err)
	assert.Equal(t, BookingCompleted, s)

	_, err = ParseBookingStatus("confirmed")
	assert.Error(t, err)
}
