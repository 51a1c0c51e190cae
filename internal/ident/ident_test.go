package ident

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterIsSequential(t *testing.T) {
	c := NewCounter(KindAppointment)
	ctx := context.Background()

	for _, want := range []string{"CON-001", "CON-002", "CON-003"} {
		got, err := c.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	c.Reset()
	got, err := c.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CON-001", got)
}

func TestFormatPadsToThreeDigits(t *testing.T) {
	assert.Equal(t, "PAC-007", Format(KindPatient, 7))
	assert.Equal(t, "MED-1234", Format(KindProvider, 1234))
}

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		id   string
		want bool
	}{
		{"canonical", KindAppointment, "CON-001", true},
		{"lower case", KindAppointment, "con-012", true},
		{"surrounding space", KindPatient, "  PAC-003 ", true},
		{"wide number", KindProvider, "MED-1000", true},
		{"wrong kind", KindPatient, "CON-001", false},
		{"too short", KindAppointment, "CON-01", false},
		{"zero", KindAppointment, "CON-000", false},
		{"empty", KindAppointment, "", false},
		{"garbage", KindAppointment, "appointment", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.kind, tt.id))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "CON-001", Normalize(" con-001\n"))
}
