package participant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPatientAssignsSequentialIDs(t *testing.T) {
	d := NewDirectory()
	ctx := context.Background()

	first, err := d.AddPatient(ctx, NewPatient{Name: "Maria Silva", Email: "maria@example.com"})
	require.NoError(t, err)
	second, err := d.AddPatient(ctx, NewPatient{Name: "Joao Pedro"})
	require.NoError(t, err)

	assert.Equal(t, "PAC-001", first.ID)
	assert.Equal(t, "PAC-002", second.ID)
	assert.True(t, first.Active)
}

func TestAddPatientValidation(t *testing.T) {
	d := NewDirectory()
	ctx := context.Background()

	_, err := d.AddPatient(ctx, NewPatient{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = d.AddPatient(ctx, NewPatient{Name: "Ana", Email: "not-an-email"})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestAddProviderRejectsDuplicateLicense(t *testing.T) {
	d := NewDirectory()
	ctx := context.Background()

	p, err := d.AddProvider(ctx, NewProvider{Name: "Dr. Carlos", License: "12345-sc", Specialty: Cardiology})
	require.NoError(t, err)
	assert.Equal(t, "MED-001", p.ID)
	assert.Equal(t, "12345-SC", p.License)

	_, err = d.AddProvider(ctx, NewProvider{Name: "Dr. Other", License: "12345-SC"})
	assert.ErrorIs(t, err, ErrDuplicateLicense)

	_, err = d.AddProvider(ctx, NewProvider{Name: "Dr. Nobody", License: "999", Specialty: "astrology"})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestViewsReadEligibilityLive(t *testing.T) {
	d := NewDirectory()
	ctx := context.Background()

	pat, err := d.AddPatient(ctx, NewPatient{Name: "Ana Costa"})
	require.NoError(t, err)
	prov, err := d.AddProvider(ctx, NewProvider{Name: "Dra. Juliana", License: "23456-SC", Specialty: Pediatrics})
	require.NoError(t, err)

	patients, providers := d.Patients(), d.Providers()
	assert.True(t, patients.IsActive("pac-001"))
	assert.True(t, providers.IsActive(prov.ID))
	assert.Equal(t, "Ana Costa", patients.Name(pat.ID))
	assert.Equal(t, "Pediatrics", providers.Specialty(prov.ID))

	_, err = d.SetPatientActive(pat.ID, false)
	require.NoError(t, err)
	assert.False(t, patients.IsActive(pat.ID))

	assert.False(t, providers.IsActive("MED-999"))
	assert.Equal(t, "MED-999", providers.Name("MED-999"))
}

func TestListProvidersActiveOnly(t *testing.T) {
	d := NewDirectory()
	ctx := context.Background()

	b, _ := d.AddProvider(ctx, NewProvider{Name: "B Provider", License: "1"})
	_, _ = d.AddProvider(ctx, NewProvider{Name: "A Provider", License: "2"})
	_, err := d.SetProviderActive(b.ID, false)
	require.NoError(t, err)

	all := d.ListProviders(false)
	require.Len(t, all, 2)
	assert.Equal(t, "A Provider", all[0].Name)

	active := d.ListProviders(true)
	require.Len(t, active, 1)
	assert.Equal(t, "A Provider", active[0].Name)
}

func TestSpecialtyLabelsAreTotal(t *testing.T) {
	for _, s := range Specialties {
		assert.NotEmpty(t, s.Label())
		parsed, err := ParseSpecialty(s.Label())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
}
