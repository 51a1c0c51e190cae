// Package participant keeps the patient and provider records the scheduling
// core books against. The core only reads eligibility and display names from
// here, always live.
package participant

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hackgods/consultation-scheduling/internal/ident"
)

var (
	ErrPatientNotFound  = errors.New("patient not found")
	ErrProviderNotFound = errors.New("provider not found")
	ErrInvalidRecord    = errors.New("invalid participant record")
	ErrDuplicateLicense = errors.New("provider license already registered")
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type Patient struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Active    bool
	CreatedAt time.Time
}

type Provider struct {
	ID        string
	Name      string
	License   string
	Specialty Specialty
	Phone     string
	Active    bool
	CreatedAt time.Time
}

type NewPatient struct {
	Name  string
	Email string
	Phone string
}

type NewProvider struct {
	Name      string
	License   string
	Specialty Specialty
	Phone     string
}

type Directory struct {
	mu        sync.RWMutex
	patients  map[string]*Patient
	providers map[string]*Provider

	patientIDs  ident.Sequence
	providerIDs ident.Sequence

	Now func() time.Time
}

func NewDirectory() *Directory {
	return &Directory{
		patients:    make(map[string]*Patient),
		providers:   make(map[string]*Provider),
		patientIDs:  ident.NewCounter(ident.KindPatient),
		providerIDs: ident.NewCounter(ident.KindProvider),
		Now:         time.Now,
	}
}

func (d *Directory) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Directory) AddPatient(ctx context.Context, in NewPatient) (Patient, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Patient{}, fmt.Errorf("%w: name is required", ErrInvalidRecord)
	}
	email := strings.TrimSpace(in.Email)
	if email != "" && !emailPattern.MatchString(email) {
		return Patient{}, fmt.Errorf("%w: malformed email %q", ErrInvalidRecord, email)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	id, err := d.patientIDs.Next(ctx)
	if err != nil {
		return Patient{}, err
	}
	p := &Patient{
		ID:        id,
		Name:      name,
		Email:     email,
		Phone:     strings.TrimSpace(in.Phone),
		Active:    true,
		CreatedAt: d.now(),
	}
	d.patients[id] = p
	return *p, nil
}

func (d *Directory) AddProvider(ctx context.Context, in NewProvider) (Provider, error) {
	name := strings.TrimSpace(in.Name)
	license := strings.ToUpper(strings.TrimSpace(in.License))
	if name == "" {
		return Provider{}, fmt.Errorf("%w: name is required", ErrInvalidRecord)
	}
	if license == "" {
		return Provider{}, fmt.Errorf("%w: license is required", ErrInvalidRecord)
	}
	specialty := in.Specialty
	if specialty == "" {
		specialty = GeneralPractice
	}
	if _, err := ParseSpecialty(string(specialty)); err != nil {
		return Provider{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, existing := range d.providers {
		if existing.License == license {
			return Provider{}, ErrDuplicateLicense
		}
	}

	id, err := d.providerIDs.Next(ctx)
	if err != nil {
		return Provider{}, err
	}
	p := &Provider{
		ID:        id,
		Name:      name,
		License:   license,
		Specialty: specialty,
		Phone:     strings.TrimSpace(in.Phone),
		Active:    true,
		CreatedAt: d.now(),
	}
	d.providers[id] = p
	return *p, nil
}

func (d *Directory) Patient(id string) (Patient, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.patients[ident.Normalize(id)]
	if !ok {
		return Patient{}, ErrPatientNotFound
	}
	return *p, nil
}

func (d *Directory) Provider(id string) (Provider, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.providers[ident.Normalize(id)]
	if !ok {
		return Provider{}, ErrProviderNotFound
	}
	return *p, nil
}

func (d *Directory) SetPatientActive(id string, active bool) (Patient, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.patients[ident.Normalize(id)]
	if !ok {
		return Patient{}, ErrPatientNotFound
	}
	p.Active = active
	return *p, nil
}

func (d *Directory) SetProviderActive(id string, active bool) (Provider, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.providers[ident.Normalize(id)]
	if !ok {
		return Provider{}, ErrProviderNotFound
	}
	p.Active = active
	return *p, nil
}

// ListPatients returns every patient ordered by name.
func (d *Directory) ListPatients() []Patient {
	d.mu.RLock()
	out := make([]Patient, 0, len(d.patients))
	for _, p := range d.patients {
		out = append(out, *p)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ListProviders returns providers ordered by name, optionally only the active ones.
func (d *Directory) ListProviders(activeOnly bool) []Provider {
	d.mu.RLock()
	out := make([]Provider, 0, len(d.providers))
	for _, p := range d.providers {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, *p)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Patients is the eligibility and naming view of patients.
func (d *Directory) Patients() PatientView { return PatientView{d: d} }

// Providers is the eligibility and naming view of providers.
func (d *Directory) Providers() ProviderView { return ProviderView{d: d} }

type PatientView struct{ d *Directory }

func (v PatientView) IsActive(id string) bool {
	p, err := v.d.Patient(id)
	return err == nil && p.Active
}

// Name falls back to the identifier for unknown patients.
func (v PatientView) Name(id string) string {
	p, err := v.d.Patient(id)
	if err != nil {
		return id
	}
	return p.Name
}

type ProviderView struct{ d *Directory }

func (v ProviderView) IsActive(id string) bool {
	p, err := v.d.Provider(id)
	return err == nil && p.Active
}

// Name falls back to the identifier for unknown providers.
func (v ProviderView) Name(id string) string {
	p, err := v.d.Provider(id)
	if err != nil {
		return id
	}
	return p.Name
}

// Specialty returns the provider's specialty label, empty when unknown.
func (v ProviderView) Specialty(id string) string {
	p, err := v.d.Provider(id)
	if err != nil {
		return ""
	}
	return p.Specialty.Label()
}
