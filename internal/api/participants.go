package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/consultation-scheduling/internal/appointment"
	"github.com/hackgods/consultation-scheduling/internal/participant"
)

func createPatientHandler(dir *participant.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePatientRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		p, err := dir.AddPatient(r.Context(), participant.NewPatient{Name: req.Name, Email: req.Email, Phone: req.Phone})
		if err != nil {
			handleParticipantError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPatientResponse(p))
	}
}

func listPatientsHandler(dir *participant.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patients := dir.ListPatients()
		out := make([]PatientResponse, 0, len(patients))
		for _, p := range patients {
			out = append(out, toPatientResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getPatientHandler(dir *participant.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := dir.Patient(chi.URLParam(r, "id"))
		if err != nil {
			handleParticipantError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func setPatientActiveHandler(dir *participant.Directory, active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := dir.SetPatientActive(chi.URLParam(r, "id"), active)
		if err != nil {
			handleParticipantError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func patientAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appts, err := svc.ListByPatient(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleQueryError(w, err)
			return
		}
		writeList(w, svc, appts)
	}
}

func createProviderHandler(dir *participant.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateProviderRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		var specialty participant.Specialty
		if req.Specialty != "" {
			s, err := participant.ParseSpecialty(req.Specialty)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_specialty", err.Error())
				return
			}
			specialty = s
		}

		p, err := dir.AddProvider(r.Context(), participant.NewProvider{
			Name:      req.Name,
			License:   req.License,
			Specialty: specialty,
			Phone:     req.Phone,
		})
		if err != nil {
			handleParticipantError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toProviderResponse(p))
	}
}

func listProvidersHandler(dir *participant.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))
		providers := dir.ListProviders(activeOnly)
		out := make([]ProviderResponse, 0, len(providers))
		for _, p := range providers {
			out = append(out, toProviderResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getProviderHandler(dir *participant.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := dir.Provider(chi.URLParam(r, "id"))
		if err != nil {
			handleParticipantError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProviderResponse(p))
	}
}

func setProviderActiveHandler(dir *participant.Directory, active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := dir.SetProviderActive(chi.URLParam(r, "id"), active)
		if err != nil {
			handleParticipantError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProviderResponse(p))
	}
}

func providerAppointmentsHandler(svc *appointment.Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := parseDateParam(r, "date", loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
			return
		}
		appts, err := svc.ListByProvider(r.Context(), chi.URLParam(r, "id"), date)
		if err != nil {
			handleQueryError(w, err)
			return
		}
		writeList(w, svc, appts)
	}
}

func availableProvidersHandler(svc *appointment.Service, dir *participant.Directory, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		at, err := ParseTime(r.URL.Query().Get("at"), loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_at", err.Error())
			return
		}

		providers := dir.ListProviders(true)
		byID := make(map[string]participant.Provider, len(providers))
		candidates := make([]string, 0, len(providers))
		for _, p := range providers {
			byID[p.ID] = p
			candidates = append(candidates, p.ID)
		}

		free, err := svc.AvailableProviders(r.Context(), candidates, at)
		if err != nil {
			handleQueryError(w, err)
			return
		}

		resp := AvailableProvidersResponse{At: at.Truncate(time.Minute), Providers: make([]ProviderResponse, 0, len(free))}
		for _, id := range free {
			resp.Providers = append(resp.Providers, toProviderResponse(byID[id]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleParticipantError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, participant.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, participant.ErrProviderNotFound):
		writeError(w, http.StatusNotFound, "provider_not_found", err.Error())
	case errors.Is(err, participant.ErrInvalidRecord):
		writeError(w, http.StatusBadRequest, "invalid_record", err.Error())
	case errors.Is(err, participant.ErrDuplicateLicense):
		writeError(w, http.StatusConflict, "duplicate_license", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
