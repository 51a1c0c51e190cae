package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/consultation-scheduling/internal/appointment"
	"github.com/hackgods/consultation-scheduling/internal/participant"
)

func createAppointmentHandler(svc *appointment.Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		at, err := ParseTime(req.ScheduledAt, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_scheduled_at", err.Error())
			return
		}

		appt, err := svc.Schedule(r.Context(), appointment.ScheduleRequest{
			PatientID:   req.PatientID,
			ProviderID:  req.ProviderID,
			ScheduledAt: at,
			Notes:       req.Notes,
		})
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(*appt, svc.Clock(), svc.UpcomingWindow))
	}
}

// listAppointmentsHandler serves GET /appointments. The first filter present
// wins: patient_id, provider_id (with optional date), status, date. Without
// filters every appointment is returned.
func listAppointmentsHandler(svc *appointment.Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		date, err := parseDateParam(r, "date", loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
			return
		}

		var appts []appointment.Appointment
		switch {
		case q.Get("patient_id") != "":
			appts, err = svc.ListByPatient(r.Context(), q.Get("patient_id"))
		case q.Get("provider_id") != "":
			appts, err = svc.ListByProvider(r.Context(), q.Get("provider_id"), date)
		case q.Get("status") != "":
			status, perr := appointment.ParseStatus(q.Get("status"))
			if perr != nil {
				writeError(w, http.StatusBadRequest, "invalid_status", perr.Error())
				return
			}
			appts, err = svc.ListByStatus(r.Context(), status)
		case date != nil:
			appts, err = svc.ListByDate(r.Context(), *date)
		default:
			appts, err = svc.ListAll(r.Context())
		}
		if err != nil {
			handleQueryError(w, err)
			return
		}

		writeList(w, svc, appts)
	}
}

func upcomingHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appts, err := svc.ListUpcoming(r.Context())
		if err != nil {
			handleQueryError(w, err)
			return
		}
		writeList(w, svc, appts)
	}
}

func overdueHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appts, err := svc.ListOverdue(r.Context())
		if err != nil {
			handleQueryError(w, err)
			return
		}
		writeList(w, svc, appts)
	}
}

func pendingTodayHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appts, err := svc.ListPendingToday(r.Context())
		if err != nil {
			handleQueryError(w, err)
			return
		}
		writeList(w, svc, appts)
	}
}

// getAppointmentHandler answers with JSON, or with the printable summary when
// format=text.
func getAppointmentHandler(svc *appointment.Service, dir *participant.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appt, err := svc.GetAppointment(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleTransitionError(w, err)
			return
		}

		if r.URL.Query().Get("format") == "text" {
			text := appointment.Summary(*appt, dir.Patients().Name(appt.PatientID), dir.Providers().Name(appt.ProviderID))
			writeText(w, http.StatusOK, text)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt, svc.Clock(), svc.UpcomingWindow))
	}
}

func completeAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CompleteAppointmentRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
				return
			}
		}

		appt, err := svc.Complete(r.Context(), chi.URLParam(r, "id"), req.Notes)
		if err != nil {
			handleTransitionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt, svc.Clock(), svc.UpcomingWindow))
	}
}

func cancelAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CancelAppointmentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.Cancel(r.Context(), chi.URLParam(r, "id"), req.Reason)
		if err != nil {
			handleTransitionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt, svc.Clock(), svc.UpcomingWindow))
	}
}

func updateNotesHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateNotesRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.UpdateNotes(r.Context(), chi.URLParam(r, "id"), req.Notes)
		if err != nil {
			handleTransitionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt, svc.Clock(), svc.UpcomingWindow))
	}
}

func slotFreeHandler(svc *appointment.Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID := strings.TrimSpace(r.URL.Query().Get("provider_id"))
		at, err := ParseTime(r.URL.Query().Get("at"), loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_at", err.Error())
			return
		}

		free, err := svc.IsSlotFree(r.Context(), providerID, at)
		if err != nil {
			handleQueryError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, SlotResponse{
			ProviderID: strings.ToUpper(providerID),
			At:         at.Truncate(time.Minute),
			Free:       free,
		})
	}
}

func writeList(w http.ResponseWriter, svc *appointment.Service, appts []appointment.Appointment) {
	now := svc.Clock()
	resp := AppointmentListResponse{Items: make([]AppointmentResponse, 0, len(appts)), Count: len(appts)}
	for _, a := range appts {
		resp.Items = append(resp.Items, toAppointmentResponse(a, now, svc.UpcomingWindow))
	}
	writeJSON(w, http.StatusOK, resp)
}

func handleScheduleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointment.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, appointment.ErrIneligiblePatient):
		writeError(w, http.StatusUnprocessableEntity, "ineligible_patient", err.Error())
	case errors.Is(err, appointment.ErrIneligibleProvider):
		writeError(w, http.StatusUnprocessableEntity, "ineligible_provider", err.Error())
	case errors.Is(err, appointment.ErrPastDateRejected):
		writeError(w, http.StatusUnprocessableEntity, "past_date_rejected", err.Error())
	case errors.Is(err, appointment.ErrSlotConflict):
		writeError(w, http.StatusConflict, "slot_conflict", err.Error())
	case errors.Is(err, appointment.ErrProviderBusy):
		writeError(w, http.StatusConflict, "provider_busy", "provider schedule is being changed, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointment.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, appointment.ErrPastAppointmentLock):
		writeError(w, http.StatusConflict, "past_appointment_lock", err.Error())
	case errors.Is(err, appointment.ErrReasonRequired):
		writeError(w, http.StatusUnprocessableEntity, "reason_required", err.Error())
	case errors.Is(err, appointment.ErrProviderBusy):
		writeError(w, http.StatusConflict, "provider_busy", "provider schedule is being changed, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleQueryError(w http.ResponseWriter, err error) {
	if errors.Is(err, appointment.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
}
