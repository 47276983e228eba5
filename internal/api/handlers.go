package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/Airo-DDS/laine-sub000/internal/schedule"
)

// Tool endpoints (voice platform)

func checkAvailabilityHandler(svc *schedule.Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := readToolRequest(w, r)
		if !ok {
			return
		}

		start, err := req.timeArg("startDate", loc)
		if err != nil {
			writeToolError(w, http.StatusBadRequest, req.ToolCallID, err.Error())
			return
		}
		end, err := req.timeArg("endDate", loc)
		if err != nil {
			writeToolError(w, http.StatusBadRequest, req.ToolCallID, err.Error())
			return
		}

		avail, err := svc.CheckAvailability(r.Context(), schedule.AvailabilityWindow{Start: start, End: end})
		if err != nil {
			handleToolError(w, r, req.ToolCallID, err)
			return
		}

		writeToolResult(w, req.ToolCallID, svc.Formatter().Speak(avail))
	}
}

func bookAppointmentHandler(svc *schedule.Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := readToolRequest(w, r)
		if !ok {
			return
		}

		start, err := req.timeArg("start", loc)
		if err != nil {
			writeToolError(w, http.StatusBadRequest, req.ToolCallID, err.Error())
			return
		}

		result, err := svc.Book(r.Context(), schedule.BookingRequest{
			StartAt:           start,
			Name:              req.stringArg("name"),
			Email:             req.stringArg("email"),
			SMSReminderNumber: req.stringArg("smsReminderNumber"),
		})
		if err != nil {
			handleToolError(w, r, req.ToolCallID, err)
			return
		}

		writeToolResult(w, req.ToolCallID, result.Message)
	}
}

func readToolRequest(w http.ResponseWriter, r *http.Request) (ToolRequest, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeToolError(w, http.StatusBadRequest, "", "could not read request body")
		return ToolRequest{}, false
	}

	req, err := normalizeToolRequest(body)
	if err != nil {
		writeToolError(w, http.StatusBadRequest, "", "could not parse tool request")
		return ToolRequest{}, false
	}
	return req, true
}

// handleToolError maps a scheduling error onto the tool response contract:
// policy violations stay 200 because the assistant must speak the reason,
// conflicts are 409, dependency trouble 503, everything else 500. The
// caller-safe message goes on the wire; full detail goes to the log.
func handleToolError(w http.ResponseWriter, r *http.Request, toolCallID string, err error) {
	logServerError(r, err)

	switch schedule.KindOf(err) {
	case schedule.KindValidation:
		writeToolError(w, http.StatusBadRequest, toolCallID, schedule.UserMessage(err))
	case schedule.KindPolicy:
		writeToolError(w, http.StatusOK, toolCallID, schedule.UserMessage(err))
	case schedule.KindConflict:
		writeToolError(w, http.StatusConflict, toolCallID, schedule.UserMessage(err))
	case schedule.KindUnavailable:
		writeToolError(w, http.StatusServiceUnavailable, toolCallID, schedule.UserMessage(err))
	default:
		writeToolError(w, http.StatusInternalServerError, toolCallID, schedule.UserMessage(err))
	}
}

// Staff endpoints (dashboard)

func listAppointmentsHandler(svc *schedule.Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to, err := rangeParams(r, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_range", err.Error())
			return
		}

		appts, err := svc.ListAppointments(r.Context(), from, to)
		if err != nil {
			handleStaffError(w, r, err)
			return
		}

		resp := make([]AppointmentResponse, len(appts))
		for i, a := range appts {
			resp[i] = toAppointmentResponse(a)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func rangeParams(r *http.Request, loc *time.Location) (time.Time, time.Time, error) {
	parse := func(s string, def time.Time) (time.Time, error) {
		if s == "" {
			return def, nil
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t, nil
		}
		return time.ParseInLocation("2006-01-02", s, loc)
	}

	now := time.Now()
	from, err := parse(r.URL.Query().Get("start"), now.AddDate(0, -1, 0))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("start must be an ISO 8601 timestamp or YYYY-MM-DD date")
	}
	to, err := parse(r.URL.Query().Get("end"), now.AddDate(0, 3, 0))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("end must be an ISO 8601 timestamp or YYYY-MM-DD date")
	}
	return from, to, nil
}

func transitionAppointmentHandler(svc *schedule.Service, to schedule.AppointmentStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.TransitionAppointment(r.Context(), id, to)
		if err != nil {
			handleStaffError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt))
	}
}

func deleteAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		if err := svc.DeleteAppointment(r.Context(), id); err != nil {
			handleStaffError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listPatientsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patients, err := svc.ListPatients(r.Context())
		if err != nil {
			handleStaffError(w, r, err)
			return
		}

		resp := make([]PatientResponse, len(patients))
		for i, p := range patients {
			resp[i] = toPatientResponse(p)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createPatientHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		p := schedule.Patient{FirstName: req.FirstName, LastName: req.LastName}
		if req.Email != "" {
			p.Email = &req.Email
		}
		if req.Phone != "" {
			p.Phone = &req.Phone
		}

		created, err := svc.CreatePatient(r.Context(), p)
		if err != nil {
			handleStaffError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPatientResponse(*created))
	}
}

func handleStaffError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, schedule.ErrAppointmentNotFound) {
		writeError(w, http.StatusNotFound, "appointment_not_found", "no appointment with that id")
		return
	}
	if errors.Is(err, schedule.ErrPatientNotFound) {
		writeError(w, http.StatusNotFound, "patient_not_found", "no patient with that id")
		return
	}

	logServerError(r, err)

	switch schedule.KindOf(err) {
	case schedule.KindValidation:
		writeError(w, http.StatusBadRequest, "validation_error", schedule.UserMessage(err))
	case schedule.KindPolicy:
		writeError(w, http.StatusUnprocessableEntity, "policy_violation", schedule.UserMessage(err))
	case schedule.KindConflict:
		writeError(w, http.StatusConflict, "conflict", schedule.UserMessage(err))
	case schedule.KindUnavailable:
		writeError(w, http.StatusServiceUnavailable, "dependency_unavailable", schedule.UserMessage(err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", schedule.UserMessage(err))
	}
}

func logServerError(r *http.Request, err error) {
	switch schedule.KindOf(err) {
	case schedule.KindValidation, schedule.KindPolicy, schedule.KindConflict:
		hlog.FromRequest(r).Debug().Err(err).Msg("request rejected")
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
	}
}
