package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/hackgods/consultation-scheduling/internal/report"
)

func dayStatsHandler(agg *report.Aggregator, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := parseDateParam(r, "date", loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
			return
		}
		stats, err := agg.DayStatistics(r.Context(), date)
		if err != nil {
			handleReportError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// dayReportHandler renders text unless format=json is asked for.
func dayReportHandler(agg *report.Aggregator, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := parseDateParam(r, "date", loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
			return
		}
		sum, err := agg.DaySummary(r.Context(), date)
		if err != nil {
			handleReportError(w, err)
			return
		}
		if r.URL.Query().Get("format") == "json" {
			writeJSON(w, http.StatusOK, sum)
			return
		}
		writeText(w, http.StatusOK, report.RenderDay(sum))
	}
}

func cancellationReportHandler(agg *report.Aggregator, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, err := parseDateParam(r, "start", loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start", err.Error())
			return
		}
		end, err := parseDateParam(r, "end", loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end", err.Error())
			return
		}
		sum, err := agg.Cancellations(r.Context(), start, end)
		if err != nil {
			handleReportError(w, err)
			return
		}
		if r.URL.Query().Get("format") == "json" {
			writeJSON(w, http.StatusOK, sum)
			return
		}
		writeText(w, http.StatusOK, report.RenderCancellations(sum))
	}
}

func handleReportError(w http.ResponseWriter, err error) {
	if errors.Is(err, report.ErrInvalidRange) {
		writeError(w, http.StatusBadRequest, "invalid_range", err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
}
