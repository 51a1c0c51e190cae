// Package client is a typed HTTP client for the scheduling API. Every command
// line tool talks to the server through it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hackgods/consultation-scheduling/internal/api"
	"github.com/hackgods/consultation-scheduling/internal/report"
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// APIError wraps non-2xx responses. Code is the API's machine-readable error
// name, e.g. "slot_conflict".
type APIError struct {
	StatusCode int
	Code       string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("api error: status=%d code=%s: %s", e.StatusCode, e.Code, e.Details)
	}
	return fmt.Sprintf("api error: status=%d code=%s", e.StatusCode, e.Code)
}

// IsCode reports whether err is an APIError carrying code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

type ListFilter struct {
	PatientID  string
	ProviderID string
	Status     string
	Date       *time.Time
}

func (c *Client) CreatePatient(ctx context.Context, req api.CreatePatientRequest) (api.PatientResponse, error) {
	var resp api.PatientResponse
	err := c.do(ctx, http.MethodPost, "patients", req, &resp)
	return resp, err
}

func (c *Client) ListPatients(ctx context.Context) ([]api.PatientResponse, error) {
	var resp []api.PatientResponse
	err := c.do(ctx, http.MethodGet, "patients", nil, &resp)
	return resp, err
}

func (c *Client) GetPatient(ctx context.Context, id string) (api.PatientResponse, error) {
	var resp api.PatientResponse
	err := c.do(ctx, http.MethodGet, "patients/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

func (c *Client) SetPatientActive(ctx context.Context, id string, active bool) (api.PatientResponse, error) {
	var resp api.PatientResponse
	err := c.do(ctx, http.MethodPost, "patients/"+url.PathEscape(id)+"/"+activation(active), nil, &resp)
	return resp, err
}

func (c *Client) CreateProvider(ctx context.Context, req api.CreateProviderRequest) (api.ProviderResponse, error) {
	var resp api.ProviderResponse
	err := c.do(ctx, http.MethodPost, "providers", req, &resp)
	return resp, err
}

func (c *Client) ListProviders(ctx context.Context, activeOnly bool) ([]api.ProviderResponse, error) {
	path := "providers"
	if activeOnly {
		path += "?active=true"
	}
	var resp []api.ProviderResponse
	err := c.do(ctx, http.MethodGet, path, nil, &resp)
	return resp, err
}

func (c *Client) GetProvider(ctx context.Context, id string) (api.ProviderResponse, error) {
	var resp api.ProviderResponse
	err := c.do(ctx, http.MethodGet, "providers/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

func (c *Client) SetProviderActive(ctx context.Context, id string, active bool) (api.ProviderResponse, error) {
	var resp api.ProviderResponse
	err := c.do(ctx, http.MethodPost, "providers/"+url.PathEscape(id)+"/"+activation(active), nil, &resp)
	return resp, err
}

func (c *Client) AvailableProviders(ctx context.Context, at time.Time) (api.AvailableProvidersResponse, error) {
	var resp api.AvailableProvidersResponse
	err := c.do(ctx, http.MethodGet, "providers/available?at="+url.QueryEscape(at.Format(time.RFC3339)), nil, &resp)
	return resp, err
}

// Schedule books an appointment. at is sent with its offset.
func (c *Client) Schedule(ctx context.Context, patientID, providerID string, at time.Time, notes string) (api.AppointmentResponse, error) {
	req := api.CreateAppointmentRequest{
		PatientID:   patientID,
		ProviderID:  providerID,
		ScheduledAt: at.Format(time.RFC3339),
		Notes:       notes,
	}
	var resp api.AppointmentResponse
	err := c.do(ctx, http.MethodPost, "appointments", req, &resp)
	return resp, err
}

func (c *Client) Complete(ctx context.Context, id, notes string) (api.AppointmentResponse, error) {
	var resp api.AppointmentResponse
	err := c.do(ctx, http.MethodPost, "appointments/"+url.PathEscape(id)+"/complete", api.CompleteAppointmentRequest{Notes: notes}, &resp)
	return resp, err
}

func (c *Client) Cancel(ctx context.Context, id, reason string) (api.AppointmentResponse, error) {
	var resp api.AppointmentResponse
	err := c.do(ctx, http.MethodPost, "appointments/"+url.PathEscape(id)+"/cancel", api.CancelAppointmentRequest{Reason: reason}, &resp)
	return resp, err
}

func (c *Client) UpdateNotes(ctx context.Context, id, notes string) (api.AppointmentResponse, error) {
	var resp api.AppointmentResponse
	err := c.do(ctx, http.MethodPatch, "appointments/"+url.PathEscape(id)+"/notes", api.UpdateNotesRequest{Notes: notes}, &resp)
	return resp, err
}

func (c *Client) GetAppointment(ctx context.Context, id string) (api.AppointmentResponse, error) {
	var resp api.AppointmentResponse
	err := c.do(ctx, http.MethodGet, "appointments/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// AppointmentSummary is the printable description of one appointment.
func (c *Client) AppointmentSummary(ctx context.Context, id string) (string, error) {
	return c.text(ctx, "appointments/"+url.PathEscape(id)+"?format=text")
}

func (c *Client) ListAppointments(ctx context.Context, f ListFilter) (api.AppointmentListResponse, error) {
	q := url.Values{}
	if f.PatientID != "" {
		q.Set("patient_id", f.PatientID)
	}
	if f.ProviderID != "" {
		q.Set("provider_id", f.ProviderID)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Date != nil {
		q.Set("date", f.Date.Format(api.DateLayout))
	}
	path := "appointments"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var resp api.AppointmentListResponse
	err := c.do(ctx, http.MethodGet, path, nil, &resp)
	return resp, err
}

func (c *Client) Upcoming(ctx context.Context) (api.AppointmentListResponse, error) {
	var resp api.AppointmentListResponse
	err := c.do(ctx, http.MethodGet, "appointments/upcoming", nil, &resp)
	return resp, err
}

func (c *Client) Overdue(ctx context.Context) (api.AppointmentListResponse, error) {
	var resp api.AppointmentListResponse
	err := c.do(ctx, http.MethodGet, "appointments/overdue", nil, &resp)
	return resp, err
}

// PendingToday lists today's appointments that are still scheduled.
func (c *Client) PendingToday(ctx context.Context) (api.AppointmentListResponse, error) {
	var resp api.AppointmentListResponse
	err := c.do(ctx, http.MethodGet, "appointments/pending-today", nil, &resp)
	return resp, err
}

func (c *Client) SlotFree(ctx context.Context, providerID string, at time.Time) (bool, error) {
	q := url.Values{}
	q.Set("provider_id", providerID)
	q.Set("at", at.Format(time.RFC3339))
	var resp api.SlotResponse
	if err := c.do(ctx, http.MethodGet, "slots/free?"+q.Encode(), nil, &resp); err != nil {
		return false, err
	}
	return resp.Free, nil
}

func (c *Client) DayStats(ctx context.Context, date *time.Time) (report.DayStats, error) {
	var resp report.DayStats
	err := c.do(ctx, http.MethodGet, "reports/day/stats"+dateQuery("date", date), nil, &resp)
	return resp, err
}

func (c *Client) DayReport(ctx context.Context, date *time.Time) (string, error) {
	return c.text(ctx, "reports/day"+dateQuery("date", date))
}

func (c *Client) DaySummary(ctx context.Context, date *time.Time) (report.DaySummary, error) {
	q := dateQuery("date", date)
	if q == "" {
		q = "?format=json"
	} else {
		q += "&format=json"
	}
	var resp report.DaySummary
	err := c.do(ctx, http.MethodGet, "reports/day"+q, nil, &resp)
	return resp, err
}

func (c *Client) CancellationReport(ctx context.Context, start, end *time.Time) (string, error) {
	return c.text(ctx, "reports/cancellations"+rangeQuery(start, end, false))
}

func (c *Client) Cancellations(ctx context.Context, start, end *time.Time) (report.CancellationSummary, error) {
	var resp report.CancellationSummary
	err := c.do(ctx, http.MethodGet, "reports/cancellations"+rangeQuery(start, end, true), nil, &resp)
	return resp, err
}

func (c *Client) Ready(ctx context.Context) (api.ReadinessResponse, error) {
	var resp api.ReadinessResponse
	err := c.do(ctx, http.MethodGet, "health/ready", nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	resp, err := c.send(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) text(ctx context.Context, endpoint string) (string, error) {
	resp, err := c.send(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	return string(b), err
}

func (c *Client) send(ctx context.Context, method, endpoint string, body any) (*http.Response, error) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	target := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, &buf)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Details: strings.TrimSpace(string(b))}
		var er api.ErrorResponse
		if json.Unmarshal(b, &er) == nil && er.Error != "" {
			apiErr.Code = er.Error
			apiErr.Details = er.Details
		}
		return nil, apiErr
	}
	return resp, nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}

func activation(active bool) string {
	if active {
		return "activate"
	}
	return "deactivate"
}

func dateQuery(name string, date *time.Time) string {
	if date == nil {
		return ""
	}
	return "?" + name + "=" + date.Format(api.DateLayout)
}

func rangeQuery(start, end *time.Time, asJSON bool) string {
	q := url.Values{}
	if start != nil {
		q.Set("start", start.Format(api.DateLayout))
	}
	if end != nil {
		q.Set("end", end.Format(api.DateLayout))
	}
	if asJSON {
		q.Set("format", "json")
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}
