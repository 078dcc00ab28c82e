// Package client provides a typed HTTP client for the patient records API.
package client

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// Patient mirrors the API's patient representation.
type Patient struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Diagnosis string    `json:"diagnosis"`
	Operation string    `json:"operation"`
	Details   string    `json:"details"`
	Picture   *string   `json:"picture"`
	Relatives []string  `json:"relatives"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Stats mirrors the API's population summary.
type Stats struct {
	TotalPatients  int `json:"totalPatients"`
	AverageAge     int `json:"averageAge"`
	TotalRelatives int `json:"totalRelatives"`
}

// Pagination mirrors the API's page metadata.
type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalResults int `json:"totalResults"`
	Limit        int `json:"limit"`
}

// PatientPage is one page of list results.
type PatientPage struct {
	Data       []Patient  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// APIError carries the API's error message and HTTP status.
type APIError struct {
	StatusCode int
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// ListOptions selects, filters, and orders a list request. Zero values are
// omitted from the query.
type ListOptions struct {
	Search    string
	Diagnosis string
	MinAge    int
	MaxAge    int
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

func (o ListOptions) query() map[string]string {
	q := make(map[string]string)
	if o.Search != "" {
		q["search"] = o.Search
	}
	if o.Diagnosis != "" {
		q["diagnosis"] = o.Diagnosis
	}
	if o.MinAge > 0 {
		q["minAge"] = strconv.Itoa(o.MinAge)
	}
	if o.MaxAge > 0 {
		q["maxAge"] = strconv.Itoa(o.MaxAge)
	}
	if o.SortBy != "" {
		q["sortBy"] = o.SortBy
	}
	if o.SortOrder != "" {
		q["sortOrder"] = o.SortOrder
	}
	if o.Page > 0 {
		q["page"] = strconv.Itoa(o.Page)
	}
	if o.Limit > 0 {
		q["limit"] = strconv.Itoa(o.Limit)
	}
	return q
}

// PatientInput carries the form fields of a create or update request. For
// updates, empty fields are omitted and the stored values kept.
type PatientInput struct {
	Name      string
	Age       string
	Diagnosis string
	Operation string
	Details   string
	Relatives string
}

func (in PatientInput) formData() map[string]string {
	fields := map[string]string{
		"name":      in.Name,
		"age":       in.Age,
		"diagnosis": in.Diagnosis,
		"operation": in.Operation,
		"details":   in.Details,
		"relatives": in.Relatives,
	}
	for k, v := range fields {
		if v == "" {
			delete(fields, k)
		}
	}
	return fields
}

// Client talks to a patient records server.
type Client struct {
	http *resty.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets a bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.http.SetAuthToken(token) }
}

// WithTimeout overrides the default 30s request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

func New(baseURL string, opts ...Option) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json")

	c := &Client{http: httpClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// check converts a non-2xx response into an APIError.
func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		apiErr, ok := resp.Error().(*APIError)
		if !ok || apiErr.Message == "" {
			apiErr = &APIError{Message: resp.String()}
		}
		apiErr.StatusCode = resp.StatusCode()
		return apiErr
	}
	return nil
}

func (c *Client) List(ctx context.Context, opts ListOptions) (*PatientPage, error) {
	var page PatientPage
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(opts.query()).
		SetResult(&page).
		SetError(&APIError{}).
		Get("/api/patients")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) Search(ctx context.Context, q string) ([]Patient, error) {
	var hits []Patient
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("q", q).
		SetResult(&hits).
		SetError(&APIError{}).
		Get("/api/patients/search")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return hits, nil
}

func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&stats).
		SetError(&APIError{}).
		Get("/api/patients/stats")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) Get(ctx context.Context, id string) (*Patient, error) {
	var p Patient
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&p).
		SetError(&APIError{}).
		Get("/api/patients/" + id)
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create submits a new patient. A non-nil picture is attached as the
// multipart "picture" file part.
func (c *Client) Create(ctx context.Context, in PatientInput, pictureName string, picture io.Reader) (*Patient, error) {
	var p Patient
	req := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(in.formData()).
		SetResult(&p).
		SetError(&APIError{})
	if picture != nil {
		req.SetMultipartField("picture", pictureName, "", picture)
	}
	resp, err := req.Post("/api/patients")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update submits a partial update. Empty input fields keep their stored
// values.
func (c *Client) Update(ctx context.Context, id string, in PatientInput, pictureName string, picture io.Reader) (*Patient, error) {
	var p Patient
	req := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(in.formData()).
		SetResult(&p).
		SetError(&APIError{})
	if picture != nil {
		req.SetMultipartField("picture", pictureName, "", picture)
	}
	resp, err := req.Put("/api/patients/" + id)
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePicture replaces only the stored picture and returns its new path.
func (c *Client) UpdatePicture(ctx context.Context, id, pictureName string, picture io.Reader) (string, error) {
	var body struct {
		Picture *string `json:"picture"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetMultipartField("picture", pictureName, "", picture).
		SetResult(&body).
		SetError(&APIError{}).
		Patch("/api/patients/" + id + "/picture")
	if err := check(resp, err); err != nil {
		return "", err
	}
	if body.Picture == nil {
		return "", nil
	}
	return *body.Picture, nil
}

// Delete removes a patient and returns the deleted id.
func (c *Client) Delete(ctx context.Context, id string) (string, error) {
	var body struct {
		DeletedID string `json:"deletedId"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		SetError(&APIError{}).
		Delete("/api/patients/" + id)
	if err := check(resp, err); err != nil {
		return "", err
	}
	return body.DeletedID, nil
}
