// Package patients is the REST client for the patient directory service.
package patients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Patient is a directory record. The directory also serves summary rows on
// the list endpoint; both shapes decode into this struct.
type Patient struct {
	ID                   string `json:"id"`
	FirstName            string `json:"firstName"`
	LastName             string `json:"lastName"`
	Age                  int    `json:"age,omitempty"`
	DateOfBirth          string `json:"dateOfBirth,omitempty"`
	MRN                  string `json:"mrn"`
	ReferringProvider    string `json:"referringProvider,omitempty"`
	ReferringProviderFax string `json:"referringProviderFax,omitempty"`
	Pharmacy             string `json:"pharmacy,omitempty"`
	PharmacyLocation     string `json:"pharmacyLocation,omitempty"`
	State                string `json:"state,omitempty"`
}

// Key returns the identifier used to fetch clinical details: the patient id
// when present, else the MRN.
func (p *Patient) Key() string {
	if p.ID != "" {
		return p.ID
	}
	return p.MRN
}

// Client wraps the directory's two endpoints. One request per call, no
// retries.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

// ListPatients fetches the full directory via GET /patients.
func (c *Client) ListPatients(ctx context.Context) ([]Patient, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/patients", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiError(resp)
	}
	var list []Patient
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode patient list: %w", err)
	}
	return list, nil
}

// GetPatient fetches a single record via GET /patient-data/{id}. The
// directory sometimes wraps the record in a data envelope; both shapes are
// accepted.
func (c *Client) GetPatient(ctx context.Context, id string) (*Patient, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/patient-data/"+id, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiError(resp)
	}
	var envelope struct {
		Patient
		Data *Patient `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode patient record: %w", err)
	}
	if envelope.Data != nil {
		return envelope.Data, nil
	}
	p := envelope.Patient
	return &p, nil
}

func apiError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Message != "" {
		return fmt.Errorf("patient api: %s", body.Message)
	}
	return fmt.Errorf("patient api: %s", resp.Status)
}
