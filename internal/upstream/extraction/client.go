package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
)

// Client is a thin wrapper over the extraction service's three endpoints.
// One request per call: no retries, no backoff, no queuing.
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

type fileMetadata struct {
	ReportType  string `json:"report_type"`
	TagDocument string `json:"tag_document"`
	FileName    string `json:"file_name"`
}

type savePayload struct {
	PatientID int64      `json:"patient_id"`
	JSONData  *Extracted `json:"json_data"`
}

// GetExtraction fetches the extraction record for a patient via
// GET /files/{id}.
func (c *Client) GetExtraction(ctx context.Context, patientID string) (*Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/files/"+patientID, nil)
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
	var rec Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode extraction record: %w", err)
	}
	return &rec, nil
}

// SaveExtraction persists the reviewed payload via
// POST /files/save-extracted-data. The save endpoint keys records by a
// numeric patient id.
func (c *Client) SaveExtraction(ctx context.Context, patientID string, payload *Extracted) error {
	numID, err := strconv.ParseInt(patientID, 10, 64)
	if err != nil {
		return fmt.Errorf("patient id %q is not numeric: %w", patientID, err)
	}
	body, err := json.Marshal(savePayload{PatientID: numID, JSONData: payload})
	if err != nil {
		return fmt.Errorf("marshal save payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/files/save-extracted-data", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}
	return nil
}

// Upload sends documents for analysis via POST /files/upload as a multipart
// form: patient_id, uploader_details, a files_data JSON array, then one
// "files" part per document in the same order as the metadata entries.
func (c *Client) Upload(ctx context.Context, patientID, uploaderID string, files []UploadFile) (*AnalysisResponse, error) {
	meta := make([]fileMetadata, len(files))
	for i, f := range files {
		meta[i] = fileMetadata{ReportType: f.ReportType, TagDocument: f.Tag, FileName: f.FileName}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal files_data: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("patient_id", patientID); err != nil {
		return nil, err
	}
	if err := w.WriteField("uploader_details", uploaderID); err != nil {
		return nil, err
	}
	if err := w.WriteField("files_data", string(metaJSON)); err != nil {
		return nil, err
	}
	for _, f := range files {
		part, err := w.CreateFormFile("files", f.FileName)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiError(resp)
	}
	var ar AnalysisResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, fmt.Errorf("decode analysis response: %w", err)
	}
	return &ar, nil
}

// apiError extracts the upstream's message field when the error body carries
// one, otherwise reports the HTTP status.
func apiError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Message != "" {
		return fmt.Errorf("extraction api: %s", body.Message)
	}
	return fmt.Errorf("extraction api: %s", resp.Status)
}
