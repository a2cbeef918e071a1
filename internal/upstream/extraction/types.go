// Package extraction is the REST client for the document extraction and
// save service. It owns the wire schema of the extraction payload: the
// snake_case category arrays produced by the document analyzer and accepted
// back by the save endpoint.
package extraction

const (
	StatusApproved    = "APPROVED"
	StatusNotApproved = "NOT_APPROVED"
)

// Record is the response of GET /files/{id}: one extraction per patient with
// its review approval flag.
type Record struct {
	ID             int64      `json:"id"`
	PatientID      int64      `json:"patient_id"`
	ApprovalStatus string     `json:"approval_status"`
	ExtractedJSON  *Extracted `json:"extracted_json"`
	UpdatedTime    string     `json:"updated_time,omitempty"`
	CreatedTime    string     `json:"created_time,omitempty"`
}

// Extracted holds the nine category fields of an extraction payload. Every
// field is optional on the wire; absent arrays decode to nil slices.
type Extracted struct {
	Labs                          []Lab           `json:"labs"`
	Procedures                    []Procedure     `json:"procedures"`
	ProblemList                   []Problem       `json:"problem_list"`
	ResolvedProblems              []Problem       `json:"resolved_problems"`
	LogsOrNotes                   string          `json:"logs_or_notes"`
	ImagingAndPathology           []Imaging       `json:"imaging_and_pathology"`
	OpenOrdersReferrals           []Order         `json:"open_orders_referrals"`
	HealthMaintenanceAndRecalls   []Recall        `json:"health_maintenance_and_recalls"`
	PatientCommunicationsAndTasks []Communication `json:"patient_communications_and_tasks"`
	// Summary appears on upload responses only; reads come back as
	// logs_or_notes.
	Summary string `json:"summary,omitempty"`
}

// Problem covers both problem_list and resolved_problems entries: active
// entries carry status/onset_date, resolved entries carry resolved_date.
type Problem struct {
	ID           string   `json:"id,omitempty"`
	ProblemName  string   `json:"problem_name"`
	Status       string   `json:"status,omitempty"`
	OnsetDate    string   `json:"onset_date,omitempty"`
	ResolvedDate string   `json:"resolved_date,omitempty"`
	Notes        string   `json:"notes"`
	Images       []string `json:"images"`
}

type Procedure struct {
	ID            string   `json:"id,omitempty"`
	ProcedureName string   `json:"procedure_name"`
	Date          string   `json:"date"`
	Status        string   `json:"status"`
	Indication    string   `json:"indication"`
	Images        []string `json:"images"`
}

type Recall struct {
	ID          string   `json:"id,omitempty"`
	Item        string   `json:"item"`
	Status      string   `json:"status"`
	LastDate    string   `json:"last_date"`
	NextDueDate string   `json:"next_due_date"`
	Reason      string   `json:"reason"`
	Images      []string `json:"images"`
}

type Order struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Status      string   `json:"status"`
	OrderType   string   `json:"order_type"`
	OrderedDate string   `json:"ordered_date"`
	Images      []string `json:"images"`
}

type Imaging struct {
	ID        string   `json:"id,omitempty"`
	StudyType string   `json:"study_type"`
	Finding   string   `json:"finding"`
	Date      string   `json:"date"`
	Status    string   `json:"status"`
	Images    []string `json:"images"`
}

type Communication struct {
	ID                string   `json:"id,omitempty"`
	CommunicationType string   `json:"communication_type"`
	Date              string   `json:"date"`
	Summary           string   `json:"summary"`
	Status            string   `json:"status"`
	Images            []string `json:"images"`
}

// Lab rows round-trip verbatim: the save endpoint receives them exactly as
// the review produced them, synthetic ids included and no images attached.
type Lab struct {
	ID             string `json:"id,omitempty"`
	Date           string `json:"date"`
	TestName       string `json:"test_name"`
	Value          string `json:"value"`
	Unit           string `json:"unit"`
	Interpretation string `json:"interpretation,omitempty"`
}

// AnalysisResponse is the response of POST /files/upload.
type AnalysisResponse struct {
	Status        string     `json:"status"`
	PatientID     string     `json:"patient_id"`
	ExtractedData *Extracted `json:"extracted_data"`
}

// UploadFile is one document to analyze, positionally aligned with its
// files_data metadata entry in the multipart request.
type UploadFile struct {
	ReportType string
	Tag        string
	FileName   string
	Content    []byte
}
