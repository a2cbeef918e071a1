// Package dashboard holds the normalized clinical summary shown to
// reviewers: eight ordered category sequences with typed records, plus the
// bidirectional mapping to the extraction service's wire schema. Fields are
// defaulted once at the mapping boundary; everything past that point is
// treated as fully populated.
package dashboard

import "fmt"

// Category names one of the eight record sequences.
type Category string

const (
	CategoryProblems          Category = "problems"
	CategoryProcedures        Category = "procedures"
	CategoryHealthMaintenance Category = "healthMaintenance"
	CategoryOrders            Category = "orders"
	CategoryImaging           Category = "imaging"
	CategoryCommunications    Category = "communications"
	CategoryLabs              Category = "labs"
	CategoryNotes             Category = "notes"
)

// Categories lists every category in declaration order.
var Categories = []Category{
	CategoryProblems,
	CategoryProcedures,
	CategoryHealthMaintenance,
	CategoryOrders,
	CategoryImaging,
	CategoryCommunications,
	CategoryLabs,
	CategoryNotes,
}

// ParseCategory validates a category received from a request path.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

type Problem struct {
	ID          string `json:"id"`
	ProblemName string `json:"problem_name"`
	Status      string `json:"status"`
	OnsetDate   string `json:"onset_date,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type Procedure struct {
	ID            string `json:"id"`
	ProcedureName string `json:"procedure_name"`
	Date          string `json:"date,omitempty"`
	Indication    string `json:"indication,omitempty"`
	Status        string `json:"status"`
}

type HealthMaintenanceItem struct {
	ID          string `json:"id"`
	Item        string `json:"item"`
	Status      string `json:"status"`
	LastDate    string `json:"last_date,omitempty"`
	NextDueDate string `json:"next_due_date,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

type Order struct {
	ID          string `json:"id"`
	OrderType   string `json:"order_type"`
	Name        string `json:"name"`
	OrderedDate string `json:"ordered_date,omitempty"`
	Status      string `json:"status"`
}

type Imaging struct {
	ID        string `json:"id"`
	StudyType string `json:"study_type"`
	Finding   string `json:"finding,omitempty"`
	Date      string `json:"date,omitempty"`
	Status    string `json:"status"`
}

type Communication struct {
	ID                string `json:"id"`
	CommunicationType string `json:"communication_type"`
	Date              string `json:"date,omitempty"`
	Summary           string `json:"summary"`
	Status            string `json:"status"`
}

type Lab struct {
	ID             string `json:"id"`
	Date           string `json:"date,omitempty"`
	TestName       string `json:"test_name"`
	Value          string `json:"value,omitempty"`
	Unit           string `json:"unit,omitempty"`
	Interpretation string `json:"interpretation,omitempty"`
}

type Note struct {
	ID       string `json:"id"`
	Date     string `json:"date,omitempty"`
	Title    string `json:"title"`
	Provider string `json:"provider,omitempty"`
	Type     string `json:"type,omitempty"`
	Summary  string `json:"summary,omitempty"`
}

func (p Problem) ItemID() string               { return p.ID }
func (p Procedure) ItemID() string             { return p.ID }
func (h HealthMaintenanceItem) ItemID() string { return h.ID }
func (o Order) ItemID() string                 { return o.ID }
func (i Imaging) ItemID() string               { return i.ID }
func (c Communication) ItemID() string         { return c.ID }
func (l Lab) ItemID() string                   { return l.ID }
func (n Note) ItemID() string                  { return n.ID }

// Data is the normalized dashboard: insertion order is display order, with
// no cross-category ordering. Ids are unique within their own sequence only.
type Data struct {
	Problems          []Problem               `json:"problems"`
	Procedures        []Procedure             `json:"procedures"`
	HealthMaintenance []HealthMaintenanceItem `json:"healthMaintenance"`
	Orders            []Order                 `json:"orders"`
	Imaging           []Imaging               `json:"imaging"`
	Communications    []Communication         `json:"communications"`
	Labs              []Lab                   `json:"labs"`
	Notes             []Note                  `json:"notes"`
}

// NewData returns a Data with every sequence empty but non-nil.
func NewData() *Data {
	return &Data{
		Problems:          []Problem{},
		Procedures:        []Procedure{},
		HealthMaintenance: []HealthMaintenanceItem{},
		Orders:            []Order{},
		Imaging:           []Imaging{},
		Communications:    []Communication{},
		Labs:              []Lab{},
		Notes:             []Note{},
	}
}

// Clone returns a deep copy.
func (d *Data) Clone() *Data {
	out := &Data{
		Problems:          make([]Problem, len(d.Problems)),
		Procedures:        make([]Procedure, len(d.Procedures)),
		HealthMaintenance: make([]HealthMaintenanceItem, len(d.HealthMaintenance)),
		Orders:            make([]Order, len(d.Orders)),
		Imaging:           make([]Imaging, len(d.Imaging)),
		Communications:    make([]Communication, len(d.Communications)),
		Labs:              make([]Lab, len(d.Labs)),
		Notes:             make([]Note, len(d.Notes)),
	}
	copy(out.Problems, d.Problems)
	copy(out.Procedures, d.Procedures)
	copy(out.HealthMaintenance, d.HealthMaintenance)
	copy(out.Orders, d.Orders)
	copy(out.Imaging, d.Imaging)
	copy(out.Communications, d.Communications)
	copy(out.Labs, d.Labs)
	copy(out.Notes, d.Notes)
	return out
}

// Count returns the number of records in one category.
func (d *Data) Count(c Category) int {
	switch c {
	case CategoryProblems:
		return len(d.Problems)
	case CategoryProcedures:
		return len(d.Procedures)
	case CategoryHealthMaintenance:
		return len(d.HealthMaintenance)
	case CategoryOrders:
		return len(d.Orders)
	case CategoryImaging:
		return len(d.Imaging)
	case CategoryCommunications:
		return len(d.Communications)
	case CategoryLabs:
		return len(d.Labs)
	case CategoryNotes:
		return len(d.Notes)
	}
	return 0
}

// Reset empties one category, leaving the others untouched.
func (d *Data) Reset(c Category) {
	switch c {
	case CategoryProblems:
		d.Problems = []Problem{}
	case CategoryProcedures:
		d.Procedures = []Procedure{}
	case CategoryHealthMaintenance:
		d.HealthMaintenance = []HealthMaintenanceItem{}
	case CategoryOrders:
		d.Orders = []Order{}
	case CategoryImaging:
		d.Imaging = []Imaging{}
	case CategoryCommunications:
		d.Communications = []Communication{}
	case CategoryLabs:
		d.Labs = []Lab{}
	case CategoryNotes:
		d.Notes = []Note{}
	}
}

// CopyCategory copies one category's sequence from d into dst.
func (d *Data) CopyCategory(dst *Data, c Category) {
	switch c {
	case CategoryProblems:
		dst.Problems = append([]Problem{}, d.Problems...)
	case CategoryProcedures:
		dst.Procedures = append([]Procedure{}, d.Procedures...)
	case CategoryHealthMaintenance:
		dst.HealthMaintenance = append([]HealthMaintenanceItem{}, d.HealthMaintenance...)
	case CategoryOrders:
		dst.Orders = append([]Order{}, d.Orders...)
	case CategoryImaging:
		dst.Imaging = append([]Imaging{}, d.Imaging...)
	case CategoryCommunications:
		dst.Communications = append([]Communication{}, d.Communications...)
	case CategoryLabs:
		dst.Labs = append([]Lab{}, d.Labs...)
	case CategoryNotes:
		dst.Notes = append([]Note{}, d.Notes...)
	}
}
