package dashboard

import (
	"strings"
	"time"

	"github.com/mediview/mediview/internal/upstream/extraction"
)

// Names of the single synthetic note built from an extraction's free-text
// summary.
const (
	summaryNoteID       = "note-summary"
	summaryNoteTitle    = "Extracted Record Summary"
	summaryNoteProvider = "AI Scribe"
	summaryNoteType     = "office"
)

// FromExtraction normalizes an extraction payload into dashboard data. It is
// total: missing fields default per category and the function never fails.
//
// Active and resolved problems are flattened into one sequence tagged by
// status; free text collapses into at most one synthetic note carrying now's
// date.
func FromExtraction(x *extraction.Extracted, now time.Time) *Data {
	d := NewData()
	if x == nil {
		return d
	}

	combined := make([]extraction.Problem, 0, len(x.ProblemList)+len(x.ResolvedProblems))
	combined = append(combined, x.ProblemList...)
	combined = append(combined, x.ResolvedProblems...)
	for i, p := range combined {
		status := p.Status
		if status == "" {
			if p.ResolvedDate != "" {
				status = "Resolved"
			} else {
				status = "Active"
			}
		}
		onset := p.OnsetDate
		if onset == "" {
			onset = p.ResolvedDate
		}
		id := p.ID
		if id == "" {
			id = SyntheticID(CategoryProblems, i)
		}
		d.Problems = append(d.Problems, Problem{
			ID:          id,
			ProblemName: p.ProblemName,
			Status:      status,
			OnsetDate:   onset,
			Notes:       p.Notes,
		})
	}

	for i, p := range x.Procedures {
		d.Procedures = append(d.Procedures, Procedure{
			ID:            orSynthetic(p.ID, CategoryProcedures, i),
			ProcedureName: p.ProcedureName,
			Date:          p.Date,
			Indication:    p.Indication,
			Status:        p.Status,
		})
	}
	for i, h := range x.HealthMaintenanceAndRecalls {
		d.HealthMaintenance = append(d.HealthMaintenance, HealthMaintenanceItem{
			ID:          orSynthetic(h.ID, CategoryHealthMaintenance, i),
			Item:        h.Item,
			Status:      h.Status,
			LastDate:    h.LastDate,
			NextDueDate: h.NextDueDate,
			Reason:      h.Reason,
		})
	}
	for i, o := range x.OpenOrdersReferrals {
		d.Orders = append(d.Orders, Order{
			ID:          orSynthetic(o.ID, CategoryOrders, i),
			OrderType:   o.OrderType,
			Name:        o.Name,
			OrderedDate: o.OrderedDate,
			Status:      o.Status,
		})
	}
	for i, img := range x.ImagingAndPathology {
		d.Imaging = append(d.Imaging, Imaging{
			ID:        orSynthetic(img.ID, CategoryImaging, i),
			StudyType: img.StudyType,
			Finding:   img.Finding,
			Date:      img.Date,
			Status:    img.Status,
		})
	}
	for i, c := range x.PatientCommunicationsAndTasks {
		d.Communications = append(d.Communications, Communication{
			ID:                orSynthetic(c.ID, CategoryCommunications, i),
			CommunicationType: c.CommunicationType,
			Date:              c.Date,
			Summary:           c.Summary,
			Status:            c.Status,
		})
	}
	for i, l := range x.Labs {
		d.Labs = append(d.Labs, Lab{
			ID:             orSynthetic(l.ID, CategoryLabs, i),
			Date:           l.Date,
			TestName:       l.TestName,
			Value:          l.Value,
			Unit:           l.Unit,
			Interpretation: l.Interpretation,
		})
	}

	if x.LogsOrNotes != "" || x.Summary != "" {
		body := x.LogsOrNotes
		if body == "" {
			body = x.Summary
		}
		d.Notes = append(d.Notes, Note{
			ID:       summaryNoteID,
			Date:     now.Format("2006-01-02"),
			Title:    summaryNoteTitle,
			Provider: summaryNoteProvider,
			Type:     summaryNoteType,
			Summary:  body,
		})
	}

	return d
}

// ToExtraction denormalizes dashboard data into the save payload. Problems
// split back into active and resolved buckets on a case-insensitive status
// comparison; every emitted record gets an empty images array for the
// image-attachment slot the backend reserves. Labs pass through verbatim.
// Notes collapse to the first note's body; any further notes are dropped on
// save, matching the reviewed record the backend expects.
func ToExtraction(d *Data) *extraction.Extracted {
	x := &extraction.Extracted{
		Labs:                          []extraction.Lab{},
		Procedures:                    []extraction.Procedure{},
		ProblemList:                   []extraction.Problem{},
		ResolvedProblems:              []extraction.Problem{},
		ImagingAndPathology:           []extraction.Imaging{},
		OpenOrdersReferrals:           []extraction.Order{},
		HealthMaintenanceAndRecalls:   []extraction.Recall{},
		PatientCommunicationsAndTasks: []extraction.Communication{},
	}
	if d == nil {
		return x
	}

	for _, p := range d.Problems {
		if strings.ToLower(p.Status) == "resolved" {
			x.ResolvedProblems = append(x.ResolvedProblems, extraction.Problem{
				ProblemName:  p.ProblemName,
				Notes:        p.Notes,
				ResolvedDate: p.OnsetDate,
				Images:       []string{},
			})
		} else {
			x.ProblemList = append(x.ProblemList, extraction.Problem{
				ProblemName: p.ProblemName,
				Status:      p.Status,
				OnsetDate:   p.OnsetDate,
				Notes:       p.Notes,
				Images:      []string{},
			})
		}
	}

	for _, p := range d.Procedures {
		x.Procedures = append(x.Procedures, extraction.Procedure{
			ProcedureName: p.ProcedureName,
			Date:          p.Date,
			Status:        p.Status,
			Indication:    p.Indication,
			Images:        []string{},
		})
	}
	for _, img := range d.Imaging {
		x.ImagingAndPathology = append(x.ImagingAndPathology, extraction.Imaging{
			StudyType: img.StudyType,
			Finding:   img.Finding,
			Date:      img.Date,
			Status:    img.Status,
			Images:    []string{},
		})
	}
	for _, o := range d.Orders {
		x.OpenOrdersReferrals = append(x.OpenOrdersReferrals, extraction.Order{
			Name:        o.Name,
			Status:      o.Status,
			OrderType:   o.OrderType,
			OrderedDate: o.OrderedDate,
			Images:      []string{},
		})
	}
	for _, h := range d.HealthMaintenance {
		x.HealthMaintenanceAndRecalls = append(x.HealthMaintenanceAndRecalls, extraction.Recall{
			Item:        h.Item,
			Status:      h.Status,
			LastDate:    h.LastDate,
			NextDueDate: h.NextDueDate,
			Reason:      h.Reason,
			Images:      []string{},
		})
	}
	for _, c := range d.Communications {
		x.PatientCommunicationsAndTasks = append(x.PatientCommunicationsAndTasks, extraction.Communication{
			CommunicationType: c.CommunicationType,
			Date:              c.Date,
			Summary:           c.Summary,
			Status:            c.Status,
			Images:            []string{},
		})
	}
	for _, l := range d.Labs {
		x.Labs = append(x.Labs, extraction.Lab{
			ID:             l.ID,
			Date:           l.Date,
			TestName:       l.TestName,
			Value:          l.Value,
			Unit:           l.Unit,
			Interpretation: l.Interpretation,
		})
	}

	if len(d.Notes) > 0 {
		x.LogsOrNotes = d.Notes[0].Summary
	}

	return x
}

func orSynthetic(id string, c Category, index int) string {
	if id != "" {
		return id
	}
	return SyntheticID(c, index)
}
