package dashboard

import (
	"testing"
	"time"

	"github.com/mediview/mediview/internal/upstream/extraction"
)

var testNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func samplePayload() *extraction.Extracted {
	return &extraction.Extracted{
		ProblemList: []extraction.Problem{
			{ProblemName: "Hypertension", Status: "Active", OnsetDate: "2023-01-10", Notes: "on lisinopril"},
			{ProblemName: "GERD"},
		},
		ResolvedProblems: []extraction.Problem{
			{ProblemName: "Pneumonia", ResolvedDate: "2022-11-02", Notes: "fully recovered"},
		},
		Procedures: []extraction.Procedure{
			{ProcedureName: "Colonoscopy", Date: "2023-05-01", Status: "Completed", Indication: "screening"},
		},
		HealthMaintenanceAndRecalls: []extraction.Recall{
			{Item: "Flu vaccine", Status: "Due", NextDueDate: "2024-10-01", Reason: "annual"},
		},
		OpenOrdersReferrals: []extraction.Order{
			{Name: "CBC", OrderType: "Lab", OrderedDate: "2024-05-20", Status: "Ordered"},
		},
		ImagingAndPathology: []extraction.Imaging{
			{StudyType: "Chest X-Ray", Finding: "clear", Date: "2024-04-11", Status: "Final"},
		},
		PatientCommunicationsAndTasks: []extraction.Communication{
			{CommunicationType: "Phone", Date: "2024-05-25", Summary: "reviewed labs", Status: "Completed"},
		},
		Labs: []extraction.Lab{
			{TestName: "Hgb", Value: "13.5", Unit: "g/dL", Date: "2024-05-20", Interpretation: "Normal"},
		},
		LogsOrNotes: "Patient doing well overall.",
	}
}

func TestFromExtraction_ProblemsFlattened(t *testing.T) {
	d := FromExtraction(samplePayload(), testNow)

	if len(d.Problems) != 3 {
		t.Fatalf("expected 3 problems, got %d", len(d.Problems))
	}
	// active entries first, in source order
	if d.Problems[0].ProblemName != "Hypertension" || d.Problems[0].Status != "Active" {
		t.Errorf("unexpected first problem: %+v", d.Problems[0])
	}
	// missing status on an active entry defaults to Active
	if d.Problems[1].Status != "Active" {
		t.Errorf("expected derived status Active, got %q", d.Problems[1].Status)
	}
	// resolved entry derives status and onset from resolved_date
	resolved := d.Problems[2]
	if resolved.Status != "Resolved" {
		t.Errorf("expected derived status Resolved, got %q", resolved.Status)
	}
	if resolved.OnsetDate != "2022-11-02" {
		t.Errorf("expected onset from resolved_date, got %q", resolved.OnsetDate)
	}
}

func TestFromExtraction_SyntheticIDs(t *testing.T) {
	d := FromExtraction(samplePayload(), testNow)

	if d.Problems[0].ID != "p-0" || d.Problems[2].ID != "p-2" {
		t.Errorf("unexpected problem ids: %q %q", d.Problems[0].ID, d.Problems[2].ID)
	}
	if d.Procedures[0].ID != "proc-0" {
		t.Errorf("expected proc-0, got %q", d.Procedures[0].ID)
	}
	if d.HealthMaintenance[0].ID != "hm-0" {
		t.Errorf("expected hm-0, got %q", d.HealthMaintenance[0].ID)
	}
	if d.Orders[0].ID != "ord-0" {
		t.Errorf("expected ord-0, got %q", d.Orders[0].ID)
	}
	if d.Imaging[0].ID != "img-0" {
		t.Errorf("expected img-0, got %q", d.Imaging[0].ID)
	}
	if d.Communications[0].ID != "comm-0" {
		t.Errorf("expected comm-0, got %q", d.Communications[0].ID)
	}
	if d.Labs[0].ID != "lab-0" {
		t.Errorf("expected lab-0, got %q", d.Labs[0].ID)
	}
}

func TestFromExtraction_BackendIDWins(t *testing.T) {
	x := &extraction.Extracted{
		Labs: []extraction.Lab{{ID: "existing", TestName: "Na"}},
	}
	d := FromExtraction(x, testNow)
	if d.Labs[0].ID != "existing" {
		t.Errorf("expected backend id preserved, got %q", d.Labs[0].ID)
	}
}

func TestFromExtraction_SummaryNote(t *testing.T) {
	d := FromExtraction(samplePayload(), testNow)

	if len(d.Notes) != 1 {
		t.Fatalf("expected one synthetic note, got %d", len(d.Notes))
	}
	n := d.Notes[0]
	if n.ID != "note-summary" {
		t.Errorf("expected note-summary id, got %q", n.ID)
	}
	if n.Title != "Extracted Record Summary" || n.Provider != "AI Scribe" || n.Type != "office" {
		t.Errorf("unexpected note metadata: %+v", n)
	}
	if n.Date != "2024-06-01" {
		t.Errorf("expected today's date, got %q", n.Date)
	}
	if n.Summary != "Patient doing well overall." {
		t.Errorf("unexpected note body: %q", n.Summary)
	}
}

func TestFromExtraction_SummaryFallback(t *testing.T) {
	d := FromExtraction(&extraction.Extracted{Summary: "upload summary"}, testNow)
	if len(d.Notes) != 1 || d.Notes[0].Summary != "upload summary" {
		t.Fatalf("expected note from summary field, got %+v", d.Notes)
	}

	d = FromExtraction(&extraction.Extracted{}, testNow)
	if len(d.Notes) != 0 {
		t.Errorf("expected no notes for empty free text, got %d", len(d.Notes))
	}
}

func TestFromExtraction_NilPayload(t *testing.T) {
	d := FromExtraction(nil, testNow)
	if d == nil {
		t.Fatal("expected non-nil data")
	}
	for _, c := range Categories {
		if d.Count(c) != 0 {
			t.Errorf("expected empty %s", c)
		}
	}
}

func TestToExtraction_ResolvedPartition(t *testing.T) {
	d := NewData()
	d.Problems = []Problem{
		{ID: "p-0", ProblemName: "Hypertension", Status: "Active", OnsetDate: "2023-01-10"},
		{ID: "p-1", ProblemName: "Pneumonia", Status: "RESOLVED", OnsetDate: "2022-11-02", Notes: "recovered"},
		{ID: "p-2", ProblemName: "Migraine", Status: "resolved"},
	}

	x := ToExtraction(d)
	if len(x.ProblemList) != 1 {
		t.Fatalf("expected 1 active problem, got %d", len(x.ProblemList))
	}
	if len(x.ResolvedProblems) != 2 {
		t.Fatalf("expected 2 resolved problems, got %d", len(x.ResolvedProblems))
	}
	if x.ProblemList[0].ProblemName != "Hypertension" {
		t.Errorf("unexpected active problem: %+v", x.ProblemList[0])
	}
	// resolved_date comes from the flattened onset_date
	if x.ResolvedProblems[0].ResolvedDate != "2022-11-02" {
		t.Errorf("expected resolved_date from onset, got %q", x.ResolvedProblems[0].ResolvedDate)
	}
	for _, p := range append(x.ProblemList, x.ResolvedProblems...) {
		if p.Images == nil {
			t.Error("expected empty images array, got nil")
		}
	}
}

func TestToExtraction_NotesCollapseToFirst(t *testing.T) {
	d := NewData()
	d.Notes = []Note{
		{ID: "note-summary", Summary: "first body"},
		{ID: "manual-1", Summary: "second body"},
	}
	x := ToExtraction(d)
	if x.LogsOrNotes != "first body" {
		t.Errorf("expected first note body, got %q", x.LogsOrNotes)
	}

	x = ToExtraction(NewData())
	if x.LogsOrNotes != "" {
		t.Errorf("expected empty logs_or_notes, got %q", x.LogsOrNotes)
	}
}

func TestRoundTrip_PreservesCategoryFields(t *testing.T) {
	in := samplePayload()
	out := ToExtraction(FromExtraction(in, testNow))

	if len(out.ProblemList) != 2 || len(out.ResolvedProblems) != 1 {
		t.Fatalf("unexpected problem split: %d active, %d resolved",
			len(out.ProblemList), len(out.ResolvedProblems))
	}
	act := out.ProblemList[0]
	src := in.ProblemList[0]
	if act.ProblemName != src.ProblemName || act.Status != src.Status ||
		act.OnsetDate != src.OnsetDate || act.Notes != src.Notes {
		t.Errorf("active problem not preserved: %+v", act)
	}
	res := out.ResolvedProblems[0]
	if res.ProblemName != "Pneumonia" || res.Notes != "fully recovered" || res.ResolvedDate != "2022-11-02" {
		t.Errorf("resolved problem not preserved: %+v", res)
	}

	if out.Procedures[0].ProcedureName != "Colonoscopy" || out.Procedures[0].Indication != "screening" {
		t.Errorf("procedure not preserved: %+v", out.Procedures[0])
	}
	if out.HealthMaintenanceAndRecalls[0].Item != "Flu vaccine" || out.HealthMaintenanceAndRecalls[0].NextDueDate != "2024-10-01" {
		t.Errorf("recall not preserved: %+v", out.HealthMaintenanceAndRecalls[0])
	}
	if out.OpenOrdersReferrals[0].Name != "CBC" || out.OpenOrdersReferrals[0].OrderType != "Lab" {
		t.Errorf("order not preserved: %+v", out.OpenOrdersReferrals[0])
	}
	if out.ImagingAndPathology[0].StudyType != "Chest X-Ray" || out.ImagingAndPathology[0].Finding != "clear" {
		t.Errorf("imaging not preserved: %+v", out.ImagingAndPathology[0])
	}
	if out.PatientCommunicationsAndTasks[0].Summary != "reviewed labs" {
		t.Errorf("communication not preserved: %+v", out.PatientCommunicationsAndTasks[0])
	}
	lab := out.Labs[0]
	if lab.TestName != "Hgb" || lab.Value != "13.5" || lab.Unit != "g/dL" || lab.Date != "2024-05-20" {
		t.Errorf("lab not preserved: %+v", lab)
	}
	if out.LogsOrNotes != "Patient doing well overall." {
		t.Errorf("free text not preserved: %q", out.LogsOrNotes)
	}
}
