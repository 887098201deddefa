package templates

import "github.com/HendryAvila/solvy/internal/solution"

// TestRow is one line of the verdict table.
type TestRow struct {
	Description string
	Result      string
	Critique    string
}

// ReportData feeds the Report template.
type ReportData struct {
	RunID        string
	Task         string
	Context      string
	Form         string
	Route        string
	Attempts     int
	MaxAttempts  int
	Requirements []string
	Structure    []string
	Resources    []string
	Solution     string
	Pass         int
	Fail         int
	Unknown      int
	Tests        []TestRow
}

// NewReportData collects report fields from a finished solution.
func NewReportData(runID, route string, maxAttempts int, s solution.Solution) ReportData {
	pass, fail, unknown := s.Tally()
	d := ReportData{
		RunID:        runID,
		Task:         s.Task,
		Context:      s.Context,
		Form:         string(s.Form),
		Route:        route,
		Attempts:     s.ProposalTries,
		MaxAttempts:  maxAttempts,
		Requirements: s.Requirements,
		Structure:    s.Structure,
		Resources:    s.ResourceKeys(),
		Solution:     s.Solution,
		Pass:         pass,
		Fail:         fail,
		Unknown:      unknown,
	}
	for _, t := range s.Tests {
		d.Tests = append(d.Tests, TestRow{
			Description: t.Description,
			Result:      string(t.Result),
			Critique:    t.CritiqueOfLastRun,
		})
	}
	return d
}

// RunRow is one line of the run list.
type RunRow struct {
	ID        string
	Task      string
	Status    string
	Stage     string
	Attempts  int
	Pass      int
	Fail      int
	CreatedAt string
}

// RunsData feeds the Runs template.
type RunsData struct {
	Runs []RunRow
}
