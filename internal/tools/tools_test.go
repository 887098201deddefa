package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/HendryAvila/solvy/internal/pipeline"
	"github.com/HendryAvila/solvy/internal/recall"
	"github.com/HendryAvila/solvy/internal/solution"
	"github.com/HendryAvila/solvy/internal/solver"
	"github.com/HendryAvila/solvy/internal/templates"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Test helpers ---

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// getResultText extracts the text content from a tool result.
func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	if tc, ok := result.Content[0].(mcp.TextContent); ok {
		return tc.Text
	}
	return ""
}

type fakeSolver struct {
	result   solver.Result
	err      error
	request  string
	task     string
	context  string
	form     solution.Form
	parsed   bool
	provided bool
}

func (f *fakeSolver) Solve(_ context.Context, request string) (solver.Result, error) {
	f.parsed = true
	f.request = request
	return f.result, f.err
}

func (f *fakeSolver) SolveTask(_ context.Context, task, taskContext string, form solution.Form) (solver.Result, error) {
	f.provided = true
	f.task, f.context, f.form = task, taskContext, form
	return f.result, f.err
}

func okResult() solver.Result {
	return solver.Result{
		RunID:    "run-1",
		Route:    recall.RouteNew,
		Solution: solution.New("sum", "math", solution.FormCode).WithProposal("func Sum() {}"),
		Report:   "# Solution: sum",
	}
}

// --- SolveTool ---

func TestSolveTool_Definition(t *testing.T) {
	def := NewSolveTool(&fakeSolver{}).Definition()
	if def.Name != "solve" {
		t.Errorf("tool name = %q, want solve", def.Name)
	}
	for _, p := range []string{"task", "context", "form", "format"} {
		if _, ok := def.InputSchema.Properties[p]; !ok {
			t.Errorf("missing %q parameter", p)
		}
	}
}

func TestSolveTool_Handle_ParsesFreeText(t *testing.T) {
	fs := &fakeSolver{result: okResult()}
	result, err := NewSolveTool(fs).Handle(context.Background(), makeReq(map[string]interface{}{
		"task": "write a function that sums a list",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", getResultText(result))
	}
	if !fs.parsed || fs.provided {
		t.Error("free text should go through Solve")
	}
	if getResultText(result) != "# Solution: sum" {
		t.Errorf("text = %q, want the report", getResultText(result))
	}
}

func TestSolveTool_Handle_ProvidedFields(t *testing.T) {
	fs := &fakeSolver{result: okResult()}
	_, _ = NewSolveTool(fs).Handle(context.Background(), makeReq(map[string]interface{}{
		"task":    "sum a list",
		"context": "math",
	}))
	if !fs.provided {
		t.Fatal("context should route to SolveTask")
	}
	if fs.form != solution.FormText || fs.context != "math" {
		t.Errorf("SolveTask got form=%q context=%q", fs.form, fs.context)
	}
}

func TestSolveTool_Handle_JSON(t *testing.T) {
	fs := &fakeSolver{result: okResult()}
	result, _ := NewSolveTool(fs).Handle(context.Background(), makeReq(map[string]interface{}{
		"task":   "sum",
		"form":   "code",
		"format": "json",
	}))
	var got solver.Result
	if err := json.Unmarshal([]byte(getResultText(result)), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.RunID != "run-1" || got.Solution.Solution != "func Sum() {}" {
		t.Errorf("decoded = %+v", got)
	}
}

func TestSolveTool_Handle_Errors(t *testing.T) {
	result, _ := NewSolveTool(&fakeSolver{}).Handle(context.Background(), makeReq(map[string]interface{}{}))
	if !result.IsError {
		t.Error("missing task should be an error")
	}

	fs := &fakeSolver{result: solver.Result{RunID: "run-9"}, err: errors.New("model unavailable")}
	result, _ = NewSolveTool(fs).Handle(context.Background(), makeReq(map[string]interface{}{"task": "x"}))
	text := getResultText(result)
	if !result.IsError || !strings.Contains(text, "model unavailable") || !strings.Contains(text, "run-9") {
		t.Errorf("error result = %q", text)
	}

	fs = &fakeSolver{err: fmt.Errorf("%w: bad form", solution.ErrContract)}
	result, _ = NewSolveTool(fs).Handle(context.Background(), makeReq(map[string]interface{}{"task": "x", "form": "poem"}))
	if !result.IsError || strings.Contains(getResultText(result), "solve_status") {
		t.Errorf("contract error result = %q", getResultText(result))
	}
}

// --- SolveStatusTool ---

func newStatusTool(t *testing.T) (*SolveStatusTool, *pipeline.FileStore) {
	t.Helper()
	runs := pipeline.NewFileStore(t.TempDir())
	renderer, err := templates.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return NewSolveStatusTool(runs, renderer), runs
}

func TestSolveStatusTool_Detail(t *testing.T) {
	tool, runs := newStatusTool(t)
	run := pipeline.NewRun("sum a list")
	if err := pipeline.Advance(run, "form=code"); err != nil {
		t.Fatal(err)
	}
	if err := runs.Save(run); err != nil {
		t.Fatal(err)
	}

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"run_id": run.ID}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := getResultText(result)
	for _, want := range []string{"sum a list", "✅ **parse** (completed): form=code", "🔄 **requirements** (in_progress)", "⬜ **output** (pending)"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q:\n%s", want, text)
		}
	}
}

func TestSolveStatusTool_NotFound(t *testing.T) {
	tool, _ := newStatusTool(t)
	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"run_id": "nope"}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !result.IsError {
		t.Error("unknown run should be an error result")
	}
}

func TestSolveStatusTool_List(t *testing.T) {
	tool, runs := newStatusTool(t)
	for _, task := range []string{"one", "two", "three"} {
		if err := runs.Save(pipeline.NewRun(task)); err != nil {
			t.Fatal(err)
		}
	}

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"limit": float64(2)}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := getResultText(result)
	if got := strings.Count(text, "| running |"); got != 2 {
		t.Errorf("listed %d runs, want 2:\n%s", got, text)
	}
}

func TestFormatRun_Failed(t *testing.T) {
	run := pipeline.NewRun("x")
	pipeline.Fail(run, errors.New("quota exceeded"))
	text := FormatRun(run)
	if !strings.Contains(text, "- **Error:** quota exceeded") || !strings.Contains(text, "❌ **parse**") {
		t.Errorf("unexpected:\n%s", text)
	}
}
