package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"momentum-cli/internal/mutate"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// newWorkspace isolates config and store for one test and returns a runner
// that prepends --dir, plus the store dir.
func newWorkspace(t *testing.T) (func(args ...string) map[string]any, string) {
	t.Helper()
	t.Setenv("MOMENTUM_CONFIG_DIR", t.TempDir())
	t.Setenv("MOMENTUM_SPACE", "")
	dir := t.TempDir()

	run := func(args ...string) map[string]any {
		t.Helper()
		stdout, stderr, err := runCLI(t, append([]string{"--dir", dir}, args...))
		if err != nil {
			t.Fatalf("momentum %v: %v\nstderr:\n%s", args, err, string(stderr))
		}
		var env map[string]any
		if err := json.Unmarshal(stdout, &env); err != nil {
			t.Fatalf("unmarshal envelope: %v\nstdout:\n%s", err, string(stdout))
		}
		if _, ok := env["data"]; !ok {
			t.Fatalf("expected data key; got %v", env)
		}
		return env
	}
	return run, dir
}

func dataMap(t *testing.T, env map[string]any) map[string]any {
	t.Helper()
	m, ok := env["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected object data; got %#v", env["data"])
	}
	return m
}

func dataList(t *testing.T, env map[string]any) []any {
	t.Helper()
	l, ok := env["data"].([]any)
	if !ok {
		t.Fatalf("expected list data; got %#v", env["data"])
	}
	return l
}

func TestCLI_ChecklistFlow(t *testing.T) {
	run, _ := newWorkspace(t)

	run("init")
	sp := dataMap(t, run("spaces", "create", "--name", "Home", "--use"))
	if sp["id"] == "" {
		t.Fatalf("expected space id; got %v", sp)
	}

	def := dataMap(t, run("actions", "create",
		"--name", "Morning routine", "--variant", "checklist", "--points", "20",
		"--step", "Stretch:5", "--step", "Journal:5"))
	actionID, _ := def["id"].(string)
	steps, _ := def["steps"].([]any)
	if actionID == "" || len(steps) != 2 {
		t.Fatalf("unexpected definition: %v", def)
	}
	stepA := steps[0].(map[string]any)["id"].(string)
	stepB := steps[1].(map[string]any)["id"].(string)

	first := dataMap(t, run("log", actionID, "--step", stepA))
	if got := first["log"].(map[string]any)["pointsAwarded"]; got != 5.0 {
		t.Fatalf("first step points: got %v want 5", got)
	}
	second := dataMap(t, run("log", actionID, "--step", stepB, "--notes", "done early"))
	log := second["log"].(map[string]any)
	if log["pointsAwarded"] != 25.0 || log["isMultiStepFullCompletion"] != true {
		t.Fatalf("second step: got %v", log)
	}

	prog := dataMap(t, run("progress"))
	if prog["points"] != 30.0 || prog["level"] != 1.0 {
		t.Fatalf("progress: got %v", prog)
	}

	items := dataList(t, run("timeline"))
	if len(items) != 2 {
		t.Fatalf("timeline: want 2 items, got %d", len(items))
	}
	if desc := items[0].(map[string]any)["description"].(string); !strings.Contains(desc, "done early") {
		t.Fatalf("newest item should carry the notes; got %q", desc)
	}

	show := dataMap(t, run("actions", "show", actionID))
	for _, s := range show["checklist"].([]any) {
		if s.(map[string]any)["completed"] != true {
			t.Fatalf("expected every step completed; got %v", show["checklist"])
		}
	}
}

func TestCLI_ErrorEnvelope(t *testing.T) {
	t.Setenv("MOMENTUM_CONFIG_DIR", t.TempDir())
	t.Setenv("MOMENTUM_SPACE", "")
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
		code string
	}{
		{name: "unknown action", args: []string{"log", "act-missing"}, code: "not_found"},
		{name: "no space selected", args: []string{"actions", "list"}, code: "invalid_input"},
		{name: "bad step flag", args: []string{"--space", "x", "actions", "create", "--name", "A", "--step", "Stretch:lots"}, code: "invalid_input"},
		{name: "reset needs confirmation", args: []string{"reset"}, code: "invalid_input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, err := runCLI(t, append([]string{"--dir", dir}, tt.args...))
			if err == nil {
				t.Fatalf("expected error; stdout:\n%s", string(stdout))
			}
			if len(stdout) != 0 {
				t.Fatalf("expected empty stdout on error; got %s", string(stdout))
			}
			var env struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.Unmarshal(stderr, &env); err != nil {
				t.Fatalf("unmarshal stderr: %v\n%s", err, string(stderr))
			}
			if env.Error.Code != tt.code {
				t.Fatalf("code: got %q want %q (message %q)", env.Error.Code, tt.code, env.Error.Message)
			}
		})
	}
}

func TestCLI_DisabledActionRejectsLogs(t *testing.T) {
	run, dir := newWorkspace(t)
	run("spaces", "create", "--name", "Home", "--use")
	def := dataMap(t, run("actions", "create", "--name", "Water", "--points", "2"))
	id := def["id"].(string)

	run("actions", "disable", id)
	_, stderr, err := runCLI(t, []string{"--dir", dir, "log", id})
	if err == nil || !bytes.Contains(stderr, []byte(`"disabled"`)) {
		t.Fatalf("expected disabled error; err=%v stderr=%s", err, string(stderr))
	}

	run("actions", "enable", id)
	res := dataMap(t, run("log", id))
	if res["log"].(map[string]any)["pointsAwarded"] != 2.0 {
		t.Fatalf("expected 2 points after re-enabling; got %v", res)
	}
}

func TestCLI_DefinitionFile(t *testing.T) {
	run, _ := newWorkspace(t)
	run("spaces", "create", "--name", "Gym", "--use")

	path := filepath.Join(t.TempDir(), "workout.yaml")
	body := `
name: Workout
description: "**Leg day**"
variant: multi-step
pointsForCompletion: 10
steps:
  - description: Warm up
    pointsPerStep: 2
  - description: Log weights
    pointsPerStep: 3
    stepType: data-entry
    formFields:
      - name: kg
        label: Weight
        fieldType: number
        isRequired: true
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	def := dataMap(t, run("actions", "create", "--file", path))
	id := def["id"].(string)
	if def["description"] != "**Leg day**" {
		t.Fatalf("description: got %v", def["description"])
	}
	weights := def["steps"].([]any)[1].(map[string]any)
	stepID := weights["id"].(string)

	entry := dataMap(t, run("data", "submit", id, "--step", stepID, "--set", "kg=80"))
	if got := entry["entry"].(map[string]any)["data"].(map[string]any)["kg"]; got != 80.0 {
		t.Fatalf("kg should be stored as a number; got %#v", got)
	}

	// An explicit null clears the description; absent keys stay untouched.
	patch := filepath.Join(t.TempDir(), "patch.yaml")
	if err := os.WriteFile(patch, []byte("description: null\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	updated := dataMap(t, run("actions", "update", id, "--file", patch))
	if _, ok := updated["description"]; ok {
		t.Fatalf("expected description cleared; got %v", updated["description"])
	}
	if updated["name"] != "Workout" || len(updated["steps"].([]any)) != 2 {
		t.Fatalf("expected the rest unchanged; got %v", updated)
	}
}

func TestCLI_DataValidationCode(t *testing.T) {
	t.Setenv("MOMENTUM_CONFIG_DIR", t.TempDir())
	t.Setenv("MOMENTUM_SPACE", "")
	dir := t.TempDir()

	stdout, stderr, err := runCLI(t, []string{"--dir", dir, "spaces", "create", "--name", "Home", "--use"})
	if err != nil {
		t.Fatalf("spaces create: %v\n%s", err, string(stderr))
	}
	stdout, stderr, err = runCLI(t, []string{"--dir", dir, "actions", "create", "--name", "Mood", "--variant", "form", "--field", "mood:Mood:text:required"})
	if err != nil {
		t.Fatalf("actions create: %v\n%s", err, string(stderr))
	}
	var env struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(stdout, &env); err != nil {
		t.Fatal(err)
	}

	_, stderr, err = runCLI(t, []string{"--dir", dir, "data", "submit", env.Data.ID, "--set", "mood="})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !bytes.Contains(stderr, []byte(`"code":"validation"`)) || !bytes.Contains(stderr, []byte("Mood: is required")) {
		t.Fatalf("unexpected stderr: %s", string(stderr))
	}
}

func TestCLI_TextFormat(t *testing.T) {
	t.Setenv("MOMENTUM_CONFIG_DIR", t.TempDir())
	t.Setenv("NO_COLOR", "1")
	dir := t.TempDir()

	stdout, stderr, err := runCLI(t, []string{"--dir", dir, "--format", "text", "progress"})
	if err != nil {
		t.Fatalf("progress: %v\n%s", err, string(stderr))
	}
	if !strings.Contains(string(stdout), "Level 1") || !strings.Contains(string(stdout), "0 points") {
		t.Fatalf("unexpected text output:\n%s", string(stdout))
	}

	// Commands without a renderer fall back to YAML.
	stdout, stderr, err = runCLI(t, []string{"--dir", dir, "--format", "text", "events"})
	if err != nil {
		t.Fatalf("events: %v\n%s", err, string(stderr))
	}
	if !strings.HasPrefix(string(stdout), "data:") {
		t.Fatalf("expected YAML fallback; got:\n%s", string(stdout))
	}
}

func TestCLI_TodosAndProblems(t *testing.T) {
	run, _ := newWorkspace(t)
	run("spaces", "create", "--name", "Home", "--use")

	todo := dataMap(t, run("todos", "add", "Buy", "milk"))
	if todo["description"] != "Buy milk" || todo["status"] != "todo" {
		t.Fatalf("unexpected todo: %v", todo)
	}
	res := dataMap(t, run("todos", "set-status", todo["id"].(string), "completed"))
	if res["changed"] != true || res["todo"].(map[string]any)["completionDate"] == nil {
		t.Fatalf("expected completion stamped; got %v", res)
	}
	if got := dataList(t, run("todos", "list", "--status", "todo,doing")); len(got) != 0 {
		t.Fatalf("expected no open todos; got %v", got)
	}

	p := dataMap(t, run("problems", "add", "--type", "blocker", "--description", "Gym closed"))
	run("problems", "resolve", p["id"].(string))
	if got := dataList(t, run("problems", "list")); len(got) != 0 {
		t.Fatalf("resolved problems are hidden by default; got %v", got)
	}
	if got := dataList(t, run("problems", "list", "--all")); len(got) != 1 {
		t.Fatalf("--all includes resolved; got %v", got)
	}

	items := dataList(t, run("timeline", "--kind", "todo"))
	if len(items) != 1 || items[0].(map[string]any)["kind"] != "todo" {
		t.Fatalf("kind filter: got %v", items)
	}
}

func TestCLI_ResetClearsEverything(t *testing.T) {
	run, _ := newWorkspace(t)
	run("spaces", "create", "--name", "Home", "--use")
	def := dataMap(t, run("actions", "create", "--name", "Water", "--points", "4"))
	run("log", def["id"].(string))

	run("reset", "--yes", "--progress-only")
	if prog := dataMap(t, run("progress")); prog["points"] != 0.0 {
		t.Fatalf("progress-only reset: got %v", prog)
	}
	if got := dataList(t, run("spaces", "list")); len(got) != 1 {
		t.Fatalf("progress-only reset keeps spaces; got %v", got)
	}

	run("reset", "--yes")
	if got := dataList(t, run("spaces", "list")); len(got) != 0 {
		t.Fatalf("full reset: got %v", got)
	}
}

func TestCLI_Doctor(t *testing.T) {
	run, _ := newWorkspace(t)
	run("spaces", "create", "--name", "Home", "--use")
	def := dataMap(t, run("actions", "create", "--name", "Water", "--points", "4"))
	run("log", def["id"].(string))

	rep := dataMap(t, run("doctor", "--fail"))
	if issues := rep["issues"].([]any); len(issues) != 0 {
		t.Fatalf("expected clean workspace; got %v", issues)
	}

	run("reset", "--yes", "--progress-only")
	rep = dataMap(t, run("doctor", "--fail"))
	issues := rep["issues"].([]any)
	if len(issues) != 1 || issues[0].(map[string]any)["code"] != "progress_points_mismatch" {
		t.Fatalf("expected a progress warning only; got %v", issues)
	}
}

func TestCLI_Docs(t *testing.T) {
	run, _ := newWorkspace(t)

	topics := dataMap(t, run("docs"))["topics"].([]any)
	if len(topics) == 0 {
		t.Fatalf("expected topics")
	}
	page := dataMap(t, run("docs", "progression"))
	if !strings.Contains(page["markdown"].(string), "level") {
		t.Fatalf("unexpected page: %v", page)
	}

	_, stderr, err := runCLI(t, []string{"docs", "nope"})
	if err == nil || !strings.Contains(string(stderr), `"invalid_input"`) {
		t.Fatalf("expected invalid_input; err=%v stderr=%s", err, stderr)
	}
}

func TestCLI_Publish(t *testing.T) {
	run, dir := newWorkspace(t)
	sp := dataMap(t, run("spaces", "create", "--name", "Home", "--use"))
	def := dataMap(t, run("actions", "create", "--name", "Water", "--points", "4"))
	run("log", def["id"].(string))

	out := filepath.Join(t.TempDir(), "export")
	res := dataMap(t, run("publish", "--to", out))
	if got := res["written"].([]any); len(got) != 2 {
		t.Fatalf("expected index and one action page; got %v", got)
	}
	index, err := os.ReadFile(filepath.Join(out, "spaces", sp["id"].(string), "index.md"))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	if !strings.Contains(string(index), "Water") {
		t.Fatalf("index lacks action:\n%s", index)
	}

	_, stderr, err := runCLI(t, []string{"--dir", dir, "publish", "--to", out})
	if err == nil || !strings.Contains(string(stderr), `"invalid_input"`) {
		t.Fatalf("second publish without --overwrite should fail; err=%v stderr=%s", err, stderr)
	}
	run("publish", "--to", out, "--overwrite")
}

func TestCLI_BackupRestore(t *testing.T) {
	run, _ := newWorkspace(t)
	run("spaces", "create", "--name", "Home", "--use")
	def := dataMap(t, run("actions", "create", "--name", "Water", "--points", "4"))
	run("log", def["id"].(string))

	path := filepath.Join(t.TempDir(), "home.jsonl")
	out := dataMap(t, run("backup", "export", "--to", path))
	if sum := out["summary"].(map[string]any); sum["records"] != 4.0 {
		t.Fatalf("expected space, action, log and progress; got %v", sum)
	}

	run("reset", "--yes")
	if got := dataList(t, run("spaces", "list")); len(got) != 0 {
		t.Fatalf("reset: got %v", got)
	}

	run("backup", "restore", path, "--yes")
	if got := dataList(t, run("spaces", "list")); len(got) != 1 {
		t.Fatalf("restore: got %v", got)
	}
	if prog := dataMap(t, run("progress")); prog["points"] != 4.0 {
		t.Fatalf("restored progress: got %v", prog)
	}
}

var errNotFoundForTest = mutate.NotFoundError{Kind: "action", ID: "act-x"}

func jsonDeepEqual(a, b any) bool {
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
