package cli

import (
	"errors"
	"testing"

	"momentum-cli/internal/model"
)

func TestParseStepFlag(t *testing.T) {
	t.Parallel()

	in, err := parseStepFlag("Log weights:3:form")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if *in.Description != "Log weights" || *in.PointsPerStep != 3 || *in.StepType != model.StepTypeDataEntry {
		t.Fatalf("unexpected step: %+v", in)
	}

	in, err = parseStepFlag("Stretch")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if in.PointsPerStep != nil || in.StepType != nil {
		t.Fatalf("unset parts should stay nil: %+v", in)
	}

	for _, bad := range []string{"", ":5", "Stretch:five", "Stretch:1:video", "a:1:description:extra"} {
		if _, err := parseStepFlag(bad); !errors.Is(err, errUsage) {
			t.Fatalf("parseStepFlag(%q): expected usage error, got %v", bad, err)
		}
	}
}

func TestParseFieldFlag(t *testing.T) {
	t.Parallel()

	in, err := parseFieldFlag("hours:Hours slept:number:required")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if *in.Name != "hours" || *in.Label != "Hours slept" || *in.FieldType != model.FieldNumber || !*in.IsRequired {
		t.Fatalf("unexpected field: %+v", in)
	}

	in, err = parseFieldFlag("mood")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if *in.Label != "mood" || in.FieldType != nil || in.IsRequired != nil {
		t.Fatalf("label defaults to name, the rest stays unset: %+v", in)
	}

	if _, err := parseFieldFlag("mood:Mood:text:maybe"); !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestParseKeyValues(t *testing.T) {
	t.Parallel()

	got, err := parseKeyValues([]string{"mood=calm", "done=true", "note=a=b", "hours= 7 "})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := map[string]any{"mood": "calm", "done": true, "note": "a=b", "hours": " 7 "}
	if !jsonDeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if _, err := parseKeyValues([]string{"=x"}); !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestErrorCode(t *testing.T) {
	t.Parallel()

	tests := map[string]error{
		"invalid_input": usagef("bad flag"),
		"not_found":     errors.Join(errors.New("ctx"), errNotFoundForTest),
		"internal":      errors.New("disk on fire"),
	}
	for want, err := range tests {
		if got := errorCode(err); got != want {
			t.Fatalf("errorCode(%v) = %q want %q", err, got, want)
		}
	}
}
