package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"momentum-cli/internal/model"
	"momentum-cli/internal/mutate"
	"momentum-cli/internal/schema"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// readDefinition decodes a YAML or JSON definition file ("-" reads stdin)
// into v. The document is re-encoded as JSON first so explicit nulls stay
// distinguishable from absent keys.
func readDefinition(cmd *cobra.Command, path string, v any) error {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(cmd.InOrStdin())
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return usagef("read %s: %v", path, err)
	}

	var doc any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return usagef("parse %s: %v", path, err)
	}
	if doc == nil {
		return usagef("%s is empty", path)
	}
	j, err := json.Marshal(doc)
	if err != nil {
		return usagef("parse %s: %v", path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(j))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return usagef("decode %s: %v", path, err)
	}
	return nil
}

// parseStepFlag reads "description[:points[:type]]".
func parseStepFlag(s string) (mutate.StepInput, error) {
	parts := strings.Split(s, ":")
	desc := strings.TrimSpace(parts[0])
	if desc == "" {
		return mutate.StepInput{}, usagef("--step %q: description is required", s)
	}
	in := mutate.StepInput{Description: &desc}
	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return mutate.StepInput{}, usagef("--step %q: points must be an integer", s)
		}
		in.PointsPerStep = &n
	}
	if len(parts) > 2 {
		t, err := schema.ParseStepType(parts[2])
		if err != nil {
			return mutate.StepInput{}, usagef("--step %q: %v", s, err)
		}
		in.StepType = &t
	}
	if len(parts) > 3 {
		return mutate.StepInput{}, usagef("--step %q: expected description[:points[:type]]", s)
	}
	return in, nil
}

// parseFieldFlag reads "name[:label[:type[:required]]]".
func parseFieldFlag(s string) (mutate.FieldInput, error) {
	parts := strings.Split(s, ":")
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return mutate.FieldInput{}, usagef("--field %q: name is required", s)
	}
	in := mutate.FieldInput{Name: &name}
	label := name
	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		label = strings.TrimSpace(parts[1])
	}
	in.Label = &label
	if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
		t, err := schema.ParseFieldType(parts[2])
		if err != nil {
			return mutate.FieldInput{}, usagef("--field %q: %v", s, err)
		}
		in.FieldType = &t
	}
	if len(parts) > 3 {
		switch strings.ToLower(strings.TrimSpace(parts[3])) {
		case "required", "req", "true", "yes":
			req := true
			in.IsRequired = &req
		case "", "optional", "false", "no":
		default:
			return mutate.FieldInput{}, usagef("--field %q: fourth part must be 'required' or 'optional'", s)
		}
	}
	if len(parts) > 4 {
		return mutate.FieldInput{}, usagef("--field %q: expected name[:label[:type[:required]]]", s)
	}
	return in, nil
}

func parseStepFlags(ss []string) ([]mutate.StepInput, error) {
	out := make([]mutate.StepInput, 0, len(ss))
	for _, s := range ss {
		in, err := parseStepFlag(s)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

func parseFieldFlags(ss []string) ([]mutate.FieldInput, error) {
	out := make([]mutate.FieldInput, 0, len(ss))
	for _, s := range ss {
		in, err := parseFieldFlag(s)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

// parseKeyValues turns repeated k=v flags into form data. Values stay strings;
// number fields are coerced during validation.
func parseKeyValues(kvs []string) (map[string]any, error) {
	out := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, usagef("--set %q: expected key=value", kv)
		}
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			out[k] = true
		case "false":
			out[k] = false
		default:
			out[k] = v
		}
	}
	return out, nil
}

func variantFlag(s string) (model.Variant, error) {
	v, err := schema.ParseVariant(s)
	if err != nil {
		return "", usagef("--variant: %v", err)
	}
	return v, nil
}

func stepFlagHelp() string {
	return fmt.Sprintf("Step as description[:points[:type]] (repeatable; type %s|%s)", model.StepTypeDescription, model.StepTypeDataEntry)
}
