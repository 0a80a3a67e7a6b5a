package statusutil

import (
	"fmt"
	"strings"

	"momentum-cli/internal/model"
)

// NormalizeTodoStatus maps user input onto the fixed board columns.
func NormalizeTodoStatus(s string) (model.TodoStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "todo", "to-do":
		return model.TodoStatusTodo, nil
	case "doing", "in-progress", "in_progress", "wip":
		return model.TodoStatusDoing, nil
	case "done", "complete", "completed":
		return model.TodoStatusDone, nil
	case "":
		return "", fmt.Errorf("invalid status: empty")
	default:
		return "", fmt.Errorf("invalid status: %q (want todo|doing|done)", strings.TrimSpace(s))
	}
}

func IsEndState(status model.TodoStatus) bool {
	return status == model.TodoStatusDone
}

// ParseTodoStatuses splits a comma-separated filter ("todo,doing").
func ParseTodoStatuses(s string) ([]model.TodoStatus, error) {
	var out []model.TodoStatus
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		st, err := NormalizeTodoStatus(part)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}
