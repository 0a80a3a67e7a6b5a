package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"momentum-cli/internal/mutate"
)

// errorCode is the stable machine-readable code in the error envelope.
func errorCode(err error) string {
	if errors.Is(err, errUsage) {
		return "invalid_input"
	}
	return mutate.Code(err)
}

var errUsage = errors.New("usage")

type usageError struct{ msg string }

func (e usageError) Error() string        { return e.msg }
func (e usageError) Is(target error) bool { return target == errUsage }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

func marshalEnvelope(env map[string]any) ([]byte, error) {
	return json.Marshal(env)
}
