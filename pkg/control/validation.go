// pkg/control/validation.go
package control

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
)

var validate = validator.New()

const defaultLogLines = 100

// ValidationError describes a rejected query parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ParseLogQuery extracts the lines parameter for GET /api/v1/log, falling
// back to the default when omitted. Non-numeric input casts to zero and is
// rejected by the range check.
func ParseLogQuery(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("lines"))
	if raw == "" {
		return defaultLogLines, nil
	}

	lines := cast.ToInt(raw)
	if err := validate.Var(lines, "min=1,max=1000"); err != nil {
		return 0, &ValidationError{Field: "lines", Reason: "must be between 1 and 1000"}
	}
	return lines, nil
}
