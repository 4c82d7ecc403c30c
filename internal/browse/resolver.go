package browse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sentinel-console/sentinel/internal/auditlog"
	"github.com/sentinel-console/sentinel/internal/users"
)

// SentinelUnauthenticated is the reserved filter value selecting entries with
// no resolved actor identity. It maps to the literal null token on the wire,
// which is distinct from leaving the field blank.
const SentinelUnauthenticated = "unauthenticated"

// Resolver normalizes free-text actor input into the tri-state user filter.
// The username to id table is built once per session from the user directory.
type Resolver struct {
	byName map[string]int64
}

// NewResolver builds the lookup table from the directory.
func NewResolver(directory []users.User) *Resolver {
	byName := make(map[string]int64, len(directory))
	for _, u := range directory {
		name := strings.ToLower(strings.TrimSpace(u.Username))
		if name == "" {
			continue
		}
		if _, exists := byName[name]; !exists {
			byName[name] = u.ID
		}
	}
	return &Resolver{byName: byName}
}

// Resolve normalizes one actor input value. Blank means unset. Numeric input
// is always taken as an id literal, so a purely numeric username is shadowed;
// that precedence is inherited behavior pending product clarification and must
// not be changed silently.
func (r *Resolver) Resolve(input string) (auditlog.UserIDFilter, error) {
	value := strings.TrimSpace(input)
	if value == "" {
		return auditlog.UserIDFilter{}, nil
	}
	if strings.EqualFold(value, SentinelUnauthenticated) {
		return auditlog.UserIDFilter{Set: true, Null: true}, nil
	}
	if id, err := strconv.ParseInt(value, 10, 64); err == nil {
		return auditlog.UserIDFilter{Set: true, ID: id}, nil
	}
	if id, ok := r.byName[strings.ToLower(value)]; ok {
		return auditlog.UserIDFilter{Set: true, ID: id}, nil
	}
	return auditlog.UserIDFilter{}, fmt.Errorf("%w: unknown user %q", ErrValidation, value)
}

// Known reports whether a username resolves without error. Used by callers
// that swallow resolution failures while the operator is still typing.
func (r *Resolver) Known(input string) bool {
	_, err := r.Resolve(input)
	return err == nil
}
