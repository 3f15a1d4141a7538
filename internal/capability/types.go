// Package capability implements the pure capability model: resource patterns,
// action sets, constraints, and the subset/narrowing relation every other
// authorization component builds on. All functions are deterministic and free
// of side effects, so they may be called concurrently without synchronization.
package capability

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Wildcard matches any action, or any remaining resource segments when used
// as the final segment of a resource pattern.
const Wildcard = "*"

// Action is a named operation on a resource (for example "send" or "read").
type Action string

// Capability grants a set of actions on resources matching a slash-delimited
// pattern, optionally narrowed by constraints.
type Capability struct {
	Resource    string               `json:"resource"`
	Actions     []Action             `json:"actions"`
	Constraints map[string]Constraint `json:"constraints,omitempty"`
}

// PermitsAction reports whether the capability's action set contains the
// action, either literally or through the wildcard.
func (c Capability) PermitsAction(action Action) bool {
	for _, a := range c.Actions {
		if a == Wildcard || a == action {
			return true
		}
	}
	return false
}

// String renders the capability in "resource: action,action" form for logs
// and audit records.
func (c Capability) String() string {
	actions := make([]string, len(c.Actions))
	for i, a := range c.Actions {
		actions[i] = string(a)
	}
	return fmt.Sprintf("%s: %s", c.Resource, strings.Join(actions, ","))
}

// ConstraintKind discriminates the constraint value types carried on the wire.
type ConstraintKind int

const (
	// KindNumber is an upper numeric bound (child bound must be <= parent's).
	KindNumber ConstraintKind = iota
	// KindString is an exact-match value.
	KindString
	// KindBool is an exact-match flag.
	KindBool
	// KindSet is a set of allowed string values (child set must be a subset).
	KindSet
)

// Constraint is a single constraint value. On the wire it is a bare JSON
// number, string, boolean, or array of strings; the kind is inferred during
// decoding.
type Constraint struct {
	kind ConstraintKind
	num  float64
	str  string
	b    bool
	set  []string
}

// Number creates a numeric upper-bound constraint.
func Number(v float64) Constraint { return Constraint{kind: KindNumber, num: v} }

// String creates an exact-match string constraint.
func String(v string) Constraint { return Constraint{kind: KindString, str: v} }

// Bool creates an exact-match boolean constraint.
func Bool(v bool) Constraint { return Constraint{kind: KindBool, b: v} }

// Set creates a set-membership constraint.
func Set(values ...string) Constraint { return Constraint{kind: KindSet, set: values} }

// Kind returns the constraint's value kind.
func (c Constraint) Kind() ConstraintKind { return c.kind }

// MarshalJSON renders the constraint as its bare wire value.
func (c Constraint) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case KindNumber:
		return json.Marshal(c.num)
	case KindString:
		return json.Marshal(c.str)
	case KindBool:
		return json.Marshal(c.b)
	case KindSet:
		return json.Marshal(c.set)
	default:
		return nil, fmt.Errorf("unknown constraint kind %d", c.kind)
	}
}

// UnmarshalJSON infers the constraint kind from the JSON value type.
func (c *Constraint) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		*c = Number(v)
	case string:
		*c = String(v)
	case bool:
		*c = Bool(v)
	case []any:
		values := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("constraint sets may only contain strings, got %T", item)
			}
			values = append(values, s)
		}
		*c = Set(values...)
	default:
		return fmt.Errorf("unsupported constraint value type %T", raw)
	}
	return nil
}

// narrows reports whether the child constraint is equal to or stricter than
// the parent constraint. Kinds must match: a numeric bound cannot narrow a
// set, and mismatched kinds are treated as a widening attempt.
func (c Constraint) narrows(parent Constraint) bool {
	if c.kind != parent.kind {
		return false
	}
	switch c.kind {
	case KindNumber:
		return c.num <= parent.num
	case KindString:
		return c.str == parent.str
	case KindBool:
		return c.b == parent.b
	case KindSet:
		return subsetOf(c.set, parent.set)
	default:
		return false
	}
}

func subsetOf(child, parent []string) bool {
	allowed := make(map[string]struct{}, len(parent))
	for _, v := range parent {
		allowed[v] = struct{}{}
	}
	for _, v := range child {
		if _, ok := allowed[v]; !ok {
			return false
		}
	}
	return true
}
