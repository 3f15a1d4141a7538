package capability

import "strings"

// IsSubset reports whether child is equal to or narrower than parent:
// the child's resource pattern must be covered by the parent's, the child's
// actions must be a subset of the parent's (or the parent holds the action
// wildcard), and every child constraint must be equal to or stricter than the
// parent's constraint under the same key.
//
// A constraint key absent from the child inherits the parent's value, so
// inheritance can never widen scope. A constraint key present only in the
// child is a further restriction and is always permitted.
func IsSubset(child, parent Capability) bool {
	if !PatternCovers(parent.Resource, child.Resource) {
		return false
	}
	if !actionsSubset(child.Actions, parent.Actions) {
		return false
	}
	for key, parentConstraint := range parent.Constraints {
		childConstraint, ok := child.Constraints[key]
		if !ok {
			// Inherited: the child is bound by the parent's value.
			continue
		}
		if !childConstraint.narrows(parentConstraint) {
			return false
		}
	}
	return true
}

func actionsSubset(child, parent []Action) bool {
	for _, p := range parent {
		if p == Wildcard {
			return true
		}
	}
	for _, c := range child {
		if c == Wildcard {
			// Parent has no wildcard (checked above), so a child wildcard
			// always widens.
			return false
		}
		found := false
		for _, p := range parent {
			if c == p {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// PatternCovers reports whether the parent resource pattern covers the child
// pattern. Patterns are slash-delimited; a trailing "*" segment in the parent
// matches any remaining child segments (including a child wildcard). Without
// a wildcard, segments must match pairwise and counts must be equal.
func PatternCovers(parent, child string) bool {
	parentSegs := strings.Split(parent, "/")
	childSegs := strings.Split(child, "/")

	for i, seg := range parentSegs {
		if seg == Wildcard && i == len(parentSegs)-1 {
			return true
		}
		if i >= len(childSegs) {
			return false
		}
		if childSegs[i] == Wildcard {
			// The child generalizes a segment the parent pins down.
			return false
		}
		if childSegs[i] != seg {
			return false
		}
	}
	return len(childSegs) == len(parentSegs)
}

// MatchResource reports whether a concrete resource path matches a pattern.
// Resources carry no wildcards; this is PatternCovers with the child treated
// as literal segments.
func MatchResource(pattern, resource string) bool {
	patternSegs := strings.Split(pattern, "/")
	resourceSegs := strings.Split(resource, "/")

	for i, seg := range patternSegs {
		if seg == Wildcard && i == len(patternSegs)-1 {
			return true
		}
		if i >= len(resourceSegs) || resourceSegs[i] != seg {
			return false
		}
	}
	return len(resourceSegs) == len(patternSegs)
}
