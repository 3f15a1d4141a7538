// Package pii detects personally identifiable information in message
// payloads. Detection feeds the consent verifier: a pii-classified message
// must carry a consent token whose subject types cover every type found here.
package pii

import (
	"regexp"
	"sort"
	"strings"
)

// Type identifies a category of personally identifiable information.
type Type string

// Known PII types.
const (
	TypeEmail       Type = "email"
	TypePhone       Type = "phone"
	TypeSSN         Type = "ssn"
	TypeCreditCard  Type = "credit_card"
	TypeIPAddress   Type = "ip_address"
	TypeDateOfBirth Type = "date_of_birth"
)

var patterns = map[Type]*regexp.Regexp{
	TypeEmail:       regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
	TypePhone:       regexp.MustCompile(`\+?[1-9]\d{7,14}`),
	TypeSSN:         regexp.MustCompile(`\d{3}-\d{2}-\d{4}`),
	TypeCreditCard:  regexp.MustCompile(`\d{4}[\s\-]?\d{4}[\s\-]?\d{4}[\s\-]?\d{4}`),
	TypeIPAddress:   regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`),
	TypeDateOfBirth: regexp.MustCompile(`\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}`),
}

// Detector scans text for PII patterns.
type Detector struct{}

// NewDetector creates a regex-based PII detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect returns the sorted set of PII types found in text.
func (d *Detector) Detect(text string) []Type {
	var found []Type
	for piiType, pattern := range patterns {
		if pattern.MatchString(text) {
			found = append(found, piiType)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i] < found[j] })
	return found
}

// ContainsPII reports whether text contains any detectable PII.
func (d *Detector) ContainsPII(text string) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// Mask replaces the middle of each detected PII value with asterisks, keeping
// the first and last two characters of values longer than four characters.
func (d *Detector) Mask(text string) string {
	result := text
	for _, pattern := range patterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			if len(match) <= 4 {
				return strings.Repeat("*", len(match))
			}
			return match[:2] + strings.Repeat("*", len(match)-4) + match[len(match)-2:]
		})
	}
	return result
}

// Redact replaces each detected PII value with a "[REDACTED:<TYPE>]" marker.
func (d *Detector) Redact(text string) string {
	result := text
	for piiType, pattern := range patterns {
		marker := "[REDACTED:" + strings.ToUpper(string(piiType)) + "]"
		result = pattern.ReplaceAllString(result, marker)
	}
	return result
}

// CoveredBy reports whether every detected type appears in the allowed set.
func CoveredBy(detected []Type, allowed []Type) bool {
	permitted := make(map[Type]struct{}, len(allowed))
	for _, t := range allowed {
		permitted[t] = struct{}{}
	}
	for _, t := range detected {
		if _, ok := permitted[t]; !ok {
			return false
		}
	}
	return true
}
