package cryptoutil

import (
	"bytes"
	"encoding/json"
	"sort"

	apperrors "github.com/moltid/authcore/internal/errors"
)

// CanonicalJSON serializes a value as compact JSON with lexicographically
// sorted object keys. Signatures are always computed over this form so that
// signer and verifier agree on the exact bytes regardless of field order in
// the original document.
//
// HTML escaping is disabled: the wire protocol is JSON-over-JSON and must not
// mangle payload contents.
func CanonicalJSON(v any) ([]byte, error) {
	// Round-trip through the generic JSON tree so struct field order and
	// custom marshalers cannot influence the output.
	intermediate, err := json.Marshal(v)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal for canonicalization")
	}

	var tree any
	decoder := json.NewDecoder(bytes.NewReader(intermediate))
	decoder.UseNumber()
	if err := decoder.Decode(&tree); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode for canonicalization")
	}

	var buf bytes.Buffer
	if err := writeCanonical(&buf, tree); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch value := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(value))
		for k := range value {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeScalar(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, value[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil

	case []any:
		buf.WriteByte('[')
		for i, item := range value {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil

	case json.Number:
		buf.WriteString(value.String())
		return nil

	default:
		return writeScalar(buf, v)
	}
}

func writeScalar(buf *bytes.Buffer, v any) error {
	encoder := json.NewEncoder(buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return apperrors.Wrap(err, "failed to encode canonical scalar")
	}
	// json.Encoder appends a trailing newline; canonical form has none.
	buf.Truncate(buf.Len() - 1)
	return nil
}
