// Package normalize turns response bodies of unknown shape into canonical
// task lists and analytics series.
//
// Nothing in this package returns an error for an unrecognized shape: a body
// that matches no known envelope normalizes to an empty result, so callers
// degrade to "no data" instead of failing.
package normalize

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/jsonc"
)

// Decode decodes a response body into a generic JSON value.
// Numbers decode as json.Number so identifiers keep their exact text.
// Comments and trailing commas are tolerated. An empty or invalid body
// decodes as nil.
func Decode(body []byte) any {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(body)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

// Encode re-encodes a canonical value so it can be fed back through Decode.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}
