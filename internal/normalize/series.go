package normalize

import (
	"sort"

	"tasksync/internal/service"
)

// Series normalizes an analytics payload. The date field becomes a string
// and every other field becomes a float64 when it parses as a number,
// otherwise it keeps its decoded value (null becomes "").
func Series(v any) service.Series {
	env := SeriesEnvelope(v)
	out := make(service.Series, 0, len(env.Records))
	for _, raw := range env.Records {
		rec := object(raw)
		norm := make(service.Record, len(rec)+1)
		norm[service.DateKey] = toString(rec[service.DateKey])
		for k, val := range rec {
			if k == service.DateKey {
				continue
			}
			norm[k] = metric(val)
		}
		out = append(out, norm)
	}
	return out
}

func metric(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		return t
	}
	if n, ok := toNumber(v); ok {
		return n
	}
	return v
}

// Keys returns the metric keys of the first record, sorted, excluding date.
// Later records may carry other keys; they are kept in storage but not
// reported here.
func Keys(s service.Series) []string {
	if len(s) == 0 {
		return nil
	}
	keys := make([]string, 0, len(s[0]))
	for k := range s[0] {
		if k != service.DateKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
