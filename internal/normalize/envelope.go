package normalize

import "sort"

// Kind identifies which envelope convention a payload used.
type Kind int

const (
	KindEmpty Kind = iota
	KindBare
	KindData
	KindTasks
	KindTimeseries
	KindChart
	KindAnalytics
	KindDateKeyed
)

func (k Kind) String() string {
	switch k {
	case KindBare:
		return "bare"
	case KindData:
		return "data"
	case KindTasks:
		return "tasks"
	case KindTimeseries:
		return "timeseries"
	case KindChart:
		return "chart"
	case KindAnalytics:
		return "analytics"
	case KindDateKeyed:
		return "date-keyed"
	default:
		return "empty"
	}
}

// Envelope is a recognized payload shape together with its candidate records.
type Envelope struct {
	Kind    Kind
	Records []any
}

// matcher recognizes one envelope convention.
type matcher func(v any) (Envelope, bool)

var taskMatchers = []matcher{
	matchBare,
	matchKey("data", KindData),
	matchKey("tasks", KindTasks),
	matchKey("timeseries", KindTimeseries),
}

var seriesMatchers = []matcher{
	matchBare,
	matchKey("chart", KindChart),
	matchKey("data", KindData),
	matchKey("analytics", KindAnalytics),
	matchKey("timeseries", KindTimeseries),
	matchDateKeyed,
}

// TaskEnvelope classifies a task-list payload.
func TaskEnvelope(v any) Envelope {
	return match(v, taskMatchers)
}

// SeriesEnvelope classifies an analytics payload.
func SeriesEnvelope(v any) Envelope {
	return match(v, seriesMatchers)
}

func match(v any, matchers []matcher) Envelope {
	for _, m := range matchers {
		if env, ok := m(v); ok {
			return env
		}
	}
	return Envelope{Kind: KindEmpty}
}

func matchBare(v any) (Envelope, bool) {
	arr, ok := v.([]any)
	if !ok {
		return Envelope{}, false
	}
	return Envelope{Kind: KindBare, Records: arr}, true
}

func matchKey(key string, kind Kind) matcher {
	return func(v any) (Envelope, bool) {
		obj, ok := v.(map[string]any)
		if !ok {
			return Envelope{}, false
		}
		arr, ok := obj[key].([]any)
		if !ok {
			return Envelope{}, false
		}
		return Envelope{Kind: kind, Records: arr}, true
	}
}

// matchDateKeyed recognizes {"2024-01-01": {...}, ...}. Entries are ordered
// by key, which for ISO dates is chronological.
func matchDateKeyed(v any) (Envelope, bool) {
	obj, ok := v.(map[string]any)
	if !ok || len(obj) == 0 {
		return Envelope{}, false
	}
	keys := sortedKeys(obj)
	if _, ok := obj[keys[0]].(map[string]any); !ok {
		return Envelope{}, false
	}
	records := make([]any, 0, len(keys))
	for _, date := range keys {
		rec := map[string]any{}
		if fields, ok := obj[date].(map[string]any); ok {
			for k, val := range fields {
				rec[k] = val
			}
		}
		rec["date"] = date
		records = append(records, rec)
	}
	return Envelope{Kind: KindDateKeyed, Records: records}, true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
