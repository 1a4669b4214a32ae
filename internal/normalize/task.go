package normalize

import (
	"github.com/google/uuid"

	"tasksync/internal/service"
)

// PlaceholderID returns a fresh locally generated identifier for a task the
// backend returned without one.
func PlaceholderID() service.ID {
	return service.StringID("local-" + uuid.NewString())
}

// Tasks normalizes a task-list payload. The result has exactly one task per
// candidate record, in order; records are defaulted, never dropped.
func Tasks(v any) []service.Task {
	env := TaskEnvelope(v)
	out := make([]service.Task, len(env.Records))
	for i, rec := range env.Records {
		out[i] = taskFromRecord(object(rec))
	}
	return out
}

func taskFromRecord(rec map[string]any) service.Task {
	t := service.Task{
		Title:       toString(rec["title"]),
		Description: toString(rec["description"]),
	}
	if id, ok := toID(rec["id"]); ok {
		t.ID = id
	} else {
		t.ID = PlaceholderID()
	}
	if n, ok := toNumber(rec["userId"]); ok {
		t.UserID = n
	}
	t.IsCompleted, _ = toCompletion(rec["isCompleted"])
	return t
}

// Task normalizes the single-task response of a create or update call.
// Fields the response omits are taken from fallback; a missing id with no
// fallback id gets a placeholder.
func Task(v any, fallback service.Task) service.Task {
	rec := object(unwrapData(v))
	t := fallback

	if id, ok := toID(rec["id"]); ok {
		t.ID = id
	} else if t.ID.IsZero() {
		t.ID = PlaceholderID()
	}
	if raw, ok := rec["userId"]; ok && raw != nil {
		if n, ok := toNumber(raw); ok {
			t.UserID = n
		}
	}
	if raw, ok := rec["title"]; ok && raw != nil {
		t.Title = toString(raw)
	}
	if raw, ok := rec["description"]; ok && raw != nil {
		t.Description = toString(raw)
	}
	if c, ok := toCompletion(rec["isCompleted"]); ok {
		t.IsCompleted = c
	}
	return t
}

// Completion reads the done state from a toggle response, looking at
// isCompleted and then isDone. known is false when neither is present.
func Completion(v any) (c service.Completion, known bool) {
	rec := object(unwrapData(v))
	for _, key := range []string{"isCompleted", "isDone"} {
		raw, ok := rec[key]
		if !ok || raw == nil {
			continue
		}
		c, _ = toCompletion(raw)
		return c, true
	}
	return service.Number(0), false
}

// Token extracts a bearer token from a login response: token, accessToken,
// then data.token. Empty strings are skipped.
func Token(v any) string {
	rec := object(v)
	for _, key := range []string{"token", "accessToken"} {
		if s, ok := rec[key].(string); ok && s != "" {
			return s
		}
	}
	if s, ok := object(rec["data"])["token"].(string); ok {
		return s
	}
	return ""
}

// Message extracts a human-readable message from a response body.
func Message(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if s, ok := t["message"].(string); ok {
			return s
		}
		if s, ok := t["error"].(string); ok {
			return s
		}
	}
	return ""
}

// unwrapData returns v["data"] when v is {data:{...}} without task fields of
// its own.
func unwrapData(v any) any {
	rec, ok := v.(map[string]any)
	if !ok {
		return v
	}
	if _, hasID := rec["id"]; hasID {
		return v
	}
	if inner, ok := rec["data"].(map[string]any); ok {
		return inner
	}
	return v
}
