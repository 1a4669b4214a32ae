package analytics_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasksync/internal/analytics"
	"tasksync/internal/credential"
	"tasksync/internal/normalize"
	"tasksync/internal/service"
	"tasksync/internal/session"
	"tasksync/internal/testutil"
	"tasksync/internal/transport"
)

func server(t *testing.T, path string, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

type chainFixture struct {
	holder *credential.Holder
	nav    *testutil.RecordingNavigator
	chain  *analytics.Chain
}

func newChain(t *testing.T, primary, local string) *chainFixture {
	t.Helper()
	f := &chainFixture{holder: credential.NewHolder(nil), nav: &testutil.RecordingNavigator{}}
	require.NoError(t, f.holder.Set("tok"))
	tr := transport.New(primary, nil, f.holder, transport.WithFallback(local, nil))
	sess := session.NewHandler(f.holder, f.nav, nil)
	f.chain = analytics.NewChain(sess, nil, analytics.SameOrigin(tr), analytics.Backend(tr))
	return f
}

func TestChain_LocalFirst(t *testing.T) {
	local, localHits := server(t, analytics.LocalPath, 200, `{"timeseries":[{"date":"2024-01-01","desktop":"5"}]}`)
	primary, primaryHits := server(t, analytics.BackendPath, 200, `[]`)
	f := newChain(t, primary.URL, local.URL)

	s, err := f.chain.Series(context.Background())
	require.NoError(t, err)

	assert.Equal(t, service.Series{{"date": "2024-01-01", "desktop": 5.0}}, s)
	assert.EqualValues(t, 1, atomic.LoadInt32(localHits))
	assert.EqualValues(t, 0, atomic.LoadInt32(primaryHits))
}

func TestChain_FallsThroughToBackend(t *testing.T) {
	local, _ := server(t, analytics.LocalPath, 500, `boom`)
	primary, _ := server(t, analytics.BackendPath, 200,
		`{"2024-01-02":{"a":3,"b":4},"2024-01-01":{"a":1,"b":2}}`)
	f := newChain(t, primary.URL, local.URL)

	s, err := f.chain.Series(context.Background())
	require.NoError(t, err)

	assert.Equal(t, service.Series{
		{"date": "2024-01-01", "a": 1.0, "b": 2.0},
		{"date": "2024-01-02", "a": 3.0, "b": 4.0},
	}, s)
}

func TestChain_NoSameOriginConfigured(t *testing.T) {
	primary, _ := server(t, analytics.BackendPath, 200, `{"chart":[{"date":"2024-01-01","x":1}]}`)
	f := newChain(t, primary.URL, "")

	s, err := f.chain.Series(context.Background())
	require.NoError(t, err)
	assert.Len(t, s, 1)
}

func TestChain_AuthExpiredStops(t *testing.T) {
	local, _ := server(t, analytics.LocalPath, 401, ``)
	primary, primaryHits := server(t, analytics.BackendPath, 200, `[]`)
	f := newChain(t, primary.URL, local.URL)

	_, err := f.chain.Series(context.Background())

	assert.True(t, session.IsAuthExpired(err))
	assert.False(t, f.holder.Present())
	assert.Equal(t, []session.Route{session.RouteLogin}, f.nav.Routes())
	assert.EqualValues(t, 0, atomic.LoadInt32(primaryHits))
}

func TestChain_NoData(t *testing.T) {
	local, _ := server(t, analytics.LocalPath, 500, ``)
	primary, _ := server(t, analytics.BackendPath, 502, ``)
	f := newChain(t, primary.URL, local.URL)

	_, err := f.chain.Series(context.Background())
	assert.True(t, errors.Is(err, analytics.ErrNoData))
}

func TestChain_SourceFunc(t *testing.T) {
	calls := 0
	empty := analytics.SourceFunc{Label: "empty", Fn: func(context.Context) (any, error) {
		calls++
		return nil, nil
	}}
	demo := analytics.SourceFunc{Label: "demo", Fn: func(context.Context) (any, error) {
		return normalize.Decode([]byte(`[{"date":"2024-03-01","m":2}]`)), nil
	}}
	chain := analytics.NewChain(nil, nil, empty, demo)

	s, err := chain.Series(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"m"}, normalize.Keys(s))
}

func days(n int, last time.Time) service.Series {
	s := make(service.Series, 0, n)
	for i := n - 1; i >= 0; i-- {
		s = append(s, service.Record{"date": last.AddDate(0, 0, -i).Format("2006-01-02"), "v": float64(i)})
	}
	return s
}

func TestFilter(t *testing.T) {
	last := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	s := days(100, last)

	assert.Len(t, analytics.Filter(s, analytics.Range7d, time.Now()), 8)
	assert.Len(t, analytics.Filter(s, analytics.Range30d, time.Now()), 31)
	assert.Len(t, analytics.Filter(s, analytics.Range90d, time.Now()), 91)
	assert.Len(t, analytics.Filter(days(60, last), analytics.Range90d, time.Now()), 60)
	assert.Empty(t, analytics.Filter(nil, analytics.Range7d, time.Now()))
}

func TestFilter_UnparsableReference(t *testing.T) {
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	s := service.Series{
		{"date": "2024-06-25", "v": 1.0},
		{"date": "2024-01-01", "v": 2.0},
		{"date": "not a date", "v": 3.0},
	}

	got := analytics.Filter(s, analytics.Range7d, now)
	assert.Equal(t, service.Series{{"date": "2024-06-25", "v": 1.0}}, got)
}

func TestParseRange(t *testing.T) {
	for _, in := range []string{"", "90d", "30d", "7d"} {
		_, err := analytics.ParseRange(in)
		assert.NoError(t, err, in)
	}
	r, _ := analytics.ParseRange("")
	assert.Equal(t, analytics.Range90d, r)
	_, err := analytics.ParseRange("14d")
	assert.Error(t, err)
}

func TestVisible(t *testing.T) {
	s := service.Series{{"date": "d", "f": 1.0, "e": 1.0, "d2": 1.0, "c": 1.0, "b": 1.0, "a": 1.0}}
	assert.Equal(t, []string{"a", "b", "c", "d2"}, analytics.Visible(s))
	assert.Empty(t, analytics.Visible(nil))
}

func TestLabel(t *testing.T) {
	tests := map[string]string{
		"desktop":     "Desktop",
		"page_views":  "Page Views",
		"bounce-rate": "Bounce Rate",
		"a1b":         "A1b",
		"already Up":  "Already Up",
		"":            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, analytics.Label(in), in)
	}
}

func TestTotals(t *testing.T) {
	s := service.Series{
		{"date": "a", "x": 1.0, "note": "n/a"},
		{"date": "b", "x": 2.5},
	}
	assert.Equal(t, map[string]float64{"x": 3.5}, analytics.Totals(s))
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		key   string
		value float64
		want  string
	}{
		{"todos", 10001, "Very high activity"},
		{"todos", 10000, "High activity"},
		{"todos", 101, "Moderate activity"},
		{"todos", 100, "Low activity"},
		{"users", 100001, "Large userbase"},
		{"users", 10001, "Growing userbase"},
		{"users", 1001, "Active users"},
		{"users", 0, "Small userbase"},
		{"positions", 10001, "Many positions"},
		{"positions", 1001, "Healthy positions"},
		{"positions", 1000, "Few positions"},
		{"total", 1001, "High data volume"},
		{"total", 101, "Moderate data"},
		{"total", 3, "Low data"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s=%v", tt.key, tt.value), func(t *testing.T) {
			payload := normalize.Decode([]byte(fmt.Sprintf(`{%q:%v}`, tt.key, tt.value)))
			var found bool
			for _, c := range analytics.Summarize(payload) {
				if c.Known {
					found = true
					assert.Equal(t, tt.want, c.Description)
					assert.Equal(t, tt.value, c.Value)
				}
			}
			assert.True(t, found)
		})
	}
}

func TestSummarize_Unknown(t *testing.T) {
	cards := analytics.Summarize(normalize.Decode([]byte(`{"todos":"12","users":null}`)))
	require.Len(t, cards, 4)
	for _, c := range cards {
		assert.False(t, c.Known, c.Key)
		assert.Equal(t, analytics.NoData, c.Description)
	}
	assert.Len(t, analytics.Summarize(nil), 4)
}
