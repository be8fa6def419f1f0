package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"geo-api/internal/geodb"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSink struct {
	mu    sync.Mutex
	seqs  map[string]int
	calls int
	fail  string
}

func (m *memSink) UpsertBatch(_ context.Context, base int, recs []geodb.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.seqs == nil {
		m.seqs = map[string]int{}
	}
	for i, r := range recs {
		if r.Code == m.fail {
			return errors.New("boom")
		}
		m.seqs[r.Code] = base + i
	}
	return nil
}

func records(codes ...string) []geodb.Record {
	out := make([]geodb.Record, 0, len(codes))
	for _, c := range codes {
		out = append(out, geodb.Record{Code: c, Name: "n" + c, PostalCodes: []string{}})
	}
	return out
}

func TestImportBatchesKeepDatasetOrder(t *testing.T) {
	sink := &memSink{}
	err := Import(context.Background(), sink, records("a", "b", "c", "d", "e"), Options{BatchSize: 2, Workers: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, sink.calls)
	assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 2, "d": 3, "e": 4}, sink.seqs)
}

func TestImportRejectsDuplicatesBeforeWriting(t *testing.T) {
	sink := &memSink{}
	err := Import(context.Background(), sink, records("a", "b", "a"), Options{})
	assert.ErrorIs(t, err, geodb.ErrDuplicateCode)
	assert.Zero(t, sink.calls)
}

func TestImportReturnsBatchError(t *testing.T) {
	sink := &memSink{fail: "c"}
	err := Import(context.Background(), sink, records("a", "b", "c", "d"), Options{BatchSize: 1, Workers: 1})
	assert.EqualError(t, err, "boom")
}

func TestReadSourceOverHTTP(t *testing.T) {
	body := `[{"code":"1","nom":"Lyon","codesPostaux":["69001"]},{"code":"2","nom":"Paris"}]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/communes.json":
			_, _ = w.Write([]byte(body))
		case "/communes.json.gz":
			zw := gzip.NewWriter(w)
			_, _ = zw.Write([]byte(body))
			_ = zw.Close()
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	for _, p := range []string{"/communes.json", "/communes.json.gz?v=2"} {
		recs, err := ReadSource(context.Background(), srv.URL+p)
		require.NoError(t, err, p)
		require.Len(t, recs, 2)
		assert.Equal(t, "Lyon", recs[0].Name)
	}

	_, err := ReadSource(context.Background(), srv.URL+"/missing.json")
	var le *geodb.DatasetLoadError
	assert.ErrorAs(t, err, &le)
}

func TestFetchAndImport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"code":"2"},{"code":"1"}]`))
	}))
	defer srv.Close()

	sink := &memSink{}
	n, err := FetchAndImport(context.Background(), sink, srv.URL+"/x.json", Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	keys := make([]string, 0, len(sink.seqs))
	for k := range sink.seqs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{"1", "2"}, keys)
	assert.Equal(t, 0, sink.seqs["2"])
}

func TestNextWeekdayAt(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	// 2026-10-19 是周一
	mon := time.Date(2026, 10, 19, 2, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 10, 19, 3, 0, 0, 0, loc), nextWeekdayAt(mon, time.Monday, 3))

	late := time.Date(2026, 10, 19, 4, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 10, 26, 3, 0, 0, 0, loc), nextWeekdayAt(late, time.Monday, 3))

	wed := time.Date(2026, 10, 21, 12, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 10, 25, 3, 0, 0, 0, loc), nextWeekdayAt(wed, time.Sunday, 3))
}

func TestRunWeeklyStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunWeekly(ctx, &memSink{}, "unused", Options{}, time.UTC, time.Monday, 3)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunWeekly did not return after cancel")
	}
}
