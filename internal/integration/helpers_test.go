package integration_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// loadPages reads the recorded catalog responses, one per page.
func loadPages(t *testing.T) []json.RawMessage {
	t.Helper()
	data, err := os.ReadFile("testdata/catalog_pages.json")
	require.NoError(t, err, "read catalog fixture")

	var pages []json.RawMessage
	require.NoError(t, json.Unmarshal(data, &pages), "parse catalog fixture")
	return pages
}

// fakeCatalog serves recorded pages by their _page parameter. Pages past the
// end answer with an empty item list.
type fakeCatalog struct {
	*httptest.Server

	mu        sync.Mutex
	requested []int
}

func newFakeCatalog(t *testing.T, pages []json.RawMessage) *fakeCatalog {
	t.Helper()
	fc := &fakeCatalog{}
	fc.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, err := strconv.Atoi(r.URL.Query().Get("_page"))
		if err != nil {
			http.Error(w, "bad _page", http.StatusBadRequest)
			return
		}
		fc.mu.Lock()
		fc.requested = append(fc.requested, page)
		fc.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if page < len(pages) {
			_, _ = w.Write(pages[page])
			return
		}
		_, _ = w.Write([]byte(`{"format": "linked-data-api", "result": {"items": []}}`))
	}))
	t.Cleanup(fc.Close)
	return fc
}

func (fc *fakeCatalog) pagesRequested() []int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return append([]int(nil), fc.requested...)
}
