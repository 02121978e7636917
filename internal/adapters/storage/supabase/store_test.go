package supabase_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/chatrelay/internal/adapters/storage/supabase"
	"github.com/PabloGalante/chatrelay/internal/domain"
)

type fakePostgREST struct {
	mu      sync.Mutex
	status  int
	reply   string
	paths   []string
	apiKeys []string
	rows    []map[string]any
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.paths = append(f.paths, r.Method+" "+r.URL.Path)
	f.apiKeys = append(f.apiKeys, r.Header.Get("apikey"))

	var row map[string]any
	if err := json.NewDecoder(r.Body).Decode(&row); err == nil {
		f.rows = append(f.rows, row)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	_, _ = w.Write([]byte(f.reply))
}

func newFake(t *testing.T, status int, reply string) (*fakePostgREST, *httptest.Server) {
	t.Helper()
	fake := &fakePostgREST{status: status, reply: reply}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return fake, srv
}

func TestRecordInsertsOneRow(t *testing.T) {
	fake, srv := newFake(t, http.StatusCreated, "")

	store, err := supabase.NewStore(srv.URL, "anon-key", "")
	require.NoError(t, err)

	err = store.Record(context.Background(), domain.ChatHistoryRecord{
		UserName: "Ann",
		Message:  "Hello",
		Response: "Hi there!",
	})
	require.NoError(t, err)

	require.Equal(t, []string{"POST /rest/v1/chat_history"}, fake.paths)
	assert.Equal(t, "anon-key", fake.apiKeys[0])
	require.Len(t, fake.rows, 1)
	assert.Equal(t, map[string]any{
		"user_name": "Ann",
		"message":   "Hello",
		"response":  "Hi there!",
	}, fake.rows[0])
}

func TestRecordUsesConfiguredTable(t *testing.T) {
	fake, srv := newFake(t, http.StatusCreated, "")

	store, err := supabase.NewStore(srv.URL, "anon-key", "audit_log")
	require.NoError(t, err)

	require.NoError(t, store.Record(context.Background(), domain.ChatHistoryRecord{UserName: "Ann"}))
	assert.Equal(t, []string{"POST /rest/v1/audit_log"}, fake.paths)
}

func TestRecordSurfacesServiceError(t *testing.T) {
	fake, srv := newFake(t, http.StatusUnauthorized,
		`{"code":"42501","message":"permission denied for table chat_history"}`)

	store, err := supabase.NewStore(srv.URL, "bad-key", "")
	require.NoError(t, err)

	err = store.Record(context.Background(), domain.ChatHistoryRecord{UserName: "Ann", Message: "m", Response: "r"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supabase insert into chat_history")
	assert.Len(t, fake.paths, 1, "no retry")
}

func TestNewStoreRequiresCredentials(t *testing.T) {
	_, err := supabase.NewStore("", "key", "")
	require.Error(t, err)

	_, err = supabase.NewStore("https://x.supabase.co", "", "")
	require.Error(t, err)
}
