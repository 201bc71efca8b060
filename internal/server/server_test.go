package server_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/pubsift-cli/internal/columns"
	"github.com/KaramelBytes/pubsift-cli/internal/server"
	"github.com/KaramelBytes/pubsift-cli/internal/table"
	"github.com/KaramelBytes/pubsift-cli/internal/workbench"
)

func newServer(t *testing.T) *server.Server {
	t.Helper()
	data := table.New(
		[]string{"Title", "Authors", "Abstract", "MeSH terms"},
		[][]string{
			{"Cancer in mice", "Smith J; Lee K", "tumour growth", "Neoplasms"},
			{"Sleep and memory", "Lee K", "sleep study", "Sleep"},
			{"Heart failure", "Park S", "", "Cardiology"},
		},
	)
	cols, err := columns.ResolvePublications(data)
	require.NoError(t, err)
	return server.New(server.Options{Data: data, Columns: cols, ExportFilename: "out.csv"})
}

func do(t *testing.T, s *server.Server, method, path, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) server.BaseResponse[T] {
	t.Helper()
	defer resp.Body.Close()
	var out server.BaseResponse[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createSession(t *testing.T, s *server.Server) string {
	t.Helper()
	resp := do(t, s, http.MethodPost, "/api/v1/sessions", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	res := decode[struct {
		ID   string         `json:"id"`
		KPIs workbench.KPIs `json:"kpis"`
	}](t, resp)
	require.True(t, res.Success)
	assert.Equal(t, 3, res.Data.KPIs.Matches)
	return res.Data.ID
}

func createSessionMatches(t *testing.T, s *server.Server) int {
	t.Helper()
	resp := do(t, s, http.MethodPost, "/api/v1/sessions", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	res := decode[struct {
		KPIs workbench.KPIs `json:"kpis"`
	}](t, resp)
	return res.Data.KPIs.Matches
}

func TestColumnsEndpoint(t *testing.T) {
	s := newServer(t)
	res := decode[server.ColumnsResponse](t, do(t, s, http.MethodGet, "/api/v1/columns", ""))
	assert.True(t, res.Success)
	assert.Equal(t, "MeSH terms", res.Data.Keywords)
	assert.Equal(t, []string{"Title", "Abstract", "MeSH terms"}, res.Data.FieldOptions)
}

func TestFilterResultsAndExport(t *testing.T) {
	s := newServer(t)
	id := createSession(t, s)

	resp := do(t, s, http.MethodPut, "/api/v1/sessions/"+id+"/filter", `{"author":"lee","keyword":"sleep","fields":["mesh"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	k := decode[workbench.KPIs](t, resp)
	assert.Equal(t, workbench.KPIs{TotalRows: 3, Matches: 1}, k.Data)

	res := decode[server.ResultsResponse](t, do(t, s, http.MethodGet, "/api/v1/sessions/"+id+"/results?limit=10", ""))
	require.NotNil(t, res.Data.Results)
	assert.Equal(t, 1, res.Data.Results.TotalRows)
	assert.Equal(t, "Sleep and memory", res.Data.Results.Rows[0][0])

	resp = do(t, s, http.MethodGet, "/api/v1/sessions/"+id+"/export", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "out.csv")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("\xef\xbb\xbfTitle,Authors,Abstract,MeSH terms\n")))
	assert.Contains(t, string(body), "Sleep and memory")
}

func TestFilterRejectsBadInput(t *testing.T) {
	s := newServer(t)
	id := createSession(t, s)

	resp := do(t, s, http.MethodPut, "/api/v1/sessions/"+id+"/filter", `{"author":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, decode[any](t, resp).Success)

	resp = do(t, s, http.MethodPut, "/api/v1/sessions/"+id+"/filter", `{"keyword":"x","fields":["Journal"]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, s, http.MethodPut, "/api/v1/sessions/"+id+"/filter", `{"keyword":"x","fields":["  "]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, s, http.MethodGet, "/api/v1/sessions/"+id+"/results?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestResultsLimit(t *testing.T) {
	s := newServer(t)
	id := createSession(t, s)

	res := decode[server.ResultsResponse](t, do(t, s, http.MethodGet, "/api/v1/sessions/"+id+"/results?limit=1", ""))
	assert.Len(t, res.Data.Results.Rows, 1)
	assert.Equal(t, 3, res.Data.Results.TotalRows)

	res = decode[server.ResultsResponse](t, do(t, s, http.MethodGet, "/api/v1/sessions/"+id+"/results?limit=0", ""))
	assert.Len(t, res.Data.Results.Rows, 3)
}

func TestNewSessionsReloadDataset(t *testing.T) {
	first := table.New([]string{"Title", "Authors", "Abstract"}, [][]string{{"A", "Lee K", "x"}})
	cols, err := columns.ResolvePublications(first)
	require.NoError(t, err)

	next := first
	var reloadErr error
	calls := 0
	s := server.New(server.Options{
		Data:    first,
		Columns: cols,
		Reload: func() (*table.Table, columns.Resolved, error) {
			calls++
			return next, cols, reloadErr
		},
	})

	assert.Equal(t, 1, createSessionMatches(t, s))

	next = table.New([]string{"Title", "Authors", "Abstract"}, [][]string{{"A", "Lee K", "x"}, {"B", "Park S", "y"}})
	assert.Equal(t, 2, createSessionMatches(t, s))

	reloadErr = errors.New("file vanished")
	next = nil
	assert.Equal(t, 2, createSessionMatches(t, s), "a failed reload keeps the previous dataset")
	assert.Equal(t, 3, calls)

	res := decode[server.ColumnsResponse](t, do(t, s, http.MethodGet, "/api/v1/columns", ""))
	assert.Equal(t, []string{"Title", "Authors", "Abstract"}, res.Data.Available)
}

func TestUnknownSessionIs404(t *testing.T) {
	s := newServer(t)
	for _, path := range []string{
		"/api/v1/sessions/not-a-uuid/results",
		"/api/v1/sessions/6f1c1f0e-1111-4a4a-9b9b-000000000000/chat",
	} {
		resp := do(t, s, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestChatRoundTripAndClear(t *testing.T) {
	s := newServer(t)
	id := createSession(t, s)
	do(t, s, http.MethodPut, "/api/v1/sessions/"+id+"/filter", `{"author":"park"}`)

	resp := do(t, s, http.MethodPost, "/api/v1/sessions/"+id+"/chat", `{"query":"how many rows","scope":"filtered"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rep := decode[server.ReplyDTO](t, resp)
	assert.Contains(t, rep.Data.Text, "1 rows")
	assert.Nil(t, rep.Data.Table)

	resp = do(t, s, http.MethodPost, "/api/v1/sessions/"+id+"/chat", `{"query":"top authors","scope":"all"}`)
	rep = decode[server.ReplyDTO](t, resp)
	require.NotNil(t, rep.Data.Table)
	assert.Equal(t, []string{"Lee K", "2"}, rep.Data.Table.Rows[0])

	log := decode[struct {
		Scope string           `json:"scope"`
		Turns []server.TurnDTO `json:"turns"`
	}](t, do(t, s, http.MethodGet, "/api/v1/sessions/"+id+"/chat", ""))
	assert.Equal(t, "all", log.Data.Scope)
	assert.Len(t, log.Data.Turns, 5)

	resp = do(t, s, http.MethodPost, "/api/v1/sessions/"+id+"/chat", `{"query":"x","scope":"nowhere"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, s, http.MethodDelete, "/api/v1/sessions/"+id+"/chat", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	log = decode[struct {
		Scope string           `json:"scope"`
		Turns []server.TurnDTO `json:"turns"`
	}](t, do(t, s, http.MethodGet, "/api/v1/sessions/"+id+"/chat", ""))
	assert.Empty(t, log.Data.Turns)
}

func TestSessionsAreIsolated(t *testing.T) {
	s := newServer(t)
	a, b := createSession(t, s), createSession(t, s)
	do(t, s, http.MethodPut, "/api/v1/sessions/"+a+"/filter", `{"author":"smith"}`)

	ra := decode[server.ResultsResponse](t, do(t, s, http.MethodGet, "/api/v1/sessions/"+a+"/results", ""))
	rb := decode[server.ResultsResponse](t, do(t, s, http.MethodGet, "/api/v1/sessions/"+b+"/results", ""))
	assert.Equal(t, 1, ra.Data.KPIs.Matches)
	assert.Equal(t, 3, rb.Data.KPIs.Matches)

	resp := do(t, s, http.MethodDelete, "/api/v1/sessions/"+a, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = do(t, s, http.MethodGet, "/api/v1/sessions/"+a+"/results", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
