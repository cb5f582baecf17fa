package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/firmlink/internal/model"
	"github.com/sells-group/firmlink/internal/store"
)

type fixture struct {
	srv   *httptest.Server
	store store.Store
	runID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(ctx))

	run, err := st.CreateRun(ctx, json.RawMessage(`{"min_confidence":0.94}`))
	require.NoError(t, err)

	matches := []model.Match{
		{EntityID: "E1", FirmID: "F1", Confidence: 0.98, Method: model.MethodExactName, Tier: model.TierStructured, CandidateCount: 1},
		{EntityID: "E2", FirmID: "F2", Confidence: 0.92, Method: model.MethodFuzzySimilarity, Tier: model.TierFuzzy, CandidateCount: 1},
		model.Unmatched("E3"),
	}
	_, err = st.SaveMatches(ctx, run.ID, matches)
	require.NoError(t, err)
	require.NoError(t, st.SaveValidation(ctx, run.ID, []model.ValidationRecord{
		{Index: 0, Stratum: "1|exact_name|>=0.98", Match: matches[0]},
		{Index: 1, Stratum: "2|fuzzy_similarity|0.90-0.94", Match: matches[1]},
	}))

	srv := httptest.NewServer(New(st, Options{MinAccuracy: 0.9}).Handler())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, store: st, runID: run.ID}
}

func (f *fixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "ok", decode[map[string]string](t, resp)["status"])
}

func TestListRuns(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/runs", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	runs := decode[[]model.Run](t, resp)
	require.Len(t, runs, 1)
	assert.Equal(t, f.runID, runs[0].ID)

	resp = f.do(t, http.MethodGet, "/runs?status=failed", "")
	assert.Empty(t, decode[[]model.Run](t, resp))

	resp = f.do(t, http.MethodGet, "/runs?limit=many", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetRun(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/runs/"+f.runID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	run := decode[model.Run](t, resp)
	assert.JSONEq(t, `{"min_confidence":0.94}`, string(run.Config))

	resp = f.do(t, http.MethodGet, "/runs/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetMatch(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/runs/"+f.runID+"/matches/E1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	m := decode[model.Match](t, resp)
	assert.Equal(t, "F1", m.FirmID)
	assert.Equal(t, model.MethodExactName, m.Method)

	resp = f.do(t, http.MethodGet, "/runs/"+f.runID+"/matches/E3", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw := decode[map[string]any](t, resp)
	assert.Nil(t, raw["firm_id"])

	resp = f.do(t, http.MethodGet, "/runs/"+f.runID+"/matches/E404", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLabelFlow(t *testing.T) {
	f := newFixture(t)
	base := "/runs/" + f.runID

	resp := f.do(t, http.MethodPut, base+"/validation/0", `{"label":"yes"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "correct", decode[map[string]any](t, resp)["label"])

	resp = f.do(t, http.MethodPut, base+"/validation/1", `{"label":"incorrect","note":"different company"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, base+"/validation", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	records := decode[[]model.ValidationRecord](t, resp)
	require.Len(t, records, 2)
	assert.Equal(t, model.LabelCorrect, records[0].Label)
	assert.Equal(t, "different company", records[1].Note)

	resp = f.do(t, http.MethodGet, base+"/validation?label=incorrect", "")
	filtered := decode[[]model.ValidationRecord](t, resp)
	require.Len(t, filtered, 1)
	assert.Equal(t, 1, filtered[0].Index)

	resp = f.do(t, http.MethodGet, base+"/accuracy", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	acc := decode[accuracyResponse](t, resp)
	assert.InDelta(t, 0.5, acc.Accuracy, 1e-9)
	assert.Equal(t, 1, acc.Report.Overall.Correct)
	assert.Equal(t, 1, acc.Report.Overall.Incorrect)
	assert.Equal(t, []model.Method{model.MethodExactName}, acc.Acceptable)
	assert.Less(t, acc.CILow, acc.Accuracy)
	assert.Greater(t, acc.CIHigh, acc.Accuracy)
}

func TestUpdateLabel_BadRequests(t *testing.T) {
	f := newFixture(t)
	base := "/runs/" + f.runID + "/validation/"

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"bad index", base + "x", `{"label":"yes"}`, http.StatusBadRequest},
		{"negative index", base + "-1", `{"label":"yes"}`, http.StatusBadRequest},
		{"bad body", base + "0", `{`, http.StatusBadRequest},
		{"bad label", base + "0", `{"label":"kind of"}`, http.StatusBadRequest},
		{"missing row", base + "42", `{"label":"yes"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.do(t, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, decode[map[string]string](t, resp)["error"])
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodOptions, f.srv.URL+"/runs/"+f.runID+"/validation/0", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://labeler.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
