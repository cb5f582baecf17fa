package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/firmlink/internal/model"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testMatches() []model.Match {
	return []model.Match{
		{EntityID: "E1", FirmID: "F1", Confidence: 0.98, Method: model.MethodExactName, Tier: model.TierStructured, MatchedKey: "MICROSOFT", CandidateCount: 1},
		{EntityID: "E2", FirmID: "F2", Confidence: 0.92, Method: model.MethodFuzzySimilarity, Tier: model.TierFuzzy, Ambiguous: true, RunnerUpFirmID: "F3", CandidateCount: 2},
		model.Unmatched("E3"),
	}
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("CreateAndGetRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		cfg := json.RawMessage(`{"min_confidence":0.94}`)
		run, err := s.CreateRun(ctx, cfg)
		require.NoError(t, err)
		assert.NotEmpty(t, run.ID)
		assert.Equal(t, model.RunStatusRunning, run.Status)

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, run.ID, got.ID)
		assert.Equal(t, model.RunStatusRunning, got.Status)
		assert.JSONEq(t, string(cfg), string(got.Config))
	})

	t.Run("GetRunNotFound", func(t *testing.T) {
		s := newStore(t)

		_, err := s.GetRun(context.Background(), "missing")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("UpdateRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, nil)
		require.NoError(t, err)

		Summarize(run, testMatches())
		run.Status = model.RunStatusComplete
		require.NoError(t, s.UpdateRun(ctx, run))

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusComplete, got.Status)
		assert.Equal(t, 3, got.Entities)
		assert.Equal(t, 2, got.Matched)
		assert.Equal(t, 1, got.Ambiguous)
		assert.Nil(t, got.Config)

		err = s.UpdateRun(ctx, &model.Run{ID: "missing", Status: model.RunStatusFailed})
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("ListRuns", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		a, err := s.CreateRun(ctx, nil)
		require.NoError(t, err)
		_, err = s.CreateRun(ctx, nil)
		require.NoError(t, err)

		a.Status = model.RunStatusComplete
		require.NoError(t, s.UpdateRun(ctx, a))

		all, err := s.ListRuns(ctx, RunFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		done, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
		require.NoError(t, err)
		require.Len(t, done, 1)
		assert.Equal(t, a.ID, done[0].ID)

		one, err := s.ListRuns(ctx, RunFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, one, 1)
	})

	t.Run("SaveAndGetMatches", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, nil)
		require.NoError(t, err)

		n, err := s.SaveMatches(ctx, run.ID, testMatches())
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		m, err := s.GetMatch(ctx, run.ID, "E2")
		require.NoError(t, err)
		assert.Equal(t, testMatches()[1], *m)

		u, err := s.GetMatch(ctx, run.ID, "E3")
		require.NoError(t, err)
		assert.False(t, u.Matched())

		_, err = s.GetMatch(ctx, run.ID, "E9")
		assert.True(t, errors.Is(err, ErrNotFound))

		all, err := s.ListMatches(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, testMatches(), all)
	})

	t.Run("SaveMatchesReplaces", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, nil)
		require.NoError(t, err)

		_, err = s.SaveMatches(ctx, run.ID, testMatches())
		require.NoError(t, err)
		_, err = s.SaveMatches(ctx, run.ID, testMatches()[:1])
		require.NoError(t, err)

		all, err := s.ListMatches(ctx, run.ID)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("ValidationAndLabels", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, nil)
		require.NoError(t, err)

		records := []model.ValidationRecord{
			{Index: 0, Stratum: "1|exact_name|>=0.98", Match: testMatches()[0]},
			{Index: 1, Stratum: "2|fuzzy_similarity|0.90-0.94", Match: testMatches()[1]},
		}
		records[0].Match.MatchedKey, records[0].Match.CandidateCount = "", 0
		records[1].Match.Ambiguous, records[1].Match.RunnerUpFirmID, records[1].Match.CandidateCount = false, "", 0
		require.NoError(t, s.SaveValidation(ctx, run.ID, records))

		require.NoError(t, s.UpdateLabel(ctx, run.ID, 1, model.LabelIncorrect, "different company"))

		got, err := s.ListValidation(ctx, run.ID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, records[0], got[0])
		assert.Equal(t, model.LabelIncorrect, got[1].Label)
		assert.Equal(t, "different company", got[1].Note)
		assert.Equal(t, records[1].Match, got[1].Match)

		err = s.UpdateLabel(ctx, run.ID, 7, model.LabelCorrect, "")
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}

func TestSummarize(t *testing.T) {
	run := &model.Run{Matched: 9}
	Summarize(run, testMatches())
	assert.Equal(t, 3, run.Entities)
	assert.Equal(t, 2, run.Matched)
	assert.Equal(t, 1, run.Ambiguous)
}
