package internal

import (
	"bytes"
	"context"
	"errors"
	"filmsync/internal/models"
	"filmsync/internal/report"
	"filmsync/internal/structures"
	"filmsync/internal/testutil"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSyncService struct {
	report *models.RunReport
	err    error
}

func (s *stubSyncService) Run(_ context.Context) (*models.RunReport, error) {
	return s.report, s.err
}

func runSyncApp(t *testing.T, svc *stubSyncService) (int, *bytes.Buffer, *testutil.MockMetrics, *testutil.MockSnapshotStore) {
	t.Helper()
	metrics := &testutil.MockMetrics{}
	store := &testutil.MockSnapshotStore{}
	app := NewSyncApp(&structures.CliFlags{Output: report.FormatJSON}, &testutil.MockLogger{}, svc, store, metrics)

	var out bytes.Buffer
	code := app.Run(context.Background(), &out)
	return code, &out, metrics, store
}

func TestSyncApp_ExitCodes(t *testing.T) {
	tests := []struct {
		name string
		rep  *models.RunReport
		want int
	}{
		{"changed", &models.RunReport{RunID: "a", HasChanges: true}, models.ExitChanged},
		{"unchanged", &models.RunReport{RunID: "b"}, models.ExitUnchanged},
		{"failed", &models.RunReport{RunID: "c", FailedPhase: "Persisting"}, models.ExitFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, metrics, store := runSyncApp(t, &stubSyncService{report: tt.rep})

			assert.Equal(t, tt.want, code)
			assert.Equal(t, 1, metrics.Pushes)
			assert.True(t, store.Closed)

			var printed models.RunReport
			require.NoError(t, json.Unmarshal(out.Bytes(), &printed))
			assert.Equal(t, tt.rep.RunID, printed.RunID)
		})
	}
}

func TestSyncApp_NilReportIsFailure(t *testing.T) {
	code, out, _, _ := runSyncApp(t, &stubSyncService{err: errors.New("boom")})

	assert.Equal(t, models.ExitFailed, code)
	assert.Contains(t, out.String(), "boom")
}
