package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/i474232898/gridmet-summary/internal/summary"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls []summary.Preset
	dirs  []string
	err   error
}

func (f *fakeRunner) RunPreset(ctx context.Context, p summary.Preset, dir string) (summary.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := ctx.Deadline(); !ok {
		return summary.Record{}, errors.New("missing deadline")
	}
	f.calls = append(f.calls, p)
	f.dirs = append(f.dirs, dir)
	return summary.Record{ID: "rec"}, f.err
}

func TestScheduler_NoJobs(t *testing.T) {
	s := New(zap.NewNop(), nil, time.Second, &fakeRunner{})
	require.NoError(t, s.Start())
	assert.Equal(t, 0, s.Len())
	s.Stop()
}

func TestScheduler_RegistersJobs(t *testing.T) {
	jobs := []Job{
		{Name: "monthly", Preset: summary.PresetMonthlyPrecip, Cron: "0 6 2 * *", OutputDir: "data/pr"},
		{Name: "annual", Preset: summary.PresetAnnualPrecip, Cron: "0 7 2 * *", OutputDir: "data/pr"},
	}
	s := New(zap.NewNop(), jobs, time.Second, &fakeRunner{})
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Equal(t, 2, s.Len())
}

func TestScheduler_RejectsUnknownPreset(t *testing.T) {
	jobs := []Job{{Name: "bad", Preset: "hourly_wind", Cron: "* * * * *"}}
	s := New(zap.NewNop(), jobs, time.Second, &fakeRunner{})
	err := s.Start()
	assert.ErrorIs(t, err, summary.ErrUnknownPreset)
}

func TestScheduler_RejectsBadCron(t *testing.T) {
	jobs := []Job{{Name: "bad", Preset: summary.PresetMonthlyPrecip, Cron: "not a cron"}}
	s := New(zap.NewNop(), jobs, time.Second, &fakeRunner{})
	require.Error(t, s.Start())
}

func TestScheduler_RunUsesBoundedContext(t *testing.T) {
	r := &fakeRunner{}
	s := New(zap.NewNop(), nil, time.Second, r)

	s.run(Job{Name: "monthly", Preset: summary.PresetMonthlyPrecip, OutputDir: "out"})

	assert.Equal(t, []summary.Preset{summary.PresetMonthlyPrecip}, r.calls)
	assert.Equal(t, []string{"out"}, r.dirs)
}

func TestScheduler_RunLogsFailure(t *testing.T) {
	r := &fakeRunner{err: errors.New("boom")}
	s := New(zap.NewNop(), nil, time.Second, r)

	assert.NotPanics(t, func() {
		s.run(Job{Name: "monthly", Preset: summary.PresetMonthlyPrecip})
	})
	assert.Len(t, r.calls, 1)
}
