package campaign

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quasim-core/circuit"
	"quasim-core/precision"
	"quasim-core/seed"
)

func baseConfig() Config {
	return Config{
		Trajectories: MinTrajectories,
		Workers:      4,
		Precision:    precision.FP64,
		Environment:  seed.EnvTest,
		BaseSeed:     42,
		Tag:          "unit",
	}
}

func template(t *testing.T) circuit.Circuit {
	t.Helper()
	return circuit.Random(4, 12, 42)
}

func TestNewRejectsTrajectoryRange(t *testing.T) {
	for _, n := range []int{0, MinTrajectories - 1, MaxTrajectories + 1} {
		cfg := baseConfig()
		cfg.Trajectories = n
		_, err := New(cfg)
		assert.Error(t, err, "count %d must be rejected", n)
	}
}

func TestNewRejectsUnknownEnvironment(t *testing.T) {
	cfg := baseConfig()
	cfg.Environment = "staging"
	_, err := New(cfg)
	var ierr *seed.InvalidEnvironmentError
	require.ErrorAs(t, err, &ierr)
}

func TestRunDeterministic(t *testing.T) {
	tmpl := template(t)
	run := func(workers int) *Report {
		cfg := baseConfig()
		cfg.Workers = workers
		eng, err := New(cfg)
		require.NoError(t, err)
		rep, err := eng.Run(context.Background(), tmpl)
		require.NoError(t, err)
		return rep
	}

	a := run(1)
	b := run(8)
	require.Len(t, a.Results, MinTrajectories)
	require.Len(t, b.Results, len(a.Results))
	for i := range a.Results {
		ra, rb := a.Results[i], b.Results[i]
		assert.Equal(t, ra.TrajectoryID, rb.TrajectoryID)
		assert.Equal(t, ra.DerivedSeed, rb.DerivedSeed)
		// Bitwise, not approximate: same seed, same result, regardless
		// of worker count or completion order.
		assert.Equal(t, ra.Fidelity, rb.Fidelity, "trajectory %d", i)
		assert.Equal(t, ra.Purity, rb.Purity, "trajectory %d", i)
		assert.Equal(t, ra.Converged, rb.Converged, "trajectory %d", i)
		assert.Equal(t, ra.Failed, rb.Failed, "trajectory %d", i)
	}
	assert.Equal(t, a.Stats.MeanFidelity, b.Stats.MeanFidelity)
	assert.Equal(t, a.Stats.Failures, b.Stats.Failures)
	assert.NotEqual(t, a.CampaignID, b.CampaignID, "campaign identity is per run")
}

func TestRunTrajectoryIDsDeterministic(t *testing.T) {
	cfg := baseConfig()
	eng, err := New(cfg)
	require.NoError(t, err)
	rep, err := eng.Run(context.Background(), template(t))
	require.NoError(t, err)
	for i, r := range rep.Results {
		assert.True(t, strings.HasPrefix(r.TrajectoryID, "traj-"), "trajectory %d: %q", i, r.TrajectoryID)
		assert.Equal(t, trajectoryID(r.Index, r.DerivedSeed), r.TrajectoryID)
		assert.Equal(t, "unit", r.Tag)
		assert.False(t, r.Timestamp.IsZero())
		assert.Greater(t, r.LatencyMS, 0.0)
	}
}

func TestRunToleratesTrajectoryFailures(t *testing.T) {
	cfg := baseConfig()
	cfg.FaultRate = 1.0 // every trajectory trips the stability check
	eng, err := New(cfg)
	require.NoError(t, err)
	rep, err := eng.Run(context.Background(), template(t))
	require.NoError(t, err, "per-trajectory instability must not abort the campaign")

	require.Len(t, rep.Results, MinTrajectories)
	assert.Equal(t, MinTrajectories, rep.Stats.Failures)
	assert.Zero(t, rep.Stats.ConvergenceRate)
	for _, r := range rep.Results {
		assert.True(t, r.Failed)
		assert.False(t, r.Converged)
		assert.Zero(t, r.Fidelity)
		assert.NotEmpty(t, r.Err)
	}
}

func TestRunPartialFailureAccounting(t *testing.T) {
	cfg := baseConfig()
	cfg.Trajectories = 256
	eng, err := New(cfg)
	require.NoError(t, err)
	rep, err := eng.Run(context.Background(), template(t))
	require.NoError(t, err)

	failed := 0
	for _, r := range rep.Results {
		if r.Failed {
			failed++
			assert.False(t, r.Converged, "failed trajectory cannot be converged")
			assert.Zero(t, r.Fidelity)
		}
	}
	assert.Equal(t, failed, rep.Stats.Failures)
	assert.Equal(t, 256, rep.Stats.Count)
}

func TestRunNoFaultsNoFailures(t *testing.T) {
	cfg := baseConfig()
	cfg.FaultRate = -1
	eng, err := New(cfg)
	require.NoError(t, err)
	rep, err := eng.Run(context.Background(), template(t))
	require.NoError(t, err)
	assert.Zero(t, rep.Stats.Failures)
}

// The reference acceptance scenario: base seed 42, 1024 trajectories,
// fp64, default noise model. Statistics land in the certification regime.
func TestRunReferenceScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("1024-trajectory campaign")
	}
	cfg := baseConfig()
	cfg.Trajectories = 1024
	cfg.Workers = 8
	eng, err := New(cfg)
	require.NoError(t, err)
	rep, err := eng.Run(context.Background(), template(t))
	require.NoError(t, err)

	s := rep.Stats
	assert.Equal(t, 1024, s.Count)
	assert.Greater(t, s.MeanFidelity, 0.94)
	assert.Less(t, s.MeanFidelity, 0.9999)
	assert.Less(t, s.StandardError, 0.01)
	assert.Greater(t, s.ConvergenceRate, 0.95)
	assert.False(t, rep.Cancelled)
	assert.Equal(t, uint64(42), rep.BaseSeed)
	assert.False(t, rep.BaseAuto)
}

func TestRunCancellation(t *testing.T) {
	cfg := baseConfig()
	cfg.Trajectories = 1024
	eng, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancelled before feeding starts
	rep, err := eng.Run(ctx, template(t))
	require.NoError(t, err, "cancellation yields a partial report, not an error")

	assert.True(t, rep.Cancelled)
	assert.Less(t, len(rep.Results), 1024)
	assert.Equal(t, len(rep.Results), rep.Stats.Count)
	for _, r := range rep.Results {
		// Anything reported completed in full.
		assert.NotEmpty(t, r.TrajectoryID)
		assert.False(t, r.Timestamp.IsZero())
	}
}

func TestRunRejectsInvalidTemplate(t *testing.T) {
	eng, err := New(baseConfig())
	require.NoError(t, err)
	_, err = eng.Run(context.Background(), circuit.Circuit{})
	var verr *circuit.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestRunOutlierFlagging(t *testing.T) {
	cfg := baseConfig()
	cfg.Trajectories = 512
	eng, err := New(cfg)
	require.NoError(t, err)
	rep, err := eng.Run(context.Background(), template(t))
	require.NoError(t, err)

	flagged := 0
	for _, r := range rep.Results {
		if r.Outlier {
			flagged++
		}
	}
	assert.Equal(t, flagged, rep.Stats.Outliers)
	// Flagged results stay in the set and in the statistics.
	assert.Equal(t, 512, rep.Stats.Count)
}

func TestRunAuditTrail(t *testing.T) {
	var events []seed.Event
	sink := seed.AuditSinkFunc(func(ev seed.Event) error {
		events = append(events, ev)
		return nil
	})
	eng, err := New(baseConfig(), WithAuditSink(sink))
	require.NoError(t, err)
	_, err = eng.Run(context.Background(), template(t))
	require.NoError(t, err)

	require.Len(t, events, MinTrajectories)
	for i, ev := range events {
		assert.Equal(t, seed.EventGenerateBatch, ev.Kind)
		assert.Equal(t, uint32(i), ev.Record.BatchIndex)
		assert.Equal(t, seed.EnvTest, ev.Record.Environment)
	}
}
