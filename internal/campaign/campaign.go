// internal/campaign/campaign.go
package campaign

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quasim-core/circuit"
	"quasim-core/kernel"
	"quasim-core/precision"
	"quasim-core/seed"
)

// Trajectory count bounds for one campaign.
const (
	MinTrajectories = 64
	MaxTrajectories = 8192
)

// Config controls one campaign run.
type Config struct {
	Trajectories int // [MinTrajectories, MaxTrajectories]
	Workers      int // 0 = all CPUs

	Precision precision.Mode
	Backend   string
	Tag       string // vehicle/context tag carried into every result

	Environment seed.Environment
	BaseSeed    uint64
	AutoSeed    bool // draw the base seed once from system entropy

	FidelityThreshold float64 // 0 = kernel default (0.97)
	NominalReference  float64 // 0 = DefaultNominalReference
	WorkspaceLimit    int64

	// Noise-model pass-through; zero keeps the kernel defaults.
	NoiseAmplitude float64
	FaultRate      float64
}

// Report is the campaign output: the immutable result set, statistics
// recomputed over exactly that set, and run identity for the evidence
// trail.
type Report struct {
	CampaignID  string
	Environment seed.Environment
	Precision   precision.Mode
	Backend     string
	BaseSeed    uint64
	BaseAuto    bool
	Cancelled   bool
	Results     []Result
	Stats       Statistics
}

// Engine orchestrates N independent trajectories over one circuit
// template: derive a seed per index, execute concurrently, merge partial
// results, compute statistics.
type Engine struct {
	cfg  Config
	mgr  *seed.Manager
	kern *kernel.Kernel
	log  *zap.Logger
}

// Option configures an Engine.
type Option func(*engineOpts)

type engineOpts struct {
	logger *zap.Logger
	sink   seed.AuditSink
}

// WithLogger routes operational events to logger.
func WithLogger(l *zap.Logger) Option { return func(o *engineOpts) { o.logger = l } }

// WithAuditSink wires the seed manager's audit trail to sink.
func WithAuditSink(s seed.AuditSink) Option { return func(o *engineOpts) { o.sink = s } }

// New validates cfg and negotiates the kernel backend.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if cfg.Trajectories < MinTrajectories || cfg.Trajectories > MaxTrajectories {
		return nil, fmt.Errorf("trajectory count %d outside [%d,%d]", cfg.Trajectories, MinTrajectories, MaxTrajectories)
	}
	if _, err := seed.ParseEnvironment(string(cfg.Environment)); err != nil {
		return nil, err
	}
	if cfg.NominalReference == 0 {
		cfg.NominalReference = DefaultNominalReference
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Tag == "" {
		cfg.Tag = "sim"
	}

	o := engineOpts{logger: zap.NewNop()}
	for _, fn := range opts {
		fn(&o)
	}

	var mgrOpts []seed.Option
	if o.sink != nil {
		mgrOpts = append(mgrOpts, seed.WithSink(o.sink))
	}
	var mgr *seed.Manager
	if cfg.AutoSeed {
		mgr = seed.NewAuto(mgrOpts...)
	} else {
		mgr = seed.New(cfg.BaseSeed, mgrOpts...)
	}

	kern, err := kernel.New(kernel.Config{
		Precision:         cfg.Precision,
		Backend:           cfg.Backend,
		FidelityThreshold: cfg.FidelityThreshold,
		WorkspaceLimit:    cfg.WorkspaceLimit,
		NoiseAmplitude:    cfg.NoiseAmplitude,
		FaultRate:         cfg.FaultRate,
	}, o.logger)
	if err != nil {
		return nil, err
	}

	return &Engine{cfg: cfg, mgr: mgr, kern: kern, log: o.logger}, nil
}

// BackendName reports the negotiated backend.
func (e *Engine) BackendName() string { return e.kern.BackendName() }

// Run executes the campaign. Per-trajectory numeric instability is
// recorded as a failed, non-converged result; the campaign never aborts
// on it. Cancellation stops feeding new trajectories, lets in-flight ones
// complete, and reports statistics over the completed set.
func (e *Engine) Run(ctx context.Context, template circuit.Circuit) (*Report, error) {
	if err := template.Validate(); err != nil {
		return nil, err
	}

	recs, err := e.mgr.GenerateBatch(e.cfg.Trajectories, e.cfg.Environment)
	if err != nil {
		// CollisionError lands here: fatal to the batch, never retried.
		return nil, err
	}
	base, err := e.mgr.BaseSeed()
	if err != nil {
		return nil, err
	}

	n := e.cfg.Trajectories
	results := make([]Result, n)
	completed := make([]bool, n)

	var (
		fatalMu  sync.Mutex
		fatalErr error
	)
	runCtx, abort := context.WithCancel(ctx)
	defer abort()

	jobs := make(chan int, e.cfg.Workers*2)
	var wg sync.WaitGroup
	wg.Add(e.cfg.Workers)
	for w := 0; w < e.cfg.Workers; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				// Completed-once semantics: a trajectory taken from the
				// queue always finishes, even under cancellation.
				res, rerr := e.runOne(recs[idx], template)
				if rerr != nil {
					fatalMu.Lock()
					if fatalErr == nil {
						fatalErr = rerr
					}
					fatalMu.Unlock()
					abort()
					return
				}
				results[idx] = res
				completed[idx] = true
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case jobs <- i:
		case <-runCtx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if fatalErr != nil {
		return nil, fatalErr
	}

	done := make([]Result, 0, n)
	for i := range results {
		if completed[i] {
			done = append(done, results[i])
		}
	}
	stats := Compute(done, e.cfg.NominalReference)
	done, stats.Outliers = markOutliers(done, stats)

	report := &Report{
		CampaignID:  uuid.NewString(),
		Environment: e.cfg.Environment,
		Precision:   e.cfg.Precision,
		Backend:     e.kern.BackendName(),
		BaseSeed:    base,
		BaseAuto:    e.cfg.AutoSeed,
		Cancelled:   ctx.Err() != nil,
		Results:     done,
		Stats:       stats,
	}
	e.log.Info("campaign complete",
		zap.String("campaign_id", report.CampaignID),
		zap.Int("count", stats.Count),
		zap.Int("failures", stats.Failures),
		zap.Float64("mean_fidelity", stats.MeanFidelity),
		zap.Bool("cancelled", report.Cancelled))
	return report, nil
}

// runOne executes a single trajectory. Instability is folded into the
// result; any other kernel error is fatal to the campaign.
func (e *Engine) runOne(rec seed.Record, template circuit.Circuit) (Result, error) {
	out, err := e.kern.Execute(template, rec.DerivedSeed)
	now := time.Now().UTC()
	if err != nil {
		var ierr *kernel.InstabilityError
		if errors.As(err, &ierr) {
			e.log.Warn("trajectory unstable",
				zap.Uint32("batch_index", rec.BatchIndex),
				zap.Int("op", ierr.Step))
			return Result{
				TrajectoryID: trajectoryID(rec.BatchIndex, rec.DerivedSeed),
				Tag:          e.cfg.Tag,
				Index:        rec.BatchIndex,
				DerivedSeed:  rec.DerivedSeed,
				Converged:    false,
				Failed:       true,
				Err:          err.Error(),
				LatencyMS:    1e-6,
				Timestamp:    now,
			}, nil
		}
		return Result{}, err
	}
	return Result{
		TrajectoryID: trajectoryID(rec.BatchIndex, rec.DerivedSeed),
		Tag:          e.cfg.Tag,
		Index:        rec.BatchIndex,
		DerivedSeed:  rec.DerivedSeed,
		Fidelity:     out.Fidelity,
		Purity:       out.Purity,
		Converged:    out.Converged,
		LatencyMS:    out.LatencyMS,
		Timestamp:    now,
	}, nil
}
