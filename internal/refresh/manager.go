package refresh

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mariusnicorescu85/uk-property-investment/internal/models"
	"github.com/mariusnicorescu85/uk-property-investment/internal/realtime"
)

// ErrAlreadyRunning is returned when a refresh is requested while a
// previous run is still in flight.
var ErrAlreadyRunning = errors.New("refresh already running")

// Predictor generates one full prediction, persisting its snapshot as a
// side effect.
type Predictor interface {
	GeneratePredictions(ctx context.Context, postcode string) (*models.PredictionResponse, error)
}

// Notifier receives the summary of a finished run.
type Notifier interface {
	NotifyRefreshSummary(summary models.RefreshSummary) error
}

// Manager drives the scheduled bulk refreshes: it fans the configured
// postcodes over a bounded worker pool and reports one summary per run.
type Manager struct {
	predictor Predictor
	economic  realtime.EconomicSource
	logger    *logrus.Logger
	postcodes []string
	workers   int
	notifier  Notifier

	mu      sync.Mutex
	running bool
}

// NewManager creates a refresh manager over the given postcode list.
func NewManager(predictor Predictor, economic realtime.EconomicSource, postcodes []string, workers int, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	if workers < 1 {
		workers = 1
	}

	return &Manager{
		predictor: predictor,
		economic:  economic,
		logger:    logger,
		postcodes: postcodes,
		workers:   workers,
	}
}

// SetNotifier wires an optional notification sink for run summaries.
func (m *Manager) SetNotifier(notifier Notifier) {
	m.notifier = notifier
}

// Running reports whether a refresh is currently in flight.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// RefreshAll regenerates predictions for every configured postcode. Only
// one run may be active at a time.
func (m *Manager) RefreshAll(ctx context.Context) (*models.RefreshSummary, error) {
	if err := m.begin(); err != nil {
		return nil, err
	}
	defer m.end()

	started := time.Now()
	m.logger.WithFields(logrus.Fields{
		"postcodes": len(m.postcodes),
		"workers":   m.workers,
	}).Info("Starting refresh run")

	jobs := make(chan string)
	var resultMu sync.Mutex
	var failures []string
	succeeded := 0

	var wg sync.WaitGroup
	for i := 0; i < m.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for postcode := range jobs {
				if _, err := m.predictor.GeneratePredictions(ctx, postcode); err != nil {
					m.logger.WithError(err).WithField("postcode", postcode).Warn("Refresh failed for postcode")
					resultMu.Lock()
					failures = append(failures, fmt.Sprintf("%s: %v", postcode, err))
					resultMu.Unlock()
					continue
				}
				resultMu.Lock()
				succeeded++
				resultMu.Unlock()
			}
		}()
	}

	for _, postcode := range m.postcodes {
		jobs <- postcode
	}
	close(jobs)
	wg.Wait()

	summary := &models.RefreshSummary{
		StartedAt: started,
		Duration:  time.Since(started),
		Requested: len(m.postcodes),
		Succeeded: succeeded,
		Failed:    len(failures),
		Failures:  failures,
	}

	m.logger.WithFields(logrus.Fields{
		"requested": summary.Requested,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"duration":  summary.Duration.Round(time.Millisecond).String(),
	}).Info("Refresh run finished")

	if m.notifier != nil {
		if err := m.notifier.NotifyRefreshSummary(*summary); err != nil {
			m.logger.WithError(err).Warn("Could not send refresh notification")
		}
	}

	return summary, nil
}

// WarmEconomic fetches the four macro indicators so the cache stays hot
// between requests. Failures only cost the warm start; the next request
// falls back as usual.
func (m *Manager) WarmEconomic(ctx context.Context) {
	indicators := []struct {
		name  string
		fetch func(context.Context) (float64, error)
	}{
		{"base rate", m.economic.BaseRate},
		{"inflation", m.economic.Inflation},
		{"unemployment", m.economic.Unemployment},
		{"gdp growth", m.economic.GDPGrowth},
	}

	for _, indicator := range indicators {
		if _, err := indicator.fetch(ctx); err != nil {
			m.logger.WithError(err).Warnf("Could not warm %s", indicator.name)
		}
	}
}

func (m *Manager) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return ErrAlreadyRunning
	}
	m.running = true
	return nil
}

func (m *Manager) end() {
	m.mu.Lock()
	m.running = false
	m.mu.Unlock()
}
