package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mariusnicorescu85/uk-property-investment/internal/models"
)

type fakePredictor struct {
	mu        sync.Mutex
	calls     []string
	failFor   map[string]error
	gate      chan struct{}
	active    int
	maxActive int
}

func (f *fakePredictor) GeneratePredictions(ctx context.Context, postcode string) (*models.PredictionResponse, error) {
	f.mu.Lock()
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	f.calls = append(f.calls, postcode)
	gate := f.gate
	err := f.failFor[postcode]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	f.active--
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return &models.PredictionResponse{Success: true, Postcode: postcode}, nil
}

func (f *fakePredictor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakePredictor) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeNotifier struct {
	mu        sync.Mutex
	summaries []models.RefreshSummary
	err       error
}

func (n *fakeNotifier) NotifyRefreshSummary(summary models.RefreshSummary) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.summaries = append(n.summaries, summary)
	return n.err
}

type stubEconomic struct {
	mu     sync.Mutex
	calls  map[string]int
	errFor map[string]error
}

func (s *stubEconomic) record(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[name]++
	return s.errFor[name]
}

func (s *stubEconomic) BaseRate(ctx context.Context) (float64, error) {
	if err := s.record("baseRate"); err != nil {
		return 0, err
	}
	return 5.25, nil
}

func (s *stubEconomic) Inflation(ctx context.Context) (float64, error) {
	if err := s.record("inflation"); err != nil {
		return 0, err
	}
	return 3.2, nil
}

func (s *stubEconomic) Unemployment(ctx context.Context) (float64, error) {
	if err := s.record("unemployment"); err != nil {
		return 0, err
	}
	return 4.2, nil
}

func (s *stubEconomic) GDPGrowth(ctx context.Context) (float64, error) {
	if err := s.record("gdpGrowth"); err != nil {
		return 0, err
	}
	return 0.6, nil
}

func TestRefreshAll_AllSucceed(t *testing.T) {
	// Setup
	postcodes := []string{"SW1A 1AA", "M1 1AE", "EH1 1YZ", "CF10 1EP"}
	predictor := &fakePredictor{}
	manager := NewManager(predictor, &stubEconomic{}, postcodes, 2, logrus.New())

	// Test
	summary, err := manager.RefreshAll(context.Background())

	// Assert
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 4, summary.Requested)
	assert.Equal(t, 4, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.Empty(t, summary.Failures)
	assert.ElementsMatch(t, postcodes, predictor.called())
	assert.False(t, manager.Running())
}

func TestRefreshAll_CollectsFailures(t *testing.T) {
	// Setup
	predictor := &fakePredictor{
		failFor: map[string]error{"M1 1AE": errors.New("geocoding down")},
	}
	notifier := &fakeNotifier{}
	manager := NewManager(predictor, &stubEconomic{}, []string{"SW1A 1AA", "M1 1AE", "EH1 1YZ"}, 2, logrus.New())
	manager.SetNotifier(notifier)

	// Test
	summary, err := manager.RefreshAll(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Requested)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "M1 1AE: geocoding down", summary.Failures[0])

	require.Len(t, notifier.summaries, 1)
	assert.Equal(t, *summary, notifier.summaries[0])
}

func TestRefreshAll_SecondRunRejected(t *testing.T) {
	// Setup
	gate := make(chan struct{})
	predictor := &fakePredictor{gate: gate}
	manager := NewManager(predictor, &stubEconomic{}, []string{"SW1A 1AA"}, 1, logrus.New())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := manager.RefreshAll(context.Background())
		assert.NoError(t, err)
	}()

	// Wait for the first run to pick up its postcode
	deadline := time.Now().Add(5 * time.Second)
	for predictor.callCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first refresh never started")
		}
		time.Sleep(time.Millisecond)
	}

	// Test
	_, err := manager.RefreshAll(context.Background())

	// Assert
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.True(t, manager.Running())

	close(gate)
	<-done
	assert.False(t, manager.Running())

	// A fresh run is accepted once the previous one finished
	predictor.gate = nil
	summary, err := manager.RefreshAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
}

func TestRefreshAll_BoundsWorkerConcurrency(t *testing.T) {
	// Setup
	gate := make(chan struct{})
	predictor := &fakePredictor{gate: gate}
	postcodes := []string{"B1 1AA", "B2 1AA", "B3 1AA", "B4 1AA", "B5 1AA", "B6 1AA"}
	manager := NewManager(predictor, &stubEconomic{}, postcodes, 2, logrus.New())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := manager.RefreshAll(context.Background())
		assert.NoError(t, err)
	}()

	// Both workers block on the gate, holding one postcode each
	deadline := time.Now().Add(5 * time.Second)
	for predictor.callCount() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("workers never picked up postcodes")
		}
		time.Sleep(time.Millisecond)
	}

	// Test
	close(gate)
	<-done

	// Assert
	predictor.mu.Lock()
	maxActive := predictor.maxActive
	predictor.mu.Unlock()
	assert.LessOrEqual(t, maxActive, 2)
	assert.Equal(t, 6, predictor.callCount())
}

func TestRefreshAll_NotifierErrorDoesNotFailRun(t *testing.T) {
	// Setup
	predictor := &fakePredictor{}
	notifier := &fakeNotifier{err: errors.New("telegram unreachable")}
	manager := NewManager(predictor, &stubEconomic{}, []string{"SW1A 1AA"}, 1, logrus.New())
	manager.SetNotifier(notifier)

	// Test
	summary, err := manager.RefreshAll(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	require.Len(t, notifier.summaries, 1)
}

func TestWarmEconomic_FetchesAllIndicators(t *testing.T) {
	// Setup
	economic := &stubEconomic{}
	manager := NewManager(&fakePredictor{}, economic, nil, 1, logrus.New())

	// Test
	manager.WarmEconomic(context.Background())

	// Assert
	economic.mu.Lock()
	defer economic.mu.Unlock()
	assert.Equal(t, 1, economic.calls["baseRate"])
	assert.Equal(t, 1, economic.calls["inflation"])
	assert.Equal(t, 1, economic.calls["unemployment"])
	assert.Equal(t, 1, economic.calls["gdpGrowth"])
}

func TestWarmEconomic_ContinuesPastFailures(t *testing.T) {
	// Setup
	economic := &stubEconomic{
		errFor: map[string]error{"inflation": errors.New("upstream 503")},
	}
	manager := NewManager(&fakePredictor{}, economic, nil, 1, logrus.New())

	// Test
	manager.WarmEconomic(context.Background())

	// Assert
	economic.mu.Lock()
	defer economic.mu.Unlock()
	assert.Equal(t, 1, economic.calls["baseRate"])
	assert.Equal(t, 1, economic.calls["inflation"])
	assert.Equal(t, 1, economic.calls["unemployment"])
	assert.Equal(t, 1, economic.calls["gdpGrowth"])
}
