package processor

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mariusnicorescu85/uk-property-investment/config"
	"github.com/mariusnicorescu85/uk-property-investment/internal/database"
	"github.com/mariusnicorescu85/uk-property-investment/internal/models"
	"github.com/mariusnicorescu85/uk-property-investment/internal/queue"
)

// generateTestRecords builds metric-only batches with unique postcodes under
// one prefix, so tests can count and clear their own rows.
func generateTestRecords(prefix string, count, batchSize int) [][]*models.RefreshRecord {
	var batches [][]*models.RefreshRecord
	for start := 0; start < count; start += batchSize {
		end := start + batchSize
		if end > count {
			end = count
		}
		batch := make([]*models.RefreshRecord, 0, end-start)
		for i := start; i < end; i++ {
			postcode := fmt.Sprintf("%s%d 1AA", prefix, i)
			batch = append(batch, &models.RefreshRecord{
				Postcode: postcode,
				Metric: &models.InvestmentMetric{
					Postcode:   postcode,
					AvgPrice:   float64(200000 + i*100),
					RiskScore:  5,
					ComputedAt: time.Now(),
				},
			})
		}
		batches = append(batches, batch)
	}
	return batches
}

// pushAll feeds every batch into the queue, backing off while it is full.
func pushAll(q *queue.RefreshQueue, batches [][]*models.RefreshRecord) {
	for _, batch := range batches {
		for q.Push(batch) != nil {
			time.Sleep(time.Millisecond)
		}
	}
}

func waitForStoredCount(tb testing.TB, db *gorm.DB, pattern string, want int64) {
	tb.Helper()
	deadline := time.Now().Add(30 * time.Second)
	var count int64
	for time.Now().Before(deadline) {
		require.NoError(tb, db.Model(&models.InvestmentMetric{}).Where("postcode LIKE ?", pattern).Count(&count).Error)
		if count == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	tb.Fatalf("expected %d metrics matching %s, found %d", want, pattern, count)
}

func clearPrefix(tb testing.TB, db *gorm.DB, pattern string) {
	tb.Helper()
	require.NoError(tb, db.Where("postcode LIKE ?", pattern).Delete(&models.InvestmentMetric{}).Error)
}

// BenchmarkBatchProcessing measures end-to-end throughput of the
// queue-to-database pipeline across batch sizes and workloads.
func BenchmarkBatchProcessing(b *testing.B) {
	db, err := database.NewTestDB()
	require.NoError(b, err)
	require.NoError(b, database.MigrateSchema(db))

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	for _, batchSize := range []int{10, 50, 100} {
		for _, recordCount := range []int{500, 2000} {
			b.Run(fmt.Sprintf("BatchSize_%d_Records_%d", batchSize, recordCount), func(b *testing.B) {
				cfg := &config.Config{}
				cfg.BatchProcessing.ProcessorCount = 4
				cfg.BatchProcessing.MaxRetries = 3
				cfg.BatchProcessing.MaxBatchSize = batchSize

				refreshQueue := queue.NewRefreshQueue(batchSize, logger)
				processor := NewBatchProcessor(db, refreshQueue, cfg, logger)
				processor.Start()
				defer processor.Stop()

				batches := generateTestRecords("K", recordCount, batchSize)

				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					b.StopTimer()
					clearPrefix(b, db, "K%")
					b.StartTimer()

					start := time.Now()
					pushAll(refreshQueue, batches)
					waitForStoredCount(b, db, "K%", int64(recordCount))

					b.ReportMetric(float64(recordCount)/time.Since(start).Seconds(), "records/sec")
				}
			})
		}
	}
}

// BenchmarkConcurrentBatchProcessing stripes the pushes across as many
// goroutines as there are queue consumers, approximating several refresh
// workers feeding the writer at once.
func BenchmarkConcurrentBatchProcessing(b *testing.B) {
	db, err := database.NewTestDB()
	require.NoError(b, err)
	require.NoError(b, database.MigrateSchema(db))

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	const (
		recordCount = 2000
		batchSize   = 100
	)

	for _, concurrency := range []int{2, 4, 8} {
		b.Run(fmt.Sprintf("Concurrency_%d", concurrency), func(b *testing.B) {
			cfg := &config.Config{}
			cfg.BatchProcessing.ProcessorCount = concurrency
			cfg.BatchProcessing.MaxRetries = 3
			cfg.BatchProcessing.MaxBatchSize = batchSize

			refreshQueue := queue.NewRefreshQueue(batchSize, logger)
			processor := NewBatchProcessor(db, refreshQueue, cfg, logger)
			processor.Start()
			defer processor.Stop()

			batches := generateTestRecords("Q", recordCount, batchSize)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				clearPrefix(b, db, "Q%")
				b.StartTimer()

				start := time.Now()
				var wg sync.WaitGroup
				for w := 0; w < concurrency; w++ {
					wg.Add(1)
					go func(offset int) {
						defer wg.Done()
						for j := offset; j < len(batches); j += concurrency {
							for refreshQueue.Push(batches[j]) != nil {
								time.Sleep(time.Millisecond)
							}
						}
					}(w)
				}
				wg.Wait()
				waitForStoredCount(b, db, "Q%", int64(recordCount))

				b.ReportMetric(float64(recordCount)/time.Since(start).Seconds(), "records/sec")
			}
		})
	}
}
