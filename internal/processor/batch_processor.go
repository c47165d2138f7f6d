package processor

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mariusnicorescu85/uk-property-investment/config"
	"github.com/mariusnicorescu85/uk-property-investment/internal/database"
	"github.com/mariusnicorescu85/uk-property-investment/internal/models"
	"github.com/mariusnicorescu85/uk-property-investment/internal/queue"
)

// TxRunner runs a function inside a database transaction. *gorm.DB
// satisfies it.
type TxRunner interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

// BatchProcessor drains the refresh queue and writes each batch to the
// database.
type BatchProcessor struct {
	db     TxRunner
	logger *logrus.Logger
	config *config.Config
	queue  *queue.RefreshQueue
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(db TxRunner, queue *queue.RefreshQueue, config *config.Config, logger *logrus.Logger) *BatchProcessor {
	return &BatchProcessor{
		db:     db,
		queue:  queue,
		config: config,
		logger: logger,
	}
}

// Start registers the writer with the queue and launches the consumer
// goroutines. Each consumer takes whole batches, so records from one
// refresh are never split across writers.
func (p *BatchProcessor) Start() {
	p.queue.Subscribe(p.processBatch)
	for i := 0; i < p.config.BatchProcessing.ProcessorCount; i++ {
		p.queue.Start()
	}
}

// Stop closes the queue and lets in-flight batches finish on their
// consumer goroutine.
func (p *BatchProcessor) Stop() {
	p.queue.Close()
}

// processBatch handles a single batch with transaction and retry logic
func (p *BatchProcessor) processBatch(batch []*models.RefreshRecord) error {
	attempts := p.config.BatchProcessing.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			p.logger.Infof("Retrying batch processing, attempt %d of %d", attempt, attempts)
			time.Sleep(time.Duration(p.config.BatchProcessing.RetryDelay) * time.Second)
		}

		err = p.db.Transaction(func(tx *gorm.DB) error {
			if err := database.UpsertRefreshRecords(tx, batch); err != nil {
				return fmt.Errorf("failed to upsert refresh batch: %w", err)
			}
			return nil
		})

		if err == nil {
			p.logger.Infof("Successfully processed batch of %d records", len(batch))
			return nil
		}

		p.logger.Errorf("Batch processing failed: %v", err)
	}

	return fmt.Errorf("failed to process batch after %d attempts: %w", attempts, err)
}
