package payments

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/customslinks/customslinks/pkg/customslinks/models"
)

// Sweeper periodically expires pending payments whose window has
// passed, together with the links still waiting on them.
type Sweeper struct {
	db       *gorm.DB
	interval time.Duration
	logger   *zap.Logger
	stop     chan struct{}
	wg       sync.WaitGroup
}

// NewSweeper creates a payment sweeper
func NewSweeper(db *gorm.DB, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		db:       db,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Start launches the sweep loop in a background goroutine
func (s *Sweeper) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop shuts the sweep loop down and waits for it to finish
func (s *Sweeper) Stop() {
	close(s.stop)
	s.wg.Wait()
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Sweep(); err != nil {
				s.logger.Error("payments: sweep failed", zap.Error(err))
			}
		case <-s.stop:
			return
		}
	}
}

// Sweep expires every pending payment past its deadline. Links that
// were only waiting on an expired payment are expired with it.
func (s *Sweeper) Sweep() error {
	now := time.Now()

	var stale []models.Payment
	if err := s.db.Where("status = ? AND expires_at < ?", models.PaymentPending, now).Find(&stale).Error; err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, payment := range stale {
			payment.Status = models.PaymentExpired
			if err := tx.Save(&payment).Error; err != nil {
				return err
			}

			result := tx.Model(&models.Link{}).
				Where("id = ? AND status = ?", payment.LinkID, models.StatusPendingPayment).
				Update("status", models.StatusExpired)
			if result.Error != nil {
				return result.Error
			}

			s.logger.Info("payments: expired",
				zap.String("reference", payment.Reference),
				zap.Uint("link_id", payment.LinkID),
			)
		}
		return nil
	})
}
