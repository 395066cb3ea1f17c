// internal/jobs/low_stock.go
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront-backend/internal/events"
	"github.com/javajoker/storefront-backend/internal/repository"
)

const (
	defaultScanSchedule = "@every 1h"
	scanLimit           = 50
	queryTimeout        = 10 * time.Second
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type LowStockSource interface {
	LowStockProducts(ctx context.Context, query repository.LowStockQuery) ([]repository.LowStockProduct, error)
}

type OrderSubscriber interface {
	SubscribeOrderCreated(handler func(events.OrderCreated)) error
	UnsubscribeOrderCreated(handler func(events.OrderCreated)) error
}

type Submitter interface {
	Submit(name string, task func())
}

// LowStockMonitor warns about products running out, both right after the
// orders that drained them and on a schedule.
type LowStockMonitor struct {
	source    LowStockSource
	orders    OrderSubscriber
	workers   Submitter
	threshold int
	schedule  string
	sched     *cron.Cron
	handler   func(events.OrderCreated)
}

func NewLowStockMonitor(source LowStockSource, orders OrderSubscriber, workers Submitter, threshold int, schedule string) *LowStockMonitor {
	if schedule == "" {
		schedule = defaultScanSchedule
	}
	m := &LowStockMonitor{
		source:    source,
		orders:    orders,
		workers:   workers,
		threshold: threshold,
		schedule:  schedule,
		sched:     cron.New(cron.WithParser(cronParser), cron.WithLocation(time.UTC)),
	}
	m.handler = m.onOrderCreated
	return m
}

func (m *LowStockMonitor) Start() error {
	if _, err := m.sched.AddFunc(m.schedule, m.Scan); err != nil {
		return fmt.Errorf("invalid low stock schedule %q: %w", m.schedule, err)
	}
	if err := m.orders.SubscribeOrderCreated(m.handler); err != nil {
		return fmt.Errorf("failed to subscribe to order events: %w", err)
	}
	m.sched.Start()

	logrus.WithFields(logrus.Fields{
		"schedule":  m.schedule,
		"threshold": m.threshold,
	}).Info("Low stock monitor started")
	return nil
}

// Stop unsubscribes and waits for a running scan to finish or ctx to expire.
func (m *LowStockMonitor) Stop(ctx context.Context) {
	if err := m.orders.UnsubscribeOrderCreated(m.handler); err != nil {
		logrus.WithError(err).Warn("Failed to unsubscribe low stock monitor")
	}

	select {
	case <-m.sched.Stop().Done():
	case <-ctx.Done():
		logrus.Warn("Low stock scan still running at shutdown")
	}
}

// Scan logs every product currently below the threshold.
func (m *LowStockMonitor) Scan() {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	products, err := m.source.LowStockProducts(ctx, repository.LowStockQuery{
		Threshold: m.threshold,
		Limit:     scanLimit,
	})
	if err != nil {
		logrus.WithError(err).Error("Low stock scan failed")
		return
	}

	if len(products) == 0 {
		logrus.Debug("Low stock scan found nothing")
		return
	}
	for _, p := range products {
		m.warn(p, "scan")
	}
}

func (m *LowStockMonitor) onOrderCreated(event events.OrderCreated) {
	m.workers.Submit("low_stock_check", func() {
		m.checkOrder(event)
	})
}

func (m *LowStockMonitor) checkOrder(event events.OrderCreated) {
	if len(event.ProductIDs) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	products, err := m.source.LowStockProducts(ctx, repository.LowStockQuery{
		Threshold:  m.threshold,
		Limit:      len(event.ProductIDs),
		ProductIDs: event.ProductIDs,
	})
	if err != nil {
		logrus.WithError(err).WithField("order_number", event.OrderNumber).Error("Low stock check failed")
		return
	}

	for _, p := range products {
		m.warn(p, event.OrderNumber)
	}
}

func (m *LowStockMonitor) warn(p repository.LowStockProduct, trigger string) {
	logrus.WithFields(logrus.Fields{
		"product_id": p.ID,
		"product":    p.Name,
		"stock":      p.Stock,
		"threshold":  m.threshold,
		"trigger":    trigger,
	}).Warn("Product stock is low")
}
