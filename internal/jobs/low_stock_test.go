package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/storefront-backend/internal/events"
	"github.com/javajoker/storefront-backend/internal/repository"
)

type fakeSource struct {
	queries  []repository.LowStockQuery
	products []repository.LowStockProduct
	err      error
}

func (f *fakeSource) LowStockProducts(ctx context.Context, query repository.LowStockQuery) ([]repository.LowStockProduct, error) {
	f.queries = append(f.queries, query)
	return f.products, f.err
}

type fakeSubscriber struct {
	handler      func(events.OrderCreated)
	unsubscribed bool
}

func (f *fakeSubscriber) SubscribeOrderCreated(handler func(events.OrderCreated)) error {
	f.handler = handler
	return nil
}

func (f *fakeSubscriber) UnsubscribeOrderCreated(handler func(events.OrderCreated)) error {
	f.unsubscribed = true
	return nil
}

type inlineSubmitter struct{}

func (inlineSubmitter) Submit(name string, task func()) { task() }

func TestOrderCreatedChecksOrderedProducts(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	productID := uuid.New()
	source := &fakeSource{products: []repository.LowStockProduct{{ID: productID, Name: "Mouse", Stock: 2}}}
	subscriber := &fakeSubscriber{}
	monitor := NewLowStockMonitor(source, subscriber, inlineSubmitter{}, 10, "")

	require.NoError(t, monitor.Start())
	defer monitor.Stop(context.Background())
	require.NotNil(t, subscriber.handler)

	subscriber.handler(events.OrderCreated{OrderNumber: "ORD-1", ProductIDs: []uuid.UUID{productID}})

	require.Len(t, source.queries, 1)
	assert.Equal(t, 10, source.queries[0].Threshold)
	assert.Equal(t, []uuid.UUID{productID}, source.queries[0].ProductIDs)

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Message == "Product stock is low" {
			warned = true
			assert.Equal(t, "ORD-1", entry.Data["trigger"])
			assert.Equal(t, 2, entry.Data["stock"])
		}
	}
	assert.True(t, warned)
}

func TestOrderWithoutProductsIsIgnored(t *testing.T) {
	source := &fakeSource{}
	subscriber := &fakeSubscriber{}
	monitor := NewLowStockMonitor(source, subscriber, inlineSubmitter{}, 10, "@every 1h")
	require.NoError(t, monitor.Start())
	defer monitor.Stop(context.Background())

	subscriber.handler(events.OrderCreated{OrderNumber: "ORD-2"})
	assert.Empty(t, source.queries)
}

func TestScanLogsFailures(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	source := &fakeSource{err: errors.New("connection refused")}
	monitor := NewLowStockMonitor(source, &fakeSubscriber{}, inlineSubmitter{}, 5, "")

	monitor.Scan()

	require.Len(t, source.queries, 1)
	assert.Equal(t, scanLimit, source.queries[0].Limit)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestInvalidSchedule(t *testing.T) {
	monitor := NewLowStockMonitor(&fakeSource{}, &fakeSubscriber{}, inlineSubmitter{}, 5, "every so often")
	assert.Error(t, monitor.Start())
}

func TestStopUnsubscribes(t *testing.T) {
	subscriber := &fakeSubscriber{}
	monitor := NewLowStockMonitor(&fakeSource{}, subscriber, inlineSubmitter{}, 5, "")
	require.NoError(t, monitor.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	monitor.Stop(ctx)

	assert.True(t, subscriber.unsubscribed)
}
