package services

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/javajoker/storefront-backend/internal/apperror"
	"github.com/javajoker/storefront-backend/internal/events"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/repository"
)

type fakeTransactionRepo struct {
	mu sync.Mutex

	calls       int
	gotUserID   uuid.UUID
	gotNumber   string
	gotLines    []repository.CheckoutLine
	hadDeadline bool
	checkoutErr error

	statsFilter repository.StatisticsFilter
	exportRows  [][]models.Transaction
}

func (r *fakeTransactionRepo) Checkout(ctx context.Context, userID uuid.UUID, orderNumber string, lines []repository.CheckoutLine) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.gotUserID = userID
	r.gotNumber = orderNumber
	r.gotLines = lines
	_, r.hadDeadline = ctx.Deadline()
	if r.checkoutErr != nil {
		return nil, r.checkoutErr
	}

	tx := &models.Transaction{OrderNumber: orderNumber, UserID: userID}
	tx.ID = uuid.New()
	tx.CreatedAt = time.Now()
	for i, line := range lines {
		tx.Items = append(tx.Items, models.TransactionItem{
			Line:        i + 1,
			ProductID:   line.ProductID,
			Quantity:    line.Quantity,
			PriceAtTime: decimal.RequireFromString("10.00"),
		})
	}
	tx.Total = tx.ItemsTotal()
	return tx, nil
}

func (r *fakeTransactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	r.calls++
	return nil, apperror.NotFound("transaction %s not found", id)
}

func (r *fakeTransactionRepo) FindAll(ctx context.Context, query repository.ListTransactionsQuery) ([]models.Transaction, int64, error) {
	r.calls++
	return []models.Transaction{}, 0, nil
}

func (r *fakeTransactionRepo) ForEach(ctx context.Context, query repository.ListTransactionsQuery, batchSize int, fn func([]models.Transaction) error) error {
	for _, batch := range r.exportRows {
		if err := fn(batch); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeTransactionRepo) SoftDelete(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	r.calls++
	tx := &models.Transaction{OrderNumber: "ORD-1"}
	tx.ID = id
	return tx, nil
}

func (r *fakeTransactionRepo) Statistics(ctx context.Context, filter repository.StatisticsFilter) (*repository.TransactionStatistics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.statsFilter = filter
	return &repository.TransactionStatistics{Count: 2, Sum: decimal.NewFromInt(30)}, nil
}

func (r *fakeTransactionRepo) UserStatistics(ctx context.Context) ([]repository.UserTransactionStatistics, error) {
	return []repository.UserTransactionStatistics{}, nil
}

func (r *fakeTransactionRepo) Recent(ctx context.Context, limit int) ([]models.Transaction, error) {
	return []models.Transaction{{OrderNumber: "ORD-9"}}, nil
}

func (r *fakeTransactionRepo) LowStockProducts(ctx context.Context, query repository.LowStockQuery) ([]repository.LowStockProduct, error) {
	return []repository.LowStockProduct{{Name: "Mouse", Stock: query.Threshold - 1}}, nil
}

type fixedOrderNumbers struct{}

func (fixedOrderNumbers) Next() string { return "ORD-TEST" }

type recordingPublisher struct {
	events []events.OrderCreated
}

func (p *recordingPublisher) PublishOrderCreated(event events.OrderCreated) {
	p.events = append(p.events, event)
}

func newTestTransactionService(repo *fakeTransactionRepo, publisher events.Publisher) *TransactionService {
	return NewTransactionService(repo, fixedOrderNumbers{}, publisher, TransactionServiceOptions{
		CheckoutTimeout:   time.Second,
		MaxItems:          3,
		LowStockThreshold: 10,
	})
}

func TestCheckoutValidatesBeforeStoreAccess(t *testing.T) {
	userID := uuid.NewString()
	productID := uuid.NewString()

	tests := []struct {
		name    string
		userID  string
		req     *CheckoutRequest
		message string
	}{
		{"empty user", "", &CheckoutRequest{Items: []CheckoutItem{{ProductID: productID, Quantity: 1}}}, "userId is required"},
		{"malformed user", "not-a-uuid", &CheckoutRequest{Items: []CheckoutItem{{ProductID: productID, Quantity: 1}}}, "userId must be a valid UUID"},
		{"nil request", userID, nil, "items must be a non-empty array"},
		{"empty items", userID, &CheckoutRequest{Items: []CheckoutItem{}}, "items must be a non-empty array"},
		{"zero quantity", userID, &CheckoutRequest{Items: []CheckoutItem{{ProductID: productID, Quantity: 0}}}, "items[0].quantity must be greater than 0"},
		{"missing product", userID, &CheckoutRequest{Items: []CheckoutItem{{ProductID: productID, Quantity: 1}, {Quantity: 1}}}, "items[1].productId is required"},
		{"too many items", userID, &CheckoutRequest{Items: []CheckoutItem{
			{ProductID: productID, Quantity: 1},
			{ProductID: productID, Quantity: 1},
			{ProductID: productID, Quantity: 1},
			{ProductID: productID, Quantity: 1},
		}}, "items must not contain more than 3 entries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeTransactionRepo{}
			svc := newTestTransactionService(repo, nil)

			tx, err := svc.Checkout(context.Background(), tt.userID, tt.req)

			require.Error(t, err)
			assert.Nil(t, tx)
			assert.True(t, apperror.IsKind(err, apperror.KindValidation))
			assert.Equal(t, tt.message, apperror.As(err).Message)
			assert.Zero(t, repo.calls)
		})
	}
}

func TestCheckoutSuccess(t *testing.T) {
	repo := &fakeTransactionRepo{}
	publisher := &recordingPublisher{}
	svc := newTestTransactionService(repo, publisher)

	userID := uuid.New()
	first, second := uuid.New(), uuid.New()
	req := &CheckoutRequest{Items: []CheckoutItem{
		{ProductID: first.String(), Quantity: 2},
		{ProductID: second.String(), Quantity: 1},
	}}

	tx, err := svc.Checkout(context.Background(), userID.String(), req)
	require.NoError(t, err)

	assert.Equal(t, "ORD-TEST", tx.OrderNumber)
	assert.True(t, decimal.RequireFromString("30.00").Equal(tx.Total))
	assert.Equal(t, userID, repo.gotUserID)
	assert.True(t, repo.hadDeadline)
	require.Len(t, repo.gotLines, 2)
	assert.Equal(t, first, repo.gotLines[0].ProductID)
	assert.Equal(t, 2, repo.gotLines[0].Quantity)
	assert.Equal(t, second, repo.gotLines[1].ProductID)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, tx.ID, publisher.events[0].TransactionID)
	assert.Equal(t, []uuid.UUID{first, second}, publisher.events[0].ProductIDs)
}

func TestCheckoutDoesNotPublishOnFailure(t *testing.T) {
	repo := &fakeTransactionRepo{
		checkoutErr: apperror.InsufficientStock(apperror.StockShortage{ProductName: "Mouse", Available: 1, Requested: 2}),
	}
	publisher := &recordingPublisher{}
	svc := newTestTransactionService(repo, publisher)

	_, err := svc.Checkout(context.Background(), uuid.NewString(), &CheckoutRequest{
		Items: []CheckoutItem{{ProductID: uuid.NewString(), Quantity: 2}},
	})

	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInsufficientStock))
	assert.Empty(t, publisher.events)
}

func TestCheckoutRecordsOutcomeMetric(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	svc := newTestTransactionService(&fakeTransactionRepo{}, nil)
	_, err := svc.Checkout(context.Background(), uuid.NewString(), &CheckoutRequest{
		Items: []CheckoutItem{{ProductID: uuid.NewString(), Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = svc.Checkout(context.Background(), uuid.NewString(), &CheckoutRequest{})
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	outcomes := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "checkout.requests" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				outcome, _ := dp.Attributes.Value("outcome")
				outcomes[outcome.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(1), outcomes["success"])
	assert.Equal(t, int64(1), outcomes[string(apperror.KindValidation)])
}

func TestOrderNumberGenerator(t *testing.T) {
	gen, err := NewOrderNumberGenerator(1)
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		n := gen.Next()
		assert.True(t, strings.HasPrefix(n, "ORD-"))
		assert.False(t, seen[n], "duplicate order number %s", n)
		seen[n] = true
	}

	_, err = NewOrderNumberGenerator(4096)
	assert.Error(t, err)
}

func TestGetByIDRejectsMalformedID(t *testing.T) {
	repo := &fakeTransactionRepo{}
	svc := newTestTransactionService(repo, nil)

	_, err := svc.GetByID(context.Background(), "42")
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	assert.Zero(t, repo.calls)

	_, err = svc.GetByID(context.Background(), uuid.NewString())
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestStatisticsFilters(t *testing.T) {
	repo := &fakeTransactionRepo{}
	svc := newTestTransactionService(repo, nil)
	ctx := context.Background()

	_, err := svc.Statistics(ctx, StatisticsParams{StartDate: "2024-02-01", EndDate: "2024-01-01"})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = svc.Statistics(ctx, StatisticsParams{StartDate: "yesterday"})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	stats, err := svc.Statistics(ctx, StatisticsParams{StartDate: "2024-01-01", EndDate: "2024-01-31"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Count)
	require.NotNil(t, repo.statsFilter.EndDate)
	assert.Equal(t, 23, repo.statsFilter.EndDate.Hour())
	assert.Equal(t, 31, repo.statsFilter.EndDate.Day())

	_, err = svc.Statistics(ctx, StatisticsParams{EndDate: "2024-01-31T10:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, 10, repo.statsFilter.EndDate.Hour())
}

func TestDashboard(t *testing.T) {
	svc := newTestTransactionService(&fakeTransactionRepo{}, nil)

	stats, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.Overview.Count)
	assert.NotNil(t, stats.UserStatistics)
	require.Len(t, stats.RecentTransactions, 1)
	require.Len(t, stats.LowStockProducts, 1)
	assert.Equal(t, 9, stats.LowStockProducts[0].Stock)
}

func TestExport(t *testing.T) {
	t.Run("header only when empty", func(t *testing.T) {
		svc := newTestTransactionService(&fakeTransactionRepo{}, nil)
		var buf bytes.Buffer

		require.NoError(t, svc.Export(context.Background(), ListTransactionsParams{}, &buf))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 1)
		assert.Equal(t, "order_number,transaction_id,user_id,user_email,item_count,quantity,total,created_at", lines[0])
	})

	t.Run("rows across batches", func(t *testing.T) {
		order := func(number string) models.Transaction {
			tx := models.Transaction{
				OrderNumber: number,
				Total:       decimal.RequireFromString("20"),
				User:        &models.User{Email: "buyer@example.com"},
				Items:       []models.TransactionItem{{Quantity: 2}},
			}
			tx.ID = uuid.New()
			return tx
		}
		repo := &fakeTransactionRepo{exportRows: [][]models.Transaction{
			{order("ORD-1"), order("ORD-2")},
			{order("ORD-3")},
		}}
		svc := newTestTransactionService(repo, nil)
		var buf bytes.Buffer

		require.NoError(t, svc.Export(context.Background(), ListTransactionsParams{}, &buf))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 4)
		assert.True(t, strings.HasPrefix(lines[1], "ORD-1,"))
		assert.True(t, strings.HasPrefix(lines[3], "ORD-3,"))
		assert.Contains(t, lines[1], ",buyer@example.com,1,2,20.00,")
	})

	t.Run("invalid user filter", func(t *testing.T) {
		svc := newTestTransactionService(&fakeTransactionRepo{}, nil)
		err := svc.Export(context.Background(), ListTransactionsParams{UserID: "nope"}, &bytes.Buffer{})
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})
}
