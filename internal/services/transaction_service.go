// internal/services/transaction_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/javajoker/storefront-backend/internal/apperror"
	"github.com/javajoker/storefront-backend/internal/events"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/repository"
	"github.com/javajoker/storefront-backend/internal/utils"
)

const (
	instrumentationName = "github.com/javajoker/storefront-backend/internal/services"

	dashboardRecentLimit   = 5
	dashboardLowStockLimit = 5
)

type CheckoutItem struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

type CheckoutRequest struct {
	Items []CheckoutItem `json:"items" validate:"dive"`
}

type ListTransactionsParams struct {
	utils.PaginationParams
	UserID string
}

type StatisticsParams struct {
	StartDate string
	EndDate   string
	UserID    string
}

type DashboardStats struct {
	Overview           *repository.TransactionStatistics      `json:"overview"`
	UserStatistics     []repository.UserTransactionStatistics `json:"userStatistics"`
	RecentTransactions []models.Transaction                   `json:"recentTransactions"`
	LowStockProducts   []repository.LowStockProduct           `json:"lowStockProducts"`
}

type TransactionServiceOptions struct {
	CheckoutTimeout   time.Duration
	MaxItems          int
	LowStockThreshold int
}

// OrderNumberGenerator yields unique human-facing order numbers.
type OrderNumberGenerator interface {
	Next() string
}

type snowflakeOrderNumbers struct {
	node *snowflake.Node
}

func NewOrderNumberGenerator(nodeID int64) (OrderNumberGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create order number node: %w", err)
	}
	return &snowflakeOrderNumbers{node: node}, nil
}

func (g *snowflakeOrderNumbers) Next() string {
	return "ORD-" + g.node.Generate().String()
}

type TransactionService struct {
	repo         repository.TransactionRepository
	orderNumbers OrderNumberGenerator
	publisher    events.Publisher
	opts         TransactionServiceOptions
	tracer       trace.Tracer
	checkouts    metric.Int64Counter
}

func NewTransactionService(repo repository.TransactionRepository, orderNumbers OrderNumberGenerator, publisher events.Publisher, opts TransactionServiceOptions) *TransactionService {
	if opts.CheckoutTimeout <= 0 {
		opts.CheckoutTimeout = 10 * time.Second
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = 100
	}
	if opts.LowStockThreshold <= 0 {
		opts.LowStockThreshold = 10
	}

	checkouts, err := otel.Meter(instrumentationName).Int64Counter(
		"checkout.requests",
		metric.WithDescription("Checkout attempts by outcome"),
	)
	if err != nil {
		logrus.WithError(err).Warn("Failed to create checkout counter")
	}

	return &TransactionService{
		repo:         repo,
		orderNumbers: orderNumbers,
		publisher:    publisher,
		opts:         opts,
		tracer:       otel.Tracer(instrumentationName),
		checkouts:    checkouts,
	}
}

// Checkout validates the request before any store access, then places the
// order inside one bounded database transaction. It never retries.
func (s *TransactionService) Checkout(ctx context.Context, userID string, req *CheckoutRequest) (*models.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "TransactionService.Checkout")
	defer span.End()

	uid, lines, err := s.validateCheckout(userID, req)
	if err != nil {
		s.recordCheckout(ctx, span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("user.id", uid.String()),
		attribute.Int("checkout.lines", len(lines)),
	)

	txCtx, cancel := context.WithTimeout(ctx, s.opts.CheckoutTimeout)
	defer cancel()

	transaction, err := s.repo.Checkout(txCtx, uid, s.orderNumbers.Next(), lines)
	if err != nil {
		s.recordCheckout(ctx, span, err)
		return nil, err
	}
	s.recordCheckout(ctx, span, nil)

	logrus.WithFields(logrus.Fields{
		"transaction_id": transaction.ID,
		"order_number":   transaction.OrderNumber,
		"user_id":        uid,
		"total":          transaction.Total.String(),
		"lines":          len(lines),
	}).Info("Checkout completed")

	if s.publisher != nil {
		productIDs := make([]uuid.UUID, 0, len(lines))
		for _, line := range lines {
			productIDs = append(productIDs, line.ProductID)
		}
		s.publisher.PublishOrderCreated(events.OrderCreated{
			TransactionID: transaction.ID,
			OrderNumber:   transaction.OrderNumber,
			UserID:        uid,
			Total:         transaction.Total,
			ProductIDs:    productIDs,
			CreatedAt:     transaction.CreatedAt,
		})
	}

	return transaction, nil
}

func (s *TransactionService) validateCheckout(userID string, req *CheckoutRequest) (uuid.UUID, []repository.CheckoutLine, error) {
	if strings.TrimSpace(userID) == "" {
		return uuid.Nil, nil, apperror.Validation("userId is required")
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, nil, apperror.Validation("userId must be a valid UUID")
	}
	if req == nil || len(req.Items) == 0 {
		return uuid.Nil, nil, apperror.Validation("items must be a non-empty array")
	}
	if len(req.Items) > s.opts.MaxItems {
		return uuid.Nil, nil, apperror.Validation("items must not contain more than %d entries", s.opts.MaxItems)
	}
	if err := utils.ValidateStruct(req); err != nil {
		details := utils.GetValidationErrors(err)
		message := "invalid checkout items"
		if len(details) > 0 {
			message = details[0].Message
		}
		return uuid.Nil, nil, apperror.ValidationWithDetails(message, details)
	}

	lines := make([]repository.CheckoutLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, repository.CheckoutLine{
			ProductID: uuid.MustParse(item.ProductID),
			Quantity:  item.Quantity,
		})
	}
	return uid, lines, nil
}

func (s *TransactionService) recordCheckout(ctx context.Context, span trace.Span, err error) {
	outcome := "success"
	if err != nil {
		appErr := apperror.As(err)
		outcome = string(appErr.Kind)
		span.RecordError(err)
		span.SetStatus(codes.Error, appErr.Message)
	}
	span.SetAttributes(attribute.String("checkout.outcome", outcome))
	if s.checkouts != nil {
		s.checkouts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func (s *TransactionService) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	tid, err := parseID("transaction id", id)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, tid)
}

func (s *TransactionService) List(ctx context.Context, params ListTransactionsParams) ([]models.Transaction, int64, error) {
	query, err := listQuery(params)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.FindAll(ctx, query)
}

// Delete soft-deletes the order. Decremented stock stays decremented.
func (s *TransactionService) Delete(ctx context.Context, id string) (*models.Transaction, error) {
	tid, err := parseID("transaction id", id)
	if err != nil {
		return nil, err
	}

	transaction, err := s.repo.SoftDelete(ctx, tid)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"transaction_id": transaction.ID,
		"order_number":   transaction.OrderNumber,
	}).Info("Transaction soft-deleted")
	return transaction, nil
}

func (s *TransactionService) Statistics(ctx context.Context, params StatisticsParams) (*repository.TransactionStatistics, error) {
	filter, err := statisticsFilter(params)
	if err != nil {
		return nil, err
	}
	return s.repo.Statistics(ctx, filter)
}

func (s *TransactionService) UserStatistics(ctx context.Context) ([]repository.UserTransactionStatistics, error) {
	return s.repo.UserStatistics(ctx)
}

func (s *TransactionService) LowStockProducts(ctx context.Context, limit int) ([]repository.LowStockProduct, error) {
	if limit <= 0 {
		limit = dashboardLowStockLimit
	}
	if limit > utils.MaxLimit {
		limit = utils.MaxLimit
	}
	return s.repo.LowStockProducts(ctx, repository.LowStockQuery{
		Threshold: s.opts.LowStockThreshold,
		Limit:     limit,
	})
}

// Dashboard runs its four reads concurrently. They are not read from a
// single snapshot.
func (s *TransactionService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	ctx, span := s.tracer.Start(ctx, "TransactionService.Dashboard")
	defer span.End()

	stats := &DashboardStats{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		overview, err := s.repo.Statistics(gctx, repository.StatisticsFilter{})
		stats.Overview = overview
		return err
	})
	g.Go(func() error {
		users, err := s.repo.UserStatistics(gctx)
		stats.UserStatistics = users
		return err
	})
	g.Go(func() error {
		recent, err := s.repo.Recent(gctx, dashboardRecentLimit)
		stats.RecentTransactions = recent
		return err
	})
	g.Go(func() error {
		lowStock, err := s.repo.LowStockProducts(gctx, repository.LowStockQuery{
			Threshold: s.opts.LowStockThreshold,
			Limit:     dashboardLowStockLimit,
		})
		stats.LowStockProducts = lowStock
		return err
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return stats, nil
}

func listQuery(params ListTransactionsParams) (repository.ListTransactionsQuery, error) {
	query := repository.ListTransactionsQuery{
		PaginationParams: utils.NormalizePagination(params.PaginationParams),
	}
	if params.UserID != "" {
		uid, err := parseID("userId", params.UserID)
		if err != nil {
			return query, err
		}
		query.UserID = &uid
	}
	return query, nil
}

func statisticsFilter(params StatisticsParams) (repository.StatisticsFilter, error) {
	var filter repository.StatisticsFilter

	if params.StartDate != "" {
		start, _, err := parseDate(params.StartDate)
		if err != nil {
			return filter, apperror.Validation("startDate must be RFC3339 or YYYY-MM-DD")
		}
		filter.StartDate = &start
	}
	if params.EndDate != "" {
		end, dateOnly, err := parseDate(params.EndDate)
		if err != nil {
			return filter, apperror.Validation("endDate must be RFC3339 or YYYY-MM-DD")
		}
		if dateOnly {
			end = end.Add(24*time.Hour - time.Nanosecond)
		}
		filter.EndDate = &end
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return filter, apperror.Validation("endDate must not be before startDate")
	}
	if params.UserID != "" {
		uid, err := parseID("userId", params.UserID)
		if err != nil {
			return filter, err
		}
		filter.UserID = &uid
	}
	return filter, nil
}

// parseDate accepts RFC3339 timestamps and plain dates. The flag reports a
// plain date.
func parseDate(value string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, false, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	return t, true, err
}

func parseID(name, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil, apperror.Validation("%s must be a valid UUID", name)
	}
	return id, nil
}
