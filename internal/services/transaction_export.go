// internal/services/transaction_export.go
package services

import (
	"context"
	"io"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/javajoker/storefront-backend/internal/apperror"
	"github.com/javajoker/storefront-backend/internal/models"
)

const exportBatchSize = 200

type transactionCSVRow struct {
	OrderNumber   string `csv:"order_number"`
	TransactionID string `csv:"transaction_id"`
	UserID        string `csv:"user_id"`
	UserEmail     string `csv:"user_email"`
	ItemCount     int    `csv:"item_count"`
	Quantity      int    `csv:"quantity"`
	Total         string `csv:"total"`
	CreatedAt     string `csv:"created_at"`
}

// Export writes every order matching the filter as CSV. Pagination is
// ignored; sorting is honoured.
func (s *TransactionService) Export(ctx context.Context, params ListTransactionsParams, w io.Writer) error {
	query, err := listQuery(params)
	if err != nil {
		return err
	}

	wroteHeader := false
	err = s.repo.ForEach(ctx, query, exportBatchSize, func(batch []models.Transaction) error {
		rows := make([]transactionCSVRow, 0, len(batch))
		for i := range batch {
			rows = append(rows, toCSVRow(&batch[i]))
		}
		if !wroteHeader {
			wroteHeader = true
			return gocsv.Marshal(rows, w)
		}
		return gocsv.MarshalWithoutHeaders(rows, w)
	})
	if err != nil {
		return apperror.As(err)
	}

	if !wroteHeader {
		if err := gocsv.Marshal([]transactionCSVRow{}, w); err != nil {
			return apperror.Infrastructure(err, "failed to write export")
		}
	}
	return nil
}

func toCSVRow(t *models.Transaction) transactionCSVRow {
	row := transactionCSVRow{
		OrderNumber:   t.OrderNumber,
		TransactionID: t.ID.String(),
		UserID:        t.UserID.String(),
		ItemCount:     len(t.Items),
		Total:         t.Total.StringFixed(2),
		CreatedAt:     t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.User != nil {
		row.UserEmail = t.User.Email
	}
	for _, item := range t.Items {
		row.Quantity += item.Quantity
	}
	return row
}
