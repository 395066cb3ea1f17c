// internal/handlers/services.go
package handlers

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/repository"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

// The interfaces below list what each handler needs from its service.

type TransactionService interface {
	Checkout(ctx context.Context, userID string, req *services.CheckoutRequest) (*models.Transaction, error)
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	List(ctx context.Context, params services.ListTransactionsParams) ([]models.Transaction, int64, error)
	Export(ctx context.Context, params services.ListTransactionsParams, w io.Writer) error
	Delete(ctx context.Context, id string) (*models.Transaction, error)
	Statistics(ctx context.Context, params services.StatisticsParams) (*repository.TransactionStatistics, error)
	UserStatistics(ctx context.Context) ([]repository.UserTransactionStatistics, error)
	LowStockProducts(ctx context.Context, limit int) ([]repository.LowStockProduct, error)
	Dashboard(ctx context.Context) (*services.DashboardStats, error)
}

type AuthService interface {
	Register(ctx context.Context, req *services.RegisterRequest) (*services.AuthResponse, error)
	Login(ctx context.Context, req *services.LoginRequest) (*services.AuthResponse, error)
	Me(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

type UserService interface {
	List(ctx context.Context, params utils.PaginationParams) ([]models.User, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, req *services.UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProfileService interface {
	List(ctx context.Context, params utils.PaginationParams) ([]models.Profile, int64, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	Create(ctx context.Context, userID uuid.UUID, req *services.CreateProfileRequest) (*models.Profile, error)
	Update(ctx context.Context, actor services.Actor, userID uuid.UUID, req *services.UpdateProfileRequest) (*models.Profile, error)
	Delete(ctx context.Context, actor services.Actor, userID uuid.UUID) error
	UploadAvatar(ctx context.Context, actor services.Actor, userID uuid.UUID, r io.Reader, filename string, size int64) (*models.Profile, error)
}

type StoreService interface {
	List(ctx context.Context, params utils.PaginationParams) ([]models.Store, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	Create(ctx context.Context, ownerID uuid.UUID, req *services.CreateStoreRequest) (*models.Store, error)
	Update(ctx context.Context, actor services.Actor, id uuid.UUID, req *services.UpdateStoreRequest) (*models.Store, error)
	Delete(ctx context.Context, actor services.Actor, id uuid.UUID) error
}

type CategoryService interface {
	List(ctx context.Context, params utils.PaginationParams) ([]models.Category, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	Create(ctx context.Context, req *services.CategoryRequest) (*models.Category, error)
	Update(ctx context.Context, id uuid.UUID, req *services.CategoryRequest) (*models.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProductService interface {
	Search(ctx context.Context, params services.ProductSearchParams) ([]models.Product, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, req *services.CreateProductRequest) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, req *services.UpdateProductRequest) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Statistics(ctx context.Context, categoryID *uuid.UUID) (*services.ProductStatisticsReport, error)
}
