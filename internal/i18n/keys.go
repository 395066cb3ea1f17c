// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess           = "success"
	KeyInternalError     = "error.internal"
	KeyValidationInvalid = "validation.invalid"
	KeyHealthOK          = "health.ok"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAuthForbidden          = "auth.forbidden"
	KeyRateLimited            = "rate_limit.exceeded"

	// Users
	KeyUserList    = "user.list"
	KeyUserFound   = "user.found"
	KeyUserUpdated = "user.updated"
	KeyUserDeleted = "user.deleted"

	// Profiles
	KeyProfileList          = "profile.list"
	KeyProfileFound         = "profile.found"
	KeyProfileCreated       = "profile.created"
	KeyProfileUpdated       = "profile.updated"
	KeyProfileDeleted       = "profile.deleted"
	KeyProfileAvatarUpdated = "profile.avatar_updated"

	// Stores
	KeyStoreList    = "store.list"
	KeyStoreFound   = "store.found"
	KeyStoreCreated = "store.created"
	KeyStoreUpdated = "store.updated"
	KeyStoreDeleted = "store.deleted"

	// Categories
	KeyCategoryList    = "category.list"
	KeyCategoryFound   = "category.found"
	KeyCategoryCreated = "category.created"
	KeyCategoryUpdated = "category.updated"
	KeyCategoryDeleted = "category.deleted"

	// Products
	KeyProductList    = "product.list"
	KeyProductFound   = "product.found"
	KeyProductCreated = "product.created"
	KeyProductUpdated = "product.updated"
	KeyProductDeleted = "product.deleted"
	KeyProductStats   = "product.stats"

	// Transactions
	KeyCheckoutSuccess      = "transaction.checkout_success"
	KeyTransactionList      = "transaction.list"
	KeyTransactionFound     = "transaction.found"
	KeyTransactionDeleted   = "transaction.deleted"
	KeyTransactionStats     = "transaction.stats"
	KeyTransactionUserStats = "transaction.user_stats"
	KeyTransactionDashboard = "transaction.dashboard"
	KeyTransactionLowStock  = "transaction.low_stock"
)
