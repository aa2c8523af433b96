package errors

// Error codes returned in the "error" field of every error body.
// Format: CATEGORY_SPECIFIC_DETAIL; clients map messages from the code.

const (
	// ==================== Session (SESSION_) ====================
	SessionInvalid = "SESSION_INVALID" // bad signature or malformed token
	SessionExpired = "SESSION_EXPIRED" // token past its expiry

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT" // malformed body or params
	ValidationRequired     = "VALIDATION_REQUIRED"      // required field missing

	// ==================== Resource (RESOURCE_) ====================
	ResourceNotFound = "RESOURCE_NOT_FOUND"
	ResourceConflict = "RESOURCE_CONFLICT"

	// ==================== Store (STORE_) ====================
	StoreNotFound    = "STORE_NOT_FOUND"
	StoreUnavailable = "STORE_UNAVAILABLE" // store info could not be fetched

	// ==================== Cart (CART_) ====================
	CartEmpty           = "CART_EMPTY"
	CartInvalidItem     = "CART_INVALID_ITEM"
	CartInvalidQuantity = "CART_INVALID_QUANTITY"
	CartInvalidPrice    = "CART_INVALID_PRICE"
	CartStorageFailed   = "CART_STORAGE_FAILED" // persisted copy may be stale

	// ==================== Payment (PAYMENT_) ====================
	PaymentMethodUnavailable = "PAYMENT_METHOD_UNAVAILABLE"
	PaymentWindowExpired     = "PAYMENT_WINDOW_EXPIRED"

	// ==================== Checkout (CHECKOUT_) ====================
	CheckoutNotStarted        = "CHECKOUT_NOT_STARTED"
	CheckoutInvalidTransition = "CHECKOUT_INVALID_TRANSITION"
	CheckoutValidationFailed  = "CHECKOUT_VALIDATION_FAILED"
	CheckoutSubmitting        = "CHECKOUT_SUBMITTING"
	CheckoutSubmitFailed      = "CHECKOUT_SUBMIT_FAILED"
	CheckoutStoreChanged      = "CHECKOUT_STORE_CHANGED"

	// ==================== Server (SERVER_) ====================
	InternalServerError = "SERVER_INTERNAL_ERROR"
	ServiceUnavailable  = "SERVER_UNAVAILABLE"
	RequestTimeout      = "SERVER_TIMEOUT"
)
