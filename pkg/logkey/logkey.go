package logkey

// Shared attribute keys so log lines stay grep-able across packages.
const (
	TraceID    = "TRACE ID"
	ERROR      = "ERROR"
	UserID     = "UserID"
	OrderID    = "OrderID"
	ProductID  = "ProductID"
	Collection = "Collection"
)
