package models

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

const (
	// Wallet entry kinds.
	EntryBookingHold   = "booking_hold"
	EntryBookingRefund = "booking_refund"
	EntryBookingPayout = "booking_payout"
	EntryAdminAdjust   = "admin_adjust"
)

const (
	// Catalog sort options.
	SortRecent    = "recent"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"

	// DefaultCatalogPageSize размер страницы каталога по умолчанию
	DefaultCatalogPageSize = 20

	// MaxCatalogPageSize верхняя граница размера страницы каталога
	MaxCatalogPageSize = 100

	// CatalogCacheTTL время жизни кэша каталога
	CatalogCacheTTL = 5 * 60 // 5 минут в секундах

	// ChatRateLimitMessages количество сообщений в окне
	ChatRateLimitMessages = 20

	// ChatRateLimitWindow окно ограничения частоты сообщений
	ChatRateLimitWindow = 60 // 1 минута в секундах

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 1000
)

const (
	// Sync queue task lifecycle.
	SyncStatusPending = "pending"
	SyncStatusRetry   = "retry"
	SyncStatusDone    = "done"
	SyncStatusDead    = "dead"

	// TaskTypeLedgerSync выгрузка записи брони в таблицу
	TaskTypeLedgerSync = "ledger_sync"
	// TaskTypeStatusSync обновление только колонки статуса
	TaskTypeStatusSync = "status_sync"
)

// TerminalStatus reports whether the status admits no further transitions.
func TerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusCancelled
}
