package models

// EntityType identifies one synchronizable record kind; the value matches
// the /api/sync/{type} path segment and the key wrapping the batch in the
// request body.
type EntityType string

const (
	EntityTransactions   EntityType = "transactions"
	EntityClosures       EntityType = "closures"
	EntityCashMovements  EntityType = "cash-movements"
	EntityProducts       EntityType = "products"
	EntityMenus          EntityType = "menus"
	EntityStockMovements EntityType = "stock-movements"
	EntityCategories     EntityType = "categories"
	EntityUsers          EntityType = "users"
)

// KnownEntityTypes lists every type the sync endpoint accepts.
var KnownEntityTypes = []EntityType{
	EntityTransactions,
	EntityClosures,
	EntityCashMovements,
	EntityProducts,
	EntityMenus,
	EntityStockMovements,
	EntityCategories,
	EntityUsers,
}

// PushResponse acknowledges one push batch. Count is the number of records
// actually applied; records deduplicated or skipped are not counted.
// SkippedLocalIDs names the records the server could not accept yet (a cash
// movement whose closure has not arrived); the terminal keeps those queued
// and resubmits them, so a skip is never mistaken for an acknowledgment.
type PushResponse struct {
	Success         bool    `json:"success"`
	Count           int     `json:"count"`
	Message         string  `json:"message,omitempty"`
	SkippedLocalIDs []int64 `json:"skippedLocalIds,omitempty"`
}
