// Package models defines the synchronizable record shapes shared by the
// terminal's local store and the sync engine. Field names follow the wire
// format (camelCase JSON) so payloads snapshotted into the durable queue can
// be sent to the server without translation.
package models

import "time"

// EntityType identifies one synchronizable record kind. The value doubles as
// the sync endpoint path segment and as the key wrapping batches in push
// request bodies.
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

// PushOrder is the fixed order in which entity types are drained from the
// durable queue. It reflects foreign-key dependencies on the server: a cash
// closure must land before the movements that reference it by local id.
var PushOrder = []EntityType{
	EntityTransactions,
	EntityClosures,
	EntityCashMovements,
	EntityProducts,
	EntityMenus,
	EntityStockMovements,
	EntityCategories,
	EntityUsers,
}

// PullOrder is the order in which diff collections are merged locally:
// categories before the products that reference them, products before menus.
var PullOrder = []EntityType{
	EntityCategories,
	EntityProducts,
	EntityMenus,
	EntityUsers,
}

// Product is a sellable item. ID is the server primary key (zero until the
// server echoes the record back), LocalID is the terminal-assigned identifier
// that stays stable across the sync boundary.
type Product struct {
	ID         int64     `json:"id,omitempty"`
	LocalID    int64     `json:"localId,omitempty"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	CategoryID int64     `json:"categoryId,omitempty"`
	Stock      float64   `json:"stock"`
	ImagePath  string    `json:"imagePath,omitempty"`
	IsActive   bool      `json:"isActive"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Category groups products for display.
type Category struct {
	ID        int64     `json:"id,omitempty"`
	LocalID   int64     `json:"localId,omitempty"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Menu is a composite offer (fixed price, a set of component slots, and the
// products allowed to fill them). Children are replaced wholesale on every
// upsert of the parent.
type Menu struct {
	ID              int64           `json:"id,omitempty"`
	LocalID         int64           `json:"localId,omitempty"`
	Name            string          `json:"name"`
	Price           float64         `json:"price"`
	ImagePath       string          `json:"imagePath,omitempty"`
	IsActive        bool            `json:"isActive"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	Components      []MenuComponent `json:"components"`
	AllowedProducts []int64         `json:"allowedProducts"`
}

// MenuComponent is one slot of a menu ("main", "side", "drink").
type MenuComponent struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Transaction is one completed sale. Append-only: it is created once, pushed
// once (or more, idempotently), and never edited, so CreatedAt doubles as its
// activity timestamp.
type Transaction struct {
	ID            int64             `json:"id,omitempty"`
	LocalID       int64             `json:"localId"`
	UserLocalID   int64             `json:"userId,omitempty"`
	PaymentMethod string            `json:"paymentMethod"`
	Total         float64           `json:"total"`
	Lines         []TransactionLine `json:"lines"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// TransactionLine is one sold item within a transaction.
type TransactionLine struct {
	ProductID int64   `json:"productId,omitempty"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Total     float64 `json:"total"`
}

// CashClosure is one cash-register session. A nil ClosedAt means the session
// is still open.
type CashClosure struct {
	ID            int64      `json:"id,omitempty"`
	LocalID       int64      `json:"localId"`
	OpenedAt      time.Time  `json:"openedAt"`
	ClosedAt      *time.Time `json:"closedAt,omitempty"`
	OpeningAmount float64    `json:"openingAmount"`
	ClosingAmount float64    `json:"closingAmount"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// CashMovement is a deposit into or withdrawal from an open register session.
// ClosureLocalID references the closure by the identifier it had on the
// terminal that created it; the server resolves this to its own closure key
// at insert time.
type CashMovement struct {
	ID             int64     `json:"id,omitempty"`
	LocalID        int64     `json:"localId"`
	ClosureLocalID int64     `json:"closureLocalId"`
	Type           string    `json:"type"` // "deposit" or "withdrawal"
	Amount         float64   `json:"amount"`
	Reason         string    `json:"reason,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// StockMovement records a stock adjustment for a product (delivery, loss,
// correction). Sales decrement stock through transaction lines instead.
type StockMovement struct {
	ID             int64     `json:"id,omitempty"`
	LocalID        int64     `json:"localId"`
	ProductLocalID int64     `json:"productId"`
	Delta          float64   `json:"delta"`
	Reason         string    `json:"reason,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// User is an operator account. PIN carries a plaintext PIN only on the push
// of a locally created user; the server stores and echoes back PinHash, which
// terminals use for offline sign-in checks.
type User struct {
	ID        int64     `json:"id,omitempty"`
	LocalID   int64     `json:"localId,omitempty"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	PIN       string    `json:"pin,omitempty"`
	PinHash   string    `json:"pinHash,omitempty"`
	IsActive  bool      `json:"isActive"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EffectiveID resolves the identifier a merge handler should use to match an
// incoming record against the local store: the client-origin local id when
// the server knows it, else the server primary key.
func EffectiveID(localID, serverID int64) int64 {
	if localID != 0 {
		return localID
	}
	return serverID
}
