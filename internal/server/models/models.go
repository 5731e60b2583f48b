// Package models defines the server-side record shapes. JSON tags follow the
// wire format shared with the terminals, so push payloads unmarshal directly
// and diff responses marshal without translation.
package models

import "time"

// Product is a sellable item. ID is the server primary key; LocalID is the
// identifier assigned by the terminal that created the record (zero for
// records created centrally) and is the idempotency key for pushes.
type Product struct {
	ID         int64     `json:"id"`
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
	ID        int64     `json:"id"`
	LocalID   int64     `json:"localId,omitempty"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Menu is a composite offer. Its components and allowed products are
// replaced wholesale on every upsert of the parent.
type Menu struct {
	ID              int64           `json:"id"`
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

// User is an operator account. PIN carries the plaintext PIN only on the
// first push of a terminal-created user; the server stores the bcrypt hash
// and echoes PinHash back in diffs.
type User struct {
	ID        int64     `json:"id"`
	LocalID   int64     `json:"localId,omitempty"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	PIN       string    `json:"pin,omitempty"`
	PinHash   string    `json:"pinHash,omitempty"`
	IsActive  bool      `json:"isActive"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Transaction is one completed sale, append-only. LocalID plus CreatedAt is
// its idempotency key.
type Transaction struct {
	ID            int64             `json:"id"`
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

// CashClosure is one cash-register session, upserted by LocalID so the
// settled state overwrites the open state.
type CashClosure struct {
	ID            int64      `json:"id"`
	LocalID       int64      `json:"localId"`
	OpenedAt      time.Time  `json:"openedAt"`
	ClosedAt      *time.Time `json:"closedAt,omitempty"`
	OpeningAmount float64    `json:"openingAmount"`
	ClosingAmount float64    `json:"closingAmount"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// CashMovement references its closure by the local identifier the creating
// terminal used; ClosureID is the resolved server key.
type CashMovement struct {
	ID             int64     `json:"id"`
	LocalID        int64     `json:"localId"`
	ClosureID      int64     `json:"-"`
	ClosureLocalID int64     `json:"closureLocalId"`
	Type           string    `json:"type"`
	Amount         float64   `json:"amount"`
	Reason         string    `json:"reason,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// StockMovement records a stock adjustment outside of sales.
type StockMovement struct {
	ID             int64     `json:"id"`
	LocalID        int64     `json:"localId"`
	ProductLocalID int64     `json:"productId"`
	Delta          float64   `json:"delta"`
	Reason         string    `json:"reason,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// DiffResponse is the changed-since payload served to terminals. Ts is the
// server time the diff was computed at; terminals persist it as their next
// cursor.
type DiffResponse struct {
	Ts         time.Time   `json:"ts"`
	Products   []*Product  `json:"products"`
	Menus      []*Menu     `json:"menus"`
	Categories []*Category `json:"categories"`
	Users      []*User     `json:"users"`
}
