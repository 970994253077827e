// internal/db/models.go
package db

import "time"

// sync_states — pojedynczy wiersz (id=1) z kursorami i bramkami warstw.
// Wzorzec: każda warstwa (today/week/month/all) ma własny timestamp,
// LastTransactionID idzie tylko do przodu.
type SyncState struct {
	ID                uint `gorm:"primaryKey"`
	LastTransactionID *int64
	LastTodaySyncAt   *time.Time
	LastWeekSyncAt    *time.Time
	LastMonthSyncAt   *time.Time
	LastAllSyncAt     *time.Time
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

// transactions — pełne nadpisanie przy każdym upsercie (mirror, nie log).
// Kwoty w groszach (int), statusy jako małe enumy (patrz poster/enums).
type Transaction struct {
	TransactionID    int64  `gorm:"primaryKey;column:transaction_id"`
	CustomerID       *int64 `gorm:"index"`
	LocationID       *int64 `gorm:"index"`
	TableID          *int64
	WaiterID         *int64
	Status           int `gorm:"index"`
	ProcessingStatus int `gorm:"index"`
	ServiceMode      int
	SumCents         int64
	PayedSumCents    int64
	PayedCashCents   int64
	PayedCardCents   int64
	PayedBonusCents  int64
	DiscountPercent  float64
	DateStart        *time.Time `gorm:"index"`
	DateCreate       *time.Time
	DateClose        *time.Time
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// order_lines — pozycje zamówienia, FK do transactions.
// Snapshot nazwy produktu/kategorii jest zdenormalizowany celowo:
// historyczna linia ma wyglądać tak, jak w momencie sprzedaży.
type OrderLine struct {
	TransactionID int64  `gorm:"primaryKey"`
	LineIndex     int    `gorm:"primaryKey"`
	ProductID     *int64 `gorm:"index"`
	CategoryID    *int64
	ProductName   string
	CategoryName  string
	Quantity      float64
	SumCents      int64
	RawModifiers  string `gorm:"type:text"` // surowy payload modyfikatorów ze źródła
}

// line_modifiers — modyfikatory pozycji (sos, dodatki itd.)
type LineModifier struct {
	TransactionID int64 `gorm:"primaryKey"`
	LineIndex     int   `gorm:"primaryKey"`
	ModifierID    int64 `gorm:"primaryKey"`
	GroupName     string
	Name          string
	Amount        float64
}

// Encje referencyjne — tworzone leniwie przy pierwszym użyciu ("ensure"),
// nigdy nie kasowane przez pipeline. Stub=true oznacza wiersz-zaślepkę
// (nie udało się dociągnąć szczegółów ze źródła).

type Customer struct {
	CustomerID int64 `gorm:"primaryKey"`
	Firstname  string
	Lastname   string
	Phone      string `gorm:"index"`
	Email      string
	Birthday   *time.Time
	Stub       bool
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

type Location struct {
	LocationID int64 `gorm:"primaryKey"`
	Name       string
	Address    string
	Stub       bool
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

type Category struct {
	CategoryID int64 `gorm:"primaryKey"`
	Name       string
	ParentID   *int64
	Stub       bool
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

type Product struct {
	ProductID  int64 `gorm:"primaryKey"`
	Name       string
	CategoryID *int64 `gorm:"index"`
	PriceCents int64
	Type       int // 1=towar, 2=danie (tech-karta)
	Stub       bool
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

type ModifierGroup struct {
	GroupID   int64 `gorm:"primaryKey"`
	Name      string
	Stub      bool
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

type Modifier struct {
	ModifierID int64 `gorm:"primaryKey"`
	GroupID    *int64
	Name       string
	PriceCents int64
	Stub       bool
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

type Ingredient struct {
	IngredientID int64 `gorm:"primaryKey"`
	Name         string
	Unit         string
	Stub         bool
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

type Dish struct {
	DishID     int64 `gorm:"primaryKey"`
	Name       string
	CategoryID *int64
	Stub       bool
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// kv — drobny magazyn klucz→wartość (m.in. lease biegu synchronizacji)
type KV struct {
	K string `gorm:"primaryKey"`
	V string
}
