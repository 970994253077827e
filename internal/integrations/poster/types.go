// internal/integrations/poster/types.go
package poster

// Surowe typy API — źródło oddaje praktycznie wszystko jako stringi
// (liczby, epoch-ms, kwoty), parsujemy dopiero przy mapowaniu.

type RawTransaction struct {
	TransactionID    string                  `json:"transaction_id"`
	ClientID         string                  `json:"client_id"`
	SpotID           string                  `json:"spot_id"` // lokal
	TableID          string                  `json:"table_id"`
	UserID           string                  `json:"user_id"` // kelner
	Status           string                  `json:"status"`
	ProcessingStatus string                  `json:"processing_status"`
	ServiceMode      string                  `json:"service_mode"`
	DateStart        string                  `json:"date_start"`
	DateCreate       string                  `json:"date_create"`
	DateClose        string                  `json:"date_close"`
	Sum              string                  `json:"sum"`
	PayedSum         string                  `json:"payed_sum"`
	PayedCash        string                  `json:"payed_cash"`
	PayedCard        string                  `json:"payed_card"`
	PayedBonus       string                  `json:"payed_bonus"`
	DiscountPercent  string                  `json:"discount"`
	Products         []RawTransactionProduct `json:"products,omitempty"`
}

type RawTransactionProduct struct {
	ProductID    string              `json:"product_id"`
	CategoryID   string              `json:"category_id"`
	Num          string              `json:"num"`
	ProductSum   string              `json:"product_sum"`
	Modifiers    []RawModifier       `json:"modifiers,omitempty"`    // nowy format
	Modification []RawLegacyModifier `json:"modification,omitempty"` // format legacy
}

type RawModifier struct {
	Group string `json:"group"`
	Name  string `json:"name"`
}

type RawLegacyModifier struct {
	M int64   `json:"m"` // modifier id
	A float64 `json:"a"` // ilość
}

type RawProductDetail struct {
	ProductID          string                 `json:"product_id"`
	ProductName        string                 `json:"product_name"`
	MenuCategoryID     string                 `json:"menu_category_id"`
	Price              string                 `json:"price"`
	Type               string                 `json:"type"` // 1=towar, 2=danie
	Ingredients        []RawIngredient        `json:"ingredients,omitempty"`
	GroupModifications []RawGroupModification `json:"group_modifications,omitempty"`
}

type RawIngredient struct {
	IngredientID   string `json:"ingredient_id"`
	IngredientName string `json:"ingredient_name"`
	IngredientUnit string `json:"ingredient_unit"`
}

type RawGroupModification struct {
	GroupID       string                     `json:"dish_modification_group_id"`
	Name          string                     `json:"name"`
	Modifications []RawGroupModificationItem `json:"modifications,omitempty"`
}

type RawGroupModificationItem struct {
	ModificationID string `json:"dish_modification_id"`
	Name           string `json:"name"`
	Price          string `json:"price"`
}

type RawCategory struct {
	CategoryID     string `json:"category_id"`
	CategoryName   string `json:"category_name"`
	ParentCategory string `json:"parent_category"`
}

type RawClient struct {
	ClientID  string `json:"client_id"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Birthday  string `json:"birthday"`
}
