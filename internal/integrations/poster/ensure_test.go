package poster

import (
	"context"
	"testing"

	"github.com/bartek5186/possync/internal/db"
)

// Niedostępne źródło degraduje do stuba — FK ma się zawsze spinać.
func TestEnsureCustomerStubOnFailure(t *testing.T) {
	gdb := testDB(t)
	src := &fakeSource{failClients: true}
	r := testResolver(t, gdb, src)

	if err := r.ensure(context.Background(), kindCustomer, 7); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	var c db.Customer
	if err := gdb.Where("customer_id = ?", 7).Take(&c).Error; err != nil {
		t.Fatalf("brak wiersza klienta: %v", err)
	}
	if !c.Stub || c.Lastname != "#7" {
		t.Errorf("oczekiwano stuba #7, got %+v", c)
	}
}

// Cache biegu: drugi ensure tego samego id to no-op, nawet gdy źródło
// już wróciło do życia. Dopiero kolejny bieg (świeży cache) nadpisze stub.
func TestEnsureStubReconciledNextRun(t *testing.T) {
	gdb := testDB(t)
	src := &fakeSource{
		failClients: true,
		clients:     map[int64]*RawClient{7: {ClientID: "7", Firstname: "Jan", Lastname: "Kowalski", Phone: "+48123456789"}},
	}
	r := testResolver(t, gdb, src)

	if err := r.ensure(context.Background(), kindCustomer, 7); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	// źródło ożyło, ale cache tego biegu zna id → no-op
	src.failClients = false
	if err := r.ensure(context.Background(), kindCustomer, 7); err != nil {
		t.Fatalf("ensure z cache: %v", err)
	}
	var c db.Customer
	if err := gdb.Where("customer_id = ?", 7).Take(&c).Error; err != nil {
		t.Fatal(err)
	}
	if !c.Stub {
		t.Fatal("cache biegu miał zablokować refetch w tym samym biegu")
	}

	// nowy bieg = nowy cache → stub zostaje nadpisany pełnym wierszem
	r2 := testResolver(t, gdb, src)
	if err := r2.ensure(context.Background(), kindCustomer, 7); err != nil {
		t.Fatalf("ensure w nowym biegu: %v", err)
	}
	if err := gdb.Where("customer_id = ?", 7).Take(&c).Error; err != nil {
		t.Fatal(err)
	}
	if c.Stub || c.Lastname != "Kowalski" {
		t.Errorf("stub miał być nadpisany pełnym wierszem, got %+v", c)
	}
}

// Produkt ciągnie za sobą kategorię (porządek topologiczny FK),
// a kategoria swojego rodzica.
func TestEnsureProductPullsCategoryChain(t *testing.T) {
	gdb := testDB(t)
	src := &fakeSource{
		products: map[int64]*RawProductDetail{
			100: {ProductID: "100", ProductName: "Pizza Margherita", MenuCategoryID: "20", Price: "32.50", Type: "2",
				Ingredients: []RawIngredient{{IngredientID: "501", IngredientName: "mozzarella", IngredientUnit: "kg"}},
			},
		},
		categories: []RawCategory{
			{CategoryID: "20", CategoryName: "Pizza", ParentCategory: "10"},
			{CategoryID: "10", CategoryName: "Kuchnia"},
		},
	}
	r := testResolver(t, gdb, src)

	if err := r.ensure(context.Background(), kindProduct, 100); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	var p db.Product
	if err := gdb.Where("product_id = ?", 100).Take(&p).Error; err != nil {
		t.Fatal(err)
	}
	if p.Stub || p.Name != "Pizza Margherita" || p.PriceCents != 3250 || p.CategoryID == nil || *p.CategoryID != 20 {
		t.Errorf("zły wiersz produktu: %+v", p)
	}

	var cat db.Category
	if err := gdb.Where("category_id = ?", 20).Take(&cat).Error; err != nil {
		t.Fatalf("kategoria nie została dociągnięta: %v", err)
	}
	if cat.ParentID == nil || *cat.ParentID != 10 {
		t.Errorf("brak rodzica kategorii: %+v", cat)
	}
	var parent db.Category
	if err := gdb.Where("category_id = ?", 10).Take(&parent).Error; err != nil {
		t.Fatalf("rodzic kategorii nie został dociągnięty: %v", err)
	}
	if parent.Name != "Kuchnia" {
		t.Errorf("zły rodzic: %+v", parent)
	}

	// tech-karta: składnik i danie też wylądowały
	var ing db.Ingredient
	if err := gdb.Where("ingredient_id = ?", 501).Take(&ing).Error; err != nil {
		t.Fatalf("brak składnika: %v", err)
	}
	var dish db.Dish
	if err := gdb.Where("dish_id = ?", 100).Take(&dish).Error; err != nil {
		t.Fatalf("brak dania: %v", err)
	}
}

// Lokal nie ma endpointu szczegółów — zawsze dostaje stub przy pierwszym użyciu.
func TestEnsureLocationAlwaysStub(t *testing.T) {
	gdb := testDB(t)
	r := testResolver(t, gdb, &fakeSource{})

	if err := r.ensure(context.Background(), kindLocation, 3); err != nil {
		t.Fatal(err)
	}
	var loc db.Location
	if err := gdb.Where("location_id = ?", 3).Take(&loc).Error; err != nil {
		t.Fatal(err)
	}
	if !loc.Stub || loc.Name != "#3" {
		t.Errorf("oczekiwano stuba lokalu, got %+v", loc)
	}
}

// Id <= 0 to no-op — brak referencji, brak wiersza.
func TestEnsureIgnoresZeroID(t *testing.T) {
	gdb := testDB(t)
	r := testResolver(t, gdb, &fakeSource{})
	if err := r.ensure(context.Background(), kindCustomer, 0); err != nil {
		t.Fatal(err)
	}
	var n int64
	gdb.Model(&db.Customer{}).Count(&n)
	if n != 0 {
		t.Errorf("ensure(0) nie miał nic tworzyć, jest %d wierszy", n)
	}
}

// Tabela encji jest kompletna po starcie pakietu: każdy rodzaj ma klucz,
// pusty model i konstruktor stuba.
func TestEntityTableComplete(t *testing.T) {
	kinds := []entityKind{
		kindCustomer, kindLocation, kindCategory, kindProduct,
		kindModifierGroup, kindModifier, kindIngredient, kindDish,
	}
	if len(entityTable) != len(kinds) {
		t.Fatalf("tabela ma %d wpisów, want %d", len(entityTable), len(kinds))
	}
	for _, k := range kinds {
		ops, ok := entityTable[k]
		if !ok {
			t.Errorf("brak wpisu dla %q", k)
			continue
		}
		if ops.keyColumn == "" || ops.model == nil || ops.stub == nil {
			t.Errorf("niekompletny wpis dla %q: %+v", k, ops)
		}
	}
}
