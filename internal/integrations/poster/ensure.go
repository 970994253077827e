package poster

import (
	"context"
	"errors"
	"fmt"

	"github.com/bartek5186/possync/internal/db"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// entityKind — rodzaje encji referencyjnych magazynu.
type entityKind string

const (
	kindCustomer      entityKind = "customer"
	kindLocation      entityKind = "location"
	kindCategory      entityKind = "category"
	kindProduct       entityKind = "product"
	kindModifierGroup entityKind = "modifier_group"
	kindModifier      entityKind = "modifier"
	kindIngredient    entityKind = "ingredient"
	kindDish          entityKind = "dish"
)

// runCache — pamięć jednego biegu: które id-ki na pewno już są w magazynie.
// Czysta optymalizacja: tworzona per RunSync, wyrzucana po nim, nigdy
// globalna ani statyczna.
type runCache struct {
	known map[entityKind]map[int64]struct{}
}

func newRunCache() *runCache {
	return &runCache{known: map[entityKind]map[int64]struct{}{}}
}

func (c *runCache) has(k entityKind, id int64) bool {
	_, ok := c.known[k][id]
	return ok
}

func (c *runCache) add(k entityKind, id int64) {
	m, ok := c.known[k]
	if !ok {
		m = map[int64]struct{}{}
		c.known[k] = m
	}
	m[id] = struct{}{}
}

// resolver — kontekst jednego biegu synchronizacji: baza, źródło, cache.
type resolver struct {
	log   zerolog.Logger
	gdb   *gorm.DB
	src   Source
	cache *runCache
}

// entityOps — tabela zachowań per rodzaj encji: klucz, pusty model do
// zapytania o istnienie, fetcher szczegółów (nil = źródło nie ma endpointu,
// od razu stub) i konstruktor stuba. Fetcher sam dba o własne zależności
// (rekurencyjny ensure w porządku topologicznym) i o upsert pełnego wiersza.
type entityOps struct {
	keyColumn string
	model     func() any
	fetch     func(ctx context.Context, r *resolver, id int64) error
	stub      func(id int64) any
}

// Wypełniana w init(): fetchery wołają ensure, a ensure czyta tę mapę,
// więc literał na poziomie pakietu robiłby cykl inicjalizacji.
var entityTable map[entityKind]entityOps

func init() {
	entityTable = map[entityKind]entityOps{
		kindCustomer: {
			keyColumn: "customer_id",
			model:     func() any { return &db.Customer{} },
			fetch:     fetchCustomer,
			stub:      func(id int64) any { return &db.Customer{CustomerID: id, Lastname: stubName(id), Stub: true} },
		},
		kindLocation: {
			keyColumn: "location_id",
			model:     func() any { return &db.Location{} },
			stub:      func(id int64) any { return &db.Location{LocationID: id, Name: stubName(id), Stub: true} },
		},
		kindCategory: {
			keyColumn: "category_id",
			model:     func() any { return &db.Category{} },
			fetch:     fetchCategory,
			stub:      func(id int64) any { return &db.Category{CategoryID: id, Name: stubName(id), Stub: true} },
		},
		kindProduct: {
			keyColumn: "product_id",
			model:     func() any { return &db.Product{} },
			fetch:     fetchProduct,
			stub:      func(id int64) any { return &db.Product{ProductID: id, Name: stubName(id), Stub: true} },
		},
		kindModifierGroup: {
			keyColumn: "group_id",
			model:     func() any { return &db.ModifierGroup{} },
			stub:      func(id int64) any { return &db.ModifierGroup{GroupID: id, Name: stubName(id), Stub: true} },
		},
		kindModifier: {
			keyColumn: "modifier_id",
			model:     func() any { return &db.Modifier{} },
			stub:      func(id int64) any { return &db.Modifier{ModifierID: id, Name: stubName(id), Stub: true} },
		},
		kindIngredient: {
			keyColumn: "ingredient_id",
			model:     func() any { return &db.Ingredient{} },
			stub:      func(id int64) any { return &db.Ingredient{IngredientID: id, Name: stubName(id), Stub: true} },
		},
		kindDish: {
			keyColumn: "dish_id",
			model:     func() any { return &db.Dish{} },
			stub:      func(id int64) any { return &db.Dish{DishID: id, Name: stubName(id), Stub: true} },
		},
	}
}

func stubName(id int64) string { return fmt.Sprintf("#%d", id) }

// ensure — idempotentna gwarancja istnienia encji zanim FK jej dotknie.
// Kolejność: cache → magazyn → źródło → stub. Id trafia do cache zawsze,
// więc drugi ensure tego samego id w biegu to no-op.
func (r *resolver) ensure(ctx context.Context, kind entityKind, id int64) error {
	if id <= 0 {
		return nil
	}
	if r.cache.has(kind, id) {
		return nil
	}

	ops, ok := entityTable[kind]
	if !ok {
		return fmt.Errorf("ensure: nieznany rodzaj encji %q", kind)
	}

	exists, err := r.exists(ops, id)
	if err != nil {
		return err
	}
	if !exists {
		fetched := false
		if ops.fetch != nil {
			if err := ops.fetch(ctx, r, id); err != nil {
				// degradacja do stuba — FK musi się spinać nawet przy kaprysach źródła
				r.log.Warn().Err(err).Str("kind", string(kind)).Int64("id", id).
					Msg("detail fetch nieudany — zapisuję stub")
			} else {
				fetched = true
			}
		}
		if !fetched {
			if err := r.upsertStub(ops.stub(id)); err != nil {
				return err
			}
		}
	}
	r.cache.add(kind, id)
	return nil
}

// exists — stub liczy się jako brak: kolejny bieg spróbuje dociągnąć
// pełne dane i nadpisać zaślepkę (rekonsyliacja jest leniwa i ewentualna).
func (r *resolver) exists(ops entityOps, id int64) (bool, error) {
	err := r.gdb.Where(ops.keyColumn+" = ? AND stub = ?", id, false).Take(ops.model()).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

// upsertStub — stub nigdy nie nadpisuje pełnego wiersza.
func (r *resolver) upsertStub(row any) error {
	return r.gdb.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
}

// upsertFull — pełny wiersz nadpisuje wszystko, łącznie z wcześniejszym stubem.
func (r *resolver) upsertFull(row any, keyColumn string, columns []string) error {
	return r.gdb.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: keyColumn}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(row).Error
}

// --- fetchery szczegółów ---

func fetchCustomer(ctx context.Context, r *resolver, id int64) error {
	cl, err := r.src.GetClientByID(ctx, id)
	if err != nil {
		return err
	}
	row := &db.Customer{
		CustomerID: id,
		Firstname:  cl.Firstname,
		Lastname:   cl.Lastname,
		Phone:      cl.Phone,
		Email:      cl.Email,
		Birthday:   ParseTime(cl.Birthday),
	}
	return r.upsertFull(row, "customer_id", []string{"firstname", "lastname", "phone", "email", "birthday", "stub"})
}

func fetchCategory(ctx context.Context, r *resolver, id int64) error {
	cats, err := r.src.GetMenuCategories(ctx)
	if err != nil {
		return err
	}
	for _, c := range cats {
		if i64(c.CategoryID) != id {
			continue
		}
		var parentID *int64
		if p := i64(c.ParentCategory); p > 0 && p != id {
			// najpierw rodzic — porządek topologiczny FK
			if err := r.ensure(ctx, kindCategory, p); err != nil {
				return err
			}
			parentID = &p
		}
		row := &db.Category{CategoryID: id, Name: c.CategoryName, ParentID: parentID}
		return r.upsertFull(row, "category_id", []string{"name", "parent_id", "stub"})
	}
	return fmt.Errorf("kategoria %d nieznana w menu", id)
}

func fetchProduct(ctx context.Context, r *resolver, id int64) error {
	p, err := r.src.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	var catID *int64
	if c := i64(p.MenuCategoryID); c > 0 {
		if err := r.ensure(ctx, kindCategory, c); err != nil {
			return err
		}
		catID = &c
	}
	typ := int(i64(p.Type))
	row := &db.Product{ProductID: id, Name: p.ProductName, CategoryID: catID, PriceCents: ToCents(p.Price), Type: typ}
	if err := r.upsertFull(row, "product_id", []string{"name", "category_id", "price_cents", "type", "stub"}); err != nil {
		return err
	}

	// składniki tech-karty
	for _, ing := range p.Ingredients {
		iid := i64(ing.IngredientID)
		if iid <= 0 {
			continue
		}
		irow := &db.Ingredient{IngredientID: iid, Name: ing.IngredientName, Unit: ing.IngredientUnit}
		if err := r.upsertFull(irow, "ingredient_id", []string{"name", "unit", "stub"}); err != nil {
			return err
		}
		r.cache.add(kindIngredient, iid)
	}
	// danie dostaje też wpis w dishes
	if typ == productTypeDish {
		drow := &db.Dish{DishID: id, Name: p.ProductName, CategoryID: catID}
		if err := r.upsertFull(drow, "dish_id", []string{"name", "category_id", "stub"}); err != nil {
			return err
		}
		r.cache.add(kindDish, id)
	}

	// grupy modyfikacji + modyfikatory — pełne wiersze zamiast późniejszych stubów
	for _, g := range p.GroupModifications {
		gid := i64(g.GroupID)
		if gid > 0 {
			grow := &db.ModifierGroup{GroupID: gid, Name: g.Name}
			if err := r.upsertFull(grow, "group_id", []string{"name", "stub"}); err != nil {
				return err
			}
			r.cache.add(kindModifierGroup, gid)
		}
		for _, m := range g.Modifications {
			mid := i64(m.ModificationID)
			if mid <= 0 {
				continue
			}
			var gptr *int64
			if gid > 0 {
				gg := gid
				gptr = &gg
			}
			mrow := &db.Modifier{ModifierID: mid, GroupID: gptr, Name: m.Name, PriceCents: ToCents(m.Price)}
			if err := r.upsertFull(mrow, "modifier_id", []string{"group_id", "name", "price_cents", "stub"}); err != nil {
				return err
			}
			r.cache.add(kindModifier, mid)
		}
	}
	return nil
}
