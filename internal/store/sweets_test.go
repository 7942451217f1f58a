package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/mithaiwala/sweetshop/internal/db"
)

func strptr(s string) *string { return &s }
func floatptr(f float64) *float64 { return &f }

func TestCreateAndGetSweet(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	sweet, err := CreateSweet(ctx, database, "Ladoo", "Traditional", 2.5, 10, nil)
	if err != nil {
		t.Fatalf("CreateSweet: %v", err)
	}
	if sweet.ID == 0 {
		t.Error("expected generated id")
	}
	if sweet.CreatedAt.IsZero() || sweet.UpdatedAt.IsZero() {
		t.Error("expected generated timestamps")
	}

	got, err := GetSweet(ctx, database, sweet.ID)
	if err != nil {
		t.Fatalf("GetSweet: %v", err)
	}
	if got == nil {
		t.Fatal("expected sweet, got nil")
	}
	if got.Name != "Ladoo" || got.Category != "Traditional" || got.Price != 2.5 || got.Quantity != 10 {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if got.ImageURL != nil {
		t.Errorf("expected nil image url, got %q", *got.ImageURL)
	}
}

func TestCreateSweetWithImageURL(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	sweet, err := CreateSweet(ctx, database, "Barfi", "Milk", 3.1, 5, strptr("/uploads/barfi.jpg"))
	if err != nil {
		t.Fatalf("CreateSweet: %v", err)
	}
	if sweet.ImageURL == nil || *sweet.ImageURL != "/uploads/barfi.jpg" {
		t.Errorf("expected image url '/uploads/barfi.jpg', got %v", sweet.ImageURL)
	}
}

func TestGetSweetMissing(t *testing.T) {
	database := db.NewTestDB(t)

	sweet, err := GetSweet(context.Background(), database, 999)
	if err != nil {
		t.Fatalf("GetSweet: %v", err)
	}
	if sweet != nil {
		t.Errorf("expected nil for missing id, got %+v", sweet)
	}
}

func TestListSweetsNewestFirst(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	first, _ := CreateSweet(ctx, database, "Ladoo", "Traditional", 2.5, 10, nil)
	second, _ := CreateSweet(ctx, database, "Barfi", "Milk", 3.1, 5, nil)

	sweets, err := ListSweets(ctx, database)
	if err != nil {
		t.Fatalf("ListSweets: %v", err)
	}
	if len(sweets) != 2 {
		t.Fatalf("expected 2 sweets, got %d", len(sweets))
	}
	if sweets[0].ID != second.ID || sweets[1].ID != first.ID {
		t.Errorf("expected newest first, got ids %d, %d", sweets[0].ID, sweets[1].ID)
	}
}

func seedSearchFixtures(t *testing.T, database *sql.DB) {
	t.Helper()
	ctx := context.Background()
	if _, err := CreateSweet(ctx, database, "Ladoo", "Traditional", 2.5, 10, nil); err != nil {
		t.Fatalf("seeding: %v", err)
	}
	if _, err := CreateSweet(ctx, database, "Barfi", "Milk", 3.1, 5, nil); err != nil {
		t.Fatalf("seeding: %v", err)
	}
}

func TestSearchSweetsByName(t *testing.T) {
	database := db.NewTestDB(t)
	seedSearchFixtures(t, database)

	// Case-insensitive substring match.
	sweets, err := SearchSweets(context.Background(), database, SweetFilter{Name: "ladoo"})
	if err != nil {
		t.Fatalf("SearchSweets: %v", err)
	}
	if len(sweets) != 1 || sweets[0].Name != "Ladoo" {
		t.Errorf("expected exactly Ladoo, got %+v", sweets)
	}
}

func TestSearchSweetsByMinPrice(t *testing.T) {
	database := db.NewTestDB(t)
	seedSearchFixtures(t, database)

	sweets, err := SearchSweets(context.Background(), database, SweetFilter{MinPrice: floatptr(3)})
	if err != nil {
		t.Fatalf("SearchSweets: %v", err)
	}
	if len(sweets) != 1 || sweets[0].Name != "Barfi" {
		t.Errorf("expected exactly Barfi, got %+v", sweets)
	}
}

func TestSearchSweetsCombinedFiltersAND(t *testing.T) {
	database := db.NewTestDB(t)
	seedSearchFixtures(t, database)

	sweets, err := SearchSweets(context.Background(), database, SweetFilter{
		Category: "milk",
		MinPrice: floatptr(4),
	})
	if err != nil {
		t.Fatalf("SearchSweets: %v", err)
	}
	if len(sweets) != 0 {
		t.Errorf("expected no matches, got %+v", sweets)
	}
}

func TestSearchSweetsNoFiltersListsAll(t *testing.T) {
	database := db.NewTestDB(t)
	seedSearchFixtures(t, database)

	sweets, err := SearchSweets(context.Background(), database, SweetFilter{})
	if err != nil {
		t.Fatalf("SearchSweets: %v", err)
	}
	if len(sweets) != 2 {
		t.Errorf("expected 2 sweets, got %d", len(sweets))
	}
}

func TestSearchSweetsPriceBoundsInclusive(t *testing.T) {
	database := db.NewTestDB(t)
	seedSearchFixtures(t, database)

	sweets, err := SearchSweets(context.Background(), database, SweetFilter{
		MinPrice: floatptr(2.5),
		MaxPrice: floatptr(3.1),
	})
	if err != nil {
		t.Fatalf("SearchSweets: %v", err)
	}
	if len(sweets) != 2 {
		t.Errorf("expected both sweets at inclusive bounds, got %d", len(sweets))
	}
}

func TestUpdateSweetPartial(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	sweet, _ := CreateSweet(ctx, database, "Ladoo", "Traditional", 2.5, 10, nil)

	updated, err := UpdateSweet(ctx, database, sweet.ID, SweetUpdate{Price: floatptr(2.75)})
	if err != nil {
		t.Fatalf("UpdateSweet: %v", err)
	}
	if updated.Price != 2.75 {
		t.Errorf("expected price 2.75, got %v", updated.Price)
	}
	// Omitted fields keep prior values.
	if updated.Name != "Ladoo" || updated.Category != "Traditional" || updated.Quantity != 10 {
		t.Errorf("omitted fields changed: %+v", updated)
	}
}

func TestUpdateSweetEmptyIsNoOp(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	sweet, _ := CreateSweet(ctx, database, "Ladoo", "Traditional", 2.5, 10, nil)

	got, err := UpdateSweet(ctx, database, sweet.ID, SweetUpdate{})
	if err != nil {
		t.Fatalf("UpdateSweet with empty fields: %v", err)
	}
	if !got.UpdatedAt.Equal(sweet.UpdatedAt) {
		t.Errorf("empty update must not refresh updated_at: %v != %v", got.UpdatedAt, sweet.UpdatedAt)
	}
	if got.Name != sweet.Name || got.Price != sweet.Price || got.Quantity != sweet.Quantity {
		t.Errorf("empty update changed record: %+v", got)
	}
}

func TestUpdateSweetClearImageURL(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	sweet, _ := CreateSweet(ctx, database, "Barfi", "Milk", 3.1, 5, strptr("/uploads/barfi.jpg"))

	updated, err := UpdateSweet(ctx, database, sweet.ID, SweetUpdate{
		ImageURL: &sql.NullString{},
	})
	if err != nil {
		t.Fatalf("UpdateSweet: %v", err)
	}
	if updated.ImageURL != nil {
		t.Errorf("expected cleared image url, got %q", *updated.ImageURL)
	}
}

func TestUpdateSweetMissing(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := UpdateSweet(context.Background(), database, 999, SweetUpdate{Name: strptr("Ghost")})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	_, err = UpdateSweet(context.Background(), database, 999, SweetUpdate{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty update on missing id, got %v", err)
	}
}

func TestDeleteSweet(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	sweet, _ := CreateSweet(ctx, database, "Ladoo", "Traditional", 2.5, 10, nil)

	if err := DeleteSweet(ctx, database, sweet.ID); err != nil {
		t.Fatalf("DeleteSweet: %v", err)
	}

	got, err := GetSweet(ctx, database, sweet.ID)
	if err != nil {
		t.Fatalf("GetSweet: %v", err)
	}
	if got != nil {
		t.Errorf("expected sweet gone after delete, got %+v", got)
	}

	if err := DeleteSweet(ctx, database, sweet.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting missing id, got %v", err)
	}
}

func TestSweetIDsNotReusedAfterDelete(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	first, _ := CreateSweet(ctx, database, "Ladoo", "Traditional", 2.5, 10, nil)
	DeleteSweet(ctx, database, first.ID)

	second, err := CreateSweet(ctx, database, "Barfi", "Milk", 3.1, 5, nil)
	if err != nil {
		t.Fatalf("CreateSweet: %v", err)
	}
	if second.ID == first.ID {
		t.Errorf("id %d reused after delete", first.ID)
	}
}

func TestPurchaseSweet(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	sweet, _ := CreateSweet(ctx, database, "Ladoo", "Traditional", 2.5, 10, nil)

	got, err := PurchaseSweet(ctx, database, sweet.ID, 3)
	if err != nil {
		t.Fatalf("PurchaseSweet: %v", err)
	}
	if got.Quantity != 7 {
		t.Errorf("expected quantity 7, got %d", got.Quantity)
	}
}

func TestPurchaseSweetBoundary(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	sweet, _ := CreateSweet(ctx, database, "Ladoo", "Traditional", 2.5, 10, nil)

	// Buying exactly the current stock drives quantity to zero.
	got, err := PurchaseSweet(ctx, database, sweet.ID, 10)
	if err != nil {
		t.Fatalf("PurchaseSweet: %v", err)
	}
	if got.Quantity != 0 {
		t.Errorf("expected quantity 0, got %d", got.Quantity)
	}

	// One more unit than available fails and changes nothing.
	_, err = PurchaseSweet(ctx, database, sweet.ID, 1)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}

	after, _ := GetSweet(ctx, database, sweet.ID)
	if after.Quantity != 0 {
		t.Errorf("failed purchase must not change quantity, got %d", after.Quantity)
	}
}

func TestPurchaseSweetInsufficientNoWrite(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	sweet, _ := CreateSweet(ctx, database, "Ladoo", "Traditional", 2.5, 3, nil)

	_, err := PurchaseSweet(ctx, database, sweet.ID, 5)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	after, _ := GetSweet(ctx, database, sweet.ID)
	if after.Quantity != 3 {
		t.Errorf("expected quantity unchanged at 3, got %d", after.Quantity)
	}
}

func TestPurchaseSweetMissing(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := PurchaseSweet(context.Background(), database, 999, 1)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRestockSweet(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	sweet, _ := CreateSweet(ctx, database, "Ladoo", "Traditional", 2.5, 10, nil)

	got, err := RestockSweet(ctx, database, sweet.ID, 25)
	if err != nil {
		t.Fatalf("RestockSweet: %v", err)
	}
	if got.Quantity != 35 {
		t.Errorf("expected quantity 35, got %d", got.Quantity)
	}
}

func TestRestockSweetMissing(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := RestockSweet(context.Background(), database, 999, 1)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPurchaseRestockScenario(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	sweet, _ := CreateSweet(ctx, database, "Jalebi", "Traditional", 1.2, 1, nil)

	got, err := PurchaseSweet(ctx, database, sweet.ID, 1)
	if err != nil {
		t.Fatalf("first purchase: %v", err)
	}
	if got.Quantity != 0 {
		t.Fatalf("expected quantity 0, got %d", got.Quantity)
	}

	_, err = PurchaseSweet(ctx, database, sweet.ID, 1)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock on empty stock, got %v", err)
	}

	got, err = RestockSweet(ctx, database, sweet.ID, 5)
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if got.Quantity != 5 {
		t.Errorf("expected quantity 5 after restock, got %d", got.Quantity)
	}

	// Purchasable again.
	got, err = PurchaseSweet(ctx, database, sweet.ID, 2)
	if err != nil {
		t.Fatalf("purchase after restock: %v", err)
	}
	if got.Quantity != 3 {
		t.Errorf("expected quantity 3, got %d", got.Quantity)
	}
}

func TestMutationsRefreshUpdatedAt(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	sweet, _ := CreateSweet(ctx, database, "Ladoo", "Traditional", 2.5, 10, nil)

	// Backdating sidesteps CURRENT_TIMESTAMP's one-second precision: any
	// refresh lands years after the stale value.
	backdate := func() time.Time {
		t.Helper()
		if _, err := database.Exec(
			`UPDATE sweets SET updated_at = '2020-01-01 00:00:00' WHERE id = ?`, sweet.ID,
		); err != nil {
			t.Fatalf("backdating updated_at: %v", err)
		}
		got, err := GetSweet(ctx, database, sweet.ID)
		if err != nil || got == nil {
			t.Fatalf("re-reading sweet: %v", err)
		}
		return got.UpdatedAt
	}

	stale := backdate()
	updated, err := UpdateSweet(ctx, database, sweet.ID, SweetUpdate{Name: strptr("Motichoor Ladoo")})
	if err != nil {
		t.Fatalf("UpdateSweet: %v", err)
	}
	if !updated.UpdatedAt.After(stale) {
		t.Errorf("non-empty update must refresh updated_at, got %v", updated.UpdatedAt)
	}

	stale = backdate()
	bought, err := PurchaseSweet(ctx, database, sweet.ID, 1)
	if err != nil {
		t.Fatalf("PurchaseSweet: %v", err)
	}
	if !bought.UpdatedAt.After(stale) {
		t.Errorf("purchase must refresh updated_at, got %v", bought.UpdatedAt)
	}

	stale = backdate()
	restocked, err := RestockSweet(ctx, database, sweet.ID, 1)
	if err != nil {
		t.Fatalf("RestockSweet: %v", err)
	}
	if !restocked.UpdatedAt.After(stale) {
		t.Errorf("restock must refresh updated_at, got %v", restocked.UpdatedAt)
	}
}

func TestPurchaseSweetRejectsNonPositiveAmount(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	sweet, _ := CreateSweet(ctx, database, "Ladoo", "Traditional", 2.5, 10, nil)

	if _, err := PurchaseSweet(ctx, database, sweet.ID, 0); err == nil {
		t.Error("expected error for zero amount")
	}
	if _, err := RestockSweet(ctx, database, sweet.ID, -1); err == nil {
		t.Error("expected error for negative amount")
	}
}
