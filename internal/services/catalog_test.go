package services

import (
	"testing"

	"breadvan-backend/internal/database"
	"breadvan-backend/internal/models"
)

func TestCatalog_AreasAndStreets(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.catalog.CreateArea(env.ctx, "  ")
	assertKind(t, err, KindValidation)

	area := env.area("Tunapuna")
	other := env.area("San Juan")
	env.street(area.ID, "Fairly Street")
	env.street(area.ID, "Saint John Road")
	env.street(other.ID, "Main Road")

	_, err = env.catalog.CreateStreet(env.ctx, "missing", "Nowhere Lane")
	assertKind(t, err, KindNotFound)

	streets, err := env.catalog.ListStreets(env.ctx, area.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(streets) != 2 {
		t.Errorf("expected 2 streets in %s, got %d", area.Name, len(streets))
	}
	all, _ := env.catalog.ListStreets(env.ctx, "")
	if len(all) != 3 {
		t.Errorf("expected 3 streets overall, got %d", len(all))
	}

	if err := env.catalog.DeleteArea(env.ctx, area.ID); err != nil {
		t.Fatal(err)
	}
	assertKind(t, env.catalog.DeleteArea(env.ctx, area.ID), KindNotFound)
	assertKind(t, env.catalog.DeleteStreet(env.ctx, "missing"), KindNotFound)
}

func TestCatalog_DeleteInUse(t *testing.T) {
	env := newTestEnv(t)
	area := env.area("Tunapuna")
	street := env.street(area.ID, "Fairly Street")
	driver := env.driver("marcus", area.ID, "")
	env.schedule(driver.ID, area.ID, street.ID, "2026-10-16")

	assertKind(t, env.catalog.DeleteStreet(env.ctx, street.ID), KindConflict)
	assertKind(t, env.catalog.DeleteArea(env.ctx, area.ID), KindConflict)

	drives, err := env.drives.DrivesForStreet(env.ctx, street.ID, "")
	if err != nil {
		t.Fatalf("expected street to survive rejected delete, got %v", err)
	}
	if len(drives) != 1 {
		t.Errorf("expected 1 drive on %s, got %d", street.Name, len(drives))
	}
}

func TestCatalog_NotFoundMessageIsLiteral(t *testing.T) {
	err := notFoundAs(database.ErrNotFound, "100% missing")
	if err == nil || err.Error() != "100% missing" {
		t.Errorf("expected message kept verbatim, got %v", err)
	}
}

func TestCatalog_Items(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.catalog.CreateItem(env.ctx, ItemInput{Name: "Bad", Price: -1})
	assertKind(t, err, KindValidation)

	bake, err := env.catalog.CreateItem(env.ctx, ItemInput{Name: "Coconut Bake", Price: 10, Tags: "bread,sweet"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.catalog.CreateItem(env.ctx, ItemInput{Name: "Hops", Price: 1.5, Tags: "bread"}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.catalog.CreateItem(env.ctx, ItemInput{Name: "Currants Roll", Price: 6, Tags: "Pastry"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"BREAD", 2},
		{"coconut", 1},
		{"pastry", 1},
		{"doubles", 0},
	}
	for _, tt := range tests {
		items, err := env.catalog.ListItems(env.ctx, tt.query)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != tt.want {
			t.Errorf("query %q: expected %d items, got %d", tt.query, tt.want, len(items))
		}
	}

	price := 12.0
	updated, err := env.catalog.UpdateItem(env.ctx, bake.ID, models.ItemUpdate{Price: &price})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Price != 12 || updated.Name != "Coconut Bake" || updated.Tags != "bread,sweet" {
		t.Errorf("partial update clobbered fields: %+v", updated)
	}

	empty := ""
	_, err = env.catalog.UpdateItem(env.ctx, bake.ID, models.ItemUpdate{Name: &empty})
	assertKind(t, err, KindValidation)
	_, err = env.catalog.UpdateItem(env.ctx, "missing", models.ItemUpdate{Price: &price})
	assertKind(t, err, KindNotFound)

	if err := env.catalog.DeleteItem(env.ctx, bake.ID); err != nil {
		t.Fatal(err)
	}
	assertKind(t, env.catalog.DeleteItem(env.ctx, bake.ID), KindNotFound)
}

func TestCatalog_Stock(t *testing.T) {
	env := newTestEnv(t)
	area := env.area("X")
	driver := env.driver("d", area.ID, "")
	item, err := env.catalog.CreateItem(env.ctx, ItemInput{Name: "Hops", Price: 1.5})
	if err != nil {
		t.Fatal(err)
	}

	_, err = env.catalog.UpdateStock(env.ctx, driver.ID, item.ID, -1)
	assertKind(t, err, KindValidation)
	_, err = env.catalog.UpdateStock(env.ctx, driver.ID, "missing", 3)
	assertKind(t, err, KindNotFound)
	_, err = env.catalog.UpdateStock(env.ctx, "ghost", item.ID, 3)
	assertKind(t, err, KindNotFound)

	first, err := env.catalog.UpdateStock(env.ctx, driver.ID, item.ID, 20)
	if err != nil {
		t.Fatal(err)
	}
	second, err := env.catalog.UpdateStock(env.ctx, driver.ID, item.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Errorf("expected upsert to keep stock id %s, got %s", first.ID, second.ID)
	}

	stock, err := env.catalog.DriverStock(env.ctx, driver.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stock) != 1 || stock[0].Quantity != 0 {
		t.Errorf("expected one row with quantity 0, got %+v", stock)
	}
}
