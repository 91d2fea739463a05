//go:build integration
// +build integration

package tillpoint_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marshallshelly/tillpoint/pkg/report"
	"github.com/marshallshelly/tillpoint/pkg/sale"
	"github.com/marshallshelly/tillpoint/pkg/store"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a PostgreSQL container, applies the schema, and returns
// a connected store handle plus a cleanup function.
func setupTestDB(t *testing.T) (*store.DB, func()) {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("tillpoint_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	db, err := store.ConnectWithURL(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	cleanup := func() {
		db.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

func mustUser(t *testing.T, db *store.DB, name, email string) *store.User {
	t.Helper()
	u, err := db.CreateUser(context.Background(), name, email)
	if err != nil {
		t.Fatalf("Failed to create user %s: %v", email, err)
	}
	return u
}

func mustProduct(t *testing.T, db *store.DB, name string, price float64, stock int) *store.Product {
	t.Helper()
	p, err := db.CreateProduct(context.Background(), name, price, stock)
	if err != nil {
		t.Fatalf("Failed to create product %s: %v", name, err)
	}
	return p
}

func TestIntegration_UserCRUD(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		u := mustUser(t, db, "Alice", "alice@example.com")
		if u.ID == 0 {
			t.Error("Expected assigned id")
		}
		if !u.Active {
			t.Error("Expected new user to be active")
		}

		got, err := db.GetUser(ctx, u.ID)
		if err != nil {
			t.Fatalf("Failed to get user: %v", err)
		}
		if got.Email != "alice@example.com" {
			t.Errorf("Expected email alice@example.com, got %s", got.Email)
		}
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		_, err := db.CreateUser(ctx, "Alice Again", "alice@example.com")
		var dup *store.DuplicateError
		if !errors.As(err, &dup) {
			t.Fatalf("Expected DuplicateError, got %v", err)
		}
		if dup.Field != "email" {
			t.Errorf("Expected field email, got %s", dup.Field)
		}
	})

	t.Run("invalid email rejected before write", func(t *testing.T) {
		before, _ := db.ListUsers(ctx)

		_, err := db.CreateUser(ctx, "Bob", "not-an-email")
		var ve *store.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("Expected ValidationError, got %v", err)
		}

		after, _ := db.ListUsers(ctx)
		if len(after) != len(before) {
			t.Errorf("Expected no row written, had %d now %d", len(before), len(after))
		}
	})

	t.Run("list ordered by id", func(t *testing.T) {
		mustUser(t, db, "Bob", "bob@example.com")
		users, err := db.ListUsers(ctx)
		if err != nil {
			t.Fatalf("Failed to list users: %v", err)
		}
		for i := 1; i < len(users); i++ {
			if users[i].ID <= users[i-1].ID {
				t.Errorf("Expected ascending ids, got %d after %d", users[i].ID, users[i-1].ID)
			}
		}
	})

	t.Run("update", func(t *testing.T) {
		u := mustUser(t, db, "Carol", "carol@example.com")
		active := false
		updated, err := db.UpdateUser(ctx, u.ID, store.UserUpdate{Active: &active})
		if err != nil {
			t.Fatalf("Failed to update user: %v", err)
		}
		if updated.Active {
			t.Error("Expected user inactive after update")
		}
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := db.GetUser(ctx, 99999)
		if !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestIntegration_ProductCRUD(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	t.Run("invalid price rejected", func(t *testing.T) {
		_, err := db.CreateProduct(ctx, "Free Sample", 0, 10)
		var ve *store.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("Expected ValidationError, got %v", err)
		}
		if ve.Field != "price" {
			t.Errorf("Expected field price, got %s", ve.Field)
		}
	})

	t.Run("negative stock rejected", func(t *testing.T) {
		_, err := db.CreateProduct(ctx, "Ghost Stock", 1.00, -1)
		var ve *store.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("Expected ValidationError, got %v", err)
		}
	})

	t.Run("duplicate name rejected", func(t *testing.T) {
		mustProduct(t, db, "Espresso", 3.50, 20)
		_, err := db.CreateProduct(ctx, "Espresso", 4.00, 5)
		var dup *store.DuplicateError
		if !errors.As(err, &dup) {
			t.Fatalf("Expected DuplicateError, got %v", err)
		}
		if dup.Field != "name" {
			t.Errorf("Expected field name, got %s", dup.Field)
		}
	})

	t.Run("update stock", func(t *testing.T) {
		p := mustProduct(t, db, "Croissant", 2.25, 3)
		stock := 30
		updated, err := db.UpdateProduct(ctx, p.ID, store.ProductUpdate{Stock: &stock})
		if err != nil {
			t.Fatalf("Failed to update product: %v", err)
		}
		if updated.Stock != 30 {
			t.Errorf("Expected stock 30, got %d", updated.Stock)
		}
	})

	t.Run("delete free product", func(t *testing.T) {
		p := mustProduct(t, db, "Discontinued", 9.99, 1)
		if err := db.DeleteProduct(ctx, p.ID); err != nil {
			t.Fatalf("Failed to delete product: %v", err)
		}
		if _, err := db.GetProduct(ctx, p.ID); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestIntegration_SaleExecution(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	user := mustUser(t, db, "Alice", "alice@example.com")
	coffee := mustProduct(t, db, "Coffee", 10.00, 5)
	bagel := mustProduct(t, db, "Bagel", 1.95, 2)
	executor := sale.NewExecutor(db)

	t.Run("successful sale", func(t *testing.T) {
		order, err := executor.ExecuteSale(ctx, user.ID, []sale.CartLine{
			{ProductID: coffee.ID, Quantity: 2},
		})
		if err != nil {
			t.Fatalf("Failed to execute sale: %v", err)
		}

		if order.TotalAmount != 20.00 {
			t.Errorf("Expected total 20.00, got %.2f", order.TotalAmount)
		}
		if order.Status != store.OrderStatusCompleted {
			t.Errorf("Expected status completed, got %s", order.Status)
		}

		p, _ := db.GetProduct(ctx, coffee.ID)
		if p.Stock != 3 {
			t.Errorf("Expected stock 3 after sale, got %d", p.Stock)
		}

		items, err := db.ListOrderItems(ctx, order.ID)
		if err != nil {
			t.Fatalf("Failed to list items: %v", err)
		}
		if len(items) != 1 {
			t.Fatalf("Expected 1 item, got %d", len(items))
		}
		if items[0].UnitPrice != 10.00 {
			t.Errorf("Expected captured unit price 10.00, got %.2f", items[0].UnitPrice)
		}
	})

	t.Run("multi-line same product", func(t *testing.T) {
		// Stock is 3 after the previous sale. Two lines of the same
		// product stay separate items and both decrement stock.
		order, err := executor.ExecuteSale(ctx, user.ID, []sale.CartLine{
			{ProductID: coffee.ID, Quantity: 2},
			{ProductID: coffee.ID, Quantity: 1},
		})
		if err != nil {
			t.Fatalf("Failed to execute sale: %v", err)
		}

		items, _ := db.ListOrderItems(ctx, order.ID)
		if len(items) != 2 {
			t.Errorf("Expected 2 items, got %d", len(items))
		}
		p, _ := db.GetProduct(ctx, coffee.ID)
		if p.Stock != 0 {
			t.Errorf("Expected stock 0, got %d", p.Stock)
		}
	})

	t.Run("insufficient stock keeps everything unchanged", func(t *testing.T) {
		ordersBefore, _ := db.ListOrders(ctx)

		_, err := executor.ExecuteSale(ctx, user.ID, []sale.CartLine{
			{ProductID: bagel.ID, Quantity: 1},
			{ProductID: coffee.ID, Quantity: 1},
		})
		var stockErr *sale.InsufficientStockError
		if !errors.As(err, &stockErr) {
			t.Fatalf("Expected InsufficientStockError, got %v", err)
		}
		if stockErr.ProductID != coffee.ID || stockErr.Available != 0 {
			t.Errorf("Expected product %d available 0, got product %d available %d",
				coffee.ID, stockErr.ProductID, stockErr.Available)
		}

		// The valid bagel line must not have been applied.
		p, _ := db.GetProduct(ctx, bagel.ID)
		if p.Stock != 2 {
			t.Errorf("Expected bagel stock 2 after rollback, got %d", p.Stock)
		}
		ordersAfter, _ := db.ListOrders(ctx)
		if len(ordersAfter) != len(ordersBefore) {
			t.Errorf("Expected no order written, had %d now %d", len(ordersBefore), len(ordersAfter))
		}
	})

	t.Run("price captured at sale time", func(t *testing.T) {
		order, err := executor.ExecuteSale(ctx, user.ID, []sale.CartLine{
			{ProductID: bagel.ID, Quantity: 1},
		})
		if err != nil {
			t.Fatalf("Failed to execute sale: %v", err)
		}

		newPrice := 2.95
		if _, err := db.UpdateProduct(ctx, bagel.ID, store.ProductUpdate{Price: &newPrice}); err != nil {
			t.Fatalf("Failed to reprice: %v", err)
		}

		items, _ := db.ListOrderItems(ctx, order.ID)
		if items[0].UnitPrice != 1.95 {
			t.Errorf("Expected historic unit price 1.95, got %.2f", items[0].UnitPrice)
		}
		got, _ := db.GetOrder(ctx, order.ID)
		if got.TotalAmount != 1.95 {
			t.Errorf("Expected historic total 1.95, got %.2f", got.TotalAmount)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := executor.ExecuteSale(ctx, 99999, []sale.CartLine{{ProductID: bagel.ID, Quantity: 1}})
		var notFound *sale.UserNotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("Expected UserNotFoundError, got %v", err)
		}
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := executor.ExecuteSale(ctx, user.ID, []sale.CartLine{{ProductID: 99999, Quantity: 1}})
		var notFound *sale.ProductNotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("Expected ProductNotFoundError, got %v", err)
		}
	})

	t.Run("empty cart", func(t *testing.T) {
		_, err := executor.ExecuteSale(ctx, user.ID, nil)
		if !errors.Is(err, sale.ErrEmptyCart) {
			t.Errorf("Expected ErrEmptyCart, got %v", err)
		}
	})
}

func TestIntegration_DeletionGuards(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	user := mustUser(t, db, "Alice", "alice@example.com")
	product := mustProduct(t, db, "Coffee", 10.00, 10)
	executor := sale.NewExecutor(db)

	order, err := executor.ExecuteSale(ctx, user.ID, []sale.CartLine{
		{ProductID: product.ID, Quantity: 4},
	})
	if err != nil {
		t.Fatalf("Failed to execute sale: %v", err)
	}

	t.Run("user with orders cannot be deleted", func(t *testing.T) {
		err := db.DeleteUser(ctx, user.ID)
		var ref *store.ReferentialError
		if !errors.As(err, &ref) {
			t.Fatalf("Expected ReferentialError, got %v", err)
		}
		if ref.Count != 1 {
			t.Errorf("Expected 1 dependent order, got %d", ref.Count)
		}
	})

	t.Run("product with order items cannot be deleted", func(t *testing.T) {
		err := db.DeleteProduct(ctx, product.ID)
		var ref *store.ReferentialError
		if !errors.As(err, &ref) {
			t.Fatalf("Expected ReferentialError, got %v", err)
		}
	})

	t.Run("order delete removes items, keeps stock", func(t *testing.T) {
		if err := db.DeleteOrder(ctx, order.ID); err != nil {
			t.Fatalf("Failed to delete order: %v", err)
		}

		items, err := db.ListOrderItems(ctx, order.ID)
		if err != nil {
			t.Fatalf("Failed to list items: %v", err)
		}
		if len(items) != 0 {
			t.Errorf("Expected no items after order delete, got %d", len(items))
		}

		// Sold stock stays decremented.
		p, _ := db.GetProduct(ctx, product.ID)
		if p.Stock != 6 {
			t.Errorf("Expected stock 6 after order delete, got %d", p.Stock)
		}
	})

	t.Run("guards released after order delete", func(t *testing.T) {
		if err := db.DeleteUser(ctx, user.ID); err != nil {
			t.Fatalf("Failed to delete user without orders: %v", err)
		}
		if err := db.DeleteProduct(ctx, product.ID); err != nil {
			t.Fatalf("Failed to delete product without items: %v", err)
		}
	})
}

func TestIntegration_Reports(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	alice := mustUser(t, db, "Alice", "alice@example.com")
	bob := mustUser(t, db, "Bob", "bob@example.com")
	coffee := mustProduct(t, db, "Coffee", 10.00, 100)
	bagel := mustProduct(t, db, "Bagel", 2.00, 100)
	mustProduct(t, db, "Scone", 3.00, 5)
	mustProduct(t, db, "Muffin", 2.50, 0)

	executor := sale.NewExecutor(db)
	if _, err := executor.ExecuteSale(ctx, alice.ID, []sale.CartLine{
		{ProductID: coffee.ID, Quantity: 3},
		{ProductID: bagel.ID, Quantity: 2},
	}); err != nil {
		t.Fatalf("Failed to execute sale: %v", err)
	}
	if _, err := executor.ExecuteSale(ctx, bob.ID, []sale.CartLine{
		{ProductID: bagel.ID, Quantity: 1},
	}); err != nil {
		t.Fatalf("Failed to execute sale: %v", err)
	}

	reporter := report.NewReporter(db)

	t.Run("dashboard", func(t *testing.T) {
		d, err := reporter.Dashboard(ctx)
		if err != nil {
			t.Fatalf("Failed to build dashboard: %v", err)
		}
		if d.ActiveUsers != 2 {
			t.Errorf("Expected 2 active users, got %d", d.ActiveUsers)
		}
		if d.CompletedOrders != 2 {
			t.Errorf("Expected 2 completed orders, got %d", d.CompletedOrders)
		}
		if d.Revenue != 36.00 {
			t.Errorf("Expected revenue 36.00, got %.2f", d.Revenue)
		}
	})

	t.Run("top products tie broken by id", func(t *testing.T) {
		// Coffee and bagel both sold 3 units; coffee has the lower id.
		top, err := reporter.TopProducts(ctx, 5)
		if err != nil {
			t.Fatalf("Failed to rank products: %v", err)
		}
		if len(top) != 2 {
			t.Fatalf("Expected 2 ranked products, got %d", len(top))
		}
		if top[0].ProductID != coffee.ID {
			t.Errorf("Expected product %d first, got %d", coffee.ID, top[0].ProductID)
		}
		if top[0].Quantity != 3 || top[1].Quantity != 3 {
			t.Errorf("Expected 3 units each, got %d and %d", top[0].Quantity, top[1].Quantity)
		}
	})

	t.Run("daily sales today", func(t *testing.T) {
		ds, err := reporter.DailySales(ctx, time.Now())
		if err != nil {
			t.Fatalf("Failed to build daily sales: %v", err)
		}
		if ds.OrderCount != 2 {
			t.Errorf("Expected 2 orders today, got %d", ds.OrderCount)
		}
		if ds.AverageOrder != 18.00 {
			t.Errorf("Expected average 18.00, got %.2f", ds.AverageOrder)
		}
	})

	t.Run("daily sales empty day", func(t *testing.T) {
		ds, err := reporter.DailySales(ctx, time.Now().AddDate(0, 0, -7))
		if err != nil {
			t.Fatalf("Failed to build daily sales: %v", err)
		}
		if ds.OrderCount != 0 || ds.TotalSales != 0 || ds.AverageOrder != 0 {
			t.Errorf("Expected empty day, got %+v", ds)
		}
	})

	t.Run("inventory classification", func(t *testing.T) {
		inv, err := reporter.Inventory(ctx)
		if err != nil {
			t.Fatalf("Failed to build inventory: %v", err)
		}
		if len(inv.Lines) != 4 {
			t.Errorf("Expected 4 lines, got %d", len(inv.Lines))
		}
		if len(inv.LowStock) != 1 || inv.LowStock[0].Name != "Scone" {
			t.Errorf("Expected Scone low on stock, got %+v", inv.LowStock)
		}
		if len(inv.OutOfStock) != 1 || inv.OutOfStock[0].Name != "Muffin" {
			t.Errorf("Expected Muffin out of stock, got %+v", inv.OutOfStock)
		}
	})

	t.Run("customer purchases", func(t *testing.T) {
		customers, err := reporter.CustomerPurchases(ctx)
		if err != nil {
			t.Fatalf("Failed to build customer purchases: %v", err)
		}
		if len(customers) != 2 {
			t.Fatalf("Expected 2 customers, got %d", len(customers))
		}
		if customers[0].UserID != alice.ID || customers[0].TotalSpent != 34.00 {
			t.Errorf("Expected Alice spent 34.00, got %+v", customers[0])
		}
	})

	t.Run("order detail", func(t *testing.T) {
		orders, _ := db.ListOrders(ctx)
		od, err := reporter.OrderDetail(ctx, orders[0].ID)
		if err != nil {
			t.Fatalf("Failed to get order detail: %v", err)
		}
		if od.UserName != "Alice" {
			t.Errorf("Expected owner Alice, got %s", od.UserName)
		}
		if len(od.Lines) != 2 {
			t.Errorf("Expected 2 lines, got %d", len(od.Lines))
		}
	})

	t.Run("order detail missing", func(t *testing.T) {
		_, err := reporter.OrderDetail(ctx, 99999)
		if !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("summary", func(t *testing.T) {
		s, err := reporter.Summary(ctx)
		if err != nil {
			t.Fatalf("Failed to build summary: %v", err)
		}
		if s.CompletedOrders != 2 {
			t.Errorf("Expected 2 completed orders, got %d", s.CompletedOrders)
		}
		if len(s.RecentOrders) != 2 {
			t.Errorf("Expected 2 recent orders, got %d", len(s.RecentOrders))
		}
	})
}

func TestIntegration_Seed(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	if err := db.Seed(ctx); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}
	users, _ := db.ListUsers(ctx)
	products, _ := db.ListProducts(ctx)
	if len(users) == 0 || len(products) == 0 {
		t.Fatalf("Expected seed rows, got %d users %d products", len(users), len(products))
	}

	// Seeding twice must not duplicate rows.
	if err := db.Seed(ctx); err != nil {
		t.Fatalf("Failed to reseed: %v", err)
	}
	again, _ := db.ListUsers(ctx)
	if len(again) != len(users) {
		t.Errorf("Expected idempotent seed, had %d users now %d", len(users), len(again))
	}
}
