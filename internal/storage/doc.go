// Package storage provides SQLite-based persistence for the shop.
//
// The storage layer manages:
//   - Accounts of every role
//   - Catalog items and their stock ledger
//   - Orders and order lines
//   - Sales reports and their per-item contents
//   - Liked items and support conversations
//
// # Database Schema
//
// Tables:
//   - accounts: users with role and address
//   - items: catalog entries with price, stock and like count
//   - orders, order_lines: purchases with an item snapshot per line
//   - reports, report_contents: immutable sales summaries
//   - liked_items, conversations, messages
//
// Money columns hold integer cents and timestamps are fixed-width UTC text,
// so totals are exact and window filters compare strings.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage("/var/lib/shopmall/shop.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	item, err := store.GetItem(ctx, itemID)
//
// # Transactions
//
// Every Storage method is also available on a Tx and runs inside it:
//
//	err := storage.RunInTx(ctx, store, func(tx storage.Tx) error {
//	    if err := tx.CreateOrder(ctx, order); err != nil {
//	        return err
//	    }
//	    return tx.DecrementStock(ctx, itemID, qty)
//	})
//
// The pool holds a single connection, so transactions serialize. Inside a
// transaction use only the Tx; calling the outer store blocks until commit.
//
// # Stock
//
// DecrementStock is a single conditional UPDATE guarded by
// stock_quantity >= qty, so stock never goes negative even when two
// writers race. A short item yields *types.StockError.
//
// # Build Modes
//
// The default build uses the pure Go driver (modernc.org/sqlite). Building
// with -tags sqlite_cgo switches to github.com/mattn/go-sqlite3.
package storage
