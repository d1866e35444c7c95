// Package ordering turns a customer's item selection into a persisted order.
//
// PlaceOrder validates the whole selection first, then writes the order
// header, one snapshot line per item and the matching stock decrements in a
// single transaction. Any failure rolls the transaction back, so either the
// order exists with every line and every decrement, or nothing changed.
//
//	svc := ordering.New(store, logger)
//	id, err := svc.PlaceOrder(ctx, ordering.PlaceOrderRequest{
//	    CustomerID:    customerID,
//	    Quantities:    map[int64]int{3: 2, 7: 1},
//	    PaymentMethod: types.PaymentCredit,
//	})
//
// Errors carry the types taxonomy: ErrItemNotFound, ErrInsufficientStock
// (as *types.StockError), ErrInvalidAmount and ErrEmptyOrder.
package ordering
