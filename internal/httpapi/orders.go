package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dshills/shopmall-mcp/internal/cart"
	"github.com/dshills/shopmall-mcp/internal/ordering"
	"github.com/dshills/shopmall-mcp/pkg/types"
)

type orderLineBody struct {
	ItemID   int64 `json:"item_id" binding:"required"`
	Quantity int   `json:"quantity"`
}

type shippingBody struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
	State         string `json:"state"`
	City          string `json:"city"`
	AddressLine   string `json:"address_line"`
}

type placeOrderBody struct {
	shippingBody
	Items []orderLineBody `json:"items" binding:"required,min=1,dive"`
}

// shipping resolves the payment method and destination. Without an explicit
// address the order ships to the customer's stored address.
func (s *Server) shipping(ctx context.Context, customerID string, body shippingBody) (types.PaymentMethod, types.Address, error) {
	method, err := types.ParsePaymentMethod(body.PaymentMethod)
	if err != nil {
		return "", types.Address{}, err
	}

	addr := types.Address{State: body.State, City: body.City, AddressLine: body.AddressLine}
	if addr == (types.Address{}) {
		acc, err := s.app.Accounts.Get(ctx, customerID)
		if err != nil {
			return "", types.Address{}, err
		}
		addr = acc.ShippingAddress()
	}
	return method, addr, nil
}

func (s *Server) placeOrder(c *gin.Context) {
	var body placeOrderBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid order: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	customerID := callerID(c)

	method, addr, err := s.shipping(ctx, customerID, body.shippingBody)
	if err != nil {
		s.writeError(c, err)
		return
	}

	quantities := make(map[int64]int, len(body.Items))
	for _, l := range body.Items {
		if err := ordering.AddLine(quantities, l.ItemID, l.Quantity); err != nil {
			s.writeError(c, err)
			return
		}
	}

	orderID, err := s.app.Orders.PlaceOrder(ctx, ordering.PlaceOrderRequest{
		CustomerID:    customerID,
		Quantities:    quantities,
		Address:       addr,
		PaymentMethod: method,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.respondOrder(c, http.StatusCreated, orderID)
}

func (s *Server) listOrders(c *gin.Context) {
	orders, err := s.app.Orders.ListOrders(c.Request.Context(), callerID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}

	views := make([]gin.H, 0, len(orders))
	for _, o := range orders {
		views = append(views, orderView(o))
	}
	c.JSON(http.StatusOK, gin.H{"orders": views, "count": len(views)})
}

func (s *Server) getOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	order, err := s.app.Orders.GetCustomerOrder(c.Request.Context(), callerID(c), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderView(order))
}

func (s *Server) respondOrder(c *gin.Context, status int, orderID int64) {
	order, err := s.app.Orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(status, orderView(order))
}

// Cart

func (s *Server) respondCart(c *gin.Context) {
	lines, err := s.app.Cart.List(c.Request.Context(), callerID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartView(lines))
}

func (s *Server) getCart(c *gin.Context) {
	s.respondCart(c)
}

type cartItemBody struct {
	ItemID   int64 `json:"item_id" binding:"required"`
	Quantity int   `json:"quantity" binding:"required,gt=0"`
}

func (s *Server) addToCart(c *gin.Context) {
	var body cartItemBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "item_id and a positive quantity are required")
		return
	}
	if err := s.app.Cart.Add(c.Request.Context(), callerID(c), body.ItemID, body.Quantity); err != nil {
		s.writeError(c, err)
		return
	}
	s.respondCart(c)
}

type quantityBody struct {
	Quantity int `json:"quantity" binding:"gte=0"`
}

func (s *Server) setCartQuantity(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var body quantityBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "quantity must not be negative")
		return
	}
	if err := s.app.Cart.SetQuantity(c.Request.Context(), callerID(c), id, body.Quantity); err != nil {
		s.writeError(c, err)
		return
	}
	s.respondCart(c)
}

func (s *Server) removeFromCart(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := s.app.Cart.Remove(c.Request.Context(), callerID(c), id); err != nil {
		s.writeError(c, err)
		return
	}
	s.respondCart(c)
}

type checkoutBody struct {
	shippingBody
	ItemIDs []int64 `json:"item_ids"`
}

func (s *Server) checkout(c *gin.Context) {
	var body checkoutBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid checkout: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	customerID := callerID(c)

	method, addr, err := s.shipping(ctx, customerID, body.shippingBody)
	if err != nil {
		s.writeError(c, err)
		return
	}

	orderID, err := s.app.Cart.Checkout(ctx, cart.CheckoutRequest{
		CustomerID:    customerID,
		ItemIDs:       body.ItemIDs,
		Address:       addr,
		PaymentMethod: method,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.respondOrder(c, http.StatusCreated, orderID)
}
