package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aq2208/order-api/internal/adapter/http/middleware"
	domain "github.com/aq2208/order-api/internal/entity"
	"github.com/aq2208/order-api/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	create  *usecase.CreateOrder
	queries *usecase.OrderQueries
	payment *usecase.UpdatePaymentStatus
	charge  *usecase.ChargeOrder
	timeout time.Duration
}

func NewOrderHandler(create *usecase.CreateOrder, queries *usecase.OrderQueries, payment *usecase.UpdatePaymentStatus,
	charge *usecase.ChargeOrder, timeout time.Duration) *OrderHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &OrderHandler{create: create, queries: queries, payment: payment, charge: charge, timeout: timeout}
}

type cartItemReq struct {
	Product string `json:"product"`
	Amount  int    `json:"amount"`
}

type createOrderReq struct {
	OrderItems  []cartItemReq   `json:"orderItems"`
	Tax         decimal.Decimal `json:"tax"`
	ShippingFee decimal.Decimal `json:"shippingFee"`
}

type updatePaymentReq struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

type chargeReq struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
	Token       string          `json:"token" binding:"required"`
}

// CreateOrder handler: translate to use case input
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request body"})
		return
	}

	items := make([]domain.CartItem, 0, len(req.OrderItems))
	for _, it := range req.OrderItems {
		items = append(items, domain.CartItem{ProductID: it.Product, Quantity: it.Amount})
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	order, err := h.create.Execute(ctx, usecase.CreateOrderInput{
		Actor:          mustActor(c),
		Items:          items,
		Tax:            req.Tax,
		ShippingFee:    req.ShippingFee,
		IdempotencyKey: c.GetHeader("X-Idempotency-Key"), // prevent duplicated requests
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

func (h *OrderHandler) ListAllOrders(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	orders, err := h.queries.ListAll(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	orders, err := h.queries.ListForUser(ctx, mustActor(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	order, err := h.queries.Get(ctx, mustActor(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *OrderHandler) GetOrderStatus(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	id := c.Param("id")
	status, err := h.queries.Status(ctx, mustActor(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": status})
}

func (h *OrderHandler) UpdatePayment(c *gin.Context) {
	var req updatePaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request body"})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	order, err := h.payment.Execute(ctx, mustActor(c), c.Param("id"), req.PaymentIntentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// ChargeOrder answers 200 for declined payments; the outcome is in the body.
func (h *OrderHandler) ChargeOrder(c *gin.Context) {
	var req chargeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request body"})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	res, err := h.charge.Execute(ctx, usecase.ChargeOrderInput{
		Actor:       mustActor(c),
		OrderID:     c.Param("id"),
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
		Token:       req.Token,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *OrderHandler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

// mustActor is only used behind Authz.Require.
func mustActor(c *gin.Context) domain.Actor {
	actor, _ := middleware.ActorFrom(c)
	return actor
}
