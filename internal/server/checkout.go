package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	checkoutdomain "github.com/smallbiznis/storefront/internal/checkout/domain"
)

type checkoutItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type createCheckoutSessionRequest struct {
	TenantID         string                `json:"tenant_id"`
	Items            []checkoutItemRequest `json:"items"`
	ShippingOptionID string                `json:"shipping_option_id"`
	CustomerEmail    string                `json:"customer_email"`
	SuccessURL       string                `json:"success_url"`
	CancelURL        string                `json:"cancel_url"`
}

func (s *Server) CreateCheckoutSession(c *gin.Context) {
	var req createCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	tenantID, err := snowflake.ParseString(strings.TrimSpace(req.TenantID))
	if err != nil {
		AbortWithError(c, newValidationError("tenant_id", "invalid_tenant_id", "invalid tenant_id"))
		return
	}

	items := make([]catalogdomain.CartItem, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := snowflake.ParseString(strings.TrimSpace(item.ProductID))
		if err != nil {
			AbortWithError(c, newValidationError("items", "invalid_product_id", "invalid product_id"))
			return
		}
		items = append(items, catalogdomain.CartItem{
			ProductID: productID,
			Quantity:  item.Quantity,
		})
	}

	var shippingOptionID *snowflake.ID
	if raw := strings.TrimSpace(req.ShippingOptionID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("shipping_option_id", "invalid_shipping_option_id", "invalid shipping_option_id"))
			return
		}
		shippingOptionID = &id
	}

	resp, err := s.checkoutSvc.CreateSession(c.Request.Context(), checkoutdomain.CheckoutRequest{
		TenantID:         tenantID,
		Items:            items,
		ShippingOptionID: shippingOptionID,
		CustomerEmail:    strings.TrimSpace(req.CustomerEmail),
		SuccessURL:       strings.TrimSpace(req.SuccessURL),
		CancelURL:        strings.TrimSpace(req.CancelURL),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"order_id":     resp.OrderID.String(),
		"session_id":   resp.SessionID,
		"redirect_url": resp.RedirectURL,
		"total_amount": resp.TotalAmount,
		"fee_amount":   resp.FeeAmount,
	}})
}
