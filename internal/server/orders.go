package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

func (s *Server) GetOrder(c *gin.Context) {
	tenantID, err := snowflake.ParseString(strings.TrimSpace(c.Param("tenantId")))
	if err != nil {
		AbortWithError(c, newValidationError("tenant_id", "invalid_tenant_id", "invalid tenant_id"))
		return
	}
	orderID, err := snowflake.ParseString(strings.TrimSpace(c.Param("orderId")))
	if err != nil {
		AbortWithError(c, newValidationError("order_id", "invalid_order_id", "invalid order_id"))
		return
	}

	order, items, err := s.orderSvc.Get(c.Request.Context(), orderID, tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"order": order,
		"items": items,
	}})
}
