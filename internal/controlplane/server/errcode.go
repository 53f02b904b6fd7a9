package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gemspace/gemmarket/internal/market"
	"github.com/gemspace/gemmarket/internal/registry"
)

// engine sentinels map to stable wire codes; clients branch on "code".
var errCodes = []struct {
	err    error
	code   string
	status int
}{
	{market.ErrNotFound, "NOT_FOUND", http.StatusNotFound},
	{market.ErrNotActive, "NOT_ACTIVE", http.StatusConflict},
	{market.ErrWrongListingType, "WRONG_LISTING_TYPE", http.StatusBadRequest},
	{market.ErrInvalidPrice, "INVALID_PRICE", http.StatusBadRequest},
	{market.ErrInvalidAmount, "INVALID_AMOUNT", http.StatusBadRequest},
	{market.ErrInsufficientPayment, "INSUFFICIENT_PAYMENT", http.StatusBadRequest},
	{market.ErrExpired, "EXPIRED", http.StatusConflict},
	{market.ErrBidTooLow, "BID_TOO_LOW", http.StatusBadRequest},
	{market.ErrNotExpiredYet, "NOT_EXPIRED_YET", http.StatusConflict},
	{market.ErrNotSeller, "NOT_SELLER", http.StatusForbidden},
	{market.ErrInsufficientFunds, "INSUFFICIENT_FUNDS", http.StatusBadRequest},
	{market.ErrNoBalance, "NO_BALANCE", http.StatusConflict},
	{registry.ErrAssetNotFound, "ASSET_NOT_FOUND", http.StatusNotFound},
	{registry.ErrNotOwner, "NOT_OWNER", http.StatusForbidden},
}

func writeError(c *gin.Context, err error) {
	for _, m := range errCodes {
		if errors.Is(err, m.err) {
			c.JSON(m.status, gin.H{"code": m.code, "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL", "error": err.Error()})
}

func writeBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "error": msg})
}
