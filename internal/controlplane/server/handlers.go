package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gemspace/gemmarket/internal/domain"
	"github.com/gemspace/gemmarket/internal/registry"
	"github.com/gemspace/gemmarket/pkg/logger"
)

func (s *Server) handleCreateListing(c *gin.Context) {
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}
	price, ok := parseAmount(req.Price)
	if !ok {
		writeBadRequest(c, "invalid price")
		return
	}
	kind := domain.ListingKind(req.Kind)

	// sellers may only list assets they own
	owner, err := s.reg.OwnerOf(req.AssetID)
	if err != nil {
		writeError(c, err)
		return
	}
	if owner != req.Seller {
		writeError(c, registry.ErrNotOwner)
		return
	}

	s.mu.Lock()
	listingID, err := s.contract.CreateListing(req.AssetID, req.Seller, kind, price, req.Duration, req.Now)
	if err == nil {
		s.persistState()
	}
	s.mu.Unlock()

	if err != nil {
		writeError(c, err)
		return
	}
	logger.WithField("listing_id", listingID).Infof("listing created: %s %s @ %s", req.Kind, req.AssetID, req.Price)
	c.JSON(http.StatusCreated, createListingResponse{ListingID: listingID})
}

func (s *Server) handleGetListing(c *gin.Context) {
	s.mu.Lock()
	l, err := s.contract.GetListing(c.Param("listingID"))
	s.mu.Unlock()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toListingView(l))
}

func (s *Server) handleActiveListings(c *gin.Context) {
	s.mu.Lock()
	active := s.contract.ActiveListings()
	s.mu.Unlock()

	out := make([]listingView, 0, len(active))
	for _, l := range active {
		out = append(out, toListingView(l))
	}
	c.JSON(http.StatusOK, gin.H{"listings": out})
}

func (s *Server) handleBuy(c *gin.Context) {
	var req buyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}
	payment, ok := parseAmount(req.Payment)
	if !ok {
		writeBadRequest(c, "invalid payment")
		return
	}
	listingID := c.Param("listingID")

	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.contract.GetListing(listingID)
	if err != nil {
		writeError(c, err)
		return
	}
	// 引擎不查创作者，由宿主从登记簿解析后传入
	creator, err := s.reg.CreatorOf(l.AssetID)
	if err != nil {
		writeError(c, err)
		return
	}

	saleID, err := s.contract.Buy(listingID, req.Buyer, payment, req.Now, creator)
	if err != nil {
		// 懒惰过期也是状态变化，同样要落快照
		s.persistState()
		writeError(c, err)
		return
	}
	s.persistState()
	s.afterSale(saleID)

	c.JSON(http.StatusOK, buyResponse{SaleID: saleID})
}

func (s *Server) handlePlaceBid(c *gin.Context) {
	var req bidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		writeBadRequest(c, "invalid amount")
		return
	}

	s.mu.Lock()
	err := s.contract.PlaceBid(c.Param("listingID"), req.Bidder, amount, req.Now)
	s.persistState()
	s.mu.Unlock()

	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleEndAuction(c *gin.Context) {
	var req endAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}
	listingID := c.Param("listingID")

	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.contract.GetListing(listingID)
	if err != nil {
		writeError(c, err)
		return
	}
	creator, err := s.reg.CreatorOf(l.AssetID)
	if err != nil {
		writeError(c, err)
		return
	}

	saleID, sold, err := s.contract.EndAuction(listingID, req.Now, creator)
	if err != nil {
		writeError(c, err)
		return
	}
	s.persistState()
	if sold {
		s.afterSale(saleID)
	}

	c.JSON(http.StatusOK, endAuctionResponse{SaleID: saleID, Sold: sold})
}

func (s *Server) handleCancelListing(c *gin.Context) {
	var req cancelListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}

	s.mu.Lock()
	err := s.contract.CancelListing(c.Param("listingID"), req.Seller)
	if err == nil {
		s.persistState()
	}
	s.mu.Unlock()

	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDeposit(c *gin.Context) {
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		writeBadRequest(c, "invalid amount")
		return
	}

	s.mu.Lock()
	err := s.contract.Deposit(req.Identity, amount)
	if err == nil {
		s.persistState()
	}
	s.mu.Unlock()

	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleWithdraw(c *gin.Context) {
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}

	s.mu.Lock()
	amount, err := s.contract.Withdraw(req.Identity)
	if err == nil {
		s.persistState()
	}
	s.mu.Unlock()

	if err != nil {
		writeError(c, err)
		return
	}
	logger.Infof("withdraw: %s -> %s", req.Identity, amount)
	c.JSON(http.StatusOK, withdrawResponse{Amount: amount.String()})
}

func (s *Server) handleBalance(c *gin.Context) {
	identity := c.Param("identity")
	s.mu.Lock()
	balance := s.contract.BalanceOf(identity)
	s.mu.Unlock()
	c.JSON(http.StatusOK, balanceResponse{Identity: identity, Balance: balance.String()})
}

func (s *Server) handleSalesHistory(c *gin.Context) {
	s.mu.Lock()
	sales := s.contract.SalesHistory()
	s.mu.Unlock()

	out := make([]saleView, 0, len(sales))
	for _, sale := range sales {
		out = append(out, toSaleView(sale))
	}
	c.JSON(http.StatusOK, gin.H{"sales": out})
}

// afterSale runs the host-side consequences of a settlement: transfer the
// asset to the buyer, mirror the sale into sqlite and notify feed subscribers.
// Must be called with mu held, after persistState.
func (s *Server) afterSale(saleID string) {
	sales := s.contract.SalesHistory()
	for i := len(sales) - 1; i >= 0; i-- {
		if sales[i].ID != saleID {
			continue
		}
		sale := sales[i]

		if s.localReg != nil {
			if err := s.localReg.Transfer(sale.AssetID, sale.Seller, sale.Buyer); err != nil {
				logger.Errorf("transfer %s to buyer %s: %v", sale.AssetID, sale.Buyer, err)
			} else {
				s.persistRegistry()
			}
		}
		if err := s.insertSale(context.Background(), sale); err != nil {
			logger.Errorf("mirror sale %s: %v", sale.ID, err)
		}
		s.hub.publish(toSaleView(sale))

		logger.WithField("sale_id", sale.ID).Infof("sale settled: %s %s -> %s @ %s",
			sale.AssetID, sale.Seller, sale.Buyer, sale.Price)
		return
	}
}
