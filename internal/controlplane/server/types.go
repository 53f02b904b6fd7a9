package server

import (
	"github.com/shopspring/decimal"

	"github.com/gemspace/gemmarket/internal/domain"
)

// amounts travel as strings on the wire so clients never touch binary floats.

type createListingRequest struct {
	AssetID  string `json:"asset_id" binding:"required"`
	Seller   string `json:"seller" binding:"required"`
	Kind     string `json:"kind" binding:"required"` // fixed_price | auction
	Price    string `json:"price" binding:"required"`
	Duration *int64 `json:"duration,omitempty"` // seconds
	Now      int64  `json:"now" binding:"required"`
}

type createListingResponse struct {
	ListingID string `json:"listing_id"`
}

type buyRequest struct {
	Buyer   string `json:"buyer" binding:"required"`
	Payment string `json:"payment" binding:"required"`
	Now     int64  `json:"now" binding:"required"`
}

type buyResponse struct {
	SaleID string `json:"sale_id"`
}

type bidRequest struct {
	Bidder string `json:"bidder" binding:"required"`
	Amount string `json:"amount" binding:"required"`
	Now    int64  `json:"now" binding:"required"`
}

type endAuctionRequest struct {
	Now int64 `json:"now" binding:"required"`
}

type endAuctionResponse struct {
	SaleID string `json:"sale_id,omitempty"`
	Sold   bool   `json:"sold"`
}

type cancelListingRequest struct {
	Seller string `json:"seller" binding:"required"`
}

type depositRequest struct {
	Identity string `json:"identity" binding:"required"`
	Amount   string `json:"amount" binding:"required"`
}

type withdrawRequest struct {
	Identity string `json:"identity" binding:"required"`
}

type withdrawResponse struct {
	Amount string `json:"amount"`
}

type balanceResponse struct {
	Identity string `json:"identity"`
	Balance  string `json:"balance"`
}

type mintAssetRequest struct {
	Name        string                 `json:"name" binding:"required"`
	Owner       string                 `json:"owner" binding:"required"`
	Attributes  domain.AssetAttributes `json:"attributes"`
	MetadataURI string                 `json:"metadata_uri"`
	Now         int64                  `json:"now"`
}

type mintAssetResponse struct {
	AssetID string `json:"asset_id"`
}

type transferAssetRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

type listingView struct {
	ID            string  `json:"id"`
	AssetID       string  `json:"asset_id"`
	Seller        string  `json:"seller"`
	Kind          string  `json:"kind"`
	Price         string  `json:"price"`
	Status        string  `json:"status"`
	CreatedAt     int64   `json:"created_at"`
	ExpiresAt     *int64  `json:"expires_at,omitempty"`
	HighestBid    *string `json:"highest_bid,omitempty"`
	HighestBidder *string `json:"highest_bidder,omitempty"`
}

func toListingView(l *domain.Listing) listingView {
	v := listingView{
		ID:        l.ID,
		AssetID:   l.AssetID,
		Seller:    l.Seller,
		Kind:      string(l.Kind),
		Price:     l.Price.String(),
		Status:    string(l.Status),
		CreatedAt: l.CreatedAt,
		ExpiresAt: l.ExpiresAt,
	}
	if l.HighestBid != nil {
		s := l.HighestBid.String()
		v.HighestBid = &s
	}
	v.HighestBidder = l.HighestBidder
	return v
}

type saleView struct {
	ID          string `json:"id"`
	ListingID   string `json:"listing_id"`
	AssetID     string `json:"asset_id"`
	Seller      string `json:"seller"`
	Buyer       string `json:"buyer"`
	Price       string `json:"price"`
	Timestamp   int64  `json:"timestamp"`
	RoyaltyPaid string `json:"royalty_paid"`
}

func toSaleView(s domain.Sale) saleView {
	return saleView{
		ID:          s.ID,
		ListingID:   s.ListingID,
		AssetID:     s.AssetID,
		Seller:      s.Seller,
		Buyer:       s.Buyer,
		Price:       s.Price.String(),
		Timestamp:   s.Timestamp,
		RoyaltyPaid: s.RoyaltyPaid.String(),
	}
}

// parseAmount parses a positive-or-zero decimal amount from the wire.
func parseAmount(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
