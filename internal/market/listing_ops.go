package market

import (
	"github.com/shopspring/decimal"

	"github.com/gemspace/gemmarket/internal/domain"
)

// CreateListing 创建新挂单
// duration 为挂单有效时长（秒，可选）；给定时 expiresAt = now + duration，
// 否则挂单永不过期。成功返回新挂单 ID。
func (c *Contract) CreateListing(
	assetID string,
	seller string,
	kind domain.ListingKind,
	price decimal.Decimal,
	duration *int64,
	now int64,
) (string, error) {
	if price.LessThanOrEqual(decimal.Zero) {
		return "", ErrInvalidPrice
	}
	if !kind.IsValid() {
		return "", ErrWrongListingType
	}

	var expiresAt *int64
	if duration != nil {
		v := now + *duration
		expiresAt = &v
	}

	listingID := c.nextListingID()
	c.listings[listingID] = &domain.Listing{
		ID:        listingID,
		AssetID:   assetID,
		Seller:    seller,
		Kind:      kind,
		Price:     price,
		Status:    domain.ListingStatusActive,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	c.activeListings = append(c.activeListings, listingID)

	return listingID, nil
}

// CancelListing 取消挂单
// 只有挂单的原始卖家可以取消，且挂单必须仍然活跃。
// 拍卖有未决出价时先把该出价退回出价者托管余额。
func (c *Contract) CancelListing(listingID, seller string) error {
	l, ok := c.listings[listingID]
	if !ok {
		return ErrNotFound
	}
	if l.Seller != seller {
		return ErrNotSeller
	}
	if !l.IsActive() {
		return ErrNotActive
	}

	// 退还未决出价
	if l.HasBid() {
		c.escrow.Credit(*l.HighestBidder, *l.HighestBid)
	}

	l.Status = domain.ListingStatusCancelled
	c.removeFromActive(listingID)
	return nil
}
