package market

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gemspace/gemmarket/internal/domain"
	"github.com/gemspace/gemmarket/internal/escrow"
)

// snapshotVersion 当前快照格式版本
const snapshotVersion = 1

// snapshotV1 合约状态的版本化持久文档
// active_listings 用 JSON 数组承载，保证活跃挂单的枚举顺序在
// 序列化往返后保持确定（listings 本身是 map，顺序不携带信息）
type snapshotV1 struct {
	Version        int                        `json:"version"`
	Listings       map[string]*domain.Listing `json:"listings"`
	ActiveListings []string                   `json:"active_listings"`
	SalesHistory   []domain.Sale              `json:"sales_history"`
	ListingCounter uint64                     `json:"listing_counter"`
	SaleCounter    uint64                     `json:"sale_counter"`
	Owner          string                     `json:"contract_owner"`
	FeePercent     decimal.Decimal            `json:"marketplace_fee_percent"`
	RoyaltyPercent decimal.Decimal            `json:"royalty_percent"`
	EscrowBalances map[string]decimal.Decimal `json:"escrow_balances"`
}

// Snapshot 导出合约状态为版本化 JSON 文档
func (c *Contract) Snapshot() ([]byte, error) {
	snap := snapshotV1{
		Version:        snapshotVersion,
		Listings:       c.listings,
		ActiveListings: c.activeListings,
		SalesHistory:   c.salesHistory,
		ListingCounter: c.listingCounter,
		SaleCounter:    c.saleCounter,
		Owner:          c.owner,
		FeePercent:     c.feePercent,
		RoyaltyPercent: c.royaltyPercent,
		EscrowBalances: c.escrow.Balances(),
	}
	return json.MarshalIndent(snap, "", "  ")
}

// RestoreSnapshot 从版本化 JSON 文档重建合约状态
func RestoreSnapshot(data []byte) (*Contract, error) {
	var snap snapshotV1
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version: %d", snap.Version)
	}

	c := &Contract{
		listings:       snap.Listings,
		activeListings: snap.ActiveListings,
		salesHistory:   snap.SalesHistory,
		listingCounter: snap.ListingCounter,
		saleCounter:    snap.SaleCounter,
		owner:          snap.Owner,
		feePercent:     snap.FeePercent,
		royaltyPercent: snap.RoyaltyPercent,
		escrow:         escrow.Restore(snap.EscrowBalances),
	}
	if c.listings == nil {
		c.listings = make(map[string]*domain.Listing)
	}
	if c.activeListings == nil {
		c.activeListings = make([]string, 0)
	}
	if c.salesHistory == nil {
		c.salesHistory = make([]domain.Sale, 0)
	}
	return c, nil
}
