// Package market 实现点对点资产市场的确定性状态转换引擎。
//
// 引擎是 (当前状态, 命令, 时间戳, 已认证调用方) -> (新状态, 结果|错误) 的纯函数：
// 内部没有任何 I/O、定时器和外部调用，"当前时间"全部由调用方传入，
// 因此同一命令序列永远产生同一状态，可以直接回放和离线测试。
// 宿主负责对同一合约实例的变更调用做串行化，引擎本身不持锁。
package market

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gemspace/gemmarket/internal/domain"
	"github.com/gemspace/gemmarket/internal/escrow"
)

// Contract 市场合约状态
// 一个显式的状态值：所有字段都随实例走，没有任何包级可变状态。
// 除懒惰过期这一处记录在案的例外，失败的操作不产生任何状态变化。
type Contract struct {
	listings       map[string]*domain.Listing // 全部挂单（含历史，永不删除）
	activeListings []string                   // 活跃挂单 ID（创建顺序）
	salesHistory   []domain.Sale              // 成交历史（只追加）
	listingCounter uint64                     // 下一个挂单序号
	saleCounter    uint64                     // 下一个成交序号

	owner          string          // 合约所有者（市场手续费接收方）
	feePercent     decimal.Decimal // 市场手续费百分比（构造后不可变）
	royaltyPercent decimal.Decimal // 版税百分比（构造后不可变）

	escrow *escrow.Ledger // 托管账本
}

// New 创建市场合约
// feePercent / royaltyPercent 为百分数（2.5 表示 2.5%），构造后不可变
func New(owner string, feePercent, royaltyPercent decimal.Decimal) *Contract {
	return &Contract{
		listings:       make(map[string]*domain.Listing),
		activeListings: make([]string, 0),
		salesHistory:   make([]domain.Sale, 0),
		owner:          owner,
		feePercent:     feePercent,
		royaltyPercent: royaltyPercent,
		escrow:         escrow.NewLedger(),
	}
}

// Owner 返回合约所有者身份
func (c *Contract) Owner() string {
	return c.owner
}

// FeePercent 返回市场手续费百分比
func (c *Contract) FeePercent() decimal.Decimal {
	return c.feePercent
}

// RoyaltyPercent 返回版税百分比
func (c *Contract) RoyaltyPercent() decimal.Decimal {
	return c.royaltyPercent
}

// GetListing 按 ID 查询挂单（含历史挂单），不存在时返回 ErrNotFound
func (c *Contract) GetListing(listingID string) (*domain.Listing, error) {
	l, ok := c.listings[listingID]
	if !ok {
		return nil, ErrNotFound
	}
	return l.Clone(), nil
}

// ActiveListings 按创建顺序返回所有活跃挂单
func (c *Contract) ActiveListings() []*domain.Listing {
	out := make([]*domain.Listing, 0, len(c.activeListings))
	for _, id := range c.activeListings {
		if l, ok := c.listings[id]; ok {
			out = append(out, l.Clone())
		}
	}
	return out
}

// SalesHistory 返回全部成交记录（插入顺序即时间顺序）
func (c *Contract) SalesHistory() []domain.Sale {
	out := make([]domain.Sale, len(c.salesHistory))
	copy(out, c.salesHistory)
	return out
}

// BalanceOf 查询托管余额，未知身份返回 0
func (c *Contract) BalanceOf(identity string) decimal.Decimal {
	return c.escrow.BalanceOf(identity)
}

// EscrowBalances 返回全部非零托管余额（审计/展示用）
func (c *Contract) EscrowBalances() map[string]decimal.Decimal {
	return c.escrow.Balances()
}

// Clone 深拷贝整个合约状态
// 宿主做乐观并发（版本化状态 + 冲突重试）时，先 Clone 再在副本上执行操作
func (c *Contract) Clone() *Contract {
	clone := &Contract{
		listings:       make(map[string]*domain.Listing, len(c.listings)),
		activeListings: make([]string, len(c.activeListings)),
		salesHistory:   make([]domain.Sale, len(c.salesHistory)),
		listingCounter: c.listingCounter,
		saleCounter:    c.saleCounter,
		owner:          c.owner,
		feePercent:     c.feePercent,
		royaltyPercent: c.royaltyPercent,
		escrow:         c.escrow.Clone(),
	}
	for id, l := range c.listings {
		clone.listings[id] = l.Clone()
	}
	copy(clone.activeListings, c.activeListings)
	copy(clone.salesHistory, c.salesHistory)
	return clone
}

// nextListingID 分配下一个挂单 ID
func (c *Contract) nextListingID() string {
	id := fmt.Sprintf("LISTING-%d", c.listingCounter)
	c.listingCounter++
	return id
}

// nextSaleID 分配下一个成交 ID
func (c *Contract) nextSaleID() string {
	id := fmt.Sprintf("SALE-%d", c.saleCounter)
	c.saleCounter++
	return id
}

// removeFromActive 从活跃集合移除挂单 ID，保持其余元素的相对顺序
func (c *Contract) removeFromActive(listingID string) {
	for i, id := range c.activeListings {
		if id == listingID {
			c.activeListings = append(c.activeListings[:i], c.activeListings[i+1:]...)
			return
		}
	}
}

// expireListing 懒惰过期：Active -> Expired 并移出活跃集合
//
// 这是"失败不改状态"规则唯一记录在案的例外：过期是在操作触碰到挂单时
// 才被发现并落地的，不存在后台扫描。
func (c *Contract) expireListing(l *domain.Listing) {
	l.Status = domain.ListingStatusExpired
	c.removeFromActive(l.ID)
}
