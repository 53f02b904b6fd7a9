package market

import (
	"github.com/shopspring/decimal"

	"github.com/gemspace/gemmarket/internal/domain"
)

// Buy 按一口价购买
// 只对活跃的一口价挂单有效；creator 为资产创作者身份，由宿主从所有权
// 登记簿查得后传入（引擎自己不做查询）。成功返回新的成交 ID。
//
// payment 超过标价时只按标价结算，差额从未进入托管账本，由宿主退还。
func (c *Contract) Buy(listingID, buyer string, payment decimal.Decimal, now int64, creator string) (string, error) {
	l, ok := c.listings[listingID]
	if !ok {
		return "", ErrNotFound
	}
	if !l.IsActive() {
		return "", ErrNotActive
	}
	if l.Kind != domain.ListingKindFixedPrice {
		return "", ErrWrongListingType
	}
	if payment.LessThan(l.Price) {
		return "", ErrInsufficientPayment
	}
	if l.IsExpiredAt(now) {
		// 懒惰过期：本次调用失败，但挂单落入 Expired 终态
		c.expireListing(l)
		return "", ErrExpired
	}

	saleID := c.settle(l, buyer, creator, l.Price, now)
	return saleID, nil
}

// PlaceBid 对拍卖出价
// 出价必须严格高于当前最高出价（无出价时为起拍价），相等即拒绝。
// 出价金额从出价者的托管余额中冻结；余额不足直接拒绝，托管余额永远不为负。
// 接受新出价时，前最高出价者的冻结金额原样退回其托管余额。
func (c *Contract) PlaceBid(listingID, bidder string, amount decimal.Decimal, now int64) error {
	l, ok := c.listings[listingID]
	if !ok {
		return ErrNotFound
	}
	if !l.IsActive() {
		return ErrNotActive
	}
	if l.Kind != domain.ListingKindAuction {
		return ErrWrongListingType
	}
	if l.IsExpiredAt(now) {
		c.expireListing(l)
		return ErrExpired
	}
	if amount.LessThanOrEqual(l.MinimumBid()) {
		return ErrBidTooLow
	}

	// 出价者自我加价时，已冻结的前一笔出价视为可用资金
	available := c.escrow.BalanceOf(bidder)
	if l.HasBid() && *l.HighestBidder == bidder {
		available = available.Add(*l.HighestBid)
	}
	if available.LessThan(amount) {
		return ErrInsufficientFunds
	}

	// 退还前一个最高出价，再冻结新出价；两步之后账本总额不变
	if l.HasBid() {
		c.escrow.Credit(*l.HighestBidder, *l.HighestBid)
	}
	c.escrow.Credit(bidder, amount.Neg())

	bid := amount.Copy()
	l.HighestBid = &bid
	l.HighestBidder = &bidder

	return nil
}

// EndAuction 结束拍卖并结算
// 只能在到期时间之后调用（now >= expiresAt），提前调用失败 ErrNotExpiredYet。
// 有出价时按最高出价结算并返回成交 ID（sold=true）；
// 无人出价时挂单转入 Expired 终态，无任何资金变化（sold=false）。
func (c *Contract) EndAuction(listingID string, now int64, creator string) (string, bool, error) {
	l, ok := c.listings[listingID]
	if !ok {
		return "", false, ErrNotFound
	}
	if !l.IsActive() {
		return "", false, ErrNotActive
	}
	if l.Kind != domain.ListingKindAuction {
		return "", false, ErrWrongListingType
	}
	if l.ExpiresAt != nil && now < *l.ExpiresAt {
		return "", false, ErrNotExpiredYet
	}

	if l.HasBid() {
		// 中标金额已在出价时冻结，结算只做分账
		saleID := c.settle(l, *l.HighestBidder, creator, *l.HighestBid, now)
		return saleID, true, nil
	}

	// 流拍
	l.Status = domain.ListingStatusExpired
	c.removeFromActive(listingID)
	return "", false, nil
}

// Deposit 向托管账本预存资金（拍卖出价前必须先预存）
// 资金的实际收取在账本之外由宿主完成，这里只做记账。
func (c *Contract) Deposit(identity string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	c.escrow.Credit(identity, amount)
	return nil
}

// Withdraw 提取全部托管余额
// 原子地清零并返回之前的余额；连续两次提取，第二次返回 ErrNoBalance，
// 绝不会重复放款。实际转出资金由宿主在账本之外完成。
func (c *Contract) Withdraw(identity string) (decimal.Decimal, error) {
	amount, err := c.escrow.Withdraw(identity)
	if err != nil {
		return decimal.Zero, ErrNoBalance
	}
	return amount, nil
}
