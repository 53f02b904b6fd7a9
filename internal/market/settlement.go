package market

import (
	"github.com/shopspring/decimal"

	"github.com/gemspace/gemmarket/internal/domain"
)

// 金额统一保留两位小数（最小货币单位为 0.01）
const amountPlaces = 2

var hundred = decimal.NewFromInt(100)

// Split 一次结算的资金拆分
type Split struct {
	Fee     decimal.Decimal // 市场手续费 -> 合约所有者
	Royalty decimal.Decimal // 版税 -> 资产创作者
	Seller  decimal.Decimal // 剩余 -> 卖家
}

// splitPrice 按手续费/版税百分比拆分成交价
//
// 舍入策略：手续费和版税分别向下截断到两位小数，卖家拿
// price - fee - royalty，即所有舍入余数归卖家。
// 恒等式 Fee + Royalty + Seller == price 严格成立，不多不少。
func (c *Contract) splitPrice(price decimal.Decimal) Split {
	fee := price.Mul(c.feePercent).Div(hundred).RoundDown(amountPlaces)
	royalty := price.Mul(c.royaltyPercent).Div(hundred).RoundDown(amountPlaces)
	return Split{
		Fee:     fee,
		Royalty: royalty,
		Seller:  price.Sub(fee).Sub(royalty),
	}
}

// settle 结算一笔成交：分账入托管、追加成交记录、挂单转入 Sold 终态
// 三笔入账和成交记录追加是一个逻辑单元，调用前所有校验必须已经完成
func (c *Contract) settle(l *domain.Listing, buyer, creator string, price decimal.Decimal, now int64) string {
	split := c.splitPrice(price)

	c.escrow.Credit(l.Seller, split.Seller)
	c.escrow.Credit(creator, split.Royalty)
	c.escrow.Credit(c.owner, split.Fee)

	saleID := c.nextSaleID()
	c.salesHistory = append(c.salesHistory, domain.Sale{
		ID:          saleID,
		ListingID:   l.ID,
		AssetID:     l.AssetID,
		Seller:      l.Seller,
		Buyer:       buyer,
		Price:       price,
		Timestamp:   now,
		RoyaltyPaid: split.Royalty,
	})

	l.Status = domain.ListingStatusSold
	c.removeFromActive(l.ID)

	return saleID
}
