package domain

import (
	"github.com/shopspring/decimal"
)

// Sale 成交记录领域模型
// Sale 是不可变的审计记录：每次成功的一口价购买或有赢家的拍卖结算恰好产生一条，
// 只追加、不修改、不删除
type Sale struct {
	ID          string          `json:"id"`           // 成交 ID（SALE-n，顺序分配）
	ListingID   string          `json:"listing_id"`   // 关联的挂单 ID
	AssetID     string          `json:"asset_id"`     // 资产 ID
	Seller      string          `json:"seller"`       // 卖家身份
	Buyer       string          `json:"buyer"`        // 买家身份（拍卖即中标者）
	Price       decimal.Decimal `json:"price"`        // 最终成交价
	Timestamp   int64           `json:"timestamp"`    // 成交时间戳（Unix 秒）
	RoyaltyPaid decimal.Decimal `json:"royalty_paid"` // 支付给创作者的版税金额
}
