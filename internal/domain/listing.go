package domain

import (
	"github.com/shopspring/decimal"
)

// ListingKind 挂单类型
type ListingKind string

const (
	ListingKindFixedPrice ListingKind = "fixed_price" // 一口价
	ListingKindAuction    ListingKind = "auction"     // 拍卖
)

// IsValid 验证挂单类型是否有效
func (k ListingKind) IsValid() bool {
	return k == ListingKindFixedPrice || k == ListingKindAuction
}

// ListingStatus 挂单状态
type ListingStatus string

const (
	ListingStatusActive    ListingStatus = "active"    // 活跃中
	ListingStatusSold      ListingStatus = "sold"      // 已售出
	ListingStatusCancelled ListingStatus = "cancelled" // 已取消
	ListingStatusExpired   ListingStatus = "expired"   // 已过期
)

// IsTerminal 检查状态是否为终态（sold/cancelled/expired）
// 终态不可再被任何操作改变
func (s ListingStatus) IsTerminal() bool {
	return s == ListingStatusSold || s == ListingStatusCancelled || s == ListingStatusExpired
}

// Listing 挂单领域模型
// 一个 Listing 代表一次出售单个资产的报价（一口价或拍卖）
type Listing struct {
	ID            string          `json:"id"`                       // 挂单 ID（LISTING-n，顺序分配）
	AssetID       string          `json:"asset_id"`                 // 资产 ID
	Seller        string          `json:"seller"`                   // 卖家身份（由宿主认证）
	Kind          ListingKind     `json:"kind"`                     // 挂单类型
	Price         decimal.Decimal `json:"price"`                    // 底价（一口价即成交价，拍卖即起拍价）
	Status        ListingStatus   `json:"status"`                   // 挂单状态
	CreatedAt     int64           `json:"created_at"`               // 创建时间戳（Unix 秒，由调用方提供）
	ExpiresAt     *int64          `json:"expires_at,omitempty"`     // 过期时间戳（可选，nil 表示永不过期）
	HighestBid    *decimal.Decimal `json:"highest_bid,omitempty"`    // 当前最高出价（仅拍卖，可选）
	HighestBidder *string         `json:"highest_bidder,omitempty"` // 当前最高出价者（仅拍卖，可选）
}

// IsActive 检查挂单是否活跃
func (l *Listing) IsActive() bool {
	return l.Status == ListingStatusActive
}

// IsExpiredAt 检查挂单在给定时间是否已过期
// 没有设置过期时间的挂单永不过期；恰好等于过期时间的瞬间不算过期
func (l *Listing) IsExpiredAt(now int64) bool {
	return l.ExpiresAt != nil && now > *l.ExpiresAt
}

// HasBid 检查拍卖是否已有出价
// 不变量：HighestBid 和 HighestBidder 要么同时存在，要么同时不存在
func (l *Listing) HasBid() bool {
	return l.HighestBid != nil && l.HighestBidder != nil
}

// MinimumBid 返回当前最低可接受出价的基准
// 有出价时为当前最高出价，否则为起拍价；新出价必须严格高于该值
func (l *Listing) MinimumBid() decimal.Decimal {
	if l.HighestBid != nil {
		return *l.HighestBid
	}
	return l.Price
}

// Clone 深拷贝挂单
func (l *Listing) Clone() *Listing {
	c := *l
	if l.ExpiresAt != nil {
		v := *l.ExpiresAt
		c.ExpiresAt = &v
	}
	if l.HighestBid != nil {
		v := l.HighestBid.Copy()
		c.HighestBid = &v
	}
	if l.HighestBidder != nil {
		v := *l.HighestBidder
		c.HighestBidder = &v
	}
	return &c
}
