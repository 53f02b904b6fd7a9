package market

import "errors"

// 市场操作的失败码：全部为可判别的哨兵错误，调用方用 errors.Is 分支处理。
// 任何失败都不是引擎级致命错误，调用方可换参数重试。
var (
	ErrNotFound            = errors.New("market: listing not found")
	ErrNotActive           = errors.New("market: listing is not active")
	ErrWrongListingType    = errors.New("market: wrong listing type")
	ErrInvalidPrice        = errors.New("market: price must be positive")
	ErrInvalidAmount       = errors.New("market: amount must be positive")
	ErrInsufficientPayment = errors.New("market: insufficient payment")
	ErrExpired             = errors.New("market: listing has expired")
	ErrBidTooLow           = errors.New("market: bid must be higher than current bid")
	ErrNotExpiredYet       = errors.New("market: auction has not expired yet")
	ErrNotSeller           = errors.New("market: only seller can cancel listing")
	ErrInsufficientFunds   = errors.New("market: insufficient escrow funds for bid")

	// ErrNoBalance 提取时没有余额，转发自托管账本
	ErrNoBalance = errors.New("market: no balance to withdraw")
)
