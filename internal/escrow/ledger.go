// Package escrow 实现合约托管账本：每个身份一个余额，只做算术记账，不含业务逻辑
package escrow

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNoBalance 表示没有可提取的余额
var ErrNoBalance = errors.New("escrow: no balance to withdraw")

// Ledger 托管账本
// 余额属于整个合约，不属于任何单个挂单；零值余额与不存在的身份等价
type Ledger struct {
	balances map[string]decimal.Decimal
}

// NewLedger 创建空账本
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[string]decimal.Decimal)}
}

// Credit 入账（amount 可为负，负数即为出账）
func (l *Ledger) Credit(identity string, amount decimal.Decimal) {
	l.balances[identity] = l.BalanceOf(identity).Add(amount)
}

// BalanceOf 查询余额，未知身份返回 0
func (l *Ledger) BalanceOf(identity string) decimal.Decimal {
	if b, ok := l.balances[identity]; ok {
		return b
	}
	return decimal.Zero
}

// Withdraw 提取全部余额：余额清零并返回之前的值
// 余额 <= 0 时返回 ErrNoBalance；实际转出资金由调用方在账本之外完成
func (l *Ledger) Withdraw(identity string) (decimal.Decimal, error) {
	balance := l.BalanceOf(identity)
	if balance.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrNoBalance
	}
	l.balances[identity] = decimal.Zero
	return balance, nil
}

// Total 返回所有余额之和（用于资金守恒校验）
func (l *Ledger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, b := range l.balances {
		total = total.Add(b)
	}
	return total
}

// Balances 返回余额表的拷贝（非零余额）
func (l *Ledger) Balances() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(l.balances))
	for id, b := range l.balances {
		if !b.IsZero() {
			out[id] = b
		}
	}
	return out
}

// Clone 深拷贝账本
func (l *Ledger) Clone() *Ledger {
	c := NewLedger()
	for id, b := range l.balances {
		c.balances[id] = b
	}
	return c
}

// Restore 从余额表重建账本（快照恢复用）
func Restore(balances map[string]decimal.Decimal) *Ledger {
	l := NewLedger()
	for id, b := range balances {
		l.balances[id] = b
	}
	return l
}
