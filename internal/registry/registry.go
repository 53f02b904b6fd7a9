// Package registry 实现资产所有权登记簿。
//
// 市场引擎只通过 Registry 接口消费登记簿（"资产 X 的创作者/所有者是谁"），
// 铸造与转移由宿主直接调用具体实现完成。
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gemspace/gemmarket/internal/domain"
)

var (
	// ErrAssetNotFound 资产不存在
	ErrAssetNotFound = errors.New("registry: asset not found")
	// ErrNotOwner 调用方不是资产的当前所有者
	ErrNotOwner = errors.New("registry: not the owner")
)

// Registry 引擎消费的只读能力：创作者/所有者查询
// 以注入接口的形式建模，便于用桩实现测试引擎宿主
type Registry interface {
	CreatorOf(assetID string) (string, error)
	OwnerOf(assetID string) (string, error)
}

// InMemory 内存登记簿：铸造、转移、查询的完整实现
type InMemory struct {
	mu          sync.RWMutex
	assets      map[string]*domain.Asset
	ownerAssets map[string][]string // 所有者 -> 资产 ID 列表（插入顺序）
	totalSupply uint64
}

// NewInMemory 创建空登记簿
func NewInMemory() *InMemory {
	return &InMemory{
		assets:      make(map[string]*domain.Asset),
		ownerAssets: make(map[string][]string),
	}
}

// Mint 铸造新资产，owner 同时成为 creator（版税接收方）
func (r *InMemory) Mint(name, owner string, attrs domain.AssetAttributes, metadataURI string, now int64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	assetID := fmt.Sprintf("GEM-%d", r.totalSupply)
	r.assets[assetID] = &domain.Asset{
		ID:          assetID,
		Name:        name,
		Owner:       owner,
		Creator:     owner,
		Attributes:  attrs,
		MetadataURI: metadataURI,
		CreatedAt:   now,
	}
	r.ownerAssets[owner] = append(r.ownerAssets[owner], assetID)
	r.totalSupply++

	return assetID, nil
}

// Transfer 转移资产所有权
// from 必须是当前所有者；创作者身份不随转移改变
func (r *InMemory) Transfer(assetID, from, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	asset, ok := r.assets[assetID]
	if !ok {
		return ErrAssetNotFound
	}
	if asset.Owner != from {
		return ErrNotOwner
	}

	if list, ok := r.ownerAssets[from]; ok {
		for i, id := range list {
			if id == assetID {
				r.ownerAssets[from] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
	r.ownerAssets[to] = append(r.ownerAssets[to], assetID)

	asset.Owner = to
	asset.TransferCount++
	return nil
}

// Get 查询资产详情
func (r *InMemory) Get(assetID string) (*domain.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	asset, ok := r.assets[assetID]
	if !ok {
		return nil, ErrAssetNotFound
	}
	cp := *asset
	return &cp, nil
}

// AssetsByOwner 查询某所有者名下的全部资产
func (r *InMemory) AssetsByOwner(owner string) []*domain.Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.ownerAssets[owner]
	out := make([]*domain.Asset, 0, len(ids))
	for _, id := range ids {
		if asset, ok := r.assets[id]; ok {
			cp := *asset
			out = append(out, &cp)
		}
	}
	return out
}

// IsOwner 检查某身份是否为资产当前所有者
func (r *InMemory) IsOwner(assetID, identity string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	asset, ok := r.assets[assetID]
	return ok && asset.Owner == identity
}

// TotalSupply 返回已铸造资产总数
func (r *InMemory) TotalSupply() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.totalSupply
}

// CreatorOf 实现 Registry 接口
func (r *InMemory) CreatorOf(assetID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	asset, ok := r.assets[assetID]
	if !ok {
		return "", ErrAssetNotFound
	}
	return asset.Creator, nil
}

// OwnerOf 实现 Registry 接口
func (r *InMemory) OwnerOf(assetID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	asset, ok := r.assets[assetID]
	if !ok {
		return "", ErrAssetNotFound
	}
	return asset.Owner, nil
}

// Export / Import：登记簿的 JSON 持久化视图（pkg/persistence 使用）

// State 登记簿的可序列化状态
type State struct {
	Assets      map[string]*domain.Asset `json:"assets"`
	OwnerAssets map[string][]string      `json:"owner_assets"`
	TotalSupply uint64                   `json:"total_supply"`
}

// Export 导出状态快照
func (r *InMemory) Export() State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st := State{
		Assets:      make(map[string]*domain.Asset, len(r.assets)),
		OwnerAssets: make(map[string][]string, len(r.ownerAssets)),
		TotalSupply: r.totalSupply,
	}
	for id, a := range r.assets {
		cp := *a
		st.Assets[id] = &cp
	}
	for owner, ids := range r.ownerAssets {
		st.OwnerAssets[owner] = append([]string(nil), ids...)
	}
	return st
}

// Import 从状态快照恢复
func (r *InMemory) Import(st State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.assets = make(map[string]*domain.Asset, len(st.Assets))
	for id, a := range st.Assets {
		cp := *a
		r.assets[id] = &cp
	}
	r.ownerAssets = make(map[string][]string, len(st.OwnerAssets))
	for owner, ids := range st.OwnerAssets {
		r.ownerAssets[owner] = append([]string(nil), ids...)
	}
	r.totalSupply = st.TotalSupply
}
