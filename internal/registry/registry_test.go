package registry

import (
	"testing"

	"github.com/gemspace/gemmarket/internal/domain"
)

func TestMintAndQuery(t *testing.T) {
	r := NewInMemory()

	id, err := r.Mint("Ruby", "alice", domain.AssetAttributes{Rarity: domain.RarityRare, Color: "red"}, "ipfs://ruby", 100)
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}
	if id != "GEM-0" {
		t.Fatalf("asset id got=%s want=GEM-0", id)
	}

	asset, err := r.Get(id)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if asset.Owner != "alice" || asset.Creator != "alice" {
		t.Fatalf("owner/creator got=%s/%s want=alice/alice", asset.Owner, asset.Creator)
	}
	if asset.Attributes.Rarity != domain.RarityRare {
		t.Fatalf("rarity got=%s want=%s", asset.Attributes.Rarity, domain.RarityRare)
	}
	if r.TotalSupply() != 1 {
		t.Fatalf("total supply got=%d want=1", r.TotalSupply())
	}

	id2, _ := r.Mint("Opal", "bob", domain.AssetAttributes{}, "", 101)
	if id2 != "GEM-1" {
		t.Fatalf("asset id got=%s want=GEM-1", id2)
	}
}

func TestTransfer(t *testing.T) {
	r := NewInMemory()
	id, _ := r.Mint("Ruby", "alice", domain.AssetAttributes{}, "", 0)

	if err := r.Transfer(id, "alice", "bob"); err != nil {
		t.Fatalf("Transfer error: %v", err)
	}

	owner, err := r.OwnerOf(id)
	if err != nil {
		t.Fatalf("OwnerOf error: %v", err)
	}
	if owner != "bob" {
		t.Fatalf("owner got=%s want=bob", owner)
	}
	// 创作者身份不随转移改变
	creator, _ := r.CreatorOf(id)
	if creator != "alice" {
		t.Fatalf("creator got=%s want=alice", creator)
	}

	asset, _ := r.Get(id)
	if asset.TransferCount != 1 {
		t.Fatalf("transfer count got=%d want=1", asset.TransferCount)
	}
	if len(r.AssetsByOwner("alice")) != 0 {
		t.Fatalf("alice should no longer own assets")
	}
	if got := r.AssetsByOwner("bob"); len(got) != 1 || got[0].ID != id {
		t.Fatalf("bob assets got=%v", got)
	}
}

func TestTransfer_Errors(t *testing.T) {
	r := NewInMemory()
	id, _ := r.Mint("Ruby", "alice", domain.AssetAttributes{}, "", 0)

	if err := r.Transfer("GEM-99", "alice", "bob"); err != ErrAssetNotFound {
		t.Fatalf("err got=%v want=%v", err, ErrAssetNotFound)
	}
	if err := r.Transfer(id, "mallory", "bob"); err != ErrNotOwner {
		t.Fatalf("err got=%v want=%v", err, ErrNotOwner)
	}
	if owner, _ := r.OwnerOf(id); owner != "alice" {
		t.Fatalf("failed transfer must not change owner, got=%s", owner)
	}
}

func TestIsOwner(t *testing.T) {
	r := NewInMemory()
	id, _ := r.Mint("Ruby", "alice", domain.AssetAttributes{}, "", 0)

	if !r.IsOwner(id, "alice") {
		t.Fatalf("alice should own %s", id)
	}
	if r.IsOwner(id, "bob") || r.IsOwner("GEM-99", "alice") {
		t.Fatalf("unexpected ownership")
	}
}

func TestQuery_NotFound(t *testing.T) {
	r := NewInMemory()
	if _, err := r.Get("GEM-0"); err != ErrAssetNotFound {
		t.Fatalf("Get err got=%v want=%v", err, ErrAssetNotFound)
	}
	if _, err := r.OwnerOf("GEM-0"); err != ErrAssetNotFound {
		t.Fatalf("OwnerOf err got=%v want=%v", err, ErrAssetNotFound)
	}
	if _, err := r.CreatorOf("GEM-0"); err != ErrAssetNotFound {
		t.Fatalf("CreatorOf err got=%v want=%v", err, ErrAssetNotFound)
	}
}

func TestExportImport(t *testing.T) {
	r := NewInMemory()
	id, _ := r.Mint("Ruby", "alice", domain.AssetAttributes{Rarity: domain.RarityLegendary}, "ipfs://x", 5)
	r.Transfer(id, "alice", "bob")

	restored := NewInMemory()
	restored.Import(r.Export())

	if restored.TotalSupply() != 1 {
		t.Fatalf("total supply got=%d want=1", restored.TotalSupply())
	}
	owner, _ := restored.OwnerOf(id)
	creator, _ := restored.CreatorOf(id)
	if owner != "bob" || creator != "alice" {
		t.Fatalf("owner/creator got=%s/%s want=bob/alice", owner, creator)
	}
	// 铸造序号延续
	id2, _ := restored.Mint("Opal", "carol", domain.AssetAttributes{}, "", 6)
	if id2 != "GEM-1" {
		t.Fatalf("asset id got=%s want=GEM-1", id2)
	}
}
