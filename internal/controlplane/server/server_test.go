package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/gemspace/gemmarket/pkg/config"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	dir := t.TempDir()
	srv, err := New(Config{
		Contract: config.ContractConfig{
			Owner:          "admin",
			FeePercent:     2.5,
			RoyaltyPercent: 5.0,
		},
		SalesDBPath: filepath.Join(dir, "sales.db"),
		SnapshotDir: filepath.Join(dir, "snapshots"),
		RegistryDir: filepath.Join(dir, "registry"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv, srv.Router()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func mintAsset(t *testing.T, h http.Handler, name, owner string) string {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/api/assets", payload{
		"name": name, "owner": owner, "now": 100,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		AssetID string `json:"asset_id"`
	}
	decode(t, w, &resp)
	return resp.AssetID
}

type payload = map[string]any

func TestHealthz(t *testing.T) {
	_, h := newTestServer(t)
	w := doJSON(t, h, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestFixedPriceFlow(t *testing.T) {
	_, h := newTestServer(t)

	assetID := mintAsset(t, h, "Ruby", "seller")
	require.Equal(t, "GEM-0", assetID)

	// create listing
	w := doJSON(t, h, http.MethodPost, "/api/listings", payload{
		"asset_id": assetID, "seller": "seller", "kind": "fixed_price",
		"price": "100", "now": 1000,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ListingID string `json:"listing_id"`
	}
	decode(t, w, &created)
	require.Equal(t, "LISTING-0", created.ListingID)

	// listed in active set
	w = doJSON(t, h, http.MethodGet, "/api/listings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var active struct {
		Listings []listingView `json:"listings"`
	}
	decode(t, w, &active)
	require.Len(t, active.Listings, 1)
	require.Equal(t, "100", active.Listings[0].Price)

	// buy
	w = doJSON(t, h, http.MethodPost, "/api/listings/LISTING-0/buy", payload{
		"buyer": "buyer", "payment": "100", "now": 1010,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var bought struct {
		SaleID string `json:"sale_id"`
	}
	decode(t, w, &bought)
	require.Equal(t, "SALE-0", bought.SaleID)

	// escrow split: seller 92.5, creator(=seller here) gets royalty too
	w = doJSON(t, h, http.MethodGet, "/api/escrow/balances/seller", nil)
	var bal balanceResponse
	decode(t, w, &bal)
	require.Equal(t, "97.5", bal.Balance)

	w = doJSON(t, h, http.MethodGet, "/api/escrow/balances/admin", nil)
	decode(t, w, &bal)
	require.Equal(t, "2.5", bal.Balance)

	// asset transferred to the buyer after settlement
	w = doJSON(t, h, http.MethodGet, "/api/assets/"+assetID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var asset struct {
		Owner   string `json:"owner"`
		Creator string `json:"creator"`
	}
	decode(t, w, &asset)
	require.Equal(t, "buyer", asset.Owner)
	require.Equal(t, "seller", asset.Creator)

	// sale mirrored into sqlite
	w = doJSON(t, h, http.MethodGet, "/api/sales/search?seller=seller", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mirrored struct {
		Sales []saleView `json:"sales"`
	}
	decode(t, w, &mirrored)
	require.Len(t, mirrored.Sales, 1)
	require.Equal(t, "SALE-0", mirrored.Sales[0].ID)
}

func TestCreateListing_NotOwner(t *testing.T) {
	_, h := newTestServer(t)
	assetID := mintAsset(t, h, "Ruby", "alice")

	w := doJSON(t, h, http.MethodPost, "/api/listings", payload{
		"asset_id": assetID, "seller": "mallory", "kind": "fixed_price",
		"price": "100", "now": 1000,
	})
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Contains(t, w.Body.String(), "NOT_OWNER")
}

func TestCreateListing_UnknownAsset(t *testing.T) {
	_, h := newTestServer(t)
	w := doJSON(t, h, http.MethodPost, "/api/listings", payload{
		"asset_id": "GEM-99", "seller": "alice", "kind": "fixed_price",
		"price": "100", "now": 1000,
	})
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "ASSET_NOT_FOUND")
}

func TestAuctionFlow(t *testing.T) {
	_, h := newTestServer(t)
	assetID := mintAsset(t, h, "Opal", "seller")

	w := doJSON(t, h, http.MethodPost, "/api/listings", payload{
		"asset_id": assetID, "seller": "seller", "kind": "auction",
		"price": "100", "duration": 3600, "now": 1000,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// bids need escrow funds up front
	w = doJSON(t, h, http.MethodPost, "/api/listings/LISTING-0/bids", payload{
		"bidder": "alice", "amount": "110", "now": 1010,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "INSUFFICIENT_FUNDS")

	w = doJSON(t, h, http.MethodPost, "/api/escrow/deposit", payload{
		"identity": "alice", "amount": "110",
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, h, http.MethodPost, "/api/listings/LISTING-0/bids", payload{
		"bidder": "alice", "amount": "110", "now": 1010,
	})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	// too early to end
	w = doJSON(t, h, http.MethodPost, "/api/listings/LISTING-0/end", payload{"now": 2000})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "NOT_EXPIRED_YET")

	w = doJSON(t, h, http.MethodPost, "/api/listings/LISTING-0/end", payload{"now": 4600})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ended endAuctionResponse
	decode(t, w, &ended)
	require.True(t, ended.Sold)
	require.Equal(t, "SALE-0", ended.SaleID)

	// winner withdraws nothing, loser path not applicable; seller withdraws payout
	w = doJSON(t, h, http.MethodPost, "/api/escrow/withdraw", payload{"identity": "seller"})
	require.Equal(t, http.StatusOK, w.Code)
	var withdrawn withdrawResponse
	decode(t, w, &withdrawn)
	require.Equal(t, "107.25", withdrawn.Amount) // 101.75 + royalty 5.5 (seller is creator)

	// second withdraw finds nothing
	w = doJSON(t, h, http.MethodPost, "/api/escrow/withdraw", payload{"identity": "seller"})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "NO_BALANCE")
}

func TestCancelListing_Errors(t *testing.T) {
	_, h := newTestServer(t)
	assetID := mintAsset(t, h, "Ruby", "seller")

	doJSON(t, h, http.MethodPost, "/api/listings", payload{
		"asset_id": assetID, "seller": "seller", "kind": "fixed_price",
		"price": "100", "now": 1000,
	})

	w := doJSON(t, h, http.MethodPost, "/api/listings/LISTING-0/cancel", payload{"seller": "mallory"})
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Contains(t, w.Body.String(), "NOT_SELLER")

	w = doJSON(t, h, http.MethodPost, "/api/listings/LISTING-99/cancel", payload{"seller": "seller"})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, h, http.MethodPost, "/api/listings/LISTING-0/cancel", payload{"seller": "seller"})
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestStateSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Contract: config.ContractConfig{
			Owner: "admin", FeePercent: 2.5, RoyaltyPercent: 5.0,
		},
		SalesDBPath: filepath.Join(dir, "sales.db"),
		SnapshotDir: filepath.Join(dir, "snapshots"),
		RegistryDir: filepath.Join(dir, "registry"),
	}

	srv, err := New(cfg)
	require.NoError(t, err)
	h := srv.Router()

	assetID := mintAsset(t, h, "Ruby", "seller")
	w := doJSON(t, h, http.MethodPost, "/api/listings", payload{
		"asset_id": assetID, "seller": "seller", "kind": "fixed_price",
		"price": "100", "now": 1000,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.NoError(t, srv.Close())

	// reopen against the same data dir
	srv2, err := New(cfg)
	require.NoError(t, err)
	defer srv2.Close()
	h2 := srv2.Router()

	w = doJSON(t, h2, http.MethodGet, "/api/listings/LISTING-0", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var l listingView
	decode(t, w, &l)
	require.Equal(t, assetID, l.AssetID)
	require.Equal(t, "active", l.Status)

	// registry came back too
	w = doJSON(t, h2, http.MethodGet, "/api/assets/"+assetID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// buying on the restarted instance works end to end
	w = doJSON(t, h2, http.MethodPost, "/api/listings/LISTING-0/buy", payload{
		"buyer": "buyer", "payment": "100", "now": 1010,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestSalesFeed(t *testing.T) {
	_, h := newTestServer(t)
	ts := httptest.NewServer(h)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/sales"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// give the feed handler a moment to register the subscriber
	time.Sleep(100 * time.Millisecond)

	assetID := mintAsset(t, h, "Ruby", "seller")
	doJSON(t, h, http.MethodPost, "/api/listings", payload{
		"asset_id": assetID, "seller": "seller", "kind": "fixed_price",
		"price": "100", "now": 1000,
	})
	w := doJSON(t, h, http.MethodPost, "/api/listings/LISTING-0/buy", payload{
		"buyer": "buyer", "payment": "100", "now": 1010,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev struct {
		Type string   `json:"type"`
		Sale saleView `json:"sale"`
	}
	require.NoError(t, json.Unmarshal(data, &ev))
	require.Equal(t, "sale", ev.Type)
	require.Equal(t, "SALE-0", ev.Sale.ID)
	require.Equal(t, "buyer", ev.Sale.Buyer)
}

func TestRequestIDHeader(t *testing.T) {
	_, h := newTestServer(t)

	w := doJSON(t, h, http.MethodGet, "/healthz", nil)
	require.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "fixed-id", rec.Header().Get("X-Request-ID"))
}

func TestSalesSearchFilters(t *testing.T) {
	_, h := newTestServer(t)

	for i, seller := range []string{"alice", "bob"} {
		assetID := mintAsset(t, h, fmt.Sprintf("Gem %d", i), seller)
		w := doJSON(t, h, http.MethodPost, "/api/listings", payload{
			"asset_id": assetID, "seller": seller, "kind": "fixed_price",
			"price": "10", "now": 1000,
		})
		require.Equal(t, http.StatusCreated, w.Code)
		w = doJSON(t, h, http.MethodPost, fmt.Sprintf("/api/listings/LISTING-%d/buy", i), payload{
			"buyer": "carol", "payment": "10", "now": 1010,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := doJSON(t, h, http.MethodGet, "/api/sales/search?seller=alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Sales []saleView `json:"sales"`
	}
	decode(t, w, &res)
	require.Len(t, res.Sales, 1)
	require.Equal(t, "alice", res.Sales[0].Seller)

	w = doJSON(t, h, http.MethodGet, "/api/sales/search?asset_id=GEM-1", nil)
	decode(t, w, &res)
	require.Len(t, res.Sales, 1)
	require.Equal(t, "GEM-1", res.Sales[0].AssetID)
}
