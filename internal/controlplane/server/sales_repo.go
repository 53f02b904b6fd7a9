package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gemspace/gemmarket/internal/domain"
)

// The sqlite mirror is a query convenience; the contract's sales history
// remains the authority for what happened.

func (s *Server) migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`
CREATE TABLE IF NOT EXISTS sales (
  id TEXT PRIMARY KEY,
  listing_id TEXT NOT NULL,
  asset_id TEXT NOT NULL,
  seller TEXT NOT NULL,
  buyer TEXT NOT NULL,
  price TEXT NOT NULL,
  ts INTEGER NOT NULL,
  royalty_paid TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_sales_seller ON sales(seller);`,
		`CREATE INDEX IF NOT EXISTS idx_sales_asset ON sales(asset_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) insertSale(ctx context.Context, sale domain.Sale) error {
	_, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO sales (id,listing_id,asset_id,seller,buyer,price,ts,royalty_paid)
VALUES (?,?,?,?,?,?,?,?)
`, sale.ID, sale.ListingID, sale.AssetID, sale.Seller, sale.Buyer,
		sale.Price.String(), sale.Timestamp, sale.RoyaltyPaid.String())
	return err
}

func (s *Server) querySales(ctx context.Context, seller, assetID string) ([]saleView, error) {
	q := `SELECT id,listing_id,asset_id,seller,buyer,price,ts,royalty_paid FROM sales WHERE 1=1`
	args := []any{}
	if seller != "" {
		q += ` AND seller=?`
		args = append(args, seller)
	}
	if assetID != "" {
		q += ` AND asset_id=?`
		args = append(args, assetID)
	}
	q += ` ORDER BY ts ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]saleView, 0)
	for rows.Next() {
		var v saleView
		if err := rows.Scan(&v.ID, &v.ListingID, &v.AssetID, &v.Seller, &v.Buyer, &v.Price, &v.Timestamp, &v.RoyaltyPaid); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Server) handleSalesSearch(c *gin.Context) {
	sales, err := s.querySales(c.Request.Context(), c.Query("seller"), c.Query("asset_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales": sales})
}
