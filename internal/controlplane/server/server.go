package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/gemspace/gemmarket/internal/market"
	"github.com/gemspace/gemmarket/internal/registry"
	"github.com/gemspace/gemmarket/internal/statestore"
	"github.com/gemspace/gemmarket/pkg/config"
	"github.com/gemspace/gemmarket/pkg/logger"
	"github.com/gemspace/gemmarket/pkg/persistence"
)

type Config struct {
	Contract    config.ContractConfig
	SalesDBPath string
	SnapshotDir string
	RegistryDir string
	RegistryURL string // empty = built-in in-memory registry
}

// Server hosts one marketplace contract instance.
//
// The engine itself is a pure state machine; everything stateful about the
// outside world lives here: call serialization, snapshot persistence, the
// sales mirror, asset transfer after settlement and the sale event feed.
type Server struct {
	cfg Config
	db  *sql.DB

	// mu serializes every mutating contract call. The engine assumes exactly
	// one logical thread of execution per state snapshot.
	mu       sync.Mutex
	contract *market.Contract

	reg      registry.Registry
	localReg *registry.InMemory // nil when RegistryURL is set
	regStore persistence.Store

	snapshots *statestore.Store
	hub       *saleHub
}

func New(cfg Config) (*Server, error) {
	if cfg.SalesDBPath == "" {
		return nil, fmt.Errorf("sales db path is required")
	}
	if cfg.SnapshotDir == "" {
		return nil, fmt.Errorf("snapshot dir is required")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.SalesDBPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.SalesDBPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite：单连接更稳定
	db.SetMaxIdleConns(1)

	snapshots, err := statestore.Open(cfg.SnapshotDir)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		db:        db,
		snapshots: snapshots,
		hub:       newSaleHub(),
	}

	if err := s.migrate(); err != nil {
		_ = s.Close()
		return nil, err
	}
	if err := s.initContract(); err != nil {
		_ = s.Close()
		return nil, err
	}
	if err := s.initRegistry(); err != nil {
		_ = s.Close()
		return nil, err
	}

	go s.hub.run()
	return s, nil
}

// initContract restores the latest snapshot or constructs a fresh contract.
func (s *Server) initContract() error {
	version, data, err := s.snapshots.Latest()
	if err != nil {
		return err
	}
	if data == nil {
		s.contract = market.New(s.cfg.Contract.Owner, s.cfg.Contract.Fee(), s.cfg.Contract.Royalty())
		logger.Infof("new contract: owner=%s fee=%s%% royalty=%s%%",
			s.cfg.Contract.Owner, s.cfg.Contract.Fee(), s.cfg.Contract.Royalty())
		return nil
	}
	contract, err := market.RestoreSnapshot(data)
	if err != nil {
		return fmt.Errorf("restore snapshot v%d: %w", version, err)
	}
	s.contract = contract
	logger.Infof("contract restored from snapshot v%d", version)
	return nil
}

func (s *Server) initRegistry() error {
	if s.cfg.RegistryURL != "" {
		s.reg = registry.NewHTTPClient(s.cfg.RegistryURL)
		return nil
	}

	mem := registry.NewInMemory()
	if s.cfg.RegistryDir != "" {
		s.regStore = persistence.NewJSONFileService(s.cfg.RegistryDir).NewStore("registry", "assets", "v1")
		var st registry.State
		switch err := s.regStore.Load(&st); err {
		case nil:
			mem.Import(st)
			logger.Infof("registry restored: %d assets", st.TotalSupply)
		case persistence.ErrNotExists:
			// first run
		default:
			return err
		}
	}
	s.localReg = mem
	s.reg = mem
	return nil
}

func (s *Server) Close() error {
	if s.hub != nil {
		s.hub.stop()
	}
	if s.snapshots != nil {
		_ = s.snapshots.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// persistState snapshots the contract after a successful mutation.
// Must be called with mu held.
func (s *Server) persistState() {
	data, err := s.contract.Snapshot()
	if err != nil {
		logger.Errorf("snapshot contract: %v", err)
		return
	}
	version, err := s.snapshots.Save(data)
	if err != nil {
		logger.Errorf("persist snapshot: %v", err)
		return
	}
	logger.Debugf("snapshot v%d persisted", version)
}

// persistRegistry saves the in-memory registry, if one is in use.
func (s *Server) persistRegistry() {
	if s.localReg == nil || s.regStore == nil {
		return
	}
	if err := s.regStore.Save(s.localReg.Export()); err != nil {
		logger.Errorf("persist registry: %v", err)
	}
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestID())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/ws/sales", s.handleSalesFeed)

	api := r.Group("/api")

	listings := api.Group("/listings")
	listings.GET("", s.handleActiveListings)
	listings.POST("", s.handleCreateListing)
	listingID := listings.Group("/:listingID")
	listingID.GET("", s.handleGetListing)
	listingID.POST("/buy", s.handleBuy)
	listingID.POST("/bids", s.handlePlaceBid)
	listingID.POST("/end", s.handleEndAuction)
	listingID.POST("/cancel", s.handleCancelListing)

	escrow := api.Group("/escrow")
	escrow.POST("/deposit", s.handleDeposit)
	escrow.POST("/withdraw", s.handleWithdraw)
	escrow.GET("/balances/:identity", s.handleBalance)

	api.GET("/sales", s.handleSalesHistory)
	api.GET("/sales/search", s.handleSalesSearch)

	assets := api.Group("/assets")
	assets.POST("", s.handleMintAsset)
	assetID := assets.Group("/:assetID")
	assetID.GET("", s.handleGetAsset)
	assetID.POST("/transfer", s.handleTransferAsset)
	api.GET("/owners/:owner/assets", s.handleAssetsByOwner)

	return r
}

// requestID tags every request for log correlation.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
