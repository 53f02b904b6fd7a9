package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gemspace/gemmarket/pkg/logger"
)

// asset endpoints are only served when the built-in registry is in use;
// with a remote registry the owning service exposes its own API.

func (s *Server) requireLocalRegistry(c *gin.Context) bool {
	if s.localReg == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"code":  "REMOTE_REGISTRY",
			"error": "asset registry is hosted remotely",
		})
		return false
	}
	return true
}

func (s *Server) handleMintAsset(c *gin.Context) {
	if !s.requireLocalRegistry(c) {
		return
	}
	var req mintAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}

	assetID, err := s.localReg.Mint(req.Name, req.Owner, req.Attributes, req.MetadataURI, req.Now)
	if err != nil {
		writeError(c, err)
		return
	}
	s.persistRegistry()

	logger.Infof("asset minted: %s %q owner=%s", assetID, req.Name, req.Owner)
	c.JSON(http.StatusCreated, mintAssetResponse{AssetID: assetID})
}

func (s *Server) handleGetAsset(c *gin.Context) {
	if !s.requireLocalRegistry(c) {
		return
	}
	asset, err := s.localReg.Get(c.Param("assetID"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, asset)
}

func (s *Server) handleTransferAsset(c *gin.Context) {
	if !s.requireLocalRegistry(c) {
		return
	}
	var req transferAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}

	if err := s.localReg.Transfer(c.Param("assetID"), req.From, req.To); err != nil {
		writeError(c, err)
		return
	}
	s.persistRegistry()
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAssetsByOwner(c *gin.Context) {
	if !s.requireLocalRegistry(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"assets": s.localReg.AssetsByOwner(c.Param("owner"))})
}
