package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thanhnp/pow-ledger/internal/blockchain"
	"github.com/thanhnp/pow-ledger/internal/ledger"
	"github.com/thanhnp/pow-ledger/internal/notifier"
)

// ChainHandler handles chain-wide API requests
type ChainHandler struct {
	ledger   *ledger.Service
	notifier *notifier.MiningNotifier
}

// NewChainHandler creates a new ChainHandler. n may be nil.
func NewChainHandler(l *ledger.Service, n *notifier.MiningNotifier) *ChainHandler {
	return &ChainHandler{
		ledger:   l,
		notifier: n,
	}
}

type tamperRequest struct {
	Index *int   `json:"index"`
	Data  string `json:"data"`
}

// Info returns the chain header and its validity
// GET /api/v1/chain
func (h *ChainHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"difficulty": h.ledger.Difficulty(),
		"height":     h.ledger.Height(),
		"valid":      h.ledger.Validate().Valid,
	})
}

// Validate returns the validation report
// GET /api/v1/validate
func (h *ChainHandler) Validate(c *gin.Context) {
	c.JSON(http.StatusOK, h.ledger.Validate())
}

// Stats returns mining statistics
// GET /api/v1/stats
func (h *ChainHandler) Stats(c *gin.Context) {
	stats := h.ledger.Stats()
	if h.notifier != nil {
		stats.Dropped = h.notifier.Dropped()
	}
	c.JSON(http.StatusOK, stats)
}

// Tamper rewrites a block payload without mining
// POST /api/v1/debug/tamper
func (h *ChainHandler) Tamper(c *gin.Context) {
	var req tamperRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Index == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	block, err := h.ledger.Tamper(*req.Index, req.Data)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, block)
	case errors.Is(err, ledger.ErrTamperDisabled):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, blockchain.ErrOutOfRange):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
