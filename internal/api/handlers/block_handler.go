package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/thanhnp/pow-ledger/internal/ledger"
)

// BlockHandler handles block-related API requests
type BlockHandler struct {
	ledger *ledger.Service
}

// NewBlockHandler creates a new BlockHandler
func NewBlockHandler(l *ledger.Service) *BlockHandler {
	return &BlockHandler{
		ledger: l,
	}
}

type addBlockRequest struct {
	Data string `json:"data"`
}

// List returns every block
// GET /api/v1/blocks
func (h *BlockHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.ledger.Blocks())
}

// GetByIndex returns a block by its index
// GET /api/v1/blocks/:index
func (h *BlockHandler) GetByIndex(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid index"})
		return
	}

	block, err := h.ledger.Block(index)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Block not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, block)
}

// GetLatest returns the latest block
// GET /api/v1/blocks/latest
func (h *BlockHandler) GetLatest(c *gin.Context) {
	c.JSON(http.StatusOK, h.ledger.Latest())
}

// Add mines a new block carrying the request payload
// POST /api/v1/blocks
func (h *BlockHandler) Add(c *gin.Context) {
	var req addBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	block, err := h.ledger.AddBlock(c.Request.Context(), req.Data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, block)
}
