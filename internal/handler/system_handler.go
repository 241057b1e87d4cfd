package handler

import (
	"net/http"

	"ragus-eval/internal/service"

	"github.com/gin-gonic/gin"
)

type SystemHandler struct {
	endpoint string
}

func NewSystemHandler(endpoint string) *SystemHandler {
	return &SystemHandler{endpoint: endpoint}
}

// GetDataset 内置样例问题
func (h *SystemHandler) GetDataset(c *gin.Context) {
	pairs := service.DefaultDataset()
	c.JSON(http.StatusOK, gin.H{
		"queries": pairs,
		"total":   len(pairs),
	})
}

func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"endpoint": h.endpoint,
	})
}
