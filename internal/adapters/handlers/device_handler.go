package handlers

import (
	"net/http"

	"github.com/Carima-SSY/AWS-Client/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// Health отвечает, что процесс жив
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetStatus возвращает полный снимок состояния устройства:
// статус, датчики, печать, тревогу и конфигурацию.
func (h *Handler) GetStatus(c *gin.Context) {
	status, err := h.usecase.GetStatus()
	if err != nil {
		h.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetCurrentHistory возвращает запись текущего задания или null
func (h *Handler) GetCurrentHistory(c *gin.Context) {
	current, err := h.usecase.GetCurrentHistory()
	if err != nil {
		h.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.HistoryResponse{Status: "ok", Current: current})
}

func (h *Handler) GetLoops(c *gin.Context) {
	c.JSON(http.StatusOK, models.LoopsResponse{Status: "ok", Loops: h.usecase.GetLoops()})
}

// SubmitRequest принимает команду в том же формате, что и MQTT топик request,
// и обрабатывает ее синхронно.
func (h *Handler) SubmitRequest(c *gin.Context) {
	var req models.InboundMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}

	h.logger.Info("Local request received", "request", req.Request)

	if err := h.usecase.SubmitRequest(c.Request.Context(), req); err != nil {
		h.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Status: "ok", Message: "request " + req.Request + " accepted"})
}
