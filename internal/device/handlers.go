package device

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smartbedding/panel/internal/common"
	"github.com/smartbedding/panel/internal/models"
)

const (
	messageTokenIssued  = "Token issued"
	messageWrongCode    = "Incorrect code"
	messageAuthorized   = "Authorized"
	messageUnauthorized = "Unauthorized"
)

type handlers struct {
	simulator *Simulator
}

// postAuth exchanges a pairing code for a session token
func (h *handlers) postAuth(c *gin.Context) {

	var request models.LoginRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.NewFailureResponse[string](
			"Invalid request body",
		))
		return
	}

	token, ok := h.simulator.Pair(request.Code)
	if !ok {
		logrus.WithFields(logrus.Fields{
			"remote": c.ClientIP(),
		}).Warnln("Rejected pairing code")

		c.JSON(http.StatusOK, models.NewFailureResponse[string](messageWrongCode))
		return
	}

	logrus.WithFields(logrus.Fields{
		"remote": c.ClientIP(),
	}).Infoln("Issued session token")

	c.JSON(http.StatusOK, models.NewSuccessResponse(token, messageTokenIssued))
}

// getVerify answers whether the presented token is still the current one
func (h *handlers) getVerify(c *gin.Context) {
	if !h.simulator.Authorized(c.GetHeader("Authorization")) {
		c.JSON(http.StatusUnauthorized, models.NewFailureResponse[struct{}](messageUnauthorized))
		return
	}

	// The controller acknowledges without a payload
	c.JSON(http.StatusOK, models.ApiResponse[struct{}]{
		Result:    true,
		Timestamp: models.Now(),
		Message:   ptr(messageAuthorized),
	})
}

func (h *handlers) getConnectivity(c *gin.Context) {
	c.JSON(http.StatusOK, models.NewSuccessResponse(h.simulator.Connectivity(), ""))
}

func (h *handlers) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"version":   common.ReadBuildInfo().String(),
		"timestamp": models.Now(),
	})
}

// requireToken rejects requests without the current bearer token
func (h *handlers) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.simulator.Authorized(c.GetHeader("Authorization")) {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				models.NewFailureResponse[struct{}](messageUnauthorized))
			return
		}
		c.Next()
	}
}

func ptr[T any](v T) *T {
	return &v
}
