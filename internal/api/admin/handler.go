package admin

import (
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"time"

	"storefront-app/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Login exchanges the shared admin secret for a short-lived bearer token so
// admin tooling does not have to carry the password on every call.
func Login(c *gin.Context) {
	var body struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing password"})
		return
	}

	digest := sha256.Sum256([]byte(body.Password))
	if base64.StdEncoding.EncodeToString(digest[:]) != config.ADMIN_PASS {
		c.JSON(http.StatusUnauthorized, "Not Authorized")
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(config.JWT_SECRET))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": signed})
}
