package businesses

import (
	"errors"
	"net/http"

	"storefront-app/internal/domain/businesses"
	"storefront-app/internal/vault"

	"github.com/gin-gonic/gin"
)

// Handler exposes the admin CRUD surface over the credential vault. It only
// forwards to the vault; secrets never appear in any response body.
type Handler struct {
	vault *vault.Vault
}

func NewHandler(v *vault.Vault) *Handler {
	return &Handler{vault: v}
}

type createBusinessDTO struct {
	BusinessID   uint   `json:"business_id"`
	BusinessName string `json:"business_name" binding:"required"`
	StripePK     string `json:"stripe_pk"`
	StripeSK     string `json:"stripe_sk" binding:"required"`
}

type updateBusinessDTO struct {
	BusinessID   uint    `json:"business_id" binding:"required"`
	BusinessName *string `json:"business_name"`
	StripePK     string  `json:"stripe_pk"`
	StripeSK     *string `json:"stripe_sk"`
}

type deleteBusinessDTO struct {
	BusinessID uint `json:"business_id" binding:"required"`
}

func credentialFrom(publicKey, secret string) businesses.Credential {
	if publicKey != "" {
		return businesses.Split(publicKey, secret)
	}
	return businesses.Single(secret)
}

func (h *Handler) CreateBusiness(c *gin.Context) {
	var body createBusinessDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body does not meet the business specification"})
		return
	}

	err := h.vault.Store(body.BusinessID, body.BusinessName, credentialFrom(body.StripePK, body.StripeSK))
	if err != nil {
		writeVaultError(c, err)
		return
	}
	c.JSON(http.StatusOK, "Success")
}

func (h *Handler) UpdateBusiness(c *gin.Context) {
	var body updateBusinessDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body does not meet the business specification"})
		return
	}

	var newCred *businesses.Credential
	if body.StripeSK != nil {
		cred := credentialFrom(body.StripePK, *body.StripeSK)
		newCred = &cred
	}

	err := h.vault.Update(body.BusinessID, body.BusinessName, newCred)
	if err != nil {
		writeVaultError(c, err)
		return
	}
	c.JSON(http.StatusOK, "Success")
}

func (h *Handler) DeleteBusiness(c *gin.Context) {
	var body deleteBusinessDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body does not meet the business specification"})
		return
	}

	if err := h.vault.Remove(body.BusinessID); err != nil {
		writeVaultError(c, err)
		return
	}
	c.JSON(http.StatusOK, "Success")
}

func writeVaultError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, vault.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Business not found"})
	case errors.Is(err, vault.ErrDuplicateKey):
		c.JSON(http.StatusConflict, gin.H{"error": "Business or key already exists"})
	case errors.Is(err, vault.ErrNoChangeRequested):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No change requested"})
	case errors.Is(err, vault.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, vault.ErrPairImmutable):
		c.JSON(http.StatusConflict, gin.H{"error": "Key pairs are immutable; supply a new public key to rotate"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store business"})
	}
}
