package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type saveLicenseRequest struct {
	LicenseKey *string `json:"license_key"`
}

func (s *Server) GetLicense(c *gin.Context) {
	status, err := s.licenseSvc.Status(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": status})
}

func (s *Server) SaveLicense(c *gin.Context) {
	var req saveLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.LicenseKey == nil {
		AbortWithError(c, newValidationError("license_key", "required", "license_key is required"))
		return
	}

	if err := s.licenseSvc.SaveLicenseKey(c.Request.Context(), *req.LicenseKey); err != nil {
		AbortWithError(c, err)
		return
	}

	status, err := s.licenseSvc.Status(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": status})
}

func (s *Server) DeleteLicense(c *gin.Context) {
	if err := s.licenseSvc.DeleteLicenseKey(c.Request.Context()); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
