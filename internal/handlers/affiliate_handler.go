package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"affiliate-program/internal/auth"
	"affiliate-program/internal/services"
)

// trackingCookieName is the browser cookie carrying the attribution id
const trackingCookieName = "ref_tracking"

type AffiliateHandler struct {
	affiliateService *services.AffiliateService
	trackingService  *services.TrackingService
	cookieTTLDays    int
	redirectURL      string
}

func NewAffiliateHandler(
	affiliateService *services.AffiliateService,
	trackingService *services.TrackingService,
	cookieTTLDays int,
	redirectURL string,
) *AffiliateHandler {
	return &AffiliateHandler{
		affiliateService: affiliateService,
		trackingService:  trackingService,
		cookieTTLDays:    cookieTTLDays,
		redirectURL:      redirectURL,
	}
}

// BecomeAffiliate enrolls the authenticated user into the program
func (h *AffiliateHandler) BecomeAffiliate(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		ParentReferralCode string `json:"parent_referral_code"`
	}
	// Body is optional; enrolling without a parent code is valid
	_ = c.ShouldBindJSON(&req)

	affiliate, err := h.affiliateService.BecomeAffiliate(userID, req.ParentReferralCode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enroll affiliate"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    affiliate,
	})
}

// GetMyAffiliate returns the authenticated user's affiliate record
func (h *AffiliateHandler) GetMyAffiliate(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	affiliate, err := h.affiliateService.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, services.ErrAffiliateNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not an affiliate"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get affiliate"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    affiliate,
	})
}

// TrackClick handles a referral link visit: it drops the attribution cookie
// and redirects the visitor to the landing page.
func (h *AffiliateHandler) TrackClick(c *gin.Context) {
	code := c.Param("code")

	result, err := h.trackingService.TrackClick(
		c.Request.Context(),
		code,
		c.ClientIP(),
		c.Request.UserAgent(),
		c.Request.Referer(),
	)
	if err != nil {
		// Unknown codes still get the redirect, just without attribution
		c.Redirect(http.StatusFound, h.redirectURL)
		return
	}

	maxAge := int((time.Duration(h.cookieTTLDays) * 24 * time.Hour).Seconds())
	c.SetCookie(trackingCookieName, result.CookieID, maxAge, "/", "", false, true)
	c.Redirect(http.StatusFound, h.redirectURL)
}

// TrackSignup attributes a completed registration to an affiliate. The
// tracking cookie wins over a referral code passed in the body.
func (h *AffiliateHandler) TrackSignup(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		Email        string `json:"email" binding:"required,email"`
		ReferralCode string `json:"referral_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cookieID, _ := c.Cookie(trackingCookieName)

	referred, err := h.trackingService.TrackSignup(c.Request.Context(), services.TrackSignupInput{
		UserID:       userID,
		Email:        req.Email,
		CookieID:     cookieID,
		ReferralCode: req.ReferralCode,
		IPAddress:    c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to track signup"})
		return
	}

	if cookieID != "" {
		c.SetCookie(trackingCookieName, "", -1, "/", "", false, true)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"attributed": referred != nil,
		"data":       referred,
	})
}
