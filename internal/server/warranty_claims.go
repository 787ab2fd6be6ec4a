package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	warrantydomain "github.com/smallbiznis/warrantyhub/internal/warranty/domain"
)

type listWarrantyClaimsQuery struct {
	Search       string `form:"search"`
	Status       string `form:"status"`
	ClaimType    string `form:"claim_type"`
	Priority     string `form:"priority"`
	DealerID     string `form:"dealer_id"`
	AssignedToID string `form:"assigned_to_id"`
	CreatedFrom  string `form:"created_from"`
	CreatedTo    string `form:"created_to"`
	SortBy       string `form:"sort_by"`
	SortOrder    string `form:"sort_order"`
	Page         string `form:"page"`
	PageSize     string `form:"page_size"`
}

func (s *Server) CreateWarrantyClaim(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req warrantydomain.CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.warrantySvc.CreateClaim(c.Request.Context(), actor, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

func (s *Server) ListWarrantyClaims(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var query listWarrantyClaimsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	page, err := parsePage(query.Page, query.PageSize)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	createdFrom, err := parseTimeParam("created_from", query.CreatedFrom, false)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	createdTo, err := parseTimeParam("created_to", query.CreatedTo, true)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.warrantySvc.ListClaims(c.Request.Context(), actor, warrantydomain.ListClaimsRequest{
		Search:       strings.TrimSpace(query.Search),
		Status:       strings.TrimSpace(query.Status),
		ClaimType:    strings.TrimSpace(query.ClaimType),
		Priority:     strings.TrimSpace(query.Priority),
		DealerID:     strings.TrimSpace(query.DealerID),
		AssignedToID: strings.TrimSpace(query.AssignedToID),
		CreatedFrom:  createdFrom,
		CreatedTo:    createdTo,
		SortBy:       strings.TrimSpace(query.SortBy),
		SortOrder:    strings.TrimSpace(query.SortOrder),
		Page:         page.Page,
		PageSize:     page.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Claims, "pagination": resp.Pagination})
}

func (s *Server) GetWarrantyClaimStats(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	stats, err := s.warrantySvc.GetStats(c.Request.Context(), actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}

func (s *Server) GetWarrantyClaim(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	detail, err := s.warrantySvc.GetClaimByID(c.Request.Context(), actor, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": detail})
}

func (s *Server) UpdateWarrantyClaim(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req warrantydomain.UpdateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ClaimID = strings.TrimSpace(c.Param("id"))

	result, err := s.warrantySvc.UpdateClaim(c.Request.Context(), actor, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) DeleteWarrantyClaim(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.warrantySvc.DeleteClaim(c.Request.Context(), actor, strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) SubmitWarrantyClaim(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	result, err := s.warrantySvc.SubmitClaim(c.Request.Context(), actor, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) ReviewWarrantyClaim(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req warrantydomain.ReviewClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ClaimID = strings.TrimSpace(c.Param("id"))

	result, err := s.warrantySvc.ReviewClaim(c.Request.Context(), actor, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) RespondToInfoRequest(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req warrantydomain.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ClaimID = strings.TrimSpace(c.Param("id"))

	result, err := s.warrantySvc.RespondToInfoRequest(c.Request.Context(), actor, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) AssignWarrantyClaim(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req warrantydomain.AssignClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ClaimID = strings.TrimSpace(c.Param("id"))

	result, err := s.warrantySvc.AssignClaim(c.Request.Context(), actor, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) CloseWarrantyClaim(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req warrantydomain.CloseClaimRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}
	req.ClaimID = strings.TrimSpace(c.Param("id"))

	result, err := s.warrantySvc.CloseClaim(c.Request.Context(), actor, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) ListWarrantyClaimNotes(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	notes, err := s.warrantySvc.ListNotes(c.Request.Context(), actor, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": notes})
}

func (s *Server) AddWarrantyClaimNote(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req warrantydomain.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ClaimID = strings.TrimSpace(c.Param("id"))

	result, err := s.warrantySvc.AddNote(c.Request.Context(), actor, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

func (s *Server) ListWarrantyClaimHistory(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	history, err := s.warrantySvc.ListHistory(c.Request.Context(), actor, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": history})
}
