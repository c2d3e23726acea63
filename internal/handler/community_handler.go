package handler

import (
	"net/http"

	"Uni_Community/internal/service"

	"github.com/gin-gonic/gin"
)

type CommunityHandler struct {
	svc *service.CommunityService
}

func NewCommunityHandler(svc *service.CommunityService) *CommunityHandler {
	return &CommunityHandler{svc: svc}
}

// CommunityReq 创建/编辑共用请求体
type CommunityReq struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	University     string   `json:"university"`
	IsDiscoverable bool     `json:"is_discoverable"`
	Tags           []string `json:"tags"`
}

func (r CommunityReq) toInput() service.CommunityInput {
	return service.CommunityInput{
		Name:           r.Name,
		Description:    r.Description,
		University:     r.University,
		IsDiscoverable: r.IsDiscoverable,
		Tags:           r.Tags,
	}
}

func (h *CommunityHandler) Create(c *gin.Context) {
	userID := currentUserID(c)

	var req CommunityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	community, err := h.svc.CreateCommunity(c.Request.Context(), userID, req.toInput())
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"community": community})
}

func (h *CommunityHandler) Edit(c *gin.Context) {
	userID := currentUserID(c)
	communityID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CommunityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	if err := h.svc.EditCommunity(c.Request.Context(), userID, communityID, req.toInput()); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *CommunityHandler) UpdateIcon(c *gin.Context) {
	userID := currentUserID(c)
	communityID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Icon string `json:"icon" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	if err := h.svc.UpdateCommunityIcon(c.Request.Context(), userID, communityID, req.Icon); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *CommunityHandler) Delete(c *gin.Context) {
	userID := currentUserID(c)
	communityID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteCommunity(c.Request.Context(), userID, communityID); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *CommunityHandler) Join(c *gin.Context) {
	userID := currentUserID(c)
	communityID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.JoinCommunity(c.Request.Context(), userID, communityID); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *CommunityHandler) Leave(c *gin.Context) {
	userID := currentUserID(c)
	communityID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.LeaveCommunity(c.Request.Context(), userID, communityID); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

// MyCommunities 当前用户已加入的社区列表（带成员数和 owner 标记）
func (h *CommunityHandler) MyCommunities(c *gin.Context) {
	userID := currentUserID(c)

	list, err := h.svc.GetUserCommunities(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"list": list})
}

// MyCommunity 单个社区的成员视图
func (h *CommunityHandler) MyCommunity(c *gin.Context) {
	userID := currentUserID(c)
	communityID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	community, err := h.svc.GetUserCommunity(c.Request.Context(), userID, communityID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if community == nil {
		c.JSON(http.StatusNotFound, gin.H{"msg": "not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"community": community})
}

func (h *CommunityHandler) Recommended(c *gin.Context) {
	userID := currentUserID(c)

	list, err := h.svc.GetUserRecommendedCommunities(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"list": list})
}
