package handler

import (
	"net/http"

	"Uni_Community/internal/permission"
	"Uni_Community/internal/service"

	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	svc *service.RoleService
}

func NewRoleHandler(svc *service.RoleService) *RoleHandler {
	return &RoleHandler{svc: svc}
}

// RoleReq 创建/编辑角色请求体，permissions 为位掩码
type RoleReq struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Permissions uint32 `json:"permissions"`
}

func (h *RoleHandler) Create(c *gin.Context) {
	userID := currentUserID(c)
	communityID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req RoleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	role, err := h.svc.CreateRole(c.Request.Context(), userID, communityID,
		req.Name, req.Color, permission.Permission(req.Permissions))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"role": role})
}

func (h *RoleHandler) Update(c *gin.Context) {
	userID := currentUserID(c)
	communityID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	roleID, ok := parseIDParam(c, "role_id")
	if !ok {
		return
	}

	var req RoleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	if err := h.svc.UpdateRole(c.Request.Context(), userID, roleID, communityID,
		req.Name, req.Color, permission.Permission(req.Permissions)); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *RoleHandler) Delete(c *gin.Context) {
	userID := currentUserID(c)
	roleID, ok := parseIDParam(c, "role_id")
	if !ok {
		return
	}

	if err := h.svc.DeleteRole(c.Request.Context(), userID, roleID); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *RoleHandler) List(c *gin.Context) {
	userID := currentUserID(c)
	communityID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	list := h.svc.ListRoles(c.Request.Context(), userID, communityID)
	c.JSON(http.StatusOK, gin.H{"list": list})
}

// UpdateMemberRoles 整体替换某成员在社区内的角色指派
func (h *RoleHandler) UpdateMemberRoles(c *gin.Context) {
	userID := currentUserID(c)
	communityID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	memberID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	var req struct {
		RoleIDs []uint64 `json:"role_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	if err := h.svc.UpdateMemberRoles(c.Request.Context(), userID, memberID, communityID, req.RoleIDs); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}
