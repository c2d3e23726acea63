package router

import (
	"Uni_Community/internal/handler"
	"Uni_Community/internal/middleware"
	"Uni_Community/internal/repository/redis"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	User      *handler.UserHandler
	Community *handler.CommunityHandler
	Role      *handler.RoleHandler
	Tokens    *redis.UserTokenRepository
}

func InitRouter(h Handlers) *gin.Engine {
	r := gin.Default()
	auth := middleware.AuthMiddleware(h.Tokens)

	// 用户相关接口
	userGroup := r.Group("/api/user")
	{
		userGroup.POST("/register", h.User.Register)
		userGroup.POST("/login", h.User.Login)
	}

	// token 相关接口
	tokenGroup := r.Group("/api/token")
	{
		tokenGroup.POST("/refresh", h.User.TokenRefresh)
	}

	// 登录态接口
	authGroup := r.Group("/api/auth")
	authGroup.Use(auth)
	{
		authGroup.POST("/logout", h.User.Logout)
	}

	// 社区相关接口
	communityGroup := r.Group("/api/community")
	communityGroup.Use(auth)
	{
		communityGroup.POST("/create", h.Community.Create)
		communityGroup.PUT("/:id", h.Community.Edit)
		communityGroup.PUT("/:id/icon", h.Community.UpdateIcon)
		communityGroup.DELETE("/:id", h.Community.Delete)
		communityGroup.POST("/:id/join", h.Community.Join)
		communityGroup.POST("/:id/leave", h.Community.Leave)
		communityGroup.GET("/mine", h.Community.MyCommunities)
		communityGroup.GET("/mine/:id", h.Community.MyCommunity)
		communityGroup.GET("/recommended", h.Community.Recommended)
	}

	// 角色与指派相关接口
	roleGroup := r.Group("/api/community/:id/roles")
	roleGroup.Use(auth)
	{
		roleGroup.POST("", h.Role.Create)
		roleGroup.GET("", h.Role.List)
		roleGroup.PUT("/:role_id", h.Role.Update)
		roleGroup.DELETE("/:role_id", h.Role.Delete)
	}

	memberGroup := r.Group("/api/community/:id/members")
	memberGroup.Use(auth)
	{
		memberGroup.PUT("/:user_id/roles", h.Role.UpdateMemberRoles)
	}

	return r
}
