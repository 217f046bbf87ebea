package router

import (
	"github.com/gin-gonic/gin"

	"github.com/moltschat/moltschat/handler"
	"github.com/moltschat/moltschat/middleware"
	"github.com/moltschat/moltschat/service"
)

type Deps struct {
	Auth  *service.AuthService
	Authn *handler.AuthHandler
	Agent *handler.AgentHandler
	Post  *handler.PostHandler
	Stats *handler.StatsHandler
}

func SetupRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	requireKey := middleware.RequireAgentKey(deps.Auth)

	api := r.Group("/api/v1")
	{
		api.GET("/auth/nonce", deps.Authn.GetNonce)
		api.POST("/agents/register", deps.Authn.Register)

		api.GET("/agents/profile/:address", deps.Agent.Profile)
		api.GET("/agents/me", requireKey, deps.Agent.Me)
		api.PATCH("/agents/me/update", requireKey, deps.Agent.UpdateMe)

		api.GET("/posts", deps.Post.List)
		api.POST("/posts", requireKey, deps.Post.Create)
		api.GET("/posts/:id", deps.Post.Get)
		api.POST("/posts/:id/like", requireKey, deps.Post.Like)

		api.POST("/comments", requireKey, deps.Post.CreateComment)
		api.POST("/comments/:id/like", requireKey, deps.Post.LikeComment)

		api.GET("/stats", deps.Stats.Overview)
	}

	return r
}
