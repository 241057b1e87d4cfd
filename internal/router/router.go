package router

import (
	"ragus-eval/internal/handler"
	"ragus-eval/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRouter(svcCtx *service.ServiceContext) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	evaluationHandler := handler.NewEvaluationHandler(svcCtx.Evaluations)
	systemHandler := handler.NewSystemHandler(svcCtx.Config.RAG.Endpoint)

	r.GET("/healthz", systemHandler.Health)
	r.GET("/metrics", gin.WrapH(svcCtx.Metrics.Handler()))

	api := r.Group("/api")
	{
		api.GET("/dataset", systemHandler.GetDataset)

		// 评测相关
		evaluations := api.Group("/evaluations")
		{
			evaluations.POST("/run", evaluationHandler.RunEvaluation)
			evaluations.GET("", evaluationHandler.ListEvaluations)
			evaluations.GET("/:id", evaluationHandler.GetEvaluation)
			evaluations.GET("/:id/report/:format", evaluationHandler.GetReport)
		}
	}

	return r
}
