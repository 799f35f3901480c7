package app

import (
	"fmt"

	"todoboard/internal/config"
	"todoboard/internal/flash"
	"todoboard/internal/handlers"
	"todoboard/internal/service"
	"todoboard/internal/web"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"

	_ "todoboard/docs"
)

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, todoSvc *service.TodoService, flashes *flash.Store) error {
	tmpl, err := web.Templates()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	r.GET("/health", healthHandler(cfg))
	r.GET("/version", versionHandler(cfg))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(302, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
	))

	pages := r.Group("", flash.Middleware())
	registerPageRoutes(pages, handlers.NewPageHandler(todoSvc, flashes))

	api := r.Group("/api/v1")
	registerTodoRoutes(api, handlers.NewTodoHandler(todoSvc))
	return nil
}

func healthHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true, "env": cfg.App.Env})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.Data(200, "application/json; charset=utf-8", []byte(doc))
	}
}

func registerPageRoutes(g *gin.RouterGroup, h *handlers.PageHandler) {
	g.GET("/", h.Home)
	g.POST("/", h.Create)
	g.GET("/update/:id", h.Edit)
	g.POST("/update/:id", h.Update)
	g.GET("/delete/:id", h.Delete)
	g.POST("/update_status/:id", h.UpdateStatus)
	g.GET("/get_stats", h.Stats)
}

func registerTodoRoutes(api *gin.RouterGroup, h *handlers.TodoHandler) {
	api.GET("/todos", h.List)
	api.POST("/todos", h.Create)
	api.GET("/todos/:id", h.GetByID)
	api.PATCH("/todos/:id", h.Update)
	api.DELETE("/todos/:id", h.Delete)
	api.PATCH("/todos/:id/status", h.UpdateStatus)
	api.GET("/categories", h.Categories)
	api.GET("/stats", h.Stats)
}
