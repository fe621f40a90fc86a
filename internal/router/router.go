package router

import (
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-gonic/gin"
	"github.com/user/cinema/internal/handler"
	"github.com/user/cinema/internal/service"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ==================== 页面 ====================
	r.GET("/", h.Home)
	r.GET("/users/:id", h.UserPage)
	r.NoRoute(h.NotFoundPage)

	// ==================== API ====================
	api := r.Group("/api")
	{
		api.POST("/archives", h.UploadArchives)

		api.GET("/users", h.ListUsers)
		api.GET("/users/:id", h.GetUser)
		api.GET("/users/:id/profile", h.UserProfile)
		api.PUT("/users/:id/enabled", h.SetUserEnabled)
		api.DELETE("/users/:id", h.RemoveUser)
		api.GET("/users/:id/watchlist/random", h.RandomFromUser)

		api.GET("/comparison", h.Comparison)
		api.GET("/movies", h.Movies)
		api.GET("/movies/suggest", h.MovieSuggest)
		api.GET("/watchlist/common", h.CommonWatchlist)
		api.GET("/watchlist/random", h.RandomCommon)

		api.POST("/posters/refresh", h.RefreshPosters)
		api.GET("/proxy/image", h.ProxyImage)

		api.POST("/mode", h.SetMode)
		api.POST("/select", h.SelectUser)
	}
}

// TemplateFuncs 模板函数
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"stars":  Stars,
		"rating": service.FormatRating,
		"pct": func(count, max int) string {
			if max <= 0 {
				return "0"
			}
			return fmt.Sprintf("%.1f", float64(count)/float64(max)*100)
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}
}

// Stars 半星评分转星号，0.5 步进
func Stars(rating float64) string {
	full := int(rating)
	half := rating-float64(full) >= 0.5
	var b strings.Builder
	for i := 0; i < full; i++ {
		b.WriteString("★")
	}
	if half {
		b.WriteString("½")
	}
	return b.String()
}

// LoadTemplates 使用 multitemplate 加载模板，解决模板继承问题
func LoadTemplates(templatesDir string) (multitemplate.Renderer, error) {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(templatesDir + "/layouts/*.html")
	if err != nil {
		return nil, err
	}

	partials, err := filepath.Glob(templatesDir + "/partials/*.html")
	if err != nil {
		return nil, err
	}

	assemble := func(view string) []string {
		files := make([]string, 0, len(layouts)+len(partials)+1)
		files = append(files, layouts...)
		files = append(files, partials...)
		files = append(files, view)
		return files
	}

	funcMap := TemplateFuncs()
	for _, page := range []string{"home", "user", "404"} {
		viewPath := templatesDir + "/pages/" + page + ".html"
		r.AddFromFilesFuncs(page+".html", funcMap, assemble(viewPath)...)
	}

	return r, nil
}
