package handler

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/user/cinema/internal/config"
	"github.com/user/cinema/internal/logger"
	"github.com/user/cinema/internal/service"
	"github.com/user/cinema/internal/utils"
)

// 会话中保存的浏览状态
const (
	sessionMode         = "mode"
	sessionSelectedUser = "selected_user"

	ModeComparison = "comparison"
	ModeIndividual = "individual"
)

// Handler HTTP 处理器
type Handler struct {
	Config  *config.Config
	Library *service.Library
	Posters *service.PosterRefresher
	Client  *utils.HTTPClient
	log     *logrus.Entry
}

// NewHandler 创建处理器
func NewHandler(cfg *config.Config, lib *service.Library, posters *service.PosterRefresher, client *utils.HTTPClient) *Handler {
	return &Handler{
		Config:  cfg,
		Library: lib,
		Posters: posters,
		Client:  client,
		log:     logger.Component("handler"),
	}
}

// RenderData 统一封装公共渲染数据
func (h *Handler) RenderData(c *gin.Context, data gin.H) gin.H {
	res := gin.H{
		"SiteName": h.Config.SiteName,
		"SiteUrl":  h.Config.SiteUrl,
		"Path":     c.Request.URL.Path,
		"Mode":     currentMode(c),
	}

	if id, ok := selectedUser(c); ok {
		res["SelectedUser"] = id.String()
	}

	for k, v := range data {
		res[k] = v
	}

	return res
}

// ==================== 页面 ====================

// Home 首页：用户卡片、对比、全部电影、共同片单
func (h *Handler) Home(c *gin.Context) {
	view := h.Library.View()
	c.HTML(http.StatusOK, "home.html", h.RenderData(c, gin.H{
		"Title": h.Config.SiteName + " - Letterboxd Collection",
		"View":  view,
	}))
}

// UserPage 单个用户详情页
func (h *Handler) UserPage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.NotFoundPage(c)
		return
	}

	u, err := h.Library.User(id)
	if err != nil {
		h.NotFoundPage(c)
		return
	}

	c.HTML(http.StatusOK, "user.html", h.RenderData(c, gin.H{
		"Title":   "@" + u.Name + " - " + h.Config.SiteName,
		"Profile": service.BuildProfile(u),
	}))
}

// NotFoundPage 404 页面
func (h *Handler) NotFoundPage(c *gin.Context) {
	c.HTML(http.StatusNotFound, "404.html", h.RenderData(c, gin.H{
		"Title": "页面未找到 - " + h.Config.SiteName,
	}))
}

// ==================== 工具 ====================

// respondError 将业务错误映射为 HTTP 响应
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		utils.NotFound(c, "用户不存在")
	case errors.Is(err, service.ErrEmptyIntersection):
		utils.NotFound(c, "no common films: 所有启用用户的片单没有交集")
	case errors.Is(err, service.ErrEmptyWatchlist):
		utils.NotFound(c, "该用户的片单为空")
	default:
		h.log.WithError(err).WithField("path", c.Request.URL.Path).Error("请求处理失败")
		utils.InternalServerError(c, "")
	}
}

func parseUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "无效的用户 ID")
		return uuid.Nil, false
	}
	return id, true
}

func currentMode(c *gin.Context) string {
	session := sessions.Default(c)
	if mode, ok := session.Get(sessionMode).(string); ok && mode != "" {
		return mode
	}
	return ModeComparison
}

func selectedUser(c *gin.Context) (uuid.UUID, bool) {
	session := sessions.Default(c)
	raw, ok := session.Get(sessionSelectedUser).(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
