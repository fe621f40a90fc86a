package handler

import (
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/user/cinema/internal/service"
	"github.com/user/cinema/internal/utils"
)

// ==================== 用户 ====================

// UploadArchives 上传一个或多个导出压缩包（表单字段 files），按顺序逐个导入
func (h *Handler) UploadArchives(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Config.MaxUploadBytes())

	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequest(c, "无法解析上传内容")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		utils.BadRequest(c, "请选择要上传的 zip 文件")
		return
	}

	// 结果按上传顺序返回，pending 记录进入导入批次的文件位置
	results := make([]service.ImportResult, len(headers))
	uploads := make([]service.Upload, 0, len(headers))
	pending := make([]int, 0, len(headers))
	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	for i, fh := range headers {
		if !strings.HasSuffix(strings.ToLower(fh.Filename), ".zip") {
			results[i] = service.ImportResult{File: fh.Filename, Error: "不是 zip 文件"}
			continue
		}
		f, err := fh.Open()
		if err != nil {
			results[i] = service.ImportResult{File: fh.Filename, Error: "读取上传文件失败"}
			continue
		}
		opened = append(opened, f)
		uploads = append(uploads, service.Upload{Name: fh.Filename, Reader: f, Size: fh.Size})
		pending = append(pending, i)
	}

	for j, res := range h.Library.ImportBatch(uploads) {
		results[pending[j]] = res
	}

	if len(results) == 1 && results[0].Error != "" {
		utils.ErrorWithData(c, http.StatusUnprocessableEntity,
			"压缩包解析失败，请确认是有效的 Letterboxd 导出文件", results)
		return
	}
	utils.Success(c, results)
}

// ListUsers 用户卡片列表（包括停用用户）
func (h *Handler) ListUsers(c *gin.Context) {
	utils.Success(c, h.Library.View().Cards)
}

// GetUser 用户的五类原始记录
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	u, err := h.Library.User(id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, u)
}

// UserProfile 用户详情统计
func (h *Handler) UserProfile(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	u, err := h.Library.User(id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, service.BuildProfile(u))
}

// SetEnabledReq 启用/停用请求
type SetEnabledReq struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// SetUserEnabled 启用/停用用户
func (h *Handler) SetUserEnabled(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	var req SetEnabledReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "参数错误: enabled 必填")
		return
	}

	u, err := h.Library.SetEnabled(id, *req.Enabled)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, gin.H{"id": u.ID, "enabled": u.Enabled})
}

// RemoveUser 删除用户
func (h *Handler) RemoveUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	if err := h.Library.Remove(id); err != nil {
		h.respondError(c, err)
		return
	}

	session := sessions.Default(c)
	if sel, ok := selectedUser(c); ok && sel == id {
		session.Delete(sessionSelectedUser)
		_ = session.Save()
	}
	utils.SuccessWithMessage(c, "已删除", nil)
}

// RandomFromUser 从单个用户的片单随机挑选
func (h *Handler) RandomFromUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	film, err := h.Library.PickFromUser(id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, film)
}

// ==================== 对比与索引 ====================

// Comparison 启用用户的对比数据
func (h *Handler) Comparison(c *gin.Context) {
	utils.Success(c, h.Library.View().Comparison)
}

// Movies 所有启用用户看过的电影
func (h *Handler) Movies(c *gin.Context) {
	utils.Success(c, h.Library.View().Index.AllMovies)
}

// MovieSuggest 标题搜索建议
func (h *Handler) MovieSuggest(c *gin.Context) {
	keyword := strings.TrimSpace(c.Query("kw"))
	if keyword == "" {
		utils.BadRequest(c, "搜索关键词不能为空")
		return
	}
	utils.Success(c, h.Library.Suggest(keyword))
}

// CommonWatchlist 所有启用用户片单的交集
func (h *Handler) CommonWatchlist(c *gin.Context) {
	utils.Success(c, h.Library.View().Index.WatchlistIntersection)
}

// RandomCommon 从共同片单随机挑选一部
func (h *Handler) RandomCommon(c *gin.Context) {
	film, err := h.Library.PickCommon()
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, film)
}

// RefreshPosters 为缺少海报的电影抓取海报
func (h *Handler) RefreshPosters(c *gin.Context) {
	missing, merged := h.Posters.Run(c.Request.Context())
	utils.Success(c, gin.H{"missing": missing, "found": merged})
}

// ==================== 浏览状态 ====================

// SetModeReq 切换模式请求
type SetModeReq struct {
	Mode string `json:"mode" binding:"required,oneof=comparison individual"`
}

// SetMode 切换对比/个人模式
func (h *Handler) SetMode(c *gin.Context) {
	var req SetModeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "参数错误: mode 只能是 comparison 或 individual")
		return
	}
	session := sessions.Default(c)
	session.Set(sessionMode, req.Mode)
	if err := session.Save(); err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, gin.H{"mode": req.Mode})
}

// SelectUserReq 选择用户请求，user_id 为空表示取消选择
type SelectUserReq struct {
	UserID string `json:"user_id" binding:"omitempty,uuid"`
}

// SelectUser 选择个人模式下查看的用户
func (h *Handler) SelectUser(c *gin.Context) {
	var req SelectUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "参数错误: user_id 格式不正确")
		return
	}

	session := sessions.Default(c)
	if req.UserID == "" {
		session.Delete(sessionSelectedUser)
		_ = session.Save()
		utils.Success(c, nil)
		return
	}

	id, err := uuid.Parse(req.UserID)
	if err != nil {
		utils.BadRequest(c, "参数错误: user_id 格式不正确")
		return
	}
	u, err := h.Library.User(id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	session.Set(sessionSelectedUser, u.ID.String())
	if err := session.Save(); err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, service.BuildProfile(u))
}

// ==================== 图片代理 ====================

// ProxyImage Letterboxd 海报代理
func (h *Handler) ProxyImage(c *gin.Context) {
	target, err := url.Parse(c.Query("url"))
	if err != nil || target.Host == "" || (target.Scheme != "https" && target.Scheme != "http") {
		utils.BadRequest(c, "URL 不合法")
		return
	}
	if !utils.AllowedURL(target, utils.ImageHosts) {
		utils.BadRequest(c, "不支持的图片来源")
		return
	}

	resp, err := h.Client.Get(c.Request.Context(), target.String())
	if err != nil {
		utils.InternalServerError(c, "请求图片失败")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.Status(resp.StatusCode)
		return
	}

	// 原样转发压缩编码，该路由不经过 gzip 中间件
	if enc := resp.Header.Get("Content-Encoding"); enc != "" {
		c.Header("Content-Encoding", enc)
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.DataFromReader(http.StatusOK, resp.ContentLength, resp.Header.Get("Content-Type"), resp.Body, nil)
}
