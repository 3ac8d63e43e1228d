package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/smallbiznis/marketplace/internal/consumer"
	"github.com/smallbiznis/marketplace/internal/plugins"
	"go.uber.org/zap"
)

type overviewQuery struct {
	Show  string `form:"show"`
	Query string `form:"query"`
	Sort  string `form:"sort"`
	Type  string `form:"type"`
	Mode  string `form:"mode"`
}

type consumerResponse struct {
	Consumer    *consumer.View       `json:"consumer"`
	Entitlement consumer.Entitlement `json:"entitlement"`
}

func (s *Server) GetConsumer(c *gin.Context) {
	ctx := c.Request.Context()
	resolver := s.consumers.New()
	c.JSON(http.StatusOK, gin.H{"data": consumerResponse{
		Consumer:    resolver.View(ctx),
		Entitlement: resolver.Entitlement(ctx),
	}})
}

func (s *Server) GetOverview(c *gin.Context) {
	var query overviewQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	overview, err := s.pluginSvc.Overview(c.Request.Context(), plugins.OverviewRequest{
		Show:  query.Show,
		Query: query.Query,
		Sort:  query.Sort,
		Type:  query.Type,
		Mode:  query.Mode,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": overview})
}

func (s *Server) GetPlugin(c *gin.Context) {
	plugin, err := s.pluginSvc.PluginInfo(c.Request.Context(), c.Param("name"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": plugin})
}

// DownloadPlugin streams the latest archive of a plugin through a temp file.
func (s *Server) DownloadPlugin(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if !plugins.ValidPluginName(name) {
		AbortWithError(c, plugins.ErrInvalidPluginName)
		return
	}

	target := filepath.Join(s.cfg.TmpDir, "latest", "plugins", uuid.NewString()+".zip")
	defer func() {
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			s.log.Warn("remove plugin archive", zap.String("path", target), zap.Error(err))
		}
	}()

	if err := s.downloader.Download(c.Request.Context(), name, target); err != nil {
		s.log.Warn("plugin download failed", zap.String("plugin", name), zap.Error(err))
		AbortWithError(c, ErrInternal)
		return
	}

	file, err := os.Open(target)
	if err != nil {
		s.log.Warn("open plugin archive", zap.String("plugin", name), zap.Error(err))
		AbortWithError(c, ErrInternal)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		s.log.Warn("stat plugin archive", zap.String("plugin", name), zap.Error(err))
		AbortWithError(c, ErrInternal)
		return
	}

	c.DataFromReader(http.StatusOK, info.Size(), "application/zip", file, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", name+".zip"),
	})
}
