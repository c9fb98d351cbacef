// Package health reports store reachability and lists the daily log files.
package health

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dealdesk/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const pingTimeout = 2 * time.Second

type logItem struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Modified int64  `json:"modified"`
}

type Handler struct {
	db     *gorm.DB
	rdb    *redis.Client
	logDir string
	log    *zap.Logger
}

// NewHandler builds the handler. rdb may be nil when Redis is not configured.
func NewHandler(db *gorm.DB, rdb *redis.Client, logDir string, log *zap.Logger) *Handler {
	return &Handler{db: db, rdb: rdb, logDir: logDir, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.GET("/health", h.health)
	rg.GET("/health/logs", authMW, h.listLogs)
}

func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	dbOK := false
	if sqlDB, err := h.db.DB(); err == nil {
		dbOK = sqlDB.PingContext(ctx) == nil
	}
	body := gin.H{"database": dbOK}

	redisState := "disabled"
	if h.rdb != nil {
		redisState = "ok"
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			redisState = "unreachable"
		}
	}
	body["redis"] = redisState

	// Redis only guards the public intake routes, so it never degrades health.
	status, code := "ok", http.StatusOK
	if !dbOK {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	body["status"] = status
	c.JSON(code, body)
}

func (h *Handler) listLogs(c *gin.Context) {
	entries, err := os.ReadDir(h.logDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			response.OK(c, []logItem{})
			return
		}
		response.InternalError(c, h.log, err)
		return
	}

	items := make([]logItem, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		items = append(items, logItem{
			Filename: entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime().UnixMilli(),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Filename > items[j].Filename })
	response.OK(c, items)
}
