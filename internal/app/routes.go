package app

import (
	"net/http"

	"github.com/dealdesk/core/internal/middleware"
	"github.com/dealdesk/core/internal/modules/commerce/deal"
	"github.com/dealdesk/core/internal/modules/commerce/intake"
	"github.com/dealdesk/core/internal/modules/commerce/partner"
	"github.com/dealdesk/core/internal/modules/inventory/hierarchy"
	"github.com/dealdesk/core/internal/modules/inventory/occupancy"
	"github.com/dealdesk/core/internal/modules/inventory/scan"
	"github.com/dealdesk/core/internal/modules/system/audit"
	"github.com/dealdesk/core/internal/modules/system/health"
	"github.com/dealdesk/core/internal/modules/system/notify"
	"github.com/dealdesk/core/internal/modules/system/user"
	"github.com/dealdesk/core/internal/pkg/clock"
	"github.com/dealdesk/core/internal/pkg/response"
	"github.com/dealdesk/core/internal/pkg/token"
	"github.com/gin-gonic/gin"
)

const apiPrefix = "/api/v1"

func (a *App) registerRoutes() {
	r := a.router
	db := a.db
	log := a.logger
	clk := clock.System{}
	authMW := middleware.Auth(db, a.signer)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	// Shared collaborators
	recorder := audit.NewRecorder(db, log, clk)
	notifier := notify.NewService(db, log, a.queue)

	hierarchySvc := hierarchy.NewService(db, log, recorder)
	occupancySvc := occupancy.NewService(db)
	scanSvc := scan.NewService(db)
	partnerSvc := partner.NewService(db, log, recorder, a.box)
	dealSvc := deal.NewService(db, log, recorder, notifier, clk)
	intakeSvc := intake.NewService(db, log, recorder, notifier, token.NewIssuer(), clk, intake.Options{
		BaseURL:       a.cfg.Intake.BaseURL,
		DefaultExpiry: a.cfg.DefaultIntakeExpiry(),
		MaxExpiry:     a.cfg.MaxIntakeExpiry(),
	})

	if a.stats != nil {
		r.GET("/metrics", gin.WrapH(a.stats.Handler()))
	}

	api := r.Group(apiPrefix)
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	health.NewHandler(db, a.rdb, a.cfg.LogDir(), log).RegisterRoutes(api, authMW)

	// Inventory
	hierarchy.NewHandler(hierarchySvc, log).RegisterRoutes(api, authMW)
	occupancy.NewHandler(occupancySvc, log).RegisterRoutes(api, authMW)
	scan.NewHandler(scanSvc, log).RegisterRoutes(api, authMW)

	// Commerce
	partner.NewHandler(partnerSvc, log).RegisterRoutes(api, authMW)
	deal.NewHandler(dealSvc, log).RegisterRoutes(api, authMW)
	intakeHandler := intake.NewHandler(intakeSvc, log)
	intakeHandler.RegisterRoutes(api, authMW)
	intakeHandler.RegisterPublicRoutes(api, middleware.RateLimit(a.rdb, "intake", a.cfg.RateLimit.IntakePerMinute, log))

	// System
	audit.NewHandler(recorder, log).RegisterRoutes(api, authMW)
	notify.NewHandler(notifier, log).RegisterRoutes(api, authMW)
	user.NewHandler(user.NewService(db), log).RegisterRoutes(api, authMW)
}
