package api

import (
	"strconv"

	"SignalOps/internal/domain/models"
	"SignalOps/internal/repository"
	"SignalOps/internal/service/ops"
	xhttp "SignalOps/pkg/http"
	xlogger "SignalOps/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// OpsRequest is the POST body for an ops command. The command name itself
// comes from the URL path.
type OpsRequest struct {
	Arguments map[string]string `json:"arguments"`
	Metadata  map[string]string `json:"metadata"`
}

// OpsHandler exposes the ops command service over HTTP.
type OpsHandler struct {
	svc    *ops.Service
	audit  *repository.AuditTrail
	redis  *redis.Client
	logger *xlogger.Logger
}

func NewOpsHandler(svc *ops.Service, audit *repository.AuditTrail, rdb *redis.Client, lgr *xlogger.Logger) *OpsHandler {
	return &OpsHandler{svc: svc, audit: audit, redis: rdb, logger: lgr}
}

func (h *OpsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/ops")
	g.POST("/:command", h.Execute)
	g.GET("/status", h.Status)
	g.GET("/audit", h.Audit)
	e.GET("/healthz", h.Health)
}

// Execute runs one ops command. Rejected commands come back as a 400 with the
// service's error response in the body; flag-store failures are a 500.
func (h *OpsHandler) Execute(c echo.Context) error {
	req := &OpsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cmd := models.OpsCommand{
		Command:   c.Param("command"),
		Arguments: req.Arguments,
		Metadata:  req.Metadata,
	}
	resp, err := h.svc.Execute(c.Request().Context(), cmd)
	if err != nil {
		h.logger.Error("ops command failed",
			xlogger.String("command", cmd.Command),
			xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("flag store unavailable").WithError(err))
	}
	if resp.Status != models.StatusOK {
		return xhttp.BadRequestResponse(c, resp)
	}
	return xhttp.SuccessResponse(c, resp)
}

// Status returns the current flag snapshot.
func (h *OpsHandler) Status(c echo.Context) error {
	resp, err := h.svc.Execute(c.Request().Context(), models.OpsCommand{Command: models.CmdStatus})
	if err != nil {
		h.logger.Error("ops status failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("flag store unavailable").WithError(err))
	}
	return xhttp.SuccessResponse(c, resp)
}

// Audit returns recent audit records, newest first.
func (h *OpsHandler) Audit(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	records, err := h.audit.Recent(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("audit read failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("audit trail unavailable").WithError(err))
	}
	return xhttp.SuccessResponse(c, records)
}

// Health pings Redis; the service is not useful without it.
func (h *OpsHandler) Health(c echo.Context) error {
	if err := h.redis.Ping(c.Request().Context()).Err(); err != nil {
		return xhttp.AppErrorResponse(c, xhttp.InternalError("redis unreachable").WithError(err))
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
