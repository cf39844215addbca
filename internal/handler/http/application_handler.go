package httphandler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/statuswatch/internal/application/appcore"
	statusapp "github.com/lllypuk/statuswatch/internal/application/status"
	"github.com/lllypuk/statuswatch/internal/domain/status"
	"github.com/lllypuk/statuswatch/internal/infrastructure/httpserver"
	"github.com/lllypuk/statuswatch/internal/middleware"
)

// EndpointResponse is the polled endpoint of an application.
type EndpointResponse struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}

// ApplicationResponse is the merged configuration and status of an application.
type ApplicationResponse struct {
	ID              string           `json:"_id"`
	AppKey          string           `json:"appKey"`
	TenantID        string           `json:"tenantId"`
	TenantName      string           `json:"tenantName"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	Metadata        string           `json:"metadata,omitempty"`
	Enabled         bool             `json:"enabled"`
	Status          string           `json:"status,omitempty"`
	InternalStatus  string           `json:"internalStatus,omitempty"`
	StatusTimestamp int64            `json:"statusTimestamp"`
	Endpoint        EndpointResponse `json:"endpoint"`
}

// EndpointStatusEntryResponse is one poll result.
type EndpointStatusEntryResponse struct {
	ApplicationID string `json:"applicationId"`
	URL           string `json:"url"`
	Timestamp     int64  `json:"timestamp"`
	OK            bool   `json:"ok"`
	ResponseTime  *int64 `json:"responseTime"`
	StatusCode    int    `json:"statusCode,omitempty"`
	Error         string `json:"error,omitempty"`
}

// EndpointRequest carries the endpoint of an application.
type EndpointRequest struct {
	URL string `json:"url"`
}

// ApplicationRequest is the body of create and update requests.
type ApplicationRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Metadata    string          `json:"metadata"`
	Endpoint    EndpointRequest `json:"endpoint"`
}

// SetStatusRequest is the body of a manual status change.
type SetStatusRequest struct {
	Status string `json:"status"`
}

// ApplicationService defines the interface for application status operations.
// Declared on the consumer side per project guidelines.
type ApplicationService interface {
	ListApplications(ctx context.Context, actor status.Actor) ([]status.View, error)
	GetApplication(ctx context.Context, actor status.Actor, appKey string) (status.View, error)
	CreateApplication(ctx context.Context, cmd statusapp.CreateApplicationCommand) (status.View, error)
	UpdateApplication(ctx context.Context, cmd statusapp.UpdateApplicationCommand) (status.View, error)
	DeleteApplication(ctx context.Context, cmd statusapp.DeleteApplicationCommand) error
	ChangeState(ctx context.Context, cmd statusapp.ChangeStateCommand) (status.View, error)
	SetStatus(ctx context.Context, cmd statusapp.SetStatusCommand) (status.View, error)
	GetEndpointEntries(ctx context.Context, query statusapp.GetEndpointEntriesQuery) (statusapp.EntriesResult, error)
}

// ApplicationHandler handles application status HTTP requests.
type ApplicationHandler struct {
	service ApplicationService
}

// NewApplicationHandler creates a new ApplicationHandler.
func NewApplicationHandler(service ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

// RegisterRoutes registers application routes with the router.
func (h *ApplicationHandler) RegisterRoutes(r *httpserver.Router) {
	g := r.Auth().Group("/applications")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:appKey", h.Get)
	g.PUT("/:appKey", h.Update)
	g.DELETE("/:appKey", h.Delete)
	g.PATCH("/:appKey/enable", h.changeState(statusapp.ActionEnable))
	g.PATCH("/:appKey/disable", h.changeState(statusapp.ActionDisable))
	g.PATCH("/:appKey/toggle", h.changeState(statusapp.ActionToggle))
	g.PATCH("/:appKey/status", h.SetStatus)
	g.GET("/:appKey/endpoint-status-entries", h.Entries)
}

// List handles GET /api/v1/applications.
func (h *ApplicationHandler) List(c echo.Context) error {
	views, err := h.service.ListApplications(c.Request().Context(), middleware.GetActor(c))
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	resp := make([]ApplicationResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, ToApplicationResponse(v))
	}
	return httpserver.RespondOK(c, resp)
}

// Get handles GET /api/v1/applications/:appKey.
func (h *ApplicationHandler) Get(c echo.Context) error {
	view, err := h.service.GetApplication(c.Request().Context(), middleware.GetActor(c), c.Param("appKey"))
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	return httpserver.RespondOK(c, ToApplicationResponse(view))
}

// Create handles POST /api/v1/applications.
func (h *ApplicationHandler) Create(c echo.Context) error {
	var req ApplicationRequest
	if err := c.Bind(&req); err != nil {
		return httpserver.RespondErrorWithCode(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
	}

	view, err := h.service.CreateApplication(c.Request().Context(), statusapp.CreateApplicationCommand{
		Actor:       middleware.GetActor(c),
		Name:        req.Name,
		Description: req.Description,
		URL:         req.Endpoint.URL,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	return httpserver.RespondCreated(c, ToApplicationResponse(view))
}

// Update handles PUT /api/v1/applications/:appKey.
func (h *ApplicationHandler) Update(c echo.Context) error {
	var req ApplicationRequest
	if err := c.Bind(&req); err != nil {
		return httpserver.RespondErrorWithCode(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
	}

	view, err := h.service.UpdateApplication(c.Request().Context(), statusapp.UpdateApplicationCommand{
		Actor:       middleware.GetActor(c),
		AppKey:      c.Param("appKey"),
		Name:        req.Name,
		Description: req.Description,
		URL:         req.Endpoint.URL,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	return httpserver.RespondOK(c, ToApplicationResponse(view))
}

// Delete handles DELETE /api/v1/applications/:appKey.
func (h *ApplicationHandler) Delete(c echo.Context) error {
	err := h.service.DeleteApplication(c.Request().Context(), statusapp.DeleteApplicationCommand{
		Actor:  middleware.GetActor(c),
		AppKey: c.Param("appKey"),
	})
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	return httpserver.RespondNoContent(c)
}

// changeState handles PATCH /api/v1/applications/:appKey/{enable,disable,toggle}.
func (h *ApplicationHandler) changeState(action statusapp.StateAction) echo.HandlerFunc {
	return func(c echo.Context) error {
		view, err := h.service.ChangeState(c.Request().Context(), statusapp.ChangeStateCommand{
			Actor:  middleware.GetActor(c),
			AppKey: c.Param("appKey"),
			Action: action,
		})
		if err != nil {
			return httpserver.RespondError(c, err)
		}
		return httpserver.RespondOK(c, ToApplicationResponse(view))
	}
}

// SetStatus handles PATCH /api/v1/applications/:appKey/status.
func (h *ApplicationHandler) SetStatus(c echo.Context) error {
	var req SetStatusRequest
	if err := c.Bind(&req); err != nil {
		return httpserver.RespondErrorWithCode(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
	}

	s, err := status.ParseStatus(req.Status)
	if err != nil {
		return httpserver.RespondError(c, appcore.NewValidationError("status", err.Error()))
	}

	view, err := h.service.SetStatus(c.Request().Context(), statusapp.SetStatusCommand{
		Actor:  middleware.GetActor(c),
		AppKey: c.Param("appKey"),
		Status: s,
	})
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	return httpserver.RespondOK(c, ToApplicationResponse(view))
}

// Entries handles GET /api/v1/applications/:appKey/endpoint-status-entries?top=N.
// topValue is accepted as an alias of top; top wins when both are given.
func (h *ApplicationHandler) Entries(c echo.Context) error {
	param, raw := "top", c.QueryParam("top")
	if raw == "" {
		param, raw = "topValue", c.QueryParam("topValue")
	}

	top := 0
	if raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return httpserver.RespondError(c, appcore.NewValidationError(param, "must be an integer"))
		}
		top = parsed
	}

	result, err := h.service.GetEndpointEntries(c.Request().Context(), statusapp.GetEndpointEntriesQuery{
		Actor:  middleware.GetActor(c),
		AppKey: c.Param("appKey"),
		Top:    top,
	})
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	resp := make([]EndpointStatusEntryResponse, 0, len(result.Entries))
	for _, e := range result.Entries {
		resp = append(resp, EndpointStatusEntryResponse{
			ApplicationID: result.ApplicationID,
			URL:           result.URL,
			Timestamp:     e.Timestamp.UnixMilli(),
			OK:            e.OK,
			ResponseTime:  e.ResponseTimeMs,
			StatusCode:    e.StatusCode,
			Error:         e.Error,
		})
	}
	return httpserver.RespondOK(c, resp)
}

// ToApplicationResponse converts a merged view to the API representation.
func ToApplicationResponse(v status.View) ApplicationResponse {
	resp := ApplicationResponse{
		ID:          v.Config.ID.String(),
		AppKey:      v.Config.AppKey,
		Name:        v.Config.Name,
		Description: v.Config.Description,
		Endpoint:    EndpointResponse{URL: v.Config.URL},
	}

	app := v.Status
	if app == nil {
		return resp
	}
	if resp.AppKey == "" {
		resp.AppKey = app.AppKey()
	}
	resp.ID = app.ID().String()
	resp.TenantID = app.TenantID()
	resp.TenantName = app.TenantName()
	resp.Metadata = app.Metadata()
	resp.Enabled = app.IsEnabled()
	resp.Status = app.Status().String()
	resp.InternalStatus = app.InternalStatus()
	resp.StatusTimestamp = millis(app.StatusTimestamp())
	resp.Endpoint = EndpointResponse{URL: v.URL(), Status: app.Endpoint().Status.String()}
	return resp
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
