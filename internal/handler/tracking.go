package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"copetran-proxy-go/internal/model"
	"copetran-proxy-go/internal/service"
)

// foundResponse is returned when the portal has data for the guide.
type foundResponse struct {
	Success    bool   `json:"success"`
	HTML       string `json:"html"`
	NumeroGuia string `json:"numeroGuia"`
}

// notFoundResponse is returned when the portal page carries a no-results message.
type notFoundResponse struct {
	Success     bool   `json:"success"`
	Error       string `json:"error"`
	NumeroGuia  string `json:"numeroGuia"`
	HTMLSnippet string `json:"htmlSnippet"`
}

// TrackingHandler serves the rastrear-guia endpoints.
type TrackingHandler struct {
	service *service.TrackingService
	logger  *slog.Logger
}

// NewTrackingHandler creates a TrackingHandler.
func NewTrackingHandler(svc *service.TrackingService, logger *slog.Logger) *TrackingHandler {
	return &TrackingHandler{
		service: svc,
		logger:  logger.With("component", "tracking_handler"),
	}
}

// Post handles POST /api/rastrear-guia with a JSON or form body.
func (h *TrackingHandler) Post(c echo.Context) error {
	var req model.TrackingRequest
	if err := c.Bind(&req); err != nil {
		// A body of an unknown type is ignored, leaving the identifier unset.
		if !errors.Is(err, echo.ErrUnsupportedMediaType) {
			h.logger.Debug("invalid request body", "err", err)
			return c.JSON(http.StatusBadRequest, errorResponse{Error: msgInvalidBody})
		}
		req = model.TrackingRequest{}
	}
	return h.track(c, req)
}

// Get handles GET /api/rastrear-guia/:numeroGuia. It performs exactly the
// same lookup as Post.
func (h *TrackingHandler) Get(c echo.Context) error {
	// Echo routes on RawPath when the request used non-canonical escaping and
	// leaves the param encoded; otherwise the param is already decoded.
	id := c.Param("numeroGuia")
	if c.Request().URL.RawPath != "" {
		if decoded, err := url.PathUnescape(id); err == nil {
			id = decoded
		}
	}
	return h.track(c, model.TrackingRequest{NumeroGuia: model.GuideNumber(id)})
}

func (h *TrackingHandler) track(c echo.Context, req model.TrackingRequest) error {
	result, err := h.service.Track(c.Request().Context(), req)
	if err != nil {
		return h.mapError(c, err)
	}

	if !result.Found {
		return c.JSON(http.StatusNotFound, notFoundResponse{
			Success:     false,
			Error:       msgNoData,
			NumeroGuia:  result.TrackingID,
			HTMLSnippet: result.Snippet(),
		})
	}

	return c.JSON(http.StatusOK, foundResponse{
		Success:    true,
		HTML:       result.HTML,
		NumeroGuia: result.TrackingID,
	})
}
