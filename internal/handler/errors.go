package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"copetran-proxy-go/internal/client"
	"copetran-proxy-go/internal/service"
)

// Client-facing messages. The API speaks Spanish to its callers.
const (
	msgMissingID       = "Número de guía es requerido"
	msgInvalidBody     = "Cuerpo de la solicitud inválido"
	msgNoData          = "No se encontraron datos para esta guía"
	msgTimeout         = "Tiempo de espera agotado al consultar Copetran"
	msgUpstreamStatus  = "Error del servidor de Copetran: %d"
	msgLookupFailed    = "Error al consultar la guía"
	msgRouteNotFound   = "Endpoint no encontrado"
	msgInternalFailure = "Error interno del servidor"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// mapError converts a lookup error into a status code and JSON body.
func (h *TrackingHandler) mapError(c echo.Context, err error) error {
	if errors.Is(err, service.ErrMissingTrackingID) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: msgMissingID})
	}

	h.logger.Error("lookup failed",
		"err", err,
		"path", c.Request().URL.Path,
	)

	if errors.Is(err, client.ErrTimeout) {
		return c.JSON(http.StatusGatewayTimeout, errorResponse{Error: msgTimeout})
	}

	var se *client.StatusError
	if errors.As(err, &se) {
		return c.JSON(se.StatusCode, errorResponse{Error: fmt.Sprintf(msgUpstreamStatus, se.StatusCode)})
	}

	return c.JSON(http.StatusInternalServerError, errorResponse{
		Error:   msgLookupFailed,
		Details: err.Error(),
	})
}

// NewErrorHandler returns an Echo HTTPErrorHandler that renders framework
// errors in the API's JSON shape. Unknown routes and methods both yield 404.
func NewErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	logger = logger.With("component", "error_handler")

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := msgInternalFailure

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			switch code {
			case http.StatusNotFound, http.StatusMethodNotAllowed:
				code = http.StatusNotFound
				msg = msgRouteNotFound
			default:
				if m, ok := he.Message.(string); ok {
					msg = m
				} else {
					msg = http.StatusText(code)
				}
			}
		}

		if code >= http.StatusInternalServerError {
			logger.Error("unhandled error", "err", err, "path", c.Request().URL.Path)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, errorResponse{Error: msg})
		}
		if werr != nil {
			logger.Error("writing error response", "err", werr)
		}
	}
}
