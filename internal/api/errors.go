package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"willstech-admin/internal/backup"
	"willstech-admin/internal/editor"
	"willstech-admin/internal/github"
	"willstech-admin/internal/logger"
	"willstech-admin/internal/settings"
	"willstech-admin/internal/siteconfig"
	"willstech-admin/pkg/models"
)

const maxBodyBytes = 10 << 20

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, siteconfig.ErrInvalid),
		errors.Is(err, siteconfig.ErrBadImport),
		errors.Is(err, settings.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, editor.ErrProductNotFound),
		errors.Is(err, backup.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, github.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, github.ErrNoToken),
		errors.Is(err, editor.ErrNotConfigured),
		errors.Is(err, editor.ErrRestorePending):
		return http.StatusPreconditionFailed
	case errors.Is(err, github.ErrUnauthorized),
		errors.Is(err, github.ErrForbidden),
		errors.Is(err, github.ErrNotFound),
		errors.Is(err, github.ErrRateLimited),
		errors.Is(err, github.ErrInvalid),
		errors.Is(err, github.ErrUnavailable),
		errors.Is(err, github.ErrUpstream),
		errors.Is(err, github.ErrBadResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": ...}. ErrNoChanges is not a failure
// and answers 200 with status "unchanged".
func respondError(c *gin.Context, log *logger.Logger, err error) {
	if errors.Is(err, editor.ErrNoChanges) {
		c.JSON(http.StatusOK, models.SaveResponse{Status: "unchanged"})
		return
	}
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		log.WithError(err).Errorw("Request failed",
			"request_id", c.GetString("request_id"),
			"path", c.Request.URL.Path,
			"status", code,
		)
	}
	body := gin.H{"error": err.Error()}
	if code == http.StatusConflict {
		body["hint"] = "the site config changed on GitHub, sync and try again"
	}
	c.JSON(code, body)
}

func readBody(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	return c.GetRawData()
}
