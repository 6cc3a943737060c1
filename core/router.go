package core

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxNoticesPerPage = 100

// NewRouter constructs the Gin engine serving the login endpoint and the
// bearer-protected gateway API.
func NewRouter(cfg Config, login *LoginService, verifier TokenVerifier, directory Directory, notices NoticeRepository) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger())
	r.Use(OriginRefererMiddleware(cfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/auth/login", func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil {
			body = nil
		}
		bundle, err := login.Login(c.Request.Context(), decodeCredential(body))
		if err != nil {
			status, text := LoginStatus(err)
			c.String(status, text)
			return
		}
		c.JSON(http.StatusOK, bundle)
	})

	api := r.Group("/", BearerAuth(verifier))
	{
		api.GET("/employees/me", func(c *gin.Context) {
			claims := claimsFrom(c)
			emp, err := directory.FindEmployee(c.Request.Context(), claims.Username)
			if err != nil {
				if errors.Is(err, ErrUnknownUser) {
					respondError(c, http.StatusNotFound, "NOT_FOUND", "employee not found")
					return
				}
				zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("employee lookup failed")
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to load employee")
				return
			}
			c.JSON(http.StatusOK, emp)
		})

		api.GET("/notices", func(c *gin.Context) {
			page := queryInt(c, "page", 1)
			perPage := queryInt(c, "per_page", cfg.NoticesPerPage)
			if page <= 0 || perPage <= 0 || perPage > maxNoticesPerPage {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid pagination")
				return
			}
			items, total, err := notices.List(c.Request.Context(), page, perPage)
			if err != nil {
				zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("list notices failed")
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to list notices")
				return
			}
			c.JSON(http.StatusOK, gin.H{"items": items, "total": total, "page": page, "per_page": perPage})
		})

		api.GET("/notices/:id", func(c *gin.Context) {
			id, err := strconv.ParseInt(c.Param("id"), 10, 64)
			if err != nil || id <= 0 {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid id")
				return
			}
			n, err := notices.Get(c.Request.Context(), id)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					respondError(c, http.StatusNotFound, "NOT_FOUND", "notice not found")
					return
				}
				zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("get notice failed")
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to load notice")
				return
			}
			c.JSON(http.StatusOK, n)
		})
	}

	return r
}

// respondError sends unified error payload {"error": {"code", "message"}}.
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

func queryInt(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return i
}
