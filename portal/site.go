package portal

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"employee-portal/core"
)

// SiteConfig configures the portal front.
type SiteConfig struct {
	APIBaseURL string       // gateway base URL, e.g. https://xxx.execute-api.region.amazonaws.com
	HTTPClient *http.Client // nil -> NewClient default
	// Redis, when set, holds the bundles; the gorilla session then only
	// carries an opaque id.
	Redis    redis.Cmdable
	RedisTTL time.Duration
}

const sessionIDKey = "sid"

// storeFor returns the SessionStore backing one request.
func (cfg SiteConfig) storeFor(store sessions.Store, c *gin.Context) (SessionStore, error) {
	cookie := NewCookieStore(store, c.Request, c.Writer)
	if cfg.Redis == nil {
		return cookie, nil
	}
	sess, err := cookie.session()
	if err != nil {
		return nil, err
	}
	sid, _ := sess.Values[sessionIDKey].(string)
	if sid == "" {
		sid = uuid.NewString()
		sess.Values[sessionIDKey] = sid
		if err := sess.Save(c.Request, c.Writer); err != nil {
			return nil, err
		}
	}
	return NewRedisStore(cfg.Redis, "portal:"+sid, cfg.RedisTTL), nil
}

type indexPage struct {
	Header   template.HTML
	LoggedIn bool
	Error    string
}

// NewSite serves the entry page with the bound header, the login/logout form
// targets, and /api/* which forwards GETs to the gateway with the session's
// bearer token. Sessions live in store under SessionName.
func NewSite(cfg SiteConfig, store sessions.Store) (*gin.Engine, error) {
	tmpl, err := template.ParseFS(Assets, "assets/index.html")
	if err != nil {
		return nil, err
	}

	clientFor := func(c *gin.Context) (*Client, bool) {
		st, err := cfg.storeFor(store, c)
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("session store unavailable")
			c.String(http.StatusInternalServerError, "session error")
			return nil, false
		}
		var opts []Option
		if cfg.HTTPClient != nil {
			opts = append(opts, WithHTTPClient(cfg.HTTPClient))
		}
		return NewClient(cfg.APIBaseURL, st, opts...), true
	}
	binderFor := func(client *Client) *HeaderBinder {
		return NewHeaderBinder(FSFragment{FS: Assets, Path: HeaderPath}, client)
	}
	render := func(c *gin.Context, status int, client *Client, errMsg string) {
		ctx := c.Request.Context()
		header, err := binderFor(client).Bind(ctx, "home")
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("bind header failed")
			c.String(http.StatusInternalServerError, "failed to render header")
			return
		}
		var buf bytes.Buffer
		page := indexPage{Header: template.HTML(header), LoggedIn: client.GetToken(ctx).LoggedIn(), Error: errMsg}
		if err := tmpl.Execute(&buf, page); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("render index failed")
			c.String(http.StatusInternalServerError, "failed to render page")
			return
		}
		c.Data(status, "text/html; charset=utf-8", buf.Bytes())
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(core.RequestLogger())

	index := func(c *gin.Context) {
		if client, ok := clientFor(c); ok {
			render(c, http.StatusOK, client, "")
		}
	}
	r.GET("/", index)
	r.GET("/"+EntryPage, index)

	r.POST("/login", func(c *gin.Context) {
		client, ok := clientFor(c)
		if !ok {
			return
		}
		_, err := client.Login(c.Request.Context(), c.PostForm("username"), c.PostForm("password"))
		if err != nil {
			status := http.StatusBadGateway
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				status = apiErr.StatusCode
			}
			render(c, status, client, err.Error())
			return
		}
		c.Redirect(http.StatusSeeOther, "/"+EntryPage)
	})

	r.POST("/logout", func(c *gin.Context) {
		client, ok := clientFor(c)
		if !ok {
			return
		}
		target, err := binderFor(client).Logout(c.Request.Context())
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("logout failed")
			c.String(http.StatusInternalServerError, "failed to clear session")
			return
		}
		c.Redirect(http.StatusSeeOther, "/"+target)
	})

	r.GET("/api/*path", func(c *gin.Context) {
		client, ok := clientFor(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		if target, ok := client.RequireAuth(ctx); !ok {
			c.Redirect(http.StatusSeeOther, "/"+target)
			return
		}
		path := c.Param("path")
		if q := c.Request.URL.RawQuery; q != "" {
			path += "?" + q
		}
		res, err := client.Call(ctx, http.MethodGet, path, nil)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				c.String(apiErr.StatusCode, apiErr.Body)
				return
			}
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("gateway call failed")
			c.String(http.StatusBadGateway, err.Error())
			return
		}
		if res.JSON != nil || strings.Contains(res.ContentType, "application/json") {
			c.JSON(res.StatusCode, res.JSON)
			return
		}
		c.String(res.StatusCode, res.Text)
	})

	return r, nil
}
