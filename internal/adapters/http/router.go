package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/RoomChat/internal/adapters/signal"
	"github.com/dkeye/RoomChat/internal/app"
	"github.com/dkeye/RoomChat/internal/config"
	"github.com/dkeye/RoomChat/internal/domain"
	"github.com/dkeye/RoomChat/internal/protocol"
)

const (
	sessionName = "RoomChatSessions"
	sessionUser = "user"
	wsPath      = protocol.WSPath
)

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

// RequireUser aborts with 401 unless the session carries a login name.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		name, _ := sessions.Default(c).Get(sessionUser).(string)
		user, err := domain.NewUserName(name)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, protocol.ErrorBody{Code: protocol.CodeBadRequest, Error: "login first"})
			return
		}
		c.Set(sessionUser, user)
		c.Next()
	}
}

// newSessionStore keeps the login cookie usable over plain HTTP unless
// cookie_secure is set.
func newSessionStore(cfg *config.Config) sessions.Store {
	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

func currentUser(c *gin.Context) domain.UserName {
	return c.MustGet(sessionUser).(domain.UserName)
}

// API wires the directory and discovery to HTTP.
type API struct {
	Directory *app.Directory
	Registry  *app.Registry
	Signal    *signal.SignalWSController
}

func SetupRouter(ctx context.Context, cfg *config.Config, dir *app.Directory, reg *app.Registry) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.Use(sessions.Sessions(sessionName, newSessionStore(cfg)))
	r.Use(ClientTokenMiddleware())

	api := &API{
		Directory: dir,
		Registry:  reg,
		Signal: signal.NewSignalWSController(reg, signal.Options{
			ReadLimit:  cfg.ReadLimit,
			PingPeriod: cfg.PingPeriod,
			SendBuffer: cfg.SendBuffer,
		}),
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	g := r.Group("/api")
	g.POST("/login", api.login)
	g.GET("/rooms", api.listRooms)
	g.POST("/rooms", api.createRoom)
	g.DELETE("/rooms/:name", api.closeRoom)
	g.GET("/discovery/:name", api.resolve)

	authed := g.Group("", RequireUser())
	authed.GET("/ws", func(c *gin.Context) {
		sid := signal.SessionID(c.GetString("client_token"))
		log.Info().Str("module", "adapters.http").Str("sid", string(sid)).Msg("ws signal endpoint hit")
		api.Signal.HandleSignal(ctx, c, sid, currentUser(c))
	})
	authed.GET("/rooms/:name/events", func(c *gin.Context) {
		api.streamEvents(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}

type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

func (api *API) login(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, domain.ErrUsernameEmpty)
		return
	}
	user, err := domain.NewUserName(req.Name)
	if err != nil {
		abortWith(c, err)
		return
	}
	s := sessions.Default(c)
	s.Set(sessionUser, string(user))
	if err := s.Save(); err != nil {
		abortWith(c, err)
		return
	}
	log.Info().Str("module", "adapters.http").Str("user", string(user)).Msg("login")
	c.JSON(http.StatusOK, gin.H{"name": user})
}

func (api *API) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, api.Directory.Rooms())
}

func (api *API) createRoom(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, domain.ErrRoomNameEmpty)
		return
	}
	name, err := domain.NewRoomName(req.Name)
	if err != nil {
		abortWith(c, err)
		return
	}
	room, err := api.Directory.CreateRoom(name)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"name": room.Name()})
}

func (api *API) closeRoom(c *gin.Context) {
	name, err := domain.NewRoomName(c.Param("name"))
	if err != nil {
		abortWith(c, err)
		return
	}
	if err := api.Directory.CloseRoom(name); err != nil {
		abortWith(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (api *API) resolve(c *gin.Context) {
	name := c.Param("name")
	ep, err := api.Registry.Resolve(name)
	if err != nil {
		abortWith(c, err)
		return
	}
	out := protocol.Endpoint{Name: name, Endpoint: wsPath}
	switch ep.(type) {
	case *app.Directory:
		out.Kind = protocol.KindDirectory
		out.Endpoint = "/api/rooms"
	default:
		if _, err := api.Registry.ResolveRoom(domain.RoomName(name)); err != nil {
			abortWith(c, err)
			return
		}
		out.Kind = protocol.KindRoom
	}
	c.JSON(http.StatusOK, out)
}

func statusOf(code string) int {
	switch code {
	case protocol.CodeNotFound:
		return http.StatusNotFound
	case protocol.CodeDuplicate:
		return http.StatusConflict
	case protocol.CodeClosed:
		return http.StatusGone
	case protocol.CodeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abortWith(c *gin.Context, err error) {
	code := protocol.CodeOf(err)
	status := statusOf(code)
	if errors.Is(err, app.ErrDirectoryShutdown) {
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, protocol.ErrorBody{Code: code, Error: err.Error()})
}
