package stub

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/prakoso/tvcast/internal/config"
	"github.com/prakoso/tvcast/internal/core"
	"github.com/prakoso/tvcast/internal/domain"
)

func genClientToken() string {
	return uuid.NewString()
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

// SetupRouter wires the stand-in's REST surface, static image serving,
// and the websocket relay endpoint.
func SetupRouter(ctx context.Context, cfg *config.Config, store *Store, hub *Hub) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	sessionStore := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("TvcastSessions", sessionStore))
	r.Use(ClientTokenMiddleware())

	r.Static("/uploads", cfg.StaticPath)

	relay := &RelayController{Hub: hub}
	r.GET("/ws", func(c *gin.Context) {
		relay.HandleRelay(ctx, c)
	})

	api := r.Group("/api")

	api.GET("/tvs", func(c *gin.Context) {
		c.JSON(http.StatusOK, store.List())
	})

	api.POST("/tvs", func(c *gin.Context) {
		var req struct {
			Name string `json:"name" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "TV name is required"})
			return
		}
		tv, err := store.Create(req.Name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		hub.BroadcastAll(core.TVAdded{TV: tv})
		c.JSON(http.StatusCreated, tv)
	})

	api.GET("/tvs/:id", func(c *gin.Context) {
		id, ok := tvID(c)
		if !ok {
			return
		}
		tv, found := store.Get(id)
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "TV not found"})
			return
		}
		c.JSON(http.StatusOK, tv)
	})

	api.POST("/tvs/:id/upload", func(c *gin.Context) {
		id, ok := tvID(c)
		if !ok {
			return
		}
		if _, found := store.Get(id); !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "TV not found"})
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
			return
		}
		files := form.File["image"]
		if len(files) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no image files provided"})
			return
		}

		refs := make([]string, 0, len(files))
		for _, fh := range files {
			name := uuid.NewString() + filepath.Ext(fh.Filename)
			dst := filepath.Join(cfg.StaticPath, name)
			if err := c.SaveUploadedFile(fh, dst); err != nil {
				log.Error().Err(err).Str("module", "stub.router").Str("file", fh.Filename).Msg("save upload")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store image"})
				return
			}
			refs = append(refs, "/uploads/"+name)
		}

		tv, _ := store.AddImages(id, refs)
		hub.BroadcastAll(core.ImageUpdated{TVID: id, TV: tv})
		c.JSON(http.StatusOK, tv)
	})

	api.POST("/tvs/:id/youtube", func(c *gin.Context) {
		id, ok := tvID(c)
		if !ok {
			return
		}
		// Empty string clears the link, so no required binding here.
		var req struct {
			YoutubeLink string `json:"youtubeLink"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		tv, found := store.SetYoutubeLink(id, req.YoutubeLink)
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "TV not found"})
			return
		}
		hub.BroadcastAll(core.YoutubeLinkUpdated{TVID: id, TV: tv})
		c.JSON(http.StatusOK, tv)
	})

	api.DELETE("/tvs/:id/images", func(c *gin.Context) {
		id, ok := tvID(c)
		if !ok {
			return
		}
		tv, found := store.ClearImages(id)
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "TV not found"})
			return
		}
		hub.BroadcastAll(core.ImageUpdated{TVID: id, TV: tv})
		c.JSON(http.StatusOK, tv)
	})

	api.DELETE("/tvs/:id", func(c *gin.Context) {
		id, ok := tvID(c)
		if !ok {
			return
		}
		if _, found := store.Delete(id); !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "TV not found"})
			return
		}
		hub.BroadcastAll(core.TVDeleted{TVID: id})
		c.Status(http.StatusNoContent)
	})

	api.POST("/tvs/:id/zoom", func(c *gin.Context) {
		id, ok := tvID(c)
		if !ok {
			return
		}
		var req struct {
			Command string `json:"command" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "command is required"})
			return
		}
		cmd, err := domain.ParseZoomCommand(req.Command)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown zoom command"})
			return
		}
		if _, found := store.Get(id); !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "TV not found"})
			return
		}
		res := hub.BroadcastRoom(id, core.ZoomCommandEvent{Command: cmd})
		c.JSON(http.StatusOK, gin.H{
			"type":        core.TypeZoomCommandSent,
			"tvId":        id,
			"command":     string(cmd),
			"clientCount": res.SentTo,
		})
	})

	log.Info().Str("module", "stub.router").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}

// EnsureStaticDir creates the upload directory if missing.
func EnsureStaticDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}
	return nil
}

func tvID(c *gin.Context) (domain.TVID, bool) {
	n, err := strconv.Atoi(c.Param("id"))
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid TV id"})
		return 0, false
	}
	return domain.TVID(n), true
}
