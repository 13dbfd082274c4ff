package http_server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"streamifygo/internal/http/roomhandler"
	"streamifygo/internal/services/signaling"
	"streamifygo/internal/ws"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abrar71/swaggerfilesv2" // swagger embed files
)

type httpServer struct {
	listenPort uint16
	srv        http.Server
	ln         net.Listener
	registry   signaling.IRoomRegistry
	wsSrv      *ws.WsServer
	origins    ws.OriginPolicy
	ctx        context.Context
}

func NewHttpServer(ctx context.Context, listenPort uint16, wsSrv *ws.WsServer, registry signaling.IRoomRegistry, origins ws.OriginPolicy) *httpServer {
	return &httpServer{
		listenPort: listenPort,
		wsSrv:      wsSrv,
		registry:   registry,
		origins:    origins,
		ctx:        ctx,
	}
}

// Handler builds the gin engine with every route mounted.
func (h *httpServer) Handler() http.Handler {
	routerEngine := gin.New()

	// Swagger UI and API specs
	routerEngine.StaticFS("/swagger-apis", http.FS(swaggerfilesv2.FS))
	routerEngine.Static("/api-specs", "api_specs")

	routerEngine.Use(ginzap.Ginzap(zap.L(), time.RFC3339, true))
	routerEngine.Use(ginzap.RecoveryWithZap(zap.L(), true))
	routerEngine.Use(cors(h.origins))

	routerEngine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// websocket endpoint
	routerEngine.GET("/room/connect/:code", h.wsSrv.Handle)

	// REST API
	rh := roomhandler.New(h.registry)
	rh.Register(routerEngine)

	return routerEngine
}

// Start blocks serving until Dispose is called.
func (h *httpServer) Start() error {
	var err error
	listenAddr := fmt.Sprintf(":%d", h.listenPort)
	h.ln, err = net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	zap.L().Info("http.listening", zap.String("addr", listenAddr))

	h.srv = http.Server{
		Handler:           h.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := h.srv.Serve(h.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Dispose stops accepting requests and waits up to timeout for in-flight
// ones. Hijacked websocket connections are not tracked here.
func (h *httpServer) Dispose(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := h.srv.Shutdown(ctx); err != nil {
		zap.L().Error("http_dispose", zap.Error(err))
		return err
	}
	return nil
}

// cors answers preflights and stamps CORS headers for allowed origins.
func cors(policy ws.OriginPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if !policy.Allowed(origin) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "origin not allowed"})
				return
			}
			if policy.AllowAll() {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
