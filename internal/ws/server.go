package ws

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"streamifygo/internal/services/signaling"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10 // must be < pongWait
	closeGrace = 2 * time.Second

	registryTimeout = 1900 * time.Millisecond

	defaultSendQueue   = 256
	defaultJoinTimeout = 30 * time.Second
	defaultMaxMessage  = 64 * 1024 // room for SDP blobs
)

var errLeaveRequested = errors.New("leave requested")

type Settings struct {
	Origins        OriginPolicy
	JoinTimeout    time.Duration
	MaxMessageSize int64
	SendQueueSize  int
}

type WsServer struct {
	registry signaling.IRoomRegistry
	router   *Router
	upgrader websocket.Upgrader
	settings Settings

	mu      sync.Mutex
	conns   map[*clientConn]struct{}
	closing bool
	wg      sync.WaitGroup
}

func NewWsServer(registry signaling.IRoomRegistry, settings Settings) *WsServer {
	if settings.JoinTimeout <= 0 {
		settings.JoinTimeout = defaultJoinTimeout
	}
	if settings.MaxMessageSize <= 0 {
		settings.MaxMessageSize = defaultMaxMessage
	}
	if settings.SendQueueSize <= 0 {
		settings.SendQueueSize = defaultSendQueue
	}

	srv := &WsServer{
		registry: registry,
		router:   NewRouter(),
		settings: settings,
		conns:    make(map[*clientConn]struct{}),
	}
	srv.upgrader = websocket.Upgrader{
		ReadBufferSize:  4 * 1024,
		WriteBufferSize: 4 * 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if settings.Origins.Allowed(origin) {
				return true
			}
			zap.L().Warn("ws.origin_blocked", zap.String("origin", origin))
			return false
		},
	}
	srv.registerHandlers()
	return srv
}

// ---------------------------------------------------------------------------
//  Public: Gin entry-point
// ---------------------------------------------------------------------------

// Handle upgrades GET /room/connect/:code and runs the connection until it
// leaves or is rejected.
func (s *WsServer) Handle(ginCtx *gin.Context) {
	code := ginCtx.Param("code")
	if code == "" {
		code = ginCtx.Query("code")
	}

	rawConn, err := s.upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.accept", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(s.settings.MaxMessageSize)

	conn := newClientConn(rawConn, s.settings.SendQueueSize)
	closing := s.track(conn)
	defer s.untrack(conn)

	cc := &ConnContext{
		Code:      code,
		QueryName: ginCtx.Query("name"),
		Remote:    ginCtx.ClientIP(),
		conn:      conn,
		state:     stateConnecting,
	}
	zap.L().Debug("ws.connected", zap.String("code", code), zap.String("remote", cc.Remote))

	go conn.writePump()
	if closing {
		conn.Disconnect(signaling.CauseShutdown)
		s.finish(cc)
		return
	}
	s.serve(cc)
}

// Shutdown closes every live connection with "going away" and waits for the
// connection goroutines to finish or ctx to expire.
func (s *WsServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	conns := make([]*clientConn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.Disconnect(signaling.CauseShutdown)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		zap.L().Info("ws.shutdown_complete", zap.Int("closed", len(conns)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func (s *WsServer) registerHandlers() {
	Register(s.router, TypeOffer,
		func(_ context.Context, cc *ConnContext, req OfferMessage, frame []byte) error {
			if req.Offer.Type != webrtc.SDPTypeOffer || req.Offer.SDP == "" {
				return errors.Join(ErrMalformedMessage, errors.New("offer needs an sdp of type offer"))
			}
			return s.relay(cc, TypeOffer, frame)
		},
	)
	Register(s.router, TypeAnswer,
		func(_ context.Context, cc *ConnContext, req AnswerMessage, frame []byte) error {
			t := req.Answer.Type
			if (t != webrtc.SDPTypeAnswer && t != webrtc.SDPTypePranswer) || req.Answer.SDP == "" {
				return errors.Join(ErrMalformedMessage, errors.New("answer needs an sdp of type answer"))
			}
			return s.relay(cc, TypeAnswer, frame)
		},
	)
	// An empty candidate string marks end-of-candidates and is relayed too.
	Register(s.router, TypeICECandidate,
		func(_ context.Context, cc *ConnContext, _ ICECandidateMessage, frame []byte) error {
			return s.relay(cc, TypeICECandidate, frame)
		},
	)
	Register(s.router, TypeLeave,
		func(context.Context, *ConnContext, LeaveRequest, []byte) error {
			return errLeaveRequested
		},
	)
}

func (s *WsServer) track(c *clientConn) (closing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wg.Add(1)
	s.conns[c] = struct{}{}
	return s.closing
}

func (s *WsServer) untrack(c *clientConn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	s.wg.Done()
}

func (s *WsServer) serve(cc *ConnContext) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("ws.panic", zap.Any("panic", r), zap.String("code", cc.Code))
			s.reject(cc, ReasonInternal, errors.New("internal error"))
		}
		s.finish(cc)
	}()

	cc.state = stateAwaitingJoin
	_ = cc.conn.rawConn.SetReadDeadline(time.Now().Add(s.settings.JoinTimeout))

	for !cc.state.terminal() {
		_, frame, err := cc.conn.rawConn.ReadMessage()
		if err != nil {
			s.onReadError(cc, err)
			return
		}
		s.handleFrame(cc, frame)
	}
}

func (s *WsServer) handleFrame(cc *ConnContext, frame []byte) {
	env, err := decodeEnvelope(frame)
	if err != nil {
		s.reject(cc, ReasonMalformed, err)
		return
	}

	switch cc.state {
	case stateAwaitingJoin:
		if env.Type != TypeJoin {
			s.reject(cc, ReasonMalformed, errors.Join(ErrMalformedMessage, errors.New(env.Type+" before join")))
			return
		}
		s.join(cc, frame)

	case stateJoined:
		ctx, cancel := context.WithTimeout(context.Background(), registryTimeout)
		err := s.router.dispatch(ctx, cc, env, frame)
		cancel()
		switch {
		case err == nil:
		case errors.Is(err, errLeaveRequested):
			s.leave(cc)
		default:
			s.reject(cc, reasonFor(err), err)
		}
	}
}

func (s *WsServer) join(cc *ConnContext, frame []byte) {
	var req JoinRequest
	if err := validateJSON(frame, &req); err != nil {
		s.reject(cc, ReasonMalformed, err)
		return
	}
	name := req.Name
	if strings.TrimSpace(name) == "" {
		name = cc.QueryName
	}

	ctx, cancel := context.WithTimeout(context.Background(), registryTimeout)
	session, err := s.registry.JoinOrCreateRoom(ctx, cc.Code, name, cc.conn)
	cancel()
	if err != nil {
		s.reject(cc, reasonFor(err), err)
		return
	}

	cc.session = session
	cc.state = stateJoined

	raw := cc.conn.rawConn
	_ = raw.SetReadDeadline(time.Now().Add(pongWait))
	raw.SetPongHandler(func(string) error {
		return raw.SetReadDeadline(time.Now().Add(pongWait))
	})
}

func (s *WsServer) relay(cc *ConnContext, msgType string, frame []byte) error {
	n, err := s.registry.Relay(cc.session, frame)
	if err != nil {
		// The sender stays connected; there is nobody to deliver to.
		zap.L().Warn("ws.relay_dropped",
			zap.String("code", cc.session.Code()),
			zap.String("session", cc.session.ID()),
			zap.String("type", msgType),
			zap.Error(err),
		)
		return nil
	}
	zap.L().Debug("ws.relayed",
		zap.String("code", cc.session.Code()),
		zap.String("from", cc.session.Name()),
		zap.String("type", msgType),
		zap.Int("recipients", n),
	)
	return nil
}

// reject sends the error frame and a policy-violation close. Terminal.
func (s *WsServer) reject(cc *ConnContext, reason string, err error) {
	if cc.state.terminal() {
		return
	}
	zap.L().Info("ws.rejected",
		zap.String("code", cc.Code),
		zap.String("remote", cc.Remote),
		zap.String("state", cc.state.String()),
		zap.String("reason", reason),
		zap.Error(err),
	)
	if cc.session != nil {
		s.registry.Leave(cc.session)
	}
	cc.conn.writeJSON(ErrorMessage{Type: TypeError, Error: reason})
	cc.conn.closeWith(websocket.ClosePolicyViolation, reason)
	cc.state = stateRejected
}

func (s *WsServer) leave(cc *ConnContext) {
	s.registry.Leave(cc.session)
	cc.conn.closeWith(websocket.CloseNormalClosure, "left room")
	cc.state = stateLeft
}

func (s *WsServer) onReadError(cc *ConnContext, err error) {
	cc.readFailed = true

	var netErr net.Error
	if cc.state == stateAwaitingJoin && errors.As(err, &netErr) && netErr.Timeout() {
		s.reject(cc, ReasonMalformed, errors.Join(ErrMalformedMessage, errors.New("no join before timeout")))
		return
	}

	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
		zap.L().Info("ws.closed_unexpectedly", zap.String("code", cc.Code), zap.Error(err))
	} else {
		zap.L().Debug("ws.closed", zap.String("code", cc.Code), zap.Error(err))
	}
}

// finish releases the session exactly once and tears the socket down.
func (s *WsServer) finish(cc *ConnContext) {
	if cc.session != nil {
		s.registry.Leave(cc.session)
	}
	if !cc.state.terminal() {
		cc.state = stateLeft
	}
	cc.conn.closeWith(websocket.CloseNormalClosure, "")
	if !cc.readFailed {
		cc.conn.drain()
	}
	close(cc.conn.readerDone)
	<-cc.conn.done
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, signaling.ErrRoomNotFound):
		return ReasonRoomNotFound
	case errors.Is(err, signaling.ErrInvalidName):
		return ReasonInvalidName
	case errors.Is(err, ErrMalformedMessage):
		return ReasonMalformed
	default:
		return ReasonInternal
	}
}
