package inspect

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/otpic/internal/auth"
	"github.com/danmuck/otpic/internal/ic"
	"github.com/danmuck/otpic/internal/observability"
	"github.com/danmuck/otpic/internal/term"
	"github.com/danmuck/otpic/internal/typecode"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var ErrTypeNotFound = errors.New("inspect: type not found")

// Server exposes a registry over HTTP: descriptors, and JSON <-> term
// conversion for registered types.
type Server struct {
	Node     string
	Addr     string
	Registry *ic.Registry
	Limits   term.Limits
	Started  time.Time

	router    *gin.Engine
	origins   []string
	validator auth.Validator
}

func New(node, addr string, reg *ic.Registry, limits term.Limits, corsOrigins []string) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(node, log.Logger))
	r.Use(observability.RequestMetricsMiddleware(node))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	if reg == nil {
		reg = ic.DefaultRegistry()
	}
	return &Server{
		Node:     node,
		Addr:     addr,
		Registry: reg,
		Limits:   limits,
		Started:  time.Now(),
		router:   r,
		origins:  normalizeOrigins(corsOrigins),
	}
}

// RequireToken gates the conversion routes behind a bearer token. It must
// be called before RegisterRoutes; an empty token leaves them open.
func (s *Server) RequireToken(token string) {
	if token == "" {
		s.validator = nil
		return
	}
	s.validator = auth.StaticToken{Token: token}
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

// TypeInfo is the /types view of one registered type.
type TypeInfo struct {
	Name       string             `json:"name"`
	ID         string             `json:"id"`
	Descriptor string             `json:"descriptor"`
	TypeCode   *typecode.TypeCode `json:"typecode"`
}

func typeInfo(e ic.Entry) TypeInfo {
	tc := e.Type()
	return TypeInfo{Name: e.Name(), ID: e.ID(), Descriptor: tc.String(), TypeCode: tc}
}

// hexBody carries encoded terms in requests and responses.
type hexBody struct {
	Hex string `json:"hex"`
}

// corsConfig allows the Authorization header only when the conversion
// routes require a token.
func (s *Server) corsConfig() cors.Config {
	headers := []string{"Origin", "Content-Type"}
	if s.validator != nil {
		headers = append(headers, "Authorization")
	}
	return cors.Config{
		AllowOrigins: s.origins,
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: headers,
		MaxAge:       12 * time.Hour,
	}
}

func (s *Server) RegisterRoutes() {
	r := s.router
	r.Use(cors.New(s.corsConfig()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Started).String(),
			"service": s.Node,
			"types":   len(s.Registry.Entries()),
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/types", func(c *gin.Context) {
		entries := s.Registry.Entries()
		list := make([]TypeInfo, 0, len(entries))
		for _, e := range entries {
			list = append(list, typeInfo(e))
		}
		c.JSON(http.StatusOK, gin.H{"types": list})
	})

	r.GET("/types/:name", func(c *gin.Context) {
		e, err := s.lookup(c.Param("name"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, typeInfo(e))
	})

	convert := r.Group("")
	if s.validator != nil {
		convert.Use(auth.Middleware(s.validator))
	}

	convert.POST("/types/:name/encode", func(c *gin.Context) {
		e, err := s.lookup(c.Param("name"))
		if err != nil {
			writeError(c, err)
			return
		}
		body, err := s.readBody(c)
		if err != nil {
			writeError(c, err)
			return
		}
		out, err := e.EncodeJSON(body)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"type": e.Name(), "hex": hex.EncodeToString(out), "bytes": len(out)})
	})

	convert.POST("/types/:name/decode", func(c *gin.Context) {
		e, err := s.lookup(c.Param("name"))
		if err != nil {
			writeError(c, err)
			return
		}
		raw, err := s.readHex(c)
		if err != nil {
			writeError(c, err)
			return
		}
		out, err := e.DecodeJSON(raw, s.Limits)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", out)
	})

	convert.POST("/any/decode", func(c *gin.Context) {
		raw, err := s.readHex(c)
		if err != nil {
			writeError(c, err)
			return
		}
		a, err := s.decodeAny(raw)
		if err != nil {
			writeError(c, err)
			return
		}
		value, err := s.Registry.DescribeAny(a, s.Limits)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":         a.Type().ID(),
			"descriptor": a.Type().String(),
			"value":      json.RawMessage(value),
		})
	})
}

func (s *Server) Serve() error {
	s.RegisterRoutes()
	log.Info().Str("node", s.Node).Str("addr", s.Addr).Msg("inspection server listening")
	return s.router.Run(s.Addr)
}

func (s *Server) lookup(name string) (ic.Entry, error) {
	if e, ok := s.Registry.LookupName(name); ok {
		return e, nil
	}
	if e, ok := s.Registry.Lookup(name); ok {
		return e, nil
	}
	return nil, ErrTypeNotFound
}

func (s *Server) readBody(c *gin.Context) ([]byte, error) {
	limit := int64(s.Limits.MaxPacketBytes)
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, limit))
	if err != nil {
		return nil, errBadRequest{err}
	}
	return body, nil
}

func (s *Server) readHex(c *gin.Context) ([]byte, error) {
	body, err := s.readBody(c)
	if err != nil {
		return nil, err
	}
	var req hexBody
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errBadRequest{err}
	}
	raw, err := hex.DecodeString(strings.TrimSpace(req.Hex))
	if err != nil {
		return nil, errBadRequest{err}
	}
	return raw, nil
}

func (s *Server) decodeAny(raw []byte) (*ic.Any, error) {
	br := bytes.NewReader(raw)
	r := term.NewReaderLimits(br, s.Limits)
	if err := r.ReadVersion(); err != nil {
		return nil, &ic.FieldError{Type: "Any", Kind: ic.ErrMalformed, Err: err}
	}
	a, err := ic.UnmarshalAny(r)
	if err != nil {
		return nil, err
	}
	if br.Len() != 0 {
		return nil, &ic.FieldError{Type: "Any", Kind: ic.ErrMalformed, Err: errors.New("trailing bytes")}
	}
	return a, nil
}

type errBadRequest struct {
	err error
}

func (e errBadRequest) Error() string {
	return "bad request: " + e.err.Error()
}

func (e errBadRequest) Unwrap() error {
	return e.err
}

func statusFor(err error) int {
	var bad errBadRequest
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest
	case errors.Is(err, ErrTypeNotFound), errors.Is(err, ic.ErrUnknownType):
		return http.StatusNotFound
	case errors.Is(err, ic.ErrTypeMismatch):
		return http.StatusConflict
	case errors.Is(err, ic.ErrConstraint):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ic.ErrMalformed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
