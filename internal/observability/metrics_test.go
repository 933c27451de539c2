package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/otpic/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("icctl", "GET", "/types", 200, 12*time.Millisecond)
	RecordAnyPayload("Port", 19)
	RecordDescriptorBuild("Port")

	before := testutil.ToFloat64(codecOperations.WithLabelValues("Port", "marshal", "ok"))
	RecordCodec("Port", "marshal", "ok")
	RecordCodec("Port", "marshal", "ok")
	after := testutil.ToFloat64(codecOperations.WithLabelValues("Port", "marshal", "ok"))
	if after-before != 2 {
		t.Fatalf("expected 2 recorded operations, got %v", after-before)
	}
}

func TestInitLoggerTagsApp(t *testing.T) {
	prev := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	InitLogger("icctl", logging.Config{Level: zerolog.InfoLevel, Bypass: true}, &buf)
	log.Info().Msg("hello")
	if !strings.Contains(buf.String(), `"app":"icctl"`) {
		t.Fatalf("expected app field, got %s", buf.String())
	}
}

func TestRequestLoggerLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.InfoLevel)

	r := gin.New()
	r.Use(RequestLogger("icctl", logger), RequestMetricsMiddleware("icctl"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/types/:name", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for _, path := range []string{"/health", "/types/Nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	out := buf.String()
	if strings.Contains(out, `"path":"/health"`) {
		t.Fatalf("health route logged above debug: %s", out)
	}
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, `"path":"/types/:name"`) {
		t.Fatalf("expected warn line for 404 route, got %s", out)
	}
	if !strings.Contains(out, `"node":"icctl"`) {
		t.Fatalf("expected node field, got %s", out)
	}
}
