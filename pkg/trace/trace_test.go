package trace

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type cfgWithMap struct {
	M StringMap `yaml:"m"`
}

func TestStringMapUnmarshalYAML(t *testing.T) {
	cases := map[string]struct {
		in   string
		want StringMap
	}{
		"empty":   {"m: ''\n", StringMap{}},
		"json":    {"m: '{\"k1\":\"v1\"}'\n", StringMap{"k1": "v1"}},
		"csv":     {"m: 'a=1, b = 2'\n", StringMap{"a": "1", "b": "2"}},
		"mapping": {"m:\n  x: 10\n  y: val\n", StringMap{"x": "10", "y": "val"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var c cfgWithMap
			require.NoError(t, yaml.Unmarshal([]byte(tc.in), &c))
			assert.Equal(t, tc.want, c.M)
		})
	}

	var c cfgWithMap
	assert.Error(t, yaml.Unmarshal([]byte("m: '{bad'\n"), &c))
}

func TestInitTracing_HTTP(t *testing.T) {
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	cfg := &Config{
		Enabled:     true,
		ServiceName: "choirhub-test",
		Protocol:    "http",
		Endpoint:    "localhost:4318",
		Insecure:    true,
		SamplerRate: 2.5,
		Headers:     StringMap{"x-test": "1"},
	}
	shutdown, err := InitTracing(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestEndpointURL(t *testing.T) {
	assert.Equal(t, "http://collector:4318", endpointURL("collector:4318", true))
	assert.Equal(t, "https://collector:4318", endpointURL("collector:4318", false))
	assert.Equal(t, "http://x:1", endpointURL("http://x:1", false))
}

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sr),
		sdktrace.WithResource(resource.Empty()),
	)
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func TestSpanScope(t *testing.T) {
	sr := withRecorder(t)

	scope := Tracer("trace-test").Start(context.Background(), "op").WithAttrs(attribute.String("k", "v"))
	scope.Fail(errors.New("boom"))
	scope.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("k", "v"))

	var nilScope *SpanScope
	assert.NotPanics(t, func() {
		nilScope.WithAttrs(attribute.Int("n", 1))
		nilScope.Fail(errors.New("x"))
		nilScope.End()
	})
}

func TestMiddleware_SkipsPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sr := withRecorder(t)

	r := gin.New()
	r.Use(Middleware("choirhub-test", "/health"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/songs", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, p := range []string{"/health", "/api/songs"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Contains(t, spans[0].Name(), "/api/songs")
}
