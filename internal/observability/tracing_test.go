package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"

	"github.com/signalsfoundry/orrery-simulator/core"
	"github.com/signalsfoundry/orrery-simulator/model"
)

func TestTracingConfigValidate(t *testing.T) {
	if err := (TracingConfig{SampleRatio: 7}).Validate(); err != nil {
		t.Fatalf("disabled config should be valid, got %v", err)
	}
	err := TracingConfig{Enabled: true, Exporter: "zipkin", SampleRatio: 2}.Validate()
	if !errors.Is(err, ErrTracingConfig) {
		t.Fatalf("expected ErrTracingConfig, got %v", err)
	}
	if !strings.Contains(err.Error(), "zipkin") || !strings.Contains(err.Error(), "sample ratio") {
		t.Fatalf("expected both problems reported, got %v", err)
	}
	if err := (TracingConfig{Enabled: true, Exporter: "OTLP", SampleRatio: 0.25}).Validate(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestInitTracingDisabledIsNoop(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{}, nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin", SampleRatio: 1}, nil)
	if !errors.Is(err, ErrTracingConfig) {
		t.Fatalf("expected ErrTracingConfig for unsupported exporter, got %v", err)
	}
}

func TestInitTracingExportsTickSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracing(context.Background(), TracingConfig{
		Enabled:     true,
		ServiceName: "orrery-test",
		Exporter:    "stdout",
		SampleRatio: 1,
		Scenario:    "solar-system",
		Writer:      &buf,
	}, nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	t.Cleanup(func() {
		_, _ = InitTracing(context.Background(), TracingConfig{}, nil)
	})

	scene, err := core.NewScene(core.DefaultSceneConfig(), nil, core.WithTracer(otel.Tracer("test")))
	if err != nil {
		t.Fatalf("NewScene: %v", err)
	}
	if _, err := scene.AddBody(core.NoParent, model.BodyDefinition{Name: "Sun", DiameterKm: 1000}); err != nil {
		t.Fatalf("AddBody: %v", err)
	}
	if err := scene.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	ShutdownWithTimeout(context.Background(), shutdown, nil)
	out := buf.String()
	if !strings.Contains(out, "orrery.Scene.Tick") {
		t.Fatalf("expected tick span in exporter output, got %q", out)
	}
	if !strings.Contains(out, "orrery.scenario") || !strings.Contains(out, "solar-system") {
		t.Fatalf("expected scenario resource attribute, got %q", out)
	}
}
