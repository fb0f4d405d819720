package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/annel0/blockworld/internal/logging"
)

// TracerName имя трассировщика подсистем мира
const TracerName = "github.com/annel0/blockworld"

// Tracer возвращает трассировщик из глобального провайдера.
// Пока InitTelemetry не вызван, спаны ничего не стоят (noop-провайдер).
func Tracer() oteltrace.Tracer {
	return otel.Tracer(TracerName)
}

// InitTelemetry настраивает OTLP экспортер и устанавливает глобальный TracerProvider.
// Возвращает функцию shutdown, которую нужно вызвать при завершении приложения.
func InitTelemetry(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	// OTLP HTTP экспортер (по умолчанию localhost:4318)
	exp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, err
	}

	return install(trace.WithBatcher(exp), res, serviceName), nil
}

// InitWithExporter устанавливает провайдер с синхронным экспортом в exp (тесты, отладка)
func InitWithExporter(exp trace.SpanExporter, serviceName string) func(context.Context) error {
	res := resource.NewSchemaless(semconv.ServiceName(serviceName))
	return install(trace.WithSyncer(exp), res, serviceName)
}

func install(export trace.TracerProviderOption, res *resource.Resource, serviceName string) func(context.Context) error {
	tp := trace.NewTracerProvider(
		export,
		trace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	logging.Info("📡 OpenTelemetry инициализирован (service=%s)", serviceName)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}
}
