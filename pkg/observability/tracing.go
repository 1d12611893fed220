package observability

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName 是编排层使用的 tracer 名称。
const TracerName = "github.com/IMBotPlatform/ShopAssistCore"

// Tracer 返回全局 TracerProvider 上的 tracer；未安装导出器时为 no-op。
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// InitStdoutTracing 安装把 span 以 JSON 写入 w 的 TracerProvider。
// 返回的 shutdown 在退出前调用以刷新缓冲的 span。
func InitStdoutTracing(serviceName string, w io.Writer) (shutdown func(context.Context) error, err error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		)),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
