// Package observability wires OpenTelemetry tracing and metrics.
//
//	tp, err := observability.InitTracer(ctx, cfg.TracerConfig("s3fm", version, env), log)
//	defer tp.Shutdown(ctx)
//
//	mp, err := observability.InitMeter(ctx, cfg.MeterConfig("s3fm", version, env), log)
//	defer mp.Shutdown(ctx)
//	metrics, err := observability.NewMetrics(observability.Meter("s3fm"))
//
// Each file manager call is wrapped in an OperationContext, producing a
// span named "filemanager.<op>" and the operation.total, operation.duration
// and error.total instruments.
package observability
