// Package logger wraps zerolog with component scoping and map-based fields.
//
//	log := logger.NewDefault("s3fm").WithComponent("filemanager")
//	log.Info("folder created", logger.Fields(logger.FieldPath, "docs/"))
//
// Output is JSON unless logging.format is "console".
package logger
