// Package httpapi exposes a filemanager.Manager as POST JSON routes on a
// gin router.
//
//	h := httpapi.NewHandler(manager, httpapi.WithLogger(log))
//	h.Register(srv.GinEngine(), cfg.FileManager.BasePath)
//
// Every route decodes a JSON object body, validates it and calls the
// matching manager operation with the caller identity taken from the request
// context (see auth/authctx). Errors use the standard error envelope.
package httpapi
