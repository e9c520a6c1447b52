// Package bootstrap runs a service through its lifecycle: start the
// registered components, run configure callbacks, check readiness, wait for
// SIGINT or SIGTERM, then stop everything in reverse order.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(store)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*AppConfig]) error {
//	    return a.RegisterComponent(server.NewComponent(srv, addr))
//	})
//	err = app.Run(ctx)
package bootstrap
