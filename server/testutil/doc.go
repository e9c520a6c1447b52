// Package testutil runs a fully wired server.Server behind httptest for
// end-to-end handler tests.
//
//	srv := testutil.NewComponent(func(s *server.Server) {
//	    handler.Register(s.GinEngine())
//	})
//	testutil.T(t).Setup(srv)
//	resp, _ := http.Post(srv.BaseURL()+"/api/s3/list", "application/json", body)
package testutil
