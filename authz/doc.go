// Package authz is the authorization gate every file manager operation
// passes before touching storage.
//
// A Gate combines two optional hooks. An Authorizer decides whether the
// caller is authenticated at all (401). An ActionAllower decides whether the
// caller may perform the specific action on the specific path (403). When
// neither hook is configured the gate Mode decides.
//
// RoleAllower is a ready-made ActionAllower that grants actions per role
// with wildcard patterns:
//
//	allower := authz.NewRoleAllower(authz.NewMapChecker(map[string][]string{
//	    "admin":  {"*"},
//	    "editor": {"folder.*", "file.*", "upload.prepare", "list", "search", "preview.get"},
//	    "viewer": {"list", "search", "preview.get", "*.get"},
//	}))
//	gate := authz.NewGate(nil, allower, authz.ModeDenyByDefault)
package authz
