package authz

import (
	"context"
	"fmt"

	apperrors "github.com/kbukum/s3fm/errors"
)

// Action names a gated file manager operation.
type Action string

const (
	ActionList              Action = "list"
	ActionSearch            Action = "search"
	ActionFolderCreate      Action = "folder.create"
	ActionFolderDelete      Action = "folder.delete"
	ActionFolderLockGet     Action = "folder.lock.get"
	ActionUploadPrepare     Action = "upload.prepare"
	ActionFileDelete        Action = "file.delete"
	ActionFileCopy          Action = "file.copy"
	ActionFileMove          Action = "file.move"
	ActionFileAttributesGet Action = "file.attributes.get"
	ActionFileAttributesSet Action = "file.attributes.set"
	ActionFolderCopy        Action = "folder.copy"
	ActionFolderMove        Action = "folder.move"
	ActionPreviewGet        Action = "preview.get"
)

// Actions lists every gated action.
var Actions = []Action{
	ActionList, ActionSearch,
	ActionFolderCreate, ActionFolderDelete, ActionFolderLockGet,
	ActionUploadPrepare,
	ActionFileDelete, ActionFileCopy, ActionFileMove,
	ActionFileAttributesGet, ActionFileAttributesSet,
	ActionFolderCopy, ActionFolderMove,
	ActionPreviewGet,
}

// Context is the caller identity handed to the hooks. The core never
// inspects it.
type Context struct {
	UserID     string         `json:"userId,omitempty"`
	Roles      []string       `json:"roles,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Request is what the hooks see for one gate check. Single-path actions set
// Path; copy and move set FromPath and ToPath. Search leaves all paths empty.
type Request struct {
	Action   Action
	Path     string
	FromPath string
	ToPath   string
	Context  *Context
}

// Authorizer decides whether the caller may use the file manager at all.
type Authorizer interface {
	Authorize(ctx context.Context, req Request) (bool, error)
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, req Request) (bool, error)

// Authorize implements Authorizer.
func (f AuthorizerFunc) Authorize(ctx context.Context, req Request) (bool, error) {
	return f(ctx, req)
}

// ActionAllower decides whether the caller may perform req.Action on the
// given paths.
type ActionAllower interface {
	Allow(ctx context.Context, req Request) (bool, error)
}

// ActionAllowerFunc adapts a function to ActionAllower.
type ActionAllowerFunc func(ctx context.Context, req Request) (bool, error)

// Allow implements ActionAllower.
func (f ActionAllowerFunc) Allow(ctx context.Context, req Request) (bool, error) {
	return f(ctx, req)
}

// Mode decides the outcome when no hook is configured.
type Mode string

const (
	ModeAllowByDefault Mode = "allow-by-default"
	ModeDenyByDefault  Mode = "deny-by-default"
)

// ParseMode accepts "" (deny) and the two mode names.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeDenyByDefault:
		return ModeDenyByDefault, nil
	case ModeAllowByDefault:
		return ModeAllowByDefault, nil
	default:
		return "", fmt.Errorf("authz: unknown mode %q", s)
	}
}

// Gate evaluates the hooks in order: Authorizer, then ActionAllower, then
// the mode when neither is set. The zero Gate denies everything.
type Gate struct {
	authorizer Authorizer
	allower    ActionAllower
	mode       Mode
}

// NewGate builds a gate. Either hook may be nil; an empty mode means
// ModeDenyByDefault.
func NewGate(authorizer Authorizer, allower ActionAllower, mode Mode) *Gate {
	if mode == "" {
		mode = ModeDenyByDefault
	}
	return &Gate{authorizer: authorizer, allower: allower, mode: mode}
}

// Mode returns the configured mode.
func (g *Gate) Mode() Mode { return g.mode }

// Check returns nil when req is allowed, an Unauthorized or Forbidden
// AppError when refused, and an internal error when a hook fails.
func (g *Gate) Check(ctx context.Context, req Request) error {
	if g.authorizer != nil {
		ok, err := g.authorizer.Authorize(ctx, req)
		if err != nil {
			return apperrors.From(err)
		}
		if !ok {
			return apperrors.Unauthorized("")
		}
	}

	if g.allower != nil {
		ok, err := g.allower.Allow(ctx, req)
		if err != nil {
			return apperrors.From(err)
		}
		if !ok {
			return apperrors.Forbidden("").WithDetail("action", string(req.Action))
		}
	}

	if g.authorizer == nil && g.allower == nil && g.mode != ModeAllowByDefault {
		return apperrors.Unauthorized("")
	}
	return nil
}
