package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/s3fm/auth/authctx"
	"github.com/kbukum/s3fm/authz"
	"github.com/kbukum/s3fm/errors"
	"github.com/kbukum/s3fm/filemanager"
	"github.com/kbukum/s3fm/logger"
	"github.com/kbukum/s3fm/server"
)

// ContextFunc resolves the caller identity for a request.
type ContextFunc func(r *http.Request) (*authz.Context, error)

// Handler serves the file manager routes.
type Handler[F, D any] struct {
	manager   *filemanager.Manager[F, D]
	contextFn ContextFunc
	log       *logger.Logger
}

// Option configures a Handler.
type Option func(*options)

type options struct {
	contextFn ContextFunc
	log       *logger.Logger
}

// WithContextFunc replaces the default identity lookup, which reads the
// authz.Context stored by the auth middleware.
func WithContextFunc(fn ContextFunc) Option {
	return func(o *options) { o.contextFn = fn }
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.log = log }
}

// NewHandler creates a handler for manager.
func NewHandler[F, D any](manager *filemanager.Manager[F, D], opts ...Option) *Handler[F, D] {
	o := options{
		contextFn: func(r *http.Request) (*authz.Context, error) {
			return authctx.AuthContext(r.Context()), nil
		},
		log: logger.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Handler[F, D]{manager: manager, contextFn: o.contextFn, log: o.log.WithComponent("httpapi")}
}

// Register mounts the routes on r under basePath. An empty or "/" base
// path mounts them at the root.
func (h *Handler[F, D]) Register(r gin.IRouter, basePath string) {
	g := r.Group(NormalizeBasePath(basePath))
	g.POST("/list", h.List)
	g.POST("/search", h.Search)
	g.POST("/folder/create", h.CreateFolder)
	g.POST("/folder/delete", h.DeleteFolder)
	g.POST("/folder/lock/get", h.GetFolderLock)
	g.POST("/files/delete", h.DeleteFiles)
	g.POST("/files/copy", h.Copy)
	g.POST("/files/move", h.Move)
	g.POST("/upload/prepare", h.PrepareUploads)
	g.POST("/preview", h.Preview)
	g.POST("/file/attributes/get", h.GetFileAttributes)
	g.POST("/file/attributes/set", h.SetFileAttributes)
}

// NormalizeBasePath gives basePath a leading slash and no trailing one.
func NormalizeBasePath(basePath string) string {
	trimmed := strings.TrimRight(basePath, "/")
	if trimmed == "" {
		return ""
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return trimmed
}

func (h *Handler[F, D]) List(c *gin.Context) {
	var req listRequest
	if !h.bind(c, &req) {
		return
	}
	ac, ok := h.identity(c)
	if !ok {
		return
	}
	out, err := h.manager.List(c.Request.Context(), req.options(), ac)
	h.respond(c, out, err)
}

func (h *Handler[F, D]) Search(c *gin.Context) {
	var req searchRequest
	if !h.bind(c, &req) {
		return
	}
	ac, ok := h.identity(c)
	if !ok {
		return
	}
	out, err := h.manager.Search(c.Request.Context(), req.options(), ac)
	h.respond(c, out, err)
}

func (h *Handler[F, D]) CreateFolder(c *gin.Context) {
	var req pathRequest
	if !h.bind(c, &req) {
		return
	}
	ac, ok := h.identity(c)
	if !ok {
		return
	}
	err := h.manager.CreateFolder(c.Request.Context(), filemanager.CreateFolderOptions{Path: *req.Path}, ac)
	h.respondEmpty(c, err)
}

func (h *Handler[F, D]) DeleteFolder(c *gin.Context) {
	var req deleteFolderRequest
	if !h.bind(c, &req) {
		return
	}
	ac, ok := h.identity(c)
	if !ok {
		return
	}
	err := h.manager.DeleteFolder(c.Request.Context(), filemanager.DeleteFolderOptions{
		Path:      *req.Path,
		Recursive: req.Recursive,
	}, ac)
	h.respondEmpty(c, err)
}

func (h *Handler[F, D]) GetFolderLock(c *gin.Context) {
	var req pathRequest
	if !h.bind(c, &req) {
		return
	}
	ac, ok := h.identity(c)
	if !ok {
		return
	}
	out, err := h.manager.GetFolderLock(c.Request.Context(), filemanager.FolderLockOptions{Path: *req.Path}, ac)
	h.respond(c, out, err)
}

func (h *Handler[F, D]) DeleteFiles(c *gin.Context) {
	var req deleteFilesRequest
	if !h.bind(c, &req) {
		return
	}
	if req.Paths == nil && req.Items == nil {
		h.fail(c, errors.InvalidBody("Expected 'paths' or 'items' to be provided"))
		return
	}
	ac, ok := h.identity(c)
	if !ok {
		return
	}
	h.respondEmpty(c, h.manager.DeleteFiles(c.Request.Context(), req.options(), ac))
}

func (h *Handler[F, D]) Copy(c *gin.Context) {
	var req transferRequest
	if !h.bind(c, &req) {
		return
	}
	ac, ok := h.identity(c)
	if !ok {
		return
	}
	h.respondEmpty(c, h.manager.Copy(c.Request.Context(), req.options(), ac))
}

func (h *Handler[F, D]) Move(c *gin.Context) {
	var req transferRequest
	if !h.bind(c, &req) {
		return
	}
	ac, ok := h.identity(c)
	if !ok {
		return
	}
	h.respondEmpty(c, h.manager.Move(c.Request.Context(), req.options(), ac))
}

func (h *Handler[F, D]) PrepareUploads(c *gin.Context) {
	var req prepareUploadsRequest
	if !h.bind(c, &req) {
		return
	}
	ac, ok := h.identity(c)
	if !ok {
		return
	}
	out, err := h.manager.PrepareUploads(c.Request.Context(), req.options(), ac)
	h.respond(c, out, err)
}

func (h *Handler[F, D]) Preview(c *gin.Context) {
	var req previewRequest
	if !h.bind(c, &req) {
		return
	}
	ac, ok := h.identity(c)
	if !ok {
		return
	}
	out, err := h.manager.GetPreviewURL(c.Request.Context(), req.options(), ac)
	h.respond(c, out, err)
}

func (h *Handler[F, D]) GetFileAttributes(c *gin.Context) {
	var req pathRequest
	if !h.bind(c, &req) {
		return
	}
	ac, ok := h.identity(c)
	if !ok {
		return
	}
	out, err := h.manager.GetFileAttributes(c.Request.Context(), filemanager.FileAttributesOptions{Path: *req.Path}, ac)
	h.respond(c, out, err)
}

func (h *Handler[F, D]) SetFileAttributes(c *gin.Context) {
	var req setAttributesRequest
	if !h.bind(c, &req) {
		return
	}
	ac, ok := h.identity(c)
	if !ok {
		return
	}
	out, err := h.manager.SetFileAttributes(c.Request.Context(), req.options(), ac)
	h.respond(c, out, err)
}

func (h *Handler[F, D]) bind(c *gin.Context, dst any) bool {
	if err := bind(c, dst); err != nil {
		h.fail(c, err)
		return false
	}
	return true
}

func (h *Handler[F, D]) identity(c *gin.Context) (*authz.Context, bool) {
	ac, err := h.contextFn(c.Request)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	if ac == nil {
		ac = &authz.Context{}
	}
	return ac, true
}

func (h *Handler[F, D]) respond(c *gin.Context, out any, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	server.RespondOK(c, out)
}

func (h *Handler[F, D]) respondEmpty(c *gin.Context, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	server.RespondNoContent(c)
}

func (h *Handler[F, D]) fail(c *gin.Context, err error) {
	appErr := errors.From(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		h.log.WithContext(c.Request.Context()).WithError(err).Error("File manager request failed", map[string]interface{}{
			"route": c.FullPath(),
		})
	}
	server.RespondWithError(c, appErr)
}
