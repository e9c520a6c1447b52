package httpapi

import (
	"time"

	"github.com/kbukum/s3fm/filemanager"
)

// Required string fields are pointers so an empty string (the root path)
// is accepted while an absent field is not.

type listRequest struct {
	Path   *string `json:"path" validate:"required"`
	Cursor string  `json:"cursor"`
	Limit  int32   `json:"limit" validate:"gte=0"`
}

func (r listRequest) options() filemanager.ListOptions {
	return filemanager.ListOptions{Path: *r.Path, Cursor: r.Cursor, Limit: r.Limit}
}

type searchRequest struct {
	Query     *string `json:"query" validate:"required"`
	Path      string  `json:"path"`
	Recursive *bool   `json:"recursive"`
	Limit     int     `json:"limit" validate:"gte=0"`
	Cursor    string  `json:"cursor"`
}

func (r searchRequest) options() filemanager.SearchOptions {
	return filemanager.SearchOptions{
		Query:     *r.Query,
		Path:      r.Path,
		Recursive: r.Recursive,
		Limit:     r.Limit,
		Cursor:    r.Cursor,
	}
}

type pathRequest struct {
	Path *string `json:"path" validate:"required"`
}

type deleteFolderRequest struct {
	Path      *string `json:"path" validate:"required"`
	Recursive bool    `json:"recursive"`
}

type deleteItem struct {
	Path        *string `json:"path" validate:"required"`
	IfMatch     string  `json:"ifMatch"`
	IfNoneMatch string  `json:"ifNoneMatch"`
}

type deleteFilesRequest struct {
	Paths []string     `json:"paths"`
	Items []deleteItem `json:"items" validate:"dive"`
}

func (r deleteFilesRequest) options() filemanager.DeleteFilesOptions {
	opts := filemanager.DeleteFilesOptions{Paths: r.Paths}
	for _, it := range r.Items {
		opts.Items = append(opts.Items, filemanager.DeleteItem{
			Path:        *it.Path,
			IfMatch:     it.IfMatch,
			IfNoneMatch: it.IfNoneMatch,
		})
	}
	return opts
}

type transferRequest struct {
	FromPath *string `json:"fromPath" validate:"required"`
	ToPath   *string `json:"toPath" validate:"required"`
	IfMatch  string  `json:"ifMatch"`
}

func (r transferRequest) options() filemanager.CopyOptions {
	return filemanager.CopyOptions{FromPath: *r.FromPath, ToPath: *r.ToPath, IfMatch: r.IfMatch}
}

type uploadItem struct {
	Path               *string           `json:"path" validate:"required"`
	ContentType        string            `json:"contentType"`
	CacheControl       string            `json:"cacheControl"`
	ContentDisposition string            `json:"contentDisposition"`
	Metadata           map[string]string `json:"metadata"`
	ExpiresAt          *time.Time        `json:"expiresAt"`
	IfNoneMatch        string            `json:"ifNoneMatch"`
}

type prepareUploadsRequest struct {
	Items            []uploadItem `json:"items" validate:"required,dive"`
	ExpiresInSeconds int          `json:"expiresInSeconds" validate:"gte=0"`
}

func (r prepareUploadsRequest) options() filemanager.PrepareUploadsOptions {
	opts := filemanager.PrepareUploadsOptions{
		Items:            make([]filemanager.UploadItem, 0, len(r.Items)),
		ExpiresInSeconds: r.ExpiresInSeconds,
	}
	for _, it := range r.Items {
		opts.Items = append(opts.Items, filemanager.UploadItem{
			Path:               *it.Path,
			ContentType:        it.ContentType,
			CacheControl:       it.CacheControl,
			ContentDisposition: it.ContentDisposition,
			Metadata:           it.Metadata,
			ExpiresAt:          it.ExpiresAt,
			IfNoneMatch:        it.IfNoneMatch,
		})
	}
	return opts
}

type previewRequest struct {
	Path             *string `json:"path" validate:"required"`
	ExpiresInSeconds int     `json:"expiresInSeconds" validate:"gte=0"`
	Inline           bool    `json:"inline"`
}

func (r previewRequest) options() filemanager.PreviewOptions {
	return filemanager.PreviewOptions{Path: *r.Path, ExpiresInSeconds: r.ExpiresInSeconds, Inline: r.Inline}
}

type setAttributesRequest struct {
	Path               *string                  `json:"path" validate:"required"`
	ContentType        *string                  `json:"contentType"`
	CacheControl       *string                  `json:"cacheControl"`
	ContentDisposition *string                  `json:"contentDisposition"`
	Metadata           map[string]string        `json:"metadata"`
	ExpiresAt          filemanager.OptionalTime `json:"expiresAt"`
	IfMatch            string                   `json:"ifMatch"`
}

func (r setAttributesRequest) options() filemanager.SetFileAttributesOptions {
	return filemanager.SetFileAttributesOptions{
		Path:               *r.Path,
		ContentType:        r.ContentType,
		CacheControl:       r.CacheControl,
		ContentDisposition: r.ContentDisposition,
		Metadata:           r.Metadata,
		ExpiresAt:          r.ExpiresAt,
		IfMatch:            r.IfMatch,
	}
}
