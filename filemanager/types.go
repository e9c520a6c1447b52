package filemanager

import (
	"encoding/json"
	"fmt"
	"time"
)

// EntryType discriminates the Entry union on the wire.
type EntryType string

const (
	EntryTypeFile   EntryType = "file"
	EntryTypeFolder EntryType = "folder"
)

// FileEntry is a listed object. Extra is set by Hooks.DecorateFile.
type FileEntry[F any] struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         *int64 `json:"size,omitempty"`
	LastModified string `json:"lastModified,omitempty"`
	ETag         string `json:"etag,omitempty"`
	ContentType  string `json:"contentType,omitempty"`
	ExpiresAt    string `json:"expiresAt,omitempty"`
	Extra        F      `json:"extra,omitempty"`
}

// FolderEntry is a folder. Path always ends with the delimiter.
type FolderEntry[D any] struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	Extra D      `json:"extra,omitempty"`
}

// Entry holds exactly one of File or Folder.
type Entry[F, D any] struct {
	File   *FileEntry[F]
	Folder *FolderEntry[D]
}

// FileOf wraps a file entry.
func FileOf[F, D any](f *FileEntry[F]) Entry[F, D] { return Entry[F, D]{File: f} }

// FolderOf wraps a folder entry.
func FolderOf[F, D any](d *FolderEntry[D]) Entry[F, D] { return Entry[F, D]{Folder: d} }

func (e Entry[F, D]) Type() EntryType {
	if e.Folder != nil {
		return EntryTypeFolder
	}
	return EntryTypeFile
}

func (e Entry[F, D]) IsFolder() bool { return e.Folder != nil }

func (e Entry[F, D]) Path() string {
	if e.Folder != nil {
		return e.Folder.Path
	}
	if e.File != nil {
		return e.File.Path
	}
	return ""
}

func (e Entry[F, D]) Name() string {
	if e.Folder != nil {
		return e.Folder.Name
	}
	if e.File != nil {
		return e.File.Name
	}
	return ""
}

// MarshalJSON flattens the variant and adds the "type" discriminator.
func (e Entry[F, D]) MarshalJSON() ([]byte, error) {
	switch {
	case e.Folder != nil:
		return json.Marshal(struct {
			Type EntryType `json:"type"`
			*FolderEntry[D]
		}{EntryTypeFolder, e.Folder})
	case e.File != nil:
		return json.Marshal(struct {
			Type EntryType `json:"type"`
			*FileEntry[F]
		}{EntryTypeFile, e.File})
	default:
		return nil, fmt.Errorf("filemanager: empty entry")
	}
}

// UnmarshalJSON selects the variant from the "type" field.
func (e *Entry[F, D]) UnmarshalJSON(data []byte) error {
	var head struct {
		Type EntryType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	switch head.Type {
	case EntryTypeFolder:
		var d FolderEntry[D]
		if err := json.Unmarshal(data, &d); err != nil {
			return err
		}
		*e = Entry[F, D]{Folder: &d}
	case EntryTypeFile:
		var f FileEntry[F]
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*e = Entry[F, D]{File: &f}
	default:
		return fmt.Errorf("filemanager: unknown entry type %q", head.Type)
	}
	return nil
}

type ListOptions struct {
	Path   string `json:"path"`
	Cursor string `json:"cursor,omitempty"`
	Limit  int32  `json:"limit,omitempty"`
}

type ListResult[F, D any] struct {
	Path       string        `json:"path"`
	Entries    []Entry[F, D] `json:"entries"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

type SearchOptions struct {
	Query string `json:"query"`
	Path  string `json:"path,omitempty"`
	// Recursive defaults to true when nil.
	Recursive *bool  `json:"recursive,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Cursor    string `json:"cursor,omitempty"`
}

type SearchResult[F, D any] struct {
	Query      string        `json:"query"`
	Entries    []Entry[F, D] `json:"entries"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

type CreateFolderOptions struct {
	Path string `json:"path"`
}

type DeleteFolderOptions struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive,omitempty"`
}

// DeleteItem is a conditional single-file delete.
type DeleteItem struct {
	Path        string `json:"path"`
	IfMatch     string `json:"ifMatch,omitempty"`
	IfNoneMatch string `json:"ifNoneMatch,omitempty"`
}

func (i DeleteItem) conditional() bool { return i.IfMatch != "" || i.IfNoneMatch != "" }

type DeleteFilesOptions struct {
	Paths []string     `json:"paths,omitempty"`
	Items []DeleteItem `json:"items,omitempty"`
}

type CopyOptions struct {
	FromPath string `json:"fromPath"`
	ToPath   string `json:"toPath"`
	// IfMatch pins the source ETag of a single-file copy.
	IfMatch string `json:"ifMatch,omitempty"`
}

type MoveOptions = CopyOptions

// UploadItem describes one file to presign an upload for.
type UploadItem struct {
	Path               string            `json:"path"`
	ContentType        string            `json:"contentType,omitempty"`
	CacheControl       string            `json:"cacheControl,omitempty"`
	ContentDisposition string            `json:"contentDisposition,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
	ExpiresAt          *time.Time        `json:"expiresAt,omitempty"`
	// IfNoneMatch "*" makes the upload fail when the key already exists.
	IfNoneMatch string `json:"ifNoneMatch,omitempty"`
}

type PrepareUploadsOptions struct {
	Items            []UploadItem `json:"items"`
	ExpiresInSeconds int          `json:"expiresInSeconds,omitempty"`
}

// PreparedUpload is a presigned PUT plus the headers the client must send.
type PreparedUpload struct {
	Path    string            `json:"path"`
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
}

type PreviewOptions struct {
	Path             string `json:"path"`
	ExpiresInSeconds int    `json:"expiresInSeconds,omitempty"`
	Inline           bool   `json:"inline,omitempty"`
}

// PreviewURL is a presigned GET and its absolute expiry.
type PreviewURL struct {
	Path      string `json:"path"`
	URL       string `json:"url"`
	ExpiresAt string `json:"expiresAt"`
}

type FolderLockOptions struct {
	Path string `json:"path"`
}

// FolderLock is the JSON document stored while a folder move runs.
type FolderLock struct {
	Path      string `json:"path"`
	Operation string `json:"operation"`
	FromPath  string `json:"fromPath"`
	ToPath    string `json:"toPath"`
	StartedAt string `json:"startedAt"`
	ExpiresAt string `json:"expiresAt"`
	Owner     string `json:"owner,omitempty"`
}

type FileAttributesOptions struct {
	Path string `json:"path"`
}

type FileAttributes struct {
	Path               string            `json:"path"`
	Size               *int64            `json:"size,omitempty"`
	LastModified       string            `json:"lastModified,omitempty"`
	ETag               string            `json:"etag,omitempty"`
	ContentType        string            `json:"contentType,omitempty"`
	CacheControl       string            `json:"cacheControl,omitempty"`
	ContentDisposition string            `json:"contentDisposition,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
	ExpiresAt          string            `json:"expiresAt,omitempty"`
}

// OptionalTime distinguishes an absent field from an explicit null.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

// UnmarshalJSON marks the field as present; "null" leaves Value nil.
func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	o.Value = &t
	return nil
}

// SetFileAttributesOptions edits object attributes. Nil pointer fields keep
// the current value. ExpiresAt set to null clears the Expires header.
type SetFileAttributesOptions struct {
	Path               string            `json:"path"`
	ContentType        *string           `json:"contentType,omitempty"`
	CacheControl       *string           `json:"cacheControl,omitempty"`
	ContentDisposition *string           `json:"contentDisposition,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
	ExpiresAt          OptionalTime      `json:"expiresAt"`
	IfMatch            string            `json:"ifMatch,omitempty"`
}

// formatTime renders t as RFC 3339 UTC with millisecond precision.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// MarshalJSON writes null unless a time is set.
func (o OptionalTime) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}
