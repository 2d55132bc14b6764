// Package mimetype classifies filenames for display purposes. The result
// is advisory metadata only; nothing in the filesystem core depends on it
// for correctness.
package mimetype

import (
	"strings"

	"github.com/webdeskos/vfsd/internal/fspath"
)

// Info describes what a filename looks like.
type Info struct {
	MimeType string `json:"mimeType"`
	Icon     string `json:"icon"`
	IsText   bool   `json:"isText"`
	IsImage  bool   `json:"isImage"`
}

var byExtension = map[string]Info{
	".txt":  {MimeType: "text/plain", Icon: "text", IsText: true},
	".md":   {MimeType: "text/markdown", Icon: "text", IsText: true},
	".log":  {MimeType: "text/plain", Icon: "text", IsText: true},
	".ini":  {MimeType: "text/plain", Icon: "settings", IsText: true},
	".csv":  {MimeType: "text/csv", Icon: "table", IsText: true},
	".json": {MimeType: "application/json", Icon: "code", IsText: true},
	".xml":  {MimeType: "application/xml", Icon: "code", IsText: true},
	".html": {MimeType: "text/html", Icon: "code", IsText: true},
	".css":  {MimeType: "text/css", Icon: "code", IsText: true},
	".js":   {MimeType: "text/javascript", Icon: "code", IsText: true},
	".png":  {MimeType: "image/png", Icon: "image", IsImage: true},
	".jpg":  {MimeType: "image/jpeg", Icon: "image", IsImage: true},
	".jpeg": {MimeType: "image/jpeg", Icon: "image", IsImage: true},
	".gif":  {MimeType: "image/gif", Icon: "image", IsImage: true},
	".bmp":  {MimeType: "image/bmp", Icon: "image", IsImage: true},
	".ico":  {MimeType: "image/x-icon", Icon: "image", IsImage: true},
	".svg":  {MimeType: "image/svg+xml", Icon: "image", IsImage: true},
	".pdf":  {MimeType: "application/pdf", Icon: "document"},
	".zip":  {MimeType: "application/zip", Icon: "archive"},
	".exe":  {MimeType: "application/x-msdownload", Icon: "application"},
	".dll":  {MimeType: "application/x-msdownload", Icon: "binary"},
	".wav":  {MimeType: "audio/wav", Icon: "audio"},
	".mp3":  {MimeType: "audio/mpeg", Icon: "audio"},
	".mp4":  {MimeType: "video/mp4", Icon: "video"},
}

var unknown = Info{MimeType: "application/octet-stream", Icon: "file"}

// Classify returns display metadata for a filename. Pure function of the
// name; unknown extensions map to application/octet-stream.
func Classify(name string) Info {
	ext := strings.ToLower(fspath.Extname(name))
	if info, ok := byExtension[ext]; ok {
		return info
	}
	return unknown
}
