package storage

import (
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var contentTypes = map[string]string{
	".zip":  "application/zip",
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".mp4":  "video/mp4",
	".mp3":  "audio/mpeg",
}

// ContentType picks the upload content type from the extension and falls
// back to sniffing the bytes.
func ContentType(filename string, data []byte) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(filename))]; ok {
		return ct
	}
	if len(data) == 0 {
		return "application/octet-stream"
	}
	return mimetype.Detect(data).String()
}
