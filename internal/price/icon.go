package price

import (
	"bytes"
	"encoding/base64"
	"html/template"
	"net/http"
	"strings"
)

// Icon is a product image ready to embed in a page.
type Icon struct {
	MIME   string `json:"mime"`
	Base64 string `json:"base64"`
}

// EncodeIcon base64-encodes stored icon bytes. ok is false when the bytes are
// empty or not recognizable image data; that is "no icon", not an error.
func EncodeIcon(data []byte) (Icon, bool) {
	mime, ok := sniffImage(data)
	if !ok {
		return Icon{}, false
	}
	return Icon{MIME: mime, Base64: base64.StdEncoding.EncodeToString(data)}, true
}

// DataURI returns the icon as a data: URI for an img src attribute.
func (i Icon) DataURI() template.URL {
	if i.Base64 == "" {
		return ""
	}
	return template.URL("data:" + i.MIME + ";base64," + i.Base64)
}

func sniffImage(data []byte) (string, bool) {
	if len(data) == 0 {
		return "", false
	}

	mime := http.DetectContentType(data)
	if strings.HasPrefix(mime, "image/") {
		return mime, true
	}

	head := bytes.ToLower(bytes.TrimSpace(data[:min(len(data), 512)]))
	if bytes.HasPrefix(head, []byte("<svg")) ||
		(bytes.HasPrefix(head, []byte("<?xml")) && bytes.Contains(head, []byte("<svg"))) {
		return "image/svg+xml", true
	}
	return "", false
}
