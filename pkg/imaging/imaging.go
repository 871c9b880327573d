// pkg/imaging/imaging.go
package imaging

import (
	"path/filepath"
	"strings"
)

const DefaultContentType = "application/octet-stream"

// Format describes a slide file type the uploader advertises.
type Format struct {
	Extension   string `json:"extension"`
	ContentType string `json:"contentType"`
	WholeSlide  bool   `json:"wholeSlide"`
}

// AcceptedFormats mirrors the file picker filter. The list is advisory:
// files with other extensions are still accepted.
var AcceptedFormats = []Format{
	{Extension: ".png", ContentType: "image/png"},
	{Extension: ".jpg", ContentType: "image/jpeg"},
	{Extension: ".jpeg", ContentType: "image/jpeg"},
	{Extension: ".tif", ContentType: "image/tiff"},
	{Extension: ".tiff", ContentType: "image/tiff"},
	{Extension: ".svs", ContentType: "image/x-aperio-svs", WholeSlide: true},
	{Extension: ".ndpi", ContentType: "image/x-hamamatsu-ndpi", WholeSlide: true},
}

// Lookup returns the advertised format for a file name by extension.
// Content is never inspected.
func Lookup(filename string) (Format, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range AcceptedFormats {
		if f.Extension == ext {
			return f, true
		}
	}
	return Format{Extension: ext, ContentType: DefaultContentType}, false
}

// AcceptAttribute renders the list for an HTML file input.
func AcceptAttribute() string {
	seen := map[string]bool{}
	var parts []string
	for _, f := range AcceptedFormats {
		value := f.ContentType
		if f.WholeSlide {
			value = f.Extension
		}
		if !seen[value] {
			seen[value] = true
			parts = append(parts, value)
		}
	}
	return strings.Join(parts, ",")
}
