package models

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// extraTypes covers image formats the mime package does not know on every platform.
var extraTypes = map[string]string{
	".heic": "image/heic",
	".heif": "image/heif",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// DetectMIMEType guesses the MIME type of a file the way a browser file picker does:
// by extension first, then by sniffing the leading bytes.
func DetectMIMEType(name string, head []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := extraTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if mt, _, err := mime.ParseMediaType(t); err == nil {
			return mt
		}
		return t
	}
	if len(head) == 0 {
		return "application/octet-stream"
	}
	t := http.DetectContentType(head)
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return t
}

// SourceFileFromPath describes a file on disk as a SourceFile.
func SourceFileFromPath(path string) (SourceFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return SourceFile{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return SourceFile{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.IsDir() {
		return SourceFile{}, fmt.Errorf("%s is a directory", path)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return SourceFile{}, fmt.Errorf("reading %s: %w", path, err)
	}

	return SourceFile{
		Name:     filepath.Base(path),
		MIMEType: DetectMIMEType(path, head[:n]),
		Size:     st.Size(),
		Source: OpenFunc(func() (io.ReadCloser, error) {
			return os.Open(path)
		}),
	}, nil
}
