package imagechat

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ImageFromBytes encodes raw image bytes into an ImageRef. An empty mimeType
// is sniffed from the data.
func ImageFromBytes(data []byte, mimeType string) ImageRef {
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return ImageRef{
		EncodedData: base64.StdEncoding.EncodeToString(data),
		MIMEType:    mimeType,
	}
}

// ImageFromFile reads an image file into an ImageRef, taking the MIME type
// from the file extension.
func ImageFromFile(path string) (ImageRef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImageRef{}, fmt.Errorf("read image: %w", err)
	}
	return ImageFromBytes(data, GetMIMEType(path)), nil
}

// Decode returns the raw bytes of a record's inline image. Records that only
// carry a URL return ErrNoImageData.
func (r GenerationRecord) Decode() ([]byte, error) {
	if r.EncodedData == "" {
		return nil, ErrNoImageData
	}
	data, err := base64.StdEncoding.DecodeString(r.EncodedData)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", r.ID, err)
	}
	return data, nil
}

// FileName returns "<id>.<ext>" for a record, with the extension sniffed
// from the image data.
func (r GenerationRecord) FileName() string {
	ext := "png"
	if data, err := r.Decode(); err == nil {
		ext = extensionFromMIME(http.DetectContentType(data))
	}
	return r.ID + "." + ext
}

// GetMIMEType guesses an image MIME type from a file extension.
func GetMIMEType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/png"
	}
}

// extensionFromMIME returns a file extension for common image MIME types.
func extensionFromMIME(mime string) string {
	switch mime {
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "png"
	}
}
