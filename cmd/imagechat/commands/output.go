package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mhpenta/imagechat"
)

func loadImages(paths []string) ([]imagechat.ImageRef, error) {
	images := make([]imagechat.ImageRef, 0, len(paths))
	for _, p := range paths {
		img, err := imagechat.ImageFromFile(p)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

// saveRecord writes a generated image into dir and returns its path.
// Records that only carry a URL are not downloaded; the URL is returned
// instead.
func saveRecord(dir string, rec imagechat.GenerationRecord) (string, error) {
	data, err := rec.Decode()
	if errors.Is(err, imagechat.ErrNoImageData) {
		return rec.URL, nil
	}
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, rec.FileName())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path, nil
}

func printRecords(w io.Writer, dir string, result *imagechat.GenerationResult) error {
	if jsonOut {
		return printJSON(w, result)
	}
	for _, rec := range result.Records {
		where, err := saveRecord(dir, rec)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Saved: %s\n", where)
		if rec.RevisedPrompt != "" {
			fmt.Fprintf(w, "  revised prompt: %s\n", rec.RevisedPrompt)
		}
	}
	fmt.Fprintf(w, "Parameters: size=%s quality=%s background=%s\n",
		result.Parameters.Size, result.Parameters.Quality, result.Parameters.Background)
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
