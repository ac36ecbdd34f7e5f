package plot

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Gummygamer/smartraspberrytermometer/internal/forecast"
)

// FileWriter renders charts to a fixed path. The file is replaced atomically
// so a viewer never sees a half-written SVG.
type FileWriter struct {
	Path string
}

func (f FileWriter) Write(series []float64, pred *forecast.Prediction) error {
	var buf bytes.Buffer
	if err := Render(&buf, series, pred); err != nil {
		return err
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".chart-*.svg")
	if err != nil {
		return fmt.Errorf("create temp chart: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write chart: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close chart: %w", err)
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename chart to %s: %w", f.Path, err)
	}
	return nil
}
