package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const DefaultLanguage = "rus+eng"

// runFunc runs the tesseract binary with args and returns its stdout.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Tesseract recognizes text in screenshots with the tesseract CLI.
type Tesseract struct {
	binary   string
	dataDir  string
	language string
	tempDir  string
	run      runFunc
}

// NewTesseract checks that dataDir exists and the tesseract binary is on PATH.
func NewTesseract(dataDir, language string) (*Tesseract, error) {
	if language == "" {
		language = DefaultLanguage
	}
	info, err := os.Stat(dataDir)
	if err != nil {
		return nil, fmt.Errorf("tessdata directory not found: %s: %w", dataDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("tessdata path is not a directory: %s", dataDir)
	}
	bin, err := exec.LookPath("tesseract")
	if err != nil {
		return nil, fmt.Errorf("tesseract not installed: %w", err)
	}
	return &Tesseract{
		binary:   bin,
		dataDir:  dataDir,
		language: language,
		tempDir:  os.TempDir(),
		run:      runCommand,
	}, nil
}

// Recognize returns the trimmed text found in image.
func (t *Tesseract) Recognize(ctx context.Context, image []byte) (string, error) {
	tmp := filepath.Join(t.tempDir, "ocr_temp_"+uuid.NewString()+".png")
	if err := os.WriteFile(tmp, image, 0600); err != nil {
		return "", fmt.Errorf("write ocr input: %w", err)
	}
	defer func() {
		if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
			slog.Warn("remove ocr temp file failed", "path", tmp, "error", err)
		}
	}()

	out, err := t.run(ctx, t.binary, tmp, "stdout", "-l", t.language, "--tessdata-dir", t.dataDir)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	text := strings.TrimSpace(string(out))
	slog.Debug("ocr done", "chars", len(text))
	return text, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}
