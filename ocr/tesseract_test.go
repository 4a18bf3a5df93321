package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestTesseract(t *testing.T, run runFunc) *Tesseract {
	t.Helper()
	return &Tesseract{
		binary:   "tesseract",
		dataDir:  "/opt/tessdata",
		language: DefaultLanguage,
		tempDir:  t.TempDir(),
		run:      run,
	}
}

func TestRecognize(t *testing.T) {
	var gotArgs []string
	var gotImage []byte
	tess := newTestTesseract(t, func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = args
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, err
		}
		gotImage = data
		return []byte("  Разрешить доступ к камере?\n\n"), nil
	})

	text, err := tess.Recognize(context.Background(), []byte("png-bytes"))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if text != "Разрешить доступ к камере?" {
		t.Errorf("text = %q", text)
	}
	if string(gotImage) != "png-bytes" {
		t.Errorf("image = %q", gotImage)
	}

	base := filepath.Base(gotArgs[0])
	if !strings.HasPrefix(base, "ocr_temp_") || !strings.HasSuffix(base, ".png") {
		t.Errorf("temp file name = %s", base)
	}
	want := []string{"stdout", "-l", "rus+eng", "--tessdata-dir", "/opt/tessdata"}
	if strings.Join(gotArgs[1:], " ") != strings.Join(want, " ") {
		t.Errorf("args = %v", gotArgs[1:])
	}
}

func TestRecognizeRemovesTempFile(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"success", nil},
		{"failure", errors.New("exit status 1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tess := newTestTesseract(t, func(ctx context.Context, name string, args ...string) ([]byte, error) {
				return []byte("text"), tt.err
			})
			_, err := tess.Recognize(context.Background(), []byte("x"))
			if (err != nil) != (tt.err != nil) {
				t.Fatalf("err = %v", err)
			}
			entries, _ := os.ReadDir(tess.tempDir)
			if len(entries) != 0 {
				t.Errorf("temp dir not empty: %d entries", len(entries))
			}
		})
	}
}

func TestNewTesseractMissingDataDir(t *testing.T) {
	_, err := NewTesseract(filepath.Join(t.TempDir(), "missing"), "")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "tessdata") {
		t.Errorf("err = %v", err)
	}
}

func TestNewTesseractFileAsDataDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(f, nil, 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewTesseract(f, ""); err == nil {
		t.Fatal("expected error")
	}
}
