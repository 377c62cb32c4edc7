package staging

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nodewee/image-to-jp2/pkg/constants"
	"github.com/nodewee/image-to-jp2/pkg/utils"
)

func TestNeedsStaging(t *testing.T) {
	s := NewPNMStager(nil)
	for ext, want := range map[string]bool{
		"jpg": true, "jpeg": true, "tif": false, "tiff": false, "png": false,
	} {
		if got := s.NeedsStaging(ext); got != want {
			t.Errorf("NeedsStaging(%q) = %v, want %v", ext, got, want)
		}
	}
}

func TestStage_ColourJPEGBecomesPPM(t *testing.T) {
	input := writeJPEG(t, t.TempDir(), "photo.jpg", colourImage(16, 8))
	tempDir := t.TempDir()
	tm := utils.NewSimpleTempManager(tempDir, nil)

	staged, err := NewPNMStager(nil).Stage(context.Background(), input, tm)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}

	name := filepath.Base(staged)
	if !strings.HasPrefix(name, constants.StagedFilePrefix) || !strings.HasSuffix(name, constants.StagedColorExtension) {
		t.Errorf("unexpected staged name %q", name)
	}
	if filepath.Dir(staged) != tempDir {
		t.Errorf("staged file %q not in temp dir %q", staged, tempDir)
	}

	magic, w, h, pix := readPNM(t, staged)
	if magic != "P6" || w != 16 || h != 8 {
		t.Fatalf("header = %s %dx%d, want P6 16x8", magic, w, h)
	}
	// Three samples per pixel, no alpha
	if len(pix) != 3*16*8 {
		t.Fatalf("got %d sample bytes, want %d", len(pix), 3*16*8)
	}

	decoded := decodeFile(t, input)
	want := color.RGBAModel.Convert(decoded.At(5, 3)).(color.RGBA)
	i := 3 * (3*16 + 5)
	if pix[i] != want.R || pix[i+1] != want.G || pix[i+2] != want.B {
		t.Errorf("pixel (5,3) = %v, want %v", pix[i:i+3], want)
	}

	// Input untouched, staged file removed by cleanup.
	if _, err := os.Stat(input); err != nil {
		t.Errorf("input removed: %v", err)
	}
	if err := tm.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Errorf("staged file still exists after cleanup")
	}
}

func TestStage_GrayJPEGBecomesPGM(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 6, 4))
	for i := range gray.Pix {
		gray.Pix[i] = uint8(i * 9)
	}
	input := writeJPEG(t, t.TempDir(), "page.jpeg", gray)
	tm := utils.NewSimpleTempManager(t.TempDir(), nil)
	defer tm.Cleanup()

	staged, err := NewPNMStager(nil).Stage(context.Background(), input, tm)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if !strings.HasSuffix(staged, constants.StagedGrayExtension) {
		t.Errorf("staged %q, want %s", staged, constants.StagedGrayExtension)
	}

	magic, w, h, pix := readPNM(t, staged)
	if magic != "P5" || w != 6 || h != 4 || len(pix) != 6*4 {
		t.Errorf("got %s %dx%d with %d bytes, want P5 6x4 with 24", magic, w, h, len(pix))
	}
}

func TestEncodePNM_DropsAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(2, 3, 4, 4))
	img.Set(2, 3, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.Set(3, 3, color.NRGBA{R: 40, G: 50, B: 60, A: 255})

	var buf bytes.Buffer
	if err := EncodePNM(&buf, img); err != nil {
		t.Fatal(err)
	}
	want := append([]byte("P6\n2 1\n255\n"), 10, 20, 30, 40, 50, 60)
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("EncodePNM = %q, want %q", buf.Bytes(), want)
	}

	if err := EncodePNM(io.Discard, image.NewGray(image.Rect(0, 0, 0, 0))); err == nil {
		t.Error("expected error for empty image")
	}
}

func TestStagedExtension(t *testing.T) {
	if got := StagedExtension(image.NewGray(image.Rect(0, 0, 1, 1))); got != ".pgm" {
		t.Errorf("gray: %q", got)
	}
	if got := StagedExtension(image.NewYCbCr(image.Rect(0, 0, 1, 1), image.YCbCrSubsampleRatio420)); got != ".ppm" {
		t.Errorf("ycbcr: %q", got)
	}
}

func TestStage_UniqueNames(t *testing.T) {
	input := writeJPEG(t, t.TempDir(), "photo.jpg", colourImage(4, 4))
	tm := utils.NewSimpleTempManager(t.TempDir(), nil)
	defer tm.Cleanup()

	s := NewPNMStager(nil)
	a, err := s.Stage(context.Background(), input, tm)
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Stage(context.Background(), input, tm)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("two stagings share a path: %s", a)
	}
}

func TestStage_CorruptInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "broken.jpg")
	if err := os.WriteFile(input, []byte("not a jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	tempDir := t.TempDir()
	tm := utils.NewSimpleTempManager(tempDir, nil)

	_, err := NewPNMStager(nil).Stage(context.Background(), input, tm)
	if err == nil {
		t.Fatal("expected error")
	}
	if !utils.IsErrorType(err, utils.ErrorTypeConversion) {
		t.Errorf("error type = %s, want conversion", utils.GetErrorType(err))
	}

	entries, _ := os.ReadDir(tempDir)
	if len(entries) != 0 {
		t.Errorf("temp dir not empty after failed staging: %v", entries)
	}
}

func TestStage_Cancelled(t *testing.T) {
	input := writeJPEG(t, t.TempDir(), "photo.jpg", colourImage(4, 4))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tm := utils.NewSimpleTempManager(t.TempDir(), nil)
	if _, err := NewPNMStager(nil).Stage(ctx, input, tm); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func colourImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 20), B: 128, A: 255})
		}
	}
	return img
}

func writeJPEG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}
	return path
}

func decodeFile(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := jpeg.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	return img
}

// readPNM parses a binary PNM header and returns the raw samples
func readPNM(t *testing.T, path string) (magic string, w, h int, pix []byte) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var maxval int
	if _, err := fmt.Fscan(r, &magic, &w, &h, &maxval); err != nil {
		t.Fatalf("header: %v", err)
	}
	if maxval != 255 {
		t.Fatalf("maxval = %d, want 255", maxval)
	}
	if _, err := r.ReadByte(); err != nil {
		t.Fatal(err)
	}
	pix, err = io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return magic, w, h, pix
}
