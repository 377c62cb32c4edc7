// Package staging converts inputs the JP2 encoders cannot read into
// intermediates they read natively.
package staging

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"

	"github.com/nodewee/image-to-jp2/pkg/constants"
	"github.com/nodewee/image-to-jp2/pkg/interfaces"
	"github.com/nodewee/image-to-jp2/pkg/logger"
	"github.com/nodewee/image-to-jp2/pkg/utils"
)

// PNMStager rewrites JPEG inputs as binary PPM (colour) or PGM (grayscale)
// files. Both kdu_compress and opj_compress read these directly, and they
// carry exactly the source components, with no alpha channel.
type PNMStager struct {
	logger *logger.Logger
}

// Ensure PNMStager implements Stager interface
var _ interfaces.Stager = (*PNMStager)(nil)

// NewPNMStager creates a JPEG to PNM stager
func NewPNMStager(log *logger.Logger) *PNMStager {
	if log == nil {
		log = logger.Discard()
	}
	return &PNMStager{logger: log}
}

// NeedsStaging reports whether files with the given extension must be staged
func (s *PNMStager) NeedsStaging(extension string) bool {
	return constants.StagedExtensions[extension]
}

// Stage decodes the JPEG at inputPath and writes it to a new temp PPM or PGM
func (s *PNMStager) Stage(ctx context.Context, inputPath string, temp interfaces.TempFileManager) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", utils.NewConversionError("staging cancelled", err)
	}

	img, err := decodeJPEG(inputPath)
	if err != nil {
		return "", utils.NewConversionError(fmt.Sprintf("cannot decode %s", filepath.Base(inputPath)), err).
			WithContext("input", inputPath)
	}

	stagedPath, err := temp.CreateTempFile(constants.StagedFilePrefix, StagedExtension(img))
	if err != nil {
		return "", utils.NewConversionError("cannot allocate staging file", err)
	}

	if err := ctx.Err(); err != nil {
		s.release(temp, stagedPath)
		return "", utils.NewConversionError("staging cancelled", err)
	}

	if err := writeFile(stagedPath, img); err != nil {
		s.release(temp, stagedPath)
		return "", utils.NewConversionError(fmt.Sprintf("cannot write intermediate for %s", filepath.Base(inputPath)), err).
			WithContext("input", inputPath)
	}

	s.logger.Debug("Staged %s as %s", inputPath, stagedPath)
	return stagedPath, nil
}

// StagedExtension returns the intermediate extension used for img
func StagedExtension(img image.Image) string {
	if _, ok := img.(*image.Gray); ok {
		return constants.StagedGrayExtension
	}
	return constants.StagedColorExtension
}

func (s *PNMStager) release(temp interfaces.TempFileManager, path string) {
	if err := temp.Release(path); err != nil {
		s.logger.Warn("Failed to remove partial staging file %s: %v", path, err)
	}
}

func decodeJPEG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return jpeg.Decode(bufio.NewReader(f))
}

func writeFile(path string, img image.Image) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if err := EncodePNM(w, img); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// EncodePNM writes img as 8-bit binary PGM (P5) when it is grayscale and as
// binary PPM (P6) otherwise.
func EncodePNM(w io.Writer, img image.Image) error {
	b := img.Bounds()
	if b.Empty() {
		return fmt.Errorf("empty image")
	}

	if gray, ok := img.(*image.Gray); ok {
		if _, err := fmt.Fprintf(w, "P5\n%d %d\n255\n", b.Dx(), b.Dy()); err != nil {
			return err
		}
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := gray.PixOffset(b.Min.X, y)
			if _, err := w.Write(gray.Pix[i : i+b.Dx()]); err != nil {
				return err
			}
		}
		return nil
	}

	if _, err := fmt.Fprintf(w, "P6\n%d %d\n255\n", b.Dx(), b.Dy()); err != nil {
		return err
	}
	row := make([]byte, 3*b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			i := 3 * (x - b.Min.X)
			row[i], row[i+1], row[i+2] = c.R, c.G, c.B
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
