package imageprocessor

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/lmittmann/ppm"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
	"golang.org/x/image/tiff"
)

var signRed = color.RGBA{R: 250, G: 10, B: 0, A: 255}

// writeSolid encodes a single-color image to path
func writeSolid(t *testing.T, path string, width, height int, c color.RGBA, encode func(io.Writer, image.Image) error) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, encode(f, img))
}

func writePPM(t *testing.T, path string, width, height int, c color.RGBA) {
	t.Helper()
	writeSolid(t, path, width, height, c, func(w io.Writer, m image.Image) error {
		return ppm.Encode(w, m)
	})
}

// assertRGB checks the size of img and that its first pixel is c in RGB order
func assertRGB(t *testing.T, img gocv.Mat, width, height int, c color.RGBA) {
	t.Helper()
	assert.Equal(t, height, img.Rows())
	assert.Equal(t, width, img.Cols())
	require.Equal(t, 3, img.Channels())

	planes := gocv.Split(img)
	defer func() {
		for _, p := range planes {
			p.Close()
		}
	}()
	assert.Equal(t, c.R, planes[0].GetUCharAt(0, 0))
	assert.Equal(t, c.G, planes[1].GetUCharAt(0, 0))
	assert.Equal(t, c.B, planes[2].GetUCharAt(0, 0))
}

func TestLoadersDecodeRGB(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		loader ImageLoader
		encode func(io.Writer, image.Image) error
	}{
		{
			name:   "ppm",
			file:   "00000_00000.ppm",
			loader: &PPMImageLoader{},
			encode: func(w io.Writer, m image.Image) error { return ppm.Encode(w, m) },
		},
		{
			name:   "png",
			file:   "00000_00000.png",
			loader: &StandardImageLoader{},
			encode: png.Encode,
		},
		{
			name:   "tiff",
			file:   "00000_00000.tif",
			loader: &TiffImageLoader{},
			encode: func(w io.Writer, m image.Image) error { return tiff.Encode(w, m, nil) },
		},
	}

	registry := NewImageLoaderRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			writeSolid(t, path, 30, 20, signRed, tt.encode)
			require.IsType(t, tt.loader, registry.GetLoader(path))

			img, err := registry.LoadImage(path)
			require.NoError(t, err)
			defer img.Close()
			assertRGB(t, img, 30, 20, signRed)
		})
	}
}

func TestRegistryMissingFile(t *testing.T) {
	registry := NewImageLoaderRegistry()

	for _, name := range []string{"missing.ppm", "missing.png", "missing.tif"} {
		_, err := registry.LoadImage(filepath.Join(t.TempDir(), name))
		assert.True(t, errors.Is(err, os.ErrNotExist), "%s: got %v", name, err)
	}
}

func TestRegistryCorruptPPM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.ppm")
	require.NoError(t, os.WriteFile(path, []byte("P6\n4 4\n255\nabc"), 0o644))

	img, err := NewImageLoaderRegistry().LoadImage(path)
	defer img.Close()
	require.Error(t, err)
	assert.False(t, errors.Is(err, os.ErrNotExist))
}

func TestRegistryRejectsUnsupportedExtension(t *testing.T) {
	// valid PPM content behind an extension no loader claims
	path := filepath.Join(t.TempDir(), "00000_00000.gif")
	writePPM(t, path, 4, 4, signRed)

	img, err := NewImageLoaderRegistry().LoadImage(path)
	defer img.Close()
	require.Error(t, err)
	assert.False(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), `".gif"`)
	assert.Contains(t, err.Error(), ".ppm")
}

func TestRegistryLoaderSelection(t *testing.T) {
	registry := NewImageLoaderRegistry()

	assert.IsType(t, &PPMImageLoader{}, registry.GetLoader("a/00001_00002.PPM"))
	assert.IsType(t, &TiffImageLoader{}, registry.GetLoader("scan.tiff"))
	assert.IsType(t, &StandardImageLoader{}, registry.GetLoader("photo.jpg"))
	assert.IsType(t, &StandardImageLoader{}, registry.GetLoader("unknown.xyz"))

	assert.True(t, registry.CanLoadFile("x.ppm"))
	assert.False(t, registry.CanLoadFile("x.xyz"))
}

func TestFormats(t *testing.T) {
	assert.Equal(t, FormatPPM, GetFileFormat("00000_00001.ppm"))
	assert.Equal(t, FormatUnknown, GetFileFormat("GT-00000.csv"))
	assert.True(t, IsImageFile("a.PNG"))
	assert.False(t, IsImageFile("a.csv"))
	assert.Contains(t, GetSupportedExtensions(), ".ppm")
}

func TestBaseLoaderCanLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sign.ppm")
	writePPM(t, path, 2, 2, color.RGBA{A: 255})

	loader := NewPPMImageLoader()
	assert.True(t, loader.CanLoad(path))
	assert.False(t, loader.CanLoad(filepath.Join(dir, "other.ppm")))
	assert.False(t, loader.CanLoad(filepath.Join(dir, "sign.png")))
}
