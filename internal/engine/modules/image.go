package modules

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	"github.com/banksean/snowland/internal/engine"
	"github.com/banksean/snowland/internal/ipc"
)

const imageTypeName = "Image"

// ImageConfig draws a raster image loaded from a local path, with an
// optional paint override. Grounded on
// original_source/universal/src/scene/module/image.rs.
type ImageConfig struct {
	Position     engine.ModulePosition
	Path         string
	PaintEnabled bool
	Paint        engine.Paint
}

func defaultImageConfig() ImageConfig {
	return ImageConfig{Paint: engine.DefaultPaint()}
}

// decodedImage wraps the stdlib image.Image to satisfy engine.Image.
type decodedImage struct {
	img image.Image
}

func (d decodedImage) Width() int  { return d.img.Bounds().Dx() }
func (d decodedImage) Height() int { return d.img.Bounds().Dy() }

type imageRenderer struct {
	currentPath  string
	currentImage *decodedImage
}

func newImageRenderer() engine.Renderer[ImageConfig] { return &imageRenderer{} }

func (r *imageRenderer) Render(config ImageConfig, data *engine.SceneData) {
	if r.currentPath != config.Path {
		r.currentImage = nil
		r.currentPath = config.Path

		if r.currentPath == "" {
			return
		}

		f, err := os.Open(r.currentPath)
		if err != nil {
			slog.Error("modules: failed to read image", "path", r.currentPath, "error", err)
			return
		}
		defer f.Close()

		img, _, err := image.Decode(f)
		if err != nil {
			slog.Error("modules: failed to decode image", "path", r.currentPath, "error", err)
			return
		}

		r.currentImage = &decodedImage{img: img}
	}

	if r.currentImage == nil {
		return
	}

	x, y, ok := config.Position.ComputePosition(data, int32(r.currentImage.Width()), int32(r.currentImage.Height()))
	if !ok {
		return
	}

	var paint *engine.Paint
	if config.PaintEnabled {
		paint = &config.Paint
	}

	data.Canvas().DrawImage(r.currentImage, int(x), int(y), paint)
}

const (
	imageFieldPosition     = "position"
	imageFieldPath         = "path"
	imageFieldPaintEnabled = "paint_enabled"
	imageFieldPaint        = "paint"
)

func imageConfigToStructure(c ImageConfig) (ipc.Structure, error) {
	obj := ipc.NewOrderedObject()
	obj.Set(imageFieldPosition, c.Position.ToStructure())
	obj.Set(imageFieldPath, ipc.StringValue(c.Path))
	obj.Set(imageFieldPaintEnabled, ipc.BoolValue(c.PaintEnabled))
	obj.Set(imageFieldPaint, engine.PaintToStructure(c.Paint))
	return ipc.ObjectValue(obj), nil
}

func imageConfigFromStructure(s ipc.Structure) (ImageConfig, error) {
	posVal, ok := lookupField(s, imageFieldPosition)
	if !ok {
		return ImageConfig{}, fieldError(imageTypeName, imageFieldPosition)
	}
	position, err := engine.ModulePositionFromStructure(posVal)
	if err != nil {
		return ImageConfig{}, err
	}

	path, err := stringField(s, imageTypeName, imageFieldPath)
	if err != nil {
		return ImageConfig{}, err
	}

	paintEnabled, err := boolField(s, imageTypeName, imageFieldPaintEnabled)
	if err != nil {
		return ImageConfig{}, err
	}

	paintVal, ok := lookupField(s, imageFieldPaint)
	if !ok {
		return ImageConfig{}, fieldError(imageTypeName, imageFieldPaint)
	}
	paint, err := engine.PaintFromStructure(paintVal)
	if err != nil {
		return ImageConfig{}, err
	}

	return ImageConfig{Position: position, Path: path, PaintEnabled: paintEnabled, Paint: paint}, nil
}

func newImageFactory() engine.Factory {
	return engine.NewFactory(imageTypeName, newImageRenderer, defaultImageConfig, imageConfigToStructure, imageConfigFromStructure)
}
