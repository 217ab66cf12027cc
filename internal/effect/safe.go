package effect

import (
	"fmt"
	"image"

	"github.com/alexisbeaulieu97/framefx/internal/logger"
)

// SafeApply runs e.Apply and always returns a usable frame: panics, nil
// results and results with different bounds yield the input frame.
func SafeApply(e Effect, frame *image.RGBA, params Values, log *logger.Logger) (out *image.RGBA) {
	if e == nil || frame == nil {
		return frame
	}

	name := e.Metadata().Name
	defer func() {
		if r := recover(); r != nil {
			log.Error(fmt.Errorf("%v", r), "effect panicked while applying", "effect", name)
			out = frame
		}
	}()

	result := e.Apply(frame, params)
	if result == nil {
		log.Warn("effect returned no frame", "effect", name)
		return frame
	}
	if !result.Bounds().Eq(frame.Bounds()) {
		log.Warn("effect returned a frame with different bounds",
			"effect", name,
			"want", frame.Bounds().String(),
			"got", result.Bounds().String())
		return frame
	}
	return result
}

// CloneFrame returns a copy of frame with the same bounds.
func CloneFrame(frame *image.RGBA) *image.RGBA {
	b := frame.Bounds()
	out := image.NewRGBA(b)
	rowLen := b.Dx() * 4
	for y := b.Min.Y; y < b.Max.Y; y++ {
		src := frame.PixOffset(b.Min.X, y)
		dst := out.PixOffset(b.Min.X, y)
		copy(out.Pix[dst:dst+rowLen], frame.Pix[src:src+rowLen])
	}
	return out
}
