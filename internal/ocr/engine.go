// Package ocr is the subtitle OCR pipeline (C4): it decodes VobSub and PGS
// bitmap subtitle frames into cropped, thresholded grayscale images and
// recognizes them through a swappable OCR engine, producing SRT text
// through the same internal/srt codec used by S_SUBRIP tracks.
//
// Recognition is deterministic by construction: the same frame always
// produces the same engine calls in the same order, which matters because
// OCR output feeds cross-referential matching against reference subtitles.
package ocr

import "image"

const component = "ocr"

// Variable is a named engine configuration knob, e.g. a Tesseract
// parameter like "classify_enable_learning" or "tessedit_pageseg_mode".
type Variable struct {
	Name  string
	Value string
}

// Engine recognizes text in a single-channel image. Implementations are not
// required to be safe for concurrent use; EnginePool handles that by
// handing out one Engine per concurrent caller.
type Engine interface {
	// SetVariable configures an engine parameter. It must be called, if at
	// all, before the first Recognize call.
	SetVariable(v Variable) error
	// Recognize returns the engine's best-effort text for img.
	Recognize(img *image.Gray) (string, error)
	// Close releases any resources the engine holds (a handle to the
	// underlying recognition library, in the reference implementation).
	Close() error
}

// EngineFactory constructs a new Engine for a given language, applying the
// given variables. EnginePool calls this lazily, once per pooled instance.
type EngineFactory func(language string, variables []Variable) (Engine, error)
