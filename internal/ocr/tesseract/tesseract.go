//go:build cgo

// Package tesseract is the reference ocr.Engine implementation: a thin cgo
// binding to the system Tesseract library's public C API (capi.h), the
// same API surface the original's leptess crate binds against. It has no
// pure-Go alternative anywhere in the examples pack, so unlike every other
// ambient concern in this module it is built directly on cgo rather than a
// Go-native library.
package tesseract

/*
#cgo LDFLAGS: -ltesseract -llept
#include <stdlib.h>
#include <tesseract/capi.h>
#include <leptonica/allheaders.h>
*/
import "C"

import (
	"image"
	"unsafe"

	"mediacorral/internal/apperr"
	"mediacorral/internal/ocr"
)

const component = "ocr/tesseract"

// Engine wraps one TessBaseAPI handle. It is not safe for concurrent use;
// ocr.EnginePool hands out one Engine per concurrent caller.
type Engine struct {
	handle *C.TessBaseAPI
}

// New creates and initializes a TessBaseAPI handle for language (a
// Tesseract-style language code, e.g. "eng").
func New(language string) (ocr.Engine, error) {
	handle := C.TessBaseAPICreate()
	cLang := C.CString(language)
	defer C.free(unsafe.Pointer(cLang))
	if C.TessBaseAPIInit3(handle, nil, cLang) != 0 {
		C.TessBaseAPIDelete(handle)
		return nil, apperr.Wrap(apperr.ErrOCR, component, "New", "initializing tesseract for language "+language, nil)
	}
	return &Engine{handle: handle}, nil
}

// Factory adapts New to ocr.EngineFactory, ignoring variables at
// construction time since SetVariable is applied by EnginePool afterward.
func Factory(language string, _ []ocr.Variable) (ocr.Engine, error) {
	return New(language)
}

func (e *Engine) SetVariable(v ocr.Variable) error {
	cName := C.CString(v.Name)
	cValue := C.CString(v.Value)
	defer C.free(unsafe.Pointer(cName))
	defer C.free(unsafe.Pointer(cValue))
	if C.TessBaseAPISetVariable(e.handle, cName, cValue) == 0 {
		return apperr.Wrap(apperr.ErrOCR, component, "SetVariable", "setting variable "+v.Name, nil)
	}
	return nil
}

// Recognize hands img's 8-bit grayscale pixel buffer to Tesseract directly
// (no Leptonica PIX is built) and returns Tesseract's recognized text.
func (e *Engine) Recognize(img *image.Gray) (string, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	C.TessBaseAPISetImage(e.handle, (*C.uchar)(unsafe.Pointer(&img.Pix[0])), C.int(width), C.int(height), 1, C.int(img.Stride))

	cText := C.TessBaseAPIGetUTF8Text(e.handle)
	if cText == nil {
		return "", apperr.Wrap(apperr.ErrOCR, component, "Recognize", "tesseract produced no output", nil)
	}
	defer C.TessDeleteText(cText)
	return C.GoString(cText), nil
}

// Close releases the underlying TessBaseAPI handle.
func (e *Engine) Close() error {
	if e.handle != nil {
		C.TessBaseAPIEnd(e.handle)
		C.TessBaseAPIDelete(e.handle)
		e.handle = nil
	}
	return nil
}
