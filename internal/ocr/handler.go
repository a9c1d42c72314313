package ocr

import (
	"context"
	"image"
	"sort"
	"time"

	"mediacorral/internal/apperr"
	"mediacorral/internal/mkv"
	"mediacorral/internal/pool"
	"mediacorral/internal/srt"
)

// bitmapTask is one decoded, OCR-ready frame handed to the worker pool.
type bitmapTask struct {
	img *image.Gray
}

// bitmapJob records a queued frame's timing, keyed by its dispatcher index
// so Result can zip recognized text back to the right timestamp once
// workers finish out of order.
type bitmapJob struct {
	timestamp time.Duration
	duration  time.Duration
}

// BitmapHandler implements mkv.SubtitleHandler for the VobSub and PGS
// codecs: each frame is decoded to a cropped grayscale bitmap inline (cheap
// relative to OCR) and dispatched to a back-pressured worker pool for
// recognition, so a long rip job never holds every frame's pixels in
// memory at once. Result sorts completed cues back into timestamp order,
// since workers finish out of order, and renders them with internal/srt.
type BitmapHandler struct {
	enginePool   *EnginePool
	containerDur time.Duration
	dispatcher   *pool.Dispatcher[bitmapTask, string]
	codec        mkv.SubtitleCodec
	vobsubPal    vobsubPalette
	pgs          *pgsDecoder

	nextIndex int
	jobs      []bitmapJob
}

// NewBitmapHandler builds a handler for one VobSub or PGS subtitle track.
// codecPrivate is the track's CodecPrivate (VobSub's palette text block;
// ignored for PGS, which carries its palette in-band).
func NewBitmapHandler(ctx context.Context, codec mkv.SubtitleCodec, codecPrivate []byte, engines *EngineCache, language string, containerDuration time.Duration) (*BitmapHandler, error) {
	h := &BitmapHandler{
		enginePool:   engines.Pool(language),
		containerDur: containerDuration,
		codec:        codec,
	}
	switch codec {
	case mkv.SubtitleCodecVobSub:
		pal, err := parseVobsubPalette(codecPrivate)
		if err != nil {
			return nil, err
		}
		h.vobsubPal = pal
	case mkv.SubtitleCodecPGS:
		h.pgs = newPGSDecoder()
	default:
		return nil, apperr.Wrap(apperr.ErrPrecondition, component, "NewBitmapHandler", "unsupported bitmap subtitle codec", nil)
	}
	h.dispatcher = pool.New[bitmapTask, string](5, h.recognize)
	h.dispatcher.Start(ctx)
	return h, nil
}

func (h *BitmapHandler) recognize(_ context.Context, task bitmapTask) (string, error) {
	instance, err := h.enginePool.Get()
	if err != nil {
		return "", err
	}
	defer instance.Close()
	text, err := instance.Recognize(task.img)
	if err != nil {
		return "", apperr.Wrap(apperr.ErrOCR, component, "BitmapHandler.recognize", "recognizing subtitle frame", err)
	}
	return text, nil
}

// Handle decodes one subtitle frame and, if it yields a non-blank bitmap,
// queues it for recognition. Blank frames (VobSub's "clear subpicture"
// frames, PGS display sets with no object) are silently dropped, matching
// the original's Option-returning decoders.
func (h *BitmapHandler) Handle(codec mkv.SubtitleCodec, frame mkv.SubtitleFrame) error {
	var (
		img *image.Gray
		ok  bool
		err error
	)
	switch codec {
	case mkv.SubtitleCodecVobSub:
		img, ok, err = decodeVobsubFrame(frame.Data, h.vobsubPal)
	case mkv.SubtitleCodecPGS:
		img, ok, err = h.pgs.pushFrame(frame.Data)
	default:
		return apperr.Wrap(apperr.ErrPrecondition, component, "BitmapHandler.Handle", "frame codec does not match handler codec", nil)
	}
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	index := h.nextIndex
	h.nextIndex++
	h.jobs = append(h.jobs, bitmapJob{timestamp: frame.Timestamp, duration: frame.Duration})
	h.dispatcher.Push(index, bitmapTask{img: img})
	return nil
}

// Result waits for every queued frame to finish recognition and renders
// the results as SRT text, ordered by timestamp.
func (h *BitmapHandler) Result() (string, error) {
	results := h.dispatcher.Collect()
	cues := make([]srt.Cue, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			return "", r.Err
		}
		job := h.jobs[r.Index]
		cues = append(cues, srt.Cue{
			Timestamp: job.timestamp,
			Duration:  job.duration,
			HasEnd:    job.duration > 0,
			Data:      r.Value,
		})
	}
	sort.Slice(cues, func(i, j int) bool { return cues[i].Timestamp < cues[j].Timestamp })
	return srt.Encode(cues, h.containerDur), nil
}

// SrtHandler implements mkv.SubtitleHandler for the S_SUBRIP codec: the
// track's frames are already plain text, so this handler only accumulates
// cues and renders them, with no decoding or OCR involved.
type SrtHandler struct {
	containerDur time.Duration
	cues         []srt.Cue
}

// NewSrtHandler builds a handler that renders S_SUBRIP frames as SRT text.
func NewSrtHandler(containerDuration time.Duration) *SrtHandler {
	return &SrtHandler{containerDur: containerDuration}
}

func (h *SrtHandler) Handle(codec mkv.SubtitleCodec, frame mkv.SubtitleFrame) error {
	if codec != mkv.SubtitleCodecSubRip {
		return apperr.Wrap(apperr.ErrPrecondition, component, "SrtHandler.Handle", "frame codec is not S_SUBRIP", nil)
	}
	h.cues = append(h.cues, srt.Cue{
		Timestamp: frame.Timestamp,
		Duration:  frame.Duration,
		HasEnd:    frame.Duration > 0,
		Data:      string(frame.Data),
	})
	return nil
}

func (h *SrtHandler) Result() (string, error) {
	return srt.Encode(h.cues, h.containerDur), nil
}
