package mkv

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"math"
	"testing"
	"time"
)

// --- minimal Matroska byte-stream builder, test-only ---

func idBytes(id uint32, n int) []byte {
	buf := make([]byte, n)
	v := id
	for i := n - 1; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	return buf
}

// size8 encodes a size vint using the 8-byte form (marker 0x01), which
// can represent any payload length used in these tests regardless of
// its natural minimal width.
func size8(n int) []byte {
	buf := make([]byte, 8)
	buf[0] = 0x01
	v := uint64(n)
	for i := 7; i >= 1; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	return buf
}

func elem(id uint32, idLen int, payload []byte) []byte {
	var out []byte
	out = append(out, idBytes(id, idLen)...)
	out = append(out, size8(len(payload))...)
	out = append(out, payload...)
	return out
}

func u64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func f64(v float64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, math.Float64bits(v))
	return buf
}

func blockTrackVint(track uint64) []byte {
	return []byte{0x80 | byte(track)}
}

type fakeSubtitleHandler struct {
	frames []SubtitleFrame
}

func (f *fakeSubtitleHandler) Handle(codec SubtitleCodec, frame SubtitleFrame) error {
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeSubtitleHandler) Result() (string, error) {
	var out string
	for _, fr := range f.frames {
		out += string(fr.Data)
	}
	return out, nil
}

func buildMinimalContainer() []byte {
	ebmlHeader := elem(idEBMLHeader, 4, nil)

	info := elem(idInfo, 4, concat(
		elem(idTimestampScale, 3, u64(1_000_000)),
		elem(idDuration, 2, f64(5000)),
	))

	videoTrack := elem(idTrackEntry, 1, concat(
		elem(idTrackNumber, 1, u64(1)),
		elem(idTrackType, 1, u64(uint64(TrackTypeVideo))),
	))
	subTrack := elem(idTrackEntry, 1, concat(
		elem(idTrackNumber, 1, u64(2)),
		elem(idTrackType, 1, u64(uint64(TrackTypeSubtitle))),
		elem(idCodecID, 1, []byte("S_SUBRIP")),
		elem(idLanguage, 3, []byte("eng")),
		elem(idFlagDefault, 1, u64(1)),
	))
	tracks := elem(idTracks, 4, concat(videoTrack, subTrack))

	videoFrame := []byte("videoframedata")
	simpleBlockPayload := concat(blockTrackVint(1), []byte{0x00, 0x00, 0x00}, videoFrame)
	simpleBlock := elem(idSimpleBlock, 1, simpleBlockPayload)

	subFrame := []byte("Hello subtitle")
	blockPayload := concat(blockTrackVint(2), []byte{0x00, 0x00, 0x00}, subFrame)
	block := elem(idBlock, 1, blockPayload)
	blockDuration := elem(idBlockDuration, 1, u64(500))
	blockGroup := elem(idBlockGroup, 1, concat(block, blockDuration))

	cluster := elem(idCluster, 4, concat(
		elem(idTimestamp, 1, u64(0)),
		simpleBlock,
		blockGroup,
	))

	segment := elem(idSegment, 4, concat(info, tracks, cluster))
	return concat(ebmlHeader, segment)
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestAnalyzeMinimalContainer(t *testing.T) {
	stream := buildMinimalContainer()
	handler := &fakeSubtitleHandler{}

	details, err := Analyze(bytes.NewReader(stream), Options{
		NewSubtitleHandler: func(codec SubtitleCodec, track TrackInfo, containerDuration time.Duration) (SubtitleHandler, error) {
			return handler, nil
		},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if details.Duration != 5000*1_000_000 {
		t.Fatalf("Duration = %v, want 5s", details.Duration)
	}
	if len(details.Tracks) != 2 {
		t.Fatalf("len(Tracks) = %d, want 2", len(details.Tracks))
	}
	wantHash := md5.Sum([]byte("videoframedata"))
	if details.VideoHash != wantHash {
		t.Fatalf("VideoHash = %x, want %x", details.VideoHash, wantHash)
	}
	if !details.HasSubtitles {
		t.Fatalf("HasSubtitles = false, want true")
	}
	if details.Subtitles != "Hello subtitle" {
		t.Fatalf("Subtitles = %q, want %q", details.Subtitles, "Hello subtitle")
	}
	if len(handler.frames) != 1 {
		t.Fatalf("len(handler.frames) = %d, want 1", len(handler.frames))
	}
	if handler.frames[0].Duration != 500*1_000_000 {
		t.Fatalf("frame duration = %v, want 500ms", handler.frames[0].Duration)
	}
}

func TestAnalyzeRequiresVideoTrackWhenConfigured(t *testing.T) {
	info := elem(idInfo, 4, concat(
		elem(idTimestampScale, 3, u64(1_000_000)),
		elem(idDuration, 2, f64(1000)),
	))
	subTrack := elem(idTrackEntry, 1, concat(
		elem(idTrackNumber, 1, u64(1)),
		elem(idTrackType, 1, u64(uint64(TrackTypeSubtitle))),
		elem(idCodecID, 1, []byte("S_SUBRIP")),
		elem(idLanguage, 3, []byte("eng")),
	))
	tracks := elem(idTracks, 4, subTrack)
	cluster := elem(idCluster, 4, elem(idTimestamp, 1, u64(0)))
	segment := elem(idSegment, 4, concat(info, tracks, cluster))
	stream := concat(elem(idEBMLHeader, 4, nil), segment)

	_, err := Analyze(bytes.NewReader(stream), Options{RequireVideoTrack: true})
	if err == nil {
		t.Fatal("expected error for missing video track, got nil")
	}
}

func TestSelectSubtitleTrackPrefersDefaultAmongEnglish(t *testing.T) {
	tracks := []TrackInfo{
		{Number: 1, Type: TrackTypeSubtitle, CodecID: "S_SUBRIP", Language: "eng"},
		{Number: 2, Type: TrackTypeSubtitle, CodecID: "S_SUBRIP", Language: "eng", FlagDefault: true},
		{Number: 3, Type: TrackTypeSubtitle, CodecID: "S_SUBRIP", Language: "fre"},
	}
	got, codec, err := selectSubtitleTrack(tracks, 0, "en")
	if err != nil {
		t.Fatalf("selectSubtitleTrack: %v", err)
	}
	if got == nil || got.Number != 2 {
		t.Fatalf("got track %+v, want track 2", got)
	}
	if codec != SubtitleCodecSubRip {
		t.Fatalf("codec = %v, want SubtitleCodecSubRip", codec)
	}
}

func TestSelectSubtitleTrackPinnedBypassesLanguage(t *testing.T) {
	tracks := []TrackInfo{
		{Number: 1, Type: TrackTypeSubtitle, CodecID: "S_SUBRIP", Language: "fre"},
	}
	got, _, err := selectSubtitleTrack(tracks, 1, "en")
	if err != nil {
		t.Fatalf("selectSubtitleTrack: %v", err)
	}
	if got == nil || got.Number != 1 {
		t.Fatalf("got %+v, want pinned track 1", got)
	}
}

func TestSelectSubtitleTrackPinnedRejectsUnsupportedCodec(t *testing.T) {
	tracks := []TrackInfo{
		{Number: 1, Type: TrackTypeSubtitle, CodecID: "S_TEXT/UTF8", Language: "eng"},
	}
	_, _, err := selectSubtitleTrack(tracks, 1, "en")
	if err == nil {
		t.Fatal("expected error for unsupported pinned codec, got nil")
	}
}

func TestSelectSubtitleTrackNoneWhenNoCandidates(t *testing.T) {
	tracks := []TrackInfo{
		{Number: 1, Type: TrackTypeSubtitle, CodecID: "S_SUBRIP", Language: "fre"},
	}
	got, codec, err := selectSubtitleTrack(tracks, 0, "en")
	if err != nil {
		t.Fatalf("selectSubtitleTrack: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v, want nil", got)
	}
	if codec != SubtitleCodecNone {
		t.Fatalf("codec = %v, want SubtitleCodecNone", codec)
	}
}
