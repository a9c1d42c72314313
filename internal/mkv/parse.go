package mkv

import (
	"fmt"
	"hash"
	"math"
	"time"

	"mediacorral/internal/language"
	"mediacorral/internal/mkv/ebml"
)

func parseInfo(er *ebml.Reader, h ebml.Header) (timestampScale uint64, durationTicks float64, haveDuration bool, err error) {
	timestampScale = 1_000_000
	for {
		pos, perr := er.Pos()
		if perr != nil {
			return 0, 0, false, perr
		}
		if pos >= h.End {
			break
		}
		child, perr := er.ReadHeader()
		if perr != nil {
			return 0, 0, false, wrapDecode("parseInfo", "reading Info child", perr)
		}
		switch child.ID {
		case idTimestampScale:
			v, rerr := er.ReadUint(int64(child.Size))
			if rerr != nil {
				return 0, 0, false, wrapDecode("parseInfo", "reading TimestampScale", rerr)
			}
			timestampScale = v
		case idDuration:
			v, rerr := readFloatOfWidth(er, child.Size)
			if rerr != nil {
				return 0, 0, false, wrapDecode("parseInfo", "reading Duration", rerr)
			}
			durationTicks = v
			haveDuration = true
		default:
			if serr := er.Skip(child); serr != nil {
				return 0, 0, false, serr
			}
		}
	}
	return timestampScale, durationTicks, haveDuration, nil
}

func readFloatOfWidth(er *ebml.Reader, size uint64) (float64, error) {
	return er.ReadFloat(int64(size))
}

func parseTracks(er *ebml.Reader, h ebml.Header) ([]TrackInfo, error) {
	var tracks []TrackInfo
	for {
		pos, err := er.Pos()
		if err != nil {
			return nil, err
		}
		if pos >= h.End {
			break
		}
		child, err := er.ReadHeader()
		if err != nil {
			return nil, wrapDecode("parseTracks", "reading Tracks child", err)
		}
		if child.ID != idTrackEntry {
			if err := er.Skip(child); err != nil {
				return nil, err
			}
			continue
		}
		t, err := parseTrackEntry(er, child)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

func parseTrackEntry(er *ebml.Reader, h ebml.Header) (TrackInfo, error) {
	var t TrackInfo
	for {
		pos, err := er.Pos()
		if err != nil {
			return TrackInfo{}, err
		}
		if pos >= h.End {
			break
		}
		child, err := er.ReadHeader()
		if err != nil {
			return TrackInfo{}, wrapDecode("parseTrackEntry", "reading TrackEntry child", err)
		}
		switch child.ID {
		case idTrackNumber:
			v, err := er.ReadUint(int64(child.Size))
			if err != nil {
				return TrackInfo{}, err
			}
			t.Number = v
		case idTrackType:
			v, err := er.ReadUint(int64(child.Size))
			if err != nil {
				return TrackInfo{}, err
			}
			t.Type = TrackType(v)
		case idFlagDefault:
			v, err := er.ReadUint(int64(child.Size))
			if err != nil {
				return TrackInfo{}, err
			}
			t.FlagDefault = v != 0
		case idLanguage:
			s, err := er.ReadString(int64(child.Size))
			if err != nil {
				return TrackInfo{}, err
			}
			t.Language = s
		case idLanguageIETF:
			s, err := er.ReadString(int64(child.Size))
			if err != nil {
				return TrackInfo{}, err
			}
			t.LanguageIETF = s
		case idCodecID:
			s, err := er.ReadString(int64(child.Size))
			if err != nil {
				return TrackInfo{}, err
			}
			t.CodecID = s
		case idCodecPrivate:
			b, err := er.ReadBytes(int64(child.Size))
			if err != nil {
				return TrackInfo{}, err
			}
			t.CodecPrivate = b
		case idVideo:
			if err := parseVideoSettings(er, child, &t); err != nil {
				return TrackInfo{}, err
			}
		case idAudio:
			if err := parseAudioSettings(er, child, &t); err != nil {
				return TrackInfo{}, err
			}
		default:
			if err := er.Skip(child); err != nil {
				return TrackInfo{}, err
			}
		}
	}
	return t, nil
}

func parseVideoSettings(er *ebml.Reader, h ebml.Header, t *TrackInfo) error {
	for {
		pos, err := er.Pos()
		if err != nil {
			return err
		}
		if pos >= h.End {
			return nil
		}
		child, err := er.ReadHeader()
		if err != nil {
			return wrapDecode("parseVideoSettings", "reading Video child", err)
		}
		switch child.ID {
		case idDisplayWidth:
			v, err := er.ReadUint(int64(child.Size))
			if err != nil {
				return err
			}
			t.DisplayWidth = v
		case idDisplayHeight:
			v, err := er.ReadUint(int64(child.Size))
			if err != nil {
				return err
			}
			t.DisplayHeight = v
		case idPixelWidth:
			v, err := er.ReadUint(int64(child.Size))
			if err != nil {
				return err
			}
			if t.DisplayWidth == 0 {
				t.DisplayWidth = v
			}
		case idPixelHeight:
			v, err := er.ReadUint(int64(child.Size))
			if err != nil {
				return err
			}
			if t.DisplayHeight == 0 {
				t.DisplayHeight = v
			}
		case idStereoMode:
			v, err := er.ReadUint(int64(child.Size))
			if err != nil {
				return err
			}
			t.StereoMode = v
		default:
			if err := er.Skip(child); err != nil {
				return err
			}
		}
	}
}

func parseAudioSettings(er *ebml.Reader, h ebml.Header, t *TrackInfo) error {
	for {
		pos, err := er.Pos()
		if err != nil {
			return err
		}
		if pos >= h.End {
			return nil
		}
		child, err := er.ReadHeader()
		if err != nil {
			return wrapDecode("parseAudioSettings", "reading Audio child", err)
		}
		if child.ID == idChannels {
			v, err := er.ReadUint(int64(child.Size))
			if err != nil {
				return err
			}
			t.Channels = v
			continue
		}
		if err := er.Skip(child); err != nil {
			return err
		}
	}
}

func parseChapters(er *ebml.Reader, h ebml.Header, containerDuration time.Duration) ([]ChapterInfo, error) {
	type rawAtom struct {
		uid        uint64
		start, end time.Duration
		hasEnd     bool
		name       string
	}
	var atoms []rawAtom

	for {
		pos, err := er.Pos()
		if err != nil {
			return nil, err
		}
		if pos >= h.End {
			break
		}
		edition, err := er.ReadHeader()
		if err != nil {
			return nil, wrapDecode("parseChapters", "reading EditionEntry", err)
		}
		if edition.ID != idEditionEntry {
			if err := er.Skip(edition); err != nil {
				return nil, err
			}
			continue
		}
		for {
			pos, err := er.Pos()
			if err != nil {
				return nil, err
			}
			if pos >= edition.End {
				break
			}
			atomHdr, err := er.ReadHeader()
			if err != nil {
				return nil, wrapDecode("parseChapters", "reading ChapterAtom", err)
			}
			if atomHdr.ID != idChapterAtom {
				if err := er.Skip(atomHdr); err != nil {
					return nil, err
				}
				continue
			}
			a, err := parseChapterAtom(er, atomHdr)
			if err != nil {
				return nil, err
			}
			atoms = append(atoms, rawAtom(a))
		}
	}

	chapters := make([]ChapterInfo, 0, len(atoms))
	for i, a := range atoms {
		end := containerDuration
		if a.hasEnd {
			end = a.end
		} else if i+1 < len(atoms) {
			end = atoms[i+1].start
		}
		name := a.name
		if name == "" {
			name = fmt.Sprintf("Chapter %d", i+1)
		}
		chapters = append(chapters, ChapterInfo{
			Number: i + 1,
			UID:    a.uid,
			Start:  a.start,
			End:    end,
			Name:   name,
		})
	}
	return chapters, nil
}

type chapterAtom struct {
	uid        uint64
	start, end time.Duration
	hasEnd     bool
	name       string
}

func parseChapterAtom(er *ebml.Reader, h ebml.Header) (chapterAtom, error) {
	var a chapterAtom
	var bestName string
	for {
		pos, err := er.Pos()
		if err != nil {
			return chapterAtom{}, err
		}
		if pos >= h.End {
			break
		}
		child, err := er.ReadHeader()
		if err != nil {
			return chapterAtom{}, wrapDecode("parseChapterAtom", "reading ChapterAtom child", err)
		}
		switch child.ID {
		case idChapterUID:
			v, err := er.ReadUint(int64(child.Size))
			if err != nil {
				return chapterAtom{}, err
			}
			a.uid = v
		case idChapterTimeStart:
			v, err := er.ReadUint(int64(child.Size))
			if err != nil {
				return chapterAtom{}, err
			}
			a.start = time.Duration(v) * time.Nanosecond
		case idChapterTimeEnd:
			v, err := er.ReadUint(int64(child.Size))
			if err != nil {
				return chapterAtom{}, err
			}
			a.end = time.Duration(v) * time.Nanosecond
			a.hasEnd = true
		case idChapterDisplay:
			name, lang, err := parseChapterDisplay(er, child)
			if err != nil {
				return chapterAtom{}, err
			}
			// ChapterDisplay may repeat per language; prefer an English
			// entry over whichever happened to be read first.
			if bestName == "" || language.Matches(lang, "en") {
				bestName = name
			}
		default:
			if err := er.Skip(child); err != nil {
				return chapterAtom{}, err
			}
		}
	}
	a.name = bestName
	return a, nil
}

func parseChapterDisplay(er *ebml.Reader, h ebml.Header) (name, lang string, err error) {
	for {
		pos, perr := er.Pos()
		if perr != nil {
			return "", "", perr
		}
		if pos >= h.End {
			break
		}
		child, perr := er.ReadHeader()
		if perr != nil {
			return "", "", wrapDecode("parseChapterDisplay", "reading ChapterDisplay child", perr)
		}
		switch child.ID {
		case idChapString:
			s, rerr := er.ReadString(int64(child.Size))
			if rerr != nil {
				return "", "", rerr
			}
			name = s
		case idChapLanguageIETF:
			s, rerr := er.ReadString(int64(child.Size))
			if rerr != nil {
				return "", "", rerr
			}
			lang = s
		case idChapLanguage:
			if lang == "" {
				s, rerr := er.ReadString(int64(child.Size))
				if rerr != nil {
					return "", "", rerr
				}
				lang = s
			} else if err := er.Skip(child); err != nil {
				return "", "", err
			}
		default:
			if serr := er.Skip(child); serr != nil {
				return "", "", serr
			}
		}
	}
	return name, lang, nil
}

type processClusterArgs struct {
	timestampScale uint64
	videoTrack     *TrackInfo
	subtitleTrack  *TrackInfo
	subtitleCodec  SubtitleCodec
	videoHasher    hash.Hash
	subtitles      SubtitleHandler
	durationNs     time.Duration
	progress       func(percent int)
	lastPercent    *int
}

func processCluster(er *ebml.Reader, h ebml.Header, args processClusterArgs) error {
	var clusterTicks uint64
	for {
		pos, err := er.Pos()
		if err != nil {
			return err
		}
		if pos >= h.End {
			return nil
		}
		child, err := er.ReadHeader()
		if err != nil {
			return wrapDecode("processCluster", "reading Cluster child", err)
		}
		switch child.ID {
		case idTimestamp:
			v, err := er.ReadUint(int64(child.Size))
			if err != nil {
				return err
			}
			clusterTicks = v
		case idSimpleBlock:
			track, relTs, data, err := readBlock(er, child)
			if err != nil {
				return err
			}
			if err := handleFrame(args, track, clusterTicks, relTs, 0, data); err != nil {
				return err
			}
		case idBlockGroup:
			if err := processBlockGroup(er, child, clusterTicks, args); err != nil {
				return err
			}
		default:
			if err := er.Skip(child); err != nil {
				return err
			}
		}
	}
}

func processBlockGroup(er *ebml.Reader, h ebml.Header, clusterTicks uint64, args processClusterArgs) error {
	var track uint64
	var relTs int16
	var data []byte
	var durTicks uint64
	var haveBlock bool

	for {
		pos, err := er.Pos()
		if err != nil {
			return err
		}
		if pos >= h.End {
			break
		}
		child, err := er.ReadHeader()
		if err != nil {
			return wrapDecode("processBlockGroup", "reading BlockGroup child", err)
		}
		switch child.ID {
		case idBlock:
			t, ts, d, err := readBlock(er, child)
			if err != nil {
				return err
			}
			track, relTs, data, haveBlock = t, ts, d, true
		case idBlockDuration:
			v, err := er.ReadUint(int64(child.Size))
			if err != nil {
				return err
			}
			durTicks = v
		default:
			if err := er.Skip(child); err != nil {
				return err
			}
		}
	}
	if !haveBlock {
		return nil
	}
	return handleFrame(args, track, clusterTicks, relTs, durTicks, data)
}

// readBlock parses a Block/SimpleBlock's track number, relative timestamp,
// and frame payload. Lacing is not supported: multi-frame laced blocks
// return an error rather than silently dropping frames, since no track
// this analyzer targets (MakeMKV rips) produces laced subtitle or video
// blocks.
func readBlock(er *ebml.Reader, h ebml.Header) (track uint64, relTimestamp int16, data []byte, err error) {
	track, err = er.ReadVint()
	if err != nil {
		return 0, 0, nil, wrapDecode("readBlock", "reading block track number", err)
	}
	tsBytes, err := er.ReadBytes(2)
	if err != nil {
		return 0, 0, nil, wrapDecode("readBlock", "reading block timestamp", err)
	}
	relTimestamp = int16(uint16(tsBytes[0])<<8 | uint16(tsBytes[1]))

	flagBytes, err := er.ReadBytes(1)
	if err != nil {
		return 0, 0, nil, wrapDecode("readBlock", "reading block flags", err)
	}
	if lacing := flagBytes[0] & 0x06; lacing != 0 {
		return 0, 0, nil, wrapDecode("readBlock", "laced blocks are not supported", nil)
	}

	pos, err := er.Pos()
	if err != nil {
		return 0, 0, nil, err
	}
	data, err = er.ReadBytes(h.End - pos)
	if err != nil {
		return 0, 0, nil, wrapDecode("readBlock", "reading block payload", err)
	}
	return track, relTimestamp, data, nil
}

// handleFrame rescales one frame's cluster-relative timestamp (and, for
// BlockGroup frames, its duration) from ticks to nanoseconds using the
// container's TimestampScale, then routes the frame to the video hasher
// or subtitle handler as appropriate and fires the progress callback on
// each percent-point change.
func handleFrame(args processClusterArgs, track uint64, clusterTicks uint64, relTimestamp int16, durationTicks uint64, data []byte) error {
	absTicks := int64(clusterTicks) + int64(relTimestamp)
	tsNs := time.Duration(absTicks * int64(args.timestampScale))

	if args.videoTrack != nil && track == args.videoTrack.Number {
		args.videoHasher.Write(data)
	}
	if args.subtitleTrack != nil && track == args.subtitleTrack.Number && args.subtitles != nil {
		durNs := time.Duration(int64(durationTicks) * int64(args.timestampScale))
		if err := args.subtitles.Handle(args.subtitleCodec, SubtitleFrame{
			Timestamp: tsNs,
			Duration:  durNs,
			Data:      data,
		}); err != nil {
			return err
		}
	}

	if args.progress != nil && args.durationNs > 0 {
		percent := int(math.Round(float64(tsNs) / float64(args.durationNs) * 100.0))
		if percent != *args.lastPercent {
			*args.lastPercent = percent
			args.progress(percent)
		}
	}
	return nil
}
