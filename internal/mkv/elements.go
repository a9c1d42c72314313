package mkv

// Matroska element IDs this analyzer understands. Values are the element
// IDs as published by the Matroska/WebM specification, kept with their
// EBML length-marker bits.
const (
	idEBMLHeader = 0x1A45DFA3
	idSegment    = 0x18538067

	idInfo           = 0x1549A966
	idTimestampScale = 0x2AD7B1
	idDuration       = 0x4489

	idTracks           = 0x1654AE6B
	idTrackEntry       = 0xAE
	idTrackNumber      = 0xD7
	idTrackType        = 0x83
	idFlagDefault      = 0x88
	idLanguage         = 0x22B59C
	idLanguageIETF     = 0x22B59D
	idCodecID          = 0x86
	idCodecPrivate     = 0x63A2
	idVideo            = 0xE0
	idPixelWidth       = 0xB0
	idPixelHeight      = 0xBA
	idDisplayWidth     = 0x54B0
	idDisplayHeight    = 0x54BA
	idStereoMode       = 0x53B8
	idAudio            = 0xE1
	idChannels         = 0x9F

	idChapters         = 0x1043A770
	idEditionEntry     = 0x45B9
	idChapterAtom      = 0xB6
	idChapterUID       = 0x73C4
	idChapterTimeStart = 0x91
	idChapterTimeEnd   = 0x92
	idChapterDisplay   = 0x80
	idChapString       = 0x85
	idChapLanguage     = 0x437C
	idChapLanguageIETF = 0x437D

	idCluster       = 0x1F43B675
	idTimestamp     = 0xE7
	idSimpleBlock   = 0xA3
	idBlockGroup    = 0xA0
	idBlock         = 0xA1
	idBlockDuration = 0x9B
)

// TrackType mirrors Matroska's TrackType element values.
type TrackType int

const (
	TrackTypeVideo    TrackType = 1
	TrackTypeAudio    TrackType = 2
	TrackTypeSubtitle TrackType = 17
)
