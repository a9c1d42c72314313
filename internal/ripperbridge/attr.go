package ripperbridge

// Attr is the MakeMKV item attribute code carried on CINFO/TINFO/SINFO
// lines. The numeric table below is the fixed 0-50 enumeration MakeMKV
// itself defines; indices outside the table decode to AttrUnknown rather
// than failing the parse, since MakeMKV has historically added new
// attribute codes between releases.
type Attr int

const (
	AttrUnknown Attr = iota - 1
	AttrType
	AttrName
	AttrLangCode
	AttrLangName
	AttrCodecID
	AttrCodecShort
	AttrCodecLong
	AttrChapterCount
	AttrDuration
	AttrDiskSize
	AttrDiskSizeBytes
	AttrStreamTypeExtension
	AttrBitrate
	AttrAudioChannelsCount
	AttrAngleInfo
	AttrSourceFileName
	AttrAudioSampleRate
	AttrAudioSampleSize
	AttrVideoSize
	AttrVideoAspectRatio
	AttrVideoFrameRate
	AttrStreamFlags
	AttrDateTime
	AttrOriginalTitleID
	AttrSegmentsCount
	AttrSegmentsMap
	AttrOutputFileName
	AttrMetadataLanguageCode
	AttrMetadataLanguageName
	AttrTreeInfo
	AttrPanelTitle
	AttrVolumeName
	AttrOrderWeight
	AttrOutputFormat
	AttrOutputFormatDescription
	AttrSeamlessInfo
	AttrPanelText
	AttrMkvFlags
	AttrMkvFlagsText
	AttrAudioChannelLayoutName
	AttrOutputCodecShort
	AttrOutputConversionType
	AttrOutputAudioSampleRate
	AttrOutputAudioSampleSize
	AttrOutputAudioChannelsCount
	AttrOutputAudioChannelLayoutName
	AttrOutputAudioChannelLayout
	AttrOutputAudioMixDescription
	AttrComment
	AttrOffsetSequenceID
	AttrOutputSubtitleTrackFlag
)

// attrFromIndex maps a raw MakeMKV attribute index to Attr, falling back to
// AttrUnknown for anything past the known table (index 50 is the last
// assigned value as of this module's ItemAttribute table).
func attrFromIndex(i int) Attr {
	if i < 0 || i > 50 {
		return AttrUnknown
	}
	return Attr(i)
}
