package ripperbridge

import (
	"strconv"

	"mediacorral/internal/apperr"
)

// MessageKind distinguishes the tag families MakeMKV emits on stdout.
type MessageKind int

const (
	MessageUnknown MessageKind = iota
	MessageMSG                // free-text progress/diagnostic message
	MessagePRGT               // current progress title (overall task name)
	MessagePRGV               // progress bar values: current, total, max
	MessageDRV                // drive status line
	MessageTCOUT              // disc title count
	MessageCINFo              // disc-level attribute
	MessageTINFO              // title-level attribute
	MessageSINFo              // stream-level attribute
)

// DiscInfo is one CINFO/TINFO/SINFO attribute line: an item index (disc id,
// title id, or stream id depending on tag), the attribute code, a numeric
// sub-code MakeMKV sometimes emits alongside the attribute, and the decoded
// value.
type DiscInfo struct {
	Item  int
	Attr  Attr
	Code  int
	Value string
}

// Message is a single parsed line of MakeMKV robot-mode output.
type Message struct {
	Kind MessageKind

	// MSG
	MessageCode int
	Text        string

	// PRGT / PRGV
	ProgressTitle string
	Current       int
	Total         int
	Max           int

	// DRV
	DriveIndex int
	DriveState string

	// TCOUT
	TitleCount int

	// CINFO / TINFO / SINFO
	Info DiscInfo
}

// ParseLine decodes one line of MakeMKV "robot mode" (-r) output into a
// Message. Unrecognized tags decode to MessageUnknown rather than erroring,
// since a rip should not abort over a MakeMKV version that added a new tag.
func ParseLine(line string) (Message, error) {
	tag, rest := splitTag(line)
	cells := splitCSVRow(rest)

	switch tag {
	case "MSG":
		return parseMSG(cells)
	case "PRGT":
		return parsePRG(cells, MessagePRGT)
	case "PRGV":
		return parsePRGV(cells)
	case "DRV":
		return parseDRV(cells)
	case "TCOUT":
		return parseTCOUT(cells)
	case "CINFO":
		return parseInfo(cells, MessageCINFo)
	case "TINFO":
		return parseInfo(cells, MessageTINFO)
	case "SINFO":
		return parseInfo(cells, MessageSINFo)
	default:
		return Message{Kind: MessageUnknown}, nil
	}
}

func splitTag(line string) (tag, rest string) {
	for i, c := range line {
		if c == ':' {
			return line[:i], line[i+1:]
		}
	}
	return line, ""
}

func parseMSG(cells []string) (Message, error) {
	if len(cells) < 5 {
		return Message{}, apperr.Wrap(apperr.ErrDecode, "ripperbridge", "ParseLine", "malformed MSG line", nil)
	}
	code, err := strconv.Atoi(cells[0])
	if err != nil {
		return Message{}, apperr.Wrap(apperr.ErrDecode, "ripperbridge", "ParseLine", "malformed MSG code", err)
	}
	return Message{Kind: MessageMSG, MessageCode: code, Text: cells[4]}, nil
}

func parsePRG(cells []string, kind MessageKind) (Message, error) {
	if len(cells) < 1 {
		return Message{}, apperr.Wrap(apperr.ErrDecode, "ripperbridge", "ParseLine", "malformed PRGT line", nil)
	}
	return Message{Kind: kind, ProgressTitle: cells[0]}, nil
}

func parsePRGV(cells []string) (Message, error) {
	if len(cells) < 3 {
		return Message{}, apperr.Wrap(apperr.ErrDecode, "ripperbridge", "ParseLine", "malformed PRGV line", nil)
	}
	current, err1 := strconv.Atoi(cells[0])
	total, err2 := strconv.Atoi(cells[1])
	max, err3 := strconv.Atoi(cells[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return Message{}, apperr.Wrap(apperr.ErrDecode, "ripperbridge", "ParseLine", "non-numeric PRGV fields", nil)
	}
	return Message{Kind: MessagePRGV, Current: current, Total: total, Max: max}, nil
}

func parseDRV(cells []string) (Message, error) {
	if len(cells) < 2 {
		return Message{}, apperr.Wrap(apperr.ErrDecode, "ripperbridge", "ParseLine", "malformed DRV line", nil)
	}
	index, err := strconv.Atoi(cells[0])
	if err != nil {
		return Message{}, apperr.Wrap(apperr.ErrDecode, "ripperbridge", "ParseLine", "malformed DRV index", err)
	}
	return Message{Kind: MessageDRV, DriveIndex: index, DriveState: cells[1]}, nil
}

func parseTCOUT(cells []string) (Message, error) {
	if len(cells) < 1 {
		return Message{}, apperr.Wrap(apperr.ErrDecode, "ripperbridge", "ParseLine", "malformed TCOUT line", nil)
	}
	count, err := strconv.Atoi(cells[0])
	if err != nil {
		return Message{}, apperr.Wrap(apperr.ErrDecode, "ripperbridge", "ParseLine", "malformed TCOUT count", err)
	}
	return Message{Kind: MessageTCOUT, TitleCount: count}, nil
}

func parseInfo(cells []string, kind MessageKind) (Message, error) {
	// CINFO lines carry no item index (just attr, code, value); the disc is
	// reported as item 0.
	if kind == MessageCINFo {
		cells = append([]string{"0"}, cells...)
	}
	if len(cells) < 4 {
		return Message{}, apperr.Wrap(apperr.ErrDecode, "ripperbridge", "ParseLine", "malformed info line", nil)
	}
	item, err1 := strconv.Atoi(cells[0])
	attrIdx, err2 := strconv.Atoi(cells[1])
	code, err3 := strconv.Atoi(cells[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return Message{}, apperr.Wrap(apperr.ErrDecode, "ripperbridge", "ParseLine", "non-numeric info fields", nil)
	}
	return Message{
		Kind: kind,
		Info: DiscInfo{
			Item:  item,
			Attr:  attrFromIndex(attrIdx),
			Code:  code,
			Value: cells[3],
		},
	}, nil
}
