package coordinatorhttp

import "mediacorral/internal/drive"

// driveMetaResponse mirrors contract.DriveMeta.
type driveMetaResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// driveStateResponse mirrors drive.DriveState.
type driveStateResponse struct {
	DriveID       string               `json:"drive_id"`
	Status        string               `json:"status"`
	LastPollAtUTC int64                `json:"last_poll_at_utc"`
	ActiveCommand activeCommandPayload `json:"active_command"`
}

type activeCommandPayload struct {
	Kind         string         `json:"kind"` // "none", "ripping", "error"
	ErrorMessage string         `json:"error_message,omitempty"`
	Ripping      rippingPayload `json:"ripping,omitempty"`
}

type rippingPayload struct {
	JobID        int64    `json:"job_id"`
	CurrentTitle int      `json:"current_title"`
	CurrentValue int      `json:"current_value"`
	TotalTitle   int      `json:"total_title"`
	TotalValue   int      `json:"total_value"`
	MaxValue     int      `json:"max_value"`
	Logs         []string `json:"logs,omitempty"`
}

func activeCommandKindName(k drive.ActiveCommandKind) string {
	switch k {
	case drive.ActiveRipping:
		return "ripping"
	case drive.ActiveError:
		return "error"
	default:
		return "none"
	}
}

func parseActiveCommandKind(s string) drive.ActiveCommandKind {
	switch s {
	case "ripping":
		return drive.ActiveRipping
	case "error":
		return drive.ActiveError
	default:
		return drive.ActiveNone
	}
}

func toDriveStateResponse(s drive.DriveState) driveStateResponse {
	return driveStateResponse{
		DriveID:       s.DriveID,
		Status:        s.Status.String(),
		LastPollAtUTC: s.LastPollAt.Unix(),
		ActiveCommand: activeCommandPayload{
			Kind:         activeCommandKindName(s.ActiveCommand.Kind),
			ErrorMessage: s.ActiveCommand.ErrorMessage,
			Ripping: rippingPayload{
				JobID:        s.ActiveCommand.Ripping.JobID,
				CurrentTitle: s.ActiveCommand.Ripping.CurrentTitle,
				CurrentValue: s.ActiveCommand.Ripping.CurrentValue,
				TotalTitle:   s.ActiveCommand.Ripping.TotalTitle,
				TotalValue:   s.ActiveCommand.Ripping.TotalValue,
				MaxValue:     s.ActiveCommand.Ripping.MaxValue,
				Logs:         s.ActiveCommand.Ripping.Logs,
			},
		},
	}
}

// startRipRequest mirrors contract.RipMediaRequest.
type startRipRequest struct {
	DiscName          string `json:"disc_name"`
	SuspectedContents []byte `json:"suspected_contents,omitempty"`
	Autoeject         bool   `json:"autoeject"`
}

type startRipResponse struct {
	JobID int64 `json:"job_id"`
}

// ripUpdateEvent is one line of a StreamRipUpdates NDJSON response.
type ripUpdateEvent struct {
	JobID    int64          `json:"job_id"`
	Progress rippingPayload `json:"progress"`
	Done     bool           `json:"done"`
	Err      string         `json:"err,omitempty"`
}

type autoripResponse struct {
	Enabled bool `json:"enabled"`
}

type setAutoripRequest struct {
	Enabled bool `json:"enabled"`
}

// subtitleFetchRequest mirrors contract.SubtitleFetchRequest.
type subtitleFetchRequest struct {
	VideoType int   `json:"video_type"`
	MatchID   int64 `json:"match_id"`
}

type subtitleFetchResponse struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// tagFileRequest mirrors contract.TagFileRequest.
type tagFileRequest struct {
	FileID    int64 `json:"file_id"`
	VideoType int   `json:"video_type"`
	MatchID   int64 `json:"match_id"`
}

type errorBody struct {
	Error string `json:"error"`
}
