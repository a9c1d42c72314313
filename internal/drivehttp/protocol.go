package drivehttp

// driveStateResponse mirrors drive.HardwareStatus as a string tag so the
// two processes never need to agree on an iota's numeric encoding.
type driveStateResponse struct {
	Status string `json:"status"`
}

// ripRequestBody starts a rip on a drive-controller host. JobToken names
// the staging directory the controller creates under its configured
// RipDirectory; the client fetches finished files from it and then tells
// the controller to discard it.
type ripRequestBody struct {
	JobToken string `json:"job_token"`
	TitleIDs []int  `json:"title_ids,omitempty"`
}

// ripEventKind discriminates the newline-delimited JSON events a rip
// request streams back.
type ripEventKind string

const (
	ripEventProgress ripEventKind = "progress"
	ripEventInfo     ripEventKind = "info"
	ripEventDone     ripEventKind = "done"
	ripEventError    ripEventKind = "error"
)

// ripEvent is one line of the rip response stream.
type ripEvent struct {
	Kind ripEventKind `json:"kind"`

	// progress
	Title   string  `json:"title,omitempty"`
	Percent float64 `json:"percent,omitempty"`

	// info
	InfoItem  int    `json:"info_item,omitempty"`
	InfoAttr  int    `json:"info_attr,omitempty"`
	InfoCode  int    `json:"info_code,omitempty"`
	InfoValue string `json:"info_value,omitempty"`

	// done
	OutputFiles []string `json:"output_files,omitempty"`
	TitleCount  int      `json:"title_count,omitempty"`

	// error
	Message string `json:"message,omitempty"`
}

// errorBody is the JSON body written on a non-2xx response.
type errorBody struct {
	Error string `json:"error"`
}

// driveMetaResponse mirrors contract.DriveMeta; duplicated here rather
// than imported so the wire shape stays independent of contract's Go
// types, matching contract's own "interfaces only, no wire format" scope.
type driveMetaResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}
