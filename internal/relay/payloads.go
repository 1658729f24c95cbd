package relay

import "github.com/syng-dev/syng/internal/model"

// statePayload is the "state" event body: the full queue and recent list
// for a room, as observed by whichever session receives it.
type statePayload struct {
	Queue  []*model.Entry `json:"queue"`
	Recent []*model.Entry `json:"recent"`
}

// registerClientRequest is the register-client event body. Version is the
// playback client's advertised major version; the relay refuses to register
// a client whose major version doesn't match its own.
type registerClientRequest struct {
	Room    string            `json:"room"`
	Secret  string            `json:"secret"`
	Version int               `json:"version"`
	Queue   []*model.Entry    `json:"queue"`
	Recent  []*model.Entry    `json:"recent"`
	Config  *model.RoomConfig `json:"config"`
}

type registerClientReply struct {
	Success bool   `json:"success"`
	Room    string `json:"room"`
	Reason  string `json:"reason,omitempty"`
}

type registerWebRequest struct {
	Room string `json:"room"`
}

type registerWebReply struct {
	Success bool `json:"success"`
}

type registerAdminRequest struct {
	Secret string `json:"secret"`
}

type registerAdminReply struct {
	Success bool `json:"success"`
}

type sourcesRequest struct {
	Sources []string `json:"sources"`
}

type requestConfigPayload struct {
	Source string `json:"source"`
}

type configChunkRequest struct {
	Source string         `json:"source"`
	Config map[string]any `json:"config"`
	Number int            `json:"number"`
	Total  int            `json:"total"`
}

type configRequest struct {
	Source string         `json:"source"`
	Config map[string]any `json:"config"`
}

type appendRequest struct {
	Source    string `json:"source"`
	ID        string `json:"id"`
	Performer string `json:"performer"`
}

type metaInfoRequest struct {
	UUID string         `json:"uuid"`
	Meta map[string]any `json:"meta"`
}

type getFirstOrNextRequest struct{}

type moveUpRequest struct {
	UUID string `json:"uuid"`
}

type skipRequest struct {
	UUID string `json:"uuid"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchResultsReply struct {
	Results []model.Result `json:"results"`
}

type msgPayload struct {
	Msg string `json:"msg"`
}
