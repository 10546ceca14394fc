package models

// Recognized ops command names. The dispatch set is closed: anything else is
// rejected without touching the flag store or the audit log.
const (
	CmdStatus       = "status"
	CmdHaltGlobal   = "halt_global"
	CmdResumeGlobal = "resume_global"
	CmdHaltPairs    = "halt_pairs"
	CmdFlattenPairs = "flatten_pairs"
	CmdSetLeverage  = "set_leverage"
)

// Ops response statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// OpsCommand is one operator command. Ephemeral: built per invocation,
// never persisted.
type OpsCommand struct {
	Command   string            `json:"command"`
	Arguments map[string]string `json:"arguments"`
	Metadata  map[string]string `json:"metadata"`
}

// OpsResponse is the structured result of an ops command. Details carries a
// serialized flag snapshot on success.
type OpsResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// OpsEvent is the JSON envelope broadcast on the ops-event channel after a
// successful command.
type OpsEvent struct {
	Command   string            `json:"command"`
	Arguments map[string]string `json:"arguments"`
	Metadata  map[string]string `json:"metadata"`
	Status    string            `json:"status"`
	Details   map[string]string `json:"details"`
}
