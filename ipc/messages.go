package ipc

import "github.com/nstehr/abilityc/model"

// Message types. Clients open with hello and then send any number of compile
// requests; each gets exactly one result.
const (
	TypeHello   = "hello"
	TypeAck     = "ack"
	TypeCompile = "compile"
	TypeResult  = "result"
	TypeError   = "error"
)

type HelloMessage struct {
	Client string `json:"client"`
}

type AckMessage struct {
	Status  string `json:"status"`
	Model   string `json:"model,omitempty"`
	Version string `json:"version,omitempty"`
}

// CompileRequest asks for one character's script. ID is echoed in the result
// so clients may pipeline requests.
type CompileRequest struct {
	ID         string          `json:"id,omitempty"`
	Input      model.PlanInput `json:"input"`
	Provenance string          `json:"provenance,omitempty"`
}

type CompileResult struct {
	ID        string `json:"id,omitempty"`
	Script    string `json:"script"`
	UsedModel bool   `json:"usedModel"`
	Error     string `json:"error,omitempty"`
}

// ErrorMessage reports a request that could not be handled at all.
type ErrorMessage struct {
	ID    string `json:"id,omitempty"`
	Error string `json:"error"`
}
