package common

import (
	"encoding/json"
	"os"
)

// CIResult is the machine-readable envelope every tool prints in --ci mode.
type CIResult struct {
	OK      bool     `json:"ok"`
	Command string   `json:"command"`
	Details []string `json:"details,omitempty"`
	Error   string   `json:"error,omitempty"`
}

func PrintCIResult(ok bool, command string, details []string, err error) {
	result := CIResult{OK: ok, Command: command, Details: details}
	if err != nil {
		result.Error = err.Error()
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
}
