package dto

// RegisterTerminalRequest creates a new terminal identity. Registration
// always mints a fresh id, even when the name repeats an existing terminal.
type RegisterTerminalRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=60"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=120"`
	IsMain   bool    `json:"is_main"`
}

type TerminalResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Location *string `json:"location,omitempty"`
	IsMain   bool    `json:"is_main"`
	IsActive bool    `json:"is_active"`
}

// ValidateTerminalResponse reports whether a previously registered terminal
// still exists. Callers clear their cached identity only on exists=false
// with confirmed=true; a transient failure reports exists=true (fail open).
type ValidateTerminalResponse struct {
	Exists    bool `json:"exists"`
	Confirmed bool `json:"confirmed"`
}
