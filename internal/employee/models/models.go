package models

// Employee is a staff member who can open a session with their PIN. Only the
// bcrypt hash of the PIN is ever stored.
type Employee struct {
	ID         int64
	EmployeeID string
	Name       string
	PinHash    string
}

// AuthRequest is the PIN login input.
type AuthRequest struct {
	EmployeeID string `json:"employeeId"`
	Pin        string `json:"pin"`
}

// AuthResult is returned after a successful PIN check.
type AuthResult struct {
	Token      string `json:"token"`
	EmployeeID string `json:"employeeId"`
	Name       string `json:"name"`
	ExpiresIn  int64  `json:"expiresIn"`
}
