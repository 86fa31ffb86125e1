package workspace

import "time"

// Workspace is the tenant boundary: every wallet and transaction belongs to
// exactly one workspace.
type Workspace struct {
	ID         string
	Name       string
	SecretHash []byte
	CreatedAt  time.Time
}
