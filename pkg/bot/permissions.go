package bot

import (
	"encoding/json"
	"fmt"
	"os"
)

// Permissions maps a table name to the chat users allowed to post to it,
// each with the datastore user ID to post as.
type Permissions map[string]map[string]int64

// LoadPermissions reads a permissions file:
//
//	{"neuron_information": {"ULH2UM0H4": 42}}
func LoadPermissions(path string) (Permissions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read permissions file: %w", err)
	}
	var perms Permissions
	if err := json.Unmarshal(data, &perms); err != nil {
		return nil, fmt.Errorf("failed to parse permissions file %s: %w", path, err)
	}
	if perms == nil {
		perms = Permissions{}
	}
	return perms, nil
}

// Listed reports whether table appears in the permissions.
func (p Permissions) Listed(table string) bool {
	_, ok := p[table]
	return ok
}

// UserID returns the datastore user chatUser posts to table as.
func (p Permissions) UserID(table, chatUser string) (int64, bool) {
	id, ok := p[table][chatUser]
	return id, ok
}
