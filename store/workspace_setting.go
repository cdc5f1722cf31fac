package store

import "context"

// Workspace setting keys.
const (
	// WorkspaceSettingKeySchemaVersion tracks the applied schema version.
	WorkspaceSettingKeySchemaVersion = "schema-version"
	// WorkspaceSettingKeySecret holds the JWT signing secret, generated
	// on first boot.
	WorkspaceSettingKeySecret = "secret-session"
)

// WorkspaceSetting is an instance-level key/value setting.
type WorkspaceSetting struct {
	Key   string
	Value string
}

// FindWorkspaceSetting is the find condition for workspace setting.
type FindWorkspaceSetting struct {
	Key *string
}

func (s *Store) UpsertWorkspaceSetting(ctx context.Context, upsert *WorkspaceSetting) (*WorkspaceSetting, error) {
	return s.driver.UpsertWorkspaceSetting(ctx, upsert)
}

// GetWorkspaceSetting returns the setting for the key, or nil.
func (s *Store) GetWorkspaceSetting(ctx context.Context, key string) (*WorkspaceSetting, error) {
	list, err := s.driver.ListWorkspaceSettings(ctx, &FindWorkspaceSetting{Key: &key})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}
