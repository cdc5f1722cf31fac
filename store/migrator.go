package store

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/hrygo/cadence/internal/version"
)

// Migration system overview:
//
// Schema version is stored in workspace_setting under the
// schema-version key and compared with semver rules.
//
// Flow:
// 1. If the database is uninitialized, apply LATEST.sql for the driver
//    and record the current schema version.
// 2. If initialized, verify the recorded version is not newer than the
//    binary (downgrades are rejected) and bump the recorded version.
//
// Migration files live in store/migration/{driver}/. Incremental
// migrations would be added as {version}/NN__description.sql next to
// LATEST.sql when the schema next changes.

//go:embed migration
var migrationFS embed.FS

const latestSchemaFileName = "LATEST.sql"

// Migrate prepares the database schema for the current version.
func (s *Store) Migrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check database initialization")
	}

	currentSchemaVersion := version.GetSchemaVersion(s.profile.Version)

	if !initialized {
		if err := s.applyLatestSchema(ctx); err != nil {
			return errors.Wrap(err, "failed to apply latest schema")
		}
		if _, err := s.UpsertWorkspaceSetting(ctx, &WorkspaceSetting{
			Key:   WorkspaceSettingKeySchemaVersion,
			Value: currentSchemaVersion,
		}); err != nil {
			return errors.Wrap(err, "failed to record schema version")
		}
		slog.Info("database initialized", slog.String("schema_version", currentSchemaVersion))
		return nil
	}

	setting, err := s.GetWorkspaceSetting(ctx, WorkspaceSettingKeySchemaVersion)
	if err != nil {
		return errors.Wrap(err, "failed to load schema version")
	}
	appliedVersion := ""
	if setting != nil {
		appliedVersion = setting.Value
	}

	if appliedVersion != "" && version.IsVersionGreaterThan(appliedVersion, currentSchemaVersion) {
		return errors.Errorf("database schema version %s is newer than server schema version %s, refusing to start", appliedVersion, currentSchemaVersion)
	}

	if appliedVersion != currentSchemaVersion {
		if _, err := s.UpsertWorkspaceSetting(ctx, &WorkspaceSetting{
			Key:   WorkspaceSettingKeySchemaVersion,
			Value: currentSchemaVersion,
		}); err != nil {
			return errors.Wrap(err, "failed to update schema version")
		}
		slog.Info("schema version updated",
			slog.String("from", appliedVersion),
			slog.String("to", currentSchemaVersion))
	}

	return nil
}

func (s *Store) applyLatestSchema(ctx context.Context) error {
	filePath := fmt.Sprintf("migration/%s/%s", s.profile.Driver, latestSchemaFileName)
	buf, err := migrationFS.ReadFile(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to read latest schema file %q", filePath)
	}

	if _, err := s.driver.GetDB().ExecContext(ctx, string(buf)); err != nil {
		return errors.Wrap(err, "failed to execute latest schema")
	}
	return nil
}
