package handlers

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caasmo/credkeeper/config"
	"github.com/caasmo/credkeeper/db"
	"github.com/caasmo/credkeeper/db/zombiezen"
)

// JobTypeBackupLocal identifies the recurrent database backup job.
const JobTypeBackupLocal = "job_type_backup_local"

// BackupHandler handles database backup jobs. It copies the database with
// VACUUM INTO, which produces a consistent, defragmented snapshot without
// blocking writers, then gzips the result into the configured directory.
type BackupHandler struct {
	configProvider *config.Provider
	logger         *slog.Logger
}

func NewBackupHandler(provider *config.Provider, logger *slog.Logger) *BackupHandler {
	if provider == nil || logger == nil {
		panic("NewBackupHandler: received nil provider or logger")
	}
	return &BackupHandler{
		configProvider: provider,
		logger:         logger.With("job_handler", "sqlite_backup"),
	}
}

// Handle implements the JobHandler interface for database backups
func (h *BackupHandler) Handle(ctx context.Context, job db.Job) error {
	backupCfg := h.configProvider.Get().Backup

	sourceDbPath := backupCfg.SourcePath
	tempBackupPath := filepath.Join(os.TempDir(), fmt.Sprintf("backup-%d.db", time.Now().UnixNano()))

	baseName := filepath.Base(sourceDbPath)
	fileNameOnly := strings.TrimSuffix(baseName, filepath.Ext(baseName))
	timestamp := time.Now().UTC().Format("2006-01-02T15-04-05Z")
	finalBackupPath := filepath.Join(backupCfg.DestDir, fmt.Sprintf("%s-%s.bck.gz", fileNameOnly, timestamp))

	h.logger.Info("starting database backup", "source", sourceDbPath, "destination", finalBackupPath)

	if err := h.vacuumInto(sourceDbPath, tempBackupPath); err != nil {
		return fmt.Errorf("backup creation failed: %w", err)
	}
	defer func() {
		if err := os.Remove(tempBackupPath); err != nil {
			h.logger.Error("error removing temporary backup file", "err", err)
		}
	}()

	if err := h.compressFile(tempBackupPath, finalBackupPath); err != nil {
		return fmt.Errorf("failed to gzip backup file: %w", err)
	}

	h.logger.Info("database backup completed", "path", finalBackupPath)
	return nil
}

func (h *BackupHandler) vacuumInto(sourcePath, destPath string) error {
	sourceConn, err := zombiezen.NewConn(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open source db for vacuum: %w", err)
	}
	defer func() {
		if err := sourceConn.Close(); err != nil {
			h.logger.Error("error closing source database connection", "err", err)
		}
	}()

	stmt, err := sourceConn.Prepare(fmt.Sprintf("VACUUM INTO '%s';", destPath))
	if err != nil {
		return fmt.Errorf("failed to prepare vacuum statement: %w", err)
	}
	defer stmt.Finalize()

	if _, err := stmt.Step(); err != nil {
		return fmt.Errorf("failed to execute vacuum statement: %w", err)
	}
	return nil
}

func (h *BackupHandler) compressFile(sourcePath, destPath string) error {
	sourceFile, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open temp backup for compression: %w", err)
	}
	defer sourceFile.Close()

	destFile, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create final backup file: %w", err)
	}
	defer destFile.Close()

	gzWriter := gzip.NewWriter(destFile)
	if _, err := io.Copy(gzWriter, sourceFile); err != nil {
		gzWriter.Close()
		return fmt.Errorf("failed to compress backup: %w", err)
	}
	return gzWriter.Close()
}
