package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"template-builder/internal/common/errors"
	"template-builder/internal/common/logger"
	"template-builder/internal/models"

	"github.com/google/uuid"
)

// Publisher stages a build under root/.staging-<buildId> and swaps it into
// root/<templateId> with a rename. The previous tree is kept as a backup
// until the caller commits or rolls back.
type Publisher struct {
	root      string
	log       logger.Logger
	writeFile func(name string, data []byte, perm os.FileMode) error
}

func NewPublisher(root string, log logger.Logger) *Publisher {
	return &Publisher{
		root:      filepath.Clean(root),
		log:       logger.ForComponent(log, "artifact-publisher"),
		writeFile: os.WriteFile,
	}
}

// Publication is a published tree whose previous version has not been
// discarded yet.
type Publication struct {
	Target   string
	Backup   string
	Manifest Manifest
	log      logger.Logger
	done     bool
}

// Publish writes every result plus the manifest. On any error nothing under
// root/<templateId> has changed and the staging directory is gone.
func (p *Publisher) Publish(ctx context.Context, manifest Manifest, results []models.ComponentGenerationResult) (*Publication, error) {
	if !filepath.IsLocal(manifest.TemplateID) || filepath.Base(manifest.TemplateID) != manifest.TemplateID {
		return nil, errors.NewFilesystemFailureError(manifest.TemplateID, fmt.Errorf("template id is not a single path segment"))
	}
	if err := os.MkdirAll(p.root, 0o755); err != nil {
		return nil, errors.NewFilesystemFailureError(p.root, err)
	}
	target := filepath.Join(p.root, manifest.TemplateID)
	if err := checkReplaceable(target); err != nil {
		return nil, err
	}
	staging := filepath.Join(p.root, ".staging-"+manifest.BuildID)
	if err := os.RemoveAll(staging); err != nil {
		return nil, errors.NewFilesystemFailureError(staging, err)
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, errors.NewFilesystemFailureError(staging, err)
	}
	defer os.RemoveAll(staging)

	for _, r := range results {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelledError(err)
		}
		if !filepath.IsLocal(r.ComponentPath) {
			return nil, errors.NewFilesystemFailureError(r.ComponentPath, fmt.Errorf("path escapes output directory"))
		}
		dst := filepath.Join(staging, filepath.FromSlash(r.ComponentPath))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return nil, errors.NewFilesystemFailureError(dst, err)
		}
		if err := p.writeFile(dst, []byte(r.ComponentCode), 0o644); err != nil {
			return nil, errors.NewFilesystemFailureError(dst, err)
		}
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, errors.NewFilesystemFailureError(ManifestFile, err)
	}
	if err := p.writeFile(filepath.Join(staging, ManifestFile), append(data, '\n'), 0o644); err != nil {
		return nil, errors.NewFilesystemFailureError(ManifestFile, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelledError(err)
	}

	pub := &Publication{Target: target, Manifest: manifest, log: p.log}
	_, statErr := os.Stat(target)
	if statErr != nil && !os.IsNotExist(statErr) {
		return nil, errors.NewFilesystemFailureError(target, statErr)
	}
	if statErr == nil {
		pub.Backup = filepath.Join(p.root, ".backup-"+manifest.TemplateID+"-"+uuid.NewString())
		if err := os.Rename(target, pub.Backup); err != nil {
			return nil, errors.NewFilesystemFailureError(target, err)
		}
	}
	if err := os.Rename(staging, target); err != nil {
		if pub.Backup != "" {
			_ = os.Rename(pub.Backup, target)
		}
		return nil, errors.NewFilesystemFailureError(target, err)
	}

	p.log.Info("Artifacts published", map[string]interface{}{
		"templateId": manifest.TemplateID,
		"buildId":    manifest.BuildID,
		"target":     target,
		"files":      len(results) + 1,
		"hadBackup":  pub.Backup != "",
	})
	return pub, nil
}

// Commit discards the previous tree.
func (pub *Publication) Commit() error {
	if pub == nil || pub.done {
		return nil
	}
	pub.done = true
	if pub.Backup == "" {
		return nil
	}
	return os.RemoveAll(pub.Backup)
}

// Rollback removes the published tree and restores the previous one.
func (pub *Publication) Rollback() error {
	if pub == nil || pub.done {
		return nil
	}
	pub.done = true
	if err := os.RemoveAll(pub.Target); err != nil {
		return err
	}
	if pub.Backup == "" {
		return nil
	}
	if err := os.Rename(pub.Backup, pub.Target); err != nil {
		pub.log.Error("Failed to restore previous artifacts", map[string]interface{}{
			"target": pub.Target,
			"backup": pub.Backup,
			"error":  err.Error(),
		})
		return err
	}
	return nil
}

// checkReplaceable refuses to move aside an existing target that an earlier
// build did not produce.
func checkReplaceable(target string) error {
	info, err := os.Lstat(target)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.NewFilesystemFailureError(target, err)
	}
	if !info.IsDir() {
		return errors.NewFilesystemFailureError(target, fmt.Errorf("target exists and is not a directory"))
	}
	m, err := os.Lstat(filepath.Join(target, ManifestFile))
	if err != nil || !m.Mode().IsRegular() {
		return errors.NewFilesystemFailureError(target, fmt.Errorf("target exists without a %s from an earlier build", ManifestFile))
	}
	return nil
}
