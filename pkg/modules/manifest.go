package modules

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestFile is the name of the manifest written next to the script.
const ManifestFile = "manifest.json"

// Manifest records what was deployed.
type Manifest struct {
	Project     string    `json:"project"`
	BuildID     string    `json:"build_id"`
	Script      string    `json:"script"`
	SHA256      string    `json:"sha256"`
	Bytes       int64     `json:"bytes"`
	Chars       int       `json:"chars"`
	Minified    bool      `json:"minified"`
	Thumb       string    `json:"thumb,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ManifestPublisher writes manifest.json beside each published script.
type ManifestPublisher struct {
	now func() time.Time
}

// NewManifestPublisher creates a ManifestPublisher.
func NewManifestPublisher() *ManifestPublisher {
	return &ManifestPublisher{now: time.Now}
}

// Publish hashes the written script and writes the manifest.
func (p *ManifestPublisher) Publish(_ context.Context, artifact Artifact) error {
	if artifact.DryRun {
		return nil
	}

	data, err := os.ReadFile(artifact.ScriptPath)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	sum := sha256.Sum256(data)
	manifest := Manifest{
		Project:     artifact.ProjectName,
		BuildID:     artifact.BuildID,
		Script:      filepath.Base(artifact.ScriptPath),
		SHA256:      hex.EncodeToString(sum[:]),
		Bytes:       int64(len(data)),
		Chars:       artifact.Chars,
		Minified:    artifact.Minified,
		GeneratedAt: p.now().UTC(),
	}

	if artifact.ThumbPath != "" {
		manifest.Thumb = filepath.Base(artifact.ThumbPath)
	}

	out, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	path := filepath.Join(filepath.Dir(artifact.ScriptPath), ManifestFile)

	err = os.WriteFile(path, append(out, '\n'), 0o644) //nolint:gosec // deployed next to the script
	if err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}
