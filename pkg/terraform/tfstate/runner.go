package tfstate

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// ShowTimeout bounds a single `terraform show -json` invocation.
const ShowTimeout = 120 * time.Second

// Runner obtains deployed state for a working directory, preferring the
// terraform CLI and falling back to state files on disk.
type Runner struct {
	dir    string
	logger *log.Logger
}

// NewRunner returns a Runner for the given Terraform directory.
func NewRunner(dir string, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{dir: dir, logger: logger}
}

// Discover tries `terraform show -json` first and falls back to reading
// terraform.tfstate or .terraform/terraform.tfstate. A nil State with a nil
// error means no state exists, which is a normal condition.
func (r *Runner) Discover(ctx context.Context) (*State, error) {
	raw, err := r.DiscoverRaw(ctx)
	if err != nil || raw == nil {
		return nil, err
	}
	return Parse(raw)
}

// DiscoverRaw returns the raw state JSON from the same sources Discover
// uses. Callers that cache the document use this and Parse separately.
func (r *Runner) DiscoverRaw(ctx context.Context) ([]byte, error) {
	raw, err := r.show(ctx)
	if err != nil {
		r.logger.Debug("terraform show unavailable", "err", err)
	} else if st, perr := Parse(raw); perr == nil && st.Len() > 0 {
		return raw, nil
	}

	for _, name := range []string{"terraform.tfstate", filepath.Join(".terraform", "terraform.tfstate")} {
		path := filepath.Join(r.dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		st, err := Parse(data)
		if err != nil {
			continue
		}
		r.logger.Debug("loaded state file", "file", path, "resources", st.Len())
		return data, nil
	}
	return nil, nil
}

func (r *Runner) show(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, ShowTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "terraform", "show", "-json")
	cmd.Dir = r.dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("terraform show: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}
