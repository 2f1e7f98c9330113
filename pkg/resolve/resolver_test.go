package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestResolvePrecedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "variables.tf", `
variable "env" {
  default = "dev"
}

variable "region" {
  default = "us-east-1"
}

locals {
  prefix = "acme"
}
`)
	writeFile(t, dir, "a.auto.tfvars", `env = "staging"`)
	writeFile(t, dir, "b.auto.tfvars", `env = "qa"`)
	writeFile(t, dir, "terraform.tfvars", `env = "production"`)

	r := NewResolver(dir, nil)

	assert.Equal(t, "production-api", r.Resolve("${var.env}-api"))
	assert.Equal(t, "us-east-1", r.Resolve("${var.region}"))
	assert.Equal(t, "acme-bucket", r.Resolve("${local.prefix}-bucket"))
}

func TestResolveAutoTfvarsOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.auto.tfvars", `name = "first"`)
	writeFile(t, dir, "z.auto.tfvars", `name = "last"`)

	r := NewResolver(dir, nil)
	assert.Equal(t, "last", r.Resolve("${var.name}"))
}

func TestResolveUnknownKeepsMarker(t *testing.T) {
	r := NewResolver(t.TempDir(), nil)
	assert.Equal(t, "${var.missing}-api", r.Resolve("${var.missing}-api"))
	assert.Equal(t, "plain", r.Resolve("plain"))
}

func TestResolveNonStringDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "variables.tf", `
variable "port" {
  default = 8080
}

variable "enabled" {
  default = true
}
`)

	r := NewResolver(dir, nil)
	assert.Equal(t, "app:8080", r.Resolve("app:${var.port}"))
	assert.Equal(t, "true", r.Resolve("${var.enabled}"))
}

func TestTruncateName(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"short name untouched", "short", 25, "short"},
		{"exact length untouched", "exactly-twenty-five-chars", 25, "exactly-twenty-five-chars"},
		{"long name truncated", "production-api-gateway-service", 25, "production-api-gateway..."},
		{"default limit applies", "production-api-gateway-service", 0, "production-api-gateway..."},
		{"tiny limit", "abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateName(tt.in, tt.maxLen)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), max(tt.maxLen, DefaultMaxNameLength))
		})
	}
}
