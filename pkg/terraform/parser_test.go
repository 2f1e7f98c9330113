package terraform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTF(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestParseDirectoryResources(t *testing.T) {
	dir := t.TempDir()
	writeTF(t, dir, "main.tf", `
resource "aws_vpc" "main" {
  cidr_block = "10.0.0.0/16"

  tags = {
    Name = "main-vpc"
  }
}

resource "aws_subnet" "public_a" {
  vpc_id            = aws_vpc.main.id
  cidr_block        = "10.0.1.0/24"
  availability_zone = "us-east-1a"
}
`)

	p := NewParser(dir, nil)
	result, err := p.ParseDirectory(dir)
	require.NoError(t, err)
	require.Len(t, result.Resources, 2)

	vpc := result.FindResource("aws_vpc", "main")
	require.NotNil(t, vpc)
	assert.Equal(t, "aws_vpc.main", vpc.FullID())
	assert.Equal(t, "10.0.0.0/16", vpc.Attributes["cidr_block"])

	tags, ok := vpc.Attributes["tags"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "main-vpc", tags["Name"])

	subnet := result.FindResource("aws_subnet", "public_a")
	require.NotNil(t, subnet)
	// Reference expressions keep their source text.
	assert.Equal(t, "aws_vpc.main.id", subnet.Attributes["vpc_id"])
	assert.Equal(t, "us-east-1a", subnet.Attributes["availability_zone"])
}

func TestParseDirectoryTemplateKeepsMarker(t *testing.T) {
	dir := t.TempDir()
	writeTF(t, dir, "app.tf", `
resource "aws_s3_bucket" "assets" {
  bucket = "${var.env}-assets"
}
`)

	p := NewParser(dir, nil)
	result, err := p.ParseDirectory(dir)
	require.NoError(t, err)
	require.Len(t, result.Resources, 1)
	assert.Equal(t, "${var.env}-assets", result.Resources[0].Attributes["bucket"])
	assert.Equal(t, "assets", result.Resources[0].DisplayName())
}

func TestParseDirectoryNestedBlocks(t *testing.T) {
	dir := t.TempDir()
	writeTF(t, dir, "sg.tf", `
resource "aws_security_group" "web" {
  name = "web-sg"

  ingress {
    from_port       = 443
    to_port         = 443
    protocol        = "tcp"
    security_groups = [aws_security_group.lb.id]
  }

  ingress {
    from_port = 80
    to_port   = 80
    protocol  = "tcp"
  }
}

resource "aws_security_group" "lb" {
  name = "lb-sg"
}
`)

	p := NewParser(dir, nil)
	result, err := p.ParseDirectory(dir)
	require.NoError(t, err)

	web := result.FindResource("aws_security_group", "web")
	require.NotNil(t, web)

	rules, ok := web.Attributes["ingress"].([]any)
	require.True(t, ok)
	require.Len(t, rules, 2)

	first, ok := rules[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 443, first["from_port"])
	assert.Equal(t, "[aws_security_group.lb.id]", first["security_groups"])
}

func TestParseDirectoryCountAndForEach(t *testing.T) {
	dir := t.TempDir()
	writeTF(t, dir, "subnets.tf", `
resource "aws_subnet" "private" {
  count      = 3
  cidr_block = "10.0.0.0/24"
}

resource "aws_subnet" "dynamic" {
  count = length(var.azs)
}

resource "aws_sqs_queue" "jobs" {
  for_each = var.queues
}
`)

	p := NewParser(dir, nil)
	result, err := p.ParseDirectory(dir)
	require.NoError(t, err)

	assert.Equal(t, 3, result.FindResource("aws_subnet", "private").Count)
	assert.Equal(t, CountComplex, result.FindResource("aws_subnet", "dynamic").Count)
	assert.True(t, result.FindResource("aws_sqs_queue", "jobs").ForEach)
}

func TestParseDirectoryModules(t *testing.T) {
	root := t.TempDir()
	modDir := filepath.Join(root, "modules", "network")
	require.NoError(t, os.MkdirAll(modDir, 0o755))

	writeTF(t, root, "main.tf", `
module "network" {
  source = "./modules/network"
  cidr   = "10.0.0.0/16"
}
`)
	writeTF(t, modDir, "vpc.tf", `
resource "aws_vpc" "this" {
  cidr_block = "10.0.0.0/16"
}
`)

	p := NewParser(root, nil)
	result, err := p.ParseDirectory(root)
	require.NoError(t, err)

	require.Len(t, result.Modules, 1)
	require.Len(t, result.Resources, 1)
	assert.Equal(t, "network", result.Resources[0].ModulePath)
	assert.Equal(t, "network.aws_vpc.this", result.Resources[0].FullID())
}

func TestParseDirectoryMissing(t *testing.T) {
	p := NewParser("/nonexistent", nil)
	_, err := p.ParseDirectory("/nonexistent/path")
	assert.Error(t, err)
}

func TestContainsInterpolation(t *testing.T) {
	assert.True(t, ContainsInterpolation("${var.name}-api"))
	assert.False(t, ContainsInterpolation("plain-name"))
	assert.False(t, ContainsInterpolation("dollar$only"))
}
