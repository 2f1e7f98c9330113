// Package resolve substitutes variable and local references in attribute
// strings using the values declared in a Terraform directory. Only static
// values are considered: variable defaults, tfvars files and literal locals.
package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// DefaultMaxNameLength is the truncation limit applied to display names.
const DefaultMaxNameLength = 25

var interpolationRE = regexp.MustCompile(`\$\{(var|local)\.(\w+)\}`)

// Resolver holds the static variable and local values of a configuration.
type Resolver struct {
	variables map[string]string
	locals    map[string]string
}

// NewResolver scans dir for variable defaults, tfvars assignments and locals
// blocks. Precedence for variables, lowest to highest: declaration defaults,
// *.auto.tfvars in lexical order, terraform.tfvars.
func NewResolver(dir string, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	r := &Resolver{
		variables: make(map[string]string),
		locals:    make(map[string]string),
	}

	for _, path := range configFiles(dir, ".tf") {
		r.scanConfig(path, logger)
	}
	for _, path := range configFiles(dir, ".auto.tfvars") {
		r.scanTfvars(path, logger)
	}
	if path := filepath.Join(dir, "terraform.tfvars"); fileExists(path) {
		r.scanTfvars(path, logger)
	}
	return r
}

// Resolve replaces ${var.x} and ${local.x} markers with known values.
// Unknown references are left in place so callers can detect them.
func (r *Resolver) Resolve(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return interpolationRE.ReplaceAllStringFunc(s, func(match string) string {
		parts := interpolationRE.FindStringSubmatch(match)
		var val string
		var ok bool
		switch parts[1] {
		case "var":
			val, ok = r.variables[parts[2]]
		case "local":
			val, ok = r.locals[parts[2]]
		}
		if !ok {
			return match
		}
		return val
	})
}

// Variable returns the resolved value of a named variable.
func (r *Resolver) Variable(name string) (string, bool) {
	v, ok := r.variables[name]
	return v, ok
}

// TruncateName shortens a name to at most maxLen characters, appending "..."
// when truncation occurs. A maxLen below or equal to zero applies the default
// limit.
func TruncateName(name string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxNameLength
	}
	if len(name) <= maxLen {
		return name
	}
	if maxLen <= 3 {
		return name[:maxLen]
	}
	return name[:maxLen-3] + "..."
}

func (r *Resolver) scanConfig(path string, logger *log.Logger) {
	body := parseBody(path, logger)
	if body == nil {
		return
	}
	for _, block := range body.Blocks {
		switch block.Type {
		case "variable":
			if len(block.Labels) != 1 {
				continue
			}
			attr, ok := block.Body.Attributes["default"]
			if !ok {
				continue
			}
			if v, ok := literalString(attr.Expr); ok {
				if _, seen := r.variables[block.Labels[0]]; !seen {
					r.variables[block.Labels[0]] = v
				}
			}
		case "locals":
			for name, attr := range block.Body.Attributes {
				if v, ok := literalString(attr.Expr); ok {
					r.locals[name] = v
				}
			}
		}
	}
}

func (r *Resolver) scanTfvars(path string, logger *log.Logger) {
	body := parseBody(path, logger)
	if body == nil {
		return
	}
	for name, attr := range body.Attributes {
		if v, ok := literalString(attr.Expr); ok {
			r.variables[name] = v
		}
	}
}

func parseBody(path string, logger *log.Logger) *hclsyntax.Body {
	src, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("could not read file", "file", path, "err", err)
		return nil
	}
	file, diags := hclsyntax.ParseConfig(src, path, hcl.Pos{Line: 1, Column: 1})
	if file == nil || diags.HasErrors() {
		logger.Warn("skipping unparseable file", "file", path)
		return nil
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil
	}
	return body
}

func literalString(expr hclsyntax.Expression) (string, bool) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() || !val.IsKnown() || val.IsNull() {
		return "", false
	}
	switch val.Type() {
	case cty.String:
		return val.AsString(), true
	case cty.Number:
		return val.AsBigFloat().Text('f', -1), true
	case cty.Bool:
		return fmt.Sprintf("%t", val.True()), true
	}
	return "", false
}

func configFiles(dir, suffix string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
