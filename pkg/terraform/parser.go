package terraform

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// Parser reads .tf files from a directory tree and produces a ParseResult.
// Module calls with local sources (./ or ../) are followed and their
// resources carry the calling module's name as ModulePath. Parsed module
// directories are cached so a module instantiated twice is read once.
type Parser struct {
	root   string
	logger *log.Logger
	cache  map[string]*ParseResult
}

// NewParser creates a parser rooted at dir. The logger may be nil.
func NewParser(dir string, logger *log.Logger) *Parser {
	if logger == nil {
		logger = log.Default()
	}
	return &Parser{
		root:   dir,
		logger: logger,
		cache:  make(map[string]*ParseResult),
	}
}

// ParseDirectory parses every .tf file directly inside dir, then follows
// local module calls. Unparseable files are skipped with a warning; a
// directory with no .tf files yields an empty result, not an error.
func (p *Parser) ParseDirectory(dir string) (*ParseResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("terraform directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("terraform path %s is not a directory", dir)
	}

	result := &ParseResult{}
	files, err := tfFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		p.logger.Warn("no .tf files found", "dir", dir)
	}
	for _, f := range files {
		p.parseFile(f, result, "")
	}

	for _, mod := range result.Modules {
		modResult := p.parseModule(mod, dir)
		result.Resources = append(result.Resources, modResult.Resources...)
		result.Relationships = append(result.Relationships, modResult.Relationships...)
	}

	return result, nil
}

// parseModule parses a module call's source directory. Remote sources
// (registry, git) cannot be read locally and produce an empty result.
func (p *Parser) parseModule(mod ModuleCall, baseDir string) *ParseResult {
	var modDir string
	switch {
	case strings.HasPrefix(mod.Source, "./"), strings.HasPrefix(mod.Source, "../"):
		modDir = filepath.Clean(filepath.Join(baseDir, mod.Source))
	default:
		p.logger.Debug("skipping non-local module source", "module", mod.Name, "source", mod.Source)
		return &ParseResult{}
	}

	if cached, ok := p.cache[modDir]; ok {
		return relabelModule(cached, mod.Name)
	}

	files, err := tfFiles(modDir)
	if err != nil {
		p.logger.Warn("module path not readable", "module", mod.Name, "dir", modDir)
		return &ParseResult{}
	}

	result := &ParseResult{}
	for _, f := range files {
		p.parseFile(f, result, mod.Name)
	}
	p.cache[modDir] = result
	return relabelModule(result, mod.Name)
}

// relabelModule copies resources with the module path set to name, so the
// same cached module directory can back multiple instantiations.
func relabelModule(cached *ParseResult, name string) *ParseResult {
	out := &ParseResult{}
	for _, r := range cached.Resources {
		clone := *r
		clone.ModulePath = name
		out.Resources = append(out.Resources, &clone)
	}
	return out
}

func (p *Parser) parseFile(path string, result *ParseResult, modulePath string) {
	src, err := os.ReadFile(path)
	if err != nil {
		p.logger.Warn("could not read file", "file", path, "err", err)
		return
	}

	file, diags := hclsyntax.ParseConfig(src, path, hcl.Pos{Line: 1, Column: 1})
	if file == nil || diags.HasErrors() {
		p.logger.Warn("could not parse file", "file", path, "err", diags)
		return
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return
	}

	for _, block := range body.Blocks {
		switch block.Type {
		case "resource":
			if len(block.Labels) < 2 {
				continue
			}
			attrs := decodeBody(block.Body, src)
			result.Resources = append(result.Resources, &Resource{
				Type:       block.Labels[0],
				Name:       block.Labels[1],
				ModulePath: modulePath,
				Attributes: attrs,
				SourceFile: path,
				Count:      extractCount(attrs),
				ForEach:    attrs["for_each"] != nil,
			})
		case "module":
			if len(block.Labels) < 1 {
				continue
			}
			inputs := decodeBody(block.Body, src)
			source, _ := inputs["source"].(string)
			result.Modules = append(result.Modules, ModuleCall{
				Name:       block.Labels[0],
				Source:     source,
				Inputs:     inputs,
				SourceFile: path,
			})
		}
	}
}

// decodeBody converts an HCL body into a generic attribute tree. Literal
// expressions evaluate to their Go value; expressions that reference other
// objects (resources, variables, functions) keep their source text so the
// downstream reference scanners can see tokens like "aws_subnet.public.id".
// Nested blocks become list-valued entries keyed by block type, matching the
// shape `terraform show -json` uses for the same constructs.
func decodeBody(body *hclsyntax.Body, src []byte) map[string]any {
	attrs := make(map[string]any, len(body.Attributes)+len(body.Blocks))

	names := make([]string, 0, len(body.Attributes))
	for name := range body.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		attrs[name] = decodeExpression(body.Attributes[name].Expr, src)
	}

	for _, block := range body.Blocks {
		nested := decodeBody(block.Body, src)
		existing, _ := attrs[block.Type].([]any)
		attrs[block.Type] = append(existing, nested)
	}

	return attrs
}

func decodeExpression(expr hclsyntax.Expression, src []byte) any {
	val, diags := expr.Value(nil)
	if !diags.HasErrors() && val.IsKnown() && !val.IsNull() {
		return ctyToGo(val)
	}
	return exprSourceText(expr, src)
}

// exprSourceText returns the raw source of an expression, with surrounding
// quotes stripped from template expressions so "${var.env}-web" comes back as
// ${var.env}-web.
func exprSourceText(expr hclsyntax.Expression, src []byte) string {
	rng := expr.Range()
	if rng.Start.Byte < 0 || rng.End.Byte > len(src) || rng.Start.Byte >= rng.End.Byte {
		return ""
	}
	text := string(src[rng.Start.Byte:rng.End.Byte])
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		text = text[1 : len(text)-1]
	}
	return text
}

// ctyToGo converts a known, non-null cty value to plain Go values.
func ctyToGo(val cty.Value) any {
	t := val.Type()
	switch {
	case t == cty.String:
		return val.AsString()
	case t == cty.Bool:
		return val.True()
	case t == cty.Number:
		if i, acc := val.AsBigFloat().Int64(); acc == 0 {
			return int(i)
		}
		f, _ := val.AsBigFloat().Float64()
		return f
	case t.IsTupleType(), t.IsListType(), t.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			if v.IsKnown() && !v.IsNull() {
				out = append(out, ctyToGo(v))
			}
		}
		return out
	case t.IsObjectType(), t.IsMapType():
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			if k.Type() == cty.String && v.IsKnown() && !v.IsNull() {
				out[k.AsString()] = ctyToGo(v)
			}
		}
		return out
	default:
		return nil
	}
}

// extractCount pulls the count meta-argument out of an attribute tree.
// Simple integers (literal or numeric string) resolve; anything else is
// CountComplex so callers know multiplicity exists but not how much.
func extractCount(attrs map[string]any) int {
	v, ok := attrs["count"]
	if !ok {
		return 0
	}
	switch count := v.(type) {
	case int:
		return count
	case float64:
		return int(count)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(count)); err == nil {
			return n
		}
		return CountComplex
	default:
		return 0
	}
}

// tfFiles lists the .tf files directly inside dir, sorted for deterministic
// parse order.
func tfFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".tf") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
