// Package pkg provides the core libraries for Stackplot diagram generation.
//
// # Overview
//
// Stackplot turns a Terraform project into a layered AWS architecture
// diagram without contacting any cloud API. The packages form a pipeline:
//
//	Terraform files (.tf)
//	         ↓
//	[terraform]  parse resources, modules, count/for_each
//	         ↓
//	[terraform/tfstate]  optional enrichment from terraform show
//	         ↓
//	[relation]  extract relationships (refs, DLQs, security groups)
//	         ↓
//	[aggregate]  group resources into logical services
//	         ↓
//	[vpc]  infer VPC structure (AZs, subnets, endpoints)
//	         ↓
//	[layout]  compute positions, groups and canvas size
//	         ↓
//	[render]  SVG, HTML and DOT output
//
// [pipeline] orchestrates the stages and handles caching through [cache].
// Rule tables live in [config], shared error codes in [errors], variable
// interpolation in [resolve], and optional instrumentation hooks in
// [observability].
//
// # Example
//
//	runner := pipeline.NewRunner(nil, nil, nil, nil)
//	defer runner.Close()
//
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Dir:     "./infra",
//	    Formats: []string{pipeline.FormatHTML},
//	})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("diagram.html", result.Artifacts[pipeline.FormatHTML], 0644)
package pkg
