package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRulesValidate(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateRejectsDuplicateTypeRegistration(t *testing.T) {
	rules := &Rules{
		Aggregations: []AggregationRule{
			{Service: "sqs", Primary: []string{"aws_sqs_queue"}},
			{Service: "queues", Primary: []string{"aws_sqs_queue"}},
		},
	}
	err := rules.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aws_sqs_queue")
}

func TestValidateRejectsEmptyPrimary(t *testing.T) {
	rules := &Rules{
		Aggregations: []AggregationRule{
			{Service: "orphan", Secondary: []string{"aws_s3_bucket_policy"}},
		},
	}
	assert.Error(t, rules.Validate())
}

func TestValidateRejectsDuplicateServiceName(t *testing.T) {
	rules := &Rules{
		Aggregations: []AggregationRule{
			{Service: "s3", Primary: []string{"aws_s3_bucket"}},
			{Service: "s3", Primary: []string{"aws_s3_bucket_policy"}},
		},
	}
	assert.Error(t, rules.Validate())
}

func TestLoadOverridesOneSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[aggregation]]
service = "queues"
primary = ["aws_sqs_queue"]
in_vpc = false
`), 0o644))

	rules, err := Load(path)
	require.NoError(t, err)

	require.Len(t, rules.Aggregations, 1)
	assert.Equal(t, "queues", rules.Aggregations[0].Service)

	// Unset sections keep defaults.
	assert.NotEmpty(t, rules.References)
	assert.NotEmpty(t, rules.Connections)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[aggregation]]
service = "a"
primary = ["aws_instance"]

[[aggregation]]
service = "b"
primary = ["aws_instance"]
`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestRuleForType(t *testing.T) {
	rules := Default()

	rule, ok := rules.RuleForType("aws_sqs_queue")
	require.True(t, ok)
	assert.Equal(t, "sqs", rule.Service)
	assert.True(t, rule.IsPrimary("aws_sqs_queue"))

	rule, ok = rules.RuleForType("aws_sqs_queue_policy")
	require.True(t, ok)
	assert.Equal(t, "sqs", rule.Service)
	assert.False(t, rule.IsPrimary("aws_sqs_queue_policy"))

	_, ok = rules.RuleForType("aws_unknown_thing")
	assert.False(t, ok)
}
