package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackplot/stackplot/pkg/terraform"
)

func res(resourceType, name string, attrs map[string]any) *terraform.Resource {
	if attrs == nil {
		attrs = map[string]any{}
	}
	return &terraform.Resource{Type: resourceType, Name: name, Attributes: attrs}
}

func kinds(rels []terraform.Relationship) []string {
	out := make([]string, len(rels))
	for i, r := range rels {
		out[i] = r.Kind
	}
	return out
}

func TestExtractAttributeReferences(t *testing.T) {
	result := &terraform.ParseResult{Resources: []*terraform.Resource{
		res("aws_vpc", "main", nil),
		res("aws_instance", "web", map[string]any{
			"vpc_id":    "aws_vpc.main.id",
			"subnet_id": "aws_subnet.missing.id",
		}),
	}}

	rels := NewExtractor(nil, nil).Extract(result)
	require.Len(t, rels, 1)
	assert.Equal(t, "aws_instance.web", rels[0].SourceID)
	assert.Equal(t, "aws_vpc.main", rels[0].TargetID)
	assert.Equal(t, "belongs_to_vpc", rels[0].Kind)
}

func TestExtractModuleReference(t *testing.T) {
	vpc := res("aws_vpc", "this", nil)
	vpc.ModulePath = "network"
	result := &terraform.ParseResult{Resources: []*terraform.Resource{
		vpc,
		res("aws_instance", "web", map[string]any{
			"vpc_id": "module.network.vpc_id",
		}),
	}}

	rels := NewExtractor(nil, nil).Extract(result)
	require.Len(t, rels, 1)
	assert.Equal(t, "network.aws_vpc.this", rels[0].TargetID)
}

func TestDeepScanFindsGenericReferences(t *testing.T) {
	result := &terraform.ParseResult{Resources: []*terraform.Resource{
		res("aws_sqs_queue", "jobs", nil),
		res("aws_ecs_service", "api", map[string]any{
			"environment": []any{
				map[string]any{"name": "QUEUE_URL", "value": "aws_sqs_queue.jobs.url"},
			},
		}),
	}}

	rels := NewExtractor(nil, nil).Extract(result)
	require.Len(t, rels, 1)
	assert.Equal(t, terraform.KindReferences, rels[0].Kind)
	assert.Equal(t, "aws_ecs_service.api", rels[0].SourceID)
	assert.Equal(t, "aws_sqs_queue.jobs", rels[0].TargetID)
}

func TestDeepScanExcludesPlumbingAndOwnType(t *testing.T) {
	result := &terraform.ParseResult{Resources: []*terraform.Resource{
		res("aws_subnet", "public", nil),
		res("aws_iam_role", "task", nil),
		res("aws_sqs_queue", "dlq", nil),
		res("aws_sqs_queue", "jobs", map[string]any{
			"tags": map[string]any{
				"subnet": "aws_subnet.public.id",
				"role":   "aws_iam_role.task.arn",
				"peer":   "aws_sqs_queue.dlq.arn",
			},
		}),
	}}

	rels := NewExtractor(nil, nil).Extract(result)
	assert.NotContains(t, kinds(rels), terraform.KindReferences)
}

func TestDeepScanDeduplicatesAgainstAttributeRefs(t *testing.T) {
	result := &terraform.ParseResult{Resources: []*terraform.Resource{
		res("aws_kms_key", "main", nil),
		res("aws_sqs_queue", "jobs", map[string]any{
			"kms_master_key_id": "aws_kms_key.main.arn",
			"tags":              map[string]any{"key": "aws_kms_key.main.arn"},
		}),
	}}

	rels := NewExtractor(nil, nil).Extract(result)
	require.Len(t, rels, 1)
	assert.Equal(t, "encrypted_by", rels[0].Kind)
}

func TestExtractDLQ(t *testing.T) {
	result := &terraform.ParseResult{Resources: []*terraform.Resource{
		res("aws_sqs_queue", "jobs", map[string]any{
			"redrive_policy": `{"deadLetterTargetArn": "${aws_sqs_queue.jobs_dlq.arn}", "maxReceiveCount": 5}`,
		}),
		res("aws_sqs_queue", "jobs_dlq", nil),
	}}

	rels := NewExtractor(nil, nil).Extract(result)
	require.Len(t, rels, 1)
	assert.Equal(t, terraform.KindRedrivesTo, rels[0].Kind)
	assert.Equal(t, "DLQ", rels[0].Label)
	assert.Equal(t, "aws_sqs_queue.jobs", rels[0].SourceID)
	assert.Equal(t, "aws_sqs_queue.jobs_dlq", rels[0].TargetID)
}

func TestExtractMissingTargetSkipped(t *testing.T) {
	result := &terraform.ParseResult{Resources: []*terraform.Resource{
		res("aws_instance", "web", map[string]any{
			"vpc_id": "aws_vpc.elsewhere.id",
		}),
	}}

	rels := NewExtractor(nil, nil).Extract(result)
	assert.Empty(t, rels)
}

func TestPortLabel(t *testing.T) {
	tests := []struct {
		name     string
		protocol string
		from, to any
		want     string
	}{
		{"single port", "tcp", 80, 80, "TCP/80"},
		{"full range", "tcp", 0, 65535, "TCP/All"},
		{"all traffic", "-1", 0, 0, "All Traffic"},
		{"range", "tcp", 8080, 8090, "TCP/8080-8090"},
		{"udp single", "udp", 53, 53, "UDP/53"},
		{"missing to port", "tcp", 443, nil, "TCP/443"},
		{"string ports", "tcp", "443", "443", "TCP/443"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PortLabel(tt.protocol, tt.from, tt.to))
		})
	}
}
