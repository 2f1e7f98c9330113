package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackplot/stackplot/pkg/config"
	"github.com/stackplot/stackplot/pkg/terraform"
	"github.com/stackplot/stackplot/pkg/terraform/tfstate"
)

func res(resourceType, name string, attrs map[string]any) *terraform.Resource {
	if attrs == nil {
		attrs = map[string]any{}
	}
	return &terraform.Resource{Type: resourceType, Name: name, Attributes: attrs}
}

func parsed(resources ...*terraform.Resource) *terraform.ParseResult {
	return &terraform.ParseResult{Resources: resources}
}

func serviceByType(result *Result, serviceType string) []*Service {
	var out []*Service
	for _, s := range result.Services {
		if s.ServiceType == serviceType {
			out = append(out, s)
		}
	}
	return out
}

func TestNonVPCRuleCountInvariant(t *testing.T) {
	result := New(nil, nil).Aggregate(parsed(
		res("aws_sqs_queue", "jobs", nil),
		res("aws_sqs_queue", "jobs_dlq", nil),
		res("aws_sqs_queue", "events", nil),
		res("aws_sqs_queue_policy", "jobs_policy", nil),
	), nil)

	queues := serviceByType(result, "sqs")
	require.Len(t, queues, 1)
	assert.Equal(t, 3, queues[0].Count)
	assert.Len(t, queues[0].Resources, 4)
	assert.False(t, queues[0].IsVPCResource)
}

func TestSecondaryOnlyRuleSkipped(t *testing.T) {
	result := New(nil, nil).Aggregate(parsed(
		res("aws_sqs_queue_policy", "orphan", nil),
	), nil)
	assert.Empty(t, result.Services)
}

func TestVPCRuleDeGroups(t *testing.T) {
	result := New(nil, nil).Aggregate(parsed(
		res("aws_ecs_service", "api", nil),
		res("aws_ecs_service", "worker", nil),
		res("aws_ecs_cluster", "main", nil),
	), nil)

	services := serviceByType(result, "ecs")
	require.Len(t, services, 2)

	ids := map[string]bool{}
	for _, s := range services {
		assert.True(t, s.IsVPCResource)
		assert.Equal(t, 1, s.Count)
		require.NotEmpty(t, s.ResourceID)
		assert.False(t, ids[s.ResourceID], "duplicate resource_id")
		ids[s.ResourceID] = true
	}
	assert.Len(t, result.VPCServices, 2)
}

func TestConnectionCrossProduct(t *testing.T) {
	rules := &config.Rules{
		Aggregations: []config.AggregationRule{
			{Service: "alb", Primary: []string{"aws_lb"}, InVPC: true},
			{Service: "ecs", Primary: []string{"aws_ecs_service"}, InVPC: true},
		},
		Connections: []config.ConnectionRule{
			{Source: "alb", Target: "ecs", Label: "HTTP", Kind: config.KindDefault},
		},
	}
	require.NoError(t, rules.Validate())

	result := New(rules, nil).Aggregate(parsed(
		res("aws_lb", "a", nil),
		res("aws_lb", "b", nil),
		res("aws_ecs_service", "x", nil),
		res("aws_ecs_service", "y", nil),
		res("aws_ecs_service", "z", nil),
	), nil)

	assert.Len(t, result.Connections, 6)
	for _, c := range result.Connections {
		assert.Equal(t, "HTTP", c.Label)
	}
}

func TestSubnetExtraction(t *testing.T) {
	result := New(nil, nil).Aggregate(parsed(
		res("aws_instance", "web", map[string]any{
			"subnet_id": "aws_subnet.public_a.id",
		}),
	), nil)

	services := serviceByType(result, "ec2")
	require.Len(t, services, 1)
	assert.Equal(t, []string{"aws_subnet.public_a"}, services[0].SubnetIDs)
}

func TestSubnetExtractionNested(t *testing.T) {
	result := New(nil, nil).Aggregate(parsed(
		res("aws_ecs_service", "api", map[string]any{
			"network_configuration": []any{
				map[string]any{
					"subnets": "[aws_subnet.private_a.id, aws_subnet.private_b.id]",
				},
			},
		}),
	), nil)

	services := serviceByType(result, "ecs")
	require.Len(t, services, 1)
	assert.Equal(t, []string{"aws_subnet.private_a", "aws_subnet.private_b"}, services[0].SubnetIDs)
}

func TestSubnetExtractionFromState(t *testing.T) {
	result := New(nil, nil).Aggregate(parsed(
		res("aws_lb", "main", map[string]any{
			tfstate.KeySubnetIDs: []string{
				tfstate.StateSubnetPrefix + "subnet-0bbb",
				tfstate.StateSubnetPrefix + "subnet-0aaa",
			},
		}),
	), nil)

	services := serviceByType(result, "alb")
	require.Len(t, services, 1)
	assert.Equal(t, []string{
		tfstate.StateSubnetPrefix + "subnet-0aaa",
		tfstate.StateSubnetPrefix + "subnet-0bbb",
	}, services[0].SubnetIDs)
}

func TestVPCStructureAttached(t *testing.T) {
	result := New(nil, nil).Aggregate(parsed(
		res("aws_vpc", "main", nil),
		res("aws_subnet", "public_a", map[string]any{"availability_zone": "us-east-1a"}),
	), nil)

	require.NotNil(t, result.VPC)
	assert.Equal(t, "aws_vpc.main", result.VPC.VPCID)

	result = New(nil, nil).Aggregate(parsed(
		res("aws_sqs_queue", "jobs", nil),
	), nil)
	assert.Nil(t, result.VPC)
}

func TestMetadata(t *testing.T) {
	result := New(nil, nil).Aggregate(parsed(
		res("aws_sqs_queue", "jobs", nil),
		res("aws_sqs_queue", "events", nil),
		res("aws_s3_bucket", "assets", nil),
	), nil)

	meta := result.Metadata()
	require.Len(t, meta, 2)

	assert.Equal(t, "s3", meta[0].ServiceType)
	assert.Equal(t, 1, meta[0].Count)
	assert.False(t, meta[0].Aggregated)

	assert.Equal(t, "sqs", meta[1].ServiceType)
	assert.Equal(t, 2, meta[1].Count)
	assert.True(t, meta[1].Aggregated)
	assert.Equal(t, []string{"aws_sqs_queue.jobs", "aws_sqs_queue.events"}, meta[1].ResourceIDs)
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name  string
		r     *terraform.Resource
		want  string
	}{
		{
			"plain attribute name",
			res("aws_sqs_queue", "jobs", map[string]any{"name": "order-processing"}),
			"Order-Processing",
		},
		{
			"unresolved falls back to declared",
			res("aws_sqs_queue", "jobs", map[string]any{"name": "${var.env}-jobs"}),
			"Jobs",
		},
		{
			"state name wins over unresolved",
			res("aws_sqs_queue", "jobs", map[string]any{
				"name":          "${var.env}-jobs",
				tfstate.KeyName: "prod-jobs",
			}),
			"Prod-Jobs",
		},
		{
			"long name truncated",
			res("aws_sqs_queue", "jobs", map[string]any{"name": "very-long-queue-name-here"}),
			"Very-Long-Queue-N...",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, displayName(tt.r, nil))
		})
	}
}
