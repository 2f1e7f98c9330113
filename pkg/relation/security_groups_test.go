package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackplot/stackplot/pkg/terraform"
)

func TestInlineIngressRules(t *testing.T) {
	result := &terraform.ParseResult{Resources: []*terraform.Resource{
		res("aws_security_group", "lb", nil),
		res("aws_security_group", "app", map[string]any{
			"ingress": []any{
				map[string]any{
					"from_port":       8080,
					"to_port":         8080,
					"protocol":        "tcp",
					"security_groups": "[aws_security_group.lb.id]",
				},
			},
		}),
	}}

	rels := NewExtractor(nil, nil).Extract(result)
	require.Len(t, rels, 1)
	assert.Equal(t, terraform.KindSGAllowsFrom, rels[0].Kind)
	assert.Equal(t, "aws_security_group.lb", rels[0].SourceID)
	assert.Equal(t, "aws_security_group.app", rels[0].TargetID)
	assert.Equal(t, "TCP/8080", rels[0].Label)
}

func TestStandaloneIngressRule(t *testing.T) {
	result := &terraform.ParseResult{Resources: []*terraform.Resource{
		res("aws_security_group", "lb", nil),
		res("aws_security_group", "app", nil),
		res("aws_security_group_rule", "lb_to_app", map[string]any{
			"type":                     "ingress",
			"from_port":                443,
			"to_port":                  443,
			"protocol":                 "tcp",
			"security_group_id":        "aws_security_group.app.id",
			"source_security_group_id": "aws_security_group.lb.id",
		}),
		res("aws_security_group_rule", "egress_ignored", map[string]any{
			"type":                     "egress",
			"security_group_id":        "aws_security_group.app.id",
			"source_security_group_id": "aws_security_group.lb.id",
		}),
	}}

	rels := NewExtractor(nil, nil).Extract(result)
	require.Len(t, rels, 1)
	assert.Equal(t, "aws_security_group.lb", rels[0].SourceID)
	assert.Equal(t, "aws_security_group.app", rels[0].TargetID)
	assert.Equal(t, "TCP/443", rels[0].Label)
}

func TestVPCIngressRule(t *testing.T) {
	result := &terraform.ParseResult{Resources: []*terraform.Resource{
		res("aws_security_group", "lb", nil),
		res("aws_security_group", "db", nil),
		res("aws_vpc_security_group_ingress_rule", "lb_to_db", map[string]any{
			"from_port":                    5432,
			"to_port":                      5432,
			"ip_protocol":                  "tcp",
			"security_group_id":            "aws_security_group.db.id",
			"referenced_security_group_id": "aws_security_group.lb.id",
		}),
	}}

	rels := NewExtractor(nil, nil).Extract(result)
	require.Len(t, rels, 1)
	assert.Equal(t, "aws_security_group.lb", rels[0].SourceID)
	assert.Equal(t, "aws_security_group.db", rels[0].TargetID)
	assert.Equal(t, "TCP/5432", rels[0].Label)
}

func TestSelfReferenceSuppressed(t *testing.T) {
	result := &terraform.ParseResult{Resources: []*terraform.Resource{
		res("aws_security_group", "cluster", map[string]any{
			"ingress": []any{
				map[string]any{
					"from_port":       0,
					"to_port":         65535,
					"protocol":        "tcp",
					"security_groups": "[aws_security_group.cluster.id]",
				},
			},
		}),
	}}

	rels := NewExtractor(nil, nil).Extract(result)
	assert.Empty(t, rels)
}
