package tfstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackplot/stackplot/pkg/terraform"
)

const stateDoc = `{
  "format_version": "1.0",
  "terraform_version": "1.7.0",
  "values": {
    "root_module": {
      "resources": [
        {
          "address": "aws_subnet.public_a",
          "mode": "managed",
          "type": "aws_subnet",
          "name": "public_a",
          "provider_name": "registry.terraform.io/hashicorp/aws",
          "values": {
            "id": "subnet-0aaa",
            "availability_zone": "us-east-1a"
          }
        },
        {
          "address": "aws_instance.web[0]",
          "mode": "managed",
          "type": "aws_instance",
          "name": "web",
          "provider_name": "registry.terraform.io/hashicorp/aws",
          "values": {
            "subnet_id": "subnet-0aaa",
            "availability_zone": "us-east-1a"
          }
        }
      ],
      "child_modules": [
        {
          "address": "module.network",
          "resources": [
            {
              "address": "module.network.aws_lb.main",
              "mode": "managed",
              "type": "aws_lb",
              "name": "main",
              "provider_name": "registry.terraform.io/hashicorp/aws",
              "values": {
                "name": "prod-alb",
                "subnets": ["subnet-0aaa", "subnet-0bbb"]
              }
            }
          ]
        }
      ]
    }
  }
}`

func TestParseIndexesAllModules(t *testing.T) {
	st, err := Parse([]byte(stateDoc))
	require.NoError(t, err)
	assert.Equal(t, 3, st.Len())

	vals, ok := st.Lookup("network.aws_lb.main")
	require.True(t, ok)
	assert.Equal(t, "prod-alb", vals["name"])

	// Index suffixes are stripped.
	_, ok = st.Lookup("aws_instance.web")
	assert.True(t, ok)
}

func TestParseRejectsEmptyDocument(t *testing.T) {
	_, err := Parse([]byte(`{"format_version": "1.0"}`))
	assert.Error(t, err)
}

func TestMapAddress(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"aws_vpc.main", "aws_vpc.main"},
		{"aws_subnet.private[0]", "aws_subnet.private"},
		{`aws_sqs_queue.jobs["orders"]`, "aws_sqs_queue.jobs"},
		{"module.network.aws_vpc.this", "network.aws_vpc.this"},
		{"module.app.module.db.aws_rds_cluster.main[1]", "app.db.aws_rds_cluster.main"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapAddress(tt.in))
	}
}

func TestSubnetAZ(t *testing.T) {
	st, err := Parse([]byte(stateDoc))
	require.NoError(t, err)

	az, ok := st.SubnetAZ("subnet-0aaa")
	require.True(t, ok)
	assert.Equal(t, "us-east-1a", az)

	az, ok = st.SubnetAZ(StateSubnetPrefix + "subnet-0aaa")
	require.True(t, ok)
	assert.Equal(t, "us-east-1a", az)

	_, ok = st.SubnetAZ("subnet-unknown")
	assert.False(t, ok)
}

func TestEnrich(t *testing.T) {
	st, err := Parse([]byte(stateDoc))
	require.NoError(t, err)

	result := &terraform.ParseResult{
		Resources: []*terraform.Resource{
			{Type: "aws_instance", Name: "web", Attributes: map[string]any{}},
			{Type: "aws_lb", Name: "main", ModulePath: "network", Attributes: map[string]any{}},
			{Type: "aws_s3_bucket", Name: "absent", Attributes: map[string]any{}},
		},
	}
	st.Enrich(result, nil)

	web := result.Resources[0]
	assert.Equal(t, "us-east-1a", web.Attributes[KeyAvailabilityZone])
	assert.Equal(t, []string{StateSubnetPrefix + "subnet-0aaa"}, web.Attributes[KeySubnetIDs])

	lb := result.Resources[1]
	assert.Equal(t, "prod-alb", lb.Attributes[KeyName])
	assert.Equal(t, []string{
		StateSubnetPrefix + "subnet-0aaa",
		StateSubnetPrefix + "subnet-0bbb",
	}, lb.Attributes[KeySubnetIDs])

	assert.Empty(t, result.Resources[2].Attributes)
}
