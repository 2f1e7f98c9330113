package render

import "strings"

// AWS architecture palette, keyed by resource-type prefix. Longest prefix
// wins so aws_apigatewayv2 matches before aws_api.
var categoryColors = []struct {
	prefix string
	color  string
}{
	{"aws_lambda", "#ED7100"},
	{"aws_ecs", "#ED7100"},
	{"aws_instance", "#ED7100"},
	{"aws_autoscaling", "#ED7100"},
	{"aws_ecr", "#ED7100"},

	{"aws_s3", "#7AA116"},
	{"aws_efs", "#7AA116"},

	{"aws_db", "#C925D1"},
	{"aws_rds", "#C925D1"},
	{"aws_dynamodb", "#C925D1"},
	{"aws_elasticache", "#C925D1"},
	{"mongodbatlas", "#C925D1"},

	{"aws_sqs", "#E7157B"},
	{"aws_sns", "#E7157B"},
	{"aws_cloudwatch_event", "#E7157B"},
	{"aws_scheduler", "#E7157B"},
	{"aws_apigatewayv2", "#E7157B"},
	{"aws_api_gateway", "#E7157B"},

	{"aws_vpc", "#8C4FFF"},
	{"aws_subnet", "#8C4FFF"},
	{"aws_lb", "#8C4FFF"},
	{"aws_alb", "#8C4FFF"},
	{"aws_cloudfront", "#8C4FFF"},
	{"aws_route53", "#8C4FFF"},
	{"aws_nat_gateway", "#8C4FFF"},
	{"aws_internet_gateway", "#8C4FFF"},

	{"aws_kms", "#DD344C"},
	{"aws_secretsmanager", "#DD344C"},
	{"aws_iam", "#DD344C"},
	{"aws_wafv2", "#DD344C"},
	{"aws_waf", "#DD344C"},
	{"aws_acm", "#DD344C"},
	{"aws_cognito", "#DD344C"},
	{"aws_security_group", "#DD344C"},

	{"aws_cloudwatch", "#E7157B"},
}

const defaultCategoryColor = "#232F3E"

// CategoryColor returns the palette color for a resource type.
func CategoryColor(resourceType string) string {
	best := ""
	color := defaultCategoryColor
	for _, c := range categoryColors {
		if strings.HasPrefix(resourceType, c.prefix) && len(c.prefix) > len(best) {
			best = c.prefix
			color = c.color
		}
	}
	return color
}
