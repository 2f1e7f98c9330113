package config

// Default returns the built-in rule tables covering the common AWS service
// footprint. Callers that need more use a TOML rules file.
func Default() *Rules {
	return &Rules{
		References:   defaultReferences(),
		Aggregations: defaultAggregations(),
		Connections:  defaultConnections(),
	}
}

func defaultReferences() []ReferenceRule {
	return []ReferenceRule{
		{Attribute: "vpc_id", Kind: "belongs_to_vpc", TargetType: "aws_vpc"},
		{Attribute: "subnet_id", Kind: "deployed_in_subnet", TargetType: "aws_subnet"},
		{Attribute: "subnet_ids", Kind: "deployed_in_subnets", TargetType: "aws_subnet"},
		{Attribute: "security_group_ids", Kind: "uses_security_group", TargetType: "aws_security_group"},
		{Attribute: "kms_master_key_id", Kind: "encrypted_by", TargetType: "aws_kms_key"},
		{Attribute: "kms_key_id", Kind: "encrypted_by", TargetType: "aws_kms_key"},
		{Attribute: "target_group_arn", Kind: "routes_to", TargetType: "aws_lb_target_group"},
		{Attribute: "load_balancer_arn", Kind: "attached_to", TargetType: "aws_lb"},
		{Attribute: "web_acl_arn", Kind: "protected_by", TargetType: "aws_wafv2_web_acl"},
		{Attribute: "waf_acl_arn", Kind: "protected_by", TargetType: "aws_wafv2_web_acl"},
		{Attribute: "certificate_arn", Kind: "uses_certificate", TargetType: "aws_acm_certificate"},
		{Attribute: "role_arn", Kind: "assumes_role", TargetType: "aws_iam_role"},
		{Attribute: "queue_arn", Kind: "sends_to_queue", TargetType: "aws_sqs_queue"},
		{Attribute: "topic_arn", Kind: "publishes_to", TargetType: "aws_sns_topic"},
		{Attribute: "alarm_topic_arn", Kind: "alerts_to", TargetType: "aws_sns_topic"},
	}
}

func defaultAggregations() []AggregationRule {
	return []AggregationRule{
		{Service: "cloudfront", Primary: []string{"aws_cloudfront_distribution"},
			Secondary: []string{"aws_cloudfront_origin_access_control", "aws_cloudfront_cache_policy"}},
		{Service: "waf", Primary: []string{"aws_wafv2_web_acl"},
			Secondary: []string{"aws_wafv2_ip_set", "aws_wafv2_rule_group", "aws_wafv2_web_acl_association"}},
		{Service: "route53", Primary: []string{"aws_route53_zone"},
			Secondary: []string{"aws_route53_record"}},
		{Service: "acm", Primary: []string{"aws_acm_certificate"},
			Secondary: []string{"aws_acm_certificate_validation"}},
		{Service: "cognito", Primary: []string{"aws_cognito_user_pool"},
			Secondary: []string{"aws_cognito_user_pool_client", "aws_cognito_user_pool_domain"}},

		{Service: "alb", InVPC: true, Primary: []string{"aws_lb"},
			Secondary: []string{"aws_lb_listener", "aws_lb_listener_rule", "aws_lb_target_group"}},
		{Service: "ecs", InVPC: true, Primary: []string{"aws_ecs_service"},
			Secondary: []string{"aws_ecs_cluster", "aws_ecs_task_definition", "aws_appautoscaling_target", "aws_appautoscaling_policy"}},
		{Service: "ec2", InVPC: true, Primary: []string{"aws_instance"},
			Secondary: []string{"aws_launch_template", "aws_autoscaling_group"}},
		{Service: "rds", InVPC: true, Primary: []string{"aws_db_instance", "aws_rds_cluster"},
			Secondary: []string{"aws_db_subnet_group", "aws_db_parameter_group", "aws_rds_cluster_instance"}},
		{Service: "elasticache", InVPC: true, Primary: []string{"aws_elasticache_cluster", "aws_elasticache_replication_group"},
			Secondary: []string{"aws_elasticache_subnet_group"}},
		{Service: "security_groups", InVPC: true, Primary: []string{"aws_security_group"},
			Secondary: []string{"aws_security_group_rule", "aws_vpc_security_group_ingress_rule", "aws_vpc_security_group_egress_rule"}},
		{Service: "internet_gateway", InVPC: true, Primary: []string{"aws_internet_gateway"}},
		{Service: "nat_gateway", InVPC: true, Primary: []string{"aws_nat_gateway"},
			Secondary: []string{"aws_eip"}},

		{Service: "lambda", Primary: []string{"aws_lambda_function"},
			Secondary: []string{"aws_lambda_permission", "aws_lambda_event_source_mapping"}},
		{Service: "s3", Primary: []string{"aws_s3_bucket"},
			Secondary: []string{"aws_s3_bucket_policy", "aws_s3_bucket_versioning", "aws_s3_bucket_public_access_block", "aws_s3_bucket_server_side_encryption_configuration"}},
		{Service: "dynamodb", Primary: []string{"aws_dynamodb_table"}},
		{Service: "mongodb", Primary: []string{"mongodbatlas_cluster", "mongodbatlas_advanced_cluster"}},
		{Service: "sqs", Primary: []string{"aws_sqs_queue"},
			Secondary: []string{"aws_sqs_queue_policy"}},
		{Service: "sns", Primary: []string{"aws_sns_topic"},
			Secondary: []string{"aws_sns_topic_subscription", "aws_sns_topic_policy"}},
		{Service: "eventbridge", Primary: []string{"aws_cloudwatch_event_rule"},
			Secondary: []string{"aws_cloudwatch_event_target"}},
		{Service: "apigateway", Primary: []string{"aws_apigatewayv2_api"},
			Secondary: []string{"aws_apigatewayv2_stage", "aws_apigatewayv2_route", "aws_apigatewayv2_integration"}},
		{Service: "ecr", Primary: []string{"aws_ecr_repository"},
			Secondary: []string{"aws_ecr_lifecycle_policy"}},
		{Service: "cloudwatch", Primary: []string{"aws_cloudwatch_log_group"},
			Secondary: []string{"aws_cloudwatch_metric_alarm"}},

		{Service: "kms", Primary: []string{"aws_kms_key"},
			Secondary: []string{"aws_kms_alias"}},
		{Service: "secrets_manager", Primary: []string{"aws_secretsmanager_secret"},
			Secondary: []string{"aws_secretsmanager_secret_version"}},
		{Service: "iam", Primary: []string{"aws_iam_role"},
			Secondary: []string{"aws_iam_role_policy", "aws_iam_role_policy_attachment", "aws_iam_policy"}},
	}
}

func defaultConnections() []ConnectionRule {
	return []ConnectionRule{
		{Source: "route53", Target: "cloudfront", Label: "DNS", Kind: KindDefault},
		{Source: "waf", Target: "cloudfront", Label: "protects", Kind: KindDefault},
		{Source: "cloudfront", Target: "alb", Label: "HTTPS", Kind: KindDefault},
		{Source: "cloudfront", Target: "s3", Label: "origin", Kind: KindDataFlow},
		{Source: "acm", Target: "alb", Label: "TLS", Kind: KindDefault},
		{Source: "alb", Target: "ecs", Label: "HTTP", Kind: KindDefault},
		{Source: "apigateway", Target: "lambda", Label: "invoke", Kind: KindTrigger},
		{Source: "ecs", Target: "rds", Label: "SQL", Kind: KindDataFlow},
		{Source: "ecs", Target: "elasticache", Label: "cache", Kind: KindDataFlow},
		{Source: "ecs", Target: "dynamodb", Label: "reads/writes", Kind: KindDataFlow},
		{Source: "ecs", Target: "s3", Label: "reads/writes", Kind: KindDataFlow},
		{Source: "ecs", Target: "sqs", Label: "polls", Kind: KindDataFlow},
		{Source: "ecs", Target: "mongodb", Label: "reads/writes", Kind: KindDataFlow},
		{Source: "ecs", Target: "secrets_manager", Label: "reads", Kind: KindDefault},
		{Source: "lambda", Target: "dynamodb", Label: "reads/writes", Kind: KindDataFlow},
		{Source: "lambda", Target: "sqs", Label: "sends", Kind: KindDataFlow},
		{Source: "eventbridge", Target: "lambda", Label: "schedule", Kind: KindTrigger},
		{Source: "sns", Target: "sqs", Label: "fan-out", Kind: KindDataFlow},
		{Source: "s3", Target: "kms", Label: "encrypt", Kind: KindEncrypt},
		{Source: "sqs", Target: "kms", Label: "encrypt", Kind: KindEncrypt},
	}
}
