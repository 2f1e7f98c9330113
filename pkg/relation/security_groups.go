package relation

import (
	"github.com/stackplot/stackplot/pkg/terraform"
)

// extractSecurityGroups handles the three shapes ingress rules come in:
// inline ingress blocks, standalone aws_security_group_rule resources and
// the newer aws_vpc_security_group_ingress_rule resources. Every shape
// yields an edge from the referenced group to the owning group.
func extractSecurityGroups(resources []*terraform.Resource, byType map[string][]*terraform.Resource) []terraform.Relationship {
	var rels []terraform.Relationship
	for _, res := range resources {
		switch res.Type {
		case "aws_security_group":
			rels = append(rels, inlineIngressEdges(res, byType)...)
		case "aws_security_group_rule":
			if rel, ok := standaloneRuleEdge(res, byType); ok {
				rels = append(rels, rel)
			}
		case "aws_vpc_security_group_ingress_rule":
			if rel, ok := vpcIngressRuleEdge(res, byType); ok {
				rels = append(rels, rel)
			}
		}
	}
	return rels
}

func inlineIngressEdges(sg *terraform.Resource, byType map[string][]*terraform.Resource) []terraform.Relationship {
	rules, ok := sg.Attributes["ingress"].([]any)
	if !ok {
		return nil
	}
	var rels []terraform.Relationship
	for _, raw := range rules {
		rule, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		refs, ok := rule["security_groups"]
		if !ok {
			continue
		}
		label := ruleLabel(rule, "protocol")
		seen := make(map[string]bool)
		walkStrings(refs, 0, func(s string) {
			for _, m := range sgRefRE.FindAllStringSubmatch(s, -1) {
				source := firstNamed(byType["aws_security_group"], m[1])
				if source == nil || source.FullID() == sg.FullID() || seen[source.FullID()] {
					continue
				}
				seen[source.FullID()] = true
				rels = append(rels, terraform.Relationship{
					SourceID: source.FullID(),
					TargetID: sg.FullID(),
					Kind:     terraform.KindSGAllowsFrom,
					Label:    label,
				})
			}
		})
	}
	return rels
}

func standaloneRuleEdge(rule *terraform.Resource, byType map[string][]*terraform.Resource) (terraform.Relationship, bool) {
	if t, _ := rule.Attributes["type"].(string); t != "ingress" {
		return terraform.Relationship{}, false
	}
	return ruleEdge(rule, byType, "source_security_group_id", "protocol")
}

func vpcIngressRuleEdge(rule *terraform.Resource, byType map[string][]*terraform.Resource) (terraform.Relationship, bool) {
	return ruleEdge(rule, byType, "referenced_security_group_id", "ip_protocol")
}

func ruleEdge(rule *terraform.Resource, byType map[string][]*terraform.Resource, sourceKey, protoKey string) (terraform.Relationship, bool) {
	target := referencedGroup(rule.Attributes["security_group_id"], byType)
	source := referencedGroup(rule.Attributes[sourceKey], byType)
	if source == nil || target == nil || source.FullID() == target.FullID() {
		return terraform.Relationship{}, false
	}
	return terraform.Relationship{
		SourceID: source.FullID(),
		TargetID: target.FullID(),
		Kind:     terraform.KindSGAllowsFrom,
		Label:    ruleLabel(rule.Attributes, protoKey),
	}, true
}

func referencedGroup(value any, byType map[string][]*terraform.Resource) *terraform.Resource {
	s, ok := value.(string)
	if !ok {
		return nil
	}
	m := sgRefRE.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	return firstNamed(byType["aws_security_group"], m[1])
}

func ruleLabel(attrs map[string]any, protoKey string) string {
	proto, _ := attrs[protoKey].(string)
	return PortLabel(proto, attrs["from_port"], attrs["to_port"])
}
