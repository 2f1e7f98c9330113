package errors

import (
	"testing"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"svg", "svg", false},
		{"html", "html", false},
		{"dot", "dot", false},

		{"empty", "", true},
		{"png", "png", true},
		{"uppercase", "SVG", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "main.tf", false},
		{"valid nested", "modules/network/main.tf", false},
		{"valid with dash", "my-project/main.tf", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 600)), true},
		{"absolute", "/etc/passwd", true},
		{"path traversal", "foo/../bar", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"control char", "foo\x01bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateResourceAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple resource", "aws_vpc.main", false},
		{"with dash in name", "aws_subnet.public-a", false},
		{"module prefixed", "module.network.aws_subnet.private", false},
		{"nested modules", "module.env.module.network.aws_vpc.this", false},
		{"indexed", "aws_instance.web[0]", false},
		{"keyed", "aws_instance.web[\"blue\"]", false},

		{"empty", "", true},
		{"missing name", "aws_vpc", true},
		{"uppercase type", "AWS_VPC.main", true},
		{"control char", "aws_vpc.ma\x01in", true},
		{"too long", "aws_vpc." + string(make([]byte, 300)), true},
		{"traversal-ish", "../aws_vpc.main", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResourceAddress(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateResourceAddress(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"http", "http://localhost:8080", false},
		{"https", "https://example.com", false},
		{"redis", "redis://localhost:6379/0", false},
		{"redis tls", "rediss://cache.internal:6380", false},

		{"empty", "", true},
		{"ftp", "ftp://example.com", true},
		{"no scheme", "localhost:6379", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
