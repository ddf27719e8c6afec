package secrets

import (
	"regexp"

	"github.com/temirov/configtrace/internal/policy"
)

// SecretType identifies which catalog entry produced a finding.
type SecretType string

// Known secret types, serialized into reports.
const (
	SecretTypeAWSAccessKey      SecretType = "aws_access_key"
	SecretTypeAWSSecretKey      SecretType = "aws_secret_key"
	SecretTypeGCPServiceAccount SecretType = "gcp_service_account"
	SecretTypePrivateKey        SecretType = "private_key"
	SecretTypeGitHubToken       SecretType = "github_token"
	SecretTypeDatabaseURL       SecretType = "database_url"
	SecretTypeGenericPassword   SecretType = "generic_password"
	SecretTypeGenericAPIKey     SecretType = "generic_api_key"
	SecretTypeJWTToken          SecretType = "jwt_token"
)

// SecretPattern couples a compiled detection expression with its
// classification. Patterns are package-level and compiled once.
type SecretPattern struct {
	Name       string
	Expression *regexp.Regexp
	Type       SecretType
	Severity   policy.Severity
}

// secretPatternCatalog lists every detection pattern in evaluation order.
// Higher-severity cloud credentials come first so the most alarming match on
// a line is reported first.
var secretPatternCatalog = []SecretPattern{
	{
		Name:       "AWS Access Key ID",
		Expression: regexp.MustCompile(`(?i)(A3T[A-Z0-9]|AKIA|AGPA|AIDA|AROA|AIPA|ANPA|ANVA|ASIA)[A-Z0-9]{16}`),
		Type:       SecretTypeAWSAccessKey,
		Severity:   policy.SeverityCritical,
	},
	{
		Name:       "AWS Secret Access Key",
		Expression: regexp.MustCompile(`(?i)aws[_-]?secret[_-]?access[_-]?key['"]?\s*[:=]\s*['"]?([A-Za-z0-9/+=]{40})['"]?`),
		Type:       SecretTypeAWSSecretKey,
		Severity:   policy.SeverityCritical,
	},
	{
		Name:       "GCP Service Account Key",
		Expression: regexp.MustCompile(`"type"\s*:\s*"service_account"`),
		Type:       SecretTypeGCPServiceAccount,
		Severity:   policy.SeverityCritical,
	},
	{
		Name:       "RSA/EC Private Key",
		Expression: regexp.MustCompile(`-----BEGIN (RSA |EC |OPENSSH )?PRIVATE KEY-----`),
		Type:       SecretTypePrivateKey,
		Severity:   policy.SeverityCritical,
	},
	{
		Name:       "GitHub Token",
		Expression: regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,255}`),
		Type:       SecretTypeGitHubToken,
		Severity:   policy.SeverityCritical,
	},
	{
		Name:       "Database Connection String",
		Expression: regexp.MustCompile(`(?i)(postgres|mysql|mongodb|redis)://[^:]+:[^@]+@`),
		Type:       SecretTypeDatabaseURL,
		Severity:   policy.SeverityCritical,
	},
	{
		Name:       "Generic Password",
		Expression: regexp.MustCompile(`(?i)(password|passwd|pwd)['"]?\s*[:=]\s*['"]?([^'">\s]{8,})['"]?`),
		Type:       SecretTypeGenericPassword,
		Severity:   policy.SeverityCritical,
	},
	{
		Name:       "Generic API Key",
		Expression: regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)['"]?\s*[:=]\s*['"]?([A-Za-z0-9_-]{20,})['"]?`),
		Type:       SecretTypeGenericAPIKey,
		Severity:   policy.SeverityHigh,
	},
	{
		Name:       "JWT Token",
		Expression: regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
		Type:       SecretTypeJWTToken,
		Severity:   policy.SeverityHigh,
	},
}

// PatternCatalog returns the detection patterns in evaluation order.
func PatternCatalog() []SecretPattern {
	return secretPatternCatalog
}
