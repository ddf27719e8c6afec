// Package secrets detects credentials committed into configuration files. A
// fixed catalog of compiled patterns covers cloud provider keys, tokens, and
// generic password assignments; matched values are redacted before they ever
// reach a report.
package secrets
