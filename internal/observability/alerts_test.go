package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type alertRule struct {
	Alert       string            `yaml:"alert"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for"`
	Labels      map[string]string `yaml:"labels"`
	Annotations map[string]string `yaml:"annotations"`
}

type alertGroup struct {
	Name  string      `yaml:"name"`
	Rules []alertRule `yaml:"rules"`
}

type alertSpec struct {
	Groups []alertGroup `yaml:"groups"`
}

func loadBillingRules(t *testing.T) []alertRule {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(repoRoot, "deploy", "prometheus", "alerts", "billing.yml"))
	if err != nil {
		t.Fatalf("failed to read alert file: %v", err)
	}
	var spec alertSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		t.Fatalf("failed to unmarshal alert file: %v", err)
	}
	for _, group := range spec.Groups {
		if group.Name == "billing" {
			return group.Rules
		}
	}
	t.Fatal("billing alert group missing")
	return nil
}

var repoRoot = filepath.Join("..", "..")

// headingAnchor mirrors the GitHub markdown anchor for a heading.
func headingAnchor(heading string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(heading)), " ", "-")
}

func TestBillingAlertRules(t *testing.T) {
	rules := loadBillingRules(t)

	expected := map[string]struct {
		severity string
		metric   string
	}{
		"HighErrorRate":           {severity: "critical", metric: "billing_http_requests_total"},
		"HighLatency":             {severity: "warning", metric: "billing_http_request_duration_seconds_bucket"},
		"InvoiceNumberContention": {severity: "warning", metric: "billing_invoice_number_retries_total"},
		"ReportWarmupFailing":     {severity: "warning", metric: "billing_jobs_failures_total"},
	}

	if len(rules) != len(expected) {
		t.Fatalf("expected %d rules, got %d", len(expected), len(rules))
	}

	for _, rule := range rules {
		want, ok := expected[rule.Alert]
		if !ok {
			t.Fatalf("unexpected rule %q", rule.Alert)
		}
		if rule.Labels["severity"] != want.severity {
			t.Fatalf("rule %s severity mismatch: %s", rule.Alert, rule.Labels["severity"])
		}
		if !strings.Contains(rule.Expr, want.metric) {
			t.Fatalf("rule %s should query %s, got %q", rule.Alert, want.metric, rule.Expr)
		}
		if !strings.HasPrefix(rule.Annotations["runbook"], "docs/runbook-billing.md#") {
			t.Fatalf("rule %s runbook mismatch: %s", rule.Alert, rule.Annotations["runbook"])
		}
		if rule.Annotations["summary"] == "" || rule.Annotations["description"] == "" {
			t.Fatalf("rule %s must include summary and description annotations", rule.Alert)
		}
		if rule.For == "" {
			t.Fatalf("rule %s must define a hold duration", rule.Alert)
		}
	}
}

func TestAlertRunbookAnchorsExist(t *testing.T) {
	data, err := os.ReadFile(filepath.Join(repoRoot, "docs", "runbook-billing.md"))
	if err != nil {
		t.Fatalf("failed to read runbook: %v", err)
	}
	anchors := map[string]bool{}
	for _, line := range strings.Split(string(data), "\n") {
		if heading, ok := strings.CutPrefix(line, "## "); ok {
			anchors[headingAnchor(heading)] = true
		}
	}
	for _, rule := range loadBillingRules(t) {
		_, anchor, _ := strings.Cut(rule.Annotations["runbook"], "#")
		if !anchors[anchor] {
			t.Fatalf("rule %s links missing runbook section %q", rule.Alert, anchor)
		}
	}
}

func TestAlertMetricsAreExported(t *testing.T) {
	metrics := NewMetrics()
	metrics.InvoiceNumberRetry()
	_ = metrics.Jobs().Track("reports:warmup").End(nil)
	body := scrape(t, metrics)
	for _, name := range []string{"billing_invoice_number_retries_total", "billing_jobs_total", "billing_job_duration_seconds_bucket"} {
		if !strings.Contains(body, name) {
			t.Fatalf("metric %s is not exported", name)
		}
	}
}
