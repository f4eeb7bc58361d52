package notify

import (
	"os"
	"path/filepath"
	"testing"
)

func writeNotifiersFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write notifiers file: %v", err)
	}
	return path
}

func TestLoadRegistryYAML(t *testing.T) {
	path := writeNotifiersFile(t, "notifiers.yaml", `
notifiers:
  - id: digest-sink
    type: http
    http:
      url: https://hooks.example.com/digest
      method: post
  - id: digest-queue
    type: sqs
    enabled: false
    sqs:
      uri: https://sqs.ap-northeast-1.amazonaws.com/123/digests
      region: ap-northeast-1
  - id: digest-topic
    type: sns
    sns:
      topic_arn: arn:aws:sns:ap-northeast-1:123:digests
      region: ap-northeast-1
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if got := len(reg.All()); got != 3 {
		t.Fatalf("expected 3 notifiers, got %d", got)
	}
	if got := len(reg.Enabled()); got != 2 {
		t.Fatalf("expected 2 enabled notifiers, got %d", got)
	}

	cfg, ok := reg.ByID("digest-sink")
	if !ok {
		t.Fatalf("digest-sink not found")
	}
	if cfg.HTTP == nil || cfg.HTTP.Method != "POST" {
		t.Fatalf("http method not normalized: %+v", cfg.HTTP)
	}
	if cfg.HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Fatalf("timeout default not applied: %d", cfg.HTTP.TimeoutSeconds)
	}
}

func TestLoadRegistryRejectsDuplicates(t *testing.T) {
	path := writeNotifiersFile(t, "notifiers.yaml", `
notifiers:
  - id: sink
    type: http
    http:
      url: https://a.example.com
  - id: sink
    type: http
    http:
      url: https://b.example.com
`)

	if _, err := LoadRegistry(path); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestLoadRegistryRejectsMissingFields(t *testing.T) {
	cases := map[string]string{
		"missing sqs uri": `
notifiers:
  - id: q
    type: sqs
    sqs:
      region: ap-northeast-1
`,
		"missing sns topic": `
notifiers:
  - id: t
    type: sns
    sns:
      region: ap-northeast-1
`,
		"missing http url": `
notifiers:
  - id: h
    type: http
    http:
      method: POST
`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeNotifiersFile(t, "notifiers.yaml", content)
			if _, err := LoadRegistry(path); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	path := writeNotifiersFile(t, "notifiers.json", `{
  "notifiers": [
    {"id": "sink", "type": "http", "http": {"url": "https://hooks.example.com"}}
  ]
}`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if _, ok := reg.ByID("sink"); !ok {
		t.Fatalf("sink not found in JSON registry")
	}
}
