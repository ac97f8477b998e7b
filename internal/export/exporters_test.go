package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestTextExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TextExporter{}).Export(testTranscript(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	want := "Group\n\n" +
		"May 17, 2022  5:29:42 PM\nAlice\nHello **there**\n\n" +
		"May 17, 2022  5:29:42 PM\nMe\nHi\n\n"
	if got := buf.String(); got != want {
		t.Errorf("Export() = %q, want %q", got, want)
	}
}

func TestMarkdownExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(testTranscript(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"# Group",
		"**Chat:** chat123",
		"**Messages:** 2",
		"**+15555550100:** (2022-05-17 17:29:42)",
		"**Me:** (2022-05-17 17:29:42)",
		"Hello **there**",
		"- `Attachments/1.jpg`",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Export() missing %q in:\n%s", want, output)
		}
	}
	if strings.Count(output, "---\n\n") != 2 {
		t.Errorf("expected a rule after the header and between messages, got:\n%s", output)
	}
}

func TestMarkdownExporter_EscapesFence(t *testing.T) {
	transcript := NewTranscript("chat1", nil, "")
	transcript.Entries = append(transcript.Entries, Entry{Sender: "a__b", Text: "```code```"})

	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(transcript, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "**a\\_\\_b:**") {
		t.Errorf("sender not escaped:\n%s", output)
	}
	if strings.Contains(output, "```code") {
		t.Errorf("message text closes the fence:\n%s", output)
	}
}

func TestJSONExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(testTranscript(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var got Transcript
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Name != "Group" || len(got.Entries) != 2 {
		t.Errorf("got %+v", got)
	}
	if !strings.Contains(buf.String(), "\n  \"unique_chat_id\"") {
		t.Errorf("expected indented output, got:\n%s", buf.String())
	}
}

func TestJSONLExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONLExporter{}).Export(testTranscript(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	for i, line := range lines {
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			t.Fatalf("line %d is not JSON: %v", i, err)
		}
		if obj["unique_chat_id"] != "chat123" {
			t.Errorf("line %d unique_chat_id = %v", i, obj["unique_chat_id"])
		}
	}
	if !strings.Contains(lines[1], `"sender":"Me"`) {
		t.Errorf("line 2 = %s", lines[1])
	}
}

func TestJSONLExporter_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONLExporter{}).Export(NewTranscript("chat1", nil, ""), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestYAMLExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	if err := (&YAMLExporter{}).Export(testTranscript(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var got Transcript
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if got.UniqueChatID != "chat123" || len(got.Entries) != 2 {
		t.Errorf("got %+v", got)
	}
	if got.Entries[1].Attachments[0] != "Attachments/1.jpg" {
		t.Errorf("attachments = %v", got.Entries[1].Attachments)
	}
}
