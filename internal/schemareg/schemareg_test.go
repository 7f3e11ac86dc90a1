package schemareg

import (
	"testing"
)

const recordDoc = `{
	"type": "record", "name": "rec",
	"fields": [{"name": "a", "type": "int"}]
}`

func TestParseCachesBySchemaDoc(t *testing.T) {
	r, err := New(Config{NumCounters: 100, MaxCost: 1 << 16, BufferItems: 64})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer r.Close()

	s1, err := r.Parse(recordDoc)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	r.c.Wait() // let the set settle before the second lookup
	s2, err := r.Parse(recordDoc)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if s1.Fingerprint() != s2.Fingerprint() {
		t.Fatalf("cache returned a different schema")
	}
}

func TestParseRejectsBadDoc(t *testing.T) {
	r, err := New(Config{NumCounters: 100, MaxCost: 1 << 16, BufferItems: 64})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer r.Close()

	if _, err := r.Parse(`{"type": "recordddd"}`); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected config error")
	}
}
