package tsvector

import (
	"errors"
	"testing"

	j "github.com/goccy/go-json"
)

func TestVector_MarshalJSON(t *testing.T) {
	v := mustParse(t, "cat:3B dog")
	b, err := j.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `[{"text":"cat","positions":[{"pos":3,"weight":"B"}]},{"text":"dog"}]`
	if string(b) != want {
		t.Fatalf("Marshal = %s, want %s", b, want)
	}
}

func TestVector_UnmarshalJSON_Canonicalizes(t *testing.T) {
	in := `[
		{"text":"b","positions":[{"pos":2},{"pos":2,"weight":"A"}]},
		{"text":"a"},
		{"text":"b","positions":[{"pos":1,"weight":"C"}]}
	]`
	var v Vector
	if err := j.Unmarshal([]byte(in), &v); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got, want := v.String(), "'a' 'b':1C,2A"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestVector_JSONRoundTrip(t *testing.T) {
	orig := mustParse(t, "'a:b':1A cat:2,7C dog")
	b, err := j.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var back Vector
	if err := j.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !back.Equal(orig) {
		t.Fatalf("JSON round trip: %q, want %q", back.String(), orig.String())
	}
}

func TestVector_UnmarshalJSON_Rejections(t *testing.T) {
	var v Vector
	if err := j.Unmarshal([]byte(`[{"text":"a","positions":[{"pos":1,"weight":"Z"}]}]`), &v); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("bad weight error = %v, want ErrInvalidArgument", err)
	}
	if err := j.Unmarshal([]byte(`[{"text":"a","positions":[{"pos":0}]}]`), &v); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("zero position error = %v, want ErrInvalidArgument", err)
	}
}

func TestVector_MarshalJSON_Empty(t *testing.T) {
	b, err := j.Marshal(Vector{})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(b) != "[]" {
		t.Fatalf("Marshal(empty) = %s, want []", b)
	}
}
