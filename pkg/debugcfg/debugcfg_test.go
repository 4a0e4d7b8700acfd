package debugcfg

import "testing"

func TestParseEmpty(t *testing.T) {
	f := Parse("")
	if f.Serial || f.Cycles || f.Annotate || f.Print {
		t.Fatalf("expected all flags false for empty input, got %+v", f)
	}
}

func TestParseMultiple(t *testing.T) {
	f := Parse("serial, print")
	if !f.Serial || !f.Print {
		t.Fatalf("expected Serial and Print set, got %+v", f)
	}
	if f.Cycles || f.Annotate {
		t.Fatalf("expected Cycles and Annotate unset, got %+v", f)
	}
}

func TestParseUnknownIgnored(t *testing.T) {
	f := Parse("serial,bogus,annotate")
	if !f.Serial || !f.Annotate {
		t.Fatalf("expected known flags set despite unknown entry, got %+v", f)
	}
}
