package catalog

import (
	"log"
	"strings"
	"testing"

	"bridgetable/internal/bridge"
)

const sample = `
# sleeve batch 2024-03
04A1B2|QH
04C3D4.04C3D5|2C
bogus line without separator
99FF00|ZZ
04EE11|AS
`

func TestParse(t *testing.T) {
	cat, err := Parse(strings.NewReader(sample), log.Default())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cat.Len() != 4 {
		t.Fatalf("tags: got %d want 4", cat.Len())
	}

	card, ok := cat.Lookup("04A1B2")
	if !ok || card != (bridge.Card{Rank: bridge.Queen, Suit: bridge.Hearts}) {
		t.Fatalf("lookup QH tag: %v ok=%v", card, ok)
	}

	// Both sleeved tags resolve to the same card.
	first, ok1 := cat.Lookup("04C3D4")
	second, ok2 := cat.Lookup("04C3D5")
	if !ok1 || !ok2 || first != second {
		t.Fatalf("aliased tags: %v/%v", first, second)
	}

	if _, ok := cat.Lookup("99FF00"); ok {
		t.Fatal("malformed card line must be skipped")
	}
	if _, ok := cat.Lookup("unknown"); ok {
		t.Fatal("unknown tag must miss")
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := Parse(strings.NewReader("# only comments\n"), log.Default()); err == nil {
		t.Fatal("expected error for catalog without entries")
	}
}
