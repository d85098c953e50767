package parse

import "testing"

func TestNumberDanishFormat(t *testing.T) {
	value, ok := Number("1.234,56")
	if !ok {
		t.Fatal("expected 1.234,56 to parse")
	}
	if value != 1234.56 {
		t.Fatalf("expected 1234.56, got %v", value)
	}
}

func TestNumberPlainDecimalWithoutComma(t *testing.T) {
	value, ok := Number("42.5")
	if !ok {
		t.Fatal("expected 42.5 to parse")
	}
	if value != 42.5 {
		t.Fatalf("expected 42.5, got %v", value)
	}
}

func TestNumberCommaOnlyDecimal(t *testing.T) {
	value, ok := Number("17,25")
	if !ok {
		t.Fatal("expected 17,25 to parse")
	}
	if value != 17.25 {
		t.Fatalf("expected 17.25, got %v", value)
	}
}

func TestNumberBlankAndGarbage(t *testing.T) {
	for _, input := range []string{"", "   ", "abc", "12,34,56x", "-"} {
		if _, ok := Number(input); ok {
			t.Fatalf("expected %q not to parse", input)
		}
	}
}

func TestNumberNegative(t *testing.T) {
	value, ok := Number("-1.000,50")
	if !ok {
		t.Fatal("expected -1.000,50 to parse")
	}
	if value != -1000.50 {
		t.Fatalf("expected -1000.50, got %v", value)
	}
}

func TestNumberThousandsWithoutDecimalsStaysPlain(t *testing.T) {
	// Without a comma the dot is a decimal point, not a thousands separator.
	value, ok := Number("1.234")
	if !ok {
		t.Fatal("expected 1.234 to parse")
	}
	if value != 1.234 {
		t.Fatalf("expected 1.234, got %v", value)
	}
}
