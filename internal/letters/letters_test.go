package letters

import "testing"

func TestDrawExcludesUsed(t *testing.T) {
	used := make(map[rune]bool, len(Alphabet)-1)
	for _, r := range Alphabet[1:] {
		used[r] = true
	}
	letter, cleared := Draw(used)
	if cleared {
		t.Fatal("expected cleared=false when letters remain")
	}
	if letter != Alphabet[0] {
		t.Errorf("expected the one remaining letter %q, got %q", string(Alphabet[0]), string(letter))
	}
}

func TestDrawClearsWhenExhausted(t *testing.T) {
	used := make(map[rune]bool, len(Alphabet))
	for _, r := range Alphabet {
		used[r] = true
	}
	letter, cleared := Draw(used)
	if !cleared {
		t.Fatal("expected cleared=true when every letter is used")
	}
	found := false
	for _, r := range Alphabet {
		if r == letter {
			found = true
		}
	}
	if !found {
		t.Errorf("drawn letter %q not in alphabet", string(letter))
	}
}

func TestDrawFromEmptyUsed(t *testing.T) {
	letter, cleared := Draw(nil)
	if cleared {
		t.Error("expected cleared=false for nil used set")
	}
	found := false
	for _, r := range Alphabet {
		if r == letter {
			found = true
		}
	}
	if !found {
		t.Error("drawn letter not in alphabet")
	}
}

func TestStartsWithLetter(t *testing.T) {
	tests := []struct {
		answer string
		letter rune
		want   bool
	}{
		{"ამერიკა", 'ა', true},
		{"  ამერიკა  ", 'ა', true},
		{"თბილისი", 'ა', false},
		{"", 'ა', false},
	}
	for _, tt := range tests {
		got := StartsWithLetter(tt.answer, tt.letter)
		if got != tt.want {
			t.Errorf("StartsWithLetter(%q, %q) = %v, want %v", tt.answer, string(tt.letter), got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if Normalize("  Baku  ") != "baku" {
		t.Errorf("expected trimmed/lowercased result, got %q", Normalize("  Baku  "))
	}
}

func TestRandomBonusCategoryInPool(t *testing.T) {
	cat := RandomBonusCategory()
	found := false
	for _, c := range BonusCategories {
		if c == cat {
			found = true
		}
	}
	if !found {
		t.Errorf("RandomBonusCategory() = %q not in BonusCategories", cat)
	}
}

func TestAlphabetSize(t *testing.T) {
	if len(Alphabet) != 33 {
		t.Errorf("expected 33 letters, got %d", len(Alphabet))
	}
}

func TestDefaultCategoriesSize(t *testing.T) {
	if len(DefaultCategories) != 7 {
		t.Errorf("expected 7 default categories, got %d", len(DefaultCategories))
	}
}

func TestBonusCategoriesSize(t *testing.T) {
	if len(BonusCategories) != 8 {
		t.Errorf("expected 8 bonus categories, got %d", len(BonusCategories))
	}
}
