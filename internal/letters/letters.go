// Package letters holds the fixed Georgian alphabet and category pools a
// room draws from, plus the normalization and first-letter matching rules
// used by scoring. Everything operates on runes; Mkhedruli is multi-byte
// in UTF-8.
package letters

import (
	"math/rand"
	"strings"
)

// Alphabet is the fixed sequence of the 33 Georgian Mkhedruli letters a
// room's letter draw selects from.
var Alphabet = []rune{
	'ა', 'ბ', 'გ', 'დ', 'ე', 'ვ', 'ზ', 'თ', 'ი', 'კ',
	'ლ', 'მ', 'ნ', 'ო', 'პ', 'ჟ', 'რ', 'ს', 'ტ', 'უ',
	'ფ', 'ქ', 'ღ', 'ყ', 'შ', 'ჩ', 'ც', 'ძ', 'წ', 'ჭ',
	'ხ', 'ჯ', 'ჰ',
}

// DefaultCategories are the 7 category prompts a room offers when created
// without an explicit category list.
var DefaultCategories = []string{
	"ქალაქი", "ქვეყანა", "მდინარე", "ცხოველი", "მცენარე", "სახელი", "პროფესია",
}

// BonusCategories is the fixed 8-entry pool a room draws one entry from
// when RoomSettings.UseBonus is set.
var BonusCategories = []string{
	"ფერი", "ხილი", "სპორტი", "ფილმი", "სიმღერა",
	"ცნობილი ადამიანი", "მანქანის მარკა", "სასმელი",
}

// Draw picks a letter uniformly at random from Alphabet, excluding the keys
// present in used. If every letter has already been used, used is treated
// as exhausted: the draw is made from the full alphabet and cleared is
// reported true so the caller can reset its own used-letter set.
func Draw(used map[rune]bool) (letter rune, cleared bool) {
	available := make([]rune, 0, len(Alphabet))
	for _, r := range Alphabet {
		if !used[r] {
			available = append(available, r)
		}
	}
	if len(available) == 0 {
		cleared = true
		available = append(available, Alphabet...)
	}
	return available[rand.Intn(len(available))], cleared
}

// RandomBonusCategory returns a uniformly random entry from BonusCategories.
func RandomBonusCategory() string {
	return BonusCategories[rand.Intn(len(BonusCategories))]
}

// Normalize lowercases and trims an answer for comparison, per the
// "lowercased, trimmed" rule in the scoring pass. Georgian Mkhedruli has no
// case distinction; the lowercasing matters for answers typed with a mixed
// Latin transliteration or stray ASCII.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// StartsWithLetter reports whether the normalized answer begins with the
// given letter, itself compared case-insensitively.
func StartsWithLetter(answer string, letter rune) bool {
	norm := Normalize(answer)
	if norm == "" {
		return false
	}
	first := []rune(norm)[0]
	return first == toLowerRune(letter)
}

func toLowerRune(r rune) rune {
	lowered := []rune(strings.ToLower(string(r)))
	if len(lowered) == 0 {
		return r
	}
	return lowered[0]
}
