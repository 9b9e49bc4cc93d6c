package numerology

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestReduce(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in, want int
	}{
		{0, 9},
		{5, 5},
		{10, 1},
		{11, 11},
		{22, 22},
		{29, 11},
		{33, 33},
		{38, 11},
		{39, 3},
		{48, 3},
		{100, 1},
		{-5, 5},
	}
	for _, c := range cases {
		if got := reduce(c.in); got != c.want {
			t.Errorf("reduce(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestLifePath(t *testing.T) {
	t.Parallel()
	cases := []struct {
		birth time.Time
		want  int
	}{
		{date(1985, time.March, 29), 1},   // 3 + 11 + 23 = 37 -> 10 -> 1
		{date(1990, time.December, 31), 8},
		{date(2000, time.January, 8), 11}, // master number preserved
	}
	for _, c := range cases {
		if got := LifePath(c.birth); got != c.want {
			t.Errorf("LifePath(%s) = %d, want %d", c.birth.Format("2006-01-02"), got, c.want)
		}
	}
}

func TestNameNumbers(t *testing.T) {
	t.Parallel()
	const name = "Nguyen Van An"

	if got := Destiny(name); got != 3 {
		t.Errorf("Destiny(%q) = %d, want 3", name, got)
	}
	if got := SoulUrge(name); got != 1 {
		t.Errorf("SoulUrge(%q) = %d, want 1", name, got)
	}
	// consonant sum is 38, a master 11
	if got := Personality(name); got != 11 {
		t.Errorf("Personality(%q) = %d, want 11", name, got)
	}
}

func TestVietnameseLetterHandling(t *testing.T) {
	t.Parallel()
	if !IsVowel('ễ') {
		t.Error("IsVowel('ễ') = false, want true via base 'e'")
	}
	if !IsVowel('ồ') {
		t.Error("IsVowel('ồ') = false, want true via base 'o'")
	}
	if IsVowel('y') {
		t.Error("IsVowel('y') = true, 'y' always counts as consonant")
	}
	if got := LetterValue('ư'); got != 3 {
		t.Errorf("LetterValue('ư') = %d, want 3 (base 'u')", got)
	}
	if got := LetterValue('ế'); got != 5 {
		t.Errorf("LetterValue('ế') = %d, want 5 (base 'e')", got)
	}
	// 'đ' does not decompose to 'd' under NFD and carries no value
	if got := LetterValue('đ'); got != 0 {
		t.Errorf("LetterValue('đ') = %d, want 0", got)
	}
	if got := Destiny("Hồ"); got != 5 {
		t.Errorf("Destiny(\"Hồ\") = %d, want 5", got)
	}
}

func TestPersonalCycles(t *testing.T) {
	t.Parallel()
	// birth 03-29, year 2025: 3 + 11 + 9 = 23 -> 5
	if got := PersonalYear(3, 29, 2025); got != 5 {
		t.Errorf("PersonalYear = %d, want 5", got)
	}
	// day 29, month 8, year 2025: 11 + 8 + 9 = 28 -> 1
	if got := PersonalMonth(29, 8, 2025); got != 1 {
		t.Errorf("PersonalMonth = %d, want 1", got)
	}
}

func TestProfileComposesAllNumbers(t *testing.T) {
	t.Parallel()
	now := date(2025, time.August, 15)
	p := Profile("Nguyen Van An", date(1985, time.March, 29), now)

	if p.LifePath != 1 {
		t.Errorf("LifePath = %d, want 1", p.LifePath)
	}
	if p.Destiny != 3 {
		t.Errorf("Destiny = %d, want 3", p.Destiny)
	}
	if p.SoulUrge != 1 {
		t.Errorf("SoulUrge = %d, want 1", p.SoulUrge)
	}
	if p.Personality != 11 {
		t.Errorf("Personality = %d, want 11", p.Personality)
	}
	if p.PersonalYear != 5 {
		t.Errorf("PersonalYear = %d, want 5", p.PersonalYear)
	}
	if p.PersonalMonth != 1 {
		t.Errorf("PersonalMonth = %d, want 1", p.PersonalMonth)
	}
}

func TestParseBirthDate(t *testing.T) {
	t.Parallel()
	got, err := ParseBirthDate("1985-03-29")
	if err != nil {
		t.Fatalf("ParseBirthDate: %v", err)
	}
	if got.Year() != 1985 || got.Month() != time.March || got.Day() != 29 {
		t.Errorf("parsed %v", got)
	}
	if _, err := ParseBirthDate("29-03-1985"); err == nil {
		t.Error("wrong layout accepted")
	}
}
