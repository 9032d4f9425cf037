package relation

import "testing"

func TestParseChoiceVector(t *testing.T) {
	cv, err := ParseChoiceVector("0:0,1:0,0:1,1:1")
	if err != nil {
		t.Fatal(err)
	}
	want := []ChoiceItem{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	for i, w := range want {
		if cv[i] != w {
			t.Errorf("item %d: want %+v got %+v", i, w, cv[i])
		}
	}
	for i := len(want); i < MaxChVec; i++ {
		if cv[i] != (ChoiceItem{}) {
			t.Errorf("padding item %d should be zero, got %+v", i, cv[i])
		}
	}
}

func TestParseChoiceVectorEmpty(t *testing.T) {
	cv, err := ParseChoiceVector("")
	if err != nil {
		t.Fatal(err)
	}
	if cv != (ChoiceVector{}) {
		t.Errorf("want zero vector got %+v", cv)
	}
}

func TestParseChoiceVectorRejectsTooManyEntries(t *testing.T) {
	s := ""
	for i := 0; i <= MaxChVec; i++ {
		if i > 0 {
			s += ","
		}
		s += "0:0"
	}
	if _, err := ParseChoiceVector(s); err == nil {
		t.Fatal("expected an error for a choice vector exceeding MaxChVec entries")
	}
}

func TestParseChoiceVectorRejectsMalformedItem(t *testing.T) {
	cases := []string{"0", "0:0:0", "a:0", "0:b"}
	for _, c := range cases {
		if _, err := ParseChoiceVector(c); err == nil {
			t.Errorf("expected an error parsing %q", c)
		}
	}
}

func TestParseChoiceVectorRejectsOutOfRangeValues(t *testing.T) {
	cases := []string{"-1:0", "0:-1", "0:32"}
	for _, c := range cases {
		if _, err := ParseChoiceVector(c); err == nil {
			t.Errorf("expected an error parsing %q", c)
		}
	}
}
