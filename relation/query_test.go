package relation

import "testing"

// With three wildcarded attributes falling inside the bottom d+1
// choice-vector positions, the query must enumerate at most 2^3 = 8
// candidate buckets.
func TestQueryWildcardEnumerationBound(t *testing.T) {
	r, err := NewRelation("", true, 3, 4, 2, "0:0,1:0,2:0")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	q, err := r.NewQuery("?,?,?")
	if err != nil {
		t.Fatal(err)
	}
	if len(q.starBits) != 3 {
		t.Fatalf("want 3 star bits got %d", len(q.starBits))
	}
	if q.bitSeqMax != 7 {
		t.Errorf("want bitSeqMax 7 (8 candidates) got %d", q.bitSeqMax)
	}
}

// A literal pattern touching every choice-vector bit position should
// compile to a single candidate bucket.
func TestQueryFullyLiteralPatternHasOneCandidate(t *testing.T) {
	r, err := NewRelation("", true, 2, 2, 1, "0:0,1:0,0:1,1:1")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	q, err := r.NewQuery("alpha,bravo")
	if err != nil {
		t.Fatal(err)
	}
	if len(q.starBits) != 0 {
		t.Fatalf("want no star bits got %d", len(q.starBits))
	}
	if q.bitSeqMax != 0 {
		t.Errorf("want bitSeqMax 0 (one candidate) got %d", q.bitSeqMax)
	}
}

func TestQueryRejectsWrongArity(t *testing.T) {
	r, err := NewRelation("", true, 2, 1, 0, "0:0,1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if _, err := r.NewQuery("onlyone"); err == nil {
		t.Fatal("expected an arity error")
	}
}

func TestQueryNoMatchesOnNonMatchingLiteral(t *testing.T) {
	r, err := NewRelation("", true, 1, 1, 0, "0:0")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	mustInsert(t, r, "hello")

	got := collectAll(t, r, "goodbye")
	if len(got) != 0 {
		t.Errorf("want no matches got %v", toStrings(got))
	}
}
