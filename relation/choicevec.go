package relation

import (
	"strconv"
	"strings"

	"github.com/linhash/mahrel/errs"
)

// MaxChVec is the fixed length of a choice vector (spec §3).
const MaxChVec = 32

// ChoiceItem is one entry of a choice vector: composite-hash bit i is bit
// Bit of the hash of attribute Att.
type ChoiceItem struct {
	Att int
	Bit int
}

// ChoiceVector is a fixed-length ordered list of ChoiceItem. Item i says
// which source bit composite-hash bit i is drawn from.
type ChoiceVector [MaxChVec]ChoiceItem

// ParseChoiceVector parses a string of the form "att:bit,att:bit,...".
// Fewer than MaxChVec entries are permitted; trailing slots are zero-filled.
func ParseChoiceVector(s string) (ChoiceVector, error) {
	var cv ChoiceVector
	if strings.TrimSpace(s) == "" {
		return cv, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) > MaxChVec {
		return cv, errs.Newf(errs.Parse, "parseChoiceVector", "choice vector has %d entries, max is %d", len(parts), MaxChVec)
	}
	for i, part := range parts {
		item, err := parseChoiceItem(part)
		if err != nil {
			return cv, err
		}
		cv[i] = item
	}
	return cv, nil
}

func parseChoiceItem(s string) (ChoiceItem, error) {
	fields := strings.Split(s, ":")
	if len(fields) != 2 {
		return ChoiceItem{}, errs.Newf(errs.Parse, "parseChoiceVector", "malformed choice item %q, want att:bit", s)
	}
	att, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return ChoiceItem{}, errs.New(errs.Parse, "parseChoiceVector", err)
	}
	if att < 0 {
		return ChoiceItem{}, errs.Newf(errs.Parse, "parseChoiceVector", "attribute index %d must not be negative", att)
	}
	bit, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return ChoiceItem{}, errs.New(errs.Parse, "parseChoiceVector", err)
	}
	if bit < 0 || bit >= 32 {
		return ChoiceItem{}, errs.Newf(errs.Parse, "parseChoiceVector", "bit index %d must be in [0,32)", bit)
	}
	return ChoiceItem{Att: att, Bit: bit}, nil
}

// String renders the choice vector back to its att:bit,... form. All
// MaxChVec items are written, zero padding included, so parsing the result
// yields the same vector.
func (cv ChoiceVector) String() string {
	parts := make([]string, 0, MaxChVec)
	for _, item := range cv {
		parts = append(parts, strconv.Itoa(item.Att)+":"+strconv.Itoa(item.Bit))
	}
	return strings.Join(parts, ",")
}
