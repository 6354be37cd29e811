package craps

import (
	"fmt"
	"strconv"
	"strings"
)

// PointOff is the puck value during the come-out phase.
const PointOff = 0

// Phase 桌面阶段
type Phase byte

const (
	PhaseComeOut Phase = 0
	PhasePointOn Phase = 1
)

var PhaseDictionary = map[Phase]string{
	PhaseComeOut: "comeout",
	PhasePointOn: "pointon",
}

func (p Phase) String() string {
	if s, ok := PhaseDictionary[p]; ok {
		return s
	}
	return "unknown"
}

func phaseOf(point int) Phase {
	if point == PointOff {
		return PhaseComeOut
	}
	return PhasePointOn
}

// BetType is the family of a wager. Numbered types carry the box number
// in BetKind.Number.
type BetType byte

const (
	BetTypeNone BetType = iota
	BetTypePass
	BetTypePassOdds
	BetTypeDontPass
	BetTypeDontPassOdds
	BetTypeCome
	BetTypeDontCome
	BetTypeComePoint
	BetTypeDontComePoint
	BetTypeComeOdds
	BetTypeDontComeOdds
	BetTypeField
	BetTypePlace
	BetTypeBuy
	BetTypeLay
	BetTypeHard
	BetTypeAnySeven
	BetTypeAnyCraps
	BetTypeAceDeuce
	BetTypeYo11
	BetTypeAces
	BetTypeTwelve
	BetTypeHorn
	BetTypeC
	BetTypeE
	BetTypeBig6
	BetTypeBig8
)

var unnumberedKeys = map[BetType]string{
	BetTypePass:         "pass",
	BetTypePassOdds:     "passOdds",
	BetTypeDontPass:     "dontPass",
	BetTypeDontPassOdds: "dontPassOdds",
	BetTypeCome:         "come",
	BetTypeDontCome:     "dontCome",
	BetTypeField:        "field",
	BetTypeAnySeven:     "anySeven",
	BetTypeAnyCraps:     "anyCraps",
	BetTypeAceDeuce:     "aceDeuce",
	BetTypeYo11:         "yo11",
	BetTypeAces:         "aces",
	BetTypeTwelve:       "twelve",
	BetTypeHorn:         "horn",
	BetTypeC:            "c",
	BetTypeE:            "e",
	BetTypeBig6:         "big6",
	BetTypeBig8:         "big8",
}

var numberedKeys = map[BetType]string{
	BetTypeComePoint:     "come",
	BetTypeDontComePoint: "dontCome",
	BetTypeComeOdds:      "comeOdds",
	BetTypeDontComeOdds:  "dontComeOdds",
	BetTypePlace:         "place",
	BetTypeBuy:           "buy",
	BetTypeLay:           "lay",
	BetTypeHard:          "hard",
}

var (
	unnumberedByKey = invertKeys(unnumberedKeys)
	numberedByKey   = invertKeys(numberedKeys)
)

func invertKeys(m map[BetType]string) map[string]BetType {
	out := make(map[string]BetType, len(m))
	for t, k := range m {
		out[k] = t
	}
	return out
}

// BoxNumbers are the point numbers, in layout order.
var BoxNumbers = []int{4, 5, 6, 8, 9, 10}

// HardNumbers can be rolled the hard way.
var HardNumbers = []int{4, 6, 8, 10}

func IsBoxNumber(n int) bool {
	switch n {
	case 4, 5, 6, 8, 9, 10:
		return true
	}
	return false
}

func isHardNumber(n int) bool {
	switch n {
	case 4, 6, 8, 10:
		return true
	}
	return false
}

// BetKind identifies one wager on the layout. It is comparable and used
// as the wager map key.
type BetKind struct {
	Type   BetType
	Number int
}

var (
	Pass         = BetKind{Type: BetTypePass}
	PassOdds     = BetKind{Type: BetTypePassOdds}
	DontPass     = BetKind{Type: BetTypeDontPass}
	DontPassOdds = BetKind{Type: BetTypeDontPassOdds}
	Come         = BetKind{Type: BetTypeCome}
	DontCome     = BetKind{Type: BetTypeDontCome}
	Field        = BetKind{Type: BetTypeField}
	AnySeven     = BetKind{Type: BetTypeAnySeven}
	AnyCraps     = BetKind{Type: BetTypeAnyCraps}
	AceDeuce     = BetKind{Type: BetTypeAceDeuce}
	Yo11         = BetKind{Type: BetTypeYo11}
	Aces         = BetKind{Type: BetTypeAces}
	Twelve       = BetKind{Type: BetTypeTwelve}
	Horn         = BetKind{Type: BetTypeHorn}
	CBet         = BetKind{Type: BetTypeC}
	EBet         = BetKind{Type: BetTypeE}
	Big6         = BetKind{Type: BetTypeBig6}
	Big8         = BetKind{Type: BetTypeBig8}
)

func Place(n int) BetKind         { return BetKind{Type: BetTypePlace, Number: n} }
func Buy(n int) BetKind           { return BetKind{Type: BetTypeBuy, Number: n} }
func Lay(n int) BetKind           { return BetKind{Type: BetTypeLay, Number: n} }
func Hard(n int) BetKind          { return BetKind{Type: BetTypeHard, Number: n} }
func ComePoint(n int) BetKind     { return BetKind{Type: BetTypeComePoint, Number: n} }
func DontComePoint(n int) BetKind { return BetKind{Type: BetTypeDontComePoint, Number: n} }
func ComeOdds(n int) BetKind      { return BetKind{Type: BetTypeComeOdds, Number: n} }
func DontComeOdds(n int) BetKind  { return BetKind{Type: BetTypeDontComeOdds, Number: n} }

// Valid reports whether the kind names a wager that exists on the layout.
func (k BetKind) Valid() bool {
	if _, ok := unnumberedKeys[k.Type]; ok {
		return k.Number == 0
	}
	if _, ok := numberedKeys[k.Type]; !ok {
		return false
	}
	if k.Type == BetTypeHard {
		return isHardNumber(k.Number)
	}
	return IsBoxNumber(k.Number)
}

func (k BetKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("invalid(%d,%d)", k.Type, k.Number)
	}
	if s, ok := unnumberedKeys[k.Type]; ok {
		return s
	}
	return numberedKeys[k.Type] + strconv.Itoa(k.Number)
}

// ParseBetKind is the inverse of String: "pass", "place6", "dontCome10", "c".
func ParseBetKind(s string) (BetKind, error) {
	if t, ok := unnumberedByKey[s]; ok {
		return BetKind{Type: t}, nil
	}
	i := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if i <= 0 {
		return BetKind{}, fmt.Errorf("unknown bet kind %q", s)
	}
	t, ok := numberedByKey[s[:i]]
	if !ok {
		return BetKind{}, fmt.Errorf("unknown bet kind %q", s)
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return BetKind{}, fmt.Errorf("unknown bet kind %q", s)
	}
	k := BetKind{Type: t, Number: n}
	if !k.Valid() {
		return BetKind{}, fmt.Errorf("invalid number for bet kind %q", s)
	}
	return k, nil
}

func (k BetKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", k)
	}
	return []byte(k.String()), nil
}

func (k *BetKind) UnmarshalText(b []byte) error {
	parsed, err := ParseBetKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Family groups kinds for reporting.
func (k BetKind) Family() string {
	switch k.Type {
	case BetTypePass, BetTypeDontPass, BetTypeCome, BetTypeDontCome, BetTypeComePoint, BetTypeDontComePoint:
		return "line"
	case BetTypePassOdds, BetTypeDontPassOdds, BetTypeComeOdds, BetTypeDontComeOdds:
		return "odds"
	case BetTypeField:
		return "field"
	case BetTypePlace, BetTypeBuy, BetTypeLay:
		return "box"
	case BetTypeHard:
		return "hardway"
	case BetTypeBig6, BetTypeBig8:
		return "big"
	case BetTypeAnySeven, BetTypeAnyCraps, BetTypeAceDeuce, BetTypeYo11, BetTypeAces,
		BetTypeTwelve, BetTypeHorn, BetTypeC, BetTypeE:
		return "prop"
	default:
		return "unknown"
	}
}

// IsStandard reports whether the table maximum applies to the kind.
func (k BetKind) IsStandard() bool {
	switch k.Type {
	case BetTypePass, BetTypeDontPass, BetTypeCome, BetTypeDontCome, BetTypeField,
		BetTypeHorn, BetTypeBig6, BetTypeBig8, BetTypePlace, BetTypeBuy, BetTypeLay:
		return true
	}
	return false
}

func (k BetKind) isOdds() bool {
	switch k.Type {
	case BetTypePassOdds, BetTypeDontPassOdds, BetTypeComeOdds, BetTypeDontComeOdds:
		return true
	}
	return false
}

// IsOneRoll reports kinds that are resolved on every roll.
func (k BetKind) IsOneRoll() bool {
	switch k.Type {
	case BetTypeField, BetTypeAnySeven, BetTypeAnyCraps, BetTypeAceDeuce, BetTypeYo11,
		BetTypeAces, BetTypeTwelve, BetTypeHorn, BetTypeC, BetTypeE:
		return true
	}
	return false
}

// baseOf returns the line wager an odds wager backs.
func (k BetKind) baseOf() (BetKind, bool) {
	switch k.Type {
	case BetTypePassOdds:
		return Pass, true
	case BetTypeDontPassOdds:
		return DontPass, true
	case BetTypeComeOdds:
		return ComePoint(k.Number), true
	case BetTypeDontComeOdds:
		return DontComePoint(k.Number), true
	}
	return BetKind{}, false
}
