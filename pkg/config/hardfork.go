package config

// Hardfork represents an EVM hard-fork identifier as used by development
// nodes (the `hardfork` network setting).
type Hardfork uint32

// HFDefault is a default value of Hardfork enum. It's a special constant
// used when the network doesn't set any hardfork, the node then picks its
// own default (usually the latest one).
const HFDefault Hardfork = 0 // Default

const (
	HFChainstart       Hardfork = 1 << iota // chainstart
	HFHomestead                             // homestead
	HFDAO                                   // dao
	HFTangerineWhistle                      // tangerineWhistle
	HFSpuriousDragon                        // spuriousDragon
	HFByzantium                             // byzantium
	HFConstantinople                        // constantinople
	HFPetersburg                            // petersburg
	HFIstanbul                              // istanbul
	HFMuirGlacier                           // muirGlacier
	HFBerlin                                // berlin
	HFLondon                                // london
	HFArrowGlacier                          // arrowGlacier
	HFGrayGlacier                           // grayGlacier
	HFMerge                                 // merge
	HFShanghai                              // shanghai
	HFCancun                                // cancun
	// hfLast denotes the end of hardforks enum. Consider adding new hardforks
	// before hfLast.
	hfLast
)

var hardforkNames = [...]string{
	"chainstart",
	"homestead",
	"dao",
	"tangerineWhistle",
	"spuriousDragon",
	"byzantium",
	"constantinople",
	"petersburg",
	"istanbul",
	"muirGlacier",
	"berlin",
	"london",
	"arrowGlacier",
	"grayGlacier",
	"merge",
	"shanghai",
	"cancun",
}

// Hardforks represents the ordered slice of all possible hardforks.
var Hardforks []Hardfork

// hardforks holds a map of Hardfork string representation to its type.
var hardforks map[string]Hardfork

// evmVersions is the set of `evmVersion` values accepted by solc.
var evmVersions = map[string]Hardfork{
	"homestead":        HFHomestead,
	"tangerineWhistle": HFTangerineWhistle,
	"spuriousDragon":   HFSpuriousDragon,
	"byzantium":        HFByzantium,
	"constantinople":   HFConstantinople,
	"petersburg":       HFPetersburg,
	"istanbul":         HFIstanbul,
	"berlin":           HFBerlin,
	"london":           HFLondon,
	"paris":            HFMerge,
	"shanghai":         HFShanghai,
	"cancun":           HFCancun,
}

func init() {
	for i := HFChainstart; i < hfLast; i = i << 1 {
		Hardforks = append(Hardforks, i)
	}
	hardforks = make(map[string]Hardfork, len(Hardforks))
	for _, hf := range Hardforks {
		hardforks[hf.String()] = hf
	}
}

// String implements the fmt.Stringer interface.
func (hf Hardfork) String() string {
	if hf == HFDefault {
		return "Default"
	}
	for i, name := range hardforkNames {
		if hf == 1<<i {
			return name
		}
	}
	return "Hardfork(unknown)"
}

// Cmp returns the result of hardforks comparison. It returns:
//
//	-1 if hf <  other
//	 0 if hf == other
//	+1 if hf >  other
func (hf Hardfork) Cmp(other Hardfork) int {
	switch {
	case hf == other:
		return 0
	case hf < other:
		return -1
	default:
		return 1
	}
}

// Prev returns the previous hardfork for the given one. Calling Prev for the default hardfork is a no-op.
func (hf Hardfork) Prev() Hardfork {
	if hf == HFDefault {
		panic("unexpected call to Prev for the default hardfork")
	}
	return hf >> 1
}

// IsHardforkValid denotes whether the provided string represents a valid
// Hardfork name.
func IsHardforkValid(s string) bool {
	_, ok := hardforks[s]
	return ok
}

// ParseHardfork returns the Hardfork with the given name.
func ParseHardfork(s string) (Hardfork, bool) {
	hf, ok := hardforks[s]
	return hf, ok
}

// IsEVMVersionValid denotes whether the provided string is a known compiler
// EVM version.
func IsEVMVersionValid(s string) bool {
	_, ok := evmVersions[s]
	return ok
}

// EVMVersionHardfork returns the hardfork that introduced the given compiler
// EVM version.
func EVMVersionHardfork(s string) (Hardfork, bool) {
	hf, ok := evmVersions[s]
	return hf, ok
}

// LatestHardfork returns latest known hardfork.
func LatestHardfork() Hardfork {
	return hfLast >> 1
}
