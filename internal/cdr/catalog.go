package cdr

// Fixed vocabularies the generator draws from. Values mirror a real tenant export.
var (
	Usernames = []string{
		"PTP AG4311,METZ", "PTP AG4311,G1", "COMPTOIR,FIXE2469",
		"ORBEM,MATTHIAS", "PORT_IVR_9921043_Miv", "CDO AG2653,COUTANCES",
		"CDO AG2469,G1", "PTP AG3592,G1", "ESCAVABAJA,ANTHONY",
	}

	Extensions = []string{
		"694311", "9431101", "711540", "616445", "9921043",
		"792653", "9246901", "9359201", "712322",
	}

	GroupNumbers    = []string{"9431101", "9246901", "9359201", ""}
	Directions      = []string{DirectionInbound, DirectionOutbound, DirectionBoth}
	CallOutcomes    = []string{"103", "108", "207", "202", "105", "102"}
	JourneyOutcomes = []string{"701", "702", "703", "0"}
	DeviceIDs       = []string{"19", "-1", "873", "924", "63", "146", "1345"}

	callIDPrefixes = []string{"A", "B", "C", "D", "I", "K", "M", "Q", "Y", "X"}
)

// Numeric bounds, inclusive.
const (
	DefaultRecordBase int64 = 78340000

	countryPrefix     = "+33"
	subscriberMin     = 100000000
	subscriberMax     = 999999999
	legPrefixMin      = 10000000000
	legPrefixMax      = 99999999999
	callIDMin         = 2010000
	callIDMax         = 2020000
	maxRingSeconds    = 30
	maxDuration       = 600
	maxWaitSeconds    = 60
	maxHoldSeconds    = 120
	maxTotalJitter    = 20
	maxCostCents      = 500
	maxRating         = 5
	maxCallLegs       = 5
	portPresentChance = 0.9
)

// IsDirection reports whether d is a known direction code.
func IsDirection(d string) bool {
	switch d {
	case DirectionInbound, DirectionOutbound, DirectionBoth:
		return true
	default:
		return false
	}
}
