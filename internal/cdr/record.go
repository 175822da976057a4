package cdr

// Direction codes as emitted by the reporting platform.
const (
	DirectionInbound  = "I"
	DirectionOutbound = "O"
	DirectionBoth     = "B"
)

// CallRecord is one generated call leg.
//
// Field names and order follow the vendor's historical-reporting payload. Consumers key on
// the exact spelling (mixed case, underscores), so do not rename tags.
//
// Invariants (enforced by Factory):
// - Unanswer == "1" iff Duration == 0
// - Duration == 0 implies CallCost == 0 and CallExperienceRating == "0"
// - RingTime == 0 unless Direction is I or B
type CallRecord struct {
	RecordID int64  `json:"RecordId"`
	Extno    string `json:"Extno"`
	Username string `json:"Username"`
	CallDate string `json:"Call_date"`
	Number   string `json:"Number"`
	Port     string `json:"Port"`
	RingTime int    `json:"Ring_time"`
	Account  string `json:"Account"`

	CallCost  float64 `json:"Call_cost"`
	Duration  int     `json:"Duration"`
	Direction string  `json:"Direction"`
	Unanswer  string  `json:"Unanswer"`
	Transfer  string  `json:"Transfer"`
	Vpn       string  `json:"Vpn"`
	CallDist  string  `json:"Call_dist"`
	AccCode   string  `json:"Acc_code"`
	StdCode   string  `json:"Std_code"`

	Destination      string `json:"Destination"`
	CallID           string `json:"CallId"`
	GroupNo          string `json:"Group_no"`
	CallOutcome      string `json:"Call_outcome"`
	CallLegID        string `json:"Call_legId"`
	CallReturnStatus string `json:"Call_returnstatus"`
	TenantID         string `json:"TenantId"`
	LegID            string `json:"LegID"`
	PreviousLegID    string `json:"PreviousLegID"`
	CallLegs         string `json:"Call_legs"`
	ReturnDate       string `json:"Return_date"`
	ReturnRecord     string `json:"Return_record"`
	ReturnDirection  string `json:"Return_direction"`

	// VoIP quality telemetry. Always empty in generated data but never omitted.
	SourceRoundTripDelay     string `json:"SourceRoundTripDelay"`
	SourceEndSystemDelay     string `json:"SourceEndSystemDelay"`
	TargetEndSystemDelay     string `json:"TargetEndSystemDelay"`
	SourceSymmOneWayDelay    string `json:"SourceSymmOneWayDelay"`
	TargetSymmOneWayDelay    string `json:"TargetSymmOneWayDelay"`
	SourceInterarrivalJitter string `json:"SourceInterarrivalJitter"`
	TargetInterarrivalJitter string `json:"TargetInterarrivalJitter"`
	SourceMOSLQ              string `json:"SourceMOSLQ"`
	TargetMOSLQ              string `json:"TargetMOSLQ"`
	SourceMOSCQ              string `json:"SourceMOSCQ"`
	TargetMOSCQ              string `json:"TargetMOSCQ"`

	// Contact center / group.
	FirstGroupRingpoint string `json:"firstGroupRingpoint"`
	GroupPosition       string `json:"GroupPosition"`

	// Journey analytics.
	TotalDuration            string `json:"totalDuration"`
	WaitTime                 string `json:"waitTime"`
	CallBackAgentAssigned    string `json:"CallBackAgentAssigned"`
	CallBackAssignedDateTime string `json:"CallBackAssignedDateTime"`
	ReturnedByAgent          string `json:"ReturnedByAgent"`
	HoldDuration             string `json:"HoldDuration"`
	JourneyWaitTime          string `json:"JourneyWaitTime"`
	JourneyOutcome           string `json:"JourneyOutcome"`
	ContactPoints            string `json:"ContactPoints"`
	CallExperienceRating     string `json:"CallExperienceRating"`
	DeviceID                 string `json:"DeviceId"`
}

// Answered reports whether the leg connected.
func (r CallRecord) Answered() bool { return r.Duration > 0 }
