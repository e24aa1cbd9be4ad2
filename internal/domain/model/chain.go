package model

// Network identifies the Substrate network a run targets. It labels logs,
// metrics and alerts and selects endpoint defaults.
type Network string

const (
	NetworkBajun Network = "bajun"
	NetworkAjuna Network = "ajuna"
)

func (n Network) String() string {
	return string(n)
}

// Call names on the Ajuna runtimes.
const (
	CallForceSetAffiliateeState = "AwesomeAvatars.force_set_affiliatee_state"
	CallBatchAll                = "Utility.batch_all"
)
