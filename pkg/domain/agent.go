package domain

// AgentID identifies a specialist known to the dispatcher.
// The set is closed: names outside of it resolve to AgentUnregistered.
type AgentID int

const (
	// AgentUnregistered is the fallback for names no capability is wired to.
	AgentUnregistered AgentID = iota
	// AgentClusterFixer inspects and repairs a workload.
	AgentClusterFixer
	// AgentNotifier asks a human for help.
	AgentNotifier
	// AgentFinish is the supervisor's termination sentinel. It is never dispatched.
	AgentFinish
)

// Symbolic names emitted by supervisors.
const (
	NameClusterFixer = "ClusterFixer"
	NameNotifier     = "Notifier"
	NameFinish       = "FINISH"

	// nameK8sFixer is the legacy name for the cluster fixer.
	nameK8sFixer = "K8sFixer"
)

var agentNames = map[string]AgentID{
	NameClusterFixer: AgentClusterFixer,
	nameK8sFixer:     AgentClusterFixer,
	NameNotifier:     AgentNotifier,
	NameFinish:       AgentFinish,
}

// ParseAgent resolves a symbolic name. Unknown names map to AgentUnregistered.
func ParseAgent(name string) AgentID {
	if id, ok := agentNames[name]; ok {
		return id
	}
	return AgentUnregistered
}

func (a AgentID) String() string {
	switch a {
	case AgentClusterFixer:
		return NameClusterFixer
	case AgentNotifier:
		return NameNotifier
	case AgentFinish:
		return NameFinish
	default:
		return "unregistered"
	}
}
