// Package constants holds the small set of ambient string constants
// shared by the daemons in cmd/. The teacher's version of this package
// also carried Kubernetes CRD/PVC naming helpers for its operator and
// training-job sidecars; none of that has a home in this module (the
// core is a device-local service handle plus a catalog plus an
// offloading protocol, not a cluster controller), so only the
// environment-variable-prefix constant the daemons actually bind
// through viper survives here.
package constants

// AgentAppName is the viper/env-var prefix shared by every mlsvc-agent
// and catalog-daemon configuration key (e.g. MLSVC_AGENT_DEBUG).
const AgentAppName = "MLSVC_AGENT"
