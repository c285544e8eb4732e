// Package host provides the Host entity: a remote worker machine reachable
// by the transport collaborator, with a run-scoped remote temp directory.
package host

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/five82/clustercode/internal/config"
)

// Host represents one remote worker machine bound to one (manager, encoder)
// pair. A hostname listed twice in -c/--clients produces two Hosts, each
// with its own derived remote temp dir, so they may safely share one
// physical machine (see spec's Open Question on duplicate hostnames).
type Host struct {
	// Name is the hostname as accepted by the transport collaborator.
	Name string

	// Ordinal distinguishes multiple Hosts that share the same Name.
	Ordinal int

	// remoteTempDir is the host's unique remote temp dir, created at most
	// once per run and removed at most once per run.
	remoteTempDir string

	// KeepTemp, when true, retains the remote temp dir after termination.
	KeepTemp bool
}

// ParseHosts splits a comma-separated hostname list into Hosts.
// Whitespace around each hostname is trimmed; empty entries are rejected.
// A hostname that appears more than once yields one Host per occurrence.
func ParseHosts(spec string, keepTemp bool) ([]*Host, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, fmt.Errorf("no hosts provided")
	}

	runID := uuid.New().String()[:8]

	occurrences := make(map[string]int)
	var hosts []*Host
	for _, raw := range strings.Split(spec, ",") {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, fmt.Errorf("empty hostname in host list %q", spec)
		}
		ordinal := occurrences[name]
		occurrences[name]++

		h := &Host{
			Name:     name,
			Ordinal:  ordinal,
			KeepTemp: keepTemp,
		}
		h.remoteTempDir = deriveRemoteTempDir(runID, name, ordinal)
		hosts = append(hosts, h)
	}

	return hosts, nil
}

// deriveRemoteTempDir builds a remote temp dir path unique to this run, host,
// and ordinal, so concurrent runs (or two logical Hosts sharing one machine)
// never collide.
func deriveRemoteTempDir(runID, name string, ordinal int) string {
	return path.Join(config.DefaultRemoteBaseDir, fmt.Sprintf("clustercode-%s-%s-%d", runID, sanitize(name), ordinal))
}

// sanitize strips path separators from a hostname so it is safe to use as a
// directory component.
func sanitize(name string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(name)
}

// RemoteTempDir returns this host's derived remote temp directory path.
func (h *Host) RemoteTempDir() string {
	return h.remoteTempDir
}

// String identifies the host for diagnostics, disambiguating duplicates.
func (h *Host) String() string {
	if h.Ordinal == 0 {
		return h.Name
	}
	return fmt.Sprintf("%s#%d", h.Name, h.Ordinal)
}
