// Package resolver maps transient network addresses to stable device
// identities using the DHCP lease table.
package resolver

import (
	"bufio"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Lookup answers "which hardware id holds this address right now".
type Lookup interface {
	Lookup(address string) (hardwareID string, ok bool)
}

// LeaseFile reads dnsmasq-format lease files: one lease per line, columns
// are expiry epoch, hardware id, address, hostname and client id. The file
// is owned and rewritten by the DHCP service; we only ever read it.
type LeaseFile struct {
	path string
}

func NewLeaseFile(path string) *LeaseFile {
	return &LeaseFile{path: path}
}

// Lookup scans for the most recent lease matching the address. Any read or
// parse problem is treated as a miss; a transient DHCP hiccup must never
// break the order flow.
func (f *LeaseFile) Lookup(address string) (string, bool) {
	file, err := os.Open(f.path)
	if err != nil {
		return "", false
	}
	defer file.Close()

	var (
		bestEpoch int64 = -1
		bestHW    string
	)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 || fields[2] != address {
			continue
		}
		epoch, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			continue
		}
		if epoch > bestEpoch {
			bestEpoch = epoch
			bestHW = fields[1]
		}
	}
	if scanner.Err() != nil || bestHW == "" {
		return "", false
	}
	return bestHW, true
}

// Static is a fixed address→hardware-id table, mostly for tests.
type Static map[string]string

func (s Static) Lookup(address string) (string, bool) {
	hw, ok := s[address]
	return hw, ok
}

type Resolver struct {
	leases Lookup
}

func New(leases Lookup) *Resolver {
	return &Resolver{leases: leases}
}

// Resolve returns the stable device identity for a transient address: the
// case-normalized hardware id when the lease table knows the address, or the
// address itself as a degraded-but-deterministic fallback. Addresses
// reassigned mid-visit may then look like a second device; that trades
// precision for liveness.
func (r *Resolver) Resolve(address string) string {
	hw, ok := r.leases.Lookup(address)
	if !ok {
		slog.Debug("lease lookup missed, using address as identity", "address", address)
		return address
	}
	return strings.ToLower(hw)
}
