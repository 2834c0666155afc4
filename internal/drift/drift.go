// Package drift compares a built inventory with the servers that actually
// exist at the cloud provider.
package drift

import (
	"fmt"
	"net/netip"
	"sort"

	"allthingslinux/atl/internal/hetzner"
	"allthingslinux/atl/internal/inventory"
)

// Status values of a drift Entry.
const (
	StatusOK         = "ok"
	StatusMissing    = "missing"
	StatusUntracked  = "untracked"
	StatusIPMismatch = "ip-mismatch"
)

// Entry is the drift state of one hostname.
type Entry struct {
	Host       string `json:"host"`
	Status     string `json:"status"`
	Group      string `json:"group,omitempty"`
	ExpectedIP string `json:"expected_ip,omitempty"`
	ActualIP   string `json:"actual_ip,omitempty"`
	ServerID   int64  `json:"server_id,omitempty"`
}

// Report is the outcome of Compare.
type Report struct {
	Entries []Entry `json:"entries"`
}

// Count returns how many entries have status.
func (r Report) Count(status string) int {
	n := 0
	for _, e := range r.Entries {
		if e.Status == status {
			n++
		}
	}
	return n
}

// Clean reports whether every entry is ok.
func (r Report) Clean() bool {
	return r.Count(StatusOK) == len(r.Entries)
}

// Compare matches inventory hosts to servers by name. Inventory hosts come
// first in inventory order, followed by untracked servers sorted by name.
//
// A matched host is an ip-mismatch when its ansible_host is set and is
// neither the server's public IPv4 nor an address inside its IPv6 network.
func Compare(inv *inventory.Inventory, servers []hetzner.Server) Report {
	byName := make(map[string]hetzner.Server, len(servers))
	for _, s := range servers {
		byName[s.Name] = s
	}

	groupOf := primaryGroups(inv)
	var report Report
	tracked := make(map[string]bool)

	for _, host := range inv.Hosts() {
		tracked[host] = true
		entry := Entry{Host: host, Group: groupOf[host]}

		hv, _ := inv.HostVars(host)
		if v, ok := hv.Get("ansible_host"); ok && v != nil {
			entry.ExpectedIP = fmt.Sprint(v)
		}

		server, ok := byName[host]
		if !ok {
			entry.Status = StatusMissing
			report.Entries = append(report.Entries, entry)
			continue
		}

		entry.ServerID = server.ID
		entry.ActualIP = server.PublicIPv4
		entry.Status = StatusOK
		if entry.ExpectedIP != "" && !addressOf(entry.ExpectedIP, server) {
			entry.Status = StatusIPMismatch
		}
		report.Entries = append(report.Entries, entry)
	}

	var untracked []Entry
	for _, s := range servers {
		if tracked[s.Name] {
			continue
		}
		untracked = append(untracked, Entry{
			Host:     s.Name,
			Status:   StatusUntracked,
			ActualIP: s.PublicIPv4,
			ServerID: s.ID,
		})
	}
	sort.Slice(untracked, func(i, j int) bool { return untracked[i].Host < untracked[j].Host })
	report.Entries = append(report.Entries, untracked...)

	return report
}

// addressOf reports whether ip belongs to server. Hostnames and other
// non-address values never match.
func addressOf(ip string, server hetzner.Server) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.WithZone("").Unmap()
	if v4, err := netip.ParseAddr(server.PublicIPv4); err == nil && addr == v4 {
		return true
	}
	if block, err := netip.ParsePrefix(server.PublicIPv6Network); err == nil {
		return block.Contains(addr)
	}
	return false
}

// primaryGroups maps each host to the first group that lists it, which is
// always the declaration item that produced it.
func primaryGroups(inv *inventory.Inventory) map[string]string {
	out := make(map[string]string)
	for _, g := range inv.Groups() {
		for _, h := range inv.GroupHosts(g) {
			if _, ok := out[h]; !ok {
				out[h] = g
			}
		}
	}
	return out
}
