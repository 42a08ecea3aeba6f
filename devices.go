package main

import (
	"encoding/json"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"wrtbot/internal/cmdexec"
)

// Device is one entry of the leased-address table, optionally enriched
// with an alias and cumulative traffic usage.
type Device struct {
	MAC  string
	IP   string
	Name string
	Down uint64
	Up   uint64
}

// Usage holds cumulative per-device traffic from the usage database.
type Usage struct {
	Down uint64
	Up   uint64
}

// parseLeases parses a dnsmasq leases file: "expiry MAC IP hostname id".
// Malformed lines are skipped.
func parseLeases(raw string) []Device {
	var devices []Device
	for _, line := range strings.Split(raw, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		devices = append(devices, Device{
			MAC:  strings.ToUpper(fields[1]),
			IP:   fields[2],
			Name: fields[3],
		})
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Name < devices[j].Name })
	return devices
}

// parseUsageDB parses the wrtbwmon CSV database:
// mac,ip,iface,speed_in,speed_out,in,out,... where "in" is bytes the
// device uploaded and "out" bytes it downloaded. A MAC may appear once
// per interface; entries are summed.
func parseUsageDB(raw string) map[string]Usage {
	usage := make(map[string]Usage)
	for _, line := range strings.Split(raw, "\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(strings.TrimSpace(line), ",")
		if len(parts) < 7 {
			continue
		}
		up, err1 := strconv.ParseUint(parts[5], 10, 64)
		down, err2 := strconv.ParseUint(parts[6], 10, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		mac := strings.ToUpper(parts[0])
		u := usage[mac]
		u.Up += up
		u.Down += down
		usage[mac] = u
	}
	return usage
}

// leasedDevices reads the current leased-address table.
func (ctx *AppContext) leasedDevices() []Device {
	return parseLeases(readFile(ctx.Config.Files.DHCPLeases))
}

// trafficUsage reads the usage database, empty when it does not exist.
func (ctx *AppContext) trafficUsage() map[string]Usage {
	return parseUsageDB(readFile(ctx.Config.Files.UsageDB))
}

// combinedDevices merges leases, aliases and traffic usage into the
// operator-facing device list, sorted by display name.
func (ctx *AppContext) combinedDevices() []Device {
	devices := ctx.leasedDevices()
	usage := ctx.trafficUsage()
	for i := range devices {
		if alias, ok := ctx.Devices.Alias(devices[i].MAC); ok {
			devices[i].Name = alias
		}
		if u, ok := usage[devices[i].MAC]; ok {
			devices[i].Down = u.Down
			devices[i].Up = u.Up
		}
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Name < devices[j].Name })
	return devices
}

// DeviceStore owns the two durable device documents: the alias map and
// the known-device set (a flat JSON list of MACs).
type DeviceStore struct {
	mu        sync.Mutex
	knownPath string
	aliasPath string
	aliases   map[string]string
}

func newDeviceStore(knownPath, aliasPath string) *DeviceStore {
	s := &DeviceStore{
		knownPath: knownPath,
		aliasPath: aliasPath,
		aliases:   make(map[string]string),
	}
	s.loadAliases()
	return s
}

func (s *DeviceStore) loadAliases() {
	data, err := os.ReadFile(s.aliasPath)
	if err != nil {
		return
	}
	var aliases map[string]string
	if err := json.Unmarshal(data, &aliases); err != nil {
		slog.Warn("alias file unreadable, starting empty", "path", s.aliasPath, "err", err)
		return
	}
	s.aliases = aliases
}

func (s *DeviceStore) saveAliasesLocked() {
	data, err := json.MarshalIndent(s.aliases, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(s.aliasPath, data, 0644); err != nil {
		slog.Error("saving aliases failed", "path", s.aliasPath, "err", err)
	}
}

// Alias looks up the display alias for a MAC.
func (s *DeviceStore) Alias(mac string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	alias, ok := s.aliases[strings.ToUpper(mac)]
	return alias, ok
}

// SetAlias stores and persists an alias.
func (s *DeviceStore) SetAlias(mac, alias string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aliases[strings.ToUpper(mac)] = alias
	s.saveAliasesLocked()
}

// DeleteAlias removes an alias, reporting whether it existed.
func (s *DeviceStore) DeleteAlias(mac string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	mac = strings.ToUpper(mac)
	if _, ok := s.aliases[mac]; !ok {
		return false
	}
	delete(s.aliases, mac)
	s.saveAliasesLocked()
	return true
}

// Aliases returns a copy of the alias map.
func (s *DeviceStore) Aliases() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.aliases))
	for k, v := range s.aliases {
		out[k] = v
	}
	return out
}

// KnownSet reads the durable known-device set. A missing or corrupt file
// degrades to an empty set.
func (s *DeviceStore) KnownSet() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(map[string]bool)
	data, err := os.ReadFile(s.knownPath)
	if err != nil {
		return set
	}
	var macs []string
	if err := json.Unmarshal(data, &macs); err != nil {
		slog.Warn("known-device file unreadable, treating as empty", "path", s.knownPath, "err", err)
		return set
	}
	for _, mac := range macs {
		set[strings.ToUpper(mac)] = true
	}
	return set
}

// SaveKnownSet rewrites the durable known-device set.
func (s *DeviceStore) SaveKnownSet(set map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	macs := make([]string, 0, len(set))
	for mac := range set {
		macs = append(macs, mac)
	}
	sort.Strings(macs)
	data, err := json.Marshal(macs)
	if err != nil {
		return
	}
	if err := os.WriteFile(s.knownPath, data, 0644); err != nil {
		slog.Error("saving known devices failed", "path", s.knownPath, "err", err)
	}
}

// BlockedDevice is one bot-managed firewall reject rule.
type BlockedDevice struct {
	Name string
	MAC  string
}

var blockRulePattern = regexp.MustCompile(`firewall\.(bot_block_\w+)=rule`)

// blockedDevices lists the bot-managed block rules from uci.
func blockedDevices() []BlockedDevice {
	ctx, cancel := routerCtx()
	defer cancel()

	out := cmdexec.Text(ctx, "uci", "show", "firewall")
	var blocked []BlockedDevice
	for _, m := range blockRulePattern.FindAllStringSubmatch(out, -1) {
		section := regexp.QuoteMeta(m[1])
		name := regexp.MustCompile(section + `\.name='Block:([^']+)'`).FindStringSubmatch(out)
		mac := regexp.MustCompile(section + `\.src_mac='([^']+)'`).FindStringSubmatch(out)
		if name != nil && mac != nil {
			blocked = append(blocked, BlockedDevice{Name: name[1], MAC: strings.ToUpper(mac[1])})
		}
	}
	return blocked
}

func blockRuleName(mac string) string {
	return "bot_block_" + strings.ToLower(strings.ReplaceAll(mac, ":", ""))
}

// blockDevice installs a firewall reject rule for a MAC and restarts the
// firewall. An existing rule for the same MAC is replaced.
func blockDevice(mac, name string) {
	ctx, cancel := routerCtx()
	defer cancel()

	rule := blockRuleName(mac)
	_ = cmdexec.Run(ctx, "uci", "delete", "firewall."+rule)
	_ = cmdexec.Run(ctx, "uci", "add", "firewall", "rule")
	_ = cmdexec.Run(ctx, "uci", "set", "firewall.@rule[-1].name=Block:"+name)
	_ = cmdexec.Run(ctx, "uci", "set", "firewall.@rule[-1].src=lan")
	_ = cmdexec.Run(ctx, "uci", "set", "firewall.@rule[-1].src_mac="+mac)
	_ = cmdexec.Run(ctx, "uci", "set", "firewall.@rule[-1].target=REJECT")
	_ = cmdexec.Run(ctx, "uci", "rename", "firewall.@rule[-1]", rule)
	_ = cmdexec.Run(ctx, "uci", "commit", "firewall")
	restartService("firewall")
}

// unblockDevice removes the reject rule for a MAC and restarts the firewall.
func unblockDevice(mac string) {
	ctx, cancel := routerCtx()
	defer cancel()

	_ = cmdexec.Run(ctx, "uci", "delete", "firewall."+blockRuleName(mac))
	_ = cmdexec.Run(ctx, "uci", "commit", "firewall")
	restartService("firewall")
}
