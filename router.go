package main

import (
	"context"
	"encoding/json"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"wrtbot/internal/cmdexec"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// wanNone is the sentinel for "no usable WAN address". A missing default
// route and a briefly unreadable address both map to it.
const wanNone = "none"

const routerCmdTimeout = 5 * time.Second

var (
	devPattern     = regexp.MustCompile(`dev\s+(\S+)`)
	inetPattern    = regexp.MustCompile(`inet\s+([\d.]+)`)
	viaPattern     = regexp.MustCompile(`via\s+(\S+)`)
	ethtoolPattern = regexp.MustCompile(`Speed:\s+(\d+)Mb/s`)
)

// WANInfo describes one interface carrying a default route.
type WANInfo struct {
	Name    string
	IP      string
	Gateway string
	Speed   string
	Rx      uint64
	Tx      uint64
}

// readFile returns the trimmed contents of a file, empty on any error.
func readFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func routerCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), routerCmdTimeout)
}

// defaultRouteIfaces lists the interfaces named by default routes.
func defaultRouteIfaces() []string {
	ctx, cancel := routerCtx()
	defer cancel()

	out := cmdexec.Text(ctx, "ip", "route", "show", "default")
	seen := make(map[string]bool)
	var ifaces []string
	for _, m := range devPattern.FindAllStringSubmatch(out, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			ifaces = append(ifaces, m[1])
		}
	}
	return ifaces
}

// wanInterfaces collects address, gateway, link speed and cumulative
// traffic for every default-route interface. All reads are best-effort.
func wanInterfaces() []WANInfo {
	ctx, cancel := routerCtx()
	defer cancel()

	routeOut := cmdexec.Text(ctx, "ip", "route", "show", "default")
	var infos []WANInfo
	seen := make(map[string]bool)
	for _, m := range devPattern.FindAllStringSubmatch(routeOut, -1) {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true

		info := WANInfo{Name: name, IP: wanNone, Gateway: "N/A", Speed: "dynamic"}
		addrOut := cmdexec.Text(ctx, "ip", "addr", "show", name)
		if ip := inetPattern.FindStringSubmatch(addrOut); ip != nil {
			info.IP = ip[1]
		}
		for _, line := range strings.Split(routeOut, "\n") {
			if strings.Contains(line, "dev "+name) {
				if gw := viaPattern.FindStringSubmatch(line); gw != nil {
					info.Gateway = gw[1]
				}
				break
			}
		}
		if speed := readFile("/sys/class/net/" + name + "/speed"); speed != "" && speed != "-1" {
			info.Speed = speed + " Mbps"
		} else if m := ethtoolPattern.FindStringSubmatch(cmdexec.Text(ctx, "ethtool", name)); m != nil {
			info.Speed = m[1] + " Mbps"
		}
		info.Rx = readCounter("/sys/class/net/" + name + "/statistics/rx_bytes")
		info.Tx = readCounter("/sys/class/net/" + name + "/statistics/tx_bytes")
		infos = append(infos, info)
	}
	return infos
}

func readCounter(path string) uint64 {
	v, err := strconv.ParseUint(readFile(path), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// firstWANIP returns the address of the first WAN interface, or the
// wanNone sentinel when no interface has a usable address.
func firstWANIP() string {
	infos := wanInterfaces()
	if len(infos) == 0 {
		return wanNone
	}
	return infos[0].IP
}

// lanIP returns the address of the LAN bridge.
func lanIP(bridge string) string {
	ctx, cancel := routerCtx()
	defer cancel()

	out := cmdexec.Text(ctx, "ip", "addr", "show", bridge)
	if m := inetPattern.FindStringSubmatch(out); m != nil {
		return m[1]
	}
	return "N/A"
}

// RadioStatus describes one wireless radio.
type RadioStatus struct {
	Name string
	Up   bool
}

// wifiRadios reads radio up/down state from ubus.
func wifiRadios() []RadioStatus {
	ctx, cancel := routerCtx()
	defer cancel()

	raw := cmdexec.Text(ctx, "ubus", "call", "network.wireless", "status")
	if raw == "" {
		return nil
	}
	var status map[string]struct {
		Up bool `json:"up"`
	}
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		return nil
	}
	radios := make([]RadioStatus, 0, len(status))
	for name, data := range status {
		radios = append(radios, RadioStatus{Name: name, Up: data.Up})
	}
	return radios
}

// toggleRadio flips a radio between up and down.
func toggleRadio(radio string, up bool) {
	ctx, cancel := routerCtx()
	defer cancel()

	dir := "down"
	if up {
		dir = "up"
	}
	_ = cmdexec.Run(ctx, "wifi", dir, radio)
}

// setGuestWifi enables or disables the guest wireless interface via uci
// and reloads the wifi stack.
func setGuestWifi(iface string, enabled bool) {
	ctx, cancel := routerCtx()
	defer cancel()

	disabled := "1"
	if enabled {
		disabled = "0"
	}
	_ = cmdexec.Run(ctx, "uci", "set", "wireless."+iface+".disabled="+disabled)
	_ = cmdexec.Run(ctx, "uci", "commit", "wireless")
	_ = cmdexec.Run(ctx, "wifi", "reload")
}

// restartService restarts an init.d service.
func restartService(name string) {
	ctx, cancel := routerCtx()
	defer cancel()
	_ = cmdexec.Run(ctx, "/etc/init.d/"+name, "restart")
}

// rebootRouter issues the reboot command. Best-effort: if it fails the
// router is in no worse shape than before.
func rebootRouter() {
	ctx, cancel := routerCtx()
	defer cancel()
	_ = cmdexec.Run(ctx, "reboot")
}

// SystemInfo is the static/slow-moving half of the full status view.
type SystemInfo struct {
	Model     string
	OSVersion string
	Kernel    string
	Uptime    uint64
	Load1     float64
	MemUsed   uint64
	MemTotal  uint64
	SwapUsed  uint64
	SwapTotal uint64
	DiskPct   float64
	DiskUsed  uint64
	DiskTotal uint64
}

var prettyNamePattern = regexp.MustCompile(`PRETTY_NAME="([^"]+)"`)

// systemInfo gathers the full-status fields, degrading each to a zero or
// placeholder value when its source is unavailable.
func systemInfo() SystemInfo {
	info := SystemInfo{
		Model:     readFile("/tmp/sysinfo/model"),
		OSVersion: "N/A",
	}
	if info.Model == "" {
		info.Model = "N/A"
	}
	if m := prettyNamePattern.FindStringSubmatch(readFile("/etc/os-release")); m != nil {
		info.OSVersion = m[1]
	}

	if h, err := host.Info(); err == nil {
		info.Uptime = h.Uptime
		info.Kernel = h.KernelVersion
	}
	if l, err := load.Avg(); err == nil {
		info.Load1 = l.Load1
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.MemUsed = vm.Total - vm.Available
		info.MemTotal = vm.Total
	}
	if sw, err := mem.SwapMemory(); err == nil {
		info.SwapUsed = sw.Used
		info.SwapTotal = sw.Total
	}
	if du, err := disk.Usage("/"); err == nil {
		info.DiskPct = du.UsedPercent
		info.DiskUsed = du.Used
		info.DiskTotal = du.Total
	}
	return info
}
