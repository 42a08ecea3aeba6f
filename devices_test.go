package main

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleLeases = `1700000000 aa:bb:cc:00:00:01 192.168.1.10 laptop 01:aa:bb:cc:00:00:01
1700000100 aa:bb:cc:00:00:02 192.168.1.11 phone *
garbage line
1700000200 aa:bb:cc:00:00:03 192.168.1.12 * *
`

func TestParseLeases(t *testing.T) {
	devices := parseLeases(sampleLeases)
	if len(devices) != 3 {
		t.Fatalf("parsed %d devices, want 3", len(devices))
	}
	// Sorted by name, so "*" comes first.
	if devices[0].Name != "*" || devices[0].MAC != "AA:BB:CC:00:00:03" {
		t.Errorf("devices[0] = %+v, want unnamed device with upper-cased MAC", devices[0])
	}
	if devices[1].Name != "laptop" || devices[1].IP != "192.168.1.10" {
		t.Errorf("devices[1] = %+v", devices[1])
	}
}

func TestParseLeasesEmpty(t *testing.T) {
	if devices := parseLeases(""); len(devices) != 0 {
		t.Fatalf("empty input parsed %d devices", len(devices))
	}
}

func TestParseUsageDBSumsPerMAC(t *testing.T) {
	raw := `#mac,ip,iface,in_rate,out_rate,in,out,total,first,last
aa:bb:cc:00:00:01,192.168.1.10,br-lan,0,0,1000,5000,6000,x,y
AA:BB:CC:00:00:01,192.168.1.10,wlan0,0,0,200,300,500,x,y
aa:bb:cc:00:00:02,192.168.1.11,br-lan,0,0,0,42,42,x,y
not,a,valid,line
`
	usage := parseUsageDB(raw)
	if len(usage) != 2 {
		t.Fatalf("parsed %d entries, want 2", len(usage))
	}
	u := usage["AA:BB:CC:00:00:01"]
	if u.Up != 1200 || u.Down != 5300 {
		t.Errorf("usage summed to ↑%d/↓%d, want ↑1200/↓5300", u.Up, u.Down)
	}
	if usage["AA:BB:CC:00:00:02"].Down != 42 {
		t.Errorf("second MAC down = %d, want 42", usage["AA:BB:CC:00:00:02"].Down)
	}
}

func TestCombinedDevicesMergesAliasesAndUsage(t *testing.T) {
	ctx := newTestAppContext(t)
	if err := os.WriteFile(ctx.Config.Files.DHCPLeases, []byte(sampleLeases), 0o644); err != nil {
		t.Fatal(err)
	}
	usage := "aa:bb:cc:00:00:01,192.168.1.10,br-lan,0,0,100,900,1000,x,y\n"
	if err := os.WriteFile(ctx.Config.Files.UsageDB, []byte(usage), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx.Devices.SetAlias("AA:BB:CC:00:00:01", "Work Laptop")

	devices := ctx.combinedDevices()
	if len(devices) != 3 {
		t.Fatalf("combined %d devices, want 3", len(devices))
	}
	var found bool
	for _, dev := range devices {
		if dev.MAC != "AA:BB:CC:00:00:01" {
			continue
		}
		found = true
		if dev.Name != "Work Laptop" {
			t.Errorf("alias not applied: %q", dev.Name)
		}
		if dev.Down != 900 || dev.Up != 100 {
			t.Errorf("usage not merged: ↓%d/↑%d", dev.Down, dev.Up)
		}
	}
	if !found {
		t.Fatal("aliased device missing from combined list")
	}
}

func TestDeviceStoreAliasRoundTrip(t *testing.T) {
	dir := t.TempDir()
	knownPath := filepath.Join(dir, "known.json")
	aliasPath := filepath.Join(dir, "aliases.json")

	store := newDeviceStore(knownPath, aliasPath)
	store.SetAlias("AA:BB:CC:00:00:01", "NAS")
	store.SetAlias("AA:BB:CC:00:00:02", "Printer")
	if !store.DeleteAlias("AA:BB:CC:00:00:02") {
		t.Fatal("delete of existing alias reported false")
	}
	if store.DeleteAlias("AA:BB:CC:00:00:02") {
		t.Fatal("delete of absent alias reported true")
	}

	// A fresh store re-reads the file.
	reread := newDeviceStore(knownPath, aliasPath)
	alias, ok := reread.Alias("AA:BB:CC:00:00:01")
	if !ok || alias != "NAS" {
		t.Fatalf("reloaded alias = %q, %v; want NAS, true", alias, ok)
	}
	if aliases := reread.Aliases(); len(aliases) != 1 {
		t.Fatalf("reloaded alias map has %d entries, want 1", len(aliases))
	}
}

func TestDeviceStoreKnownSetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := newDeviceStore(filepath.Join(dir, "known.json"), filepath.Join(dir, "aliases.json"))

	if known := store.KnownSet(); len(known) != 0 {
		t.Fatalf("missing file returned %d known devices, want 0", len(known))
	}

	store.SaveKnownSet(map[string]bool{
		"AA:BB:CC:00:00:02": true,
		"AA:BB:CC:00:00:01": true,
	})
	known := store.KnownSet()
	if len(known) != 2 || !known["AA:BB:CC:00:00:01"] {
		t.Fatalf("known-set after save = %v", known)
	}
}

func TestDeviceStoreKnownSetToleratesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	knownPath := filepath.Join(dir, "known.json")
	if err := os.WriteFile(knownPath, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := newDeviceStore(knownPath, filepath.Join(dir, "aliases.json"))
	if known := store.KnownSet(); len(known) != 0 {
		t.Fatalf("corrupt file returned %d known devices, want 0", len(known))
	}
}
