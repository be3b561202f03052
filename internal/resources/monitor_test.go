package resources

import "testing"

func TestEnableAndDisableGroup(t *testing.T) {
	m := NewMonitor(ResourceLimits{})

	m.EnableGroup("ceiling")
	if !m.IsGroupEnabled("ceiling") {
		t.Fatal("expected ceiling to be enabled")
	}

	m.DisableGroup("ceiling")
	if m.IsGroupEnabled("ceiling") {
		t.Fatal("expected ceiling to be disabled")
	}
}

func TestIsGroupEnabledDefaultsFalse(t *testing.T) {
	m := NewMonitor(ResourceLimits{})
	if m.IsGroupEnabled("unknown") {
		t.Fatal("expected unknown group to report disabled")
	}
}

func TestGetEnabledGroupsOmitsDisabled(t *testing.T) {
	m := NewMonitor(ResourceLimits{})
	m.EnableGroup("a")
	m.EnableGroup("b")
	m.DisableGroup("b")

	enabled := m.GetEnabledGroups()
	if len(enabled) != 1 || enabled[0] != "a" {
		t.Fatalf("expected only 'a' enabled, got %v", enabled)
	}
}

func TestCanEnableGroupRespectsMemoryLimit(t *testing.T) {
	m := NewMonitor(ResourceLimits{MemoryLimit: 100})
	m.Update()

	ok, reason := m.CanEnableGroup("big", 1<<40)
	if ok {
		t.Fatalf("expected an unreasonably large group request to be rejected, reason=%q", reason)
	}
}

func TestSetDisablePriorityAutoDisablesInOrder(t *testing.T) {
	m := NewMonitor(ResourceLimits{
		AutoDisableOnLowMemory: true,
		LowMemoryThreshold:     ^uint64(0), // always "low"
	})
	m.SetDisablePriority([]string{"background", "accent", "main"})
	m.EnableGroup("background")
	m.EnableGroup("accent")
	m.EnableGroup("main")
	m.Update()

	m.autoDisableLeastEssentialGroup()

	if m.IsGroupEnabled("background") {
		t.Fatal("expected background group to be disabled first")
	}
	if !m.IsGroupEnabled("accent") || !m.IsGroupEnabled("main") {
		t.Fatal("expected higher-priority groups to remain enabled after a single disable pass")
	}
}

func TestGetResourceReportIncludesGroupsBlock(t *testing.T) {
	m := NewMonitor(ResourceLimits{})
	m.EnableGroup("main")
	m.Update()

	report := m.GetResourceReport()
	groups, ok := report["groups"].(map[string]interface{})
	if !ok {
		t.Fatal("expected report to include a groups block")
	}
	enabled, ok := groups["enabled"].([]string)
	if !ok || len(enabled) != 1 || enabled[0] != "main" {
		t.Fatalf("expected groups.enabled to list 'main', got %v", groups["enabled"])
	}
}
