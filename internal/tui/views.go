package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/paylinehq/adminctl/internal/agence"
	"github.com/paylinehq/adminctl/internal/dashboard"
	"github.com/paylinehq/adminctl/internal/token"
)

// RenderDashboard renders a one-shot view of the orchestrator snapshot.
func RenderDashboard(snap dashboard.Snapshot, combined dashboard.CombinedStatistics, styles Styles) string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Payline Admin Dashboard"))
	b.WriteString("\n\n")

	b.WriteString(styles.Border.Render(renderCombined(combined, styles)))
	b.WriteString("\n\n")

	b.WriteString(renderSlotLine("Clients", slotStatus(snap.Statistics.Error, snap.Statistics.Loading),
		fmt.Sprintf("%d total, %d active", snap.Statistics.Value.TotalClients, snap.Statistics.Value.ActiveClients), styles))
	b.WriteString(renderSlotLine("System users", slotStatus(snap.Users.Error, snap.Users.Loading),
		fmt.Sprintf("%d total, %d active", snap.Users.Value.TotalUsers, snap.Users.Value.ActiveUsers), styles))
	b.WriteString(renderSlotLine("Documents", slotStatus(snap.PendingDocuments.Error, snap.PendingDocuments.Loading),
		fmt.Sprintf("%d pending", combined.PendingDocuments), styles))
	b.WriteString(renderSlotLine("Health", slotStatus(snap.Health.Error, snap.Health.Loading),
		renderHealth(snap.Health.Value, styles), styles))

	if len(snap.RecentActivity.Value) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.Subtitle.Render("Recent activity"))
		b.WriteString("\n")
		for _, entry := range snap.RecentActivity.Value {
			b.WriteString(renderActivity(entry, styles))
			b.WriteString("\n")
		}
	}

	if errs := slotErrors(snap); len(errs) > 0 {
		b.WriteString("\n")
		for _, e := range errs {
			b.WriteString(styles.Error.Render("! ") + styles.Muted.Render(e))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func renderCombined(c dashboard.CombinedStatistics, styles Styles) string {
	return strings.Join([]string{
		styles.Label.Render("Clients ") + styles.Value.Render(fmt.Sprintf("%d", c.TotalClients)),
		styles.Label.Render("Users ") + styles.Value.Render(fmt.Sprintf("%d", c.SystemUsers)),
		styles.Label.Render("Pending docs ") + styles.Value.Render(fmt.Sprintf("%d", c.PendingDocuments)),
		styles.Label.Render("Balance ") + styles.Value.Render(fmt.Sprintf("%.2f", c.TotalBalance)),
		styles.Label.Render("Status ") + renderStatus(c.SystemStatus, styles),
	}, "   ")
}

func renderSlotLine(name, status, detail string, styles Styles) string {
	return fmt.Sprintf("%s %s %s\n",
		status,
		styles.Label.Render(fmt.Sprintf("%-13s", name)),
		styles.Value.Render(detail))
}

func slotStatus(errMsg string, loading bool) string {
	switch {
	case loading:
		return "…"
	case errMsg != "":
		return "✗"
	default:
		return "✓"
	}
}

func renderHealth(h agence.SystemHealth, styles Styles) string {
	parts := []string{renderStatus(h.Status, styles)}
	for name, status := range h.Services {
		parts = append(parts, styles.Muted.Render(name+"=")+renderStatus(status, styles))
	}
	return strings.Join(parts, " ")
}

func renderStatus(status string, styles Styles) string {
	switch status {
	case "UP", "HEALTHY", "OK":
		return styles.Good.Render(status)
	case agence.HealthUnknown, "":
		return styles.Warn.Render(agence.HealthUnknown)
	default:
		return styles.Error.Render(status)
	}
}

func renderActivity(a agence.Activity, styles Styles) string {
	ts := a.Timestamp
	if ts == "" {
		ts = "-"
	}
	return fmt.Sprintf("  %s %s %s",
		styles.Muted.Render(ts),
		styles.Subtitle.Render(a.Actor),
		styles.Value.Render(a.Message))
}

func slotErrors(snap dashboard.Snapshot) []string {
	var errs []string
	add := func(source, msg string) {
		if msg != "" {
			errs = append(errs, source+": "+msg)
		}
	}
	add("statistics", snap.Statistics.Error)
	add("dashboard", snap.Dashboard.Error)
	add("health", snap.Health.Error)
	add("documents", snap.PendingDocuments.Error)
	add("activity", snap.RecentActivity.Error)
	add("users", snap.Users.Error)
	return errs
}

// RenderSession renders the status command output for a live session.
func RenderSession(principal token.Principal, realm string, expiresAt time.Time, refreshAt time.Time, now time.Time, styles Styles) string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Session"))
	b.WriteString("\n")
	b.WriteString(styles.Label.Render("Principal  ") + styles.Value.Render(principal.DisplayName))
	if principal.Email != "" {
		b.WriteString(styles.Muted.Render(" <" + principal.Email + ">"))
	}
	b.WriteString("\n")
	if len(principal.Roles) > 0 {
		b.WriteString(styles.Label.Render("Roles      ") + styles.Value.Render(strings.Join(principal.Roles, ", ")))
		b.WriteString("\n")
	}
	b.WriteString(styles.Label.Render("Realm      ") + styles.Value.Render(realm))
	b.WriteString("\n")
	b.WriteString(styles.Label.Render("Expires    ") + styles.Value.Render(fmt.Sprintf("%s (in %s)",
		expiresAt.Format(time.RFC3339), expiresAt.Sub(now).Round(time.Second))))
	b.WriteString("\n")
	if !refreshAt.IsZero() {
		b.WriteString(styles.Label.Render("Refresh at ") + styles.Value.Render(refreshAt.Format(time.RFC3339)))
		b.WriteString("\n")
	}
	return b.String()
}
