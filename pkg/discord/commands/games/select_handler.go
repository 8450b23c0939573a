package games

import (
	"fmt"
	"strings"

	"github.com/dwarflabs/dwarfbot/pkg/discord/audit"
	"github.com/dwarflabs/dwarfbot/pkg/discord/commands/core"
	"github.com/dwarflabs/dwarfbot/pkg/gameroles"
)

// SelectionHandler applies a member's dropdown submission through the
// role reconciler. Available to every member, no permission gate.
type SelectionHandler struct {
	service   *gameroles.Service
	actions   *audit.ActionLogger
	responder *core.ResponseManager
}

// NewSelectionHandler creates the handler.
func NewSelectionHandler(service *gameroles.Service, actions *audit.ActionLogger) *SelectionHandler {
	return &SelectionHandler{service: service, actions: actions}
}

// Register registers the dropdown component handler.
func (sh *SelectionHandler) Register(router *core.CommandRouter) {
	sh.responder = router.GetResponder()
	router.RegisterComponent(gameroles.CustomIDSelectMenu, sh.handleSelection)
}

func (sh *SelectionHandler) handleSelection(ctx *core.Context, customID string) error {
	selected := ctx.Interaction.MessageComponentData().Values

	// Reconciliation touches up to one REST call per managed role, which
	// can outlast the initial-response window. Acknowledge first.
	if err := sh.responder.DeferResponse(ctx.Interaction, true); err != nil {
		return err
	}

	summary, err := sh.service.ReconcileMemberRoles(ctx.GuildID, ctx.UserID, selected)
	if err != nil {
		ctx.Logger.Error("Role reconciliation failed", "error", err)
		return core.NewCommandError("Your selection could not be applied, try again", true)
	}

	if !summary.Empty() {
		sh.actions.LogAction(ctx.GuildID, ctx.UserID, audit.ActionRolesReconciled, "",
			fmt.Sprintf("Added %d, removed %d role(s)", len(summary.Added), len(summary.Removed)))
	}

	return sh.responder.EditResponse(ctx.Interaction, "✅ "+formatSummary(summary))
}

func formatSummary(summary gameroles.ReconcileSummary) string {
	if summary.Empty() {
		return "Your game roles are already up to date."
	}

	var parts []string
	if len(summary.Added) > 0 {
		parts = append(parts, "Added: "+boldNames(summary.Added))
	}
	if len(summary.Removed) > 0 {
		parts = append(parts, "Removed: "+boldNames(summary.Removed))
	}
	if len(summary.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("%d selection(s) could not be applied.", len(summary.Missing)))
	}
	return strings.Join(parts, "\n")
}

func boldNames(roleNames []string) string {
	bold := make([]string, 0, len(roleNames))
	for _, name := range roleNames {
		bold = append(bold, "**"+name+"**")
	}
	return strings.Join(bold, ", ")
}
