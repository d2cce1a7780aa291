package history

import "folio/internal/folio"

// Icon keys understood by presentation layers.
const (
	IconManualSave = "manual-save"
	IconAIAction   = "ai-action"
)

// TriggerIcon maps a snapshot trigger type to its display icon key.
func TriggerIcon(triggerType string) string {
	switch triggerType {
	case folio.TriggerAIAction:
		return IconAIAction
	default:
		return IconManualSave
	}
}
