package domain

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNotAssigned  TicketStatus = "not_assigned"
	TicketStatusAssigned     TicketStatus = "assigned"
	TicketStatusInProcess    TicketStatus = "in_process"
	TicketStatusReadyForQC   TicketStatus = "rf_qc"
	TicketStatusQCDone       TicketStatus = "qcd"
	TicketStatusFileReceived TicketStatus = "file_received"
	TicketStatusSent         TicketStatus = "sent"
)

// StatusOrder is the forward order of the lifecycle.
var StatusOrder = []TicketStatus{
	TicketStatusNotAssigned,
	TicketStatusAssigned,
	TicketStatusInProcess,
	TicketStatusReadyForQC,
	TicketStatusQCDone,
	TicketStatusFileReceived,
	TicketStatusSent,
}

var statusLabels = map[TicketStatus]string{
	TicketStatusNotAssigned:  "Not Assigned",
	TicketStatusAssigned:     "Assigned",
	TicketStatusInProcess:    "In Process",
	TicketStatusReadyForQC:   "Ready for QC",
	TicketStatusQCDone:       "QC Done",
	TicketStatusFileReceived: "File Received",
	TicketStatusSent:         "Sent",
}

// Valid reports whether s is one of the lifecycle states.
func (s TicketStatus) Valid() bool {
	return s.Index() >= 0
}

// Index returns the position of s in StatusOrder, or -1.
func (s TicketStatus) Index() int {
	for i, candidate := range StatusOrder {
		if candidate == s {
			return i
		}
	}
	return -1
}

// Label returns the human readable name.
func (s TicketStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// StatusOption is one selectable entry in a next-status picker.
type StatusOption struct {
	Value    TicketStatus `json:"value"`
	Label    string       `json:"label"`
	Disabled bool         `json:"disabled"`
}

// StatusOptions lists every status with the ones a caller may not pick disabled.
// Only the immediate successor of current may be chosen going forward; earlier
// states stay open for rework. Anything past not_assigned needs an assignee,
// except current itself, since re-selecting it is a no-op write.
// An unknown current status is treated as not_assigned.
func StatusOptions(current TicketStatus, hasAssignee bool) []StatusOption {
	currentIndex := current.Index()
	if currentIndex < 0 {
		currentIndex = 0
	}
	options := make([]StatusOption, 0, len(StatusOrder))
	for i, status := range StatusOrder {
		disabled := i > currentIndex+1
		if status != TicketStatusNotAssigned && status != current && !hasAssignee {
			disabled = true
		}
		options = append(options, StatusOption{
			Value:    status,
			Label:    status.Label(),
			Disabled: disabled,
		})
	}
	return options
}

// Selectable reports whether next is enabled in StatusOptions(current, hasAssignee).
func Selectable(current, next TicketStatus, hasAssignee bool) bool {
	for _, option := range StatusOptions(current, hasAssignee) {
		if option.Value == next {
			return !option.Disabled
		}
	}
	return false
}
