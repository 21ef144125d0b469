// Package render formats backend results into the shared result panel.
package render

import (
	"fmt"
	"strings"

	"github.com/ukydev/toll-scenario/internal/models"
)

// Kind tells which result schema the panel currently shows.
type Kind string

const (
	KindEmpty      Kind = ""
	KindSimulation Kind = "simulation"
	KindRoutes     Kind = "routes"
)

// State of the last backend operation.
type State string

const (
	StateIdle        State = "idle"
	StatePending     State = "pending"
	StateOK          State = "ok"
	StateError       State = "error"
	StateUnavailable State = "unavailable" // backend answered without the data yet
)

// Status is the explicit indicator for the last backend call.
type Status struct {
	State     State  `json:"state"`
	Operation string `json:"operation,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Block is one rendered result entry.
type Block struct {
	Title string   `json:"title"`
	Lines []string `json:"lines"`
}

// Panel is the result container shared by simulation and route results.
type Panel struct {
	Kind      Kind    `json:"kind"`
	Blocks    []Block `json:"blocks"`
	RequestID string  `json:"request_id,omitempty"`
	Status    Status  `json:"status"`
}

// NewPanel returns an empty idle panel.
func NewPanel() *Panel {
	return &Panel{Blocks: []Block{}, Status: Status{State: StateIdle}}
}

// RenderSimulation replaces the panel contents with one block per vehicle result.
func (p *Panel) RenderSimulation(results []models.SimulationResult) {
	blocks := make([]Block, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, Block{
			Title: fmt.Sprintf("Vehicle %d", r.VehicleID),
			Lines: []string{
				fmt.Sprintf("Total Distance: %s km", Amount(r.TotalDistance)),
				fmt.Sprintf("Toll Distance: %s km", Amount(r.TollDistance)),
				fmt.Sprintf("Toll Charged: INR %s", Amount(r.TollCharged)),
				fmt.Sprintf("Remaining Balance: INR %s", Amount(r.RemainingBalance)),
			},
		})
	}
	p.Kind = KindSimulation
	p.Blocks = blocks
}

// RenderRoutes replaces the panel contents with one block per route.
func (p *Panel) RenderRoutes(routes []models.Route) {
	blocks := make([]Block, 0, len(routes))
	for _, r := range routes {
		blocks = append(blocks, Block{
			Title: "Route",
			Lines: []string{
				fmt.Sprintf("Total Distance: %s km", Amount(r.TotalDistance)),
				fmt.Sprintf("Toll Distance: %s km", Amount(r.TollDistance)),
				fmt.Sprintf("Toll Amount: %s", Amount(r.TollAmount)),
			},
		})
	}
	p.Kind = KindRoutes
	p.Blocks = blocks
}

// ShowRequestID displays the identifier of an asynchronous upload.
func (p *Panel) ShowRequestID(id string) {
	p.RequestID = id
}

// SetStatus updates the status indicator without touching the blocks.
func (p *Panel) SetStatus(state State, operation, message string) {
	p.Status = Status{State: state, Operation: operation, Message: message}
}

// Clone returns a deep copy.
func (p *Panel) Clone() Panel {
	out := *p
	out.Blocks = make([]Block, len(p.Blocks))
	for i, b := range p.Blocks {
		out.Blocks[i] = Block{Title: b.Title, Lines: append([]string(nil), b.Lines...)}
	}
	return out
}

// Text renders the panel as plain text.
func (p *Panel) Text() string {
	var sb strings.Builder
	for i, b := range p.Blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(b.Title)
		sb.WriteString("\n")
		for _, l := range b.Lines {
			sb.WriteString("  ")
			sb.WriteString(l)
			sb.WriteString("\n")
		}
	}
	if p.RequestID != "" {
		fmt.Fprintf(&sb, "Request ID: %s\n", p.RequestID)
	}
	switch p.Status.State {
	case StateError:
		fmt.Fprintf(&sb, "Error (%s): %s\n", p.Status.Operation, p.Status.Message)
	case StateUnavailable:
		fmt.Fprintf(&sb, "%s: %s\n", p.Status.Operation, p.Status.Message)
	}
	return sb.String()
}

// Amount formats a value to exactly two decimal places.
func Amount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
