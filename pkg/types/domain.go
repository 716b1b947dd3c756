package types

// NodeDescriptor describes one node exposed to the host graph editor.
// Descriptors are pure metadata; execution goes through the node's
// registered handler.
type NodeDescriptor struct {
	// Stable identifier used by saved workflows.
	// example: FluxTextToImage
	ID string `json:"id" example:"FluxTextToImage"`
	// Human-friendly name shown in the editor.
	// example: Flux Text to Image
	DisplayName string `json:"display_name" example:"Flux Text to Image"`
	// Menu category.
	// example: FAL/Image
	Category string `json:"category" example:"FAL/Image"`
	// Declared inputs in display order.
	Inputs []NodeInput `json:"inputs"`
	// Declared output names in position order.
	Outputs []string `json:"outputs"`
}

// NodeInput declares one node input slot.
type NodeInput struct {
	// Input name, also the key in the handler's argument bag.
	// example: prompt
	Name string `json:"name" example:"prompt"`
	// Host-side type tag (STRING, NUMBER, IMAGE, ...).
	// example: STRING
	Type string `json:"type" example:"STRING"`
	// Whether the editor requires a value before queueing.
	// example: true
	Required bool `json:"required,omitempty" example:"true"`
	// Optional default shown in the editor.
	Default any `json:"default,omitempty"`
}
