package types

// SetKeyRequest is the payload for POST /fal-api/set-key.
type SetKeyRequest struct {
	// The API key to activate. Required. The raw value is never echoed
	// back in any response.
	// example: fal-xxxxxxxxxxxxxxxx
	Key string `json:"key" example:"fal-xxxxxxxxxxxxxxxx"`
	// Optional display name for the key.
	// example: personal
	Name string `json:"name,omitempty" example:"personal"`
}

// SetKeyResponse confirms a successful key switch.
type SetKeyResponse struct {
	// Always "ok" on success.
	// example: ok
	Status string `json:"status" example:"ok"`
	// Display name of the now-active key.
	// example: personal
	ActiveKeyName string `json:"active_key_name" example:"personal"`
}

// KeyInfoResponse is returned by GET /fal-api/active-key-info.
type KeyInfoResponse struct {
	// Display name of the active key; never the key itself.
	// example: config.ini / env
	ActiveKeyName string `json:"active_key_name" example:"config.ini / env"`
}

// KeyStatusEvent is broadcast to observers whenever a node announces
// the currently active credential.
type KeyStatusEvent struct {
	ActiveKeyName string `json:"active_key_name"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: no key provided
	Error string `json:"error" example:"no key provided"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// NodesResponse wraps the node descriptor listing returned by GET /nodes.
type NodesResponse struct {
	Nodes []NodeDescriptor `json:"nodes"`
}
