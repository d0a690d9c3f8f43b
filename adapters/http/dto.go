package http

import "encoding/json"

type verifyPinRequest struct {
	Pin string `json:"pin"`
}

type verifyPinResponse struct {
	Success    bool `json:"success"`
	RetryAfter int  `json:"retryAfter,omitempty"`
}

type saveProfileResponse struct {
	Success bool `json:"success"`
}

type profileResponse struct {
	Profile json.RawMessage `json:"profile"`
}
