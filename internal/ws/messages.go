package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pion/webrtc/v4"
)

// Message types on the wire.
const (
	TypeJoin         = "join"
	TypeLeave        = "leave"
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeICECandidate = "ice-candidate"
	TypeError        = "error"
)

// Reason codes carried by error frames.
const (
	ReasonRoomNotFound = "room-not-found"
	ReasonInvalidName  = "invalid-name"
	ReasonMalformed    = "malformed-message"
	ReasonInternal     = "internal-error"
)

var ErrMalformedMessage = errors.New("malformed message")

// Envelope is the discriminator every frame must carry.
type Envelope struct {
	Type string `json:"type"`
}

// ──────────────────────────── Client → server ─────────────────────────────

type JoinRequest struct {
	Name string `json:"name"`
}

type LeaveRequest struct{}

// ──────────────────────────── Relayed verbatim ────────────────────────────

type OfferMessage struct {
	Offer *webrtc.SessionDescription `json:"offer" validate:"required"`
}

type AnswerMessage struct {
	Answer *webrtc.SessionDescription `json:"answer" validate:"required"`
}

type ICECandidateMessage struct {
	Candidate *webrtc.ICECandidateInit `json:"candidate" validate:"required"`
}

// ──────────────────────────── Server → client ─────────────────────────────

type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func decodeEnvelope(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	return env, nil
}
