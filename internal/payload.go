package internal

import (
	"encoding/json"
	"fmt"
)

// JSONPayloadDecoder decodes app payloads stored as JSON objects with a
// "kind" discriminator, e.g. {"kind":"music","track_name":"..."}
type JSONPayloadDecoder struct{}

// NewJSONPayloadDecoder creates a new JSONPayloadDecoder
func NewJSONPayloadDecoder() *JSONPayloadDecoder {
	return &JSONPayloadDecoder{}
}

// Decode implements PayloadDecoder
func (d *JSONPayloadDecoder) Decode(payload []byte) (Balloon, error) {
	if len(payload) == 0 {
		return nil, ErrNoPayload
	}

	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		return nil, &PayloadDecodeError{Err: err}
	}

	var balloon Balloon
	switch head.Kind {
	case "url":
		balloon = &URLBalloon{}
	case "music":
		balloon = &MusicBalloon{}
	case "collaboration":
		balloon = &CollaborationBalloon{}
	case "app_store":
		balloon = &AppStoreBalloon{}
	case "placemark":
		balloon = &PlacemarkBalloon{}
	case "handwriting":
		balloon = &HandwrittenBalloon{}
	case "app", "":
		balloon = &AppBalloon{}
	default:
		return nil, &PayloadDecodeError{Kind: head.Kind, Err: fmt.Errorf("unknown balloon kind")}
	}

	if err := json.Unmarshal(payload, balloon); err != nil {
		return nil, &PayloadDecodeError{Kind: balloon.BalloonKind(), Err: err}
	}
	return balloon, nil
}
