package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/jkh/llm-gateway/pkg/gwerrors"
	"github.com/jkh/llm-gateway/pkg/logger"
)

// dialect selects which error envelope shape a handler's failure path
// must answer with — the two inbound wire dialects disagree on the shape
// of an error body.
type dialect int

const (
	dialectAnthropic dialect = iota
	dialectOpenAI
)

// writeError translates err into the right HTTP status and envelope for
// d — the only place in the gateway that maps a gwerrors.Kind to an HTTP
// status and error envelope.
func writeError(w http.ResponseWriter, r *http.Request, d dialect, err error) {
	ge, ok := gwerrors.As(err)
	if !ok {
		ge = &gwerrors.Error{Kind: gwerrors.KindInternal, Message: "internal error"}
	}
	status := ge.HTTPStatus()

	if ge.Kind == gwerrors.KindInternal {
		logger.G(r.Context()).WithError(err).Error("gateway: internal error")
	} else {
		logger.G(r.Context()).WithError(err).WithField("status", status).Warn("gateway: request failed")
	}

	message := ge.Message
	if ge.Kind == gwerrors.KindInternal {
		message = "internal error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	switch d {
	case dialectAnthropic:
		json.NewEncoder(w).Encode(anthropicErrorEnvelope{
			Type: "error",
			Error: anthropicErrorBody{
				Type:    anthropicErrorType(ge.Kind),
				Message: message,
			},
		})
	default:
		json.NewEncoder(w).Encode(openAIErrorEnvelope{
			Error: openAIErrorBody{
				Message: message,
				Type:    openAIErrorType(ge.Kind),
				Code:    status,
			},
		})
	}
}

type anthropicErrorEnvelope struct {
	Type  string             `json:"type"`
	Error anthropicErrorBody `json:"error"`
}

type anthropicErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type openAIErrorEnvelope struct {
	Error openAIErrorBody `json:"error"`
}

type openAIErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

func anthropicErrorType(k gwerrors.Kind) string {
	switch k {
	case gwerrors.KindAuthAbsent, gwerrors.KindAuthExpired:
		return "authentication_error"
	case gwerrors.KindClientMalformed:
		return "invalid_request_error"
	case gwerrors.KindUpstreamStatus, gwerrors.KindUpstreamTransport, gwerrors.KindMalformedUpstream:
		return "api_error"
	default:
		return "internal_error"
	}
}

func openAIErrorType(k gwerrors.Kind) string {
	switch k {
	case gwerrors.KindAuthAbsent, gwerrors.KindAuthExpired:
		return "authentication_error"
	case gwerrors.KindClientMalformed:
		return "invalid_request_error"
	default:
		return "internal_error"
	}
}
