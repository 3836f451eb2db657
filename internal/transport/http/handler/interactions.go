package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/vetgate/internal/application/verifier"
	"github.com/vetgate/internal/infrastructure/discord"
	"github.com/vetgate/internal/pkg/id"
)

// InteractionHandler receives signed webhook callbacks and feeds them to the
// verification dispatcher. The signature middleware has already validated the
// request and rewound the body by the time this handler runs.
type InteractionHandler struct {
	svc *verifier.Service
}

func NewInteractionHandler(svc *verifier.Service) *InteractionHandler {
	return &InteractionHandler{svc: svc}
}

func (h *InteractionHandler) Handle(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	in, err := discord.ParseInteraction(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed interaction")
		return
	}

	traceID := id.New()
	slog.Info("interaction received",
		"trace_id", traceID,
		"kind", in.Kind.String(),
		"command", in.CommandName,
		"custom_id", in.CustomID,
	)

	resp := h.svc.Dispatch(r.Context(), in)
	writeJSON(w, http.StatusOK, resp)
}
