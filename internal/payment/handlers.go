package payment

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shufflecase/shufflecase-api/internal/common"
)

// Handler exposes the token issuance endpoint.
type Handler struct {
	Svc *Service
}

// Token issues a payment iframe token for a pending order. The buyer IP is
// attached server-side from the connection when the body does not carry one.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeConfig, "payment handler unavailable", nil)
		return
	}
	var in TokenInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid body", nil)
		return
	}
	if strings.TrimSpace(in.UserIP) == "" {
		in.UserIP = common.ClientIP(r)
	}
	res, err := h.Svc.CreateToken(r.Context(), in)
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, res)
}
