package api

import (
	"context"
	"net"
	"net/http"

	"github.com/ogeth777/baseworld/canvas"
	"github.com/ogeth777/baseworld/internal/logging"

	"github.com/julienschmidt/httprouter"
)

type PaintRequest struct {
	TxHash       string `json:"txHash"`
	TileID       *int   `json:"tileId"`
	Address      string `json:"address"`
	Annotation   string `json:"annotation,omitempty"`
	CaptchaToken string `json:"captchaToken,omitempty"`
}

type ClaimRequest struct {
	Address   string `json:"address"`
	AirdropID string `json:"airdropId"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

func (s *Server) Paint(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := PaintRequest{}
	if err := unmarshalBody(r, &req); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	if req.TileID == nil {
		writeError(w, newError(CodeInvalidInput, "missing tileId field"), http.StatusBadRequest)
		return
	}
	if len(req.TxHash) <= 0 {
		writeError(w, newError(CodeInvalidInput, "missing txHash field"), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout.Get())
	defer cancel()

	err := s.engine.Paint(ctx, canvas.PaintRequest{
		PaymentRef:   req.TxHash,
		Cell:         *req.TileID,
		Actor:        req.Address,
		Annotation:   req.Annotation,
		CaptchaToken: req.CaptchaToken,
		RemoteIP:     remoteIP(r),
	})
	if err != nil {
		s.log.Debug("paint refused",
			logging.Cell(*req.TileID),
			logging.Actor(req.Address),
			logging.Error(err))
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, SuccessResponse{Success: true}, http.StatusOK)
}

func (s *Server) User(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	writeSuccess(w, s.engine.UserState(ps.ByName("address")), http.StatusOK)
}

func (s *Server) ClaimAirdrop(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := ClaimRequest{}
	if err := unmarshalBody(r, &req); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	if err := s.engine.ClaimAirdrop(req.Address, req.AirdropID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, SuccessResponse{Success: true}, http.StatusOK)
}

func (s *Server) Leaderboard(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeSuccess(w, s.engine.Leaderboard(), http.StatusOK)
}

func (s *Server) Stats(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeSuccess(w, s.engine.Stats(s.viewers.Count()), http.StatusOK)
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
