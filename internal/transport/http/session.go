package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/fleshka4/swap-widget/internal/apperrors"
	"github.com/fleshka4/swap-widget/internal/service/dto"
	httpdto "github.com/fleshka4/swap-widget/internal/transport/http/dto"
	"github.com/fleshka4/swap-widget/internal/transport/http/validate"
)

func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.requestTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), s.requestTimeout)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	s.writeJSON(w, http.StatusOK, s.svc.View(ctx))
}

func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	s.writeJSON(w, http.StatusOK, s.svc.Tokens(ctx))
}

func (s *Server) handleSetTokens(w http.ResponseWriter, r *http.Request) {
	req, code, err := validate.TokensRequestValidate(r)
	if err != nil {
		s.writeError(w, code, err)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()

	view, err := s.svc.SetTokens(ctx, dto.TokensRequest{
		TokenIn:  req.TokenIn,
		TokenOut: req.TokenOut,
	})
	s.respond(w, view, err)
}

func (s *Server) handleSwitchTokens(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	s.writeJSON(w, http.StatusOK, s.svc.SwitchTokens(ctx))
}

func (s *Server) handleSetAmount(w http.ResponseWriter, r *http.Request) {
	req, code, err := validate.AmountRequestValidate(r)
	if err != nil {
		s.writeError(w, code, err)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()

	view, ok := s.svc.SetAmount(ctx, req.Amount)
	if !ok {
		s.writeError(w, http.StatusBadRequest, errors.Errorf("amount %q ignored", req.Amount))
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	req, code, err := validate.SettingsRequestValidate(r)
	if err != nil {
		s.writeError(w, code, err)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()

	view, err := s.svc.UpdateSettings(ctx, dto.SettingsRequest{
		SlippageBps:     req.SlippageBps,
		DeadlineMinutes: req.DeadlineMinutes,
		ExcludedSources: req.ExcludedSources,
		SetExcluded:     req.SetExcluded,
	})
	s.respond(w, view, err)
}

func (s *Server) handleRefreshQuote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	view, err := s.svc.RefreshQuote(ctx)
	s.respond(w, view, err)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	view, err := s.svc.Approve(ctx)
	s.respond(w, view, err)
}

func (s *Server) handleConfirmSwap(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	view, err := s.svc.ConfirmSwap(ctx)
	s.respond(w, view, err)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	s.writeJSON(w, http.StatusOK, s.svc.Dismiss(ctx))
}

func (s *Server) respond(w http.ResponseWriter, view dto.SessionView, err error) {
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrInvalidState),
		errors.Is(err, apperrors.ErrTxInProgress),
		errors.Is(err, apperrors.ErrNoTrade),
		errors.Is(err, apperrors.ErrUnsupportedNetwork):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrAggregator), errors.Is(err, apperrors.ErrTokenNotFound):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, err error) {
	msg := err.Error()
	if code == http.StatusInternalServerError {
		s.logger.WithError(err).Error("request failed")
		msg = "internal error"
	}
	s.writeJSON(w, code, httpdto.ErrorResponse{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Warn("response write error")
	}
}
