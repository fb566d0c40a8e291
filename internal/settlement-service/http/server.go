package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/radieske/dice-settlement/internal/dice"
	"github.com/radieske/dice-settlement/internal/ledger"
	"github.com/radieske/dice-settlement/internal/settlement"
	"github.com/radieske/dice-settlement/internal/settlement-service/dto"
	"github.com/radieske/dice-settlement/internal/settlement-service/receipts"
	"github.com/radieske/dice-settlement/internal/settlement-service/ws"
)

// Settler é o lado do Executor usado pelos handlers
type Settler interface {
	Settle(ctx context.Context, req settlement.SettleRequest) (*settlement.Receipt, error)
	Refund(ctx context.Context, req settlement.RefundRequest) (*settlement.Receipt, error)
}

// ReceiptReader consulta recibos já emitidos
type ReceiptReader interface {
	Get(ctx context.Context, bet dice.Pubkey) (*settlement.Receipt, error)
	ListByPlayer(ctx context.Context, player dice.Pubkey, limit int) ([]settlement.Receipt, error)
}

// API expõe os endpoints REST da liquidação e o feed WebSocket
type API struct {
	Log      *zap.Logger
	Settler  Settler
	Ledger   ledger.Store  // leitura de registros abertos
	Receipts ReceiptReader // recibos (Redis)
	Hub      *ws.Hub       // opcional
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)

	r.Post("/v1/bets/{address}/settle", a.settle)
	r.Post("/v1/bets/{address}/refund", a.refund)
	r.Get("/v1/bets/{address}", a.getBet)
	r.Get("/v1/bets/{address}/receipt", a.getReceipt)
	r.Get("/v1/players/{address}/receipts", a.listByPlayer)
	// ?signature=<base64>[&roll=&amount=]
	r.Get("/v1/outcomes", a.replayOutcome)
	if a.Hub != nil {
		r.Get("/ws", a.Hub.HandleWS)
	}
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor traduz o erro de domínio para o status HTTP
func statusFor(err error) int {
	if errors.Is(err, dice.ErrBetNotFound) || errors.Is(err, receipts.ErrNotFound) {
		return http.StatusNotFound
	}
	switch dice.KindOf(err) {
	case dice.KindInput:
		return http.StatusBadRequest
	case dice.KindAuth:
		return http.StatusUnprocessableEntity
	case dice.KindFunds, dice.KindState:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.Log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
	}
	writeJSON(w, status, dto.ErrorResponse{
		Error: err.Error(),
		Code:  dice.CodeOf(err),
		Kind:  string(dice.KindOf(err)),
	})
}

func pubkeyParam(r *http.Request, name string) (dice.Pubkey, error) {
	return dice.ParsePubkey(chi.URLParam(r, name))
}

// settle liquida a aposta
func (a *API) settle(w http.ResponseWriter, r *http.Request) {
	bet, err := pubkeyParam(r, "address")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var body dto.SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	house, err := dice.ParsePubkey(body.House)
	if err != nil {
		a.fail(w, r, errors.Wrap(err, "house"))
		return
	}
	ix, err := settlement.ParseInstruction(body.VerifyInstruction)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	rec, err := a.Settler.Settle(r.Context(), settlement.SettleRequest{
		Bet: bet, House: house, Signature: body.Signature, Verification: ix,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// refund devolve o valor apostado depois do timeout
func (a *API) refund(w http.ResponseWriter, r *http.Request) {
	bet, err := pubkeyParam(r, "address")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var body dto.RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	house, err := dice.ParsePubkey(body.House)
	if err != nil {
		a.fail(w, r, errors.Wrap(err, "house"))
		return
	}
	player, err := dice.ParsePubkey(body.Player)
	if err != nil {
		a.fail(w, r, errors.Wrap(err, "player"))
		return
	}

	rec, err := a.Settler.Refund(r.Context(), settlement.RefundRequest{Bet: bet, House: house, Player: player})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) getBet(w http.ResponseWriter, r *http.Request) {
	addr, err := pubkeyParam(r, "address")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	bet, err := ledger.LookupBet(r.Context(), a.Ledger, addr)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.BetResponse{Address: addr.String(), Bet: *bet})
}

func (a *API) getReceipt(w http.ResponseWriter, r *http.Request) {
	addr, err := pubkeyParam(r, "address")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	rec, err := a.Receipts.Get(r.Context(), addr)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) listByPlayer(w http.ResponseWriter, r *http.Request) {
	player, err := pubkeyParam(r, "address")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := a.Receipts.ListByPlayer(r.Context(), player, limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// replayOutcome recalcula o resultado de uma assinatura já publicada
func (a *API) replayOutcome(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sig, err := base64.StdEncoding.DecodeString(q.Get("signature"))
	if err != nil || len(sig) != dice.SignatureSize {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "signature must be 64 base64-encoded bytes"})
		return
	}

	resp := dto.OutcomeResponse{Outcome: dice.DeriveOutcome(sig), HouseEdgeBps: dice.HouseEdgeBps}
	if q.Get("roll") != "" {
		roll, err := strconv.ParseUint(q.Get("roll"), 10, 8)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid roll"})
			return
		}
		var amount uint64
		if v := q.Get("amount"); v != "" {
			if amount, err = strconv.ParseUint(v, 10, 64); err != nil {
				writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid amount"})
				return
			}
		}
		bet := dice.Bet{Roll: uint8(roll), Amount: amount}
		if err := bet.Validate(); err != nil && !errors.Is(err, dice.ErrInvalidAmount) {
			a.fail(w, r, err)
			return
		}
		win := dice.IsWin(&bet, resp.Outcome)
		resp.Roll, resp.Win = bet.Roll, &win
		if resp.Payout, err = dice.ComputePayout(&bet, resp.Outcome); err != nil {
			a.fail(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
