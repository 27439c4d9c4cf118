// Package rest exposes the matching core over HTTP, in the teacher's
// chi + RFC-7807 handler style.
package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"

	"matchcore/internal/engine"
	"matchcore/internal/marketdata"
)

// Router exposes the matching core over HTTP. It holds no state of its
// own: every request is turned into an engine.Command and submitted to
// the single engine goroutine.
type Router struct {
	eng *engine.Engine
	bbo map[engine.Id64]*marketdata.Hub
	mux *chi.Mux
}

// NewRouter builds the chi router for eng. bbo supplies the market-data
// hub for each market id that has one (spec.md §4.10); a market with no
// hub simply has no /bbo/stream endpoint.
func NewRouter(eng *engine.Engine, bbo map[engine.Id64]*marketdata.Hub) http.Handler {
	rt := &Router{eng: eng, bbo: bbo, mux: chi.NewRouter()}

	rt.mux.Use(middleware.RequestID)
	rt.mux.Use(middleware.RealIP)
	rt.mux.Use(middleware.Logger)
	rt.mux.Use(middleware.Recoverer)
	rt.mux.Use(middleware.Timeout(3 * time.Second))
	rt.mux.Use(cors.Default().Handler)

	rt.mux.Post("/markets", rt.createMarket)
	rt.mux.Patch("/markets/{id}", rt.updateMarket)
	rt.mux.Get("/markets/{id}/bbo", rt.getBBO)
	rt.mux.Get("/markets/{id}/bbo/stream", rt.streamBBO)

	rt.mux.Post("/accnts/{accnt}/orders", rt.createOrder)
	rt.mux.Patch("/accnts/{accnt}/orders/{id}", rt.reviseOrder)
	rt.mux.Delete("/accnts/{accnt}/orders/{id}", rt.cancelOrder)
	rt.mux.Post("/accnts/{accnt}/trades", rt.createTrade)
	rt.mux.Delete("/accnts/{accnt}/trades/{id}", rt.archiveTrade)
	rt.mux.Get("/accnts/{accnt}", rt.getAccnt)

	return rt.mux
}

// writeProblem renders err (or an explicit title/detail) as an RFC 7807
// problem+json response, the teacher's pattern generalized to map every
// engine.Kind to its prescribed HTTP status (spec.md §7).
func writeProblem(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	title := "internal_error"
	detail := err.Error()

	if e, ok := engine.AsError(err); ok {
		title = e.Kind.String()
		detail = e.Msg
		switch e.Kind {
		case engine.InvalidArgument:
			status = http.StatusBadRequest
		case engine.RefAlreadyExists, engine.AlreadyExists:
			status = http.StatusConflict
		case engine.MarketNotFound, engine.InstrumentNotFound, engine.TradeNotFound, engine.OrderNotFound:
			status = http.StatusNotFound
		case engine.MarketClosed, engine.TooLate:
			status = http.StatusGone
		case engine.Unauthorized:
			status = http.StatusUnauthorized
		case engine.Forbidden:
			status = http.StatusForbidden
		case engine.JournalFailure:
			status = http.StatusServiceUnavailable
		}
	}

	reqID := middleware.GetReqID(r.Context())
	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("X-Request-ID", reqID)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"title":      title,
		"status":     status,
		"detail":     detail,
		"instance":   r.URL.Path,
		"request_id": reqID,
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", middleware.GetReqID(r.Context()))
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func parseId64(s string) (engine.Id64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return engine.Id64(v), nil
}

func nowMillis() engine.Time {
	return engine.Time(time.Now().UnixMilli())
}

// idempotencyRef returns ref unchanged if the client supplied one. With
// none, it falls back to the request's Idempotency-Key header, and
// failing that mints a fresh uuid — every order and manual trade ends up
// with a ref. A retried order with the same header is rejected with
// RefAlreadyExists only while the first order is still live; a retried
// manual trade is not checked and books again.
func idempotencyRef(r *http.Request, ref string) string {
	if ref != "" {
		return ref
	}
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		return key
	}
	return uuid.New().String()
}

func (rt *Router) submit(r *http.Request, cmd engine.Command) (engine.CommandResult, bool) {
	cmd.Resp = make(chan engine.CommandResult, 1)
	cmd.Now = nowMillis()
	res, err := rt.eng.Submit(r.Context(), cmd)
	if err != nil {
		return engine.CommandResult{}, false
	}
	return res, true
}

func (rt *Router) createMarket(w http.ResponseWriter, r *http.Request) {
	var req createMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, r, engine.AsErrorOrWrap(err, engine.InvalidArgument))
		return
	}
	instr, err := rt.eng.Serv().Instr(req.Instr)
	if err != nil {
		writeProblem(w, r, err)
		return
	}
	res, ok := rt.submit(r, engine.Command{
		Type:     engine.CmdCreateMarket,
		Instr:    instr,
		SettlDay: engine.JulianDay(req.SettlDay),
		State:    req.State,
	})
	if !ok {
		writeProblem(w, r, context.DeadlineExceeded)
		return
	}
	if res.Err != nil {
		writeProblem(w, r, res.Err)
		return
	}
	writeJSON(w, r, http.StatusCreated, map[string]any{"id": res.Market.Id()})
}

func (rt *Router) updateMarket(w http.ResponseWriter, r *http.Request) {
	id, err := parseId64(chi.URLParam(r, "id"))
	if err != nil {
		writeProblem(w, r, engine.AsErrorOrWrap(err, engine.InvalidArgument))
		return
	}
	var req updateMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, r, engine.AsErrorOrWrap(err, engine.InvalidArgument))
		return
	}
	res, ok := rt.submit(r, engine.Command{Type: engine.CmdUpdateMarket, MarketId: id, State: req.State})
	if !ok {
		writeProblem(w, r, context.DeadlineExceeded)
		return
	}
	if res.Err != nil {
		writeProblem(w, r, res.Err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"id": id, "state": req.State})
}

func (rt *Router) getBBO(w http.ResponseWriter, r *http.Request) {
	id, err := parseId64(chi.URLParam(r, "id"))
	if err != nil {
		writeProblem(w, r, engine.AsErrorOrWrap(err, engine.InvalidArgument))
		return
	}
	res, ok := rt.submit(r, engine.Command{Type: engine.CmdQueryBBO, MarketId: id})
	if !ok {
		writeProblem(w, r, context.DeadlineExceeded)
		return
	}
	if res.Err != nil {
		writeProblem(w, r, res.Err)
		return
	}
	snap := marketdata.BBO{MarketId: id}
	if res.BBO.HasBid {
		snap.BidTicks, snap.BidLots = res.BBO.BidTicks, res.BBO.BidLots
	}
	if res.BBO.HasOffer {
		snap.OfferTicks, snap.OfferLots = res.BBO.OfferTicks, res.BBO.OfferLots
	}
	writeJSON(w, r, http.StatusOK, snap)
}

func (rt *Router) streamBBO(w http.ResponseWriter, r *http.Request) {
	id, err := parseId64(chi.URLParam(r, "id"))
	if err != nil {
		writeProblem(w, r, engine.AsErrorOrWrap(err, engine.InvalidArgument))
		return
	}
	hub, ok := rt.bbo[id]
	if !ok {
		writeProblem(w, r, engine.NewNotFound(engine.MarketNotFound, "no market-data hub for this market"))
		return
	}
	hub.ServeHTTP(w, r)
}

func (rt *Router) createOrder(w http.ResponseWriter, r *http.Request) {
	accnt := chi.URLParam(r, "accnt")
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, r, engine.AsErrorOrWrap(err, engine.InvalidArgument))
		return
	}
	side, err := engine.ParseSide(req.Side)
	if err != nil {
		writeProblem(w, r, err)
		return
	}
	marketId, err := marketIdFromQuery(r)
	if err != nil {
		writeProblem(w, r, err)
		return
	}
	ref := idempotencyRef(r, req.Ref)
	res, ok := rt.submit(r, engine.Command{
		Type:     engine.CmdCreateOrder,
		Accnt:    accnt,
		MarketId: marketId,
		Ref:      ref,
		Side:     side,
		Lots:     engine.Lots(req.Lots),
		Ticks:    engine.Ticks(req.Ticks),
		MinLots:  engine.Lots(req.MinLots),
	})
	if !ok {
		writeProblem(w, r, context.DeadlineExceeded)
		return
	}
	if res.Err != nil {
		writeProblem(w, r, res.Err)
		return
	}
	writeJSON(w, r, http.StatusCreated, responseToJSON(res.Response))
}

func (rt *Router) reviseOrder(w http.ResponseWriter, r *http.Request) {
	accnt := chi.URLParam(r, "accnt")
	id, err := parseId64(chi.URLParam(r, "id"))
	if err != nil {
		writeProblem(w, r, engine.AsErrorOrWrap(err, engine.InvalidArgument))
		return
	}
	var req reviseOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, r, engine.AsErrorOrWrap(err, engine.InvalidArgument))
		return
	}
	marketId, err := marketIdFromQuery(r)
	if err != nil {
		writeProblem(w, r, err)
		return
	}
	res, ok := rt.submit(r, engine.Command{
		Type: engine.CmdReviseOrder, Accnt: accnt, MarketId: marketId, OrderId: id, Lots: engine.Lots(req.Lots),
	})
	if !ok {
		writeProblem(w, r, context.DeadlineExceeded)
		return
	}
	if res.Err != nil {
		writeProblem(w, r, res.Err)
		return
	}
	writeJSON(w, r, http.StatusOK, responseToJSON(res.Response))
}

func (rt *Router) cancelOrder(w http.ResponseWriter, r *http.Request) {
	accnt := chi.URLParam(r, "accnt")
	id, err := parseId64(chi.URLParam(r, "id"))
	if err != nil {
		writeProblem(w, r, engine.AsErrorOrWrap(err, engine.InvalidArgument))
		return
	}
	marketId, err := marketIdFromQuery(r)
	if err != nil {
		writeProblem(w, r, err)
		return
	}
	res, ok := rt.submit(r, engine.Command{Type: engine.CmdCancelOrder, Accnt: accnt, MarketId: marketId, OrderId: id})
	if !ok {
		writeProblem(w, r, context.DeadlineExceeded)
		return
	}
	if res.Err != nil {
		writeProblem(w, r, res.Err)
		return
	}
	writeJSON(w, r, http.StatusOK, responseToJSON(res.Response))
}

func (rt *Router) createTrade(w http.ResponseWriter, r *http.Request) {
	accnt := chi.URLParam(r, "accnt")
	var req createTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, r, engine.AsErrorOrWrap(err, engine.InvalidArgument))
		return
	}
	side, err := engine.ParseSide(req.Side)
	if err != nil {
		writeProblem(w, r, err)
		return
	}
	marketId, err := marketIdFromQuery(r)
	if err != nil {
		writeProblem(w, r, err)
		return
	}
	res, ok := rt.submit(r, engine.Command{
		Type: engine.CmdCreateTrade, Accnt: accnt, MarketId: marketId, Ref: idempotencyRef(r, req.Ref), Side: side,
		Lots: engine.Lots(req.Lots), Ticks: engine.Ticks(req.Ticks), LiqInd: parseLiqInd(req.LiqInd), Cpty: req.Cpty,
	})
	if !ok {
		writeProblem(w, r, context.DeadlineExceeded)
		return
	}
	if res.Err != nil {
		writeProblem(w, r, res.Err)
		return
	}
	out := map[string]any{"trade": res.TradePair.Trade.ToJSON()}
	if res.TradePair.Opposite != nil {
		out["opposite"] = res.TradePair.Opposite.ToJSON()
	}
	writeJSON(w, r, http.StatusCreated, out)
}

func (rt *Router) archiveTrade(w http.ResponseWriter, r *http.Request) {
	accnt := chi.URLParam(r, "accnt")
	id, err := parseId64(chi.URLParam(r, "id"))
	if err != nil {
		writeProblem(w, r, engine.AsErrorOrWrap(err, engine.InvalidArgument))
		return
	}
	marketId, err := marketIdFromQuery(r)
	if err != nil {
		writeProblem(w, r, err)
		return
	}
	res, ok := rt.submit(r, engine.Command{Type: engine.CmdArchiveTrade, Accnt: accnt, MarketId: marketId, OrderId: id})
	if !ok {
		writeProblem(w, r, context.DeadlineExceeded)
		return
	}
	if res.Err != nil {
		writeProblem(w, r, res.Err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) getAccnt(w http.ResponseWriter, r *http.Request) {
	accnt := chi.URLParam(r, "accnt")
	res, ok := rt.submit(r, engine.Command{Type: engine.CmdQueryAccnt, Accnt: accnt})
	if !ok {
		writeProblem(w, r, context.DeadlineExceeded)
		return
	}
	writeJSON(w, r, http.StatusOK, accntSnapshot{
		Orders: res.Accnt.Orders,
		Execs:  res.Accnt.Execs,
		Trades: res.Accnt.Trades,
		Posns:  res.Accnt.Posns,
	})
}

func marketIdFromQuery(r *http.Request) (engine.Id64, error) {
	s := r.URL.Query().Get("market_id")
	if s == "" {
		return 0, engine.NewInvalidArgument("market_id query parameter is required")
	}
	return parseId64(s)
}

func responseToJSON(resp *engine.Response) map[string]any {
	if resp == nil {
		return map[string]any{}
	}
	orders := make([]engine.OrderJSON, 0, len(resp.Orders()))
	for _, o := range resp.Orders() {
		orders = append(orders, o.ToJSON())
	}
	execs := make([]engine.ExecJSON, 0, len(resp.Execs()))
	for _, e := range resp.Execs() {
		execs = append(execs, e.ToJSON())
	}
	out := map[string]any{"orders": orders, "execs": execs}
	if resp.Posn() != nil {
		out["posn"] = resp.Posn()
	}
	return out
}
