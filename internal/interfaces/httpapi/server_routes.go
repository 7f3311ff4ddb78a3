package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	registerAuthorizedDraftRoutes(mux, handler, verifier)
	registerAuthorizedMarketRoutes(mux, handler, verifier)
	registerAuthorizedTradeRoutes(mux, handler, verifier)
	registerAuthorizedLineupRoutes(mux, handler, verifier)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/tick", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunTickJob)))
	mux.Handle("POST /v1/internal/rooms/{roomID}/trades/{tradeID}/apply", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ApplyTradeJob)))
}

func registerAuthorizedDraftRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("GET /v1/rooms/{roomID}", RequireAuth(verifier, http.HandlerFunc(handler.GetRoom)))
	mux.Handle("POST /v1/rooms/{roomID}/draft/start", RequireAuth(verifier, http.HandlerFunc(handler.StartDraft)))
	mux.Handle("POST /v1/rooms/{roomID}/draft/maybe-start", RequireAuth(verifier, http.HandlerFunc(handler.MaybeStartDraft)))
	mux.Handle("POST /v1/rooms/{roomID}/draft/picks", RequireAuth(verifier, http.HandlerFunc(handler.CommitPick)))
	mux.Handle("POST /v1/rooms/{roomID}/draft/auto-pick", RequireAuth(verifier, http.HandlerFunc(handler.AutoPick)))
}

func registerAuthorizedMarketRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("GET /v1/rooms/{roomID}/market", RequireAuth(verifier, http.HandlerFunc(handler.GetMarket)))
	mux.Handle("PUT /v1/rooms/{roomID}/market/interest", RequireAuth(verifier, http.HandlerFunc(handler.SubmitInterest)))
	mux.Handle("POST /v1/rooms/{roomID}/market/resolve", RequireAuth(verifier, http.HandlerFunc(handler.ResolveMarket)))
}

func registerAuthorizedTradeRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/rooms/{roomID}/trades", RequireAuth(verifier, http.HandlerFunc(handler.ProposeTrade)))
	mux.Handle("POST /v1/rooms/{roomID}/trades/{tradeID}/respond", RequireAuth(verifier, http.HandlerFunc(handler.RespondTrade)))
	mux.Handle("POST /v1/rooms/{roomID}/trades/{tradeID}/apply", RequireAuth(verifier, http.HandlerFunc(handler.ApplyTrade)))
}

func registerAuthorizedLineupRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("GET /v1/rooms/{roomID}/roster", RequireAuth(verifier, http.HandlerFunc(handler.GetRoster)))
	mux.Handle("GET /v1/rooms/{roomID}/lineups/me", RequireAuth(verifier, http.HandlerFunc(handler.GetMyLineup)))
	mux.Handle("PUT /v1/rooms/{roomID}/lineups/me", RequireAuth(verifier, http.HandlerFunc(handler.SaveMyLineup)))
}
