/*
Package api
File: handlers.go
Description:
    Contains the HTTP handlers for the REST API.
    These functions decode JSON requests, validate them, drive the game
    session (imported from internal/session), and return JSON responses.

    Key Responsibilities:
    - Input Validation (Is the JSON valid? Does the producer exist?)
    - State Modification (Taps, purchases, resets through the session)
    - Event Fan-out (Purchases and resets are broadcast through the Hub)
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/everforgeworks/tap-the-cap/internal/game"
	"github.com/everforgeworks/tap-the-cap/internal/logger"
	"github.com/everforgeworks/tap-the-cap/internal/session"
)

// Request DTOs (Data Transfer Objects)
// These structs define exactly what we expect the client to send us.

type BuyRequest struct {
	ProducerID string `json:"producer_id"`
}

type ResetRequest struct {
	Confirm bool `json:"confirm"`
}

// PurchaseEvent is broadcast after a successful purchase.
type PurchaseEvent struct {
	ProducerID string        `json:"producer_id"`
	Owned      int           `json:"owned"`
	State      session.State `json:"state"`
}

// Server binds the handlers to one session and hub.
type Server struct {
	session *session.Session
	hub     *Hub
	log     *zap.Logger
}

// NewServer creates the API and hooks the hub's connect and message callbacks.
func NewServer(s *session.Session, hub *Hub, log *zap.Logger) *Server {
	srv := &Server{session: s, hub: hub, log: logger.OrNop(log)}
	hub.OnConnect = srv.greet
	hub.OnMessage = srv.handleSocketMessage
	return srv
}

// Routes registers every endpoint on a new mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Information Endpoints
	mux.HandleFunc("GET /api/state", s.HandleGetState)
	mux.HandleFunc("GET /api/shop", s.HandleGetShop)
	mux.HandleFunc("GET /api/layout", s.HandleGetLayout)
	mux.HandleFunc("GET /api/offline", s.HandleGetOffline)

	// Action Endpoints
	mux.HandleFunc("POST /api/tap", s.HandleTap)
	mux.HandleFunc("POST /api/shop/buy", s.HandleBuy)
	mux.HandleFunc("POST /api/reset", s.HandleReset)

	// Real-Time WebSocket Endpoint
	mux.HandleFunc("GET /ws", s.hub.ServeWs)
	return mux
}

// HandleGetState returns balance, production, owned counts and heat.
func (s *Server) HandleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.session.State())
}

// HandleGetShop returns the catalog with ownership and affordability.
func (s *Server) HandleGetShop(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.session.Shop())
}

// HandleGetLayout returns ring capacities and the orbiting markers.
func (s *Server) HandleGetLayout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.session.Layout())
}

// HandleGetOffline returns the welcome-back notice once, then 204.
func (s *Server) HandleGetOffline(w http.ResponseWriter, r *http.Request) {
	notice := s.session.TakeOfflineNotice()
	if notice == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, notice)
}

// HandleTap credits one tap.
func (s *Server) HandleTap(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.session.Tap())
}

// HandleBuy purchases one unit of a producer.
func (s *Server) HandleBuy(w http.ResponseWriter, r *http.Request) {
	var req BuyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	// 1. Attempt the purchase
	res, err := s.session.Purchase(r.Context(), req.ProducerID)
	if errors.Is(err, game.ErrUnknownProducer) {
		http.Error(w, "Producer not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("purchase failed", zap.String("producer", req.ProducerID), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if res == game.PurchaseInsufficientFunds {
		http.Error(w, "Insufficient Currency", http.StatusPaymentRequired)
		return
	}

	// 2. Tell every client
	state := s.session.State()
	event := PurchaseEvent{ProducerID: req.ProducerID, State: state}
	for _, o := range state.Owned {
		if o.ProducerTypeID == req.ProducerID {
			event.Owned = o.Count
		}
	}
	s.hub.Publish(EventPurchase, event)

	writeJSON(w, state)
}

// HandleReset wipes progress. The request must carry confirm=true.
func (s *Server) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if !req.Confirm {
		http.Error(w, "Reset not confirmed", http.StatusBadRequest)
		return
	}

	if err := s.session.Reset(r.Context()); err != nil {
		// The in-memory reset happened; only the save failed
		s.log.Warn("save after reset failed", zap.Error(err))
	}

	state := s.session.State()
	s.hub.Publish(EventReset, state)
	writeJSON(w, state)
}

// greet sends a new socket the current state and any pending notice.
func (s *Server) greet(c *Client) {
	c.Send(EventStatePulse, s.session.State())
	if notice := s.session.TakeOfflineNotice(); notice != nil {
		c.Send(EventOfflineEarning, notice)
	}
}

// handleSocketMessage accepts taps over the socket; they show up in the next pulse.
func (s *Server) handleSocketMessage(c *Client, msgType string) {
	switch msgType {
	case EventTap:
		s.session.Tap()
	default:
		s.log.Debug("ignoring client message", zap.String("client_id", c.ID), zap.String("type", msgType))
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
