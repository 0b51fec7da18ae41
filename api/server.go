// Package api is the HTTP surface of the ordering service.
package api

import (
	"context"
	"net/http"

	"fast-food-fast/logger"
	"fast-food-fast/services"
)

const (
	prefix       = "/api/v1"
	maxBodyBytes = 1 << 20
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	users  *services.Users
	menu   *services.Menu
	orders *services.Orders
	db     Pinger
	log    *logger.Logger
}

func NewServer(users *services.Users, menu *services.Menu, orders *services.Orders, db Pinger, log *logger.Logger) *Server {
	return &Server{users: users, menu: menu, orders: orders, db: db, log: log}
}

// Handler returns the routed handler wrapped in recovery and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+prefix+"/{$}", s.handleWelcome)
	mux.HandleFunc("GET "+prefix+"/health", s.handleHealth)

	mux.HandleFunc("POST "+prefix+"/auth/signup", s.handleSignup)
	mux.HandleFunc("POST "+prefix+"/auth/login", s.handleLogin)

	mux.HandleFunc("POST "+prefix+"/users/orders", s.requireAuth(s.handleCreateOrder))
	mux.HandleFunc("GET "+prefix+"/users/orders", s.requireAuth(s.handleOrderHistory))
	mux.HandleFunc("GET "+prefix+"/orders", s.requireAdmin(s.handleAllOrders))
	mux.HandleFunc("GET "+prefix+"/orders/{id}", s.requireAuth(s.handleGetOrder))
	mux.HandleFunc("PUT "+prefix+"/orders/{id}", s.requireAdmin(s.handleUpdateOrderStatus))

	mux.HandleFunc("GET "+prefix+"/menu", s.handleFoodMenu)
	mux.HandleFunc("GET "+prefix+"/menu/{id}", s.handleMenuItem)
	mux.HandleFunc("POST "+prefix+"/menu", s.requireAdmin(s.handleAddMenuItem))
	mux.HandleFunc("PUT "+prefix+"/menu/{id}", s.requireAdmin(s.handleUpdateMenuItem))
	mux.HandleFunc("DELETE "+prefix+"/menu/{id}", s.requireAdmin(s.handleDeleteMenuItem))

	return s.withRequestLog(s.withRecover(mux))
}
