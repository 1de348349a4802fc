package fakeapi

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// Record mirrors the backend model. CreatedAt is a field the client does not
// model and must carry through writes untouched.
type Record struct {
	ProductID int     `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	CreatedAt string  `json:"createdAt"`
}

// Seed stores products directly and returns their ids.
func (s *Server) Seed(items ...Record) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(items))
	for _, it := range items {
		it.ProductID = s.nextID
		if it.CreatedAt == "" {
			it.CreatedAt = time.Now().UTC().Format(time.RFC3339)
		}
		s.nextID++
		r := it
		s.products[r.ProductID] = &r
		ids = append(ids, r.ProductID)
	}
	return ids
}

// NewRecord builds an unsaved record for Seed.
func NewRecord(name string, price float64, quantity int) Record {
	return Record{Name: name, Price: price, Quantity: quantity}
}

// Stored returns a copy of the stored record with id.
func (s *Server) Stored(id int) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.products[id]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

func (s *Server) listProducts(c echo.Context) error {
	s.mu.Lock()
	out := make([]Record, 0, len(s.products))
	for _, r := range s.products {
		out = append(out, *r)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getProduct(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	r, ok := s.Stored(id)
	if !ok {
		return errNotFound
	}
	return c.JSON(http.StatusOK, r)
}

func (s *Server) createProduct(c echo.Context) error {
	var req Record
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if req.Name == "" || req.Price < 0 || req.Quantity < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product")
	}
	if s.rejectCreate != nil && s.rejectCreate(req.Name, req.Price, req.Quantity) {
		return echo.NewHTTPError(http.StatusBadRequest, "rejected")
	}
	ids := s.Seed(req)
	r, _ := s.Stored(ids[0])
	return c.JSON(http.StatusCreated, r)
}

func (s *Server) updateProduct(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req Record
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if req.ProductID != id {
		return echo.NewHTTPError(http.StatusBadRequest, "id mismatch")
	}

	s.mu.Lock()
	current, ok := s.products[id]
	if ok {
		*current = req
	}
	s.mu.Unlock()
	if !ok {
		return errNotFound
	}

	if s.emptyWrites {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, req)
}

func (s *Server) deleteProduct(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	_, ok := s.products[id]
	delete(s.products, id)
	s.mu.Unlock()
	if !ok {
		return errNotFound
	}
	return c.NoContent(http.StatusNoContent)
}

func pathID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}
