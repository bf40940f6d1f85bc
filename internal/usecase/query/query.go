package query

import (
	"time"

	orderbookv1 "github.com/muhammadchandra19/datafeed/internal/domain/orderbook/v1"
)

// TopOfBookReader is the read side of the matching engine.
type TopOfBookReader interface {
	TopOfBook(instrument string) orderbookv1.TopOfBook
}

// Quote is one side of the top of book as served to clients.
type Quote struct {
	Price float64 `json:"price"`
	Size  int64   `json:"size"`
}

// Response is the body of a top of book query.
type Response struct {
	Stock     *string `json:"stock"`
	Timestamp string  `json:"timestamp"`
	TopBid    *Quote  `json:"top_bid"`
	TopAsk    *Quote  `json:"top_ask"`
}

// Service answers top of book queries.
type Service struct {
	books TopOfBookReader
	now   func() time.Time
}

// NewService creates a query service reading from books.
func NewService(books TopOfBookReader) *Service {
	return &Service{
		books: books,
		now:   time.Now,
	}
}

// TopOfBook answers a query for symbol. An empty symbol yields a null stock
// and no quotes; an unknown one is echoed back with no quotes.
func (s *Service) TopOfBook(symbol string) Response {
	resp := Response{
		Timestamp: s.now().Format(time.RFC3339Nano),
	}
	if symbol == "" {
		return resp
	}

	resp.Stock = &symbol
	top := s.books.TopOfBook(symbol)
	resp.TopBid = toQuote(top.Bid)
	resp.TopAsk = toQuote(top.Ask)
	return resp
}

func toQuote(q *orderbookv1.Quote) *Quote {
	if q == nil {
		return nil
	}
	return &Quote{
		Price: q.Price.InexactFloat64(),
		Size:  q.Size,
	}
}

// Equal reports whether two responses carry the same stock and quotes, ignoring the timestamp.
func (r Response) Equal(other Response) bool {
	if (r.Stock == nil) != (other.Stock == nil) {
		return false
	}
	if r.Stock != nil && *r.Stock != *other.Stock {
		return false
	}
	return quoteEqual(r.TopBid, other.TopBid) && quoteEqual(r.TopAsk, other.TopAsk)
}

func quoteEqual(a, b *Quote) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
