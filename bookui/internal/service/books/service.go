package books

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/book-manager/bookui/config"
	"github.com/Astemirdum/book-manager/bookui/internal/errs"
	"github.com/Astemirdum/book-manager/bookui/internal/model"
	"github.com/Astemirdum/book-manager/pkg/circuit_breaker"
)

const booksPath = "/api/books"

// Service is the client of the books API.
type Service struct {
	log      *zap.Logger
	client   *http.Client
	cb       circuit_breaker.CircuitBreaker
	endpoint string
}

func NewService(log *zap.Logger, cfg config.BooksAPI) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Service{
		log:    log.Named("books"),
		client: &http.Client{Timeout: timeout},
		cb: circuit_breaker.New(circuit_breaker.Config{
			Window:    100,
			Threshold: 0.2,
			Cooldown:  time.Second,
			Probes:    2,
			Ignore: func(err error) bool {
				return errors.Is(err, context.Canceled)
			},
		}),
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + booksPath,
	}
}

func (s *Service) CB() circuit_breaker.CircuitBreaker {
	return s.cb
}

func (s *Service) ListBooks(ctx context.Context) ([]model.Book, error) {
	var list []model.Book
	if err := s.do(ctx, "list", http.MethodGet, s.endpoint, nil, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.Book{}
	}
	return list, nil
}

func (s *Service) CreateBook(ctx context.Context, req model.CreateBookRequest) error {
	return s.do(ctx, "create", http.MethodPost, s.endpoint, req, nil)
}

func (s *Service) UpdateBook(ctx context.Context, book model.Book) error {
	return s.do(ctx, "update", http.MethodPut, s.bookURL(book.ID), book, nil)
}

func (s *Service) DeleteBook(ctx context.Context, id model.ID) error {
	return s.do(ctx, "delete", http.MethodDelete, s.bookURL(id), nil, nil)
}

func (s *Service) bookURL(id model.ID) string {
	return s.endpoint + "/" + url.PathEscape(id.String())
}

func (s *Service) do(ctx context.Context, op, method, u string, body, out any) error {
	err := s.cb.Call(func() error {
		return s.roundTrip(ctx, method, u, body, out)
	})
	if err != nil {
		return &errs.RequestError{Op: op, Err: err}
	}
	return nil
}

func (s *Service) roundTrip(ctx context.Context, method, u string, body, out any) error {
	var payload io.Reader = http.NoBody
	if body != nil {
		b := bytes.NewBuffer(nil)
		if err := json.NewEncoder(b).Encode(body); err != nil {
			return errors.Wrap(err, "encode body")
		}
		payload = b
	}
	req, err := http.NewRequestWithContext(ctx, method, u, payload)
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "books api unavailable")
	}
	defer resp.Body.Close()
	s.log.Debug("books api", zap.String("method", method), zap.String("url", u), zap.Int("status", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		d, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10)) //nolint:errcheck
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(d)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
