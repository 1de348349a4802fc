package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/coderz/catalog-client/internal/api/metrics"
	"github.com/coderz/catalog-client/internal/core/domain"
	"github.com/coderz/catalog-client/internal/core/ports"
)

// ProductService wraps the product gateway and reports every outcome through
// the result envelope.
type ProductService struct {
	gateway  ports.ProductGateway
	exporter ports.Exporter
	msg      *Messages
	logger   zerolog.Logger
}

// NewProductService creates a ProductService. exporter may be nil, in which
// case Export fails.
func NewProductService(gateway ports.ProductGateway, exporter ports.Exporter, msg *Messages, logger zerolog.Logger) *ProductService {
	if msg == nil {
		msg = NewMessages("")
	}
	return &ProductService{gateway: gateway, exporter: exporter, msg: msg, logger: logger}
}

func (s *ProductService) Create(ctx context.Context, in domain.ProductInput) domain.Result[domain.Product] {
	if err := validateInput(in); err != nil {
		return domain.Fail[domain.Product](err, s.msg.get(msgProductCreateFailed))
	}
	p, err := s.gateway.Create(ctx, in)
	if err != nil {
		s.logger.Error().Err(err).Str("name", in.Name).Msg("create product failed")
		return domain.Fail[domain.Product](err, s.msg.get(msgProductCreateFailed))
	}
	return domain.Ok(*p, s.msg.get(msgProductCreated))
}

func (s *ProductService) List(ctx context.Context) domain.Result[[]domain.Product] {
	products, err := s.gateway.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("list products failed")
		return domain.Fail[[]domain.Product](err, s.msg.get(msgProductsListFailed))
	}
	return domain.Ok(products, s.msg.get(msgProductsListed))
}

func (s *ProductService) Get(ctx context.Context, id int) domain.Result[domain.Product] {
	p, err := s.gateway.Get(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int("id", id).Msg("get product failed")
		return domain.Fail[domain.Product](err, s.msg.get(msgProductFetchFailed))
	}
	return domain.Ok(*p, s.msg.get(msgProductFetched))
}

// Update writes the full record. When the server answers with an empty body
// the submitted record is echoed back.
func (s *ProductService) Update(ctx context.Context, id int, p domain.Product) domain.Result[domain.Product] {
	updated, err := s.gateway.Update(ctx, id, p)
	if err != nil {
		s.logger.Error().Err(err).Int("id", id).Msg("update product failed")
		return domain.Fail[domain.Product](err, s.msg.get(msgProductUpdateFailed))
	}
	if updated == nil {
		echo := p.Clone()
		echo.ID = id
		updated = &echo
	}
	return domain.Ok(*updated, s.msg.get(msgProductUpdated))
}

func (s *ProductService) Delete(ctx context.Context, id int) domain.Result[struct{}] {
	if err := s.gateway.Delete(ctx, id); err != nil {
		s.logger.Error().Err(err).Int("id", id).Msg("delete product failed")
		return domain.Fail[struct{}](err, s.msg.get(msgProductDeleteFailed))
	}
	return domain.Ok(struct{}{}, s.msg.get(msgProductDeleted))
}

// Search filters the full listing client-side.
func (s *ProductService) Search(ctx context.Context, query string) domain.Result[[]domain.Product] {
	products, err := s.gateway.List(ctx)
	if err != nil {
		return domain.Fail[[]domain.Product](err, s.msg.get(msgSearchFailed))
	}
	matched := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.Matches(query) {
			matched = append(matched, p)
		}
	}
	return domain.Ok(matched, s.msg.get(msgSearchFound, len(matched)))
}

func (s *ProductService) Statistics(ctx context.Context) domain.Result[domain.Statistics] {
	products, err := s.gateway.List(ctx)
	if err != nil {
		return domain.Fail[domain.Statistics](err, s.msg.get(msgStatsFailed))
	}
	return domain.Ok(domain.ComputeStatistics(products), s.msg.get(msgStatsFetched))
}

// Export writes the current listing through the configured exporter.
func (s *ProductService) Export(ctx context.Context) domain.Result[domain.ExportReceipt] {
	if s.exporter == nil {
		return domain.Fail[domain.ExportReceipt](fmt.Errorf("no exporter configured"), s.msg.get(msgExportFailed))
	}
	products, err := s.gateway.List(ctx)
	if err != nil {
		return domain.Fail[domain.ExportReceipt](err, s.msg.get(msgExportFailed))
	}
	receipt, err := s.exporter.Export(ctx, products)
	if err != nil {
		s.logger.Error().Err(err).Msg("export failed")
		return domain.Fail[domain.ExportReceipt](err, s.msg.get(msgExportFailed))
	}
	s.logger.Info().Str("location", receipt.Location).Int("count", receipt.Count).Msg("products exported")
	return domain.Ok(receipt, s.msg.get(msgExportDone))
}

// Import reads a JSON array of records and creates them one at a time. A
// record that fails to decode, validate or create is tallied as an error and
// the batch continues.
func (s *ProductService) Import(ctx context.Context, r io.Reader) domain.Result[domain.ImportSummary] {
	raw, err := decodeImportDocument(r)
	if err != nil {
		return domain.Fail[domain.ImportSummary](err, s.msg.get(msgImportInvalid))
	}

	var summary domain.ImportSummary
	fail := func(i int, name string, err error) {
		summary.ErrorCount++
		summary.Failures = append(summary.Failures, domain.ImportFailure{Index: i, Name: name, Reason: err.Error()})
		metrics.ImportRecordsTotal.WithLabelValues("error").Inc()
		s.logger.Warn().Err(err).Int("index", i).Msg("import record failed")
	}

	for i, item := range raw {
		if err := ctx.Err(); err != nil {
			return domain.Fail[domain.ImportSummary](err, s.msg.get(msgImportFailed))
		}

		var in domain.ProductInput
		if err := json.Unmarshal(item, &in); err != nil {
			fail(i, "", &domain.ParseError{Err: err})
			continue
		}
		if err := validateInput(in); err != nil {
			fail(i, in.Name, err)
			continue
		}
		if _, err := s.gateway.Create(ctx, in); err != nil {
			fail(i, in.Name, err)
			continue
		}
		summary.SuccessCount++
		metrics.ImportRecordsTotal.WithLabelValues("ok").Inc()
	}

	msg := s.msg.get(msgImportDone, summary.SuccessCount)
	if summary.ErrorCount > 0 {
		msg = s.msg.get(msgImportPartial, summary.SuccessCount, summary.ErrorCount)
	}
	return domain.Ok(summary, msg)
}

// decodeImportDocument reads exactly one JSON array. null, other values and
// trailing content are rejected.
func decodeImportDocument(r io.Reader) ([]json.RawMessage, error) {
	dec := json.NewDecoder(r)
	var raw []json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImport, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: got null", domain.ErrInvalidImport)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing content after array", domain.ErrInvalidImport)
	}
	return raw, nil
}
