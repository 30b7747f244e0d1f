// Package explorer provides typed accessors for the Flare explorer GraphQL API.
//
// Each accessor builds a fixed query, sends it through a Querier (normally a
// *client.Client) and decodes the result into an entity record. Paginated
// accessors return one page at a time; the walker constructors in this
// package wrap them in a pagination.Walker.
//
//	c, _ := client.New(client.DefaultConfig())
//	ex := explorer.New(c)
//	addr, err := ex.GetAddress(ctx, "0x...")
package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/flare-explorer-client/pkg/client"
	"github.com/Sternrassler/flare-explorer-client/pkg/logging"
	"github.com/Sternrassler/flare-explorer-client/pkg/pagination"
)

var (
	// ErrNotFound is returned when the requested entity, or the entity that
	// owns a requested collection, does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrQueryComplexityLimit is returned when a batch exceeds MaxBatchAddresses.
	ErrQueryComplexityLimit = client.ErrQueryComplexityLimit
)

// Resource names used for metrics and checkpoint keys.
const (
	ResourceInternalTransactions = "internal_transactions"
	ResourceAddressTransactions  = "address_transactions"
	ResourceTokenTransfers       = "token_transfers"
)

var pagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "explorer_pages_fetched_total",
	Help: "Pages fetched from paginated explorer collections",
}, []string{"resource"})

// Querier sends one GraphQL query and returns the decoded data object.
type Querier interface {
	Query(ctx context.Context, query string) (client.Data, error)
}

// Explorer exposes the explorer's resources. It holds no mutable state and
// may be shared between goroutines if its Querier can.
type Explorer struct {
	q      Querier
	logger zerolog.Logger
}

// New returns an Explorer that sends its queries through q.
func New(q Querier) *Explorer {
	return &Explorer{
		q:      q,
		logger: logging.NewLogger("explorer"),
	}
}

// GetAddress returns the address with the given hash.
func (e *Explorer) GetAddress(ctx context.Context, hash string) (*Address, error) {
	data, err := e.q.Query(ctx, addressQuery(hash))
	if err != nil {
		return nil, err
	}
	return decodeEntity[Address](data, "address", hash)
}

// GetAddresses returns the addresses for up to MaxBatchAddresses hashes in a
// single query. Larger batches fail with ErrQueryComplexityLimit before any
// request is sent.
func (e *Explorer) GetAddresses(ctx context.Context, hashes []string) ([]Address, error) {
	if len(hashes) > MaxBatchAddresses {
		return nil, &client.PreconditionError{What: "addresses", Limit: MaxBatchAddresses, Got: len(hashes)}
	}
	if len(hashes) == 0 {
		return []Address{}, nil
	}

	data, err := e.q.Query(ctx, addressesQuery(hashes))
	if err != nil {
		return nil, err
	}

	raw, ok := data["addresses"]
	if !ok || string(raw) == "null" {
		return []Address{}, nil
	}

	var addresses []Address
	if err := json.Unmarshal(raw, &addresses); err != nil {
		return nil, fmt.Errorf("decode addresses: %w", err)
	}

	e.logger.Debug().
		Int("requested", len(hashes)).
		Int("returned", len(addresses)).
		Msg("Batch address lookup")

	return addresses, nil
}

// GetBlock returns the block with the given number.
func (e *Explorer) GetBlock(ctx context.Context, number int64) (*Block, error) {
	data, err := e.q.Query(ctx, blockQuery(number))
	if err != nil {
		return nil, err
	}
	return decodeEntity[Block](data, "block", fmt.Sprint(number))
}

// GetTransaction returns the transaction with the given hash.
func (e *Explorer) GetTransaction(ctx context.Context, hash string) (*Transaction, error) {
	data, err := e.q.Query(ctx, transactionQuery(hash))
	if err != nil {
		return nil, err
	}
	return decodeEntity[Transaction](data, "transaction", hash)
}

// GetTransactionInfo returns a transaction and the first page of its internal
// transactions in one query. Later pages come from GetInternalTransactions
// with the returned end cursor.
func (e *Explorer) GetTransactionInfo(ctx context.Context, hash string) (*TransactionInfo, error) {
	data, err := e.q.Query(ctx, transactionInfoQuery(hash))
	if err != nil {
		return nil, err
	}

	tx, err := decodeEntity[Transaction](data, "transaction", hash)
	if err != nil {
		return nil, err
	}

	page, err := pagination.DecodePage[InternalTransaction](data, "transaction", "internalTransactions")
	if err != nil {
		return nil, e.pageError("transaction", hash, err)
	}
	pagesFetchedTotal.WithLabelValues(ResourceInternalTransactions).Inc()

	return &TransactionInfo{Transaction: *tx, InternalTransactions: page}, nil
}

// GetInternalTransactions returns the page of internal transactions of the
// given transaction that follows cursor ("" for the first page).
func (e *Explorer) GetInternalTransactions(ctx context.Context, txHash, cursor string) (pagination.Page[InternalTransaction], error) {
	if err := pagination.ValidateCursor(cursor); err != nil {
		return pagination.Page[InternalTransaction]{}, err
	}

	data, err := e.q.Query(ctx, internalTransactionsQuery(txHash, cursor))
	if err != nil {
		return pagination.Page[InternalTransaction]{}, err
	}

	page, err := pagination.DecodePage[InternalTransaction](data, "transaction", "internalTransactions")
	if err != nil {
		return pagination.Page[InternalTransaction]{}, e.pageError("transaction", txHash, err)
	}

	e.pageFetched(ResourceInternalTransactions, txHash, cursor, len(page.Items))
	return page, nil
}

// GetTransactionsFromAddress returns the page of transactions of the given
// address that follows cursor ("" for the first page).
func (e *Explorer) GetTransactionsFromAddress(ctx context.Context, address, cursor string) (pagination.Page[Transaction], error) {
	if err := pagination.ValidateCursor(cursor); err != nil {
		return pagination.Page[Transaction]{}, err
	}

	data, err := e.q.Query(ctx, addressTransactionsQuery(address, cursor))
	if err != nil {
		return pagination.Page[Transaction]{}, err
	}

	page, err := pagination.DecodePage[Transaction](data, "address", "transactions")
	if err != nil {
		return pagination.Page[Transaction]{}, e.pageError("address", address, err)
	}

	e.pageFetched(ResourceAddressTransactions, address, cursor, len(page.Items))
	return page, nil
}

// GetTokenTransfers returns the page of transfers of the given token contract
// that follows cursor ("" for the first page).
func (e *Explorer) GetTokenTransfers(ctx context.Context, contract, cursor string) (pagination.Page[TokenTransfer], error) {
	if err := pagination.ValidateCursor(cursor); err != nil {
		return pagination.Page[TokenTransfer]{}, err
	}

	data, err := e.q.Query(ctx, tokenTransfersQuery(contract, cursor))
	if err != nil {
		return pagination.Page[TokenTransfer]{}, err
	}

	page, err := pagination.DecodePage[TokenTransfer](data, "tokenTransfers")
	if err != nil {
		return pagination.Page[TokenTransfer]{}, fmt.Errorf("token transfers of %q: %w", contract, err)
	}

	e.pageFetched(ResourceTokenTransfers, contract, cursor, len(page.Items))
	return page, nil
}

func (e *Explorer) pageFetched(resource, parent, cursor string, items int) {
	pagesFetchedTotal.WithLabelValues(resource).Inc()
	logger := logging.ForWalk(e.logger, resource, parent)
	logger.Debug().
		Str(logging.FieldCursor, cursor).
		Int("items", items).
		Msg("Page fetched")
}

func (e *Explorer) pageError(kind, hash string, err error) error {
	if errors.Is(err, pagination.ErrParentNotFound) {
		return fmt.Errorf("%w: %s %q: %w", ErrNotFound, kind, hash, err)
	}
	return fmt.Errorf("%s %q: %w", kind, hash, err)
}

// decodeEntity decodes the single object stored under field. A missing or
// null field means the entity does not exist.
func decodeEntity[T any](data client.Data, field, id string) (*T, error) {
	raw, ok := data[field]
	if !ok || string(raw) == "null" {
		return nil, fmt.Errorf("%w: %s %q", ErrNotFound, field, id)
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s %q: %w", field, id, err)
	}
	return &v, nil
}
